// Package metrics provides build and dev server metrics for assetpipe.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no nil checks are needed at call sites:
//
//	rec := metrics.NewPrometheusRecorder(reg)
//	p := build.NewPipeline(cfg, build.WithRecorder(rec))
//
// The build command can dump the registry to a node-exporter textfile
// (WriteTextfile); the dev server exposes it on /metrics (HTTPHandler).
package metrics
