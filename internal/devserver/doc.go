// Package devserver serves the build output over HTTP and notifies connected
// browsers when files under the output root change.
//
// Routes:
//
//	/               output root
//	/node_modules/  project dependencies
//	/livereload     server-sent events, one message per change batch
//	/livereload.js  client script, injected into HTML pages
//	/metrics        Prometheus metrics
//
// The server never rebuilds; pair it with a separate build run.
package devserver
