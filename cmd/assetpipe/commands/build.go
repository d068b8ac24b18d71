package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/assetpipe/internal/build"
	"git.home.luguber.info/inful/assetpipe/internal/config"
	"git.home.luguber.info/inful/assetpipe/internal/logfields"
	"git.home.luguber.info/inful/assetpipe/internal/metrics"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	MetricsTextfile string `name:"metrics-textfile" help:"Write build metrics to this node-exporter textfile (overrides metrics.textfile)"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if b.MetricsTextfile != "" {
		cfg.Metrics.Textfile = b.MetricsTextfile
	}

	ctx, stop := signalContext()
	defer stop()
	return RunBuild(ctx, cfg, g.logger(), os.Stdout)
}

// RunBuild runs one pipeline and prints a per-task summary to out.
func RunBuild(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	reg := prometheus.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)

	res, err := build.NewPipeline(cfg).
		WithRecorder(rec).
		WithLogger(logger).
		Run(ctx)
	if res != nil {
		printSummary(out, res)
	}

	if path := cfg.Metrics.Textfile; path != "" {
		if werr := metrics.WriteTextfile(path, reg); werr != nil {
			logger.Warn("Failed to write metrics textfile", logfields.Path(path), logfields.Error(werr))
		}
	}
	return err
}

func printSummary(out io.Writer, res *build.BuildResult) {
	for _, t := range res.Tasks {
		status := "ok"
		if t.Err != nil {
			status = "FAILED"
		}
		_, _ = fmt.Fprintf(out, "%-7s %-6s %4d files  %v\n", t.Name, status, t.Files, t.Duration.Round(time.Millisecond))
	}
	_, _ = fmt.Fprintf(out, "build %s: %d files in %v -> %s\n",
		res.Status, res.FilesProcessed, res.Duration.Round(time.Millisecond), res.OutputPath)
}
