package commands

import (
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/assetpipe/internal/devserver"
	foundationerrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/assetpipe/internal/metrics"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Port         int  `short:"p" help:"Port to listen on (overrides server.port)"`
	Build        bool `help:"Run one build before serving"`
	NoLiveReload bool `name:"no-livereload" help:"Disable change notifications and script injection"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if s.Port != 0 {
		if s.Port < 1 || s.Port > 65535 {
			return foundationerrors.ValidationError("port out of range").
				WithContext("port", s.Port).
				Build()
		}
		cfg.Server.Port = s.Port
	}
	if s.NoLiveReload {
		off := false
		cfg.Server.LiveReload = &off
	}

	ctx, stop := signalContext()
	defer stop()

	if s.Build {
		if err := RunBuild(ctx, cfg, g.logger(), os.Stdout); err != nil {
			return err
		}
	}

	reg := prometheus.NewRegistry()
	srv := devserver.New(cfg,
		devserver.WithRecorder(metrics.NewPrometheusRecorder(reg)),
		devserver.WithMetricsHandler(metrics.HTTPHandler(reg)),
		devserver.WithLogger(g.logger()),
	)
	return srv.Run(ctx)
}
