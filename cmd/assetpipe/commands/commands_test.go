package commands

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/assetpipe/internal/config"
	foundationerrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/assetpipe/internal/testutil"
)

func TestCLIParse(t *testing.T) {
	var cli CLI
	parser, err := kong.New(&cli, kong.Vars{"version": "test"})
	require.NoError(t, err)

	kctx, err := parser.Parse([]string{"-v", "serve", "-p", "3000", "--no-livereload"})
	require.NoError(t, err)
	assert.Equal(t, "serve", kctx.Command())
	assert.True(t, cli.Verbose)
	assert.Equal(t, 3000, cli.Serve.Port)
	assert.True(t, cli.Serve.NoLiveReload)
	assert.Equal(t, config.DefaultFile, filepath.Base(cli.Config))
}

func TestRunBuild_WritesSummaryAndTextfile(t *testing.T) {
	proj := testutil.NewProject(t).WithFile("public/readme.txt", "hi")
	cfg := proj.Config()
	cfg.Metrics.Textfile = proj.Path("assetpipe.prom")

	var out bytes.Buffer
	require.NoError(t, RunBuild(context.Background(), cfg, slog.Default(), &out))

	assert.Contains(t, out.String(), "build success: 1 files")
	proj.Output().AssertFiles("readme.txt")

	prom, err := os.ReadFile(cfg.Metrics.Textfile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "assetpipe_build_outcomes_total")
}

func TestServeCmd_RejectsPortOutOfRange(t *testing.T) {
	cmd := &ServeCmd{Port: 70000}
	err := cmd.Run(&Global{}, &CLI{Config: filepath.Join(t.TempDir(), "missing.yaml")})
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryValidation))
}
