package transform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/assetpipe/internal/assets"
	foundationerrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
)

// ErrSassNotFound is returned when the sass binary is not on PATH.
var ErrSassNotFound = errors.New("sass binary not found")

// Style compiles SCSS by invoking the sass binary, one process per file.
type Style struct {
	Binary string
	// LoadPaths are extra @use/@import roots; the source file's directory is always included.
	LoadPaths []string
}

// NewStyle returns a Style transformer for binary ("sass" when empty).
func NewStyle(binary string, loadPaths ...string) *Style {
	if binary == "" {
		binary = "sass"
	}
	return &Style{Binary: binary, LoadPaths: loadPaths}
}

func (s *Style) args(src assets.Source) []string {
	args := []string{"--stdin", "--style=expanded", "--no-source-map", "--no-color"}
	args = append(args, "--load-path="+filepath.Dir(src.Path))
	for _, p := range s.LoadPaths {
		args = append(args, "--load-path="+p)
	}
	return args
}

func (s *Style) Transform(ctx context.Context, src assets.Source) ([]byte, error) {
	bin, err := exec.LookPath(s.Binary)
	if err != nil {
		return nil, foundationerrors.TransformError("compile stylesheet").
			WithContext("path", src.Path).
			WithCause(fmt.Errorf("%w: %w", ErrSassNotFound, err)).
			Build()
	}

	cmd := exec.CommandContext(ctx, bin, s.args(src)...)
	cmd.Stdin = bytes.NewReader(src.Content)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// sass reports syntax errors on stderr; that text is the diagnostic.
		diag := strings.TrimSpace(stderr.String())
		cause := err
		if diag != "" {
			cause = errors.New(diag)
		}
		return nil, foundationerrors.TransformError("compile stylesheet").
			WithContext("path", src.Path).
			WithCause(cause).
			Build()
	}
	return stdout.Bytes(), nil
}
