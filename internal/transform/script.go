package transform

import (
	"context"
	"errors"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"git.home.luguber.info/inful/assetpipe/internal/assets"
	foundationerrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
)

// Script transpiles modern JavaScript down to the ES2015 compatibility preset.
type Script struct{}

func (Script) Transform(_ context.Context, src assets.Source) ([]byte, error) {
	result := api.Transform(string(src.Content), api.TransformOptions{
		Loader:     api.LoaderJS,
		Target:     api.ES2015,
		Sourcefile: src.Rel,
		Charset:    api.CharsetUTF8,
	})
	if len(result.Errors) > 0 {
		msgs := api.FormatMessages(result.Errors, api.FormatMessagesOptions{Kind: api.ErrorMessage})
		return nil, foundationerrors.TransformError("transpile script").
			WithContext("path", src.Path).
			WithCause(errors.New(strings.TrimSpace(strings.Join(msgs, "\n")))).
			Build()
	}
	return result.Code, nil
}
