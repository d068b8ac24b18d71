package assets

import (
	"os"
	"path/filepath"

	foundationerrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
)

// Clean removes root and everything beneath it. A missing root is not an error.
func Clean(root string) error {
	if root == "" {
		return foundationerrors.ValidationError("refusing to clean an empty path").Build()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return foundationerrors.FileSystemError("resolve output root").
			WithContext("path", root).WithCause(err).Build()
	}
	if abs == filepath.Dir(abs) {
		return foundationerrors.ValidationError("refusing to clean the filesystem root").
			WithContext("path", abs).Build()
	}
	if wd, err := os.Getwd(); err == nil && abs == wd {
		return foundationerrors.ValidationError("refusing to clean the working directory").
			WithContext("path", abs).Build()
	}
	if err := os.RemoveAll(abs); err != nil {
		return foundationerrors.FileSystemError("remove output root").
			WithContext("path", abs).WithCause(err).Build()
	}
	return nil
}
