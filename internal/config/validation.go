package config

import (
	"path/filepath"

	"git.home.luguber.info/inful/assetpipe/internal/foundation"
)

// configValidators checks that the source trees are addressable from the
// project root, that cleaning the output root can never remove them, and
// that the server settings are usable.
var configValidators = foundation.NewValidatorChain[*Config](
	validateOutputSet,
	validateTreesInRoot,
	validateOutputSeparate,
	foundation.Field(func(c *Config) int { return c.Server.Port }, foundation.InRange("server.port", 1, 65535)),
)

// ValidateConfig validates the complete configuration structure.
func ValidateConfig(cfg *Config) error {
	return configValidators.Validate(cfg).ToError()
}

func validateOutputSet(c *Config) foundation.ValidationResult {
	if c.Paths.Output == "" {
		return foundation.Invalid(foundation.NewFieldError("paths.output", "required", "must not be empty", nil))
	}
	return foundation.Valid()
}

func validateTreesInRoot(c *Config) foundation.ValidationResult {
	root := filepath.Clean(c.Paths.Root)
	result := foundation.Valid()
	for _, tree := range trees(c) {
		if !isWithin(tree.dir, root) {
			result = result.Combine(foundation.Invalid(foundation.NewFieldError(
				tree.field, "outside_root", "must be inside the project root", tree.dir)))
		}
	}
	return result
}

func validateOutputSeparate(c *Config) foundation.ValidationResult {
	if c.Paths.Output == "" {
		return foundation.Valid()
	}
	out := c.OutputDir()
	if out == filepath.Clean(c.Paths.Root) {
		return foundation.Invalid(foundation.NewFieldError(
			"paths.output", "is_root", "must not be the project root", out))
	}
	result := foundation.Valid()
	for _, tree := range trees(c) {
		switch {
		case out == tree.dir || isWithin(tree.dir, out):
			result = result.Combine(foundation.Invalid(foundation.NewFieldError(
				"paths.output", "contains_input", "must not contain "+tree.field, out)))
		case isWithin(out, tree.dir):
			// Cleaning would delete inputs, and outputs would be read back as sources.
			result = result.Combine(foundation.Invalid(foundation.NewFieldError(
				"paths.output", "inside_input", "must not be inside "+tree.field, out)))
		}
	}
	return result
}

type tree struct {
	field string
	dir   string
}

func trees(c *Config) []tree {
	return []tree{
		{"paths.source", c.SourceDir()},
		{"paths.public", c.PublicDir()},
	}
}

// isWithin reports whether p lies under dir.
func isWithin(p, dir string) bool {
	rel, err := filepath.Rel(dir, p)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !filepath.IsAbs(rel) && !startsWithParent(rel)
}

func startsWithParent(rel string) bool {
	return len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator)
}
