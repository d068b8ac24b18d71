package build

import (
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/assetpipe/internal/assets"
	"git.home.luguber.info/inful/assetpipe/internal/config"
	"git.home.luguber.info/inful/assetpipe/internal/transform"
)

// taskSpec declares one category task: which files, relative to which tree,
// land where.
type taskSpec struct {
	category transform.Category
	tree     func(*config.Config) string
	pattern  string // relative to tree
	ext      string
	skip     func(rel string) bool
}

func sourceTree(c *config.Config) string { return c.Paths.Source }
func publicTree(c *config.Config) string { return c.Paths.Public }

// isPartial matches sass partials (_name.scss); they are only reachable through @use.
func isPartial(rel string) bool {
	return strings.HasPrefix(path.Base(rel), "_")
}

// compileSpecs is the compile group, in declaration order.
var compileSpecs = []taskSpec{
	{category: transform.CategoryStyle, tree: sourceTree, pattern: "assets/styles/*.scss", ext: ".css", skip: isPartial},
	{category: transform.CategoryScript, tree: sourceTree, pattern: "assets/scripts/*.js"},
	{category: transform.CategoryPage, tree: sourceTree, pattern: "*.html"},
	{category: transform.CategoryImage, tree: sourceTree, pattern: "assets/images/**"},
	{category: transform.CategoryFont, tree: sourceTree, pattern: "assets/fonts/**"},
}

var extraSpec = taskSpec{category: transform.CategoryExtra, tree: publicTree, pattern: "**"}

// newTask instantiates spec against cfg with transformer tr.
func newTask(cfg *config.Config, spec taskSpec, tr assets.Transformer) *assets.Task {
	base := slashRel(cfg.Paths.Root, cfg.Resolve(spec.tree(cfg)))
	return &assets.Task{
		Name:        string(spec.category),
		Root:        cfg.Paths.Root,
		Pattern:     path.Join(base, spec.pattern),
		Base:        base,
		Output:      cfg.OutputDir(),
		Ext:         spec.ext,
		Skip:        spec.skip,
		Transformer: tr,
	}
}

// slashRel is dir relative to root with forward slashes; config validation
// guarantees dir is inside root.
func slashRel(root, dir string) string {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return filepath.ToSlash(dir)
	}
	return filepath.ToSlash(rel)
}
