package transform

import (
	"time"

	"git.home.luguber.info/inful/assetpipe/internal/assets"
)

// Category names an asset class of the build.
type Category string

const (
	CategoryStyle  Category = "style"
	CategoryScript Category = "script"
	CategoryPage   Category = "page"
	CategoryImage  Category = "image"
	CategoryFont   Category = "font"
	CategoryExtra  Category = "extra"
)

// Env carries what the factories need to construct converters.
type Env struct {
	SourceDir  string
	SassBinary string
	PageData   PageData
}

// Factory constructs the converter of one category.
type Factory func(env Env) assets.Transformer

// Registry maps each category to its converter. The set of categories is fixed.
var Registry = map[Category]Factory{
	CategoryStyle:  func(env Env) assets.Transformer { return NewStyle(env.SassBinary) },
	CategoryScript: func(Env) assets.Transformer { return Script{} },
	CategoryPage:   func(env Env) assets.Transformer { return NewPage(env.SourceDir, env.PageData) },
	CategoryImage:  func(Env) assets.Transformer { return NewImage() },
	CategoryFont:   func(Env) assets.Transformer { return NewFont() },
	CategoryExtra:  func(Env) assets.Transformer { return assets.Copy },
}

// NewEnv assembles an Env from loaded inputs.
func NewEnv(sourceDir, sassBinary string, pkg map[string]any, date time.Time, extra map[string]any) Env {
	return Env{
		SourceDir:  sourceDir,
		SassBinary: sassBinary,
		PageData:   NewPageData(pkg, date, extra),
	}
}
