// Package build assembles and runs the asset build:
//
//	build = seq(clean, all(compile = all(style, script, page, image, font), extra))
//
// The pipeline moves through idle, cleaning, compiling and then done or
// failed. Cleaning always completes before any task writes output.
package build
