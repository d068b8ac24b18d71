// Package transform holds the per-category converters of the build.
//
// Each converter wraps one external compiler or library with a fixed
// configuration:
//
//	style   sass binary, expanded output
//	script  esbuild, ES2015 target
//	page    pongo2 templates with an immutable PageData context
//	image   lossless PNG recompression, SVG minification
//	font    SVG font minification, binary fonts untouched
//
// Converters are looked up through the static Registry table.
package transform
