// Package errors provides the classified error primitives used across assetpipe.
//
// Every failure the pipeline can report falls into a small taxonomy:
//   - CategoryFileSystem: missing or unreadable sources, undeletable output
//   - CategoryTransform: a compiler/transpiler/renderer rejected a source file
//   - CategoryNetwork: the dev server could not bind or serve
//   - CategoryConfig / CategoryValidation: bad configuration or arguments
//
// Errors are built with a fluent builder and keep the underlying tool's
// diagnostic as their cause:
//
//	err := errors.TransformError("compile stylesheet").
//		WithContext("path", src).
//		WithCause(sassErr).
//		Build()
package errors
