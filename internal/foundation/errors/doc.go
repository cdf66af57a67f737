// Package errors provides the classified error primitives used across streamsite.
//
// Every pipeline stage reports a single ClassifiedError carrying a category
// (config, filesystem, template, minify, ...), a severity and structured
// context such as the offending path. The CLI adapter turns those into
// user-facing messages and exit codes.
//
// Example usage:
//
//	err := errors.WrapError(cause, errors.CategoryFileSystem, "failed to write asset").
//		WithContext("path", rel).
//		WithContext("stage", "write").
//		Build()
package errors
