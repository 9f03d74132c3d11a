// Package errors classifies blogbuilder failures.
//
// A ClassifiedError carries a category, a severity and structured context.
// CLIErrorAdapter turns the category into a process exit code and
// HTTPErrorAdapter into a status code for the preview server. Callers test
// for a kind of failure with the sentinels:
//
//	if errors.Is(err, errors.ErrMalformedDocument) {
//		// skip the post, keep building
//	}
//
// Malformed documents are skipped with a warning. Render and deploy failures
// abort the current build but leave the last good output in place.
package errors
