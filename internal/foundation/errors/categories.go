package errors

import "maps"

// ErrorCategory groups failures by how the caller should react to them.
// The CLI maps each category to an exit code, the preview server to an
// HTTP status.
type ErrorCategory string

const (
	CategoryConfig            ErrorCategory = "config"
	CategoryValidation        ErrorCategory = "validation"
	CategoryAlreadyExists     ErrorCategory = "already_exists"
	CategoryMalformedDocument ErrorCategory = "malformed_document"
	CategoryRender            ErrorCategory = "render"
	CategoryDeploy            ErrorCategory = "deploy"
	CategoryFileSystem        ErrorCategory = "filesystem"
	// CategoryRuntime covers cancellation and infrastructure trouble.
	CategoryRuntime  ErrorCategory = "runtime"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity picks the log level an adapter reports the error at.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"
	SeverityError   ErrorSeverity = "error"
	SeverityWarning ErrorSeverity = "warning"
)

// ErrorContext carries structured fields (paths, keys, targets) that the
// adapters turn into log attributes.
type ErrorContext map[string]any

// Merge returns a new context holding c overlaid with other.
func (c ErrorContext) Merge(other ErrorContext) ErrorContext {
	out := make(ErrorContext, len(c)+len(other))
	maps.Copy(out, c)
	maps.Copy(out, other)
	return out
}
