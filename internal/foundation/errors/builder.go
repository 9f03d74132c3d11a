package errors

// ErrorBuilder assembles a ClassifiedError.
type ErrorBuilder struct {
	err ClassifiedError
}

func newBuilder(category ErrorCategory, severity ErrorSeverity, message string) *ErrorBuilder {
	return &ErrorBuilder{err: ClassifiedError{
		category: category,
		severity: severity,
		message:  message,
		context:  ErrorContext{},
	}}
}

// WithCause wraps err.
func (b *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	b.err.cause = err
	return b
}

// WithContext attaches a structured field.
func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.err.context[key] = value
	return b
}

// Build returns the finished error. The builder may not be reused.
func (b *ErrorBuilder) Build() *ClassifiedError {
	out := b.err
	return &out
}

// ConfigError reports an unusable configuration. It stops the command before
// any work starts.
func ConfigError(message string) *ErrorBuilder {
	return newBuilder(CategoryConfig, SeverityFatal, message)
}

// ValidationError reports bad operator input such as an unknown flag value.
func ValidationError(message string) *ErrorBuilder {
	return newBuilder(CategoryValidation, SeverityError, message)
}

// MalformedDocumentError reports a document that cannot be parsed. Builds
// skip the document and carry on, so it logs as a warning.
func MalformedDocumentError(message string) *ErrorBuilder {
	return newBuilder(CategoryMalformedDocument, SeverityWarning, message)
}

// AlreadyExistsError reports an occupied target path.
func AlreadyExistsError(message string) *ErrorBuilder {
	return newBuilder(CategoryAlreadyExists, SeverityError, message)
}

func RenderError(message string) *ErrorBuilder {
	return newBuilder(CategoryRender, SeverityFatal, message)
}

func DeployError(message string) *ErrorBuilder {
	return newBuilder(CategoryDeploy, SeverityFatal, message)
}

func FileSystemError(message string) *ErrorBuilder {
	return newBuilder(CategoryFileSystem, SeverityError, message)
}

func InternalError(message string) *ErrorBuilder {
	return newBuilder(CategoryInternal, SeverityFatal, message)
}

// RuntimeError reports cancellation or infrastructure failures.
func RuntimeError(message string) *ErrorBuilder {
	return newBuilder(CategoryRuntime, SeverityError, message)
}
