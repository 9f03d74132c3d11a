package errors

import (
	"errors"
	"fmt"
)

// ClassifiedError is an error tagged with a category, a severity and
// structured context. Build one with the constructors in builder.go.
type ClassifiedError struct {
	category ErrorCategory
	severity ErrorSeverity
	message  string
	cause    error
	context  ErrorContext
}

// Sentinels for errors.Is. Each matches any ClassifiedError of its category.
var (
	ErrMalformedDocument = &ClassifiedError{category: CategoryMalformedDocument}
	ErrAlreadyExists     = &ClassifiedError{category: CategoryAlreadyExists}
	ErrRenderFailure     = &ClassifiedError{category: CategoryRender}
	ErrConfiguration     = &ClassifiedError{category: CategoryConfig}
	ErrDeployFailure     = &ClassifiedError{category: CategoryDeploy}
)

func (e *ClassifiedError) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("[%s] %s", e.category, e.message)
	}
	return fmt.Sprintf("[%s] %s: %v", e.category, e.message, e.cause)
}

func (e *ClassifiedError) Unwrap() error { return e.cause }

func (e *ClassifiedError) Category() ErrorCategory { return e.category }

func (e *ClassifiedError) Severity() ErrorSeverity { return e.severity }

func (e *ClassifiedError) Message() string { return e.message }

func (e *ClassifiedError) Cause() error { return e.cause }

// Context returns the structured fields attached to the error. Callers must
// not modify the returned map.
func (e *ClassifiedError) Context() ErrorContext { return e.context }

// WithContext returns a copy of e with key set.
func (e *ClassifiedError) WithContext(key string, value any) *ClassifiedError {
	cp := *e
	cp.context = e.context.Merge(ErrorContext{key: value})
	return &cp
}

// Is matches sentinels (no message) on category, everything else on
// category and message.
func (e *ClassifiedError) Is(target error) bool {
	other, ok := target.(*ClassifiedError)
	if !ok || e.category != other.category {
		return false
	}
	return other.message == "" || e.message == other.message
}

// AsClassified finds the first ClassifiedError in err's chain.
func AsClassified(err error) (*ClassifiedError, bool) {
	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified, true
	}
	return nil, false
}

// HasCategory reports whether the first ClassifiedError in err's chain has
// the given category.
func HasCategory(err error, category ErrorCategory) bool {
	classified, ok := AsClassified(err)
	return ok && classified.category == category
}
