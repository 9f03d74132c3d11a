package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilders(t *testing.T) {
	cases := []struct {
		name     string
		err      *ClassifiedError
		category ErrorCategory
		severity ErrorSeverity
		sentinel error
	}{
		{"config", ConfigError("bad").Build(), CategoryConfig, SeverityFatal, ErrConfiguration},
		{"malformed", MalformedDocumentError("no date").Build(), CategoryMalformedDocument, SeverityWarning, ErrMalformedDocument},
		{"exists", AlreadyExistsError("taken").Build(), CategoryAlreadyExists, SeverityError, ErrAlreadyExists},
		{"render", RenderError("boom").Build(), CategoryRender, SeverityFatal, ErrRenderFailure},
		{"deploy", DeployError("rejected").Build(), CategoryDeploy, SeverityFatal, ErrDeployFailure},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.category, tc.err.Category())
			assert.Equal(t, tc.severity, tc.err.Severity())
			assert.ErrorIs(t, fmt.Errorf("wrapped: %w", tc.err), tc.sentinel)
		})
	}
}

func TestClassifiedError_SentinelsDoNotCrossMatch(t *testing.T) {
	err := fmt.Errorf("discover: %w", MalformedDocumentError("missing date").WithContext("path", "posts/a.md").Build())
	assert.NotErrorIs(t, err, ErrRenderFailure)
	assert.True(t, HasCategory(err, CategoryMalformedDocument))
	assert.False(t, HasCategory(New("plain"), CategoryMalformedDocument))
}

func TestClassifiedError_CauseAndMessage(t *testing.T) {
	cause := New("exit status 1")
	err := RenderError("hugo failed").WithCause(cause).Build()
	require.ErrorIs(t, err, cause)
	assert.Equal(t, "[render] hugo failed: exit status 1", err.Error())
	assert.Equal(t, "[config] bad", ConfigError("bad").Build().Error())

	// Same category, different message: only sentinels match loosely.
	assert.NotErrorIs(t, err, RenderError("other").Build())
	assert.ErrorIs(t, err, RenderError("hugo failed").Build())
}

func TestClassifiedError_WithContextCopies(t *testing.T) {
	base := FileSystemError("write").WithContext("path", "a").Build()
	derived := base.WithContext("path", "b")

	assert.Equal(t, "a", base.Context()["path"])
	assert.Equal(t, "b", derived.Context()["path"])
	assert.Equal(t, base.Message(), derived.Message())
}

func TestAsClassified(t *testing.T) {
	_, ok := AsClassified(New("plain"))
	assert.False(t, ok)

	c, ok := AsClassified(fmt.Errorf("x: %w", RuntimeError("cancelled").Build()))
	require.True(t, ok)
	assert.Equal(t, CategoryRuntime, c.Category())
}
