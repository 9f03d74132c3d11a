// Package lint checks posts without rendering them: malformed documents
// plus advisory checks authors usually want to hear about before publishing.
package lint

import (
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/post"
)

// Severity indicates the importance level of a linting issue.
type Severity int

const (
	// SeverityInfo is purely informational.
	SeverityInfo Severity = iota
	// SeverityWarning should be fixed but does not affect the build.
	SeverityWarning
	// SeverityError means the document is skipped by every build.
	SeverityError
)

// String returns the human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Issue is a single problem found in a post.
type Issue struct {
	FilePath string // relative to the posts section
	Severity Severity
	Rule     string
	Message  string
	Fix      string
}

// Result contains all issues found during linting.
type Result struct {
	Issues     []Issue
	FilesTotal int
}

// HasErrors returns true if any error-level issues exist.
func (r *Result) HasErrors() bool { return r.ErrorCount() > 0 }

// ErrorCount returns the number of error-level issues.
func (r *Result) ErrorCount() int { return r.count(SeverityError) }

// WarningCount returns the number of warning-level issues.
func (r *Result) WarningCount() int { return r.count(SeverityWarning) }

// InfoCount returns the number of info-level issues.
func (r *Result) InfoCount() int { return r.count(SeverityInfo) }

func (r *Result) count(s Severity) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == s {
			n++
		}
	}
	return n
}

// Failed reports whether the lint run should fail. Errors always fail;
// strict mode fails on any issue.
func (r *Result) Failed(strict bool) bool {
	if strict {
		return len(r.Issues) > 0
	}
	return r.HasErrors()
}

// Context is shared state handed to every rule.
type Context struct {
	SectionDir string
	Now        time.Time
	// Exists reports whether a section-relative path exists on disk.
	Exists func(rel string) bool
}

// Rule checks one post.
type Rule interface {
	Name() string
	Check(p *post.Post, ctx *Context) []Issue
}
