package lint

import (
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/content"
)

// Linter runs rules over the posts of a section.
type Linter struct {
	rules []Rule
	now   func() time.Time
}

// NewLinter creates a linter with DefaultRules.
func NewLinter() *Linter {
	return &Linter{rules: DefaultRules(), now: time.Now}
}

// WithNow fixes the reference time used by date-based rules.
func (l *Linter) WithNow(now time.Time) *Linter {
	l.now = func() time.Time { return now }
	return l
}

// Lint discovers the posts under sectionDir and checks each of them.
// Documents that fail to parse are reported as errors.
func (l *Linter) Lint(sectionDir string) (*Result, error) {
	disc, err := content.Discover(sectionDir)
	if err != nil {
		return nil, err
	}

	result := &Result{Issues: []Issue{}, FilesTotal: len(disc.Posts) + len(disc.Warnings)}
	for _, w := range disc.Warnings {
		result.Issues = append(result.Issues, Issue{
			FilePath: w.Path,
			Severity: SeverityError,
			Rule:     "malformed-document",
			Message:  w.Err.Error(),
			Fix:      "Fix the frontmatter; builds skip this file until then",
		})
	}

	ctx := &Context{
		SectionDir: sectionDir,
		Now:        l.now(),
		Exists: func(rel string) bool {
			_, err := os.Stat(filepath.Join(sectionDir, filepath.FromSlash(rel)))
			return err == nil
		},
	}
	for _, p := range disc.Posts {
		for _, rule := range l.rules {
			result.Issues = append(result.Issues, rule.Check(p, ctx)...)
		}
	}
	return result, nil
}
