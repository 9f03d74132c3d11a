package lint

import (
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/markdown"
	"git.home.luguber.info/inful/blogbuilder/internal/post"
)

// StaleDraftAge is how old a draft's date may get before it is reported.
const StaleDraftAge = 90 * 24 * time.Hour

// DefaultRules returns the advisory rules in reporting order.
func DefaultRules() []Rule {
	return []Rule{
		MissingTitleRule{},
		MissingDescriptionRule{},
		EmptyBodyRule{},
		StaleDraftRule{},
		BrokenLinkRule{},
	}
}

// MissingTitleRule flags posts whose title was derived from the file name.
type MissingTitleRule struct{}

func (MissingTitleRule) Name() string { return "missing-title" }

func (r MissingTitleRule) Check(p *post.Post, _ *Context) []Issue {
	if !p.DefaultTitle {
		return nil
	}
	return []Issue{{
		FilePath: p.RelPath,
		Severity: SeverityWarning,
		Rule:     r.Name(),
		Message:  fmt.Sprintf("No title; %q will be used", p.Title),
		Fix:      "Add a title to the frontmatter",
	}}
}

// MissingDescriptionRule flags posts without a description.
type MissingDescriptionRule struct{}

func (MissingDescriptionRule) Name() string { return "missing-description" }

func (r MissingDescriptionRule) Check(p *post.Post, _ *Context) []Issue {
	if strings.TrimSpace(p.Description) != "" {
		return nil
	}
	return []Issue{{
		FilePath: p.RelPath,
		Severity: SeverityInfo,
		Rule:     r.Name(),
		Message:  "No description; listings and feeds fall back to a summary of the body",
		Fix:      "Add a description to the frontmatter",
	}}
}

// EmptyBodyRule flags posts with nothing after the frontmatter.
type EmptyBodyRule struct{}

func (EmptyBodyRule) Name() string { return "empty-body" }

func (r EmptyBodyRule) Check(p *post.Post, _ *Context) []Issue {
	if len(strings.TrimSpace(string(p.Body))) > 0 {
		return nil
	}
	return []Issue{{
		FilePath: p.RelPath,
		Severity: SeverityWarning,
		Rule:     r.Name(),
		Message:  "Post has no content",
	}}
}

// StaleDraftRule flags drafts dated more than StaleDraftAge ago.
type StaleDraftRule struct{}

func (StaleDraftRule) Name() string { return "stale-draft" }

func (r StaleDraftRule) Check(p *post.Post, ctx *Context) []Issue {
	age := ctx.Now.Sub(p.Date)
	if !p.Draft || age <= StaleDraftAge {
		return nil
	}
	return []Issue{{
		FilePath: p.RelPath,
		Severity: SeverityInfo,
		Rule:     r.Name(),
		Message:  fmt.Sprintf("Draft dated %s (%d days ago)", p.Date.Format("2006-01-02"), int(age.Hours()/24)),
		Fix:      "Publish it, bump its date, or delete it",
	}}
}

// BrokenLinkRule flags relative links to Markdown files that do not exist.
type BrokenLinkRule struct{}

func (BrokenLinkRule) Name() string { return "broken-link" }

func (r BrokenLinkRule) Check(p *post.Post, ctx *Context) []Issue {
	if ctx.Exists == nil {
		return nil
	}
	var issues []Issue
	for _, link := range markdown.ExtractLinks(p.Body) {
		target, ok := localMarkdownTarget(p.RelPath, link.Destination)
		if !ok || ctx.Exists(target) {
			continue
		}
		issues = append(issues, Issue{
			FilePath: p.RelPath,
			Severity: SeverityWarning,
			Rule:     r.Name(),
			Message:  fmt.Sprintf("Link to %s points at a missing file", link.Destination),
		})
	}
	return issues
}

// localMarkdownTarget resolves dest against the post's directory when it is
// a relative link to a Markdown file inside the section.
func localMarkdownTarget(relPath, dest string) (string, bool) {
	u, err := url.Parse(dest)
	if err != nil || u.Scheme != "" || u.Host != "" || u.Path == "" || strings.HasPrefix(u.Path, "/") {
		return "", false
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if ext != ".md" && ext != ".markdown" {
		return "", false
	}
	target := path.Clean(path.Join(path.Dir(relPath), u.Path))
	if target == ".." || strings.HasPrefix(target, "../") {
		return "", false
	}
	return target, true
}
