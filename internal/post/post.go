// Package post defines the blog Document: typed frontmatter fields, opaque
// passthrough keys and the Markdown body.
package post

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/blogbuilder/internal/frontmatter"
)

// Recognized frontmatter keys.
const (
	KeyTitle       = "title"
	KeyDate        = "date"
	KeyDraft       = "draft"
	KeyTags        = "tags"
	KeyDescription = "description"
)

// Post is a single authored document.
type Post struct {
	Title string
	// DefaultTitle is set when the frontmatter had no title and Title was
	// derived from the slug.
	DefaultTitle bool
	Date         time.Time
	Draft        bool
	Tags         []string
	Description  string
	Body         []byte

	// Extra holds frontmatter keys this package does not interpret. They are
	// handed to the renderer untouched.
	Extra map[string]any

	Path        string // absolute path on disk
	RelPath     string // slash-separated path relative to the section directory
	Slug        string
	Format      frontmatter.Format
	Fingerprint string
	Order       int // discovery index; breaks ties between equal dates
}

// Fields rebuilds the full frontmatter map (recognized keys plus Extra).
func (p *Post) Fields() map[string]any {
	fields := make(map[string]any, len(p.Extra)+5)
	for k, v := range p.Extra {
		fields[k] = v
	}
	fields[KeyTitle] = p.Title
	fields[KeyDate] = p.Date
	fields[KeyDraft] = p.Draft
	if len(p.Tags) > 0 {
		tags := make([]any, len(p.Tags))
		for i, t := range p.Tags {
			tags[i] = t
		}
		fields[KeyTags] = tags
	}
	if p.Description != "" {
		fields[KeyDescription] = p.Description
	}
	return fields
}

// Source re-serializes the post with its frontmatter, adding the given keys.
// Output is deterministic for identical inputs.
func (p *Post) Source(overrides map[string]any) ([]byte, error) {
	fields := p.Fields()
	for k, v := range overrides {
		fields[k] = v
	}
	style := frontmatter.Style{Newline: "\n", Format: p.Format}
	if style.Format == frontmatter.FormatNone {
		style.Format = frontmatter.FormatYAML
	}
	raw, err := frontmatter.Serialize(fields, style)
	if err != nil {
		return nil, fmt.Errorf("serialize frontmatter for %s: %w", p.RelPath, err)
	}
	return frontmatter.Join(raw, p.Body, true, style), nil
}

// SlugFromPath derives the slug for a content path. Page bundles
// (`<dir>/index.md`) take the directory name.
func SlugFromPath(relPath string) string {
	relPath = path.Clean(strings.ReplaceAll(relPath, "\\", "/"))
	base := path.Base(relPath)
	name := strings.TrimSuffix(base, path.Ext(base))
	if name == "index" {
		if dir := path.Base(path.Dir(relPath)); dir != "." && dir != "/" {
			return dir
		}
	}
	return name
}

// IsBundle reports whether the post is the index of a page bundle.
func (p *Post) IsBundle() bool {
	base := path.Base(p.RelPath)
	return strings.TrimSuffix(base, path.Ext(base)) == "index"
}

func fingerprint(rawFrontmatter, body []byte) string {
	return mdfp.CalculateFingerprintFromParts(strings.TrimSuffix(string(rawFrontmatter), "\n"), string(body))
}
