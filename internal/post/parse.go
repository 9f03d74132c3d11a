package post

import (
	"fmt"
	"strings"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/frontmatter"
)

// dateLayouts are tried in order for string-valued dates.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Parse builds a Post from raw file content. relPath is the slash-separated
// path relative to the section directory.
//
// Any problem with the document (bad frontmatter syntax, a missing or
// unparsable date, a wrongly typed recognized key) is reported as a
// MalformedDocument error.
func Parse(content []byte, relPath string) (*Post, error) {
	raw, body, had, style, err := frontmatter.Split(content)
	if err != nil {
		return nil, malformed(relPath, "invalid frontmatter block", err)
	}
	if !had {
		return nil, malformed(relPath, "missing frontmatter", nil)
	}

	fields, err := frontmatter.Parse(style.Format, raw)
	if err != nil {
		return nil, malformed(relPath, "frontmatter does not parse", err)
	}

	p := &Post{
		Body:        body,
		RelPath:     relPath,
		Slug:        SlugFromPath(relPath),
		Format:      style.Format,
		Fingerprint: fingerprint(raw, body),
		Extra:       map[string]any{},
	}

	rawDate, ok := fields[KeyDate]
	if !ok || rawDate == nil {
		return nil, malformed(relPath, "missing required field \"date\"", nil)
	}
	if p.Date, err = ParseDate(rawDate); err != nil {
		return nil, malformed(relPath, "invalid \"date\"", err)
	}

	if v, ok := fields[KeyTitle]; ok && v != nil {
		s, ok := v.(string)
		if !ok {
			return nil, malformed(relPath, fmt.Sprintf("\"title\" must be a string, got %T", v), nil)
		}
		p.Title = s
	}
	if strings.TrimSpace(p.Title) == "" {
		p.Title = TitleFromSlug(p.Slug)
		p.DefaultTitle = true
	}

	// Documents are drafts until their frontmatter says otherwise.
	p.Draft = true
	if v, ok := fields[KeyDraft]; ok && v != nil {
		b, ok := v.(bool)
		if !ok {
			return nil, malformed(relPath, fmt.Sprintf("\"draft\" must be a boolean, got %T", v), nil)
		}
		p.Draft = b
	}

	if v, ok := fields[KeyTags]; ok && v != nil {
		if p.Tags, err = parseTags(v); err != nil {
			return nil, malformed(relPath, "invalid \"tags\"", err)
		}
	}

	if v, ok := fields[KeyDescription]; ok && v != nil {
		s, ok := v.(string)
		if !ok {
			return nil, malformed(relPath, fmt.Sprintf("\"description\" must be a string, got %T", v), nil)
		}
		p.Description = s
	}

	for k, v := range fields {
		switch k {
		case KeyTitle, KeyDate, KeyDraft, KeyTags, KeyDescription:
		default:
			p.Extra[k] = v
		}
	}
	return p, nil
}

// ParseDate accepts the date shapes produced by YAML and TOML decoders as well
// as common string layouts.
func ParseDate(v any) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		return d, nil
	case string:
		s := strings.TrimSpace(d)
		if s == "" {
			return time.Time{}, fmt.Errorf("empty date")
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognized date %q", s)
	case fmt.Stringer:
		// TOML local dates and datetimes.
		return ParseDate(d.String())
	default:
		return time.Time{}, fmt.Errorf("unsupported date type %T", v)
	}
}

func parseTags(v any) ([]string, error) {
	var raw []any
	switch t := v.(type) {
	case string:
		raw = []any{t}
	case []any:
		raw = t
	case []string:
		for _, s := range t {
			raw = append(raw, s)
		}
	default:
		return nil, fmt.Errorf("expected a list of strings, got %T", v)
	}

	seen := make(map[string]struct{}, len(raw))
	tags := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("tag %v is %T, not a string", item, item)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		tags = append(tags, s)
	}
	return tags, nil
}

func malformed(relPath, msg string, cause error) error {
	return errors.MalformedDocumentError(msg).
		WithContext("path", relPath).
		WithCause(cause).
		Build()
}
