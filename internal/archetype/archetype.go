// Package archetype creates new draft posts from a template.
//
// A site may provide archetypes/default.md, a text/template receiving
// .Title, .Date and .Slug. Without one the built-in archetype is used.
// Existing files are never overwritten.
package archetype

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/post"
)

//go:embed default.md
var defaultArchetype string

// DefaultArchetype returns the built-in archetype source, used by `init`.
func DefaultArchetype() string { return defaultArchetype }

// Request describes a post to create.
type Request struct {
	// SectionDir is the directory holding the posts.
	SectionDir string
	// Path is the target relative to SectionDir: "hello-world",
	// "2026/hello-world.md", ...
	Path string
	// Bundle creates <path>/index.md instead of <path>.md.
	Bundle bool
	// Template overrides the built-in archetype when non-empty.
	Template string
	// Now stamps the date. Zero means time.Now.
	Now time.Time
}

// Data is what archetype templates see.
type Data struct {
	Title string
	Date  string
	Slug  string
}

// Created reports the file written by Create.
type Created struct {
	Path    string
	RelPath string
	Post    *post.Post
}

// LoadTemplate returns <siteDir>/archetypes/default.md, or "" when the site
// has none.
func LoadTemplate(siteDir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(siteDir, "archetypes", "default.md"))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", errors.FileSystemError("cannot read archetype").WithCause(err).Build()
	}
	return string(data), nil
}

// Create renders the archetype and writes it to the target path. It fails
// with an AlreadyExists error, leaving the disk untouched, when the target
// is occupied.
func Create(req Request) (*Created, error) {
	rel, err := targetPath(req.Path, req.Bundle)
	if err != nil {
		return nil, err
	}
	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}

	slug := post.SlugFromPath(rel)
	data := Data{
		Title: post.TitleFromSlug(slug),
		Date:  now.Truncate(time.Second).Format(time.RFC3339),
		Slug:  slug,
	}

	src := req.Template
	if strings.TrimSpace(src) == "" {
		src = defaultArchetype
	}
	rendered, err := render(src, data)
	if err != nil {
		return nil, err
	}

	p, err := post.Parse(rendered, rel)
	if err != nil {
		return nil, errors.ConfigError("archetype does not produce a valid document").WithCause(err).Build()
	}
	if !p.Draft {
		return nil, errors.ConfigError("archetype must mark new documents as drafts (draft: true)").Build()
	}

	full, err := writeNew(req.SectionDir, rel, rendered)
	if err != nil {
		return nil, err
	}
	p.Path = full
	return &Created{Path: full, RelPath: rel, Post: p}, nil
}

func targetPath(raw string, bundle bool) (string, error) {
	raw = strings.TrimSpace(filepath.ToSlash(raw))
	if raw == "" {
		return "", errors.ValidationError("path is required").Build()
	}
	if path.IsAbs(raw) || filepath.IsAbs(raw) {
		return "", errors.ValidationError("path must be relative to the content section").WithContext("path", raw).Build()
	}
	clean := path.Clean(raw)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", errors.ValidationError("path escapes the content section").WithContext("path", raw).Build()
	}

	if bundle {
		clean = strings.TrimSuffix(clean, path.Ext(clean))
		return clean + "/index.md", nil
	}
	if !content.IsMarkdown(clean) {
		clean += ".md"
	}
	return clean, nil
}

func render(src string, data Data) ([]byte, error) {
	funcs := template.FuncMap{"quote": strconv.Quote}
	tpl, err := template.New("archetype").Funcs(funcs).Option("missingkey=error").Parse(src)
	if err != nil {
		return nil, errors.ConfigError("parse archetype").WithCause(err).Build()
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return nil, errors.ConfigError("render archetype").WithCause(err).Build()
	}
	return buf.Bytes(), nil
}

func writeNew(sectionDir, rel string, data []byte) (string, error) {
	full := filepath.Join(sectionDir, filepath.FromSlash(rel))
	if r, err := filepath.Rel(sectionDir, full); err != nil || strings.HasPrefix(r, "..") {
		return "", errors.ValidationError("path escapes the content section").WithContext("path", rel).Build()
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", errors.FileSystemError("create post directory").WithCause(err).Build()
	}

	// #nosec G304 -- full is validated to stay under sectionDir.
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return "", errors.AlreadyExistsError(fmt.Sprintf("%s already exists", rel)).
				WithContext("path", full).
				Build()
		}
		return "", errors.FileSystemError("create post").WithCause(err).Build()
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(full)
		return "", errors.FileSystemError("write post").WithCause(err).Build()
	}
	if err := f.Close(); err != nil {
		return "", errors.FileSystemError("write post").WithCause(err).Build()
	}
	return full, nil
}
