// Package content discovers and parses the posts of a blog section.
package content

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/post"
)

// Asset is a non-Markdown file living next to the posts (page bundle images,
// attachments).
type Asset struct {
	Path    string
	RelPath string
}

// Warning records a document that was skipped.
type Warning struct {
	Path string
	Err  error
}

func (w Warning) String() string {
	return w.Path + ": " + w.Err.Error()
}

// Result is the outcome of a discovery walk.
type Result struct {
	Posts    []*post.Post
	Warnings []Warning
	Assets   []Asset
}

// Discover walks root in lexical order and parses every Markdown file it
// finds. Documents that fail to parse become warnings; the walk continues.
// A missing root yields an empty result.
func Discover(root string) (*Result, error) {
	res := &Result{}
	info, err := os.Stat(root)
	if os.IsNotExist(err) {
		slog.Warn("Content directory not found", logfields.Path(root))
		return res, nil
	}
	if err != nil {
		return nil, errors.FileSystemError("cannot read content directory").WithCause(err).WithContext("path", root).Build()
	}
	if !info.IsDir() {
		return nil, errors.ConfigError("content path is not a directory").WithContext("path", root).Build()
	}

	// WalkDir visits entries in lexical order, which fixes discovery order.
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		name := d.Name()
		if path != root && isHidden(name) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if !IsMarkdown(name) {
			res.Assets = append(res.Assets, Asset{Path: path, RelPath: rel})
			return nil
		}
		if isSectionIndex(name) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		p, perr := post.Parse(data, rel)
		if perr != nil {
			slog.Warn("Skipping malformed document", logfields.Path(rel), logfields.Error(perr))
			res.Warnings = append(res.Warnings, Warning{Path: rel, Err: perr})
			return nil
		}
		p.Path = path
		p.Order = len(res.Posts)
		res.Posts = append(res.Posts, p)
		return nil
	})
	if err != nil {
		return nil, errors.FileSystemError("content walk failed").WithCause(err).WithContext("path", root).Build()
	}

	slog.Debug("Content discovered",
		logfields.Path(root),
		logfields.Count(len(res.Posts)),
		slog.Int("warnings", len(res.Warnings)),
		slog.Int("assets", len(res.Assets)))
	return res, nil
}

// IsMarkdown reports whether name has a Markdown extension.
func IsMarkdown(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func isSectionIndex(name string) bool {
	return strings.EqualFold(strings.TrimSuffix(name, filepath.Ext(name)), "_index")
}
