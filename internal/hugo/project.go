package hugo

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
)

//go:embed all:fallback_layouts
var fallbackLayouts embed.FS

// siteDirs are copied verbatim from the site into the Hugo project.
var siteDirs = []string{"static", "layouts", "assets", "data", "i18n", "themes"}

// SiteDirs lists the site directories, besides content, that feed a build.
func SiteDirs() []string { return slices.Clone(siteDirs) }

// writeProject assembles a Hugo project for site in dir.
func writeProject(dir string, site Site) error {
	cfg := site.Config
	if err := writeHugoConfig(dir, cfg); err != nil {
		return err
	}

	for _, name := range siteDirs {
		if err := copyTree(filepath.Join(cfg.SiteDir, name), filepath.Join(dir, name), nil); err != nil {
			return fmt.Errorf("copy %s: %w", name, err)
		}
	}
	// Hugo modules need the site's go.mod/go.sum.
	for _, name := range []string{"go.mod", "go.sum"} {
		if err := copyFile(filepath.Join(cfg.SiteDir, name), filepath.Join(dir, name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("copy %s: %w", name, err)
		}
	}

	if cfg.Theme.Name == "" && cfg.Theme.Module == "" && !dirExists(filepath.Join(cfg.SiteDir, "layouts")) {
		if err := writeFallbackLayouts(dir); err != nil {
			return err
		}
	}

	// Pages outside the posts section (about.md, _index.md files) pass
	// through. Section files come only from the selection and the published
	// assets, so nothing from an excluded draft bundle reaches Hugo.
	section := filepath.Clean(filepath.FromSlash(cfg.Content.Section))
	skipSection := func(rel string) bool {
		inSection := rel == section || strings.HasPrefix(rel, section+string(filepath.Separator))
		return inSection && !strings.HasPrefix(filepath.Base(rel), "_index")
	}
	contentDir := filepath.Join(dir, "content")
	if err := copyTree(cfg.ContentDir(), contentDir, skipSection); err != nil {
		return fmt.Errorf("copy content: %w", err)
	}

	sectionDir := filepath.Join(contentDir, section)
	for _, e := range site.Entries {
		src, err := e.Post.Source(map[string]any{"weight": e.Position})
		if err != nil {
			return err
		}
		target := filepath.Join(sectionDir, filepath.FromSlash(e.Post.RelPath))
		if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
			return err
		}
		if err := os.WriteFile(target, src, 0o600); err != nil {
			return fmt.Errorf("write %s: %w", e.Post.RelPath, err)
		}
	}
	for _, a := range site.Assets {
		if err := copyFile(a.Path, filepath.Join(sectionDir, filepath.FromSlash(a.RelPath))); err != nil {
			return fmt.Errorf("copy asset %s: %w", a.RelPath, err)
		}
	}
	return nil
}

func writeFallbackLayouts(dir string) error {
	return fs.WalkDir(fallbackLayouts, "fallback_layouts", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel := strings.TrimPrefix(p, "fallback_layouts/")
		data, err := fallbackLayouts.ReadFile(p)
		if err != nil {
			return err
		}
		target := filepath.Join(dir, "layouts", filepath.FromSlash(path.Clean(rel)))
		if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o600)
	})
}

func dirExists(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.IsDir()
}

// copyTree copies src into dst. A missing src is not an error. skip receives
// paths relative to src.
func copyTree(src, dst string, skip func(rel string) bool) error {
	if !dirExists(src) {
		return nil
	}
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		if rel != "." && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o750)
		}
		if skip != nil && skip(rel) {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return copyFile(p, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
