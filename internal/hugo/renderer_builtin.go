package hugo

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/markdown"
	"git.home.luguber.info/inful/blogbuilder/internal/post"
	"git.home.luguber.info/inful/blogbuilder/internal/selection"
)

//go:embed builtin_templates/*.html
var builtinTemplates embed.FS

// BuiltinRenderer renders the site without external tools. Output depends
// only on the Site, never on the clock, so repeated builds are
// byte-identical.
type BuiltinRenderer struct {
	md   goldmark.Markdown
	tmpl *template.Template
}

func NewBuiltinRenderer() *BuiltinRenderer {
	return &BuiltinRenderer{
		md:   markdown.New(),
		tmpl: template.Must(template.ParseFS(builtinTemplates, "builtin_templates/*.html")),
	}
}

func (r *BuiltinRenderer) Name() string { return "builtin" }

type siteView struct {
	Title       string
	Description string
	Author      string
	Language    string
	Root        string
	FeedURL     string
	Menu        []config.Menu
	Social      []config.SocialLink
}

type tagLink struct {
	Name string
	URL  string
}

type postView struct {
	Title       string
	Path        string
	URL         string
	Permalink   string
	Description string
	Summary     string
	Date        time.Time
	Draft       bool
	Position    int
	Tags        []tagLink
	Content     template.HTML
}

type termView struct {
	Name  string
	URL   string
	Count int
}

type pageData struct {
	Site        siteView
	Title       string
	Description string
	Post        *postView
	Posts       []*postView
	Terms       []termView
}

// Render implements Renderer.
func (r *BuiltinRenderer) Render(ctx context.Context, site Site, dest string) error {
	cfg := site.Config
	urls := newURLBuilder(cfg)

	views, err := r.postViews(ctx, site, urls)
	if err != nil {
		return err
	}
	sv := siteView{
		Title:       cfg.Title,
		Description: cfg.Description,
		Author:      cfg.Author,
		Language:    languageOf(cfg),
		Root:        urls.rel("/"),
		FeedURL:     urls.rel("/index.xml"),
		Menu:        cfg.Menu["main"],
		Social:      cfg.Social,
	}

	w := &treeWriter{root: dest}

	// Static files first so generated pages win on collisions.
	if err := copyTree(filepath.Join(cfg.SiteDir, "static"), dest, nil); err != nil {
		return fmt.Errorf("copy static: %w", err)
	}
	if err := r.copyAssets(site, w); err != nil {
		return err
	}

	home := pageData{Site: sv, Description: cfg.Description, Posts: views}
	if err := r.page(w, "index.html", "home", home); err != nil {
		return err
	}
	sectionTitle := post.TitleFromSlug(path.Base(cfg.Content.Section))
	if err := r.page(w, path.Join(cfg.Content.Section, "index.html"), "section", pageData{Site: sv, Title: sectionTitle, Posts: views}); err != nil {
		return err
	}
	for _, v := range views {
		if err := ctx.Err(); err != nil {
			return err
		}
		pd := pageData{Site: sv, Title: v.Title, Description: v.Description, Post: v}
		if err := r.page(w, filePath(v.Path), "post", pd); err != nil {
			return err
		}
	}
	if err := r.renderTaxonomies(w, site, sv, views, urls); err != nil {
		return err
	}

	if err := w.write("index.xml", renderFeed(cfg, urls, views, latestDate(site.Entries))); err != nil {
		return err
	}
	return w.write("sitemap.xml", renderSitemap(urls, views, w.pages))
}

func (r *BuiltinRenderer) postViews(ctx context.Context, site Site, urls urlBuilder) ([]*postView, error) {
	views := make([]*postView, 0, len(site.Entries))
	seen := make(map[string]string, len(site.Entries))
	plural := tagsPlural(site.Config)
	for _, e := range site.Entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := e.Post
		if other, dup := seen[p.Slug]; dup {
			return nil, fmt.Errorf("posts %s and %s share the slug %q", other, p.RelPath, p.Slug)
		}
		seen[p.Slug] = p.RelPath

		body, err := markdown.ToHTML(r.md, p.Body)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", p.RelPath, err)
		}
		v := &postView{
			Title:       p.Title,
			Path:        postPath(site.Config, p),
			URL:         urls.rel(postPath(site.Config, p)),
			Permalink:   urls.abs(postPath(site.Config, p)),
			Description: p.Description,
			Summary:     p.Description,
			Date:        p.Date,
			Draft:       p.Draft,
			Position:    e.Position,
			// #nosec G203 -- post bodies are authored by the site owner.
			Content: template.HTML(body),
		}
		if v.Summary == "" {
			v.Summary = plainSummary(body, summaryLength)
		}
		for _, t := range p.Tags {
			v.Tags = append(v.Tags, tagLink{Name: t, URL: urls.rel(termPath(plural, t))})
		}
		views = append(views, v)
	}
	return views, nil
}

func (r *BuiltinRenderer) renderTaxonomies(w *treeWriter, site Site, sv siteView, views []*postView, urls urlBuilder) error {
	plural := tagsPlural(site.Config)
	byPosition := make(map[int]*postView, len(views))
	for _, v := range views {
		byPosition[v.Position] = v
	}

	terms := selection.GroupByTaxonomy(site.Entries)
	index := make([]termView, 0, len(terms))
	for _, t := range terms {
		tv := termView{Name: t.Name, URL: urls.rel(termPath(plural, t.Name)), Count: len(t.Entries)}
		index = append(index, tv)

		posts := make([]*postView, 0, len(t.Entries))
		for _, e := range t.Entries {
			posts = append(posts, byPosition[e.Position])
		}
		pd := pageData{Site: sv, Title: t.Name, Posts: posts}
		if err := r.page(w, filePath(termPath(plural, t.Name)), "section", pd); err != nil {
			return err
		}
	}
	title := post.TitleFromSlug(plural)
	return r.page(w, path.Join(plural, "index.html"), "terms", pageData{Site: sv, Title: title, Terms: index})
}

// copyAssets places bundle resources next to their post page and other
// section files under the section path.
func (r *BuiltinRenderer) copyAssets(site Site, w *treeWriter) error {
	bundles := map[string]string{}
	for _, e := range site.Entries {
		if e.Post.IsBundle() {
			bundles[path.Dir(e.Post.RelPath)] = e.Post.Slug
		}
	}
	section := site.Config.Content.Section
	for _, a := range site.Assets {
		target := path.Join(section, a.RelPath)
		for dir, slug := range bundles {
			if strings.HasPrefix(a.RelPath, dir+"/") {
				target = path.Join(section, slug, strings.TrimPrefix(a.RelPath, dir+"/"))
				break
			}
		}
		if err := copyFile(a.Path, filepath.Join(w.root, filepath.FromSlash(target))); err != nil {
			return fmt.Errorf("copy asset %s: %w", a.RelPath, err)
		}
	}
	return nil
}

func (r *BuiltinRenderer) page(w *treeWriter, rel, name string, data pageData) error {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("execute %s template for %s: %w", name, rel, err)
	}
	w.pages = append(w.pages, rel)
	return w.write(rel, buf.Bytes())
}

type treeWriter struct {
	root  string
	pages []string
}

func (w *treeWriter) write(rel string, data []byte) error {
	target := filepath.Join(w.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return err
	}
	return os.WriteFile(target, data, 0o644)
}

func languageOf(cfg *config.Config) string {
	if cfg.LanguageCode == "" {
		return "en"
	}
	return cfg.LanguageCode
}

func tagsPlural(cfg *config.Config) string {
	if p, ok := cfg.Taxonomies["tag"]; ok && p != "" {
		return p
	}
	return "tags"
}

func postPath(cfg *config.Config, p *post.Post) string {
	return "/" + path.Join(cfg.Content.Section, p.Slug) + "/"
}

func termPath(plural, term string) string {
	return "/" + path.Join(plural, urlize(term)) + "/"
}

// urlize lowercases and replaces whitespace with dashes, as Hugo does for
// taxonomy terms.
func urlize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "-")
}
