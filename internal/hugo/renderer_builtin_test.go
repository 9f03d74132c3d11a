package hugo

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/selection"
)

func renderBuiltin(t *testing.T, site Site) map[string]string {
	t.Helper()
	out := filepath.Join(t.TempDir(), "public")
	_, err := NewGenerator(NewBuiltinRenderer(), out).Generate(context.Background(), site)
	require.NoError(t, err)
	return readTree(t, out)
}

func TestBuiltin_ProductionExcludesDraftsAndOrdersListing(t *testing.T) {
	tree := renderBuiltin(t, threeDocSite(t, selection.ModeProduction))

	assert.Contains(t, tree, "posts/alpha/index.html")
	assert.Contains(t, tree, "posts/charlie/index.html")
	assert.NotContains(t, tree, "posts/bravo/index.html")

	home := tree["index.html"]
	assert.NotContains(t, home, "Bravo")
	ci, ai := strings.Index(home, "Charlie"), strings.Index(home, "Alpha")
	require.Positive(t, ci)
	require.Positive(t, ai)
	assert.Less(t, ci, ai, "newest first")

	assert.NotContains(t, tree["index.xml"], "Bravo")
	assert.NotContains(t, tree["sitemap.xml"], "/posts/bravo/")
	assert.Contains(t, tree["sitemap.xml"], "https://blog.example.com/posts/charlie/")
}

func TestBuiltin_DraftPreviewIncludesDraftInOrder(t *testing.T) {
	tree := renderBuiltin(t, threeDocSite(t, selection.ModeDraftPreview))

	require.Contains(t, tree, "posts/bravo/index.html")
	home := tree["index.html"]
	c, b, a := strings.Index(home, "Charlie"), strings.Index(home, "Bravo"), strings.Index(home, "Alpha")
	assert.True(t, c < b && b < a, "expected Charlie, Bravo, Alpha order")
	assert.Contains(t, tree["posts/bravo/index.html"], "<em>draft</em>")
}

func TestBuiltin_OutputIsByteIdentical(t *testing.T) {
	site := threeDocSite(t, selection.ModeProduction)
	first := renderBuiltin(t, site)
	second := renderBuiltin(t, site)
	assert.Equal(t, first, second)

	// Rebuilding over an existing output yields the same tree too.
	out := filepath.Join(t.TempDir(), "public")
	g := NewGenerator(NewBuiltinRenderer(), out)
	r1, err := g.Generate(context.Background(), site)
	require.NoError(t, err)
	r2, err := g.Generate(context.Background(), site)
	require.NoError(t, err)
	assert.Equal(t, r1.OutputDigest, r2.OutputDigest)
}

func TestBuiltin_TaxonomyPages(t *testing.T) {
	tree := renderBuiltin(t, threeDocSite(t, selection.ModeProduction))

	require.Contains(t, tree, "tags/index.html")
	assert.Contains(t, tree["tags/index.html"], `href="/tags/go/"`)
	assert.Contains(t, tree["tags/index.html"], "(2)")
	require.Contains(t, tree, "tags/pki/index.html")
	assert.Contains(t, tree["tags/pki/index.html"], "Charlie")
	assert.NotContains(t, tree["tags/pki/index.html"], "Alpha")
}

func TestBuiltin_PostPage(t *testing.T) {
	tree := renderBuiltin(t, threeDocSite(t, selection.ModeProduction))
	page := tree["posts/charlie/index.html"]
	assert.Contains(t, page, "<title>Charlie | Test Blog</title>")
	assert.Contains(t, page, "<p>Third post.</p>")
	assert.Contains(t, page, `href="/tags/pki/"`)
	assert.Contains(t, page, `datetime="2026-02-01T00:00:00Z"`)
}

func TestBuiltin_FeedUsesPostDates(t *testing.T) {
	tree := renderBuiltin(t, threeDocSite(t, selection.ModeProduction))
	feed := tree["index.xml"]
	assert.Contains(t, feed, "<lastBuildDate>Sun, 01 Feb 2026 00:00:00 +0000</lastBuildDate>")
	assert.Contains(t, feed, "<link>https://blog.example.com/posts/charlie/</link>")
	assert.Contains(t, feed, "<description>Third post.</description>")
}

func TestBuiltin_StaticAndBundleAssets(t *testing.T) {
	site := threeDocSite(t, selection.ModeProduction)
	require.NoError(t, os.MkdirAll(filepath.Join(site.Config.SiteDir, "static"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(site.Config.SiteDir, "static", "robots.txt"), []byte("User-agent: *\n"), 0o600))

	bundle := mustPost(t, "2026/trip/index.md", "---\ntitle: Trip\ndate: 2026-01-20\ndraft: false\n---\n![cover](cover.png)\n", 3)
	site.Entries, _ = selection.Select(append(selection.Posts(site.Entries), bundle), selection.Options{Mode: selection.ModeProduction, Now: testNow})

	img := filepath.Join(t.TempDir(), "cover.png")
	require.NoError(t, os.WriteFile(img, []byte("png"), 0o600))
	site.Assets = []content.Asset{{Path: img, RelPath: "2026/trip/cover.png"}}

	tree := renderBuiltin(t, site)
	assert.Equal(t, "User-agent: *\n", tree["robots.txt"])
	assert.Equal(t, "png", tree["posts/trip/cover.png"])
	assert.Contains(t, tree, "posts/trip/index.html")
}

func TestBuiltin_DuplicateSlugFails(t *testing.T) {
	site := threeDocSite(t, selection.ModeProduction)
	dup := mustPost(t, "2025/alpha.md", "---\ntitle: Other Alpha\ndate: 2025-05-01\ndraft: false\n---\n", 3)
	site.Entries, _ = selection.Select(append(selection.Posts(site.Entries), dup), selection.Options{Mode: selection.ModeProduction, Now: testNow})

	out := filepath.Join(t.TempDir(), "public")
	_, err := NewGenerator(NewBuiltinRenderer(), out).Generate(context.Background(), site)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "share the slug")
}

func TestBuiltin_BaseURLWithPath(t *testing.T) {
	site := threeDocSite(t, selection.ModeProduction)
	site.Config.BaseURL = "https://example.org/blog/"
	tree := renderBuiltin(t, site)
	assert.Contains(t, tree["index.html"], `href="/blog/posts/charlie/"`)
	assert.Contains(t, tree["index.xml"], "https://example.org/blog/posts/charlie/")
	assert.Contains(t, tree, "posts/charlie/index.html")
}

func TestPlainSummary(t *testing.T) {
	html := []byte("<h2>Intro</h2><p>Hello <strong>world</strong>.</p><pre><code>skip me</code></pre><p>More text here.</p>")
	assert.Equal(t, "Intro Hello world. More text here.", plainSummary(html, 200))

	long := []byte("<p>" + strings.Repeat("word ", 100) + "</p>")
	s := plainSummary(long, 20)
	assert.True(t, strings.HasSuffix(s, "…"))
	assert.LessOrEqual(t, len([]rune(s)), 21)
}
