package hugo

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/post"
	"git.home.luguber.info/inful/blogbuilder/internal/selection"
)

var testNow = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func testConfig(t *testing.T, yaml string) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(yaml))
	require.NoError(t, err)
	cfg.SiteDir = t.TempDir()
	return cfg
}

func mustPost(t *testing.T, rel, src string, order int) *post.Post {
	t.Helper()
	p, err := post.Parse([]byte(src), rel)
	require.NoError(t, err)
	p.Order = order
	return p
}

// threeDocSite is the 2026-01-01 published / 2026-01-15 draft /
// 2026-02-01 published fixture.
func threeDocSite(t *testing.T, mode selection.Mode) Site {
	t.Helper()
	cfg := testConfig(t, "title: Test Blog\nbase_url: https://blog.example.com/\nrender:\n  engine: builtin\n")
	posts := []*post.Post{
		mustPost(t, "alpha.md", "---\ntitle: Alpha\ndate: 2026-01-01\ndraft: false\ntags: [go]\n---\nFirst post.\n", 0),
		mustPost(t, "bravo.md", "---\ntitle: Bravo\ndate: 2026-01-15\ndraft: true\n---\nDraft post.\n", 1),
		mustPost(t, "charlie.md", "---\ntitle: Charlie\ndate: 2026-02-01\ndraft: false\ntags: [go, pki]\n---\nThird post.\n", 2),
	}
	entries, _ := selection.Select(posts, selection.Options{Mode: mode, Now: testNow})
	return Site{Config: cfg, Entries: entries, Mode: mode}
}

type fakeRenderer struct {
	files map[string]string
	err   error
	calls int
}

func (f *fakeRenderer) Name() string { return "fake" }

func (f *fakeRenderer) Render(_ context.Context, _ Site, dest string) error {
	f.calls++
	for rel, body := range f.files {
		p := filepath.Join(dest, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
			return err
		}
		if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
			return err
		}
	}
	return f.err
}

func readTree(t *testing.T, root string) map[string]string {
	t.Helper()
	out := map[string]string{}
	require.NoError(t, filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		rel, _ := filepath.Rel(root, p)
		data, err := os.ReadFile(p)
		out[filepath.ToSlash(rel)] = string(data)
		return err
	}))
	return out
}
