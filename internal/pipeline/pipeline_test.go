package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/deploy"
	"git.home.luguber.info/inful/blogbuilder/internal/events"
	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/history"
	"git.home.luguber.info/inful/blogbuilder/internal/hugo"
	"git.home.luguber.info/inful/blogbuilder/internal/post"
	"git.home.luguber.info/inful/blogbuilder/internal/selection"
)

var testNow = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

const siteConfig = `title: Test Blog
base_url: https://blog.example.com/
render:
  engine: builtin
`

func writeSite(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	if _, ok := files["blogbuilder.yaml"]; !ok {
		files["blogbuilder.yaml"] = siteConfig
	}
	for rel, body := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	}
	return dir
}

func threeDocFiles() map[string]string {
	return map[string]string{
		"content/posts/alpha.md":   "---\ntitle: Alpha\ndate: 2026-01-01\ndraft: false\n---\nFirst.\n",
		"content/posts/bravo.md":   "---\ntitle: Bravo\ndate: 2026-01-15\ndraft: true\n---\nDraft.\n",
		"content/posts/charlie.md": "---\ntitle: Charlie\ndate: 2026-02-01\ndraft: false\n---\nThird.\n",
	}
}

func slugs(entries []selection.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Post.Slug
	}
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.BuildEvent
}

func (r *recordingPublisher) Publish(_ context.Context, ev events.BuildEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingPublisher) Close() error { return nil }

func (r *recordingPublisher) types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

type failingRenderer struct{}

func (failingRenderer) Name() string { return "failing" }
func (failingRenderer) Render(context.Context, hugo.Site, string) error {
	return assert.AnError
}

type fakeDeployer struct {
	calls int
	src   string
	err   error
}

func (f *fakeDeployer) Name() string { return "fake" }
func (f *fakeDeployer) Deploy(_ context.Context, src string, _ deploy.Meta) (deploy.Result, error) {
	f.calls++
	f.src = src
	return deploy.Result{Target: "fake", Changed: true}, f.err
}

func recentBuilds(t *testing.T, site string) []history.Build {
	t.Helper()
	store, err := history.Open(filepath.Join(site, ".blogbuilder", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	builds, err := store.Recent(t.Context(), 10)
	require.NoError(t, err)
	return builds
}

func TestBuild_ThreeDocumentScenario(t *testing.T) {
	site := writeSite(t, threeDocFiles())
	pub := &recordingPublisher{}

	res, err := NewBuilder().WithPublisher(pub).Build(context.Background(), Request{SiteDir: site, Now: testNow})
	require.NoError(t, err)

	assert.Equal(t, []string{"charlie", "alpha"}, slugs(res.Entries))
	assert.Equal(t, 1, res.Entries[0].Position)
	assert.Equal(t, 2, res.Entries[1].Position)
	assert.Equal(t, selection.Summary{Total: 3, Selected: 2, ExcludedDrafts: 1}, res.Summary)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, hugo.OutcomeSuccess, res.Report.Outcome)

	out := filepath.Join(site, "public")
	assert.Equal(t, out, res.OutputDir())
	assert.FileExists(t, filepath.Join(out, "posts", "charlie", "index.html"))
	assert.FileExists(t, filepath.Join(out, "posts", "alpha", "index.html"))
	assert.NoFileExists(t, filepath.Join(out, "posts", "bravo", "index.html"))
	assert.FileExists(t, filepath.Join(site, ".blogbuilder", "build-report.json"))

	assert.Equal(t, []events.Type{events.BuildStarted, events.BuildSucceeded}, pub.types())

	builds := recentBuilds(t, site)
	require.Len(t, builds, 1)
	assert.Equal(t, res.BuildID, builds[0].ID)
	assert.Equal(t, 2, builds[0].Selected)
	assert.Equal(t, 1, builds[0].DraftsExcluded)
	assert.Equal(t, "success", builds[0].Outcome)
}

func TestBuild_DraftPreviewIncludesDrafts(t *testing.T) {
	site := writeSite(t, threeDocFiles())
	res, err := NewBuilder().WithHistory(false).Build(context.Background(), Request{
		SiteDir: site,
		Mode:    selection.ModeDraftPreview,
		Now:     testNow,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"charlie", "bravo", "alpha"}, slugs(res.Entries))
	assert.FileExists(t, filepath.Join(site, "public", "posts", "bravo", "index.html"))
	assert.NoFileExists(t, filepath.Join(site, ".blogbuilder", "history.db"))
}

func TestBuild_MissingDraftKeyIsNotPublished(t *testing.T) {
	files := threeDocFiles()
	files["content/posts/unmarked.md"] = "---\ntitle: Unmarked\ndate: 2026-02-10\n---\nWork in progress.\n"
	site := writeSite(t, files)

	res, err := NewBuilder().WithHistory(false).Build(context.Background(), Request{SiteDir: site, Now: testNow})
	require.NoError(t, err)
	assert.Equal(t, []string{"charlie", "alpha"}, slugs(res.Entries))
	assert.Equal(t, 2, res.Summary.ExcludedDrafts)
	assert.NoFileExists(t, filepath.Join(site, "public", "posts", "unmarked", "index.html"))
}

func TestBuild_MissingDateWarnsAndSkips(t *testing.T) {
	files := threeDocFiles()
	files["content/posts/undated.md"] = "---\ntitle: Undated\n---\nNo date here.\n"
	site := writeSite(t, files)

	res, err := NewBuilder().WithHistory(false).Build(context.Background(), Request{SiteDir: site, Now: testNow})
	require.NoError(t, err)

	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "undated.md", res.Warnings[0].Path)
	require.ErrorIs(t, res.Warnings[0].Err, errors.ErrMalformedDocument)
	assert.Equal(t, []string{"charlie", "alpha"}, slugs(res.Entries))
	assert.Equal(t, hugo.OutcomeWarning, res.Report.Outcome)
	assert.NoFileExists(t, filepath.Join(site, "public", "posts", "undated", "index.html"))
}

func TestBuild_RenderFailureKeepsPreviousOutput(t *testing.T) {
	site := writeSite(t, threeDocFiles())
	_, err := NewBuilder().WithHistory(false).Build(context.Background(), Request{SiteDir: site, Now: testNow})
	require.NoError(t, err)
	index := filepath.Join(site, "public", "index.html")
	before, err := os.ReadFile(index)
	require.NoError(t, err)

	pub := &recordingPublisher{}
	res, err := NewBuilder().
		WithRenderer(failingRenderer{}).
		WithPublisher(pub).
		Build(context.Background(), Request{SiteDir: site, Now: testNow})
	require.ErrorIs(t, err, errors.ErrRenderFailure)
	require.NotNil(t, res)
	assert.Equal(t, hugo.OutcomeFailed, res.Report.Outcome)

	after, err := os.ReadFile(index)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, []events.Type{events.BuildStarted, events.BuildFailed}, pub.types())

	builds := recentBuilds(t, site)
	require.Len(t, builds, 1)
	assert.Equal(t, "failed", builds[0].Outcome)
	assert.NotEmpty(t, builds[0].Error)
}

func TestBuild_MissingConfigIsConfigurationError(t *testing.T) {
	_, err := NewBuilder().Build(context.Background(), Request{SiteDir: t.TempDir()})
	require.ErrorIs(t, err, errors.ErrConfiguration)
}

func TestBuild_OutputOverrideAndTextfile(t *testing.T) {
	files := threeDocFiles()
	files["blogbuilder.yaml"] = siteConfig + "metrics:\n  textfile: metrics/blog.prom\n"
	site := writeSite(t, files)
	out := filepath.Join(t.TempDir(), "elsewhere")

	res, err := NewBuilder().WithHistory(false).Build(context.Background(), Request{SiteDir: site, OutputDir: out, Now: testNow})
	require.NoError(t, err)
	assert.Equal(t, out, res.OutputDir())
	assert.FileExists(t, filepath.Join(out, "index.html"))

	data, err := os.ReadFile(filepath.Join(site, "metrics", "blog.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `blogbuilder_documents{state="selected"} 2`)
	assert.Contains(t, string(data), `blogbuilder_documents{state="draft"} 1`)
}

func TestBuild_DraftBundleAssetsAreNotPublished(t *testing.T) {
	files := threeDocFiles()
	files["content/posts/trip/index.md"] = "---\ntitle: Trip\ndate: 2026-01-10\ndraft: false\n---\n![p](photo.jpg)\n"
	files["content/posts/trip/photo.jpg"] = "jpg"
	files["content/posts/secret/index.md"] = "---\ntitle: Secret\ndate: 2026-01-11\ndraft: true\n---\n"
	files["content/posts/secret/plan.png"] = "png"
	site := writeSite(t, files)

	_, err := NewBuilder().WithHistory(false).Build(context.Background(), Request{SiteDir: site, Now: testNow})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(site, "public", "posts", "trip", "photo.jpg"))
	assert.NoFileExists(t, filepath.Join(site, "public", "posts", "secret", "plan.png"))
}

func TestPublishedAssets(t *testing.T) {
	mk := func(rel string) *post.Post { return &post.Post{RelPath: rel} }
	published, draft := mk("trip/index.md"), mk("secret/index.md")
	disc := &content.Result{
		Posts:    []*post.Post{published, draft, mk("plain.md")},
		Warnings: []content.Warning{{Path: "broken/index.md", Err: assert.AnError}},
		Assets: []content.Asset{
			{RelPath: "trip/a.jpg"},
			{RelPath: "secret/b.png"},
			{RelPath: "broken/c.gif"},
			{RelPath: "shared.pdf"},
		},
	}
	got := publishedAssets(disc, []selection.Entry{{Post: published, Position: 1}})
	var rels []string
	for _, a := range got {
		rels = append(rels, a.RelPath)
	}
	assert.Equal(t, []string{"trip/a.jpg", "shared.pdf"}, rels)
}

func TestSourceCommit(t *testing.T) {
	dir := t.TempDir()
	assert.Empty(t, SourceCommit(dir))

	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("hi"), 0o600))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("README.md")
	require.NoError(t, err)
	hash, err := wt.Commit("initial", &git.CommitOptions{Author: &object.Signature{Name: "tester", Email: "t@example.com", When: time.Now()}})
	require.NoError(t, err)

	sub := filepath.Join(dir, "site")
	require.NoError(t, os.MkdirAll(sub, 0o750))
	assert.Equal(t, hash.String(), SourceCommit(sub))
}

func TestPublish_DeploysAfterSuccessfulBuild(t *testing.T) {
	site := writeSite(t, threeDocFiles())
	d := &fakeDeployer{}
	pub := &recordingPublisher{}

	res, err := NewPublisher(NewBuilder().WithPublisher(pub)).
		WithDeployer(d).
		Publish(context.Background(), Request{SiteDir: site, Mode: selection.ModeDraftPreview, Now: testNow})
	require.NoError(t, err)

	assert.Equal(t, 1, d.calls)
	assert.Equal(t, filepath.Join(site, "public"), d.src)
	assert.True(t, res.Deploy.Changed)
	assert.Equal(t, []string{"charlie", "alpha"}, slugs(res.Entries), "publish always builds production")
	assert.Equal(t, []events.Type{events.BuildStarted, events.BuildSucceeded, events.DeploySucceeded}, pub.types())

	builds := recentBuilds(t, site)
	require.Len(t, builds, 1)
	assert.True(t, builds[0].Deployed)
}

func TestPublish_RenderFailureSkipsDeploy(t *testing.T) {
	site := writeSite(t, threeDocFiles())
	d := &fakeDeployer{}

	_, err := NewPublisher(NewBuilder().WithHistory(false).WithRenderer(failingRenderer{})).
		WithDeployer(d).
		Publish(context.Background(), Request{SiteDir: site, Now: testNow})
	require.ErrorIs(t, err, errors.ErrRenderFailure)
	assert.Zero(t, d.calls)
}

func TestPublish_DeployFailure(t *testing.T) {
	site := writeSite(t, threeDocFiles())
	d := &fakeDeployer{err: errors.DeployError("push rejected").Build()}
	pub := &recordingPublisher{}

	res, err := NewPublisher(NewBuilder().WithPublisher(pub)).
		WithDeployer(d).
		Publish(context.Background(), Request{SiteDir: site, Now: testNow})
	require.ErrorIs(t, err, errors.ErrDeployFailure)
	require.NotNil(t, res)
	assert.Contains(t, pub.types(), events.DeployFailed)

	builds := recentBuilds(t, site)
	require.Len(t, builds, 1)
	assert.False(t, builds[0].Deployed)
	assert.Contains(t, builds[0].Error, "push rejected")
}

func TestPublish_DirectoryTarget(t *testing.T) {
	files := threeDocFiles()
	files["blogbuilder.yaml"] = siteConfig + "deploy:\n  target: directory\n  directory: www\n"
	site := writeSite(t, files)

	res, err := NewPublisher(NewBuilder().WithHistory(false)).Publish(context.Background(), Request{SiteDir: site, Now: testNow})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(site, "www"), res.Deploy.Target)
	assert.FileExists(t, filepath.Join(site, "www", "posts", "charlie", "index.html"))
}
