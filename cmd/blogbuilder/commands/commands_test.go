package commands

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

const siteConfig = `title: CLI Blog
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

func threeDocSite(t *testing.T) string {
	t.Helper()
	return writeSite(t, map[string]string{
		"content/posts/alpha.md":   "---\ntitle: Alpha\ndate: 2026-01-01\ndraft: false\ntags: [go]\ndescription: a\n---\nFirst.\n",
		"content/posts/bravo.md":   "---\ntitle: Bravo\ndate: 2026-01-15\ndraft: true\ndescription: b\n---\nDraft.\n",
		"content/posts/charlie.md": "---\ntitle: Charlie\ndate: 2026-02-01\ndraft: false\ntags: [go, pki]\ndescription: c\n---\nThird.\n",
	})
}

// run parses args like the binary does and executes the selected command.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("blogbuilder"),
		kong.Vars{"version": "test"},
		kong.Exit(func(int) { t.Fatal("unexpected exit") }),
	)
	require.NoError(t, err)
	kctx, err := parser.Parse(args)
	require.NoError(t, err)
	var out bytes.Buffer
	err = kctx.Run(&Global{Out: &out}, &cli)
	return out.String(), err
}

func exitCode(err error) int {
	return errors.NewCLIErrorAdapter(false, slog.New(slog.DiscardHandler)).ExitCodeFor(err)
}

func TestBuild_ProductionAndDrafts(t *testing.T) {
	site := threeDocSite(t)

	out, err := run(t, "--site", site, "build")
	require.NoError(t, err)
	assert.Contains(t, out, "Built 2 posts (1 drafts excluded, 0 future, 0 skipped)")
	home, err := os.ReadFile(filepath.Join(site, "public", "index.html"))
	require.NoError(t, err)
	assert.NotContains(t, string(home), "Bravo")

	other := filepath.Join(t.TempDir(), "drafts")
	out, err = run(t, "-s", site, "build", "--drafts", "--output", other, "--no-minify")
	require.NoError(t, err)
	assert.Contains(t, out, "Built 3 posts")
	assert.FileExists(t, filepath.Join(other, "posts", "bravo", "index.html"))
}

func TestBuild_ModeFlag(t *testing.T) {
	site := threeDocSite(t)
	out, err := run(t, "--site", site, "build", "--mode", "Preview", "--output", filepath.Join(t.TempDir(), "o"))
	require.NoError(t, err)
	assert.Contains(t, out, "Built 3 posts")

	_, err = run(t, "--site", site, "build", "--mode", "staging")
	require.Error(t, err)
	assert.Equal(t, errors.ExitValidation, exitCode(err))
}

func TestBuild_MissingDateWarns(t *testing.T) {
	site := writeSite(t, map[string]string{
		"content/posts/alpha.md": "---\ntitle: Alpha\ndate: 2026-01-01\ndraft: false\n---\nFirst.\n",
		"content/posts/nodate.md": "---\ntitle: No Date\n---\nOops.\n",
	})
	out, err := run(t, "--site", site, "build")
	require.NoError(t, err)
	assert.Contains(t, out, "warning: ")
	assert.Contains(t, out, "nodate.md")
	assert.Contains(t, out, "1 skipped")
}

func TestBuild_MissingConfigExitCode(t *testing.T) {
	_, err := run(t, "--site", t.TempDir(), "build")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrConfiguration)
	assert.Equal(t, errors.ExitConfig, exitCode(err))
}

func TestList_OrderAndTags(t *testing.T) {
	site := threeDocSite(t)

	out, err := run(t, "--site", site, "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "1."))
	assert.Contains(t, lines[0], "Charlie")
	assert.Contains(t, lines[0], "[go, pki]")
	assert.Contains(t, lines[1], "Alpha")
	assert.Equal(t, "2 selected, 1 drafts excluded, 0 future, 0 skipped", lines[2])

	out, err = run(t, "--site", site, "list", "--drafts")
	require.NoError(t, err)
	assert.Contains(t, out, "Bravo (draft)")

	out, err = run(t, "--site", site, "list", "--tags")
	require.NoError(t, err)
	assert.Contains(t, out, "go (2)\n")
	assert.Contains(t, out, "pki (1)\n")
}

func TestNew_CreatesDraftAndRefusesOverwrite(t *testing.T) {
	site := threeDocSite(t)

	out, err := run(t, "--site", site, "new", "hello-world")
	require.NoError(t, err)
	target := filepath.Join(site, "content", "posts", "hello-world.md")
	assert.Contains(t, out, "Created "+target)
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "draft: true")
	assert.Contains(t, string(data), `title: "Hello World"`)

	require.NoError(t, os.WriteFile(target, []byte("mine"), 0o600))
	_, err = run(t, "--site", site, "new", "hello-world")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrAlreadyExists)
	assert.Equal(t, errors.ExitAlreadyExists, exitCode(err))
	data, err = os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "mine", string(data))
}

func TestNew_BundleAndEditWithoutEditor(t *testing.T) {
	site := threeDocSite(t)
	t.Setenv("EDITOR", "")

	_, err := run(t, "--site", site, "new", "trip", "--bundle", "--edit")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
	assert.FileExists(t, filepath.Join(site, "content", "posts", "trip", "index.md"))
}

func TestNew_EditRunsEditor(t *testing.T) {
	site := threeDocSite(t)
	t.Setenv("EDITOR", "true")
	_, err := run(t, "--site", site, "new", "edited", "--edit")
	require.NoError(t, err)
}

func TestLint_StrictFailsOnAnyIssue(t *testing.T) {
	site := writeSite(t, map[string]string{
		"content/posts/alpha.md": "---\ntitle: Alpha\ndate: 2026-01-01\ndraft: false\n---\nFirst.\n",
	})

	_, err := run(t, "--site", site, "lint")
	require.NoError(t, err, "missing description is advisory")

	_, err = run(t, "--site", site, "lint", "--strict")
	require.Error(t, err)
	assert.Equal(t, errors.ExitValidation, exitCode(err))

	out, err := run(t, "--site", site, "lint", "--format", "json")
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
}

func TestLint_MalformedDocumentFails(t *testing.T) {
	site := writeSite(t, map[string]string{
		"content/posts/nodate.md": "---\ntitle: No Date\ndescription: x\n---\nBody.\n",
	})
	out, err := run(t, "--site", site, "lint")
	require.Error(t, err)
	assert.Contains(t, out, "malformed-document")
}

func TestHistory_ListsBuilds(t *testing.T) {
	site := threeDocSite(t)

	out, err := run(t, "--site", site, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No builds recorded")

	_, err = run(t, "--site", site, "build")
	require.NoError(t, err)
	_, err = run(t, "--site", site, "build", "--drafts", "--output", filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)

	out, err = run(t, "--site", site, "history", "--limit", "1")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "OUTCOME")
	assert.Contains(t, lines[1], "draft-preview")
	assert.Contains(t, lines[1], "success")
}

func TestPublish_DirectoryTarget(t *testing.T) {
	site := threeDocSite(t)
	cfg := siteConfig + "deploy:\n  target: directory\n  directory: live\n"
	require.NoError(t, os.WriteFile(filepath.Join(site, "blogbuilder.yaml"), []byte(cfg), 0o600))

	out, err := run(t, "--site", site, "publish")
	require.NoError(t, err)
	assert.Contains(t, out, "Built 2 posts")
	assert.Contains(t, out, "Deployed to directory")
	assert.FileExists(t, filepath.Join(site, "live", "posts", "charlie", "index.html"))
	assert.NoFileExists(t, filepath.Join(site, "live", "posts", "bravo", "index.html"))
}

func TestPublish_NoneTarget(t *testing.T) {
	out, err := run(t, "--site", threeDocSite(t), "publish")
	require.NoError(t, err)
	assert.Contains(t, out, "Deploy skipped")
}

func TestInit_ScaffoldsSite(t *testing.T) {
	site := t.TempDir()

	out, err := run(t, "--site", site, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "initialized successfully")
	assert.FileExists(t, filepath.Join(site, "blogbuilder.yaml"))
	assert.FileExists(t, filepath.Join(site, "archetypes", "default.md"))
	assert.DirExists(t, filepath.Join(site, "content", "posts"))
	wf, err := os.ReadFile(filepath.Join(site, ".github", "workflows", "publish.yml"))
	require.NoError(t, err)
	assert.Contains(t, string(wf), "blogbuilder publish")

	_, err = run(t, "--site", site, "init")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrAlreadyExists)

	require.NoError(t, os.WriteFile(filepath.Join(site, "archetypes", "default.md"), []byte("custom"), 0o600))
	out, err = run(t, "--site", site, "init", "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+filepath.Join(site, "archetypes", "default.md"))
	data, err := os.ReadFile(filepath.Join(site, "archetypes", "default.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "draft: true")
}

func TestLogLevel(t *testing.T) {
	t.Setenv(LogLevelEnv, "")
	assert.Equal(t, slog.LevelInfo, (&CLI{}).logLevel())
	assert.Equal(t, slog.LevelDebug, (&CLI{Verbose: true}).logLevel())
	t.Setenv(LogLevelEnv, "WARN")
	assert.Equal(t, slog.LevelWarn, (&CLI{}).logLevel())
	t.Setenv(LogLevelEnv, "debug")
	assert.Equal(t, slog.LevelDebug, (&CLI{}).logLevel())
}
