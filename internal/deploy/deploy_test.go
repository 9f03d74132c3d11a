package deploy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, body := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	}
}

func listFiles(t *testing.T, root string, skipDir string) map[string]string {
	t.Helper()
	out := map[string]string{}
	require.NoError(t, filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == skipDir {
				return filepath.SkipDir
			}
			return nil
		}
		rel, _ := filepath.Rel(root, p)
		data, err := os.ReadFile(p)
		out[filepath.ToSlash(rel)] = string(data)
		return err
	}))
	return out
}

func TestNew_SelectsDeployer(t *testing.T) {
	cfg := &config.Config{SiteDir: "/site"}
	d, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, "none", d.Name())

	cfg.Deploy = config.DeployConfig{Target: config.DeployDirectory, Directory: "www"}
	d, err = New(cfg)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/site", "www"), d.(*DirectoryDeployer).Target)

	cfg.Deploy = config.DeployConfig{Target: config.DeployGit, Git: config.GitDeploy{URL: "https://example.com/r.git", Branch: "gh-pages"}}
	d, err = New(cfg)
	require.NoError(t, err)
	assert.Equal(t, "git", d.Name())

	cfg.Deploy.Target = "ftp"
	_, err = New(cfg)
	require.ErrorIs(t, err, errors.ErrConfiguration)
}

func TestDirectoryDeployer_ReplacesTarget(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "public")
	target := filepath.Join(tmp, "srv", "www")
	writeFiles(t, src, map[string]string{"index.html": "new", "posts/a/index.html": "a", ".well-known/x": "x"})
	writeFiles(t, target, map[string]string{"index.html": "old", "stale.html": "stale"})

	d := &DirectoryDeployer{Target: target}
	res, err := d.Deploy(context.Background(), src, Meta{})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, map[string]string{"index.html": "new", "posts/a/index.html": "a", ".well-known/x": "x"}, listFiles(t, target, ""))

	_, err = os.Stat(target + ".prev")
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(target + "_incoming")
	assert.True(t, os.IsNotExist(err))
}

func TestDirectoryDeployer_MissingSourceKeepsTarget(t *testing.T) {
	tmp := t.TempDir()
	target := filepath.Join(tmp, "www")
	writeFiles(t, target, map[string]string{"index.html": "live"})

	d := &DirectoryDeployer{Target: target}
	_, err := d.Deploy(context.Background(), filepath.Join(tmp, "missing"), Meta{})
	require.ErrorIs(t, err, errors.ErrDeployFailure)
	assert.Equal(t, map[string]string{"index.html": "live"}, listFiles(t, target, ""))
}

func remoteBranchFiles(t *testing.T, bare, branch string) map[string]string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "check")
	_, err := git.PlainClone(dir, false, &git.CloneOptions{URL: bare, ReferenceName: plumbing.NewBranchReferenceName(branch), SingleBranch: true})
	require.NoError(t, err)
	return listFiles(t, dir, ".git")
}

func TestGitDeployer_PublishesToBranch(t *testing.T) {
	tmp := t.TempDir()
	bare := filepath.Join(tmp, "remote.git")
	_, err := git.PlainInit(bare, true)
	require.NoError(t, err)

	src := filepath.Join(tmp, "public")
	writeFiles(t, src, map[string]string{"index.html": "v1", "old.html": "gone soon"})

	cfg := config.GitDeploy{URL: bare, Branch: "gh-pages", AuthorName: "bot", AuthorEmail: "bot@example.com", Message: "Publish site"}
	d := NewGitDeployer(cfg)
	d.WorkspaceBase = filepath.Join(tmp, "ws")
	require.NoError(t, os.MkdirAll(d.WorkspaceBase, 0o750))

	first, err := d.Deploy(context.Background(), src, Meta{BuildID: "b1", Commit: "0123456789abcdef0123"})
	require.NoError(t, err)
	assert.True(t, first.Changed)
	assert.NotEmpty(t, first.Revision)
	assert.Equal(t, map[string]string{"index.html": "v1", "old.html": "gone soon"}, remoteBranchFiles(t, bare, "gh-pages"))

	again, err := d.Deploy(context.Background(), src, Meta{BuildID: "b2"})
	require.NoError(t, err)
	assert.False(t, again.Changed, "identical output is not committed")
	assert.Equal(t, first.Revision, again.Revision)

	require.NoError(t, os.Remove(filepath.Join(src, "old.html")))
	writeFiles(t, src, map[string]string{"index.html": "v2"})
	third, err := d.Deploy(context.Background(), src, Meta{BuildID: "b3"})
	require.NoError(t, err)
	assert.True(t, third.Changed)
	assert.NotEqual(t, first.Revision, third.Revision)
	assert.Equal(t, map[string]string{"index.html": "v2"}, remoteBranchFiles(t, bare, "gh-pages"))

	r, err := git.PlainOpen(bare)
	require.NoError(t, err)
	commit, err := r.CommitObject(plumbing.NewHash(first.Revision))
	require.NoError(t, err)
	assert.Contains(t, commit.Message, "Source: 0123456789ab")
	assert.Equal(t, "bot", commit.Author.Name)

	entries, err := os.ReadDir(d.WorkspaceBase)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGitDeployer_UnreachableRemote(t *testing.T) {
	src := t.TempDir()
	writeFiles(t, src, map[string]string{"index.html": "x"})
	d := NewGitDeployer(config.GitDeploy{URL: filepath.Join(t.TempDir(), "nope.git"), Branch: "gh-pages", AuthorName: "bot", AuthorEmail: "b@example.com", Message: "m"})
	_, err := d.Deploy(context.Background(), src, Meta{})
	require.ErrorIs(t, err, errors.ErrDeployFailure)
}

func TestGitDeployer_AuthValidation(t *testing.T) {
	d := NewGitDeployer(config.GitDeploy{Auth: config.GitAuth{Type: config.AuthToken}})
	_, err := d.auth()
	require.ErrorIs(t, err, errors.ErrConfiguration)

	d = NewGitDeployer(config.GitDeploy{Auth: config.GitAuth{Type: config.AuthToken, Token: "t"}})
	a, err := d.auth()
	require.NoError(t, err)
	assert.Equal(t, "http-basic-auth", a.Name())
}

func TestNone(t *testing.T) {
	res, err := None{}.Deploy(context.Background(), "/nowhere", Meta{})
	require.NoError(t, err)
	assert.False(t, res.Changed)
}
