package deploy

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	git "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/workspace"
)

// GitDeployer commits the output to a pages branch and pushes it.
type GitDeployer struct {
	cfg config.GitDeploy
	// WorkspaceBase holds the scratch clone; os.TempDir when empty.
	WorkspaceBase string
	now           func() time.Time
}

func NewGitDeployer(cfg config.GitDeploy) *GitDeployer {
	return &GitDeployer{cfg: cfg, now: time.Now}
}

func (g *GitDeployer) Name() string { return "git" }

// Deploy clones the branch (or starts it when the remote lacks it), makes
// the worktree match src, and pushes a commit when anything changed.
func (g *GitDeployer) Deploy(ctx context.Context, src string, meta Meta) (Result, error) {
	res := Result{Target: g.cfg.URL + "#" + g.cfg.Branch}

	auth, err := g.auth()
	if err != nil {
		return res, err
	}

	ws := workspace.NewManager(g.WorkspaceBase)
	if err := ws.Create(); err != nil {
		return res, g.failure("create workspace", err)
	}
	defer func() {
		if cerr := ws.Cleanup(); cerr != nil {
			slog.Warn("Failed to clean up deploy workspace", logfields.Error(cerr))
		}
	}()
	dir, err := ws.CreateSubdir("pages")
	if err != nil {
		return res, g.failure("create workspace", err)
	}

	repo, err := g.checkout(ctx, dir, auth)
	if err != nil {
		return res, err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return res, g.failure("open worktree", err)
	}

	if err := clearExcept(dir, ".git"); err != nil {
		return res, g.failure("clear worktree", err)
	}
	if err := copyDir(src, dir); err != nil {
		return res, g.failure("copy output", err)
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return res, g.failure("stage changes", err)
	}
	status, err := wt.Status()
	if err != nil {
		return res, g.failure("status", err)
	}
	if status.IsClean() {
		if head, herr := repo.Head(); herr == nil {
			res.Revision = head.Hash().String()
		}
		slog.Info("Pages branch already up to date", logfields.Target(res.Target))
		return res, nil
	}

	hash, err := wt.Commit(g.message(meta), &git.CommitOptions{
		Author: &object.Signature{Name: g.cfg.AuthorName, Email: g.cfg.AuthorEmail, When: g.now()},
	})
	if err != nil {
		return res, g.failure("commit", err)
	}

	ref := plumbing.NewBranchReferenceName(g.cfg.Branch)
	err = repo.PushContext(ctx, &git.PushOptions{
		RemoteName: git.DefaultRemoteName,
		RefSpecs:   []gitconfig.RefSpec{gitconfig.RefSpec(ref.String() + ":" + ref.String())},
		Auth:       auth,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return res, g.failure("push", err)
	}

	res.Revision = hash.String()
	res.Changed = true
	slog.Info("Pushed pages branch", logfields.Target(res.Target), logfields.Commit(hash.String()))
	return res, nil
}

// checkout clones the pages branch into dir. A remote without the branch
// (or without any commits) gets a fresh repository whose first push
// creates it.
func (g *GitDeployer) checkout(ctx context.Context, dir string, auth transport.AuthMethod) (*git.Repository, error) {
	ref := plumbing.NewBranchReferenceName(g.cfg.Branch)
	repo, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:           g.cfg.URL,
		Auth:          auth,
		ReferenceName: ref,
		SingleBranch:  true,
	})
	if err == nil {
		return repo, nil
	}
	if !errors.Is(err, transport.ErrEmptyRemoteRepository) &&
		!errors.Is(err, git.NoMatchingRefSpecError{}) &&
		!errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, g.failure("clone", err)
	}

	slog.Info("Pages branch not found on remote, starting it", slog.String("branch", g.cfg.Branch))
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, g.failure("reset workspace", err)
	}
	if err := clearExcept(dir); err != nil {
		return nil, g.failure("reset workspace", err)
	}
	repo, err = git.PlainInitWithOptions(dir, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: ref},
	})
	if err != nil {
		return nil, g.failure("init", err)
	}
	if _, err := repo.CreateRemote(&gitconfig.RemoteConfig{Name: git.DefaultRemoteName, URLs: []string{g.cfg.URL}}); err != nil {
		return nil, g.failure("add remote", err)
	}
	return repo, nil
}

func (g *GitDeployer) auth() (transport.AuthMethod, error) {
	a := g.cfg.Auth
	switch a.Type {
	case config.AuthNone, "":
		return nil, nil
	case config.AuthToken:
		if a.Token == "" {
			return nil, errors.ConfigError("token authentication requires a token").Build()
		}
		user := a.Username
		if user == "" {
			user = "token"
		}
		return &githttp.BasicAuth{Username: user, Password: a.Token}, nil
	case config.AuthBasic:
		if a.Username == "" || a.Password == "" {
			return nil, errors.ConfigError("basic authentication requires username and password").Build()
		}
		return &githttp.BasicAuth{Username: a.Username, Password: a.Password}, nil
	default:
		return nil, errors.ConfigError("unknown auth type").WithContext("type", string(a.Type)).Build()
	}
}

func (g *GitDeployer) message(meta Meta) string {
	msg := g.cfg.Message
	if meta.Commit != "" {
		short := meta.Commit
		if len(short) > 12 {
			short = short[:12]
		}
		msg += "\n\nSource: " + short
	}
	if meta.BuildID != "" {
		msg += "\nBuild: " + meta.BuildID
	}
	return msg
}

func (g *GitDeployer) failure(op string, err error) error {
	return errors.DeployError(fmt.Sprintf("git deploy: %s", op)).
		WithCause(err).
		WithContext("url", g.cfg.URL).
		WithContext("branch", g.cfg.Branch).
		Build()
}
