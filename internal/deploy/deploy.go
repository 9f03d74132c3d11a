// Package deploy publishes a rendered output tree to its hosting target.
//
// Deployers only ever see a complete, verified output directory; a failed
// deploy leaves whatever was previously live in place.
package deploy

import (
	"context"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

// Meta describes the build being deployed.
type Meta struct {
	BuildID string
	// Commit is the source revision, empty outside a git checkout.
	Commit string
}

// Result reports what a deploy did.
type Result struct {
	Target string
	// Revision identifies the deployed state (a commit hash for git).
	Revision string
	// Changed is false when the target already matched the output.
	Changed bool
}

// Deployer publishes the tree at src.
type Deployer interface {
	Name() string
	Deploy(ctx context.Context, src string, meta Meta) (Result, error)
}

// New returns the deployer selected by deploy.target.
func New(cfg *config.Config) (Deployer, error) {
	switch cfg.Deploy.Target {
	case config.DeployNone, "":
		return None{}, nil
	case config.DeployDirectory:
		return &DirectoryDeployer{Target: cfg.DeployDir()}, nil
	case config.DeployGit:
		return NewGitDeployer(cfg.Deploy.Git), nil
	default:
		return nil, errors.ConfigError("unknown deploy target").
			WithContext("target", string(cfg.Deploy.Target)).
			Build()
	}
}

// None is the build-only target.
type None struct{}

func (None) Name() string { return string(config.DeployNone) }

func (None) Deploy(context.Context, string, Meta) (Result, error) {
	return Result{Target: string(config.DeployNone)}, nil
}
