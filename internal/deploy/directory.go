package deploy

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
)

// DirectoryDeployer replaces Target with a copy of the output. The copy is
// assembled beside Target and swapped in with renames.
type DirectoryDeployer struct {
	Target string
}

func (d *DirectoryDeployer) Name() string { return "directory" }

func (d *DirectoryDeployer) Deploy(ctx context.Context, src string, _ Meta) (Result, error) {
	res := Result{Target: d.Target}
	if d.Target == "" {
		return res, errors.ConfigError("deploy.directory is empty").Build()
	}
	if err := ctx.Err(); err != nil {
		return res, errors.RuntimeError("deploy canceled").WithCause(err).Build()
	}

	incoming := d.Target + "_incoming"
	prev := d.Target + ".prev"
	if err := os.RemoveAll(incoming); err != nil {
		return res, deployFailure(d.Target, "clear incoming dir", err)
	}
	if err := copyDir(src, incoming); err != nil {
		_ = os.RemoveAll(incoming)
		return res, deployFailure(d.Target, "copy output", err)
	}

	_ = os.RemoveAll(prev)
	hadTarget := false
	if _, err := os.Stat(d.Target); err == nil {
		hadTarget = true
		if err := os.Rename(d.Target, prev); err != nil {
			_ = os.RemoveAll(incoming)
			return res, deployFailure(d.Target, "move current aside", err)
		}
	} else if err := os.MkdirAll(filepath.Dir(d.Target), 0o750); err != nil {
		_ = os.RemoveAll(incoming)
		return res, deployFailure(d.Target, "create parent dir", err)
	}

	if err := os.Rename(incoming, d.Target); err != nil {
		if hadTarget {
			if rerr := os.Rename(prev, d.Target); rerr != nil {
				slog.Error("Failed to restore previous deployment", logfields.Target(d.Target), logfields.Error(rerr))
			}
		}
		_ = os.RemoveAll(incoming)
		return res, deployFailure(d.Target, "swap in new output", err)
	}
	if hadTarget {
		if err := os.RemoveAll(prev); err != nil {
			slog.Warn("Failed to remove previous deployment", logfields.Path(prev), logfields.Error(err))
		}
	}

	res.Changed = true
	slog.Info("Deployed to directory", logfields.Target(d.Target))
	return res, nil
}

func deployFailure(target, op string, err error) error {
	return errors.DeployError(fmt.Sprintf("directory deploy: %s", op)).
		WithCause(err).
		WithContext("target", target).
		Build()
}
