package hugo

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/selection"
	"git.home.luguber.info/inful/blogbuilder/internal/workspace"
)

// HugoRenderer renders by assembling a Hugo project in a scratch workspace
// and running the hugo binary against it.
type HugoRenderer struct {
	Binary    string
	Timeout   time.Duration
	ExtraArgs []string
	// WorkspaceBase holds the scratch project; os.TempDir when empty.
	WorkspaceBase string
}

func NewHugoRenderer(binary string, timeout time.Duration, extraArgs []string) *HugoRenderer {
	if binary == "" {
		binary = "hugo"
	}
	return &HugoRenderer{Binary: binary, Timeout: timeout, ExtraArgs: extraArgs}
}

func (r *HugoRenderer) Name() string { return "hugo" }

// Render implements Renderer.
func (r *HugoRenderer) Render(ctx context.Context, site Site, dest string) error {
	bin, err := exec.LookPath(r.Binary)
	if err != nil {
		return fmt.Errorf("hugo binary %q not found: %w", r.Binary, err)
	}

	ws := workspace.NewManager(r.WorkspaceBase)
	if err := ws.Create(); err != nil {
		return err
	}
	defer func() {
		if cerr := ws.Cleanup(); cerr != nil {
			slog.Warn("Failed to clean up hugo workspace", logfields.Error(cerr))
		}
	}()

	project, err := ws.CreateSubdir("site")
	if err != nil {
		return err
	}
	if err := writeProject(project, site); err != nil {
		return fmt.Errorf("assemble hugo project: %w", err)
	}
	return r.run(ctx, bin, project, dest, site)
}

func (r *HugoRenderer) args(project, dest string, site Site) []string {
	args := []string{"--source", project, "--destination", dest, "--quiet"}
	if site.ShouldMinify() {
		args = append(args, "--minify")
	}
	if site.Mode == selection.ModeDraftPreview {
		args = append(args, "--buildDrafts", "--buildFuture")
	} else if site.IncludeFuture {
		args = append(args, "--buildFuture")
	}
	return append(args, r.ExtraArgs...)
}

func (r *HugoRenderer) run(ctx context.Context, bin, project, dest string, site Site) error {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	args := r.args(project, dest, site)
	// #nosec G204 -- binary comes from site configuration by design of the tool.
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = project
	env := "production"
	if site.Mode == selection.ModeDraftPreview {
		env = "development"
	}
	cmd.Env = append(os.Environ(), "HUGO_ENVIRONMENT="+env)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	slog.Debug("Running hugo", slog.String("binary", bin), slog.String("args", strings.Join(args, " ")))
	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("hugo timed out after %s", r.Timeout)
		}
		return fmt.Errorf("hugo failed: %w: %s", err, tail(out.String(), 2000))
	}
	slog.Debug("Hugo finished", logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	return nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
