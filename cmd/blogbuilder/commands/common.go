// Package commands implements the blogbuilder subcommands.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/selection"
)

// LogLevelEnv overrides the log level ("debug", "info", "warn", "error").
const LogLevelEnv = "BLOGBUILDER_LOG_LEVEL"

// Global is shared state bound into every command.
type Global struct {
	// Out receives user-facing progress lines.
	Out io.Writer
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// CLI definition & global flags.
type CLI struct {
	Site    string           `short:"s" help:"Site directory" default:"." type:"path"`
	Config  string           `short:"c" help:"Configuration file, relative to the site directory" default:""`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Render the site into the output directory"`
	Preview PreviewCmd `cmd:"" help:"Serve the site locally and rebuild on change"`
	New     NewCmd     `cmd:"" help:"Create a new draft post from the archetype"`
	Publish PublishCmd `cmd:"" help:"Production build followed by deploy (CI entry point)"`
	List    ListCmd    `cmd:"" help:"Print the selected posts in listing order"`
	Lint    LintCmd    `cmd:"" help:"Check posts without rendering"`
	History HistoryCmd `cmd:"" help:"Show recent builds"`
	Init    InitCmd    `cmd:"" help:"Scaffold configuration, archetype and CI workflow"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: c.logLevel()})))
	return nil
}

func (c *CLI) logLevel() slog.Level {
	if c.Verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(os.Getenv(LogLevelEnv)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *CLI) loadConfig() (*config.Config, error) {
	return config.Load(c.Site, c.Config)
}

func modeFor(drafts bool) selection.Mode {
	if drafts {
		return selection.ModeDraftPreview
	}
	return selection.ModeProduction
}

// resolveMode combines --mode with the --drafts shorthand.
func resolveMode(mode string, drafts bool) (selection.Mode, error) {
	if drafts {
		return selection.ModeDraftPreview, nil
	}
	return selection.ParseMode(mode)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func printWarnings(w io.Writer, warnings []content.Warning) {
	for _, warn := range warnings {
		_, _ = io.WriteString(w, "warning: "+warn.String()+"\n")
	}
}
