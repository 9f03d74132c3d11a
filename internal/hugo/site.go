package hugo

import (
	"context"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/selection"
)

// Site is everything a renderer needs for one build.
type Site struct {
	Config        *config.Config
	Entries       []selection.Entry
	Assets        []content.Asset
	Mode          selection.Mode
	IncludeFuture bool
	// Minify overrides config output.minify when non-nil.
	Minify *bool
	// Warnings are problems found before rendering, such as skipped
	// documents. They end up in the build report.
	Warnings []error
}

// ShouldMinify resolves the effective minify flag.
func (s Site) ShouldMinify() bool {
	if s.Minify != nil {
		return *s.Minify
	}
	return s.Config.Minify()
}

// Renderer produces a complete static tree in dest, which exists and is
// empty when Render is called.
type Renderer interface {
	Name() string
	Render(ctx context.Context, site Site, dest string) error
}

// RendererFor returns the renderer selected by render.engine.
func RendererFor(cfg *config.Config) Renderer {
	if cfg.Render.Engine == config.RenderEngineBuiltin {
		return NewBuiltinRenderer()
	}
	return NewHugoRenderer(cfg.Render.HugoBinary, cfg.RenderTimeout(), cfg.Render.ExtraArgs)
}

// latestDate is the newest post date, used where feeds need a timestamp
// that does not change between identical builds.
func latestDate(entries []selection.Entry) time.Time {
	var latest time.Time
	for _, e := range entries {
		if e.Post.Date.After(latest) {
			latest = e.Post.Date
		}
	}
	return latest
}
