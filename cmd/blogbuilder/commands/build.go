package commands

import (
	"fmt"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/pipeline"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Drafts   bool   `help:"Include drafts (shorthand for --mode=draft-preview)"`
	Mode     string `help:"Build mode: production (prod) or draft-preview (drafts, preview)" default:"production"`
	Future   bool   `help:"Include posts dated in the future"`
	Output   string `short:"o" name:"output" help:"Output directory (overrides output.directory)" type:"path"`
	NoMinify bool   `name:"no-minify" help:"Skip minification"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signalContext()
	defer cancel()

	mode, err := resolveMode(b.Mode, b.Drafts)
	if err != nil {
		return err
	}
	req := pipeline.Request{
		SiteDir:       root.Site,
		ConfigPath:    root.Config,
		Mode:          mode,
		IncludeFuture: b.Future,
		OutputDir:     b.Output,
	}
	if b.NoMinify {
		req.Minify = config.BoolPtr(false)
	}

	res, err := pipeline.NewBuilder().Build(ctx, req)
	w := g.out()
	if res != nil {
		printWarnings(w, res.Warnings)
	}
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "Built %d posts (%d drafts excluded, %d future, %d skipped) into %s\n",
		res.Summary.Selected, res.Summary.ExcludedDrafts, res.Summary.ExcludedFuture,
		len(res.Warnings), res.OutputDir())
	return nil
}
