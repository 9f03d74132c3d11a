package commands

import (
	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/pipeline"
	"git.home.luguber.info/inful/blogbuilder/internal/preview"
)

// PreviewCmd starts a local server that rebuilds the site on change.
type PreviewCmd struct {
	Drafts       bool   `help:"Include drafts (draft-preview mode)"`
	Future       bool   `help:"Include posts dated in the future"`
	Port         int    `name:"port" help:"Port to listen on (overrides preview.port)"`
	Host         string `name:"host" default:"localhost" help:"Interface to bind"`
	Output       string `short:"o" name:"output" help:"Preview output directory (defaults to .blogbuilder/preview)" type:"path"`
	NoLiveReload bool   `name:"no-live-reload" help:"Disable LiveReload SSE and script injection"`
}

func (p *PreviewCmd) Run(_ *Global, root *CLI) error {
	ctx, cancel := signalContext()
	defer cancel()

	opts := preview.Options{
		Request: pipeline.Request{
			SiteDir:       root.Site,
			ConfigPath:    root.Config,
			Mode:          modeFor(p.Drafts),
			IncludeFuture: p.Future,
			OutputDir:     p.Output,
		},
		Host: p.Host,
		Port: p.Port,
	}
	if p.NoLiveReload {
		opts.LiveReload = config.BoolPtr(false)
	}
	srv, err := preview.New(opts)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}
