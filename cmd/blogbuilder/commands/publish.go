package commands

import (
	"fmt"

	"git.home.luguber.info/inful/blogbuilder/internal/pipeline"
)

// PublishCmd implements the 'publish' command: a production build followed
// by the configured deploy.
type PublishCmd struct {
	Output string `short:"o" name:"output" help:"Output directory (overrides output.directory)" type:"path"`
}

func (p *PublishCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signalContext()
	defer cancel()

	res, err := pipeline.NewPublisher(pipeline.NewBuilder()).Publish(ctx, pipeline.Request{
		SiteDir:    root.Site,
		ConfigPath: root.Config,
		OutputDir:  p.Output,
	})
	w := g.out()
	if res != nil && res.Result != nil {
		printWarnings(w, res.Warnings)
	}
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "Built %d posts into %s\n", res.Summary.Selected, res.OutputDir())
	switch {
	case res.Deploy.Target == "" || res.Deploy.Target == "none":
		_, _ = fmt.Fprintln(w, "Deploy skipped (deploy.target is none)")
	case !res.Deploy.Changed:
		_, _ = fmt.Fprintf(w, "Deploy to %s unchanged%s\n", res.Deploy.Target, revision(res.Deploy.Revision))
	default:
		_, _ = fmt.Fprintf(w, "Deployed to %s%s\n", res.Deploy.Target, revision(res.Deploy.Revision))
	}
	return nil
}

func revision(rev string) string {
	switch {
	case rev == "":
		return ""
	case len(rev) > 12:
		return " (" + rev[:12] + ")"
	default:
		return " (" + rev + ")"
	}
}
