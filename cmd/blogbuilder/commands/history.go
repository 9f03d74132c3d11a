package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int `short:"n" default:"10" help:"Number of builds to show"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	builds, err := store.Recent(context.Background(), h.Limit)
	if err != nil {
		return err
	}
	w := g.out()
	if len(builds) == 0 {
		_, _ = fmt.Fprintln(w, "No builds recorded")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tSTARTED\tMODE\tOUTCOME\tPOSTS\tDRAFTS\tSKIPPED\tDEPLOYED\tDURATION\tCOMMIT")
	for _, b := range builds {
		deployed := "-"
		if b.Deployed {
			deployed = "yes"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\t%s\n",
			b.ID[:min(8, len(b.ID))],
			b.Started.Local().Format("2006-01-02 15:04:05"),
			b.Mode, b.Outcome, b.Selected, b.DraftsExcluded, b.Malformed, deployed,
			b.Duration().Round(time.Millisecond), b.Commit[:min(12, len(b.Commit))])
	}
	return tw.Flush()
}
