package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/selection"
)

// ListCmd implements the 'list' command. It runs discovery and selection
// only; nothing is rendered.
type ListCmd struct {
	Drafts bool `help:"Include drafts (draft-preview mode)"`
	Future bool `help:"Include posts dated in the future"`
	Tags   bool `help:"Group the listing by tag"`
}

func (l *ListCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	disc, err := content.Discover(cfg.SectionDir())
	if err != nil {
		return err
	}
	printWarnings(os.Stderr, disc.Warnings)

	entries, sum := selection.Select(disc.Posts, selection.Options{
		Mode:          modeFor(l.Drafts),
		IncludeFuture: l.Future,
	})

	w := g.out()
	if l.Tags {
		for _, term := range selection.GroupByTaxonomy(entries) {
			_, _ = fmt.Fprintf(w, "%s (%d)\n", term.Name, len(term.Entries))
			writeEntries(w, term.Entries, "  ")
		}
	} else {
		writeEntries(w, entries, "")
	}
	_, _ = fmt.Fprintf(w, "%d selected, %d drafts excluded, %d future, %d skipped\n",
		sum.Selected, sum.ExcludedDrafts, sum.ExcludedFuture, len(disc.Warnings))
	return nil
}

func writeEntries(out io.Writer, entries []selection.Entry, indent string) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, e := range entries {
		p := e.Post
		flags := ""
		if p.Draft {
			flags = " (draft)"
		}
		tags := ""
		if len(p.Tags) > 0 {
			tags = "[" + strings.Join(p.Tags, ", ") + "]"
		}
		_, _ = fmt.Fprintf(tw, "%s%d.\t%s\t%s%s\t%s\n", indent, e.Position, p.Date.Format("2006-01-02"), p.Title, flags, tags)
	}
	_ = tw.Flush()
}
