// Package selection decides which posts a build publishes and in what order.
//
// Select is pure: it never touches the filesystem and takes the reference
// time from its options, so identical inputs always yield identical output.
package selection

import (
	"sort"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/foundation/normalization"
	"git.home.luguber.info/inful/blogbuilder/internal/post"
)

// Mode controls draft handling.
type Mode string

const (
	// ModeProduction publishes only non-draft, already-dated posts.
	ModeProduction Mode = "production"
	// ModeDraftPreview publishes everything, drafts included.
	ModeDraftPreview Mode = "draft-preview"
)

var modes = normalization.New(map[string]Mode{
	"":              ModeProduction,
	"production":    ModeProduction,
	"prod":          ModeProduction,
	"draft-preview": ModeDraftPreview,
	"drafts":        ModeDraftPreview,
	"preview":       ModeDraftPreview,
})

// ParseMode maps user input onto a Mode.
func ParseMode(s string) (Mode, error) {
	if m, ok := modes.Lookup(s); ok {
		return m, nil
	}
	return "", errors.ValidationError("unknown build mode").WithContext("mode", s).Build()
}

// Options configure a selection run.
type Options struct {
	Mode Mode
	// Now is the reference time for future-dated posts. Zero means time.Now.
	Now time.Time
	// IncludeFuture keeps posts dated after Now in production mode.
	IncludeFuture bool
}

// Entry is a selected post together with its 1-based listing position.
type Entry struct {
	Post     *post.Post
	Position int
}

// Summary counts what a selection kept and dropped.
type Summary struct {
	Total          int
	Selected       int
	ExcludedDrafts int
	ExcludedFuture int
}

// Select filters posts according to opts and orders them newest first.
// Posts with equal dates keep their discovery order.
func Select(posts []*post.Post, opts Options) ([]Entry, Summary) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	sum := Summary{Total: len(posts)}

	kept := make([]*post.Post, 0, len(posts))
	for _, p := range posts {
		if opts.Mode != ModeDraftPreview {
			if p.Draft {
				sum.ExcludedDrafts++
				continue
			}
			if !opts.IncludeFuture && p.Date.After(now) {
				sum.ExcludedFuture++
				continue
			}
		}
		kept = append(kept, p)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		a, b := kept[i], kept[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return a.Order < b.Order
	})

	entries := make([]Entry, len(kept))
	for i, p := range kept {
		entries[i] = Entry{Post: p, Position: i + 1}
	}
	sum.Selected = len(entries)
	return entries, sum
}

// Posts unwraps entries back into posts, keeping listing order.
func Posts(entries []Entry) []*post.Post {
	out := make([]*post.Post, len(entries))
	for i, e := range entries {
		out[i] = e.Post
	}
	return out
}

// Term is one taxonomy value with the entries carrying it.
type Term struct {
	Name    string
	Entries []Entry
}

// GroupByTaxonomy groups entries by tag. Terms are sorted by name; entries
// inside a term keep listing order.
func GroupByTaxonomy(entries []Entry) []Term {
	index := map[string]int{}
	var terms []Term
	for _, e := range entries {
		for _, tag := range e.Post.Tags {
			i, ok := index[tag]
			if !ok {
				i = len(terms)
				index[tag] = i
				terms = append(terms, Term{Name: tag})
			}
			terms[i].Entries = append(terms[i].Entries, e)
		}
	}
	sort.Slice(terms, func(i, j int) bool { return terms[i].Name < terms[j].Name })
	return terms
}
