package pipeline

import (
	"context"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"time"

	git "github.com/go-git/go-git/v5"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/events"
	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/history"
	"git.home.luguber.info/inful/blogbuilder/internal/hugo"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
	"git.home.luguber.info/inful/blogbuilder/internal/observability"
	"git.home.luguber.info/inful/blogbuilder/internal/selection"
)

// Request describes one build.
type Request struct {
	SiteDir string
	// ConfigPath defaults to blogbuilder.yaml inside SiteDir.
	ConfigPath    string
	Mode          selection.Mode
	IncludeFuture bool
	// OutputDir overrides output.directory when set.
	OutputDir string
	// Minify overrides output.minify when non-nil.
	Minify *bool
	// Now is the reference time for future-dated posts; zero means time.Now.
	Now time.Time
}

// Result is what a build produced. Config is set whenever configuration
// loaded, even if the build later failed.
type Result struct {
	BuildID  string
	Commit   string
	Config   *config.Config
	Entries  []selection.Entry
	Summary  selection.Summary
	Warnings []content.Warning
	Report   *hugo.BuildReport

	row history.Build
}

// OutputDir is where the build promoted its output.
func (r *Result) OutputDir() string { return r.Config.OutputDir() }

// Builder runs builds. Dependencies not injected are derived from the site
// configuration on every build.
type Builder struct {
	renderer  hugo.Renderer
	recorder  metrics.Recorder
	publisher events.Publisher
	history   bool
}

// NewBuilder creates a builder with history recording enabled.
func NewBuilder() *Builder {
	return &Builder{history: true}
}

// WithRenderer fixes the renderer instead of using render.engine.
func (b *Builder) WithRenderer(r hugo.Renderer) *Builder {
	b.renderer = r
	return b
}

// WithRecorder injects a metrics recorder.
func (b *Builder) WithRecorder(r metrics.Recorder) *Builder {
	b.recorder = r
	return b
}

// WithPublisher injects an event publisher instead of events.nats_url.
func (b *Builder) WithPublisher(p events.Publisher) *Builder {
	b.publisher = p
	return b
}

// WithHistory toggles the SQLite build log.
func (b *Builder) WithHistory(enabled bool) *Builder {
	b.history = enabled
	return b
}

// Build loads the site and renders it. Configuration problems and render
// failures are returned as errors; malformed documents only produce
// warnings.
func (b *Builder) Build(ctx context.Context, req Request) (*Result, error) {
	cfg, err := config.Load(req.SiteDir, req.ConfigPath)
	if err != nil {
		return nil, err
	}
	if req.OutputDir != "" {
		abs, aerr := filepath.Abs(req.OutputDir)
		if aerr != nil {
			return nil, errors.ConfigError("invalid output directory").WithCause(aerr).Build()
		}
		cfg.Output.Directory = abs
	}
	if req.Mode == "" {
		req.Mode = selection.ModeProduction
	}

	res := &Result{BuildID: history.NewID(), Config: cfg, Commit: SourceCommit(cfg.SiteDir)}
	res.row = history.Build{ID: res.BuildID, Started: time.Now(), Mode: string(req.Mode), Commit: res.Commit}
	ctx = observability.WithMode(observability.WithBuildID(ctx, res.BuildID), string(req.Mode))

	rec, textfile := b.recorderFor(cfg)
	pub, closePub := b.publisherFor(ctx, cfg)
	defer closePub()

	events.Emit(ctx, pub, res.event(events.BuildStarted, cfg))
	observability.InfoContext(ctx, "Build started", logfields.Path(cfg.SiteDir), logfields.Commit(res.Commit))

	err = b.run(ctx, req, res, rec)

	res.row.Finished = time.Now()
	res.row.Selected = res.Summary.Selected
	res.row.DraftsExcluded = res.Summary.ExcludedDrafts
	res.row.Malformed = len(res.Warnings)
	res.row.Outcome = string(hugo.OutcomeFailed)
	if res.Report != nil {
		res.row.Outcome = string(res.Report.Outcome)
	}
	if err != nil {
		res.row.Error = err.Error()
	}
	b.recordHistory(ctx, cfg, res.row)
	if textfile != nil {
		textfile()
	}

	if err != nil {
		ev := res.event(events.BuildFailed, cfg)
		ev.Error = err.Error()
		events.Emit(ctx, pub, ev)
		observability.ErrorContext(ctx, "Build failed", logfields.Error(err))
		return res, err
	}
	events.Emit(ctx, pub, res.event(events.BuildSucceeded, cfg))
	observability.InfoContext(ctx, "Build finished",
		logfields.Count(res.Summary.Selected),
		slog.Int("warnings", len(res.Warnings)),
		slog.String("output", cfg.OutputDir()))
	return res, nil
}

func (b *Builder) run(ctx context.Context, req Request, res *Result, rec metrics.Recorder) error {
	cfg := res.Config
	disc, err := content.Discover(cfg.SectionDir())
	if err != nil {
		return err
	}
	res.Warnings = disc.Warnings

	entries, sum := selection.Select(disc.Posts, selection.Options{
		Mode:          req.Mode,
		Now:           req.Now,
		IncludeFuture: req.IncludeFuture,
	})
	res.Entries = entries
	res.Summary = sum
	rec.SetDocuments(metrics.DocumentsSelected, sum.Selected)
	rec.SetDocuments(metrics.DocumentsDraft, sum.ExcludedDrafts)
	rec.SetDocuments(metrics.DocumentsFuture, sum.ExcludedFuture)
	rec.SetDocuments(metrics.DocumentsMalformed, len(disc.Warnings))

	warnings := make([]error, 0, len(disc.Warnings))
	for _, w := range disc.Warnings {
		warnings = append(warnings, w.Err)
	}

	renderer := b.renderer
	if renderer == nil {
		renderer = hugo.RendererFor(cfg)
	}
	site := hugo.Site{
		Config:        cfg,
		Entries:       entries,
		Assets:        publishedAssets(disc, entries),
		Mode:          req.Mode,
		IncludeFuture: req.IncludeFuture,
		Minify:        req.Minify,
		Warnings:      warnings,
	}
	gen := hugo.NewGenerator(renderer, cfg.OutputDir()).
		SetRecorder(rec).
		SetReportPath(cfg.ReportPath())
	report, err := gen.Generate(observability.WithStage(ctx, "generate"), site)
	res.Report = report
	return err
}

// recorderFor returns the recorder for a build and, when metrics.textfile
// is configured, a func writing the textfile afterwards.
func (b *Builder) recorderFor(cfg *config.Config) (metrics.Recorder, func()) {
	rec := b.recorder
	path := cfg.MetricsTextfile()
	if path == "" {
		if rec == nil {
			rec = metrics.NoopRecorder{}
		}
		return rec, nil
	}
	pr, ok := rec.(*metrics.PrometheusRecorder)
	if !ok {
		pr = metrics.NewPrometheusRecorder(nil)
		rec = pr
	}
	return rec, func() {
		if err := metrics.WriteTextfile(pr.Registry(), path); err != nil {
			slog.Warn("Failed to write metrics textfile", logfields.Path(path), logfields.Error(err))
		}
	}
}

func (b *Builder) publisherFor(ctx context.Context, cfg *config.Config) (events.Publisher, func()) {
	if b.publisher != nil {
		return b.publisher, func() {}
	}
	if cfg.Events.NATSURL == "" {
		return events.NoopPublisher{}, func() {}
	}
	p, err := events.NewNATSPublisher(ctx, cfg.Events.NATSURL, cfg.Events.Subject)
	if err != nil {
		slog.Warn("Event publishing disabled", logfields.URL(cfg.Events.NATSURL), logfields.Error(err))
		return events.NoopPublisher{}, func() {}
	}
	return p, func() {
		if cerr := p.Close(); cerr != nil {
			slog.Debug("Closing event publisher failed", logfields.Error(cerr))
		}
	}
}

func (b *Builder) recordHistory(ctx context.Context, cfg *config.Config, row history.Build) {
	if !b.history || cfg.HistoryPath() == "" {
		return
	}
	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		slog.Warn("Build history unavailable", logfields.Path(cfg.HistoryPath()), logfields.Error(err))
		return
	}
	defer func() { _ = store.Close() }()
	if _, err := store.Record(ctx, row); err != nil {
		slog.Warn("Failed to record build history", logfields.Error(err))
	}
}

func (r *Result) event(t events.Type, cfg *config.Config) events.BuildEvent {
	return events.BuildEvent{
		Type:     t,
		BuildID:  r.BuildID,
		Site:     cfg.Title,
		Mode:     r.row.Mode,
		Commit:   r.Commit,
		Selected: r.Summary.Selected,
	}
}

// SourceCommit returns the HEAD commit of the repository containing dir,
// or "" when dir is not inside a git checkout.
func SourceCommit(dir string) string {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return ""
	}
	head, err := repo.Head()
	if err != nil {
		return ""
	}
	return head.Hash().String()
}

// publishedAssets drops files belonging to page bundles that are not part
// of this build, so a draft's images do not ship with production output.
func publishedAssets(disc *content.Result, entries []selection.Entry) []content.Asset {
	selected := make(map[string]bool, len(entries))
	for _, e := range entries {
		selected[e.Post.RelPath] = true
	}
	var hidden []string
	hide := func(rel string) {
		if prefix := bundlePrefix(rel); prefix != "" {
			hidden = append(hidden, prefix)
		}
	}
	for _, p := range disc.Posts {
		if p.IsBundle() && !selected[p.RelPath] {
			hide(p.RelPath)
		}
	}
	for _, w := range disc.Warnings {
		if strings.EqualFold(strings.TrimSuffix(path.Base(w.Path), path.Ext(w.Path)), "index") {
			hide(w.Path)
		}
	}
	if len(hidden) == 0 {
		return disc.Assets
	}
	out := make([]content.Asset, 0, len(disc.Assets))
outer:
	for _, a := range disc.Assets {
		for _, prefix := range hidden {
			if strings.HasPrefix(a.RelPath, prefix) {
				continue outer
			}
		}
		out = append(out, a)
	}
	return out
}

func bundlePrefix(rel string) string {
	dir := path.Dir(rel)
	if dir == "." {
		return ""
	}
	return dir + "/"
}
