package preview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/events"
	ferrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/hugo"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
	"git.home.luguber.info/inful/blogbuilder/internal/pipeline"
)

const (
	defaultHost = "localhost"
	defaultPort = 1313
)

// Options configures a preview session.
type Options struct {
	// Request is the build every rebuild runs. An empty OutputDir renders
	// into .blogbuilder/preview so the production output stays untouched.
	Request pipeline.Request
	Host    string
	// Port overrides preview.port when non-zero.
	Port int
	// LiveReload overrides preview.live_reload when non-nil.
	LiveReload *bool
	Debounce   time.Duration
}

// Status is the state of the most recent build, served at /healthz.
type Status struct {
	Ready     bool      `json:"ready"`
	Builds    int       `json:"builds"`
	BuildID   string    `json:"build_id,omitempty"`
	Outcome   string    `json:"outcome,omitempty"`
	Selected  int       `json:"selected"`
	Digest    string    `json:"digest,omitempty"`
	LastError string    `json:"last_error,omitempty"`
	Finished  time.Time `json:"finished,omitempty"`
}

// Server serves the rendered site and rebuilds it when sources change.
type Server struct {
	opts       Options
	cfg        *config.Config
	configPath string
	outputDir  string
	liveReload bool

	builder  *pipeline.Builder
	recorder *metrics.PrometheusRecorder
	hub      *LiveReloadHub
	httpErr  *ferrors.HTTPErrorAdapter
	rebuild  chan struct{}

	buildMu sync.Mutex
	mu      sync.RWMutex
	status  Status
}

// New loads the site configuration and prepares a server.
func New(opts Options) (*Server, error) {
	cfg, err := config.Load(opts.Request.SiteDir, opts.Request.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.Request.OutputDir == "" {
		opts.Request.OutputDir = filepath.Join(cfg.SiteDir, ".blogbuilder", "preview")
	}
	out, err := filepath.Abs(opts.Request.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("resolve preview output: %w", err)
	}
	opts.Request.OutputDir = out
	if opts.Host == "" {
		opts.Host = defaultHost
	}
	if opts.Port == 0 {
		opts.Port = cfg.Preview.Port
	}
	if opts.Port == 0 {
		opts.Port = defaultPort
	}
	live := cfg.LiveReload()
	if opts.LiveReload != nil {
		live = *opts.LiveReload
	}

	configPath := opts.Request.ConfigPath
	if configPath == "" {
		configPath = config.DefaultFileName
	}
	if !filepath.IsAbs(configPath) {
		configPath = filepath.Join(cfg.SiteDir, configPath)
	}

	recorder := metrics.NewPrometheusRecorder(nil)
	return &Server{
		opts:       opts,
		cfg:        cfg,
		configPath: configPath,
		outputDir:  out,
		liveReload: live,
		builder: pipeline.NewBuilder().
			WithHistory(false).
			WithRecorder(recorder).
			WithPublisher(events.NoopPublisher{}),
		recorder: recorder,
		hub:      NewLiveReloadHub(),
		httpErr:  ferrors.NewHTTPErrorAdapter(nil),
		rebuild:  make(chan struct{}, 1),
	}, nil
}

// WithBuilder replaces the builder, mainly so tests can inject a renderer.
func (s *Server) WithBuilder(b *pipeline.Builder) *Server {
	s.builder = b.WithRecorder(s.recorder)
	return s
}

// Addr is the configured listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.Port))
}

// OutputDir is where preview builds are promoted.
func (s *Server) OutputDir() string { return s.outputDir }

func (s *Server) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Rebuild runs one build. A failed build leaves the last good output in
// place and the server keeps serving it.
func (s *Server) Rebuild(ctx context.Context) error {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	res, err := s.builder.Build(ctx, s.opts.Request)

	s.mu.Lock()
	s.status.Builds++
	s.status.Finished = time.Now()
	if err != nil {
		s.status.LastError = err.Error()
		s.mu.Unlock()
		slog.Warn("Rebuild failed; serving last good output", logfields.Error(err))
		return err
	}
	s.status.Ready = true
	s.status.LastError = ""
	s.status.BuildID = res.BuildID
	s.status.Selected = res.Summary.Selected
	if res.Report != nil {
		s.status.Outcome = string(res.Report.Outcome)
		s.status.Digest = res.Report.OutputDigest
	}
	digest := s.status.Digest
	s.mu.Unlock()

	if s.liveReload {
		s.hub.Broadcast(digest)
	}
	return nil
}

// requestRebuild queues a rebuild; requests arriving while one is queued
// are coalesced.
func (s *Server) requestRebuild() {
	select {
	case s.rebuild <- struct{}{}:
	default:
	}
}

// Handler routes the preview endpoints and the site itself.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(s.recorder.Registry()))
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/_rebuild", s.handleRebuild)
	if s.liveReload {
		mux.Handle("/livereload", s.hub)
		mux.HandleFunc("/livereload.js", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
			w.Header().Set("Cache-Control", "no-store")
			_, _ = w.Write([]byte(LiveReloadScript))
		})
	}

	var site http.Handler = http.FileServer(http.Dir(s.outputDir))
	if s.liveReload {
		site = injectLiveReload(site)
	}
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st := s.Status()
		if !st.Ready {
			s.writeNotReady(w, st)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		site.ServeHTTP(w, r)
	}))
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.Status()); err != nil {
		slog.Debug("healthz encode", logfields.Error(err))
	}
}

// handleRebuild runs a synchronous rebuild, for editors and scripts that
// want to know whether their change built.
func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.Rebuild(r.Context()); err != nil {
		s.httpErr.WriteErrorResponse(w, r, err)
		return
	}
	s.handleHealth(w, r)
}

func (s *Server) writeNotReady(w http.ResponseWriter, st Status) {
	msg := "The site has not been built yet."
	if st.LastError != "" {
		msg = st.LastError
	}
	body := "<!DOCTYPE html><html><head><title>Build failed</title></head><body>" +
		"<h1>No preview available</h1><pre>" + html.EscapeString(msg) + "</pre></body></html>"
	if s.liveReload {
		body = body[:len(body)-len("</body></html>")] + scriptTag + "</body></html>"
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte(body))
}

// Run listens on Addr and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve builds the site once, then serves it on ln, watching sources and
// rebuilding on change until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := s.Rebuild(ctx); err != nil {
		slog.Warn("Initial build failed; fix the error and save to retry", logfields.Error(err))
	}

	roots := s.watchRoots()
	files := []string{s.configPath}
	watcher, err := newWatcher(roots, files)
	if err != nil {
		_ = ln.Close()
		return fmt.Errorf("start file watcher: %w", err)
	}
	deb := newDebouncer(s.opts.Debounce, s.rebuild)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.rebuildWorker(ctx)
	}()
	go func() {
		defer wg.Done()
		s.watchLoop(ctx, watcher, deb, roots, files)
	}()

	var sched *Scheduler
	if iv := s.cfg.RebuildInterval(); iv > 0 {
		sched, err = NewScheduler(iv, s.requestRebuild)
		if err != nil {
			slog.Warn("Scheduled rebuilds disabled", logfields.Error(err))
		} else {
			sched.Start()
		}
	}

	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	slog.Info("Preview server listening",
		logfields.URL("http://"+ln.Addr().String()+"/"),
		slog.Bool("live_reload", s.liveReload),
		logfields.Mode(string(s.opts.Request.Mode)))

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	s.hub.Shutdown()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("Preview server shutdown", logfields.Error(err))
	}
	if sched != nil {
		sched.Stop()
	}
	deb.Stop()
	cancel()
	_ = watcher.Close()
	wg.Wait()

	if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return serveErr
	}
	return nil
}

func (s *Server) watchRoots() []string {
	roots := []string{s.cfg.ContentDir()}
	for _, d := range hugo.SiteDirs() {
		roots = append(roots, filepath.Join(s.cfg.SiteDir, d))
	}
	return roots
}

// rebuildWorker is the only caller of Rebuild while serving, so builds never
// overlap.
func (s *Server) rebuildWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.rebuild:
			slog.Info("Change detected; rebuilding")
			_ = s.Rebuild(ctx)
		}
	}
}

func (s *Server) watchLoop(ctx context.Context, w *fsnotify.Watcher, deb *debouncer, roots, files []string) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if !relevantEvent(ev, roots, files) {
				continue
			}
			slog.Debug("Source changed", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
			if ev.Has(fsnotify.Create) {
				_ = addDirsRecursive(w, ev.Name)
			}
			deb.Trigger()
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			slog.Warn("File watcher error", logfields.Error(err))
		}
	}
}
