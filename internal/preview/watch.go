package preview

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
)

const defaultDebounce = 300 * time.Millisecond

// newWatcher watches every existing directory under roots recursively and
// the parent directory of each file in files.
func newWatcher(roots, files []string) (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, root := range roots {
		if st, serr := os.Stat(root); serr != nil || !st.IsDir() {
			continue
		}
		if err := addDirsRecursive(w, root); err != nil {
			_ = w.Close()
			return nil, err
		}
	}
	for _, f := range files {
		if err := w.Add(filepath.Dir(f)); err != nil {
			slog.Warn("Cannot watch config directory", logfields.Path(f), logfields.Error(err))
		}
	}
	return w, nil
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if werr := w.Add(p); werr != nil {
			slog.Warn("Failed to watch directory", logfields.Path(p), logfields.Error(werr))
		}
		return nil
	})
}

// shouldIgnoreEvent filters editor swap files and OS metadata.
func shouldIgnoreEvent(ev fsnotify.Event) bool {
	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") || strings.HasSuffix(base, ".swx") {
		return true
	}
	if strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	switch base {
	case "4913", "Thumbs.db":
		return true
	}
	return false
}

// relevantEvent reports whether ev should trigger a rebuild. Events from the
// directories holding watched files only count for those files.
func relevantEvent(ev fsnotify.Event, roots, files []string) bool {
	if shouldIgnoreEvent(ev) || ev.Op == fsnotify.Chmod {
		return false
	}
	name := filepath.Clean(ev.Name)
	for _, f := range files {
		if name == filepath.Clean(f) {
			return true
		}
	}
	for _, root := range roots {
		root = filepath.Clean(root)
		if name == root || strings.HasPrefix(name, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// debouncer coalesces bursts of triggers into one request on out after
// the quiet period.
type debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
	out   chan<- struct{}
}

func newDebouncer(delay time.Duration, out chan<- struct{}) *debouncer {
	if delay <= 0 {
		delay = defaultDebounce
	}
	return &debouncer{delay: delay, out: out}
}

func (d *debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		select {
		case d.out <- struct{}{}:
		default:
		}
	})
}

func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}
