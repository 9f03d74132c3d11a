package preview

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

const keepAliveInterval = 30 * time.Second

// LiveReloadHub pushes output digests to connected browsers as server-sent
// events. Each subscriber owns a small buffered channel; a subscriber that
// falls behind is disconnected rather than blocking a broadcast.
type LiveReloadHub struct {
	mu      sync.Mutex
	subs    map[chan string]struct{}
	digest  string
	stopped bool
}

func NewLiveReloadHub() *LiveReloadHub {
	return &LiveReloadHub{subs: make(map[chan string]struct{})}
}

// Clients is the number of connected browsers.
func (h *LiveReloadHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// subscribe registers a new subscriber and returns it with the digest it
// should see first. ok is false once the hub has been shut down.
func (h *LiveReloadHub) subscribe() (ch chan string, digest string, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return nil, "", false
	}
	ch = make(chan string, 8)
	h.subs[ch] = struct{}{}
	return ch, h.digest, true
}

// unsubscribe closes ch if it is still registered.
func (h *LiveReloadHub) unsubscribe(ch chan string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
}

// ServeHTTP streams digest events until the client goes away or the hub
// shuts down.
func (h *LiveReloadHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, canFlush := w.(http.Flusher)
	if !canFlush {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}
	ch, digest, ok := h.subscribe()
	if !ok {
		http.Error(w, "live reload stopped", http.StatusServiceUnavailable)
		return
	}
	defer h.unsubscribe(ch)

	hdr := w.Header()
	hdr.Set("Content-Type", "text/event-stream")
	hdr.Set("Cache-Control", "no-cache")
	hdr.Set("Connection", "keep-alive")

	emit := func(format string, args ...any) bool {
		if _, err := fmt.Fprintf(w, format, args...); err != nil {
			slog.Debug("Live reload client write failed", "error", err)
			return false
		}
		flusher.Flush()
		return true
	}

	greeting := ": connected\n\n"
	if digest != "" {
		greeting += digestEvent(digest)
	}
	if !emit("%s", greeting) {
		return
	}

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			if !emit(": ping\n\n") {
				return
			}
		case d, open := <-ch:
			if !open || !emit("%s", digestEvent(d)) {
				return
			}
		}
	}
}

func digestEvent(digest string) string {
	return `data: {"hash":"` + digest + `"}` + "\n\n"
}

// Broadcast announces a new output digest. Empty digests and repeats of the
// previous one are ignored.
func (h *LiveReloadHub) Broadcast(digest string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped || digest == "" || digest == h.digest {
		return
	}
	h.digest = digest
	slow := 0
	for ch := range h.subs {
		select {
		case ch <- digest:
		default:
			delete(h.subs, ch)
			close(ch)
			slow++
		}
	}
	slog.Debug("Live reload broadcast", "digest", digest, "clients", len(h.subs), "dropped", slow)
}

// Shutdown disconnects every client. Later subscriptions are refused.
func (h *LiveReloadHub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return
	}
	h.stopped = true
	for ch := range h.subs {
		close(ch)
	}
	clear(h.subs)
}

// LiveReloadScript connects to /livereload and reloads the page when the
// digest changes after the first message.
const LiveReloadScript = `(() => {
  if (window.__BLOGBUILDER_LR__) return;
  window.__BLOGBUILDER_LR__ = true;
  function connect() {
    const es = new EventSource('/livereload');
    let current = null;
    es.onmessage = (e) => {
      try {
        const p = JSON.parse(e.data);
        if (current === null) { current = p.hash; return; }
        if (p.hash && p.hash !== current) { location.reload(); }
      } catch (_) {}
    };
    es.onerror = () => { es.close(); setTimeout(connect, 2000); };
  }
  connect();
})();`

const scriptTag = `<script async src="/livereload.js"></script>`

// maxInjectSize caps how much of an HTML response is buffered for injection.
const maxInjectSize = 512 * 1024

// injectLiveReload adds the client script before </body> of HTML pages.
func injectLiveReload(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isPagePath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		pw := &pageWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(pw, r)
		pw.flush()
	})
}

func isPagePath(p string) bool {
	return p == "" || strings.HasSuffix(p, "/") || strings.HasSuffix(p, ".html")
}

// pageWriter holds back an HTML body so the script tag can be spliced in.
// Non-HTML responses and bodies over maxInjectSize are streamed unchanged.
type pageWriter struct {
	http.ResponseWriter
	status    int
	body      bytes.Buffer
	decided   bool
	streaming bool
	sentHead  bool
}

func (p *pageWriter) WriteHeader(status int) {
	p.status = status
	if p.streaming {
		p.sendHead()
	}
}

func (p *pageWriter) sendHead() {
	if p.sentHead {
		return
	}
	p.sentHead = true
	p.Header().Del("Content-Length")
	p.ResponseWriter.WriteHeader(p.status)
}

// stream switches to pass-through, writing out anything held so far.
func (p *pageWriter) stream() error {
	p.streaming = true
	p.sendHead()
	if p.body.Len() == 0 {
		return nil
	}
	_, err := p.ResponseWriter.Write(p.body.Bytes())
	p.body.Reset()
	return err
}

func (p *pageWriter) Write(b []byte) (int, error) {
	if !p.decided {
		p.decided = true
		if ct := p.Header().Get("Content-Type"); ct != "" && !strings.Contains(ct, "text/html") {
			if err := p.stream(); err != nil {
				return 0, err
			}
		}
	}
	if !p.streaming && p.body.Len()+len(b) > maxInjectSize {
		if err := p.stream(); err != nil {
			return 0, err
		}
	}
	if p.streaming {
		return p.ResponseWriter.Write(b)
	}
	return p.body.Write(b)
}

func (p *pageWriter) flush() {
	if p.streaming {
		return
	}
	page := p.body.Bytes()
	if i := bytes.LastIndex(page, []byte("</body>")); i >= 0 {
		page = bytes.Join([][]byte{page[:i], []byte(scriptTag), page[i:]}, nil)
	}
	p.sendHead()
	_, _ = p.ResponseWriter.Write(page)
}
