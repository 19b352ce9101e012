// internal/server/server.go
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"navmark/internal/builder"
	"navmark/internal/navmark"
)

// Config holds the dev server configuration.
type Config struct {
	Port int

	// Dir is the directory of built pages being served.
	Dir string

	// LiveReload injects the reload script into every page and serves
	// the websocket it connects to.
	LiveReload bool

	// Build, when set, is called once before serving and again whenever
	// something under WatchPaths changes.
	Build        func(builder.BuildOptions) error
	BuildOptions builder.BuildOptions
	WatchPaths   []string
}

// Server serves a built site, marking the active navbar link of every page
// according to the path it was requested at.
type Server struct {
	cfg    Config
	marker *navmark.Marker
	log    *slog.Logger
	hub    *Hub
	router chi.Router
}

// New creates a Server. A nil marker means the default navmark options; a
// nil logger discards everything.
func New(cfg Config, marker *navmark.Marker, log *slog.Logger) (*Server, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if marker == nil {
		var err error
		marker, err = navmark.NewMarker(navmark.Options{})
		if err != nil {
			return nil, err
		}
	}
	if cfg.Dir == "" {
		cfg.Dir = "public"
	}
	s := &Server{
		cfg:    cfg,
		marker: marker,
		log:    log,
		hub:    newHub(log),
	}
	s.router = s.buildRouter()
	return s, nil
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	if s.cfg.LiveReload {
		r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
			serveWs(s.hub, w, r)
		})
	}

	fileServer := http.FileServer(http.Dir(s.cfg.Dir))
	r.Handle("/*", s.navWrapper(fileServer))
	return r
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Reload tells every connected browser to reload.
func (s *Server) Reload() {
	s.hub.broadcastMessage(reloadMessage)
}

// Run builds the site if a build func is configured, starts watching for
// changes, and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if s.cfg.Build != nil {
		opts := s.cfg.BuildOptions
		opts.CleanDestination = true
		if err := s.cfg.Build(opts); err != nil {
			return fmt.Errorf("initial build failed: %w", err)
		}
	}

	if s.cfg.Build != nil && len(s.cfg.WatchPaths) > 0 {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("could not create file watcher: %w", err)
		}
		defer watcher.Close()
		if err := s.watch(watcher, s.cfg.WatchPaths); err != nil {
			return err
		}
		opts := s.cfg.BuildOptions
		opts.CleanDestination = false
		go s.watchForChanges(ctx, watcher, opts)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.log.Info("serving site", "url", fmt.Sprintf("http://localhost:%d", s.cfg.Port), "dir", s.cfg.Dir)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.hub.closeAll()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// watch adds every directory under paths to watcher. Files are watched
// through their parent directory so editors that save by swapping files are
// still noticed. Paths that don't exist are skipped.
func (s *Server) watch(watcher *fsnotify.Watcher, paths []string) error {
	watched := make(map[string]bool)
	addWatch := func(dir string) {
		dir = filepath.Clean(dir)
		if watched[dir] {
			return
		}
		if err := watcher.Add(dir); err != nil {
			s.log.Warn("error adding watch", "dir", dir, "error", err)
			return
		}
		s.log.Debug("watching directory", "dir", dir)
		watched[dir] = true
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("could not stat path %s: %w", path, err)
		}
		if !info.IsDir() {
			addWatch(filepath.Dir(path))
			continue
		}
		if err := filepath.Walk(path, func(walkPath string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				addWatch(walkPath)
			}
			return nil
		}); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", path, err)
		}
	}
	return nil
}

const debounceDuration = 500 * time.Millisecond

func (s *Server) watchForChanges(ctx context.Context, watcher *fsnotify.Watcher, opts builder.BuildOptions) {
	var lastBuildTime time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if time.Since(lastBuildTime) <= debounceDuration {
				continue
			}
			// let the editor finish writing
			time.Sleep(100 * time.Millisecond)

			s.log.Info("change detected, rebuilding", "path", event.Name)
			if err := s.cfg.Build(opts); err != nil {
				s.log.Error("error rebuilding site", "error", err)
			} else {
				s.log.Info("site rebuilt, triggering reload")
				s.Reload()
			}
			lastBuildTime = time.Now()
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.log.Warn("watcher error", "error", err)
		}
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func isHTMLPath(p string) bool {
	return strings.HasSuffix(p, ".html") || strings.HasSuffix(p, ".htm") || strings.HasSuffix(p, "/")
}

// navWrapper marks the active navbar link in HTML pages served by next,
// using the escaped request path as the page's location, and injects the
// live-reload script when enabled. HEAD requests get the headers of the
// marked GET response. Everything else passes through untouched.
func (s *Server) navWrapper(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")

		head := r.Method == http.MethodHead
		if (r.Method != http.MethodGet && !head) || !isHTMLPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		// conditional headers are handled here, against the marked body
		inner := r.Clone(r.Context())
		inner.Method = http.MethodGet
		inner.Header.Del("If-None-Match")
		inner.Header.Del("If-Modified-Since")

		iw := newInterceptingWriter(w)
		next.ServeHTTP(iw, inner)

		for key, values := range iw.Header() {
			for _, value := range values {
				w.Header().Add(key, value)
			}
		}
		body := iw.body.Bytes()

		if iw.statusCode != http.StatusOK || !strings.HasPrefix(w.Header().Get("Content-Type"), "text/html") {
			w.WriteHeader(iw.statusCode)
			if !head {
				w.Write(body)
			}
			return
		}

		location := r.URL.EscapedPath()
		marked, matched, err := s.marker.RewriteBytes(body, location)
		if err != nil {
			s.log.Warn("could not mark navbar", "path", location, "error", err)
			marked = body
		} else if matched == 0 {
			s.log.Debug("no navbar link for page", "path", location, "page", s.marker.Current(location))
		}
		if s.cfg.LiveReload {
			marked = injectLiveReload(marked)
		}

		etag := fmt.Sprintf(`W/"%016x"`, xxhash.Sum64(marked))
		w.Header().Set("ETag", etag)
		w.Header().Del("Last-Modified")
		if etagMatches(r.Header.Get("If-None-Match"), etag) {
			w.Header().Del("Content-Length")
			w.Header().Del("Content-Type")
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(marked)))
		w.WriteHeader(http.StatusOK)
		if !head {
			w.Write(marked)
		}
	})
}

func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == strings.TrimPrefix(etag, "W/") {
			return true
		}
	}
	return false
}

func injectLiveReload(body []byte) []byte {
	if i := bytes.LastIndex(body, []byte("</body>")); i >= 0 {
		out := make([]byte, 0, len(body)+len(liveReloadScript))
		out = append(out, body[:i]...)
		out = append(out, liveReloadScript...)
		return append(out, body[i:]...)
	}
	return append(body, liveReloadScript...)
}

type interceptingWriter struct {
	http.ResponseWriter
	body       *bytes.Buffer
	statusCode int
	header     http.Header
}

func newInterceptingWriter(w http.ResponseWriter) *interceptingWriter {
	return &interceptingWriter{
		ResponseWriter: w,
		body:           new(bytes.Buffer),
		header:         make(http.Header),
		statusCode:     http.StatusOK,
	}
}

func (iw *interceptingWriter) Header() http.Header {
	return iw.header
}

func (iw *interceptingWriter) Write(b []byte) (int, error) {
	return iw.body.Write(b)
}

func (iw *interceptingWriter) WriteHeader(statusCode int) {
	iw.statusCode = statusCode
}

const liveReloadScript = `
<script>
  (function() {
    let socket = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
    socket.onmessage = function(event) {
      if (event.data === "reload") {
        window.location.reload();
      }
    };
    socket.onerror = function() {
      console.error("Live reload connection error. Please restart 'navmark serve'.");
    };
  })();
</script>
`
