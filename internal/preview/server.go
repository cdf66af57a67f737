package preview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	ferrors "git.home.luguber.info/inful/streamsite/internal/foundation/errors"
	"git.home.luguber.info/inful/streamsite/internal/logfields"
)

// MetricsPath is where the dev server exposes Prometheus metrics.
const MetricsPath = "/_streamsite/metrics"

// ServerOptions configures the dev server.
type ServerOptions struct {
	// Addr serves the output directory.
	Addr string
	// ReloadAddr serves the reload websocket.
	ReloadAddr string
	// Root is the directory served on Addr.
	Root string
	// AllowCache drops the no-cache headers from file responses.
	AllowCache bool
	// Metrics is mounted at MetricsPath when set.
	Metrics http.Handler
}

// Server serves the generated site and the reload socket on two listeners.
type Server struct {
	opts   ServerOptions
	hub    *Hub
	site   *http.Server
	reload *http.Server
	// bound addresses, known after Start
	siteAddr   net.Addr
	reloadAddr net.Addr
}

// NewServer creates a server. Nothing is bound until Start.
func NewServer(opts ServerOptions, hub *Hub) *Server {
	return &Server{opts: opts, hub: hub}
}

// Start binds both listeners before serving on either, so an address in
// use fails the whole start.
func (s *Server) Start(ctx context.Context) error {
	type preBind struct {
		name string
		addr string
		ln   net.Listener
	}
	binds := []preBind{
		{name: "site", addr: s.opts.Addr},
		{name: "reload", addr: s.opts.ReloadAddr},
	}
	var bindErrs []error
	lc := net.ListenConfig{}
	for i := range binds {
		ln, err := lc.Listen(ctx, "tcp", binds[i].addr)
		if err != nil {
			bindErrs = append(bindErrs, fmt.Errorf("%s address %s: %w", binds[i].name, binds[i].addr, err))
			continue
		}
		binds[i].ln = ln
	}
	if len(bindErrs) > 0 {
		for _, b := range binds {
			if b.ln != nil {
				_ = b.ln.Close()
			}
		}
		return ferrors.WrapError(errors.Join(bindErrs...), ferrors.CategoryTransport, "dev server startup failed").
			Fatal().
			Build()
	}

	s.site = &http.Server{Handler: s.siteHandler(), ReadHeaderTimeout: 10 * time.Second}
	s.reload = &http.Server{Handler: s.reloadHandler(), ReadHeaderTimeout: 10 * time.Second}
	s.siteAddr = binds[0].ln.Addr()
	s.reloadAddr = binds[1].ln.Addr()

	s.serve("site", s.site, binds[0].ln)
	s.serve("reload", s.reload, binds[1].ln)

	slog.Info("Dev server listening",
		slog.String("url", "http://"+s.siteAddr.String()+"/"),
		logfields.Addr(s.reloadAddr.String()))
	return nil
}

// SiteAddr returns the bound site address, or "" before Start.
func (s *Server) SiteAddr() string {
	if s.siteAddr == nil {
		return ""
	}
	return s.siteAddr.String()
}

// ReloadAddr returns the bound socket address, or "" before Start.
func (s *Server) ReloadAddr() string {
	if s.reloadAddr == nil {
		return ""
	}
	return s.reloadAddr.String()
}

// Shutdown disconnects reload clients and stops both servers.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.hub != nil {
		s.hub.Shutdown()
	}

	var errs []error
	if s.reload != nil {
		if err := s.reload.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("reload server shutdown: %w", err))
		}
	}
	if s.site != nil {
		if err := s.site.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("site server shutdown: %w", err))
		}
	}
	if len(errs) > 0 {
		return ferrors.WrapError(errors.Join(errs...), ferrors.CategoryTransport, "dev server shutdown failed").Build()
	}

	slog.Info("Dev server stopped")
	return nil
}

func (s *Server) siteHandler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	if !s.opts.AllowCache {
		r.Use(middleware.NoCache)
	}
	if s.opts.Metrics != nil {
		r.Handle(MetricsPath, s.opts.Metrics)
	}
	r.Handle("/*", http.FileServer(http.Dir(s.opts.Root)))
	return r
}

func (s *Server) reloadHandler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/", s.hub.Handler())
	return r
}

func (s *Server) serve(kind string, srv *http.Server, ln net.Listener) {
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error(kind+" server error", logfields.Error(err))
		}
	}()
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Debug("request",
			logfields.Method(r.Method),
			logfields.Path(r.URL.Path),
			logfields.Status(ww.Status()),
			logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
	})
}
