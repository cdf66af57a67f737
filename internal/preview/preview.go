// Package preview implements dev mode: it serves the output directory,
// watches the source trees, regenerates on change and tells connected
// browsers to reload.
package preview

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"git.home.luguber.info/inful/streamsite/internal/config"
	"git.home.luguber.info/inful/streamsite/internal/logfields"
	"git.home.luguber.info/inful/streamsite/internal/site"
)

const shutdownTimeout = 5 * time.Second

// Builder runs one generation pass.
type Builder interface {
	Generate(ctx context.Context) (*site.Report, error)
}

// Broadcaster notifies reload clients.
type Broadcaster interface {
	Broadcast(msg string) int
}

// Config wires the dev mode components together.
type Config struct {
	Paths      config.Paths
	Addr       string
	ReloadAddr string
	AllowCache bool
	Quiescence time.Duration
	Builder    Builder
	Hub        *Hub
	Metrics    http.Handler
	// OnError is called with every failed rebuild. Defaults to logging.
	OnError func(error)
}

// Run serves the site until ctx is done. The output directory is expected
// to hold a first pass already; failures of that pass do not stop dev mode.
func Run(ctx context.Context, cfg Config) error {
	hub := cfg.Hub
	if hub == nil {
		hub = NewHub(nil)
	}

	srv := NewServer(ServerOptions{
		Addr:       cfg.Addr,
		ReloadAddr: cfg.ReloadAddr,
		Root:       cfg.Paths.Output,
		AllowCache: cfg.AllowCache,
		Metrics:    cfg.Metrics,
	}, hub)
	if err := srv.Start(ctx); err != nil {
		return err
	}

	watcher, err := NewWatcher(cfg.Paths.WatchDirs(), cfg.Quiescence)
	if err != nil {
		shutdown(srv, nil)
		return err
	}

	Loop(ctx, cfg.Builder, watcher.Events(), hub, cfg.OnError)
	shutdown(srv, watcher)
	return nil
}

func shutdown(srv *Server, watcher *Watcher) {
	slog.Info("Shutting down dev server")
	if watcher != nil {
		if err := watcher.Close(); err != nil {
			slog.Warn("Watcher close error", logfields.Error(err))
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Warn("Dev server shutdown error", logfields.Error(err))
	}
}

// Loop regenerates once per change signal until ctx is done. Passes never
// overlap; a change that arrives during a pass is held by the change channel
// and produces exactly one follow-up pass. Only successful passes are
// broadcast, with the output digest as the message.
func Loop(ctx context.Context, b Builder, changes <-chan struct{}, bc Broadcaster, onError func(error)) {
	if onError == nil {
		onError = func(err error) { slog.Error("Rebuild failed", logfields.Error(err)) }
	}
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			rebuild(ctx, b, bc, onError)
		}
	}
}

func rebuild(ctx context.Context, b Builder, bc Broadcaster, onError func(error)) {
	slog.Info("Change detected; rebuilding site")
	report, err := b.Generate(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		onError(err)
		return
	}
	sent := bc.Broadcast(report.Digest)
	slog.Info("Reload sent",
		logfields.Clients(sent),
		logfields.BuildID(report.BuildID),
		slog.String("summary", report.Summary()))
}
