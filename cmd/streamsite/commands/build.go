package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/streamsite/internal/config"
	ferrors "git.home.luguber.info/inful/streamsite/internal/foundation/errors"
	"git.home.luguber.info/inful/streamsite/internal/logfields"
	"git.home.luguber.info/inful/streamsite/internal/metrics"
	"git.home.luguber.info/inful/streamsite/internal/minify"
	"git.home.luguber.info/inful/streamsite/internal/preview"
	"git.home.luguber.info/inful/streamsite/internal/site"
)

// BuildCmd generates the site once, or keeps regenerating it with --serve.
type BuildCmd struct {
	Templates  string `name:"templates" default:"templates" help:"Template directory."`
	Data       string `name:"data" default:"data" help:"Directory holding the streams, music and playlists stores."`
	Static     string `name:"static" default:"static" help:"Static asset directory mirrored into the output."`
	Output     string `short:"o" name:"output" default:"dist" help:"Output directory. Cleaned on every pass."`
	Config     string `short:"c" name:"config" default:"config.yaml" help:"Site configuration file (.yaml, .yml, .toml, .json, .jsonc)."`
	PageSize   int    `name:"page-size" default:"8" help:"Streams per music listing page."`
	Serve      bool   `short:"s" name:"serve" help:"Serve the output and rebuild on changes (dev mode)."`
	Addr       string `name:"addr" default:"127.0.0.1:8080" help:"Address of the dev file server."`
	ReloadAddr string `name:"reload-addr" default:"127.0.0.1:9595" help:"Address of the dev reload socket."`
	AllowCache bool   `name:"allow-cache" help:"Do not send no-cache headers from the dev file server."`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := slog.Default()
	if g != nil && g.Logger != nil {
		logger = g.Logger
	}
	adapter := ferrors.NewCLIErrorAdapter(root != nil && root.Verbose, logger)
	return b.run(ctx, logger, adapter.Report)
}

// Paths returns the build layout described by the flags. Empty flags fall
// back to config.Defaults.
func (b *BuildCmd) Paths() config.Paths {
	p := config.Defaults()
	for _, f := range []struct {
		dst *string
		val string
	}{
		{&p.Templates, b.Templates},
		{&p.Data, b.Data},
		{&p.Static, b.Static},
		{&p.Output, b.Output},
		{&p.Config, b.Config},
	} {
		if f.val != "" {
			*f.dst = f.val
		}
	}
	if b.PageSize > 0 {
		p.PageSize = b.PageSize
	}
	return p
}

// run performs the first pass and, in dev mode, hands over to the preview
// loop. report receives failures that must not stop dev mode.
func (b *BuildCmd) run(ctx context.Context, logger *slog.Logger, report func(error)) error {
	paths := b.Paths()
	if err := paths.Validate(); err != nil {
		return err
	}

	m := minify.New()
	opts := site.Options{Paths: paths, Minifier: m, Logger: logger}

	var rec *metrics.PrometheusRecorder
	if b.Serve {
		snippet, err := preview.Snippet(b.ReloadAddr, m)
		if err != nil {
			return err
		}
		rec = metrics.NewPrometheusRecorder(nil)
		opts.DevSnippet = snippet
		opts.Recorder = rec
	}

	gen := site.NewGenerator(opts)
	_, err := gen.Generate(ctx)
	if !b.Serve {
		return err
	}
	if err != nil {
		report(err)
	}

	logger.Info("Dev mode enabled",
		logfields.Addr(b.Addr),
		slog.String("reload_addr", b.ReloadAddr),
		logfields.Path(paths.Output))

	return preview.Run(ctx, preview.Config{
		Paths:      paths,
		Addr:       b.Addr,
		ReloadAddr: b.ReloadAddr,
		AllowCache: b.AllowCache,
		Quiescence: preview.DefaultQuiescence,
		Builder:    gen,
		Hub:        preview.NewHub(rec),
		Metrics:    rec.Handler(),
		OnError:    report,
	})
}
