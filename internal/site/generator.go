// Package site runs one generation pass: it cleans the output directory,
// mirrors static assets, loads templates and content, then renders the index,
// the custom pages and the paginated stream listing.
package site

import (
	"context"
	"html/template"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"git.home.luguber.info/inful/streamsite/internal/config"
	"git.home.luguber.info/inful/streamsite/internal/logfields"
	"git.home.luguber.info/inful/streamsite/internal/metrics"
	"git.home.luguber.info/inful/streamsite/internal/minify"
)

// Options configures a Generator.
type Options struct {
	Paths config.Paths
	// DevSnippet is injected into every page under the "dev" key.
	DevSnippet template.HTML
	// Minifier defaults to minify.New().
	Minifier minify.Minifier
	// Recorder defaults to metrics.NoopRecorder.
	Recorder metrics.Recorder
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Generator produces the static site. A Generator is not safe for
// concurrent passes over the same output directory.
type Generator struct {
	paths      config.Paths
	devSnippet template.HTML
	minifier   minify.Minifier
	recorder   metrics.Recorder
	logger     *slog.Logger
}

// NewGenerator creates a generator from opts.
func NewGenerator(opts Options) *Generator {
	g := &Generator{
		paths:      opts.Paths,
		devSnippet: opts.DevSnippet,
		minifier:   opts.Minifier,
		recorder:   opts.Recorder,
		logger:     opts.Logger,
	}
	if g.minifier == nil {
		g.minifier = minify.New()
	}
	if g.recorder == nil {
		g.recorder = metrics.NoopRecorder{}
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	if g.paths.PageSize <= 0 {
		g.paths.PageSize = config.DefaultPageSize
	}
	return g
}

// Paths returns the directories the generator reads and writes.
func (g *Generator) Paths() config.Paths { return g.paths }

// Generate runs one full pass. Inputs are read from scratch every time. On
// failure the returned error is a *StageError naming the failed stage, and
// the report is still returned with its outcome set.
func (g *Generator) Generate(ctx context.Context) (*Report, error) {
	report := newReport(uuid.NewString())
	log := g.logger.With(logfields.BuildID(report.BuildID))
	log.Info("Generating site", slog.String("output", g.paths.Output))

	bs := &buildState{
		gen:    g,
		report: report,
		log:    log,
		slugs:  make(map[string]string),
	}

	err := runStages(ctx, bs, pipeline())
	if err == nil {
		report.Digest, err = Digest(g.paths.Output)
	}
	report.finish(err)

	g.recorder.ObserveBuildDuration(report.Duration())
	g.recorder.IncBuildOutcome(string(report.Outcome))

	if err != nil {
		log.Debug("Site generation stopped", slog.String("outcome", string(report.Outcome)), logfields.Error(err))
		return report, err
	}

	log.Info("Site generated",
		logfields.Pages(report.Pages()),
		slog.Int("assets", report.Assets.Files),
		slog.String("size", humanize.Bytes(uint64(max(report.BytesWritten, 0)))),
		logfields.DurationMS(float64(report.Duration().Microseconds())/1000))
	return report, nil
}
