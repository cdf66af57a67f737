package site

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/streamsite/internal/assets"
	"git.home.luguber.info/inful/streamsite/internal/config"
	"git.home.luguber.info/inful/streamsite/internal/content"
	"git.home.luguber.info/inful/streamsite/internal/logfields"
	"git.home.luguber.info/inful/streamsite/internal/metrics"
	"git.home.luguber.info/inful/streamsite/internal/render"
)

// stage is a discrete unit of work in a generation pass.
type stage func(ctx context.Context, bs *buildState) error

// StageErrorKind enumerates structured stage error categories.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Pass must abort.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is the single error a failed pass returns. It names the stage
// that failed and wraps the classified cause.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func newFatalStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}

func newCanceledStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// buildState carries what earlier stages produced for later ones.
type buildState struct {
	gen      *Generator
	report   *Report
	log      *slog.Logger
	renderer render.Renderer
	library  *content.Library
	site     *config.Site
	base     render.Context
	// slugs maps produced custom page slugs to the template that produced them.
	slugs map[string]string
}

// runStages executes stages in order, recording timing and stopping on the
// first error. Nothing already written is rolled back.
func runStages(ctx context.Context, bs *buildState, stages []stageDef) error {
	rec := bs.gen.recorder
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			rec.IncStageResult(string(st.name), metrics.ResultCanceled)
			return newCanceledStageError(st.name, err)
		}

		t0 := time.Now()
		err := st.fn(ctx, bs)
		dur := time.Since(t0)
		bs.report.StageDurations[st.name] = dur
		rec.ObserveStageDuration(string(st.name), dur)

		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				rec.IncStageResult(string(st.name), metrics.ResultCanceled)
				return newCanceledStageError(st.name, err)
			}
			rec.IncStageResult(string(st.name), metrics.ResultFatal)
			return newFatalStageError(st.name, err)
		}
		rec.IncStageResult(string(st.name), metrics.ResultSuccess)
		bs.log.Debug("Stage completed", logfields.Stage(string(st.name)), logfields.DurationMS(float64(dur.Microseconds())/1000))
	}
	return nil
}

func stageCleanOutput(_ context.Context, bs *buildState) error {
	return cleanOutput(bs.gen.paths.Output)
}

func stageProcessAssets(ctx context.Context, bs *buildState) error {
	res, err := assets.Process(ctx, bs.gen.paths.Static, bs.gen.paths.Output, bs.gen.minifier)
	bs.report.Assets = res
	bs.report.BytesWritten += res.Bytes
	return err
}

func stageLoadTemplates(_ context.Context, bs *buildState) error {
	engine, err := render.Load(bs.gen.paths.Templates)
	if err != nil {
		return err
	}
	bs.renderer = engine
	return nil
}

func stageLoadContent(_ context.Context, bs *buildState) error {
	lib, err := content.Load(bs.gen.paths.Data)
	if err != nil {
		return err
	}
	site, err := config.LoadSite(bs.gen.paths.Config)
	if err != nil {
		return err
	}
	bs.library = lib
	bs.site = site
	bs.base = BaseContext(site, lib, bs.gen.devSnippet)
	return nil
}

func stageRenderPages(ctx context.Context, bs *buildState) error {
	if err := renderIndex(bs); err != nil {
		return err
	}
	if err := renderCustomPages(ctx, bs); err != nil {
		return err
	}
	return renderListing(ctx, bs)
}
