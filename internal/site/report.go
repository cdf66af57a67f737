package site

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"git.home.luguber.info/inful/streamsite/internal/assets"
)

// Outcome is the typed enumeration of final pass result states.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// Report captures what one generation pass did.
type Report struct {
	BuildID        string
	Start          time.Time
	End            time.Time
	StageDurations map[StageName]time.Duration
	Assets         assets.Result
	// IndexPages, CustomPages and ListingPages count rendered templates.
	// The music/index.html copy of listing page 1 is not counted.
	IndexPages   int
	CustomPages  int
	ListingPages int
	BytesWritten int64
	// Digest is the hex blake3 digest of the output tree. Empty unless the
	// pass succeeded.
	Digest  string
	Outcome Outcome
	Err     error
}

func newReport(id string) *Report {
	return &Report{
		BuildID:        id,
		Start:          time.Now(),
		StageDurations: make(map[StageName]time.Duration),
	}
}

// Pages returns the number of rendered pages.
func (r *Report) Pages() int { return r.IndexPages + r.CustomPages + r.ListingPages }

// Duration returns the wall time of the pass.
func (r *Report) Duration() time.Duration { return r.End.Sub(r.Start) }

func (r *Report) finish(err error) {
	r.End = time.Now()
	r.Err = err
	r.deriveOutcome()
}

func (r *Report) deriveOutcome() {
	if r.Err == nil {
		r.Outcome = OutcomeSuccess
		return
	}
	var se *StageError
	if errors.As(r.Err, &se) && se.Kind == StageErrorCanceled {
		r.Outcome = OutcomeCanceled
		return
	}
	r.Outcome = OutcomeFailed
}

// Summary returns a human-readable single-line summary.
func (r *Report) Summary() string {
	return fmt.Sprintf("pages=%d assets=%d size=%s duration=%s outcome=%s",
		r.Pages(), r.Assets.Files, humanize.Bytes(uint64(max(r.BytesWritten, 0))), r.Duration().Truncate(time.Millisecond), r.Outcome)
}
