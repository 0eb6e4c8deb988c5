package analysis

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("analysis not found")
	ErrInvalidDomain      = errors.New("invalid domain name")
	ErrAlreadyTerminal    = errors.New("analysis already finished")
	ErrRunInProgress      = errors.New("analysis run in progress")
	ErrStaleTransition    = errors.New("analysis status changed concurrently")
	ErrFetchUnavailable   = errors.New("fetch unavailable")
	ErrEnrichmentDegraded = errors.New("enrichment degraded")
	ErrRenderFailure      = errors.New("render failure")
	ErrDerivationFailure  = errors.New("training derivation failure")
	ErrPublish            = errors.New("publish failure")
)

// Stage names used in error messages and events.
const (
	StageScraping   = "scraping"
	StageEnrichment = "enrichment"
	StageAnalyzing  = "analyzing"
	StageRendering  = "rendering"
	StageTraining   = "training"
	StagePublishing = "publishing"
	StageCompleting = "completing"
	StageWorker     = "worker"
)

// StageError ties a fatal error to the pipeline stage that raised it.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }

// Fail wraps err with a stage, unless it already carries one.
func Fail(stage string, err error) error {
	var se *StageError
	if errors.As(err, &se) {
		return err
	}
	return &StageError{Stage: stage, Err: err}
}
