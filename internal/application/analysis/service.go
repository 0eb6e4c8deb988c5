package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bryanwahyu/domain-intel/internal/application"
	domain "github.com/bryanwahyu/domain-intel/internal/domain/analysis"
)

// Service implements use-cases untuk Analysis.
// Service is safe for concurrent use; one Service backs both API and workers.
type Service struct {
	Repo      domain.Repository
	Queue     domain.Queue
	Fetcher   domain.Fetcher
	News      domain.NewsSource
	Profile   domain.ProfileSource
	Market    domain.MarketSource
	Generator domain.ReportGenerator
	Renderer  domain.Renderer
	Publisher domain.Publisher
	Clock     application.Clock
	Log       *zap.Logger
	Timeouts  Timeouts

	running sync.Map // analysis id -> struct{}
}

// Timeouts bound the pipeline. Zero values fall back to defaults.
type Timeouts struct {
	Run          time.Duration
	Enrichment   time.Duration
	FailureWrite time.Duration
	StaleAfter   time.Duration
}

const (
	defaultRunTimeout        = 10 * time.Minute
	defaultEnrichmentTimeout = 20 * time.Second
	defaultFailureWrite      = 10 * time.Second
	defaultStaleAfter        = 30 * time.Minute

	defaultPage     = 1
	defaultPageSize = 20
	maxPageSize     = 100
)

func (t Timeouts) withDefaults() Timeouts {
	if t.Run <= 0 {
		t.Run = defaultRunTimeout
	}
	if t.Enrichment <= 0 {
		t.Enrichment = defaultEnrichmentTimeout
	}
	if t.FailureWrite <= 0 {
		t.FailureWrite = defaultFailureWrite
	}
	if t.StaleAfter <= 0 {
		t.StaleAfter = defaultStaleAfter
	}
	return t
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func (s *Service) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

//
// ==== USE CASES ====
//

// CreateResult is returned to the API after a record is queued.
type CreateResult struct {
	Message  string           `json:"message"`
	Analysis *domain.Analysis `json:"analysis"`
}

// Create normalizes the domain, stores a pending record and queues it.
func (s *Service) Create(ctx context.Context, rawDomain string) (*CreateResult, error) {
	name, err := domain.NormalizeDomain(rawDomain)
	if err != nil {
		return nil, err
	}

	now := s.now()
	a := &domain.Analysis{
		DomainName: name,
		Status:     domain.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.Repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create analysis: %w", err)
	}

	if s.Queue != nil {
		if err := s.Queue.Enqueue(ctx, a.ID); err != nil {
			// a pending record nobody will pick up is worse than a failed one
			s.fail(a.ID, "", domain.StatusPending, domain.Fail(domain.StageWorker, fmt.Errorf("enqueue: %w", err)))
			return nil, fmt.Errorf("enqueue analysis %d: %w", a.ID, err)
		}
	}

	s.log().Info("analysis created", zap.Int64("analysis_id", a.ID), zap.String("domain", name))
	return &CreateResult{
		Message:  "Domain analysis started. Check status using the analysis ID.",
		Analysis: a,
	}, nil
}

// Get returns the full record including training modules and scrape logs.
func (s *Service) Get(ctx context.Context, id int64) (*domain.Analysis, error) {
	return s.Repo.GetDetail(ctx, id)
}

// List returns a page of records, newest first.
func (s *Service) List(ctx context.Context, page, pageSize int) (domain.PaginatedResult[*domain.Analysis], error) {
	page, pageSize = normalizePage(page, pageSize)
	items, total, err := s.Repo.List(ctx, page, pageSize)
	if err != nil {
		return domain.PaginatedResult[*domain.Analysis]{}, err
	}
	return domain.NewPage(items, page, pageSize, int64(total)), nil
}

// StatusView is the lightweight progress document.
type StatusView struct {
	ID          int64         `json:"id"`
	DomainName  string        `json:"domain_name"`
	Status      domain.Status `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	PDFReady    bool          `json:"pdf_ready"`
	JSONReady   bool          `json:"json_ready"`
	Error       *string       `json:"error,omitempty"`
}

func (s *Service) Status(ctx context.Context, id int64) (*StatusView, error) {
	a, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &StatusView{
		ID:          a.ID,
		DomainName:  a.DomainName,
		Status:      a.Status,
		CreatedAt:   a.CreatedAt,
		CompletedAt: a.CompletedAt,
		PDFReady:    a.PDFURL != nil,
		JSONReady:   a.JSONURL != nil,
		Error:       a.ErrorMessage,
	}, nil
}

// ErrNotGenerated is returned for download links of unfinished records.
var ErrNotGenerated = errors.New("artifact not yet generated")

// Artifact kinds for Link.
const (
	ArtifactPDF  = "pdf"
	ArtifactJSON = "json"
)

// Link returns the signed download URL of one artifact.
func (s *Service) Link(ctx context.Context, id int64, kind string) (string, error) {
	a, err := s.Repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	var u *string
	switch kind {
	case ArtifactPDF:
		u = a.PDFURL
	case ArtifactJSON:
		u = a.JSONURL
	default:
		return "", fmt.Errorf("unknown artifact %q", kind)
	}
	if u == nil || *u == "" {
		return "", ErrNotGenerated
	}
	return *u, nil
}

// TrainingView groups the modules of one record.
type TrainingView struct {
	DomainName      string                   `json:"domain_name"`
	TrainingModules []*domain.TrainingModule `json:"training_modules"`
}

func (s *Service) TrainingModules(ctx context.Context, id int64) (*TrainingView, error) {
	a, err := s.Repo.GetDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	mods := a.TrainingModules
	if mods == nil {
		mods = []*domain.TrainingModule{}
	}
	return &TrainingView{DomainName: a.DomainName, TrainingModules: mods}, nil
}

// ListTraining lists modules, optionally filtered by analysis id (0 = all).
func (s *Service) ListTraining(ctx context.Context, analysisID int64, page, pageSize int) ([]*domain.TrainingModule, error) {
	page, pageSize = normalizePage(page, pageSize)
	return s.Repo.ListTraining(ctx, analysisID, page, pageSize)
}

func (s *Service) GetTraining(ctx context.Context, id int64) (*domain.TrainingModule, error) {
	return s.Repo.GetTraining(ctx, id)
}

func (s *Service) Events(ctx context.Context, id int64) ([]*domain.Event, error) {
	if _, err := s.Repo.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.Repo.ListEvents(ctx, id)
}

// Delete removes a finished or pending record with its modules, events,
// logs and published objects. Running records are refused, here and again
// by the repository in case a worker claims the record in between.
func (s *Service) Delete(ctx context.Context, id int64) error {
	a, err := s.Repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if a.Status == domain.StatusScraping || a.Status == domain.StatusAnalyzing {
		return domain.ErrRunInProgress
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}

	var keys []string
	if a.PDFKey != nil {
		keys = append(keys, *a.PDFKey)
	}
	if a.JSONKey != nil {
		keys = append(keys, *a.JSONKey)
	}
	if len(keys) > 0 && s.Publisher != nil {
		if err := s.Publisher.Remove(ctx, keys...); err != nil {
			s.log().Warn("remove published objects", zap.Int64("analysis_id", id), zap.Error(err))
		}
	}
	return nil
}

// SweepStale fails unfinished records that have not moved for StaleAfter,
// pending ones included. Nothing is retried. It returns how many records
// were moved.
func (s *Service) SweepStale(ctx context.Context) (int, error) {
	t := s.Timeouts.withDefaults()
	cutoff := s.now().Add(-t.StaleAfter)
	stale, err := s.Repo.ListStale(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("list stale: %w", err)
	}

	moved := 0
	for _, a := range stale {
		if _, busy := s.running.Load(a.ID); busy {
			continue
		}
		reason := "run abandoned"
		if a.Status == domain.StatusPending {
			// queue message lost before any worker claimed it
			reason = "never started"
		}
		err := s.Repo.Transition(ctx, domain.Transition{
			ID:           a.ID,
			From:         a.Status,
			To:           domain.StatusFailed,
			Stage:        domain.StageWorker,
			At:           s.now(),
			ErrorMessage: domain.StageWorker + ": " + reason,
			Message:      reason,
		})
		switch {
		case err == nil:
			moved++
			s.log().Warn("stale analysis failed", zap.Int64("analysis_id", a.ID), zap.String("status", string(a.Status)))
		case errors.Is(err, domain.ErrStaleTransition):
			// progressed meanwhile
		default:
			return moved, err
		}
	}
	return moved, nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = defaultPage
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}
