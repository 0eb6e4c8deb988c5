package analysis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bryanwahyu/domain-intel/internal/application/training"
	domain "github.com/bryanwahyu/domain-intel/internal/domain/analysis"
	"github.com/bryanwahyu/domain-intel/internal/domain/report"
	"github.com/bryanwahyu/domain-intel/internal/metrics"
)

// RunAnalysisPipeline runs one record to a terminal status. Outcomes are
// observable only through the persisted record.
func (s *Service) RunAnalysisPipeline(ctx context.Context, id int64) {
	err := s.Run(ctx, id)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrAlreadyTerminal), errors.Is(err, domain.ErrRunInProgress):
		s.log().Info("analysis run skipped", zap.Int64("analysis_id", id), zap.Error(err))
	default:
		s.log().Error("analysis run failed", zap.Int64("analysis_id", id), zap.Error(err))
	}
}

// Run is RunAnalysisPipeline returning the classified error.
// ErrAlreadyTerminal and ErrRunInProgress mean nothing was written.
func (s *Service) Run(ctx context.Context, id int64) error {
	if _, loaded := s.running.LoadOrStore(id, struct{}{}); loaded {
		metrics.PipelineRuns.WithLabelValues("skipped").Inc()
		return domain.ErrRunInProgress
	}
	defer s.running.Delete(id)

	a, err := s.Repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if a.Status.Terminal() {
		metrics.PipelineRuns.WithLabelValues("skipped").Inc()
		return domain.ErrAlreadyTerminal
	}
	if a.Status != domain.StatusPending {
		metrics.PipelineRuns.WithLabelValues("skipped").Inc()
		return domain.ErrRunInProgress
	}

	t := s.Timeouts.withDefaults()
	ctx, cancel := context.WithTimeout(ctx, t.Run)
	defer cancel()

	runID := uuid.NewString()
	log := s.log().With(zap.Int64("analysis_id", id), zap.String("run_id", runID), zap.String("domain", a.DomainName))

	// claim; losing the compare-and-set means another worker owns the run
	err = s.Repo.Transition(ctx, domain.Transition{
		ID: id, RunID: runID,
		From: domain.StatusPending, To: domain.StatusScraping,
		Stage: domain.StageScraping, At: s.now(),
		Message: "run started",
	})
	if errors.Is(err, domain.ErrStaleTransition) {
		metrics.PipelineRuns.WithLabelValues("skipped").Inc()
		return domain.ErrRunInProgress
	}
	if err != nil {
		return err
	}

	metrics.PipelineActive.Inc()
	defer metrics.PipelineActive.Dec()
	log.Info("analysis run started")

	status, err := s.execute(ctx, log, a, runID)
	if err != nil {
		s.fail(id, runID, status, err)
		metrics.PipelineRuns.WithLabelValues("failed").Inc()
		return err
	}
	metrics.PipelineRuns.WithLabelValues("completed").Inc()
	log.Info("analysis run completed")
	return nil
}

// execute runs the stages after the claim. It returns the status the record
// holds when an error occurs so the failure transition can be guarded.
func (s *Service) execute(ctx context.Context, log *zap.Logger, a *domain.Analysis, runID string) (domain.Status, error) {
	id := a.ID

	var fetched *domain.FetchResult
	err := timed(domain.StageScraping, func() error {
		var err error
		fetched, err = s.Fetcher.Fetch(ctx, a.DomainName)
		s.recordAttempts(ctx, log, id, fetched, err)
		return err
	})
	if err != nil {
		return domain.StatusScraping, domain.Fail(domain.StageScraping, err)
	}

	var external domain.ExternalData
	_ = timed(domain.StageEnrichment, func() error {
		external = s.enrich(ctx, log, a.DomainName)
		return nil
	})

	scraped := &domain.ScrapedData{
		Domain:         a.DomainName,
		WebsiteData:    fetched.Page,
		Metadata:       fetched.Metadata,
		ExternalData:   external,
		ScrapingMethod: fetched.Method,
	}
	err = s.Repo.Transition(ctx, domain.Transition{
		ID: id, RunID: runID,
		From: domain.StatusScraping, To: domain.StatusAnalyzing,
		Stage: domain.StageAnalyzing, At: s.now(),
		ScrapedData: scraped,
		Message:     "scraping finished",
		Payload: map[string]any{
			"method":   fetched.Method,
			"degraded": external.Degraded,
			"news":     len(external.News),
		},
	})
	if err != nil {
		return domain.StatusScraping, domain.Fail(domain.StageScraping, err)
	}

	rep, err := timedValue(domain.StageAnalyzing, func() (*report.Report, error) {
		return s.Generator.Generate(ctx, a.DomainName, scraped)
	})
	if err != nil {
		return domain.StatusAnalyzing, domain.Fail(domain.StageAnalyzing, err)
	}

	generatedAt := s.now()
	pdf, err := timedValue(domain.StageRendering, func() ([]byte, error) {
		return s.Renderer.Render(domain.Document{
			Domain:      a.DomainName,
			Report:      rep,
			News:        external.News,
			GeneratedAt: generatedAt,
		})
	})
	if err != nil {
		return domain.StatusAnalyzing, domain.Fail(domain.StageRendering, err)
	}

	modules, err := training.Derive(a.DomainName, rep)
	if err != nil {
		return domain.StatusAnalyzing, domain.Fail(domain.StageTraining, err)
	}

	pub, err := timedValue(domain.StagePublishing, func() (*domain.Published, error) {
		return s.Publisher.Publish(ctx, domain.PublishRequest{
			AnalysisID: id,
			Domain:     a.DomainName,
			PDF:        pdf,
			Snapshot: domain.Snapshot{
				AnalysisID:           id,
				Domain:               a.DomainName,
				ScrapedData:          scraped,
				BusinessIntelligence: rep,
				GeneratedAt:          generatedAt,
			},
			At: generatedAt,
		})
	})
	if err != nil {
		return domain.StatusAnalyzing, domain.Fail(domain.StagePublishing, err)
	}

	err = s.Repo.Complete(ctx, domain.Completion{
		ID: id, RunID: runID, At: s.now(),
		Report:   rep,
		PDFURL:   pub.PDFURL,
		JSONURL:  pub.JSONURL,
		PDFKey:   pub.PDFKey,
		JSONKey:  pub.JSONKey,
		Training: modules,
		Payload:  map[string]any{"training_modules": len(modules)},
	})
	if err != nil {
		cctx, cancel := s.detached()
		defer cancel()
		if rerr := s.Publisher.Remove(cctx, pub.PDFKey, pub.JSONKey); rerr != nil {
			log.Warn("remove orphaned objects", zap.Error(rerr))
		}
		return domain.StatusAnalyzing, domain.Fail(domain.StageCompleting, err)
	}
	return domain.StatusCompleted, nil
}

// fail records err on the record. It runs on a detached context so a
// cancelled or timed out run still leaves a terminal status behind.
func (s *Service) fail(id int64, runID string, from domain.Status, cause error) {
	ctx, cancel := s.detached()
	defer cancel()

	msg := cause.Error()
	err := s.Repo.Transition(ctx, domain.Transition{
		ID: id, RunID: runID,
		From: from, To: domain.StatusFailed,
		Stage: stageOf(cause), At: s.now(),
		ErrorMessage: msg,
		Message:      msg,
	})
	if err != nil {
		s.log().Error("record analysis failure",
			zap.Int64("analysis_id", id), zap.String("cause", msg), zap.Error(err))
	}
}

func (s *Service) detached() (context.Context, context.CancelFunc) {
	t := s.Timeouts.withDefaults()
	return context.WithTimeout(context.Background(), t.FailureWrite)
}

func (s *Service) recordAttempts(ctx context.Context, log *zap.Logger, id int64, res *domain.FetchResult, err error) {
	attempts := domain.AttemptsOf(err)
	if res != nil {
		attempts = res.Attempts
	}
	for _, at := range attempts {
		l := &domain.ScrapeLog{
			AnalysisID:    id,
			URL:           at.URL,
			Provider:      at.Provider,
			StatusCode:    at.StatusCode,
			Success:       at.Err == nil,
			ContentLength: at.ContentLength,
			CreatedAt:     s.now(),
		}
		if at.Err != nil {
			l.ErrorMessage = at.Err.Error()
		}
		if werr := s.Repo.AddScrapeLog(ctx, l); werr != nil {
			log.Warn("write scrape log", zap.String("provider", at.Provider), zap.Error(werr))
		}
	}
}

func stageOf(err error) string {
	var se *domain.StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return domain.StageWorker
}

func timed(stage string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	return err
}

func timedValue[T any](stage string, fn func() (T, error)) (T, error) {
	var v T
	err := timed(stage, func() error {
		var err error
		v, err = fn()
		return err
	})
	return v, err
}
