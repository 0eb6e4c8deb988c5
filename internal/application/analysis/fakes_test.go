package analysis

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	domain "github.com/bryanwahyu/domain-intel/internal/domain/analysis"
	"github.com/bryanwahyu/domain-intel/internal/domain/report"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// memRepo is an in-memory Repository with the same guarded-transition rules
// as the SQL one.
type memRepo struct {
	mu       sync.Mutex
	nextID   int64
	rows     map[int64]*domain.Analysis
	events   []*domain.Event
	logs     []*domain.ScrapeLog
	training []*domain.TrainingModule

	completeErr error
	logErr      error
}

func newMemRepo() *memRepo {
	return &memRepo{rows: map[int64]*domain.Analysis{}}
}

func (r *memRepo) Create(_ context.Context, a *domain.Analysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	a.ID = r.nextID
	cp := *a
	r.rows[a.ID] = &cp
	return nil
}

func (r *memRepo) Get(_ context.Context, id int64) (*domain.Analysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *memRepo) GetDetail(ctx context.Context, id int64) (*domain.Analysis, error) {
	a, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.training {
		if m.AnalysisID == id {
			a.TrainingModules = append(a.TrainingModules, m)
		}
	}
	for _, l := range r.logs {
		if l.AnalysisID == id {
			a.ScrapeLogs = append(a.ScrapeLogs, l)
		}
	}
	return a, nil
}

func (r *memRepo) List(_ context.Context, page, pageSize int) ([]*domain.Analysis, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]*domain.Analysis, 0, len(r.rows))
	for _, a := range r.rows {
		cp := *a
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	start := (page - 1) * pageSize
	if start >= len(all) {
		return nil, len(all), nil
	}
	end := min(start+pageSize, len(all))
	return all[start:end], len(all), nil
}

func (r *memRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.rows[id]
	if !ok {
		return domain.ErrNotFound
	}
	if slices.Contains(domain.ActiveStatuses, a.Status) {
		return domain.ErrRunInProgress
	}
	delete(r.rows, id)
	return nil
}

func (r *memRepo) Transition(_ context.Context, t domain.Transition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.rows[t.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if a.Status != t.From || !domain.CanTransition(t.From, t.To) {
		return domain.ErrStaleTransition
	}
	a.Status = t.To
	a.UpdatedAt = t.At
	if t.ScrapedData != nil {
		a.ScrapedData = t.ScrapedData
		at := t.At
		a.ScrapedAt = &at
	}
	if t.To == domain.StatusFailed {
		msg := t.ErrorMessage
		a.ErrorMessage = &msg
	}
	r.events = append(r.events, &domain.Event{
		ID: int64(len(r.events) + 1), AnalysisID: t.ID, RunID: t.RunID, Stage: t.Stage,
		FromStatus: t.From, ToStatus: t.To, Message: t.Message, CreatedAt: t.At,
	})
	return nil
}

func (r *memRepo) Complete(_ context.Context, c domain.Completion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.completeErr != nil {
		return r.completeErr
	}
	a, ok := r.rows[c.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if a.Status != domain.StatusAnalyzing {
		return domain.ErrStaleTransition
	}
	a.Status = domain.StatusCompleted
	a.BusinessIntelligence = c.Report
	a.PDFURL, a.JSONURL = &c.PDFURL, &c.JSONURL
	a.PDFKey, a.JSONKey = &c.PDFKey, &c.JSONKey
	at := c.At
	a.CompletedAt = &at
	a.UpdatedAt = at
	for _, m := range c.Training {
		m.AnalysisID = c.ID
		r.training = append(r.training, m)
	}
	r.events = append(r.events, &domain.Event{
		ID: int64(len(r.events) + 1), AnalysisID: c.ID, RunID: c.RunID, Stage: domain.StageCompleting,
		FromStatus: domain.StatusAnalyzing, ToStatus: domain.StatusCompleted, CreatedAt: at,
	})
	return nil
}

func (r *memRepo) ListStale(_ context.Context, before time.Time) ([]*domain.Analysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Analysis
	for _, a := range r.rows {
		if !a.Status.Terminal() && a.UpdatedAt.Before(before) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memRepo) ListEvents(_ context.Context, id int64) ([]*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Event
	for _, e := range r.events {
		if e.AnalysisID == id {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memRepo) AddScrapeLog(_ context.Context, l *domain.ScrapeLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.logErr != nil {
		return r.logErr
	}
	r.logs = append(r.logs, l)
	return nil
}

func (r *memRepo) ListTraining(_ context.Context, id int64, _, _ int) ([]*domain.TrainingModule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.TrainingModule
	for _, m := range r.training {
		if id == 0 || m.AnalysisID == id {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memRepo) GetTraining(_ context.Context, id int64) (*domain.TrainingModule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.training {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memRepo) statuses(id int64) []domain.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Status{domain.StatusPending}
	for _, e := range r.events {
		if e.AnalysisID == id {
			out = append(out, e.ToStatus)
		}
	}
	return out
}

type fakeQueue struct {
	ids []int64
	err error
}

func (q *fakeQueue) Enqueue(_ context.Context, id int64) error {
	if q.err != nil {
		return q.err
	}
	q.ids = append(q.ids, id)
	return nil
}

func (q *fakeQueue) Dequeue(ctx context.Context) (int64, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

func (q *fakeQueue) Len(context.Context) (int64, error) { return int64(len(q.ids)), nil }

// gatedFetcher blocks every fetch until release is closed.
type gatedFetcher struct {
	release chan struct{}
}

func (f gatedFetcher) Fetch(ctx context.Context, d string) (*domain.FetchResult, error) {
	select {
	case <-f.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return fakeFetcher{}.Fetch(ctx, d)
}

// racingRepo holds the first n Get calls until all of them have read the
// row, so every caller sees the same pending snapshot before claiming.
type racingRepo struct {
	*memRepo
	n     int32
	seen  atomic.Int32
	ready chan struct{}
}

func newRacingRepo(n int) *racingRepo {
	return &racingRepo{memRepo: newMemRepo(), n: int32(n), ready: make(chan struct{})}
}

func (r *racingRepo) Get(ctx context.Context, id int64) (*domain.Analysis, error) {
	a, err := r.memRepo.Get(ctx, id)
	c := r.seen.Add(1)
	if c == r.n {
		close(r.ready)
	}
	if c <= r.n {
		<-r.ready
	}
	return a, err
}

type fakeFetcher struct {
	err error
}

func (f fakeFetcher) Fetch(_ context.Context, d string) (*domain.FetchResult, error) {
	if f.err != nil {
		return nil, &domain.FetchError{Attempts: []domain.Attempt{
			{Provider: "firecrawl", URL: "https://" + d, Err: f.err},
			{Provider: "direct", URL: "https://" + d, Err: f.err},
		}}
	}
	return &domain.FetchResult{
		Page:   domain.PageContent{URL: "https://" + d, StatusCode: 200, Title: "Shopify", Content: "Commerce platform"},
		Method: "direct",
		Attempts: []domain.Attempt{
			{Provider: "direct", URL: "https://" + d, StatusCode: 200, ContentLength: 17},
		},
	}, nil
}

type fakeNews struct {
	err   error
	block bool
}

func (f fakeNews) News(ctx context.Context, org, _ string) ([]domain.Article, error) {
	if f.block {
		select {} // ignores ctx on purpose
	}
	if f.err != nil {
		return nil, f.err
	}
	return []domain.Article{{Title: org + " raises", Source: "example.com"}}, nil
}

type fakeProfile struct{ err error }

func (f fakeProfile) Profile(_ context.Context, org, _ string) (*domain.CompanyProfile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.CompanyProfile{Found: true, CompanyURL: "https://www.linkedin.com/company/" + org}, nil
}

type fakeMarket struct{}

func (fakeMarket) Market(context.Context, string, string) (*domain.MarketInsights, error) {
	return &domain.MarketInsights{MarketSnippets: []string{}, Source: "web_search"}, nil
}

type fakeGenerator struct {
	err error
	got *domain.ScrapedData
}

func (g *fakeGenerator) Generate(_ context.Context, _ string, data *domain.ScrapedData) (*report.Report, error) {
	g.got = data
	if g.err != nil {
		return nil, g.err
	}
	return sampleReport(), nil
}

type fakeRenderer struct{ err error }

func (f fakeRenderer) Render(domain.Document) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.3"), nil
}

type fakePublisher struct {
	mu      sync.Mutex
	err     error
	removed []string
}

func (p *fakePublisher) Publish(_ context.Context, req domain.PublishRequest) (*domain.Published, error) {
	if p.err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPublish, p.err)
	}
	base := fmt.Sprintf("domain-intelligence/%d", req.AnalysisID)
	return &domain.Published{
		PDFURL:  "https://minio.local/" + base + ".pdf",
		JSONURL: "https://minio.local/" + base + ".json",
		PDFKey:  base + ".pdf",
		JSONKey: base + ".json",
	}, nil
}

func (p *fakePublisher) Remove(_ context.Context, keys ...string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removed = append(p.removed, keys...)
	return nil
}

var errBoom = errors.New("boom")

func sampleReport() *report.Report {
	challenges := make([]report.Challenge, 5)
	upskilling := make([]report.Upskilling, 5)
	for i := range challenges {
		challenges[i] = report.Challenge{Challenge: "c", Impact: "i", Frequency: "f"}
		upskilling[i] = report.Upskilling{SkillArea: "s", TrainingType: "t", Priority: "p", ExpectedOutcome: "o"}
	}
	return &report.Report{
		IndustryOverview:               "E-commerce software",
		MarketSizeAndTrends:            report.MarketSizeAndTrends{MarketSize: "large", GrowthRate: "fast", KeyTrends: "AI"},
		TargetCustomerSegments:         []string{"SMB"},
		CustomerPainPoints:             []string{"checkout"},
		BuyingBehavior:                 report.BuyingBehavior{DecisionProcess: "d", BudgetCycle: "b", KeyInfluencers: "k"},
		TopCompetitors:                 []report.Competitor{{Name: "BigCommerce", Positioning: "enterprise"}},
		CommonObjections:               []report.Objection{{Objection: "price", Response: "value"}},
		UniqueSellingPropositions:      []string{"ecosystem"},
		EmergingOpportunities:          []string{"b2b"},
		RecommendedStrategies:          []string{"land and expand"},
		AIAutomationOpportunities:      []string{"copywriting"},
		SalesTeamChallenges:            challenges,
		SalesUpskillingRecommendations: upskilling,
	}
}
