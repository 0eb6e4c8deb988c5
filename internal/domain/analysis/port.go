package analysis

import (
	"context"
	"time"

	"github.com/bryanwahyu/domain-intel/internal/domain/report"
)

// Repository port (persistence untuk analysis, training, events, scrape logs)
type Repository interface {
	Create(ctx context.Context, a *Analysis) error
	Get(ctx context.Context, id int64) (*Analysis, error)
	// GetDetail also loads training modules and scrape logs.
	GetDetail(ctx context.Context, id int64) (*Analysis, error)
	List(ctx context.Context, page, pageSize int) ([]*Analysis, int, error)
	Delete(ctx context.Context, id int64) error

	// Transition applies a guarded status change plus its event atomically.
	// It returns ErrStaleTransition when the stored status is not t.From.
	Transition(ctx context.Context, t Transition) error
	// Complete writes outputs, training modules and the completion event in
	// one transaction.
	Complete(ctx context.Context, c Completion) error
	ListStale(ctx context.Context, updatedBefore time.Time) ([]*Analysis, error)

	ListEvents(ctx context.Context, analysisID int64) ([]*Event, error)
	AddScrapeLog(ctx context.Context, l *ScrapeLog) error

	ListTraining(ctx context.Context, analysisID int64, page, pageSize int) ([]*TrainingModule, error)
	GetTraining(ctx context.Context, id int64) (*TrainingModule, error)
}

// Fetcher retrieves the company site for a domain.
type Fetcher interface {
	Fetch(ctx context.Context, domain string) (*FetchResult, error)
}

// NewsSource, ProfileSource and MarketSource are the enrichment adapters.
// Errors are never fatal to a run.
type NewsSource interface {
	News(ctx context.Context, org, domain string) ([]Article, error)
}

type ProfileSource interface {
	Profile(ctx context.Context, org, domain string) (*CompanyProfile, error)
}

type MarketSource interface {
	Market(ctx context.Context, org, domain string) (*MarketInsights, error)
}

// ReportGenerator turns scraped data into a validated report.
type ReportGenerator interface {
	Generate(ctx context.Context, domain string, data *ScrapedData) (*report.Report, error)
}

// Renderer produces the PDF document.
type Renderer interface {
	Render(doc Document) ([]byte, error)
}

// Publisher uploads both artifacts and returns signed links, or nothing.
type Publisher interface {
	Publish(ctx context.Context, req PublishRequest) (*Published, error)
	Remove(ctx context.Context, keys ...string) error
}

// Queue carries analysis ids from the API to workers.
type Queue interface {
	Enqueue(ctx context.Context, id int64) error
	// Dequeue blocks until an id is available or ctx is done.
	Dequeue(ctx context.Context) (int64, error)
	Len(ctx context.Context) (int64, error)
}

// Document is the renderer input.
type Document struct {
	Domain      string
	Report      *report.Report
	News        []Article
	GeneratedAt time.Time
}

// Snapshot is the JSON artifact published next to the PDF.
type Snapshot struct {
	AnalysisID           int64          `json:"analysis_id"`
	Domain               string         `json:"domain"`
	ScrapedData          *ScrapedData   `json:"scraped_data"`
	BusinessIntelligence *report.Report `json:"business_intelligence"`
	GeneratedAt          time.Time      `json:"generated_at"`
}

type PublishRequest struct {
	AnalysisID int64
	Domain     string
	PDF        []byte
	Snapshot   Snapshot
	At         time.Time
}

type Published struct {
	PDFURL  string
	JSONURL string
	PDFKey  string
	JSONKey string
}
