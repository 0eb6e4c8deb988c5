package analysis

import (
	"errors"
	"time"

	"github.com/bryanwahyu/domain-intel/internal/domain/report"
)

// Analysis is one domain intelligence job and its results.
type Analysis struct {
	ID                   int64          `json:"id"`
	DomainName           string         `json:"domain_name"`
	Status               Status         `json:"status"`
	ScrapedData          *ScrapedData   `json:"scraped_data,omitempty"`
	BusinessIntelligence *report.Report `json:"business_intelligence,omitempty"`
	PDFURL               *string        `json:"pdf_url,omitempty"`
	JSONURL              *string        `json:"json_url,omitempty"`
	PDFKey               *string        `json:"-"`
	JSONKey              *string        `json:"-"`
	ErrorMessage         *string        `json:"error_message,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	ScrapedAt            *time.Time     `json:"scraped_at,omitempty"`
	CompletedAt          *time.Time     `json:"completed_at,omitempty"`

	// filled by detail queries only
	TrainingModules []*TrainingModule `json:"training_modules,omitempty"`
	ScrapeLogs      []*ScrapeLog      `json:"scrape_logs,omitempty"`
}

// Validate checks the output/status invariants of a persisted record.
func (a *Analysis) Validate() error {
	hasOutputs := a.BusinessIntelligence != nil || a.PDFURL != nil || a.JSONURL != nil
	switch a.Status {
	case StatusCompleted:
		if a.BusinessIntelligence == nil || a.PDFURL == nil || a.JSONURL == nil {
			return errors.New("completed analysis is missing outputs")
		}
		if a.ErrorMessage != nil {
			return errors.New("completed analysis carries an error")
		}
		if a.CompletedAt == nil {
			return errors.New("completed analysis has no completed_at")
		}
	case StatusFailed:
		if a.ErrorMessage == nil {
			return errors.New("failed analysis has no error message")
		}
		if hasOutputs {
			return errors.New("failed analysis carries outputs")
		}
	case StatusPending, StatusScraping:
		if hasOutputs || a.ScrapedData != nil {
			return errors.New("in-progress analysis carries outputs")
		}
	case StatusAnalyzing:
		if hasOutputs {
			return errors.New("in-progress analysis carries outputs")
		}
	default:
		return errors.New("unknown status")
	}
	return nil
}

// ScrapedData is the combined output of fetching and enrichment.
type ScrapedData struct {
	Domain         string       `json:"domain"`
	WebsiteData    PageContent  `json:"website_data"`
	Metadata       PageMetadata `json:"metadata"`
	ExternalData   ExternalData `json:"external_data"`
	ScrapingMethod string       `json:"scraping_method"`
}

// PageContent is what a Fetcher extracts from the company site.
type PageContent struct {
	URL         string   `json:"url"`
	StatusCode  int      `json:"status_code"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Content     string   `json:"content"`
	Headings    []string `json:"headings"`
	Links       []string `json:"links"`
	Language    string   `json:"language,omitempty"`
}

// FetchResult is a Fetcher's output: page content, page metadata and the
// provider that produced them.
type FetchResult struct {
	Page     PageContent
	Metadata PageMetadata
	Method   string
	Attempts []Attempt
}

type PageMetadata struct {
	OGTags      map[string]string `json:"og_tags"`
	TwitterTags map[string]string `json:"twitter_tags"`
	Keywords    string            `json:"keywords"`
}

// ExternalData holds enrichment results. A nil field means the adapter
// failed or timed out; an empty non-nil value means it found nothing.
type ExternalData struct {
	News             []Article       `json:"news"`
	LinkedIn         *CompanyProfile `json:"linkedin"`
	IndustryInsights *MarketInsights `json:"industry_insights"`
	Degraded         []string        `json:"degraded,omitempty"`
}

type Article struct {
	Title     string `json:"title"`
	Source    string `json:"source"`
	URL       string `json:"url,omitempty"`
	Published string `json:"published,omitempty"`
	Content   string `json:"content,omitempty"`
}

type CompanyProfile struct {
	CompanyURL    string `json:"company_url"`
	Found         bool   `json:"found"`
	EmployeeCount string `json:"employee_count"`
	Industry      string `json:"industry"`
}

type MarketInsights struct {
	MarketSnippets []string `json:"market_snippets"`
	Source         string   `json:"source"`
}

// Module types, in derivation order.
const (
	ModuleObjectionHandling  = "objection_handling"
	ModuleProductKnowledge   = "product_knowledge"
	ModulePitchStrategy      = "pitch_strategy"
	ModuleCompetitorAnalysis = "competitor_analysis"
)

// TrainingModule is derived from one report section on completion.
type TrainingModule struct {
	ID                       int64     `json:"id"`
	AnalysisID               int64     `json:"analysis_id"`
	ModuleType               string    `json:"training_type"`
	Title                    string    `json:"title"`
	SourceSection            string    `json:"source_section"`
	Content                  string    `json:"content"`
	DifficultyLevel          string    `json:"difficulty_level"`
	EstimatedDurationMinutes int       `json:"estimated_duration_minutes"`
	Position                 int       `json:"position"`
	CreatedAt                time.Time `json:"created_at"`
}

// ScrapeLog records one fetch attempt.
type ScrapeLog struct {
	ID            int64     `json:"id"`
	AnalysisID    int64     `json:"analysis_id"`
	URL           string    `json:"url"`
	Provider      string    `json:"provider"`
	StatusCode    int       `json:"status_code"`
	Success       bool      `json:"success"`
	ErrorMessage  string    `json:"error_message,omitempty"`
	ContentLength int       `json:"scraped_content_length"`
	CreatedAt     time.Time `json:"created_at"`
}
