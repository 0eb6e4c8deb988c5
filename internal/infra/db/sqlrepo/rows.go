package sqlrepo

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	domain "github.com/bryanwahyu/domain-intel/internal/domain/analysis"
	"github.com/bryanwahyu/domain-intel/internal/domain/report"
)

const analysisColumns = `id, domain_name, status, scraped_data, business_intelligence,
 pdf_url, json_url, pdf_key, json_key, error_message,
 created_at, updated_at, scraped_at, completed_at`

// list pages skip the large JSON documents
const analysisListColumns = `id, domain_name, status, NULL AS scraped_data, NULL AS business_intelligence,
 pdf_url, json_url, pdf_key, json_key, error_message,
 created_at, updated_at, scraped_at, completed_at`

type analysisRow struct {
	ID                   int64          `db:"id"`
	DomainName           string         `db:"domain_name"`
	Status               string         `db:"status"`
	ScrapedData          sql.NullString `db:"scraped_data"`
	BusinessIntelligence sql.NullString `db:"business_intelligence"`
	PDFURL               sql.NullString `db:"pdf_url"`
	JSONURL              sql.NullString `db:"json_url"`
	PDFKey               sql.NullString `db:"pdf_key"`
	JSONKey              sql.NullString `db:"json_key"`
	ErrorMessage         sql.NullString `db:"error_message"`
	CreatedAt            time.Time      `db:"created_at"`
	UpdatedAt            time.Time      `db:"updated_at"`
	ScrapedAt            sql.NullTime   `db:"scraped_at"`
	CompletedAt          sql.NullTime   `db:"completed_at"`
}

func (r *analysisRow) toDomain() (*domain.Analysis, error) {
	a := &domain.Analysis{
		ID:           r.ID,
		DomainName:   r.DomainName,
		Status:       domain.Status(r.Status),
		PDFURL:       ptrString(r.PDFURL),
		JSONURL:      ptrString(r.JSONURL),
		PDFKey:       ptrString(r.PDFKey),
		JSONKey:      ptrString(r.JSONKey),
		ErrorMessage: ptrString(r.ErrorMessage),
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
		ScrapedAt:    ptrTime(r.ScrapedAt),
		CompletedAt:  ptrTime(r.CompletedAt),
	}
	if r.ScrapedData.Valid && r.ScrapedData.String != "" {
		var sd domain.ScrapedData
		if err := json.Unmarshal([]byte(r.ScrapedData.String), &sd); err != nil {
			return nil, fmt.Errorf("decode scraped_data of analysis %d: %w", r.ID, err)
		}
		a.ScrapedData = &sd
	}
	if r.BusinessIntelligence.Valid && r.BusinessIntelligence.String != "" {
		var rep report.Report
		if err := json.Unmarshal([]byte(r.BusinessIntelligence.String), &rep); err != nil {
			return nil, fmt.Errorf("decode business_intelligence of analysis %d: %w", r.ID, err)
		}
		a.BusinessIntelligence = &rep
	}
	return a, nil
}

const trainingColumns = `id, analysis_id, training_type, title, source_section, content,
 difficulty_level, estimated_duration_minutes, position, created_at`

type trainingRow struct {
	ID                       int64     `db:"id"`
	AnalysisID               int64     `db:"analysis_id"`
	ModuleType               string    `db:"training_type"`
	Title                    string    `db:"title"`
	SourceSection            string    `db:"source_section"`
	Content                  string    `db:"content"`
	DifficultyLevel          string    `db:"difficulty_level"`
	EstimatedDurationMinutes int       `db:"estimated_duration_minutes"`
	Position                 int       `db:"position"`
	CreatedAt                time.Time `db:"created_at"`
}

func (r *trainingRow) toDomain() *domain.TrainingModule {
	return &domain.TrainingModule{
		ID:                       r.ID,
		AnalysisID:               r.AnalysisID,
		ModuleType:               r.ModuleType,
		Title:                    r.Title,
		SourceSection:            r.SourceSection,
		Content:                  r.Content,
		DifficultyLevel:          r.DifficultyLevel,
		EstimatedDurationMinutes: r.EstimatedDurationMinutes,
		Position:                 r.Position,
		CreatedAt:                r.CreatedAt.UTC(),
	}
}

type eventRow struct {
	ID         int64          `db:"id"`
	AnalysisID int64          `db:"analysis_id"`
	RunID      string         `db:"run_id"`
	Stage      string         `db:"stage"`
	FromStatus string         `db:"from_status"`
	ToStatus   string         `db:"to_status"`
	Message    string         `db:"message"`
	Payload    sql.NullString `db:"payload"`
	CreatedAt  time.Time      `db:"created_at"`
}

func (r *eventRow) toDomain() *domain.Event {
	e := &domain.Event{
		ID:         r.ID,
		AnalysisID: r.AnalysisID,
		RunID:      r.RunID,
		Stage:      r.Stage,
		FromStatus: domain.Status(r.FromStatus),
		ToStatus:   domain.Status(r.ToStatus),
		Message:    r.Message,
		CreatedAt:  r.CreatedAt.UTC(),
	}
	if r.Payload.Valid && r.Payload.String != "" {
		e.Payload = json.RawMessage(r.Payload.String)
	}
	return e
}

type scrapeLogRow struct {
	ID            int64     `db:"id"`
	AnalysisID    int64     `db:"analysis_id"`
	URL           string    `db:"url"`
	Provider      string    `db:"provider"`
	StatusCode    int       `db:"status_code"`
	Success       bool      `db:"success"`
	ErrorMessage  string    `db:"error_message"`
	ContentLength int       `db:"scraped_content_length"`
	CreatedAt     time.Time `db:"created_at"`
}

func (r *scrapeLogRow) toDomain() *domain.ScrapeLog {
	return &domain.ScrapeLog{
		ID:            r.ID,
		AnalysisID:    r.AnalysisID,
		URL:           r.URL,
		Provider:      r.Provider,
		StatusCode:    r.StatusCode,
		Success:       r.Success,
		ErrorMessage:  r.ErrorMessage,
		ContentLength: r.ContentLength,
		CreatedAt:     r.CreatedAt.UTC(),
	}
}

func ptrString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func ptrTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

// jsonText marshals v for a JSON column; nil values become NULL.
func jsonText(v any) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

// orDash returns "-" when the input is empty/whitespace
func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
