package analysis

import (
	"encoding/json"
	"time"

	"github.com/bryanwahyu/domain-intel/internal/domain/report"
)

// Event is an append-only record of one stage result. Each event is
// committed in the same transaction as the status change it describes.
type Event struct {
	ID         int64           `json:"id"`
	AnalysisID int64           `json:"analysis_id"`
	RunID      string          `json:"run_id"`
	Stage      string          `json:"stage"`
	FromStatus Status          `json:"from_status"`
	ToStatus   Status          `json:"to_status"`
	Message    string          `json:"message,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Transition is a guarded status change. The update applies only while the
// stored status equals From.
type Transition struct {
	ID    int64
	RunID string
	From  Status
	To    Status
	Stage string
	At    time.Time

	// set on scraping -> analyzing
	ScrapedData *ScrapedData
	// set on -> failed
	ErrorMessage string

	Message string
	Payload map[string]any
}

// Completion carries everything written by the analyzing -> completed commit.
type Completion struct {
	ID       int64
	RunID    string
	At       time.Time
	Report   *report.Report
	PDFURL   string
	JSONURL  string
	PDFKey   string
	JSONKey  string
	Training []*TrainingModule
	Payload  map[string]any
}
