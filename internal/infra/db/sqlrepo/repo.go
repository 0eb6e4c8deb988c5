package sqlrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	domain "github.com/bryanwahyu/domain-intel/internal/domain/analysis"
)

// Repository implements analysis.Repository.
type Repository struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// insert runs an INSERT and returns the new id on every dialect.
func (r *Repository) insert(ctx context.Context, ext sqlx.ExtContext, q string, args ...any) (int64, error) {
	q = ext.Rebind(q)
	if ext.DriverName() == DialectPostgres {
		var id int64
		err := ext.QueryRowxContext(ctx, q+" RETURNING id", args...).Scan(&id)
		return id, err
	}
	res, err := ext.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *Repository) Create(ctx context.Context, a *domain.Analysis) error {
	const q = `
INSERT INTO domain_analyses (domain_name, status, created_at, updated_at)
VALUES (?,?,?,?)`
	created := a.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	updated := a.UpdatedAt
	if updated.IsZero() {
		updated = created
	}
	status := a.Status
	if status == "" {
		status = domain.StatusPending
	}
	id, err := r.insert(ctx, r.db, q, a.DomainName, string(status), created, updated)
	if err != nil {
		return err
	}
	a.ID, a.Status, a.CreatedAt, a.UpdatedAt = id, status, created, updated
	return nil
}

func (r *Repository) Get(ctx context.Context, id int64) (*domain.Analysis, error) {
	var row analysisRow
	q := r.db.Rebind(`SELECT ` + analysisColumns + ` FROM domain_analyses WHERE id=?`)
	if err := r.db.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	a, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("analysis %d: %w", id, err)
	}
	return a, nil
}

func (r *Repository) GetDetail(ctx context.Context, id int64) (*domain.Analysis, error) {
	a, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var mods []trainingRow
	q := r.db.Rebind(`SELECT ` + trainingColumns + ` FROM sales_training WHERE analysis_id=? ORDER BY position, id`)
	if err := r.db.SelectContext(ctx, &mods, q, id); err != nil {
		return nil, fmt.Errorf("load training modules: %w", err)
	}
	a.TrainingModules = make([]*domain.TrainingModule, 0, len(mods))
	for i := range mods {
		a.TrainingModules = append(a.TrainingModules, mods[i].toDomain())
	}

	var logs []scrapeLogRow
	q = r.db.Rebind(`
SELECT id, analysis_id, url, provider, status_code, success, error_message, scraped_content_length, created_at
FROM scraping_logs WHERE analysis_id=? ORDER BY id`)
	if err := r.db.SelectContext(ctx, &logs, q, id); err != nil {
		return nil, fmt.Errorf("load scrape logs: %w", err)
	}
	a.ScrapeLogs = make([]*domain.ScrapeLog, 0, len(logs))
	for i := range logs {
		a.ScrapeLogs = append(a.ScrapeLogs, logs[i].toDomain())
	}
	return a, nil
}

// List returns a page ordered by created_at desc plus the total count.
func (r *Repository) List(ctx context.Context, page, pageSize int) ([]*domain.Analysis, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM domain_analyses`); err != nil {
		return nil, 0, err
	}

	var rows []analysisRow
	q := r.db.Rebind(`SELECT ` + analysisListColumns + ` FROM domain_analyses
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?`)
	if err := r.db.SelectContext(ctx, &rows, q, pageSize, offset); err != nil {
		return nil, 0, err
	}
	out := make([]*domain.Analysis, 0, len(rows))
	for i := range rows {
		a, err := rows[i].toDomain()
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, nil
}

// Delete removes the record and everything hanging off it. Children are
// deleted explicitly so SQLite without foreign key enforcement stays clean.
// A record a worker owns is left alone and ErrRunInProgress returned.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	active := make([]string, 0, len(domain.ActiveStatuses))
	for _, s := range domain.ActiveStatuses {
		active = append(active, string(s))
	}
	q, args, err := sqlx.In(`DELETE FROM domain_analyses WHERE id=? AND status NOT IN (?)`, id, active)
	if err != nil {
		return err
	}

	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, table := range []string{"sales_training", "analysis_events", "scraping_logs"} {
			if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM `+table+` WHERE analysis_id=?`), id); err != nil {
				return fmt.Errorf("delete %s: %w", table, err)
			}
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(q), args...)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			return nil
		}

		var exists int
		err = tx.GetContext(ctx, &exists, tx.Rebind(`SELECT COUNT(*) FROM domain_analyses WHERE id=?`), id)
		if err != nil {
			return err
		}
		if exists > 0 {
			// rolls back the child deletes
			return domain.ErrRunInProgress
		}
		return domain.ErrNotFound
	})
}

// Transition applies a guarded status update and appends its event.
func (r *Repository) Transition(ctx context.Context, t domain.Transition) error {
	if !domain.CanTransition(t.From, t.To) {
		return fmt.Errorf("%w: %s -> %s is not allowed", domain.ErrStaleTransition, t.From, t.To)
	}
	at := t.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	q := `UPDATE domain_analyses SET status=?, updated_at=?`
	args := []any{string(t.To), at}
	if t.ScrapedData != nil {
		sd, err := jsonText(t.ScrapedData)
		if err != nil {
			return fmt.Errorf("encode scraped_data: %w", err)
		}
		q += `, scraped_data=?, scraped_at=?`
		args = append(args, sd, at)
	}
	if t.To == domain.StatusFailed {
		q += `, error_message=?`
		args = append(args, orDash(t.ErrorMessage))
	}
	q += ` WHERE id=? AND status=?`
	args = append(args, t.ID, string(t.From))

	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := r.guardedUpdate(ctx, tx, t.ID, q, args...); err != nil {
			return err
		}
		return r.addEvent(ctx, tx, &domain.Event{
			AnalysisID: t.ID,
			RunID:      t.RunID,
			Stage:      t.Stage,
			FromStatus: t.From,
			ToStatus:   t.To,
			Message:    t.Message,
			CreatedAt:  at,
		}, t.Payload)
	})
}

// Complete writes the outputs, the training modules and the completion
// event in one transaction.
func (r *Repository) Complete(ctx context.Context, c domain.Completion) error {
	if c.Report == nil || c.PDFURL == "" || c.JSONURL == "" {
		return errors.New("complete: outputs are missing")
	}
	at := c.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	bi, err := jsonText(c.Report)
	if err != nil {
		return fmt.Errorf("encode business_intelligence: %w", err)
	}

	const q = `
UPDATE domain_analyses
SET status=?, business_intelligence=?, pdf_url=?, json_url=?, pdf_key=?, json_key=?,
    error_message=NULL, completed_at=?, updated_at=?
WHERE id=? AND status=?`

	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		err := r.guardedUpdate(ctx, tx, c.ID, q,
			string(domain.StatusCompleted), bi, c.PDFURL, c.JSONURL, c.PDFKey, c.JSONKey,
			at, at, c.ID, string(domain.StatusAnalyzing))
		if err != nil {
			return err
		}

		const qm = `
INSERT INTO sales_training
  (analysis_id, training_type, title, source_section, content, difficulty_level,
   estimated_duration_minutes, position, created_at)
VALUES (?,?,?,?,?,?,?,?,?)`
		for _, m := range c.Training {
			id, err := r.insert(ctx, tx, qm, c.ID, m.ModuleType, m.Title, m.SourceSection, m.Content,
				m.DifficultyLevel, m.EstimatedDurationMinutes, m.Position, at)
			if err != nil {
				return fmt.Errorf("insert training module %s: %w", m.ModuleType, err)
			}
			m.ID, m.AnalysisID, m.CreatedAt = id, c.ID, at
		}

		return r.addEvent(ctx, tx, &domain.Event{
			AnalysisID: c.ID,
			RunID:      c.RunID,
			Stage:      domain.StageCompleting,
			FromStatus: domain.StatusAnalyzing,
			ToStatus:   domain.StatusCompleted,
			Message:    "analysis completed",
			CreatedAt:  at,
		}, c.Payload)
	})
}

// guardedUpdate runs a compare-and-set update and tells a missing record
// apart from one whose status moved on.
func (r *Repository) guardedUpdate(ctx context.Context, tx *sqlx.Tx, id int64, q string, args ...any) error {
	res, err := tx.ExecContext(ctx, tx.Rebind(q), args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var exists int
	err = tx.GetContext(ctx, &exists, tx.Rebind(`SELECT COUNT(*) FROM domain_analyses WHERE id=?`), id)
	if err != nil {
		return err
	}
	if exists == 0 {
		return domain.ErrNotFound
	}
	return domain.ErrStaleTransition
}

func (r *Repository) addEvent(ctx context.Context, tx *sqlx.Tx, e *domain.Event, payload map[string]any) error {
	const q = `
INSERT INTO analysis_events (analysis_id, run_id, stage, from_status, to_status, message, payload, created_at)
VALUES (?,?,?,?,?,?,?,?)`
	var p sql.NullString
	if len(payload) > 0 {
		var err error
		if p, err = jsonText(payload); err != nil {
			return fmt.Errorf("encode event payload: %w", err)
		}
	}
	_, err := r.insert(ctx, tx, q, e.AnalysisID, orDash(e.RunID), orDash(e.Stage),
		string(e.FromStatus), string(e.ToStatus), e.Message, p, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// ListStale returns unfinished records not updated since before.
func (r *Repository) ListStale(ctx context.Context, before time.Time) ([]*domain.Analysis, error) {
	active := make([]string, 0, len(domain.UnfinishedStatuses))
	for _, s := range domain.UnfinishedStatuses {
		active = append(active, string(s))
	}
	q, args, err := sqlx.In(`SELECT `+analysisListColumns+` FROM domain_analyses
WHERE status IN (?) AND updated_at < ?
ORDER BY updated_at, id`, active, before.UTC())
	if err != nil {
		return nil, err
	}

	var rows []analysisRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	out := make([]*domain.Analysis, 0, len(rows))
	for i := range rows {
		a, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *Repository) ListEvents(ctx context.Context, analysisID int64) ([]*domain.Event, error) {
	var rows []eventRow
	q := r.db.Rebind(`
SELECT id, analysis_id, run_id, stage, from_status, to_status, message, payload, created_at
FROM analysis_events WHERE analysis_id=? ORDER BY id`)
	if err := r.db.SelectContext(ctx, &rows, q, analysisID); err != nil {
		return nil, err
	}
	out := make([]*domain.Event, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

func (r *Repository) AddScrapeLog(ctx context.Context, l *domain.ScrapeLog) error {
	const q = `
INSERT INTO scraping_logs
  (analysis_id, url, provider, status_code, success, error_message, scraped_content_length, created_at)
VALUES (?,?,?,?,?,?,?,?)`
	created := l.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	id, err := r.insert(ctx, r.db, q, l.AnalysisID, orDash(l.URL), orDash(l.Provider), l.StatusCode,
		l.Success, l.ErrorMessage, l.ContentLength, created)
	if err != nil {
		return err
	}
	l.ID, l.CreatedAt = id, created
	return nil
}

// ListTraining lists modules newest analysis first; analysisID 0 lists all.
func (r *Repository) ListTraining(ctx context.Context, analysisID int64, page, pageSize int) ([]*domain.TrainingModule, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	q := `SELECT ` + trainingColumns + ` FROM sales_training`
	var args []any
	if analysisID > 0 {
		q += ` WHERE analysis_id=?`
		args = append(args, analysisID)
	}
	q += ` ORDER BY analysis_id DESC, position, id LIMIT ? OFFSET ?`
	args = append(args, pageSize, offset)

	var rows []trainingRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	out := make([]*domain.TrainingModule, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

func (r *Repository) GetTraining(ctx context.Context, id int64) (*domain.TrainingModule, error) {
	var row trainingRow
	q := r.db.Rebind(`SELECT ` + trainingColumns + ` FROM sales_training WHERE id=?`)
	if err := r.db.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return row.toDomain(), nil
}

func (r *Repository) withTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
