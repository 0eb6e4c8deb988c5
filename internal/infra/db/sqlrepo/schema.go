// Package sqlrepo persists analyses, training modules, stage events and
// scrape logs on MySQL, Postgres or SQLite through sqlx.
package sqlrepo

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Dialect names match the registered driver names.
const (
	DialectMySQL    = "mysql"
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

var schemas = map[string][]string{
	DialectMySQL: {
		`CREATE TABLE IF NOT EXISTS domain_analyses (
  id BIGINT AUTO_INCREMENT PRIMARY KEY,
  domain_name VARCHAR(255) NOT NULL,
  status VARCHAR(20) NOT NULL,
  scraped_data JSON NULL,
  business_intelligence JSON NULL,
  pdf_url TEXT NULL,
  json_url TEXT NULL,
  pdf_key VARCHAR(512) NULL,
  json_key VARCHAR(512) NULL,
  error_message TEXT NULL,
  created_at DATETIME(6) NOT NULL,
  updated_at DATETIME(6) NOT NULL,
  scraped_at DATETIME(6) NULL,
  completed_at DATETIME(6) NULL,
  INDEX idx_domain_analyses_status_updated (status, updated_at),
  INDEX idx_domain_analyses_created (created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS sales_training (
  id BIGINT AUTO_INCREMENT PRIMARY KEY,
  analysis_id BIGINT NOT NULL,
  training_type VARCHAR(50) NOT NULL,
  title VARCHAR(255) NOT NULL,
  source_section VARCHAR(64) NOT NULL,
  content LONGTEXT NOT NULL,
  difficulty_level VARCHAR(20) NOT NULL,
  estimated_duration_minutes INT NOT NULL,
  position INT NOT NULL,
  created_at DATETIME(6) NOT NULL,
  INDEX idx_sales_training_analysis (analysis_id, position),
  CONSTRAINT fk_sales_training_analysis FOREIGN KEY (analysis_id)
    REFERENCES domain_analyses(id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS analysis_events (
  id BIGINT AUTO_INCREMENT PRIMARY KEY,
  analysis_id BIGINT NOT NULL,
  run_id VARCHAR(64) NOT NULL,
  stage VARCHAR(32) NOT NULL,
  from_status VARCHAR(20) NOT NULL,
  to_status VARCHAR(20) NOT NULL,
  message TEXT NOT NULL,
  payload JSON NULL,
  created_at DATETIME(6) NOT NULL,
  INDEX idx_analysis_events_analysis (analysis_id, id),
  CONSTRAINT fk_analysis_events_analysis FOREIGN KEY (analysis_id)
    REFERENCES domain_analyses(id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS scraping_logs (
  id BIGINT AUTO_INCREMENT PRIMARY KEY,
  analysis_id BIGINT NOT NULL,
  url TEXT NOT NULL,
  provider VARCHAR(32) NOT NULL,
  status_code INT NOT NULL,
  success BOOLEAN NOT NULL,
  error_message TEXT NOT NULL,
  scraped_content_length INT NOT NULL,
  created_at DATETIME(6) NOT NULL,
  INDEX idx_scraping_logs_analysis (analysis_id, id),
  CONSTRAINT fk_scraping_logs_analysis FOREIGN KEY (analysis_id)
    REFERENCES domain_analyses(id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
	DialectPostgres: {
		`CREATE TABLE IF NOT EXISTS domain_analyses (
  id BIGSERIAL PRIMARY KEY,
  domain_name VARCHAR(255) NOT NULL,
  status VARCHAR(20) NOT NULL,
  scraped_data JSONB NULL,
  business_intelligence JSONB NULL,
  pdf_url TEXT NULL,
  json_url TEXT NULL,
  pdf_key VARCHAR(512) NULL,
  json_key VARCHAR(512) NULL,
  error_message TEXT NULL,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL,
  scraped_at TIMESTAMPTZ NULL,
  completed_at TIMESTAMPTZ NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_domain_analyses_status_updated ON domain_analyses (status, updated_at)`,
		`CREATE INDEX IF NOT EXISTS idx_domain_analyses_created ON domain_analyses (created_at)`,
		`CREATE TABLE IF NOT EXISTS sales_training (
  id BIGSERIAL PRIMARY KEY,
  analysis_id BIGINT NOT NULL REFERENCES domain_analyses(id) ON DELETE CASCADE,
  training_type VARCHAR(50) NOT NULL,
  title VARCHAR(255) NOT NULL,
  source_section VARCHAR(64) NOT NULL,
  content TEXT NOT NULL,
  difficulty_level VARCHAR(20) NOT NULL,
  estimated_duration_minutes INT NOT NULL,
  position INT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_sales_training_analysis ON sales_training (analysis_id, position)`,
		`CREATE TABLE IF NOT EXISTS analysis_events (
  id BIGSERIAL PRIMARY KEY,
  analysis_id BIGINT NOT NULL REFERENCES domain_analyses(id) ON DELETE CASCADE,
  run_id VARCHAR(64) NOT NULL,
  stage VARCHAR(32) NOT NULL,
  from_status VARCHAR(20) NOT NULL,
  to_status VARCHAR(20) NOT NULL,
  message TEXT NOT NULL,
  payload JSONB NULL,
  created_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_analysis_events_analysis ON analysis_events (analysis_id, id)`,
		`CREATE TABLE IF NOT EXISTS scraping_logs (
  id BIGSERIAL PRIMARY KEY,
  analysis_id BIGINT NOT NULL REFERENCES domain_analyses(id) ON DELETE CASCADE,
  url TEXT NOT NULL,
  provider VARCHAR(32) NOT NULL,
  status_code INT NOT NULL,
  success BOOLEAN NOT NULL,
  error_message TEXT NOT NULL,
  scraped_content_length INT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_scraping_logs_analysis ON scraping_logs (analysis_id, id)`,
	},
	DialectSQLite: {
		`CREATE TABLE IF NOT EXISTS domain_analyses (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  domain_name TEXT NOT NULL,
  status TEXT NOT NULL,
  scraped_data TEXT NULL,
  business_intelligence TEXT NULL,
  pdf_url TEXT NULL,
  json_url TEXT NULL,
  pdf_key TEXT NULL,
  json_key TEXT NULL,
  error_message TEXT NULL,
  created_at DATETIME NOT NULL,
  updated_at DATETIME NOT NULL,
  scraped_at DATETIME NULL,
  completed_at DATETIME NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_domain_analyses_status_updated ON domain_analyses (status, updated_at)`,
		`CREATE INDEX IF NOT EXISTS idx_domain_analyses_created ON domain_analyses (created_at)`,
		`CREATE TABLE IF NOT EXISTS sales_training (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  analysis_id INTEGER NOT NULL REFERENCES domain_analyses(id) ON DELETE CASCADE,
  training_type TEXT NOT NULL,
  title TEXT NOT NULL,
  source_section TEXT NOT NULL,
  content TEXT NOT NULL,
  difficulty_level TEXT NOT NULL,
  estimated_duration_minutes INTEGER NOT NULL,
  position INTEGER NOT NULL,
  created_at DATETIME NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_sales_training_analysis ON sales_training (analysis_id, position)`,
		`CREATE TABLE IF NOT EXISTS analysis_events (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  analysis_id INTEGER NOT NULL REFERENCES domain_analyses(id) ON DELETE CASCADE,
  run_id TEXT NOT NULL,
  stage TEXT NOT NULL,
  from_status TEXT NOT NULL,
  to_status TEXT NOT NULL,
  message TEXT NOT NULL,
  payload TEXT NULL,
  created_at DATETIME NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_analysis_events_analysis ON analysis_events (analysis_id, id)`,
		`CREATE TABLE IF NOT EXISTS scraping_logs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  analysis_id INTEGER NOT NULL REFERENCES domain_analyses(id) ON DELETE CASCADE,
  url TEXT NOT NULL,
  provider TEXT NOT NULL,
  status_code INTEGER NOT NULL,
  success BOOLEAN NOT NULL,
  error_message TEXT NOT NULL,
  scraped_content_length INTEGER NOT NULL,
  created_at DATETIME NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_scraping_logs_analysis ON scraping_logs (analysis_id, id)`,
	},
}

// Migrate creates the tables for the connection's dialect if missing.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	stmts, ok := schemas[db.DriverName()]
	if !ok {
		return fmt.Errorf("migrate: unsupported driver %q", db.DriverName())
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
