package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const minimal = `
database:
  driver: sqlite
  path: ":memory:"
minio:
  endpoint: localhost:9000
`

func TestParseDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := Parse([]byte(minimal))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"port", cfg.Server.Port, 8080},
		{"fetch provider", cfg.Fetch.Provider, "direct"},
		{"max content", cfg.Fetch.MaxContent, 5000},
		{"max tokens", cfg.LLM.MaxTokens, 8000},
		{"temperature", cfg.LLM.Temperature, float32(0.7)},
		{"run timeout", cfg.Worker.RunTimeout, 10 * time.Minute},
		{"bucket", cfg.Minio.BucketName, "domain-intelligence"},
		{"sqlite path", cfg.SQLitePath(), ":memory:"},
		{"log format", cfg.Log.Format, "json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestParseExpandsEnvironment(t *testing.T) {
	t.Setenv("DOMAININTEL_TEST_LLM_KEY", "sk-test")
	cfg, err := Parse([]byte(minimal + `
llm:
  apiKey: ${DOMAININTEL_TEST_LLM_KEY}
  timeout: 45s
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.LLM.APIKey != "sk-test" {
		t.Errorf("APIKey = %q, want sk-test", cfg.LLM.APIKey)
	}
	if cfg.LLM.Timeout != 45*time.Second {
		t.Errorf("Timeout = %v, want 45s", cfg.LLM.Timeout)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown driver", "database:\n  driver: oracle\nminio:\n  endpoint: x\n", "database.driver"},
		{"mysql without name", "database:\n  driver: mysql\nminio:\n  endpoint: x\n", "database.name"},
		{"firecrawl without key", minimal + "fetch:\n  provider: firecrawl\n", "firecrawlApiKey"},
		{"unknown search", minimal + "search:\n  provider: bing\n", "search.provider"},
		{"missing minio", "database:\n  driver: sqlite\n", "minio.endpoint"},
		{"stale before timeout", minimal + "worker:\n  runTimeout: 1h\n  staleAfter: 30m\n", "staleAfter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Parse() error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestDSNs(t *testing.T) {
	t.Parallel()
	var c Config
	c.Database.User = "app"
	c.Database.Password = "p@ss"
	c.Database.Host = "db"
	c.Database.Port = 5432
	c.Database.Name = "intel"
	c.Database.SSLMode = "disable"

	if got := c.PostgresDSN(); got != "postgres://app:p%40ss@db:5432/intel?sslmode=disable" {
		t.Errorf("PostgresDSN() = %q", got)
	}
	c.Database.Port = 3306
	if got := c.MySQLDSN(); got != "app:p@ss@tcp(db:3306)/intel?parseTime=true&charset=utf8mb4&loc=UTC" {
		t.Errorf("MySQLDSN() = %q", got)
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(minimal), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err != nil {
		t.Errorf("Load() error = %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load(missing) error = nil")
	}
}
