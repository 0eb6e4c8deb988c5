package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port            int               `yaml:"port"`
		ReadTimeout     time.Duration     `yaml:"readTimeout"`
		WriteTimeout    time.Duration     `yaml:"writeTimeout"`
		ShutdownTimeout time.Duration     `yaml:"shutdownTimeout"`
		AllowedOrigins  []string          `yaml:"allowedOrigins"`
		APIKeys         map[string]string `yaml:"apiKeys"` // client id -> key; empty disables auth
		RateLimit       struct {
			RequestsPerMinute int `yaml:"requestsPerMinute"`
			Burst             int `yaml:"burst"`
		} `yaml:"rateLimit"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"` // mysql | postgres | sqlite
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
		Path     string `yaml:"path"` // sqlite file
	} `yaml:"database"`

	Redis struct {
		Addr     string `yaml:"addr"` // empty uses the in-process queue
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		QueueKey string `yaml:"queueKey"`
	} `yaml:"redis"`

	Minio struct {
		Endpoint   string        `yaml:"endpoint"`
		AccessKey  string        `yaml:"accessKey"`
		SecretKey  string        `yaml:"secretKey"`
		BucketName string        `yaml:"bucketName"`
		Region     string        `yaml:"region"`
		UseSSL     bool          `yaml:"useSSL"`
		Timeout    time.Duration `yaml:"timeout"`
	} `yaml:"minio"`

	LLM struct {
		APIKey            string        `yaml:"apiKey"`
		BaseURL           string        `yaml:"baseURL"`
		Model             string        `yaml:"model"`
		MaxTokens         int           `yaml:"maxTokens"`
		Temperature       float32       `yaml:"temperature"`
		Timeout           time.Duration `yaml:"timeout"`
		RequestsPerMinute int           `yaml:"requestsPerMinute"`
	} `yaml:"llm"`

	Fetch struct {
		Provider        string        `yaml:"provider"` // firecrawl | chromedp | direct
		FirecrawlAPIKey string        `yaml:"firecrawlApiKey"`
		FirecrawlURL    string        `yaml:"firecrawlUrl"`
		UserAgent       string        `yaml:"userAgent"`
		Timeout         time.Duration `yaml:"timeout"`
		MaxContent      int           `yaml:"maxContent"`
	} `yaml:"fetch"`

	Search struct {
		Provider          string        `yaml:"provider"` // tavily | searxng
		TavilyAPIKey      string        `yaml:"tavilyApiKey"`
		TavilyURL         string        `yaml:"tavilyUrl"`
		SearXNGURL        string        `yaml:"searxngUrl"`
		Timeout           time.Duration `yaml:"timeout"`
		RequestsPerMinute int           `yaml:"requestsPerMinute"`
	} `yaml:"search"`

	Enrichment struct {
		Timeout   time.Duration `yaml:"timeout"`
		NewsLimit int           `yaml:"newsLimit"`
	} `yaml:"enrichment"`

	Worker struct {
		Concurrency   int           `yaml:"concurrency"`
		RunTimeout    time.Duration `yaml:"runTimeout"`
		SweepInterval time.Duration `yaml:"sweepInterval"`
		StaleAfter    time.Duration `yaml:"staleAfter"`
		QueueSize     int           `yaml:"queueSize"`
	} `yaml:"worker"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // json | console
	} `yaml:"log"`
}

// Load baca file config.yaml. ${VAR} references are expanded from the
// environment before parsing so secrets can stay out of the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML, applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	expanded := os.Expand(string(data), func(key string) string {
		return os.Getenv(key)
	})
	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	setInt(&c.Server.Port, 8080)
	setDur(&c.Server.ReadTimeout, 15*time.Second)
	setDur(&c.Server.WriteTimeout, 30*time.Second)
	setDur(&c.Server.ShutdownTimeout, 10*time.Second)
	setInt(&c.Server.RateLimit.RequestsPerMinute, 120)
	setInt(&c.Server.RateLimit.Burst, 20)
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}

	setStr(&c.Database.Driver, "mysql")
	setStr(&c.Database.Host, "localhost")
	if c.Database.Port == 0 {
		switch c.Database.Driver {
		case "postgres":
			c.Database.Port = 5432
		default:
			c.Database.Port = 3306
		}
	}
	setStr(&c.Database.SSLMode, "disable")
	setStr(&c.Database.Path, "data/domainintel.db")

	setStr(&c.Minio.BucketName, "domain-intelligence")
	setStr(&c.Minio.Region, "us-east-1")
	setDur(&c.Minio.Timeout, 60*time.Second)

	setStr(&c.LLM.Model, "gpt-4o-mini")
	setInt(&c.LLM.MaxTokens, 8000)
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.7
	}
	setDur(&c.LLM.Timeout, 120*time.Second)

	setStr(&c.Fetch.Provider, "direct")
	setDur(&c.Fetch.Timeout, 30*time.Second)
	setInt(&c.Fetch.MaxContent, 5000)

	setDur(&c.Search.Timeout, 15*time.Second)
	setInt(&c.Search.RequestsPerMinute, 60)

	setDur(&c.Enrichment.Timeout, 20*time.Second)
	setInt(&c.Enrichment.NewsLimit, 5)

	setInt(&c.Worker.Concurrency, 2)
	setDur(&c.Worker.RunTimeout, 10*time.Minute)
	setDur(&c.Worker.SweepInterval, time.Minute)
	setDur(&c.Worker.StaleAfter, 30*time.Minute)
	setInt(&c.Worker.QueueSize, 1024)

	setStr(&c.Log.Level, "info")
	setStr(&c.Log.Format, "json")
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case "mysql", "postgres":
		if c.Database.Name == "" {
			errs = append(errs, errors.New("database.name is required"))
		}
	case "sqlite":
	default:
		errs = append(errs, fmt.Errorf("database.driver %q is not one of mysql, postgres, sqlite", c.Database.Driver))
	}
	switch c.Fetch.Provider {
	case "direct", "chromedp":
	case "firecrawl":
		if c.Fetch.FirecrawlAPIKey == "" {
			errs = append(errs, errors.New("fetch.firecrawlApiKey is required for the firecrawl provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("fetch.provider %q is not one of firecrawl, chromedp, direct", c.Fetch.Provider))
	}
	switch c.Search.Provider {
	case "", "tavily", "searxng":
	default:
		errs = append(errs, fmt.Errorf("search.provider %q is not one of tavily, searxng", c.Search.Provider))
	}
	if c.Minio.Endpoint == "" {
		errs = append(errs, errors.New("minio.endpoint is required"))
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d is out of range", c.Server.Port))
	}
	if c.Worker.StaleAfter <= c.Worker.RunTimeout {
		errs = append(errs, errors.New("worker.staleAfter must exceed worker.runTimeout"))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, fmt.Errorf("llm.temperature %.2f is out of range", c.LLM.Temperature))
	}
	return errors.Join(errs...)
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// PostgresDSN builds a lib/pq connection URL.
func (c *Config) PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
		Path:     "/" + c.Database.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.Database.SSLMode),
	}
	return u.String()
}

// SQLitePath is the database file, or ":memory:".
func (c *Config) SQLitePath() string {
	return strings.TrimSpace(c.Database.Path)
}

func setStr(p *string, v string) {
	if *p == "" {
		*p = v
	}
}

func setInt(p *int, v int) {
	if *p == 0 {
		*p = v
	}
}

func setDur(p *time.Duration, v time.Duration) {
	if *p == 0 {
		*p = v
	}
}
