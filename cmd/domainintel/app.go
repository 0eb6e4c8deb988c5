package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/bryanwahyu/domain-intel/internal/application"
	appanalysis "github.com/bryanwahyu/domain-intel/internal/application/analysis"
	"github.com/bryanwahyu/domain-intel/internal/config"
	domain "github.com/bryanwahyu/domain-intel/internal/domain/analysis"
	"github.com/bryanwahyu/domain-intel/internal/infra/ai/generator"
	"github.com/bryanwahyu/domain-intel/internal/infra/ai/openai"
	mysqlp "github.com/bryanwahyu/domain-intel/internal/infra/db/mysql"
	"github.com/bryanwahyu/domain-intel/internal/infra/db/postgres"
	"github.com/bryanwahyu/domain-intel/internal/infra/db/sqlite"
	"github.com/bryanwahyu/domain-intel/internal/infra/db/sqlrepo"
	"github.com/bryanwahyu/domain-intel/internal/infra/enrich"
	"github.com/bryanwahyu/domain-intel/internal/infra/fetch"
	"github.com/bryanwahyu/domain-intel/internal/infra/queue"
	"github.com/bryanwahyu/domain-intel/internal/infra/render"
	"github.com/bryanwahyu/domain-intel/internal/infra/search"
	minioStore "github.com/bryanwahyu/domain-intel/internal/infra/storage"
	"github.com/bryanwahyu/domain-intel/internal/logger"
	"github.com/bryanwahyu/domain-intel/internal/middleware"
)

// app is everything a command needs, built once from config.
type app struct {
	cfg   *config.Config
	log   *zap.Logger
	db    *sqlx.DB
	redis *redis.Client
	queue domain.Queue
	store *minioStore.Store
	svc   *appanalysis.Service

	closers []func()
}

func loadConfig(path string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("config load: %w", err)
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func openDB(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	switch cfg.Database.Driver {
	case "postgres":
		return postgres.Connect(ctx, cfg.PostgresDSN())
	case "sqlite":
		return sqlite.Connect(ctx, cfg.SQLitePath())
	default:
		return mysqlp.Connect(ctx, cfg.MySQLDSN())
	}
}

func newApp(ctx context.Context, configPath string) (*app, error) {
	cfg, log, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log}
	a.closers = append(a.closers, func() { _ = log.Sync() })

	if err := a.build(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) build(ctx context.Context) error {
	cfg, log := a.cfg, a.log

	db, err := openDB(ctx, cfg)
	if err != nil {
		return fmt.Errorf("%s connect: %w", cfg.Database.Driver, err)
	}
	a.db = db
	a.closers = append(a.closers, func() { _ = db.Close() })
	if err := sqlrepo.Migrate(ctx, db); err != nil {
		return err
	}
	repo := sqlrepo.New(db)

	if cfg.Redis.Addr != "" {
		client, err := queue.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return fmt.Errorf("redis connect: %w", err)
		}
		a.redis = client
		a.closers = append(a.closers, func() { _ = client.Close() })
		a.queue = queue.NewRedis(client, cfg.Redis.QueueKey)
	} else {
		a.queue = queue.NewMemory(cfg.Worker.QueueSize)
	}

	store, err := minioStore.New(ctx, minioStore.Options{
		Endpoint:  cfg.Minio.Endpoint,
		Region:    cfg.Minio.Region,
		Bucket:    cfg.Minio.BucketName,
		AccessKey: cfg.Minio.AccessKey,
		SecretKey: cfg.Minio.SecretKey,
		UseSSL:    cfg.Minio.UseSSL,
		Timeout:   cfg.Minio.Timeout,
	})
	if err != nil {
		return fmt.Errorf("minio init: %w", err)
	}
	a.store = store

	llm := openai.NewClient(openai.Options{
		APIKey:            cfg.LLM.APIKey,
		BaseURL:           cfg.LLM.BaseURL,
		Model:             cfg.LLM.Model,
		MaxTokens:         cfg.LLM.MaxTokens,
		Temperature:       cfg.LLM.Temperature,
		Timeout:           cfg.LLM.Timeout,
		RequestsPerMinute: cfg.LLM.RequestsPerMinute,
	})

	svc := &appanalysis.Service{
		Repo:      repo,
		Queue:     a.queue,
		Fetcher:   a.fetcher(),
		Generator: generator.New(llm, log),
		Renderer:  render.PDF{},
		Publisher: store,
		Clock:     application.SystemClock{},
		Log:       log,
		Timeouts: appanalysis.Timeouts{
			Run:        cfg.Worker.RunTimeout,
			Enrichment: cfg.Enrichment.Timeout,
			StaleAfter: cfg.Worker.StaleAfter,
		},
	}

	searcher, err := search.New(search.Options{
		Provider:          cfg.Search.Provider,
		TavilyAPIKey:      cfg.Search.TavilyAPIKey,
		TavilyBaseURL:     cfg.Search.TavilyURL,
		SearXNGURL:        cfg.Search.SearXNGURL,
		Timeout:           cfg.Search.Timeout,
		RequestsPerMinute: cfg.Search.RequestsPerMinute,
	})
	switch {
	case err == nil:
		svc.News = &enrich.News{Searcher: searcher, Limit: cfg.Enrichment.NewsLimit}
		svc.Profile = &enrich.Profile{Searcher: searcher}
		svc.Market = &enrich.Market{Searcher: searcher}
	case errors.Is(err, search.ErrNotConfigured):
		log.Warn("no search provider configured, enrichment will be degraded")
	default:
		return fmt.Errorf("search init: %w", err)
	}

	a.svc = svc
	return nil
}

// fetcher picks the primary provider from config. Direct is always the
// fallback.
func (a *app) fetcher() *fetch.Fallback {
	cfg := a.cfg.Fetch
	direct := fetch.NewDirect(cfg.Timeout, cfg.UserAgent, cfg.MaxContent)
	f := &fetch.Fallback{Timeout: cfg.Timeout, Log: a.log}

	switch cfg.Provider {
	case fetch.MethodFirecrawl:
		f.Primary = fetch.NewFirecrawl(cfg.FirecrawlAPIKey, cfg.FirecrawlURL, cfg.Timeout, cfg.MaxContent)
		f.Secondary = direct
	case fetch.MethodChromedp:
		browser := fetch.NewChromedp(cfg.UserAgent, cfg.MaxContent)
		a.closers = append(a.closers, browser.Close)
		f.Primary = browser
		f.Secondary = direct
	default:
		f.Primary = direct
	}
	return f
}

func (a *app) checkers() map[string]middleware.HealthChecker {
	checks := map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: a.db},
		"storage":  middleware.CheckerFunc(a.store.Ping),
	}
	if a.redis != nil {
		checks["redis"] = &middleware.RedisHealthChecker{Client: a.redis}
	}
	return checks
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
