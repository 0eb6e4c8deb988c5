package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Searcher is the web search capability used by the enrichment adapters.
type Searcher interface {
	Search(ctx context.Context, req *Request) (*Response, error)
}

type Request struct {
	Query      string
	Topic      string // "news" or "general"
	MaxResults int
}

type Response struct {
	Results []Result
}

type Result struct {
	Title         string
	URL           string
	Content       string
	Score         float64
	PublishedDate string
}

// ErrNotConfigured is returned by New when no provider is set up.
var ErrNotConfigured = errors.New("search provider not configured")

// Options selects and configures a provider.
type Options struct {
	Provider      string // tavily | searxng; empty picks tavily when a key is set
	TavilyAPIKey  string
	TavilyBaseURL string
	SearXNGURL    string
	Timeout       time.Duration
	// RequestsPerMinute paces calls across all adapters; 0 disables pacing.
	RequestsPerMinute int
}

// New builds a Searcher from options.
func New(opts Options) (Searcher, error) {
	provider := opts.Provider
	if provider == "" {
		if opts.TavilyAPIKey == "" {
			return nil, ErrNotConfigured
		}
		provider = "tavily"
	}

	var s Searcher
	switch provider {
	case "tavily":
		if opts.TavilyAPIKey == "" {
			return nil, fmt.Errorf("tavily api key is missing")
		}
		s = NewTavily(opts.TavilyAPIKey, opts.TavilyBaseURL, opts.Timeout)
	case "searxng":
		if opts.SearXNGURL == "" {
			return nil, fmt.Errorf("searxng base url is missing")
		}
		s = NewSearXNG(opts.SearXNGURL, opts.Timeout)
	default:
		return nil, fmt.Errorf("unknown search provider: %s", provider)
	}

	if opts.RequestsPerMinute > 0 {
		s = Limited(s, rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 2))
	}
	return s, nil
}

// Limited paces every Search call through limiter.
func Limited(s Searcher, limiter *rate.Limiter) Searcher {
	return &limited{next: s, limiter: limiter}
}

type limited struct {
	next    Searcher
	limiter *rate.Limiter
}

func (l *limited) Search(ctx context.Context, req *Request) (*Response, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("search rate limiter: %w", err)
	}
	return l.next.Search(ctx, req)
}
