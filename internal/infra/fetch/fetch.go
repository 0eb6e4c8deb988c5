// Package fetch retrieves a company's site through a primary provider with
// a direct HTTP fallback.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bryanwahyu/domain-intel/internal/domain/analysis"
	"github.com/bryanwahyu/domain-intel/internal/metrics"
)

const (
	MethodFirecrawl = "firecrawl"
	MethodChromedp  = "chromedp"
	MethodDirect    = "direct"
)

var errEmptyContent = errors.New("empty content")

// Page is one provider's answer. StatusCode may be set even when the
// provider returns an error.
type Page struct {
	StatusCode int
	Result     *analysis.FetchResult
}

// Provider fetches and extracts one URL.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, pageURL string) (*Page, error)
}

// Fallback tries Primary, then Secondary. A primary answer with an error,
// a non-2xx status or no content counts as a failure.
type Fallback struct {
	Primary   Provider
	Secondary Provider
	// Timeout bounds each attempt.
	Timeout time.Duration
	Log     *zap.Logger
}

var _ analysis.Fetcher = (*Fallback)(nil)

func (f *Fallback) Fetch(ctx context.Context, domain string) (*analysis.FetchResult, error) {
	pageURL := "https://" + domain
	var attempts []analysis.Attempt

	for _, p := range []Provider{f.Primary, f.Secondary} {
		if p == nil {
			continue
		}
		res, att := f.try(ctx, p, pageURL)
		attempts = append(attempts, att)
		metrics.FetchAttempts.WithLabelValues(p.Name(), outcome(att.Err)).Inc()
		if att.Err == nil {
			res.Method = p.Name()
			res.Attempts = attempts
			return res, nil
		}
		f.logger().Warn("fetch attempt failed",
			zap.String("domain", domain),
			zap.String("provider", p.Name()),
			zap.Int("status_code", att.StatusCode),
			zap.Error(att.Err),
		)
		if ctx.Err() != nil {
			break
		}
	}
	return nil, &analysis.FetchError{Attempts: attempts}
}

func (f *Fallback) try(ctx context.Context, p Provider, pageURL string) (*analysis.FetchResult, analysis.Attempt) {
	att := analysis.Attempt{Provider: p.Name(), URL: pageURL}
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	page, err := p.Fetch(ctx, pageURL)
	if page != nil {
		att.StatusCode = page.StatusCode
	}
	switch {
	case err != nil:
		att.Err = err
	case page == nil || page.Result == nil:
		att.Err = errEmptyContent
	case page.StatusCode != 0 && (page.StatusCode < 200 || page.StatusCode >= 300):
		att.Err = fmt.Errorf("unexpected status %d", page.StatusCode)
	case strings.TrimSpace(page.Result.Page.Content) == "":
		att.Err = errEmptyContent
	}
	if att.Err != nil {
		return nil, att
	}
	att.ContentLength = len(page.Result.Page.Content)
	return page.Result, att
}

func (f *Fallback) logger() *zap.Logger {
	if f.Log == nil {
		return zap.NewNop()
	}
	return f.Log
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
