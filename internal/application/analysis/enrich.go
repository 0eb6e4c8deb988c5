package analysis

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	domain "github.com/bryanwahyu/domain-intel/internal/domain/analysis"
	"github.com/bryanwahyu/domain-intel/internal/metrics"
)

// Adapter names as recorded in external_data.degraded.
const (
	AdapterNews     = "news"
	AdapterLinkedIn = "linkedin"
	AdapterMarket   = "industry_insights"
)

// enrich runs the three adapters concurrently. It never fails: an adapter
// that errors or overruns its timeout leaves its field nil and is listed as
// degraded.
func (s *Service) enrich(ctx context.Context, log *zap.Logger, domainName string) domain.ExternalData {
	org := domain.OrganizationName(domainName)
	timeout := s.Timeouts.withDefaults().Enrichment

	var (
		out domain.ExternalData
		mu  sync.Mutex
	)
	degrade := func(name string, err error) {
		mu.Lock()
		out.Degraded = append(out.Degraded, name)
		mu.Unlock()
		metrics.EnrichmentResults.WithLabelValues(name, "degraded").Inc()
		log.Warn("enrichment degraded", zap.String("adapter", name),
			zap.Error(fmt.Errorf("%w: %w", domain.ErrEnrichmentDegraded, err)))
	}

	g, gctx := errgroup.WithContext(ctx)
	if s.News != nil {
		g.Go(func() error {
			news, err := bounded(gctx, timeout, func(c context.Context) ([]domain.Article, error) {
				return s.News.News(c, org, domainName)
			})
			if err != nil {
				degrade(AdapterNews, err)
				return nil
			}
			if news == nil {
				news = []domain.Article{}
			}
			mu.Lock()
			out.News = news
			mu.Unlock()
			metrics.EnrichmentResults.WithLabelValues(AdapterNews, "ok").Inc()
			return nil
		})
	} else {
		degrade(AdapterNews, errNoAdapter)
	}
	if s.Profile != nil {
		g.Go(func() error {
			p, err := bounded(gctx, timeout, func(c context.Context) (*domain.CompanyProfile, error) {
				return s.Profile.Profile(c, org, domainName)
			})
			if err != nil || p == nil {
				if err == nil {
					err = errNoResult
				}
				degrade(AdapterLinkedIn, err)
				return nil
			}
			mu.Lock()
			out.LinkedIn = p
			mu.Unlock()
			metrics.EnrichmentResults.WithLabelValues(AdapterLinkedIn, "ok").Inc()
			return nil
		})
	} else {
		degrade(AdapterLinkedIn, errNoAdapter)
	}
	if s.Market != nil {
		g.Go(func() error {
			m, err := bounded(gctx, timeout, func(c context.Context) (*domain.MarketInsights, error) {
				return s.Market.Market(c, org, domainName)
			})
			if err != nil || m == nil {
				if err == nil {
					err = errNoResult
				}
				degrade(AdapterMarket, err)
				return nil
			}
			mu.Lock()
			out.IndustryInsights = m
			mu.Unlock()
			metrics.EnrichmentResults.WithLabelValues(AdapterMarket, "ok").Inc()
			return nil
		})
	} else {
		degrade(AdapterMarket, errNoAdapter)
	}
	_ = g.Wait()

	sortDegraded(out.Degraded)
	return out
}

var (
	errNoAdapter = errors.New("adapter not configured")
	errNoResult  = errors.New("adapter returned nothing")
)

// bounded calls fn with a deadline and stops waiting once it passes, even if
// fn ignores its context.
func bounded[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		ch <- result{v, err}
	}()

	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

var degradedOrder = map[string]int{AdapterNews: 0, AdapterLinkedIn: 1, AdapterMarket: 2}

// sortDegraded orders names the way the fields appear in external_data.
func sortDegraded(names []string) {
	slices.SortFunc(names, func(a, b string) int { return degradedOrder[a] - degradedOrder[b] })
}
