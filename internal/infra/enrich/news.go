package enrich

import (
	"context"
	"fmt"

	"github.com/bryanwahyu/domain-intel/internal/domain/analysis"
	"github.com/bryanwahyu/domain-intel/internal/infra/search"
)

// News finds recent articles about the organization.
type News struct {
	Searcher search.Searcher
	Limit    int
}

var _ analysis.NewsSource = (*News)(nil)

func (n *News) News(ctx context.Context, org, domain string) ([]analysis.Article, error) {
	if err := requireSearcher(n.Searcher); err != nil {
		return nil, err
	}
	limit := n.Limit
	if limit <= 0 {
		limit = 5
	}
	res, err := n.Searcher.Search(ctx, &search.Request{
		Query:      fmt.Sprintf("%s company", org),
		Topic:      "news",
		MaxResults: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("news search: %w", err)
	}

	out := make([]analysis.Article, 0, limit)
	for _, r := range res.Results {
		if len(out) == limit {
			break
		}
		if r.Title == "" {
			continue
		}
		source := hostOf(r.URL)
		if source == "" {
			source = "Unknown"
		}
		out = append(out, analysis.Article{
			Title:     r.Title,
			Source:    source,
			URL:       r.URL,
			Published: r.PublishedDate,
			Content:   clip(r.Content, 200),
		})
	}
	return out, nil
}
