package enrich

import (
	"context"
	"fmt"
	"strings"

	"github.com/bryanwahyu/domain-intel/internal/domain/analysis"
	"github.com/bryanwahyu/domain-intel/internal/infra/search"
)

const (
	maxSnippets   = 3
	minSnippetLen = 50
	snippetChars  = 200
)

// Market gathers short industry and market-trend snippets.
type Market struct {
	Searcher search.Searcher
}

var _ analysis.MarketSource = (*Market)(nil)

func (m *Market) Market(ctx context.Context, org, domain string) (*analysis.MarketInsights, error) {
	if err := requireSearcher(m.Searcher); err != nil {
		return nil, err
	}
	res, err := m.Searcher.Search(ctx, &search.Request{
		Query:      fmt.Sprintf("%s industry market trends", org),
		Topic:      "general",
		MaxResults: maxSnippets + 2,
	})
	if err != nil {
		return nil, fmt.Errorf("market search: %w", err)
	}

	out := &analysis.MarketInsights{MarketSnippets: []string{}, Source: "web_search"}
	for _, r := range res.Results {
		if len(out.MarketSnippets) == maxSnippets {
			break
		}
		text := strings.TrimSpace(r.Content)
		if len([]rune(text)) <= minSnippetLen {
			continue
		}
		out.MarketSnippets = append(out.MarketSnippets, clip(text, snippetChars))
	}
	return out, nil
}
