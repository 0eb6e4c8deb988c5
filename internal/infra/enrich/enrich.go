// Package enrich implements the best-effort enrichment adapters on top of a
// web search provider.
package enrich

import (
	"errors"
	"net/url"
	"strings"

	"github.com/bryanwahyu/domain-intel/internal/infra/search"
)

const notAvailable = "Not available"

// errNoSearcher is returned when the adapters run without a search provider.
var errNoSearcher = errors.New("enrichment: no search provider")

func requireSearcher(s search.Searcher) error {
	if s == nil {
		return errNoSearcher
	}
	return nil
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

func clip(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
