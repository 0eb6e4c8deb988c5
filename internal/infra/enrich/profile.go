package enrich

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/bryanwahyu/domain-intel/internal/domain/analysis"
	"github.com/bryanwahyu/domain-intel/internal/infra/search"
)

var (
	employeesRe = regexp.MustCompile(`(?i)(\d[\d,.]*\s*(?:-|–|to)\s*\d[\d,.]*|\d[\d,.]*[kK]?\+?)\s+employees`)
	industryRe  = regexp.MustCompile(`(?i)industry\s*[:\-]\s*([^.|·\n]{3,80})`)
)

// Profile looks up the organization's LinkedIn company page.
type Profile struct {
	Searcher search.Searcher
}

var _ analysis.ProfileSource = (*Profile)(nil)

func (p *Profile) Profile(ctx context.Context, org, domain string) (*analysis.CompanyProfile, error) {
	if err := requireSearcher(p.Searcher); err != nil {
		return nil, err
	}
	res, err := p.Searcher.Search(ctx, &search.Request{
		Query:      fmt.Sprintf("%s site:linkedin.com/company", org),
		Topic:      "general",
		MaxResults: 5,
	})
	if err != nil {
		return nil, fmt.Errorf("profile search: %w", err)
	}

	for _, r := range res.Results {
		pageURL, ok := companyPage(r.URL)
		if !ok {
			continue
		}
		prof := &analysis.CompanyProfile{
			CompanyURL:    pageURL,
			Found:         true,
			EmployeeCount: notAvailable,
			Industry:      notAvailable,
		}
		if m := employeesRe.FindStringSubmatch(r.Content); m != nil {
			prof.EmployeeCount = strings.TrimSpace(m[1])
		}
		if m := industryRe.FindStringSubmatch(r.Content); m != nil {
			prof.Industry = strings.TrimSpace(m[1])
		}
		return prof, nil
	}

	slug := strings.ToLower(strings.ReplaceAll(org, " ", "-"))
	return &analysis.CompanyProfile{
		CompanyURL:    "https://www.linkedin.com/company/" + slug,
		Found:         false,
		EmployeeCount: notAvailable,
		Industry:      notAvailable,
	}, nil
}

// companyPage returns the canonical company URL when raw points at a
// LinkedIn company page.
func companyPage(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	if host != "linkedin.com" && !strings.HasSuffix(host, ".linkedin.com") {
		return "", false
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] != "company" || parts[1] == "" {
		return "", false
	}
	return "https://www.linkedin.com/company/" + parts[1], true
}
