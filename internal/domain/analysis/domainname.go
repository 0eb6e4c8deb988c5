package analysis

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var labelRe = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

// NormalizeDomain reduces user input to a bare lower-case ASCII hostname:
// scheme, path, port and a leading "www." are dropped.
func NormalizeDomain(raw string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndex(s, "@"); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.IndexByte(s, ':'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSuffix(s, ".")
	s = strings.TrimPrefix(s, "www.")
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidDomain)
	}

	ascii, err := idna.Lookup.ToASCII(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidDomain, raw, err)
	}
	if len(ascii) > 253 {
		return "", fmt.Errorf("%w: %q is too long", ErrInvalidDomain, raw)
	}
	labels := strings.Split(ascii, ".")
	if len(labels) < 2 {
		return "", fmt.Errorf("%w: %q has no top-level domain", ErrInvalidDomain, raw)
	}
	for _, l := range labels {
		if !labelRe.MatchString(l) {
			return "", fmt.Errorf("%w: bad label %q", ErrInvalidDomain, l)
		}
	}
	tld := labels[len(labels)-1]
	if !strings.HasPrefix(tld, "xn--") && strings.Trim(tld, "abcdefghijklmnopqrstuvwxyz") != "" {
		return "", fmt.Errorf("%w: bad top-level domain %q", ErrInvalidDomain, tld)
	}
	return ascii, nil
}

// OrganizationName guesses the company name from the registrable label of
// a domain, e.g. "shop.example.co.uk" -> "Example".
func OrganizationName(domain string) string {
	base := domain
	if etld1, err := publicsuffix.EffectiveTLDPlusOne(domain); err == nil {
		base = etld1
	}
	label, _, _ := strings.Cut(base, ".")
	if u, err := idna.Lookup.ToUnicode(label); err == nil {
		label = u
	}
	return cases.Title(language.English).String(label)
}
