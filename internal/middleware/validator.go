package middleware

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bryanwahyu/domain-intel/internal/domain/analysis"
)

// Input validation and sanitization utilities

// internal suffixes never resolve to a public company site
var blockedSuffixes = []string{".local", ".localhost", ".internal", ".intranet", ".lan", ".home.arpa"}

// ValidateDomain normalizes a user supplied domain and rejects internal names.
func ValidateDomain(raw string) (string, error) {
	name, err := analysis.NormalizeDomain(SanitizeString(raw))
	if err != nil {
		return "", err
	}
	for _, s := range blockedSuffixes {
		if strings.HasSuffix(name, s) {
			return "", fmt.Errorf("%w: internal names are not allowed", analysis.ErrInvalidDomain)
		}
	}
	return name, nil
}

// ValidateID parses a positive numeric id from a path parameter.
func ValidateID(raw string) (int64, error) {
	if raw == "" {
		return 0, fmt.Errorf("id cannot be empty")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}

// ValidatePage validates the 1-based page number.
func ValidatePage(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}
