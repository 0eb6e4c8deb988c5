package fetch

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/bryanwahyu/domain-intel/internal/domain/analysis"
)

const firecrawlURL = "https://api.firecrawl.dev"

var mdLinkRe = regexp.MustCompile(`\]\((https?://[^)\s]+)\)`)

// Firecrawl renders and cleans the page through the Firecrawl scrape API.
type Firecrawl struct {
	APIKey     string
	BaseURL    string
	Client     *http.Client
	MaxContent int
}

func NewFirecrawl(apiKey, baseURL string, timeout time.Duration, maxContent int) *Firecrawl {
	if baseURL == "" {
		baseURL = firecrawlURL
	}
	if maxContent <= 0 {
		maxContent = defaultMaxContent
	}
	return &Firecrawl{
		APIKey:     apiKey,
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Client:     &http.Client{Timeout: timeout},
		MaxContent: maxContent,
	}
}

func (f *Firecrawl) Name() string { return MethodFirecrawl }

type firecrawlRequest struct {
	URL             string   `json:"url"`
	Formats         []string `json:"formats"`
	OnlyMainContent bool     `json:"onlyMainContent"`
}

type firecrawlResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Data    struct {
		Markdown string `json:"markdown"`
		Metadata struct {
			Title         string `json:"title"`
			Description   string `json:"description"`
			Keywords      string `json:"keywords"`
			Language      string `json:"language"`
			OGTitle       string `json:"ogTitle"`
			OGDescription string `json:"ogDescription"`
			OGImage       string `json:"ogImage"`
			OGURL         string `json:"ogUrl"`
			SourceURL     string `json:"sourceURL"`
			StatusCode    int    `json:"statusCode"`
		} `json:"metadata"`
	} `json:"data"`
}

func (f *Firecrawl) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	payload, err := json.Marshal(firecrawlRequest{URL: pageURL, Formats: []string{"markdown"}, OnlyMainContent: true})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.BaseURL+"/v1/scrape", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+f.APIKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("firecrawl request: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("firecrawl read body: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("firecrawl api error (status %d): %s", res.StatusCode, truncateRunes(string(raw), 200))
	}

	var fr firecrawlResponse
	if err := json.Unmarshal(raw, &fr); err != nil {
		return nil, fmt.Errorf("firecrawl decode: %w", err)
	}
	if !fr.Success {
		return nil, fmt.Errorf("firecrawl: %s", fr.Error)
	}

	md := fr.Data.Metadata
	src := md.SourceURL
	if src == "" {
		src = pageURL
	}
	page := analysis.PageContent{
		URL:         src,
		StatusCode:  md.StatusCode,
		Title:       md.Title,
		Description: md.Description,
		Content:     truncateRunes(strings.TrimSpace(fr.Data.Markdown), f.MaxContent),
		Headings:    markdownHeadings(fr.Data.Markdown),
		Links:       markdownLinks(src, fr.Data.Markdown),
		Language:    md.Language,
	}
	if page.Description == "" {
		page.Description = md.OGDescription
	}
	og := map[string]string{}
	for k, v := range map[string]string{
		"og:title": md.OGTitle, "og:description": md.OGDescription,
		"og:image": md.OGImage, "og:url": md.OGURL,
	} {
		if v != "" {
			og[k] = v
		}
	}

	return &Page{
		StatusCode: md.StatusCode,
		Result: &analysis.FetchResult{
			Page:     page,
			Metadata: analysis.PageMetadata{OGTags: og, TwitterTags: map[string]string{}, Keywords: md.Keywords},
		},
	}, nil
}

func markdownHeadings(md string) []string {
	var out []string
	sc := bufio.NewScanner(strings.NewReader(md))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() && len(out) < maxHeadings {
		line := strings.TrimSpace(sc.Text())
		for _, p := range []string{"### ", "## ", "# "} {
			if strings.HasPrefix(line, p) {
				if h := squash(strings.TrimPrefix(line, p)); h != "" {
					out = append(out, h)
				}
				break
			}
		}
	}
	return out
}

func markdownLinks(base, md string) []string {
	u, err := url.Parse(base)
	if err != nil {
		return nil
	}
	var out []string
	seen := map[string]bool{}
	for _, m := range mdLinkRe.FindAllStringSubmatch(md, -1) {
		if link, ok := internalLink(u, m[1]); ok && !seen[link] {
			seen[link] = true
			out = append(out, link)
			if len(out) == maxLinks {
				break
			}
		}
	}
	return out
}
