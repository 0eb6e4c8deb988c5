package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultUserAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultMaxContent = 5000
	maxBodyBytes      = 5 << 20
)

// Direct fetches the page with a plain HTTP GET and parses the HTML itself.
type Direct struct {
	Client     *http.Client
	UserAgent  string
	MaxContent int
}

func NewDirect(timeout time.Duration, userAgent string, maxContent int) *Direct {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	if maxContent <= 0 {
		maxContent = defaultMaxContent
	}
	return &Direct{
		Client:     &http.Client{Timeout: timeout},
		UserAgent:  userAgent,
		MaxContent: maxContent,
	}
}

func (d *Direct) Name() string { return MethodDirect }

func (d *Direct) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", d.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	res, err := d.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return &Page{StatusCode: res.StatusCode}, fmt.Errorf("unexpected status %d", res.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return &Page{StatusCode: res.StatusCode}, fmt.Errorf("read body: %w", err)
	}

	final := res.Request.URL
	if final == nil {
		final, _ = url.Parse(pageURL)
	}
	out, err := Extract(body, final, d.MaxContent)
	if err != nil {
		return &Page{StatusCode: res.StatusCode}, fmt.Errorf("parse html: %w", err)
	}
	out.Page.StatusCode = res.StatusCode
	return &Page{StatusCode: res.StatusCode, Result: out}, nil
}
