package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/bryanwahyu/domain-intel/internal/domain/analysis"
)

const samplePage = `<!DOCTYPE html>
<html lang="en">
<head>
<title> Acme | Widgets for everyone </title>
<meta property="og:description" content="Widgets, fast.">
<meta property="og:title" content="Acme">
<meta name="twitter:card" content="summary">
<meta name="keywords" content="widgets, gadgets">
<script>var x = 1;</script>
</head>
<body>
<header><a href="/">Home</a></header>
<nav><a href="/pricing">Pricing</a><a href="https://other.com/x">Other</a></nav>
<h1>Build with Acme</h1>
<h2>Fast widgets</h2>
<h3></h3>
<article><p>Acme builds industrial widgets for manufacturers around the world. Our widgets ship in days and last for decades.</p>
<p>Thousands of factories rely on Acme every day to keep their lines running.</p>
<a href="/about#team">About</a><a href="mailto:hi@acme.test">Mail</a></article>
<footer>Copyright</footer>
</body>
</html>`

func TestExtract(t *testing.T) {
	t.Parallel()

	u, _ := url.Parse("https://acme.test/")
	res, err := Extract([]byte(samplePage), u, 5000)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	p := res.Page
	if p.Title != "Acme | Widgets for everyone" {
		t.Errorf("Title = %q", p.Title)
	}
	if p.Description != "Widgets, fast." {
		t.Errorf("Description = %q (og fallback)", p.Description)
	}
	if len(p.Headings) != 2 || p.Headings[0] != "Build with Acme" {
		t.Errorf("Headings = %v", p.Headings)
	}
	for _, l := range p.Links {
		if strings.Contains(l, "other.com") || strings.HasPrefix(l, "mailto:") {
			t.Errorf("external link kept: %s", l)
		}
	}
	if !contains(p.Links, "https://acme.test/about") {
		t.Errorf("Links = %v", p.Links)
	}
	if !strings.Contains(p.Content, "industrial widgets") {
		t.Errorf("Content = %q", p.Content)
	}
	if strings.Contains(p.Content, "var x") {
		t.Error("script text leaked into content")
	}
	if res.Metadata.OGTags["og:title"] != "Acme" || res.Metadata.TwitterTags["twitter:card"] != "summary" {
		t.Errorf("Metadata = %+v", res.Metadata)
	}
	if res.Metadata.Keywords != "widgets, gadgets" || p.Language != "en" {
		t.Errorf("keywords/lang = %q/%q", res.Metadata.Keywords, p.Language)
	}
}

func TestExtractTruncatesContent(t *testing.T) {
	t.Parallel()
	u, _ := url.Parse("https://acme.test/")
	html := "<html><body><p>" + strings.Repeat("word ", 3000) + "</p></body></html>"
	res, err := Extract([]byte(html), u, 100)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if n := len([]rune(res.Page.Content)); n != 100 {
		t.Errorf("content length = %d, want 100", n)
	}
}

func TestDirectFetch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		if !strings.HasPrefix(r.UserAgent(), "Mozilla/5.0") {
			t.Errorf("User-Agent = %q", r.UserAgent())
		}
		_, _ = w.Write([]byte(samplePage))
	}))
	t.Cleanup(srv.Close)

	d := NewDirect(time.Second, "", 0)
	page, err := d.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if page.StatusCode != http.StatusOK || page.Result.Page.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d", page.StatusCode)
	}

	page, err = d.Fetch(context.Background(), srv.URL+"/missing")
	if err == nil {
		t.Fatal("Fetch() expected error for 404")
	}
	if page == nil || page.StatusCode != http.StatusNotFound {
		t.Errorf("404 status not reported: %+v", page)
	}
}

func TestFirecrawlFetch(t *testing.T) {
	t.Parallel()

	var got firecrawlRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/scrape" || r.Header.Get("Authorization") != "Bearer fc-key" {
			t.Errorf("unexpected request %s %s", r.URL.Path, r.Header.Get("Authorization"))
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"success":true,"data":{"markdown":"# Shopify\n\nSell anywhere. [Pricing](https://shopify.com/pricing) [X](https://x.com/a)\n\n## Plans\n","metadata":{"title":"Shopify","ogDescription":"Commerce","sourceURL":"https://shopify.com","statusCode":200,"ogTitle":"Shopify"}}}`))
	}))
	t.Cleanup(srv.Close)

	f := NewFirecrawl("fc-key", srv.URL, time.Second, 0)
	page, err := f.Fetch(context.Background(), "https://shopify.com")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got.URL != "https://shopify.com" || !got.OnlyMainContent {
		t.Errorf("request = %+v", got)
	}
	p := page.Result.Page
	if p.Description != "Commerce" || p.StatusCode != 200 {
		t.Errorf("page = %+v", p)
	}
	if len(p.Headings) != 2 || p.Headings[1] != "Plans" {
		t.Errorf("Headings = %v", p.Headings)
	}
	if len(p.Links) != 1 || p.Links[0] != "https://shopify.com/pricing" {
		t.Errorf("Links = %v", p.Links)
	}
	if page.Result.Metadata.OGTags["og:title"] != "Shopify" {
		t.Errorf("OGTags = %v", page.Result.Metadata.OGTags)
	}
}

func TestFirecrawlFailure(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"success":false,"error":"Insufficient credits"}`))
	}))
	t.Cleanup(srv.Close)

	if _, err := NewFirecrawl("k", srv.URL, time.Second, 0).Fetch(context.Background(), "https://a.test"); err == nil {
		t.Error("Fetch() expected error on 402")
	}
}

type fakeProvider struct {
	name  string
	page  *Page
	err   error
	calls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Fetch(_ context.Context, _ string) (*Page, error) {
	f.calls++
	return f.page, f.err
}

func okPage(content string) *Page {
	return &Page{StatusCode: 200, Result: &analysis.FetchResult{Page: analysis.PageContent{Content: content}}}
}

func TestFallback(t *testing.T) {
	t.Parallel()

	t.Run("primary succeeds", func(t *testing.T) {
		t.Parallel()
		primary := &fakeProvider{name: MethodFirecrawl, page: okPage("hello")}
		secondary := &fakeProvider{name: MethodDirect, page: okPage("fallback")}
		res, err := (&Fallback{Primary: primary, Secondary: secondary}).Fetch(context.Background(), "acme.test")
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if res.Method != MethodFirecrawl || secondary.calls != 0 {
			t.Errorf("method = %s, secondary calls = %d", res.Method, secondary.calls)
		}
		if len(res.Attempts) != 1 || res.Attempts[0].URL != "https://acme.test" {
			t.Errorf("Attempts = %+v", res.Attempts)
		}
	})

	t.Run("empty primary falls back", func(t *testing.T) {
		t.Parallel()
		primary := &fakeProvider{name: MethodFirecrawl, page: okPage("   ")}
		secondary := &fakeProvider{name: MethodDirect, page: okPage("fallback")}
		res, err := (&Fallback{Primary: primary, Secondary: secondary}).Fetch(context.Background(), "acme.test")
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if res.Method != MethodDirect || len(res.Attempts) != 2 {
			t.Errorf("method = %s, attempts = %d", res.Method, len(res.Attempts))
		}
		if !errors.Is(res.Attempts[0].Err, errEmptyContent) {
			t.Errorf("first attempt error = %v", res.Attempts[0].Err)
		}
	})

	t.Run("non-2xx primary falls back", func(t *testing.T) {
		t.Parallel()
		p := okPage("blocked page")
		p.StatusCode = 403
		primary := &fakeProvider{name: MethodFirecrawl, page: p}
		secondary := &fakeProvider{name: MethodDirect, page: okPage("ok")}
		res, err := (&Fallback{Primary: primary, Secondary: secondary}).Fetch(context.Background(), "acme.test")
		if err != nil || res.Method != MethodDirect {
			t.Fatalf("Fetch() = %v, %v", res, err)
		}
		if res.Attempts[0].StatusCode != 403 {
			t.Errorf("attempt status = %d", res.Attempts[0].StatusCode)
		}
	})

	t.Run("both fail", func(t *testing.T) {
		t.Parallel()
		e1, e2 := errors.New("402"), errors.New("no such host")
		f := &Fallback{
			Primary:   &fakeProvider{name: MethodFirecrawl, err: e1},
			Secondary: &fakeProvider{name: MethodDirect, err: e2},
		}
		_, err := f.Fetch(context.Background(), "nonexistent-xyz123.test")
		if !errors.Is(err, analysis.ErrFetchUnavailable) || !errors.Is(err, e1) || !errors.Is(err, e2) {
			t.Errorf("Fetch() error = %v", err)
		}
		if len(analysis.AttemptsOf(err)) != 2 {
			t.Errorf("attempts = %+v", analysis.AttemptsOf(err))
		}
	})

	t.Run("secondary only", func(t *testing.T) {
		t.Parallel()
		res, err := (&Fallback{Secondary: &fakeProvider{name: MethodDirect, page: okPage("x")}}).Fetch(context.Background(), "a.test")
		if err != nil || res.Method != MethodDirect {
			t.Errorf("Fetch() = %v, %v", res, err)
		}
	})
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
