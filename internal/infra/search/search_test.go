package search

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTavilySearch(t *testing.T) {
	t.Parallel()

	var got tavilyRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer key" {
			t.Errorf("missing bearer token")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"query":"q","results":[{"title":"Shopify news","url":"https://news.example.com/a","content":"c","score":0.9,"published_date":"2026-01-02"}]}`))
	}))
	t.Cleanup(srv.Close)

	c := NewTavily("key", srv.URL, time.Second)
	res, err := c.Search(context.Background(), &Request{Query: "Shopify company", Topic: "news"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(res.Results) != 1 || res.Results[0].PublishedDate != "2026-01-02" {
		t.Errorf("unexpected results %+v", res.Results)
	}
	if got.Topic != "news" || got.MaxResults != 5 || got.SearchDepth != "basic" {
		t.Errorf("unexpected request %+v", got)
	}
}

func TestTavilySearchError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	if _, err := NewTavily("key", srv.URL, time.Second).Search(context.Background(), &Request{Query: "x"}); err == nil {
		t.Error("Search() expected error on 401")
	}
}

func TestSearXNGSearch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" || r.URL.Query().Get("format") != "json" {
			t.Errorf("unexpected request %s", r.URL)
		}
		if r.URL.Query().Get("categories") != "news" {
			t.Errorf("categories = %q", r.URL.Query().Get("categories"))
		}
		_, _ = w.Write([]byte(`{"query":"q","results":[{"title":"a","url":"u1"},{"title":"b","url":"u2"},{"title":"c","url":"u3"}]}`))
	}))
	t.Cleanup(srv.Close)

	res, err := NewSearXNG(srv.URL, time.Second).Search(context.Background(), &Request{Query: "q", Topic: "news", MaxResults: 2})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(res.Results) != 2 {
		t.Errorf("len(Results) = %d, want 2", len(res.Results))
	}
}

func TestSearXNGKeepsBasePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		basePath string
		wantPath string
	}{
		{"root", "", "/search"},
		{"trailing slash", "/", "/search"},
		{"mounted", "/searx", "/searx/search"},
		{"mounted with slash", "/tools/searx/", "/tools/searx/search"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			paths := make(chan string, 1)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				paths <- r.URL.Path
				_, _ = w.Write([]byte(`{"query":"q","results":[]}`))
			}))
			t.Cleanup(srv.Close)

			if _, err := NewSearXNG(srv.URL+tt.basePath, time.Second).Search(context.Background(), &Request{Query: "q"}); err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if gotPath := <-paths; gotPath != tt.wantPath {
				t.Errorf("path = %q, want %q", gotPath, tt.wantPath)
			}
		})
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	if _, err := New(Options{}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("New(empty) error = %v", err)
	}
	if _, err := New(Options{Provider: "searxng"}); err == nil {
		t.Error("New(searxng without url) expected error")
	}
	if _, err := New(Options{Provider: "bing"}); err == nil {
		t.Error("New(unknown) expected error")
	}
	s, err := New(Options{TavilyAPIKey: "k", RequestsPerMinute: 60})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, ok := s.(*limited); !ok {
		t.Errorf("New() with pacing returned %T", s)
	}
}
