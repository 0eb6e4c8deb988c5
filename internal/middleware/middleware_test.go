package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/bryanwahyu/domain-intel/internal/domain/analysis"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte(GetClientFromContext(r.Context())))
})

func TestAPIKeyAuth(t *testing.T) {
	t.Parallel()
	h := APIKeyAuth(map[string]string{"crm": "secret-1"})(okHandler)

	tests := []struct {
		name   string
		path   string
		header string
		want   int
		client string
	}{
		{"missing header", "/api/analyses", "", http.StatusUnauthorized, ""},
		{"wrong key", "/api/analyses", "Bearer nope", http.StatusUnauthorized, ""},
		{"bearer key", "/api/analyses", "Bearer secret-1", http.StatusOK, "crm"},
		{"bare key", "/api/analyses", "secret-1", http.StatusOK, "crm"},
		{"health is public", "/health", "", http.StatusOK, ""},
		{"metrics is public", "/metrics", "", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusOK && rec.Body.String() != tt.client {
				t.Errorf("client = %q, want %q", rec.Body.String(), tt.client)
			}
		})
	}

	t.Run("disabled without keys", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		APIKeyAuth(nil)(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analyses", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})
}

func TestRateLimit(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter(1, 2)
	defer rl.Close()
	h := RateLimit(rl)(okHandler)

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/api/analyses", nil)
		req.RemoteAddr = "203.0.113.9:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 200 429]", codes)
	}

	other := httptest.NewRequest(http.MethodGet, "/api/analyses", nil)
	other.RemoteAddr = "198.51.100.1:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, other)
	if rec.Code != http.StatusOK {
		t.Errorf("other client status = %d, want 200", rec.Code)
	}
}

func TestHealthHandler(t *testing.T) {
	t.Parallel()
	h := HealthHandler(map[string]HealthChecker{
		"database": CheckerFunc(func(context.Context) error { return nil }),
		"queue":    CheckerFunc(func(context.Context) error { return errors.New("connection refused") }),
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	var got HealthStatus
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Checks["database"].Status != "healthy" || got.Checks["queue"].Message != "connection refused" {
		t.Errorf("checks = %+v", got.Checks)
	}
}

func TestLoggingUsesRoutePattern(t *testing.T) {
	t.Parallel()
	core, logs := observer.New(zap.InfoLevel)
	r := chi.NewRouter()
	r.Use(Logging(zap.New(core)), Metrics)
	r.Get("/api/analyses/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/analyses/42", nil))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("log entries = %d, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["route"] != "/api/analyses/{id}" || fields["status"] != int64(404) {
		t.Errorf("fields = %v", fields)
	}
	if entries[0].Level != zap.WarnLevel {
		t.Errorf("level = %v, want warn", entries[0].Level)
	}
}

func TestLoggingRecordsAuthenticatedClient(t *testing.T) {
	t.Parallel()
	core, logs := observer.New(zap.InfoLevel)
	r := chi.NewRouter()
	r.Use(Logging(zap.New(core)), APIKeyAuth(map[string]string{"acme": "secret"}))
	r.Get("/api/analyses", okHandler)

	tests := []struct {
		name       string
		auth       string
		wantClient string
	}{
		{"valid key", "Bearer secret", "acme"},
		{"bad key", "Bearer nope", ""},
	}
	for i, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/analyses", nil)
		req.Header.Set("Authorization", tt.auth)
		r.ServeHTTP(httptest.NewRecorder(), req)

		entries := logs.All()
		if len(entries) != i+1 {
			t.Fatalf("%s: log entries = %d, want %d", tt.name, len(entries), i+1)
		}
		got, _ := entries[i].ContextMap()["client"].(string)
		if got != tt.wantClient {
			t.Errorf("%s: client = %q, want %q", tt.name, got, tt.wantClient)
		}
	}
}

func TestValidateDomain(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"shopify.com", "shopify.com", true},
		{" https://WWW.Shopify.com/ ", "shopify.com", true},
		{"printer.local", "", false},
		{"localhost", "", false},
		{"10.0.0.1", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ValidateDomain(tt.in)
			if (err == nil) != tt.ok {
				t.Fatalf("ValidateDomain(%q) error = %v", tt.in, err)
			}
			if !tt.ok && !errors.Is(err, analysis.ErrInvalidDomain) {
				t.Errorf("error = %v, want ErrInvalidDomain", err)
			}
			if got != tt.want {
				t.Errorf("ValidateDomain(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidateID(t *testing.T) {
	t.Parallel()
	for raw, want := range map[string]int64{"1": 1, "42": 42} {
		if got, err := ValidateID(raw); err != nil || got != want {
			t.Errorf("ValidateID(%q) = %d, %v", raw, got, err)
		}
	}
	for _, raw := range []string{"", "0", "-3", "abc", "1.5"} {
		if _, err := ValidateID(raw); err == nil {
			t.Errorf("ValidateID(%q) error = nil", raw)
		}
	}
	if ValidateLimit(0) != 20 || ValidateLimit(500) != 100 || ValidatePage(-1) != 1 {
		t.Error("pagination defaults changed")
	}
}
