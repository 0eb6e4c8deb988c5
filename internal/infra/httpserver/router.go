package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	appanalysis "github.com/bryanwahyu/domain-intel/internal/application/analysis"
	domai "github.com/bryanwahyu/domain-intel/internal/domain/ai"
	domain "github.com/bryanwahyu/domain-intel/internal/domain/analysis"
	"github.com/bryanwahyu/domain-intel/internal/middleware"
)

const maxBodyBytes = 1 << 16

// Options configures the HTTP surface around the analysis service.
type Options struct {
	Log            *zap.Logger
	APIKeys        map[string]string
	AllowedOrigins []string
	RateLimiter    *middleware.RateLimiter
	Checkers       map[string]middleware.HealthChecker
}

type Router struct {
	svc *appanalysis.Service
	log *zap.Logger
}

func NewRouter(svc *appanalysis.Service, opts Options) http.Handler {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	r := &Router{svc: svc, log: log}
	mux := chi.NewRouter()

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization"},
		MaxAge:         300,
	}))
	mux.Use(middleware.Logging(log))
	mux.Use(middleware.Metrics)
	mux.Use(middleware.APIKeyAuth(opts.APIKeys))
	if opts.RateLimiter != nil {
		mux.Use(middleware.RateLimit(opts.RateLimiter))
	}

	mux.Get("/health", middleware.HealthHandler(opts.Checkers))
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/live", middleware.LivenessHandler)
	mux.Handle("/metrics", middleware.MetricsHandler())

	mux.Route("/api", func(rt chi.Router) {
		rt.Route("/analyses", func(rt chi.Router) {
			rt.Post("/", r.wrap(r.handleCreate))
			rt.Get("/", r.wrap(r.handleList))
			rt.Get("/{id}", r.wrap(r.handleGet))
			rt.Delete("/{id}", r.wrap(r.handleDelete))
			rt.Get("/{id}/status", r.wrap(r.handleStatus))
			rt.Get("/{id}/pdf", r.wrap(r.handleLink(appanalysis.ArtifactPDF)))
			rt.Get("/{id}/json", r.wrap(r.handleLink(appanalysis.ArtifactJSON)))
			rt.Get("/{id}/training", r.wrap(r.handleTrainingModules))
			rt.Get("/{id}/events", r.wrap(r.handleEvents))
		})
		rt.Get("/training", r.wrap(r.handleTrainingList))
		rt.Get("/training/{id}", r.wrap(r.handleTrainingGet))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// badRequest marks client input errors.
type badRequest struct{ err error }

func (e badRequest) Error() string { return e.err.Error() }
func (e badRequest) Unwrap() error { return e.err }

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		var br badRequest
		switch {
		case errors.As(err, &br), errors.Is(err, domain.ErrInvalidDomain):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "not found")
		case errors.Is(err, appanalysis.ErrNotGenerated):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, domain.ErrRunInProgress):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, domai.ErrQuotaExceeded):
			writeError(w, http.StatusTooManyRequests, "ai quota exceeded")
		default:
			r.log.Error("request failed",
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
	}
}

// POST /api/analyses
// Body: {"domain_name": "example.com"}
func (r *Router) handleCreate(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		DomainName string `json:"domain_name"`
	}
	dec := json.NewDecoder(io.LimitReader(req.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		return badRequest{fmt.Errorf("invalid request body: %w", err)}
	}
	name, err := middleware.ValidateDomain(body.DomainName)
	if err != nil {
		return badRequest{err}
	}

	res, err := r.svc.Create(req.Context(), name)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, res)
}

// GET /api/analyses?page=&page_size=
func (r *Router) handleList(w http.ResponseWriter, req *http.Request) error {
	page, size := pageParams(req)
	list, err := r.svc.List(req.Context(), page, size)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /api/analyses/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	id, err := pathID(req)
	if err != nil {
		return err
	}
	a, err := r.svc.Get(req.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, a)
}

// DELETE /api/analyses/{id}
func (r *Router) handleDelete(w http.ResponseWriter, req *http.Request) error {
	id, err := pathID(req)
	if err != nil {
		return err
	}
	if err := r.svc.Delete(req.Context(), id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// GET /api/analyses/{id}/status
func (r *Router) handleStatus(w http.ResponseWriter, req *http.Request) error {
	id, err := pathID(req)
	if err != nil {
		return err
	}
	st, err := r.svc.Status(req.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, st)
}

// GET /api/analyses/{id}/pdf
// GET /api/analyses/{id}/json
func (r *Router) handleLink(kind string) handlerFunc {
	return func(w http.ResponseWriter, req *http.Request) error {
		id, err := pathID(req)
		if err != nil {
			return err
		}
		a, err := r.svc.Status(req.Context(), id)
		if err != nil {
			return err
		}
		link, err := r.svc.Link(req.Context(), id, kind)
		if err != nil {
			if errors.Is(err, appanalysis.ErrNotGenerated) {
				writeError(w, http.StatusNotFound, kindLabel(kind)+" not yet generated")
				return nil
			}
			return err
		}
		return writeJSON(w, http.StatusOK, map[string]any{
			kind + "_url": link,
			"domain_name": a.DomainName,
		})
	}
}

// GET /api/analyses/{id}/training
func (r *Router) handleTrainingModules(w http.ResponseWriter, req *http.Request) error {
	id, err := pathID(req)
	if err != nil {
		return err
	}
	view, err := r.svc.TrainingModules(req.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, view)
}

// GET /api/analyses/{id}/events
func (r *Router) handleEvents(w http.ResponseWriter, req *http.Request) error {
	id, err := pathID(req)
	if err != nil {
		return err
	}
	events, err := r.svc.Events(req.Context(), id)
	if err != nil {
		return err
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return writeJSON(w, http.StatusOK, events)
}

// GET /api/training?analysis_id=&page=&page_size=
func (r *Router) handleTrainingList(w http.ResponseWriter, req *http.Request) error {
	var analysisID int64
	if raw := req.URL.Query().Get("analysis_id"); raw != "" {
		id, err := middleware.ValidateID(raw)
		if err != nil {
			return badRequest{err}
		}
		analysisID = id
	}
	page, size := pageParams(req)
	mods, err := r.svc.ListTraining(req.Context(), analysisID, page, size)
	if err != nil {
		return err
	}
	if mods == nil {
		mods = []*domain.TrainingModule{}
	}
	return writeJSON(w, http.StatusOK, mods)
}

// GET /api/training/{id}
func (r *Router) handleTrainingGet(w http.ResponseWriter, req *http.Request) error {
	id, err := pathID(req)
	if err != nil {
		return err
	}
	m, err := r.svc.GetTraining(req.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, m)
}

func pathID(req *http.Request) (int64, error) {
	id, err := middleware.ValidateID(chi.URLParam(req, "id"))
	if err != nil {
		return 0, badRequest{err}
	}
	return id, nil
}

func pageParams(req *http.Request) (int, int) {
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))
	return middleware.ValidatePage(page), middleware.ValidateLimit(size)
}

func kindLabel(kind string) string {
	if kind == appanalysis.ArtifactPDF {
		return "PDF"
	}
	return "JSON"
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
