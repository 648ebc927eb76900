package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kinotech/filmdex/internal/domain"
	"github.com/kinotech/filmdex/internal/metrics"
)

// Error codes returned in the JSON error body.
const (
	codeBadRequest    = "bad_request"
	codeNotFound      = "not_found"
	codeInternalError = "internal_error"
	codeUnauthorized  = "unauthorized"
)

// Films is the film read service consumed by the HTTP layer.
type Films interface {
	Get(ctx context.Context, id string) (domain.FilmDetails, error)
	List(ctx context.Context, size int, sortSpec string) ([]domain.FilmSummary, error)
}

// Persons is the person read service consumed by the HTTP layer.
type Persons interface {
	GetByID(ctx context.Context, id string) (domain.Person, error)
	ListPage(ctx context.Context, page, size int) ([]domain.Person, error)
	Search(ctx context.Context, query string) ([]domain.Person, error)
}

// Pinger reports store liveness for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Warmer reports whether the startup warmup pass has finished.
type Warmer interface {
	Warmed() bool
}

// Server exposes the read API over chi.
type Server struct {
	films   Films
	persons Persons
	store   Pinger
	warmer  Warmer
	apiKeys []string
	logger  *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(films Films, persons Persons, store Pinger, warmer Warmer, logger *zap.Logger) *Server {
	return &Server{
		films:   films,
		persons: persons,
		store:   store,
		warmer:  warmer,
		logger:  logger,
	}
}

// WithAPIKeys enables bearer-token authentication on the API routes.
func (s *Server) WithAPIKeys(keys []string) *Server {
	s.apiKeys = keys
	return s
}

// Router assembles the full middleware chain and route table.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(s.apiKeys))
	r.Use(metrics.Middleware())

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/films", s.ListFilms)
		r.Get("/films/{id}", s.GetFilm)
		r.Get("/persons", s.ListPersons)
		r.Get("/persons/search", s.SearchPersons)
		r.Get("/persons/{id}", s.GetPerson)
	})

	return r
}

// GetFilm handles GET /api/v1/films/{id}.
func (s *Server) GetFilm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	film, err := s.films.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, film)
}

// ListFilms handles GET /api/v1/films. Accepts size and sort query
// parameters; sort is "[-]field" with a leading '-' for descending.
func (s *Server) ListFilms(w http.ResponseWriter, r *http.Request) {
	size, ok := intQuery(w, r, "size", 0)
	if !ok {
		return
	}
	sortSpec := r.URL.Query().Get("sort")

	films, err := s.films.List(r.Context(), size, sortSpec)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if films == nil {
		films = []domain.FilmSummary{}
	}

	writeJSON(w, http.StatusOK, films)
}

// GetPerson handles GET /api/v1/persons/{id}.
func (s *Server) GetPerson(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	person, err := s.persons.GetByID(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, person)
}

// ListPersons handles GET /api/v1/persons with page and size parameters.
func (s *Server) ListPersons(w http.ResponseWriter, r *http.Request) {
	page, ok := intQuery(w, r, "page", 1)
	if !ok {
		return
	}
	size, ok := intQuery(w, r, "size", 50)
	if !ok {
		return
	}

	persons, err := s.persons.ListPage(r.Context(), page, size)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if persons == nil {
		persons = []domain.Person{}
	}

	writeJSON(w, http.StatusOK, persons)
}

// SearchPersons handles GET /api/v1/persons/search?query=.
func (s *Server) SearchPersons(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")

	persons, err := s.persons.Search(r.Context(), query)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if persons == nil {
		persons = []domain.Person{}
	}

	writeJSON(w, http.StatusOK, persons)
}

// HealthCheck handles GET /health. The store check gates readiness;
// warmup status is reported but never fails the check, readers work
// without it.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	httpStatus := http.StatusOK
	checks := map[string]string{}

	if err := s.store.Ping(r.Context()); err != nil {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
		checks["store"] = "down"
		s.logger.Warn("health check failed", zap.Error(err))
	} else {
		checks["store"] = "ok"
	}

	if s.warmer != nil && s.warmer.Warmed() {
		checks["warmup"] = "done"
	} else {
		checks["warmup"] = "pending"
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": status,
		"checks": checks,
	})
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrPersonNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, sentinelMessage(err))
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, codeBadRequest, sentinelMessage(err))
	default:
		s.logger.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

// sentinelMessage returns the sentinel's message without exposing the
// wrapped internals to the client.
func sentinelMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrPersonNotFound,
		domain.ErrInvalidArgument,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// intQuery parses an optional non-negative integer query parameter,
// writing a 400 response on malformed input.
func intQuery(w http.ResponseWriter, r *http.Request, name string, fallback int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		writeError(w, http.StatusBadRequest, codeBadRequest, name+" must be a non-negative integer")
		return 0, false
	}
	return v, true
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}
