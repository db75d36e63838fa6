package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/clinicore/chartfind/internal/domain"
	dompat "github.com/clinicore/chartfind/internal/domain/patient"
	healthuc "github.com/clinicore/chartfind/internal/usecase/health"
	patientuc "github.com/clinicore/chartfind/internal/usecase/patient"
	searchuc "github.com/clinicore/chartfind/internal/usecase/search"
)

// Error response codes.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeUnauthorized     = "unauthorized"
	codePatientNotFound  = "patient_not_found"
	codeInvalidCursor    = "invalid_cursor"
	codeInternalError    = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the search engine and patient CRUD over HTTP.
type Server struct {
	search        *searchuc.Service
	patients      *patientuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	patients *patientuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:   search,
		patients: patients,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrPatientNotFound, http.StatusNotFound, codePatientNotFound),
		sentinelHandler(domain.ErrInvalidPatient, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrInvalidCursor, http.StatusBadRequest, codeInvalidCursor),
	}
	return s
}

// Routes registers all API routes on the router.
func (s *Server) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/search", s.startSearch)
		r.Post("/search/more", s.loadMore)
		r.Post("/search/clear", s.clearSearch)
		r.Get("/search/results", s.searchResults)

		r.Post("/patients", s.createPatient)
		r.Get("/patients/{id}", s.getPatient)
		r.Put("/patients/{id}", s.updatePatient)
		r.Delete("/patients/{id}", s.deletePatient)
	})

	r.Get("/health", s.healthCheck)
	r.Get("/metrics", s.metrics)
}

type searchRequest struct {
	Term string `json:"term"`
}

type searchStateResponse struct {
	Term      string            `json:"term"`
	Items     []patientResponse `json:"items"`
	HasMore   bool              `json:"has_more"`
	IsLoading bool              `json:"is_loading"`
	Degraded  bool              `json:"degraded"`
}

// startSearch handles POST /api/v1/search.
func (s *Server) startSearch(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "no principal")
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	sess := s.search.Session(principal)
	sess.Search(r.Context(), req.Term)

	writeJSON(w, http.StatusOK, sessionToResponse(sess))
}

// loadMore handles POST /api/v1/search/more.
func (s *Server) loadMore(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "no principal")
		return
	}

	sess := s.search.Session(principal)
	sess.LoadMore(r.Context())

	writeJSON(w, http.StatusOK, sessionToResponse(sess))
}

// clearSearch handles POST /api/v1/search/clear.
func (s *Server) clearSearch(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "no principal")
		return
	}

	s.search.Session(principal).Clear()
	w.WriteHeader(http.StatusNoContent)
}

// searchResults handles GET /api/v1/search/results (polling accessor).
func (s *Server) searchResults(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "no principal")
		return
	}

	writeJSON(w, http.StatusOK, sessionToResponse(s.search.Session(principal)))
}

type patientRequest struct {
	Phone      string            `json:"phone,omitempty"`
	Identifier string            `json:"identifier,omitempty"`
	GivenName  string            `json:"given_name,omitempty"`
	FamilyName string            `json:"family_name"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

func (p patientRequest) toInput() patientuc.Input {
	return patientuc.Input{
		Phone:      p.Phone,
		Identifier: p.Identifier,
		GivenName:  p.GivenName,
		FamilyName: p.FamilyName,
		Attributes: p.Attributes,
	}
}

// createPatient handles POST /api/v1/patients.
func (s *Server) createPatient(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "no principal")
		return
	}

	var req patientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	p, err := s.patients.Create(r.Context(), principal, req.toInput())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.Header().Set("Location", "/api/v1/patients/"+p.ID())
	writeJSON(w, http.StatusCreated, patientToResponse(&p))
}

// getPatient handles GET /api/v1/patients/{id}.
func (s *Server) getPatient(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "no principal")
		return
	}

	p, err := s.patients.Get(r.Context(), chi.URLParam(r, "id"), principal)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, patientToResponse(&p))
}

// updatePatient handles PUT /api/v1/patients/{id}.
func (s *Server) updatePatient(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "no principal")
		return
	}

	var req patientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	p, err := s.patients.Update(r.Context(), chi.URLParam(r, "id"), principal, req.toInput())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, patientToResponse(&p))
}

// deletePatient handles DELETE /api/v1/patients/{id}.
func (s *Server) deletePatient(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "no principal")
		return
	}

	if err := s.patients.Delete(r.Context(), chi.URLParam(r, "id"), principal); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// healthCheck handles GET /health.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// metrics handles GET /metrics.
func (s *Server) metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

type patientResponse struct {
	ID         string            `json:"id"`
	Phone      string            `json:"phone,omitempty"`
	Identifier string            `json:"identifier,omitempty"`
	GivenName  string            `json:"given_name,omitempty"`
	FamilyName string            `json:"family_name"`
	Attributes map[string]string `json:"attributes,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

func patientToResponse(p *dompat.Patient) patientResponse {
	return patientResponse{
		ID:         p.ID(),
		Phone:      p.Phone(),
		Identifier: p.Identifier(),
		GivenName:  p.GivenName(),
		FamilyName: p.FamilyName(),
		Attributes: p.Attributes(),
		CreatedAt:  time.UnixMilli(p.CreatedAt()).UTC(),
	}
}

func sessionToResponse(sess *searchuc.Session) searchStateResponse {
	results := sess.Results()
	items := make([]patientResponse, len(results))
	for i := range results {
		items[i] = patientToResponse(&results[i])
	}
	return searchStateResponse{
		Term:      sess.Term(),
		Items:     items,
		HasMore:   sess.HasMore(),
		IsLoading: sess.IsLoading(),
		Degraded:  sess.Degraded(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrPatientNotFound,
		domain.ErrInvalidPatient,
		domain.ErrInvalidCursor,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
