package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/clinicore/chartfind/internal/domain"
	dompat "github.com/clinicore/chartfind/internal/domain/patient"
	"github.com/clinicore/chartfind/internal/domain/search/cursor"
	"github.com/clinicore/chartfind/internal/domain/search/page"
	healthuc "github.com/clinicore/chartfind/internal/usecase/health"
	patientuc "github.com/clinicore/chartfind/internal/usecase/patient"
	searchuc "github.com/clinicore/chartfind/internal/usecase/search"
)

// stubRepo backs both the search and patient services in handler tests.
type stubRepo struct {
	patients map[string]dompat.Patient
}

func newStubRepo() *stubRepo {
	return &stubRepo{patients: make(map[string]dompat.Patient)}
}

func (s *stubRepo) pageForPrincipal(principal string) page.Page {
	var matched []dompat.Patient
	for _, p := range s.patients {
		if p.Principal() == principal {
			matched = append(matched, p)
		}
	}
	return page.New(matched, cursor.Zero, false)
}

func (s *stubRepo) PhonePrefix(_ context.Context, principal, _ string, _ cursor.Cursor, _ int) (page.Page, error) {
	return s.pageForPrincipal(principal), nil
}

func (s *stubRepo) IdentifierPrefix(_ context.Context, principal, _ string, _ cursor.Cursor, _ int) (page.Page, error) {
	return s.pageForPrincipal(principal), nil
}

func (s *stubRepo) NamePrefix(_ context.Context, principal, _ string, _ cursor.Cursor, _ int) (page.Page, error) {
	return s.pageForPrincipal(principal), nil
}

func (s *stubRepo) NameContains(_ context.Context, principal, _ string, _ cursor.Cursor, _ int) (page.Page, error) {
	return s.pageForPrincipal(principal), nil
}

func (s *stubRepo) GetByID(_ context.Context, id string) (dompat.Patient, error) {
	p, ok := s.patients[id]
	if !ok {
		return dompat.Patient{}, domain.ErrPatientNotFound
	}
	return p, nil
}

func (s *stubRepo) Upsert(_ context.Context, p *dompat.Patient) (bool, error) {
	_, existed := s.patients[p.ID()]
	s.patients[p.ID()] = *p
	return !existed, nil
}

func (s *stubRepo) Delete(_ context.Context, id string) error {
	if _, ok := s.patients[id]; !ok {
		return domain.ErrPatientNotFound
	}
	delete(s.patients, id)
	return nil
}

type noopCache struct{}

func (noopCache) Get(_, _ string) (dompat.Patient, bool) { return dompat.Patient{}, false }
func (noopCache) Put(_ dompat.Patient)                   {}
func (noopCache) Invalidate(_ string)                    {}

type okPinger struct{}

func (okPinger) Ping(_ context.Context) error { return nil }

func newTestRouter(t *testing.T) (http.Handler, *stubRepo) {
	t.Helper()
	repo := newStubRepo()
	cache := noopCache{}

	server := NewServer(
		searchuc.New(repo, cache, zap.NewNop(), 20),
		patientuc.New(repo, cache),
		healthuc.New(okPinger{}),
		zap.NewNop(),
	)

	r := chirouter.NewRouter()
	r.Use(BearerAuthMiddleware(nil)) // all requests run as DefaultPrincipal
	server.Routes(r)
	return r, repo
}

func seedPatient(t *testing.T, repo *stubRepo, id string) dompat.Patient {
	t.Helper()
	p, err := dompat.New(id, dompat.OwnerOf(id), "15551234567", "mrn-1", "Jane", "Doe", nil, 1700000000000)
	if err != nil {
		t.Fatalf("seedPatient: %v", err)
	}
	repo.patients[id] = p
	return p
}

func TestStartSearch_ReturnsMergedState(t *testing.T) {
	router, repo := newTestRouter(t)
	seedPatient(t, repo, DefaultPrincipal+":a")

	body := strings.NewReader(`{"term": "doe"}`)
	req := httptest.NewRequest("POST", "/api/v1/search", body)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp searchStateResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Term != "doe" {
		t.Errorf("unexpected term %q", resp.Term)
	}
	if len(resp.Items) != 1 || resp.Items[0].ID != DefaultPrincipal+":a" {
		t.Errorf("unexpected items: %+v", resp.Items)
	}
	if resp.HasMore {
		t.Error("expected no more pages")
	}
}

func TestClearSearch_EmptiesSession(t *testing.T) {
	router, repo := newTestRouter(t)
	seedPatient(t, repo, DefaultPrincipal+":a")

	req := httptest.NewRequest("POST", "/api/v1/search", strings.NewReader(`{"term": "doe"}`))
	router.ServeHTTP(httptest.NewRecorder(), req)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("POST", "/api/v1/search/clear", http.NoBody))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/search/results", http.NoBody))

	var resp searchStateResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Items) != 0 || resp.Term != "" {
		t.Errorf("expected cleared session, got %+v", resp)
	}
}

func TestCreatePatient_Created(t *testing.T) {
	router, _ := newTestRouter(t)

	body := strings.NewReader(`{"phone": "+1 555 123 4567", "family_name": "Doe"}`)
	req := httptest.NewRequest("POST", "/api/v1/patients", body)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if loc := rr.Header().Get("Location"); !strings.HasPrefix(loc, "/api/v1/patients/"+DefaultPrincipal+":") {
		t.Errorf("unexpected Location %q", loc)
	}

	var resp patientResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Phone != "15551234567" {
		t.Errorf("phone not normalized: %q", resp.Phone)
	}
}

func TestCreatePatient_ValidationFailed(t *testing.T) {
	router, _ := newTestRouter(t)

	body := strings.NewReader(`{"given_name": "Jane"}`)
	req := httptest.NewRequest("POST", "/api/v1/patients", body)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}

	var resp errorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Code != codeValidationFailed {
		t.Errorf("unexpected code %q", resp.Code)
	}
}

func TestGetPatient_NotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest("GET", "/api/v1/patients/"+DefaultPrincipal+":missing", http.NoBody)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}

	var resp errorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Code != codePatientNotFound {
		t.Errorf("unexpected code %q", resp.Code)
	}
}

func TestGetPatient_ForeignIdentityIsNotFound(t *testing.T) {
	router, repo := newTestRouter(t)
	seedPatient(t, repo, "clinic2:a")

	req := httptest.NewRequest("GET", "/api/v1/patients/clinic2:a", http.NoBody)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("foreign identity must read as 404, got %d", rr.Code)
	}
}

func TestUpdatePatient_RoundTrip(t *testing.T) {
	router, repo := newTestRouter(t)
	seedPatient(t, repo, DefaultPrincipal+":a")

	body := strings.NewReader(`{"family_name": "Smith"}`)
	req := httptest.NewRequest("PUT", "/api/v1/patients/"+DefaultPrincipal+":a", body)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp patientResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.FamilyName != "Smith" {
		t.Errorf("unexpected family name %q", resp.FamilyName)
	}

	stored := repo.patients[DefaultPrincipal+":a"]
	if stored.FamilyName() != "Smith" {
		t.Errorf("update not persisted: %q", stored.FamilyName())
	}
}

func TestDeletePatient_NoContent(t *testing.T) {
	router, repo := newTestRouter(t)
	seedPatient(t, repo, DefaultPrincipal+":a")

	req := httptest.NewRequest("DELETE", "/api/v1/patients/"+DefaultPrincipal+":a", http.NoBody)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if _, ok := repo.patients[DefaultPrincipal+":a"]; ok {
		t.Error("patient not deleted")
	}
}

func TestHealthCheck_OK(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/health", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected body %s", rr.Body.String())
	}
}
