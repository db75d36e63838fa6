package chi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func principalEcho(t *testing.T, captured *string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, _ := PrincipalFromContext(r.Context())
		*captured = principal
		w.WriteHeader(http.StatusOK)
	})
}

func TestBearerAuth_DisabledUsesDefaultPrincipal(t *testing.T) {
	var principal string
	h := BearerAuthMiddleware(nil)(principalEcho(t, &principal))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("POST", "/api/v1/search", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if principal != DefaultPrincipal {
		t.Errorf("expected default principal, got %q", principal)
	}
}

func TestBearerAuth_ValidKeyResolvesPrincipal(t *testing.T) {
	var principal string
	keys := map[string]string{"secret-1": "clinic1"}
	h := BearerAuthMiddleware(keys)(principalEcho(t, &principal))

	req := httptest.NewRequest("POST", "/api/v1/search", http.NoBody)
	req.Header.Set("Authorization", "Bearer secret-1")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if principal != "clinic1" {
		t.Errorf("expected clinic1, got %q", principal)
	}
}

func TestBearerAuth_Rejections(t *testing.T) {
	keys := map[string]string{"secret-1": "clinic1"}

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic secret-1"},
		{"unknown key", "Bearer nope"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var principal string
			h := BearerAuthMiddleware(keys)(principalEcho(t, &principal))

			req := httptest.NewRequest("POST", "/api/v1/search", http.NoBody)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", rr.Code)
			}
			if principal != "" {
				t.Errorf("handler must not run, saw principal %q", principal)
			}
		})
	}
}

func TestBearerAuth_ExemptPaths(t *testing.T) {
	keys := map[string]string{"secret-1": "clinic1"}

	for _, path := range []string{"/health", "/metrics"} {
		var principal string
		h := BearerAuthMiddleware(keys)(principalEcho(t, &principal))

		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest("GET", path, http.NoBody))

		if rr.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rr.Code)
		}
	}
}
