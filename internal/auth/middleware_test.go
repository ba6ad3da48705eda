package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// okHandler records whether the chain reached it and echoes the identity.
func okHandler(t *testing.T, gotIdentity *Identity) http.Handler {
	t.Helper()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		if !ok {
			t.Error("handler reached without identity in context")
		}
		*gotIdentity = id
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth(t *testing.T) {
	ts := newTestTokenService(t)

	var got Identity
	protected := RequireAuth(ts)(okHandler(t, &got))

	token, err := ts.Generate(Identity{UserID: "user-123", IsAdmin: true})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/signals/vip", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	protected.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if got.UserID != "user-123" || !got.IsAdmin {
		t.Errorf("identity = %+v, want user-123/admin", got)
	}
}

func TestRequireAuth_Rejections(t *testing.T) {
	ts := newTestTokenService(t)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached despite missing/invalid auth")
	})
	protected := RequireAuth(ts)(next)

	cases := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"not bearer", "Basic dXNlcjpwYXNz"},
		{"empty bearer", "Bearer "},
		{"garbage token", "Bearer not.a.token"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/redeem-code", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()

			protected.ServeHTTP(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rr.Code)
			}
			if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	ts := newTestTokenService(t)

	var got Identity
	chain := RequireAuth(ts)(RequireAdmin(okHandler(t, &got)))

	adminToken, err := ts.Generate(Identity{UserID: "admin-1", IsAdmin: true})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/vip-codes", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rr := httptest.NewRecorder()

	chain.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
}

func TestRequireAdmin_ForbidsNonAdmin(t *testing.T) {
	ts := newTestTokenService(t)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached by a non-admin")
	})
	chain := RequireAuth(ts)(RequireAdmin(next))

	token, err := ts.Generate(Identity{UserID: "user-123", IsAdmin: false})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/settings", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	chain.ServeHTTP(rr, req)

	// Authenticated but not authorized: 403, not 401.
	if rr.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rr.Code)
	}
}

func TestRequireAdmin_WithoutAuthIs401(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached without authentication")
	})
	// RequireAdmin mounted without RequireAuth in front.
	chain := RequireAdmin(next)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/settings", nil)
	rr := httptest.NewRecorder()

	chain.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
}
