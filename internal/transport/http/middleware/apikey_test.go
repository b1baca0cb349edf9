package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/IgorGrieder/guardiao-url/internal/processing/shortlinks"
)

type mockProfiles struct {
	profile *shortlinks.Profile
	err     error
}

func (m *mockProfiles) FindByAPIKey(_ context.Context, _ string) (*shortlinks.Profile, error) {
	return m.profile, m.err
}

func profileEchoHandler(t *testing.T, wantUser string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		profile := ProfileFromContext(r.Context())
		if profile == nil {
			t.Error("profile missing from context")
		} else if profile.Username != wantUser {
			t.Errorf("profile username = %q, want %q", profile.Username, wantUser)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAPIKeyMiddleware_ValidKey(t *testing.T) {
	profiles := &mockProfiles{profile: &shortlinks.Profile{
		Username: "alice",
		Status:   shortlinks.ProfileActive,
	}}
	mw := APIKeyMiddleware(profiles)(profileEchoHandler(t, "alice"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(APIKeyHeader, "secret-key-1")
	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("valid key: got status %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestAPIKeyMiddleware_MissingHeader(t *testing.T) {
	mw := APIKeyMiddleware(&mockProfiles{})(http.NotFoundHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing header: got status %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestAPIKeyMiddleware_UnknownKey(t *testing.T) {
	profiles := &mockProfiles{err: shortlinks.ErrProfileNotFound}
	mw := APIKeyMiddleware(profiles)(http.NotFoundHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(APIKeyHeader, "wrong-key")
	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unknown key: got status %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestAPIKeyMiddleware_ExpiredProfile(t *testing.T) {
	profiles := &mockProfiles{profile: &shortlinks.Profile{
		Username: "bob",
		Status:   shortlinks.ProfileExpired,
	}}
	mw := APIKeyMiddleware(profiles)(http.NotFoundHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(APIKeyHeader, "expired-key")
	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expired profile: got status %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestAPIKeyMiddleware_StoreError(t *testing.T) {
	profiles := &mockProfiles{err: errors.New("mongo down")}
	mw := APIKeyMiddleware(profiles)(http.NotFoundHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(APIKeyHeader, "any-key")
	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("store error: got status %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}
