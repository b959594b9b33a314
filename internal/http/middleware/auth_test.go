package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aanand-mishra/admin-api/internal/auth"
)

const testSecret = "test-secret"

func protectedEcho(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := GetClaims(r.Context())
		if claims == nil {
			t.Error("claims should be set on the request context")
			return
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuth_ValidToken(t *testing.T) {
	tokens := auth.NewTokenManager(testSecret, auth.TokenTTL)
	handler := Auth(tokens)(protectedEcho(t))

	token, err := tokens.Sign(42, "a1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/get-user-data", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
}

func TestAuth_ClaimsReachTheHandler(t *testing.T) {
	tokens := auth.NewTokenManager(testSecret, auth.TokenTTL)

	var got *auth.Claims
	handler := Auth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetClaims(r.Context())
	}))

	token, _ := tokens.Sign(42, "a1")
	req := httptest.NewRequest(http.MethodGet, "/get-user-data", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil {
		t.Fatal("expected claims on the context")
	}
	if got.UserID != 42 || got.Username != "a1" {
		t.Errorf("unexpected claims: %+v", got)
	}
}

func TestAuth_MissingToken(t *testing.T) {
	tokens := auth.NewTokenManager(testSecret, auth.TokenTTL)

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"not bearer", "Basic abc123"},
		{"bearer but empty", "Bearer "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := Auth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Error("handler should not be called")
			}))

			req := httptest.NewRequest(http.MethodGet, "/get-user-data", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("expected status 401, got %d", w.Code)
			}
		})
	}
}

func TestAuth_InvalidToken(t *testing.T) {
	tokens := auth.NewTokenManager(testSecret, auth.TokenTTL)

	expired, err := auth.NewTokenManager(testSecret, -time.Minute).Sign(1, "a1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	foreign, err := auth.NewTokenManager("other-secret", auth.TokenTTL).Sign(1, "a1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.token"},
		{"expired", expired},
		{"wrong signature", foreign},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := Auth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Error("handler should not be called")
			}))

			req := httptest.NewRequest(http.MethodGet, "/get-user-data", nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != http.StatusForbidden {
				t.Errorf("expected status 403, got %d", w.Code)
			}
		})
	}
}
