package apiapp

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	authsvc "github.com/ivankudzin/kinmatch/internal/services/auth"
)

func TestAuthMiddlewareInjectsIdentity(t *testing.T) {
	jwt := authsvc.NewJWTManager("secret", "", time.Minute)
	token, _, err := jwt.GenerateAccessToken(42, "sid-1", "user")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	mw := AuthMiddleware(jwt, zap.NewNop())
	req := httptest.NewRequest(http.MethodGet, "/v1/usage", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	var got authsvc.Identity
	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = authsvc.IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusNoContent)
	}
	if got.UserID != 42 || got.SID != "sid-1" {
		t.Fatalf("unexpected identity: %+v", got)
	}
}

func TestAuthMiddlewareRejectsMissingAndInvalidTokens(t *testing.T) {
	mw := AuthMiddleware(authsvc.NewJWTManager("secret", "", time.Minute), zap.NewNop())

	for _, header := range []string{"", "Basic abc", "Bearer ", "Bearer not-a-jwt"} {
		req := httptest.NewRequest(http.MethodGet, "/v1/usage", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rr := httptest.NewRecorder()

		mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			t.Fatalf("handler must not be called for header %q", header)
		})).ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("unexpected status for %q: got %d want %d", header, rr.Code, http.StatusUnauthorized)
		}
	}
}

func TestExtractBearerToken(t *testing.T) {
	token, ok := extractBearerToken(" bearer abc.def ")
	if !ok || token != "abc.def" {
		t.Fatalf("unexpected token: %q %v", token, ok)
	}
	if _, ok := extractBearerToken("Token abc"); ok {
		t.Fatalf("expected non-bearer scheme to be rejected")
	}
}

func TestRoutesServeHealthAndMetrics(t *testing.T) {
	r := newTestRouter()

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("unexpected status for %s: %d", path, rr.Code)
		}
	}

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/discover", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected protected route to require auth, got %d", rr.Code)
	}
}

func newTestRouter() chi.Router {
	r := chi.NewRouter()
	ApplyMiddlewares(r, zap.NewNop())
	RegisterRoutes(r, Dependencies{
		Tokens: authsvc.NewJWTManager("secret", "", time.Minute),
		Logger: zap.NewNop(),
	})
	return r
}
