// internal/adapters/in/http/middleware/auth.go
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"anusswar/internal/domain/identity"
)

// TokenVerifier turns a bearer ID token into an identity.
type TokenVerifier interface {
	Verify(ctx context.Context, idToken string) (*identity.Identity, error)
}

type ctxKey struct{ name string }

var ctxKeyIdentity = ctxKey{name: "identity"}

// CurrentIdentity returns the identity stored by RequireAuth or OptionalAuth.
func CurrentIdentity(ctx context.Context) *identity.Identity {
	who, _ := ctx.Value(ctxKeyIdentity).(*identity.Identity)
	return who
}

// WithIdentity stores who in ctx.
func WithIdentity(ctx context.Context, who *identity.Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity, who)
}

// Auth verifies `Authorization: Bearer <ID_TOKEN>` headers.
type Auth struct {
	Verifier TokenVerifier
	Log      *logrus.Logger
}

// Require rejects requests without a valid token.
func (m *Auth) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Verifier == nil {
			deny(w, http.StatusServiceUnavailable, "auth middleware not initialized")
			return
		}
		idToken, ok := bearer(r)
		if !ok {
			deny(w, http.StatusUnauthorized, "unauthorized: missing bearer token")
			return
		}
		who, err := m.Verifier.Verify(r.Context(), idToken)
		if err != nil {
			m.Log.WithError(err).Debug("[auth] token rejected")
			deny(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), who)))
	})
}

// Optional attaches the identity when a valid token is present and passes
// anonymous requests through. An invalid token is still rejected.
func (m *Auth) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := bearer(r); !ok || m.Verifier == nil {
			next.ServeHTTP(w, r)
			return
		}
		m.Require(next).ServeHTTP(w, r)
	})
}

// Admin requires the admin custom claim. Chain after Require.
func (m *Auth) Admin(next http.Handler) http.Handler {
	return m.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		who := CurrentIdentity(r.Context())
		if who == nil || !who.Admin {
			deny(w, http.StatusForbidden, "admin only")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func bearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	return tok, tok != ""
}

func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
