package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/hojin-choi/oreum/internal/auth"
	"github.com/hojin-choi/oreum/internal/domain"
	"github.com/hojin-choi/oreum/internal/service"
)

const userKey contextKey = "user"

// Authenticator validates bearer tokens and resolves the account they
// belong to. Claims carry the identity; the user row is loaded fresh so a
// role change or deleted account takes effect on the next request.
type Authenticator struct {
	tokens *auth.TokenIssuer
	users  service.UserStore
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(tokens *auth.TokenIssuer, users service.UserStore) *Authenticator {
	return &Authenticator{tokens: tokens, users: users}
}

// RequireAuth rejects requests without a valid bearer token and puts the
// resolved user in the request context.
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := a.authenticate(r)
		if err != nil {
			writeAuthError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
	})
}

// RequireAdmin is RequireAuth plus an admin role check.
func (a *Authenticator) RequireAdmin(next http.Handler) http.Handler {
	return a.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := UserFrom(r.Context())
		if user == nil || !user.IsAdmin() {
			writeAuthError(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func (a *Authenticator) authenticate(r *http.Request) (*domain.User, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return nil, auth.ErrTokenInvalid
	}

	claims, err := a.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	return a.users.GetUser(r.Context(), claims.Subject)
}

// ContextWithUser returns ctx carrying the authenticated user.
func ContextWithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFrom returns the authenticated user from the context, or nil.
func UserFrom(ctx context.Context) *domain.User {
	user, _ := ctx.Value(userKey).(*domain.User)
	return user
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
