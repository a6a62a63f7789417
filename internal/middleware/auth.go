package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/csl-racing/api/internal/apperr"
	"github.com/csl-racing/api/internal/auth"
	"github.com/csl-racing/api/internal/models"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// UserContextKey is the key for storing user claims in request context
	UserContextKey contextKey = "user"

	// AuthCookieName carries the session token
	AuthCookieName = "authToken"
)

var (
	errAuthRequired  = apperr.AuthenticationRequired("Authentication required")
	errInvalidToken  = apperr.AuthenticationRequired("Invalid or expired token")
	errAdminRequired = apperr.AdminAccessRequired("Admin access required")
)

// UserLookup reads the current stored state of a user
type UserLookup interface {
	Get(ctx context.Context, id int) (*models.User, error)
}

// Guard authorizes requests from the session token. The token proves
// identity; admin authorization is always re-read from the store.
type Guard struct {
	tokens  *auth.TokenManager
	revoker auth.Revoker
	users   UserLookup
}

// NewGuard creates a Guard
func NewGuard(tokens *auth.TokenManager, revoker auth.Revoker, users UserLookup) *Guard {
	return &Guard{tokens: tokens, revoker: revoker, users: users}
}

// TokenFromRequest returns the session token from the authToken cookie,
// falling back to an Authorization: Bearer header.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(AuthCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	authHeader := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// Authenticate resolves the caller's claims
func (g *Guard) Authenticate(r *http.Request) (*auth.Claims, error) {
	token := TokenFromRequest(r)
	if token == "" {
		return nil, errAuthRequired
	}

	claims, err := g.tokens.Authenticate(token)
	if err != nil {
		return nil, errInvalidToken
	}

	if g.revoker != nil {
		revoked, err := g.revoker.IsRevoked(r.Context(), claims.ID)
		if err != nil {
			return nil, apperr.Store("check token revocation", err)
		}
		if revoked {
			return nil, errInvalidToken
		}
	}
	return claims, nil
}

// RequireAuth is a middleware that validates the session token
func (g *Guard) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := g.Authenticate(r)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		next.ServeHTTP(w, withClaims(r, claims))
	}
}

// RequireAdmin validates the token and then the stored role. The returned
// claims carry the refreshed role and email.
func (g *Guard) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := g.Authenticate(r)
		if err != nil {
			WriteError(w, r, err)
			return
		}

		user, err := g.users.Get(r.Context(), claims.UserID)
		if errors.Is(err, apperr.ErrNotFound) {
			WriteError(w, r, errInvalidToken)
			return
		}
		if err != nil {
			WriteError(w, r, err)
			return
		}
		if !user.IsAdmin() {
			zerolog.Ctx(r.Context()).Warn().Int("user_id", user.ID).Msg("admin access denied")
			WriteError(w, r, errAdminRequired)
			return
		}

		refreshed := *claims
		refreshed.Role = user.Role
		refreshed.Email = user.Email
		next.ServeHTTP(w, withClaims(r, &refreshed))
	}
}

// OptionalAuth attaches claims when a valid token is present and never rejects
func (g *Guard) OptionalAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if claims, err := g.Authenticate(r); err == nil {
			r = withClaims(r, claims)
		}
		next.ServeHTTP(w, r)
	}
}

func withClaims(r *http.Request, claims *auth.Claims) *http.Request {
	ctx := context.WithValue(r.Context(), UserContextKey, claims)
	logger := zerolog.Ctx(ctx).With().Int("user_id", claims.UserID).Logger()
	return r.WithContext(logger.WithContext(ctx))
}

// GetUserClaims extracts user claims from request context
func GetUserClaims(r *http.Request) (*auth.Claims, bool) {
	claims, ok := r.Context().Value(UserContextKey).(*auth.Claims)
	return claims, ok
}
