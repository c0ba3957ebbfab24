package web

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"order-backoffice/internal/core"
)

type identityKey struct{}

// identityFromContext returns the caller identity stored in ctx, or nil.
func identityFromContext(ctx context.Context) *core.Identity {
	v, _ := ctx.Value(identityKey{}).(*core.Identity)
	return v
}

// jwtClaims is the JWT payload issued by the identity provider.
type jwtClaims struct {
	UserID         int    `json:"user_id"`
	Username       string `json:"username"`
	DelegateUserID *int   `json:"delegate_user_id,omitempty"`
	jwt.RegisteredClaims
}

// bearerToken returns the token from the Authorization header, falling back to the auth_token cookie.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie("auth_token"); err == nil {
		return cookie.Value
	}
	return ""
}

// RequireAuth is chi middleware that validates an HS256 token and injects the caller's
// core.Identity into the request context. Returns 401 if the token is absent or invalid.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		// An empty HMAC key verifies tokens anyone can sign.
		if raw == "" || h.jwtSecret == "" {
			writeError(w, r, "authentication required", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}

		claims := &jwtClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(h.jwtSecret), nil
		})
		if err != nil || !token.Valid || claims.UserID <= 0 {
			writeError(w, r, "invalid or expired token", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), identityKey{}, &core.Identity{
			UserID:         claims.UserID,
			Username:       claims.Username,
			DelegateUserID: claims.DelegateUserID,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
