package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"recipe-share-backend/internal/apperr"
	"recipe-share-backend/internal/models"
	"recipe-share-backend/internal/services"
)

type contextKey string

const (
	userKey   contextKey = "user"
	claimsKey contextKey = "claims"
)

// UserLoader resolves an authenticated identity from the credential store
type UserLoader interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// ExtractToken pulls the session token from a request, in priority order:
// Authorization header, cookie, then query parameter.
func ExtractToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}
	if cookie, err := r.Cookie("token"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return r.URL.Query().Get("token")
}

// resolveUser verifies a token and loads the active identity behind it
func resolveUser(ctx context.Context, token string, tokens *services.TokenService, users UserLoader) (*models.User, *services.Claims, error) {
	claims, err := tokens.Verify(ctx, token)
	if err != nil {
		return nil, nil, err
	}

	user, err := users.GetByID(ctx, claims.UserID)
	if err != nil {
		if _, ok := apperr.From(err); ok {
			return nil, nil, apperr.ErrInvalidToken
		}
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, apperr.ErrAccountDeactivated
	}
	return user, claims, nil
}

// RequireAuth rejects requests without a valid token behind an active account
func RequireAuth(tokens *services.TokenService, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)
			if token == "" {
				respondError(w, apperr.ErrAuthenticationRequired)
				return
			}

			user, claims, err := resolveUser(r.Context(), token, tokens, users)
			if err != nil {
				if appErr, ok := apperr.From(err); ok {
					respondError(w, appErr)
				} else {
					respondError(w, apperr.New(http.StatusInternalServerError, "AUTHENTICATION_FAILED", "Authentication failed."))
				}
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			ctx = context.WithValue(ctx, claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth resolves an identity when a valid token is present and
// silently proceeds unauthenticated on any failure.
func OptionalAuth(tokens *services.TokenService, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, claims, err := resolveUser(r.Context(), token, tokens, users)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			ctx = context.WithValue(ctx, claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFrom returns the authenticated identity attached to the context
func UserFrom(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok
}

// UserID returns the authenticated identity's ID, or "" when unauthenticated
func UserID(ctx context.Context) string {
	if user, ok := UserFrom(ctx); ok {
		return user.ID
	}
	return ""
}

// ClaimsFrom returns the verified token claims attached to the context
func ClaimsFrom(ctx context.Context) (*services.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*services.Claims)
	return claims, ok
}

func respondError(w http.ResponseWriter, appErr *apperr.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": appErr.Message,
		"error":   appErr.Code,
	})
}
