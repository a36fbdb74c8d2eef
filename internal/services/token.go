package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recipe-share-backend/internal/apperr"
	"recipe-share-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carried by a session token
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Denylist records revoked token IDs until the tokens would have expired
// anyway. Implemented by repository.TokenDenylist; tests use an in-memory fake.
type Denylist interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// TokenService issues and verifies signed session tokens. Tokens are
// stateless except for the revocation denylist consulted at verification.
type TokenService struct {
	secret   []byte
	expiry   time.Duration
	denylist Denylist
}

// NewTokenService creates a token service. A missing signing secret is a
// configuration error and must abort startup.
func NewTokenService(secret string, expiryDays int, denylist Denylist) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("jwt signing secret is not configured")
	}
	if expiryDays <= 0 {
		expiryDays = 7
	}
	return &TokenService{
		secret:   []byte(secret),
		expiry:   time.Duration(expiryDays) * 24 * time.Hour,
		denylist: denylist,
	}, nil
}

// Issue generates a signed token for a user
func (s *TokenService) Issue(user *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// Verify validates signature and expiry and checks the revocation denylist.
// Failures map to the stable TOKEN_EXPIRED / INVALID_TOKEN codes.
func (s *TokenService) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.ErrTokenExpired
		}
		return nil, apperr.ErrInvalidToken
	}
	if !token.Valid || claims.UserID == "" {
		return nil, apperr.ErrInvalidToken
	}

	if s.denylist != nil && claims.ID != "" {
		revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check token revocation: %w", err)
		}
		if revoked {
			return nil, apperr.ErrInvalidToken
		}
	}
	return claims, nil
}

// Revoke denylists the token behind the given claims for its remaining
// lifetime. Logout is a no-op when no denylist is configured.
func (s *TokenService) Revoke(ctx context.Context, claims *Claims) error {
	if s.denylist == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	return s.denylist.Revoke(ctx, claims.ID, time.Until(claims.ExpiresAt.Time))
}
