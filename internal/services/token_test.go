package services

import (
	"context"
	"testing"
	"time"

	"recipe-share-backend/internal/apperr"
	"recipe-share-backend/internal/models"

	"github.com/stretchr/testify/require"
)

type fakeDenylist struct {
	revoked map[string]bool
}

func newFakeDenylist() *fakeDenylist {
	return &fakeDenylist{revoked: make(map[string]bool)}
}

func (d *fakeDenylist) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	if ttl > 0 {
		d.revoked[tokenID] = true
	}
	return nil
}

func (d *fakeDenylist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	return d.revoked[tokenID], nil
}

func testUser() *models.User {
	return &models.User{ID: "user-123", Username: "chef1", Email: "chef1@x.com", IsActive: true}
}

func TestTokenService_IssueAndVerify(t *testing.T) {
	t.Parallel()

	svc, err := NewTokenService("super-secret", 7, nil)
	require.NoError(t, err)

	token, err := svc.Issue(testUser())
	require.NoError(t, err)

	claims, err := svc.Verify(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, "user-123", claims.UserID)
	require.Equal(t, "chef1", claims.Username)
	require.Equal(t, "chef1@x.com", claims.Email)
	require.NotEmpty(t, claims.ID)
}

func TestTokenService_MissingSecret(t *testing.T) {
	t.Parallel()

	_, err := NewTokenService("", 7, nil)
	require.Error(t, err)
}

func TestTokenService_Expired(t *testing.T) {
	t.Parallel()

	svc := &TokenService{secret: []byte("super-secret"), expiry: -time.Hour}

	token, err := svc.Issue(testUser())
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), token)
	require.ErrorIs(t, err, apperr.ErrTokenExpired)
}

func TestTokenService_WrongSecret(t *testing.T) {
	t.Parallel()

	issuer, err := NewTokenService("right-secret", 7, nil)
	require.NoError(t, err)
	verifier, err := NewTokenService("wrong-secret", 7, nil)
	require.NoError(t, err)

	token, err := issuer.Issue(testUser())
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), token)
	require.ErrorIs(t, err, apperr.ErrInvalidToken)
}

func TestTokenService_Malformed(t *testing.T) {
	t.Parallel()

	svc, err := NewTokenService("super-secret", 7, nil)
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), "not.a.jwt")
	require.ErrorIs(t, err, apperr.ErrInvalidToken)
}

func TestTokenService_Revoke(t *testing.T) {
	t.Parallel()

	denylist := newFakeDenylist()
	svc, err := NewTokenService("super-secret", 7, denylist)
	require.NoError(t, err)

	token, err := svc.Issue(testUser())
	require.NoError(t, err)

	claims, err := svc.Verify(context.Background(), token)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(context.Background(), claims))

	_, err = svc.Verify(context.Background(), token)
	require.ErrorIs(t, err, apperr.ErrInvalidToken)
}
