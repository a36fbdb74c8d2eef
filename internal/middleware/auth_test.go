package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"recipe-share-backend/internal/apperr"
	"recipe-share-backend/internal/middleware"
	"recipe-share-backend/internal/models"
	"recipe-share-backend/internal/services"

	"github.com/stretchr/testify/require"
)

type fakeUserLoader struct {
	users map[string]*models.User
}

func (l *fakeUserLoader) GetByID(_ context.Context, id string) (*models.User, error) {
	user, ok := l.users[id]
	if !ok {
		return nil, apperr.ErrUserNotFound
	}
	return user, nil
}

func authFixture(t *testing.T) (*services.TokenService, *fakeUserLoader, string) {
	t.Helper()

	tokens, err := services.NewTokenService("test-secret", 7, nil)
	require.NoError(t, err)

	user := &models.User{ID: "u1", Username: "chef1", Email: "chef1@x.com", IsActive: true}
	loader := &fakeUserLoader{users: map[string]*models.User{"u1": user}}

	token, err := tokens.Issue(user)
	require.NoError(t, err)
	return tokens, loader, token
}

// echoUser writes the authenticated user ID, or "anonymous" without one
func echoUser(w http.ResponseWriter, r *http.Request) {
	if id := middleware.UserID(r.Context()); id != "" {
		w.Write([]byte(id))
		return
	}
	w.Write([]byte("anonymous"))
}

func TestRequireAuth_MissingToken(t *testing.T) {
	t.Parallel()

	tokens, loader, _ := authFixture(t)
	handler := middleware.RequireAuth(tokens, loader)(http.HandlerFunc(echoUser))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, false, body["success"])
	require.Equal(t, "AUTHENTICATION_REQUIRED", body["error"])
}

func TestRequireAuth_HeaderToken(t *testing.T) {
	t.Parallel()

	tokens, loader, token := authFixture(t)
	handler := middleware.RequireAuth(tokens, loader)(http.HandlerFunc(echoUser))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "u1", rec.Body.String())
}

func TestRequireAuth_CookieToken(t *testing.T) {
	t.Parallel()

	tokens, loader, token := authFixture(t)
	handler := middleware.RequireAuth(tokens, loader)(http.HandlerFunc(echoUser))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "u1", rec.Body.String())
}

func TestRequireAuth_QueryToken(t *testing.T) {
	t.Parallel()

	tokens, loader, token := authFixture(t)
	handler := middleware.RequireAuth(tokens, loader)(http.HandlerFunc(echoUser))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?token="+token, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "u1", rec.Body.String())
}

func TestRequireAuth_HeaderWinsOverQuery(t *testing.T) {
	t.Parallel()

	tokens, loader, token := authFixture(t)
	handler := middleware.RequireAuth(tokens, loader)(http.HandlerFunc(echoUser))

	req := httptest.NewRequest(http.MethodGet, "/?token=garbage", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "u1", rec.Body.String())
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	t.Parallel()

	tokens, loader, _ := authFixture(t)
	handler := middleware.RequireAuth(tokens, loader)(http.HandlerFunc(echoUser))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "INVALID_TOKEN", body["error"])
}

func TestRequireAuth_DeactivatedAccount(t *testing.T) {
	t.Parallel()

	tokens, loader, token := authFixture(t)
	loader.users["u1"].IsActive = false
	handler := middleware.RequireAuth(tokens, loader)(http.HandlerFunc(echoUser))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ACCOUNT_DEACTIVATED", body["error"])
}

func TestRequireAuth_UnknownUser(t *testing.T) {
	t.Parallel()

	tokens, loader, token := authFixture(t)
	delete(loader.users, "u1")
	handler := middleware.RequireAuth(tokens, loader)(http.HandlerFunc(echoUser))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "INVALID_TOKEN", body["error"])
}

func TestOptionalAuth_ValidToken(t *testing.T) {
	t.Parallel()

	tokens, loader, token := authFixture(t)
	handler := middleware.OptionalAuth(tokens, loader)(http.HandlerFunc(echoUser))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "u1", rec.Body.String())
}

func TestOptionalAuth_ProceedsWithoutToken(t *testing.T) {
	t.Parallel()

	tokens, loader, _ := authFixture(t)
	handler := middleware.OptionalAuth(tokens, loader)(http.HandlerFunc(echoUser))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "anonymous", rec.Body.String())
}

func TestOptionalAuth_ProceedsOnBadToken(t *testing.T) {
	t.Parallel()

	tokens, loader, _ := authFixture(t)
	handler := middleware.OptionalAuth(tokens, loader)(http.HandlerFunc(echoUser))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "anonymous", rec.Body.String())
}

func TestExtractToken_MalformedHeaderFallsThrough(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/?token=from-query", nil)
	req.Header.Set("Authorization", "Basic abc123")
	require.Equal(t, "from-query", middleware.ExtractToken(req))
}
