package handlers

import (
	"net/http"

	"recipe-share-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// UserHandler serves public user profile data
type UserHandler struct {
	users *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Followers handles GET /api/v1/users/{id}/followers
func (h *UserHandler) Followers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.Followers(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "Followers retrieved successfully", map[string]interface{}{"users": users})
}

// Following handles GET /api/v1/users/{id}/following
func (h *UserHandler) Following(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.Following(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "Following retrieved successfully", map[string]interface{}{"users": users})
}
