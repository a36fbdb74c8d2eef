package handlers

import (
	"fmt"
	"net/http"
	"regexp"

	"recipe-share-backend/internal/middleware"
	"recipe-share-backend/internal/models"
	"recipe-share-backend/internal/services"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/rs/zerolog/log"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// AuthHandler handles registration, login, and the account's own routes
type AuthHandler struct {
	users         *services.UserService
	tokens        *services.TokenService
	notifications *services.NotificationService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(users *services.UserService, tokens *services.TokenService, notifications *services.NotificationService) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, notifications: notifications}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req registerRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Username, validation.Required, validation.Length(3, 30), validation.Match(usernamePattern)),
		validation.Field(&req.Email, validation.Required, is.Email),
		validation.Field(&req.Password, validation.Required, validation.Length(6, 72)),
	)
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	user, err := h.users.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		respondError(w, r, err)
		return
	}

	log.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("User registered")
	respondSuccess(w, http.StatusCreated, "User registered successfully", map[string]interface{}{
		"user":  user,
		"token": token,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req loginRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Email, validation.Required, is.Email),
		validation.Field(&req.Password, validation.Required),
	)
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	user, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		respondError(w, r, err)
		return
	}

	log.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("User logged in")
	respondSuccess(w, http.StatusOK, "Login successful", map[string]interface{}{
		"user":  user,
		"token": token,
	})
}

// Logout handles POST /api/v1/auth/logout. The presented token is denylisted
// for its remaining lifetime.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if claims, ok := middleware.ClaimsFrom(r.Context()); ok {
		if err := h.tokens.Revoke(r.Context(), claims); err != nil {
			respondError(w, r, err)
			return
		}
	}

	log.Info().Str("user_id", middleware.UserID(r.Context())).Msg("User logged out")
	respondSuccess(w, http.StatusOK, "Logged out successfully", nil)
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "User profile retrieved successfully", map[string]interface{}{"user": user})
}

type updateProfileRequest struct {
	Username string `json:"username"`
	Bio      string `json:"bio"`
}

func (req updateProfileRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Username, validation.Required, validation.Length(3, 30), validation.Match(usernamePattern)),
		validation.Field(&req.Bio, validation.Length(0, 500)),
	)
}

// UpdateProfile handles PUT /api/v1/auth/profile
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), middleware.UserID(r.Context()), req.Username, req.Bio)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "Profile updated successfully", map[string]interface{}{"user": user})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (req changePasswordRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.CurrentPassword, validation.Required),
		validation.Field(&req.NewPassword, validation.Required, validation.Length(6, 72)),
	)
}

// ChangePassword handles PUT /api/v1/auth/change-password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.users.ChangePassword(r.Context(), middleware.UserID(r.Context()), req.CurrentPassword, req.NewPassword); err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "Password changed successfully", nil)
}

// Deactivate handles DELETE /api/v1/auth/deactivate
func (h *AuthHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	if err := h.users.Deactivate(r.Context(), userID); err != nil {
		respondError(w, r, err)
		return
	}

	log.Info().Str("user_id", userID).Msg("User account deactivated")
	respondSuccess(w, http.StatusOK, "Account deactivated successfully", nil)
}

// Follow handles POST /api/v1/auth/follow/{id}
func (h *AuthHandler) Follow(w http.ResponseWriter, r *http.Request) {
	me, _ := middleware.UserFrom(r.Context())
	targetID := chi.URLParam(r, "id")

	if err := h.users.Follow(r.Context(), me.ID, targetID); err != nil {
		respondError(w, r, err)
		return
	}

	message := fmt.Sprintf("%s started following you", me.Username)
	if err := h.notifications.Notify(r.Context(), targetID, me.ID, models.NotificationFollow, me.ID, message); err != nil {
		log.Error().Err(err).Str("recipient_id", targetID).Msg("Failed to create follow notification")
	}

	log.Info().Str("follower_id", me.ID).Str("followee_id", targetID).Msg("User followed")
	respondSuccess(w, http.StatusOK, "User followed successfully", nil)
}

// Unfollow handles DELETE /api/v1/auth/unfollow/{id}
func (h *AuthHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	me, _ := middleware.UserFrom(r.Context())
	targetID := chi.URLParam(r, "id")

	if err := h.users.Unfollow(r.Context(), me.ID, targetID); err != nil {
		respondError(w, r, err)
		return
	}

	log.Info().Str("follower_id", me.ID).Str("followee_id", targetID).Msg("User unfollowed")
	respondSuccess(w, http.StatusOK, "User unfollowed successfully", nil)
}
