package handlers

import (
	"fmt"
	"net/http"

	"recipe-share-backend/internal/middleware"
	"recipe-share-backend/internal/models"
	"recipe-share-backend/internal/services"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/rs/zerolog/log"
)

// RecipeHandler handles recipe content and engagement HTTP requests
type RecipeHandler struct {
	recipes       *services.RecipeService
	notifications *services.NotificationService
	hub           *services.WSHub
}

// NewRecipeHandler creates a new recipe handler
func NewRecipeHandler(recipes *services.RecipeService, notifications *services.NotificationService, hub *services.WSHub) *RecipeHandler {
	return &RecipeHandler{recipes: recipes, notifications: notifications, hub: hub}
}

type recipeRequest struct {
	services.RecipeInput
}

func (req recipeRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Title, validation.Required, validation.Length(1, 100)),
		validation.Field(&req.Description, validation.Required, validation.Length(1, 1000)),
		validation.Field(&req.Ingredients, validation.Required),
		validation.Field(&req.Instructions, validation.Required),
	)
}

// Get handles GET /api/v1/recipes/{id}. Optional auth: the liked flag is
// only meaningful for an authenticated viewer. Every fetch increments views.
func (h *RecipeHandler) Get(w http.ResponseWriter, r *http.Request) {
	recipe, liked, err := h.recipes.Get(r.Context(), chi.URLParam(r, "id"), middleware.UserID(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "Recipe retrieved successfully", map[string]interface{}{
		"recipe": recipe,
		"liked":  liked,
	})
}

// Create handles POST /api/v1/recipes
func (h *RecipeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req recipeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	recipe, err := h.recipes.Create(r.Context(), middleware.UserID(r.Context()), req.RecipeInput)
	if err != nil {
		respondError(w, r, err)
		return
	}

	log.Info().Str("recipe_id", recipe.ID).Str("user_id", recipe.AuthorID).Msg("Recipe created")
	respondSuccess(w, http.StatusCreated, "Recipe created successfully", map[string]interface{}{"recipe": recipe})
}

// Update handles PUT /api/v1/recipes/{id}
func (h *RecipeHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req recipeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	recipe, err := h.recipes.Update(r.Context(), chi.URLParam(r, "id"), middleware.UserID(r.Context()), req.RecipeInput)
	if err != nil {
		respondError(w, r, err)
		return
	}

	log.Info().Str("recipe_id", recipe.ID).Str("user_id", recipe.AuthorID).Msg("Recipe updated")
	respondSuccess(w, http.StatusOK, "Recipe updated successfully", map[string]interface{}{"recipe": recipe})
}

// Delete handles DELETE /api/v1/recipes/{id}
func (h *RecipeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	recipeID := chi.URLParam(r, "id")
	if err := h.recipes.Delete(r.Context(), recipeID, middleware.UserID(r.Context())); err != nil {
		respondError(w, r, err)
		return
	}

	log.Info().Str("recipe_id", recipeID).Str("user_id", middleware.UserID(r.Context())).Msg("Recipe deleted")
	respondSuccess(w, http.StatusOK, "Recipe deleted successfully", nil)
}

// Publish handles POST /api/v1/recipes/{id}/publish
func (h *RecipeHandler) Publish(w http.ResponseWriter, r *http.Request) {
	recipe, err := h.recipes.Publish(r.Context(), chi.URLParam(r, "id"), middleware.UserID(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "Recipe published successfully", map[string]interface{}{"recipe": recipe})
}

// ToggleLike handles POST /api/v1/recipes/{id}/like. A like is broadcast to
// the recipe's topic and notifies the author; an unlike only changes state.
func (h *RecipeHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	me, _ := middleware.UserFrom(r.Context())
	recipeID := chi.URLParam(r, "id")

	liked, likesCount, recipe, err := h.recipes.ToggleLike(r.Context(), recipeID, me.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	h.hub.BroadcastToTopic(services.RecipeTopic(recipeID), services.Event{
		Type: "new-like",
		Data: map[string]interface{}{
			"recipe_id":   recipeID,
			"user_id":     me.ID,
			"username":    me.Username,
			"liked":       liked,
			"likes_count": likesCount,
		},
	}, me.ID)

	if liked {
		message := fmt.Sprintf("%s liked your recipe %s", me.Username, recipe.Title)
		if err := h.notifications.Notify(r.Context(), recipe.AuthorID, me.ID, models.NotificationLike, recipeID, message); err != nil {
			log.Error().Err(err).Str("recipe_id", recipeID).Msg("Failed to create like notification")
		}
	}

	message := "Recipe unliked"
	if liked {
		message = "Recipe liked"
	}
	respondSuccess(w, http.StatusOK, message, map[string]interface{}{
		"liked":      liked,
		"likesCount": likesCount,
	})
}

type commentRequest struct {
	Text string `json:"text"`
}

func (req commentRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Text, validation.Required, validation.Length(1, 500)),
	)
}

// AddComment handles POST /api/v1/recipes/{id}/comments
func (h *RecipeHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	me, _ := middleware.UserFrom(r.Context())
	recipeID := chi.URLParam(r, "id")

	comment, recipe, err := h.recipes.AddComment(r.Context(), recipeID, me.ID, req.Text)
	if err != nil {
		respondError(w, r, err)
		return
	}
	comment.Username = me.Username

	h.hub.BroadcastToTopic(services.RecipeTopic(recipeID), services.Event{
		Type: "new-comment",
		Data: map[string]interface{}{
			"recipe_id": recipeID,
			"comment":   comment,
		},
	}, me.ID)

	message := fmt.Sprintf("%s commented on your recipe %s", me.Username, recipe.Title)
	if err := h.notifications.Notify(r.Context(), recipe.AuthorID, me.ID, models.NotificationComment, recipeID, message); err != nil {
		log.Error().Err(err).Str("recipe_id", recipeID).Msg("Failed to create comment notification")
	}

	respondSuccess(w, http.StatusCreated, "Comment added successfully", map[string]interface{}{"comment": comment})
}

// RemoveComment handles DELETE /api/v1/recipes/{id}/comments/{commentId}.
// Removing an absent comment succeeds without effect.
func (h *RecipeHandler) RemoveComment(w http.ResponseWriter, r *http.Request) {
	err := h.recipes.RemoveComment(
		r.Context(),
		chi.URLParam(r, "id"),
		middleware.UserID(r.Context()),
		chi.URLParam(r, "commentId"),
	)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "Comment removed successfully", nil)
}

// Comments handles GET /api/v1/recipes/{id}/comments
func (h *RecipeHandler) Comments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.recipes.Comments(r.Context(), chi.URLParam(r, "id"), middleware.UserID(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "Comments retrieved successfully", map[string]interface{}{"comments": comments})
}
