package handlers

import (
	"encoding/json"
	"net/http"

	"recipe-share-backend/internal/apperr"
	"recipe-share-backend/internal/middleware"
	"recipe-share-backend/internal/models"
	"recipe-share-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler authenticates the real-time handshake and routes
// post-handshake events through the hub.
type WebSocketHandler struct {
	hub    *services.WSHub
	tokens *services.TokenService
	users  middleware.UserLoader
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *services.WSHub, tokens *services.TokenService, users middleware.UserLoader) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, tokens: tokens, users: users}
}

// wsRequest is a client-to-server real-time message
type wsRequest struct {
	Type     string `json:"type"`
	RecipeID string `json:"recipe_id,omitempty"`
	Text     string `json:"text,omitempty"`
}

// HandleWebSocket handles GET /ws. The handshake reuses the HTTP token
// verification path; any failure refuses the upgrade with an auth error.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := middleware.ExtractToken(r)
	if token == "" {
		respondError(w, r, apperr.ErrAuthenticationRequired)
		return
	}

	claims, err := h.tokens.Verify(r.Context(), token)
	if err != nil {
		respondError(w, r, err)
		return
	}
	user, err := h.users.GetByID(r.Context(), claims.UserID)
	if err != nil {
		respondError(w, r, apperr.ErrInvalidToken)
		return
	}
	if !user.IsActive {
		respondError(w, r, apperr.ErrAccountDeactivated)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	h.hub.Register(user.ID, conn)
	h.hub.BroadcastAll(statusEvent(user.ID, true), user.ID)
	defer func() {
		// A reconnect may have displaced this connection already; only the
		// handler that actually removed the live connection announces offline.
		if h.hub.Unregister(user.ID, conn) {
			h.hub.BroadcastAll(statusEvent(user.ID, false), user.ID)
		}
	}()

	log.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("WebSocket connection established")

	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("user_id", user.ID).Msg("WebSocket error")
			}
			break
		}

		var msg wsRequest
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to parse WebSocket message")
			h.sendError(user.ID, "Invalid message format")
			continue
		}

		h.handleMessage(user, msg)
	}
}

// handleMessage processes incoming real-time messages
func (h *WebSocketHandler) handleMessage(user *models.User, msg wsRequest) {
	switch msg.Type {
	case "join-recipe":
		if msg.RecipeID == "" {
			h.sendError(user.ID, "recipe_id is required")
			return
		}
		h.hub.JoinTopic(user.ID, services.RecipeTopic(msg.RecipeID))
		log.Debug().Str("user_id", user.ID).Str("recipe_id", msg.RecipeID).Msg("User joined recipe topic")

	case "leave-recipe":
		if msg.RecipeID == "" {
			h.sendError(user.ID, "recipe_id is required")
			return
		}
		h.hub.LeaveTopic(user.ID, services.RecipeTopic(msg.RecipeID))
		log.Debug().Str("user_id", user.ID).Str("recipe_id", msg.RecipeID).Msg("User left recipe topic")

	case "like-recipe":
		if msg.RecipeID == "" {
			h.sendError(user.ID, "recipe_id is required")
			return
		}
		h.hub.BroadcastToTopic(services.RecipeTopic(msg.RecipeID), services.Event{
			Type: "new-like",
			Data: map[string]interface{}{
				"recipe_id": msg.RecipeID,
				"user_id":   user.ID,
				"username":  user.Username,
			},
		}, user.ID)

	case "add-comment":
		if msg.RecipeID == "" || msg.Text == "" {
			h.sendError(user.ID, "recipe_id and text are required")
			return
		}
		h.hub.BroadcastToTopic(services.RecipeTopic(msg.RecipeID), services.Event{
			Type: "new-comment",
			Data: map[string]interface{}{
				"recipe_id": msg.RecipeID,
				"user_id":   user.ID,
				"username":  user.Username,
				"text":      msg.Text,
			},
		}, user.ID)

	default:
		h.sendError(user.ID, "Unknown message type")
	}
}

func (h *WebSocketHandler) sendError(userID, message string) {
	if err := h.hub.SendToUser(userID, services.Event{Type: "error", Message: message}); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to send error event")
	}
}

func statusEvent(userID string, online bool) services.Event {
	return services.Event{
		Type: "user-status",
		Data: map[string]interface{}{
			"user_id": userID,
			"online":  online,
		},
	}
}
