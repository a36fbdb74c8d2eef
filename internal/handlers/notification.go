package handlers

import (
	"net/http"
	"strconv"

	"recipe-share-backend/internal/middleware"
	"recipe-share-backend/internal/services"
)

// NotificationHandler serves a user's notifications
type NotificationHandler struct {
	notifications *services.NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List handles GET /api/v1/notifications
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	notifications, err := h.notifications.List(r.Context(), userID, page, limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	unread, err := h.notifications.UnreadCount(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondSuccess(w, http.StatusOK, "Notifications retrieved successfully", map[string]interface{}{
		"notifications": notifications,
		"unread_count":  unread,
	})
}

type markReadRequest struct {
	IDs []string `json:"ids"`
}

// MarkRead handles PUT /api/v1/notifications/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	var req markReadRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.notifications.MarkRead(r.Context(), middleware.UserID(r.Context()), req.IDs); err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "Notifications marked as read", nil)
}
