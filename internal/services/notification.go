package services

import (
	"context"
	"time"

	"recipe-share-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// NotificationStore is the persistence surface for notifications
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByRecipient(ctx context.Context, recipientID string, page, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, recipientID string, ids []string) error
	UnreadCount(ctx context.Context, recipientID string) (int, error)
}

// NotificationService persists social notifications and pushes them to the
// recipient's live channel when one exists.
type NotificationService struct {
	store NotificationStore
	hub   *WSHub
}

// NewNotificationService creates a new notification service
func NewNotificationService(store NotificationStore, hub *WSHub) *NotificationService {
	return &NotificationService{store: store, hub: hub}
}

// Notify records a notification and pushes it live. Self-notifications are
// never created. Push failure does not fail the caller's mutation.
func (s *NotificationService) Notify(ctx context.Context, recipientID, senderID string, kind models.NotificationType, entityID, message string) error {
	if recipientID == senderID {
		return nil
	}

	n := &models.Notification{
		ID:          uuid.New().String(),
		RecipientID: recipientID,
		SenderID:    senderID,
		Type:        kind,
		EntityID:    entityID,
		Message:     message,
		CreatedAt:   time.Now(),
	}
	if err := s.store.Create(ctx, n); err != nil {
		return err
	}

	if err := s.hub.SendToUser(recipientID, Event{Type: "notification", Data: n}); err != nil {
		log.Error().Err(err).Str("recipient_id", recipientID).Msg("Failed to push notification")
	}
	return nil
}

// List returns a page of a user's notifications, newest first
func (s *NotificationService) List(ctx context.Context, recipientID string, page, limit int) ([]models.Notification, error) {
	return s.store.ListByRecipient(ctx, recipientID, page, limit)
}

// MarkRead marks the given notifications as read for the recipient
func (s *NotificationService) MarkRead(ctx context.Context, recipientID string, ids []string) error {
	return s.store.MarkRead(ctx, recipientID, ids)
}

// UnreadCount counts a user's unread notifications
func (s *NotificationService) UnreadCount(ctx context.Context, recipientID string) (int, error) {
	return s.store.UnreadCount(ctx, recipientID)
}
