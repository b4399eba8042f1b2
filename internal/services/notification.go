package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/milsabores/storefront-gateway/internal/models"
	"github.com/milsabores/storefront-gateway/internal/store"
)

// feed length cap; the front-end only ever renders the latest few.
const maxNotifications = 50

// NotificationService is the fire-and-forget feedback channel. Push never
// fails its caller: a lost toast is not worth failing a checkout over.
type NotificationService struct {
	store store.Store
}

func NewNotificationService(st store.Store) *NotificationService {
	return &NotificationService{store: st}
}

func (s *NotificationService) Push(ctx context.Context, scope string, level models.NotificationLevel, message string) {
	key := store.NotificationsKey(scope)

	var feed []models.Notification

	if _, err := s.store.Get(ctx, key, &feed); err != nil {
		slog.Warn("Failed to read notification feed", slog.String("scope", scope), slog.String("error", err.Error()))
		feed = nil
	}

	feed = append(feed, models.Notification{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		CreatedAt: time.Now(),
	})

	if len(feed) > maxNotifications {
		feed = feed[len(feed)-maxNotifications:]
	}

	if err := s.store.Set(ctx, key, feed); err != nil {
		slog.Warn("Failed to persist notification", slog.String("scope", scope), slog.String("error", err.Error()))
	}
}

func (s *NotificationService) List(ctx context.Context, scope string) []models.Notification {
	var feed []models.Notification

	if _, err := s.store.Get(ctx, store.NotificationsKey(scope), &feed); err != nil {
		slog.Warn("Failed to read notification feed", slog.String("scope", scope), slog.String("error", err.Error()))

		return nil
	}

	return feed
}

func (s *NotificationService) Clear(ctx context.Context, scope string) {
	if err := s.store.Delete(ctx, store.NotificationsKey(scope)); err != nil {
		slog.Warn("Failed to clear notification feed", slog.String("scope", scope), slog.String("error", err.Error()))
	}
}
