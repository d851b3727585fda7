package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"campusdrop/internal/apperr"
	"campusdrop/internal/domain"
	"campusdrop/internal/logx"
	"campusdrop/internal/ports/storetx"
	"campusdrop/internal/service/guard"
)

// ListLimit caps List results.
const ListLimit = 50

// Inbox serves a user's persisted notifications.
type Inbox struct {
	store            storetx.Queries
	operationTimeout time.Duration
	logger           logx.Logger
}

// NewInbox creates a new Inbox.
func NewInbox(store storetx.Queries, timeout time.Duration, logger logx.Logger) *Inbox {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Inbox{store: store, operationTimeout: timeout, logger: logger}
}

// List returns the actor's most recent notifications, newest first.
func (s *Inbox) List(ctx context.Context, actorID uuid.UUID) ([]domain.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, s.operationTimeout)
	defer cancel()

	if _, err := guard.Actor(ctx, s.store, actorID); err != nil {
		return nil, err
	}
	return s.store.ListNotifications(ctx, actorID, ListLimit)
}

// MarkRead marks one of the actor's notifications read.
func (s *Inbox) MarkRead(ctx context.Context, actorID, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, s.operationTimeout)
	defer cancel()

	if _, err := guard.Actor(ctx, s.store, actorID); err != nil {
		return err
	}
	n, err := s.store.GetNotification(ctx, id)
	if err != nil {
		return err
	}
	if n == nil {
		return fmt.Errorf("notification %s: %w", id, apperr.ErrNotFound)
	}
	if n.RecipientID != actorID {
		return fmt.Errorf("notification %s belongs to another user: %w", id, apperr.ErrUnauthorized)
	}
	if _, err := s.store.MarkNotificationRead(ctx, id); err != nil {
		return err
	}
	return nil
}

// MarkAllRead marks every unread notification of the actor and returns how
// many changed.
func (s *Inbox) MarkAllRead(ctx context.Context, actorID uuid.UUID) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.operationTimeout)
	defer cancel()

	if _, err := guard.Actor(ctx, s.store, actorID); err != nil {
		return 0, err
	}
	n, err := s.store.MarkAllNotificationsRead(ctx, actorID)
	if err != nil {
		return 0, err
	}
	s.logger.Debug("notifications marked read", logx.UUID("user_id", actorID), logx.Int64("count", n))
	return n, nil
}
