package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/warga-app/warga-server/internal/apperr"
	"github.com/warga-app/warga-server/internal/db/models"
)

// Notification kinds emitted by the platform.
const (
	KindMemberPending  = "member.pending"
	KindMemberApproved = "member.approved"
	KindMemberRejected = "member.rejected"
	KindMemberKicked   = "member.kicked"
	KindRoleChanged    = "member.role_changed"
	KindCommentReply   = "comment.reply"
)

// ErrNotFound is returned when the referenced notification does not exist or
// belongs to another user.
var ErrNotFound = apperr.New(apperr.KindNotFound, "notification not found")

// Service persists notifications and forwards them to the publisher. A
// publish failure is logged, never surfaced: the notification row is the
// source of truth, the stream is best effort.
type Service struct {
	db        *gorm.DB
	publisher Publisher
}

// NewService creates a new notification service.
func NewService(db *gorm.DB, publisher Publisher) *Service {
	if publisher == nil {
		publisher = NopPublisher{}
	}

	return &Service{db: db, publisher: publisher}
}

// Notify stores a notification for the user and publishes it to the stream.
// Payload must be JSON-marshalable; nil is allowed.
func (s *Service) Notify(ctx context.Context, userID uint64, kind string, payload any) (*models.Notification, error) {
	var encoded []byte

	if payload != nil {
		var err error

		encoded, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode notification payload: %w", err)
		}
	}

	notification := &models.Notification{
		UserID:  userID,
		Kind:    kind,
		Payload: string(encoded),
	}

	if err := s.db.Create(notification).Error; err != nil {
		return nil, fmt.Errorf("failed to store notification: %w", err)
	}

	event := Event{
		ID:        uuid.NewString(),
		Kind:      kind,
		UserID:    userID,
		Payload:   encoded,
		CreatedAt: notification.CreatedAt,
	}

	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Error().Err(err).Str("kind", kind).Uint64("user", userID).
			Msg("failed to publish notification event")
	}

	return notification, nil
}

// List returns the user's notifications, newest first. With unreadOnly set,
// read notifications are filtered out.
func (s *Service) List(userID uint64, unreadOnly bool) ([]models.Notification, error) {
	tx := s.db.Where("user_id = ?", userID)

	if unreadOnly {
		tx = tx.Where("read = ?", false)
	}

	var notifications []models.Notification

	if err := tx.Order("id DESC").Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	return notifications, nil
}

// MarkRead flags a single notification of the user as read.
func (s *Service) MarkRead(userID, notificationID uint64) error {
	var notification models.Notification

	err := s.db.Where("user_id = ?", userID).First(&notification, notificationID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}

		return fmt.Errorf("failed to load notification: %w", err)
	}

	if err := s.db.Model(&notification).Update("read", true).Error; err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	return nil
}

// MarkAllRead flags all of the user's notifications as read and returns how
// many rows changed.
func (s *Service) MarkAllRead(userID uint64) (int64, error) {
	res := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", res.Error)
	}

	return res.RowsAffected, nil
}
