// internal/services/notification_service.go
package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/ideamarket-backend/internal/apperrors"
	"github.com/javajoker/ideamarket-backend/internal/i18n"
	"github.com/javajoker/ideamarket-backend/internal/metrics"
	"github.com/javajoker/ideamarket-backend/internal/models"
	"github.com/javajoker/ideamarket-backend/internal/realtime"
	"github.com/javajoker/ideamarket-backend/internal/utils"
)

type NotificationService struct {
	db        *gorm.DB
	publisher realtime.Publisher
	metrics   metrics.Recorder
}

// EmitResult reports the outcome of Emit. Err is set when nothing was
// stored.
type EmitResult struct {
	Notification *models.Notification
	Err          error
}

func (r EmitResult) OK() bool {
	return r.Err == nil
}

func NewNotificationService(db *gorm.DB, publisher realtime.Publisher, recorder metrics.Recorder) *NotificationService {
	return &NotificationService{
		db:        db,
		publisher: publisher,
		metrics:   recorder,
	}
}

// Emit stores one notification for recipient. It never panics and never
// returns an error directly; callers inspect the result so a failed
// notification cannot abort the operation that triggered it.
func (s *NotificationService) Emit(ctx context.Context, recipient string, notificationType models.NotificationType, title, message, relatedID string) (result EmitResult) {
	defer func() {
		if r := recover(); r != nil {
			result = EmitResult{Err: apperrors.Transient(i18n.KeyTransientError, "emit notification", fmt.Errorf("panic: %v", r))}
		}
		outcome := "success"
		if result.Err != nil {
			outcome = outcomeOf(result.Err)
			logrus.WithError(result.Err).WithFields(logrus.Fields{
				"recipient":  recipient,
				"type":       notificationType,
				"related_id": relatedID,
			}).Warn("Notification not emitted")
		}
		s.metrics.RecordNotification(string(notificationType), outcome)
	}()

	if !utils.IsValidIdentifier(recipient) {
		return EmitResult{Err: apperrors.Validation(i18n.KeyValidationNotificationInput, "invalid recipient identifier")}
	}
	if relatedID != "" && !utils.IsValidIdentifier(relatedID) {
		return EmitResult{Err: apperrors.Validation(i18n.KeyValidationNotificationInput, "invalid related identifier")}
	}
	if !notificationType.Valid() {
		return EmitResult{Err: apperrors.Validation(i18n.KeyValidationNotificationType, "unknown notification type")}
	}

	notification := &models.Notification{
		UserID:  uuid.MustParse(recipient),
		Type:    notificationType,
		Title:   utils.EscapeUserText(title),
		Message: utils.EscapeUserText(message),
	}
	if relatedID != "" {
		related := uuid.MustParse(relatedID)
		notification.RelatedID = &related
	}

	if err := s.db.WithContext(ctx).Create(notification).Error; err != nil {
		return EmitResult{Err: apperrors.Transient(i18n.KeyTransientError, "insert notification", err)}
	}

	s.publish(ctx, realtime.OpInsert, notification.ID.String(), notification.UserID)
	return EmitResult{Notification: notification}
}

func (s *NotificationService) List(ctx context.Context, caller uuid.UUID, params utils.PaginationParams) ([]models.Notification, int64, error) {
	if caller == uuid.Nil {
		return nil, 0, apperrors.Unauthenticated(i18n.KeyAuthRequired, "caller required")
	}

	query := s.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", caller)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Transient(i18n.KeyTransientError, "count notifications", err)
	}

	var notifications []models.Notification
	if err := utils.ApplyPagination(query.Order("created_at DESC"), params).Find(&notifications).Error; err != nil {
		return nil, 0, apperrors.Transient(i18n.KeyTransientError, "list notifications", err)
	}

	return notifications, total, nil
}

// MarkRead flips the read flag of one of the caller's notifications. A
// notification owned by someone else, or already read, is reported as
// unchanged rather than as an error.
func (s *NotificationService) MarkRead(ctx context.Context, id string, caller uuid.UUID) (bool, error) {
	if !utils.IsValidIdentifier(id) {
		return false, apperrors.Validation(i18n.KeyValidationIdentifier, "invalid notification id")
	}
	if caller == uuid.Nil {
		return false, nil
	}

	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ? AND is_read = ?", uuid.MustParse(id), caller, false).
		Update("is_read", true)
	if res.Error != nil {
		return false, apperrors.Transient(i18n.KeyTransientError, "mark notification read", res.Error)
	}

	if res.RowsAffected == 0 {
		return false, nil
	}

	s.publish(ctx, realtime.OpUpdate, uuid.MustParse(id).String(), caller)
	return true, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, caller uuid.UUID) (int64, error) {
	if caller == uuid.Nil {
		return 0, nil
	}

	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", caller, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, apperrors.Transient(i18n.KeyTransientError, "mark all notifications read", res.Error)
	}

	if res.RowsAffected > 0 {
		s.publish(ctx, realtime.OpUpdate, "", caller)
	}
	return res.RowsAffected, nil
}

// UnreadCount is a display value: an absent caller or a failed query yields 0.
func (s *NotificationService) UnreadCount(ctx context.Context, caller uuid.UUID) int64 {
	if caller == uuid.Nil {
		return 0
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", caller, false).
		Count(&count).Error; err != nil {
		logrus.WithError(err).WithField("user_id", caller).Warn("Failed to count unread notifications")
		return 0
	}
	return count
}

func (s *NotificationService) publish(ctx context.Context, op realtime.Op, rowID string, recipient uuid.UUID) {
	event := realtime.NewEvent(realtime.TableNotifications, op, rowID, map[string]string{
		"user_id": recipient.String(),
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		logrus.WithError(err).WithField("table", event.Table).Warn("Failed to publish realtime event")
	}
}
