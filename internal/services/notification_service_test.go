package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/ideamarket-backend/internal/apperrors"
	"github.com/javajoker/ideamarket-backend/internal/models"
	"github.com/javajoker/ideamarket-backend/internal/realtime"
	"github.com/javajoker/ideamarket-backend/internal/utils"
)

func TestEmitValidatesAndEscapes(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	recipient := uuid.New()

	result := e.notifications.Emit(ctx, "not-an-id", models.NotificationTypePurchaseRequest, "t", "m", "")
	assert.False(t, result.OK())
	assert.True(t, apperrors.Is(result.Err, apperrors.KindValidation))

	result = e.notifications.Emit(ctx, recipient.String(), models.NotificationTypePurchaseRequest, "t", "m", "bad-related")
	assert.True(t, apperrors.Is(result.Err, apperrors.KindValidation))

	result = e.notifications.Emit(ctx, recipient.String(), models.NotificationType("unknown"), "t", "m", "")
	assert.True(t, apperrors.Is(result.Err, apperrors.KindValidation))

	related := uuid.New()
	result = e.notifications.Emit(ctx, recipient.String(), models.NotificationTypePurchaseApproved,
		"<script>alert('x')</script>", "a/b", related.String())
	require.True(t, result.OK())
	assert.NotContains(t, result.Notification.Title, "<script>")
	assert.NotContains(t, result.Notification.Title, "</script>")
	assert.Equal(t, "a&#x2F;b", result.Notification.Message)
	assert.Equal(t, related, *result.Notification.RelatedID)

	stored := e.notificationsFor(t, recipient)
	require.Len(t, stored, 1)
	assert.False(t, stored[0].IsRead)
	assert.Equal(t, 1, e.recorder.notifications["purchase_approved/success"])
	assert.Equal(t, 1, e.recorder.notifications["unknown/validation"])
}

func TestMarkReadOnlyAffectsRecipient(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner, stranger := uuid.New(), uuid.New()

	result := e.notifications.Emit(ctx, owner.String(), models.NotificationTypePurchaseRequest, "t", "m", "")
	require.True(t, result.OK())
	id := result.Notification.ID.String()

	changed, err := e.notifications.MarkRead(ctx, id, stranger)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, int64(1), e.notifications.UnreadCount(ctx, owner))

	changed, err = e.notifications.MarkRead(ctx, id, owner)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Zero(t, e.notifications.UnreadCount(ctx, owner))

	changed, err = e.notifications.MarkRead(ctx, id, owner)
	require.NoError(t, err)
	assert.False(t, changed, "already read")

	_, err = e.notifications.MarkRead(ctx, "bogus", owner)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestMarkAllReadAndUnreadCount(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner, other := uuid.New(), uuid.New()

	for i := 0; i < 3; i++ {
		require.True(t, e.notifications.Emit(ctx, owner.String(), models.NotificationTypePaymentConfirmed, "t", "m", "").OK())
	}
	require.True(t, e.notifications.Emit(ctx, other.String(), models.NotificationTypePaymentConfirmed, "t", "m", "").OK())

	assert.Equal(t, int64(3), e.notifications.UnreadCount(ctx, owner))
	assert.Zero(t, e.notifications.UnreadCount(ctx, uuid.Nil))

	sub, err := e.broker.Subscribe(ctx, realtime.TableNotifications, realtime.Filter{Column: "user_id", Value: owner.String()})
	require.NoError(t, err)
	defer sub.Close()

	n, err := e.notifications.MarkAllRead(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Zero(t, e.notifications.UnreadCount(ctx, owner))
	assert.Equal(t, int64(1), e.notifications.UnreadCount(ctx, other))

	event := <-sub.Events()
	assert.Equal(t, realtime.OpUpdate, event.Op)

	n, err = e.notifications.MarkAllRead(ctx, owner)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestListNotificationsNewestFirst(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := uuid.New()

	for _, title := range []string{"first", "second", "third"} {
		require.True(t, e.notifications.Emit(ctx, owner.String(), models.NotificationTypePurchaseRequest, title, "m", "").OK())
	}

	list, total, err := e.notifications.List(ctx, owner, utils.PaginationParams{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, list, 2)

	_, _, err = e.notifications.List(ctx, uuid.Nil, utils.DefaultPagination())
	assert.True(t, apperrors.Is(err, apperrors.KindUnauthenticated))
}
