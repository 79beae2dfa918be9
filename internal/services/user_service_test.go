package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/ideamarket-backend/internal/apperrors"
	"github.com/javajoker/ideamarket-backend/internal/i18n"
)

func TestProfileMasksOtherUsersEmail(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	user := e.user(t, "person@example.com", "Person")

	own, err := e.users.Profile(ctx, user.ID.String(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "person@example.com", own.Email)

	other, err := e.users.Profile(ctx, user.ID.String(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, "p***@example.com", other.Email)

	anonymous, err := e.users.Profile(ctx, user.ID.String(), uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, "p***@example.com", anonymous.Email)

	_, err = e.users.Profile(ctx, "nope", uuid.Nil)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestUpdateDisplayName(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	user := e.user(t, "person@example.com", "")

	assert.Equal(t, "person", e.users.DisplayName(ctx, user.ID, "ko"))
	assert.Equal(t, i18n.T("ko", i18n.KeyUserFallbackName), e.users.DisplayName(ctx, uuid.New(), "ko"))

	updated, err := e.users.UpdateDisplayName(ctx, user.ID, &UpdateDisplayNameRequest{DisplayName: "  새 이름  "})
	require.NoError(t, err)
	assert.Equal(t, "새 이름", updated.DisplayName)
	assert.Equal(t, "새 이름", e.users.DisplayName(ctx, user.ID, "ko"))

	_, err = e.users.UpdateDisplayName(ctx, user.ID, &UpdateDisplayNameRequest{DisplayName: "x"})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestTermsAgreementUpsert(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	user := e.user(t, "person@example.com", "Person")

	agreed, err := e.users.HasAgreedToTerms(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, agreed)

	_, err = e.users.SaveTermsAgreement(ctx, user.ID, true)
	require.NoError(t, err)
	_, err = e.users.SaveTermsAgreement(ctx, user.ID, true)
	require.NoError(t, err)

	agreed, err = e.users.HasAgreedToTerms(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, agreed)

	var rows int64
	require.NoError(t, e.db.Table("user_terms_agreements").Where("user_id = ?", user.ID).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}
