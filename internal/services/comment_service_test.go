package services

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/ideamarket-backend/internal/apperrors"
	"github.com/javajoker/ideamarket-backend/internal/i18n"
)

func TestCreateCommentEscapesAndValidates(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, "owner@example.com", "Owner")
	idea := e.idea(t, owner.ID, "Idea", nil)

	comment, err := e.comments.Create(ctx, idea.ID.String(), owner.ID, &CreateCommentRequest{Content: "<b>hi</b>"})
	require.NoError(t, err)
	assert.Equal(t, "&lt;b&gt;hi&lt;&#x2F;b&gt;", comment.Content)

	_, err = e.comments.Create(ctx, idea.ID.String(), owner.ID, &CreateCommentRequest{Content: "  "})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, i18n.KeyValidationCommentRequired, appErr.Key)

	_, err = e.comments.Create(ctx, idea.ID.String(), owner.ID, &CreateCommentRequest{Content: strings.Repeat("가", 1001)})
	appErr, ok = apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, i18n.KeyValidationCommentTooLong, appErr.Key)

	_, err = e.comments.Create(ctx, uuid.NewString(), owner.ID, &CreateCommentRequest{Content: "hello"})
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	_, err = e.comments.Create(ctx, idea.ID.String(), uuid.Nil, &CreateCommentRequest{Content: "hello"})
	assert.True(t, apperrors.Is(err, apperrors.KindUnauthenticated))
}

func TestReplyMustTargetSameIdea(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, "owner@example.com", "Owner")
	first := e.idea(t, owner.ID, "First", nil)
	second := e.idea(t, owner.ID, "Second", nil)

	parent, err := e.comments.Create(ctx, first.ID.String(), owner.ID, &CreateCommentRequest{Content: "parent"})
	require.NoError(t, err)

	parentID := parent.ID.String()
	reply, err := e.comments.Create(ctx, first.ID.String(), owner.ID, &CreateCommentRequest{Content: "reply", ParentCommentID: &parentID})
	require.NoError(t, err)
	assert.Equal(t, parent.ID, *reply.ParentCommentID)

	_, err = e.comments.Create(ctx, second.ID.String(), owner.ID, &CreateCommentRequest{Content: "reply", ParentCommentID: &parentID})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestListCommentsResolvesAuthorNames(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	named := e.user(t, "named@example.com", "Named")
	anonymous := e.user(t, "quiet@example.com", "")
	idea := e.idea(t, named.ID, "Idea", nil)

	_, err := e.comments.Create(ctx, idea.ID.String(), named.ID, &CreateCommentRequest{Content: "one"})
	require.NoError(t, err)
	_, err = e.comments.Create(ctx, idea.ID.String(), anonymous.ID, &CreateCommentRequest{Content: "two"})
	require.NoError(t, err)

	asStranger, err := e.comments.ListByIdea(ctx, idea.ID.String(), named.ID, "ko")
	require.NoError(t, err)
	require.Len(t, asStranger, 2)
	assert.Equal(t, "Named", asStranger[0].AuthorName)
	assert.Equal(t, i18n.T("ko", i18n.KeyUserFallbackName), asStranger[1].AuthorName)

	asSelf, err := e.comments.ListByIdea(ctx, idea.ID.String(), anonymous.ID, "ko")
	require.NoError(t, err)
	assert.Equal(t, "quiet", asSelf[1].AuthorName)
}
