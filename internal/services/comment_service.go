// internal/services/comment_service.go
package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/ideamarket-backend/internal/apperrors"
	"github.com/javajoker/ideamarket-backend/internal/i18n"
	"github.com/javajoker/ideamarket-backend/internal/models"
	"github.com/javajoker/ideamarket-backend/internal/realtime"
	"github.com/javajoker/ideamarket-backend/internal/utils"
)

const maxCommentLength = 1000

type CommentService struct {
	db        *gorm.DB
	publisher realtime.Publisher
}

type CreateCommentRequest struct {
	Content         string  `json:"content"`
	ParentCommentID *string `json:"parent_comment_id"`
}

func NewCommentService(db *gorm.DB, publisher realtime.Publisher) *CommentService {
	return &CommentService{db: db, publisher: publisher}
}

// ListByIdea returns the comments on an idea, oldest first, with author
// names resolved for viewer.
func (s *CommentService) ListByIdea(ctx context.Context, ideaID string, viewer uuid.UUID, lang string) ([]models.Comment, error) {
	if !utils.IsValidIdentifier(ideaID) {
		return nil, apperrors.NotFound(i18n.KeyIdeaNotFound, "idea not found")
	}

	var comments []models.Comment
	if err := s.db.WithContext(ctx).Where("idea_id = ?", uuid.MustParse(ideaID)).
		Order("created_at ASC").Find(&comments).Error; err != nil {
		return nil, apperrors.Transient(i18n.KeyTransientError, "list comments", err)
	}
	if len(comments) == 0 {
		return comments, nil
	}

	authorIDs := make([]uuid.UUID, len(comments))
	for i := range comments {
		authorIDs[i] = comments[i].UserID
	}

	var authors []models.User
	if err := s.db.WithContext(ctx).Select("id", "email", "display_name").
		Where("id IN ?", uniqueIDs(authorIDs)).Find(&authors).Error; err != nil {
		return nil, apperrors.Transient(i18n.KeyTransientError, "load comment authors", err)
	}
	byID := make(map[uuid.UUID]*models.User, len(authors))
	for i := range authors {
		byID[authors[i].ID] = &authors[i]
	}

	for i := range comments {
		comments[i].AuthorName = authorName(byID[comments[i].UserID], viewer, lang)
	}
	return comments, nil
}

func (s *CommentService) Create(ctx context.Context, ideaID string, author uuid.UUID, req *CreateCommentRequest) (*models.Comment, error) {
	if author == uuid.Nil {
		return nil, apperrors.Unauthenticated(i18n.KeyAuthRequired, "author required")
	}
	if !utils.IsValidIdentifier(ideaID) {
		return nil, apperrors.NotFound(i18n.KeyIdeaNotFound, "idea not found")
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, apperrors.Validation(i18n.KeyValidationCommentRequired, "comment content is required")
	}
	if utf8.RuneCountInString(content) > maxCommentLength {
		return nil, apperrors.Validation(i18n.KeyValidationCommentTooLong, "comment is too long")
	}

	var ideas int64
	if err := s.db.WithContext(ctx).Model(&models.Idea{}).Where("id = ?", uuid.MustParse(ideaID)).Count(&ideas).Error; err != nil {
		return nil, apperrors.Transient(i18n.KeyTransientError, "load idea", err)
	}
	if ideas == 0 {
		return nil, apperrors.NotFound(i18n.KeyIdeaNotFound, "idea not found")
	}

	comment := &models.Comment{
		IdeaID:  uuid.MustParse(ideaID),
		UserID:  author,
		Content: utils.EscapeUserText(content),
	}

	if req.ParentCommentID != nil && *req.ParentCommentID != "" {
		parentID, err := s.checkParent(ctx, *req.ParentCommentID, comment.IdeaID)
		if err != nil {
			return nil, err
		}
		comment.ParentCommentID = &parentID
	}

	if err := s.db.WithContext(ctx).Create(comment).Error; err != nil {
		return nil, apperrors.Transient(i18n.KeyTransientError, "create comment", err)
	}

	event := realtime.NewEvent(realtime.TableComments, realtime.OpInsert, comment.ID.String(), map[string]string{
		"idea_id": comment.IdeaID.String(),
		"user_id": comment.UserID.String(),
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		logrus.WithError(err).WithField("table", event.Table).Warn("Failed to publish realtime event")
	}
	return comment, nil
}

func (s *CommentService) checkParent(ctx context.Context, parentID string, ideaID uuid.UUID) (uuid.UUID, error) {
	if !utils.IsValidIdentifier(parentID) {
		return uuid.Nil, apperrors.Validation(i18n.KeyValidationParentComment, "invalid parent comment")
	}

	var parent models.Comment
	if err := s.db.WithContext(ctx).First(&parent, "id = ?", uuid.MustParse(parentID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, apperrors.Validation(i18n.KeyValidationParentComment, "parent comment not found")
		}
		return uuid.Nil, apperrors.Transient(i18n.KeyTransientError, "load parent comment", err)
	}
	if parent.IdeaID != ideaID {
		return uuid.Nil, apperrors.Validation(i18n.KeyValidationParentComment, "parent comment belongs to another idea")
	}
	return parent.ID, nil
}

// authorName prefers the display name. The email local part is only shown
// back to its owner; everyone else sees the generic fallback.
func authorName(author *models.User, viewer uuid.UUID, lang string) string {
	if author == nil {
		return i18n.T(lang, i18n.KeyUserFallbackName)
	}
	if name := strings.TrimSpace(author.DisplayName); name != "" {
		return name
	}
	if viewer != uuid.Nil && author.ID == viewer {
		return displayNameOf(author, lang)
	}
	return i18n.T(lang, i18n.KeyUserFallbackName)
}
