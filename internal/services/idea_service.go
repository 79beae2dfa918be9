// internal/services/idea_service.go
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/javajoker/ideamarket-backend/internal/apperrors"
	"github.com/javajoker/ideamarket-backend/internal/i18n"
	"github.com/javajoker/ideamarket-backend/internal/models"
	"github.com/javajoker/ideamarket-backend/internal/realtime"
	"github.com/javajoker/ideamarket-backend/internal/utils"
)

const maxImagesPerIdea = 10

type IdeaService struct {
	db        *gorm.DB
	storage   ImageStore
	publisher realtime.Publisher
	access    *AccessService
}

type CreateIdeaRequest struct {
	Title            string   `json:"title"`
	ShortDescription string   `json:"short_description"`
	Content          string   `json:"content"`
	IsFree           bool     `json:"is_free"`
	Price            *int64   `json:"price"`
	Tags             []string `json:"tags" validate:"omitempty,max=10,dive,tag"`
	Images           []string `json:"images" validate:"omitempty,max=10"`
}

// UpdateIdeaRequest is a patch; nil fields are left unchanged.
type UpdateIdeaRequest struct {
	Title            *string   `json:"title"`
	ShortDescription *string   `json:"short_description"`
	Content          *string   `json:"content"`
	IsFree           *bool     `json:"is_free"`
	Price            *int64    `json:"price"`
	Tags             *[]string `json:"tags" validate:"omitempty,max=10,dive,tag"`
	Images           *[]string `json:"images" validate:"omitempty,max=10"`
}

// IdeaSummary is a catalog entry. It never carries the idea content.
type IdeaSummary struct {
	ID               uuid.UUID         `json:"id"`
	UserID           uuid.UUID         `json:"user_id"`
	Title            string            `json:"title"`
	ShortDescription string            `json:"short_description"`
	IsFree           bool              `json:"is_free"`
	Price            *int64            `json:"price"`
	Tags             models.StringList `json:"tags"`
	ImageURIs        models.StringList `json:"image_uris"`
	CommentCount     int64             `json:"comment_count"`
	CreatedAt        time.Time         `json:"created_at"`
}

// IdeaDetail is an idea as one viewer may see it.
type IdeaDetail struct {
	Idea               *models.Idea          `json:"idea"`
	CanViewFullContent bool                  `json:"can_view_full_content"`
	AccessDenied       bool                  `json:"access_denied"`
	AccessDeniedReason string                `json:"access_denied_reason,omitempty"`
	HasRequest         bool                  `json:"has_request"`
	RequestStatus      models.PurchaseStatus `json:"request_status,omitempty"`
	PendingRequests    int64                 `json:"pending_requests"`
}

func NewIdeaService(db *gorm.DB, storage ImageStore, publisher realtime.Publisher, access *AccessService) *IdeaService {
	return &IdeaService{
		db:        db,
		storage:   storage,
		publisher: publisher,
		access:    access,
	}
}

func (s *IdeaService) Create(ctx context.Context, owner uuid.UUID, req *CreateIdeaRequest) (*models.Idea, error) {
	if owner == uuid.Nil {
		return nil, apperrors.Unauthenticated(i18n.KeyAuthRequired, "owner required")
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	idea := &models.Idea{
		UserID:           owner,
		Title:            strings.TrimSpace(req.Title),
		ShortDescription: strings.TrimSpace(req.ShortDescription),
		Content:          strings.TrimSpace(req.Content),
		IsFree:           req.IsFree,
		Price:            req.Price,
		Tags:             normalizeTags(req.Tags),
	}
	if err := validateIdea(idea); err != nil {
		return nil, err
	}

	images, err := s.resolveImages(ctx, owner, req.Images)
	if err != nil {
		return nil, err
	}
	idea.ImageURIs = images

	if err := s.db.WithContext(ctx).Create(idea).Error; err != nil {
		return nil, apperrors.Transient(i18n.KeyTransientError, "create idea", err)
	}

	s.publish(ctx, realtime.OpInsert, idea)
	logrus.WithFields(logrus.Fields{"idea_id": idea.ID, "user_id": owner}).Info("Idea created")
	return idea, nil
}

// Get returns the idea with id. A malformed id is reported as not found.
func (s *IdeaService) Get(ctx context.Context, id string) (*models.Idea, error) {
	if !utils.IsValidIdentifier(id) {
		logrus.WithField("id", id).Debug("Rejected malformed idea id")
		return nil, apperrors.NotFound(i18n.KeyIdeaNotFound, "idea not found")
	}

	var idea models.Idea
	if err := s.db.WithContext(ctx).First(&idea, "id = ?", uuid.MustParse(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(i18n.KeyIdeaNotFound, "idea not found")
		}
		return nil, apperrors.Transient(i18n.KeyTransientError, "load idea", err)
	}
	return &idea, nil
}

func (s *IdeaService) Update(ctx context.Context, id string, caller uuid.UUID, req *UpdateIdeaRequest) (*models.Idea, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	idea, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !utils.OwnerMatches(identityOf(caller), idea.UserID.String()) {
		return nil, apperrors.Permission(i18n.KeyIdeaPermissionDenied, "only the owner may edit an idea")
	}

	if req.Title != nil {
		idea.Title = strings.TrimSpace(*req.Title)
	}
	if req.ShortDescription != nil {
		idea.ShortDescription = strings.TrimSpace(*req.ShortDescription)
	}
	if req.Content != nil {
		idea.Content = strings.TrimSpace(*req.Content)
	}
	if req.IsFree != nil {
		idea.IsFree = *req.IsFree
		if idea.IsFree {
			idea.Price = nil
		}
	}
	if req.Price != nil {
		idea.Price = req.Price
	}
	if req.Tags != nil {
		idea.Tags = normalizeTags(*req.Tags)
	}
	if err := validateIdea(idea); err != nil {
		return nil, err
	}

	if req.Images != nil {
		images, err := s.resolveImages(ctx, caller, *req.Images)
		if err != nil {
			return nil, err
		}
		idea.ImageURIs = images
	}

	// Last write wins; the owner check above is the only guard.
	res := s.db.WithContext(ctx).Model(&models.Idea{}).
		Where("id = ? AND user_id = ?", idea.ID, caller).
		Select("title", "short_description", "content", "is_free", "price", "tags", "image_uris", "updated_at").
		Updates(idea)
	if res.Error != nil {
		return nil, apperrors.Transient(i18n.KeyTransientError, "update idea", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.Permission(i18n.KeyIdeaPermissionDenied, "only the owner may edit an idea")
	}

	s.publish(ctx, realtime.OpUpdate, idea)
	return idea, nil
}

// Delete soft-deletes the idea. Purchase requests keep their snapshot and the
// uploaded images stay in storage for them.
func (s *IdeaService) Delete(ctx context.Context, id string, caller uuid.UUID) error {
	idea, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !utils.OwnerMatches(identityOf(caller), idea.UserID.String()) {
		return apperrors.Permission(i18n.KeyIdeaPermissionDenied, "only the owner may delete an idea")
	}

	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", idea.ID, caller).Delete(&models.Idea{})
	if res.Error != nil {
		return apperrors.Transient(i18n.KeyTransientError, "delete idea", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound(i18n.KeyIdeaNotFound, "idea not found")
	}

	s.publish(ctx, realtime.OpDelete, idea)
	logrus.WithFields(logrus.Fields{"idea_id": idea.ID, "user_id": caller}).Info("Idea deleted")
	return nil
}

// ListVisible returns every idea except those sold (an approved request
// exists) to someone other than viewer. An anonymous viewer sees no sold idea.
func (s *IdeaService) ListVisible(ctx context.Context, viewer uuid.UUID, tag string) ([]IdeaSummary, error) {
	ideas, err := s.visibleIdeas(ctx, viewer)
	if err != nil {
		return nil, err
	}

	tag = strings.TrimSpace(tag)
	if !isAllCategory(tag) {
		filtered := ideas[:0]
		for _, idea := range ideas {
			if idea.HasTag(tag) {
				filtered = append(filtered, idea)
			}
		}
		ideas = filtered
	}

	return s.summarize(ctx, ideas)
}

// Categories returns the localized "all" label followed by the distinct tags
// of the ideas visible to viewer, in first-seen order.
func (s *IdeaService) Categories(ctx context.Context, viewer uuid.UUID, lang string) ([]string, error) {
	ideas, err := s.visibleIdeas(ctx, viewer)
	if err != nil {
		return nil, err
	}

	categories := []string{i18n.T(lang, i18n.KeyIdeaAllCategory)}
	seen := make(map[string]struct{})
	for _, idea := range ideas {
		for _, tag := range idea.Tags {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			categories = append(categories, tag)
		}
	}
	return categories, nil
}

func (s *IdeaService) ListByOwner(ctx context.Context, owner uuid.UUID) ([]models.Idea, error) {
	if owner == uuid.Nil {
		return nil, apperrors.Unauthenticated(i18n.KeyAuthRequired, "owner required")
	}

	var ideas []models.Idea
	if err := s.db.WithContext(ctx).Where("user_id = ?", owner).
		Order("created_at DESC").Find(&ideas).Error; err != nil {
		return nil, apperrors.Transient(i18n.KeyTransientError, "list own ideas", err)
	}
	return ideas, nil
}

// GetForViewer loads an idea and resolves what viewer may see of it. The
// content is blanked unless viewer may read it in full.
func (s *IdeaService) GetForViewer(ctx context.Context, id string, viewer uuid.UUID) (*IdeaDetail, error) {
	idea, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	decision, err := s.access.CanAccessIdea(ctx, idea, viewer)
	if err != nil {
		return nil, err
	}

	request, err := s.access.RequestForViewer(ctx, idea.ID, viewer)
	if err != nil {
		return nil, err
	}

	var pending int64
	if err := s.db.WithContext(ctx).Model(&models.PurchaseRequest{}).
		Where("idea_id = ? AND status = ?", idea.ID, models.PurchaseStatusPending).
		Count(&pending).Error; err != nil {
		return nil, apperrors.Transient(i18n.KeyTransientError, "count pending requests", err)
	}

	detail := &IdeaDetail{
		Idea:               idea,
		CanViewFullContent: CanViewFullContent(idea, viewer, request),
		AccessDenied:       !decision.Allowed,
		AccessDeniedReason: decision.ReasonKey,
		PendingRequests:    pending,
	}
	if request != nil {
		detail.HasRequest = true
		detail.RequestStatus = request.Status
	}
	if !detail.CanViewFullContent {
		idea.Content = ""
	}
	return detail, nil
}

func (s *IdeaService) visibleIdeas(ctx context.Context, viewer uuid.UUID) ([]models.Idea, error) {
	var ideas []models.Idea
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&ideas).Error; err != nil {
		return nil, apperrors.Transient(i18n.KeyTransientError, "list ideas", err)
	}

	var approved []models.PurchaseRequest
	if err := s.db.WithContext(ctx).Select("idea_id", "buyer_id", "seller_id").
		Where("status = ?", models.PurchaseStatusApproved).
		Find(&approved).Error; err != nil {
		return nil, apperrors.Transient(i18n.KeyTransientError, "list approved requests", err)
	}

	excluded := soldToOthers(approved, viewer)
	visible := make([]models.Idea, 0, len(ideas))
	for _, idea := range ideas {
		if _, ok := excluded[idea.ID]; !ok {
			visible = append(visible, idea)
		}
	}
	return visible, nil
}

// soldToOthers collects the ideas with an approved request that viewer is
// not a participant of.
func soldToOthers(approved []models.PurchaseRequest, viewer uuid.UUID) map[uuid.UUID]struct{} {
	excluded := make(map[uuid.UUID]struct{}, len(approved))
	for i := range approved {
		if approved[i].IsParticipant(viewer) {
			continue
		}
		excluded[approved[i].IdeaID] = struct{}{}
	}
	return excluded
}

func (s *IdeaService) summarize(ctx context.Context, ideas []models.Idea) ([]IdeaSummary, error) {
	summaries := make([]IdeaSummary, 0, len(ideas))
	if len(ideas) == 0 {
		return summaries, nil
	}

	ids := make([]uuid.UUID, len(ideas))
	for i := range ideas {
		ids[i] = ideas[i].ID
	}

	var counts []struct {
		IdeaID uuid.UUID
		Total  int64
	}
	if err := s.db.WithContext(ctx).Model(&models.Comment{}).
		Select("idea_id, COUNT(*) AS total").
		Where("idea_id IN ?", ids).
		Group("idea_id").
		Scan(&counts).Error; err != nil {
		return nil, apperrors.Transient(i18n.KeyTransientError, "count comments", err)
	}
	commentCounts := make(map[uuid.UUID]int64, len(counts))
	for _, c := range counts {
		commentCounts[c.IdeaID] = c.Total
	}

	for _, idea := range ideas {
		summaries = append(summaries, IdeaSummary{
			ID:               idea.ID,
			UserID:           idea.UserID,
			Title:            idea.Title,
			ShortDescription: idea.ShortDescription,
			IsFree:           idea.IsFree,
			Price:            idea.Price,
			Tags:             idea.Tags,
			ImageURIs:        idea.ImageURIs,
			CommentCount:     commentCounts[idea.ID],
			CreatedAt:        idea.CreatedAt,
		})
	}
	return summaries, nil
}

// resolveImages uploads the images concurrently and keeps their order.
func (s *IdeaService) resolveImages(ctx context.Context, owner uuid.UUID, images []string) (models.StringList, error) {
	if len(images) == 0 {
		return models.StringList{}, nil
	}
	if len(images) > maxImagesPerIdea {
		return nil, apperrors.Validation(i18n.KeyValidationImage, "too many images")
	}

	resolved := make(models.StringList, len(images))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, image := range images {
		i, image := i, image
		g.Go(func() error {
			url, err := s.storage.UploadImage(gctx, owner, image)
			if err != nil {
				return err
			}
			resolved[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return resolved, nil
}

func (s *IdeaService) publish(ctx context.Context, op realtime.Op, idea *models.Idea) {
	event := realtime.NewEvent(realtime.TableIdeas, op, idea.ID.String(), map[string]string{
		"user_id": idea.UserID.String(),
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		logrus.WithError(err).WithField("table", event.Table).Warn("Failed to publish realtime event")
	}
}

func validateIdea(idea *models.Idea) error {
	if idea.Title == "" || idea.ShortDescription == "" || idea.Content == "" {
		return apperrors.Validation(i18n.KeyValidationIdeaFields, "title, short description and content are required")
	}
	if idea.IsFree && idea.Price != nil {
		return apperrors.Validation(i18n.KeyValidationPrice, "a free idea cannot carry a price")
	}
	if !idea.PriceConsistent() {
		return apperrors.Validation(i18n.KeyValidationPrice, "a priced idea needs a positive price")
	}
	return nil
}

// isAllCategory reports whether tag is empty or the "all" label in any
// catalog.
func isAllCategory(tag string) bool {
	if tag == "" || strings.EqualFold(tag, "all") {
		return true
	}
	for _, lang := range []string{"ko", "en"} {
		if tag == i18n.T(lang, i18n.KeyIdeaAllCategory) {
			return true
		}
	}
	return false
}

func normalizeTags(tags []string) models.StringList {
	out := make(models.StringList, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
