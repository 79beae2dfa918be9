// internal/services/access_service.go
package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/ideamarket-backend/internal/apperrors"
	"github.com/javajoker/ideamarket-backend/internal/i18n"
	"github.com/javajoker/ideamarket-backend/internal/models"
)

// CanViewFullContent decides whether viewer may read the idea's content:
// the idea is free, the viewer owns it, or the viewer's own request for it
// is approved.
func CanViewFullContent(idea *models.Idea, viewer uuid.UUID, requestForViewer *models.PurchaseRequest) bool {
	if idea == nil {
		return false
	}
	if idea.IsFree {
		return true
	}
	if viewer == uuid.Nil {
		return false
	}
	if idea.UserID == viewer {
		return true
	}
	return requestForViewer != nil &&
		requestForViewer.IdeaID == idea.ID &&
		requestForViewer.BuyerID == viewer &&
		requestForViewer.Status == models.PurchaseStatusApproved
}

// AccessDecision is the page level verdict for an idea.
type AccessDecision struct {
	Allowed   bool   `json:"allowed"`
	ReasonKey string `json:"reason,omitempty"`
}

type AccessService struct {
	db *gorm.DB
}

func NewAccessService(db *gorm.DB) *AccessService {
	return &AccessService{db: db}
}

// CanAccessIdea allows a free idea, the owner, an idea nobody has bought yet,
// or a buyer whose request was approved. Everyone else sees the idea as sold
// to another buyer.
func (s *AccessService) CanAccessIdea(ctx context.Context, idea *models.Idea, viewer uuid.UUID) (AccessDecision, error) {
	if idea.IsFree || (viewer != uuid.Nil && idea.UserID == viewer) {
		return AccessDecision{Allowed: true}, nil
	}

	var approved int64
	if err := s.db.WithContext(ctx).Model(&models.PurchaseRequest{}).
		Where("idea_id = ? AND status = ?", idea.ID, models.PurchaseStatusApproved).
		Count(&approved).Error; err != nil {
		return AccessDecision{}, apperrors.Transient(i18n.KeyTransientError, "count approved requests", err)
	}
	if approved == 0 {
		return AccessDecision{Allowed: true}, nil
	}

	if viewer != uuid.Nil {
		var own int64
		if err := s.db.WithContext(ctx).Model(&models.PurchaseRequest{}).
			Where("idea_id = ? AND buyer_id = ? AND status = ?", idea.ID, viewer, models.PurchaseStatusApproved).
			Count(&own).Error; err != nil {
			return AccessDecision{}, apperrors.Transient(i18n.KeyTransientError, "count own approved request", err)
		}
		if own > 0 {
			return AccessDecision{Allowed: true}, nil
		}
	}

	return AccessDecision{Allowed: false, ReasonKey: i18n.KeyIdeaSoldToAnother}, nil
}

// RequestForViewer returns the viewer's request on idea, or nil.
func (s *AccessService) RequestForViewer(ctx context.Context, ideaID, viewer uuid.UUID) (*models.PurchaseRequest, error) {
	if viewer == uuid.Nil {
		return nil, nil
	}

	var requests []models.PurchaseRequest
	if err := s.db.WithContext(ctx).
		Where("idea_id = ? AND buyer_id = ?", ideaID, viewer).
		Limit(1).Find(&requests).Error; err != nil {
		return nil, apperrors.Transient(i18n.KeyTransientError, "load viewer request", err)
	}
	if len(requests) == 0 {
		return nil, nil
	}
	return &requests[0], nil
}
