// internal/services/purchase_service.go
package services

import (
	"context"
	"errors"
	"time"

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

const (
	transitionCreate         = "create"
	transitionConfirmPayment = "confirm_payment"
	transitionApprove        = "approve"
	transitionReject         = "reject"
)

// PurchaseService runs the purchase request workflow. Every status change is
// a single conditional UPDATE guarded on the current status, so concurrent
// callers cannot both move the same request.
type PurchaseService struct {
	db            *gorm.DB
	notifications *NotificationService
	users         *UserService
	publisher     realtime.Publisher
	metrics       metrics.Recorder
	lang          string
}

type CreatePurchaseRequest struct {
	IdeaID string `json:"idea_id" binding:"required"`
}

// PurchaseRequestView is a request together with the idea it refers to and
// the other party's public profile.
type PurchaseRequestView struct {
	Request            *models.PurchaseRequest `json:"request"`
	Idea               models.IdeaView         `json:"idea"`
	Counterparty       *models.PublicProfile   `json:"counterparty,omitempty"`
	CanViewFullContent bool                    `json:"can_view_full_content"`
}

type RequestStatus struct {
	HasRequest bool                  `json:"has_request"`
	RequestID  *uuid.UUID            `json:"request_id,omitempty"`
	Status     models.PurchaseStatus `json:"status,omitempty"`
}

func NewPurchaseService(db *gorm.DB, notifications *NotificationService, users *UserService, publisher realtime.Publisher, recorder metrics.Recorder, lang string) *PurchaseService {
	if lang == "" {
		lang = i18n.DefaultLang
	}
	return &PurchaseService{
		db:            db,
		notifications: notifications,
		users:         users,
		publisher:     publisher,
		metrics:       recorder,
		lang:          lang,
	}
}

// CreateRequest files buyer's request for the idea. A free idea is approved
// and paid in the same insert. Asking again for the same idea returns the
// existing request with created set to false.
func (s *PurchaseService) CreateRequest(ctx context.Context, ideaID string, buyer uuid.UUID) (request *models.PurchaseRequest, created bool, err error) {
	defer func() { s.metrics.RecordTransition(transitionCreate, outcomeOf(err)) }()

	if !utils.IsValidIdentifier(ideaID) {
		return nil, false, apperrors.NotFound(i18n.KeyIdeaNotFound, "idea not found")
	}
	if buyer == uuid.Nil {
		return nil, false, apperrors.Unauthenticated(i18n.KeyAuthRequired, "buyer required")
	}

	var idea models.Idea
	if err := s.db.WithContext(ctx).First(&idea, "id = ?", uuid.MustParse(ideaID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, apperrors.NotFound(i18n.KeyIdeaNotFound, "idea not found")
		}
		return nil, false, apperrors.Transient(i18n.KeyTransientError, "load idea", err)
	}

	if utils.OwnerMatches(buyer.String(), idea.UserID.String()) {
		return nil, false, apperrors.Conflict(i18n.KeyPurchaseSelfPurchase, "cannot purchase own idea")
	}

	existing, err := s.findRequest(ctx, idea.ID, buyer)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	request = &models.PurchaseRequest{
		IdeaID:        idea.ID,
		BuyerID:       buyer,
		SellerID:      idea.UserID,
		Status:        models.PurchaseStatusPending,
		PaymentStatus: models.PaymentStatusNotPaid,
	}
	request.CaptureSnapshot(&idea)
	if idea.IsFree {
		now := time.Now()
		request.Status = models.PurchaseStatusApproved
		request.PaymentStatus = models.PaymentStatusPaid
		request.ApprovedAt = &now
	}

	if err := s.db.WithContext(ctx).Create(request).Error; err != nil {
		if apperrors.IsUniqueViolation(err) {
			// Lost a race with a concurrent create for the same pair.
			existing, findErr := s.findRequest(ctx, idea.ID, buyer)
			if findErr != nil {
				return nil, false, findErr
			}
			if existing != nil {
				return existing, false, nil
			}
		}
		return nil, false, apperrors.Transient(i18n.KeyTransientError, "create purchase request", err)
	}

	if idea.IsFree {
		s.notify(ctx, request.SellerID, models.NotificationTypePurchaseApproved, i18n.KeyNotifyFreeSoldTitle, i18n.KeyNotifyFreeSoldMessage, request.ID)
		s.notify(ctx, request.BuyerID, models.NotificationTypePurchaseApproved, i18n.KeyNotifyFreeBoughtTitle, i18n.KeyNotifyFreeBoughtMessage, request.ID)
	} else {
		s.notify(ctx, request.SellerID, models.NotificationTypePurchaseRequest, i18n.KeyNotifyRequestTitle, i18n.KeyNotifyRequestMessage, request.ID)
	}

	s.publish(ctx, realtime.OpInsert, request)
	logrus.WithFields(logrus.Fields{
		"request_id": request.ID,
		"idea_id":    request.IdeaID,
		"buyer_id":   buyer,
		"status":     request.Status,
	}).Info("Purchase request created")

	return request, true, nil
}

// ConfirmPayment records the buyer's claim that payment was sent. Confirming
// twice is a no-op.
func (s *PurchaseService) ConfirmPayment(ctx context.Context, requestID string, buyer uuid.UUID) (request *models.PurchaseRequest, err error) {
	defer func() { s.metrics.RecordTransition(transitionConfirmPayment, outcomeOf(err)) }()

	if err := s.checkTransitionInput(requestID, buyer); err != nil {
		return nil, err
	}

	now := time.Now()
	res := s.db.WithContext(ctx).Model(&models.PurchaseRequest{}).
		Where("id = ? AND buyer_id = ? AND status = ? AND payment_status = ?",
			uuid.MustParse(requestID), buyer, models.PurchaseStatusPending, models.PaymentStatusNotPaid).
		Updates(map[string]interface{}{
			"payment_status":       models.PaymentStatusPaid,
			"payment_confirmed_at": now,
		})
	if res.Error != nil {
		return nil, apperrors.Transient(i18n.KeyTransientError, "confirm payment", res.Error)
	}

	request, err = s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if res.RowsAffected == 0 {
		if request.BuyerID != buyer {
			return nil, apperrors.Permission(i18n.KeyPurchasePermissionDenied, "only the buyer may confirm payment")
		}
		if request.Status != models.PurchaseStatusPending {
			return nil, apperrors.Conflict(i18n.KeyPurchaseAlreadyProcessed, "request already processed")
		}
		// Pending and already paid.
		return request, nil
	}

	s.notify(ctx, request.SellerID, models.NotificationTypePaymentConfirmed, i18n.KeyNotifyPaymentTitle, i18n.KeyNotifyPaymentMessage, request.ID)
	s.publish(ctx, realtime.OpUpdate, request)
	return request, nil
}

// Approve moves a pending request to approved. The request must be paid
// unless the idea is free.
func (s *PurchaseService) Approve(ctx context.Context, requestID string, seller uuid.UUID) (request *models.PurchaseRequest, err error) {
	defer func() { s.metrics.RecordTransition(transitionApprove, outcomeOf(err)) }()

	if err := s.checkTransitionInput(requestID, seller); err != nil {
		return nil, err
	}

	paidOrFree := s.db.Where("payment_status = ?", models.PaymentStatusPaid).
		Or("EXISTS (SELECT 1 FROM ideas WHERE ideas.id = purchase_requests.idea_id AND ideas.is_free = ?)", true)

	now := time.Now()
	res := s.db.WithContext(ctx).Model(&models.PurchaseRequest{}).
		Where("id = ? AND seller_id = ? AND status = ?", uuid.MustParse(requestID), seller, models.PurchaseStatusPending).
		Where(paidOrFree).
		Updates(map[string]interface{}{
			"status":      models.PurchaseStatusApproved,
			"approved_at": now,
		})
	if res.Error != nil {
		return nil, apperrors.Transient(i18n.KeyTransientError, "approve purchase request", res.Error)
	}

	request, err = s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if res.RowsAffected == 0 {
		return nil, s.sellerRejection(request, seller, true)
	}

	s.notify(ctx, request.BuyerID, models.NotificationTypePurchaseApproved, i18n.KeyNotifyApprovedTitle, i18n.KeyNotifyApprovedMessage, request.ID)
	s.publish(ctx, realtime.OpUpdate, request)
	logrus.WithFields(logrus.Fields{"request_id": request.ID, "seller_id": seller}).Info("Purchase request approved")
	return request, nil
}

func (s *PurchaseService) Reject(ctx context.Context, requestID string, seller uuid.UUID) (request *models.PurchaseRequest, err error) {
	defer func() { s.metrics.RecordTransition(transitionReject, outcomeOf(err)) }()

	if err := s.checkTransitionInput(requestID, seller); err != nil {
		return nil, err
	}

	now := time.Now()
	res := s.db.WithContext(ctx).Model(&models.PurchaseRequest{}).
		Where("id = ? AND seller_id = ? AND status = ?", uuid.MustParse(requestID), seller, models.PurchaseStatusPending).
		Updates(map[string]interface{}{
			"status":      models.PurchaseStatusRejected,
			"rejected_at": now,
		})
	if res.Error != nil {
		return nil, apperrors.Transient(i18n.KeyTransientError, "reject purchase request", res.Error)
	}

	request, err = s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if res.RowsAffected == 0 {
		return nil, s.sellerRejection(request, seller, false)
	}

	s.notify(ctx, request.BuyerID, models.NotificationTypePurchaseRejected, i18n.KeyNotifyRejectedTitle, i18n.KeyNotifyRejectedMessage, request.ID)
	s.publish(ctx, realtime.OpUpdate, request)
	return request, nil
}

// CountPending is a display count; it does not limit anything.
func (s *PurchaseService) CountPending(ctx context.Context, ideaID string) (int64, error) {
	if !utils.IsValidIdentifier(ideaID) {
		return 0, apperrors.NotFound(i18n.KeyIdeaNotFound, "idea not found")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.PurchaseRequest{}).
		Where("idea_id = ? AND status = ?", uuid.MustParse(ideaID), models.PurchaseStatusPending).
		Count(&count).Error; err != nil {
		return 0, apperrors.Transient(i18n.KeyTransientError, "count pending requests", err)
	}
	return count, nil
}

// Get returns a request to one of its participants.
func (s *PurchaseService) Get(ctx context.Context, requestID string, viewer uuid.UUID) (*PurchaseRequestView, error) {
	if err := s.checkTransitionInput(requestID, viewer); err != nil {
		return nil, err
	}

	request, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !utils.ParticipantMatches(viewer.String(), request.BuyerID.String(), request.SellerID.String()) {
		return nil, apperrors.Permission(i18n.KeyPurchasePermissionDenied, "not a participant")
	}

	views, err := s.resolve(ctx, []models.PurchaseRequest{*request}, viewer)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ListMine returns the requests buyer has sent, newest first.
func (s *PurchaseService) ListMine(ctx context.Context, buyer uuid.UUID) ([]PurchaseRequestView, error) {
	return s.list(ctx, buyer, "buyer_id = ?", "created_at DESC")
}

// ListReceived returns the requests for seller's ideas, newest first.
func (s *PurchaseService) ListReceived(ctx context.Context, seller uuid.UUID) ([]PurchaseRequestView, error) {
	return s.list(ctx, seller, "seller_id = ?", "created_at DESC")
}

// ListPurchasedIdeas returns buyer's approved requests, most recently
// approved first.
func (s *PurchaseService) ListPurchasedIdeas(ctx context.Context, buyer uuid.UUID) ([]PurchaseRequestView, error) {
	if buyer == uuid.Nil {
		return nil, apperrors.Unauthenticated(i18n.KeyAuthRequired, "caller required")
	}

	var requests []models.PurchaseRequest
	if err := s.db.WithContext(ctx).
		Where("buyer_id = ? AND status = ?", buyer, models.PurchaseStatusApproved).
		Order("approved_at DESC").
		Find(&requests).Error; err != nil {
		return nil, apperrors.Transient(i18n.KeyTransientError, "list purchased ideas", err)
	}
	return s.resolve(ctx, requests, buyer)
}

func (s *PurchaseService) HasRequest(ctx context.Context, ideaID string, buyer uuid.UUID) (RequestStatus, error) {
	if !utils.IsValidIdentifier(ideaID) {
		return RequestStatus{}, apperrors.NotFound(i18n.KeyIdeaNotFound, "idea not found")
	}
	if buyer == uuid.Nil {
		return RequestStatus{}, nil
	}

	request, err := s.findRequest(ctx, uuid.MustParse(ideaID), buyer)
	if err != nil || request == nil {
		return RequestStatus{}, err
	}
	return RequestStatus{HasRequest: true, RequestID: &request.ID, Status: request.Status}, nil
}

func (s *PurchaseService) list(ctx context.Context, caller uuid.UUID, where, order string) ([]PurchaseRequestView, error) {
	if caller == uuid.Nil {
		return nil, apperrors.Unauthenticated(i18n.KeyAuthRequired, "caller required")
	}

	var requests []models.PurchaseRequest
	if err := s.db.WithContext(ctx).Where(where, caller).Order(order).Find(&requests).Error; err != nil {
		return nil, apperrors.Transient(i18n.KeyTransientError, "list purchase requests", err)
	}
	return s.resolve(ctx, requests, caller)
}

// resolve pairs each request with its live idea, or the snapshot when the
// idea has been deleted, and with the other party's profile.
func (s *PurchaseService) resolve(ctx context.Context, requests []models.PurchaseRequest, viewer uuid.UUID) ([]PurchaseRequestView, error) {
	views := make([]PurchaseRequestView, 0, len(requests))
	if len(requests) == 0 {
		return views, nil
	}

	ideaIDs := make([]uuid.UUID, 0, len(requests))
	partyIDs := make([]uuid.UUID, 0, len(requests))
	for i := range requests {
		ideaIDs = append(ideaIDs, requests[i].IdeaID)
		partyIDs = append(partyIDs, counterpartyOf(&requests[i], viewer))
	}

	var ideas []models.Idea
	if err := s.db.WithContext(ctx).Where("id IN ?", uniqueIDs(ideaIDs)).Find(&ideas).Error; err != nil {
		return nil, apperrors.Transient(i18n.KeyTransientError, "load ideas", err)
	}
	live := make(map[uuid.UUID]models.Idea, len(ideas))
	for _, idea := range ideas {
		live[idea.ID] = idea
	}

	profiles, err := s.users.Profiles(ctx, partyIDs, viewer)
	if err != nil {
		return nil, err
	}

	for i := range requests {
		request := &requests[i]
		view := PurchaseRequestView{Request: request}

		if idea, ok := live[request.IdeaID]; ok {
			view.CanViewFullContent = CanViewFullContent(&idea, viewer, request)
			if !view.CanViewFullContent {
				idea.Content = ""
			}
			view.Idea = models.LiveView(&idea)
		} else {
			view.Idea = models.SnapshotView(request)
		}

		if profile, ok := profiles[counterpartyOf(request, viewer)]; ok {
			view.Counterparty = &profile
		}
		views = append(views, view)
	}
	return views, nil
}

func counterpartyOf(request *models.PurchaseRequest, viewer uuid.UUID) uuid.UUID {
	if request.BuyerID == viewer {
		return request.SellerID
	}
	return request.BuyerID
}

func (s *PurchaseService) checkTransitionInput(requestID string, caller uuid.UUID) error {
	if !utils.IsValidIdentifier(requestID) {
		logrus.WithField("id", requestID).Debug("Rejected malformed purchase request id")
		return apperrors.NotFound(i18n.KeyPurchaseNotFound, "purchase request not found")
	}
	if caller == uuid.Nil {
		return apperrors.Unauthenticated(i18n.KeyAuthRequired, "caller required")
	}
	return nil
}

// sellerRejection explains why a seller transition changed no row.
func (s *PurchaseService) sellerRejection(request *models.PurchaseRequest, seller uuid.UUID, needsPayment bool) error {
	if request.SellerID != seller {
		return apperrors.Permission(i18n.KeyPurchasePermissionDenied, "only the seller may process the request")
	}
	if request.Status != models.PurchaseStatusPending {
		return apperrors.Conflict(i18n.KeyPurchaseAlreadyProcessed, "request already processed").
			WithData(map[string]interface{}{"status": request.Status})
	}
	if needsPayment {
		return apperrors.Conflict(i18n.KeyPurchasePaymentNotConfirmed, "payment not confirmed")
	}
	return apperrors.Conflict(i18n.KeyPurchaseAlreadyProcessed, "request changed concurrently")
}

// IsParticipant reports whether caller is the buyer or seller of the
// request. Malformed or unknown ids are not an error.
func (s *PurchaseService) IsParticipant(ctx context.Context, requestID string, caller uuid.UUID) (bool, error) {
	if _, err := uuid.Parse(requestID); err != nil || caller == uuid.Nil {
		return false, nil
	}
	request, err := s.load(ctx, requestID)
	if err != nil {
		if apperrors.Is(err, apperrors.KindNotFound) {
			return false, nil
		}
		return false, err
	}
	return request.IsParticipant(caller), nil
}

func (s *PurchaseService) load(ctx context.Context, requestID string) (*models.PurchaseRequest, error) {
	var request models.PurchaseRequest
	if err := s.db.WithContext(ctx).First(&request, "id = ?", uuid.MustParse(requestID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(i18n.KeyPurchaseNotFound, "purchase request not found")
		}
		return nil, apperrors.Transient(i18n.KeyTransientError, "load purchase request", err)
	}
	return &request, nil
}

func (s *PurchaseService) findRequest(ctx context.Context, ideaID, buyer uuid.UUID) (*models.PurchaseRequest, error) {
	var requests []models.PurchaseRequest
	if err := s.db.WithContext(ctx).
		Where("idea_id = ? AND buyer_id = ?", ideaID, buyer).
		Limit(1).Find(&requests).Error; err != nil {
		return nil, apperrors.Transient(i18n.KeyTransientError, "find purchase request", err)
	}
	if len(requests) == 0 {
		return nil, nil
	}
	return &requests[0], nil
}

func (s *PurchaseService) notify(ctx context.Context, recipient uuid.UUID, notificationType models.NotificationType, titleKey, messageKey string, relatedID uuid.UUID) {
	s.notifications.Emit(ctx, recipient.String(), notificationType,
		i18n.T(s.lang, titleKey), i18n.T(s.lang, messageKey), relatedID.String())
}

func (s *PurchaseService) publish(ctx context.Context, op realtime.Op, request *models.PurchaseRequest) {
	event := realtime.NewEvent(realtime.TablePurchaseRequests, op, request.ID.String(), map[string]string{
		"idea_id":   request.IdeaID.String(),
		"buyer_id":  request.BuyerID.String(),
		"seller_id": request.SellerID.String(),
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		logrus.WithError(err).WithField("table", event.Table).Warn("Failed to publish realtime event")
	}
}
