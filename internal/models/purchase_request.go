// internal/models/purchase_request.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type PurchaseRequest struct {
	BaseModel
	IdeaID             uuid.UUID      `json:"idea_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_purchase_requests_idea_buyer"`
	BuyerID            uuid.UUID      `json:"buyer_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_purchase_requests_idea_buyer"`
	SellerID           uuid.UUID      `json:"seller_id" gorm:"type:uuid;not null;index"`
	Status             PurchaseStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	PaymentStatus      PaymentStatus  `json:"payment_status" gorm:"type:varchar(20);not null;default:'not_paid'"`
	PaymentConfirmedAt *time.Time     `json:"payment_confirmed_at"`
	ApprovedAt         *time.Time     `json:"approved_at"`
	RejectedAt         *time.Time     `json:"rejected_at"`

	// Snapshot of the idea at request time
	IdeaTitle            string     `json:"idea_title" gorm:"size:200"`
	IdeaPrice            *int64     `json:"idea_price"`
	IdeaImageURIs        StringList `json:"idea_image_uris" gorm:"column:idea_image_uris;type:text;serializer:json"`
	IdeaShortDescription string     `json:"idea_short_description" gorm:"size:500"`
	IdeaCreatedAt        *time.Time `json:"idea_created_at"`
}

// IsParticipant reports whether userID is the buyer or the seller.
func (r *PurchaseRequest) IsParticipant(userID uuid.UUID) bool {
	return userID != uuid.Nil && (r.BuyerID == userID || r.SellerID == userID)
}

// CaptureSnapshot copies the idea fields that must survive idea deletion.
func (r *PurchaseRequest) CaptureSnapshot(idea *Idea) {
	createdAt := idea.CreatedAt
	r.IdeaTitle = idea.Title
	r.IdeaPrice = idea.Price
	r.IdeaImageURIs = append(StringList(nil), idea.ImageURIs...)
	r.IdeaShortDescription = idea.ShortDescription
	r.IdeaCreatedAt = &createdAt
}

// IdeaSnapshot is the denormalized view of an idea kept on a purchase request.
type IdeaSnapshot struct {
	Title            string     `json:"title"`
	Price            *int64     `json:"price"`
	ImageURIs        StringList `json:"image_uris"`
	ShortDescription string     `json:"short_description"`
	CreatedAt        *time.Time `json:"created_at"`
}

func (r *PurchaseRequest) Snapshot() IdeaSnapshot {
	return IdeaSnapshot{
		Title:            r.IdeaTitle,
		Price:            r.IdeaPrice,
		ImageURIs:        r.IdeaImageURIs,
		ShortDescription: r.IdeaShortDescription,
		CreatedAt:        r.IdeaCreatedAt,
	}
}

type IdeaViewKind string

const (
	IdeaViewLive     IdeaViewKind = "live"
	IdeaViewSnapshot IdeaViewKind = "snapshot"
)

// IdeaView is either the live idea or the snapshot taken when the request was
// created. Exactly one of Live and Snapshot is set, matching Kind.
type IdeaView struct {
	Kind     IdeaViewKind  `json:"kind"`
	Live     *Idea         `json:"live,omitempty"`
	Snapshot *IdeaSnapshot `json:"snapshot,omitempty"`
}

func LiveView(idea *Idea) IdeaView {
	return IdeaView{Kind: IdeaViewLive, Live: idea}
}

func SnapshotView(r *PurchaseRequest) IdeaView {
	s := r.Snapshot()
	return IdeaView{Kind: IdeaViewSnapshot, Snapshot: &s}
}

// Title returns the idea title regardless of which variant is held.
func (v IdeaView) Title() string {
	if v.Live != nil {
		return v.Live.Title
	}
	if v.Snapshot != nil {
		return v.Snapshot.Title
	}
	return ""
}
