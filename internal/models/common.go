// internal/models/common.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeCreate assigns the identifier client-side so the same models work on
// postgres and sqlite.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Enums
type PurchaseStatus string

const (
	PurchaseStatusPending   PurchaseStatus = "pending"
	PurchaseStatusApproved  PurchaseStatus = "approved"
	PurchaseStatusRejected  PurchaseStatus = "rejected"
	PurchaseStatusCancelled PurchaseStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusNotPaid PaymentStatus = "not_paid"
	PaymentStatusPaid    PaymentStatus = "paid"
)

type NotificationType string

const (
	NotificationTypePurchaseRequest  NotificationType = "purchase_request"
	NotificationTypePaymentConfirmed NotificationType = "payment_confirmed"
	NotificationTypePurchaseApproved NotificationType = "purchase_approved"
	NotificationTypePurchaseRejected NotificationType = "purchase_rejected"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationTypePurchaseRequest, NotificationTypePaymentConfirmed,
		NotificationTypePurchaseApproved, NotificationTypePurchaseRejected:
		return true
	}
	return false
}

// StringList is stored as a JSON array so it round-trips on every driver.
type StringList []string
