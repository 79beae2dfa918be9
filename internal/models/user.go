// internal/models/user.go
package models

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	BaseModel
	Email           string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash    string     `json:"-" gorm:"size:255;not null"`
	DisplayName     string     `json:"display_name" gorm:"size:50"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	LastLoginAt     *time.Time `json:"last_login_at"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

// PublicProfile is what other users see of an account.
type PublicProfile struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (u *User) Profile() PublicProfile {
	return PublicProfile{
		ID:          u.ID.String(),
		DisplayName: u.DisplayName,
		Email:       u.Email,
		CreatedAt:   u.CreatedAt,
	}
}

func (p PublicProfile) RecordID() string { return p.ID }

func (p PublicProfile) Contact() (string, bool) { return p.Email, p.Email != "" }

func (p PublicProfile) WithContact(contact string) PublicProfile {
	p.Email = contact
	return p
}

type TermsAgreement struct {
	BaseModel
	UserID   uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;uniqueIndex"`
	Agreed   bool       `json:"agreed" gorm:"not null;default:false"`
	AgreedAt *time.Time `json:"agreed_at"`
}

func (TermsAgreement) TableName() string {
	return "user_terms_agreements"
}

// MaxOneTimeCodeAttempts is how many wrong guesses burn a code.
const MaxOneTimeCodeAttempts = 5

// OneTimeCode holds a hashed sign-in code mailed to the user.
type OneTimeCode struct {
	BaseModel
	UserID         uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;index"`
	CodeHash       string     `json:"-" gorm:"size:255;not null"`
	ExpiresAt      time.Time  `json:"expires_at" gorm:"not null"`
	ConsumedAt     *time.Time `json:"consumed_at"`
	FailedAttempts int        `json:"failed_attempts" gorm:"not null;default:0"`
}

func (o *OneTimeCode) SetCode(code string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	o.CodeHash = string(hashed)
	return nil
}

func (o *OneTimeCode) Matches(code string) bool {
	return bcrypt.CompareHashAndPassword([]byte(o.CodeHash), []byte(code)) == nil
}
