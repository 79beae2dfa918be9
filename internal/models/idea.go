// internal/models/idea.go
package models

import (
	"github.com/google/uuid"
)

type Idea struct {
	BaseModel
	UserID           uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;index"`
	Title            string     `json:"title" gorm:"size:200;not null"`
	ShortDescription string     `json:"short_description" gorm:"size:500;not null"`
	Content          string     `json:"content" gorm:"type:text;not null"`
	IsFree           bool       `json:"is_free" gorm:"not null;default:false"`
	Price            *int64     `json:"price"`
	Tags             StringList `json:"tags" gorm:"type:text;serializer:json"`
	ImageURIs        StringList `json:"image_uris" gorm:"column:image_uris;type:text;serializer:json"`
}

// PriceConsistent reports whether the free flag and price agree: a price is
// present and positive iff the idea is priced.
func (i *Idea) PriceConsistent() bool {
	if i.IsFree {
		return i.Price == nil
	}
	return i.Price != nil && *i.Price > 0
}

// HasTag reports whether the idea carries tag.
func (i *Idea) HasTag(tag string) bool {
	for _, t := range i.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
