// internal/models/comment.go
package models

import (
	"github.com/google/uuid"
)

type Comment struct {
	BaseModel
	IdeaID          uuid.UUID  `json:"idea_id" gorm:"type:uuid;not null;index"`
	UserID          uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;index"`
	Content         string     `json:"content" gorm:"type:text;not null"`
	ParentCommentID *uuid.UUID `json:"parent_comment_id" gorm:"type:uuid;index"`

	AuthorName string `json:"author_name" gorm:"-"`
}
