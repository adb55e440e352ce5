package models

import (
	"time"

	"gorm.io/gorm"
)

type Comment struct {
	ID        string     `gorm:"type:uuid;primaryKey" json:"id"`
	TopicID   string     `gorm:"type:uuid;not null;index" json:"postId"`
	Topic     Topic      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID    string     `gorm:"type:uuid;not null;index" json:"userId"`
	User      User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	ParentID  *string    `gorm:"type:uuid;index" json:"parentId"` // nil 이면 최상위 댓글
	Parent    *Comment   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Content   string     `gorm:"type:text;not null" json:"content"`
	LikeCount int        `gorm:"not null;default:0" json:"likeCount"`
	CreatedAt time.Time  `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `gorm:"index" json:"deletedAt"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = NewID()
	}
	return nil
}

func (c *Comment) IsReply() bool {
	return c.ParentID != nil
}

// CommentLike (comment, user) 당 하나
type CommentLike struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CommentID string    `gorm:"type:uuid;not null;index;uniqueIndex:idx_comment_likes_comment_user" json:"commentId"`
	Comment   Comment   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID    string    `gorm:"type:uuid;not null;index;uniqueIndex:idx_comment_likes_comment_user" json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

func (l *CommentLike) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = NewID()
	}
	return nil
}
