package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID              string     `gorm:"type:uuid;primaryKey" json:"id"`
	KakaoID         string     `gorm:"uniqueIndex;not null" json:"-"`
	Nickname        string     `gorm:"uniqueIndex;not null" json:"nickname"`
	ProfileImageURL *string    `gorm:"type:text" json:"profileImageUrl"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	DeletedAt       *time.Time `gorm:"index" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = NewID()
	}
	return nil
}
