package models

import (
	"time"

	"gorm.io/gorm"
)

// Vote 는 (topic, user) 당 하나. 상태가 바뀌면 같은 행을 갱신한다.
type Vote struct {
	ID            string        `gorm:"type:uuid;primaryKey" json:"id"`
	TopicID       string        `gorm:"type:uuid;not null;index;uniqueIndex:idx_votes_topic_user" json:"postId"`
	Topic         Topic         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID        string        `gorm:"type:uuid;not null;index;uniqueIndex:idx_votes_topic_user" json:"userId"`
	CurrentStatus VoteStatus    `gorm:"size:10;not null" json:"currentStatus"`
	ChangeCount   int           `gorm:"not null;default:0" json:"changeCount"`
	FirstVotedAt  time.Time     `gorm:"autoCreateTime" json:"firstVotedAt"`
	LastChangedAt *time.Time    `json:"lastChangedAt"`
	History       []VoteHistory `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
}

func (v *Vote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = NewID()
	}
	return nil
}

// VoteHistory 투표 상태 변경 이력 (append-only)
type VoteHistory struct {
	ID         string      `gorm:"type:uuid;primaryKey" json:"-"`
	VoteID     string      `gorm:"type:uuid;not null;index;index:idx_vote_history_vote_changed,priority:1" json:"-"`
	FromStatus *VoteStatus `gorm:"size:10" json:"fromStatus"`
	ToStatus   VoteStatus  `gorm:"size:10;not null" json:"toStatus"`
	ChangedAt  time.Time   `gorm:"autoCreateTime;index:idx_vote_history_vote_changed,priority:2" json:"changedAt"`
}

func (VoteHistory) TableName() string {
	return "vote_history"
}

func (h *VoteHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = NewID()
	}
	return nil
}
