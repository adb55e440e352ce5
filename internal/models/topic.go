package models

import (
	"time"

	"gorm.io/gorm"
)

// Topic 찬반 토론 주제 (API 에서는 "post")
type Topic struct {
	ID                 string      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatorID          string      `gorm:"type:uuid;not null;index" json:"creatorId"`
	Creator            User        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"creator"`
	Title              string      `gorm:"size:100;not null" json:"title"`
	Content            string      `gorm:"type:text;not null" json:"content"`
	Tag                TopicTag    `gorm:"size:20;not null;index" json:"tag"`
	ShowCreatorOpinion bool        `gorm:"not null;default:false" json:"showCreatorOpinion"`
	CreatorOpinion     *VoteStatus `gorm:"size:10" json:"creatorOpinion"`

	// VoteLedger 만 갱신하는 집계 컬럼
	AgreeCount    int `gorm:"not null;default:0" json:"agreeCount"`
	DisagreeCount int `gorm:"not null;default:0" json:"disagreeCount"`
	NeutralCount  int `gorm:"not null;default:0" json:"neutralCount"`

	CommentCount    int        `gorm:"not null;default:0" json:"commentCount"`
	ViewCount       int        `gorm:"not null;default:0;index" json:"viewCount"`
	PopularityScore float64    `gorm:"not null;default:0;index" json:"popularityScore"`
	CreatedAt       time.Time  `gorm:"index" json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	DeletedAt       *time.Time `gorm:"index" json:"deletedAt,omitempty"`

	// 조회 시 채우는 필드
	CreatorVote *VoteStatus `gorm:"-" json:"creatorVote,omitempty"`
	ContentHTML string      `gorm:"-" json:"contentHtml,omitempty"`
}

func (t *Topic) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = NewID()
	}
	return nil
}

// TotalVotes 세 버킷의 합 = 투표한 사람 수
func (t *Topic) TotalVotes() int {
	return t.AgreeCount + t.DisagreeCount + t.NeutralCount
}
