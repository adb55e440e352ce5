package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"chanban/internal/models"
)

// VoteLedger 는 투표 행, 변경 이력, topics 집계 컬럼을 한 트랜잭션에서 함께 바꾼다.
// topics 의 agree/disagree/neutral 카운터는 이 타입만 건드린다.
type VoteLedger struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewVoteLedger(db *gorm.DB, log *zap.Logger) *VoteLedger {
	return &VoteLedger{db: db, log: log.Named("vote_ledger")}
}

// UpsertVote 는 (topic, user) 의 투표를 만들거나 바꾼다.
// 같은 상태로 다시 투표하면 아무것도 바꾸지 않고 기존 행을 돌려준다.
func (l *VoteLedger) UpsertVote(ctx context.Context, topicID, userID string, status models.VoteStatus) (*models.Vote, error) {
	if !status.Valid() {
		return nil, ErrInvalidVoteStatus
	}

	var vote *models.Vote
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var topic models.Topic
		err := tx.Select("id").Where("id = ? AND deleted_at IS NULL", topicID).Take(&topic).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTopicNotFound
		}
		if err != nil {
			return err
		}

		vote, err = l.RecordTx(tx, topicID, userID, status)
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrTopicNotFound) {
			l.log.Error("upsert vote failed", zap.String("topic_id", topicID), zap.String("user_id", userID), zap.Error(err))
		}
		return nil, err
	}
	return vote, nil
}

// RecordTx 는 호출자의 트랜잭션 안에서 투표를 기록한다. 주제 존재 확인은 호출자 몫.
// 주제 생성 시 작성자 의견을 심을 때도 이 경로를 쓴다.
func (l *VoteLedger) RecordTx(tx *gorm.DB, topicID, userID string, status models.VoteStatus) (*models.Vote, error) {
	if !status.Valid() {
		return nil, ErrInvalidVoteStatus
	}
	now := tx.NowFunc()

	vote, err := lockVote(tx, topicID, userID)
	if err != nil {
		return nil, err
	}

	if vote == nil {
		fresh := models.Vote{
			TopicID:       topicID,
			UserID:        userID,
			CurrentStatus: status,
			FirstVotedAt:  now,
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "topic_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).Create(&fresh)
		if res.Error != nil {
			return nil, fmt.Errorf("insert vote: %w", res.Error)
		}

		if res.RowsAffected == 1 {
			if err := appendHistory(tx, fresh.ID, nil, status, now); err != nil {
				return nil, err
			}
			if err := shiftCounters(tx, topicID, "", status); err != nil {
				return nil, err
			}
			return &fresh, nil
		}

		// 동시에 들어온 첫 투표에 밀렸다. 이긴 쪽 행을 잠그고 변경 경로로 진행
		vote, err = lockVote(tx, topicID, userID)
		if err != nil {
			return nil, err
		}
		if vote == nil {
			return nil, fmt.Errorf("vote for topic %s missing after insert conflict", topicID)
		}
	}

	if vote.CurrentStatus == status {
		return vote, nil
	}

	prev := vote.CurrentStatus
	err = tx.Model(&models.Vote{}).Where("id = ?", vote.ID).UpdateColumns(map[string]any{
		"current_status":  status,
		"change_count":    gorm.Expr("change_count + 1"),
		"last_changed_at": now,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("update vote: %w", err)
	}
	if err := appendHistory(tx, vote.ID, &prev, status, now); err != nil {
		return nil, err
	}
	if err := shiftCounters(tx, topicID, prev, status); err != nil {
		return nil, err
	}

	// 행 잠금을 잡고 있으므로 메모리 값과 DB 값이 같다
	vote.CurrentStatus = status
	vote.ChangeCount++
	vote.LastChangedAt = &now
	return vote, nil
}

// GetCurrentVote 투표하지 않았으면 nil, nil
func (l *VoteLedger) GetCurrentVote(ctx context.Context, topicID, userID string) (*models.Vote, error) {
	var vote models.Vote
	err := l.db.WithContext(ctx).
		Where("topic_id = ? AND user_id = ?", topicID, userID).
		Take(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

// History 한 사용자의 이 주제에 대한 투표 변경 이력 (오래된 순)
func (l *VoteLedger) History(ctx context.Context, topicID, userID string) ([]models.VoteHistory, error) {
	byUser, err := loadVoteHistories(l.db.WithContext(ctx), topicID, []string{userID})
	if err != nil {
		return nil, err
	}
	return byUser[userID], nil
}

func lockVote(tx *gorm.DB, topicID, userID string) (*models.Vote, error) {
	var vote models.Vote
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("topic_id = ? AND user_id = ?", topicID, userID).
		Take(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lock vote: %w", err)
	}
	return &vote, nil
}

func appendHistory(tx *gorm.DB, voteID string, from *models.VoteStatus, to models.VoteStatus, at time.Time) error {
	entry := models.VoteHistory{
		VoteID:     voteID,
		FromStatus: from,
		ToStatus:   to,
		ChangedAt:  at,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("append vote history: %w", err)
	}
	return nil
}

// shiftCounters from 이 빈 값이면 새 투표. 제자리 증감이라 동시 투표끼리 값을 잃지 않는다.
func shiftCounters(tx *gorm.DB, topicID string, from, to models.VoteStatus) error {
	updates := map[string]any{
		to.CounterColumn(): gorm.Expr(to.CounterColumn() + " + 1"),
	}
	if from != "" {
		updates[from.CounterColumn()] = gorm.Expr(from.CounterColumn() + " - 1")
	}
	if err := tx.Model(&models.Topic{}).Where("id = ?", topicID).UpdateColumns(updates).Error; err != nil {
		return fmt.Errorf("update vote counters: %w", err)
	}
	return nil
}

// loadVoteHistories 주어진 사용자들의 이 주제 투표 이력을 한 번에 읽는다
func loadVoteHistories(db *gorm.DB, topicID string, userIDs []string) (map[string][]models.VoteHistory, error) {
	out := make(map[string][]models.VoteHistory, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	type row struct {
		models.VoteHistory
		UserID string
	}
	var rows []row
	err := db.Table("vote_history").
		Select("vote_history.*, votes.user_id AS user_id").
		Joins("JOIN votes ON votes.id = vote_history.vote_id").
		Where("votes.topic_id = ? AND votes.user_id IN ?", topicID, userIDs).
		Order("vote_history.changed_at ASC, vote_history.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load vote history: %w", err)
	}
	for _, r := range rows {
		out[r.UserID] = append(out[r.UserID], r.VoteHistory)
	}
	return out, nil
}
