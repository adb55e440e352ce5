package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"chanban/internal/models"
	"chanban/internal/utils"
)

const (
	rankingQueueSize     = 1000
	rankingBatchSize     = 50
	rankingFlushInterval = 500 * time.Millisecond
)

// RankingService 는 popularity_score 를 비동기로 다시 계산한다.
// 같은 주제가 짧은 시간에 여러 번 들어와도 한 번만 계산한다.
type RankingService struct {
	db      *gorm.DB
	log     *zap.Logger
	queue   chan string
	pending map[string]bool
	mu      sync.Mutex

	done     chan struct{}
	doneOnce sync.Once
}

func NewRankingService(db *gorm.DB, log *zap.Logger) *RankingService {
	return &RankingService{
		db:      db,
		log:     log.Named("ranking"),
		queue:   make(chan string, rankingQueueSize),
		pending: make(map[string]bool),
		done:    make(chan struct{}),
	}
}

// ScheduleUpdate 큐에 넣기만 하고 바로 돌아온다. nil 이면 아무것도 안 한다.
func (s *RankingService) ScheduleUpdate(topicID string) {
	if s == nil {
		return
	}

	s.mu.Lock()
	if s.pending[topicID] {
		s.mu.Unlock()
		return
	}
	s.pending[topicID] = true
	s.mu.Unlock()

	select {
	case s.queue <- topicID:
	default:
		s.mu.Lock()
		delete(s.pending, topicID)
		s.mu.Unlock()
		s.log.Warn("ranking queue full, skipping", zap.String("topic_id", topicID))
	}
}

// Run 은 ctx 가 끝날 때까지 큐를 모아서 처리한다.
// 끝날 때는 큐에 남은 주제까지 모두 계산한 뒤 Done 을 닫는다.
func (s *RankingService) Run(ctx context.Context) {
	defer s.doneOnce.Do(func() { close(s.done) })

	batch := make([]string, 0, rankingBatchSize)
	ticker := time.NewTicker(rankingFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.drain(batch)
			return
		case topicID := <-s.queue:
			batch = append(batch, topicID)
			if len(batch) >= rankingBatchSize {
				s.processBatch(ctx, batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.processBatch(ctx, batch)
				batch = batch[:0]
			}
		}
	}
}

// Done Run 이 남은 작업을 끝내고 돌아오면 닫힌다
func (s *RankingService) Done() <-chan struct{} {
	return s.done
}

// drain 취소된 ctx 대신 새 컨텍스트로 배치와 큐의 나머지를 처리한다
func (s *RankingService) drain(batch []string) {
	ctx := context.Background()
	for {
		select {
		case topicID := <-s.queue:
			batch = append(batch, topicID)
		default:
			if len(batch) > 0 {
				s.processBatch(ctx, batch)
				s.log.Info("ranking queue drained", zap.Int("topics", len(batch)))
			}
			return
		}
	}
}

func (s *RankingService) processBatch(ctx context.Context, topicIDs []string) {
	for _, topicID := range topicIDs {
		if err := s.UpdateNow(ctx, topicID); err != nil {
			s.log.Error("update popularity failed", zap.String("topic_id", topicID), zap.Error(err))
		}

		s.mu.Lock()
		delete(s.pending, topicID)
		s.mu.Unlock()
	}
}

// UpdateNow 집계 컬럼으로 점수를 바로 계산해 저장한다
func (s *RankingService) UpdateNow(ctx context.Context, topicID string) error {
	var topic models.Topic
	err := s.db.WithContext(ctx).
		Select("id", "created_at", "agree_count", "disagree_count", "neutral_count", "comment_count", "view_count").
		Where("id = ? AND deleted_at IS NULL", topicID).
		Take(&topic).Error
	if err != nil {
		return err
	}

	score := utils.CalculatePopularity(topic.CreatedAt, topic.TotalVotes(), topic.CommentCount, topic.ViewCount)
	return s.db.WithContext(ctx).Model(&models.Topic{}).
		Where("id = ?", topicID).
		UpdateColumn("popularity_score", score).Error
}
