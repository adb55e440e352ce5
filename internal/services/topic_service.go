package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"chanban/internal/cache"
	"chanban/internal/models"
	"chanban/internal/utils"
)

const MaxTitleLength = 100

type TopicSort string

const (
	TopicSortRecent  TopicSort = "recent"
	TopicSortPopular TopicSort = "popular"
)

type CreateTopicInput struct {
	Title              string
	Content            string
	Tag                string
	ShowCreatorOpinion bool
	CreatorOpinion     *models.VoteStatus
}

type ListQuery struct {
	Page  int
	Limit int
	Sort  TopicSort
	Order string // ASC | DESC, 태그 목록에서만 사용
}

func (q ListQuery) normalize() ListQuery {
	p := PageQuery{Page: q.Page, Limit: q.Limit}.normalize(DefaultPageLimit)
	q.Page, q.Limit = p.Page, p.Limit
	if q.Sort != TopicSortPopular {
		q.Sort = TopicSortRecent
	}
	if strings.ToUpper(q.Order) == "ASC" {
		q.Order = "ASC"
	} else {
		q.Order = "DESC"
	}
	return q
}

type TopicPage struct {
	Data []models.Topic `json:"data"`
	Meta PaginationMeta `json:"meta"`
}

type VoteCounts struct {
	AgreeCount    int `json:"agreeCount"`
	DisagreeCount int `json:"disagreeCount"`
	NeutralCount  int `json:"neutralCount"`
}

type TopicService struct {
	db      *gorm.DB
	log     *zap.Logger
	ledger  *VoteLedger
	ranking *RankingService
	cache   cache.Cache
}

func NewTopicService(db *gorm.DB, log *zap.Logger, ledger *VoteLedger, ranking *RankingService, c cache.Cache) *TopicService {
	return &TopicService{
		db:      db,
		log:     log.Named("topic"),
		ledger:  ledger,
		ranking: ranking,
		cache:   c,
	}
}

// Create 주제를 만들고, 작성자 의견을 공개하면 같은 트랜잭션에서 작성자 투표를 기록한다
func (s *TopicService) Create(ctx context.Context, creatorID string, in CreateTopicInput) (*models.Topic, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" || utf8.RuneCountInString(title) > MaxTitleLength {
		return nil, invalid(fmt.Sprintf("제목은 1~%d자로 입력해주세요", MaxTitleLength))
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, invalid("내용을 입력해주세요")
	}
	tag, ok := models.ParseTopicTag(in.Tag)
	if !ok {
		return nil, ErrInvalidTag
	}
	if in.CreatorOpinion != nil && !in.CreatorOpinion.Valid() {
		return nil, ErrInvalidVoteStatus
	}
	if in.ShowCreatorOpinion && in.CreatorOpinion == nil {
		return nil, invalid("작성자 의견을 공개하려면 의견을 선택해주세요")
	}

	topic := models.Topic{
		CreatorID:          creatorID,
		Title:              title,
		Content:            in.Content,
		Tag:                tag,
		ShowCreatorOpinion: in.ShowCreatorOpinion,
	}
	if in.ShowCreatorOpinion {
		topic.CreatorOpinion = in.CreatorOpinion
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&topic).Error; err != nil {
			return fmt.Errorf("insert topic: %w", err)
		}
		if topic.CreatorOpinion != nil {
			if _, err := s.ledger.RecordTx(tx, topic.ID, creatorID, *topic.CreatorOpinion); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateLists(ctx, tag)
	s.ranking.ScheduleUpdate(topic.ID)

	if err := s.db.WithContext(ctx).Preload("Creator").Take(&topic, "id = ?", topic.ID).Error; err != nil {
		return nil, err
	}
	return &topic, nil
}

func (s *TopicService) ListRecent(ctx context.Context, q ListQuery) (*TopicPage, error) {
	q = q.normalize()
	q.Order = "DESC"
	return s.list(ctx, "", q)
}

func (s *TopicService) ListByTag(ctx context.Context, rawTag string, q ListQuery) (*TopicPage, error) {
	tag, ok := models.ParseTopicTag(rawTag)
	if !ok {
		return nil, ErrInvalidTag
	}
	return s.list(ctx, tag, q.normalize())
}

// topicListing 캐시에는 순서와 메타만 둔다. 카운터는 매번 DB 에서 읽는다
type topicListing struct {
	IDs  []string       `json:"ids"`
	Meta PaginationMeta `json:"meta"`
}

func (s *TopicService) list(ctx context.Context, tag models.TopicTag, q ListQuery) (*TopicPage, error) {
	key := ""
	if q.Page == 1 && q.Limit == DefaultPageLimit {
		key = listCacheKey(tag, q.Sort, q.Order)
		var cached topicListing
		if ok, err := s.cache.Get(ctx, key, &cached); err != nil {
			s.log.Warn("topic list cache read failed", zap.String("key", key), zap.Error(err))
		} else if ok {
			topics, err := s.loadByIDs(ctx, cached.IDs)
			if err != nil {
				return nil, err
			}
			return &TopicPage{Data: topics, Meta: cached.Meta}, nil
		}
	}

	scope := func() *gorm.DB {
		tx := s.db.WithContext(ctx).Model(&models.Topic{}).Where("deleted_at IS NULL")
		if tag != "" {
			tx = tx.Where("tag = ?", tag)
		}
		return tx
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count topics: %w", err)
	}

	order := "created_at " + q.Order + ", id " + q.Order
	if q.Sort == TopicSortPopular {
		order = "popularity_score " + q.Order + ", created_at DESC, id DESC"
	}

	topics := []models.Topic{}
	err := scope().Preload("Creator").
		Order(order).
		Offset((q.Page - 1) * q.Limit).
		Limit(q.Limit).
		Find(&topics).Error
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}

	page := &TopicPage{Data: topics, Meta: newMeta(total, q.Page, q.Limit)}
	if key != "" {
		listing := topicListing{IDs: make([]string, len(topics)), Meta: page.Meta}
		for i, t := range topics {
			listing.IDs[i] = t.ID
		}
		if err := s.cache.Set(ctx, key, listing); err != nil {
			s.log.Warn("topic list cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return page, nil
}

// loadByIDs 캐시된 순서를 유지하면서 현재 행을 읽는다
func (s *TopicService) loadByIDs(ctx context.Context, ids []string) ([]models.Topic, error) {
	topics := []models.Topic{}
	if len(ids) == 0 {
		return topics, nil
	}

	var rows []models.Topic
	err := s.db.WithContext(ctx).Preload("Creator").
		Where("id IN ? AND deleted_at IS NULL", ids).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load cached topics: %w", err)
	}

	byID := make(map[string]models.Topic, len(rows))
	for _, t := range rows {
		byID[t.ID] = t
	}
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			topics = append(topics, t)
		}
	}
	return topics, nil
}

// Get 조회수를 1 올리고 렌더링된 본문과 작성자 투표를 채운다
func (s *TopicService) Get(ctx context.Context, id string) (*models.Topic, error) {
	var topic models.Topic
	err := s.db.WithContext(ctx).Preload("Creator").
		Where("id = ? AND deleted_at IS NULL", id).
		Take(&topic).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTopicNotFound
	}
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Model(&models.Topic{}).Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
	if err != nil {
		return nil, fmt.Errorf("increment view count: %w", err)
	}
	topic.ViewCount++

	if topic.ShowCreatorOpinion {
		vote, err := s.ledger.GetCurrentVote(ctx, id, topic.CreatorID)
		if err != nil {
			return nil, err
		}
		if vote != nil {
			status := vote.CurrentStatus
			topic.CreatorVote = &status
		}
	}
	topic.ContentHTML = utils.RenderMarkdown(topic.Content)

	s.ranking.ScheduleUpdate(id)
	return &topic, nil
}

func (s *TopicService) VoteCounts(ctx context.Context, id string) (*VoteCounts, error) {
	var counts VoteCounts
	res := s.db.WithContext(ctx).Model(&models.Topic{}).
		Select("agree_count", "disagree_count", "neutral_count").
		Where("id = ? AND deleted_at IS NULL", id).
		Limit(1).
		Scan(&counts)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrTopicNotFound
	}
	return &counts, nil
}

// SoftDelete 작성자만 지울 수 있다
func (s *TopicService) SoftDelete(ctx context.Context, id, userID string) error {
	var topic models.Topic
	err := s.db.WithContext(ctx).Select("id", "creator_id", "tag").
		Where("id = ? AND deleted_at IS NULL", id).
		Take(&topic).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrTopicNotFound
	}
	if err != nil {
		return err
	}
	if topic.CreatorID != userID {
		return ErrForbidden
	}

	err = s.db.WithContext(ctx).Model(&models.Topic{}).
		Where("id = ? AND deleted_at IS NULL", id).
		UpdateColumn("deleted_at", s.db.NowFunc()).Error
	if err != nil {
		return fmt.Errorf("soft delete topic: %w", err)
	}

	s.invalidateLists(ctx, topic.Tag)
	return nil
}

func (s *TopicService) invalidateLists(ctx context.Context, tag models.TopicTag) {
	keys := []string{
		listCacheKey("", TopicSortRecent, "DESC"),
		listCacheKey("", TopicSortPopular, "DESC"),
	}
	for _, sort := range []TopicSort{TopicSortRecent, TopicSortPopular} {
		for _, order := range []string{"ASC", "DESC"} {
			keys = append(keys, listCacheKey(tag, sort, order))
		}
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.log.Warn("topic list cache invalidation failed", zap.Error(err))
	}
}

func listCacheKey(tag models.TopicTag, sort TopicSort, order string) string {
	if tag == "" {
		return fmt.Sprintf("topics:recent:%s:%s", sort, order)
	}
	return fmt.Sprintf("topics:tag:%s:%s:%s", tag, sort, order)
}
