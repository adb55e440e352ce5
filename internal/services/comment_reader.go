package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"chanban/internal/models"
)

// ReplyPreviewLimit 최상위 댓글마다 미리 보여주는 답글 수
const ReplyPreviewLimit = 3

type VoteHistoryItem struct {
	FromStatus *models.VoteStatus `json:"fromStatus"`
	ToStatus   models.VoteStatus  `json:"toStatus"`
	ChangedAt  time.Time          `json:"changedAt"`
}

// Author 댓글 작성자 + 이 주제에서의 투표 이력
type Author struct {
	ID              string             `json:"id"`
	Nickname        string             `json:"nickname"`
	ProfileImageURL *string            `json:"profileImageUrl"`
	VoteStatus      *models.VoteStatus `json:"voteStatus"`
	VoteHistory     []VoteHistoryItem  `json:"voteHistory"`
}

type CommentReply struct {
	ID        string     `json:"id"`
	TopicID   string     `json:"postId"`
	ParentID  *string    `json:"parentId"`
	Content   string     `json:"content"`
	LikeCount int        `json:"likeCount"`
	IsLiked   bool       `json:"isLiked"`
	User      Author     `json:"user"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"deletedAt"`
}

type CommentWithReplies struct {
	CommentReply
	Replies      []CommentReply `json:"replies"`
	TotalReplies int64          `json:"totalReplies"`
}

// commentRow comments JOIN users 결과 한 줄
type commentRow struct {
	ID                    string
	TopicID               string
	UserID                string
	ParentID              *string
	Content               string
	LikeCount             int
	CreatedAt             time.Time
	UpdatedAt             time.Time
	DeletedAt             *time.Time
	AuthorNickname        string
	AuthorProfileImageURL *string
}

const commentColumns = "comments.id, comments.topic_id, comments.user_id, comments.parent_id, comments.content, " +
	"comments.like_count, comments.created_at, comments.updated_at, comments.deleted_at, " +
	"users.nickname AS author_nickname, users.profile_image_url AS author_profile_image_url"

// ThreadedCommentReader 는 한 단계 답글 구조의 댓글 페이지를 읽는다.
// 페이지 크기와 관계없이 쿼리 수가 고정된다.
type ThreadedCommentReader struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewThreadedCommentReader(db *gorm.DB, log *zap.Logger) *ThreadedCommentReader {
	return &ThreadedCommentReader{db: db, log: log.Named("comment_reader")}
}

// ListTopLevelComments 최상위 댓글 한 페이지 + 댓글마다 최근 답글 3개와 전체 답글 수.
// viewerID 가 비어 있으면 isLiked 는 모두 false.
func (r *ThreadedCommentReader) ListTopLevelComments(ctx context.Context, topicID string, q PageQuery, viewerID string) ([]CommentWithReplies, PaginationMeta, error) {
	q = q.normalize(DefaultPageLimit)
	db := r.db.WithContext(ctx)

	var total int64
	err := db.Model(&models.Comment{}).
		Where("topic_id = ? AND parent_id IS NULL AND deleted_at IS NULL", topicID).
		Count(&total).Error
	if err != nil {
		return nil, PaginationMeta{}, fmt.Errorf("count comments: %w", err)
	}

	order := "comments.created_at DESC, comments.id DESC"
	if q.Sort == CommentSortPopular {
		order = "comments.like_count DESC, comments.created_at DESC, comments.id DESC"
	}

	var rows []commentRow
	err = db.Table("comments").
		Select(commentColumns).
		Joins("JOIN users ON users.id = comments.user_id").
		Where("comments.topic_id = ? AND comments.parent_id IS NULL AND comments.deleted_at IS NULL", topicID).
		Order(order).
		Offset(q.offset()).
		Limit(q.Limit).
		Scan(&rows).Error
	if err != nil {
		return nil, PaginationMeta{}, fmt.Errorf("list comments: %w", err)
	}

	meta := newMeta(total, q.Page, q.Limit)
	if len(rows) == 0 {
		// 빈 페이지는 total 만 남기고 totalPages 는 0
		meta.TotalPages = 0
		return []CommentWithReplies{}, meta, nil
	}

	parentIDs := make([]string, len(rows))
	for i, row := range rows {
		parentIDs[i] = row.ID
	}

	replies, err := r.previewReplies(db, parentIDs)
	if err != nil {
		return nil, PaginationMeta{}, err
	}
	counts, err := r.replyCounts(db, parentIDs)
	if err != nil {
		return nil, PaginationMeta{}, err
	}

	all := append(append([]commentRow{}, rows...), replies...)
	histories, err := loadVoteHistories(db, topicID, authorIDs(all))
	if err != nil {
		return nil, PaginationMeta{}, err
	}
	liked, err := r.likedSet(db, viewerID, all)
	if err != nil {
		return nil, PaginationMeta{}, err
	}

	// 답글은 최근 3개를 고른 뒤 오래된 순으로 보여준다 (쿼리에서 이미 정렬됨)
	byParent := make(map[string][]CommentReply, len(rows))
	for _, reply := range replies {
		pid := *reply.ParentID
		byParent[pid] = append(byParent[pid], toView(reply, histories, liked))
	}

	out := make([]CommentWithReplies, len(rows))
	for i, row := range rows {
		previews := byParent[row.ID]
		if previews == nil {
			previews = []CommentReply{}
		}
		out[i] = CommentWithReplies{
			CommentReply: toView(row, histories, liked),
			Replies:      previews,
			TotalReplies: counts[row.ID],
		}
	}
	return out, meta, nil
}

// ListOlderReplies 한 댓글의 답글 전체를 오래된 순으로 페이지 단위로 읽는다.
// 부모 댓글이 없으면 빈 페이지.
func (r *ThreadedCommentReader) ListOlderReplies(ctx context.Context, parentID string, q PageQuery, viewerID string) ([]CommentReply, PaginationMeta, error) {
	q = q.normalize(DefaultReplyLimit)
	db := r.db.WithContext(ctx)

	var parent models.Comment
	err := db.Select("id", "topic_id").Where("id = ?", parentID).Take(&parent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []CommentReply{}, newMeta(0, q.Page, q.Limit), nil
	}
	if err != nil {
		return nil, PaginationMeta{}, fmt.Errorf("load parent comment: %w", err)
	}

	var total int64
	err = db.Model(&models.Comment{}).
		Where("parent_id = ? AND deleted_at IS NULL", parentID).
		Count(&total).Error
	if err != nil {
		return nil, PaginationMeta{}, fmt.Errorf("count replies: %w", err)
	}

	var rows []commentRow
	err = db.Table("comments").
		Select(commentColumns).
		Joins("JOIN users ON users.id = comments.user_id").
		Where("comments.parent_id = ? AND comments.deleted_at IS NULL", parentID).
		Order("comments.created_at ASC, comments.id ASC").
		Offset(q.offset()).
		Limit(q.Limit).
		Scan(&rows).Error
	if err != nil {
		return nil, PaginationMeta{}, fmt.Errorf("list replies: %w", err)
	}

	meta := newMeta(total, q.Page, q.Limit)
	if len(rows) == 0 {
		meta.TotalPages = 0
		return []CommentReply{}, meta, nil
	}

	histories, err := loadVoteHistories(db, parent.TopicID, authorIDs(rows))
	if err != nil {
		return nil, PaginationMeta{}, err
	}
	liked, err := r.likedSet(db, viewerID, rows)
	if err != nil {
		return nil, PaginationMeta{}, err
	}

	out := make([]CommentReply, len(rows))
	for i, row := range rows {
		out[i] = toView(row, histories, liked)
	}
	return out, meta, nil
}

// previewReplies 부모마다 최근 ReplyPreviewLimit 개만 남기는 윈도 쿼리 한 번
func (r *ThreadedCommentReader) previewReplies(db *gorm.DB, parentIDs []string) ([]commentRow, error) {
	ranked := db.Table("comments").
		Select(commentColumns+", ROW_NUMBER() OVER (PARTITION BY comments.parent_id ORDER BY comments.created_at DESC, comments.id DESC) AS rn").
		Joins("JOIN users ON users.id = comments.user_id").
		Where("comments.parent_id IN ? AND comments.deleted_at IS NULL", parentIDs)

	var rows []commentRow
	err := db.Table("(?) AS ranked", ranked).
		Select("ranked.*").
		Where("ranked.rn <= ?", ReplyPreviewLimit).
		Order("ranked.parent_id, ranked.created_at ASC, ranked.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("preview replies: %w", err)
	}
	return rows, nil
}

func (r *ThreadedCommentReader) replyCounts(db *gorm.DB, parentIDs []string) (map[string]int64, error) {
	type countRow struct {
		ParentID string
		Total    int64
	}
	var rows []countRow
	err := db.Model(&models.Comment{}).
		Select("parent_id, COUNT(*) AS total").
		Where("parent_id IN ? AND deleted_at IS NULL", parentIDs).
		Group("parent_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count replies: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.ParentID] = row.Total
	}
	return counts, nil
}

func (r *ThreadedCommentReader) likedSet(db *gorm.DB, viewerID string, rows []commentRow) (map[string]bool, error) {
	liked := map[string]bool{}
	if viewerID == "" || len(rows) == 0 {
		return liked, nil
	}

	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	var likedIDs []string
	err := db.Model(&models.CommentLike{}).
		Where("user_id = ? AND comment_id IN ?", viewerID, ids).
		Pluck("comment_id", &likedIDs).Error
	if err != nil {
		return nil, fmt.Errorf("load comment likes: %w", err)
	}
	for _, id := range likedIDs {
		liked[id] = true
	}
	return liked, nil
}

func authorIDs(rows []commentRow) []string {
	seen := make(map[string]bool, len(rows))
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		if !seen[row.UserID] {
			seen[row.UserID] = true
			ids = append(ids, row.UserID)
		}
	}
	return ids
}

func toView(row commentRow, histories map[string][]models.VoteHistory, liked map[string]bool) CommentReply {
	entries := histories[row.UserID]
	items := make([]VoteHistoryItem, len(entries))
	for i, h := range entries {
		items[i] = VoteHistoryItem{FromStatus: h.FromStatus, ToStatus: h.ToStatus, ChangedAt: h.ChangedAt}
	}

	author := Author{
		ID:              row.UserID,
		Nickname:        row.AuthorNickname,
		ProfileImageURL: row.AuthorProfileImageURL,
		VoteHistory:     items,
	}
	if n := len(entries); n > 0 {
		latest := entries[n-1].ToStatus
		author.VoteStatus = &latest
	}

	return CommentReply{
		ID:        row.ID,
		TopicID:   row.TopicID,
		ParentID:  row.ParentID,
		Content:   row.Content,
		LikeCount: row.LikeCount,
		IsLiked:   liked[row.ID],
		User:      author,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
		DeletedAt: row.DeletedAt,
	}
}
