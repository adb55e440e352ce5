package services

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"chanban/internal/models"
	"chanban/internal/utils"
)

const MaxCommentLength = 1000

type CreateCommentInput struct {
	TopicID  string
	ParentID *string
	Content  string
}

// CommentService 댓글 작성/삭제와 좋아요. 읽기는 ThreadedCommentReader 가 맡는다.
type CommentService struct {
	db            *gorm.DB
	log           *zap.Logger
	notifications *NotificationService
	ranking       *RankingService
}

func NewCommentService(db *gorm.DB, log *zap.Logger, notifications *NotificationService, ranking *RankingService) *CommentService {
	return &CommentService{
		db:            db,
		log:           log.Named("comment"),
		notifications: notifications,
		ranking:       ranking,
	}
}

func (s *CommentService) Create(ctx context.Context, userID string, in CreateCommentInput) (*models.Comment, error) {
	content := utils.SanitizeText(in.Content)
	if content == "" {
		return nil, invalid("댓글 내용을 입력해주세요")
	}
	if utf8.RuneCountInString(content) > MaxCommentLength {
		return nil, invalid(fmt.Sprintf("댓글은 %d자 이하로 입력해주세요", MaxCommentLength))
	}

	comment := models.Comment{
		TopicID:  in.TopicID,
		UserID:   userID,
		ParentID: in.ParentID,
		Content:  content,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var topic models.Topic
		err := tx.Select("id", "creator_id").Where("id = ? AND deleted_at IS NULL", in.TopicID).Take(&topic).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTopicNotFound
		}
		if err != nil {
			return err
		}

		recipient := topic.CreatorID
		notifType := models.NotificationTypeCommentPost

		if in.ParentID != nil {
			var parent models.Comment
			err := tx.Select("id", "topic_id", "user_id", "parent_id").
				Where("id = ? AND deleted_at IS NULL", *in.ParentID).
				Take(&parent).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCommentNotFound
			}
			if err != nil {
				return err
			}
			if parent.ParentID != nil {
				return ErrInvalidCommentNesting
			}
			if parent.TopicID != topic.ID {
				return invalid("부모 댓글이 다른 게시글에 속해 있습니다")
			}
			recipient = parent.UserID
			notifType = models.NotificationTypeReplyComment
		}

		if err := tx.Create(&comment).Error; err != nil {
			return fmt.Errorf("insert comment: %w", err)
		}
		err = tx.Model(&models.Topic{}).Where("id = ?", topic.ID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error
		if err != nil {
			return fmt.Errorf("update comment count: %w", err)
		}

		return s.notifications.createTx(tx, recipient, userID, notifType, topic.ID, comment.ID)
	})
	if err != nil {
		return nil, err
	}

	s.ranking.ScheduleUpdate(comment.TopicID)

	if err := s.db.WithContext(ctx).Preload("User").Take(&comment, "id = ?", comment.ID).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// Remove 작성자만 지울 수 있다. 최상위 댓글이면 살아 있는 답글도 같이 지운다.
func (s *CommentService) Remove(ctx context.Context, commentID, userID string) error {
	var topicID string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		err := tx.Where("id = ? AND deleted_at IS NULL", commentID).Take(&comment).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		if err != nil {
			return err
		}
		if comment.UserID != userID {
			return ErrForbidden
		}
		topicID = comment.TopicID

		scope := tx.Model(&models.Comment{})
		if comment.ParentID == nil {
			scope = scope.Where("deleted_at IS NULL AND (id = ? OR parent_id = ?)", commentID, commentID)
		} else {
			scope = scope.Where("deleted_at IS NULL AND id = ?", commentID)
		}
		res := scope.UpdateColumn("deleted_at", tx.NowFunc())
		if res.Error != nil {
			return fmt.Errorf("soft delete comment: %w", res.Error)
		}

		return tx.Model(&models.Topic{}).Where("id = ?", comment.TopicID).
			UpdateColumn("comment_count", gorm.Expr("comment_count - ?", res.RowsAffected)).Error
	})
	if err != nil {
		return err
	}

	s.ranking.ScheduleUpdate(topicID)
	return nil
}

// Like 좋아요 행과 like_count 를 같은 트랜잭션에서 바꾸고 새 like_count 를 돌려준다
func (s *CommentService) Like(ctx context.Context, commentID, userID string) (int, error) {
	var likeCount int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := liveComment(tx, commentID); err != nil {
			return err
		}

		var existing int64
		err := tx.Model(&models.CommentLike{}).
			Where("comment_id = ? AND user_id = ?", commentID, userID).
			Count(&existing).Error
		if err != nil {
			return err
		}
		if existing > 0 {
			return ErrDuplicateLike
		}

		if err := tx.Create(&models.CommentLike{CommentID: commentID, UserID: userID}).Error; err != nil {
			// 동시에 들어온 같은 좋아요는 유니크 인덱스에서 걸린다
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateLike
			}
			return err
		}
		if err := bumpLikeCount(tx, commentID, 1); err != nil {
			return err
		}
		return tx.Model(&models.Comment{}).Where("id = ?", commentID).Pluck("like_count", &likeCount).Error
	})
	return likeCount, err
}

func (s *CommentService) Unlike(ctx context.Context, commentID, userID string) (int, error) {
	var likeCount int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := liveComment(tx, commentID); err != nil {
			return err
		}

		var like models.CommentLike
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("comment_id = ? AND user_id = ?", commentID, userID).Take(&like).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLikeNotFound
		}
		if err != nil {
			return err
		}

		// 먼저 커밋한 쪽이 행을 지웠으면 카운터는 건드리지 않는다
		res := tx.Delete(&like)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrLikeNotFound
		}
		if err := bumpLikeCount(tx, commentID, -1); err != nil {
			return err
		}
		return tx.Model(&models.Comment{}).Where("id = ?", commentID).Pluck("like_count", &likeCount).Error
	})
	return likeCount, err
}

func liveComment(tx *gorm.DB, commentID string) error {
	var count int64
	err := tx.Model(&models.Comment{}).Where("id = ? AND deleted_at IS NULL", commentID).Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrCommentNotFound
	}
	return nil
}

func bumpLikeCount(tx *gorm.DB, commentID string, delta int) error {
	err := tx.Model(&models.Comment{}).Where("id = ?", commentID).
		UpdateColumn("like_count", gorm.Expr("like_count + ?", delta)).Error
	if err != nil {
		return fmt.Errorf("update like count: %w", err)
	}
	return nil
}
