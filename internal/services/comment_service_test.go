package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chanban/internal/models"
	"chanban/internal/testutil"
)

func countComments(t *testing.T, env *testEnv) int64 {
	t.Helper()
	var n int64
	require.NoError(t, env.db.Model(&models.Comment{}).Count(&n).Error)
	return n
}

func TestCreateCommentTopLevel(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	creator := testutil.CreateUser(t, env.db, "")
	author := testutil.CreateUser(t, env.db, "작성자")
	topic := testutil.CreateTopic(t, env.db, creator.ID)

	c, err := env.comments.Create(ctx, author.ID, CreateCommentInput{TopicID: topic.ID, Content: "  <b>좋은</b> 의견  "})
	require.NoError(t, err)
	assert.Equal(t, "좋은 의견", c.Content)
	assert.Nil(t, c.ParentID)
	assert.Equal(t, "작성자", c.User.Nickname)

	assert.Equal(t, 1, env.reloadTopic(t, topic.ID).CommentCount)

	notes, err := env.notifications.List(ctx, creator.ID, 0)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationTypeCommentPost, notes[0].Type)
	require.NotNil(t, notes[0].CommentID)
	assert.Equal(t, c.ID, *notes[0].CommentID)
}

func TestCreateCommentReplyNotifiesParentAuthor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	creator := testutil.CreateUser(t, env.db, "")
	author := testutil.CreateUser(t, env.db, "")
	replier := testutil.CreateUser(t, env.db, "")
	topic := testutil.CreateTopic(t, env.db, creator.ID)

	parent, err := env.comments.Create(ctx, author.ID, CreateCommentInput{TopicID: topic.ID, Content: "부모"})
	require.NoError(t, err)
	reply, err := env.comments.Create(ctx, replier.ID, CreateCommentInput{TopicID: topic.ID, ParentID: &parent.ID, Content: "답글"})
	require.NoError(t, err)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, parent.ID, *reply.ParentID)

	notes, err := env.notifications.List(ctx, author.ID, 0)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationTypeReplyComment, notes[0].Type)

	assert.Equal(t, 2, env.reloadTopic(t, topic.ID).CommentCount)
}

func TestCreateCommentOwnTopicNoNotification(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	creator := testutil.CreateUser(t, env.db, "")
	topic := testutil.CreateTopic(t, env.db, creator.ID)

	_, err := env.comments.Create(ctx, creator.ID, CreateCommentInput{TopicID: topic.ID, Content: "내 글"})
	require.NoError(t, err)

	n, err := env.notifications.UnreadCount(ctx, creator.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCreateCommentRejectsNestedReply(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, env.db, "")
	topic := testutil.CreateTopic(t, env.db, user.ID)
	parent := testutil.CreateComment(t, env.db, topic.ID, user.ID, nil, at(0))
	reply := testutil.CreateComment(t, env.db, topic.ID, user.ID, &parent.ID, at(1))

	before := countComments(t, env)
	_, err := env.comments.Create(ctx, user.ID, CreateCommentInput{TopicID: topic.ID, ParentID: &reply.ID, Content: "x"})
	assert.ErrorIs(t, err, ErrInvalidCommentNesting)
	assert.Equal(t, before, countComments(t, env))
	assert.Equal(t, 0, env.reloadTopic(t, topic.ID).CommentCount)
}

func TestCreateCommentValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, env.db, "")
	topic := testutil.CreateTopic(t, env.db, user.ID)
	otherTopic := testutil.CreateTopic(t, env.db, user.ID)
	foreign := testutil.CreateComment(t, env.db, otherTopic.ID, user.ID, nil, at(0))

	_, err := env.comments.Create(ctx, user.ID, CreateCommentInput{TopicID: topic.ID, Content: "   "})
	assert.ErrorIs(t, err, ErrBadRequest)

	_, err = env.comments.Create(ctx, user.ID, CreateCommentInput{TopicID: topic.ID, Content: "<script></script>"})
	assert.ErrorIs(t, err, ErrBadRequest)

	_, err = env.comments.Create(ctx, user.ID, CreateCommentInput{TopicID: topic.ID, Content: strings.Repeat("가", MaxCommentLength+1)})
	assert.ErrorIs(t, err, ErrBadRequest)

	_, err = env.comments.Create(ctx, user.ID, CreateCommentInput{TopicID: models.NewID(), Content: "x"})
	assert.ErrorIs(t, err, ErrTopicNotFound)

	_, err = env.comments.Create(ctx, user.ID, CreateCommentInput{TopicID: topic.ID, ParentID: strPtr(models.NewID()), Content: "x"})
	assert.ErrorIs(t, err, ErrCommentNotFound)

	_, err = env.comments.Create(ctx, user.ID, CreateCommentInput{TopicID: topic.ID, ParentID: &foreign.ID, Content: "x"})
	assert.ErrorIs(t, err, ErrBadRequest)

	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
	assert.True(t, IsValidationError(err))

	assert.Equal(t, int64(1), countComments(t, env))
}

func TestRemoveCommentCascadesReplies(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, env.db, "")
	other := testutil.CreateUser(t, env.db, "")
	topic := testutil.CreateTopic(t, env.db, owner.ID)

	parent, err := env.comments.Create(ctx, owner.ID, CreateCommentInput{TopicID: topic.ID, Content: "부모"})
	require.NoError(t, err)
	r1, err := env.comments.Create(ctx, other.ID, CreateCommentInput{TopicID: topic.ID, ParentID: &parent.ID, Content: "r1"})
	require.NoError(t, err)
	_, err = env.comments.Create(ctx, other.ID, CreateCommentInput{TopicID: topic.ID, ParentID: &parent.ID, Content: "r2"})
	require.NoError(t, err)
	_, err = env.comments.Create(ctx, other.ID, CreateCommentInput{TopicID: topic.ID, Content: "다른 댓글"})
	require.NoError(t, err)
	require.Equal(t, 4, env.reloadTopic(t, topic.ID).CommentCount)

	// 답글 하나를 먼저 지우면 부모 삭제 때 다시 세지 않는다
	require.NoError(t, env.comments.Remove(ctx, r1.ID, other.ID))
	assert.Equal(t, 3, env.reloadTopic(t, topic.ID).CommentCount)

	assert.ErrorIs(t, env.comments.Remove(ctx, parent.ID, other.ID), ErrForbidden)

	require.NoError(t, env.comments.Remove(ctx, parent.ID, owner.ID))
	assert.Equal(t, 1, env.reloadTopic(t, topic.ID).CommentCount)

	assert.ErrorIs(t, env.comments.Remove(ctx, parent.ID, owner.ID), ErrCommentNotFound)

	page, meta, err := env.reader.ListTopLevelComments(ctx, topic.ID, PageQuery{}, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), meta.Total)
	assert.Len(t, page, 1)
}

func TestLikeCounterConsistency(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, env.db, "")
	topic := testutil.CreateTopic(t, env.db, author.ID)
	comment := testutil.CreateComment(t, env.db, topic.ID, author.ID, nil, at(0))

	likers := make([]models.User, 3)
	for i := range likers {
		likers[i] = testutil.CreateUser(t, env.db, "")
		n, err := env.comments.Like(ctx, comment.ID, likers[i].ID)
		require.NoError(t, err)
		assert.Equal(t, i+1, n)
	}

	_, err := env.comments.Like(ctx, comment.ID, likers[0].ID)
	assert.ErrorIs(t, err, ErrDuplicateLike)

	n, err := env.comments.Unlike(ctx, comment.ID, likers[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = env.comments.Unlike(ctx, comment.ID, likers[1].ID)
	assert.ErrorIs(t, err, ErrLikeNotFound)

	_, err = env.comments.Like(ctx, models.NewID(), likers[0].ID)
	assert.ErrorIs(t, err, ErrCommentNotFound)

	var rows int64
	require.NoError(t, env.db.Model(&models.CommentLike{}).Where("comment_id = ?", comment.ID).Count(&rows).Error)
	var stored models.Comment
	require.NoError(t, env.db.Take(&stored, "id = ?", comment.ID).Error)
	assert.Equal(t, int(rows), stored.LikeCount)
	assert.Equal(t, 2, stored.LikeCount)
}

func TestLikeUnlikeConcurrentSameUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, env.db, "")
	liker := testutil.CreateUser(t, env.db, "")
	topic := testutil.CreateTopic(t, env.db, author.ID)
	comment := testutil.CreateComment(t, env.db, topic.ID, author.ID, nil, at(0))

	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func(like bool) {
			defer wg.Done()
			var err error
			if like {
				_, err = env.comments.Like(ctx, comment.ID, liker.ID)
			} else {
				_, err = env.comments.Unlike(ctx, comment.ID, liker.ID)
			}
			if err != nil {
				assert.True(t, errors.Is(err, ErrDuplicateLike) || errors.Is(err, ErrLikeNotFound), "unexpected error: %v", err)
			}
		}(i%2 == 0)
	}
	wg.Wait()

	var rows int64
	require.NoError(t, env.db.Model(&models.CommentLike{}).Where("comment_id = ?", comment.ID).Count(&rows).Error)
	var stored models.Comment
	require.NoError(t, env.db.Take(&stored, "id = ?", comment.ID).Error)
	assert.Equal(t, int(rows), stored.LikeCount)
	assert.LessOrEqual(t, rows, int64(1))
}
