package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"chanban/internal/cache"
	"chanban/internal/models"
	"chanban/internal/testutil"
)

type testEnv struct {
	db            *gorm.DB
	ledger        *VoteLedger
	reader        *ThreadedCommentReader
	comments      *CommentService
	topics        *TopicService
	notifications *NotificationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gdb := testutil.SetupTestDB(t)
	log := zap.NewNop()

	lru, err := cache.NewLRU(100, time.Minute)
	require.NoError(t, err)

	ledger := NewVoteLedger(gdb, log)
	notifications := NewNotificationService(gdb, log)
	return &testEnv{
		db:            gdb,
		ledger:        ledger,
		reader:        NewThreadedCommentReader(gdb, log),
		comments:      NewCommentService(gdb, log, notifications, nil),
		topics:        NewTopicService(gdb, log, ledger, nil, lru),
		notifications: notifications,
	}
}

func (e *testEnv) reloadTopic(t *testing.T, id string) models.Topic {
	t.Helper()
	var topic models.Topic
	require.NoError(t, e.db.Take(&topic, "id = ?", id).Error)
	return topic
}

// requireCountersMatchVotes 집계 컬럼 == 상태별 votes 행 수
func (e *testEnv) requireCountersMatchVotes(t *testing.T, topicID string) {
	t.Helper()
	topic := e.reloadTopic(t, topicID)

	count := func(status models.VoteStatus) int {
		var n int64
		require.NoError(t, e.db.Model(&models.Vote{}).
			Where("topic_id = ? AND current_status = ?", topicID, status).
			Count(&n).Error)
		return int(n)
	}
	var voters int64
	require.NoError(t, e.db.Model(&models.Vote{}).Where("topic_id = ?", topicID).Count(&voters).Error)

	require.Equal(t, count(models.VoteAgree), topic.AgreeCount, "agree_count")
	require.Equal(t, count(models.VoteDisagree), topic.DisagreeCount, "disagree_count")
	require.Equal(t, count(models.VoteNeutral), topic.NeutralCount, "neutral_count")
	require.Equal(t, int(voters), topic.TotalVotes())
}

func (e *testEnv) historyOf(t *testing.T, voteID string) []models.VoteHistory {
	t.Helper()
	var entries []models.VoteHistory
	require.NoError(t, e.db.Where("vote_id = ?", voteID).
		Order("changed_at ASC, id ASC").
		Find(&entries).Error)
	return entries
}

// requireHistoryChain 첫 항목 from 은 nil, 이후 from[i] == to[i-1], 마지막 to == 현재 상태
func requireHistoryChain(t *testing.T, entries []models.VoteHistory, current models.VoteStatus, changeCount int) {
	t.Helper()
	require.NotEmpty(t, entries)
	require.Nil(t, entries[0].FromStatus)
	for i := 1; i < len(entries); i++ {
		require.NotNil(t, entries[i].FromStatus)
		require.Equal(t, entries[i-1].ToStatus, *entries[i].FromStatus)
	}
	require.Equal(t, current, entries[len(entries)-1].ToStatus)
	require.Equal(t, changeCount+1, len(entries))
}

func strPtr(s string) *string { return &s }
