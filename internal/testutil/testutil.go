package testutil

import (
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"chanban/internal/auth"
	"chanban/internal/db"
	"chanban/internal/models"
)

// TestSecret 테스트용 JWT 서명 키
const TestSecret = "test-secret"

var seq atomic.Int64

// SetupTestDB 는 테스트마다 새 SQLite 파일 DB 를 만들고 스키마를 올린다.
// _txlock=immediate 라서 쓰기 트랜잭션은 행 잠금처럼 직렬화된다.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	dsn := fmt.Sprintf("file:%s?_busy_timeout=10000&_txlock=immediate&_journal_mode=WAL&_foreign_keys=1", path)

	gdb, err := gorm.Open(sqlite.Open(dsn), db.Config(zap.NewNop()))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

func CreateUser(t *testing.T, gdb *gorm.DB, nickname string) models.User {
	t.Helper()
	n := seq.Add(1)
	if nickname == "" {
		nickname = fmt.Sprintf("user%d", n)
	}
	u := models.User{
		KakaoID:  fmt.Sprintf("kakao-%d", n),
		Nickname: nickname,
	}
	if err := gdb.Create(&u).Error; err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return u
}

func CreateTopic(t *testing.T, gdb *gorm.DB, creatorID string) models.Topic {
	t.Helper()
	topic := models.Topic{
		CreatorID: creatorID,
		Title:     fmt.Sprintf("topic %d", seq.Add(1)),
		Content:   "본문",
		Tag:       models.TagSociety,
	}
	if err := gdb.Create(&topic).Error; err != nil {
		t.Fatalf("Failed to create topic: %v", err)
	}
	return topic
}

// CreateComment 는 createdAt 을 직접 지정해서 정렬 테스트가 시계에 의존하지 않게 한다.
func CreateComment(t *testing.T, gdb *gorm.DB, topicID, userID string, parentID *string, createdAt time.Time) models.Comment {
	t.Helper()
	c := models.Comment{
		TopicID:   topicID,
		UserID:    userID,
		ParentID:  parentID,
		Content:   fmt.Sprintf("comment %d", seq.Add(1)),
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if err := gdb.Create(&c).Error; err != nil {
		t.Fatalf("Failed to create comment: %v", err)
	}
	return c
}

// Token 은 userID 로 서명한 Bearer 헤더 값을 돌려준다.
func Token(t *testing.T, user models.User) string {
	t.Helper()
	tok, err := auth.NewTokenManager(TestSecret, time.Hour).Sign(user.ID, user.Nickname)
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return "Bearer " + tok
}
