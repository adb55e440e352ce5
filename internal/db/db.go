package db

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"chanban/internal/logging"
	"chanban/internal/models"
)

// Open 은 Postgres 에 연결하고 스키마를 맞춘다.
func Open(dsn string, log *zap.Logger) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), Config(log))
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	log.Info("database connection established")

	if err := Migrate(gdb); err != nil {
		return nil, err
	}
	log.Info("database migration completed")
	return gdb, nil
}

// Config 는 운영/테스트가 공유하는 GORM 설정.
// TranslateError 를 켜야 unique 위반이 gorm.ErrDuplicatedKey 로 올라온다.
func Config(log *zap.Logger) *gorm.Config {
	return &gorm.Config{
		Logger:         logging.NewGormLogger(log),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	}
}

func Migrate(gdb *gorm.DB) error {
	err := gdb.AutoMigrate(
		&models.User{},
		&models.Topic{},
		&models.Vote{},
		&models.VoteHistory{},
		&models.Comment{},
		&models.CommentLike{},
		&models.Notification{},
	)
	if err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}
