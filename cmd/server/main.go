package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"chanban/internal/auth"
	"chanban/internal/cache"
	"chanban/internal/config"
	"chanban/internal/db"
	"chanban/internal/logging"
	"chanban/internal/middleware"
	"chanban/internal/router"
	"chanban/internal/services"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, finding env vars from system")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	gdb, err := db.Open(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}

	listCache, err := newCache(cfg, logger)
	if err != nil {
		logger.Fatal("cache", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 랭킹 워커는 HTTP 서버가 멈춘 뒤에 멈춘다. 종료 중 들어온 요청의 갱신도 반영된다.
	rankingCtx, stopRanking := context.WithCancel(context.Background())
	ranking := services.NewRankingService(gdb, logger)
	go ranking.Run(rankingCtx)

	ledger := services.NewVoteLedger(gdb, logger)
	notifications := services.NewNotificationService(gdb, logger)
	svc := router.Services{
		Topics:        services.NewTopicService(gdb, logger, ledger, ranking, listCache),
		Ledger:        ledger,
		Reader:        services.NewThreadedCommentReader(gdb, logger),
		Comments:      services.NewCommentService(gdb, logger, notifications, ranking),
		Notifications: notifications,
		Ranking:       ranking,
	}

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger))

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("chanban_session", store))

	router.RegisterRoutes(r, gdb, auth.NewTokenManager(cfg.JWTSecret, time.Hour), svc, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("chanban server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}

	stopRanking()
	select {
	case <-ranking.Done():
	case <-shutdownCtx.Done():
		logger.Warn("ranking worker did not finish before timeout")
	}
}

// newCache REDIS_URL 이 있으면 Redis, 없으면 프로세스 로컬 LRU
func newCache(cfg config.Config, logger *zap.Logger) (cache.Cache, error) {
	if cfg.RedisURL != "" {
		logger.Info("using redis cache")
		return cache.NewRedis(cfg.RedisURL, cfg.CacheTTL)
	}
	return cache.NewLRU(500, cfg.CacheTTL)
}
