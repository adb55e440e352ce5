package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"chanban/internal/auth"
	"chanban/internal/handlers"
	"chanban/internal/middleware"
	"chanban/internal/services"
)

type Services struct {
	Topics        *services.TopicService
	Ledger        *services.VoteLedger
	Reader        *services.ThreadedCommentReader
	Comments      *services.CommentService
	Notifications *services.NotificationService
	Ranking       *services.RankingService
}

// RegisterRoutes 세션 미들웨어는 호출 전에 engine 에 붙어 있어야 한다
func RegisterRoutes(r *gin.Engine, db *gorm.DB, tokens auth.TokenManager, svc Services, log *zap.Logger) {
	authHandler := handlers.NewAuthHandler(log)
	topicHandler := handlers.NewTopicHandler(svc.Topics, log)
	voteHandler := handlers.NewVoteHandler(svc.Ledger, svc.Ranking, log)
	commentHandler := handlers.NewCommentHandler(svc.Reader, svc.Comments, log)
	notificationHandler := handlers.NewNotificationHandler(svc.Notifications, log)

	api := r.Group("/api")
	api.Use(middleware.LoadUser(db, tokens))

	// 공개 (Public)
	api.GET("/health", handlers.Health)
	api.GET("/posts/recent", topicHandler.ListRecent)                 // 최신/인기 게시글
	api.GET("/posts/tags/:tag", topicHandler.ListByTag)               // 태그별 게시글
	api.GET("/posts/:id", topicHandler.Detail)                        // 게시글 상세 (조회수 +1)
	api.GET("/posts/:id/votes", topicHandler.VoteCounts)              // 찬반 집계
	api.GET("/comments/posts/:topicId", commentHandler.List)          // 댓글 + 답글 미리보기
	api.GET("/comments/:commentId/replies", commentHandler.Replies)   // 이전 답글 더보기
	api.POST("/auth/logout", authHandler.Logout)                      // 로그아웃

	// 로그인 필요 (Protected)
	authorized := api.Group("")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.POST("/auth/session", authHandler.CreateSession) // 토큰 → 쿠키 세션
		authorized.GET("/auth/me", authHandler.Me)

		authorized.POST("/posts", topicHandler.Create)
		authorized.DELETE("/posts/:id", topicHandler.Delete)

		authorized.POST("/votes", voteHandler.Vote)
		authorized.GET("/votes/posts/:topicId/me", voteHandler.MyVote)

		authorized.POST("/comments", commentHandler.Create)
		authorized.DELETE("/comments/:commentId", commentHandler.Delete)
		authorized.POST("/comments/:commentId/like", commentHandler.Like)
		authorized.DELETE("/comments/:commentId/like", commentHandler.Unlike)

		authorized.GET("/notifications", notificationHandler.List)
		authorized.POST("/notifications/read-all", notificationHandler.ReadAll)
		authorized.POST("/notifications/:id/read", notificationHandler.Read)
		authorized.DELETE("/notifications/:id", notificationHandler.Delete)
	}
}
