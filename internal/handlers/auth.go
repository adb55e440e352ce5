package handlers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chanban/internal/middleware"
)

type AuthHandler struct {
	log *zap.Logger
}

func NewAuthHandler(log *zap.Logger) *AuthHandler {
	return &AuthHandler{log: log.Named("auth")}
}

// CreateSession POST /api/auth/session.
// Bearer 토큰으로 확인된 사용자를 쿠키 세션에 기록한다. 이후 요청은 토큰 없이도 인증된다.
func (h *AuthHandler) CreateSession(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	session := sessions.Default(c)
	session.Set(middleware.SessionUserKey, user.ID)
	session.Options(sessions.Options{Path: "/", MaxAge: 7 * 24 * 3600, HttpOnly: true, SameSite: http.SameSiteLaxMode})
	if err := session.Save(); err != nil {
		Error(c, h.log, err)
		return
	}
	OK(c, http.StatusOK, user)
}

// Me GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	OK(c, http.StatusOK, user)
}

// Logout POST /api/auth/logout. 세션만 비운다. 액세스 토큰 폐기는 클라이언트 몫.
func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		h.log.Warn("session clear failed", zap.Error(err))
	}
	c.Status(http.StatusNoContent)
}

// Health GET /api/health
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
