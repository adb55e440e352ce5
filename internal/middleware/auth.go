package middleware

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"chanban/internal/auth"
	"chanban/internal/models"
)

const (
	CheckUserKey   = "user"
	SessionUserKey = "user_id"
)

// AuthRequired LoadUser 가 사용자를 찾지 못했으면 401
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "UNAUTHORIZED",
				"message": "인증이 필요합니다",
				"status":  http.StatusUnauthorized,
			})
			return
		}
		c.Next()
	}
}

// LoadUser Bearer 토큰을 먼저 보고, 없으면 세션의 user_id 로 사용자를 찾는다.
// 찾지 못해도 요청은 익명으로 계속 진행된다.
func LoadUser(db *gorm.DB, tokens auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := ""
		if raw, ok := auth.BearerToken(c.GetHeader("Authorization")); ok {
			if claims, err := tokens.Parse(raw); err == nil {
				userID = claims.Subject
			}
		}
		if userID == "" {
			if v, ok := sessions.Default(c).Get(SessionUserKey).(string); ok {
				userID = v
			}
		}

		if userID != "" && models.IsValidID(userID) {
			var user models.User
			err := db.WithContext(c.Request.Context()).
				Where("id = ? AND deleted_at IS NULL", userID).
				Take(&user).Error
			if err == nil {
				c.Set(CheckUserKey, &user)
			}
		}
		c.Next()
	}
}

func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(CheckUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

// CurrentUserID 익명이면 빈 문자열
func CurrentUserID(c *gin.Context) string {
	if user, ok := CurrentUser(c); ok {
		return user.ID
	}
	return ""
}
