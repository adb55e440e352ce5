package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chanban/internal/middleware"
	"chanban/internal/services"
)

type NotificationHandler struct {
	notifications *services.NotificationService
	log           *zap.Logger
}

func NewNotificationHandler(notifications *services.NotificationService, log *zap.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, log: log}
}

// List GET /api/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	limit, _ := strconv.Atoi(c.Query("limit"))

	notifications, err := h.notifications.List(c.Request.Context(), userID, limit)
	if err != nil {
		Error(c, h.log, err)
		return
	}
	unread, err := h.notifications.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": notifications, "meta": gin.H{"unreadCount": unread}})
}

// Read POST /api/notifications/:id/read
func (h *NotificationHandler) Read(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.notifications.MarkRead(c.Request.Context(), id, middleware.CurrentUserID(c)); err != nil {
		Error(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ReadAll POST /api/notifications/read-all
func (h *NotificationHandler) ReadAll(c *gin.Context) {
	n, err := h.notifications.MarkAllRead(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		Error(c, h.log, err)
		return
	}
	OK(c, http.StatusOK, gin.H{"updated": n})
}

// Delete DELETE /api/notifications/:id
func (h *NotificationHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.notifications.Delete(c.Request.Context(), id, middleware.CurrentUserID(c)); err != nil {
		Error(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
