package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chanban/internal/middleware"
	"chanban/internal/models"
	"chanban/internal/services"
)

type TopicHandler struct {
	topics *services.TopicService
	log    *zap.Logger
}

func NewTopicHandler(topics *services.TopicService, log *zap.Logger) *TopicHandler {
	return &TopicHandler{topics: topics, log: log}
}

type createTopicRequest struct {
	Title              string             `json:"title" binding:"required"`
	Content            string             `json:"content" binding:"required"`
	Tag                string             `json:"tag" binding:"required"`
	ShowCreatorOpinion bool               `json:"showCreatorOpinion"`
	CreatorOpinion     *models.VoteStatus `json:"creatorOpinion"`
}

// ListRecent GET /api/posts/recent
func (h *TopicHandler) ListRecent(c *gin.Context) {
	var q topicListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		BadRequest(c, "")
		return
	}

	page, err := h.topics.ListRecent(c.Request.Context(), q.toService())
	if err != nil {
		Error(c, h.log, err)
		return
	}
	Page(c, page.Data, page.Meta)
}

// ListByTag GET /api/posts/tags/:tag
func (h *TopicHandler) ListByTag(c *gin.Context) {
	var q topicListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		BadRequest(c, "")
		return
	}

	page, err := h.topics.ListByTag(c.Request.Context(), c.Param("tag"), q.toService())
	if err != nil {
		Error(c, h.log, err)
		return
	}
	Page(c, page.Data, page.Meta)
}

// Detail GET /api/posts/:id
func (h *TopicHandler) Detail(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	topic, err := h.topics.Get(c.Request.Context(), id)
	if err != nil {
		Error(c, h.log, err)
		return
	}
	OK(c, http.StatusOK, topic)
}

// VoteCounts GET /api/posts/:id/votes
func (h *TopicHandler) VoteCounts(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	counts, err := h.topics.VoteCounts(c.Request.Context(), id)
	if err != nil {
		Error(c, h.log, err)
		return
	}
	OK(c, http.StatusOK, counts)
}

// Create POST /api/posts
func (h *TopicHandler) Create(c *gin.Context) {
	var req createTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "")
		return
	}

	topic, err := h.topics.Create(c.Request.Context(), middleware.CurrentUserID(c), services.CreateTopicInput{
		Title:              req.Title,
		Content:            req.Content,
		Tag:                req.Tag,
		ShowCreatorOpinion: req.ShowCreatorOpinion,
		CreatorOpinion:     req.CreatorOpinion,
	})
	if err != nil {
		Error(c, h.log, err)
		return
	}
	OK(c, http.StatusCreated, topic)
}

// Delete DELETE /api/posts/:id
func (h *TopicHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.topics.SoftDelete(c.Request.Context(), id, middleware.CurrentUserID(c)); err != nil {
		Error(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
