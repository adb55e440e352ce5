package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chanban/internal/middleware"
	"chanban/internal/models"
	"chanban/internal/services"
)

type CommentHandler struct {
	reader   *services.ThreadedCommentReader
	comments *services.CommentService
	log      *zap.Logger
}

func NewCommentHandler(reader *services.ThreadedCommentReader, comments *services.CommentService, log *zap.Logger) *CommentHandler {
	return &CommentHandler{reader: reader, comments: comments, log: log}
}

type createCommentRequest struct {
	TopicID  string  `json:"topicId"`
	PostID   string  `json:"postId"`
	ParentID *string `json:"parentId"`
	Content  string  `json:"content" binding:"required"`
}

// List GET /api/comments/posts/:topicId
func (h *CommentHandler) List(c *gin.Context) {
	topicID, ok := pathID(c, "topicId")
	if !ok {
		return
	}
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		BadRequest(c, "")
		return
	}

	comments, meta, err := h.reader.ListTopLevelComments(c.Request.Context(), topicID,
		services.PageQuery{Page: q.Page, Limit: q.Limit, Sort: services.CommentSort(q.Sort)},
		middleware.CurrentUserID(c))
	if err != nil {
		Error(c, h.log, err)
		return
	}
	Page(c, comments, meta)
}

// Replies GET /api/comments/:commentId/replies
func (h *CommentHandler) Replies(c *gin.Context) {
	commentID, ok := pathID(c, "commentId")
	if !ok {
		return
	}
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		BadRequest(c, "")
		return
	}

	replies, meta, err := h.reader.ListOlderReplies(c.Request.Context(), commentID,
		services.PageQuery{Page: q.Page, Limit: q.Limit},
		middleware.CurrentUserID(c))
	if err != nil {
		Error(c, h.log, err)
		return
	}
	Page(c, replies, meta)
}

// Create POST /api/comments
func (h *CommentHandler) Create(c *gin.Context) {
	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "")
		return
	}
	topicID := req.TopicID
	if topicID == "" {
		topicID = req.PostID
	}
	if !models.IsValidID(topicID) || (req.ParentID != nil && !models.IsValidID(*req.ParentID)) {
		BadRequest(c, "잘못된 ID 형식입니다")
		return
	}

	comment, err := h.comments.Create(c.Request.Context(), middleware.CurrentUserID(c), services.CreateCommentInput{
		TopicID:  topicID,
		ParentID: req.ParentID,
		Content:  req.Content,
	})
	if err != nil {
		Error(c, h.log, err)
		return
	}
	OK(c, http.StatusCreated, comment)
}

// Delete DELETE /api/comments/:commentId
func (h *CommentHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "commentId")
	if !ok {
		return
	}
	if err := h.comments.Remove(c.Request.Context(), id, middleware.CurrentUserID(c)); err != nil {
		Error(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Like POST /api/comments/:commentId/like
func (h *CommentHandler) Like(c *gin.Context) {
	id, ok := pathID(c, "commentId")
	if !ok {
		return
	}
	count, err := h.comments.Like(c.Request.Context(), id, middleware.CurrentUserID(c))
	if err != nil {
		Error(c, h.log, err)
		return
	}
	OK(c, http.StatusOK, gin.H{"isLiked": true, "likeCount": count})
}

// Unlike DELETE /api/comments/:commentId/like
func (h *CommentHandler) Unlike(c *gin.Context) {
	id, ok := pathID(c, "commentId")
	if !ok {
		return
	}
	count, err := h.comments.Unlike(c.Request.Context(), id, middleware.CurrentUserID(c))
	if err != nil {
		Error(c, h.log, err)
		return
	}
	OK(c, http.StatusOK, gin.H{"isLiked": false, "likeCount": count})
}
