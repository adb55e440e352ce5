package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"chanban/internal/models"
	"chanban/internal/services"
)

type ErrorCode string

const (
	CodeInvalidPostTag        ErrorCode = "INVALID_POST_TAG"
	CodePostNotFound          ErrorCode = "POST_NOT_FOUND"
	CodeCommentNotFound       ErrorCode = "COMMENT_NOT_FOUND"
	CodeInvalidCommentNesting ErrorCode = "INVALID_COMMENT_NESTING"
	CodeBadRequest            ErrorCode = "BAD_REQUEST"
	CodeUnauthorized          ErrorCode = "UNAUTHORIZED"
	CodeForbidden             ErrorCode = "FORBIDDEN"
	CodeNotFound              ErrorCode = "NOT_FOUND"
	CodeConflict              ErrorCode = "CONFLICT"
	CodeInternal              ErrorCode = "INTERNAL_SERVER_ERROR"
)

type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Status  int       `json:"status"`
}

type apiError struct {
	code    ErrorCode
	status  int
	message string
}

var errorTable = []struct {
	target error
	apiError
}{
	{services.ErrTopicNotFound, apiError{CodePostNotFound, http.StatusNotFound, "포스트를 찾을 수 없습니다"}},
	{services.ErrCommentNotFound, apiError{CodeCommentNotFound, http.StatusNotFound, "댓글을 찾을 수 없습니다"}},
	{services.ErrNotificationNotFound, apiError{CodeNotFound, http.StatusNotFound, "요청한 리소스를 찾을 수 없습니다"}},
	{services.ErrInvalidCommentNesting, apiError{CodeInvalidCommentNesting, http.StatusBadRequest, "답글에는 답글을 작성할 수 없습니다"}},
	{services.ErrInvalidTag, apiError{CodeInvalidPostTag, http.StatusBadRequest, "유효하지 않은 태그입니다"}},
	{services.ErrDuplicateLike, apiError{CodeBadRequest, http.StatusBadRequest, "이미 좋아요를 누른 댓글입니다"}},
	{services.ErrLikeNotFound, apiError{CodeBadRequest, http.StatusBadRequest, "좋아요를 누르지 않은 댓글입니다"}},
	{services.ErrInvalidVoteStatus, apiError{CodeBadRequest, http.StatusBadRequest, "유효하지 않은 투표 상태입니다"}},
	{services.ErrForbidden, apiError{CodeForbidden, http.StatusForbidden, "접근 권한이 없습니다"}},
	{gorm.ErrDuplicatedKey, apiError{CodeConflict, http.StatusConflict, "요청이 충돌했습니다. 다시 시도해주세요"}},
}

// OK {data} 봉투
func OK(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"data": data})
}

// Page {data, meta} 봉투
func Page(c *gin.Context, data any, meta services.PaginationMeta) {
	c.JSON(http.StatusOK, gin.H{"data": data, "meta": meta})
}

func Fail(c *gin.Context, status int, code ErrorCode, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Code: code, Message: message, Status: status})
}

func BadRequest(c *gin.Context, message string) {
	if message == "" {
		message = "잘못된 요청입니다"
	}
	Fail(c, http.StatusBadRequest, CodeBadRequest, message)
}

// Error 서비스 에러를 API 에러 응답으로 바꾼다. 모르는 에러는 500 으로 기록한다.
func Error(c *gin.Context, log *zap.Logger, err error) {
	var ve *services.ValidationError
	if errors.As(err, &ve) {
		BadRequest(c, ve.Message)
		return
	}
	for _, e := range errorTable {
		if errors.Is(err, e.target) {
			Fail(c, e.status, e.code, e.message)
			return
		}
	}

	_ = c.Error(err)
	log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	Fail(c, http.StatusInternalServerError, CodeInternal, "서버 오류가 발생했습니다")
}

// pathID 경로 파라미터가 UUID 가 아니면 400 을 쓰고 false
func pathID(c *gin.Context, name string) (string, bool) {
	id := c.Param(name)
	if !models.IsValidID(id) {
		BadRequest(c, "잘못된 ID 형식입니다")
		return "", false
	}
	return id, true
}

type pageQuery struct {
	Page  int    `form:"page" binding:"omitempty,min=1"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Sort  string `form:"sort" binding:"omitempty,oneof=latest popular"`
}

type topicListQuery struct {
	Page  int    `form:"page" binding:"omitempty,min=1"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Sort  string `form:"sort" binding:"omitempty,oneof=recent popular"`
	Order string `form:"order" binding:"omitempty,oneof=ASC DESC asc desc"`
}

func (q topicListQuery) toService() services.ListQuery {
	return services.ListQuery{Page: q.Page, Limit: q.Limit, Sort: services.TopicSort(q.Sort), Order: q.Order}
}
