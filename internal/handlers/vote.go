package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chanban/internal/middleware"
	"chanban/internal/models"
	"chanban/internal/services"
)

type VoteHandler struct {
	ledger  *services.VoteLedger
	ranking *services.RankingService
	log     *zap.Logger
}

func NewVoteHandler(ledger *services.VoteLedger, ranking *services.RankingService, log *zap.Logger) *VoteHandler {
	return &VoteHandler{ledger: ledger, ranking: ranking, log: log}
}

// postId 는 웹 클라이언트가 쓰는 이름
type voteRequest struct {
	TopicID string            `json:"topicId"`
	PostID  string            `json:"postId"`
	Status  models.VoteStatus `json:"status" binding:"required,oneof=agree disagree neutral"`
}

// Vote POST /api/votes
func (h *VoteHandler) Vote(c *gin.Context) {
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "")
		return
	}
	topicID := req.TopicID
	if topicID == "" {
		topicID = req.PostID
	}
	if !models.IsValidID(topicID) {
		BadRequest(c, "잘못된 ID 형식입니다")
		return
	}

	vote, err := h.ledger.UpsertVote(c.Request.Context(), topicID, middleware.CurrentUserID(c), req.Status)
	if err != nil {
		Error(c, h.log, err)
		return
	}

	h.ranking.ScheduleUpdate(topicID)
	OK(c, http.StatusOK, vote)
}

// MyVote GET /api/votes/posts/:topicId/me. 투표 전이면 data 는 null
func (h *VoteHandler) MyVote(c *gin.Context) {
	topicID, ok := pathID(c, "topicId")
	if !ok {
		return
	}

	vote, err := h.ledger.GetCurrentVote(c.Request.Context(), topicID, middleware.CurrentUserID(c))
	if err != nil {
		Error(c, h.log, err)
		return
	}
	OK(c, http.StatusOK, vote)
}
