package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/stackit-forum/backend/internal/votes"
)

type VoteHandler struct {
	ledger *votes.Ledger
}

func NewVoteHandler(ledger *votes.Ledger) *VoteHandler {
	return &VoteHandler{ledger: ledger}
}

// targetFromQuery builds a vote target from questionId/answerId query
// parameters. Validation of the both-or-neither case is left to the ledger.
func targetFromQuery(c *gin.Context) (votes.Target, bool) {
	var target votes.Target
	if raw := c.Query("questionId"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return target, false
		}
		target.QuestionID = &id
	}
	if raw := c.Query("answerId"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return target, false
		}
		target.AnswerID = &id
	}
	return target, true
}

// CastVote handles POST /api/votes (PROTECTED - requires authentication)
func (h *VoteHandler) CastVote(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input struct {
		Type       string `json:"type"`
		QuestionID *int   `json:"questionId"`
		AnswerID   *int   `json:"answerId"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	target := votes.Target{QuestionID: input.QuestionID, AnswerID: input.AnswerID}
	result, err := h.ledger.CastVote(userID, target, votes.Polarity(input.Type))
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result": gin.H{
			"action": result.Action,
			"type":   input.Type,
		},
		"score":     result.Summary.Score,
		"upvotes":   result.Summary.Upvotes,
		"downvotes": result.Summary.Downvotes,
		"userVote":  result.Summary.CallerVote,
	})
}

// GetVoteSummary handles GET /api/votes?questionId=|answerId=. The caller's
// own vote is included when the request carries a valid token.
func (h *VoteHandler) GetVoteSummary(c *gin.Context) {
	target, ok := targetFromQuery(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid target id"})
		return
	}

	var callerID *int
	if userID, ok := extractUserID(c); ok {
		callerID = &userID
	}

	summary, err := h.ledger.Summary(target, callerID)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"score":     summary.Score,
		"upvotes":   summary.Upvotes,
		"downvotes": summary.Downvotes,
		"userVote":  summary.CallerVote,
	})
}
