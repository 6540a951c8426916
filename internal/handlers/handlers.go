package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/stackit-forum/backend/internal/votes"
)

// Handler combines all handler types
type Handler struct {
	Auth         *AuthHandler
	Question     *QuestionHandler
	Answer       *AnswerHandler
	Vote         *VoteHandler
	User         *UserHandler
	Tag          *TagHandler
	Notification *NotificationHandler
	Admin        *AdminHandler
}

// NewHandler creates a unified handler with all sub-handlers sharing one
// vote ledger.
func NewHandler(db *gorm.DB) *Handler {
	ledger := votes.NewLedger(db)

	return &Handler{
		Auth:         NewAuthHandler(db),
		Question:     NewQuestionHandler(db, ledger),
		Answer:       NewAnswerHandler(db, ledger),
		Vote:         NewVoteHandler(ledger),
		User:         NewUserHandler(db),
		Tag:          NewTagHandler(db),
		Notification: NewNotificationHandler(db),
		Admin:        NewAdminHandler(db),
	}
}

func extractUserID(c *gin.Context) (int, bool) {
	raw, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}
	switch v := raw.(type) {
	case int:
		return v, true
	case uint:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// respondLedgerError maps the ledger's error taxonomy onto HTTP statuses.
func respondLedgerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, votes.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, votes.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, votes.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, votes.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Printf("vote ledger error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
