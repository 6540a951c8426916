package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/stackit-forum/backend/internal/models"
	"github.com/stackit-forum/backend/internal/votes"
)

type AnswerHandler struct {
	db     *gorm.DB
	ledger *votes.Ledger
}

func NewAnswerHandler(db *gorm.DB, ledger *votes.Ledger) *AnswerHandler {
	return &AnswerHandler{db: db, ledger: ledger}
}

// CreateAnswer posts an answer to a question (PROTECTED)
func (h *AnswerHandler) CreateAnswer(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input struct {
		Content    string `json:"content" binding:"required"`
		QuestionID int    `json:"questionId" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Content and questionId are required"})
		return
	}

	var question models.Question
	if err := h.db.First(&question, input.QuestionID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}

	answer := models.Answer{
		Content:    input.Content,
		QuestionID: question.ID,
		AuthorID:   userID,
	}

	if err := h.db.Create(&answer).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create answer"})
		return
	}

	// Notify the question author, unless they answered themselves
	if question.AuthorID != userID {
		var author models.User
		h.db.First(&author, userID)
		h.db.Create(&models.Notification{
			UserID:  question.AuthorID,
			Type:    models.NotificationQuestionAnswered,
			Message: fmt.Sprintf("%s answered your question %q", author.Username, question.Title),
		})
	}

	h.db.Preload("Author").First(&answer, answer.ID)

	c.JSON(http.StatusCreated, answer)
}

// GetAnswers lists a question's answers with vote summaries, accepted first
func (h *AnswerHandler) GetAnswers(c *gin.Context) {
	questionID := c.Param("id")

	var question models.Question
	if err := h.db.First(&question, questionID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}

	var answers []models.Answer
	if err := h.db.Where("question_id = ?", question.ID).
		Preload("Author").
		Order("is_accepted desc, created_at asc").
		Find(&answers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch answers"})
		return
	}

	var callerID *int
	if userID, ok := extractUserID(c); ok {
		callerID = &userID
	}

	responses := []gin.H{}
	for _, answer := range answers {
		summary, err := h.ledger.Summary(votes.AnswerTarget(answer.ID), callerID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch answers"})
			return
		}
		responses = append(responses, gin.H{
			"id":          answer.ID,
			"content":     answer.Content,
			"question_id": answer.QuestionID,
			"author":      answer.Author,
			"is_accepted": answer.IsAccepted,
			"score":       summary.Score,
			"upvotes":     summary.Upvotes,
			"downvotes":   summary.Downvotes,
			"userVote":    summary.CallerVote,
			"created_at":  answer.CreatedAt,
			"updated_at":  answer.UpdatedAt,
		})
	}

	c.JSON(http.StatusOK, responses)
}

// AcceptAnswer toggles acceptance of an answer (PROTECTED - question author only)
func (h *AnswerHandler) AcceptAnswer(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input struct {
		AnswerID   int `json:"answerId" binding:"required"`
		QuestionID int `json:"questionId" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Answer ID and Question ID are required"})
		return
	}

	result, err := h.ledger.AcceptAnswer(userID, input.AnswerID, input.QuestionID)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	if result.IsAccepted {
		var answer models.Answer
		if err := h.db.First(&answer, input.AnswerID).Error; err == nil && answer.AuthorID != userID {
			var question models.Question
			h.db.First(&question, input.QuestionID)
			h.db.Create(&models.Notification{
				UserID:  answer.AuthorID,
				Type:    models.NotificationAnswerAccepted,
				Message: fmt.Sprintf("Your answer to %q was accepted", question.Title),
			})
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"isAccepted": result.IsAccepted,
		"message":    result.Message,
	})
}
