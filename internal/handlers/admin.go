package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/stackit-forum/backend/internal/models"
)

type AdminHandler struct {
	db *gorm.DB
}

func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{db: db}
}

func deleteAnswer(tx *gorm.DB, answerID int) error {
	if err := tx.Where("answer_id = ?", answerID).Delete(&models.Vote{}).Error; err != nil {
		return err
	}
	return tx.Delete(&models.Answer{}, answerID).Error
}

func deleteQuestion(tx *gorm.DB, questionID int) error {
	var answerIDs []int
	if err := tx.Model(&models.Answer{}).Where("question_id = ?", questionID).Pluck("id", &answerIDs).Error; err != nil {
		return err
	}
	if len(answerIDs) > 0 {
		if err := tx.Where("answer_id IN ?", answerIDs).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id = ?", questionID).Delete(&models.Answer{}).Error; err != nil {
			return err
		}
	}
	if err := tx.Where("question_id = ?", questionID).Delete(&models.Vote{}).Error; err != nil {
		return err
	}
	if err := tx.Exec("DELETE FROM question_tags WHERE question_id = ?", questionID).Error; err != nil {
		return err
	}
	return tx.Delete(&models.Question{}, questionID).Error
}

// Overview returns moderation stats or recent content (ADMIN)
func (h *AdminHandler) Overview(c *gin.Context) {
	switch c.DefaultQuery("type", "overview") {
	case "overview":
		var users, questions, answers, voteCount int64
		h.db.Model(&models.User{}).Count(&users)
		h.db.Model(&models.Question{}).Count(&questions)
		h.db.Model(&models.Answer{}).Count(&answers)
		h.db.Model(&models.Vote{}).Count(&voteCount)

		c.JSON(http.StatusOK, gin.H{
			"users":     users,
			"questions": questions,
			"answers":   answers,
			"votes":     voteCount,
		})
	case "recent":
		var questions []models.Question
		h.db.Preload("Author").Order("created_at desc").Limit(10).Find(&questions)
		var answers []models.Answer
		h.db.Preload("Author").Order("created_at desc").Limit(10).Find(&answers)

		c.JSON(http.StatusOK, gin.H{
			"questions": questions,
			"answers":   answers,
		})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid type"})
	}
}

// DeleteContent removes a question or answer and its dependent rows (ADMIN)
func (h *AdminHandler) DeleteContent(c *gin.Context) {
	if raw := c.Query("questionId"); raw != "" {
		questionID, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid question id"})
			return
		}
		var question models.Question
		if err := h.db.First(&question, questionID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
			return
		}
		if err := h.db.Transaction(func(tx *gorm.DB) error {
			return deleteQuestion(tx, questionID)
		}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete question"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Question deleted successfully"})
		return
	}

	if raw := c.Query("answerId"); raw != "" {
		answerID, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid answer id"})
			return
		}
		var answer models.Answer
		if err := h.db.First(&answer, answerID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Answer not found"})
			return
		}
		if err := h.db.Transaction(func(tx *gorm.DB) error {
			return deleteAnswer(tx, answerID)
		}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete answer"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Answer deleted successfully"})
		return
	}

	c.JSON(http.StatusBadRequest, gin.H{"error": "No valid content ID provided"})
}

// Moderate applies an admin action to a user, question, or answer (ADMIN)
func (h *AdminHandler) Moderate(c *gin.Context) {
	var input struct {
		Action     string `json:"action" binding:"required"`
		UserID     int    `json:"userId"`
		QuestionID int    `json:"questionId"`
		AnswerID   int    `json:"answerId"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Action is required"})
		return
	}

	switch input.Action {
	case "ban_user":
		var user models.User
		if err := h.db.First(&user, input.UserID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		err := h.db.Transaction(func(tx *gorm.DB) error {
			var questionIDs []int
			if err := tx.Model(&models.Question{}).Where("author_id = ?", input.UserID).Pluck("id", &questionIDs).Error; err != nil {
				return err
			}
			for _, id := range questionIDs {
				if err := deleteQuestion(tx, id); err != nil {
					return err
				}
			}
			var answerIDs []int
			if err := tx.Model(&models.Answer{}).Where("author_id = ?", input.UserID).Pluck("id", &answerIDs).Error; err != nil {
				return err
			}
			for _, id := range answerIDs {
				if err := deleteAnswer(tx, id); err != nil {
					return err
				}
			}
			if err := tx.Where("user_id = ?", input.UserID).Delete(&models.Vote{}).Error; err != nil {
				return err
			}
			if err := tx.Where("user_id = ?", input.UserID).Delete(&models.Notification{}).Error; err != nil {
				return err
			}
			return tx.Delete(&models.User{}, input.UserID).Error
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to ban user"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "User banned successfully"})

	case "hide_question":
		if err := h.db.Transaction(func(tx *gorm.DB) error {
			return deleteQuestion(tx, input.QuestionID)
		}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hide question"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Question hidden successfully"})

	case "hide_answer":
		if err := h.db.Transaction(func(tx *gorm.DB) error {
			return deleteAnswer(tx, input.AnswerID)
		}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hide answer"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Answer hidden successfully"})

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid action"})
	}
}

// UpdateRole promotes or demotes a user (ADMIN)
func (h *AdminHandler) UpdateRole(c *gin.Context) {
	var input struct {
		UserID int    `json:"userId" binding:"required"`
		Role   string `json:"role" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User ID and role are required"})
		return
	}

	if input.Role != models.RoleUser && input.Role != models.RoleAdmin {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role. Must be USER or ADMIN"})
		return
	}

	var user models.User
	if err := h.db.First(&user, input.UserID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	user.Role = input.Role
	if err := h.db.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update role"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User role updated to " + input.Role + " successfully",
		"user": gin.H{
			"id":       user.ID,
			"name":     user.Name,
			"username": user.Username,
			"email":    user.Email,
			"role":     user.Role,
		},
	})
}
