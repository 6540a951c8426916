package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/stackit-forum/backend/internal/models"
	"github.com/stackit-forum/backend/internal/votes"
)

type QuestionHandler struct {
	db     *gorm.DB
	ledger *votes.Ledger
}

func NewQuestionHandler(db *gorm.DB, ledger *votes.Ledger) *QuestionHandler {
	return &QuestionHandler{db: db, ledger: ledger}
}

func (h *QuestionHandler) questionResponse(question models.Question, callerID *int) (gin.H, error) {
	summary, err := h.ledger.Summary(votes.QuestionTarget(question.ID), callerID)
	if err != nil {
		return nil, err
	}

	var answerCount int64
	if err := h.db.Model(&models.Answer{}).Where("question_id = ?", question.ID).Count(&answerCount).Error; err != nil {
		return nil, err
	}

	return gin.H{
		"id":           question.ID,
		"title":        question.Title,
		"description":  question.Description,
		"author":       question.Author,
		"tags":         question.Tags,
		"views":        question.Views,
		"answer_count": answerCount,
		"score":        summary.Score,
		"upvotes":      summary.Upvotes,
		"downvotes":    summary.Downvotes,
		"userVote":     summary.CallerVote,
		"created_at":   question.CreatedAt,
		"updated_at":   question.UpdatedAt,
	}, nil
}

// GetQuestions lists questions with pagination, tag and search filters
func (h *QuestionHandler) GetQuestions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := h.db.Model(&models.Question{})

	if tag := c.Query("tag"); tag != "" {
		tagged := h.db.Table("question_tags").
			Select("question_tags.question_id").
			Joins("JOIN tags ON tags.id = question_tags.tag_id").
			Where("tags.name LIKE ?", "%"+strings.ToLower(tag)+"%")
		query = query.Where("questions.id IN (?)", tagged)
	}

	if search := c.Query("search"); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	// Reusable for the count and the page fetch below.
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch questions"})
		return
	}

	var questions []models.Question
	if err := query.
		Preload("Author").
		Preload("Tags").
		Order("created_at desc").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&questions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch questions"})
		return
	}

	var callerID *int
	if userID, ok := extractUserID(c); ok {
		callerID = &userID
	}

	responses := []gin.H{}
	for _, question := range questions {
		resp, err := h.questionResponse(question, callerID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch questions"})
			return
		}
		responses = append(responses, resp)
	}

	pages := (total + int64(limit) - 1) / int64(limit)
	c.JSON(http.StatusOK, gin.H{
		"questions": responses,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
			"pages": pages,
		},
	})
}

// GetQuestion returns a single question by ID
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	questionID := c.Param("id")

	var question models.Question
	if err := h.db.Preload("Author").Preload("Tags").First(&question, questionID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}

	var callerID *int
	if userID, ok := extractUserID(c); ok {
		callerID = &userID
	}

	resp, err := h.questionResponse(question, callerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch question"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// CreateQuestion creates a new question with its tags (PROTECTED)
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input struct {
		Title       string   `json:"title" binding:"required"`
		Description string   `json:"description" binding:"required"`
		Tags        []string `json:"tags" binding:"required,min=1"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title, description, and at least one tag are required"})
		return
	}

	// Create or find tags, lowercased
	tags := make([]models.Tag, 0, len(input.Tags))
	for _, name := range input.Tags {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		var tag models.Tag
		if err := h.db.Where("name = ?", name).FirstOrCreate(&tag, models.Tag{Name: name}).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create question"})
			return
		}
		tags = append(tags, tag)
	}
	if len(tags) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title, description, and at least one tag are required"})
		return
	}

	question := models.Question{
		Title:       input.Title,
		Description: input.Description,
		AuthorID:    userID,
		Tags:        tags,
	}

	if err := h.db.Create(&question).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create question"})
		return
	}

	h.db.Preload("Author").Preload("Tags").First(&question, question.ID)

	c.JSON(http.StatusCreated, question)
}

// TrackView increments a question's view counter
func (h *QuestionHandler) TrackView(c *gin.Context) {
	var input struct {
		QuestionID int `json:"questionId" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Question ID is required"})
		return
	}

	var question models.Question
	if err := h.db.First(&question, input.QuestionID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}

	if err := h.db.Model(&question).Update("views", gorm.Expr("views + 1")).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to track view"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"views":   question.Views + 1,
	})
}
