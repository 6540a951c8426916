package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/stackit-forum/backend/internal/models"
)

type TagHandler struct {
	db *gorm.DB
}

func NewTagHandler(db *gorm.DB) *TagHandler {
	return &TagHandler{db: db}
}

// GetTags lists all tags with how many questions carry each
func (h *TagHandler) GetTags(c *gin.Context) {
	var tags []models.Tag
	if err := h.db.Order("name asc").Find(&tags).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tags"})
		return
	}

	responses := []gin.H{}
	for _, tag := range tags {
		var count int64
		if err := h.db.Table("question_tags").Where("tag_id = ?", tag.ID).Count(&count).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tags"})
			return
		}
		responses = append(responses, gin.H{
			"id":             tag.ID,
			"name":           tag.Name,
			"color":          tag.Color,
			"question_count": count,
		})
	}

	c.JSON(http.StatusOK, responses)
}
