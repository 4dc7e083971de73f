package controllers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"urbanease/database"
)

// NoticeCreateRequest contains data for publishing an announcement
type NoticeCreateRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
	ExpiryDate  string `json:"expiry_date" binding:"required"`
}

// GetActiveNotices returns announcements that have not yet expired
func GetActiveNotices(c *gin.Context) {
	var notices []database.Notice
	if err := database.DB.
		Where("expiry_date >= ?", time.Now()).
		Order("created_at DESC").
		Find(&notices).Error; err != nil {
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch notices"})
		return
	}

	c.JSON(http.StatusOK, notices)
}

// AdminCreateNotice publishes a community announcement
func AdminCreateNotice(c *gin.Context) {
	var request NoticeCreateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	expiryDate, err := time.Parse("2006-01-02", request.ExpiryDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expiry_date must be in YYYY-MM-DD format"})
		return
	}

	notice := database.Notice{
		Title:       request.Title,
		Description: request.Description,
		ExpiryDate:  expiryDate,
	}

	if err := database.DB.Create(&notice).Error; err != nil {
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create notice"})
		return
	}

	c.JSON(http.StatusCreated, notice)
}

// AdminDeleteNotice removes an announcement
func AdminDeleteNotice(c *gin.Context) {
	noticeID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notice ID"})
		return
	}

	result := database.DB.Delete(&database.Notice{}, uint(noticeID))
	if result.Error != nil {
		log.Printf("Database error: %v", result.Error)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete notice"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notice not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notice deleted"})
}
