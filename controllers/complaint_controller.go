package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"urbanease/database"
)

// ComplaintCreateRequest contains data for filing a complaint
type ComplaintCreateRequest struct {
	Subject     string `json:"subject" binding:"required"`
	Category    string `json:"category" binding:"required"`
	Description string `json:"description" binding:"required"`
	Image       string `json:"image"`
	Priority    string `json:"priority" binding:"omitempty,oneof=low medium high"`
}

// ComplaintUpdateRequest contains the admin-side status/response update
type ComplaintUpdateRequest struct {
	Status   string `json:"status" binding:"omitempty,oneof=pending in-progress resolved rejected"`
	Response string `json:"response"`
}

// CreateComplaint files a complaint for the authenticated resident
func CreateComplaint(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var request ComplaintCreateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	priority := request.Priority
	if priority == "" {
		priority = "medium"
	}

	complaint := database.Complaint{
		UserID:      userID.(uint),
		Subject:     request.Subject,
		Category:    request.Category,
		Description: request.Description,
		Image:       request.Image,
		Priority:    priority,
		Status:      database.ComplaintStatusPending,
	}

	if err := database.DB.Create(&complaint).Error; err != nil {
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create complaint"})
		return
	}

	c.JSON(http.StatusCreated, complaint)
}

// GetMyComplaints returns the authenticated resident's complaints
func GetMyComplaints(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var complaints []database.Complaint
	if err := database.DB.Where("user_id = ?", userID).Order("created_at DESC").Find(&complaints).Error; err != nil {
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch complaints"})
		return
	}

	c.JSON(http.StatusOK, complaints)
}

// AdminGetComplaints returns all complaints, optionally filtered by status
func AdminGetComplaints(c *gin.Context) {
	query := database.DB.Model(&database.Complaint{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var complaints []database.Complaint
	if err := query.Order("created_at DESC").Find(&complaints).Error; err != nil {
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch complaints"})
		return
	}

	c.JSON(http.StatusOK, complaints)
}

// AdminUpdateComplaint sets a complaint's status and/or response.
// Residents cannot mutate complaints after filing; only admins can.
func AdminUpdateComplaint(c *gin.Context) {
	complaintID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid complaint ID"})
		return
	}

	var request ComplaintUpdateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	updates := map[string]interface{}{}
	if request.Status != "" {
		updates["status"] = request.Status
	}
	if request.Response != "" {
		updates["response"] = request.Response
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}

	var complaint database.Complaint
	if err := database.DB.First(&complaint, uint(complaintID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Complaint not found"})
			return
		}
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	if err := database.DB.Model(&complaint).Updates(updates).Error; err != nil {
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update complaint"})
		return
	}

	c.JSON(http.StatusOK, complaint)
}
