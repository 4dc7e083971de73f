package controllers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"urbanease/database"
)

// AdminDashboard returns key statistics for the admin dashboard
func AdminDashboard(c *gin.Context) {
	var totalResidents int64
	var verifiedResidents int64
	var dueBills int64
	var pendingComplaints int64

	if err := database.DB.Model(&database.User{}).Where("role = ?", database.RoleResident).Count(&totalResidents).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count residents"})
		return
	}

	if err := database.DB.Model(&database.User{}).
		Where("role = ? AND is_verified = ?", database.RoleResident, true).
		Count(&verifiedResidents).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count verified residents"})
		return
	}

	if err := database.DB.Model(&database.Bill{}).Where("status = ?", database.BillStatusDue).Count(&dueBills).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count bills"})
		return
	}

	if err := database.DB.Model(&database.Complaint{}).
		Where("status = ?", database.ComplaintStatusPending).
		Count(&pendingComplaints).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count complaints"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stats": gin.H{
			"totalResidents":    totalResidents,
			"verifiedResidents": verifiedResidents,
			"dueBills":          dueBills,
			"pendingComplaints": pendingComplaints,
		},
	})
}

// AdminGetResidents returns all resident accounts
func AdminGetResidents(c *gin.Context) {
	query := database.DB.Where("role = ?", database.RoleResident)
	if verified := c.Query("verified"); verified != "" {
		query = query.Where("is_verified = ?", verified == "true")
	}

	var residents []database.User
	if err := query.Order("created_at DESC").Find(&residents).Error; err != nil {
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch residents"})
		return
	}

	c.JSON(http.StatusOK, residents)
}

// VerifyRequest carries the target verification state
type VerifyRequest struct {
	Verified *bool `json:"verified" binding:"required"`
}

// AdminVerifyResident sets a resident's verification flag. Verification is
// the gate for bill dispatch eligibility.
func AdminVerifyResident(c *gin.Context) {
	residentID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid resident ID"})
		return
	}

	var request VerifyRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	result := database.DB.Model(&database.User{}).
		Where("id = ? AND role = ?", uint(residentID), database.RoleResident).
		Update("is_verified", *request.Verified)
	if result.Error != nil {
		log.Printf("Database error: %v", result.Error)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update resident"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Resident not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Resident verification updated"})
}

// AdminDeleteResident removes a resident account. Their bills become
// orphans and are collected by the next reconciliation run.
func AdminDeleteResident(c *gin.Context) {
	residentID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid resident ID"})
		return
	}

	result := database.DB.
		Where("role = ?", database.RoleResident).
		Delete(&database.User{}, uint(residentID))
	if result.Error != nil {
		log.Printf("Database error: %v", result.Error)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete resident"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Resident not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Resident deleted"})
}
