package controllers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"urbanease/database"
	"urbanease/utils"
)

// GetUserProfile returns the profile of the authenticated user
func GetUserProfile(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var user database.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		log.Printf("Error fetching user: %v", err)

		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		}
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateProfileRequest contains the data for profile update
type UpdateProfileRequest struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Block       string `json:"block"`
	Street      string `json:"street"`
	HouseNo     string `json:"house_no"`
	PlazaName   string `json:"plaza_name"`
	FloorNumber string `json:"floor_number"`
	FlatNumber  string `json:"flat_number"`
}

// UpdateUserProfile updates the profile of the authenticated user.
// Editing any address field resets is_verified: the admin has to confirm
// the new address before the resident is billed again.
func UpdateUserProfile(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var updateRequest UpdateProfileRequest
	if err := c.ShouldBindJSON(&updateRequest); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	updates := map[string]interface{}{}
	if updateRequest.Name != "" {
		updates["name"] = updateRequest.Name
	}
	if updateRequest.Phone != "" {
		updates["phone"] = updateRequest.Phone
	}

	addressEdited := false
	addressFields := map[string]string{
		"block":        updateRequest.Block,
		"street":       updateRequest.Street,
		"house_no":     updateRequest.HouseNo,
		"plaza_name":   updateRequest.PlazaName,
		"floor_number": updateRequest.FloorNumber,
		"flat_number":  updateRequest.FlatNumber,
	}
	for column, value := range addressFields {
		if value != "" {
			updates[column] = value
			addressEdited = true
		}
	}
	if addressEdited {
		updates["is_verified"] = false
	}

	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}

	if err := database.DB.Model(&database.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
		log.Printf("Failed to update profile: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	var updatedUser database.User
	if err := database.DB.First(&updatedUser, userID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error retrieving updated profile"})
		return
	}

	c.JSON(http.StatusOK, updatedUser)
}

// ChangePasswordRequest contains the data for password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6"`
}

// ChangePassword changes the user's password
func ChangePassword(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var changePassRequest ChangePasswordRequest
	if err := c.ShouldBindJSON(&changePassRequest); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	var user database.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		} else {
			log.Printf("Database error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		}
		return
	}

	if !utils.CheckPasswordHash(changePassRequest.CurrentPassword, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Current password is incorrect"})
		return
	}

	newPasswordHash, err := utils.HashPassword(changePassRequest.NewPassword)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error processing password change"})
		return
	}

	if err := database.DB.Model(&user).Update("password_hash", newPasswordHash).Error; err != nil {
		log.Printf("Failed to update password: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}
