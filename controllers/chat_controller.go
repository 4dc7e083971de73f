package controllers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"urbanease/database"
)

// ChatSendRequest contains data for sending a chat message.
// ReceiverID is either a user id or the literal "community".
type ChatSendRequest struct {
	ReceiverID     string `json:"receiver_id" binding:"required"`
	Message        string `json:"message" binding:"required"`
	Attachment     string `json:"attachment"`
	AttachmentType string `json:"attachment_type"`
}

// SendChatMessage stores a message from the authenticated sender
func SendChatMessage(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var request ChatSendRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	message := database.ChatMessage{
		SenderID:       userID.(uint),
		ReceiverID:     request.ReceiverID,
		Message:        request.Message,
		Attachment:     request.Attachment,
		AttachmentType: request.AttachmentType,
	}

	if err := database.DB.Create(&message).Error; err != nil {
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		return
	}

	c.JSON(http.StatusCreated, message)
}

// GetChatMessages returns the community feed or a direct conversation
// between the authenticated user and the peer named in the "with" query.
func GetChatMessages(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	peer := c.DefaultQuery("with", database.CommunityReceiver)
	selfID := strconv.FormatUint(uint64(userID.(uint)), 10)

	query := database.DB.Model(&database.ChatMessage{})
	if peer == database.CommunityReceiver {
		query = query.Where("receiver_id = ?", database.CommunityReceiver)
	} else {
		peerID, err := strconv.ParseUint(peer, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid peer ID"})
			return
		}
		query = query.Where(
			"(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userID, peer, uint(peerID), selfID,
		)
	}

	var messages []database.ChatMessage
	if err := query.Order("created_at ASC").Limit(200).Find(&messages).Error; err != nil {
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch messages"})
		return
	}

	c.JSON(http.StatusOK, messages)
}

// DeleteChatMessage removes a message. The original sender can delete
// their own messages; admins can delete any (moderation path).
func DeleteChatMessage(c *gin.Context) {
	messageID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid message ID"})
		return
	}

	userID, _ := c.Get("user_id")
	role, _ := c.Get("role")

	query := database.DB.Where("id = ?", uint(messageID))
	if role == database.RoleResident {
		query = query.Where("sender_id = ?", userID)
	}

	result := query.Delete(&database.ChatMessage{})
	if result.Error != nil {
		log.Printf("Database error: %v", result.Error)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete message"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Message not found or not yours to delete"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Message deleted"})
}
