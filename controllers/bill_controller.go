package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"urbanease/billing"
	"urbanease/config"
	"urbanease/database"
)

// DispatchRequest contains the data for a bill dispatch run
type DispatchRequest struct {
	Types        []string `json:"types" binding:"required"`
	BillingMonth string   `json:"billing_month" binding:"required"`
	DueDate      string   `json:"due_date" binding:"required"`
}

// PayBillRequest contains the data for paying a bill
type PayBillRequest struct {
	BillRef string `json:"bill_ref" binding:"required"`
	Phone   string `json:"phone" binding:"required"`
	Method  string `json:"method" binding:"required"`
}

// paymentGateway picks the configured settlement collaborator. The
// simulated gateway is the default; razorpay is opt-in via config.
func paymentGateway() billing.Gateway {
	if config.AppConfig.PaymentGateway == "razorpay" && config.AppConfig.RazorpayKey != "" {
		return &billing.RazorpayGateway{
			Key:    config.AppConfig.RazorpayKey,
			Secret: config.AppConfig.RazorpaySecret,
		}
	}
	return &billing.SimulatedGateway{Now: time.Now}
}

// DispatchBills generates one bill per resident per requested type for the
// given billing month. Residents already billed for a (month, type) pair
// are counted as skipped.
func DispatchBills(c *gin.Context) {
	var request DispatchRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	dueDate, err := time.Parse("2006-01-02", request.DueDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "due_date must be in YYYY-MM-DD format"})
		return
	}

	engine := billing.NewEngine(database.DB, config.AppConfig.DispatchVerifiedOnly)
	result, err := engine.Dispatch(c.Request.Context(), request.Types, request.BillingMonth, dueDate)
	if err != nil {
		var validationErr *billing.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
			return
		}
		log.Printf("Dispatch error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Dispatch failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// PayBill marks a bill paid through the configured gateway
func PayBill(c *gin.Context) {
	var request PayBillRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	processor := billing.NewProcessor(database.DB)
	processor.Gateway = paymentGateway()

	// Residents can only pay their own bills; admins may pay any.
	userID, _ := c.Get("user_id")
	role, _ := c.Get("role")
	ownerID := billing.AnyOwner
	if role == database.RoleResident {
		ownerID = userID.(uint)
	}

	bill, transactionID, err := processor.Pay(c.Request.Context(), ownerID, request.BillRef, request.Phone, request.Method)
	if err != nil {
		var validationErr *billing.ValidationError
		var notFoundErr *billing.NotFoundError
		var alreadyPaidErr *billing.AlreadyPaidError

		switch {
		case errors.As(err, &validationErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
		case errors.As(err, &notFoundErr):
			c.JSON(http.StatusNotFound, gin.H{"error": notFoundErr.Error()})
		case errors.As(err, &alreadyPaidErr):
			c.JSON(http.StatusConflict, gin.H{"error": alreadyPaidErr.Error()})
		default:
			log.Printf("Payment error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Payment failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transaction_id": transactionID,
		"bill":           bill,
	})
}

// GetMyBills returns the authenticated resident's bills, newest first
func GetMyBills(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	query := database.DB.Where("user_id = ?", userID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var bills []database.Bill
	if err := query.Order("created_at DESC").Find(&bills).Error; err != nil {
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch bills"})
		return
	}

	c.JSON(http.StatusOK, bills)
}

// GetBillByID returns one bill. Residents can only see their own bills;
// admins can see any.
func GetBillByID(c *gin.Context) {
	billID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid bill ID"})
		return
	}

	userID, _ := c.Get("user_id")
	role, _ := c.Get("role")

	var bill database.Bill
	query := database.DB.Where("id = ?", uint(billID))
	if role == database.RoleResident {
		query = query.Where("user_id = ?", userID)
	}

	if err := query.First(&bill).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Bill not found"})
			return
		}
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	c.JSON(http.StatusOK, bill)
}

// AdminGetBills returns all bills with optional month/type/status filters
func AdminGetBills(c *gin.Context) {
	query := database.DB.Model(&database.Bill{})
	if month := c.Query("billing_month"); month != "" {
		query = query.Where("billing_month = ?", month)
	}
	if billType := c.Query("type"); billType != "" {
		query = query.Where("type = ?", billing.NormalizeType(billType))
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var bills []database.Bill
	if err := query.Order("created_at DESC").Limit(500).Find(&bills).Error; err != nil {
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch bills"})
		return
	}

	c.JSON(http.StatusOK, bills)
}

// BillStatusRequest contains the new status for a bill
type BillStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=due paid upcoming failed"`
}

// AdminUpdateBillStatus toggles a bill's status directly
func AdminUpdateBillStatus(c *gin.Context) {
	billID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid bill ID"})
		return
	}

	var request BillStatusRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	result := database.DB.Model(&database.Bill{}).
		Where("id = ?", uint(billID)).
		Update("status", request.Status)
	if result.Error != nil {
		log.Printf("Database error: %v", result.Error)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update bill"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Bill not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Bill status updated"})
}

// AdminDeleteBill removes a bill permanently
func AdminDeleteBill(c *gin.Context) {
	billID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid bill ID"})
		return
	}

	result := database.DB.Unscoped().Delete(&database.Bill{}, uint(billID))
	if result.Error != nil {
		log.Printf("Database error: %v", result.Error)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete bill"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Bill not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Bill deleted"})
}
