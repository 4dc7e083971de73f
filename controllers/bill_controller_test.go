package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"urbanease/config"
	"urbanease/database"
	"urbanease/middleware"
	"urbanease/utils"
)

func setupTestServer(t *testing.T) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	config.InitConfig()

	path := filepath.Join(t.TempDir(), "api.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	database.DB = db
	if err := database.RunMigrations(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	r := gin.New()
	registerBillRoutes(r)
	return r
}

// registerBillRoutes wires the subset of routes these tests exercise,
// with the same middleware chain as routes.SetupRoutes.
func registerBillRoutes(r *gin.Engine) {
	public := r.Group("/api/auth")
	{
		public.POST("/login", Login)
		public.POST("/register", Register)
	}

	protected := r.Group("/api")
	protected.Use(middleware.AuthMiddleware())
	{
		protected.GET("/bills", GetMyBills)
		protected.POST("/bills/pay", PayBill)

		admin := protected.Group("/admin")
		admin.Use(middleware.AdminAuthMiddleware())
		{
			admin.POST("/bills/dispatch", DispatchBills)
		}
	}
}

func createTestUser(t *testing.T, role string, verified bool) (database.User, string) {
	t.Helper()

	user := database.User{
		Name:         "Test " + role,
		Email:        role + "@example.com",
		PasswordHash: "x",
		Role:         role,
		PropertyType: database.PropertyHouse,
		Block:        "A",
		Street:       "1",
		HouseNo:      "10",
		IsVerified:   verified,
	}
	if err := database.DB.Create(&user).Error; err != nil {
		t.Fatalf("create %s: %v", role, err)
	}

	token, err := utils.GenerateJWT(user.ID, user.Email, user.Role, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return user, token
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var payload *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		payload = bytes.NewBuffer(raw)
	} else {
		payload = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, payload)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestDispatchEndpointCreatesAndSkips(t *testing.T) {
	r := setupTestServer(t)

	_, adminToken := createTestUser(t, database.RoleAdmin, true)
	resident, residentToken := createTestUser(t, database.RoleResident, true)

	body := gin.H{
		"types":         []string{"electricity", "maintenance"},
		"billing_month": "March 2026",
		"due_date":      "2026-03-10",
	}

	w := doJSON(t, r, http.MethodPost, "/api/admin/bills/dispatch", adminToken, body)
	if w.Code != http.StatusOK {
		t.Fatalf("dispatch status %d: %s", w.Code, w.Body.String())
	}

	var result struct {
		Created int `json:"created"`
		Skipped int `json:"skipped"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode dispatch response: %v", err)
	}
	if result.Created != 2 || result.Skipped != 0 {
		t.Fatalf("expected created=2 skipped=0, got %+v", result)
	}

	// Re-dispatch with the same arguments creates nothing new.
	w = doJSON(t, r, http.MethodPost, "/api/admin/bills/dispatch", adminToken, body)
	if w.Code != http.StatusOK {
		t.Fatalf("re-dispatch status %d: %s", w.Code, w.Body.String())
	}
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode re-dispatch response: %v", err)
	}
	if result.Created != 0 || result.Skipped != 2 {
		t.Fatalf("expected created=0 skipped=2, got %+v", result)
	}

	// The resident sees both bills.
	w = doJSON(t, r, http.MethodGet, "/api/bills", residentToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list bills status %d: %s", w.Code, w.Body.String())
	}
	var bills []database.Bill
	if err := json.Unmarshal(w.Body.Bytes(), &bills); err != nil {
		t.Fatalf("decode bills: %v", err)
	}
	if len(bills) != 2 {
		t.Fatalf("expected 2 bills for resident %d, got %d", resident.ID, len(bills))
	}
}

func TestDispatchEndpointRequiresAdmin(t *testing.T) {
	r := setupTestServer(t)

	_, residentToken := createTestUser(t, database.RoleResident, true)

	w := doJSON(t, r, http.MethodPost, "/api/admin/bills/dispatch", residentToken, gin.H{
		"types":         []string{"gas"},
		"billing_month": "March 2026",
		"due_date":      "2026-03-10",
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for resident, got %d", w.Code)
	}
}

func TestPayEndpointReportsSpecificFailures(t *testing.T) {
	r := setupTestServer(t)

	_, adminToken := createTestUser(t, database.RoleAdmin, true)
	_, residentToken := createTestUser(t, database.RoleResident, true)

	w := doJSON(t, r, http.MethodPost, "/api/admin/bills/dispatch", adminToken, gin.H{
		"types":         []string{"gas"},
		"billing_month": "March 2026",
		"due_date":      "2026-03-10",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("dispatch status %d: %s", w.Code, w.Body.String())
	}

	var bill database.Bill
	if err := database.DB.Where("type = ?", "gas").First(&bill).Error; err != nil {
		t.Fatalf("load dispatched bill: %v", err)
	}

	// Bad phone format.
	w = doJSON(t, r, http.MethodPost, "/api/bills/pay", residentToken, gin.H{
		"bill_ref": bill.ReferenceID, "phone": "0300000000", "method": "jazzcash",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for short phone, got %d: %s", w.Code, w.Body.String())
	}

	// Unknown reference.
	w = doJSON(t, r, http.MethodPost, "/api/bills/pay", residentToken, gin.H{
		"bill_ref": "REF-unknown", "phone": "03001234567", "method": "jazzcash",
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown ref, got %d: %s", w.Code, w.Body.String())
	}

	// Successful payment.
	w = doJSON(t, r, http.MethodPost, "/api/bills/pay", residentToken, gin.H{
		"bill_ref": bill.ReferenceID, "phone": "03001234567", "method": "jazzcash",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for payment, got %d: %s", w.Code, w.Body.String())
	}
	var payResponse struct {
		TransactionID string `json:"transaction_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payResponse); err != nil {
		t.Fatalf("decode pay response: %v", err)
	}
	if payResponse.TransactionID == "" {
		t.Fatal("expected a transaction id")
	}

	// Double payment.
	w = doJSON(t, r, http.MethodPost, "/api/bills/pay", residentToken, gin.H{
		"bill_ref": bill.ReferenceID, "phone": "03001234567", "method": "jazzcash",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for double payment, got %d: %s", w.Code, w.Body.String())
	}
}
