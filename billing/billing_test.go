package billing

import (
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"urbanease/database"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "billing.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	if err := db.AutoMigrate(&database.User{}, &database.Bill{}); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	return db
}

func newTestEngine(db *gorm.DB) *Engine {
	engine := NewEngine(db, true)
	engine.Rand = rand.New(rand.NewSource(1))
	engine.Now = func() time.Time {
		return time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	}
	return engine
}

func createResident(t *testing.T, db *gorm.DB, email string, verified bool) database.User {
	t.Helper()

	user := database.User{
		Name:         "Resident " + email,
		Email:        email,
		PasswordHash: "x",
		Role:         database.RoleResident,
		PropertyType: database.PropertyHouse,
		Block:        "B",
		Street:       "12",
		HouseNo:      "7",
		IsVerified:   verified,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create resident %s: %v", email, err)
	}
	return user
}

func countBills(t *testing.T, db *gorm.DB) int64 {
	t.Helper()

	var count int64
	if err := db.Model(&database.Bill{}).Count(&count).Error; err != nil {
		t.Fatalf("count bills: %v", err)
	}
	return count
}
