package database

import (
	"log"

	"urbanease/utils"
)

// RunMigrations runs all database migrations
func RunMigrations() error {
	log.Println("Running database migrations...")

	// AutoMigrate will create tables if they don't exist, including the
	// compound unique index on bills that dispatch relies on.
	if err := DB.AutoMigrate(
		&User{},
		&Bill{},
		&Complaint{},
		&Notice{},
		&ChatMessage{},
	); err != nil {
		log.Printf("Migration failed: %v", err)
		return err
	}

	log.Println("Database migrations completed successfully")
	return nil
}

// SeedDefaultAdmin creates a default admin if none exists
func SeedDefaultAdmin() {
	var count int64
	if err := DB.Model(&User{}).Where("role IN ?", []string{RoleAdmin, RoleSuperAdmin}).Count(&count).Error; err != nil {
		log.Printf("Failed to check existing admin: %v", err)
		return
	}

	if count > 0 {
		log.Println("Admin user already exists.")
		return
	}

	passwordHash, err := utils.HashPassword("admin123")
	if err != nil {
		log.Printf("Failed to hash default admin password: %v", err)
		return
	}

	admin := User{
		Name:         "Super Admin",
		Email:        "admin@urbanease.com",
		PasswordHash: passwordHash,
		Role:         RoleSuperAdmin,
		Phone:        "03000000000",
		IsVerified:   true,
	}

	if err := DB.Create(&admin).Error; err != nil {
		log.Printf("Failed to create admin: %v", err)
	} else {
		log.Println("Default admin user created successfully.")
	}
}
