// Command admin_seed creates the initial admin account from environment
// variables. It is meant to be run once against a fresh database.
package main

import (
	"log"
	"os"

	"tiffin/internal/config"
	"tiffin/internal/models"
	"tiffin/internal/repositories"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	config.LoadEnv()

	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	phone := os.Getenv("ADMIN_PHONE")
	if email == "" || password == "" || phone == "" {
		log.Fatal("ADMIN_EMAIL, ADMIN_PASSWORD and ADMIN_PHONE must be set")
	}

	if err := repositories.InitDB(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if repositories.CacheService != nil {
			if err := repositories.CacheService.Close(); err != nil {
				log.Printf("⚠️ Failed to close Redis connection: %v", err)
			}
		}
	}()

	var existing models.User
	if err := repositories.DB.Where("email = ?", email).First(&existing).Error; err == nil {
		log.Printf("Admin account %s already exists (id=%d), nothing to do", email, existing.ID)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	admin := models.User{
		Name:         "Administrator",
		Email:        email,
		Phone:        phone,
		Password:     string(hashed),
		Role:         models.RoleAdmin,
		TokenVersion: 1,
	}
	if err := repositories.DB.Create(&admin).Error; err != nil {
		log.Fatalf("Failed to create admin account: %v", err)
	}

	log.Printf("✅ Admin account %s created (id=%d)", email, admin.ID)
}
