package models

import (
	"time"

	"gorm.io/gorm"
)

// Roles recognized across the API surface.
const (
	RoleAdmin           = "admin"
	RoleProvider        = "provider"
	RoleConsumer        = "consumer"
	RoleDeliveryPartner = "delivery_partner"
	RoleSystem          = "system"
)

type User struct {
	gorm.Model
	Email               string `gorm:"uniqueIndex;not null"`
	Password            string `gorm:"not null"`
	Name                string `gorm:"not null"`
	Phone               string `gorm:"uniqueIndex;not null"`
	Role                string `gorm:"default:'consumer'"`
	Status              string `gorm:"default:'active'"`
	Address             string
	City                string
	Pincode             string
	LastLoginAt         time.Time
	LastLoginIP         string
	FailedLoginAttempts int `gorm:"default:0"`
	AccountLockoutUntil *time.Time
	TokenVersion        int `gorm:"default:1"`
}
