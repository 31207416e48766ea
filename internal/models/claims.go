package models

import "github.com/golang-jwt/jwt/v5"

// Application permissions
const (
	// Admin permissions
	PermissionReadAdmin  = "admin:read"
	PermissionWriteAdmin = "admin:write"

	// Wallet permissions
	PermissionWalletRead  = "wallet:read"
	PermissionWalletWrite = "wallet:write"

	// Order permissions
	PermissionOrderRead  = "order:read"
	PermissionOrderWrite = "order:write"

	// Provider permissions
	PermissionMenuWrite       = "menu:write"
	PermissionFulfillmentRead = "fulfillment:read"

	// Delivery partner permissions
	PermissionDeliveryUpdate = "delivery:update"
	PermissionEarningsRead   = "earnings:read"

	// Account permissions
	PermissionChangePassword = "user:change-password"
)

type UserClaims struct {
	jwt.RegisteredClaims
	UserID       uint     `json:"user_id"`
	Email        string   `json:"email"`
	Role         string   `json:"role"`
	Permissions  []string `json:"permissions"`
	TokenVersion int      `json:"token_version"`
}

// HasPermission checks if the claims include a specific permission
func (c *UserClaims) HasPermission(permission string) bool {
	for _, p := range c.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// GetDefaultPermissions returns default permissions based on role
func GetDefaultPermissions(role string) []string {
	switch role {
	case RoleAdmin:
		return []string{
			PermissionReadAdmin,
			PermissionWriteAdmin,
			PermissionWalletRead,
			PermissionWalletWrite,
			PermissionOrderRead,
			PermissionOrderWrite,
			PermissionMenuWrite,
			PermissionFulfillmentRead,
			PermissionDeliveryUpdate,
			PermissionEarningsRead,
			PermissionChangePassword,
		}
	case RoleProvider:
		return []string{
			PermissionWalletRead,
			PermissionWalletWrite,
			PermissionOrderRead,
			PermissionMenuWrite,
			PermissionFulfillmentRead,
			PermissionChangePassword,
		}
	case RoleDeliveryPartner:
		return []string{
			PermissionWalletRead,
			PermissionOrderRead,
			PermissionDeliveryUpdate,
			PermissionEarningsRead,
			PermissionChangePassword,
		}
	case RoleConsumer:
		return []string{
			PermissionWalletRead,
			PermissionWalletWrite,
			PermissionOrderRead,
			PermissionOrderWrite,
			PermissionChangePassword,
		}
	default:
		return []string{}
	}
}
