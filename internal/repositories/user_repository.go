package repositories

import (
	"errors"

	"tiffin/internal/models"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailTaken        = errors.New("email already taken")
	ErrPhoneTaken        = errors.New("phone number already taken")
	ErrInvalidUserData   = errors.New("invalid user data")
	ErrDatabaseOperation = errors.New("database operation failed")
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByPhone(phone string) (*models.User, error)
	Update(user *models.User) error
	IncrementTokenVersion(userID uint) error
	GetUsersPaginated(limit, offset int) ([]models.User, int64, error)
}
