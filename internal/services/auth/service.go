package auth

import (
	"errors"
	"log"
	"time"

	"tiffin/internal/models"
	"tiffin/internal/repositories"
	"tiffin/internal/utils"
	"tiffin/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

const (
	maxFailedLogins = 5
	lockoutDuration = 15 * time.Minute
)

type RegisterRequest struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Address  string `json:"address"`
	City     string `json:"city"`
	Pincode  string `json:"pincode"`
}

type Service interface {
	Register(req RegisterRequest) (*models.User, error)
	Login(email, phone, password string) (*models.User, string, string, error)
	RefreshTokens(refreshToken string) (string, string, error)
	Logout(userID uint) error
	ChangePassword(userID uint, oldPassword, newPassword string) error

	GetUserByID(userID uint) (*models.User, error)
	GetUserTokenVersion(userID uint) (int, error)
}

type service struct {
	userRepo repositories.UserRepository
}

func NewService(userRepo repositories.UserRepository) Service {
	return &service{
		userRepo: userRepo,
	}
}

func (s *service) Register(req RegisterRequest) (*models.User, error) {
	switch req.Role {
	case models.RoleConsumer, models.RoleProvider, models.RoleDeliveryPartner:
	case "":
		req.Role = models.RoleConsumer
	default:
		return nil, errors.New("invalid role")
	}

	if len(req.Password) < validation.MinPasswordLength || !validation.HasSpecialChar(req.Password) {
		return nil, errors.New("password must be at least 8 characters and contain special characters")
	}

	if _, err := s.userRepo.GetByEmail(req.Email); err == nil {
		return nil, errors.New("email already registered")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	user := &models.User{
		Email:        req.Email,
		Phone:        req.Phone,
		Password:     string(hashedPassword),
		Name:         req.Name,
		Role:         req.Role,
		Address:      req.Address,
		City:         req.City,
		Pincode:      req.Pincode,
		TokenVersion: 1,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, errors.New("failed to create user")
	}
	return user, nil
}

func (s *service) Login(email, phone, password string) (*models.User, string, string, error) {
	user, err := s.getUserByIdentifier(email, phone)
	if err != nil {
		log.Printf("Login failed: User not found for identifier: %s", email+phone)
		return nil, "", "", errors.New("invalid credentials")
	}

	if user.AccountLockoutUntil != nil && user.AccountLockoutUntil.After(time.Now()) {
		return nil, "", "", errors.New("account temporarily locked, try again later")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		log.Printf("Login failed: Incorrect password for user ID: %d", user.ID)
		s.recordFailedLogin(user)
		return nil, "", "", errors.New("invalid credentials")
	}

	if user.FailedLoginAttempts > 0 || user.AccountLockoutUntil != nil {
		user.FailedLoginAttempts = 0
		user.AccountLockoutUntil = nil
		if err := s.userRepo.Update(user); err != nil {
			log.Printf("Failed to reset login attempts for user %d: %v", user.ID, err)
		}
	}

	accessToken, refreshToken, err := utils.GenerateTokens(&models.UserClaims{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
		Permissions:  models.GetDefaultPermissions(user.Role),
	})
	if err != nil {
		log.Println("Error generating tokens:", err)
		return nil, "", "", errors.New("error generating tokens")
	}

	return user, accessToken, refreshToken, nil
}

func (s *service) RefreshTokens(refreshToken string) (string, string, error) {
	_, claims, err := utils.ParseToken(refreshToken)
	if err != nil {
		return "", "", errors.New("invalid refresh token")
	}

	user, err := s.userRepo.GetByID(claims.UserID)
	if err != nil {
		return "", "", errors.New("user not found")
	}

	if user.TokenVersion != claims.TokenVersion {
		return "", "", errors.New("token version mismatch")
	}

	return utils.GenerateTokens(&models.UserClaims{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
		Permissions:  models.GetDefaultPermissions(user.Role),
	})
}

func (s *service) Logout(userID uint) error {
	return s.userRepo.IncrementTokenVersion(userID)
}

func (s *service) ChangePassword(userID uint, oldPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return errors.New("failed to get user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); err != nil {
		return errors.New("invalid old password")
	}

	if len(newPassword) < validation.MinPasswordLength || !validation.HasSpecialChar(newPassword) {
		return errors.New("password must be at least 8 characters and contain special characters")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.New("failed to hash password")
	}

	user.Password = string(hashedPassword)
	user.TokenVersion++ // Invalidate existing tokens

	if err := s.userRepo.Update(user); err != nil {
		return errors.New("failed to update password")
	}

	return nil
}

func (s *service) GetUserByID(userID uint) (*models.User, error) {
	return s.userRepo.GetByID(userID)
}

func (s *service) GetUserTokenVersion(userID uint) (int, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return 0, err
	}
	return user.TokenVersion, nil
}

func (s *service) recordFailedLogin(user *models.User) {
	user.FailedLoginAttempts++
	if user.FailedLoginAttempts >= maxFailedLogins {
		until := time.Now().Add(lockoutDuration)
		user.AccountLockoutUntil = &until
		user.FailedLoginAttempts = 0
	}
	if err := s.userRepo.Update(user); err != nil {
		log.Printf("Failed to record login attempt for user %d: %v", user.ID, err)
	}
}

func (s *service) getUserByIdentifier(email, phone string) (*models.User, error) {
	if email != "" {
		return s.userRepo.GetByEmail(email)
	}
	return s.userRepo.GetByPhone(phone)
}
