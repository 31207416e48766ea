package repositories

import (
	"errors"
	"fmt"

	"tiffin/internal/models"

	"gorm.io/gorm"
)

var ErrWithdrawalNotFound = errors.New("withdrawal request not found")

// WithdrawalRepository persists withdrawal requests and their review state.
type WithdrawalRepository interface {
	Create(req *models.WithdrawalRequest) error
	GetByID(id uint) (*models.WithdrawalRequest, error)
	Update(req *models.WithdrawalRequest) error
	GetByRequester(requesterID uint, limit, offset int) ([]models.WithdrawalRequest, int64, error)
	GetByStatus(status string, limit, offset int) ([]models.WithdrawalRequest, int64, error)
}

type withdrawalRepository struct {
	db *gorm.DB
}

func NewWithdrawalRepository(db *gorm.DB) WithdrawalRepository {
	return &withdrawalRepository{db: db}
}

func (r *withdrawalRepository) Create(req *models.WithdrawalRequest) error {
	if err := r.db.Create(req).Error; err != nil {
		return fmt.Errorf("failed to create withdrawal request: %w", err)
	}
	return nil
}

func (r *withdrawalRepository) GetByID(id uint) (*models.WithdrawalRequest, error) {
	var req models.WithdrawalRequest
	if err := r.db.First(&req, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrWithdrawalNotFound
		}
		return nil, fmt.Errorf("failed to get withdrawal request: %w", err)
	}
	return &req, nil
}

func (r *withdrawalRepository) Update(req *models.WithdrawalRequest) error {
	if err := r.db.Save(req).Error; err != nil {
		return fmt.Errorf("failed to update withdrawal request: %w", err)
	}
	return nil
}

func (r *withdrawalRepository) GetByRequester(requesterID uint, limit, offset int) ([]models.WithdrawalRequest, int64, error) {
	return r.list("requester_id = ?", requesterID, limit, offset)
}

func (r *withdrawalRepository) GetByStatus(status string, limit, offset int) ([]models.WithdrawalRequest, int64, error) {
	return r.list("status = ?", status, limit, offset)
}

func (r *withdrawalRepository) list(cond string, val interface{}, limit, offset int) ([]models.WithdrawalRequest, int64, error) {
	var reqs []models.WithdrawalRequest
	var total int64

	q := r.db.Model(&models.WithdrawalRequest{}).Where(cond, val)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count withdrawal requests: %w", err)
	}
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&reqs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list withdrawal requests: %w", err)
	}
	return reqs, total, nil
}
