package repositories

import (
	"errors"
	"fmt"
	"time"

	"tiffin/internal/models"

	"gorm.io/gorm"
)

var ErrSettlementNotFound = errors.New("settlement not found")

// SettlementRepository persists delivery settlements.
type SettlementRepository interface {
	Create(settlement *models.DeliverySettlement) error
	GetByID(id uint) (*models.DeliverySettlement, error)
	GetByDeliveryOrder(deliveryOrderID uint) (*models.DeliverySettlement, error)
	Update(settlement *models.DeliverySettlement) error
	GetByProvider(providerID uint, limit, offset int) ([]models.DeliverySettlement, int64, error)
	GetBetween(start, end time.Time) ([]models.DeliverySettlement, error)
}

type settlementRepository struct {
	db *gorm.DB
}

func NewSettlementRepository(db *gorm.DB) SettlementRepository {
	return &settlementRepository{db: db}
}

func (r *settlementRepository) Create(settlement *models.DeliverySettlement) error {
	if err := r.db.Create(settlement).Error; err != nil {
		return fmt.Errorf("failed to create settlement: %w", err)
	}
	return nil
}

func (r *settlementRepository) GetByID(id uint) (*models.DeliverySettlement, error) {
	var s models.DeliverySettlement
	if err := r.db.First(&s, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrSettlementNotFound
		}
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}
	return &s, nil
}

func (r *settlementRepository) GetByDeliveryOrder(deliveryOrderID uint) (*models.DeliverySettlement, error) {
	var s models.DeliverySettlement
	if err := r.db.Where("delivery_order_id = ?", deliveryOrderID).First(&s).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrSettlementNotFound
		}
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}
	return &s, nil
}

func (r *settlementRepository) Update(settlement *models.DeliverySettlement) error {
	if err := r.db.Save(settlement).Error; err != nil {
		return fmt.Errorf("failed to update settlement: %w", err)
	}
	return nil
}

func (r *settlementRepository) GetByProvider(providerID uint, limit, offset int) ([]models.DeliverySettlement, int64, error) {
	var settlements []models.DeliverySettlement
	var total int64

	q := r.db.Model(&models.DeliverySettlement{}).Where("provider_id = ?", providerID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count settlements: %w", err)
	}
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&settlements).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list settlements: %w", err)
	}
	return settlements, total, nil
}

func (r *settlementRepository) GetBetween(start, end time.Time) ([]models.DeliverySettlement, error) {
	var settlements []models.DeliverySettlement
	err := r.db.Where("created_at BETWEEN ? AND ?", start, end).
		Order("created_at").Find(&settlements).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	return settlements, nil
}
