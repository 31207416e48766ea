package repositories

import (
	"errors"
	"fmt"

	"tiffin/internal/models"

	"gorm.io/gorm"
)

var ErrPartnerNotFound = errors.New("delivery partner not found")

// PartnerRepository persists delivery partner profiles.
type PartnerRepository interface {
	Create(partner *models.DeliveryPartner) error
	GetByID(id uint) (*models.DeliveryPartner, error)
	GetByUserID(userID uint) (*models.DeliveryPartner, error)
	Update(partner *models.DeliveryPartner) error
	GetAvailable() ([]models.DeliveryPartner, error)
	AdjustLoad(partnerID uint, delta int) error
}

type partnerRepository struct {
	db *gorm.DB
}

func NewPartnerRepository(db *gorm.DB) PartnerRepository {
	return &partnerRepository{db: db}
}

func (r *partnerRepository) Create(partner *models.DeliveryPartner) error {
	if err := r.db.Create(partner).Error; err != nil {
		return fmt.Errorf("failed to create partner: %w", err)
	}
	return nil
}

func (r *partnerRepository) GetByID(id uint) (*models.DeliveryPartner, error) {
	var partner models.DeliveryPartner
	if err := r.db.First(&partner, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrPartnerNotFound
		}
		return nil, fmt.Errorf("failed to get partner: %w", err)
	}
	return &partner, nil
}

func (r *partnerRepository) GetByUserID(userID uint) (*models.DeliveryPartner, error) {
	var partner models.DeliveryPartner
	if err := r.db.Where("user_id = ?", userID).First(&partner).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrPartnerNotFound
		}
		return nil, fmt.Errorf("failed to get partner: %w", err)
	}
	return &partner, nil
}

func (r *partnerRepository) Update(partner *models.DeliveryPartner) error {
	if err := r.db.Save(partner).Error; err != nil {
		return fmt.Errorf("failed to update partner: %w", err)
	}
	return nil
}

func (r *partnerRepository) GetAvailable() ([]models.DeliveryPartner, error) {
	var partners []models.DeliveryPartner
	err := r.db.Where("available = ?", true).Find(&partners).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list available partners: %w", err)
	}
	return partners, nil
}

func (r *partnerRepository) AdjustLoad(partnerID uint, delta int) error {
	result := r.db.Model(&models.DeliveryPartner{}).Where("id = ?", partnerID).
		UpdateColumn("current_load", gorm.Expr("current_load + ?", delta))
	if result.Error != nil {
		return fmt.Errorf("failed to adjust partner load: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrPartnerNotFound
	}
	return nil
}
