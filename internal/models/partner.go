package models

import "time"

// DeliveryPartner is the courier profile used by auto-assignment. Rating,
// remaining capacity and distance feed the weighted score; CurrentLoad is
// bumped on assignment and released on a terminal delivery status.
type DeliveryPartner struct {
	ID          uint   `gorm:"primarykey"`
	UserID      uint   `gorm:"uniqueIndex;not null"`
	VehicleType string `gorm:"default:'bike'"`
	Rating      float64 `gorm:"default:3"`
	MaxCapacity int     `gorm:"default:10"`
	CurrentLoad int     `gorm:"default:0"`
	Latitude    float64
	Longitude   float64
	Available   bool `gorm:"index;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RemainingCapacity returns how many more deliveries the partner can carry.
func (p *DeliveryPartner) RemainingCapacity() int {
	if p.CurrentLoad >= p.MaxCapacity {
		return 0
	}
	return p.MaxCapacity - p.CurrentLoad
}
