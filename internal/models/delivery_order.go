package models

import "time"

// Time slots
const (
	SlotBreakfast = "breakfast"
	SlotLunch     = "lunch"
	SlotDinner    = "dinner"
)

// Delivery statuses
const (
	DeliveryStatusPending        = "pending"
	DeliveryStatusConfirmed      = "confirmed"
	DeliveryStatusReady          = "ready"
	DeliveryStatusAssigned       = "assigned"
	DeliveryStatusOutForDelivery = "out_for_delivery"
	DeliveryStatusDelivered      = "delivered"
	DeliveryStatusNotDelivered   = "not_delivered"
	DeliveryStatusCancelled      = "cancelled"
)

// DeliveryOrder is one scheduled delivery occurrence belonging to a parent
// order. DeliveryDate is always an IST midnight instant so weekday matching
// and the cancellation window stay aligned with the civil calendar.
type DeliveryOrder struct {
	ID                  uint      `gorm:"primarykey"`
	OrderID             uint      `gorm:"index;not null"`
	ConsumerID          uint      `gorm:"index;not null"`
	ProviderID          uint      `gorm:"index;not null"`
	PartnerID           *uint     `gorm:"index"`
	DeliveryDate        time.Time `gorm:"index;not null"`
	TimeSlot            string    `gorm:"not null"`
	Status              string    `gorm:"not null;default:'pending'"`
	SettlementProcessed bool      `gorm:"index;default:false"`
	ConfirmationCode    string
	DeliveredAt         *time.Time
	CancelledAt         *time.Time
	CancelReason        string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Terminal reports whether the delivery reached a final status.
func (d *DeliveryOrder) Terminal() bool {
	switch d.Status {
	case DeliveryStatusDelivered, DeliveryStatusNotDelivered, DeliveryStatusCancelled:
		return true
	}
	return false
}
