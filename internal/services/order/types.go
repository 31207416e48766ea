package order

import "tiffin/internal/models"

// CreateRequest carries everything needed to place a recurring order.
type CreateRequest struct {
	ConsumerID    uint                `json:"-"`
	ProviderID    uint                `json:"provider_id"`
	MenuName      string              `json:"menu_name"`
	TotalAmount   float64             `json:"total_amount"`
	TimeSlot      string              `json:"time_slot"`
	DeliveryInfo  models.DeliveryInfo `json:"delivery_info"`
	PaymentMethod string              `json:"payment_method"`
	PaymentRef    string              `json:"payment_ref"`
	Address       string              `json:"address"`
	Instructions  string              `json:"instructions"`
}

// Actor identifies who is changing a delivery's status. PartnerID is set
// only for delivery partners and must match the delivery's assignment.
type Actor struct {
	UserID    uint
	Role      string
	PartnerID uint
}

// CreateResult pairs the stored order with its expanded schedule.
type CreateResult struct {
	Order      *models.Order          `json:"order"`
	Deliveries []models.DeliveryOrder `json:"deliveries"`
}
