package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// Schedule types accepted in an order's delivery info.
const (
	ScheduleTypeMonth        = "month"
	ScheduleTypeSpecificDays = "specific_days"
	ScheduleTypeCustomDates  = "custom_dates"
)

// Order statuses
const (
	OrderStatusPending   = "pending"
	OrderStatusActive    = "active"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// Payment methods
const (
	PaymentMethodWallet = "wallet"
	PaymentMethodCard   = "card"
	PaymentMethodCOD    = "cod"
)

// DeliveryInfo describes how an order's schedule expands into individual
// delivery dates. Exactly one shape applies per order:
//   - month: 30 consecutive days from StartDate (today if empty)
//   - specific_days: weekday names matched across a forward window
//   - custom_dates: an explicit list of YYYY-MM-DD dates
type DeliveryInfo struct {
	Type      string   `json:"type"`
	Days      []string `json:"days,omitempty"`
	Dates     []string `json:"dates,omitempty"`
	StartDate string   `json:"startDate,omitempty"`
}

// Value implements the driver.Valuer interface
func (d DeliveryInfo) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Scan implements the sql.Scanner interface
func (d *DeliveryInfo) Scan(value interface{}) error {
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, d)
}

// Order is the parent record of a recurring tiffin subscription. Its
// schedule is expanded once at creation time into DeliveryOrder rows.
type Order struct {
	ID            uint `gorm:"primarykey"`
	OrderID       string
	ConsumerID    uint `gorm:"index;not null"`
	ProviderID    uint `gorm:"index;not null"`
	MenuName      string
	TotalAmount   float64      `gorm:"not null"`
	TimeSlot      string       `gorm:"not null"`
	DeliveryInfo  DeliveryInfo `gorm:"type:jsonb"`
	Status        string       `gorm:"not null;default:'pending'"`
	PaymentMethod string       `gorm:"default:'wallet'"`
	PaymentRef    string
	Address       string
	Instructions  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
