package repositories

import (
	"errors"
	"fmt"
	"time"

	"tiffin/internal/models"

	"gorm.io/gorm"
)

var (
	ErrOrderNotFound         = errors.New("order not found")
	ErrDeliveryOrderNotFound = errors.New("delivery order not found")
)

// OrderRepository covers parent orders and their expanded delivery dates.
type OrderRepository interface {
	CreateWithDeliveries(order *models.Order, deliveries []models.DeliveryOrder) error
	GetByID(id uint) (*models.Order, error)
	Update(order *models.Order) error
	GetOrdersByConsumer(consumerID uint, limit, offset int) ([]models.Order, int64, error)
	GetOrdersByProvider(providerID uint, limit, offset int) ([]models.Order, int64, error)

	GetDeliveryOrder(id uint) (*models.DeliveryOrder, error)
	UpdateDeliveryOrder(delivery *models.DeliveryOrder) error
	CountDeliveriesForOrder(orderID uint) (int64, error)
	GetDeliveriesForOrder(orderID uint) ([]models.DeliveryOrder, error)
	GetDeliveriesForDate(date time.Time, providerID uint) ([]models.DeliveryOrder, error)
	GetUnsettledDelivered(limit int) ([]models.DeliveryOrder, error)
	GetDeliveriesByPartner(partnerID uint, limit, offset int) ([]models.DeliveryOrder, int64, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// CreateWithDeliveries persists the order and its expanded delivery dates in
// one transaction; a schedule is never half-expanded.
func (r *orderRepository) CreateWithDeliveries(order *models.Order, deliveries []models.DeliveryOrder) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		for i := range deliveries {
			deliveries[i].OrderID = order.ID
			deliveries[i].ConsumerID = order.ConsumerID
			deliveries[i].ProviderID = order.ProviderID
		}
		if len(deliveries) > 0 {
			if err := tx.Create(&deliveries).Error; err != nil {
				return fmt.Errorf("failed to create delivery orders: %w", err)
			}
		}
		return nil
	})
}

func (r *orderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.First(&order, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &order, nil
}

func (r *orderRepository) Update(order *models.Order) error {
	if err := r.db.Save(order).Error; err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	return nil
}

func (r *orderRepository) GetOrdersByConsumer(consumerID uint, limit, offset int) ([]models.Order, int64, error) {
	return r.listOrders("consumer_id = ?", consumerID, limit, offset)
}

func (r *orderRepository) GetOrdersByProvider(providerID uint, limit, offset int) ([]models.Order, int64, error) {
	return r.listOrders("provider_id = ?", providerID, limit, offset)
}

func (r *orderRepository) listOrders(cond string, id uint, limit, offset int) ([]models.Order, int64, error) {
	var orders []models.Order
	var total int64

	q := r.db.Model(&models.Order{}).Where(cond, id)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

func (r *orderRepository) GetDeliveryOrder(id uint) (*models.DeliveryOrder, error) {
	var delivery models.DeliveryOrder
	if err := r.db.First(&delivery, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrDeliveryOrderNotFound
		}
		return nil, fmt.Errorf("failed to get delivery order: %w", err)
	}
	return &delivery, nil
}

func (r *orderRepository) UpdateDeliveryOrder(delivery *models.DeliveryOrder) error {
	if err := r.db.Save(delivery).Error; err != nil {
		return fmt.Errorf("failed to update delivery order: %w", err)
	}
	return nil
}

func (r *orderRepository) CountDeliveriesForOrder(orderID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.DeliveryOrder{}).Where("order_id = ?", orderID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count delivery orders: %w", err)
	}
	return count, nil
}

func (r *orderRepository) GetDeliveriesForOrder(orderID uint) ([]models.DeliveryOrder, error) {
	var deliveries []models.DeliveryOrder
	err := r.db.Where("order_id = ?", orderID).Order("delivery_date").Find(&deliveries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list delivery orders: %w", err)
	}
	return deliveries, nil
}

func (r *orderRepository) GetDeliveriesForDate(date time.Time, providerID uint) ([]models.DeliveryOrder, error) {
	var deliveries []models.DeliveryOrder
	q := r.db.Where("delivery_date = ?", date)
	if providerID != 0 {
		q = q.Where("provider_id = ?", providerID)
	}
	if err := q.Order("time_slot").Find(&deliveries).Error; err != nil {
		return nil, fmt.Errorf("failed to list deliveries for date: %w", err)
	}
	return deliveries, nil
}

// GetUnsettledDelivered feeds the auto-settle batch. settlement_processed is
// a denormalized filter column; the settlement table's unique index is the
// idempotency source of truth.
func (r *orderRepository) GetUnsettledDelivered(limit int) ([]models.DeliveryOrder, error) {
	var deliveries []models.DeliveryOrder
	err := r.db.Where("status = ? AND settlement_processed = ?", models.DeliveryStatusDelivered, false).
		Order("delivered_at").Limit(limit).Find(&deliveries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list unsettled deliveries: %w", err)
	}
	return deliveries, nil
}

func (r *orderRepository) GetDeliveriesByPartner(partnerID uint, limit, offset int) ([]models.DeliveryOrder, int64, error) {
	var deliveries []models.DeliveryOrder
	var total int64

	q := r.db.Model(&models.DeliveryOrder{}).Where("partner_id = ?", partnerID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count partner deliveries: %w", err)
	}
	if err := q.Order("delivery_date DESC").Limit(limit).Offset(offset).Find(&deliveries).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list partner deliveries: %w", err)
	}
	return deliveries, total, nil
}
