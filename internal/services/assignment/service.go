package assignment

import (
	"context"
	"errors"
	"math"
	"sort"

	"tiffin/internal/models"
	"tiffin/internal/repositories"
)

var (
	ErrNoPartnerAvailable = errors.New("no delivery partner available")
	ErrNotAssignable      = errors.New("delivery is not ready for assignment")
	ErrWrongProvider      = errors.New("delivery belongs to another provider")
)

// Scoring weights. Rating dominates, remaining capacity breaks ties between
// similarly rated partners, and distance penalizes far-away riders.
const (
	ratingWeight   = 10.0
	capacityWeight = 2.0
	distanceWeight = 1.5
)

// Service picks a rider for a ready delivery. Selection is a weighted sum
// over the available pool, so a slightly lower-rated partner standing next
// to the kitchen can beat a top-rated one across town.
type Service interface {
	AssignBest(ctx context.Context, deliveryID, requesterID uint, role string, pickupLat, pickupLng float64) (*models.DeliveryPartner, error)
	Score(partner *models.DeliveryPartner, pickupLat, pickupLng float64) float64
}

type service struct {
	orders   repositories.OrderRepository
	partners repositories.PartnerRepository
}

func NewService(orders repositories.OrderRepository, partners repositories.PartnerRepository) Service {
	if orders == nil || partners == nil {
		panic("assignment service requires order and partner repositories")
	}
	return &service{orders: orders, partners: partners}
}

func (s *service) AssignBest(ctx context.Context, deliveryID, requesterID uint, role string, pickupLat, pickupLng float64) (*models.DeliveryPartner, error) {
	delivery, err := s.orders.GetDeliveryOrder(deliveryID)
	if err != nil {
		return nil, err
	}
	if role != models.RoleAdmin && delivery.ProviderID != requesterID {
		return nil, ErrWrongProvider
	}
	if delivery.Status != models.DeliveryStatusReady {
		return nil, ErrNotAssignable
	}

	pool, err := s.partners.GetAvailable()
	if err != nil {
		return nil, err
	}

	candidates := pool[:0]
	for _, p := range pool {
		if p.RemainingCapacity() > 0 {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return nil, ErrNoPartnerAvailable
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return s.Score(&candidates[i], pickupLat, pickupLng) > s.Score(&candidates[j], pickupLat, pickupLng)
	})
	best := candidates[0]

	delivery.PartnerID = &best.ID
	delivery.Status = models.DeliveryStatusAssigned
	if err := s.orders.UpdateDeliveryOrder(delivery); err != nil {
		return nil, err
	}
	if err := s.partners.AdjustLoad(best.ID, 1); err != nil {
		return nil, err
	}
	return &best, nil
}

func (s *service) Score(partner *models.DeliveryPartner, pickupLat, pickupLng float64) float64 {
	distance := haversineKm(partner.Latitude, partner.Longitude, pickupLat, pickupLng)
	return ratingWeight*partner.Rating +
		capacityWeight*float64(partner.RemainingCapacity()) -
		distanceWeight*distance
}

const earthRadiusKm = 6371.0

func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
