package assignment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tiffin/internal/models"
	"tiffin/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrderRepo struct {
	deliveries map[uint]*models.DeliveryOrder
}

func (f *fakeOrderRepo) CreateWithDeliveries(order *models.Order, deliveries []models.DeliveryOrder) error {
	return nil
}
func (f *fakeOrderRepo) GetByID(id uint) (*models.Order, error) { return nil, repositories.ErrOrderNotFound }
func (f *fakeOrderRepo) Update(order *models.Order) error       { return nil }

func (f *fakeOrderRepo) GetOrdersByConsumer(consumerID uint, limit, offset int) ([]models.Order, int64, error) {
	return nil, 0, nil
}

func (f *fakeOrderRepo) GetOrdersByProvider(providerID uint, limit, offset int) ([]models.Order, int64, error) {
	return nil, 0, nil
}

func (f *fakeOrderRepo) GetDeliveryOrder(id uint) (*models.DeliveryOrder, error) {
	d, ok := f.deliveries[id]
	if !ok {
		return nil, repositories.ErrDeliveryOrderNotFound
	}
	cp := *d
	return &cp, nil
}

func (f *fakeOrderRepo) UpdateDeliveryOrder(delivery *models.DeliveryOrder) error {
	cp := *delivery
	f.deliveries[delivery.ID] = &cp
	return nil
}

func (f *fakeOrderRepo) CountDeliveriesForOrder(orderID uint) (int64, error) { return 0, nil }

func (f *fakeOrderRepo) GetDeliveriesForOrder(orderID uint) ([]models.DeliveryOrder, error) {
	return nil, nil
}

func (f *fakeOrderRepo) GetDeliveriesForDate(date time.Time, providerID uint) ([]models.DeliveryOrder, error) {
	return nil, nil
}

func (f *fakeOrderRepo) GetUnsettledDelivered(limit int) ([]models.DeliveryOrder, error) {
	return nil, nil
}

func (f *fakeOrderRepo) GetDeliveriesByPartner(partnerID uint, limit, offset int) ([]models.DeliveryOrder, int64, error) {
	return nil, 0, nil
}

type fakePartnerRepo struct {
	available []models.DeliveryPartner
	loads     map[uint]int
}

func (f *fakePartnerRepo) Create(p *models.DeliveryPartner) error { return nil }

func (f *fakePartnerRepo) GetByID(id uint) (*models.DeliveryPartner, error) {
	return nil, repositories.ErrPartnerNotFound
}

func (f *fakePartnerRepo) GetByUserID(userID uint) (*models.DeliveryPartner, error) {
	return nil, repositories.ErrPartnerNotFound
}

func (f *fakePartnerRepo) Update(p *models.DeliveryPartner) error { return nil }

func (f *fakePartnerRepo) GetAvailable() ([]models.DeliveryPartner, error) {
	out := make([]models.DeliveryPartner, len(f.available))
	copy(out, f.available)
	return out, nil
}

func (f *fakePartnerRepo) AdjustLoad(partnerID uint, delta int) error {
	if f.loads == nil {
		f.loads = make(map[uint]int)
	}
	f.loads[partnerID] += delta
	return nil
}

// Pune kitchen used as the pickup point in the tests below.
const (
	kitchenLat = 18.52
	kitchenLng = 73.85
)

func readyDelivery(id uint) *models.DeliveryOrder {
	return &models.DeliveryOrder{ID: id, OrderID: 1, ConsumerID: 5, ProviderID: 7, Status: models.DeliveryStatusReady}
}

func TestAssignBest_PrefersNearbyPartner(t *testing.T) {
	orders := &fakeOrderRepo{deliveries: map[uint]*models.DeliveryOrder{1: readyDelivery(1)}}
	partners := &fakePartnerRepo{available: []models.DeliveryPartner{
		// Top rated but roughly 20km out
		{ID: 1, Rating: 4.9, MaxCapacity: 5, CurrentLoad: 0, Latitude: kitchenLat + 0.18, Longitude: kitchenLng, Available: true},
		// Lower rated, standing at the kitchen
		{ID: 2, Rating: 4.0, MaxCapacity: 5, CurrentLoad: 0, Latitude: kitchenLat, Longitude: kitchenLng, Available: true},
	}}
	svc := NewService(orders, partners)

	best, err := svc.AssignBest(context.Background(), 1, 7, models.RoleProvider, kitchenLat, kitchenLng)
	require.NoError(t, err)
	assert.Equal(t, uint(2), best.ID)

	delivery, _ := orders.GetDeliveryOrder(1)
	assert.Equal(t, models.DeliveryStatusAssigned, delivery.Status)
	require.NotNil(t, delivery.PartnerID)
	assert.Equal(t, uint(2), *delivery.PartnerID)
	assert.Equal(t, 1, partners.loads[2])
}

func TestAssignBest_RatingWinsAtEqualDistance(t *testing.T) {
	orders := &fakeOrderRepo{deliveries: map[uint]*models.DeliveryOrder{1: readyDelivery(1)}}
	partners := &fakePartnerRepo{available: []models.DeliveryPartner{
		{ID: 1, Rating: 3.5, MaxCapacity: 5, Latitude: kitchenLat, Longitude: kitchenLng, Available: true},
		{ID: 2, Rating: 4.8, MaxCapacity: 5, Latitude: kitchenLat, Longitude: kitchenLng, Available: true},
	}}
	svc := NewService(orders, partners)

	best, err := svc.AssignBest(context.Background(), 1, 7, models.RoleProvider, kitchenLat, kitchenLng)
	require.NoError(t, err)
	assert.Equal(t, uint(2), best.ID)
}

func TestAssignBest_SkipsFullPartners(t *testing.T) {
	orders := &fakeOrderRepo{deliveries: map[uint]*models.DeliveryOrder{1: readyDelivery(1)}}
	partners := &fakePartnerRepo{available: []models.DeliveryPartner{
		{ID: 1, Rating: 5.0, MaxCapacity: 3, CurrentLoad: 3, Latitude: kitchenLat, Longitude: kitchenLng, Available: true},
		{ID: 2, Rating: 3.0, MaxCapacity: 3, CurrentLoad: 1, Latitude: kitchenLat, Longitude: kitchenLng, Available: true},
	}}
	svc := NewService(orders, partners)

	best, err := svc.AssignBest(context.Background(), 1, 7, models.RoleProvider, kitchenLat, kitchenLng)
	require.NoError(t, err)
	assert.Equal(t, uint(2), best.ID)
}

func TestAssignBest_NoPool(t *testing.T) {
	orders := &fakeOrderRepo{deliveries: map[uint]*models.DeliveryOrder{1: readyDelivery(1)}}
	partners := &fakePartnerRepo{available: []models.DeliveryPartner{
		{ID: 1, Rating: 5.0, MaxCapacity: 2, CurrentLoad: 2, Available: true},
	}}
	svc := NewService(orders, partners)

	_, err := svc.AssignBest(context.Background(), 1, 7, models.RoleProvider, kitchenLat, kitchenLng)
	assert.ErrorIs(t, err, ErrNoPartnerAvailable)
}

func TestAssignBest_RejectsForeignProvider(t *testing.T) {
	orders := &fakeOrderRepo{deliveries: map[uint]*models.DeliveryOrder{1: readyDelivery(1)}}
	partners := &fakePartnerRepo{available: []models.DeliveryPartner{
		{ID: 1, Rating: 4.5, MaxCapacity: 5, Latitude: kitchenLat, Longitude: kitchenLng, Available: true},
	}}
	svc := NewService(orders, partners)

	_, err := svc.AssignBest(context.Background(), 1, 99, models.RoleProvider, kitchenLat, kitchenLng)
	assert.ErrorIs(t, err, ErrWrongProvider)

	delivery, _ := orders.GetDeliveryOrder(1)
	assert.Equal(t, models.DeliveryStatusReady, delivery.Status, "foreign provider must not move the delivery")
	assert.Nil(t, delivery.PartnerID)
	assert.Zero(t, partners.loads[1])
}

func TestAssignBest_AdminMayAssignAnyDelivery(t *testing.T) {
	orders := &fakeOrderRepo{deliveries: map[uint]*models.DeliveryOrder{1: readyDelivery(1)}}
	partners := &fakePartnerRepo{available: []models.DeliveryPartner{
		{ID: 1, Rating: 4.5, MaxCapacity: 5, Latitude: kitchenLat, Longitude: kitchenLng, Available: true},
	}}
	svc := NewService(orders, partners)

	best, err := svc.AssignBest(context.Background(), 1, 99, models.RoleAdmin, kitchenLat, kitchenLng)
	require.NoError(t, err)
	assert.Equal(t, uint(1), best.ID)
}

func TestAssignBest_RequiresReadyStatus(t *testing.T) {
	d := readyDelivery(1)
	d.Status = models.DeliveryStatusPending
	orders := &fakeOrderRepo{deliveries: map[uint]*models.DeliveryOrder{1: d}}
	svc := NewService(orders, &fakePartnerRepo{})

	_, err := svc.AssignBest(context.Background(), 1, 7, models.RoleProvider, kitchenLat, kitchenLng)
	assert.ErrorIs(t, err, ErrNotAssignable)
}

func waypoints() []Waypoint {
	return []Waypoint{
		{DeliveryID: 1, Latitude: 18.52, Longitude: 73.85},
		{DeliveryID: 2, Latitude: 18.53, Longitude: 73.86},
		{DeliveryID: 3, Latitude: 18.54, Longitude: 73.87},
	}
}

func TestOptimize_ReordersFromTripResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Visit order: input[0] first, input[2] second, input[1] last
		w.Write([]byte(`{"code":"Ok","waypoints":[{"waypoint_index":0},{"waypoint_index":2},{"waypoint_index":1}]}`))
	}))
	defer server.Close()

	planner := &RoutePlanner{baseURL: server.URL, client: server.Client()}
	ordered := planner.Optimize(context.Background(), waypoints())

	require.Len(t, ordered, 3)
	assert.Equal(t, uint(1), ordered[0].DeliveryID)
	assert.Equal(t, uint(3), ordered[1].DeliveryID)
	assert.Equal(t, uint(2), ordered[2].DeliveryID)
}

func TestOptimize_FallsBackOnFailure(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"garbage body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}},
		{"rejected trip", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"code":"NoTrips","waypoints":[]}`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			planner := &RoutePlanner{baseURL: server.URL, client: server.Client()}
			ordered := planner.Optimize(context.Background(), waypoints())
			assert.Equal(t, waypoints(), ordered, "failures keep the input order")
		})
	}
}

func TestOptimize_ShortRoutesUntouched(t *testing.T) {
	planner := NewRoutePlanner()
	two := waypoints()[:2]
	assert.Equal(t, two, planner.Optimize(context.Background(), two))
}
