package reports

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matatu_manager/internal/models"
)

type fakeLookup struct {
	mu       sync.Mutex
	drivers  map[uuid.UUID]*models.Driver
	vehicles map[uuid.UUID]*models.Vehicle
	routes   map[uuid.UUID]*models.Route
	calls    int32
	err      error
}

func newFakeLookup() *fakeLookup {
	return &fakeLookup{
		drivers:  map[uuid.UUID]*models.Driver{},
		vehicles: map[uuid.UUID]*models.Vehicle{},
		routes:   map[uuid.UUID]*models.Route{},
	}
}

func (f *fakeLookup) Driver(_ context.Context, id uuid.UUID) (*models.Driver, error) {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.drivers[id], f.err
}

func (f *fakeLookup) Vehicle(_ context.Context, id uuid.UUID) (*models.Vehicle, error) {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.vehicles[id], f.err
}

func (f *fakeLookup) Route(_ context.Context, id uuid.UUID) (*models.Route, error) {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.routes[id], f.err
}

func TestEnrichResolvesNames(t *testing.T) {
	lookup := newFakeLookup()
	driverID, vehicleID, routeID := uuid.New(), uuid.New(), uuid.New()
	lookup.drivers[driverID] = &models.Driver{Name: "Otieno"}
	lookup.vehicles[vehicleID] = &models.Vehicle{Registration: "KDA 123A"}
	lookup.routes[routeID] = &models.Route{Name: "Route 46", Origin: "CBD", Destination: "Kawangware", FareAmount: models.NewAmount(80)}

	nairobi := time.FixedZone("EAT", 3*3600)
	trip := &models.Trip{
		Base:            models.Base{ID: uuid.New()},
		VehicleID:       vehicleID,
		DriverID:        driverID,
		RouteID:         &routeID,
		CollectionTime:  time.Date(2024, 6, 1, 22, 30, 0, 0, time.UTC),
		ExpectedAmount:  models.NewAmount(1600),
		CollectedAmount: models.NewAmount(1200),
		FuelExpense:     models.NewAmount(300),
		RepairExpense:   models.NewAmount(50),
	}

	et, err := NewEnricher(lookup, nairobi).Enrich(context.Background(), trip)
	require.NoError(t, err)
	assert.Equal(t, "Otieno", et.DriverName)
	assert.Equal(t, "KDA 123A", et.VehicleRegistration)
	assert.Equal(t, "Route 46", et.RouteName)
	assert.Equal(t, 80.0, et.RouteFare)
	assert.Equal(t, "2024-06-02", et.CollectionDate)
	assert.Equal(t, "01:30:00", et.CollectionTime)
	assert.Equal(t, 350.0, et.TotalExpense)
	assert.Equal(t, 850.0, et.NetProfit)
	assert.Equal(t, 75.0, et.Efficiency)
}

func TestEnrichMissingEntitiesAreUnknown(t *testing.T) {
	routeID := uuid.New()
	trip := &models.Trip{VehicleID: uuid.New(), DriverID: uuid.New(), RouteID: &routeID}

	et, err := NewEnricher(newFakeLookup(), nil).Enrich(context.Background(), trip)
	require.NoError(t, err)
	assert.Equal(t, Unknown, et.DriverName)
	assert.Equal(t, Unknown, et.VehicleRegistration)
	assert.Equal(t, Unknown, et.RouteName)
	assert.Empty(t, et.CollectionDate)
}

func TestEnrichLookupErrorIsFatal(t *testing.T) {
	lookup := newFakeLookup()
	lookup.err = errors.New("connection refused")

	_, err := NewEnricher(lookup, nil).Enrich(context.Background(), &models.Trip{})
	assert.EqualError(t, err, "connection refused")
}

func TestEnrichTotalExpense(t *testing.T) {
	var bad models.Amount
	require.NoError(t, bad.Scan("12,50"))
	var null models.Amount
	require.NoError(t, null.Scan(nil))

	tests := []struct {
		name                string
		fuel, repair, other models.Amount
		want                float64
	}{
		{"all present", models.NewAmount(100), models.NewAmount(20), models.NewAmount(5), 125},
		{"all absent", models.Amount{}, models.Amount{}, models.Amount{}, 0},
		{"null repair", models.NewAmount(100), null, models.NewAmount(5), 105},
		{"only other", null, null, models.NewAmount(7.5), 7.5},
		{"malformed fuel", bad, models.NewAmount(20), null, 20},
	}
	e := NewEnricher(newFakeLookup(), nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trip := &models.Trip{FuelExpense: tt.fuel, RepairExpense: tt.repair, OtherExpense: tt.other}
			et, err := e.Enrich(context.Background(), trip)
			require.NoError(t, err)
			assert.Equal(t, tt.want, et.TotalExpense)
			assert.Equal(t, et.FuelExpense+et.RepairExpense+et.OtherExpense, et.TotalExpense)
		})
	}
}

func TestEnrichZeroExpectedEfficiency(t *testing.T) {
	trip := &models.Trip{ExpectedAmount: models.NewAmount(0), CollectedAmount: models.NewAmount(150)}
	et, err := NewEnricher(newFakeLookup(), nil).Enrich(context.Background(), trip)
	require.NoError(t, err)
	assert.Equal(t, 0.0, et.Efficiency)
}

func TestEnrichMalformedAmountLogsWarning(t *testing.T) {
	var buf bytes.Buffer
	orig := logrus.StandardLogger().Out
	logrus.SetOutput(&buf)
	defer logrus.SetOutput(orig)

	var bad models.Amount
	require.NoError(t, bad.Scan([]byte("abc")))
	trip := &models.Trip{Base: models.Base{ID: uuid.New()}, CollectedAmount: bad, FuelExpense: models.NewAmount(10)}

	et, err := NewEnricher(newFakeLookup(), nil).Enrich(context.Background(), trip)
	require.NoError(t, err)
	assert.Equal(t, 0.0, et.CollectedAmount)
	assert.Equal(t, -10.0, et.NetProfit)
	assert.Contains(t, buf.String(), "collected_amount")
	assert.Contains(t, buf.String(), trip.ID.String())
}

func TestEnrichAllMemoizesLookups(t *testing.T) {
	lookup := newFakeLookup()
	driverID, vehicleID := uuid.New(), uuid.New()
	lookup.drivers[driverID] = &models.Driver{Name: "Wanjiru"}
	lookup.vehicles[vehicleID] = &models.Vehicle{Registration: "KBZ 900X"}

	trips := make([]models.Trip, 50)
	for i := range trips {
		trips[i] = models.Trip{
			Base:            models.Base{ID: uuid.New()},
			VehicleID:       vehicleID,
			DriverID:        driverID,
			CollectedAmount: models.NewAmount(float64(i)),
		}
	}

	out, err := NewEnricher(lookup, nil).EnrichAll(context.Background(), trips)
	require.NoError(t, err)
	require.Len(t, out, 50)
	for i, et := range out {
		assert.Equal(t, trips[i].ID, et.ID)
		assert.Equal(t, "Wanjiru", et.DriverName)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&lookup.calls))
}
