package reports

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"matatu_manager/internal/models"
)

// Unknown stands in for a name whose record no longer exists.
const Unknown = "Unknown"

// Lookup resolves the records a trip points at. A missing record is
// reported as (nil, nil); any error aborts the report.
type Lookup interface {
	Driver(ctx context.Context, id uuid.UUID) (*models.Driver, error)
	Vehicle(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
	Route(ctx context.Context, id uuid.UUID) (*models.Route, error)
}

// EnrichedTrip is a trip with display names and per-trip figures resolved.
type EnrichedTrip struct {
	ID        uuid.UUID  `json:"id"`
	VehicleID uuid.UUID  `json:"vehicle_id"`
	DriverID  uuid.UUID  `json:"driver_id"`
	RouteID   *uuid.UUID `json:"route_id,omitempty"`

	VehicleRegistration string  `json:"vehicle_registration"`
	DriverName          string  `json:"driver_name"`
	RouteName           string  `json:"route_name"`
	Origin              string  `json:"origin,omitempty"`
	Destination         string  `json:"destination,omitempty"`
	RouteFare           float64 `json:"route_fare"`

	Timestamp      time.Time `json:"collection_time"`
	CollectionDate string    `json:"collection_date"`
	CollectionTime string    `json:"collection_time_only"`

	PassengerCount  int     `json:"passenger_count"`
	ExpectedAmount  float64 `json:"expected_amount"`
	CollectedAmount float64 `json:"collected_amount"`
	FuelExpense     float64 `json:"fuel_expense"`
	RepairExpense   float64 `json:"repair_expense"`
	OtherExpense    float64 `json:"other_expense"`
	TotalExpense    float64 `json:"total_expense"`
	NetProfit       float64 `json:"net_profit"`
	Efficiency      float64 `json:"efficiency"`

	Status       models.TripStatus `json:"status"`
	ExpenseNotes string            `json:"expense_notes,omitempty"`
	Notes        string            `json:"notes,omitempty"`
}

type routeInfo struct {
	name, origin, destination string
	fare                      float64
}

// Enricher resolves names for the trips of one request. The memo lives as
// long as the Enricher, so build a new one per request.
type Enricher struct {
	lookup Lookup
	loc    *time.Location

	group singleflight.Group
	mu    sync.RWMutex
	memo  map[string]interface{}
}

func NewEnricher(lookup Lookup, loc *time.Location) *Enricher {
	if loc == nil {
		loc = time.UTC
	}
	return &Enricher{lookup: lookup, loc: loc, memo: make(map[string]interface{})}
}

// Enrich resolves one trip. The driver, vehicle and route lookups run concurrently.
func (e *Enricher) Enrich(ctx context.Context, t *models.Trip) (EnrichedTrip, error) {
	out := EnrichedTrip{
		ID:             t.ID,
		VehicleID:      t.VehicleID,
		DriverID:       t.DriverID,
		RouteID:        t.RouteID,
		RouteName:      Unknown,
		PassengerCount: t.PassengerCount,
		Status:         t.Status,
		ExpenseNotes:   t.ExpenseNotes,
		Notes:          t.Notes,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		name, err := e.driverName(gctx, t.DriverID)
		out.DriverName = name
		return err
	})
	g.Go(func() error {
		reg, err := e.registration(gctx, t.VehicleID)
		out.VehicleRegistration = reg
		return err
	})
	if t.RouteID != nil {
		routeID := *t.RouteID
		g.Go(func() error {
			info, err := e.route(gctx, routeID)
			out.RouteName, out.Origin, out.Destination, out.RouteFare = info.name, info.origin, info.destination, info.fare
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return EnrichedTrip{}, err
	}

	if ts := t.Timestamp(); !ts.IsZero() {
		local := ts.In(e.loc)
		out.Timestamp = local
		out.CollectionDate = local.Format(ISODate)
		out.CollectionTime = local.Format("15:04:05")
	}

	out.ExpectedAmount = amount(t, "expected_amount", t.ExpectedAmount)
	out.CollectedAmount = amount(t, "collected_amount", t.CollectedAmount)
	out.FuelExpense = amount(t, "fuel_expense", t.FuelExpense)
	out.RepairExpense = amount(t, "repair_expense", t.RepairExpense)
	out.OtherExpense = amount(t, "other_expense", t.OtherExpense)
	out.TotalExpense = out.FuelExpense + out.RepairExpense + out.OtherExpense
	out.NetProfit = out.CollectedAmount - out.TotalExpense
	out.Efficiency = ratio(out.CollectedAmount, out.ExpectedAmount) * 100
	return out, nil
}

// EnrichAll resolves trips in order. At most eight trips are in flight at once.
func (e *Enricher) EnrichAll(ctx context.Context, trips []models.Trip) ([]EnrichedTrip, error) {
	out := make([]EnrichedTrip, len(trips))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i := range trips {
		i := i
		g.Go(func() error {
			et, err := e.Enrich(gctx, &trips[i])
			if err != nil {
				return err
			}
			out[i] = et
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func amount(t *models.Trip, field string, a models.Amount) float64 {
	if a.Malformed() {
		logrus.WithFields(logrus.Fields{
			"trip_id": t.ID,
			"field":   field,
			"value":   a.Invalid,
		}).Warn("Enrich: malformed amount read as 0")
		return 0
	}
	return a.Float64
}

func (e *Enricher) driverName(ctx context.Context, id uuid.UUID) (string, error) {
	v, err := e.memoize(ctx, "driver:"+id.String(), func(ctx context.Context) (interface{}, error) {
		d, err := e.lookup.Driver(ctx, id)
		if err != nil || d == nil || d.Name == "" {
			return Unknown, err
		}
		return d.Name, nil
	})
	if err != nil {
		return Unknown, err
	}
	return v.(string), nil
}

func (e *Enricher) registration(ctx context.Context, id uuid.UUID) (string, error) {
	v, err := e.memoize(ctx, "vehicle:"+id.String(), func(ctx context.Context) (interface{}, error) {
		veh, err := e.lookup.Vehicle(ctx, id)
		if err != nil || veh == nil || veh.Registration == "" {
			return Unknown, err
		}
		return veh.Registration, nil
	})
	if err != nil {
		return Unknown, err
	}
	return v.(string), nil
}

func (e *Enricher) route(ctx context.Context, id uuid.UUID) (routeInfo, error) {
	unknown := routeInfo{name: Unknown}
	v, err := e.memoize(ctx, "route:"+id.String(), func(ctx context.Context) (interface{}, error) {
		r, err := e.lookup.Route(ctx, id)
		if err != nil || r == nil {
			return unknown, err
		}
		return routeInfo{name: r.Name, origin: r.Origin, destination: r.Destination, fare: r.FareAmount.Float64}, nil
	})
	if err != nil {
		return unknown, err
	}
	return v.(routeInfo), nil
}

// memoize returns the cached value for key, or runs fetch once no matter
// how many goroutines ask for the same key at the same time.
func (e *Enricher) memoize(ctx context.Context, key string, fetch func(context.Context) (interface{}, error)) (interface{}, error) {
	e.mu.RLock()
	v, ok := e.memo[key]
	e.mu.RUnlock()
	if ok {
		return v, nil
	}

	v, err, _ := e.group.Do(key, func() (interface{}, error) {
		e.mu.RLock()
		v, ok := e.memo[key]
		e.mu.RUnlock()
		if ok {
			return v, nil
		}
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		e.mu.Lock()
		e.memo[key] = v
		e.mu.Unlock()
		return v, nil
	})
	return v, err
}
