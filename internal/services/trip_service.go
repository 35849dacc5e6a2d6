package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"matatu_manager/internal/apperr"
	"matatu_manager/internal/models"
	"matatu_manager/internal/reports"
	"matatu_manager/internal/store"
)

type TripInput struct {
	VehicleID       *uuid.UUID         `json:"vehicle_id"`
	DriverID        *uuid.UUID         `json:"driver_id"`
	RouteID         *uuid.UUID         `json:"route_id"`
	CollectionTime  *string            `json:"collection_time"`
	StartTime       *string            `json:"start_time"`
	EndTime         *string            `json:"end_time"`
	PassengerCount  *int               `json:"passenger_count"`
	CollectedAmount *float64           `json:"collected_amount"`
	FuelExpense     *float64           `json:"fuel_expense"`
	RepairExpense   *float64           `json:"repair_expense"`
	OtherExpense    *float64           `json:"other_expense"`
	ExpenseNotes    *string            `json:"expense_notes"`
	Notes           *string            `json:"notes"`
	Status          *models.TripStatus `json:"status"`
}

type TripQuery struct {
	VehicleID *uuid.UUID
	DriverID  *uuid.UUID
	RouteID   *uuid.UUID
	Status    models.TripStatus
	Date      string // YYYY-MM-DD
	Skip      int
	Limit     int
}

const (
	defaultTripLimit = 100
	maxTripLimit     = 1000
)

type TripService struct {
	trips    TripRepository
	vehicles VehicleRepository
	drivers  DriverRepository
	routes   RouteRepository
	loc      *time.Location
	now      func() time.Time
}

func NewTripService(trips TripRepository, vehicles VehicleRepository, drivers DriverRepository, routes RouteRepository, loc *time.Location) *TripService {
	if loc == nil {
		loc = time.UTC
	}
	return &TripService{trips: trips, vehicles: vehicles, drivers: drivers, routes: routes, loc: loc, now: time.Now}
}

// Create records a trip. The expected amount is the route fare times the
// passenger count and is never recalculated afterwards.
func (s *TripService) Create(ctx context.Context, in TripInput) (*store.TripDetail, error) {
	if in.VehicleID == nil {
		return nil, apperr.ValidationError{Field: "vehicle_id", Msg: "is required"}
	}
	if in.DriverID == nil {
		return nil, apperr.ValidationError{Field: "driver_id", Msg: "is required"}
	}
	vehicle, err := s.vehicles.GetByID(ctx, *in.VehicleID)
	if err != nil {
		return nil, notFound(err, "vehicle")
	}
	if in.RouteID == nil && vehicle.RouteID != nil {
		in.RouteID = vehicle.RouteID
	}

	t := &models.Trip{Status: models.TripInProgress, CollectionTime: s.now()}
	if err := s.apply(ctx, t, in); err != nil {
		return nil, err
	}

	fare := 0.0
	if t.RouteID != nil {
		route, err := s.routes.GetByID(ctx, *t.RouteID)
		if err != nil {
			return nil, notFound(err, "route")
		}
		fare = route.FareAmount.Float64
	}
	t.ExpectedAmount = models.NewAmount(fare * float64(t.PassengerCount))

	if err := s.trips.Create(ctx, t); err != nil {
		return nil, internal(err)
	}
	logrus.WithFields(logrus.Fields{"trip_id": t.ID, "status": t.Status}).Debug("CreateTrip: recorded")
	return s.Get(ctx, t.ID)
}

func (s *TripService) Get(ctx context.Context, id uuid.UUID) (*store.TripDetail, error) {
	d, err := s.trips.GetDetail(ctx, id)
	if err != nil {
		return nil, notFound(err, "trip")
	}
	return d, nil
}

func (s *TripService) List(ctx context.Context, q TripQuery) ([]models.Trip, error) {
	f := store.TripFilter{RouteID: q.RouteID, NewestFirst: true}
	if q.VehicleID != nil {
		f.VehicleIDs = []uuid.UUID{*q.VehicleID}
	}
	if q.DriverID != nil {
		f.DriverIDs = []uuid.UUID{*q.DriverID}
	}
	if q.Status != "" {
		if !q.Status.Valid() {
			return nil, apperr.ValidationError{Field: "status", Msg: "must be in_progress, completed or cancelled"}
		}
		f.Status = q.Status
	}
	if q.Date != "" {
		day, err := models.ParseDate(q.Date)
		if err != nil {
			return nil, apperr.ValidationError{Kind: "invalid_date_format", Field: "date", Msg: "must use the YYYY-MM-DD format", Err: err}
		}
		f.From, f.To = reports.DateRange{Start: day, End: day}.Bounds(s.loc)
	}
	if q.Skip < 0 {
		q.Skip = 0
	}
	switch {
	case q.Limit <= 0:
		q.Limit = defaultTripLimit
	case q.Limit > maxTripLimit:
		q.Limit = maxTripLimit
	}
	f.Page = store.Page{Offset: q.Skip, Limit: q.Limit}

	out, err := s.trips.List(ctx, f)
	return out, internal(err)
}

// Update edits a trip. Moving it to completed folds it into the daily
// summary exactly once; edits to a completed trip rebuild that summary.
func (s *TripService) Update(ctx context.Context, id uuid.UUID, in TripInput) (*store.TripDetail, error) {
	t, err := s.trips.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "trip")
	}
	if in.VehicleID != nil {
		if _, err := s.vehicles.GetByID(ctx, *in.VehicleID); err != nil {
			return nil, notFound(err, "vehicle")
		}
	}
	if in.RouteID != nil && *in.RouteID != uuid.Nil {
		if _, err := s.routes.GetByID(ctx, *in.RouteID); err != nil {
			return nil, notFound(err, "route")
		}
	}
	if err := s.apply(ctx, t, in); err != nil {
		return nil, err
	}

	completed, err := s.trips.Update(ctx, t)
	if err != nil {
		return nil, notFound(err, "trip")
	}
	if completed {
		logrus.WithField("trip_id", id).Info("UpdateTrip: trip completed, daily summary incremented")
	}
	return s.Get(ctx, id)
}

func (s *TripService) Delete(ctx context.Context, id uuid.UUID) error {
	return notFound(s.trips.Delete(ctx, id), "trip")
}

func (s *TripService) apply(ctx context.Context, t *models.Trip, in TripInput) error {
	if in.VehicleID != nil {
		t.VehicleID = *in.VehicleID
	}
	if in.DriverID != nil {
		if _, err := s.drivers.GetByID(ctx, *in.DriverID); err != nil {
			return notFound(err, "driver")
		}
		t.DriverID = *in.DriverID
	}
	if in.RouteID != nil {
		if *in.RouteID == uuid.Nil {
			t.RouteID = nil
		} else {
			id := *in.RouteID
			t.RouteID = &id
		}
	}

	var err error
	if in.CollectionTime != nil {
		if t.CollectionTime, err = s.parseTime("collection_time", *in.CollectionTime); err != nil {
			return err
		}
	}
	if in.StartTime != nil {
		if t.StartTime, err = s.parseOptionalTime("start_time", *in.StartTime); err != nil {
			return err
		}
	}
	if in.EndTime != nil {
		if t.EndTime, err = s.parseOptionalTime("end_time", *in.EndTime); err != nil {
			return err
		}
	}

	if in.PassengerCount != nil {
		if *in.PassengerCount < 0 {
			return apperr.ValidationError{Field: "passenger_count", Msg: "must not be negative"}
		}
		t.PassengerCount = *in.PassengerCount
	}
	amounts := []struct {
		field string
		in    *float64
		out   *models.Amount
	}{
		{"collected_amount", in.CollectedAmount, &t.CollectedAmount},
		{"fuel_expense", in.FuelExpense, &t.FuelExpense},
		{"repair_expense", in.RepairExpense, &t.RepairExpense},
		{"other_expense", in.OtherExpense, &t.OtherExpense},
	}
	for _, a := range amounts {
		if a.in == nil {
			continue
		}
		if *a.in < 0 {
			return apperr.ValidationError{Field: a.field, Msg: "must not be negative"}
		}
		*a.out = models.NewAmount(*a.in)
	}

	if in.ExpenseNotes != nil {
		t.ExpenseNotes = *in.ExpenseNotes
	}
	if in.Notes != nil {
		t.Notes = *in.Notes
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return apperr.ValidationError{Field: "status", Msg: "must be in_progress, completed or cancelled"}
		}
		t.Status = *in.Status
	}
	return nil
}

func (s *TripService) parseTime(field, raw string) (time.Time, error) {
	ts, err := reports.ParseTimestamp(raw, s.loc)
	if err != nil {
		return time.Time{}, apperr.ValidationError{Kind: "invalid_date_format", Field: field, Msg: "is not a recognised timestamp", Err: err}
	}
	return ts, nil
}

func (s *TripService) parseOptionalTime(field, raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	ts, err := s.parseTime(field, raw)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}
