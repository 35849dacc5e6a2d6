package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"matatu_manager/internal/apperr"
	"matatu_manager/internal/models"
	"matatu_manager/internal/store"
)

type VehicleInput struct {
	Registration      *string               `json:"registration"`
	Model             *string               `json:"model"`
	Owner             *string               `json:"owner"`
	Status            *models.VehicleStatus `json:"status"`
	PassengerCapacity *int                  `json:"passenger_capacity"`
	InsuranceExpiry   *models.Date          `json:"insurance_expiry"`
	TLBExpiry         *models.Date          `json:"tlb_expiry"`
	InspectionExpiry  *models.Date          `json:"inspection_expiry"`
	RouteID           *uuid.UUID            `json:"route_id"`
}

// VehicleExpiry lists the documents of one vehicle that lapse soon.
type VehicleExpiry struct {
	VehicleID    uuid.UUID                 `json:"vehicle_id"`
	Registration string                    `json:"registration"`
	Documents    []models.ExpiringDocument `json:"documents"`
}

type VehicleService struct {
	vehicles VehicleRepository
	routes   RouteRepository
	now      func() time.Time
}

func NewVehicleService(vehicles VehicleRepository, routes RouteRepository) *VehicleService {
	return &VehicleService{vehicles: vehicles, routes: routes, now: time.Now}
}

func (s *VehicleService) Create(ctx context.Context, in VehicleInput) (*models.Vehicle, error) {
	if in.Registration == nil || strings.TrimSpace(*in.Registration) == "" {
		return nil, apperr.ValidationError{Field: "registration", Msg: "is required"}
	}
	v := &models.Vehicle{Status: models.VehicleActive}
	if err := s.apply(ctx, v, in); err != nil {
		return nil, err
	}
	if err := s.vehicles.Create(ctx, v); err != nil {
		return nil, duplicate(err, "duplicate_registration", "A vehicle with this registration already exists")
	}
	return v, nil
}

func (s *VehicleService) Get(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	v, err := s.vehicles.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "vehicle")
	}
	return v, nil
}

func (s *VehicleService) List(ctx context.Context, f store.VehicleFilter) ([]models.Vehicle, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.ValidationError{Field: "status", Msg: "unknown vehicle status"}
	}
	out, err := s.vehicles.List(ctx, f)
	return out, internal(err)
}

func (s *VehicleService) Update(ctx context.Context, id uuid.UUID, in VehicleInput) (*models.Vehicle, error) {
	v, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, v, in); err != nil {
		return nil, err
	}
	if err := s.vehicles.Update(ctx, v); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound(err, "vehicle")
		}
		return nil, duplicate(err, "duplicate_registration", "A vehicle with this registration already exists")
	}
	return v, nil
}

// Delete removes the vehicle, or only marks it inactive when trips, deficits
// or summaries still point at it. It reports whether the row was kept.
func (s *VehicleService) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return false, err
	}
	used, err := s.vehicles.HasHistory(ctx, id)
	if err != nil {
		return false, internal(err)
	}
	if used {
		logrus.WithField("vehicle_id", id).Info("DeleteVehicle: history found, marking inactive")
		return true, notFound(s.vehicles.SetStatus(ctx, id, models.VehicleInactive), "vehicle")
	}
	return false, notFound(s.vehicles.Delete(ctx, id), "vehicle")
}

// Expiring lists vehicles with a document lapsing within days (1 to 90).
func (s *VehicleService) Expiring(ctx context.Context, days int) ([]VehicleExpiry, error) {
	if days < 1 || days > 90 {
		return nil, apperr.ValidationError{Field: "days", Msg: "must be between 1 and 90"}
	}
	vehicles, err := s.vehicles.List(ctx, store.VehicleFilter{})
	if err != nil {
		return nil, internal(err)
	}
	today := s.now()
	out := make([]VehicleExpiry, 0)
	for _, v := range vehicles {
		if v.Status == models.VehicleInactive {
			continue
		}
		if docs := v.ExpiringDocuments(today, days); len(docs) > 0 {
			out = append(out, VehicleExpiry{VehicleID: v.ID, Registration: v.Registration, Documents: docs})
		}
	}
	return out, nil
}

// UpcomingRenewals counts documents lapsing within days across the fleet.
func (s *VehicleService) UpcomingRenewals(ctx context.Context, days int) (int, error) {
	expiring, err := s.Expiring(ctx, days)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range expiring {
		n += len(e.Documents)
	}
	return n, nil
}

func (s *VehicleService) apply(ctx context.Context, v *models.Vehicle, in VehicleInput) error {
	if in.Registration != nil {
		reg := strings.ToUpper(strings.TrimSpace(*in.Registration))
		if reg == "" {
			return apperr.ValidationError{Field: "registration", Msg: "must not be empty"}
		}
		v.Registration = reg
	}
	if in.Model != nil {
		v.Model = *in.Model
	}
	if in.Owner != nil {
		v.Owner = *in.Owner
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return apperr.ValidationError{Field: "status", Msg: "must be active, maintenance or inactive"}
		}
		v.Status = *in.Status
	}
	if in.PassengerCapacity != nil {
		if *in.PassengerCapacity < 0 {
			return apperr.ValidationError{Field: "passenger_capacity", Msg: "must not be negative"}
		}
		v.PassengerCapacity = *in.PassengerCapacity
	}
	if in.InsuranceExpiry != nil {
		v.InsuranceExpiry = dateOrNil(*in.InsuranceExpiry)
	}
	if in.TLBExpiry != nil {
		v.TLBExpiry = dateOrNil(*in.TLBExpiry)
	}
	if in.InspectionExpiry != nil {
		v.InspectionExpiry = dateOrNil(*in.InspectionExpiry)
	}
	if in.RouteID != nil {
		if *in.RouteID == uuid.Nil {
			v.RouteID = nil
		} else {
			if _, err := s.routes.GetByID(ctx, *in.RouteID); err != nil {
				return notFound(err, "route")
			}
			id := *in.RouteID
			v.RouteID = &id
		}
	}
	return nil
}

func dateOrNil(d models.Date) *models.Date {
	if d.IsZero() {
		return nil
	}
	return &d
}

// duplicate maps a unique violation onto a 400 of the given kind.
func duplicate(err error, kind, msg string) error {
	if errors.Is(err, store.ErrDuplicate) {
		return apperr.ValidationError{Kind: kind, Msg: msg, Err: err}
	}
	return internal(err)
}
