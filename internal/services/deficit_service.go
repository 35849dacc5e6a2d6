package services

import (
	"context"

	"github.com/google/uuid"

	"matatu_manager/internal/apperr"
	"matatu_manager/internal/deficits"
	"matatu_manager/internal/models"
	"matatu_manager/internal/store"
)

type DeficitInput struct {
	DriverID    uuid.UUID          `json:"driver_id" binding:"required"`
	VehicleID   uuid.UUID          `json:"vehicle_id" binding:"required"`
	Amount      float64            `json:"amount"`
	DeficitType models.DeficitType `json:"deficit_type" binding:"required"`
	Notes       string             `json:"notes"`
}

type DeficitService struct {
	deficits DeficitRepository
	lookup   entityLookup
}

func NewDeficitService(deficitRepo DeficitRepository, vehicles VehicleRepository, drivers DriverRepository) *DeficitService {
	return &DeficitService{
		deficits: deficitRepo,
		lookup:   entityLookup{vehicles: vehicles, drivers: drivers},
	}
}

func (s *DeficitService) Create(ctx context.Context, in DeficitInput) (*models.Deficit, error) {
	if !in.DeficitType.Valid() {
		return nil, apperr.ValidationError{Field: "deficit_type", Msg: "must be deficit or repayment"}
	}
	if in.Amount <= 0 {
		return nil, apperr.ValidationError{Field: "amount", Msg: "must be greater than zero"}
	}
	if _, err := s.lookup.drivers.GetByID(ctx, in.DriverID); err != nil {
		return nil, notFound(err, "driver")
	}
	if _, err := s.lookup.vehicles.GetByID(ctx, in.VehicleID); err != nil {
		return nil, notFound(err, "vehicle")
	}

	d := &models.Deficit{
		DriverID:    in.DriverID,
		VehicleID:   in.VehicleID,
		Amount:      models.NewAmount(in.Amount),
		DeficitType: in.DeficitType,
		Notes:       in.Notes,
	}
	if err := s.deficits.Create(ctx, d); err != nil {
		return nil, internal(err)
	}
	return d, nil
}

func (s *DeficitService) Get(ctx context.Context, id uuid.UUID) (*models.Deficit, error) {
	d, err := s.deficits.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "deficit")
	}
	return d, nil
}

// Summary lists the matching entries together with their balances overall,
// per driver and per vehicle.
func (s *DeficitService) Summary(ctx context.Context, f store.DeficitFilter) (*deficits.DetailedSummary, error) {
	entries, err := s.deficits.List(ctx, f)
	if err != nil {
		return nil, internal(err)
	}
	out, err := deficits.Summarize(ctx, entries, s.lookup)
	if err != nil {
		return nil, internal(err)
	}
	return &out, nil
}

func (s *DeficitService) Delete(ctx context.Context, id uuid.UUID) error {
	return notFound(s.deficits.Delete(ctx, id), "deficit")
}
