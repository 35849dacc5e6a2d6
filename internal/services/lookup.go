package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"matatu_manager/internal/deficits"
	"matatu_manager/internal/models"
	"matatu_manager/internal/reports"
	"matatu_manager/internal/store"
)

// entityLookup adapts the repositories to the point lookups reports and the
// deficit ledger need. A missing record is not an error there.
type entityLookup struct {
	vehicles VehicleRepository
	drivers  DriverRepository
	routes   RouteRepository
}

var (
	_ reports.Lookup      = entityLookup{}
	_ deficits.NameLookup = entityLookup{}
)

func (l entityLookup) Driver(ctx context.Context, id uuid.UUID) (*models.Driver, error) {
	d, err := l.drivers.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return d, err
}

func (l entityLookup) Vehicle(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	v, err := l.vehicles.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return v, err
}

func (l entityLookup) Route(ctx context.Context, id uuid.UUID) (*models.Route, error) {
	if l.routes == nil {
		return nil, nil
	}
	r, err := l.routes.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return r, err
}

func (l entityLookup) DriverName(ctx context.Context, id uuid.UUID) (string, error) {
	d, err := l.Driver(ctx, id)
	if err != nil || d == nil {
		return reports.Unknown, err
	}
	return d.Name, nil
}

func (l entityLookup) VehicleRegistration(ctx context.Context, id uuid.UUID) (string, error) {
	v, err := l.Vehicle(ctx, id)
	if err != nil || v == nil {
		return reports.Unknown, err
	}
	return v.Registration, nil
}
