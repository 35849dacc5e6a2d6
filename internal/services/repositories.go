// Package services holds the business rules behind every endpoint.
package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"matatu_manager/internal/apperr"
	"matatu_manager/internal/models"
	"matatu_manager/internal/store"
)

type VehicleRepository interface {
	Create(ctx context.Context, v *models.Vehicle) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
	List(ctx context.Context, f store.VehicleFilter) ([]models.Vehicle, error)
	Update(ctx context.Context, v *models.Vehicle) error
	SetStatus(ctx context.Context, id uuid.UUID, status models.VehicleStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
	HasHistory(ctx context.Context, id uuid.UUID) (bool, error)
	Count(ctx context.Context, status models.VehicleStatus) (int64, error)
}

type DriverRepository interface {
	Create(ctx context.Context, d *models.Driver) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Driver, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Driver, error)
	List(ctx context.Context, f store.DriverFilter) ([]models.Driver, error)
	Update(ctx context.Context, d *models.Driver) error
	SetStatus(ctx context.Context, id uuid.UUID, status models.DriverStatus) error
	SetRating(ctx context.Context, id uuid.UUID, rating float64) error
	Delete(ctx context.Context, id uuid.UUID) error
	HasHistory(ctx context.Context, id uuid.UUID) (bool, error)
}

type RouteRepository interface {
	Create(ctx context.Context, r *models.Route) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Route, error)
	List(ctx context.Context, f store.RouteFilter) ([]models.Route, error)
	Update(ctx context.Context, r *models.Route) error
	SetStatus(ctx context.Context, id uuid.UUID, status models.RouteStatus) error
	ReplaceStages(ctx context.Context, routeID uuid.UUID, stages []models.Stage) error
	Delete(ctx context.Context, id uuid.UUID) error
	HasTrips(ctx context.Context, id uuid.UUID) (bool, error)
	ActiveVehicleCount(ctx context.Context, id uuid.UUID) (int64, error)
}

type TripRepository interface {
	Create(ctx context.Context, t *models.Trip) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Trip, error)
	GetDetail(ctx context.Context, id uuid.UUID) (*store.TripDetail, error)
	List(ctx context.Context, f store.TripFilter) ([]models.Trip, error)
	Each(ctx context.Context, f store.TripFilter, fn func(*models.Trip) error) error
	Update(ctx context.Context, t *models.Trip) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type SummaryRepository interface {
	Get(ctx context.Context, vehicleID uuid.UUID, date models.Date) (*models.DailySummary, error)
	List(ctx context.Context, f store.SummaryFilter) ([]models.DailySummary, error)
	Regenerate(ctx context.Context, vehicleID uuid.UUID, date models.Date) (*models.DailySummary, error)
}

type DeficitRepository interface {
	Create(ctx context.Context, d *models.Deficit) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Deficit, error)
	List(ctx context.Context, f store.DeficitFilter) ([]models.Deficit, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, p store.Page) ([]models.User, error)
	Update(ctx context.Context, u *models.User) error
}

type LocationRepository interface {
	Create(ctx context.Context, l *models.LocationHistory) error
	Latest(ctx context.Context, driverID uuid.UUID) (*models.LocationHistory, error)
	History(ctx context.Context, driverID uuid.UUID, limit int) ([]models.LocationHistory, error)
	LatestForActiveDrivers(ctx context.Context) ([]models.LocationHistory, error)
}

var (
	_ VehicleRepository  = (*store.VehicleStore)(nil)
	_ DriverRepository   = (*store.DriverStore)(nil)
	_ RouteRepository    = (*store.RouteStore)(nil)
	_ TripRepository     = (*store.TripStore)(nil)
	_ SummaryRepository  = (*store.SummaryStore)(nil)
	_ DeficitRepository  = (*store.DeficitStore)(nil)
	_ UserRepository     = (*store.UserStore)(nil)
	_ LocationRepository = (*store.LocationStore)(nil)
)

// notFound turns store.ErrNotFound into a typed 404 for resource and wraps
// anything else as an internal error.
func notFound(err error, resource string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFoundError{Resource: resource, Err: err}
	}
	return internal(err)
}

// internal wraps store failures, leaving already typed errors alone.
func internal(err error) error {
	if err == nil {
		return nil
	}
	var typed interface{ Type() string }
	if errors.As(err, &typed) {
		return err
	}
	return apperr.Internal("database error", err)
}
