package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"matatu_manager/internal/models"
)

type RouteStore struct {
	db *gorm.DB
}

type RouteFilter struct {
	Status models.RouteStatus
	Page
}

func (r *RouteStore) Create(ctx context.Context, route *models.Route) error {
	return translate(r.db.WithContext(ctx).Create(route).Error)
}

func (r *RouteStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Route, error) {
	var route models.Route
	err := r.db.WithContext(ctx).
		Preload("Stages", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") }).
		First(&route, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &route, nil
}

func (r *RouteStore) List(ctx context.Context, f RouteFilter) ([]models.Route, error) {
	q := r.db.WithContext(ctx).Model(&models.Route{}).
		Preload("Stages", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") })
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var out []models.Route
	err := f.Page.apply(q).Order("name ASC").Find(&out).Error
	return out, translate(err)
}

// Update writes the route columns. Stages are left alone; see ReplaceStages.
func (r *RouteStore) Update(ctx context.Context, route *models.Route) error {
	res := r.db.WithContext(ctx).Model(route).Select("*").Omit("id", "created_at", "Stages").Updates(route)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RouteStore) SetStatus(ctx context.Context, id uuid.UUID, status models.RouteStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Route{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceStages swaps the whole ordered stage list of a route.
func (r *RouteStore) ReplaceStages(ctx context.Context, routeID uuid.UUID, stages []models.Stage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("route_id = ?", routeID).Delete(&models.Stage{}).Error; err != nil {
			return translate(err)
		}
		if len(stages) == 0 {
			return nil
		}
		for i := range stages {
			stages[i].ID = uuid.Nil
			stages[i].RouteID = routeID
		}
		return translate(tx.Create(&stages).Error)
	})
}

// Delete removes the route and its stages.
func (r *RouteStore) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("route_id = ?", id).Delete(&models.Stage{}).Error; err != nil {
			return translate(err)
		}
		res := tx.Delete(&models.Route{}, "id = ?", id)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *RouteStore) HasTrips(ctx context.Context, id uuid.UUID) (bool, error) {
	return referenced(ctx, r.db, "route_id", id, &models.Trip{})
}

// ActiveVehicleCount counts active vehicles assigned to the route.
func (r *RouteStore) ActiveVehicleCount(ctx context.Context, id uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Vehicle{}).
		Where("route_id = ? AND status = ?", id, models.VehicleActive).
		Count(&n).Error
	return n, translate(err)
}
