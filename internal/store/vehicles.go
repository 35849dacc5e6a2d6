package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"matatu_manager/internal/models"
)

type VehicleStore struct {
	db *gorm.DB
}

type VehicleFilter struct {
	Status  models.VehicleStatus
	RouteID *uuid.UUID
	Page
}

func (r *VehicleStore) Create(ctx context.Context, v *models.Vehicle) error {
	return translate(r.db.WithContext(ctx).Create(v).Error)
}

func (r *VehicleStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	var v models.Vehicle
	if err := r.db.WithContext(ctx).First(&v, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

func (r *VehicleStore) List(ctx context.Context, f VehicleFilter) ([]models.Vehicle, error) {
	q := r.db.WithContext(ctx).Model(&models.Vehicle{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.RouteID != nil {
		q = q.Where("route_id = ?", *f.RouteID)
	}
	var out []models.Vehicle
	err := f.Page.apply(q).Order("registration ASC").Find(&out).Error
	return out, translate(err)
}

func (r *VehicleStore) Update(ctx context.Context, v *models.Vehicle) error {
	res := r.db.WithContext(ctx).Model(v).Select("*").Omit("id", "created_at").Updates(v)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *VehicleStore) SetStatus(ctx context.Context, id uuid.UUID, status models.VehicleStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Vehicle{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *VehicleStore) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Vehicle{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// HasHistory reports whether any trip, deficit or summary references the vehicle.
func (r *VehicleStore) HasHistory(ctx context.Context, id uuid.UUID) (bool, error) {
	return referenced(ctx, r.db, "vehicle_id", id, &models.Trip{}, &models.Deficit{}, &models.DailySummary{})
}

func (r *VehicleStore) Count(ctx context.Context, status models.VehicleStatus) (int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Vehicle{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var n int64
	err := q.Count(&n).Error
	return n, translate(err)
}

// referenced checks each table for a row whose column equals id.
func referenced(ctx context.Context, db *gorm.DB, column string, id uuid.UUID, tables ...interface{}) (bool, error) {
	for _, table := range tables {
		var n int64
		if err := db.WithContext(ctx).Model(table).Where(column+" = ?", id).Limit(1).Count(&n).Error; err != nil {
			return false, translate(err)
		}
		if n > 0 {
			return true, nil
		}
	}
	return false, nil
}
