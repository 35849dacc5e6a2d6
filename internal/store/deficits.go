package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"matatu_manager/internal/models"
)

type DeficitStore struct {
	db *gorm.DB
}

type DeficitFilter struct {
	DriverID  *uuid.UUID
	VehicleID *uuid.UUID
}

func (r *DeficitStore) Create(ctx context.Context, d *models.Deficit) error {
	return translate(r.db.WithContext(ctx).Create(d).Error)
}

func (r *DeficitStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Deficit, error) {
	var d models.Deficit
	if err := r.db.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

// List returns matching entries, newest first.
func (r *DeficitStore) List(ctx context.Context, f DeficitFilter) ([]models.Deficit, error) {
	q := r.db.WithContext(ctx).Model(&models.Deficit{})
	if f.DriverID != nil {
		q = q.Where("driver_id = ?", *f.DriverID)
	}
	if f.VehicleID != nil {
		q = q.Where("vehicle_id = ?", *f.VehicleID)
	}
	var out []models.Deficit
	err := q.Order("created_at DESC").Find(&out).Error
	return out, translate(err)
}

func (r *DeficitStore) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Deficit{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
