package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"matatu_manager/internal/models"
)

type DriverStore struct {
	db *gorm.DB
}

type DriverFilter struct {
	Status models.DriverStatus
	Page
}

func (r *DriverStore) Create(ctx context.Context, d *models.Driver) error {
	return translate(r.db.WithContext(ctx).Create(d).Error)
}

func (r *DriverStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Driver, error) {
	var d models.Driver
	if err := r.db.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

// GetByUserID finds the driver linked to a user account.
func (r *DriverStore) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Driver, error) {
	var d models.Driver
	if err := r.db.WithContext(ctx).First(&d, "user_id = ?", userID).Error; err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

func (r *DriverStore) List(ctx context.Context, f DriverFilter) ([]models.Driver, error) {
	q := r.db.WithContext(ctx).Model(&models.Driver{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var out []models.Driver
	err := f.Page.apply(q).Order("name ASC").Find(&out).Error
	return out, translate(err)
}

func (r *DriverStore) Update(ctx context.Context, d *models.Driver) error {
	res := r.db.WithContext(ctx).Model(d).Select("*").Omit("id", "created_at").Updates(d)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *DriverStore) SetStatus(ctx context.Context, id uuid.UUID, status models.DriverStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Driver{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *DriverStore) SetRating(ctx context.Context, id uuid.UUID, rating float64) error {
	res := r.db.WithContext(ctx).Model(&models.Driver{}).Where("id = ?", id).Update("rating", rating)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *DriverStore) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Driver{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// HasHistory reports whether any trip, deficit or summary references the driver.
func (r *DriverStore) HasHistory(ctx context.Context, id uuid.UUID) (bool, error) {
	return referenced(ctx, r.db, "driver_id", id, &models.Trip{}, &models.Deficit{}, &models.DailySummary{})
}
