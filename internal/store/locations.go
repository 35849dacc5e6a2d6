package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"matatu_manager/internal/models"
)

type LocationStore struct {
	db *gorm.DB
}

func (r *LocationStore) Create(ctx context.Context, l *models.LocationHistory) error {
	return translate(r.db.WithContext(ctx).Create(l).Error)
}

// Latest returns the driver's most recent point.
func (r *LocationStore) Latest(ctx context.Context, driverID uuid.UUID) (*models.LocationHistory, error) {
	var l models.LocationHistory
	err := r.db.WithContext(ctx).
		Where("driver_id = ?", driverID).
		Order("timestamp DESC").
		First(&l).Error
	if err != nil {
		return nil, translate(err)
	}
	return &l, nil
}

// History returns up to limit points for the driver, newest first.
func (r *LocationStore) History(ctx context.Context, driverID uuid.UUID, limit int) ([]models.LocationHistory, error) {
	q := r.db.WithContext(ctx).Where("driver_id = ?", driverID).Order("timestamp DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []models.LocationHistory
	err := q.Find(&out).Error
	return out, translate(err)
}

// LatestForActiveDrivers returns the newest point of every active driver that has one.
func (r *LocationStore) LatestForActiveDrivers(ctx context.Context) ([]models.LocationHistory, error) {
	var out []models.LocationHistory
	err := r.db.WithContext(ctx).Raw(`
		SELECT DISTINCT ON (lh.driver_id) lh.*
		FROM location_histories lh
		JOIN drivers d ON d.id = lh.driver_id
		WHERE d.status = ?
		ORDER BY lh.driver_id, lh.timestamp DESC`, models.DriverActive).
		Scan(&out).Error
	return out, translate(err)
}
