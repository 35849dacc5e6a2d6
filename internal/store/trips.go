package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"matatu_manager/internal/models"
)

// tripInstant is the SQL form of models.Trip.Timestamp.
const tripInstant = "COALESCE(NULLIF(trips.collection_time, '0001-01-01 00:00:00+00'), trips.start_time, trips.end_time)"

type TripStore struct {
	db        *gorm.DB
	loc       *time.Location
	summaries *SummaryStore
}

// TripFilter narrows a trip query. From is inclusive and To exclusive; zero
// values leave that side open. Empty id sets do not filter.
type TripFilter struct {
	VehicleIDs    []uuid.UUID
	DriverIDs     []uuid.UUID
	RouteID       *uuid.UUID
	Status        models.TripStatus
	ExcludeStatus models.TripStatus
	From          time.Time
	To            time.Time
	NewestFirst   bool
	Page
}

func (f TripFilter) apply(q *gorm.DB) *gorm.DB {
	if len(f.VehicleIDs) > 0 {
		q = q.Where("trips.vehicle_id IN ?", f.VehicleIDs)
	}
	if len(f.DriverIDs) > 0 {
		q = q.Where("trips.driver_id IN ?", f.DriverIDs)
	}
	if f.RouteID != nil {
		q = q.Where("trips.route_id = ?", *f.RouteID)
	}
	if f.Status != "" {
		q = q.Where("trips.status = ?", f.Status)
	}
	if f.ExcludeStatus != "" {
		q = q.Where("trips.status <> ?", f.ExcludeStatus)
	}
	if !f.From.IsZero() {
		q = q.Where(tripInstant+" >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where(tripInstant+" < ?", f.To)
	}
	if f.NewestFirst {
		return q.Order(tripInstant + " DESC").Order("trips.id")
	}
	return q.Order(tripInstant + " ASC").Order("trips.id")
}

// TripDetail is a trip joined with the names it points at.
type TripDetail struct {
	models.Trip
	VehicleRegistration string        `json:"vehicle_registration"`
	DriverName          string        `json:"driver_name"`
	RouteName           string        `json:"route_name,omitempty"`
	Origin              string        `json:"origin,omitempty"`
	Destination         string        `json:"destination,omitempty"`
	FareAmount          models.Amount `json:"fare_amount"`
}

func (r *TripStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Trip, error) {
	var t models.Trip
	if err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (r *TripStore) GetDetail(ctx context.Context, id uuid.UUID) (*TripDetail, error) {
	var d TripDetail
	res := r.db.WithContext(ctx).Table("trips").
		Select(`trips.*, v.registration AS vehicle_registration, d.name AS driver_name,
			r.name AS route_name, r.origin AS origin, r.destination AS destination, r.fare_amount AS fare_amount`).
		Joins("LEFT JOIN vehicles v ON v.id = trips.vehicle_id").
		Joins("LEFT JOIN drivers d ON d.id = trips.driver_id").
		Joins("LEFT JOIN routes r ON r.id = trips.route_id").
		Where("trips.id = ?", id).
		Limit(1).
		Scan(&d)
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return &d, nil
}

func (r *TripStore) List(ctx context.Context, f TripFilter) ([]models.Trip, error) {
	var out []models.Trip
	q := f.apply(r.db.WithContext(ctx).Model(&models.Trip{}))
	err := f.Page.apply(q).Find(&out).Error
	return out, translate(err)
}

// Each streams matching trips to fn one row at a time. A non-nil error from
// fn stops the scan and is returned as is.
func (r *TripStore) Each(ctx context.Context, f TripFilter, fn func(*models.Trip) error) error {
	q := f.apply(r.db.WithContext(ctx).Model(&models.Trip{}))
	rows, err := f.Page.apply(q).Rows()
	if err != nil {
		return translate(err)
	}
	defer rows.Close()

	for rows.Next() {
		var t models.Trip
		if err := r.db.ScanRows(rows, &t); err != nil {
			return translate(err)
		}
		if err := fn(&t); err != nil {
			return err
		}
	}
	return translate(rows.Err())
}

// Create inserts the trip. A trip created as completed is counted into its
// daily summary in the same transaction.
func (r *TripStore) Create(ctx context.Context, t *models.Trip) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		wanted := t.Status
		if wanted == models.TripCompleted {
			t.Status = models.TripInProgress
		}
		if err := tx.Create(t).Error; err != nil {
			t.Status = wanted
			return translate(err)
		}
		if wanted != models.TripCompleted {
			return nil
		}
		_, err := r.complete(tx, t)
		return err
	})
}

// Update writes the trip's editable columns and keeps its daily summary in
// step. It reports whether this call completed the trip.
func (r *TripStore) Update(ctx context.Context, t *models.Trip) (bool, error) {
	var completedNow bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prev models.Trip
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&prev, "id = ?", t.ID).Error
		if err != nil {
			return translate(err)
		}

		wanted := t.Status
		err = tx.Model(&models.Trip{}).Where("id = ?", t.ID).
			Select("*").Omit("id", "created_at", "expected_amount", "status").
			Updates(t).Error
		if err != nil {
			return translate(err)
		}

		wasCompleted := prev.Status == models.TripCompleted
		switch {
		case wanted == models.TripCompleted && !wasCompleted:
			completedNow, err = r.complete(tx, t)
			return err
		case wanted != models.TripCompleted && wanted != prev.Status:
			if err := tx.Model(&models.Trip{}).Where("id = ?", t.ID).Update("status", wanted).Error; err != nil {
				return translate(err)
			}
		}

		if !wasCompleted {
			return nil
		}
		// The trip was already counted: rebuild the old day, and the new one
		// if the edit moved it.
		oldDay := r.dayOf(&prev)
		if err := r.summaries.recompute(tx, prev.VehicleID, oldDay); err != nil {
			return err
		}
		if wanted != models.TripCompleted {
			return nil
		}
		newDay := r.dayOf(t)
		if newDay == oldDay && t.VehicleID == prev.VehicleID {
			return nil
		}
		return r.summaries.recompute(tx, t.VehicleID, newDay)
	})
	if err == nil {
		if fresh, gerr := r.GetByID(ctx, t.ID); gerr == nil {
			*t = *fresh
		}
	}
	return completedNow, err
}

// Delete removes the trip. A completed trip's daily summary is rebuilt without it.
func (r *TripStore) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prev models.Trip
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&prev, "id = ?", id).Error
		if err != nil {
			return translate(err)
		}
		if err := tx.Delete(&models.Trip{}, "id = ?", id).Error; err != nil {
			return translate(err)
		}
		if prev.Status != models.TripCompleted {
			return nil
		}
		return r.summaries.recompute(tx, prev.VehicleID, r.dayOf(&prev))
	})
}

// complete flips the trip to completed and, only if this statement did the
// flip, adds it to the vehicle's daily summary.
func (r *TripStore) complete(tx *gorm.DB, t *models.Trip) (bool, error) {
	res := tx.Model(&models.Trip{}).
		Where("id = ? AND status <> ?", t.ID, models.TripCompleted).
		Update("status", models.TripCompleted)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	t.Status = models.TripCompleted
	if res.RowsAffected != 1 {
		return false, nil
	}
	if err := r.summaries.increment(tx, t, r.dayOf(t)); err != nil {
		return false, err
	}
	return true, nil
}

func (r *TripStore) dayOf(t *models.Trip) models.Date {
	return models.NewDate(t.Timestamp().In(r.loc))
}
