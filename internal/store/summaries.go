package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"matatu_manager/internal/models"
)

type SummaryStore struct {
	db  *gorm.DB
	loc *time.Location
}

// SummaryFilter selects summaries with From <= date <= To.
type SummaryFilter struct {
	From      models.Date
	To        models.Date
	VehicleID *uuid.UUID
	DriverID  *uuid.UUID
}

func (r *SummaryStore) Get(ctx context.Context, vehicleID uuid.UUID, date models.Date) (*models.DailySummary, error) {
	var s models.DailySummary
	err := r.db.WithContext(ctx).
		Where("vehicle_id = ? AND date = ?", vehicleID, date).
		First(&s).Error
	if err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

// List returns matching summaries, latest date first.
func (r *SummaryStore) List(ctx context.Context, f SummaryFilter) ([]models.DailySummary, error) {
	q := r.db.WithContext(ctx).Model(&models.DailySummary{})
	if !f.From.IsZero() {
		q = q.Where("date >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("date <= ?", f.To)
	}
	if f.VehicleID != nil {
		q = q.Where("vehicle_id = ?", *f.VehicleID)
	}
	if f.DriverID != nil {
		q = q.Where("driver_id = ?", *f.DriverID)
	}
	var out []models.DailySummary
	err := q.Order("date DESC").Order("vehicle_id").Find(&out).Error
	return out, translate(err)
}

// Regenerate rebuilds the summary row from the completed trips of that day.
func (r *SummaryStore) Regenerate(ctx context.Context, vehicleID uuid.UUID, date models.Date) (*models.DailySummary, error) {
	if err := r.recompute(r.db.WithContext(ctx), vehicleID, date); err != nil {
		return nil, err
	}
	return r.Get(ctx, vehicleID, date)
}

// increment adds one completed trip to its day's row, creating the row on
// first use. Concurrent completions on the same day serialize on the
// (vehicle_id, date) unique index.
func (r *SummaryStore) increment(tx *gorm.DB, t *models.Trip, day models.Date) error {
	expenses := t.TotalExpense()
	driverID := t.DriverID
	row := models.DailySummary{
		VehicleID:            t.VehicleID,
		DriverID:             &driverID,
		Date:                 day,
		TripCount:            1,
		TotalExpectedAmount:  models.NewAmount(t.ExpectedAmount.Float64),
		TotalCollectedAmount: models.NewAmount(t.CollectedAmount.Float64),
		TotalExpenses:        models.NewAmount(expenses),
		NetProfit:            models.NewAmount(t.CollectedAmount.Float64 - expenses),
	}
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "vehicle_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"trip_count":             gorm.Expr("daily_summaries.trip_count + EXCLUDED.trip_count"),
			"total_expected_amount":  gorm.Expr("daily_summaries.total_expected_amount + EXCLUDED.total_expected_amount"),
			"total_collected_amount": gorm.Expr("daily_summaries.total_collected_amount + EXCLUDED.total_collected_amount"),
			"total_expenses":         gorm.Expr("daily_summaries.total_expenses + EXCLUDED.total_expenses"),
			"net_profit":             gorm.Expr("daily_summaries.net_profit + EXCLUDED.net_profit"),
			"updated_at":             gorm.Expr("EXCLUDED.updated_at"),
		}),
	}).Create(&row).Error
	return translate(err)
}

const recomputeSQL = `
INSERT INTO daily_summaries (id, created_at, updated_at, vehicle_id, driver_id, date,
	trip_count, total_expected_amount, total_collected_amount, total_expenses, net_profit)
SELECT gen_random_uuid(), now(), now(), @vehicle, (array_agg(trips.driver_id ORDER BY ` + tripInstant + `))[1], @date,
	COUNT(trips.id),
	COALESCE(SUM(COALESCE(trips.expected_amount, 0)), 0),
	COALESCE(SUM(COALESCE(trips.collected_amount, 0)), 0),
	COALESCE(SUM(COALESCE(trips.fuel_expense, 0) + COALESCE(trips.repair_expense, 0) + COALESCE(trips.other_expense, 0)), 0),
	COALESCE(SUM(COALESCE(trips.collected_amount, 0) - COALESCE(trips.fuel_expense, 0) - COALESCE(trips.repair_expense, 0) - COALESCE(trips.other_expense, 0)), 0)
FROM trips
WHERE trips.vehicle_id = @vehicle AND trips.status = @status
	AND ` + tripInstant + ` >= @from AND ` + tripInstant + ` < @to
ON CONFLICT (vehicle_id, date) DO UPDATE SET
	driver_id = EXCLUDED.driver_id,
	trip_count = EXCLUDED.trip_count,
	total_expected_amount = EXCLUDED.total_expected_amount,
	total_collected_amount = EXCLUDED.total_collected_amount,
	total_expenses = EXCLUDED.total_expenses,
	net_profit = EXCLUDED.net_profit,
	updated_at = EXCLUDED.updated_at`

// recompute overwrites the row for (vehicle, day) with totals taken straight
// from the trips table in one statement. A day with no completed trips keeps
// a zero row.
func (r *SummaryStore) recompute(tx *gorm.DB, vehicleID uuid.UUID, day models.Date) error {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, r.loc)
	err := tx.Exec(recomputeSQL, map[string]interface{}{
		"vehicle": vehicleID,
		"date":    day,
		"status":  models.TripCompleted,
		"from":    from,
		"to":      from.AddDate(0, 0, 1),
	}).Error
	return translate(err)
}
