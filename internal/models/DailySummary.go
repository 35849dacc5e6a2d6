package models

import "github.com/google/uuid"

// DailySummary is the per-vehicle-per-date running total of completed trips.
// It is derived data and can always be rebuilt from the trips table.
type DailySummary struct {
	Base
	VehicleID uuid.UUID  `json:"vehicle_id" gorm:"type:uuid;not null;uniqueIndex:idx_summary_vehicle_date,priority:1"`
	DriverID  *uuid.UUID `json:"driver_id,omitempty" gorm:"type:uuid"`
	Date      Date       `json:"date" gorm:"not null;uniqueIndex:idx_summary_vehicle_date,priority:2"`

	TripCount            int    `json:"trip_count"`
	TotalExpectedAmount  Amount `json:"total_expected_amount"`
	TotalCollectedAmount Amount `json:"total_collected_amount"`
	TotalExpenses        Amount `json:"total_expenses"`
	NetProfit            Amount `json:"net_profit"`
}
