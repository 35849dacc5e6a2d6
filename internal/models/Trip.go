package models

import (
	"time"

	"github.com/google/uuid"
)

type TripStatus string

const (
	TripInProgress TripStatus = "in_progress"
	TripCompleted  TripStatus = "completed"
	TripCancelled  TripStatus = "cancelled"
)

func (s TripStatus) Valid() bool {
	switch s {
	case TripInProgress, TripCompleted, TripCancelled:
		return true
	}
	return false
}

// Trip is one journey and the cash collected on it.
// CollectionTime is the canonical instant for every date filter; StartTime and
// EndTime are only kept for older records that never had it.
type Trip struct {
	Base
	VehicleID uuid.UUID  `json:"vehicle_id" gorm:"type:uuid;not null;index"`
	DriverID  uuid.UUID  `json:"driver_id" gorm:"type:uuid;not null;index"`
	RouteID   *uuid.UUID `json:"route_id,omitempty" gorm:"type:uuid;index"`

	CollectionTime time.Time  `json:"collection_time" gorm:"index"`
	StartTime      *time.Time `json:"start_time,omitempty"`
	EndTime        *time.Time `json:"end_time,omitempty"`

	PassengerCount  int    `json:"passenger_count"`
	ExpectedAmount  Amount `json:"expected_amount"`
	CollectedAmount Amount `json:"collected_amount"`
	FuelExpense     Amount `json:"fuel_expense"`
	RepairExpense   Amount `json:"repair_expense"`
	OtherExpense    Amount `json:"other_expense"`

	ExpenseNotes string     `json:"expense_notes,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	Status       TripStatus `json:"status" gorm:"type:varchar(20);default:in_progress;index"`
}

func (t Trip) TotalExpense() float64 {
	return t.FuelExpense.Float64 + t.RepairExpense.Float64 + t.OtherExpense.Float64
}

// Timestamp returns the instant the trip is dated by, falling back to the
// legacy start/end fields.
func (t Trip) Timestamp() time.Time {
	switch {
	case !t.CollectionTime.IsZero():
		return t.CollectionTime
	case t.StartTime != nil && !t.StartTime.IsZero():
		return *t.StartTime
	case t.EndTime != nil && !t.EndTime.IsZero():
		return *t.EndTime
	}
	return time.Time{}
}
