package models

import "github.com/google/uuid"

type DeficitType string

const (
	DeficitOwed      DeficitType = "deficit"
	DeficitRepayment DeficitType = "repayment"
)

func (t DeficitType) Valid() bool {
	return t == DeficitOwed || t == DeficitRepayment
}

// Deficit is one ledger line: money a driver owes, or a repayment against it.
// Entries are never edited, only deleted.
type Deficit struct {
	Base
	DriverID    uuid.UUID   `json:"driver_id" gorm:"type:uuid;not null;index"`
	VehicleID   uuid.UUID   `json:"vehicle_id" gorm:"type:uuid;not null;index"`
	Amount      Amount      `json:"amount"`
	DeficitType DeficitType `json:"deficit_type" gorm:"type:varchar(20);not null"`
	Notes       string      `json:"notes,omitempty"`
}
