// internal/models/vehicle.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type VehicleStatus string

const (
	VehicleActive      VehicleStatus = "active"
	VehicleMaintenance VehicleStatus = "maintenance"
	VehicleInactive    VehicleStatus = "inactive"
)

func (s VehicleStatus) Valid() bool {
	switch s {
	case VehicleActive, VehicleMaintenance, VehicleInactive:
		return true
	}
	return false
}

type Vehicle struct {
	Base
	Registration      string        `json:"registration" gorm:"uniqueIndex;not null"`
	Model             string        `json:"model"`
	Owner             string        `json:"owner"`
	Status            VehicleStatus `json:"status" gorm:"type:varchar(20);default:active;index"`
	PassengerCapacity int           `json:"passenger_capacity"`
	InsuranceExpiry   *Date         `json:"insurance_expiry,omitempty"`
	TLBExpiry         *Date         `json:"tlb_expiry,omitempty"` // road-use licence
	InspectionExpiry  *Date         `json:"inspection_expiry,omitempty"`
	RouteID           *uuid.UUID    `json:"route_id,omitempty" gorm:"type:uuid;index"`
}

// ExpiringDocument names one vehicle document that lapses inside a window.
type ExpiringDocument struct {
	Document   string `json:"document"`
	ExpiryDate Date   `json:"expiry_date"`
	DaysLeft   int    `json:"days_left"`
}

// ExpiringDocuments lists documents that expire between today and today+days inclusive.
func (v Vehicle) ExpiringDocuments(today time.Time, days int) []ExpiringDocument {
	start := NewDate(today)
	limit := start.AddDate(0, 0, days)
	var out []ExpiringDocument
	check := func(name string, d *Date) {
		if d == nil || d.IsZero() {
			return
		}
		if d.Before(start.Time) || d.After(limit) {
			return
		}
		out = append(out, ExpiringDocument{
			Document:   name,
			ExpiryDate: *d,
			DaysLeft:   int(d.Sub(start.Time).Hours() / 24),
		})
	}
	check("insurance", v.InsuranceExpiry)
	check("tlb", v.TLBExpiry)
	check("inspection", v.InspectionExpiry)
	return out
}
