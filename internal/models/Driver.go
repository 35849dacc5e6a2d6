// internal/models/driver.go
package models

import "github.com/google/uuid"

type DriverStatus string

const (
	DriverActive    DriverStatus = "active"
	DriverSuspended DriverStatus = "suspended"
	DriverInactive  DriverStatus = "inactive"
)

func (s DriverStatus) Valid() bool {
	switch s {
	case DriverActive, DriverSuspended, DriverInactive:
		return true
	}
	return false
}

type Driver struct {
	Base
	Name            string       `json:"name" gorm:"not null"`
	LicenseNumber   string       `json:"license_number" gorm:"uniqueIndex;not null"`
	Phone           string       `json:"phone"`
	Status          DriverStatus `json:"status" gorm:"type:varchar(20);default:active;index"`
	ExperienceYears int          `json:"experience_years"`
	Rating          float64      `json:"rating" gorm:"default:0"` // 0.0 - 5.0
	PhotoURL        string       `json:"photo_url,omitempty"`
	UserID          *uuid.UUID   `json:"user_id,omitempty" gorm:"type:uuid;uniqueIndex"` // account allowed to push GPS
}
