package models

import (
	"time"

	"github.com/google/uuid"
)

type LocationHistory struct {
	Base
	DriverID         uuid.UUID `json:"driver_id" gorm:"type:uuid;index"`
	Latitude         float64   `json:"latitude"`
	Longitude        float64   `json:"longitude"`
	Accuracy         float64   `json:"accuracy"` // GPS accuracy in meters
	Speed            float64   `json:"speed"`    // m/s
	Bearing          float64   `json:"bearing"`  // degrees
	Altitude         float64   `json:"altitude"` // meters
	IsMoving         bool      `json:"is_moving"`
	DistanceFromLast float64   `json:"distance_from_last"`
	Timestamp        time.Time `json:"timestamp" gorm:"index"`
	EventType        string    `json:"event_type"` // "initial", "move", "stopped", "started", "periodic"
}
