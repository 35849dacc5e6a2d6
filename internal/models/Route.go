package models

type RouteStatus string

const (
	RouteActive   RouteStatus = "active"
	RouteInactive RouteStatus = "inactive"
)

// Route is a fare-bearing path between two termini.
// Geometry is a LINESTRING kept as WKB; the API exchanges it as GeoJSON.
type Route struct {
	Base

	Name                     string      `json:"name" gorm:"not null"`
	Origin                   string      `json:"origin"`
	Destination              string      `json:"destination"`
	FareAmount               Amount      `json:"fare_amount"`
	DistanceKm               float64     `json:"distance_km"`
	EstimatedDurationMinutes int         `json:"estimated_duration_minutes"`
	Status                   RouteStatus `json:"status" gorm:"type:varchar(20);default:active;index"`
	Description              string      `json:"description"`
	Geometry                 []byte      `json:"-" gorm:"type:bytea"`

	Stages []Stage `gorm:"foreignKey:RouteID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"stages,omitempty"`
}
