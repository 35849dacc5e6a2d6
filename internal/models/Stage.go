package models

import "github.com/google/uuid"

// Stage is a stop along a route. Seq gives the order.
type Stage struct {
	Base

	Name string  `json:"name" binding:"required"`
	Seq  int     `json:"seq"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`

	RouteID uuid.UUID `json:"route_id" gorm:"type:uuid;index"`
}
