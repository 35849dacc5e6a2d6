package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"matatu_manager/internal/apperr"
	"matatu_manager/internal/models"
	"matatu_manager/internal/reports"
	"matatu_manager/internal/store"
)

// LocationData is one GPS fix pushed over the websocket.
type LocationData struct {
	DriverID  uuid.UUID `json:"driver_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy"` // meters
	Speed     float64   `json:"speed"`    // m/s
	Bearing   float64   `json:"bearing"`  // degrees
	Altitude  float64   `json:"altitude"` // meters
	Timestamp time.Time `json:"timestamp"`
}

// UnmarshalJSON accepts timestamps with or without a zone. A naive value is UTC.
func (ld *LocationData) UnmarshalJSON(data []byte) error {
	type alias LocationData
	aux := &struct {
		Timestamp string `json:"timestamp"`
		*alias
	}{alias: (*alias)(ld)}
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	if aux.Timestamp == "" {
		ld.Timestamp = time.Time{}
		return nil
	}
	t, err := reports.ParseTimestamp(aux.Timestamp, time.UTC)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q: %w", aux.Timestamp, err)
	}
	ld.Timestamp = t
	return nil
}

// LocationUpdate is what subscribers receive for every saved fix.
type LocationUpdate struct {
	SequenceID uuid.UUID  `json:"sequence_id"`
	DriverID   uuid.UUID  `json:"driver_id"`
	VehicleID  *uuid.UUID `json:"vehicle_id"`
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	Accuracy   float64    `json:"accuracy"`
	Speed      float64    `json:"speed"`
	Bearing    float64    `json:"bearing"`
	Altitude   float64    `json:"altitude"`
	Distance   float64    `json:"distance"`
	IsMoving   bool       `json:"is_moving"`
	EventType  string     `json:"event_type"`
	Timestamp  time.Time  `json:"timestamp"`
}

const (
	minDistanceForSave = 5.0  // meters
	minTimeDiffForSave = 10.0 // seconds
	minSpeedForMoving  = 0.5
	maxSpeedForStopped = 1.0
	periodicSave       = 60 * time.Second

	defaultHistoryLimit = 100
	maxHistoryLimit     = 1000
)

type LocationService struct {
	locations LocationRepository
	drivers   DriverRepository
	trips     TripRepository
	now       func() time.Time
}

func NewLocationService(locations LocationRepository, drivers DriverRepository, trips TripRepository) *LocationService {
	return &LocationService{locations: locations, drivers: drivers, trips: trips, now: time.Now}
}

// DriverForUser returns the driver whose fixes the user may push.
func (s *LocationService) DriverForUser(ctx context.Context, userID uuid.UUID) (*models.Driver, error) {
	d, err := s.drivers.GetByUserID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "driver")
	}
	return d, nil
}

// Record stores a fix when it differs enough from the driver's last saved
// one. It returns nil, nil for a fix that was not worth keeping.
func (s *LocationService) Record(ctx context.Context, in LocationData) (*LocationUpdate, error) {
	if in.Latitude < -90 || in.Latitude > 90 || in.Longitude < -180 || in.Longitude > 180 {
		return nil, apperr.ValidationError{Kind: "invalid_location", Msg: "latitude or longitude out of range"}
	}
	driver, err := s.drivers.GetByID(ctx, in.DriverID)
	if err != nil {
		return nil, notFound(err, "driver")
	}
	if driver.Status != models.DriverActive {
		return nil, apperr.ForbiddenError{Msg: "Driver is not active"}
	}
	if in.Timestamp.IsZero() {
		in.Timestamp = s.now()
	}
	speed := math.Max(in.Speed, 0)

	rec := &models.LocationHistory{
		DriverID:  in.DriverID,
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		Accuracy:  in.Accuracy,
		Speed:     speed,
		Bearing:   in.Bearing,
		Altitude:  in.Altitude,
		IsMoving:  speed > minSpeedForMoving,
		Timestamp: in.Timestamp,
		EventType: "initial",
	}

	last, err := s.locations.Latest(ctx, in.DriverID)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return nil, internal(err)
	default:
		rec.DistanceFromLast = distance(last.Latitude, last.Longitude, in.Latitude, in.Longitude)
		rec.Bearing = bearing(last.Latitude, last.Longitude, in.Latitude, in.Longitude)
		elapsed := in.Timestamp.Sub(last.Timestamp).Seconds()
		save, event := s.significant(rec.DistanceFromLast, speed, elapsed, last)
		if !save {
			return nil, nil
		}
		rec.EventType = event
	}

	if err := s.locations.Create(ctx, rec); err != nil {
		return nil, internal(err)
	}
	logrus.WithFields(logrus.Fields{
		"driver_id":  rec.DriverID,
		"event_type": rec.EventType,
		"distance_m": fmt.Sprintf("%.2f", rec.DistanceFromLast),
	}).Debug("Record: location saved")

	return &LocationUpdate{
		SequenceID: rec.ID,
		DriverID:   rec.DriverID,
		VehicleID:  s.currentVehicle(ctx, rec.DriverID),
		Latitude:   rec.Latitude,
		Longitude:  rec.Longitude,
		Accuracy:   rec.Accuracy,
		Speed:      rec.Speed,
		Bearing:    rec.Bearing,
		Altitude:   rec.Altitude,
		Distance:   rec.DistanceFromLast,
		IsMoving:   rec.IsMoving,
		EventType:  rec.EventType,
		Timestamp:  rec.Timestamp,
	}, nil
}

// currentVehicle is the vehicle of the driver's latest trip, if any.
func (s *LocationService) currentVehicle(ctx context.Context, driverID uuid.UUID) *uuid.UUID {
	trips, err := s.trips.List(ctx, store.TripFilter{
		DriverIDs:   []uuid.UUID{driverID},
		NewestFirst: true,
		Page:        store.Page{Limit: 1},
	})
	if err != nil {
		logrus.WithError(err).WithField("driver_id", driverID).Warn("currentVehicle: trip lookup failed")
		return nil
	}
	if len(trips) == 0 {
		return nil
	}
	id := trips[0].VehicleID
	return &id
}

func (s *LocationService) significant(dist, speed, elapsed float64, last *models.LocationHistory) (bool, string) {
	if dist >= minDistanceForSave {
		return true, "move"
	}
	if last.IsMoving && speed < maxSpeedForStopped && elapsed >= minTimeDiffForSave {
		return true, "stopped"
	}
	if !last.IsMoving && speed >= minSpeedForMoving && elapsed >= minTimeDiffForSave {
		return true, "started"
	}
	if s.now().Sub(last.Timestamp) >= periodicSave {
		return true, "periodic"
	}
	return false, ""
}

func (s *LocationService) LatestForActiveDrivers(ctx context.Context) ([]models.LocationHistory, error) {
	out, err := s.locations.LatestForActiveDrivers(ctx)
	if out == nil {
		out = []models.LocationHistory{}
	}
	return out, internal(err)
}

func (s *LocationService) History(ctx context.Context, driverID uuid.UUID, limit int) ([]models.LocationHistory, error) {
	if _, err := s.drivers.GetByID(ctx, driverID); err != nil {
		return nil, notFound(err, "driver")
	}
	switch {
	case limit <= 0:
		limit = defaultHistoryLimit
	case limit > maxHistoryLimit:
		limit = maxHistoryLimit
	}
	out, err := s.locations.History(ctx, driverID, limit)
	if out == nil {
		out = []models.LocationHistory{}
	}
	return out, internal(err)
}

// distance is the haversine distance in meters.
func distance(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadius = 6371000
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadius * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// bearing is the initial bearing from the first point to the second, 0 to 360.
func bearing(lat1, lon1, lat2, lon2 float64) float64 {
	dLon := radians(lon2 - lon1)
	y := math.Sin(dLon) * math.Cos(radians(lat2))
	x := math.Cos(radians(lat1))*math.Sin(radians(lat2)) -
		math.Sin(radians(lat1))*math.Cos(radians(lat2))*math.Cos(dLon)
	deg := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
