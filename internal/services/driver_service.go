package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"matatu_manager/internal/apperr"
	"matatu_manager/internal/models"
	"matatu_manager/internal/store"
)

type DriverInput struct {
	Name            *string              `json:"name"`
	LicenseNumber   *string              `json:"license_number"`
	Phone           *string              `json:"phone"`
	Status          *models.DriverStatus `json:"status"`
	ExperienceYears *int                 `json:"experience_years"`
	Rating          *float64             `json:"rating"`
	PhotoURL        *string              `json:"photo_url"`
	UserID          *uuid.UUID           `json:"user_id"` // nil UUID unlinks
}

type DriverService struct {
	drivers DriverRepository
}

func NewDriverService(drivers DriverRepository) *DriverService {
	return &DriverService{drivers: drivers}
}

func (s *DriverService) Create(ctx context.Context, in DriverInput) (*models.Driver, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, apperr.ValidationError{Field: "name", Msg: "is required"}
	}
	if in.LicenseNumber == nil || strings.TrimSpace(*in.LicenseNumber) == "" {
		return nil, apperr.ValidationError{Field: "license_number", Msg: "is required"}
	}
	d := &models.Driver{Status: models.DriverActive}
	if err := applyDriver(d, in); err != nil {
		return nil, err
	}
	if err := s.drivers.Create(ctx, d); err != nil {
		return nil, duplicate(err, "duplicate_license", "A driver with this license number or user account already exists")
	}
	return d, nil
}

func (s *DriverService) Get(ctx context.Context, id uuid.UUID) (*models.Driver, error) {
	d, err := s.drivers.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "driver")
	}
	return d, nil
}

func (s *DriverService) List(ctx context.Context, f store.DriverFilter) ([]models.Driver, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.ValidationError{Field: "status", Msg: "unknown driver status"}
	}
	out, err := s.drivers.List(ctx, f)
	return out, internal(err)
}

func (s *DriverService) Update(ctx context.Context, id uuid.UUID, in DriverInput) (*models.Driver, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyDriver(d, in); err != nil {
		return nil, err
	}
	if err := s.drivers.Update(ctx, d); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound(err, "driver")
		}
		return nil, duplicate(err, "duplicate_license", "A driver with this license number or user account already exists")
	}
	return d, nil
}

// Delete removes the driver, or marks them inactive when records still
// reference them. It reports whether the row was kept.
func (s *DriverService) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return false, err
	}
	used, err := s.drivers.HasHistory(ctx, id)
	if err != nil {
		return false, internal(err)
	}
	if used {
		logrus.WithField("driver_id", id).Info("DeleteDriver: history found, marking inactive")
		return true, notFound(s.drivers.SetStatus(ctx, id, models.DriverInactive), "driver")
	}
	return false, notFound(s.drivers.Delete(ctx, id), "driver")
}

func (s *DriverService) Rate(ctx context.Context, id uuid.UUID, rating float64) (*models.Driver, error) {
	if err := validRating(rating); err != nil {
		return nil, err
	}
	if err := s.drivers.SetRating(ctx, id, rating); err != nil {
		return nil, notFound(err, "driver")
	}
	return s.Get(ctx, id)
}

func validRating(r float64) error {
	if r < 0 || r > 5 {
		return apperr.ValidationError{Field: "rating", Msg: "must be between 0 and 5"}
	}
	return nil
}

func applyDriver(d *models.Driver, in DriverInput) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return apperr.ValidationError{Field: "name", Msg: "must not be empty"}
		}
		d.Name = name
	}
	if in.LicenseNumber != nil {
		lic := strings.ToUpper(strings.TrimSpace(*in.LicenseNumber))
		if lic == "" {
			return apperr.ValidationError{Field: "license_number", Msg: "must not be empty"}
		}
		d.LicenseNumber = lic
	}
	if in.Phone != nil {
		d.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return apperr.ValidationError{Field: "status", Msg: "must be active, suspended or inactive"}
		}
		d.Status = *in.Status
	}
	if in.ExperienceYears != nil {
		if *in.ExperienceYears < 0 {
			return apperr.ValidationError{Field: "experience_years", Msg: "must not be negative"}
		}
		d.ExperienceYears = *in.ExperienceYears
	}
	if in.Rating != nil {
		if err := validRating(*in.Rating); err != nil {
			return err
		}
		d.Rating = *in.Rating
	}
	if in.PhotoURL != nil {
		d.PhotoURL = *in.PhotoURL
	}
	if in.UserID != nil {
		d.UserID = nil
		if id := *in.UserID; id != uuid.Nil {
			d.UserID = &id
		}
	}
	return nil
}
