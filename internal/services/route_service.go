package services

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"matatu_manager/internal/apperr"
	"matatu_manager/internal/models"
	"matatu_manager/internal/store"
)

type StageInput struct {
	Name string  `json:"name"`
	Seq  int     `json:"seq"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

type RouteInput struct {
	Name                     *string             `json:"name"`
	Origin                   *string             `json:"origin"`
	Destination              *string             `json:"destination"`
	FareAmount               *float64            `json:"fare_amount"`
	DistanceKm               *float64            `json:"distance_km"`
	EstimatedDurationMinutes *int                `json:"estimated_duration_minutes"`
	Status                   *models.RouteStatus `json:"status"`
	Description              *string             `json:"description"`
	Geometry                 json.RawMessage     `json:"geometry"`
	Stages                   []StageInput        `json:"stages"`
}

type RouteService struct {
	routes RouteRepository
}

func NewRouteService(routes RouteRepository) *RouteService {
	return &RouteService{routes: routes}
}

func (s *RouteService) Create(ctx context.Context, in RouteInput) (*models.Route, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, apperr.ValidationError{Field: "name", Msg: "is required"}
	}
	r := &models.Route{Status: models.RouteActive}
	if err := applyRoute(r, in); err != nil {
		return nil, err
	}
	stages, err := buildStages(in.Stages)
	if err != nil {
		return nil, err
	}
	r.Stages = stages
	if err := s.routes.Create(ctx, r); err != nil {
		return nil, duplicate(err, "duplicate_route", "A route with these details already exists")
	}
	return r, nil
}

func (s *RouteService) Get(ctx context.Context, id uuid.UUID) (*models.Route, error) {
	r, err := s.routes.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "route")
	}
	return r, nil
}

func (s *RouteService) List(ctx context.Context, f store.RouteFilter) ([]models.Route, error) {
	out, err := s.routes.List(ctx, f)
	return out, internal(err)
}

func (s *RouteService) Update(ctx context.Context, id uuid.UUID, in RouteInput) (*models.Route, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyRoute(r, in); err != nil {
		return nil, err
	}
	if err := s.routes.Update(ctx, r); err != nil {
		return nil, notFound(err, "route")
	}
	if in.Stages != nil {
		return s.ReplaceStages(ctx, id, in.Stages)
	}
	return r, nil
}

func (s *RouteService) ReplaceStages(ctx context.Context, id uuid.UUID, in []StageInput) (*models.Route, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	stages, err := buildStages(in)
	if err != nil {
		return nil, err
	}
	if err := s.routes.ReplaceStages(ctx, id, stages); err != nil {
		return nil, internal(err)
	}
	return s.Get(ctx, id)
}

// Delete refuses while active vehicles are assigned, keeps the route as
// inactive when trips reference it, and otherwise removes it with its stages.
// It reports whether the row was kept.
func (s *RouteService) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return false, err
	}
	active, err := s.routes.ActiveVehicleCount(ctx, id)
	if err != nil {
		return false, internal(err)
	}
	if active > 0 {
		return false, apperr.ValidationError{Kind: "route_in_use", Msg: "Cannot delete a route with active vehicles assigned"}
	}
	used, err := s.routes.HasTrips(ctx, id)
	if err != nil {
		return false, internal(err)
	}
	if used {
		logrus.WithField("route_id", id).Info("DeleteRoute: trips found, marking inactive")
		return true, notFound(s.routes.SetStatus(ctx, id, models.RouteInactive), "route")
	}
	return false, notFound(s.routes.Delete(ctx, id), "route")
}

func applyRoute(r *models.Route, in RouteInput) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return apperr.ValidationError{Field: "name", Msg: "must not be empty"}
		}
		r.Name = name
	}
	if in.Origin != nil {
		r.Origin = *in.Origin
	}
	if in.Destination != nil {
		r.Destination = *in.Destination
	}
	if in.FareAmount != nil {
		if *in.FareAmount < 0 {
			return apperr.ValidationError{Field: "fare_amount", Msg: "must not be negative"}
		}
		r.FareAmount = models.NewAmount(*in.FareAmount)
	}
	if in.DistanceKm != nil {
		r.DistanceKm = *in.DistanceKm
	}
	if in.EstimatedDurationMinutes != nil {
		r.EstimatedDurationMinutes = *in.EstimatedDurationMinutes
	}
	if in.Status != nil {
		if *in.Status != models.RouteActive && *in.Status != models.RouteInactive {
			return apperr.ValidationError{Field: "status", Msg: "must be active or inactive"}
		}
		r.Status = *in.Status
	}
	if in.Description != nil {
		r.Description = *in.Description
	}
	if in.Geometry != nil {
		g, err := EncodeGeometry(in.Geometry)
		if err != nil {
			return err
		}
		r.Geometry = g
	}
	return nil
}

// buildStages validates stages and numbers any that arrive without a sequence
// by their position.
func buildStages(in []StageInput) ([]models.Stage, error) {
	out := make([]models.Stage, 0, len(in))
	for i, st := range in {
		name := strings.TrimSpace(st.Name)
		if name == "" {
			return nil, apperr.ValidationError{Field: "stages", Msg: "every stage needs a name"}
		}
		if st.Lat < -90 || st.Lat > 90 || st.Lng < -180 || st.Lng > 180 {
			return nil, apperr.ValidationError{Field: "stages", Msg: "stage coordinates out of range"}
		}
		seq := st.Seq
		if seq == 0 {
			seq = i + 1
		}
		out = append(out, models.Stage{Name: name, Seq: seq, Lat: st.Lat, Lng: st.Lng})
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Seq < out[b].Seq })
	return out, nil
}
