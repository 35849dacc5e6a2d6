package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"matatu_manager/internal/apperr"
	"matatu_manager/internal/models"
	"matatu_manager/internal/render"
	"matatu_manager/internal/reports"
	"matatu_manager/internal/store"
)

// ReportRequest describes one report. Layout and Window come from the
// endpoint, never from the caller.
type ReportRequest struct {
	Scope      reports.Scope
	VehicleIDs []uuid.UUID
	DriverIDs  []uuid.UUID
	StartDate  string
	EndDate    string
	Layout     string
	Window     int
}

type DriverPerformance struct {
	Driver    *models.Driver           `json:"driver"`
	StartDate string                   `json:"start_date"`
	EndDate   string                   `json:"end_date"`
	Metrics   reports.DriverMetrics    `json:"performance"`
	Vehicles  []reports.VehicleMetrics `json:"vehicles"`
	Daily     []reports.DayMetrics     `json:"daily_data"`
}

type DailySummaryDetail struct {
	models.DailySummary
	Registration string `json:"registration"`
	DriverName   string `json:"driver_name"`
}

type ReportService struct {
	trips     TripRepository
	vehicles  VehicleRepository
	drivers   DriverRepository
	summaries SummaryRepository
	lookup    entityLookup
	loc       *time.Location
	company   string
	now       func() time.Time
}

// Document is a rendered report ready to be sent as an attachment.
type Document struct {
	Body        []byte
	ContentType string
	Filename    string
}

func NewReportService(trips TripRepository, vehicles VehicleRepository, drivers DriverRepository, routes RouteRepository, summaries SummaryRepository, loc *time.Location, company string) *ReportService {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportService{
		trips:     trips,
		vehicles:  vehicles,
		drivers:   drivers,
		summaries: summaries,
		lookup:    entityLookup{vehicles: vehicles, drivers: drivers, routes: routes},
		loc:       loc,
		company:   company,
		now:       time.Now,
	}
}

func (s *ReportService) today() time.Time {
	return s.now().In(s.loc)
}

// Build resolves the range, checks the root records exist, then fetches,
// enriches and assembles the report.
func (s *ReportService) Build(ctx context.Context, req ReportRequest) (reports.ReportContext, error) {
	rng, err := reports.Resolve(req.StartDate, req.EndDate, s.today(), req.Layout, req.Window)
	if err != nil {
		return reports.ReportContext{}, err
	}

	entity, err := s.rootEntity(ctx, req)
	if err != nil {
		return reports.ReportContext{}, err
	}

	trips, err := s.collect(ctx, rng, req.VehicleIDs, req.DriverIDs)
	if err != nil {
		return reports.ReportContext{}, err
	}
	return reports.Assemble(req.Scope, rng, trips, entity, s.today()), nil
}

// Download builds the report and renders it in format ("pdf" or "html").
func (s *ReportService) Download(ctx context.Context, req ReportRequest, format string) (*Document, error) {
	renderer, err := render.ForFormat(format, s.company)
	if err != nil {
		return nil, apperr.ValidationError{Kind: "invalid_format", Field: "format", Msg: err.Error()}
	}
	rc, err := s.Build(ctx, req)
	if err != nil {
		return nil, err
	}
	body, err := renderer.Render(req.Scope.Template(), rc)
	if err != nil {
		logrus.WithError(err).WithField("template", req.Scope.Template()).Error("Download: render failed")
		return nil, apperr.Internal("Report generation failed", err)
	}
	return &Document{
		Body:        body,
		ContentType: renderer.ContentType(),
		Filename:    render.Filename(rc.EntityName, rc.StartDate, renderer.Extension()),
	}, nil
}

func (s *ReportService) rootEntity(ctx context.Context, req ReportRequest) (string, error) {
	switch req.Scope {
	case reports.ScopeVehicle, reports.ScopeVehicleTrips:
		if len(req.VehicleIDs) != 1 {
			return "", apperr.ValidationError{Kind: "missing_filter", Field: "vehicle_id", Msg: "a vehicle id is required"}
		}
		v, err := s.vehicles.GetByID(ctx, req.VehicleIDs[0])
		if err != nil {
			return "", notFound(err, "vehicle")
		}
		return v.Registration, nil
	case reports.ScopeDriver, reports.ScopeDriverTrips:
		if len(req.DriverIDs) != 1 {
			return "", apperr.ValidationError{Kind: "missing_filter", Field: "driver_id", Msg: "a driver id is required"}
		}
		d, err := s.drivers.GetByID(ctx, req.DriverIDs[0])
		if err != nil {
			return "", notFound(err, "driver")
		}
		return d.Name, nil
	}

	if len(req.VehicleIDs) == 0 && len(req.DriverIDs) == 0 {
		return "", apperr.ValidationError{Kind: "missing_filter", Msg: "At least one vehicle_ids or driver_ids value is required"}
	}
	for _, id := range req.VehicleIDs {
		if _, err := s.vehicles.GetByID(ctx, id); err != nil {
			return "", notFound(err, "vehicle")
		}
	}
	for _, id := range req.DriverIDs {
		if _, err := s.drivers.GetByID(ctx, id); err != nil {
			return "", notFound(err, "driver")
		}
	}
	return fmt.Sprintf("%d vehicles, %d drivers", len(req.VehicleIDs), len(req.DriverIDs)), nil
}

// collect streams the non-cancelled trips in range and enriches them with a
// memo scoped to this call.
func (s *ReportService) collect(ctx context.Context, rng reports.DateRange, vehicleIDs, driverIDs []uuid.UUID) ([]reports.EnrichedTrip, error) {
	from, to := rng.Bounds(s.loc)
	filter := store.TripFilter{
		VehicleIDs:    vehicleIDs,
		DriverIDs:     driverIDs,
		ExcludeStatus: models.TripCancelled,
		From:          from,
		To:            to,
	}
	var raw []models.Trip
	err := s.trips.Each(ctx, filter, func(t *models.Trip) error {
		raw = append(raw, *t)
		return nil
	})
	if err != nil {
		return nil, internal(err)
	}

	enriched, err := reports.NewEnricher(s.lookup, s.loc).EnrichAll(ctx, raw)
	if err != nil {
		logrus.WithError(err).Warn("collect: enrichment failed")
		return nil, internal(err)
	}
	return enriched, nil
}

// DriverPerformance reports one driver's figures over an ISO date range,
// defaulting to the last 30 days.
func (s *ReportService) DriverPerformance(ctx context.Context, id uuid.UUID, start, end string) (*DriverPerformance, error) {
	rng, err := reports.Resolve(start, end, s.today(), reports.ISODate, 30)
	if err != nil {
		return nil, err
	}
	driver, err := s.drivers.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "driver")
	}
	trips, err := s.collect(ctx, rng, nil, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}

	out := &DriverPerformance{
		Driver:   driver,
		Metrics:  reports.DriverMetrics{DriverID: id, Name: driver.Name},
		Vehicles: reports.ByVehicles(trips, rng),
		Daily:    reports.ByDays(trips),
	}
	out.StartDate, out.EndDate = rng.Format(reports.ISODate)
	if grouped := reports.Aggregate(trips, reports.ByDriver, rng); len(grouped.Drivers) > 0 {
		out.Metrics = grouped.Drivers[0]
	}
	return out, nil
}

// DailySummary returns the vehicle's summary for an ISO date, building it
// when it does not exist yet or when regenerate is set.
func (s *ReportService) DailySummary(ctx context.Context, vehicleID uuid.UUID, date string, regenerate bool) (*DailySummaryDetail, error) {
	day, err := models.ParseDate(date)
	if err != nil {
		return nil, apperr.ValidationError{Kind: "invalid_date_format", Field: "date", Msg: "must use the YYYY-MM-DD format", Err: err}
	}
	vehicle, err := s.vehicles.GetByID(ctx, vehicleID)
	if err != nil {
		return nil, notFound(err, "vehicle")
	}

	var sum *models.DailySummary
	if !regenerate {
		sum, err = s.summaries.Get(ctx, vehicleID, day)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, internal(err)
		}
	}
	if sum == nil {
		if sum, err = s.summaries.Regenerate(ctx, vehicleID, day); err != nil {
			return nil, internal(err)
		}
	}

	out := &DailySummaryDetail{DailySummary: *sum, Registration: vehicle.Registration, DriverName: reports.Unknown}
	if sum.DriverID != nil {
		if out.DriverName, err = s.lookup.DriverName(ctx, *sum.DriverID); err != nil {
			return nil, internal(err)
		}
	}
	return out, nil
}

// DailySummaries lists stored summaries over an ISO range, latest first.
// The default range is the last 7 days.
func (s *ReportService) DailySummaries(ctx context.Context, start, end string, vehicleID, driverID *uuid.UUID) ([]DailySummaryDetail, error) {
	rng, err := reports.Resolve(start, end, s.today(), reports.ISODate, 7)
	if err != nil {
		return nil, err
	}
	rows, err := s.summaries.List(ctx, store.SummaryFilter{From: rng.Start, To: rng.End, VehicleID: vehicleID, DriverID: driverID})
	if err != nil {
		return nil, internal(err)
	}

	registrations := make(map[uuid.UUID]string)
	names := make(map[uuid.UUID]string)
	out := make([]DailySummaryDetail, 0, len(rows))
	for _, row := range rows {
		d := DailySummaryDetail{DailySummary: row, DriverName: reports.Unknown}
		reg, ok := registrations[row.VehicleID]
		if !ok {
			if reg, err = s.lookup.VehicleRegistration(ctx, row.VehicleID); err != nil {
				return nil, internal(err)
			}
			registrations[row.VehicleID] = reg
		}
		d.Registration = reg
		if row.DriverID != nil {
			name, ok := names[*row.DriverID]
			if !ok {
				if name, err = s.lookup.DriverName(ctx, *row.DriverID); err != nil {
					return nil, internal(err)
				}
				names[*row.DriverID] = name
			}
			d.DriverName = name
		}
		out = append(out, d)
	}
	return out, nil
}
