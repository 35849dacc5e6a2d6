package services

import (
	"context"

	"matatu_manager/internal/apperr"
	"matatu_manager/internal/models"
	"matatu_manager/internal/reports"
)

type Overview struct {
	TotalRevenueToday       float64 `json:"total_revenue_today"`
	ActiveVehiclesCount     int64   `json:"active_vehicles_count"`
	UpcomingRenewals        int     `json:"upcoming_renewals"`
	AvgCollectionPerVehicle float64 `json:"avg_collection_per_vehicle"`
}

// Point is one labelled value of a chart series.
type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

type Stats struct {
	Overview      Overview                 `json:"overview"`
	StartDate     string                   `json:"start_date"`
	EndDate       string                   `json:"end_date"`
	TopVehicles   []reports.VehicleMetrics `json:"top_vehicles"`
	TopDrivers    []reports.DriverMetrics  `json:"top_drivers"`
	RevenueByDay  []Point                  `json:"revenue_by_day"`
	ExpensesByDay []Point                  `json:"expenses_by_day"`
	ProfitByDay   []Point                  `json:"profit_by_day"`
}

const (
	renewalWindowDays = 30
	averageWindowDays = 30
	topN              = 5
)

// DashboardService reads the fleet-wide figures through the same fetch and
// enrich path as the reports.
type DashboardService struct {
	reports  *ReportService
	vehicles *VehicleService
}

func NewDashboardService(reports *ReportService, vehicles *VehicleService) *DashboardService {
	return &DashboardService{reports: reports, vehicles: vehicles}
}

func (s *DashboardService) Overview(ctx context.Context) (*Overview, error) {
	today := s.reports.today()

	todayRange, err := reports.Resolve("", "", today, reports.ISODate, 1)
	if err != nil {
		return nil, err
	}
	todays, err := s.reports.collect(ctx, todayRange, nil, nil)
	if err != nil {
		return nil, err
	}

	monthRange, err := reports.Resolve("", "", today, reports.ISODate, averageWindowDays)
	if err != nil {
		return nil, err
	}
	month, err := s.reports.collect(ctx, monthRange, nil, nil)
	if err != nil {
		return nil, err
	}

	active, err := s.reports.vehicles.Count(ctx, models.VehicleActive)
	if err != nil {
		return nil, internal(err)
	}
	all, err := s.reports.vehicles.Count(ctx, "")
	if err != nil {
		return nil, internal(err)
	}
	renewals, err := s.vehicles.UpcomingRenewals(ctx, renewalWindowDays)
	if err != nil {
		return nil, err
	}

	out := &Overview{
		TotalRevenueToday:   reports.Summarize(todays, todayRange).TotalCollections,
		ActiveVehiclesCount: active,
		UpcomingRenewals:    renewals,
	}
	if all > 0 {
		out.AvgCollectionPerVehicle = reports.Summarize(month, monthRange).TotalCollections / float64(all)
	}
	return out, nil
}

// Stats returns the overview plus leaderboards and day series for the last
// days days, 1 to 365.
func (s *DashboardService) Stats(ctx context.Context, days int) (*Stats, error) {
	if days < 1 || days > 365 {
		return nil, apperr.ValidationError{Field: "days", Msg: "must be between 1 and 365"}
	}
	overview, err := s.Overview(ctx)
	if err != nil {
		return nil, err
	}
	rng, err := reports.Resolve("", "", s.reports.today(), reports.ISODate, days)
	if err != nil {
		return nil, err
	}
	trips, err := s.reports.collect(ctx, rng, nil, nil)
	if err != nil {
		return nil, err
	}

	out := &Stats{
		Overview:      *overview,
		TopVehicles:   reports.TopVehicles(reports.ByVehicles(trips, rng), topN),
		TopDrivers:    reports.TopDrivers(reports.ByDrivers(trips), topN),
		RevenueByDay:  []Point{},
		ExpensesByDay: []Point{},
		ProfitByDay:   []Point{},
	}
	out.StartDate, out.EndDate = rng.Format(reports.ISODate)
	for _, d := range reports.ByDays(trips) {
		out.RevenueByDay = append(out.RevenueByDay, Point{Label: d.Date, Value: d.TotalCollections})
		out.ExpensesByDay = append(out.ExpensesByDay, Point{Label: d.Date, Value: d.TotalExpenses})
		out.ProfitByDay = append(out.ProfitByDay, Point{Label: d.Date, Value: d.Profit})
	}
	return out, nil
}
