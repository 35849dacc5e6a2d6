package reports

import (
	"time"
)

type Scope int

const (
	ScopeVehicle Scope = iota
	ScopeDriver
	ScopeVehicleTrips
	ScopeDriverTrips
	ScopeCombined
)

// Template is the document template a scope renders with.
func (s Scope) Template() string {
	switch s {
	case ScopeVehicle:
		return "vehicle_report"
	case ScopeDriver:
		return "driver_report"
	case ScopeVehicleTrips:
		return "vehicle_trips_report"
	case ScopeDriverTrips:
		return "driver_trips_report"
	default:
		return "combined_report"
	}
}

func (s Scope) title() string {
	switch s {
	case ScopeVehicle:
		return "Vehicle Financial Report"
	case ScopeDriver:
		return "Driver Performance Report"
	case ScopeVehicleTrips:
		return "Vehicle Trip Log"
	case ScopeDriverTrips:
		return "Driver Trip Log"
	default:
		return "Combined Fleet Report"
	}
}

// ReportContext is everything a renderer needs. Slices are never nil so
// every key is present in the JSON form.
type ReportContext struct {
	Scope      Scope  `json:"-"`
	Title      string `json:"title"`
	EntityName string `json:"entity_name"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	ReportDate string `json:"report_date"`

	Summary   Totals           `json:"summary"`
	Vehicles  []VehicleMetrics `json:"vehicles"`
	Drivers   []DriverMetrics  `json:"drivers"`
	Routes    []RouteMetrics   `json:"routes"`
	DailyData []DayMetrics     `json:"daily_data"`
	Trips     []EnrichedTrip   `json:"trips"`
}

// Assemble shapes enriched trips into a report. entity names the root record
// (a registration, a driver name, or a label for a combined report).
func Assemble(scope Scope, rng DateRange, trips []EnrichedTrip, entity string, now time.Time) ReportContext {
	if trips == nil {
		trips = []EnrichedTrip{}
	}
	start, end := rng.Format(ISODate)
	return ReportContext{
		Scope:      scope,
		Title:      scope.title(),
		EntityName: entity,
		StartDate:  start,
		EndDate:    end,
		ReportDate: now.Format("2006-01-02 15:04"),
		Summary:    Summarize(trips, rng),
		Vehicles:   ByVehicles(trips, rng),
		Drivers:    ByDrivers(trips),
		Routes:     ByRoutes(trips),
		DailyData:  ByDays(trips),
		Trips:      trips,
	}
}
