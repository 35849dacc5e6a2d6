package reports

import (
	"math"
	"sort"

	"github.com/google/uuid"
)

type GroupKey int

const (
	ByVehicle GroupKey = iota
	ByDriver
	ByRoute
	ByDay
)

func (k GroupKey) String() string {
	switch k {
	case ByVehicle:
		return "vehicle"
	case ByDriver:
		return "driver"
	case ByRoute:
		return "route"
	case ByDay:
		return "day"
	}
	return "unknown"
}

type VehicleMetrics struct {
	VehicleID         uuid.UUID `json:"vehicle_id"`
	Registration      string    `json:"registration"`
	TotalCollections  float64   `json:"total_collections"`
	TotalExpected     float64   `json:"total_expected"`
	FuelExpenses      float64   `json:"fuel_expenses"`
	RepairExpenses    float64   `json:"repair_expenses"`
	OtherExpenses     float64   `json:"other_expenses"`
	TotalExpenses     float64   `json:"total_expenses"`
	TripCount         int       `json:"trip_count"`
	ActiveDays        int       `json:"active_days"`
	NetProfit         float64   `json:"net_profit"`
	ProfitPerTrip     float64   `json:"profit_per_trip"`
	CollectionPerTrip float64   `json:"collection_per_trip"`
	ExpenseRatio      float64   `json:"expense_ratio"`
	UtilizationRate   float64   `json:"utilization_rate"`
}

type DriverMetrics struct {
	DriverID             uuid.UUID  `json:"driver_id"`
	Name                 string     `json:"name"`
	TotalCollections     float64    `json:"total_collections"`
	TotalExpected        float64    `json:"total_expected"`
	TripCount            int        `json:"trip_count"`
	VehiclesDriven       int        `json:"vehicles_driven"`
	AvgPerTrip           float64    `json:"avg_per_trip"`
	CollectionEfficiency float64    `json:"collection_efficiency"`
	MostDrivenVehicleID  *uuid.UUID `json:"most_driven_vehicle_id,omitempty"`
	MostDrivenVehicle    string     `json:"most_driven_vehicle"`
}

// RouteMetrics groups trips by route. Trips without a route share the nil id.
type RouteMetrics struct {
	RouteID          uuid.UUID `json:"route_id"`
	Name             string    `json:"name"`
	Origin           string    `json:"origin,omitempty"`
	Destination      string    `json:"destination,omitempty"`
	TotalCollections float64   `json:"total_collections"`
	TotalExpected    float64   `json:"total_expected"`
	TripCount        int       `json:"trip_count"`
	Efficiency       float64   `json:"efficiency"`
}

type DayMetrics struct {
	Date             string  `json:"date"`
	TotalCollections float64 `json:"total_collections"`
	TotalExpenses    float64 `json:"total_expenses"`
	TripCount        int     `json:"trip_count"`
	Profit           float64 `json:"profit"`
}

// Grouped holds the result of one Aggregate call. Only the slice matching
// Key is filled.
type Grouped struct {
	Key      GroupKey
	Vehicles []VehicleMetrics
	Drivers  []DriverMetrics
	Routes   []RouteMetrics
	Days     []DayMetrics
}

// Aggregate groups trips by key. Groups come out in first-appearance order,
// days in calendar order.
func Aggregate(trips []EnrichedTrip, key GroupKey, rng DateRange) Grouped {
	g := Grouped{Key: key}
	switch key {
	case ByVehicle:
		g.Vehicles = ByVehicles(trips, rng)
	case ByDriver:
		g.Drivers = ByDrivers(trips)
	case ByRoute:
		g.Routes = ByRoutes(trips)
	case ByDay:
		g.Days = ByDays(trips)
	}
	return g
}

func ByVehicles(trips []EnrichedTrip, rng DateRange) []VehicleMetrics {
	index := make(map[uuid.UUID]int)
	days := make(map[uuid.UUID]map[string]struct{})
	out := make([]VehicleMetrics, 0)

	for _, t := range trips {
		i, ok := index[t.VehicleID]
		if !ok {
			i = len(out)
			index[t.VehicleID] = i
			days[t.VehicleID] = make(map[string]struct{})
			out = append(out, VehicleMetrics{VehicleID: t.VehicleID, Registration: t.VehicleRegistration})
		}
		m := &out[i]
		m.TotalCollections += t.CollectedAmount
		m.TotalExpected += t.ExpectedAmount
		m.FuelExpenses += t.FuelExpense
		m.RepairExpenses += t.RepairExpense
		m.OtherExpenses += t.OtherExpense
		m.TripCount++
		if t.CollectionDate != "" {
			days[t.VehicleID][t.CollectionDate] = struct{}{}
		}
	}

	span := float64(rng.Days())
	for i := range out {
		m := &out[i]
		m.TotalExpenses = m.FuelExpenses + m.RepairExpenses + m.OtherExpenses
		m.ActiveDays = len(days[m.VehicleID])
		m.NetProfit = m.TotalCollections - m.TotalExpenses
		m.ProfitPerTrip = ratio(m.NetProfit, float64(m.TripCount))
		m.CollectionPerTrip = ratio(m.TotalCollections, float64(m.TripCount))
		m.ExpenseRatio = ratio(m.TotalExpenses, m.TotalCollections) * 100
		m.UtilizationRate = ratio(float64(m.ActiveDays), span) * 100
	}
	return out
}

func ByDrivers(trips []EnrichedTrip) []DriverMetrics {
	type vehicleCount struct {
		id           uuid.UUID
		registration string
		trips        int
	}
	index := make(map[uuid.UUID]int)
	counts := make([][]vehicleCount, 0)
	out := make([]DriverMetrics, 0)

	for _, t := range trips {
		i, ok := index[t.DriverID]
		if !ok {
			i = len(out)
			index[t.DriverID] = i
			out = append(out, DriverMetrics{DriverID: t.DriverID, Name: t.DriverName})
			counts = append(counts, nil)
		}
		m := &out[i]
		m.TotalCollections += t.CollectedAmount
		m.TotalExpected += t.ExpectedAmount
		m.TripCount++

		found := false
		for j := range counts[i] {
			if counts[i][j].id == t.VehicleID {
				counts[i][j].trips++
				found = true
				break
			}
		}
		if !found {
			counts[i] = append(counts[i], vehicleCount{id: t.VehicleID, registration: t.VehicleRegistration, trips: 1})
		}
	}

	for i := range out {
		m := &out[i]
		m.VehiclesDriven = len(counts[i])
		m.AvgPerTrip = ratio(m.TotalCollections, float64(m.TripCount))
		m.CollectionEfficiency = ratio(m.TotalCollections, m.TotalExpected) * 100

		// first vehicle to reach the highest count wins
		best := -1
		for j, vc := range counts[i] {
			if best < 0 || vc.trips > counts[i][best].trips {
				best = j
			}
		}
		if best >= 0 {
			id := counts[i][best].id
			m.MostDrivenVehicleID = &id
			m.MostDrivenVehicle = counts[i][best].registration
		}
	}
	return out
}

func ByRoutes(trips []EnrichedTrip) []RouteMetrics {
	index := make(map[uuid.UUID]int)
	out := make([]RouteMetrics, 0)

	for _, t := range trips {
		id := uuid.Nil
		if t.RouteID != nil {
			id = *t.RouteID
		}
		i, ok := index[id]
		if !ok {
			i = len(out)
			index[id] = i
			name := t.RouteName
			if name == "" {
				name = Unknown
			}
			out = append(out, RouteMetrics{RouteID: id, Name: name, Origin: t.Origin, Destination: t.Destination})
		}
		m := &out[i]
		m.TotalCollections += t.CollectedAmount
		m.TotalExpected += t.ExpectedAmount
		m.TripCount++
	}

	for i := range out {
		out[i].Efficiency = ratio(out[i].TotalCollections, out[i].TotalExpected) * 100
	}
	return out
}

// ByDays builds the calendar-day series. Trips with no usable timestamp are skipped.
func ByDays(trips []EnrichedTrip) []DayMetrics {
	index := make(map[string]int)
	out := make([]DayMetrics, 0)

	for _, t := range trips {
		if t.CollectionDate == "" {
			continue
		}
		i, ok := index[t.CollectionDate]
		if !ok {
			i = len(out)
			index[t.CollectionDate] = i
			out = append(out, DayMetrics{Date: t.CollectionDate})
		}
		m := &out[i]
		m.TotalCollections += t.CollectedAmount
		m.TotalExpenses += t.TotalExpense
		m.TripCount++
	}

	for i := range out {
		out[i].Profit = out[i].TotalCollections - out[i].TotalExpenses
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Date < out[b].Date })
	return out
}

// TopVehicles returns up to n vehicles by net profit, highest first. Equal
// profits keep their input order.
func TopVehicles(ms []VehicleMetrics, n int) []VehicleMetrics {
	ranked := append([]VehicleMetrics(nil), ms...)
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].NetProfit > ranked[b].NetProfit })
	return head(ranked, n)
}

// TopDrivers returns up to n drivers by total collections, highest first.
func TopDrivers(ms []DriverMetrics, n int) []DriverMetrics {
	ranked := append([]DriverMetrics(nil), ms...)
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].TotalCollections > ranked[b].TotalCollections })
	return head(ranked, n)
}

func head[T any](s []T, n int) []T {
	if n < 0 {
		n = 0
	}
	if len(s) > n {
		s = s[:n]
	}
	if s == nil {
		return []T{}
	}
	return s
}

// ratio divides, yielding 0 for a zero denominator or a non-finite result.
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	r := num / den
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}
