package reports

import "github.com/google/uuid"

// Totals is the headline block of every report.
type Totals struct {
	TotalTrips       int     `json:"total_trips"`
	TotalPassengers  int     `json:"total_passengers"`
	TotalCollections float64 `json:"total_collections"`
	TotalExpected    float64 `json:"total_expected"`
	FuelExpenses     float64 `json:"fuel_expenses"`
	RepairExpenses   float64 `json:"repair_expenses"`
	OtherExpenses    float64 `json:"other_expenses"`
	TotalExpenses    float64 `json:"total_expenses"`
	NetProfit        float64 `json:"net_profit"`
	Efficiency       float64 `json:"efficiency"`
	AvgPerTrip       float64 `json:"avg_per_trip"`
	ProfitMargin     float64 `json:"profit_margin"`
	ActiveDays       int     `json:"active_days"`
	DaysInRange      int     `json:"days_in_range"`
	VehicleCount     int     `json:"vehicle_count"`
	DriverCount      int     `json:"driver_count"`
}

func Summarize(trips []EnrichedTrip, rng DateRange) Totals {
	t := Totals{DaysInRange: rng.Days()}
	days := make(map[string]struct{})
	vehicles := make(map[uuid.UUID]struct{})
	drivers := make(map[uuid.UUID]struct{})

	for _, trip := range trips {
		t.TotalTrips++
		t.TotalPassengers += trip.PassengerCount
		t.TotalCollections += trip.CollectedAmount
		t.TotalExpected += trip.ExpectedAmount
		t.FuelExpenses += trip.FuelExpense
		t.RepairExpenses += trip.RepairExpense
		t.OtherExpenses += trip.OtherExpense
		if trip.CollectionDate != "" {
			days[trip.CollectionDate] = struct{}{}
		}
		vehicles[trip.VehicleID] = struct{}{}
		drivers[trip.DriverID] = struct{}{}
	}

	t.TotalExpenses = t.FuelExpenses + t.RepairExpenses + t.OtherExpenses
	t.NetProfit = t.TotalCollections - t.TotalExpenses
	t.Efficiency = ratio(t.TotalCollections, t.TotalExpected) * 100
	t.AvgPerTrip = ratio(t.TotalCollections, float64(t.TotalTrips))
	t.ProfitMargin = ratio(t.NetProfit, t.TotalCollections) * 100
	t.ActiveDays = len(days)
	t.VehicleCount = len(vehicles)
	t.DriverCount = len(drivers)
	return t
}
