// Package deficits totals the driver deficit ledger.
package deficits

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"matatu_manager/internal/models"
)

// NameLookup resolves display names for the ids found in a ledger. An id
// with no record resolves to "Unknown".
type NameLookup interface {
	DriverName(ctx context.Context, id uuid.UUID) (string, error)
	VehicleRegistration(ctx context.Context, id uuid.UUID) (string, error)
}

type Totals struct {
	TotalDeficit float64 `json:"total_deficit"`
	TotalRepaid  float64 `json:"total_repaid"`
	Balance      float64 `json:"balance"`
}

func (t *Totals) add(e models.Deficit) {
	switch e.DeficitType {
	case models.DeficitOwed:
		t.TotalDeficit += e.Amount.Float64
	case models.DeficitRepayment:
		t.TotalRepaid += e.Amount.Float64
	}
	t.Balance = t.TotalDeficit - t.TotalRepaid
}

type DriverBalance struct {
	DriverID uuid.UUID `json:"driver_id"`
	Name     string    `json:"driver_name"`
	Totals
}

type VehicleBalance struct {
	VehicleID    uuid.UUID `json:"vehicle_id"`
	Registration string    `json:"registration"`
	Totals
}

type DetailedSummary struct {
	Overall   Totals           `json:"overall"`
	ByDriver  []DriverBalance  `json:"by_driver"`
	ByVehicle []VehicleBalance `json:"by_vehicle"`
	Deficits  []models.Deficit `json:"deficits"`
}

// Summarize totals the entries overall, per driver and per vehicle. Each
// distinct driver and vehicle is looked up once. Entries come back newest first.
func Summarize(ctx context.Context, entries []models.Deficit, names NameLookup) (DetailedSummary, error) {
	out := DetailedSummary{
		ByDriver:  make([]DriverBalance, 0),
		ByVehicle: make([]VehicleBalance, 0),
		Deficits:  append(make([]models.Deficit, 0, len(entries)), entries...),
	}
	sort.SliceStable(out.Deficits, func(i, j int) bool {
		return out.Deficits[i].CreatedAt.After(out.Deficits[j].CreatedAt)
	})

	drivers := make(map[uuid.UUID]int)
	vehicles := make(map[uuid.UUID]int)
	for _, e := range entries {
		out.Overall.add(e)

		i, ok := drivers[e.DriverID]
		if !ok {
			name, err := names.DriverName(ctx, e.DriverID)
			if err != nil {
				return DetailedSummary{}, err
			}
			i = len(out.ByDriver)
			drivers[e.DriverID] = i
			out.ByDriver = append(out.ByDriver, DriverBalance{DriverID: e.DriverID, Name: name})
		}
		out.ByDriver[i].add(e)

		j, ok := vehicles[e.VehicleID]
		if !ok {
			reg, err := names.VehicleRegistration(ctx, e.VehicleID)
			if err != nil {
				return DetailedSummary{}, err
			}
			j = len(out.ByVehicle)
			vehicles[e.VehicleID] = j
			out.ByVehicle = append(out.ByVehicle, VehicleBalance{VehicleID: e.VehicleID, Registration: reg})
		}
		out.ByVehicle[j].add(e)
	}
	return out, nil
}
