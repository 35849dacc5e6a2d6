package render

import (
	"bytes"
	"fmt"

	"github.com/phpdave11/gofpdf"

	"matatu_manager/internal/reports"
)

type section int

const (
	sectionVehicles section = iota
	sectionDrivers
	sectionRoutes
	sectionDaily
	sectionTrips
)

// layouts lists which tables each document carries after the summary.
var layouts = map[string][]section{
	"vehicle_report":       {sectionDaily, sectionRoutes, sectionDrivers},
	"driver_report":        {sectionVehicles, sectionDaily},
	"vehicle_trips_report": {sectionDaily, sectionTrips},
	"driver_trips_report":  {sectionDaily, sectionTrips},
	"combined_report":      {sectionVehicles, sectionDrivers, sectionRoutes, sectionDaily},
}

type PDF struct {
	company string
}

func NewPDF(company string) *PDF {
	return &PDF{company: company}
}

func (p *PDF) ContentType() string { return "application/pdf" }

func (p *PDF) Extension() string { return "pdf" }

func (p *PDF) Render(name string, rc reports.ReportContext) ([]byte, error) {
	sections, ok := layouts[name]
	if !ok {
		return nil, fmt.Errorf("unknown report template %q", name)
	}

	orientation := "P"
	if contains(sections, sectionTrips) {
		orientation = "L"
	}
	pdf := gofpdf.New(orientation, "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(rc.Title, true)
	pdf.SetAuthor(p.company, true)
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 6, fmt.Sprintf("Page %d - generated %s", pdf.PageNo(), rc.ReportDate), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 9, tr(p.company))
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, tr(rc.Title+": "+rc.EntityName))
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Period: %s to %s", rc.StartDate, rc.EndDate))
	pdf.Ln(10)

	writeSummary(pdf, rc.Summary)
	for _, s := range sections {
		switch s {
		case sectionVehicles:
			rows := make([][]string, 0, len(rc.Vehicles))
			for _, v := range rc.Vehicles {
				rows = append(rows, []string{v.Registration, fmt.Sprint(v.TripCount), money(v.TotalCollections),
					money(v.TotalExpenses), money(v.NetProfit), percent(v.UtilizationRate)})
			}
			writeTable(pdf, tr, "Vehicles", []string{"Registration", "Trips", "Collections", "Expenses", "Net profit", "Utilization"},
				[]float64{35, 18, 35, 35, 35, 25}, rows)
		case sectionDrivers:
			rows := make([][]string, 0, len(rc.Drivers))
			for _, d := range rc.Drivers {
				rows = append(rows, []string{d.Name, fmt.Sprint(d.TripCount), money(d.TotalCollections),
					money(d.AvgPerTrip), percent(d.CollectionEfficiency), d.MostDrivenVehicle})
			}
			writeTable(pdf, tr, "Drivers", []string{"Driver", "Trips", "Collections", "Avg/trip", "Efficiency", "Main vehicle"},
				[]float64{40, 15, 35, 30, 25, 35}, rows)
		case sectionRoutes:
			rows := make([][]string, 0, len(rc.Routes))
			for _, r := range rc.Routes {
				rows = append(rows, []string{r.Name, fmt.Sprint(r.TripCount), money(r.TotalCollections),
					money(r.TotalExpected), percent(r.Efficiency)})
			}
			writeTable(pdf, tr, "Routes", []string{"Route", "Trips", "Collections", "Expected", "Efficiency"},
				[]float64{55, 18, 38, 38, 25}, rows)
		case sectionDaily:
			rows := make([][]string, 0, len(rc.DailyData))
			for _, d := range rc.DailyData {
				rows = append(rows, []string{d.Date, fmt.Sprint(d.TripCount), money(d.TotalCollections),
					money(d.TotalExpenses), money(d.Profit)})
			}
			writeTable(pdf, tr, "Daily breakdown", []string{"Date", "Trips", "Collections", "Expenses", "Profit"},
				[]float64{30, 18, 40, 40, 40}, rows)
		case sectionTrips:
			rows := make([][]string, 0, len(rc.Trips))
			for _, t := range rc.Trips {
				rows = append(rows, []string{t.CollectionDate + " " + t.CollectionTime, t.VehicleRegistration, t.DriverName,
					t.RouteName, fmt.Sprint(t.PassengerCount), money(t.CollectedAmount), money(t.TotalExpense),
					money(t.NetProfit), percent(t.Efficiency)})
			}
			writeTable(pdf, tr, "Trips", []string{"When", "Vehicle", "Driver", "Route", "Pax", "Collected", "Expenses", "Net", "Eff."},
				[]float64{34, 26, 34, 40, 12, 32, 32, 32, 20}, rows)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeSummary(pdf *gofpdf.Fpdf, s reports.Totals) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Summary")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	lines := [][2]string{
		{"Trips", fmt.Sprint(s.TotalTrips)},
		{"Passengers", fmt.Sprint(s.TotalPassengers)},
		{"Collections", money(s.TotalCollections)},
		{"Expected", money(s.TotalExpected)},
		{"Expenses", money(s.TotalExpenses)},
		{"Net profit", money(s.NetProfit)},
		{"Efficiency", percent(s.Efficiency)},
		{"Active days", fmt.Sprintf("%d of %d", s.ActiveDays, s.DaysInRange)},
	}
	for _, l := range lines {
		pdf.CellFormat(45, 6, l[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(60, 6, l[1], "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func writeTable(pdf *gofpdf.Fpdf, tr func(string) string, title string, headers []string, widths []float64, rows [][]string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, title)
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	if len(rows) == 0 {
		total := 0.0
		for _, w := range widths {
			total += w
		}
		pdf.CellFormat(total, 6, "No data for this period", "1", 1, "C", false, 0, "")
	}
	for _, row := range rows {
		for i, cell := range row {
			align := "L"
			if i > 0 {
				align = "R"
			}
			pdf.CellFormat(widths[i], 6, tr(cell), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(5)
}

func contains(sections []section, s section) bool {
	for _, x := range sections {
		if x == s {
			return true
		}
	}
	return false
}
