package render

import (
	"bytes"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matatu_manager/internal/reports"
)

func sampleContext(t *testing.T, scope reports.Scope) reports.ReportContext {
	t.Helper()
	today := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	rng, err := reports.Resolve("01-06-2024", "15-06-2024", today, reports.DayFirst, 30)
	require.NoError(t, err)

	trips := []reports.EnrichedTrip{{
		ID:                  uuid.New(),
		VehicleID:           uuid.New(),
		DriverID:            uuid.New(),
		VehicleRegistration: "KDA 123A",
		DriverName:          "Njeri <Mwangi>",
		RouteName:           "Route 46",
		CollectionDate:      "2024-06-02",
		CollectionTime:      "07:45:00",
		PassengerCount:      14,
		ExpectedAmount:      1120,
		CollectedAmount:     1000,
		FuelExpense:         250,
		TotalExpense:        250,
		NetProfit:           750,
		Efficiency:          89.29,
	}}
	return reports.Assemble(scope, rng, trips, "KDA 123A", today)
}

func TestPDFRendersEveryScope(t *testing.T) {
	p := NewPDF("Fleet Ltd")
	for _, scope := range []reports.Scope{reports.ScopeVehicle, reports.ScopeDriver, reports.ScopeVehicleTrips, reports.ScopeDriverTrips, reports.ScopeCombined} {
		out, err := p.Render(scope.Template(), sampleContext(t, scope))
		require.NoError(t, err, scope.Template())
		assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")), scope.Template())
	}
	assert.Equal(t, "application/pdf", p.ContentType())
	assert.Equal(t, "pdf", p.Extension())
}

func TestPDFUnknownTemplate(t *testing.T) {
	_, err := NewPDF("x").Render("nope", reports.ReportContext{})
	assert.Error(t, err)
}

func TestHTMLRendersAndEscapes(t *testing.T) {
	h, err := NewHTML("Fleet Ltd")
	require.NoError(t, err)

	out, err := h.Render("driver_trips_report", sampleContext(t, reports.ScopeDriverTrips))
	require.NoError(t, err)
	body := string(out)
	assert.Contains(t, body, "Fleet Ltd")
	assert.Contains(t, body, "KES 1,000.00")
	assert.Contains(t, body, "Njeri &lt;Mwangi&gt;")
	assert.Contains(t, body, "2024-06-01 to 2024-06-15")
	assert.Equal(t, "html", h.Extension())

	_, err = h.Render("head", reports.ReportContext{})
	assert.Error(t, err)
}

func TestForFormat(t *testing.T) {
	r, err := ForFormat("", "c")
	require.NoError(t, err)
	assert.Equal(t, "pdf", r.Extension())

	r, err = ForFormat("HTML", "c")
	require.NoError(t, err)
	assert.Equal(t, "html", r.Extension())

	_, err = ForFormat("docx", "c")
	assert.Error(t, err)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "KDA_123A_01-06-2024.pdf", Filename("KDA 123A", "01-06-2024", "pdf"))
	assert.Equal(t, "a_b_c_2024.html", Filename("a/b:c", "2024", "html"))
	assert.Equal(t, "report_x.pdf", Filename("  ", "x", "pdf"))
}

func TestFilenameKeepsMultibyteNamesValid(t *testing.T) {
	name := Filename(strings.Repeat("a", 59)+"ũ", "2024-06-01", "pdf")
	assert.True(t, utf8.ValidString(name), "%q", name)
	assert.Equal(t, strings.Repeat("a", 59)+"_2024-06-01.pdf", name)

	fits := strings.Repeat("b", 58) + "ũ"
	assert.Equal(t, fits+"_2024-06-01.pdf", Filename(fits, "2024-06-01", "pdf"))
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "KES 0.00", money(0))
	assert.Equal(t, "KES 999.50", money(999.5))
	assert.Equal(t, "KES 1,234,567.89", money(1234567.889))
	assert.Equal(t, "-KES 1,000.00", money(-1000))
}
