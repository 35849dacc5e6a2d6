// Package reports turns raw trips into the figures every dashboard, JSON
// report and document download is built from.
package reports

import (
	"fmt"
	"strings"
	"time"

	"matatu_manager/internal/apperr"
	"matatu_manager/internal/models"
)

// Each endpoint accepts exactly one of these layouts.
const (
	ISODate  = "2006-01-02"
	DayFirst = "02-01-2006"
)

// DateRange is an inclusive span of calendar dates.
type DateRange struct {
	Start models.Date `json:"start_date"`
	End   models.Date `json:"end_date"`
}

// Resolve turns optional textual bounds into a concrete range ending no later
// than today. Missing bounds default to a trailing window of windowDays.
func Resolve(startStr, endStr string, today time.Time, layout string, windowDays int) (DateRange, error) {
	if windowDays < 1 {
		windowDays = 1
	}
	now := models.NewDate(today)

	start, hasStart, err := parseBound("start_date", startStr, layout)
	if err != nil {
		return DateRange{}, err
	}
	end, hasEnd, err := parseBound("end_date", endStr, layout)
	if err != nil {
		return DateRange{}, err
	}

	if !hasEnd || end.After(now.Time) {
		end = now
	}
	if !hasStart {
		start = models.Date{Time: end.AddDate(0, 0, -(windowDays - 1))}
	}
	if start.After(now.Time) {
		start = now
	}

	if end.Before(start.Time) {
		return DateRange{}, apperr.Validation("invalid_date_range",
			fmt.Sprintf("end_date %s is before start_date %s", end.Format(layout), start.Format(layout)))
	}
	return DateRange{Start: start, End: end}, nil
}

func parseBound(field, s, layout string) (models.Date, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return models.Date{}, false, nil
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return models.Date{}, false, apperr.ValidationError{
			Kind:  "invalid_date_format",
			Field: field,
			Msg:   fmt.Sprintf("%s must use the %s format", field, humanLayout(layout)),
			Err:   err,
		}
	}
	return models.NewDate(t), true, nil
}

func humanLayout(layout string) string {
	switch layout {
	case ISODate:
		return "YYYY-MM-DD"
	case DayFirst:
		return "DD-MM-YYYY"
	}
	return layout
}

// Days is the inclusive number of days in the range, 0 when End precedes Start.
func (r DateRange) Days() int {
	if r.Start.IsZero() || r.End.IsZero() || r.End.Before(r.Start.Time) {
		return 0
	}
	return int(r.End.Sub(r.Start.Time).Hours()/24) + 1
}

// Bounds returns the half-open instant interval [from, to) the range covers in loc.
func (r DateRange) Bounds(loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	from := time.Date(r.Start.Year(), r.Start.Month(), r.Start.Day(), 0, 0, 0, 0, loc)
	to := time.Date(r.End.Year(), r.End.Month(), r.End.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)
	return from, to
}

// Contains reports whether the calendar date falls inside the range.
func (r DateRange) Contains(d models.Date) bool {
	return !d.Before(r.Start.Time) && !d.After(r.End.Time)
}

// Format renders both bounds in layout.
func (r DateRange) Format(layout string) (string, string) {
	return r.Start.Format(layout), r.End.Format(layout)
}
