package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"matatu_manager/internal/reports"
	"matatu_manager/internal/services"
)

const reportWindowDays = 30

type ReportController struct {
	reports *services.ReportService
}

func NewReportController(reports *services.ReportService) *ReportController {
	return &ReportController{reports: reports}
}

// request reads the ids and date bounds shared by every report endpoint.
// JSON reports take ISO dates, downloads take DD-MM-YYYY.
func (h *ReportController) request(c *gin.Context, scope reports.Scope, layout string) (services.ReportRequest, bool) {
	req := services.ReportRequest{
		Scope:     scope,
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
		Layout:    layout,
		Window:    reportWindowDays,
	}
	switch scope {
	case reports.ScopeVehicle, reports.ScopeVehicleTrips:
		id, ok := pathID(c, "id")
		if !ok {
			return req, false
		}
		req.VehicleIDs = []uuid.UUID{id}
	case reports.ScopeDriver, reports.ScopeDriverTrips:
		id, ok := pathID(c, "id")
		if !ok {
			return req, false
		}
		req.DriverIDs = []uuid.UUID{id}
	default:
		var ok bool
		if req.VehicleIDs, ok = queryIDs(c, "vehicle_ids"); !ok {
			return req, false
		}
		if req.DriverIDs, ok = queryIDs(c, "driver_ids"); !ok {
			return req, false
		}
	}
	return req, true
}

func (h *ReportController) report(scope reports.Scope) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, ok := h.request(c, scope, reports.ISODate)
		if !ok {
			return
		}
		rc, err := h.reports.Build(c.Request.Context(), req)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, rc)
	}
}

func (h *ReportController) download(scope reports.Scope) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, ok := h.request(c, scope, reports.DayFirst)
		if !ok {
			return
		}
		doc, err := h.reports.Download(c.Request.Context(), req, c.Query("format"))
		if err != nil {
			RespondError(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", doc.Filename))
		c.Data(http.StatusOK, doc.ContentType, doc.Body)
	}
}

func (h *ReportController) VehicleReport() gin.HandlerFunc  { return h.report(reports.ScopeVehicle) }
func (h *ReportController) DriverReport() gin.HandlerFunc   { return h.report(reports.ScopeDriver) }
func (h *ReportController) CombinedReport() gin.HandlerFunc { return h.report(reports.ScopeCombined) }

func (h *ReportController) VehicleDownload() gin.HandlerFunc {
	return h.download(reports.ScopeVehicle)
}

func (h *ReportController) VehicleTripsDownload() gin.HandlerFunc {
	return h.download(reports.ScopeVehicleTrips)
}

func (h *ReportController) DriverDownload() gin.HandlerFunc {
	return h.download(reports.ScopeDriver)
}

func (h *ReportController) DriverTripsDownload() gin.HandlerFunc {
	return h.download(reports.ScopeDriverTrips)
}

func (h *ReportController) CombinedDownload() gin.HandlerFunc {
	return h.download(reports.ScopeCombined)
}

func (h *ReportController) DailySummary(c *gin.Context) {
	id, ok := pathID(c, "vehicle_id")
	if !ok {
		return
	}
	sum, err := h.reports.DailySummary(c.Request.Context(), id, c.Param("date"), queryBool(c, "regenerate"))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (h *ReportController) DailySummaries(c *gin.Context) {
	vehicleID, ok := queryID(c, "vehicle_id")
	if !ok {
		return
	}
	driverID, ok := queryID(c, "driver_id")
	if !ok {
		return
	}
	rows, err := h.reports.DailySummaries(c.Request.Context(), c.Query("start_date"), c.Query("end_date"), vehicleID, driverID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}
