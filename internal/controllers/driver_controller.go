package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"matatu_manager/internal/models"
	"matatu_manager/internal/services"
	"matatu_manager/internal/store"
)

type DriverController struct {
	drivers *services.DriverService
	reports *services.ReportService
}

func NewDriverController(drivers *services.DriverService, reports *services.ReportService) *DriverController {
	return &DriverController{drivers: drivers, reports: reports}
}

type rateInput struct {
	Rating *float64 `json:"rating" binding:"required"`
}

func (h *DriverController) Create(c *gin.Context) {
	var input services.DriverInput
	if !bindJSON(c, &input) {
		return
	}
	driver, err := h.drivers.Create(c.Request.Context(), input)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, driver)
}

func (h *DriverController) List(c *gin.Context) {
	p, ok := page(c)
	if !ok {
		return
	}
	drivers, err := h.drivers.List(c.Request.Context(), store.DriverFilter{
		Status: models.DriverStatus(c.Query("status")),
		Page:   p,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, drivers)
}

func (h *DriverController) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	driver, err := h.drivers.Get(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, driver)
}

func (h *DriverController) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input services.DriverInput
	if !bindJSON(c, &input) {
		return
	}
	driver, err := h.drivers.Update(c.Request.Context(), id, input)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, driver)
}

func (h *DriverController) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	kept, err := h.drivers.Delete(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	if kept {
		c.JSON(http.StatusOK, gin.H{"message": "Driver has history and was marked inactive"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DriverController) Rate(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input rateInput
	if !bindJSON(c, &input) {
		return
	}
	driver, err := h.drivers.Rate(c.Request.Context(), id, *input.Rating)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, driver)
}

func (h *DriverController) Performance(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	perf, err := h.reports.DriverPerformance(c.Request.Context(), id, c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, perf)
}
