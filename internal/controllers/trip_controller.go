package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"matatu_manager/internal/models"
	"matatu_manager/internal/services"
)

type TripController struct {
	trips *services.TripService
}

func NewTripController(trips *services.TripService) *TripController {
	return &TripController{trips: trips}
}

func (h *TripController) Create(c *gin.Context) {
	var input services.TripInput
	if !bindJSON(c, &input) {
		return
	}
	trip, err := h.trips.Create(c.Request.Context(), input)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, trip)
}

func (h *TripController) List(c *gin.Context) {
	q := services.TripQuery{
		Status: models.TripStatus(c.Query("status")),
		Date:   c.Query("date"),
	}
	var ok bool
	if q.VehicleID, ok = queryID(c, "vehicle_id"); !ok {
		return
	}
	if q.DriverID, ok = queryID(c, "driver_id"); !ok {
		return
	}
	if q.RouteID, ok = queryID(c, "route_id"); !ok {
		return
	}
	if q.Skip, ok = queryInt(c, "skip", 0); !ok {
		return
	}
	if q.Limit, ok = queryInt(c, "limit", 100); !ok {
		return
	}
	trips, err := h.trips.List(c.Request.Context(), q)
	if err != nil {
		RespondError(c, err)
		return
	}
	if trips == nil {
		trips = []models.Trip{}
	}
	c.JSON(http.StatusOK, trips)
}

func (h *TripController) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	trip, err := h.trips.Get(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, trip)
}

func (h *TripController) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input services.TripInput
	if !bindJSON(c, &input) {
		return
	}
	trip, err := h.trips.Update(c.Request.Context(), id, input)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, trip)
}

func (h *TripController) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.trips.Delete(c.Request.Context(), id); err != nil {
		RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
