package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"matatu_manager/internal/models"
	"matatu_manager/internal/services"
	"matatu_manager/internal/store"
)

type VehicleController struct {
	vehicles *services.VehicleService
}

func NewVehicleController(vehicles *services.VehicleService) *VehicleController {
	return &VehicleController{vehicles: vehicles}
}

func (h *VehicleController) Create(c *gin.Context) {
	var input services.VehicleInput
	if !bindJSON(c, &input) {
		return
	}
	vehicle, err := h.vehicles.Create(c.Request.Context(), input)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, vehicle)
}

func (h *VehicleController) List(c *gin.Context) {
	routeID, ok := queryID(c, "route_id")
	if !ok {
		return
	}
	p, ok := page(c)
	if !ok {
		return
	}
	vehicles, err := h.vehicles.List(c.Request.Context(), store.VehicleFilter{
		Status:  models.VehicleStatus(c.Query("status")),
		RouteID: routeID,
		Page:    p,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, vehicles)
}

func (h *VehicleController) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	vehicle, err := h.vehicles.Get(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, vehicle)
}

func (h *VehicleController) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input services.VehicleInput
	if !bindJSON(c, &input) {
		return
	}
	vehicle, err := h.vehicles.Update(c.Request.Context(), id, input)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, vehicle)
}

// Delete answers 200 with a message when the vehicle was only deactivated
// and 204 when it was removed.
func (h *VehicleController) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	kept, err := h.vehicles.Delete(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	if kept {
		c.JSON(http.StatusOK, gin.H{"message": "Vehicle has history and was marked inactive"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *VehicleController) Expiring(c *gin.Context) {
	days, ok := queryInt(c, "days", 30)
	if !ok {
		return
	}
	out, err := h.vehicles.Expiring(c.Request.Context(), days)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
