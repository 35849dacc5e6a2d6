package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"matatu_manager/internal/services"
	"matatu_manager/internal/store"
)

type DeficitController struct {
	deficits *services.DeficitService
}

func NewDeficitController(deficits *services.DeficitService) *DeficitController {
	return &DeficitController{deficits: deficits}
}

// List returns the matching entries with their balances.
func (h *DeficitController) List(c *gin.Context) {
	driverID, ok := queryID(c, "driver_id")
	if !ok {
		return
	}
	vehicleID, ok := queryID(c, "vehicle_id")
	if !ok {
		return
	}
	out, err := h.deficits.Summary(c.Request.Context(), store.DeficitFilter{DriverID: driverID, VehicleID: vehicleID})
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *DeficitController) Create(c *gin.Context) {
	var input services.DeficitInput
	if !bindJSON(c, &input) {
		return
	}
	d, err := h.deficits.Create(c.Request.Context(), input)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *DeficitController) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	d, err := h.deficits.Get(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *DeficitController) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.deficits.Delete(c.Request.Context(), id); err != nil {
		RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
