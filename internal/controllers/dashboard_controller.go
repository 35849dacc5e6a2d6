package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"matatu_manager/internal/services"
)

type DashboardController struct {
	dashboard *services.DashboardService
}

func NewDashboardController(dashboard *services.DashboardService) *DashboardController {
	return &DashboardController{dashboard: dashboard}
}

func (h *DashboardController) Overview(c *gin.Context) {
	out, err := h.dashboard.Overview(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *DashboardController) Stats(c *gin.Context) {
	days, ok := queryInt(c, "days", 30)
	if !ok {
		return
	}
	out, err := h.dashboard.Stats(c.Request.Context(), days)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
