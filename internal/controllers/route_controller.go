package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"matatu_manager/internal/models"
	"matatu_manager/internal/services"
	"matatu_manager/internal/store"
)

type RouteController struct {
	routes *services.RouteService
}

func NewRouteController(routes *services.RouteService) *RouteController {
	return &RouteController{routes: routes}
}

// routeResponse exposes the stored WKB line as GeoJSON.
type routeResponse struct {
	*models.Route
	Geometry json.RawMessage `json:"geometry,omitempty"`
}

func toRouteResponse(r *models.Route) routeResponse {
	out := routeResponse{Route: r}
	geometry, err := services.DecodeGeometry(r.Geometry)
	if err != nil {
		logrus.WithError(err).WithField("route_id", r.ID).Warn("toRouteResponse: stored geometry unreadable")
		return out
	}
	out.Geometry = geometry
	return out
}

type stagesInput struct {
	Stages []services.StageInput `json:"stages" binding:"required"`
}

func (h *RouteController) Create(c *gin.Context) {
	var input services.RouteInput
	if !bindJSON(c, &input) {
		return
	}
	route, err := h.routes.Create(c.Request.Context(), input)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toRouteResponse(route))
}

func (h *RouteController) List(c *gin.Context) {
	p, ok := page(c)
	if !ok {
		return
	}
	routes, err := h.routes.List(c.Request.Context(), store.RouteFilter{
		Status: models.RouteStatus(c.Query("status")),
		Page:   p,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	out := make([]routeResponse, 0, len(routes))
	for i := range routes {
		out = append(out, toRouteResponse(&routes[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *RouteController) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	route, err := h.routes.Get(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRouteResponse(route))
}

func (h *RouteController) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input services.RouteInput
	if !bindJSON(c, &input) {
		return
	}
	route, err := h.routes.Update(c.Request.Context(), id, input)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRouteResponse(route))
}

func (h *RouteController) ReplaceStages(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input stagesInput
	if !bindJSON(c, &input) {
		return
	}
	route, err := h.routes.ReplaceStages(c.Request.Context(), id, input.Stages)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRouteResponse(route))
}

func (h *RouteController) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	kept, err := h.routes.Delete(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	if kept {
		c.JSON(http.StatusOK, gin.H{"message": "Route has trips and was marked inactive"})
		return
	}
	c.Status(http.StatusNoContent)
}
