package routes

import (
	"github.com/gin-gonic/gin"

	"matatu_manager/internal/middleware"
)

// FleetRoutes registers matatu routes, trips and deficits.
func FleetRoutes(api *gin.RouterGroup, d Deps) {
	read := authed(d, allRoles...)
	write := authed(d, writeRoles...)

	rt := api.Group("/routes")
	{
		rt.GET("", read, d.Routes.List)
		rt.GET("/:id", read, d.Routes.Get)
		rt.POST("", write, d.Routes.Create)
		rt.PUT("/:id", write, d.Routes.Update)
		rt.PATCH("/:id/stages", write, d.Routes.ReplaceStages)
		rt.DELETE("/:id", write, d.Routes.Delete)
	}

	t := api.Group("/trips")
	{
		t.GET("", read, d.Trips.List)
		t.GET("/:id", read, d.Trips.Get)
		t.POST("", read, middleware.Idempotency(d.Redis), d.Trips.Create)
		t.PUT("/:id", read, d.Trips.Update)
		t.DELETE("/:id", authed(d, adminRoles...), d.Trips.Delete)
	}

	df := api.Group("/deficits")
	{
		df.GET("", read, d.Deficits.List)
		df.GET("/:id", read, d.Deficits.Get)
		df.POST("", read, middleware.Idempotency(d.Redis), d.Deficits.Create)
		df.DELETE("/:id", write, d.Deficits.Delete)
	}
}
