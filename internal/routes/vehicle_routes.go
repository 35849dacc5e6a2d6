package routes

import (
	"github.com/gin-gonic/gin"
)

func VehicleRoutes(api *gin.RouterGroup, d Deps) {
	v := api.Group("/vehicles")
	read := authed(d, allRoles...)
	write := authed(d, writeRoles...)
	{
		v.GET("", read, d.Vehicles.List)
		v.GET("/expiring", read, d.Vehicles.Expiring)
		v.GET("/:id", read, d.Vehicles.Get)
		v.POST("", write, d.Vehicles.Create)
		v.PUT("/:id", write, d.Vehicles.Update)
		v.DELETE("/:id", write, d.Vehicles.Delete)
	}
}
