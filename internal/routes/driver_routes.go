package routes

import (
	"github.com/gin-gonic/gin"
)

func DriverRoutes(api *gin.RouterGroup, d Deps) {
	dr := api.Group("/drivers")
	read := authed(d, allRoles...)
	write := authed(d, writeRoles...)
	{
		dr.GET("", read, d.Drivers.List)
		dr.GET("/:id", read, d.Drivers.Get)
		dr.GET("/:id/performance", read, d.Drivers.Performance)
		dr.POST("", write, d.Drivers.Create)
		dr.PUT("/:id", write, d.Drivers.Update)
		dr.POST("/:id/rate", write, d.Drivers.Rate)
		dr.DELETE("/:id", write, d.Drivers.Delete)
	}
}
