package routes

import (
	"github.com/gin-gonic/gin"
)

func ReportRoutes(api *gin.RouterGroup, d Deps) {
	read := authed(d, allRoles...)

	rp := api.Group("/reports", read)
	{
		rp.GET("/daily", d.Reports.DailySummaries)
		rp.GET("/daily/:vehicle_id/:date", d.Reports.DailySummary)

		rp.GET("/vehicles/:id", d.Reports.VehicleReport())
		rp.GET("/vehicles/:id/download", d.Reports.VehicleDownload())
		rp.GET("/vehicles/:id/trips/download", d.Reports.VehicleTripsDownload())
		rp.GET("/drivers/:id", d.Reports.DriverReport())
		rp.GET("/drivers/:id/download", d.Reports.DriverDownload())
		rp.GET("/drivers/:id/trips/download", d.Reports.DriverTripsDownload())
		rp.GET("/combined", d.Reports.CombinedReport())
		rp.GET("/combined/download", d.Reports.CombinedDownload())
	}

	dash := api.Group("/dashboard", read)
	{
		dash.GET("/overview/finances", d.Dashboard.Overview)
		dash.GET("/stats", d.Dashboard.Stats)
	}
}
