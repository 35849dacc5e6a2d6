package routes

import (
	"github.com/gin-gonic/gin"
)

func WebSocketRoutes(r *gin.Engine, api *gin.RouterGroup, d Deps) {
	read := authed(d, allRoles...)

	ws := r.Group("/ws")
	{
		ws.GET("/location", read, d.Locations.HandleLocationWebSocket)
	}

	loc := api.Group("/locations", read)
	{
		loc.GET("/drivers", d.Locations.LatestLocations)
		loc.GET("/drivers/:id/history", d.Locations.History)
	}
}
