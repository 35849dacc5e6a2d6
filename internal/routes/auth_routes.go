package routes

import (
	"github.com/gin-gonic/gin"
)

func AuthRoutes(api *gin.RouterGroup, d Deps) {
	a := api.Group("/auth")
	{
		a.POST("/register", d.Auth.Register)
		a.POST("/login", d.Auth.Login)
		a.POST("/refresh", d.Auth.Refresh)
		a.POST("/logout", authed(d, allRoles...), d.Auth.Logout)
		a.GET("/me", authed(d, allRoles...), d.Auth.Me)
		a.PUT("/me", authed(d, allRoles...), d.Auth.UpdateMe)
		a.GET("/users", authed(d, adminRoles...), d.Auth.ListUsers)
	}
}
