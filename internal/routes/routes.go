package routes

import (
	"net/http"

	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"matatu_manager/internal/auth"
	"matatu_manager/internal/controllers"
	"matatu_manager/internal/logger"
	"matatu_manager/internal/middleware"
)

// Deps carries everything the router wires together.
type Deps struct {
	Tokens         *auth.Manager
	Redis          *redis.Client
	NewRelic       *newrelic.Application
	AllowedOrigins []string

	Auth      *controllers.AuthController
	Vehicles  *controllers.VehicleController
	Drivers   *controllers.DriverController
	Routes    *controllers.RouteController
	Trips     *controllers.TripController
	Reports   *controllers.ReportController
	Dashboard *controllers.DashboardController
	Deficits  *controllers.DeficitController
	Locations *controllers.LocationController
	Health    *controllers.HealthController
}

var (
	allRoles   = []string{"admin", "manager", "staff"}
	adminRoles = []string{"admin"}
	writeRoles = []string{"admin", "manager"}
)

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(ginlog.SetLogger(
		ginlog.WithLogger(func(c *gin.Context, l zerolog.Logger) zerolog.Logger {
			return l.Output(logger.Output()).With().Str("request_id", middleware.GetRequestID(c)).Logger()
		}),
		ginlog.WithSkipPath([]string{"/health"}),
	))
	r.Use(middleware.CORS(d.AllowedOrigins))
	if d.NewRelic != nil {
		r.Use(nrgin.Middleware(d.NewRelic))
	}

	r.GET("/health", d.Health.Health)
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "code": http.StatusNotFound, "message": "Not found"})
	})

	api := r.Group("/api")
	AuthRoutes(api, d)
	VehicleRoutes(api, d)
	DriverRoutes(api, d)
	FleetRoutes(api, d)
	ReportRoutes(api, d)
	WebSocketRoutes(r, api, d)

	return r
}

// authed requires a token carrying one of roles.
func authed(d Deps, roles ...string) gin.HandlerFunc {
	return middleware.RequireAuthWithRole(d.Tokens, roles...)
}
