package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/sirupsen/logrus"

	"matatu_manager/internal/auth"
	"matatu_manager/internal/config"
	"matatu_manager/internal/controllers"
	"matatu_manager/internal/logger"
	"matatu_manager/internal/routes"
	"matatu_manager/internal/services"
	"matatu_manager/internal/store"
)

func main() {
	cfg := config.Load()
	logger.Setup(cfg.Log.File, cfg.Log.Level)
	gin.SetMode(cfg.Server.GinMode)

	db, err := config.InitDB(cfg.Database)
	if err != nil {
		logrus.WithError(err).Fatal("Database setup failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb, err := config.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logrus.WithError(err).Fatal("Redis setup failed")
	}
	var denylist auth.Denylist = auth.NewMemoryDenylist()
	if rdb != nil {
		denylist = auth.NewRedisDenylist(rdb)
		defer rdb.Close()
	} else {
		logrus.Warn("REDIS_ADDR not set, using in-memory token denylist and no idempotency cache")
	}

	var app *newrelic.Application
	if cfg.NewRelic.Enabled {
		app, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logrus.WithError(err).Warn("New Relic disabled")
			app = nil
		}
	}

	loc := cfg.Reports.Location()
	st := store.New(db, loc)
	tokens := auth.NewManager(cfg.Auth.Secret, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL, denylist)

	vehicles := services.NewVehicleService(st.Vehicles, st.Routes)
	drivers := services.NewDriverService(st.Drivers)
	routeSvc := services.NewRouteService(st.Routes)
	trips := services.NewTripService(st.Trips, st.Vehicles, st.Drivers, st.Routes, loc)
	reports := services.NewReportService(st.Trips, st.Vehicles, st.Drivers, st.Routes, st.Summaries, loc, cfg.Reports.CompanyName)
	dashboard := services.NewDashboardService(reports, vehicles)
	deficits := services.NewDeficitService(st.Deficits, st.Vehicles, st.Drivers)
	users := services.NewUserService(st.Users, tokens)
	locations := services.NewLocationService(st.Locations, st.Drivers, st.Trips)

	hub := controllers.NewLocationHub()

	router := routes.SetupRouter(routes.Deps{
		Tokens:         tokens,
		Redis:          rdb,
		NewRelic:       app,
		AllowedOrigins: cfg.Server.AllowedOrigins,

		Auth:      controllers.NewAuthController(users),
		Vehicles:  controllers.NewVehicleController(vehicles),
		Drivers:   controllers.NewDriverController(drivers, reports),
		Routes:    controllers.NewRouteController(routeSvc),
		Trips:     controllers.NewTripController(trips),
		Reports:   controllers.NewReportController(reports),
		Dashboard: controllers.NewDashboardController(dashboard),
		Deficits:  controllers.NewDeficitController(deficits),
		Locations: controllers.NewLocationController(locations, hub, cfg.Server.AllowedOrigins),
		Health:    controllers.NewHealthController(st),
	})

	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logrus.Infof("Server running at %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Server stopped")
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Graceful shutdown failed")
	}
	hub.Close()
	if app != nil {
		app.Shutdown(5 * time.Second)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
