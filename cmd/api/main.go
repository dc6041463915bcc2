package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/address-classifier/app/bootstrap"
	"github.com/address-classifier/app/config"
	"github.com/address-classifier/app/controllers"
	"github.com/address-classifier/app/services"
	"github.com/address-classifier/helpers/logger"
	"github.com/address-classifier/internal/metrics"
	"github.com/address-classifier/routes"
)

func main() {
	// Load configuration
	if err := config.LoadDotEnv(); err != nil {
		panic(err)
	}
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// Initialize logger
	log, err := logger.New(cfg.App.Env, cfg.Log.Level)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	log.Info("Starting Address Classifier Service...",
		zap.String("env", cfg.App.Env),
		zap.String("parser_driver", cfg.Parser.Driver),
		zap.String("cache_driver", cfg.Cache.Driver))

	ctx := context.Background()
	m := metrics.New()

	comps, err := bootstrap.Build(ctx, cfg, m, log)
	if err != nil {
		log.Fatal("Failed to initialize components", zap.Error(err))
	}

	// Initialize services
	serviceOpts := []services.AddressServiceOption{services.WithMaxAddresses(cfg.Batch.MaxAddresses)}
	if comps.Gazetteer != nil {
		serviceOpts = append(serviceOpts, services.WithCityVerifier(comps.Gazetteer))
	}
	addressService := services.NewAddressService(comps.Pipeline, log, serviceOpts...)
	adminService := services.NewAdminService(comps.Cache, addressService, log)

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	routes.SetupAllRoutes(router, routes.Handlers{
		Address: controllers.NewAddressController(addressService, log),
		Admin:   controllers.NewAdminController(adminService, log),
		Health:  controllers.NewHealthController(comps.Checks),
	}, m, log)

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Starting HTTP server", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Give outstanding requests a deadline for completion
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	addressService.Close()
	if err := comps.Close(shutdownCtx); err != nil {
		log.Error("Failed to close components", zap.Error(err))
	}

	log.Info("Server exited")
}
