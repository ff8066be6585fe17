package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Adewole2016/HOME-AUTOMATION/src/production/HA.ApiService/controllers"
	authService "github.com/Adewole2016/HOME-AUTOMATION/src/production/HA.ApiService/implementation/auth"
	jwt "github.com/Adewole2016/HOME-AUTOMATION/src/production/HA.ApiService/implementation/jwt"
	authMiddleware "github.com/Adewole2016/HOME-AUTOMATION/src/production/HA.ApiService/middleware"
	container "github.com/Adewole2016/HOME-AUTOMATION/src/production/HA.Container"
	api_models "github.com/Adewole2016/HOME-AUTOMATION/src/production/HA.Models/api"
)

func main() {
	// Initialize dependency injection container
	ctr, err := container.NewContainer()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize container: %v", err))
	}
	defer ctr.Shutdown(context.Background())

	logger := ctr.GetLogger()
	logger.Info("Starting home automation control plane")

	config := ctr.GetConfig()

	// Initialize the store backend
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := ctr.InitializeStore(ctx); err != nil {
		logger.FatalWithError(err, "Failed to initialize store")
	}

	deviceRepo, err := ctr.GetDeviceRepository()
	if err != nil {
		logger.FatalWithError(err, "Failed to initialize device repository")
	}

	healthChecker, err := ctr.GetHealthChecker()
	if err != nil {
		logger.FatalWithError(err, "Failed to initialize health checker")
	}

	// Initialize JWT service for operator tokens
	jwtConfig := api_models.Config{
		SecretKey:            config.Auth.JWTSecretKey,
		AccessTokenDuration:  config.Auth.AccessTokenDuration,
		RefreshTokenDuration: config.Auth.RefreshTokenDuration,
		Issuer:               config.Auth.JWTIssuer,
	}
	jwtService := jwt.NewService(jwtConfig)

	// Initialize the operator auth collaborator
	operatorService, err := authService.NewOperatorService(authService.AdminConfig{
		Username: config.Auth.Admin.Username,
		Password: config.Auth.Admin.Password,
	}, jwtService)
	if err != nil {
		logger.FatalWithError(err, "Failed to initialize operator service")
	}

	// Create middlewares
	operatorMiddleware := authMiddleware.NewAuthMiddleware(jwtService, authMiddleware.DefaultConfig())
	deviceMiddleware := authMiddleware.NewDeviceAuthMiddleware(config.Device.SharedToken)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// A request with the wrong method on a known path is a validation error
	router.HandleMethodNotAllowed = true
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "POST required"})
	})

	// Configure CORS from config
	corsConfig := cors.Config{
		AllowOrigins:     config.CORS.AllowedOrigins,
		AllowMethods:     config.CORS.AllowedMethods,
		AllowHeaders:     config.CORS.AllowedHeaders,
		ExposeHeaders:    config.CORS.ExposedHeaders,
		AllowCredentials: config.CORS.AllowCredentials,
		MaxAge:           time.Duration(config.CORS.MaxAge) * time.Second,
	}
	router.Use(cors.New(corsConfig))

	// Create controllers and register routes
	authController := controllers.NewAuthController(operatorService)
	deviceProtocolController := controllers.NewDeviceProtocolController(deviceRepo, logger, deviceMiddleware, config.Device.ChannelCount)
	controlController := controllers.NewControlController(deviceRepo, logger, operatorMiddleware, config.Device.ChannelCount, config.Device.DefaultName)
	healthController := controllers.NewHealthController(healthChecker, logger)

	authController.RegisterRoutes(router)
	deviceProtocolController.RegisterRoutes(router)
	controlController.RegisterRoutes(router)
	healthController.RegisterRoutes(router)

	// Create HTTP server with timeouts
	port := config.Server.Port
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  config.Server.ReadTimeout,
		WriteTimeout: config.Server.WriteTimeout,
		IdleTimeout:  config.Server.IdleTimeout,
	}

	// Start HTTP server in a goroutine
	go func() {
		logger.Info("HTTP server starting on port " + port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.FatalWithError(err, "Failed to start HTTP server")
		}
	}()

	logger.Info("Control plane running... press Ctrl+C to stop")

	// Wait for shutdown signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("Shutting down...")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorWithError(err, "Server forced to shutdown")
	}
}
