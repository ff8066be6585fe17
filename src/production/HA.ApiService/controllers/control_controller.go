package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Adewole2016/HOME-AUTOMATION/src/production/HA.ApiService/middleware"
	logger "github.com/Adewole2016/HOME-AUTOMATION/src/production/HA.Logger"
	models "github.com/Adewole2016/HOME-AUTOMATION/src/production/HA.Models"
	interfaces "github.com/Adewole2016/HOME-AUTOMATION/src/production/HA.Repository/Interfaces"
)

// ControlController handles operator mutations of desired state. Desired
// state changes only here; reports never touch it.
type ControlController struct {
	deviceRepo     interfaces.DeviceRepository
	logger         *logger.Logger
	authMiddleware *middleware.AuthMiddleware
	channels       int
	defaultName    string
}

// NewControlController creates a new control controller
func NewControlController(deviceRepo interfaces.DeviceRepository, logger *logger.Logger, authMiddleware *middleware.AuthMiddleware, channels int, defaultName string) *ControlController {
	return &ControlController{
		deviceRepo:     deviceRepo,
		logger:         logger.WithComponent("control"),
		authMiddleware: authMiddleware,
		channels:       channels,
		defaultName:    defaultName,
	}
}

// RegisterRoutes registers the control routes with Gin
func (c *ControlController) RegisterRoutes(router *gin.Engine) {
	device := router.Group("/device/:device_id", c.authMiddleware.Authenticate())
	{
		device.GET("/", c.GetDeviceSummary)
		device.POST("/toggle/:channel/", c.ToggleChannel)
		device.POST("/all/:action/", c.AllChannels)
	}
}

// GetDeviceSummary returns the device record plus its recent report history,
// the JSON equivalent of the operator dashboard. First contact from the
// control plane creates the device under the configured display name.
func (c *ControlController) GetDeviceSummary(ctx *gin.Context) {
	deviceID := ctx.Param("device_id")

	device, err := c.deviceRepo.GetOrCreateDevice(ctx, deviceID, c.defaultName)
	if err != nil {
		c.logger.ErrorWithError(err, "failed to load device")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	reports, err := c.deviceRepo.ListRecentReports(ctx, deviceID, interfaces.RecentReportLimit)
	if err != nil {
		c.logger.ErrorWithError(err, "failed to list reports")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"device_id": device.DeviceID,
		"name":      device.Name,
		"desired":   models.ChannelMap(device.Desired),
		"last_seen": device.LastSeen,
		"reports":   reportEntries(reports),
	})
}

// ToggleChannel flips exactly one desired channel and returns its new state
func (c *ControlController) ToggleChannel(ctx *gin.Context) {
	deviceID := ctx.Param("device_id")

	channel, err := strconv.Atoi(ctx.Param("channel"))
	if err != nil || channel < 1 || channel > c.channels {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel"})
		return
	}

	newState, err := c.deviceRepo.ToggleDesiredChannel(ctx, deviceID, channel)
	if err != nil {
		switch {
		case errors.Is(err, interfaces.ErrInvalidChannel):
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel"})
		case errors.Is(err, interfaces.ErrDeviceNotFound):
			ctx.JSON(http.StatusNotFound, gin.H{"error": "device not found"})
		default:
			c.logger.ErrorWithError(err, "failed to toggle channel")
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	username, _ := middleware.GetUsernameFromGinContext(ctx)
	c.logger.WithField("device_id", deviceID).WithField("channel", channel).
		WithField("operator", username).Info("channel toggled")

	ctx.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"channel":   channel,
		"new_state": newState,
	})
}

// AllChannels sets every desired channel to the same state. Only the exact
// word "on" (any case) means true; every other action string means false.
func (c *ControlController) AllChannels(ctx *gin.Context) {
	deviceID := ctx.Param("device_id")
	action := ctx.Param("action")

	state := strings.EqualFold(action, "on")

	if err := c.deviceRepo.SetAllDesiredChannels(ctx, deviceID, state); err != nil {
		if errors.Is(err, interfaces.ErrDeviceNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "device not found"})
			return
		}
		c.logger.ErrorWithError(err, "failed to set all channels")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	username, _ := middleware.GetUsernameFromGinContext(ctx)
	c.logger.WithField("device_id", deviceID).WithField("state", state).
		WithField("operator", username).Info("all channels set")

	ctx.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"new_state": state,
	})
}
