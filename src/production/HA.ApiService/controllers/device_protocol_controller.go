package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Adewole2016/HOME-AUTOMATION/src/production/HA.ApiService/middleware"
	logger "github.com/Adewole2016/HOME-AUTOMATION/src/production/HA.Logger"
	models "github.com/Adewole2016/HOME-AUTOMATION/src/production/HA.Models"
	interfaces "github.com/Adewole2016/HOME-AUTOMATION/src/production/HA.Repository/Interfaces"
)

// DeviceProtocolController handles the polling contract a device runs
// against: fetch desired state, push a report. Both calls carry the shared
// device token.
//
// The server never reconciles desired and reported state itself. A device is
// expected to poll the desired endpoint on a fixed interval, drive its outputs
// to match, and report what it actually did; convergence is entirely the
// device's job.
type DeviceProtocolController struct {
	deviceRepo interfaces.DeviceRepository
	logger     *logger.Logger
	deviceAuth *middleware.DeviceAuthMiddleware
	channels   int
}

// NewDeviceProtocolController creates a new device protocol controller
func NewDeviceProtocolController(deviceRepo interfaces.DeviceRepository, logger *logger.Logger, deviceAuth *middleware.DeviceAuthMiddleware, channels int) *DeviceProtocolController {
	return &DeviceProtocolController{
		deviceRepo: deviceRepo,
		logger:     logger.WithComponent("device-protocol"),
		deviceAuth: deviceAuth,
		channels:   channels,
	}
}

// RegisterRoutes registers the device protocol routes with Gin
func (c *DeviceProtocolController) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/device/:device_id", c.deviceAuth.Authenticate())
	{
		api.GET("/desired/", c.GetDesiredState)
		api.POST("/report/", c.SubmitReport)
	}
}

// GetDesiredState is the device's poll primitive. It lazily creates the
// device on first contact, stamps last_seen, and returns the desired vector
// plus the recent report history.
func (c *DeviceProtocolController) GetDesiredState(ctx *gin.Context) {
	deviceID := ctx.Param("device_id")

	// First contact from the device itself names the record after the device.
	device, err := c.deviceRepo.GetOrCreateDevice(ctx, deviceID, deviceID)
	if err != nil {
		c.logger.ErrorWithError(err, "failed to load device")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	now := time.Now().UTC()
	if err := c.deviceRepo.TouchLastSeen(ctx, deviceID, now); err != nil {
		c.logger.ErrorWithError(err, "failed to stamp last_seen")
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
		"desired":   models.ChannelMap(device.Desired),
		"timestamp": now.Format(time.RFC3339),
		"reports":   reportEntries(reports),
	})
}

// SubmitReport appends an immutable reported-state snapshot. It never creates
// a device; only the desired-state poll does. Each call appends a new record
// even for identical payloads, preserving the time series.
func (c *DeviceProtocolController) SubmitReport(ctx *gin.Context) {
	deviceID := ctx.Param("device_id")

	var payload map[string]interface{}
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON"})
		return
	}

	// Absent channel keys read as false; unknown extra keys are ignored so
	// devices with fewer wired channels stay forward compatible.
	channels := make([]bool, c.channels)
	for i := 1; i <= c.channels; i++ {
		channels[i-1] = channelValue(payload[models.ChannelKey(i)])
	}

	report, err := c.deviceRepo.AppendReport(ctx, deviceID, channels)
	if err != nil {
		if errors.Is(err, interfaces.ErrDeviceNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "device not found"})
			return
		}
		c.logger.ErrorWithError(err, "failed to append report")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.logger.WithField("device_id", deviceID).Debug("report appended")

	ctx.JSON(http.StatusOK, gin.H{
		"ok":         true,
		"created_at": report.CreatedAt.Format(time.RFC3339),
	})
}

// channelValue coerces a decoded JSON value to a channel state: booleans as
// themselves, non-zero numbers and non-empty strings as true, null/absent as
// false.
func channelValue(v interface{}) bool {
	switch val := v.(type) {
	case bool:
		return val
	case float64:
		return val != 0
	case string:
		return val != ""
	case nil:
		return false
	default:
		return true
	}
}

// reportEntries renders reports for the wire: newest first, each with its
// timestamp and per-channel booleans.
func reportEntries(reports []models.DeviceReport) []gin.H {
	entries := make([]gin.H, 0, len(reports))
	for _, report := range reports {
		entry := gin.H{"created_at": report.CreatedAt.Format(time.RFC3339)}
		for key, state := range models.ChannelMap(report.Channels) {
			entry[key] = state
		}
		entries = append(entries, entry)
	}
	return entries
}
