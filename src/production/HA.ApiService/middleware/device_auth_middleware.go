package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// DeviceAuthMiddleware authenticates device-protocol calls against the shared
// device token. The secret is injected at construction; it is never read from
// ambient process state.
type DeviceAuthMiddleware struct {
	sharedToken string
}

// DeviceTokenHeader is the header a device presents its token in. The token
// may alternatively arrive as a "token" query parameter, for firmware HTTP
// clients that cannot set headers.
const DeviceTokenHeader = "X-DEVICE-TOKEN"

// NewDeviceAuthMiddleware creates a device auth middleware for the given
// shared secret
func NewDeviceAuthMiddleware(sharedToken string) *DeviceAuthMiddleware {
	return &DeviceAuthMiddleware{sharedToken: sharedToken}
}

// Authenticate verifies the device token on every request
func (m *DeviceAuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(DeviceTokenHeader)
		if token == "" {
			token = c.Query("token")
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(m.sharedToken)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		c.Next()
	}
}
