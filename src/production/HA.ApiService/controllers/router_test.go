package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	auth "github.com/Adewole2016/HOME-AUTOMATION/src/production/HA.ApiService/implementation/auth"
	jwt "github.com/Adewole2016/HOME-AUTOMATION/src/production/HA.ApiService/implementation/jwt"
	"github.com/Adewole2016/HOME-AUTOMATION/src/production/HA.ApiService/middleware"
	config "github.com/Adewole2016/HOME-AUTOMATION/src/production/HA.Config"
	logger "github.com/Adewole2016/HOME-AUTOMATION/src/production/HA.Logger"
	api_models "github.com/Adewole2016/HOME-AUTOMATION/src/production/HA.Models/api"
	implementation "github.com/Adewole2016/HOME-AUTOMATION/src/production/HA.Repository/Implementation"
)

const (
	testChannels    = 4
	testDeviceToken = "test-device-token"
	testAdminUser   = "admin"
	testAdminPass   = "test-password"
	testDefaultName = "Home Device Controller"
)

// testEnv wires the full endpoint surface over the in-memory repository.
type testEnv struct {
	router *gin.Engine
	repo   *implementation.MemoryDeviceRepository
	jwt    *jwt.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.NewLogger(&config.LoggingConfig{Level: "error", Format: "json", Output: "stdout"})
	repo := implementation.NewMemoryDeviceRepository(testChannels)

	jwtService := jwt.NewService(jwtConfig())
	operatorService, err := auth.NewOperatorService(auth.AdminConfig{
		Username: testAdminUser,
		Password: testAdminPass,
	}, jwtService)
	require.NoError(t, err)

	operatorMiddleware := middleware.NewAuthMiddleware(jwtService, middleware.DefaultConfig())
	deviceMiddleware := middleware.NewDeviceAuthMiddleware(testDeviceToken)

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "POST required"})
	})

	NewAuthController(operatorService).RegisterRoutes(router)
	NewDeviceProtocolController(repo, log, deviceMiddleware, testChannels).RegisterRoutes(router)
	NewControlController(repo, log, operatorMiddleware, testChannels, testDefaultName).RegisterRoutes(router)

	return &testEnv{router: router, repo: repo, jwt: jwtService}
}

func jwtConfig() api_models.Config {
	return api_models.Config{
		SecretKey:            "test-jwt-secret",
		AccessTokenDuration:  15 * time.Minute,
		RefreshTokenDuration: time.Hour,
		Issuer:               "home-automation-test",
	}
}

func (e *testEnv) operatorToken(t *testing.T) string {
	t.Helper()
	tokens, err := e.jwt.GenerateTokens(testAdminUser)
	require.NoError(t, err)
	return tokens.AccessToken
}

// do runs a request against the test router. A non-empty deviceToken goes in
// the X-DEVICE-TOKEN header; a non-empty bearer token in Authorization.
func (e *testEnv) do(method, target, body, deviceToken, bearer string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if deviceToken != "" {
		req.Header.Set(middleware.DeviceTokenHeader, deviceToken)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}
