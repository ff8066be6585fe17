package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	models "github.com/Adewole2016/HOME-AUTOMATION/src/production/HA.Models"
)

func decodeBody(t *testing.T, body []byte) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func Test_GetDesiredState_rejects_missing_or_wrong_token(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/device/dev-1/desired/", "", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodGet, "/api/device/dev-1/desired/", "", "wrong-token", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func Test_GetDesiredState_accepts_token_query_parameter(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/device/dev-1/desired/?token="+testDeviceToken, "", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func Test_GetDesiredState_creates_unseen_device_all_false(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/device/dev-1/desired/", "", testDeviceToken, "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w.Body.Bytes())
	assert.Equal(t, "dev-1", body["device_id"])
	assert.NotEmpty(t, body["timestamp"])

	desired := body["desired"].(map[string]interface{})
	assert.Len(t, desired, testChannels)
	for ch := 1; ch <= testChannels; ch++ {
		assert.Equal(t, false, desired[models.ChannelKey(ch)])
	}

	assert.Empty(t, body["reports"])
}

func Test_GetDesiredState_stamps_last_seen(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/device/dev-1/desired/", "", testDeviceToken, "")
	require.Equal(t, http.StatusOK, w.Code)

	device, err := env.repo.GetOrCreateDevice(context.Background(), "dev-1", "ignored")
	require.NoError(t, err)
	assert.NotNil(t, device.LastSeen)
}

func Test_SubmitReport_rejects_unknown_device(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/device/ghost/report/", `{"ch1": true}`, testDeviceToken, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func Test_SubmitReport_rejects_malformed_json(t *testing.T) {
	env := newTestEnv(t)

	env.do(http.MethodGet, "/api/device/dev-1/desired/", "", testDeviceToken, "")

	w := env.do(http.MethodPost, "/api/device/dev-1/report/", `{not json`, testDeviceToken, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func Test_SubmitReport_missing_keys_read_false_and_extras_are_ignored(t *testing.T) {
	env := newTestEnv(t)

	env.do(http.MethodGet, "/api/device/dev-1/desired/", "", testDeviceToken, "")

	// ch2 absent, ch9 beyond the deployment's channel count, plus a stray key.
	w := env.do(http.MethodPost, "/api/device/dev-1/report/", `{"ch1": true, "ch3": true, "ch9": true, "firmware": "1.2.0"}`, testDeviceToken, "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w.Body.Bytes())
	assert.Equal(t, true, body["ok"])
	assert.NotEmpty(t, body["created_at"])

	reports, err := env.repo.ListRecentReports(context.Background(), "dev-1", 10)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, []bool{true, false, true, false}, reports[0].Channels)
}

func Test_SubmitReport_coerces_truthy_values(t *testing.T) {
	env := newTestEnv(t)

	env.do(http.MethodGet, "/api/device/dev-1/desired/", "", testDeviceToken, "")

	w := env.do(http.MethodPost, "/api/device/dev-1/report/", `{"ch1": 1, "ch2": "on", "ch3": 0, "ch4": null}`, testDeviceToken, "")
	require.Equal(t, http.StatusOK, w.Code)

	reports, err := env.repo.ListRecentReports(context.Background(), "dev-1", 10)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, []bool{true, true, false, false}, reports[0].Channels)
}

func Test_poll_returns_recent_reports_newest_first(t *testing.T) {
	env := newTestEnv(t)

	env.do(http.MethodGet, "/api/device/dev-1/desired/", "", testDeviceToken, "")

	for i := 0; i < 12; i++ {
		payload := `{"ch1": false}`
		if i == 11 {
			payload = `{"ch1": true}`
		}
		w := env.do(http.MethodPost, "/api/device/dev-1/report/", payload, testDeviceToken, "")
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := env.do(http.MethodGet, "/api/device/dev-1/desired/", "", testDeviceToken, "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w.Body.Bytes())
	reports := body["reports"].([]interface{})
	require.Len(t, reports, 10)

	newest := reports[0].(map[string]interface{})
	assert.Equal(t, true, newest["ch1"])
	assert.NotEmpty(t, newest["created_at"])
}
