package controllers

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ToggleChannel_requires_operator_auth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/device/dev-1/toggle/1/", "", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodPost, "/device/dev-1/toggle/1/", "", "", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func Test_ToggleChannel_validates_channel_index(t *testing.T) {
	env := newTestEnv(t)
	token := env.operatorToken(t)

	for _, channel := range []string{"0", "5", "-1", "abc"} {
		w := env.do(http.MethodPost, "/device/dev-1/toggle/"+channel+"/", "", "", token)
		assert.Equal(t, http.StatusBadRequest, w.Code, "channel %q", channel)
	}
}

func Test_ToggleChannel_unknown_device(t *testing.T) {
	env := newTestEnv(t)
	token := env.operatorToken(t)

	w := env.do(http.MethodPost, "/device/ghost/toggle/1/", "", "", token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func Test_ToggleChannel_flips_one_bit_and_returns_new_state(t *testing.T) {
	env := newTestEnv(t)
	token := env.operatorToken(t)

	_, err := env.repo.GetOrCreateDevice(context.Background(), "dev-1", testDefaultName)
	require.NoError(t, err)

	w := env.do(http.MethodPost, "/device/dev-1/toggle/3/", "", "", token)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w.Body.Bytes())
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, float64(3), body["channel"])
	assert.Equal(t, true, body["new_state"])

	device, err := env.repo.GetOrCreateDevice(context.Background(), "dev-1", testDefaultName)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false, true, false}, device.Desired)

	// Toggling again restores the original state.
	w = env.do(http.MethodPost, "/device/dev-1/toggle/3/", "", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w.Body.Bytes())
	assert.Equal(t, false, body["new_state"])
}

func Test_ToggleChannel_rejects_wrong_method(t *testing.T) {
	env := newTestEnv(t)
	token := env.operatorToken(t)

	w := env.do(http.MethodGet, "/device/dev-1/toggle/1/", "", "", token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func Test_AllChannels_on_sets_everything_true(t *testing.T) {
	env := newTestEnv(t)
	token := env.operatorToken(t)

	_, err := env.repo.GetOrCreateDevice(context.Background(), "dev-1", testDefaultName)
	require.NoError(t, err)
	_, err = env.repo.ToggleDesiredChannel(context.Background(), "dev-1", 2)
	require.NoError(t, err)

	for _, action := range []string{"on", "ON", "On"} {
		w := env.do(http.MethodPost, "/device/dev-1/all/"+action+"/", "", "", token)
		require.Equal(t, http.StatusOK, w.Code)

		body := decodeBody(t, w.Body.Bytes())
		assert.Equal(t, "success", body["status"])
		assert.Equal(t, true, body["new_state"])
	}

	device, err := env.repo.GetOrCreateDevice(context.Background(), "dev-1", testDefaultName)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true, true, true}, device.Desired)
}

func Test_AllChannels_anything_but_on_means_off(t *testing.T) {
	env := newTestEnv(t)
	token := env.operatorToken(t)

	_, err := env.repo.GetOrCreateDevice(context.Background(), "dev-1", testDefaultName)
	require.NoError(t, err)

	// "ON " with a trailing space is not "on": binary fallback to off.
	actions := []string{"off", "OFF", url.PathEscape("ON "), "banana"}
	for _, action := range actions {
		require.NoError(t, env.repo.SetAllDesiredChannels(context.Background(), "dev-1", true))

		w := env.do(http.MethodPost, "/device/dev-1/all/"+action+"/", "", "", token)
		require.Equal(t, http.StatusOK, w.Code, "action %q", action)

		body := decodeBody(t, w.Body.Bytes())
		assert.Equal(t, false, body["new_state"], "action %q", action)

		device, err := env.repo.GetOrCreateDevice(context.Background(), "dev-1", testDefaultName)
		require.NoError(t, err)
		assert.Equal(t, []bool{false, false, false, false}, device.Desired, "action %q", action)
	}
}

func Test_AllChannels_unknown_device(t *testing.T) {
	env := newTestEnv(t)
	token := env.operatorToken(t)

	w := env.do(http.MethodPost, "/device/ghost/all/on/", "", "", token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func Test_GetDeviceSummary_creates_device_with_default_name(t *testing.T) {
	env := newTestEnv(t)
	token := env.operatorToken(t)

	w := env.do(http.MethodGet, "/device/dev-1/", "", "", token)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w.Body.Bytes())
	assert.Equal(t, "dev-1", body["device_id"])
	assert.Equal(t, testDefaultName, body["name"])
	assert.Empty(t, body["reports"])
}

// Full reconciliation round trip: unseen device polls, operator toggles,
// device observes the change, reports back, operator sees the report.
func Test_desired_and_reported_state_round_trip(t *testing.T) {
	env := newTestEnv(t)
	token := env.operatorToken(t)

	// Unseen device polls: all false, no history.
	w := env.do(http.MethodGet, "/api/device/DEV-7/desired/", "", testDeviceToken, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w.Body.Bytes())
	assert.Equal(t, false, body["desired"].(map[string]interface{})["ch3"])
	assert.Empty(t, body["reports"])

	// Operator toggles channel 3.
	w = env.do(http.MethodPost, "/device/DEV-7/toggle/3/", "", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeBody(t, w.Body.Bytes())["new_state"])

	// Device polls again and observes the new desired state.
	w = env.do(http.MethodGet, "/api/device/DEV-7/desired/", "", testDeviceToken, "")
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w.Body.Bytes())
	assert.Equal(t, true, body["desired"].(map[string]interface{})["ch3"])

	// Device reports the state it applied.
	w = env.do(http.MethodPost, "/api/device/DEV-7/report/", `{"ch3": true}`, testDeviceToken, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeBody(t, w.Body.Bytes())["ok"])

	// Operator's summary shows the report, ch3 true and the rest false.
	w = env.do(http.MethodGet, "/device/DEV-7/", "", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w.Body.Bytes())
	reports := body["reports"].([]interface{})
	require.Len(t, reports, 1)
	report := reports[0].(map[string]interface{})
	assert.Equal(t, true, report["ch3"])
	assert.Equal(t, false, report["ch1"])
	assert.Equal(t, false, report["ch2"])
	assert.Equal(t, false, report["ch4"])
}
