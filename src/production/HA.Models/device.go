package models

import (
	"fmt"
	"time"
)

// Device is the control-plane record for one embedded controller.
//
// Desired is the server-held target for the device's output channels. It is
// mutated only through the control endpoints; the device observes it by
// polling. LastSeen is stamped on every successful poll and doubles as a
// liveness signal.
type Device struct {
	DeviceID string     `json:"device_id" bson:"_id"`
	Name     string     `json:"name" bson:"name"`
	Desired  []bool     `json:"desired" bson:"desired"`
	LastSeen *time.Time `json:"last_seen,omitempty" bson:"last_seen,omitempty"`
}

// DeviceReport is an immutable snapshot of actual channel states as asserted
// by the device. Reports are append-only; they are never updated or deleted.
type DeviceReport struct {
	ReportID  string    `json:"report_id" bson:"_id"`
	DeviceID  string    `json:"device_id" bson:"device_id"`
	Channels  []bool    `json:"channels" bson:"channels"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// ChannelKey returns the wire name of a 1-based channel index ("ch1".."chN").
func ChannelKey(channel int) string {
	return fmt.Sprintf("ch%d", channel)
}

// ChannelMap converts a channel vector into its wire representation,
// {"ch1": bool, ..., "chN": bool}.
func ChannelMap(channels []bool) map[string]bool {
	m := make(map[string]bool, len(channels))
	for i, state := range channels {
		m[ChannelKey(i+1)] = state
	}
	return m
}
