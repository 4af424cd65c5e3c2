package config

import (
	"os"
	"strings"
)

// AllowTerminalOrderEdits re-opens item/discount/tax edits on COMPLETED and CANCELED orders.
//
// Set via env:
// - ALLOW_TERMINAL_ORDER_EDITS=true
func AllowTerminalOrderEdits() bool {
	return boolFromEnv("ALLOW_TERMINAL_ORDER_EDITS")
}

// OrderEventsEnabled turns on Pub/Sub publishing of order status changes.
//
// Set via env:
// - ORDER_EVENTS_ENABLED=true (also requires PUBSUB_TOPIC)
func OrderEventsEnabled() bool {
	return boolFromEnv("ORDER_EVENTS_ENABLED") && strings.TrimSpace(os.Getenv("PUBSUB_TOPIC")) != ""
}

// DefaultPhoneRegion is the region used to parse phone numbers without a country prefix.
func DefaultPhoneRegion() string {
	if v := strings.ToUpper(strings.TrimSpace(os.Getenv("DEFAULT_PHONE_REGION"))); v != "" {
		return v
	}
	return "ID"
}

// SkipMigrations disables AutoMigrate on startup (run cmd tools or a job instead).
func SkipMigrations() bool {
	return boolFromEnv("SKIP_MIGRATIONS")
}
