package config

import (
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestIntFromEnv(t *testing.T) {
	t.Setenv("CFG_TEST_INT", "42")
	if got := intFromEnv("CFG_TEST_INT", 7); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
	t.Setenv("CFG_TEST_INT", "forty-two")
	if got := intFromEnv("CFG_TEST_INT", 7); got != 7 {
		t.Fatalf("expected default 7 for invalid value, got %d", got)
	}
	if got := intFromEnv("CFG_TEST_INT_UNSET", 9); got != 9 {
		t.Fatalf("expected default 9 for unset key, got %d", got)
	}
}

func TestFeatureFlags(t *testing.T) {
	t.Setenv("ALLOW_TERMINAL_ORDER_EDITS", "")
	if AllowTerminalOrderEdits() {
		t.Fatalf("terminal edits must be locked by default")
	}
	t.Setenv("ALLOW_TERMINAL_ORDER_EDITS", "Yes")
	if !AllowTerminalOrderEdits() {
		t.Fatalf("expected terminal edits allowed when flag is set")
	}

	t.Setenv("ORDER_EVENTS_ENABLED", "true")
	t.Setenv("PUBSUB_TOPIC", "")
	if OrderEventsEnabled() {
		t.Fatalf("events need a topic to be enabled")
	}
	t.Setenv("PUBSUB_TOPIC", "order-events")
	if !OrderEventsEnabled() {
		t.Fatalf("expected events enabled")
	}

	t.Setenv("DEFAULT_PHONE_REGION", "")
	if got := DefaultPhoneRegion(); got != "ID" {
		t.Fatalf("expected default region ID, got %s", got)
	}
}

func TestDatabaseDSN(t *testing.T) {
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_NAME", "distribution")

	dsn := DatabaseDSN()
	if !strings.HasPrefix(dsn, "app:pw@tcp(127.0.0.1:3306)/distribution?") {
		t.Fatalf("unexpected dsn %q", dsn)
	}
	if !strings.Contains(dsn, "parseTime=true") {
		t.Fatalf("dsn must enable parseTime: %q", dsn)
	}

	t.Setenv("DB_HOST", "/cloudsql/proj:region:instance")
	dsn = DatabaseDSN()
	if !strings.Contains(dsn, "@unix(/cloudsql/proj:region:instance)/") {
		t.Fatalf("expected unix socket dsn, got %q", dsn)
	}
}

func TestLevelFromEnv(t *testing.T) {
	if got := levelFromEnv(""); got != logrus.ErrorLevel {
		t.Fatalf("expected error level by default, got %v", got)
	}
	if got := levelFromEnv("info"); got != logrus.InfoLevel {
		t.Fatalf("expected info level, got %v", got)
	}
	if got := levelFromEnv("loud"); got != logrus.ErrorLevel {
		t.Fatalf("expected error level for invalid input, got %v", got)
	}
}

func TestRedisHelpersWithoutClient(t *testing.T) {
	SetRedisClient(nil)
	if GetRedisLock() != nil {
		t.Fatalf("no lock client without redis")
	}
	if err := SetRedisObject("k", map[string]int{"a": 1}, 0); err != nil {
		t.Fatalf("SetRedisObject: %v", err)
	}
	var dest map[string]int
	if found, err := GetRedisObject("k", &dest); found || err != nil {
		t.Fatalf("expected a miss, got found=%v err=%v", found, err)
	}
	if n, err := GetRedisCounter(ctx, "seq"); n != 0 || err != nil {
		t.Fatalf("expected 0, got %d (%v)", n, err)
	}
	if err := RemoveRedisKey("k"); err != nil {
		t.Fatalf("RemoveRedisKey: %v", err)
	}
}
