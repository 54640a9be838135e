package util

import (
	"testing"
	"time"
)

func TestParseBoolEnv(t *testing.T) {
	t.Setenv("TW_TEST_BOOL", "yes")
	if !ParseBoolEnv("TW_TEST_BOOL", false) {
		t.Error("yes should parse as true")
	}
	t.Setenv("TW_TEST_BOOL", "off")
	if ParseBoolEnv("TW_TEST_BOOL", true) {
		t.Error("off should parse as false")
	}
	t.Setenv("TW_TEST_BOOL", "maybe")
	if !ParseBoolEnv("TW_TEST_BOOL", true) {
		t.Error("invalid value should fall back to default")
	}
	if ParseBoolEnv("TW_TEST_BOOL_UNSET", false) {
		t.Error("unset variable should fall back to default")
	}
}

func TestParseFloatEnv(t *testing.T) {
	t.Setenv("TW_TEST_FLOAT", "0.25")
	if got := ParseFloatEnv("TW_TEST_FLOAT", 1); got != 0.25 {
		t.Errorf("got %v, want 0.25", got)
	}
	t.Setenv("TW_TEST_FLOAT", "wide")
	if got := ParseFloatEnv("TW_TEST_FLOAT", 1.5); got != 1.5 {
		t.Errorf("invalid value: got %v, want default", got)
	}
}

func TestParseDurationEnv(t *testing.T) {
	t.Setenv("TW_TEST_DUR", "90s")
	if got := ParseDurationEnv("TW_TEST_DUR", time.Minute); got != 90*time.Second {
		t.Errorf("got %v, want 90s", got)
	}
	t.Setenv("TW_TEST_DUR", "soon")
	if got := ParseDurationEnv("TW_TEST_DUR", time.Minute); got != time.Minute {
		t.Errorf("invalid value: got %v, want default", got)
	}
}

func TestParseTimeOfDay(t *testing.T) {
	hour, minute, err := ParseTimeOfDay("09:30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hour != 9 || minute != 30 {
		t.Errorf("got %d:%d, want 9:30", hour, minute)
	}
	if _, _, err := ParseTimeOfDay("25:00"); err == nil {
		t.Error("expected an error for an invalid clock time")
	}
}
