package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.BusinessOpenHour != 8 || cfg.BusinessCloseHour != 17 {
		t.Errorf("unexpected business hours: %d-%d", cfg.BusinessOpenHour, cfg.BusinessCloseHour)
	}
	if cfg.SearchHorizon != 30 {
		t.Errorf("expected 30 day horizon, got %d", cfg.SearchHorizon)
	}
	if cfg.NoHeatEmergencyBelowF != 55 || cfg.NoCoolEmergencyAboveF != 85 {
		t.Errorf("unexpected triage thresholds: %d/%d", cfg.NoHeatEmergencyBelowF, cfg.NoCoolEmergencyAboveF)
	}
	if cfg.AppointmentBuffer != 15*time.Minute {
		t.Errorf("unexpected appointment buffer: %s", cfg.AppointmentBuffer)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BUSINESS_OPEN_HOUR", "7")
	t.Setenv("OPERATING_WEEKDAYS", "Mon,Wed,Sat")
	t.Setenv("APPOINTMENT_BUFFER", "30m")
	t.Setenv("ODOO_DRY_RUN", "true")

	cfg := Load()

	if cfg.BusinessOpenHour != 7 {
		t.Errorf("expected open hour 7, got %d", cfg.BusinessOpenHour)
	}
	if len(cfg.OperatingWeekdays) != 3 {
		t.Fatalf("expected 3 operating weekdays, got %v", cfg.OperatingWeekdays)
	}
	if cfg.OperatingWeekdays[2] != time.Saturday {
		t.Errorf("expected Saturday, got %s", cfg.OperatingWeekdays[2])
	}
	if cfg.AppointmentBuffer != 30*time.Minute {
		t.Errorf("expected 30m buffer, got %s", cfg.AppointmentBuffer)
	}
	if !cfg.OdooDryRun {
		t.Error("expected dry run enabled")
	}
}

func TestParseWeekdaysFallback(t *testing.T) {
	days := parseWeekdays("notaday")
	if len(days) != 5 || days[0] != time.Monday {
		t.Fatalf("expected weekday fallback, got %v", days)
	}
}
