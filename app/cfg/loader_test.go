package cfg

import (
	"testing"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestConfigFields(t *testing.T) {
	cfg := &Cfg{
		DBPath:            "./test.db",
		Port:              "8080",
		UserAgent:         "Test Agent",
		WorkerCount:       5,
		SchedulerInterval: 2100,
		PollLimit:         15,
		BackfillLimit:     5,
		Debug:             true,
	}

	if cfg.DBPath != "./test.db" {
		t.Errorf("Expected DB path './test.db', got '%s'", cfg.DBPath)
	}
	if cfg.Port != "8080" {
		t.Errorf("Expected port '8080', got '%s'", cfg.Port)
	}
	if cfg.WorkerCount != 5 {
		t.Errorf("Expected worker count 5, got %d", cfg.WorkerCount)
	}
	if cfg.SchedulerInterval != 2100 {
		t.Errorf("Expected scheduler interval 2100, got %d", cfg.SchedulerInterval)
	}
	if cfg.PollLimit != 15 {
		t.Errorf("Expected poll limit 15, got %d", cfg.PollLimit)
	}
	if cfg.BackfillLimit != 5 {
		t.Errorf("Expected backfill limit 5, got %d", cfg.BackfillLimit)
	}
	if !cfg.Debug {
		t.Error("Expected debug to be enabled")
	}
}
