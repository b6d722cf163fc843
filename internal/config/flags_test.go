package config

import (
	"testing"
	"time"
)

func TestParseFlags_Defaults(t *testing.T) {
	cfg, err := ParseFlags([]string{"/some/pairs/dir"})
	if err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}
	if cfg.PairsPath != "/some/pairs/dir" {
		t.Errorf("PairsPath = %q, want /some/pairs/dir", cfg.PairsPath)
	}
	if cfg.Port != 2737 {
		t.Errorf("Port = %d, want 2737", cfg.Port)
	}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", cfg.Timeout)
	}
}

func TestParseFlags_MissingPairsPath(t *testing.T) {
	if _, err := ParseFlags(nil); err == nil {
		t.Fatal("ParseFlags() = nil error, want error for missing pairs_path")
	}
}

func TestParseFlags_OverridesAndInt32Flag(t *testing.T) {
	cfg, err := ParseFlags([]string{
		"--port", "8080",
		"--max-users-per-pipe", "12",
		"--timeout", "5s",
		"/pairs",
	})
	if err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.MaxUsersPerPipe != 12 {
		t.Errorf("MaxUsersPerPipe = %d, want 12", cfg.MaxUsersPerPipe)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.Timeout)
	}
}

func TestApplyDaemonDefaults_ZeroBecomesOne(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumProcesses = 0
	ApplyDaemonDefaults(cfg)
	if cfg.NumProcesses != 1 {
		t.Errorf("NumProcesses = %d, want 1", cfg.NumProcesses)
	}
}

func TestApplyDaemonDefaults_PositiveUnchanged(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumProcesses = 4
	ApplyDaemonDefaults(cfg)
	if cfg.NumProcesses != 4 {
		t.Errorf("NumProcesses = %d, want unchanged 4", cfg.NumProcesses)
	}
}
