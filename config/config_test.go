package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.Addr() != ":8080" {
		t.Errorf("Addr = %q", cfg.Addr())
	}
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := Default()
	cfg.Port = 70000
	cfg.LogLevel = "loud"
	cfg.LogFormat = "xml"
	cfg.MaxConnections = -1

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hasty.json")
	data := `{"server":{"port":3000,"host":"127.0.0.1","timeout":{"read":"1s"}},"log":{"level":"debug"}}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HASTY_SERVER_PORT", "4000")
	t.Setenv("HASTY_CORS_ENABLED", "true")

	cfg, m, err := Load(path, "HASTY")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m == nil {
		t.Fatal("nil manager")
	}

	if cfg.Port != 4000 {
		t.Errorf("Port = %d, env should win", cfg.Port)
	}
	if cfg.Host != "127.0.0.1" || cfg.LogLevel != "debug" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.ReadTimeout != time.Second {
		t.Errorf("ReadTimeout = %v", cfg.ReadTimeout)
	}
	if !cfg.EnableCORS {
		t.Error("EnableCORS = false")
	}
	if cfg.WriteTimeout != Default().WriteTimeout {
		t.Errorf("WriteTimeout default lost: %v", cfg.WriteTimeout)
	}
	if cfg.Addr() != "127.0.0.1:4000" {
		t.Errorf("Addr = %q", cfg.Addr())
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, _, err := Load(filepath.Join(t.TempDir(), "nope.json"), "HASTY"); err == nil {
		t.Error("expected error for missing config file")
	}
}
