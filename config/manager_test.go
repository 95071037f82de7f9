package config

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestManagerTypedGetters(t *testing.T) {
	m := NewManager()
	m.Set("name", "hasty")
	m.Set("port", "8080")
	m.Set("ratio", 0.5)
	m.Set("debug", "yes")
	m.Set("timeout", "250ms")
	m.Set("hosts", "a,b")

	if got := m.GetString("name"); got != "hasty" {
		t.Errorf("GetString = %q", got)
	}
	if got := m.GetInt("port"); got != 8080 {
		t.Errorf("GetInt = %d", got)
	}
	if got := m.GetFloat("ratio"); got != 0.5 {
		t.Errorf("GetFloat = %v", got)
	}
	if !m.GetBool("debug") {
		t.Error("GetBool = false")
	}
	if got := m.GetDuration("timeout"); got != 250*time.Millisecond {
		t.Errorf("GetDuration = %v", got)
	}
	if got := m.GetStringSlice("hosts"); len(got) != 2 || got[1] != "b" {
		t.Errorf("GetStringSlice = %v", got)
	}
	if got := m.GetInt("missing", 7); got != 7 {
		t.Errorf("default = %d", got)
	}
}

func TestManagerWatchFiresOnChangeOnly(t *testing.T) {
	m := NewManager()
	var calls int
	m.Watch("cors.enabled", func(key string, value any) {
		calls++
		if key != "cors.enabled" {
			t.Errorf("key = %q", key)
		}
	})

	m.Set("cors.enabled", true)
	m.Set("cors.enabled", true)
	m.Set("cors.enabled", false)
	m.Set("other", 1)

	if calls != 2 {
		t.Errorf("watcher calls = %d, want 2", calls)
	}
}

func TestManagerWatcherCanReadManager(t *testing.T) {
	m := NewManager()
	var seen any
	m.Watch("k", func(key string, _ any) {
		seen, _ = m.Get(key)
	})
	m.Set("k", "v")
	if seen != "v" {
		t.Errorf("seen = %v", seen)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HASTY_SERVER_PORT", "9090")
	t.Setenv("HASTY_CORS_ENABLED", "true")
	t.Setenv("HASTYX_IGNORED", "1")

	m := NewManager()
	m.LoadFromEnv("HASTY")

	if got := m.GetInt("server.port"); got != 9090 {
		t.Errorf("server.port = %d", got)
	}
	if !m.GetBool("cors.enabled") {
		t.Error("cors.enabled not loaded")
	}
	if _, ok := m.Get("ignored"); ok {
		t.Error("variable without the prefix separator was loaded")
	}
}

func TestLoadFromJSONFlattens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hasty.json")
	data := `{"server":{"port":3000,"timeout":{"read":"2s"}},"cors":{"enabled":true}}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	m := NewManager()
	if err := m.LoadFromJSON(path); err != nil {
		t.Fatalf("LoadFromJSON: %v", err)
	}

	if got := m.GetInt("server.port"); got != 3000 {
		t.Errorf("server.port = %d", got)
	}
	if got := m.GetDuration("server.timeout.read"); got != 2*time.Second {
		t.Errorf("server.timeout.read = %v", got)
	}
	if !m.GetBool("cors.enabled") {
		t.Error("cors.enabled = false")
	}
}

func TestLoadFromJSONErrors(t *testing.T) {
	m := NewManager()
	if err := m.LoadFromJSON(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	os.WriteFile(path, []byte("{not json"), 0644)
	if err := m.LoadFromJSON(path); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestUnmarshalDurations(t *testing.T) {
	m := NewManager()
	m.Set("server.timeout.read", "3s")
	m.Set("server.timeout.write", 5.0)
	m.Set("server.port", "81")

	cfg := Default()
	if err := m.Apply(cfg); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if cfg.ReadTimeout != 3*time.Second {
		t.Errorf("ReadTimeout = %v", cfg.ReadTimeout)
	}
	if cfg.WriteTimeout != 5*time.Second {
		t.Errorf("WriteTimeout = %v", cfg.WriteTimeout)
	}
	if cfg.Port != 81 {
		t.Errorf("Port = %d", cfg.Port)
	}
}

func TestUnmarshalRejectsBadValues(t *testing.T) {
	m := NewManager()
	m.Set("server.port", "eighty")
	if err := m.Apply(Default()); err == nil {
		t.Error("expected error for non-numeric port")
	}

	var notStruct int
	if err := m.Unmarshal("", &notStruct); err == nil {
		t.Error("expected error for non-struct target")
	}
}

func TestSaveToJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	m := NewManager()
	m.Set("log.level", "debug")
	if err := m.SaveToJSON(path); err != nil {
		t.Fatalf("SaveToJSON: %v", err)
	}

	other := NewManager()
	if err := other.LoadFromJSON(path); err != nil {
		t.Fatal(err)
	}
	// keys are saved flat, so the dotted key survives as a single segment
	if got := other.GetString("log.level"); got != "debug" {
		t.Errorf("log.level = %q", got)
	}
}

func TestDeleteAndClear(t *testing.T) {
	m := NewManager()
	m.Set("a", 1)
	m.Set("b", 2)
	m.Delete("a")
	if _, ok := m.Get("a"); ok {
		t.Error("a still present")
	}
	if len(m.GetAll()) != 1 {
		t.Errorf("GetAll = %v", m.GetAll())
	}
	m.Clear()
	if len(m.GetAll()) != 0 {
		t.Error("Clear left values")
	}
}

func TestWatchFileReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hasty.json")
	if err := os.WriteFile(path, []byte(`{"cors":{"enabled":false}}`), 0644); err != nil {
		t.Fatal(err)
	}

	m := NewManager()
	if err := m.LoadFromJSON(path); err != nil {
		t.Fatal(err)
	}

	var enabled atomic.Bool
	changed := make(chan struct{}, 1)
	m.Watch("cors.enabled", func(_ string, v any) {
		b, _ := v.(bool)
		enabled.Store(b)
		select {
		case changed <- struct{}{}:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.WatchFile(ctx, path) }()

	// Give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte(`{"cors":{"enabled":true}}`), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not fire after file write")
	}
	if !enabled.Load() {
		t.Error("cors.enabled not reloaded")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("WatchFile returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("WatchFile did not return after cancel")
	}
}
