package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/zlpkhr/hasty-server/config"
)

func TestRoutesCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"routes"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("routes: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	want := []string{
		"GET /",
		"GET /api/search",
		"GET /api/status",
		"GET /api/users/:id",
		"GET /api/users/:id/posts/:post",
		"GET /download/:name",
		"GET /files/:name",
		"POST /api/users",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d routes:\n%s", len(lines), out.String())
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestVersionShort(t *testing.T) {
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version", "--short"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out.String()) != version {
		t.Errorf("version = %q", out.String())
	}
}

func TestApplyFlagsOnlyChanged(t *testing.T) {
	cmd := serveCmd()
	if err := cmd.Flags().Parse([]string{"--port=3000", "--cors", "--s3-bucket=assets"}); err != nil {
		t.Fatal(err)
	}

	var f serveFlags
	f.port = 3000
	f.cors = true
	f.s3Bucket = "assets"
	f.logLevel = "debug" // not on the command line, must be ignored

	cfg := config.Default()
	applyFlags(cmd, &f, cfg)

	if cfg.Port != 3000 || !cfg.EnableCORS || cfg.S3Bucket != "assets" {
		t.Errorf("flags not applied: %+v", cfg)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, unchanged flag was applied", cfg.LogLevel)
	}
}
