package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func Test_Config_Defaults_When_Missing(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "none.yaml"), false)
	if err != nil {
		t.Fatalf("missing implicit config must not fail: %v", err)
	}
	if cfg != defaultConfig() {
		t.Fatalf("want defaults, got %+v", cfg)
	}
}

func Test_Config_Missing_Explicit_Fails(t *testing.T) {
	if _, err := loadConfig(filepath.Join(t.TempDir(), "none.yaml"), true); err == nil {
		t.Fatalf("explicit missing config must fail")
	}
}

func Test_Config_Overrides(t *testing.T) {
	p := writeFile(t, t.TempDir(), "c.yaml", "prompt: '> '\ncolor: false\nmax_call_depth: 64\nlog_level: debug\n")
	cfg, err := loadConfig(p, true)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Prompt != "> " || cfg.Color || cfg.MaxCallDepth != 64 || cfg.LogLevel != "debug" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.ContinuationPrompt != defaultConfig().ContinuationPrompt {
		t.Fatalf("unset fields must keep defaults: %+v", cfg)
	}
}

func Test_Config_Empty_File(t *testing.T) {
	p := writeFile(t, t.TempDir(), "c.yaml", "")
	cfg, err := loadConfig(p, true)
	if err != nil || cfg != defaultConfig() {
		t.Fatalf("empty file: %+v %v", cfg, err)
	}
}

func Test_Config_Unknown_Field_Rejected(t *testing.T) {
	p := writeFile(t, t.TempDir(), "c.yaml", "promt: oops\n")
	if _, err := loadConfig(p, true); err == nil || !strings.Contains(err.Error(), "promt") {
		t.Fatalf("want unknown field error, got %v", err)
	}
}

func Test_Config_Bad_Log_Level(t *testing.T) {
	p := writeFile(t, t.TempDir(), "c.yaml", "log_level: loud\n")
	if _, err := loadConfig(p, true); err == nil {
		t.Fatalf("want log level error")
	}
}

func Test_Config_Path_Resolution(t *testing.T) {
	t.Setenv(configEnv, "/from/env.yaml")
	if got := configPath("/explicit.yaml"); got != "/explicit.yaml" {
		t.Fatalf("explicit: %s", got)
	}
	if got := configPath(""); got != "/from/env.yaml" {
		t.Fatalf("env: %s", got)
	}
}

func Test_Config_Logger_Env_Override(t *testing.T) {
	t.Setenv(logLevelEnv, "debug")
	var buf bytes.Buffer
	logger, err := defaultConfig().logger(&buf)
	if err != nil {
		t.Fatal(err)
	}
	logger.Debug("probe")
	if !strings.Contains(buf.String(), "msg=probe") {
		t.Fatalf("debug record missing: %q", buf.String())
	}
}

func Test_Config_Parse_Level(t *testing.T) {
	cases := map[string]slog.Level{"": slog.LevelWarn, "INFO": slog.LevelInfo, "error": slog.LevelError}
	for in, want := range cases {
		got, err := parseLevel(in)
		if err != nil || got != want {
			t.Fatalf("%q: got %v %v", in, got, err)
		}
	}
}

func Test_Config_Encode_Round_Trip(t *testing.T) {
	data, err := defaultConfig().encode()
	if err != nil {
		t.Fatal(err)
	}
	p := writeFile(t, t.TempDir(), "c.yaml", string(data))
	cfg, err := loadConfig(p, true)
	if err != nil {
		t.Fatal(err)
	}
	if cfg != defaultConfig() {
		t.Fatalf("round trip: %+v", cfg)
	}
}

func Test_Config_History_Path_Expands_Home(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	cfg := defaultConfig()
	if got := cfg.historyPath(); got != filepath.Join(home, ".yaiwr_history") {
		t.Fatalf("got %s", got)
	}
}
