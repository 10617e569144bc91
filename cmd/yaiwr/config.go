package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	yaiwr "github.com/softdevteam/pavel.yaiwr"
)

const (
	configFile  = ".yaiwr.yaml"
	configEnv   = "YAIWR_CONFIG"
	logLevelEnv = "YAIWR_LOG"
)

// Config is the user configuration read from ~/.yaiwr.yaml.
type Config struct {
	Prompt             string `yaml:"prompt"`
	ContinuationPrompt string `yaml:"continuation_prompt"`
	HistoryFile        string `yaml:"history_file"`
	Color              bool   `yaml:"color"`
	LogLevel           string `yaml:"log_level"`
	MaxCallDepth       int    `yaml:"max_call_depth"`
}

func defaultConfig() Config {
	return Config{
		Prompt:             "👉 ",
		ContinuationPrompt: "... ",
		HistoryFile:        "~/.yaiwr_history",
		Color:              true,
		LogLevel:           "warn",
		MaxCallDepth:       yaiwr.DefaultMaxCallDepth,
	}
}

// configPath picks the config file: an explicit path, then $YAIWR_CONFIG,
// then ~/.yaiwr.yaml.
func configPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p := os.Getenv(configEnv); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, configFile)
}

// loadConfig reads path over the defaults. A missing file is not an error
// unless the path was given explicitly.
func loadConfig(path string, explicit bool) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return defaultConfig(), fmt.Errorf("config: parse %s: %w", path, err)
	}
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return defaultConfig(), fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// encode renders cfg as YAML with two-space indentation.
func (c Config) encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("config: marshal: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("config: encoder close: %w", err)
	}
	return buf.Bytes(), nil
}

// historyPath expands a leading ~ in HistoryFile.
func (c Config) historyPath() string {
	p := c.HistoryFile
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// logger builds the stderr logger. $YAIWR_LOG overrides log_level.
func (c Config) logger(w io.Writer) (*slog.Logger, error) {
	name := c.LogLevel
	if env := os.Getenv(logLevelEnv); env != "" {
		name = env
	}
	level, err := parseLevel(name)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

func parseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", name)
}
