package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func envFromMap(values map[string]string) func(string) string {
	return func(key string) string {
		return values[key]
	}
}

func TestResolveEffectiveConfigPrecedence(t *testing.T) {
	nativeMerge := false
	fileCfg := &FileConfig{
		Database:    "/tmp/file.db",
		StageDir:    "/tmp/file-stage",
		Threads:     2,
		MemoryLimit: "1GB",
		CacheSize:   10,
		NativeMerge: &nativeMerge,
		LogLevel:    "warn",
		MetricsAddr: ":9001",
	}

	env := map[string]string{
		"SNOWDUCK_DATABASE":     "/tmp/env.db",
		"SNOWDUCK_STAGE_DIR":    "/tmp/env-stage",
		"SNOWDUCK_THREADS":      "4",
		"SNOWDUCK_MEMORY_LIMIT": "2GB",
		"SNOWDUCK_CACHE_SIZE":   "20",
		"SNOWDUCK_NATIVE_MERGE": "true",
		"SNOWDUCK_LOG_LEVEL":    "error",
		"SNOWDUCK_METRICS_ADDR": ":9002",
	}

	resolved := resolveEffectiveConfig(fileCfg, configCLIInputs{
		Set: map[string]bool{
			"db":           true,
			"stage-dir":    true,
			"threads":      true,
			"memory-limit": true,
			"cache-size":   true,
			"native-merge": true,
			"log-level":    true,
			"metrics-addr": true,
		},
		Database:    "/tmp/cli.db",
		StageDir:    "/tmp/cli-stage",
		Threads:     8,
		MemoryLimit: "4GB",
		CacheSize:   30,
		NativeMerge: false,
		LogLevel:    "debug",
		MetricsAddr: ":9003",
	}, envFromMap(env), nil)

	if resolved.Engine.Path != "/tmp/cli.db" {
		t.Errorf("database precedence mismatch: got %q", resolved.Engine.Path)
	}
	if resolved.Translator.StageDir != "/tmp/cli-stage" {
		t.Errorf("stage dir precedence mismatch: got %q", resolved.Translator.StageDir)
	}
	if resolved.Engine.Threads != 8 {
		t.Errorf("threads precedence mismatch: got %d", resolved.Engine.Threads)
	}
	if resolved.Engine.MemoryLimit != "4GB" {
		t.Errorf("memory limit precedence mismatch: got %q", resolved.Engine.MemoryLimit)
	}
	if resolved.Translator.CacheSize != 30 {
		t.Errorf("cache size precedence mismatch: got %d", resolved.Translator.CacheSize)
	}
	if resolved.Translator.NativeMerge {
		t.Error("native merge precedence mismatch: expected false")
	}
	if resolved.LogLevel != "debug" {
		t.Errorf("log level precedence mismatch: got %q", resolved.LogLevel)
	}
	if resolved.MetricsAddr != ":9003" {
		t.Errorf("metrics addr precedence mismatch: got %q", resolved.MetricsAddr)
	}
}

func TestResolveEffectiveConfigEnvOverFile(t *testing.T) {
	fileCfg := &FileConfig{Database: "/tmp/file.db", Threads: 2}
	env := map[string]string{"SNOWDUCK_DATABASE": "/tmp/env.db"}

	resolved := resolveEffectiveConfig(fileCfg, configCLIInputs{}, envFromMap(env), nil)

	if resolved.Engine.Path != "/tmp/env.db" {
		t.Errorf("env should override file: got %q", resolved.Engine.Path)
	}
	if resolved.Engine.Threads != 2 {
		t.Errorf("file value should survive when env unset: got %d", resolved.Engine.Threads)
	}
}

func TestResolveEffectiveConfigDefaults(t *testing.T) {
	resolved := resolveEffectiveConfig(nil, configCLIInputs{}, nil, nil)

	if resolved.Engine.Path != "" {
		t.Errorf("default database should be in-memory, got %q", resolved.Engine.Path)
	}
	if !resolved.Translator.NativeMerge {
		t.Error("native merge should default to true")
	}
	if resolved.Translator.CacheSize != 1024 {
		t.Errorf("default cache size = %d, want 1024", resolved.Translator.CacheSize)
	}
	if resolved.LogLevel != "info" {
		t.Errorf("default log level = %q, want info", resolved.LogLevel)
	}
}

func TestResolveEffectiveConfigWarnsOnBadEnv(t *testing.T) {
	var warnings []string
	env := map[string]string{
		"SNOWDUCK_THREADS":      "lots",
		"SNOWDUCK_NATIVE_MERGE": "maybe",
	}

	resolved := resolveEffectiveConfig(nil, configCLIInputs{}, envFromMap(env), func(msg string) {
		warnings = append(warnings, msg)
	})

	if len(warnings) != 2 {
		t.Fatalf("warnings = %v, want 2 entries", warnings)
	}
	if !strings.Contains(warnings[0], "SNOWDUCK_THREADS") {
		t.Errorf("warning missing variable name: %q", warnings[0])
	}
	if resolved.Engine.Threads != 0 {
		t.Errorf("invalid env should not change threads: got %d", resolved.Engine.Threads)
	}
	if !resolved.Translator.NativeMerge {
		t.Error("invalid env should not change native merge")
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `database: /tmp/test.db
stage_dir: /tmp/stage
threads: 4
memory_limit: 2GB
native_merge: false
log_level: debug
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfigFile(path)
	if err != nil {
		t.Fatalf("loadConfigFile error: %v", err)
	}
	if cfg.Database != "/tmp/test.db" || cfg.StageDir != "/tmp/stage" || cfg.Threads != 4 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.NativeMerge == nil || *cfg.NativeMerge {
		t.Errorf("native_merge not parsed: %v", cfg.NativeMerge)
	}
}

func TestLoadConfigFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("database: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfigFile(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestParseLogLevel(t *testing.T) {
	for _, level := range []string{"", "debug", "info", "warn", "warning", "error", "DEBUG"} {
		if _, err := parseLogLevel(level); err != nil {
			t.Errorf("parseLogLevel(%q) error: %v", level, err)
		}
	}
	if _, err := parseLogLevel("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestFormatValue(t *testing.T) {
	if got := formatValue(nil); got != "NULL" {
		t.Errorf("formatValue(nil) = %q", got)
	}
	if got := formatValue("x"); got != "x" {
		t.Errorf("formatValue(string) = %q", got)
	}
	if got := formatValue(int64(7)); got != "7" {
		t.Errorf("formatValue(int64) = %q", got)
	}
}
