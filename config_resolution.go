package main

import (
	"strconv"

	"github.com/hupe1980/snowduck/engine"
	"github.com/hupe1980/snowduck/translator"
)

// configCLIInputs carries flag values plus which flags were explicitly set,
// so unset flags don't clobber file or environment configuration.
type configCLIInputs struct {
	Set map[string]bool

	Database    string
	StageDir    string
	Threads     int
	MemoryLimit string
	CacheSize   int
	NativeMerge bool
	LogLevel    string
	LogFile     string
	MetricsAddr string
}

type resolvedConfig struct {
	Engine     engine.Config
	Translator translator.Config

	LogLevel    string
	LogFile     string
	MetricsAddr string
}

func defaultResolvedConfig() resolvedConfig {
	return resolvedConfig{
		Engine:     engine.Config{},
		Translator: translator.DefaultConfig(),
		LogLevel:   "info",
	}
}

// resolveEffectiveConfig merges configuration sources with ascending
// precedence: built-in defaults, config file, environment, CLI flags.
func resolveEffectiveConfig(fileCfg *FileConfig, cli configCLIInputs, getenv func(string) string, warn func(string)) resolvedConfig {
	if getenv == nil {
		getenv = func(string) string { return "" }
	}
	if warn == nil {
		warn = func(string) {}
	}
	if cli.Set == nil {
		cli.Set = map[string]bool{}
	}

	cfg := defaultResolvedConfig()

	if fileCfg != nil {
		if fileCfg.Database != "" {
			cfg.Engine.Path = fileCfg.Database
		}
		if fileCfg.StageDir != "" {
			cfg.Translator.StageDir = fileCfg.StageDir
		}
		if fileCfg.Threads != 0 {
			cfg.Engine.Threads = fileCfg.Threads
		}
		if fileCfg.MemoryLimit != "" {
			cfg.Engine.MemoryLimit = fileCfg.MemoryLimit
		}
		if fileCfg.CacheSize != 0 {
			cfg.Translator.CacheSize = fileCfg.CacheSize
		}
		if fileCfg.NativeMerge != nil {
			cfg.Translator.NativeMerge = *fileCfg.NativeMerge
		}
		if fileCfg.LogLevel != "" {
			cfg.LogLevel = fileCfg.LogLevel
		}
		if fileCfg.LogFile != "" {
			cfg.LogFile = fileCfg.LogFile
		}
		if fileCfg.MetricsAddr != "" {
			cfg.MetricsAddr = fileCfg.MetricsAddr
		}
	}

	if v := getenv("SNOWDUCK_DATABASE"); v != "" {
		cfg.Engine.Path = v
	}
	if v := getenv("SNOWDUCK_STAGE_DIR"); v != "" {
		cfg.Translator.StageDir = v
	}
	if v := getenv("SNOWDUCK_THREADS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.Threads = n
		} else {
			warn("Invalid SNOWDUCK_THREADS: " + err.Error())
		}
	}
	if v := getenv("SNOWDUCK_MEMORY_LIMIT"); v != "" {
		cfg.Engine.MemoryLimit = v
	}
	if v := getenv("SNOWDUCK_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Translator.CacheSize = n
		} else {
			warn("Invalid SNOWDUCK_CACHE_SIZE: " + err.Error())
		}
	}
	if v := getenv("SNOWDUCK_NATIVE_MERGE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Translator.NativeMerge = b
		} else {
			warn("Invalid SNOWDUCK_NATIVE_MERGE: " + err.Error())
		}
	}
	if v := getenv("SNOWDUCK_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := getenv("SNOWDUCK_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := getenv("SNOWDUCK_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}

	if cli.Set["db"] {
		cfg.Engine.Path = cli.Database
	}
	if cli.Set["stage-dir"] {
		cfg.Translator.StageDir = cli.StageDir
	}
	if cli.Set["threads"] {
		cfg.Engine.Threads = cli.Threads
	}
	if cli.Set["memory-limit"] {
		cfg.Engine.MemoryLimit = cli.MemoryLimit
	}
	if cli.Set["cache-size"] {
		cfg.Translator.CacheSize = cli.CacheSize
	}
	if cli.Set["native-merge"] {
		cfg.Translator.NativeMerge = cli.NativeMerge
	}
	if cli.Set["log-level"] {
		cfg.LogLevel = cli.LogLevel
	}
	if cli.Set["log-file"] {
		cfg.LogFile = cli.LogFile
	}
	if cli.Set["metrics-addr"] {
		cfg.MetricsAddr = cli.MetricsAddr
	}

	return cfg
}
