package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/snowduck/engine"
)

// FileConfig represents the YAML configuration file structure.
type FileConfig struct {
	Database    string `yaml:"database"`
	StageDir    string `yaml:"stage_dir"`
	Threads     int    `yaml:"threads"`
	MemoryLimit string `yaml:"memory_limit"`
	CacheSize   int    `yaml:"cache_size"`
	NativeMerge *bool  `yaml:"native_merge"`
	LogLevel    string `yaml:"log_level"`
	LogFile     string `yaml:"log_file"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// loadConfigFile loads configuration from a YAML file.
func loadConfigFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &cfg, nil
}

// env returns the environment variable value or a default.
func env(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func main() {
	configFile := flag.String("config", env("SNOWDUCK_CONFIG", ""), "Path to YAML config file (env: SNOWDUCK_CONFIG)")

	var cli configCLIInputs
	flag.StringVar(&cli.Database, "db", "", "Database file, empty for in-memory (env: SNOWDUCK_DATABASE)")
	flag.StringVar(&cli.StageDir, "stage-dir", "", "Local directory backing @stage references (env: SNOWDUCK_STAGE_DIR)")
	flag.IntVar(&cli.Threads, "threads", 0, "DuckDB worker threads (env: SNOWDUCK_THREADS)")
	flag.StringVar(&cli.MemoryLimit, "memory-limit", "", "DuckDB memory limit, e.g. 4GB (env: SNOWDUCK_MEMORY_LIMIT)")
	flag.IntVar(&cli.CacheSize, "cache-size", 0, "Rewrite cache entries, 0 disables (env: SNOWDUCK_CACHE_SIZE)")
	flag.BoolVar(&cli.NativeMerge, "native-merge", true, "Execute MERGE natively instead of decomposing (env: SNOWDUCK_NATIVE_MERGE)")
	flag.StringVar(&cli.LogLevel, "log-level", "", "Log level: debug, info, warn, error (env: SNOWDUCK_LOG_LEVEL)")
	flag.StringVar(&cli.LogFile, "log-file", "", "Additional log sink file (env: SNOWDUCK_LOG_FILE)")
	flag.StringVar(&cli.MetricsAddr, "metrics-addr", "", "Address to serve Prometheus metrics on, e.g. :9090 (env: SNOWDUCK_METRICS_ADDR)")
	execute := flag.String("execute", "", "Run the given statements and exit instead of starting the shell")
	showHelp := flag.Bool("help", false, "Show help message")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Snowduck - Snowflake SQL shell on DuckDB\n\n")
		fmt.Fprintf(os.Stderr, "Usage: snowduck [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nPrecedence: CLI flags > environment variables > config file > defaults\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	cli.Set = map[string]bool{}
	flag.Visit(func(f *flag.Flag) { cli.Set[f.Name] = true })

	var fileCfg *FileConfig
	if *configFile != "" {
		loaded, err := loadConfigFile(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config file: %v\n", err)
			os.Exit(1)
		}
		fileCfg = loaded
	}

	cfg := resolveEffectiveConfig(fileCfg, cli, os.Getenv, func(msg string) {
		fmt.Fprintln(os.Stderr, "Warning: "+msg)
	})

	shutdownLogging, err := initLogging(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer shutdownLogging()

	if fileCfg != nil {
		slog.Info("Loaded configuration file.", "path", *configFile)
	}

	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			slog.Info("Serving metrics.", "addr", cfg.MetricsAddr)
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				slog.Error("Metrics listener failed.", "error", err)
			}
		}()
	}

	eng, err := engine.Open(cfg.Engine)
	if err != nil {
		slog.Error("Failed to open engine.", "error", err)
		os.Exit(1)
	}
	defer func() { _ = eng.Close() }()

	if *execute != "" {
		if err := runScript(eng, cfg.Translator, *execute); err != nil {
			slog.Error("Execution failed.", "error", err)
			os.Exit(1)
		}
		return
	}

	runShell(eng, cfg.Translator)
}
