package main

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Build variables - set by ldflags during build.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

func main() {
	var configPath string
	var inputPath string
	var dbPath string
	var serve bool
	var showVersion bool

	flag.StringVar(&configPath, "config", "", "config file (default is $HOME/.config/sift/config.yml)")
	flag.StringVar(&inputPath, "input", "", "log file to analyze (\"-\" reads stdin)")
	flag.StringVar(&dbPath, "db", "", "DuckDB path for results (default is in-memory)")
	flag.BoolVar(&serve, "serve", false, "keep serving the HTTP API after analysis")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.Parse()

	if showVersion {
		fmt.Printf("Sift - Log Normalization & Event Correlation\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildTime)
		fmt.Printf("  Go version: %s\n", goVersion)
		return
	}

	if inputPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -input is required (use \"-\" for stdin)")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	cfg.InputPath = inputPath
	cfg.Serve = serve
	if dbPath != "" {
		cfg.DBPath = dbPath
	}

	if err := runAnalysis(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(configPath string) (appConfig, error) {
	var cfg appConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("SIFT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("db-path", "")
	v.SetDefault("api-port", defaultAPIPort)
	v.SetDefault("query-timeout", defaultQueryTimeout)
	v.SetDefault("anchor-year", 0)
	v.SetDefault("drain-depth", defaultDrainDepth)
	v.SetDefault("drain-similarity", defaultDrainSimilarity)
	v.SetDefault("drain-max-children", defaultDrainChildren)
	v.SetDefault("threat-window", defaultThreatWindow)
	v.SetDefault("threat-threshold", defaultThreatThreshold)
	v.SetDefault("session-dedupe-window", defaultDedupeWindow)
	v.SetDefault("session-stale-after", defaultStaleAfter)
	v.SetDefault("prefilter-enabled", false)
	v.SetDefault("classify-tables", "")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		defaultConfigPath := filepath.Join(home, ".config", "sift", "config.yml")
		v.SetConfigFile(defaultConfigPath)
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	cfg.ConfigPath = v.ConfigFileUsed()
	if cfg.APIPort <= 0 || cfg.APIPort > 65535 {
		return cfg, fmt.Errorf("invalid api-port: %d", cfg.APIPort)
	}
	if cfg.DrainSimilarity <= 0 || cfg.DrainSimilarity >= 1 {
		return cfg, fmt.Errorf("invalid drain-similarity: %v (must be in (0, 1))", cfg.DrainSimilarity)
	}
	if cfg.ThreatThreshold <= 0 {
		return cfg, fmt.Errorf("invalid threat-threshold: %d", cfg.ThreatThreshold)
	}

	// Expand ~ in db-path
	if strings.HasPrefix(cfg.DBPath, "~/") {
		cfg.DBPath = filepath.Join(home, cfg.DBPath[2:])
	}

	if cfg.APIAddr == "" {
		cfg.APIAddr = net.JoinHostPort(defaultBindHost, strconv.Itoa(cfg.APIPort))
	}

	return cfg, nil
}
