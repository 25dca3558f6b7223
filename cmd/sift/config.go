package main

import (
	"time"

	"github.com/tinysift/sift/internal/model"
)

const (
	defaultBindHost        = "127.0.0.1"
	defaultAPIPort         = 3000
	defaultQueryTimeout    = 30 * time.Second
	defaultDrainDepth      = model.DefaultDrainDepth
	defaultDrainSimilarity = model.DefaultDrainSimilarity
	defaultDrainChildren   = 100
	defaultThreatWindow    = model.DefaultThreatWindow
	defaultThreatThreshold = model.DefaultThreatThreshold
	defaultDedupeWindow    = model.DefaultDedupeWindow
	defaultStaleAfter      = model.DefaultStaleAfter
)

// appConfig is internal runtime configuration.
// It is package-private to keep defaults and shape local to the CLI entrypoint.
type appConfig struct {
	InputPath          string        `mapstructure:"-"` // from -input flag only
	DBPath             string        `mapstructure:"db-path"`
	Serve              bool          `mapstructure:"-"` // from -serve flag only
	APIPort            int           `mapstructure:"api-port"`
	APIAddr            string        `mapstructure:"api-addr"`
	QueryTimeout       time.Duration `mapstructure:"query-timeout"`
	AnchorYear         int           `mapstructure:"anchor-year"` // 0 = detect, fall back to current year
	DrainDepth         int           `mapstructure:"drain-depth"`
	DrainSimilarity    float64       `mapstructure:"drain-similarity"`
	DrainMaxChildren   int           `mapstructure:"drain-max-children"`
	ThreatWindow       time.Duration `mapstructure:"threat-window"`
	ThreatThreshold    int           `mapstructure:"threat-threshold"`
	SessionDedupe      time.Duration `mapstructure:"session-dedupe-window"`
	SessionStaleAfter  time.Duration `mapstructure:"session-stale-after"`
	PrefilterEnabled   bool          `mapstructure:"prefilter-enabled"`
	PrefilterKeywords  []string      `mapstructure:"prefilter-keywords"`
	ClassifyTablesPath string        `mapstructure:"classify-tables"`
	ConfigPath         string        `mapstructure:"-"` // not from config file
}
