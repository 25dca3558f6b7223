package model

import "time"

// Shared defaults used by the CLI and the analysis packages.
const (
	DefaultThreatWindow    = 10 * time.Minute
	DefaultThreatThreshold = 5
	DefaultDedupeWindow    = 2 * time.Second
	DefaultStaleAfter      = 24 * time.Hour
	DefaultDrainDepth      = 7
	DefaultDrainSimilarity = 0.75
)
