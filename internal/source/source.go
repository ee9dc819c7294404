// Package source holds the static per-source configuration table. The
// adapter contract itself is defined by its consumer in the definition
// package; concrete adapters live in subpackages of this one.
package source

import "time"

// Source names, also used as the Source field on produced definitions.
const (
	NameCambridge  = "cambridge"
	NameFreeDict   = "free_dictionary"
	NameWordnik    = "wordnik"
	NameWiktionary = "wiktionary"
)

// Config is the immutable per-source configuration, loaded once at
// startup. Tier 1 is the most trusted, tier 4 the least.
type Config struct {
	Tier               int
	BaseReliability    float64
	RequiresCredential bool
	MinInterval        time.Duration
}

// DefaultConfigs returns the built-in source table.
func DefaultConfigs() map[string]Config {
	return map[string]Config{
		NameCambridge: {
			Tier:            1,
			BaseReliability: 0.90,
			MinInterval:     2 * time.Second,
		},
		NameFreeDict: {
			Tier:            2,
			BaseReliability: 0.80,
			MinInterval:     500 * time.Millisecond,
		},
		NameWordnik: {
			Tier:               2,
			BaseReliability:    0.75,
			RequiresCredential: true,
			MinInterval:        2 * time.Second,
		},
		NameWiktionary: {
			Tier:            3,
			BaseReliability: 0.70,
			MinInterval:     time.Second,
		},
	}
}

// PriorityOrder returns source names in the fixed order the engine
// consults them: best tier first, deterministic within a tier.
func PriorityOrder() []string {
	return []string{NameCambridge, NameFreeDict, NameWordnik, NameWiktionary}
}
