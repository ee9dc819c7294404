package definition

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// OverrideSource tags hand-curated definitions served from the override
// table when every adapter came back empty.
const OverrideSource = "custom_manual"

// Overrides maps an exact normalized term to hand-curated fallback
// definitions. Consulted only when no adapter produced anything.
type Overrides map[string][]Definition

// DefaultOverrides returns the built-in override table: rare terms no
// configured source defines.
func DefaultOverrides() Overrides {
	return Overrides{
		"jimping": {
			{
				Text:             "A series of small notches or grooves filed into the spine of a knife or similar tool to improve grip or control.",
				PartOfSpeech:     "noun",
				Source:           OverrideSource,
				SourceTier:       4,
				ReliabilityScore: 0.6,
			},
		},
	}
}

// LoadOverrides reads extra override definitions from YAML, keyed by
// term, and merges them over the built-in table. File entries win.
func LoadOverrides(r io.Reader) (Overrides, error) {
	var fromFile map[string][]Definition
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&fromFile); err != nil {
		return nil, fmt.Errorf("yaml.Decode > %w", err)
	}

	merged := DefaultOverrides()
	for term, defs := range fromFile {
		normalized := NormalizeTerm(term)
		for i := range defs {
			if defs[i].Source == "" {
				defs[i].Source = OverrideSource
			}
			if defs[i].SourceTier == 0 {
				defs[i].SourceTier = 4
			}
		}
		merged[normalized] = defs
	}
	return merged, nil
}

// Lookup returns the override definitions for a normalized term, or nil.
func (o Overrides) Lookup(term string) []Definition {
	return o[NormalizeTerm(term)]
}
