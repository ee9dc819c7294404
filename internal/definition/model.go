// Package definition implements multi-source definition resolution:
// adapters are queried in priority order, responses are validated and
// grouped across sources, and results are scored and cached.
package definition

import (
	"regexp"
	"strings"
	"time"
)

var whitespacePattern = regexp.MustCompile(`\s+`)

// Definition is a single definition with its source metadata.
// Instances are immutable after creation except for ReliabilityScore,
// which the cross-source boost adjusts exactly once.
type Definition struct {
	Text             string   `json:"text" yaml:"text"`
	PartOfSpeech     string   `json:"part_of_speech" yaml:"part_of_speech"`
	Source           string   `json:"source" yaml:"source"`
	SourceTier       int      `json:"source_tier" yaml:"source_tier"`
	ReliabilityScore float64  `json:"reliability_score" yaml:"reliability_score"`
	Etymology        string   `json:"etymology,omitempty" yaml:"etymology,omitempty"`
	Examples         []string `json:"examples,omitempty" yaml:"examples,omitempty"`
	Pronunciation    string   `json:"pronunciation,omitempty" yaml:"pronunciation,omitempty"`
}

// LookupResult is the complete answer for one term. The caller owns it
// after return; the engine keeps no reference outside the cache.
type LookupResult struct {
	Term               string                  `json:"term"`
	DefinitionsByPOS   map[string][]Definition `json:"definitions_by_pos"`
	OverallReliability float64                 `json:"overall_reliability"`
	SourcesConsulted   []string                `json:"sources_consulted"`
	LookupTimestamp    time.Time               `json:"lookup_timestamp"`
	CacheHit           bool                    `json:"-"`
}

// BestDefinition returns the highest-reliability definition, restricted
// to pos when non-empty. Returns nil when there are no definitions.
func (r LookupResult) BestDefinition(pos string) *Definition {
	var best *Definition
	consider := func(defs []Definition) {
		for i := range defs {
			if best == nil || defs[i].ReliabilityScore > best.ReliabilityScore {
				d := defs[i]
				best = &d
			}
		}
	}

	if pos != "" {
		consider(r.DefinitionsByPOS[pos])
		return best
	}
	for _, defs := range r.DefinitionsByPOS {
		consider(defs)
	}
	return best
}

// DefinitionCount returns the number of definitions across all parts of speech.
func (r LookupResult) DefinitionCount() int {
	n := 0
	for _, defs := range r.DefinitionsByPOS {
		n += len(defs)
	}
	return n
}

// NormalizeTerm reduces a term to its comparable form: whitespace is
// collapsed, surrounding space trimmed, and the result lower-cased.
func NormalizeTerm(term string) string {
	return strings.ToLower(strings.TrimSpace(whitespacePattern.ReplaceAllString(term, " ")))
}

// GroupByPOS buckets definitions by their part of speech, preserving
// the order in which each source produced them.
func GroupByPOS(definitions []Definition) map[string][]Definition {
	grouped := make(map[string][]Definition)
	for _, d := range definitions {
		grouped[d.PartOfSpeech] = append(grouped[d.PartOfSpeech], d)
	}
	return grouped
}
