package definition

const (
	maxCorroborationBoost           = 0.20
	perSourceCorroborationIncrement = 0.05
)

// ApplyCrossSourceBoost raises the reliability of definitions that are
// corroborated by other sources. Within each part of speech,
// similarity groups whose members come from at least two distinct
// sources have every member boosted by min(0.20, 0.05 * distinct
// source count), capped at 1.0. Scores are mutated in place.
func ApplyCrossSourceBoost(definitionsByPOS map[string][]Definition) {
	for _, definitions := range definitionsByPOS {
		if len(definitions) <= 1 {
			continue
		}

		for _, group := range groupSimilarIndices(definitions) {
			if len(group) <= 1 {
				continue
			}
			sources := make(map[string]struct{}, len(group))
			for _, i := range group {
				sources[definitions[i].Source] = struct{}{}
			}
			if len(sources) <= 1 {
				continue
			}

			boost := perSourceCorroborationIncrement * float64(len(sources))
			if boost > maxCorroborationBoost {
				boost = maxCorroborationBoost
			}
			for _, i := range group {
				score := definitions[i].ReliabilityScore + boost
				if score > 1.0 {
					score = 1.0
				}
				definitions[i].ReliabilityScore = score
			}
		}
	}
}

// OverallReliability computes the result-level confidence as a
// tier-weighted mean over all definitions. Each definition weighs
// (5 - tier) * reliability, so reliability counts both as the weight
// and as the scored value; that double-count is intentional and keeps
// high-tier high-confidence definitions sharply separated from the
// rest. Returns 0 when there are no definitions.
func OverallReliability(definitions []Definition) float64 {
	if len(definitions) == 0 {
		return 0
	}

	var weightedSum, totalWeight float64
	for _, d := range definitions {
		tierWeight := float64(5 - d.SourceTier)
		weight := tierWeight * d.ReliabilityScore
		weightedSum += d.ReliabilityScore * weight
		totalWeight += weight
	}
	if totalWeight == 0 {
		return 0
	}
	return weightedSum / totalWeight
}
