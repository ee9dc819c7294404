package definition

import "strings"

// similarityThreshold is the Jaccard word-overlap ratio above which two
// definitions are considered the same sense.
const similarityThreshold = 0.30

// GroupSimilar clusters definitions of a single part of speech that are
// semantically redundant, using greedy single-pass word-overlap
// clustering: each definition joins the first existing group whose first
// member overlaps it by more than the threshold, otherwise it starts a
// new group. O(n^2), fine for the <20 definitions a term produces.
func GroupSimilar(definitions []Definition) [][]Definition {
	indexGroups := groupSimilarIndices(definitions)
	groups := make([][]Definition, 0, len(indexGroups))
	for _, idxs := range indexGroups {
		group := make([]Definition, 0, len(idxs))
		for _, i := range idxs {
			group = append(group, definitions[i])
		}
		groups = append(groups, group)
	}
	return groups
}

// groupSimilarIndices is the index-based form of GroupSimilar, used by
// the scorer so boosts can be written back through the original slice.
func groupSimilarIndices(definitions []Definition) [][]int {
	var groups [][]int
	wordSets := make([]map[string]struct{}, len(definitions))
	for i, d := range definitions {
		wordSets[i] = wordSet(d.Text)
	}

	for i := range definitions {
		placed := false
		for gi, group := range groups {
			first := group[0]
			if jaccard(wordSets[i], wordSets[first]) > similarityThreshold {
				groups[gi] = append(groups[gi], i)
				placed = true
				break
			}
		}
		if !placed {
			groups = append(groups, []int{i})
		}
	}
	return groups
}

func wordSet(text string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// jaccard returns |intersection| / |union| of two word sets.
func jaccard(a, b map[string]struct{}) float64 {
	intersection := 0
	for w := range a {
		if _, ok := b[w]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
