// Copyright 2025 Certen Protocol
//
// Normalized Levenshtein similarity for advisory typo suggestions (§4.4).
// Neither the teacher nor the rest of the pack carries a string-distance
// library narrow enough for this single use, so it is hand-rolled — see
// DESIGN.md for the justification.

package resolver

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)

	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}

	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			curr[j] = min3(del, ins, sub)
		}
		prev, curr = curr, prev
	}

	return prev[lb]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// similarity returns a normalized similarity in [0,1]: 1 - distance/maxlen.
func similarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	dist := levenshtein(a, b)
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(dist)/float64(maxLen)
}

const typoSuggestionThreshold = 0.80

// suggestTypos scans knownIDs for ids similar to missing, returning matches
// at or above the similarity threshold, most-similar first.
func suggestTypos(missing string, knownIDs []string) []string {
	type scored struct {
		id    string
		score float64
	}
	var candidates []scored
	for _, id := range knownIDs {
		if s := similarity(missing, id); s >= typoSuggestionThreshold {
			candidates = append(candidates, scored{id, s})
		}
	}
	for i := 1; i < len(candidates); i++ {
		for j := i; j > 0 && candidates[j].score > candidates[j-1].score; j-- {
			candidates[j], candidates[j-1] = candidates[j-1], candidates[j]
		}
	}
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.id
	}
	return out
}
