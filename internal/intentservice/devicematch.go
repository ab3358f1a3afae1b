package intentservice

import "strings"

// ResolveDevice matches name against candidates in four escalating passes —
// exact, case-insensitive, partial (substring), fuzzy (Levenshtein ratio) —
// returning the single best match, or ("", false, true) when more than one
// candidate ties at the best score (ambiguous, needs clarification).
func ResolveDevice(name string, candidates []string) (matched string, ok bool, ambiguous bool) {
	if name == "" || len(candidates) == 0 {
		return "", false, false
	}

	for _, c := range candidates {
		if c == name {
			return c, true, false
		}
	}

	lower := strings.ToLower(name)
	var ciMatches []string
	for _, c := range candidates {
		if strings.ToLower(c) == lower {
			ciMatches = append(ciMatches, c)
		}
	}
	if len(ciMatches) == 1 {
		return ciMatches[0], true, false
	} else if len(ciMatches) > 1 {
		return "", false, true
	}

	var partial []string
	for _, c := range candidates {
		if strings.Contains(strings.ToLower(c), lower) || strings.Contains(lower, strings.ToLower(c)) {
			partial = append(partial, c)
		}
	}
	if len(partial) == 1 {
		return partial[0], true, false
	} else if len(partial) > 1 {
		return "", false, true
	}

	const minRatio = 0.6
	best := ""
	bestRatio := 0.0
	tie := false
	for _, c := range candidates {
		r := ratio(lower, strings.ToLower(c))
		if r > bestRatio {
			bestRatio = r
			best = c
			tie = false
		} else if r == bestRatio && r > 0 {
			tie = true
		}
	}
	if bestRatio >= minRatio && !tie {
		return best, true, false
	}
	if tie && bestRatio >= minRatio {
		return "", false, true
	}
	return "", false, false
}

// ratio returns a normalized similarity in [0,1] derived from Levenshtein
// edit distance: 1 - distance/max(len(a),len(b)). No example repo ships a
// fuzzy-match dependency and this is ~20 lines, so it's hand-rolled rather
// than importing one.
func ratio(a, b string) float64 {
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1.0
	}
	dist := levenshtein(a, b)
	return 1.0 - float64(dist)/float64(maxLen)
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			curr[j] = m
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
