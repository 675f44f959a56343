package validate

import "math"

// levenshtein returns the edit distance between a and b. No library in
// the example pack implements string edit distance, so this one pure
// function is hand-rolled rather than grounded on an existing dependency
// (see DESIGN.md).
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
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
			curr[j] = min3(del, ins, sub)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
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

// suggestThreshold returns the maximum edit distance that still counts
// as "close enough" to target: min(3, ceil(len(target)*0.6)).
func suggestThreshold(target string) int {
	t := int(math.Ceil(float64(len([]rune(target))) * 0.6))
	if t > 3 {
		return 3
	}
	return t
}

// Suggest finds the candidate closest to target by edit distance, within
// suggestThreshold(target), and returns it (or "" if none qualifies).
func Suggest(target string, candidates []string) string {
	best := ""
	bestDist := math.MaxInt32
	threshold := suggestThreshold(target)
	for _, c := range candidates {
		d := levenshtein(target, c)
		if d <= threshold && d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}

// DidYouMean renders the agent-facing "Did you mean 'X'?" suffix for a
// suggestion, or "" if suggestion is empty.
func DidYouMean(suggestion string) string {
	if suggestion == "" {
		return ""
	}
	return "Did you mean '" + suggestion + "'?"
}
