package chasmc

import "strconv"

// parseIntLiteral converts a TOKEN_INT's text to an int, defaulting to
// 0 on the anomalous hex-literal spelling (spec.md §4.1, §9) rather
// than failing translation over a reserve count the grammar already
// guaranteed was digits.
func parseIntLiteral(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
