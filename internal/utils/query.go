package utils

import (
	"strconv"
	"strings"
)

// IntInRange parses s as a decimal int and clamps it to [lo, hi]. Blank or
// malformed input yields def, which is clamped too.
func IntInRange(s string, def, lo, hi int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		n = def
	}
	return min(max(n, lo), hi)
}
