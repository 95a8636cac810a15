package utils

import (
	"strings"

	"golang.org/x/text/cases"
)

var foldCaser = cases.Fold()

// NormalizeKey canonicalizes a channel or nick for use as a map key:
// surrounding whitespace stripped, then Unicode case-folded.
// Channel comparisons in chat protocols are case-insensitive.
func NormalizeKey(s string) string {
	return foldCaser.String(strings.TrimSpace(s))
}
