package similarity

import (
	"regexp"
	"strings"
)

var (
	trailingDigits = regexp.MustCompile(`[0-9]+$`)
	separators     = strings.NewReplacer("_", "", "-", "", ".", "")
	// longest first so that "alt2" is removed before "alt"
	fillerTokens = []string{"backup", "alt2", "main", "new", "old", "alt"}
)

// Normalize reduces a display name to the stem used for similarity
// comparison. It never fails.
func Normalize(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = trailingDigits.ReplaceAllString(n, "")
	n = separators.Replace(n)
	for _, token := range fillerTokens {
		n = strings.ReplaceAll(n, token, "")
	}
	return strings.TrimSpace(n)
}
