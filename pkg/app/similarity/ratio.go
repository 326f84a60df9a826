package similarity

// Ratio returns the Ratcliff/Obershelp similarity of a and b in [0,1]:
// twice the number of matching runes over the total rune count.
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	return 2 * float64(matchingRunes(ra, rb)) / float64(total)
}

// matchingRunes finds the longest common block, then recurses on the
// unmatched text to its left and right.
func matchingRunes(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	i, j, size := longestBlock(a, b)
	if size == 0 {
		return 0
	}
	return size +
		matchingRunes(a[:i], b[:j]) +
		matchingRunes(a[i+size:], b[j+size:])
}

// longestBlock returns the earliest longest common substring of a and b.
func longestBlock(a, b []rune) (int, int, int) {
	bestI, bestJ, best := 0, 0, 0
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
				if cur[j] > best {
					best = cur[j]
					bestI, bestJ = i-best, j-best
				}
			} else {
				cur[j] = 0
			}
		}
		prev, cur = cur, prev
	}
	return bestI, bestJ, best
}
