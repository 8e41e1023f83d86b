package matcher

import "strings"

// Similarity returns a sequence-alignment ratio in [0,1] between two titles,
// compared case-insensitively. The score is 2*M/T where M is the total size
// of the matching blocks found by the greedy longest-block recursion and T
// is the combined length of both titles. Identical strings score 1.0; two
// empty strings also score 1.0.
func Similarity(a, b string) float64 {
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))
	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}
	matched := matchingTotal(ra, rb, 0, len(ra), 0, len(rb))
	return 2.0 * float64(matched) / float64(total)
}

// matchingTotal sums matching-block sizes over a[alo:ahi] vs b[blo:bhi] by
// finding the longest matching block and recursing on the pieces to its
// left and right.
func matchingTotal(a, b []rune, alo, ahi, blo, bhi int) int {
	i, j, k := longestMatch(a, b, alo, ahi, blo, bhi)
	if k == 0 {
		return 0
	}
	return k +
		matchingTotal(a, b, alo, i, blo, j) +
		matchingTotal(a, b, i+k, ahi, j+k, bhi)
}

// longestMatch finds the longest block where a[i:i+k] == b[j:j+k] within the
// given bounds. Among maximal blocks it returns the one starting earliest in
// a, then earliest in b, so equal-quality candidates resolve deterministically.
func longestMatch(a, b []rune, alo, ahi, blo, bhi int) (besti, bestj, bestk int) {
	b2j := make(map[rune][]int, bhi-blo)
	for j := blo; j < bhi; j++ {
		b2j[b[j]] = append(b2j[b[j]], j)
	}

	besti, bestj = alo, blo
	j2len := make(map[int]int)
	for i := alo; i < ahi; i++ {
		newJ2len := make(map[int]int)
		for _, j := range b2j[a[i]] {
			k := j2len[j-1] + 1
			newJ2len[j] = k
			if k > bestk {
				besti, bestj, bestk = i-k+1, j-k+1, k
			}
		}
		j2len = newJ2len
	}
	return besti, bestj, bestk
}
