// Package util is a set of utility variables or methods
package util

import (
	"strconv"
	"unicode"

	mapset "github.com/deckarep/golang-set/v2"
)

var SupportedExt = mapset.NewSet(
	".jpeg", ".jpg", ".JPEG", ".JPG",
	".png", ".PNG",
	".webp", ".WEBP",
)

// NaturalLess compares strings treating runs of digits as numbers, so
// "img2" sorts before "img10".
func NaturalLess(s1, s2 string) bool {
	i, j := 0, 0
	for i < len(s1) && j < len(s2) {
		if isDigit(s1[i]) && isDigit(s2[j]) {
			si := i
			for i < len(s1) && isDigit(s1[i]) {
				i++
			}
			sj := j
			for j < len(s2) && isDigit(s2[j]) {
				j++
			}
			n1, _ := strconv.Atoi(s1[si:i])
			n2, _ := strconv.Atoi(s2[sj:j])
			if n1 != n2 {
				return n1 < n2
			}
			continue
		}
		if s1[i] != s2[j] {
			return s1[i] < s2[j]
		}
		i++
		j++
	}
	return len(s1)-i < len(s2)-j
}

func isDigit(b byte) bool {
	return unicode.IsDigit(rune(b))
}
