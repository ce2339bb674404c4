// Package similarity scores how alike two free-text brand or model names are,
// regardless of whether they were typed in Cyrillic or Latin script.
package similarity

import (
	"math"
	"strings"
)

// Threshold is the minimum score for two names to be treated as the same vehicle.
const Threshold = 70

var translit = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "yo",
	'ж': "j", 'з': "z", 'и': "i", 'й': "y", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "x", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "sh", 'ъ': "",
	'ы': "i", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya",

	// Uzbek
	'ў': "o", 'қ': "q", 'ғ': "g", 'ҳ': "h",
	// Kazakh and Karakalpak
	'ә': "a", 'ө': "o", 'ү': "u", 'ұ': "u", 'ң': "n", 'һ': "h",
	// Ukrainian
	'і': "i", 'ї': "yi", 'є': "ye", 'ґ': "g",
}

// Normalize lower-cases s and maps every Cyrillic letter to Latin.
// Unmapped runes are kept as they are.
func Normalize(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if latin, ok := translit[r]; ok {
			b.WriteString(latin)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Distance is the Levenshtein edit distance between a and b, counted in runes.
func Distance(a, b string) int {
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
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// Score returns a similarity in [0,100] between two names after normalization.
func Score(a, b string) int {
	na, nb := Normalize(a), Normalize(b)
	if na == nb {
		return 100
	}
	la, lb := len([]rune(na)), len([]rune(nb))
	if la == 0 || lb == 0 {
		return 0
	}
	maxLen := max(la, lb)
	d := Distance(na, nb)
	return int(math.Round(100 * float64(maxLen-d) / float64(maxLen)))
}

// Similar reports whether a and b score at or above Threshold.
func Similar(a, b string) bool {
	return Score(a, b) >= Threshold
}
