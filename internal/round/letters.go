package round

import (
	"sort"

	categoryModel "github.com/bloops-games/wordrounds/internal/database/category/model"
	"github.com/valyala/fastrand"
)

var fallbackLetters = []string{
	"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L", "M",
	"N", "O", "P", "Q", "R", "S", "T", "U", "V", "W", "X", "Y", "Z",
}

// EligibleLetters returns the letters for which at least one category has
// words, or the plain alphabet when none has any.
func EligibleLetters(categories []categoryModel.Category) []string {
	set := map[string]struct{}{}
	for _, c := range categories {
		for _, l := range c.Letters() {
			set[l] = struct{}{}
		}
	}

	if len(set) == 0 {
		letters := make([]string, len(fallbackLetters))
		copy(letters, fallbackLetters)
		return letters
	}

	letters := make([]string, 0, len(set))
	for l := range set {
		letters = append(letters, l)
	}

	sort.Strings(letters)
	return letters
}

// pickLetter draws uniformly from candidates not in used. When every
// candidate was used it draws from all of them and reports the reset.
func pickLetter(candidates []string, used map[string]struct{}) (string, bool) {
	pool := make([]string, 0, len(candidates))
	for _, l := range candidates {
		if _, ok := used[l]; !ok {
			pool = append(pool, l)
		}
	}

	var reset bool
	if len(pool) == 0 {
		pool = candidates
		reset = true
	}

	return pool[fastrand.Uint32n(uint32(len(pool)))], reset
}
