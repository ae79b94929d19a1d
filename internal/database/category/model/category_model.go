package model

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

type Category struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	DisplayName   string              `json:"displayName"`
	Words         []string            `json:"words,omitempty"`
	WordsByLetter map[string][]string `json:"wordsByLetter,omitempty"`
	IsDefault     bool                `json:"isDefault"`
	CreatorID     string              `json:"creatorId,omitempty"`
}

// Normalize trims, collapses inner whitespace and case-folds a word.
func Normalize(word string) string {
	return strings.ToLower(strings.Join(strings.Fields(word), " "))
}

// FirstLetter returns the upper-cased first rune of the normalized word.
func FirstLetter(word string) string {
	n := Normalize(word)
	if n == "" {
		return ""
	}

	r, _ := utf8.DecodeRuneInString(n)
	return string(unicode.ToUpper(r))
}

// WordsFor returns the raw dictionary candidates for letter: flat words plus
// the letter keyed list. Callers still filter by the first letter.
func (c Category) WordsFor(letter string) []string {
	letter = strings.ToUpper(letter)
	words := make([]string, 0, len(c.Words))
	words = append(words, c.Words...)
	for key, keyed := range c.WordsByLetter {
		if strings.ToUpper(key) == letter {
			words = append(words, keyed...)
		}
	}

	return words
}

// Letters lists every letter for which the category has at least one word.
func (c Category) Letters() []string {
	set := map[string]struct{}{}
	for _, w := range c.Words {
		if l := FirstLetter(w); l != "" {
			set[l] = struct{}{}
		}
	}

	for letter, words := range c.WordsByLetter {
		for _, w := range words {
			if FirstLetter(w) == strings.ToUpper(letter) {
				set[strings.ToUpper(letter)] = struct{}{}
				break
			}
		}
	}

	letters := make([]string, 0, len(set))
	for l := range set {
		letters = append(letters, l)
	}

	sort.Strings(letters)
	return letters
}

// Contains reports whether the normalized word is already in the dictionary.
func (c Category) Contains(word string) bool {
	n := Normalize(word)
	for _, w := range c.WordsFor(FirstLetter(word)) {
		if Normalize(w) == n {
			return true
		}
	}

	return false
}

// AddWord appends word under letter, or to the flat list when the category
// is not keyed by letter.
func (c *Category) AddWord(letter, word string) {
	word = strings.TrimSpace(word)
	if len(c.WordsByLetter) == 0 {
		c.Words = append(c.Words, word)
		return
	}

	letter = strings.ToUpper(letter)
	c.WordsByLetter[letter] = append(c.WordsByLetter[letter], word)
}
