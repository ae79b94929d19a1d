package round

import (
	"testing"

	categoryModel "github.com/bloops-games/wordrounds/internal/database/category/model"
	"github.com/stretchr/testify/assert"
)

func TestEligibleLetters(t *testing.T) {
	t.Parallel()

	cats := []categoryModel.Category{
		{ID: "a", Words: []string{"koala", "Bear", "  "}},
		{ID: "b", WordsByLetter: map[string][]string{"z": {"zebra"}, "q": {}}},
	}

	assert.Equal(t, []string{"B", "K", "Z"}, EligibleLetters(cats))
	assert.Len(t, EligibleLetters(nil), 26)
	assert.Len(t, EligibleLetters([]categoryModel.Category{{ID: "empty"}}), 26)
}

func TestPickLetter(t *testing.T) {
	t.Parallel()

	used := map[string]struct{}{"A": {}, "B": {}}
	for i := 0; i < 20; i++ {
		letter, reset := pickLetter([]string{"A", "B", "C"}, used)
		assert.Equal(t, "C", letter)
		assert.False(t, reset)
	}

	letter, reset := pickLetter([]string{"A", "B"}, used)
	assert.Contains(t, []string{"A", "B"}, letter)
	assert.True(t, reset)
}
