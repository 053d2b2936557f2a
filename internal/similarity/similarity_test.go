package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"The Way of Kings", "the way of kings"},
		{"  Harry   Potter & the Philosopher's Stone ", "harry potter the philosopher s stone"},
		{"Brontë", "bronte"},
		{"ＡＢＣ", "abc"},
		{"!!!", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestBigrams(t *testing.T) {
	assert.Equal(t, []string{"ni", "ig", "gh", "ht"}, Bigrams("Night"))
	assert.Equal(t, []string{"a ", " b"}, Bigrams("a-b"))
	assert.Empty(t, Bigrams("a"))
	assert.Empty(t, Bigrams(""))
}

func TestScore(t *testing.T) {
	t.Run("identical strings score one", func(t *testing.T) {
		for _, s := range []string{"Mistborn", "a", "!!", "Brandon Sanderson"} {
			assert.Equal(t, 1.0, Score(s, s), s)
		}
	})

	t.Run("empty input scores zero", func(t *testing.T) {
		assert.Equal(t, 0.0, Score("", "Mistborn"))
		assert.Equal(t, 0.0, Score("Mistborn", ""))
		assert.Equal(t, 0.0, Score("", ""))
	})

	t.Run("no bigrams scores zero", func(t *testing.T) {
		assert.Equal(t, 0.0, Score("a", "b"))
		assert.Equal(t, 0.0, Score("!!", "ab"))
	})

	t.Run("dice coefficient", func(t *testing.T) {
		// ni ig gh ht vs na ac ch ht: one shared bigram out of eight
		assert.InDelta(t, 0.25, Score("night", "nacht"), 1e-9)
	})

	t.Run("repeated bigrams are consumed once", func(t *testing.T) {
		// aa aa aa vs aa: one match
		assert.InDelta(t, 2.0/4.0, Score("aaaa", "aa"), 1e-9)
	})

	t.Run("case and punctuation are ignored", func(t *testing.T) {
		assert.Equal(t, 1.0, Score("The Way of Kings", "the way of kings!"))
		assert.Equal(t, 1.0, Score("Brontë", "BRONTE"))
	})

	t.Run("symmetric", func(t *testing.T) {
		pairs := [][2]string{
			{"The Way of Kings", "Way of Kings"},
			{"aaaa", "aa"},
			{"Mistborn", "Mistborn: The Final Empire"},
			{"J.R.R. Tolkien", "Tolkien"},
		}
		for _, p := range pairs {
			assert.InDelta(t, Score(p[0], p[1]), Score(p[1], p[0]), 1e-12, "%q/%q", p[0], p[1])
		}
	})
}

func TestIsPossibleDuplicate(t *testing.T) {
	assert.True(t, IsPossibleDuplicate("Mistborn", "Brandon Sanderson", "Mistborn", "Brandon Sanderson"))
	assert.True(t, IsPossibleDuplicate("The Way of Kings", "Brandon Sanderson", "The Way of Kings!", "brandon sanderson"))
	assert.False(t, IsPossibleDuplicate("Mistborn", "Brandon Sanderson", "Dune", "Frank Herbert"))

	// Same author, unrelated title: mean stays below the default threshold
	assert.False(t, IsPossibleDuplicate("Mistborn", "Brandon Sanderson", "Elantris", "Brandon Sanderson"))
	assert.True(t, IsPossibleDuplicate("Mistborn", "Brandon Sanderson", "Elantris", "Brandon Sanderson", WithThreshold(0.5)))
}

func TestRank(t *testing.T) {
	candidates := []Candidate{
		{ID: "1", Title: "Dune", Author: "Frank Herbert"},
		{ID: "2", Title: "The Way of Kings", Author: "Brandon Sanderson"},
		{ID: "3", Title: "The Way of Kings (Stormlight)", Author: "Brandon Sanderson"},
		{ID: "4", Title: "Way of Kings", Author: "Brandon Sanderson"},
	}

	matches := Rank("The Way of Kings", "Brandon Sanderson", candidates, 5)
	require.NotEmpty(t, matches)
	assert.Equal(t, "2", matches[0].ID)
	assert.Equal(t, 1.0, matches[0].Score)
	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Score, matches[i].Score)
	}
	for _, m := range matches {
		assert.NotEqual(t, "1", m.ID)
		assert.GreaterOrEqual(t, m.Score, DefaultThreshold)
	}

	limited := Rank("The Way of Kings", "Brandon Sanderson", candidates, 1)
	assert.Len(t, limited, 1)

	assert.Empty(t, Rank("Dune", "Frank Herbert", nil, 5))
}
