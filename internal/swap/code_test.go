package swap

import (
	"regexp"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPhraseStrategy_ParsesEmbeddedList(t *testing.T) {
	s := NewPhraseStrategy()
	require.GreaterOrEqual(t, len(s.words), 100)
	for _, w := range s.words {
		require.NotEmpty(t, w)
		assert.True(t, unicode.IsUpper(rune(w[0])), "word %q should be capitalized", w)
		assert.NotContains(t, w, "#")
		assert.NotContains(t, w, " ")
	}
}

func TestPhraseStrategy_CodesMatchExpectedShapes(t *testing.T) {
	s := NewPhraseStrategy()

	// Word+Word+NN, Word+Word+NN+Word, or Word+Word+Word.
	shape := regexp.MustCompile(`^([A-Z][a-z]+){2}([0-9]{1,2}([A-Z][a-z]+)?|[A-Z][a-z]+)$`)
	for i := 0; i < 200; i++ {
		code, err := s.NewCode()
		require.NoError(t, err)
		assert.Regexp(t, shape, code)
	}
}

func TestPhraseStrategy_CodesVary(t *testing.T) {
	s := NewPhraseStrategy()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := s.NewCode()
		require.NoError(t, err)
		seen[code] = true
	}
	// Collisions in 100 draws from the phrase space should be essentially
	// impossible; a heavily repeating generator is broken.
	assert.Greater(t, len(seen), 90)
}
