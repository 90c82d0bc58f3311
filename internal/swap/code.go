package swap

import (
	"crypto/rand"
	_ "embed"
	"fmt"
	"math/big"
	"strings"
)

// Strategy produces candidate swap codes.  Implementations only need to
// draw from a space large enough that collisions against all currently
// active codes are rare; uniqueness itself is enforced by the store's
// unique index, with the engine re-rolling on collision.
type Strategy interface {
	NewCode() (string, error)
}

//go:embed words.txt
var wordsFile string

// PhraseStrategy generates human-speakable codes: two capitalized
// dictionary words followed by one of three suffix shapes (a two-digit
// number, a number plus a third word, or just a third word), e.g.
// "BlueFalcon42" or "CedarOtterMaple".  Guests read these codes to each
// other out loud, which is why the alphabet is words rather than hex.
type PhraseStrategy struct {
	words []string
}

// NewPhraseStrategy parses the embedded word list.  It panics when the
// list is unusable, since that is a build defect rather than a runtime
// condition.
func NewPhraseStrategy() *PhraseStrategy {
	var words []string
	for _, line := range strings.Split(wordsFile, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, capitalize(line))
	}
	if len(words) < 100 {
		panic(fmt.Sprintf("swap: embedded word list too small (%d words)", len(words)))
	}
	return &PhraseStrategy{words: words}
}

// NewCode returns a fresh phrase.  Indices are drawn from crypto/rand so
// codes are not guessable from previous ones.
func (s *PhraseStrategy) NewCode() (string, error) {
	one, err := s.pick()
	if err != nil {
		return "", err
	}
	two, err := s.pick()
	if err != nil {
		return "", err
	}
	shape, err := randBelow(3)
	if err != nil {
		return "", err
	}
	code := one + two
	switch shape {
	case 0:
		n, err := randBelow(100)
		if err != nil {
			return "", err
		}
		code += fmt.Sprintf("%d", n)
	case 1:
		n, err := randBelow(100)
		if err != nil {
			return "", err
		}
		three, err := s.pick()
		if err != nil {
			return "", err
		}
		code += fmt.Sprintf("%d%s", n, three)
	default:
		three, err := s.pick()
		if err != nil {
			return "", err
		}
		code += three
	}
	return code, nil
}

func (s *PhraseStrategy) pick() (string, error) {
	i, err := randBelow(int64(len(s.words)))
	if err != nil {
		return "", err
	}
	return s.words[i], nil
}

// randBelow returns a uniform random integer in [0, n) from crypto/rand.
func randBelow(n int64) (int64, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(n))
	if err != nil {
		return 0, err
	}
	return v.Int64(), nil
}

func capitalize(w string) string {
	if w == "" {
		return w
	}
	return strings.ToUpper(w[:1]) + w[1:]
}
