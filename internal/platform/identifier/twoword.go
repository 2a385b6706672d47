package identifier

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// Separator joins the adjective and the noun of a two-word identifier.
const Separator = "-"

var (
	ErrExhaustedCapacity = errors.New("not enough unused two-word identifiers remain")
	ErrEmptyVocabulary   = errors.New("word lists must not be empty")
	ErrInvalidVocabulary = errors.New("invalid word list entry")
)

// Generator draws adjective-noun identifiers from a fixed vocabulary.
// It holds no state besides its random source, so a single Generator can be
// shared by concurrent callers.
type Generator struct {
	mu         sync.Mutex
	rnd        *rand.Rand
	adjectives []string
	nouns      []string
	adjSet     map[string]struct{}
	nounSet    map[string]struct{}
}

// NewGenerator builds a generator over copies of the given word lists.
// Entries must be non-empty, free of the separator and unique within their
// list, so that every adjective-noun pair is a distinct valid identifier and
// Capacity is exact.
func NewGenerator(adjectives, nouns []string, seed int64) (*Generator, error) {
	if len(adjectives) == 0 || len(nouns) == 0 {
		return nil, ErrEmptyVocabulary
	}
	if err := checkWords("adjectives", adjectives); err != nil {
		return nil, err
	}
	if err := checkWords("nouns", nouns); err != nil {
		return nil, err
	}

	g := &Generator{
		rnd:        rand.New(rand.NewSource(seed)),
		adjectives: append([]string(nil), adjectives...),
		nouns:      append([]string(nil), nouns...),
		adjSet:     make(map[string]struct{}, len(adjectives)),
		nounSet:    make(map[string]struct{}, len(nouns)),
	}
	for _, word := range g.adjectives {
		g.adjSet[word] = struct{}{}
	}
	for _, word := range g.nouns {
		g.nounSet[word] = struct{}{}
	}
	return g, nil
}

func checkWords(list string, words []string) error {
	seen := make(map[string]struct{}, len(words))
	for i, word := range words {
		switch {
		case word == "":
			return fmt.Errorf("%w: %s[%d] is empty", ErrInvalidVocabulary, list, i)
		case strings.Contains(word, Separator):
			return fmt.Errorf("%w: %s[%d] %q contains %q", ErrInvalidVocabulary, list, i, word, Separator)
		}
		if _, dup := seen[word]; dup {
			return fmt.Errorf("%w: %s[%d] %q is duplicated", ErrInvalidVocabulary, list, i, word)
		}
		seen[word] = struct{}{}
	}
	return nil
}

// NewDefaultGenerator returns a generator over the built-in vocabulary
// seeded from the clock.
func NewDefaultGenerator() *Generator {
	g, err := NewGenerator(adjectiveWords, nounWords, time.Now().UnixNano())
	if err != nil {
		panic(err)
	}
	return g
}

// Capacity is the number of distinct identifiers the vocabulary can express.
func (g *Generator) Capacity() int {
	return len(g.adjectives) * len(g.nouns)
}

// Adjectives returns a copy of the generator's adjective list.
func (g *Generator) Adjectives() []string {
	return append([]string(nil), g.adjectives...)
}

// Nouns returns a copy of the generator's noun list.
func (g *Generator) Nouns() []string {
	return append([]string(nil), g.nouns...)
}

// Generate draws one identifier. It is always valid but not guaranteed to be
// unused.
func (g *Generator) Generate() string {
	g.mu.Lock()
	adjective := g.adjectives[g.rnd.Intn(len(g.adjectives))]
	noun := g.nouns[g.rnd.Intn(len(g.nouns))]
	g.mu.Unlock()
	return adjective + Separator + noun
}

// GenerateUnique returns count pairwise-distinct identifiers, none of which
// is in existing, in the order they were accepted. The request fails with
// ErrExhaustedCapacity before any draw when fewer than count unused
// combinations can remain.
func (g *Generator) GenerateUnique(count int, existing map[string]struct{}) ([]string, error) {
	if count <= 0 {
		return []string{}, nil
	}

	remaining := g.Capacity() - len(existing)
	if count > remaining {
		if remaining < 0 {
			remaining = 0
		}
		return nil, fmt.Errorf("%w: requested %d, at most %d available of %d", ErrExhaustedCapacity, count, remaining, g.Capacity())
	}

	accepted := make([]string, 0, count)
	seen := make(map[string]struct{}, count)
	for len(accepted) < count {
		candidate := g.Generate()
		if _, taken := existing[candidate]; taken {
			continue
		}
		if _, taken := seen[candidate]; taken {
			continue
		}
		seen[candidate] = struct{}{}
		accepted = append(accepted, candidate)
	}
	return accepted, nil
}

// IsValid reports whether candidate is exactly one adjective and one noun of
// this vocabulary joined by a single separator.
func (g *Generator) IsValid(candidate string) bool {
	parts := strings.Split(candidate, Separator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return false
	}
	if _, ok := g.adjSet[parts[0]]; !ok {
		return false
	}
	_, ok := g.nounSet[parts[1]]
	return ok
}

var defaultGenerator = NewDefaultGenerator()

// TwoWord draws one identifier from the built-in vocabulary.
func TwoWord() string {
	return defaultGenerator.Generate()
}

// UniqueTwoWord is GenerateUnique on the built-in vocabulary.
func UniqueTwoWord(count int, existing map[string]struct{}) ([]string, error) {
	return defaultGenerator.GenerateUnique(count, existing)
}

// IsTwoWord is IsValid on the built-in vocabulary.
func IsTwoWord(candidate string) bool {
	return defaultGenerator.IsValid(candidate)
}

// Capacity is the number of identifiers the built-in vocabulary can express.
func Capacity() int {
	return defaultGenerator.Capacity()
}
