// Package fuzz generates random test words for a grammar. Words follow the
// grammar's bigram relation, with random terminals injected and early stops
// at configurable rates, and each one is labeled by CYK so that the resulting
// corpus can serve as an oracle for other recognizers.
package fuzz

import (
	"fmt"
	"math"
	"strings"

	"github.com/dekarrin/gramq/internal/gqerrors"
)

// Alphabet selects the set of terminals that random injection draws from.
type Alphabet int

const (
	// FullAlphabet is every lowercase letter a through z.
	FullAlphabet Alphabet = iota

	// GrammarAlphabet is only the terminals of the grammar being fuzzed.
	GrammarAlphabet
)

func (a Alphabet) String() string {
	switch a {
	case FullAlphabet:
		return "full"
	case GrammarAlphabet:
		return "grammar"
	default:
		return fmt.Sprintf("Alphabet(%d)", int(a))
	}
}

// ParseAlphabet gets the Alphabet named by s, which is case-insensitive.
func ParseAlphabet(s string) (Alphabet, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "full", "":
		return FullAlphabet, nil
	case "grammar":
		return GrammarAlphabet, nil
	default:
		return FullAlphabet, gqerrors.Newf([]error{gqerrors.ErrBadFuzzParams}, "unknown alphabet %q; must be one of 'full' or 'grammar'", s)
	}
}

const (
	DefaultCount = 100
	DefaultPTerm = 0.1
	DefaultPStop = 0.15
)

// Params controls generation.
type Params struct {
	// Count is the number of words to generate.
	Count int

	// Alphabet is where injected terminals are drawn from.
	Alphabet Alphabet

	// PTerm is the chance, at each step, of appending a uniformly random
	// terminal from the alphabet instead of following the bigram relation.
	PTerm float64

	// PStop is the chance, at each step, of ending the word early.
	PStop float64

	// MaxLen caps the length of a word, in terminals. 0 is no cap; a word
	// then only ends at a stop roll or a terminal with no successors, so
	// PStop must be above 0.
	MaxLen int

	// Seed seeds the random source. 0 picks a seed from the clock; the seed
	// actually used is recorded in the generated Corpus.
	Seed int64
}

// DefaultParams returns the parameters used when none are given.
func DefaultParams() Params {
	return Params{
		Count:    DefaultCount,
		Alphabet: FullAlphabet,
		PTerm:    DefaultPTerm,
		PStop:    DefaultPStop,
	}
}

// Validate returns an error wrapping gqerrors.ErrBadFuzzParams if p cannot be
// used for generation.
func (p Params) Validate() error {
	if p.Count < 0 {
		return gqerrors.Newf([]error{gqerrors.ErrBadFuzzParams}, "count must be non-negative but was %d", p.Count)
	}
	if p.MaxLen < 0 {
		return gqerrors.Newf([]error{gqerrors.ErrBadFuzzParams}, "max length must be non-negative but was %d", p.MaxLen)
	}
	if !isProbability(p.PTerm) {
		return gqerrors.Newf([]error{gqerrors.ErrBadFuzzParams}, "p_term must be between 0 and 1 but was %v", p.PTerm)
	}
	if !isProbability(p.PStop) {
		return gqerrors.Newf([]error{gqerrors.ErrBadFuzzParams}, "p_stop must be between 0 and 1 but was %v", p.PStop)
	}
	if p.PTerm+p.PStop > 1 {
		return gqerrors.Newf([]error{gqerrors.ErrBadFuzzParams}, "p_term + p_stop must not exceed 1 but was %v", p.PTerm+p.PStop).
			WithHuman("the random-terminal and stop chances together must not be more than 1")
	}
	if p.PStop == 0 && p.MaxLen == 0 {
		return gqerrors.Newf([]error{gqerrors.ErrBadFuzzParams}, "p_stop is 0 and there is no max length").
			WithHuman("with no chance to stop, a max length must be set or words may never end")
	}
	if p.Alphabet != FullAlphabet && p.Alphabet != GrammarAlphabet {
		return gqerrors.Newf([]error{gqerrors.ErrBadFuzzParams}, "unknown alphabet %v", p.Alphabet)
	}
	return nil
}

// isProbability is false for NaN, which fails every ordered comparison.
func isProbability(f float64) bool {
	return !math.IsNaN(f) && f >= 0 && f <= 1
}
