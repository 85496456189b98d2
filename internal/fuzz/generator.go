package fuzz

import (
	"math/rand"
	"strings"
	"time"

	"github.com/dekarrin/gramq/internal/bigram"
	"github.com/dekarrin/gramq/internal/cyk"
	"github.com/dekarrin/gramq/internal/grammar"
	"github.com/emirpasic/gods/sets/treeset"
	"github.com/google/uuid"
)

// Model is everything about a grammar that generation needs. Build one with
// ModelOf, or assemble it from already-computed parts.
type Model struct {
	// Start is the start symbol of the normalized grammar.
	Start string

	// Terminals are the terminals of the normalized grammar.
	Terminals []string

	Sets bigram.Sets
	CYK  cyk.Recognizer
}

// ModelOf computes the Model of cnf, which must be in Chomsky Normal Form.
func ModelOf(cnf grammar.Grammar) (Model, error) {
	rec, err := cyk.New(cnf)
	if err != nil {
		return Model{}, err
	}

	return Model{
		Start:     cnf.StartSymbol(),
		Terminals: cnf.Terminals(),
		Sets:      bigram.Compute(cnf),
		CYK:       rec,
	}, nil
}

// Generator produces labeled words from a Model. It is not safe for
// concurrent use.
type Generator struct {
	params   Params
	model    Model
	alphabet []string
	starts   []string
	rng      *rand.Rand
	seed     int64
}

// NewGenerator validates p and returns a Generator for m. The returned error
// wraps gqerrors.ErrBadFuzzParams if p is invalid.
func NewGenerator(m Model, p Params) (*Generator, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	seed := p.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	alpha := treeset.NewWithStringComparator()
	if p.Alphabet == FullAlphabet {
		for ch := 'a'; ch <= 'z'; ch++ {
			alpha.Add(string(ch))
		}
	} else {
		for _, t := range m.Terminals {
			alpha.Add(t)
		}
	}

	gen := &Generator{
		params: p,
		model:  m,
		starts: m.Sets.First[m.Start].Ordered(),
		rng:    rand.New(rand.NewSource(seed)),
		seed:   seed,
	}
	for _, v := range alpha.Values() {
		gen.alphabet = append(gen.alphabet, v.(string))
	}

	return gen, nil
}

// Seed returns the seed actually in use.
func (gen *Generator) Seed() int64 {
	return gen.seed
}

// Alphabet returns the terminals that injection draws from, sorted.
func (gen *Generator) Alphabet() []string {
	out := make([]string, len(gen.alphabet))
	copy(out, gen.alphabet)
	return out
}

// Next generates and labels a single word. It returns false if the grammar
// has no terminal that can begin a word, in which case nothing can be
// generated.
func (gen *Generator) Next() (Entry, bool) {
	if len(gen.starts) == 0 {
		return Entry{}, false
	}

	tokens := []string{gen.pick(gen.starts)}
	var injected []int

	for {
		if gen.params.MaxLen > 0 && len(tokens) >= gen.params.MaxLen {
			break
		}

		succ := gen.model.Sets.Successors(tokens[len(tokens)-1])
		if len(succ) == 0 {
			break
		}

		r := gen.rng.Float64()
		if r < gen.params.PTerm && len(gen.alphabet) > 0 {
			injected = append(injected, len(tokens))
			tokens = append(tokens, gen.pick(gen.alphabet))
		} else if r < gen.params.PTerm+gen.params.PStop {
			break
		} else {
			tokens = append(tokens, gen.pick(succ))
		}
	}

	return Entry{
		Text:     strings.Join(tokens, ""),
		Tokens:   tokens,
		Accepted: gen.model.CYK.Accepts(tokens),
		Injected: injected,
	}, true
}

// Generate produces a Corpus of Params.Count words. The corpus is empty if
// nothing can be generated for the grammar.
func (gen *Generator) Generate() Corpus {
	c := Corpus{
		ID:   uuid.New(),
		Seed: gen.seed,
	}

	for i := 0; i < gen.params.Count; i++ {
		e, ok := gen.Next()
		if !ok {
			break
		}
		c.Entries = append(c.Entries, e)
	}

	return c
}

func (gen *Generator) pick(from []string) string {
	return from[gen.rng.Intn(len(from))]
}
