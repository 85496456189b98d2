// Package bigram computes the terminal adjacency model of a grammar in Chomsky
// Normal Form: which terminals can begin, end, follow and precede the strings
// derived from each nonterminal, and from those, which pairs of terminals can
// appear next to each other in a derivable string.
package bigram

import (
	"github.com/dekarrin/gramq/internal/grammar"
	"github.com/dekarrin/gramq/internal/util"
	"github.com/dekarrin/rosed"
)

// Sets is the full bigram model of a grammar. Every nonterminal that appears in
// the grammar has an entry (possibly empty) in First, Last, Follow, Precede,
// and FollowNT; every terminal has an entry in Bigram.
type Sets struct {
	// First maps a nonterminal to the terminals that can begin a string
	// derived from it.
	First map[string]util.StringSet

	// Last maps a nonterminal to the terminals that can end a string derived
	// from it.
	Last map[string]util.StringSet

	// Follow maps a nonterminal X to the terminals that can come directly
	// after X in a binary body A -> X Y.
	Follow map[string]util.StringSet

	// Precede maps a nonterminal Y to the terminals that can come directly
	// before Y in a binary body A -> X Y.
	Precede map[string]util.StringSet

	// FollowNT maps a nonterminal X to each Y for which there is a binary body
	// A -> X Y. It is not transitive.
	FollowNT map[string]util.StringSet

	// Bigram maps a terminal to the terminals that may directly follow it.
	Bigram map[string]util.StringSet
}

// Compute builds the bigram model of g. g must be in Chomsky Normal Form;
// bodies of any other shape are not considered for FOLLOW, PRECEDE, or
// adjacency.
func Compute(g grammar.Grammar) Sets {
	s := Sets{
		First:    map[string]util.StringSet{},
		Last:     map[string]util.StringSet{},
		Follow:   map[string]util.StringSet{},
		Precede:  map[string]util.StringSet{},
		FollowNT: map[string]util.StringSet{},
		Bigram:   map[string]util.StringSet{},
	}

	g.Productions(func(head string, body grammar.Production) {
		s.ensureNT(head)
		for _, sym := range body {
			if sym.IsNonTerminal() {
				s.ensureNT(sym.Name)
			} else if _, ok := s.Bigram[sym.Name]; !ok {
				s.Bigram[sym.Name] = util.NewStringSet()
			}
		}
	})

	s.computeFirstAndLast(g)
	s.computeFollow(g)
	s.computePrecede(g)
	s.computeFollowNT(g)
	s.computeBigrams()

	return s
}

func (s Sets) ensureNT(nt string) {
	if _, ok := s.First[nt]; ok {
		return
	}
	s.First[nt] = util.NewStringSet()
	s.Last[nt] = util.NewStringSet()
	s.Follow[nt] = util.NewStringSet()
	s.Precede[nt] = util.NewStringSet()
	s.FollowNT[nt] = util.NewStringSet()
}

// computeFirstAndLast fills FIRST from the head symbol of each body and LAST
// from the tail symbol. Both are iterated together until a full pass over the
// grammar changes neither.
func (s Sets) computeFirstAndLast(g grammar.Grammar) {
	updated := true
	for updated {
		updated = false

		g.Productions(func(head string, body grammar.Production) {
			if absorbSymbol(s.First, head, body[0]) {
				updated = true
			}
			if absorbSymbol(s.Last, head, body[len(body)-1]) {
				updated = true
			}
		})
	}
}

// absorbSymbol adds to sets[nt] the terminal sym, or everything in sets[sym] if
// sym is a nonterminal. Returns whether sets[nt] grew.
func absorbSymbol(sets map[string]util.StringSet, nt string, sym grammar.Symbol) bool {
	if sym.IsTerminal() {
		if sets[nt].Has(sym.Name) {
			return false
		}
		sets[nt].Add(sym.Name)
		return true
	}
	return sets[nt].Absorb(sets[sym.Name])
}

// computeFollow has FOLLOW[X] absorb FIRST[Y] for each A -> X Y until a full
// pass changes nothing.
func (s Sets) computeFollow(g grammar.Grammar) {
	updated := true
	for updated {
		updated = false

		g.Productions(func(_ string, body grammar.Production) {
			if !isBinary(body) {
				return
			}
			if s.Follow[body[0].Name].Absorb(s.First[body[1].Name]) {
				updated = true
			}
		})
	}
}

// computePrecede has PRECEDE[Y] absorb LAST[X] for each A -> X Y until a full
// pass changes nothing.
func (s Sets) computePrecede(g grammar.Grammar) {
	updated := true
	for updated {
		updated = false

		g.Productions(func(_ string, body grammar.Production) {
			if !isBinary(body) {
				return
			}
			if s.Precede[body[1].Name].Absorb(s.Last[body[0].Name]) {
				updated = true
			}
		})
	}
}

func (s Sets) computeFollowNT(g grammar.Grammar) {
	g.Productions(func(_ string, body grammar.Production) {
		if isBinary(body) {
			s.FollowNT[body[0].Name].Add(body[1].Name)
		}
	})
}

// computeBigrams joins the three sources of adjacency. For each nonterminal N:
// every y1 in LAST[N] may be followed by every y2 in FOLLOW[N], and every y1
// in PRECEDE[N] may be followed by every y2 in FIRST[N]. For each adjacent pair
// X Y, every y1 in LAST[X] may be followed by every y2 in FIRST[Y].
func (s Sets) computeBigrams() {
	for nt := range s.First {
		s.addPairs(s.Last[nt], s.Follow[nt])
		s.addPairs(s.Precede[nt], s.First[nt])

		for next := range s.FollowNT[nt] {
			s.addPairs(s.Last[nt], s.First[next])
		}
	}
}

func (s Sets) addPairs(lefts, rights util.StringSet) {
	for y1 := range lefts {
		if _, ok := s.Bigram[y1]; !ok {
			s.Bigram[y1] = util.NewStringSet()
		}
		s.Bigram[y1].AddAll(rights)
	}
}

// Valid returns whether b may directly follow a in some string of the
// language.
func (s Sets) Valid(a, b string) bool {
	return s.Bigram[a].Has(b)
}

// Successors returns the terminals that may directly follow t, sorted.
func (s Sets) Successors(t string) []string {
	return s.Bigram[t].Ordered()
}

// Terminals returns every terminal in the model, sorted.
func (s Sets) Terminals() []string {
	return util.OrderedKeys(s.Bigram)
}

// NonTerminals returns every nonterminal in the model, sorted.
func (s Sets) NonTerminals() []string {
	return util.OrderedKeys(s.First)
}

// String renders the model as two text tables, one for the nonterminal sets
// and one for the bigram relation.
func (s Sets) String() string {
	ntData := [][]string{{"NT", "FIRST", "LAST", "FOLLOW", "PRECEDE", "ADJACENT"}}
	for _, nt := range s.NonTerminals() {
		ntData = append(ntData, []string{
			nt,
			s.First[nt].StringOrdered(),
			s.Last[nt].StringOrdered(),
			s.Follow[nt].StringOrdered(),
			s.Precede[nt].StringOrdered(),
			s.FollowNT[nt].StringOrdered(),
		})
	}

	tData := [][]string{{"Terminal", "BIGRAM"}}
	for _, t := range s.Terminals() {
		tData = append(tData, []string{t, s.Bigram[t].StringOrdered()})
	}

	tableOpts := rosed.Options{
		TableHeaders:             true,
		NoTrailingLineSeparators: true,
	}

	ntTable := rosed.Edit("").InsertTableOpts(0, ntData, 100, tableOpts).String()
	tTable := rosed.Edit("").InsertTableOpts(0, tData, 100, tableOpts).String()

	return ntTable + "\n\n" + tTable
}

func isBinary(body grammar.Production) bool {
	return len(body) == 2 && body[0].IsNonTerminal() && body[1].IsNonTerminal()
}
