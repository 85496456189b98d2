// Package llk builds LL(k) parse tables from length-bounded FIRST and FOLLOW
// sets, and recognizes words with a table-driven stack machine that explores
// every candidate rule when the table is ambiguous.
//
// Lookahead strings are sequences of terminal tokens written one after another
// with no separator, and their length is counted in tokens. Because every
// terminal is either a single lowercase letter or a letter followed by a
// digit, such a string always splits back into the same tokens.
package llk

import (
	"fmt"
	"strings"

	"github.com/dekarrin/gramq/internal/gqerrors"
	"github.com/dekarrin/gramq/internal/grammar"
	"github.com/dekarrin/gramq/internal/util"
	"github.com/dekarrin/rosed"
)

// ConcatK returns every concatenation of one string from each of sets, in
// order, truncated to its first k tokens. Concatenating no sets gives the set
// holding only the empty string; if any set is empty, so is the result.
func ConcatK(k int, sets ...util.StringSet) util.StringSet {
	result := util.StringSetOf([]string{""})

	for _, s := range sets {
		next := util.NewStringSet()
		for x := range result {
			if grammar.WordLen(x) >= k {
				if !s.Empty() {
					next.Add(x)
				}
				continue
			}
			for y := range s {
				next.Add(grammar.TruncateWord(x+y, k))
			}
		}

		result = next
		if result.Empty() {
			return result
		}
	}

	return result
}

// Sets holds FIRST_k and FOLLOW_k for every nonterminal of a grammar.
type Sets struct {
	K      int
	First  map[string]util.StringSet
	Follow map[string]util.StringSet
}

// Compute calculates FIRST_k and FOLLOW_k over g. It returns an error wrapping
// gqerrors.ErrBadLookahead if k is less than 1.
func Compute(g grammar.Grammar, k int) (Sets, error) {
	if err := gqerrors.Lookahead(k); err != nil {
		return Sets{}, err
	}

	s := Sets{
		K:      k,
		First:  map[string]util.StringSet{},
		Follow: map[string]util.StringSet{},
	}

	g.Productions(func(head string, body grammar.Production) {
		s.ensure(head)
		for _, nt := range body.NonTerminals() {
			s.ensure(nt)
		}
	})
	if g.StartSymbol() != "" {
		s.ensure(g.StartSymbol())
	}

	s.computeFirst(g)
	s.computeFollow(g)

	return s, nil
}

func (s Sets) ensure(nt string) {
	if _, ok := s.First[nt]; !ok {
		s.First[nt] = util.NewStringSet()
		s.Follow[nt] = util.NewStringSet()
	}
}

// FirstOf returns FIRST_k of the sequence of symbols in body.
func (s Sets) FirstOf(body []grammar.Symbol) util.StringSet {
	parts := make([]util.StringSet, len(body))
	for i, sym := range body {
		parts[i] = s.firstOfSymbol(sym)
	}
	return ConcatK(s.K, parts...)
}

func (s Sets) firstOfSymbol(sym grammar.Symbol) util.StringSet {
	if sym.IsTerminal() {
		return util.StringSetOf([]string{sym.Name})
	}
	if first, ok := s.First[sym.Name]; ok {
		return first
	}
	return util.NewStringSet()
}

// computeFirst iterates FIRST_k[A] absorbing FIRST_k of every body of A until
// a full pass over every rule changes no set.
func (s Sets) computeFirst(g grammar.Grammar) {
	updated := true
	for updated {
		updated = false

		g.Productions(func(head string, body grammar.Production) {
			if s.First[head].Absorb(s.FirstOf(body)) {
				updated = true
			}
		})
	}
}

// computeFollow seeds FOLLOW_k[start] with the empty string, which stands for
// the end of input, then for every occurrence of a nonterminal X in a body of
// A, has FOLLOW_k[X] absorb FIRST_k of what comes after X concatenated with
// FOLLOW_k[A], until a full pass changes no set.
func (s Sets) computeFollow(g grammar.Grammar) {
	if start := g.StartSymbol(); start != "" {
		s.Follow[start].Add("")
	}

	updated := true
	for updated {
		updated = false

		g.Productions(func(head string, body grammar.Production) {
			for i, sym := range body {
				if !sym.IsNonTerminal() {
					continue
				}
				la := ConcatK(s.K, s.FirstOf(body[i+1:]), s.Follow[head])
				if s.Follow[sym.Name].Absorb(la) {
					updated = true
				}
			}
		})
	}
}

// String renders FIRST_k and FOLLOW_k of every nonterminal as a text table.
// The empty string, which marks the end of input, is shown as "$".
func (s Sets) String() string {
	data := [][]string{{"NT", fmt.Sprintf("FIRST_%d", s.K), fmt.Sprintf("FOLLOW_%d", s.K)}}

	for _, nt := range util.OrderedKeys(s.First) {
		data = append(data, []string{nt, showLookaheads(s.First[nt]), showLookaheads(s.Follow[nt])})
	}

	return rosed.Edit("").
		InsertTableOpts(0, data, 120, rosed.Options{
			TableHeaders:             true,
			NoTrailingLineSeparators: true,
		}).
		String()
}

func showLookaheads(set util.StringSet) string {
	las := set.Ordered()
	for i := range las {
		if las[i] == "" {
			las[i] = "$"
		}
	}
	return "{" + strings.Join(las, ", ") + "}"
}
