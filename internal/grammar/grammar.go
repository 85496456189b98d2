// Package grammar holds the context-free grammar model used by gramq along
// with the reader for grammar text and the transformations that bring a
// grammar into Chomsky Normal Form.
package grammar

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dekarrin/gramq/internal/gqerrors"
	"github.com/dekarrin/gramq/internal/util"
)

// Grammar is a context-free grammar. Rules are kept in the order that their
// nonterminals were first defined in, which is the order used for any
// iteration that must be deterministic.
//
// Grammar is a value type; the transformation methods return a modified copy
// and leave the receiver alone. Mutating methods take a pointer receiver and
// bump the revision counter so that anything derived from an older state of
// the grammar can tell that it is stale.
type Grammar struct {
	rulesByName map[string]int

	// main rules store, not just doing a simple map bc
	// rules may have order that matters
	rules []Rule

	// Start is the name of the start symbol.
	Start string

	// fresh-name counter; only ever goes up.
	nextName int

	rev uint64
}

// Copy makes a duplicate deep copy of the grammar.
func (g Grammar) Copy() Grammar {
	g2 := Grammar{
		rulesByName: make(map[string]int, len(g.rulesByName)),
		rules:       make([]Rule, len(g.rules)),
		Start:       g.Start,
		nextName:    g.nextName,
		rev:         g.rev,
	}

	for k := range g.rulesByName {
		g2.rulesByName[k] = g.rulesByName[k]
	}

	for i := range g.rules {
		g2.rules[i] = g.rules[i].Copy()
	}

	return g2
}

// Revision returns a number that changes every time the rules or start symbol
// of the grammar are modified.
func (g Grammar) Revision() uint64 {
	return g.rev
}

// StartSymbol returns the start symbol of the grammar.
func (g Grammar) StartSymbol() string {
	return g.Start
}

// SetStart sets the start symbol. The symbol must be a nonterminal with at
// least one rule.
func (g *Grammar) SetStart(nt string) error {
	if _, ok := g.rulesByName[nt]; !ok {
		return gqerrors.New(fmt.Sprintf("%q has no rules", nt), gqerrors.ErrUnknownStart)
	}
	g.Start = nt
	g.rev++
	return nil
}

// String gives the grammar in the same text format that Parse reads.
func (g Grammar) String() string {
	var sb strings.Builder
	for i := range g.rules {
		sb.WriteString(g.rules[i].String())
		sb.WriteRune('\n')
	}
	return sb.String()
}

// Rule returns the grammar rule for the given nonterminal symbol. If there is
// no rule defined for that nonterminal, a Rule with an empty NonTerminal field
// is returned.
func (g Grammar) Rule(nonterminal string) Rule {
	if g.rulesByName == nil {
		return Rule{}
	}

	if curIdx, ok := g.rulesByName[nonterminal]; !ok {
		return Rule{}
	} else {
		return g.rules[curIdx]
	}
}

// Rules returns a copy of every rule in definition order.
func (g Grammar) Rules() []Rule {
	rules := make([]Rule, len(g.rules))
	for i := range g.rules {
		rules[i] = g.rules[i].Copy()
	}
	return rules
}

// Productions calls fn once for each (head, body) pair in the grammar, in
// definition order.
func (g Grammar) Productions(fn func(head string, body Production)) {
	for i := range g.rules {
		for _, p := range g.rules[i].Productions {
			fn(g.rules[i].NonTerminal, p)
		}
	}
}

// Size returns the total number of productions in the grammar.
func (g Grammar) Size() int {
	var n int
	for i := range g.rules {
		n += len(g.rules[i].Productions)
	}
	return n
}

// Defines returns whether there is at least one rule for the given
// nonterminal.
func (g Grammar) Defines(nt string) bool {
	_, ok := g.rulesByName[nt]
	return ok
}

// AddRule adds the given production for a nonterminal. If the nonterminal has
// already been given, the production is added as an alternative for that
// nonterminal with lower priority than all others already added. Adding a
// production that the nonterminal already has is a no-op.
//
// All rules require at least one symbol in the production.
func (g *Grammar) AddRule(nonterminal string, production Production) {
	if nonterminal == "" {
		panic("empty nonterminal name not allowed for production rule")
	}
	if len(production) < 1 {
		panic("empty production not allowed")
	}

	if g.rulesByName == nil {
		g.rulesByName = map[string]int{}
	}

	curIdx, ok := g.rulesByName[nonterminal]
	if !ok {
		g.rules = append(g.rules, Rule{NonTerminal: nonterminal})
		curIdx = len(g.rules) - 1
		g.rulesByName[nonterminal] = curIdx
	}

	curRule := g.rules[curIdx]
	if curRule.HasProduction(production) {
		return
	}
	curRule.Productions = append(curRule.Productions, production.Copy())
	g.rules[curIdx] = curRule
	g.rev++
}

// SetProductions replaces every production of the given nonterminal. Giving no
// productions removes the nonterminal's rule entirely.
func (g *Grammar) SetProductions(nonterminal string, prods []Production) {
	if len(prods) == 0 {
		g.RemoveRule(nonterminal)
		return
	}

	if idx, ok := g.rulesByName[nonterminal]; ok {
		g.rules[idx] = Rule{NonTerminal: nonterminal}
		g.rev++
	}
	for _, p := range prods {
		g.AddRule(nonterminal, p)
	}
}

// RemoveRule eliminates all productions of the given nonterminal from the
// grammar. The nonterminal will no longer be considered to be a part of the
// Grammar.
//
// If the grammar already does not contain the given non-terminal this function
// has no effect.
func (g *Grammar) RemoveRule(nonterminal string) {
	ruleIdx, ok := g.rulesByName[nonterminal]
	if !ok {
		return
	}

	delete(g.rulesByName, nonterminal)

	g.rules = append(g.rules[:ruleIdx], g.rules[ruleIdx+1:]...)
	for i := ruleIdx; i < len(g.rules); i++ {
		g.rulesByName[g.rules[i].NonTerminal] = i
	}
	g.rev++
}

// NonTerminals returns list of all the nonterminal symbols that have rules, in
// the order they were defined in.
func (g Grammar) NonTerminals() []string {
	nts := make([]string, len(g.rules))
	for i := range g.rules {
		nts[i] = g.rules[i].NonTerminal
	}
	return nts
}

// Terminals returns the names of every terminal used in any production,
// sorted.
func (g Grammar) Terminals() []string {
	terms := util.NewStringSet()
	g.Productions(func(_ string, body Production) {
		for _, sym := range body {
			if sym.IsTerminal() {
				terms.Add(sym.Name)
			}
		}
	})
	return terms.Ordered()
}

// Uses returns every nonterminal reachable from nt through the "body uses
// nonterminal" relation, including nt itself. Nonterminals that are referenced
// but have no rules are included.
func (g Grammar) Uses(nt string) util.StringSet {
	visited := util.NewStringSet()
	stack := []string{nt}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited.Has(cur) {
			continue
		}
		visited.Add(cur)

		for _, p := range g.Rule(cur).Productions {
			for _, next := range p.NonTerminals() {
				if !visited.Has(next) {
					stack = append(stack, next)
				}
			}
		}
	}

	return visited
}

// DiscoverStart picks the nonterminal whose reachability closure is largest.
// Ties go to the nonterminal defined first. Returns "" for an empty grammar.
func (g Grammar) DiscoverStart() string {
	best := ""
	bestSize := 0
	for _, nt := range g.NonTerminals() {
		size := g.Uses(nt).Len()
		if size > bestSize {
			best = nt
			bestSize = size
		}
	}
	return best
}

// Validate returns an error if any production references a nonterminal that
// has no rules, or if the start symbol is not defined.
func (g Grammar) Validate() error {
	if len(g.rules) < 1 {
		return gqerrors.Malformed(0, "no rules defined in grammar")
	}

	var problems []string
	for i := range g.rules {
		for _, p := range g.rules[i].Productions {
			for _, nt := range p.NonTerminals() {
				if !g.Defines(nt) {
					problems = append(problems, fmt.Sprintf("no rules for nonterminal %q produced by %q", nt, g.rules[i].NonTerminal))
				}
			}
		}
	}

	if !g.Defines(g.Start) {
		problems = append(problems, fmt.Sprintf("no rules for start symbol %q", g.Start))
	}

	if len(problems) > 0 {
		return gqerrors.Malformed(0, "%s", strings.Join(problems, "; "))
	}
	return nil
}

// Fresh returns a new nonterminal name derived from base that is not used
// anywhere in the grammar. Every call advances the grammar's name counter, so
// a name is never handed out twice by a grammar or anything derived from it.
func (g *Grammar) Fresh(base string) string {
	base = strings.TrimSuffix(strings.TrimPrefix(base, "["), "]")

	used := g.symbolNames()
	for {
		g.nextName++
		name := "[" + base + "_" + strconv.Itoa(g.nextName) + "]"
		if !used.Has(name) {
			return name
		}
	}
}

func (g Grammar) symbolNames() util.StringSet {
	names := util.NewStringSet()
	g.Productions(func(head string, body Production) {
		names.Add(head)
		for _, sym := range body {
			names.Add(sym.Name)
		}
	})
	return names
}
