package grammar

import (
	"github.com/dekarrin/gramq/internal/util"
)

// CNF returns a grammar in Chomsky Normal Form that derives the same language
// as g. The five passes run strictly in this order, each depending on the
// shape the previous one leaves behind:
//
//  1. SplitLongRules
//  2. EliminateChainRules
//  3. RemoveNonGenerating
//  4. RemoveUnreachable
//  5. IsolateTerminals
//
// None of the passes validate g; a referenced nonterminal with no rules is
// simply non-generating and disappears along with every rule that mentions it.
func (g Grammar) CNF() Grammar {
	g = g.SplitLongRules()
	g = g.EliminateChainRules()
	g = g.RemoveNonGenerating()
	g = g.RemoveUnreachable()
	g = g.IsolateTerminals()
	return g
}

// IsCNF returns whether every production of g is either a single terminal or
// exactly two nonterminals.
func (g Grammar) IsCNF() bool {
	ok := true
	g.Productions(func(_ string, body Production) {
		switch len(body) {
		case 1:
			if !body.IsTerminalUnit() {
				ok = false
			}
		case 2:
			if !body[0].IsNonTerminal() || !body[1].IsNonTerminal() {
				ok = false
			}
		default:
			ok = false
		}
	})
	return ok
}

// SplitLongRules returns a grammar where every production longer than two
// symbols, A -> X1 X2 ... Xn, is rewritten as A -> X1 F with a fresh
// nonterminal F -> X2 ... Xn, repeated until no production is longer than two.
func (g Grammar) SplitLongRules() Grammar {
	g = g.Copy()

	// pre-retrieved so the fresh rules appended below are not iterated over;
	// they never need splitting again.
	for _, nt := range g.NonTerminals() {
		rule := g.Rule(nt)
		newProds := make([]Production, 0, len(rule.Productions))

		for _, p := range rule.Productions {
			if len(p) <= 2 {
				newProds = append(newProds, p)
				continue
			}

			fresh := g.Fresh(nt)
			newProds = append(newProds, Production{p[0], NT(fresh)})

			rest := p[1:]
			for len(rest) > 2 {
				next := g.Fresh(nt)
				g.AddRule(fresh, Production{rest[0], NT(next)})
				fresh = next
				rest = rest[1:]
			}
			g.AddRule(fresh, rest)
		}

		g.SetProductions(nt, newProds)
	}

	return g
}

// EliminateChainRules returns a grammar with every production of the form
// A -> B, where B is a nonterminal, replaced by the non-chain productions of
// every nonterminal reachable from A through chain productions alone.
//
// The chain closure is computed for every nonterminal, not only the ones
// reachable from the start symbol, so cycles of chain rules anywhere in the
// grammar are handled.
func (g Grammar) EliminateChainRules() Grammar {
	g = g.Copy()

	replacements := map[string][]Production{}
	for _, nt := range g.NonTerminals() {
		var prods []Production
		seenProds := map[string]bool{}

		for _, member := range g.chainClosure(nt) {
			for _, p := range g.Rule(member).Productions {
				if p.IsUnit() {
					continue
				}
				key := prodKey(p)
				if seenProds[key] {
					continue
				}
				seenProds[key] = true
				prods = append(prods, p)
			}
		}
		replacements[nt] = prods
	}

	for _, nt := range g.NonTerminals() {
		g.SetProductions(nt, replacements[nt])
	}

	return g
}

// chainClosure gives every nonterminal reachable from nt by chain productions,
// nt included, in breadth-first order.
func (g Grammar) chainClosure(nt string) []string {
	order := []string{nt}
	visited := util.StringSetOf(order)

	for i := 0; i < len(order); i++ {
		for _, p := range g.Rule(order[i]).UnitProductions() {
			if !visited.Has(p[0].Name) {
				visited.Add(p[0].Name)
				order = append(order, p[0].Name)
			}
		}
	}

	return order
}

// Generating returns the set of nonterminals that derive at least one string
// of terminals.
//
// It is a least fixpoint over a worklist: every production counts the distinct
// nonterminals in its body, productions with a count of zero seed the
// worklist with their head, and each time a nonterminal is proven generating
// the count of every production mentioning it goes down by one.
func (g Grammar) Generating() util.StringSet {
	type prodRef struct {
		head string
		body Production
	}

	var prods []prodRef
	remaining := map[int]int{}
	concerned := map[string][]int{}
	generating := util.NewStringSet()
	var queue []string

	g.Productions(func(head string, body Production) {
		idx := len(prods)
		prods = append(prods, prodRef{head: head, body: body})

		nts := body.NonTerminals()
		remaining[idx] = len(nts)
		for _, nt := range nts {
			concerned[nt] = append(concerned[nt], idx)
		}

		if len(nts) == 0 && !generating.Has(head) {
			generating.Add(head)
			queue = append(queue, head)
		}
	})

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, idx := range concerned[cur] {
			remaining[idx]--
			if remaining[idx] == 0 {
				head := prods[idx].head
				if !generating.Has(head) {
					generating.Add(head)
					queue = append(queue, head)
				}
			}
		}
	}

	return generating
}

// RemoveNonGenerating returns a grammar without any production that mentions
// a non-generating nonterminal in its head or body.
func (g Grammar) RemoveNonGenerating() Grammar {
	g = g.Copy()
	generating := g.Generating()

	for _, nt := range g.NonTerminals() {
		if !generating.Has(nt) {
			g.RemoveRule(nt)
			continue
		}

		var kept []Production
		for _, p := range g.Rule(nt).Productions {
			allGenerating := true
			for _, bodyNT := range p.NonTerminals() {
				if !generating.Has(bodyNT) {
					allGenerating = false
					break
				}
			}
			if allGenerating {
				kept = append(kept, p)
			}
		}
		g.SetProductions(nt, kept)
	}

	return g
}

// RemoveUnreachable returns a grammar with every rule whose nonterminal cannot
// be reached from the start symbol removed.
func (g Grammar) RemoveUnreachable() Grammar {
	g = g.Copy()

	var reachable util.StringSet
	if g.Start != "" {
		reachable = g.Uses(g.Start)
	}

	for _, nt := range g.NonTerminals() {
		if !reachable.Has(nt) {
			g.RemoveRule(nt)
		}
	}

	return g
}

// IsolateTerminals returns a grammar where every terminal appearing in a
// two-symbol production is replaced by a fresh nonterminal whose only
// production is that terminal. A single fresh nonterminal is used per
// terminal throughout the grammar.
func (g Grammar) IsolateTerminals() Grammar {
	g = g.Copy()

	forTerm := map[string]string{}
	var termOrder []string

	isolate := func(sym Symbol) Symbol {
		if !sym.IsTerminal() {
			return sym
		}
		name, ok := forTerm[sym.Name]
		if !ok {
			name = g.Fresh("T_" + sym.Name)
			forTerm[sym.Name] = name
			termOrder = append(termOrder, sym.Name)
		}
		return NT(name)
	}

	for _, nt := range g.NonTerminals() {
		rule := g.Rule(nt)
		newProds := make([]Production, len(rule.Productions))
		for i, p := range rule.Productions {
			if len(p) == 2 {
				p = Production{isolate(p[0]), isolate(p[1])}
			}
			newProds[i] = p
		}
		g.SetProductions(nt, newProds)
	}

	for _, t := range termOrder {
		g.AddRule(forTerm[t], Production{T(t)})
	}

	return g
}

func prodKey(p Production) string {
	var key []byte
	for _, sym := range p {
		key = append(key, byte(sym.Kind))
		key = append(key, sym.Name...)
		key = append(key, 0)
	}
	return string(key)
}
