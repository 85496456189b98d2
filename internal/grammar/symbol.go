package grammar

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind is the kind of a Symbol. It is decided once, when the symbol is
// tokenized, and is never re-derived from the symbol's name afterwards.
type Kind int

const (
	NonTerminal Kind = iota
	Terminal
)

func (k Kind) String() string {
	if k == Terminal {
		return "terminal"
	}
	return "nonterminal"
}

// Symbol is a single grammar symbol.
type Symbol struct {
	Kind Kind
	Name string
}

// T returns a terminal Symbol with the given name.
func T(name string) Symbol {
	return Symbol{Kind: Terminal, Name: name}
}

// NT returns a nonterminal Symbol with the given name.
func NT(name string) Symbol {
	return Symbol{Kind: NonTerminal, Name: name}
}

// IsTerminal returns whether the symbol is a terminal.
func (s Symbol) IsTerminal() bool {
	return s.Kind == Terminal
}

// IsNonTerminal returns whether the symbol is a nonterminal.
func (s Symbol) IsNonTerminal() bool {
	return s.Kind == NonTerminal
}

func (s Symbol) String() string {
	return s.Name
}

// kindOf gives the kind of a raw token. A token that begins with a lowercase
// letter is a terminal; everything else, bracketed names included, is a
// nonterminal.
func kindOf(tok string) Kind {
	r, _ := utf8.DecodeRuneInString(tok)
	if unicode.IsLower(r) {
		return Terminal
	}
	return NonTerminal
}

// Production is the ordered body of a single alternative of a Rule.
type Production []Symbol

// Copy returns a deep-copied duplicate of this production.
func (p Production) Copy() Production {
	p2 := make(Production, len(p))
	copy(p2, p)
	return p2
}

// Equal returns whether p is equal to another value. It will not be equal if
// the other value cannot be cast to Production or *Production.
func (p Production) Equal(o any) bool {
	other, ok := o.(Production)
	if !ok {
		otherPtr, ok := o.(*Production)
		if !ok || otherPtr == nil {
			return false
		}
		other = *otherPtr
	}

	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// String gives the production in grammar text form, with symbols written
// directly after each other.
func (p Production) String() string {
	var sb strings.Builder
	for i := range p {
		sb.WriteString(p[i].Name)
	}
	return sb.String()
}

// Names returns the names of each symbol in the production, in order.
func (p Production) Names() []string {
	names := make([]string, len(p))
	for i := range p {
		names[i] = p[i].Name
	}
	return names
}

// IsUnit returns whether this production is a single nonterminal, i.e. the
// body of a chain rule.
func (p Production) IsUnit() bool {
	return len(p) == 1 && p[0].IsNonTerminal()
}

// IsTerminalUnit returns whether this production is a single terminal.
func (p Production) IsTerminalUnit() bool {
	return len(p) == 1 && p[0].IsTerminal()
}

// NonTerminals returns the names of the distinct nonterminals in p, in order
// of first appearance.
func (p Production) NonTerminals() []string {
	var nts []string
	seen := map[string]bool{}
	for i := range p {
		if p[i].IsNonTerminal() && !seen[p[i].Name] {
			seen[p[i].Name] = true
			nts = append(nts, p[i].Name)
		}
	}
	return nts
}

// Rule is every production of a single nonterminal.
type Rule struct {
	NonTerminal string
	Productions []Production
}

// Copy returns a deep-copy duplicate of the given Rule.
func (r Rule) Copy() Rule {
	r2 := Rule{
		NonTerminal: r.NonTerminal,
		Productions: make([]Production, len(r.Productions)),
	}

	for i := range r.Productions {
		r2.Productions[i] = r.Productions[i].Copy()
	}

	return r2
}

// String gives the rule in grammar text form.
func (r Rule) String() string {
	var sb strings.Builder

	sb.WriteString(r.NonTerminal)
	sb.WriteString(" -> ")

	for i := range r.Productions {
		sb.WriteString(r.Productions[i].String())
		if i+1 < len(r.Productions) {
			sb.WriteString(" | ")
		}
	}

	return sb.String()
}

// Equal returns whether Rule is equal to another value. It will not be equal
// if the other value cannot be casted to a Rule or *Rule.
func (r Rule) Equal(o any) bool {
	other, ok := o.(Rule)
	if !ok {
		otherPtr, ok := o.(*Rule)
		if !ok || otherPtr == nil {
			return false
		}
		other = *otherPtr
	}

	if r.NonTerminal != other.NonTerminal {
		return false
	}
	if len(r.Productions) != len(other.Productions) {
		return false
	}
	for i := range r.Productions {
		if !r.Productions[i].Equal(other.Productions[i]) {
			return false
		}
	}
	return true
}

// HasProduction returns whether the rule has a production of the exact sequence
// of symbols.
func (r Rule) HasProduction(prod Production) bool {
	for _, alt := range r.Productions {
		if alt.Equal(prod) {
			return true
		}
	}
	return false
}

// UnitProductions returns all productions from the Rule that are chain
// productions; i.e. are of the form A -> B where B is a nonterminal.
func (r Rule) UnitProductions() []Production {
	prods := []Production{}
	for _, alt := range r.Productions {
		if alt.IsUnit() {
			prods = append(prods, alt)
		}
	}
	return prods
}
