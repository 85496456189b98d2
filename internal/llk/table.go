package llk

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/dekarrin/gramq/internal/gqerrors"
	"github.com/dekarrin/gramq/internal/grammar"
	"github.com/dekarrin/gramq/internal/util"
	"github.com/dekarrin/rosed"
)

// Table is an LL(k) parse table. Each (nonterminal, lookahead) cell holds
// every body that may be chosen for that nonterminal when the next k tokens of
// input are the lookahead. A cell with more than one body is a conflict.
type Table struct {
	K     int
	Start string

	cells util.Matrix2[string, string, []grammar.Production]
}

// Entry is a single (nonterminal, lookahead, body) triple of a Table.
type Entry struct {
	NonTerminal string
	Lookahead   string
	Body        grammar.Production
}

// String gives the entry in the persisted table form,
// NT:lookahead>sym1.sym2.
func (e Entry) String() string {
	return e.NonTerminal + ":" + e.Lookahead + ">" + strings.Join(e.Body.Names(), ".")
}

// Conflict is a cell of a Table with more than one candidate body.
type Conflict struct {
	NonTerminal string
	Lookahead   string
	Bodies      []grammar.Production
}

// NewTable returns an empty table.
func NewTable(start string, k int) Table {
	return Table{
		K:     k,
		Start: start,
		cells: util.NewMatrix2[string, string, []grammar.Production](),
	}
}

// BuildTable computes FIRST_k and FOLLOW_k over g and from them builds its
// LL(k) table. Bodies are added to each cell in the order they appear in g.
// It returns an error wrapping gqerrors.ErrBadLookahead if k is less than 1.
func BuildTable(g grammar.Grammar, k int) (Table, error) {
	sets, err := Compute(g, k)
	if err != nil {
		return Table{}, err
	}
	return BuildTableFromSets(g, sets), nil
}

// BuildTableFromSets builds the table of g using already-computed sets.
func BuildTableFromSets(g grammar.Grammar, sets Sets) Table {
	t := NewTable(g.StartSymbol(), sets.K)

	g.Productions(func(head string, body grammar.Production) {
		la := ConcatK(sets.K, sets.FirstOf(body), sets.Follow[head])
		for _, x := range la.Ordered() {
			t.Add(head, x, body)
		}
	})

	return t
}

// Add puts body in the cell for (nt, lookahead) unless it is already there.
func (t *Table) Add(nt, lookahead string, body grammar.Production) {
	if t.cells == nil {
		t.cells = util.NewMatrix2[string, string, []grammar.Production]()
	}

	existing := t.Get(nt, lookahead)
	for _, p := range existing {
		if p.Equal(body) {
			return
		}
	}
	bodies := make([]grammar.Production, len(existing), len(existing)+1)
	copy(bodies, existing)
	t.cells.Set(nt, lookahead, append(bodies, body.Copy()))
}

// Get returns the candidate bodies for nt when the lookahead is la. The
// returned slice must not be modified.
func (t Table) Get(nt, la string) []grammar.Production {
	if t.cells == nil {
		return nil
	}
	v := t.cells.Get(nt, la)
	if v == nil {
		return nil
	}
	return *v
}

// NonTerminals returns every nonterminal with at least one cell, sorted.
func (t Table) NonTerminals() []string {
	return t.cells.Xs()
}

// Lookaheads returns every lookahead used by any cell, sorted.
func (t Table) Lookaheads() []string {
	return t.cells.Ys()
}

// Cells returns the number of (nonterminal, lookahead) pairs that have at
// least one body.
func (t Table) Cells() int {
	return t.cells.Len()
}

// IsLLK returns whether no cell holds more than one body.
func (t Table) IsLLK() bool {
	for _, nt := range t.NonTerminals() {
		for _, la := range util.OrderedKeys(t.cells[nt]) {
			if len(t.Get(nt, la)) > 1 {
				return false
			}
		}
	}
	return true
}

// Conflicts returns every cell with more than one body, ordered by
// nonterminal and then by lookahead.
func (t Table) Conflicts() []Conflict {
	var conflicts []Conflict
	for _, nt := range t.NonTerminals() {
		for _, la := range util.OrderedKeys(t.cells[nt]) {
			bodies := t.Get(nt, la)
			if len(bodies) > 1 {
				conflicts = append(conflicts, Conflict{NonTerminal: nt, Lookahead: la, Bodies: bodies})
			}
		}
	}
	return conflicts
}

// Entries returns every (nonterminal, lookahead, body) triple, ordered by
// nonterminal, then lookahead, then the order bodies were added in.
func (t Table) Entries() []Entry {
	var entries []Entry
	for _, nt := range t.NonTerminals() {
		for _, la := range util.OrderedKeys(t.cells[nt]) {
			for _, body := range t.Get(nt, la) {
				entries = append(entries, Entry{NonTerminal: nt, Lookahead: la, Body: body})
			}
		}
	}
	return entries
}

// WriteTo writes the table in its persisted form, one
// NT:lookahead>sym1.sym2 line per entry. It implements io.WriterTo.
func (t Table) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, e := range t.Entries() {
		n, err := fmt.Fprintln(w, e.String())
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// ReadTable reads a table in the form written by WriteTo. Blank lines and
// lines starting with '#' are skipped. Because the persisted form carries
// neither, the start symbol and k must be given.
//
// Symbols whose names contain ':', '>', or '.' cannot be read back.
func ReadTable(r io.Reader, start string, k int) (Table, error) {
	if err := gqerrors.Lookahead(k); err != nil {
		return Table{}, err
	}

	t := NewTable(start, k)

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		e, err := parseEntry(line)
		if err != nil {
			return Table{}, gqerrors.Newf([]error{gqerrors.ErrMalformedTable}, "line %d: %s", lineNo, err.Error())
		}
		if grammar.WordLen(e.Lookahead) > k {
			return Table{}, gqerrors.Newf([]error{gqerrors.ErrMalformedTable}, "line %d: lookahead %q is longer than k=%d", lineNo, e.Lookahead, k)
		}
		t.Add(e.NonTerminal, e.Lookahead, e.Body)
	}
	if err := sc.Err(); err != nil {
		return Table{}, err
	}

	return t, nil
}

func parseEntry(line string) (Entry, error) {
	colon := strings.Index(line, ":")
	if colon < 1 {
		return Entry{}, fmt.Errorf("missing nonterminal before ':'")
	}
	gt := strings.Index(line[colon:], ">")
	if gt < 0 {
		return Entry{}, fmt.Errorf("missing '>'")
	}
	gt += colon

	e := Entry{
		NonTerminal: line[:colon],
		Lookahead:   line[colon+1 : gt],
	}

	head, err := grammar.ParseProduction(e.NonTerminal)
	if err != nil || len(head) != 1 || !head[0].IsNonTerminal() {
		return Entry{}, fmt.Errorf("%q is not a nonterminal", e.NonTerminal)
	}

	bodyText := line[gt+1:]
	if bodyText == "" {
		return Entry{}, fmt.Errorf("empty body")
	}
	for _, part := range strings.Split(bodyText, ".") {
		sym, err := grammar.ParseProduction(part)
		if err != nil || len(sym) != 1 {
			return Entry{}, fmt.Errorf("%q is not a single symbol", part)
		}
		e.Body = append(e.Body, sym[0])
	}

	return e, nil
}

// String renders the table as a bordered text table with one row per
// nonterminal and one column per lookahead. A conflicted cell lists all of its
// bodies separated by " / ".
func (t Table) String() string {
	data := [][]string{}

	las := t.Lookaheads()

	topRow := []string{""}
	for _, la := range las {
		if la == "" {
			la = "$"
		}
		topRow = append(topRow, la)
	}
	data = append(data, topRow)

	for _, nt := range t.NonTerminals() {
		dataRow := []string{nt}
		for _, la := range las {
			bodies := t.Get(nt, la)
			cell := make([]string, len(bodies))
			for i := range bodies {
				cell[i] = bodies[i].String()
			}
			dataRow = append(dataRow, strings.Join(cell, " / "))
		}
		data = append(data, dataRow)
	}

	return rosed.Edit("").
		InsertTableOpts(0, data, 120, rosed.Options{
			TableBorders: true,
		}).
		String()
}
