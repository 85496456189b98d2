// Package cyk decides membership of a word in the language of a grammar in
// Chomsky Normal Form using the Cocke-Younger-Kasami algorithm.
package cyk

import (
	"github.com/dekarrin/gramq/internal/gqerrors"
	"github.com/dekarrin/gramq/internal/grammar"
)

type binaryRule struct {
	head, left, right int
}

// Recognizer holds a CNF grammar indexed for CYK. It is immutable once built
// and may be shared.
type Recognizer struct {
	start     int
	ntNames   []string
	termHeads map[string][]int
	binary    []binaryRule
}

// New indexes g for recognition. It returns an error if g is not in Chomsky
// Normal Form.
//
// A grammar with no rules for its start symbol is accepted; its language is
// empty and every word is rejected.
func New(g grammar.Grammar) (Recognizer, error) {
	if !g.IsCNF() {
		return Recognizer{}, gqerrors.New("grammar is not in Chomsky Normal Form", gqerrors.ErrMalformedGrammar)
	}

	r := Recognizer{
		start:     -1,
		termHeads: map[string][]int{},
	}

	ntIndex := map[string]int{}
	indexOf := func(nt string) int {
		idx, ok := ntIndex[nt]
		if !ok {
			idx = len(r.ntNames)
			ntIndex[nt] = idx
			r.ntNames = append(r.ntNames, nt)
		}
		return idx
	}

	g.Productions(func(head string, body grammar.Production) {
		h := indexOf(head)
		if len(body) == 1 {
			r.termHeads[body[0].Name] = append(r.termHeads[body[0].Name], h)
			return
		}
		r.binary = append(r.binary, binaryRule{
			head:  h,
			left:  indexOf(body[0].Name),
			right: indexOf(body[1].Name),
		})
	})

	if idx, ok := ntIndex[g.StartSymbol()]; ok {
		r.start = idx
	}

	return r, nil
}

// Start returns the name of the start symbol, or "" if the grammar did not
// define one.
func (r Recognizer) Start() string {
	if r.start < 0 {
		return ""
	}
	return r.ntNames[r.start]
}

// AcceptsString tokenizes s into terminals and calls Accepts with them.
func (r Recognizer) AcceptsString(s string) bool {
	return r.Accepts(grammar.TokenizeWord(s))
}

// Accepts returns whether the start symbol derives word, given as a sequence
// of terminal names.
//
// The empty word is always rejected; a grammar in Chomsky Normal Form has no
// way to derive it.
func (r Recognizer) Accepts(word []string) bool {
	n := len(word)
	if n == 0 || r.start < 0 {
		return false
	}

	d := r.table(word)
	return d[r.start][0][n-1]
}

// table fills d[A][i][j], which is true when A derives word[i..j] inclusive.
func (r Recognizer) table(word []string) [][][]bool {
	n := len(word)

	d := make([][][]bool, len(r.ntNames))
	for a := range d {
		d[a] = make([][]bool, n)
		for i := range d[a] {
			d[a][i] = make([]bool, n)
		}
	}

	for i := range word {
		for _, a := range r.termHeads[word[i]] {
			d[a][i][i] = true
		}
	}

	for m := 1; m < n; m++ {
		for i := 0; i+m < n; i++ {
			j := i + m
			for _, rule := range r.binary {
				if d[rule.head][i][j] {
					continue
				}
				for k := i; k < j; k++ {
					if d[rule.left][i][k] && d[rule.right][k+1][j] {
						d[rule.head][i][j] = true
						break
					}
				}
			}
		}
	}

	return d
}

// Derivers returns the names of every nonterminal that derives the whole of
// word, in the order they were first seen in the grammar.
func (r Recognizer) Derivers(word []string) []string {
	n := len(word)
	if n == 0 {
		return nil
	}

	d := r.table(word)

	var names []string
	for a := range r.ntNames {
		if d[a][0][n-1] {
			names = append(names, r.ntNames[a])
		}
	}
	return names
}
