package gramq

import (
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/cnf/structhash"
	"github.com/dekarrin/gramq/internal/bigram"
	"github.com/dekarrin/gramq/internal/cyk"
	"github.com/dekarrin/gramq/internal/fuzz"
	"github.com/dekarrin/gramq/internal/grammar"
	"github.com/dekarrin/gramq/internal/llk"
)

// Analysis holds a grammar and everything derived from it. Derived results
// are computed the first time they are asked for and kept until the grammar
// changes; every accessor compares the grammar's revision against the one
// the cached results were computed at.
//
// An Analysis is safe for concurrent use.
type Analysis struct {
	mtx sync.Mutex

	g   grammar.Grammar
	rev uint64

	cnf     *grammar.Grammar
	bigrams *bigram.Sets
	cyk     *cyk.Recognizer
	sets    map[int]llk.Sets
	tables  map[int]llk.Table
}

// Mismatch is a corpus entry on which the CYK label and the table-driven
// recognizer disagree.
type Mismatch struct {
	// Index is the 1-based position of the entry in its corpus.
	Index int

	Text  string
	CYK   bool
	Table bool
}

func (m Mismatch) String() string {
	return fmt.Sprintf("#%d %q: CYK=%t, table=%t", m.Index, m.Text, m.CYK, m.Table)
}

// NewAnalysis returns an Analysis of a copy of g.
func NewAnalysis(g grammar.Grammar) *Analysis {
	a := &Analysis{g: g.Copy()}
	a.reset()
	return a
}

// ParseAnalysis parses grammar text and returns an Analysis of it. If start
// is not empty it is used as the start symbol; otherwise the nonterminal with
// the largest reachability closure is, with ties going to the one defined
// first.
func ParseAnalysis(text string, start string) (*Analysis, error) {
	g, err := grammar.Parse(text)
	if err != nil {
		return nil, err
	}

	if start != "" {
		if err := g.SetStart(start); err != nil {
			return nil, err
		}
	}

	return NewAnalysis(g), nil
}

// LoadAnalysis reads grammar text from the file at path and returns an
// Analysis of it. The start symbol is chosen as by ParseAnalysis.
func LoadAnalysis(path string, start string) (*Analysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read grammar file: %w", err)
	}

	a, err := ParseAnalysis(string(data), start)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	log.Debug("loaded grammar", "file", path, "rules", len(a.g.Rules()), "start", a.g.StartSymbol())

	return a, nil
}

// Grammar returns a copy of the analyzed grammar.
func (a *Analysis) Grammar() grammar.Grammar {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	return a.g.Copy()
}

// Start returns the start symbol of the analyzed grammar.
func (a *Analysis) Start() string {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	return a.g.StartSymbol()
}

// SetStart changes the start symbol. All derived results are recomputed on
// next use.
func (a *Analysis) SetStart(nt string) error {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	return a.g.SetStart(nt)
}

// Fingerprint returns a hash of the rules and start symbol of the grammar.
// Two grammars with the same rules in the same order and the same start
// symbol have the same fingerprint.
func (a *Analysis) Fingerprint() (string, error) {
	return Fingerprint(a.Grammar())
}

// Fingerprint returns a hash of the rules and start symbol of g.
func Fingerprint(g grammar.Grammar) (string, error) {
	type fingerprintRule struct {
		NonTerminal string
		Bodies      []string
	}
	fp := struct {
		Start string
		Rules []fingerprintRule
	}{Start: g.StartSymbol()}

	for _, r := range g.Rules() {
		fr := fingerprintRule{NonTerminal: r.NonTerminal}
		for _, p := range r.Productions {
			fr.Bodies = append(fr.Bodies, p.String())
		}
		fp.Rules = append(fp.Rules, fr)
	}

	hash, err := structhash.Hash(fp, 1)
	if err != nil {
		return "", fmt.Errorf("fingerprint grammar: %w", err)
	}
	return hash, nil
}

// CNF returns the grammar in Chomsky Normal Form.
func (a *Analysis) CNF() grammar.Grammar {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	return a.cnfLocked().Copy()
}

// Bigrams returns the bigram model of the normalized grammar. The returned
// sets are shared with the cache and must not be modified.
func (a *Analysis) Bigrams() bigram.Sets {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	return a.bigramsLocked()
}

// CYK returns the CYK recognizer for the normalized grammar.
func (a *Analysis) CYK() (cyk.Recognizer, error) {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	return a.cykLocked()
}

// Accepts returns whether the grammar derives word, as decided by CYK.
func (a *Analysis) Accepts(word string) (bool, error) {
	rec, err := a.CYK()
	if err != nil {
		return false, err
	}
	return rec.AcceptsString(word), nil
}

// Fuzz generates a labeled corpus from the bigram model of the normalized
// grammar. The returned error wraps gqerrors.ErrBadFuzzParams if p is
// invalid; nothing is computed in that case.
func (a *Analysis) Fuzz(p fuzz.Params) (fuzz.Corpus, error) {
	if err := p.Validate(); err != nil {
		return fuzz.Corpus{}, err
	}

	a.mtx.Lock()
	rec, err := a.cykLocked()
	if err != nil {
		a.mtx.Unlock()
		return fuzz.Corpus{}, err
	}
	cnf := a.cnfLocked()
	m := fuzz.Model{
		Start:     cnf.StartSymbol(),
		Terminals: cnf.Terminals(),
		Sets:      a.bigramsLocked(),
		CYK:       rec,
	}
	a.mtx.Unlock()

	gen, err := fuzz.NewGenerator(m, p)
	if err != nil {
		return fuzz.Corpus{}, err
	}

	c := gen.Generate()
	log.Debug("generated corpus", "id", c.ID, "seed", c.Seed, "entries", c.Len(), "accepted", len(c.Positives()))
	return c, nil
}

// LLK returns FIRST_k and FOLLOW_k of the grammar as written, not of its
// normalized form. The returned error wraps gqerrors.ErrBadLookahead if k is
// less than 1.
func (a *Analysis) LLK(k int) (llk.Sets, error) {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	return a.llkLocked(k)
}

// Table returns the LL(k) parse table of the grammar as written. The returned
// table is shared with the cache and must not be modified.
func (a *Analysis) Table(k int) (llk.Table, error) {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	return a.tableLocked(k)
}

// Recognizer returns a table-driven recognizer using the LL(k) table.
func (a *Analysis) Recognizer(k int) (*llk.Recognizer, error) {
	t, err := a.Table(k)
	if err != nil {
		return nil, err
	}
	return llk.NewRecognizer(t), nil
}

// Recognize returns whether the grammar derives word, as decided by the
// table-driven recognizer using the LL(k) table.
func (a *Analysis) Recognize(word string, k int) (bool, error) {
	r, err := a.Recognizer(k)
	if err != nil {
		return false, err
	}
	return r.RecognizeString(word), nil
}

// CrossCheck runs the table-driven recognizer with the LL(k) table over every
// entry of c and returns the entries whose result differs from the entry's
// CYK label. A corpus generated from this grammar has no mismatches.
func (a *Analysis) CrossCheck(c fuzz.Corpus, k int) ([]Mismatch, error) {
	r, err := a.Recognizer(k)
	if err != nil {
		return nil, err
	}

	var mismatches []Mismatch
	for i, e := range c.Entries {
		tokens := e.Tokens
		if tokens == nil {
			tokens = grammar.TokenizeWord(e.Text)
		}

		got := r.Recognize(tokens)
		if got != e.Accepted {
			mismatches = append(mismatches, Mismatch{Index: i + 1, Text: e.Text, CYK: e.Accepted, Table: got})
		}
	}

	if len(mismatches) > 0 {
		log.Warn("cross-check found mismatches", "corpus", c.ID, "k", k, "count", len(mismatches))
	} else {
		log.Debug("cross-check passed", "corpus", c.ID, "k", k, "entries", c.Len())
	}

	return mismatches, nil
}

func (a *Analysis) reset() {
	a.rev = a.g.Revision()
	a.cnf = nil
	a.bigrams = nil
	a.cyk = nil
	a.sets = map[int]llk.Sets{}
	a.tables = map[int]llk.Table{}
}

// checkStale drops every cached result if the grammar changed since they were
// computed. Callers must hold mtx.
func (a *Analysis) checkStale() {
	if a.g.Revision() != a.rev {
		log.Debug("grammar changed; dropping derived results", "from", a.rev, "to", a.g.Revision())
		a.reset()
	}
}

func (a *Analysis) cnfLocked() grammar.Grammar {
	a.checkStale()
	if a.cnf == nil {
		cnf := a.g.CNF()
		a.cnf = &cnf
	}
	return *a.cnf
}

func (a *Analysis) bigramsLocked() bigram.Sets {
	a.checkStale()
	if a.bigrams == nil {
		sets := bigram.Compute(a.cnfLocked())
		a.bigrams = &sets
	}
	return *a.bigrams
}

func (a *Analysis) cykLocked() (cyk.Recognizer, error) {
	a.checkStale()
	if a.cyk == nil {
		rec, err := cyk.New(a.cnfLocked())
		if err != nil {
			return cyk.Recognizer{}, err
		}
		a.cyk = &rec
	}
	return *a.cyk, nil
}

func (a *Analysis) llkLocked(k int) (llk.Sets, error) {
	a.checkStale()
	if sets, ok := a.sets[k]; ok {
		return sets, nil
	}

	sets, err := llk.Compute(a.g, k)
	if err != nil {
		return llk.Sets{}, err
	}
	a.sets[k] = sets
	return sets, nil
}

func (a *Analysis) tableLocked(k int) (llk.Table, error) {
	a.checkStale()
	if t, ok := a.tables[k]; ok {
		return t, nil
	}

	sets, err := a.llkLocked(k)
	if err != nil {
		return llk.Table{}, err
	}
	t := llk.BuildTableFromSets(a.g, sets)
	a.tables[k] = t
	return t, nil
}
