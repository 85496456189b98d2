package llk

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dekarrin/gramq/internal/cyk"
	"github.com/dekarrin/gramq/internal/gqerrors"
	"github.com/dekarrin/gramq/internal/grammar"
	"github.com/dekarrin/gramq/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ConcatK(t *testing.T) {
	set := func(s ...string) util.StringSet { return util.StringSetOf(s) }

	testCases := []struct {
		name   string
		k      int
		sets   []util.StringSet
		expect []string
	}{
		{name: "no sets", k: 2, expect: []string{""}},
		{name: "single set truncated", k: 1, sets: []util.StringSet{set("ab", "c")}, expect: []string{"a", "c"}},
		{name: "pairwise", k: 2, sets: []util.StringSet{set("a", "b"), set("c", "d")}, expect: []string{"ac", "ad", "bc", "bd"}},
		{name: "already full", k: 1, sets: []util.StringSet{set("a"), set("x", "y")}, expect: []string{"a"}},
		{name: "empty string is end of input", k: 2, sets: []util.StringSet{set("a"), set("")}, expect: []string{"a"}},
		{name: "left to right over three", k: 3, sets: []util.StringSet{set("a"), set("b", "bc"), set("d")}, expect: []string{"abc", "abd"}},
		{name: "any empty set empties result", k: 2, sets: []util.StringSet{set("a"), set()}, expect: []string{}},
		{name: "empty set even after full", k: 1, sets: []util.StringSet{set("ab"), set()}, expect: []string{}},
		{name: "multi-char tokens", k: 2, sets: []util.StringSet{set("a1"), set("b2c3")}, expect: []string{"a1b2"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			actual := ConcatK(tc.k, tc.sets...)
			assert.Equal(t, tc.expect, actual.Ordered())
		})
	}
}

func Test_Compute(t *testing.T) {
	testCases := []struct {
		name         string
		grammar      string
		k            int
		expectFirst  map[string][]string
		expectFollow map[string][]string
	}{
		{
			name:         "LL(1) example",
			grammar:      "S -> aA | bB\nA -> c\nB -> d",
			k:            1,
			expectFirst:  map[string][]string{"S": {"a", "b"}, "A": {"c"}, "B": {"d"}},
			expectFollow: map[string][]string{"S": {""}, "A": {""}, "B": {""}},
		},
		{
			name:         "two tokens of lookahead",
			grammar:      "S -> AB\nA -> a\nB -> b | bB",
			k:            2,
			expectFirst:  map[string][]string{"S": {"ab"}, "A": {"a"}, "B": {"b", "bb"}},
			expectFollow: map[string][]string{"S": {""}, "A": {"b", "bb"}, "B": {""}},
		},
		{
			name:         "left recursion",
			grammar:      "S -> Sa | b",
			k:            2,
			expectFirst:  map[string][]string{"S": {"b", "ba"}},
			expectFollow: map[string][]string{"S": {"", "a", "aa"}},
		},
		{
			name:         "nested follow",
			grammar:      "S -> AcA\nA -> aA | b",
			k:            1,
			expectFirst:  map[string][]string{"S": {"a", "b"}, "A": {"a", "b"}},
			expectFollow: map[string][]string{"S": {""}, "A": {"", "c"}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			g := grammar.MustParse(tc.grammar, "S")
			sets, err := Compute(g, tc.k)
			require.NoError(t, err)

			for nt, expect := range tc.expectFirst {
				assert.Equal(expect, sets.First[nt].Ordered(), "FIRST_%d[%s]", tc.k, nt)
			}
			for nt, expect := range tc.expectFollow {
				assert.Equal(expect, sets.Follow[nt].Ordered(), "FOLLOW_%d[%s]", tc.k, nt)
			}

			// converged sets must not move when the fixpoint is run again
			first := snapshot(sets.First)
			follow := snapshot(sets.Follow)
			sets.computeFirst(g)
			sets.computeFollow(g)
			assert.Equal(first, snapshot(sets.First))
			assert.Equal(follow, snapshot(sets.Follow))
		})
	}
}

func snapshot(m map[string]util.StringSet) map[string]string {
	out := map[string]string{}
	for k, v := range m {
		out[k] = v.StringOrdered()
	}
	return out
}

func Test_Compute_BadK(t *testing.T) {
	g := grammar.MustParse("S -> a", "S")

	for _, k := range []int{0, -1} {
		_, err := Compute(g, k)
		assert.ErrorIs(t, err, gqerrors.ErrBadLookahead)

		_, err = BuildTable(g, k)
		assert.ErrorIs(t, err, gqerrors.ErrBadLookahead)
	}
}

func Test_BuildTable_IsLLK(t *testing.T) {
	testCases := []struct {
		name      string
		grammar   string
		k         int
		expect    bool
		conflicts int
	}{
		{name: "LL(1) example", grammar: "S -> aA | bB\nA -> c\nB -> d", k: 1, expect: true},
		{name: "collision at k=1", grammar: "S -> aA | aB\nA -> c\nB -> d", k: 1, expect: false, conflicts: 1},
		{name: "collision resolved at k=2", grammar: "S -> aA | aB\nA -> c\nB -> d", k: 2, expect: true},
		{name: "left recursion", grammar: "S -> Sa | b", k: 1, expect: false, conflicts: 1},
		{name: "left recursion at any k", grammar: "S -> Sa | b", k: 3, expect: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			table, err := BuildTable(grammar.MustParse(tc.grammar, "S"), tc.k)
			require.NoError(t, err)

			assert.Equal(tc.expect, table.IsLLK())
			if tc.expect {
				assert.Empty(table.Conflicts())
				for _, nt := range table.NonTerminals() {
					for _, la := range table.Lookaheads() {
						assert.LessOrEqual(len(table.Get(nt, la)), 1)
					}
				}
			} else if tc.conflicts > 0 {
				assert.Len(table.Conflicts(), tc.conflicts)
			}
		})
	}
}

func Test_Table_PersistedForm(t *testing.T) {
	assert := assert.New(t)

	table, err := BuildTable(grammar.MustParse("S -> aA | bB | a[Long]\nA -> c\nB -> d\n[Long] -> c1", "S"), 1)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = table.WriteTo(&buf)
	require.NoError(t, err)

	expect := "A:c>c\n" +
		"B:d>d\n" +
		"S:a>a.A\n" +
		"S:a>a.[Long]\n" +
		"S:b>b.B\n" +
		"[Long]:c1>c1\n"
	assert.Equal(expect, buf.String())
	assert.Equal(5, table.Cells())
	assert.Len(table.Entries(), 6)

	read, err := ReadTable(strings.NewReader("# comment\n\n"+buf.String()), "S", 1)
	require.NoError(t, err)
	assert.Equal(table.Entries(), read.Entries())
	assert.False(read.IsLLK())
	assert.Equal("S", read.Start)
}

func Test_ReadTable_Malformed(t *testing.T) {
	testCases := []struct {
		name   string
		input  string
		expect error
	}{
		{name: "no gt", input: "S:a", expect: gqerrors.ErrMalformedTable},
		{name: "no nonterminal", input: ":a>b", expect: gqerrors.ErrMalformedTable},
		{name: "terminal head", input: "s:a>b", expect: gqerrors.ErrMalformedTable},
		{name: "empty body", input: "S:a>", expect: gqerrors.ErrMalformedTable},
		{name: "empty symbol", input: "S:a>a..B", expect: gqerrors.ErrMalformedTable},
		{name: "lookahead too long", input: "S:ab>a.B", expect: gqerrors.ErrMalformedTable},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadTable(strings.NewReader(tc.input), "S", 1)
			assert.ErrorIs(t, err, tc.expect)
		})
	}

	_, err := ReadTable(strings.NewReader(""), "S", 0)
	assert.ErrorIs(t, err, gqerrors.ErrBadLookahead)
}

func Test_Table_String(t *testing.T) {
	assert := assert.New(t)

	table, err := BuildTable(grammar.MustParse("S -> aA | aB\nA -> c\nB -> d", "S"), 1)
	require.NoError(t, err)

	out := table.String()
	assert.Contains(out, "aA / aB")
	assert.Contains(out, "S")
}

func Test_Recognizer_Recognize(t *testing.T) {
	testCases := []struct {
		name    string
		grammar string
		k       int
		word    string
		expect  bool
	}{
		{name: "LL(1) first branch", grammar: "S -> aA | bB\nA -> c\nB -> d", k: 1, word: "ac", expect: true},
		{name: "LL(1) second branch", grammar: "S -> aA | bB\nA -> c\nB -> d", k: 1, word: "bd", expect: true},
		{name: "LL(1) crossed", grammar: "S -> aA | bB\nA -> c\nB -> d", k: 1, word: "ad", expect: false},
		{name: "LL(1) too long", grammar: "S -> aA | bB\nA -> c\nB -> d", k: 1, word: "acc", expect: false},
		{name: "empty word", grammar: "S -> aA | bB\nA -> c\nB -> d", k: 1, word: "", expect: false},
		{name: "ambiguous table first", grammar: "S -> aA | aB\nA -> c\nB -> d", k: 1, word: "ac", expect: true},
		{name: "ambiguous table second", grammar: "S -> aA | aB\nA -> c\nB -> d", k: 1, word: "ad", expect: true},
		{name: "left recursion", grammar: "S -> Sa | b", k: 1, word: "baaa", expect: true},
		{name: "left recursion reject", grammar: "S -> Sa | b", k: 1, word: "abaa", expect: false},
		{name: "unit cycle terminates", grammar: "S -> A | aS\nA -> S | b", k: 1, word: "aab", expect: true},
		{name: "unit cycle reject", grammar: "S -> A | aS\nA -> S | b", k: 1, word: "aba", expect: false},
		{name: "sample word", grammar: "S -> aSb | bS | b", k: 2, word: "bb", expect: true},
		{name: "unknown terminal", grammar: "S -> aSb | ab", k: 1, word: "azb", expect: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			table, err := BuildTable(grammar.MustParse(tc.grammar, "S"), tc.k)
			require.NoError(t, err)

			r := NewRecognizer(table)
			assert.Equal(t, tc.expect, r.RecognizeString(tc.word))
		})
	}
}

func Test_Recognizer_Trace(t *testing.T) {
	assert := assert.New(t)

	table, err := BuildTable(grammar.MustParse("S -> aA | aB\nA -> c\nB -> d", "S"), 1)
	require.NoError(t, err)

	var rounds [][]Thread
	r := NewRecognizer(table)
	r.Trace = func(round int, threads []Thread) {
		assert.Equal(len(rounds)+1, round)
		rounds = append(rounds, threads)
	}

	assert.True(r.RecognizeString("ad"))
	require.NotEmpty(t, rounds)
	assert.Equal([]Thread{{Stack: []string{"S"}, Pos: 0, Lookahead: "a"}}, rounds[0])

	// S splits into one thread per candidate body, in table order
	require.GreaterOrEqual(t, len(rounds), 2)
	assert.Equal([]Thread{
		{Stack: []string{"a", "A"}, Pos: 0, Lookahead: "a"},
		{Stack: []string{"a", "B"}, Pos: 0, Lookahead: "a"},
	}, rounds[1])
}

// The table-driven recognizer must agree with CYK on the normalized grammar
// for every word up to a small length, whatever k is.
func Test_Recognizer_AgreesWithCYK(t *testing.T) {
	testCases := []struct {
		name    string
		grammar string
		maxLen  int
	}{
		{name: "balanced", grammar: "S -> aSb | ab", maxLen: 6},
		{name: "ambiguous", grammar: "S -> SS | aSb | ab", maxLen: 6},
		{name: "chain rules", grammar: "S -> A | bS\nA -> B | a\nB -> cB | c", maxLen: 5},
		{name: "unit cycle", grammar: "S -> A | aS\nA -> S | b", maxLen: 5},
		{name: "sample", grammar: "S -> aSb | bS | b", maxLen: 5},
		{name: "expressions", grammar: "E -> EpT | T\nT -> TmF | F\nF -> lEr | x", maxLen: 5},
	}

	for _, tc := range testCases {
		for k := 1; k <= 3; k++ {
			t.Run(tc.name+"/k="+string(rune('0'+k)), func(t *testing.T) {
				g := grammar.MustParse(tc.grammar, "")
				oracle, err := cyk.New(g.CNF())
				require.NoError(t, err)

				table, err := BuildTable(g, k)
				require.NoError(t, err)
				r := NewRecognizer(table)

				for _, word := range allWords(g.Terminals(), tc.maxLen) {
					assert.Equal(t, oracle.Accepts(word), r.Recognize(word), "word %q", strings.Join(word, ""))
				}
			})
		}
	}
}

func allWords(alphabet []string, maxLen int) [][]string {
	words := [][]string{{}}
	frontier := [][]string{{}}
	for l := 1; l <= maxLen; l++ {
		var next [][]string
		for _, w := range frontier {
			for _, a := range alphabet {
				nw := make([]string, len(w)+1)
				copy(nw, w)
				nw[len(w)] = a
				next = append(next, nw)
			}
		}
		words = append(words, next...)
		frontier = next
	}
	return words
}

func Test_Sets_String(t *testing.T) {
	assert := assert.New(t)

	g := grammar.MustParse("S -> aA | bB\nA -> c\nB -> d", "S")
	sets, err := Compute(g, 1)
	if !assert.NoError(err) {
		return
	}

	out := sets.String()
	assert.Contains(out, "FIRST_1")
	assert.Contains(out, "FOLLOW_1")
	assert.Contains(out, "{a, b}")
	assert.Contains(out, "{$}")
}
