package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Grammar_SplitLongRules(t *testing.T) {
	testCases := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "nothing to split",
			input:  "S -> aB | c\nB -> b",
			expect: "S -> aB | c\nB -> b\n",
		},
		{
			name:   "one long body",
			input:  "S -> abcd",
			expect: "S -> a[S_1]\n[S_1] -> b[S_2]\n[S_2] -> cd\n",
		},
		{
			name:   "two long bodies get distinct names",
			input:  "S -> abc | ABC\nA -> a\nB -> b\nC -> c",
			expect: "S -> a[S_1] | A[S_2]\nA -> a\nB -> b\nC -> c\n[S_1] -> bc\n[S_2] -> BC\n",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := MustParse(tc.input, "S")
			actual := g.SplitLongRules()
			assert.Equal(t, tc.expect, actual.String())
		})
	}
}

func Test_Grammar_EliminateChainRules(t *testing.T) {
	testCases := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "chain of two",
			input:  "S -> A | b\nA -> B | a\nB -> c",
			expect: "S -> b | a | c\nA -> a | c\nB -> c\n",
		},
		{
			name:   "cycle through start",
			input:  "S -> A | s\nA -> S | a",
			expect: "S -> s | a\nA -> a | s\n",
		},
		{
			name:   "cycle with only unit rules on one side",
			input:  "S -> A | b\nA -> S",
			expect: "S -> b\nA -> b\n",
		},
		{
			name:   "duplicate bodies dropped",
			input:  "S -> A | a\nA -> a",
			expect: "S -> a\nA -> a\n",
		},
		{
			name:   "unreachable unit cycle terminates",
			input:  "S -> a\nX -> Y\nY -> X | y",
			expect: "S -> a\nX -> y\nY -> y\n",
		},
		{
			name:   "unit cycle with no other bodies disappears",
			input:  "S -> a | X\nX -> Y\nY -> X",
			expect: "S -> a\n",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := MustParse(tc.input, "S")
			actual := g.EliminateChainRules()
			assert.Equal(t, tc.expect, actual.String())
		})
	}
}

func Test_Grammar_Generating(t *testing.T) {
	testCases := []struct {
		name   string
		input  string
		expect []string
	}{
		{
			name:   "one non-generating",
			input:  "S -> AB | a\nA -> a\nB -> Bb",
			expect: []string{"A", "S"},
		},
		{
			name:   "generation propagates through bodies",
			input:  "S -> AB\nA -> a\nB -> Ab",
			expect: []string{"A", "B", "S"},
		},
		{
			name:   "nothing generates",
			input:  "S -> aS",
			expect: []string{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := MustParse(tc.input, "S")
			assert.Equal(t, tc.expect, g.Generating().Ordered())
		})
	}
}

func Test_Grammar_RemoveNonGenerating(t *testing.T) {
	testCases := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "drops rule and its uses",
			input:  "S -> AB | a\nA -> a\nB -> Bb",
			expect: "S -> a\nA -> a\n",
		},
		{
			name:   "undefined nonterminal is non-generating",
			input:  "S -> aX | b",
			expect: "S -> b\n",
		},
		{
			name:   "empty language",
			input:  "S -> aS",
			expect: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := MustParse(tc.input, "S")
			actual := g.RemoveNonGenerating()
			assert.Equal(t, tc.expect, actual.String())
		})
	}
}

func Test_Grammar_RemoveUnreachable(t *testing.T) {
	testCases := []struct {
		name   string
		input  string
		start  string
		expect string
	}{
		{
			name:   "drops unreferenced",
			input:  "S -> aA\nA -> b\nC -> c",
			start:  "S",
			expect: "S -> aA\nA -> b\n",
		},
		{
			name:   "respects start",
			input:  "S -> aA\nA -> b\nC -> cA",
			start:  "C",
			expect: "A -> b\nC -> cA\n",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := MustParse(tc.input, tc.start)
			actual := g.RemoveUnreachable()
			assert.Equal(t, tc.expect, actual.String())
		})
	}
}

func Test_Grammar_IsolateTerminals(t *testing.T) {
	assert := assert.New(t)

	g := MustParse("S -> aS | Sa | ab | c", "S")
	actual := g.IsolateTerminals()

	expect := "S -> [T_a_1]S | S[T_a_1] | [T_a_1][T_b_2] | c\n" +
		"[T_a_1] -> a\n" +
		"[T_b_2] -> b\n"
	assert.Equal(expect, actual.String())
}

func Test_Grammar_CNF(t *testing.T) {
	testCases := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:  "balanced pairs",
			input: "S -> aSb | ab",
			expect: "S -> [T_a_2][S_1] | [T_a_2][T_b_3]\n" +
				"[S_1] -> S[T_b_3]\n" +
				"[T_a_2] -> a\n" +
				"[T_b_3] -> b\n",
		},
		{
			name:   "already CNF",
			input:  "S -> AB\nA -> a\nB -> b",
			expect: "S -> AB\nA -> a\nB -> b\n",
		},
		{
			name:   "empty language",
			input:  "S -> aS",
			expect: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			g := MustParse(tc.input, "S")
			actual := g.CNF()

			assert.Equal(tc.expect, actual.String())
			assert.True(actual.IsCNF())
		})
	}
}

func Test_Grammar_CNF_Shape(t *testing.T) {
	inputs := []string{
		"S -> aSb | ab | A\nA -> cA | B\nB -> d | S",
		"[Expr] -> [Expr]p[Term] | [Term]\n[Term] -> [Term]m[Fac] | [Fac]\n[Fac] -> l[Expr]r | x1",
		"S -> ABC | a\nA -> a\nB -> Bb\nC -> c",
		"S -> A\nA -> B\nB -> S | abc",
	}

	for _, input := range inputs {
		actual := MustParse(input, "").CNF()
		assert.True(t, actual.IsCNF(), "not CNF:\n%s", actual)

		for _, nt := range actual.NonTerminals() {
			for _, p := range actual.Rule(nt).Productions {
				for _, used := range p.NonTerminals() {
					assert.True(t, actual.Defines(used), "%s uses undefined %s", nt, used)
				}
			}
		}
	}
}

func Test_Grammar_IsCNF(t *testing.T) {
	testCases := []struct {
		name   string
		input  string
		expect bool
	}{
		{name: "cnf", input: "S -> AB | a\nA -> a\nB -> b", expect: true},
		{name: "unit nonterminal", input: "S -> A\nA -> a", expect: false},
		{name: "mixed binary", input: "S -> aB\nB -> b", expect: false},
		{name: "terminal pair", input: "S -> ab", expect: false},
		{name: "long", input: "S -> ABA\nA -> a\nB -> b", expect: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := MustParse(tc.input, "S")
			assert.Equal(t, tc.expect, g.IsCNF())
		})
	}
}
