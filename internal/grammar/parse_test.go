package grammar

import (
	"testing"

	"github.com/dekarrin/gramq/internal/gqerrors"
	"github.com/stretchr/testify/assert"
)

func Test_Tokenize(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		expect    []string
		expectErr bool
	}{
		{name: "empty", input: "", expect: nil},
		{name: "single chars", input: "aB", expect: []string{"a", "B"}},
		{name: "letter digit", input: "a1B", expect: []string{"a1", "B"}},
		{name: "nonterminal letter digit", input: "A1b", expect: []string{"A1", "b"}},
		{name: "bracketed", input: "[Foo]b", expect: []string{"[Foo]", "b"}},
		{name: "whitespace stripped", input: " a  B\t[X Y] ", expect: []string{"a", "B", "[XY]"}},
		{name: "digit alone", input: "1a", expect: []string{"1", "a"}},
		{name: "unterminated bracket", input: "a[Foo", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			actual, err := Tokenize(tc.input)
			if tc.expectErr {
				assert.ErrorIs(err, gqerrors.ErrMalformedGrammar)
				return
			}
			if !assert.NoError(err) {
				return
			}
			assert.Equal(tc.expect, actual)
		})
	}
}

func Test_TokenizeWord(t *testing.T) {
	assert := assert.New(t)

	assert.Equal([]string{"a", "b", "b"}, TokenizeWord("abb"))
	assert.Equal([]string{"a1", "b"}, TokenizeWord("a1 b"))
	assert.Nil(TokenizeWord(""))
}

func Test_ParseRule(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		expect    Rule
		expectErr bool
	}{
		{
			name:  "two alternatives",
			input: "S -> aA | b",
			expect: Rule{NonTerminal: "S", Productions: []Production{
				{T("a"), NT("A")},
				{T("b")},
			}},
		},
		{
			name:  "bracketed head and body",
			input: "[Expr] -> [Expr]+t1",
			expect: Rule{NonTerminal: "[Expr]", Productions: []Production{
				{NT("[Expr]"), NT("+"), T("t1")},
			}},
		},
		{name: "missing arrow", input: "S aA", expectErr: true},
		{name: "two arrows", input: "S -> a -> b", expectErr: true},
		{name: "empty head", input: " -> a", expectErr: true},
		{name: "head with two symbols", input: "SA -> a", expectErr: true},
		{name: "terminal head", input: "s -> a", expectErr: true},
		{name: "trailing bar", input: "S -> a |", expectErr: true},
		{name: "double bar", input: "S -> a || b", expectErr: true},
		{name: "empty body", input: "S ->", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			actual, err := ParseRule(tc.input)
			if tc.expectErr {
				assert.ErrorIs(err, gqerrors.ErrMalformedGrammar)
				return
			}
			if !assert.NoError(err) {
				return
			}
			assert.True(tc.expect.Equal(actual), "expected %q, got %q", tc.expect, actual)
		})
	}
}

func Test_Parse(t *testing.T) {
	testCases := []struct {
		name        string
		input       string
		expect      string
		expectStart string
		expectErr   string
	}{
		{
			name:        "accumulates alternatives and skips comments",
			input:       "S -> aA\n# a comment\n\nA -> b\nS -> c\n",
			expect:      "S -> aA | c\nA -> b\n",
			expectStart: "S",
		},
		{
			name:        "duplicate alternatives collapse",
			input:       "S -> a | a | b",
			expect:      "S -> a | b\n",
			expectStart: "S",
		},
		{
			name:        "start is largest closure",
			input:       "A -> b\nS -> aA | B\nB -> c",
			expect:      "A -> b\nS -> aA | B\nB -> c\n",
			expectStart: "S",
		},
		{
			name:        "start ties go to first defined",
			input:       "A -> a\nB -> b",
			expect:      "A -> a\nB -> b\n",
			expectStart: "A",
		},
		{
			name:        "undefined references count toward closure",
			input:       "B -> b\nA -> X",
			expect:      "B -> b\nA -> X\n",
			expectStart: "A",
		},
		{
			name:      "error has line number",
			input:     "S -> a\n\nA b",
			expectErr: `line 3: not a rule; missing "->": malformed grammar`,
		},
		{
			name:      "empty alternative",
			input:     "S -> a | ",
			expectErr: "line 1: empty alternative: malformed grammar",
		},
		{
			name:      "only comments",
			input:     "# nothing\n\n",
			expectErr: "no rules defined in grammar: malformed grammar",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			actual, err := Parse(tc.input)
			if tc.expectErr != "" {
				assert.ErrorIs(err, gqerrors.ErrMalformedGrammar)
				assert.EqualError(err, tc.expectErr)
				return
			}
			if !assert.NoError(err) {
				return
			}
			assert.Equal(tc.expect, actual.String())
			assert.Equal(tc.expectStart, actual.StartSymbol())
		})
	}
}

func Test_Parse_NormalizesUnicode(t *testing.T) {
	assert := assert.New(t)

	// "é" written as e + combining acute accent composes to one rune, and so
	// one terminal.
	g, err := Parse("S -> e\u0301")
	if !assert.NoError(err) {
		return
	}
	assert.Equal([]string{"\u00e9"}, g.Terminals())
}

func Test_MustParse(t *testing.T) {
	assert := assert.New(t)

	g := MustParse("S -> aA\nA -> b", "A")
	assert.Equal("A", g.StartSymbol())

	assert.Panics(func() { MustParse("S", "") })
	assert.Panics(func() { MustParse("S -> a", "Q") })
}

func Test_TruncateWord(t *testing.T) {
	testCases := []struct {
		name   string
		input  string
		k      int
		expect string
	}{
		{name: "shorter than k", input: "ab", k: 3, expect: "ab"},
		{name: "exactly k", input: "abc", k: 3, expect: "abc"},
		{name: "longer than k", input: "abcd", k: 2, expect: "ab"},
		{name: "multi-char tokens", input: "a1b2c", k: 2, expect: "a1b2"},
		{name: "zero", input: "abc", k: 0, expect: ""},
		{name: "empty", input: "", k: 2, expect: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, TruncateWord(tc.input, tc.k))
		})
	}
}
