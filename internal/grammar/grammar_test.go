package grammar

import (
	"testing"

	"github.com/dekarrin/gramq/internal/gqerrors"
	"github.com/stretchr/testify/assert"
)

func Test_Grammar_Copy(t *testing.T) {
	assert := assert.New(t)

	g := MustParse("S -> aA\nA -> b", "")
	g2 := g.Copy()

	g2.AddRule("A", Production{T("c")})
	g2.Rule("S").Productions[0][0] = T("z")

	assert.Equal("S -> aA\nA -> b\n", g.String())
	assert.Equal("S -> zA\nA -> b | c\n", g2.String())
}

func Test_Grammar_Revision(t *testing.T) {
	assert := assert.New(t)

	g := MustParse("S -> aA\nA -> b", "")
	rev := g.Revision()

	g.AddRule("A", Production{T("b")})
	assert.Equal(rev, g.Revision(), "re-adding an existing production is a no-op")

	g.AddRule("A", Production{T("c")})
	assert.Greater(g.Revision(), rev)
	rev = g.Revision()

	g.RemoveRule("A")
	assert.Greater(g.Revision(), rev)
	rev = g.Revision()

	transformed := g.RemoveUnreachable()
	assert.Equal(rev, g.Revision(), "value transforms must not touch the receiver")
	assert.GreaterOrEqual(transformed.Revision(), rev)
}

func Test_Grammar_SetStart(t *testing.T) {
	assert := assert.New(t)

	g := MustParse("S -> aA\nA -> b", "")
	assert.NoError(g.SetStart("A"))
	assert.Equal("A", g.StartSymbol())

	err := g.SetStart("Q")
	assert.ErrorIs(err, gqerrors.ErrUnknownStart)
	assert.Equal("A", g.StartSymbol())
}

func Test_Grammar_RemoveRule(t *testing.T) {
	assert := assert.New(t)

	g := MustParse("S -> aA\nA -> b\nB -> c", "")
	g.RemoveRule("A")
	g.RemoveRule("NotThere")

	assert.Equal([]string{"S", "B"}, g.NonTerminals())
	assert.Equal("c", g.Rule("B").Productions[0].String())
	assert.Equal("", g.Rule("A").NonTerminal)
}

func Test_Grammar_Terminals(t *testing.T) {
	g := MustParse("S -> zA | a1\nA -> bS | b", "")
	assert.Equal(t, []string{"a1", "b", "z"}, g.Terminals())
}

func Test_Grammar_Uses(t *testing.T) {
	testCases := []struct {
		name   string
		input  string
		from   string
		expect []string
	}{
		{
			name:   "self only",
			input:  "S -> a\nA -> S",
			from:   "S",
			expect: []string{"S"},
		},
		{
			name:   "transitive with cycle",
			input:  "S -> aA\nA -> Bb\nB -> S | c",
			from:   "A",
			expect: []string{"A", "B", "S"},
		},
		{
			name:   "includes undefined",
			input:  "S -> aX",
			from:   "S",
			expect: []string{"S", "X"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := MustParse(tc.input, "")
			assert.Equal(t, tc.expect, g.Uses(tc.from).Ordered())
		})
	}
}

func Test_Grammar_Validate(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		start     string
		expectErr bool
	}{
		{
			name:  "all defined",
			input: "S -> aA\nA -> b",
		},
		{
			name:      "dangling reference",
			input:     "S -> aA\nA -> bX",
			expectErr: true,
		},
		{
			name:      "empty grammar",
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			var g Grammar
			if tc.input != "" {
				g = MustParse(tc.input, tc.start)
			}

			err := g.Validate()
			if tc.expectErr {
				assert.ErrorIs(err, gqerrors.ErrMalformedGrammar)
			} else {
				assert.NoError(err)
			}
		})
	}
}

func Test_Grammar_Fresh(t *testing.T) {
	assert := assert.New(t)

	g := MustParse("S -> a[S_2]\n[S_2] -> b", "")

	assert.Equal("[S_1]", g.Fresh("S"))
	assert.Equal("[S_3]", g.Fresh("S"), "names already in the grammar are skipped")
	assert.Equal("[S_2_4]", g.Fresh("[S_2]"))

	// copies continue from the counter rather than starting over
	g2 := g.Copy()
	assert.Equal("[S_5]", g2.Fresh("S"))
}

func Test_Grammar_String_Reparses(t *testing.T) {
	assert := assert.New(t)

	g := MustParse("S -> a[Long]B | a1\n[Long] -> [Long]b | c\nB -> d", "")
	reparsed, err := Parse(g.String())
	if !assert.NoError(err) {
		return
	}

	assert.Equal(g.Rules(), reparsed.Rules())
	assert.Equal(g.StartSymbol(), reparsed.StartSymbol())
}

func Test_Rule_UnitProductions(t *testing.T) {
	assert := assert.New(t)

	g := MustParse("S -> A | a | AB | B\nA -> a\nB -> b", "S")
	units := g.Rule("S").UnitProductions()

	assert.Equal([]Production{{NT("A")}, {NT("B")}}, units)
	assert.Empty(g.Rule("A").UnitProductions())
	assert.True(g.Rule("A").Productions[0].IsTerminalUnit())
	assert.False(units[0].IsTerminalUnit())
}
