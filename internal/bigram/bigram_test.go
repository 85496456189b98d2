package bigram

import (
	"testing"

	"github.com/dekarrin/gramq/internal/grammar"
	"github.com/dekarrin/gramq/internal/util"
	"github.com/stretchr/testify/assert"
)

func Test_Compute(t *testing.T) {
	// a c* b
	g := grammar.MustParse("S -> AB\nA -> a | AC\nB -> b\nC -> c", "S")

	testCases := []struct {
		name   string
		sets   func(s Sets) map[string]util.StringSet
		expect map[string][]string
	}{
		{
			name: "FIRST",
			sets: func(s Sets) map[string]util.StringSet { return s.First },
			expect: map[string][]string{
				"S": {"a"}, "A": {"a"}, "B": {"b"}, "C": {"c"},
			},
		},
		{
			name: "LAST",
			sets: func(s Sets) map[string]util.StringSet { return s.Last },
			expect: map[string][]string{
				"S": {"b"}, "A": {"a", "c"}, "B": {"b"}, "C": {"c"},
			},
		},
		{
			name: "FOLLOW",
			sets: func(s Sets) map[string]util.StringSet { return s.Follow },
			expect: map[string][]string{
				"S": {}, "A": {"b", "c"}, "B": {}, "C": {},
			},
		},
		{
			name: "PRECEDE",
			sets: func(s Sets) map[string]util.StringSet { return s.Precede },
			expect: map[string][]string{
				"S": {}, "A": {}, "B": {"a", "c"}, "C": {"a", "c"},
			},
		},
		{
			name: "adjacent nonterminals",
			sets: func(s Sets) map[string]util.StringSet { return s.FollowNT },
			expect: map[string][]string{
				"S": {}, "A": {"B", "C"}, "B": {}, "C": {},
			},
		},
		{
			name: "BIGRAM",
			sets: func(s Sets) map[string]util.StringSet { return s.Bigram },
			expect: map[string][]string{
				"a": {"b", "c"}, "b": {}, "c": {"b", "c"},
			},
		},
	}

	s := Compute(g)

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			actual := tc.sets(s)
			assert.Len(actual, len(tc.expect))
			for k, v := range tc.expect {
				assert.Equal(v, actual[k].Ordered(), "set for %s", k)
			}
		})
	}
}

func Test_Compute_LeftRecursion(t *testing.T) {
	assert := assert.New(t)

	// a b*, with S on both sides of its own rule
	g := grammar.MustParse("S -> SB | a\nB -> b", "S")
	s := Compute(g)

	assert.Equal([]string{"a"}, s.First["S"].Ordered())
	assert.Equal([]string{"a", "b"}, s.Last["S"].Ordered())
	assert.Equal([]string{"b"}, s.Follow["S"].Ordered())
	assert.True(s.Valid("a", "b"))
	assert.True(s.Valid("b", "b"))
	assert.False(s.Valid("b", "a"))
	assert.False(s.Valid("z", "a"))
}

func Test_Compute_Idempotent(t *testing.T) {
	g := grammar.MustParse("S -> SS | LR\nL -> l\nR -> r | SR", "S")
	s := Compute(g)

	snapshot := func(m map[string]util.StringSet) map[string]string {
		out := map[string]string{}
		for k, v := range m {
			out[k] = v.StringOrdered()
		}
		return out
	}

	follow := snapshot(s.Follow)
	precede := snapshot(s.Precede)
	first := snapshot(s.First)

	s.computeFirstAndLast(g)
	s.computeFollow(g)
	s.computePrecede(g)

	assert.Equal(t, first, snapshot(s.First))
	assert.Equal(t, follow, snapshot(s.Follow))
	assert.Equal(t, precede, snapshot(s.Precede))
}

func Test_Sets_Successors(t *testing.T) {
	assert := assert.New(t)

	g := grammar.MustParse("S -> AB\nA -> a | AC\nB -> b\nC -> c", "S")
	s := Compute(g)

	assert.Equal([]string{"b", "c"}, s.Successors("a"))
	assert.Empty(s.Successors("b"))
	assert.Equal([]string{"a", "b", "c"}, s.Terminals())
	assert.Equal([]string{"A", "B", "C", "S"}, s.NonTerminals())
}
