package gramq

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dekarrin/gramq/internal/gqerrors"
	"github.com/dekarrin/gramq/internal/grammar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Engine_RunContract(t *testing.T) {
	testCases := []struct {
		name         string
		grammar      string
		input        string
		opts         ContractOptions
		expect       ContractResult
		expectOutput []string
		expectErrIs  error
	}{
		{
			name:    "k from prompt",
			grammar: "S -> aA | bB\nA -> c\nB -> d",
			input:   "2\n",
			opts:    ContractOptions{Word: "ac"},
			expect:  ContractResult{K: 2, LLK: true, Word: "ac", Accepted: true},
			expectOutput: []string{
				"Enter k: ",
				"The grammar is LL(2).\n",
				"\"ac\": true\n",
			},
		},
		{
			name:    "k given",
			grammar: "S -> aA | bB\nA -> c\nB -> d",
			opts:    ContractOptions{K: 1, Word: "bb"},
			expect:  ContractResult{K: 1, LLK: true, Word: "bb", Accepted: false},
			expectOutput: []string{
				"The grammar is LL(1).\n",
				"\"bb\": false\n",
			},
		},
		{
			name:    "asked again after non-number",
			grammar: "S -> aA | bB\nA -> c\nB -> d",
			input:   "one\n1.5\n1\n",
			opts:    ContractOptions{Word: "bd"},
			expect:  ContractResult{K: 1, LLK: true, Word: "bd", Accepted: true},
			expectOutput: []string{
				"Please enter a number\n",
				"Please enter a number without a decimal dot\n",
				"\"bd\": true\n",
			},
		},
		{
			name:    "conflict",
			grammar: "S -> aA | aB\nA -> c\nB -> d",
			opts:    ContractOptions{K: 1, Word: "ad"},
			expect:  ContractResult{K: 1, LLK: false, Word: "ad", Accepted: true},
			expectOutput: []string{
				"The grammar is not LL(1); more than one rule applies for S on a.\n",
				"\"ad\": true\n",
			},
		},
		{
			name:        "k below 1 from prompt",
			grammar:     "S -> a",
			input:       "0\n",
			opts:        ContractOptions{Word: "a"},
			expectErrIs: gqerrors.ErrBadLookahead,
		},
		{
			name:        "k below 1 given",
			grammar:     "S -> a",
			opts:        ContractOptions{K: -1, Word: "a"},
			expectErrIs: gqerrors.ErrBadLookahead,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			tableFile := filepath.Join(t.TempDir(), "ParseTable.txt")
			tc.opts.TableFile = tableFile

			an := NewAnalysis(grammar.MustParse(tc.grammar, "S"))
			var out bytes.Buffer
			eng, err := New(strings.NewReader(tc.input), &out, an, false)
			require.NoError(t, err)
			defer eng.Close()

			actual, err := eng.RunContract(tc.opts)
			if tc.expectErrIs != nil {
				assert.ErrorIs(err, tc.expectErrIs)
				assert.NoFileExists(tableFile)
				return
			}
			require.NoError(t, err)

			assert.Equal(tc.expect, actual)
			for _, s := range tc.expectOutput {
				assert.Contains(out.String(), s)
			}

			written, err := os.ReadFile(tableFile)
			require.NoError(t, err)
			table, err := an.Table(actual.K)
			require.NoError(t, err)
			var expectTable bytes.Buffer
			_, err = table.WriteTo(&expectTable)
			require.NoError(t, err)
			assert.Equal(expectTable.String(), string(written))
		})
	}
}

func Test_Engine_AskK_EOF(t *testing.T) {
	an := NewAnalysis(grammar.MustParse("S -> a", "S"))
	var out bytes.Buffer
	eng, err := New(strings.NewReader(""), &out, an, true)
	require.NoError(t, err)
	defer eng.Close()

	_, err = eng.AskK()
	assert.Error(t, err)
}
