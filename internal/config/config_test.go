package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dekarrin/gramq/internal/fuzz"
	"github.com/dekarrin/gramq/internal/gqerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Unmarshal(t *testing.T) {
	testCases := []struct {
		name        string
		input       string
		expect      Config
		expectFuzz  fuzz.Params
		expectErrIs error
		expectErr   bool
	}{
		{
			name:  "empty file gives defaults",
			input: "",
			expectFuzz: fuzz.Params{
				Count: 100, Alphabet: fuzz.FullAlphabet, PTerm: 0.1, PStop: 0.15,
			},
		},
		{
			name: "everything set",
			input: `format = "gramq"

[analysis]
grammar = "g.txt"
start = "E"
k = 2
word = "xpx"

[fuzz]
count = 5
alphabet = "grammar"
p_term = 0.0
p_stop = 0.5
seed = 12
max_len = 40

[output]
tests = "t.txt"
verify = "v.txt"
table = "table.txt"
`,
			expectFuzz: fuzz.Params{
				Count: 5, Alphabet: fuzz.GrammarAlphabet, PTerm: 0, PStop: 0.5, Seed: 12, MaxLen: 40,
			},
		},
		{
			name:        "probabilities too high",
			input:       "[fuzz]\np_term = 0.7\np_stop = 0.7\n",
			expectErrIs: gqerrors.ErrBadFuzzParams,
		},
		{
			name:        "bad alphabet",
			input:       "[fuzz]\nalphabet = \"runes\"\n",
			expectErrIs: gqerrors.ErrBadFuzzParams,
		},
		{
			name:        "bad k",
			input:       "[analysis]\nk = -1\n",
			expectErrIs: gqerrors.ErrBadLookahead,
		},
		{
			name:      "wrong format",
			input:     "format = \"TUNA\"\n",
			expectErr: true,
		},
		{
			name:      "not toml",
			input:     "[analysis\n",
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			cfg, err := Unmarshal([]byte(tc.input))
			if tc.expectErrIs != nil {
				assert.ErrorIs(err, tc.expectErrIs)
				return
			}
			if tc.expectErr {
				assert.Error(err)
				return
			}
			require.NoError(t, err)

			params, err := cfg.FuzzParams()
			require.NoError(t, err)
			assert.Equal(tc.expectFuzz, params)
		})
	}
}

func Test_Unmarshal_Sections(t *testing.T) {
	assert := assert.New(t)

	cfg, err := Unmarshal([]byte("[analysis]\nstart = \"E\"\nk = 3\n[output]\ntable = \"out.txt\"\n"))
	require.NoError(t, err)

	assert.Equal("E", cfg.Analysis.Start)
	assert.Equal(3, cfg.Analysis.K)
	assert.Equal(DefaultGrammarFile, cfg.Analysis.Grammar)
	assert.Equal(DefaultWord, cfg.Analysis.Word)
	assert.Equal("out.txt", cfg.Output.Table)
	assert.Equal(DefaultTestsFile, cfg.Output.Tests)
	assert.Equal(DefaultVerifyFile, cfg.Output.Verify)
}

func Test_Load(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "gramq.toml")
	require.NoError(t, os.WriteFile(path, []byte("[analysis]\nk = 1\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(1, cfg.Analysis.K)

	_, err = Load(filepath.Join(dir, "missing.toml"))
	assert.ErrorIs(err, os.ErrNotExist)
}

func Test_Default(t *testing.T) {
	assert := assert.New(t)

	cfg := Default()
	assert.NoError(cfg.Validate())
	assert.Equal(0, cfg.Analysis.K)
	assert.Equal(DefaultTableFile, cfg.Output.Table)
}
