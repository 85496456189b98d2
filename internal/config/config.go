// Package config loads the analysis configuration file used by the gramq CLI.
// The file is TOML with three tables, for example:
//
//	format = "GRAMQ"
//
//	[analysis]
//	grammar = "grammar.txt"
//	start = "S"
//	k = 2
//	word = "bb"
//
//	[fuzz]
//	count = 100
//	alphabet = "full"
//	p_term = 0.1
//	p_stop = 0.15
//	seed = 0
//	max_len = 0
//
//	[output]
//	tests = "tests.txt"
//	verify = "verify_file.txt"
//	table = "ParseTable.txt"
//
// Every key is optional. Values not given keep their defaults, and values
// given on the command line override the file.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/dekarrin/gramq/internal/fuzz"
	"github.com/dekarrin/gramq/internal/gqerrors"
)

const (
	DefaultGrammarFile = "grammar.txt"
	DefaultWord        = "bb"
	DefaultTestsFile   = "tests.txt"
	DefaultVerifyFile  = "verify_file.txt"
	DefaultTableFile   = "ParseTable.txt"
)

// Analysis is the [analysis] table.
type Analysis struct {
	Grammar string `toml:"grammar"`
	Start   string `toml:"start"`

	// K is the lookahead width. 0 means it was not given and must be asked
	// for.
	K    int    `toml:"k"`
	Word string `toml:"word"`
}

// Fuzz is the [fuzz] table. Pointer fields distinguish a value of 0 from a
// missing one.
type Fuzz struct {
	Count    *int     `toml:"count"`
	Alphabet string   `toml:"alphabet"`
	PTerm    *float64 `toml:"p_term"`
	PStop    *float64 `toml:"p_stop"`
	Seed     int64    `toml:"seed"`
	MaxLen   int      `toml:"max_len"`
}

// Output is the [output] table.
type Output struct {
	Tests  string `toml:"tests"`
	Verify string `toml:"verify"`
	Table  string `toml:"table"`
}

// Config is a complete gramq configuration.
type Config struct {
	Format   string   `toml:"format"`
	Analysis Analysis `toml:"analysis"`
	Fuzz     Fuzz     `toml:"fuzz"`
	Output   Output   `toml:"output"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{}.FillDefaults()
}

// Load reads and validates the configuration file at path. Unset values are
// filled with their defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Unmarshal(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Unmarshal parses TOML configuration data, fills in defaults, and validates
// the result.
func Unmarshal(data []byte) (Config, error) {
	var cfg Config
	if tomlErr := toml.Unmarshal(data, &cfg); tomlErr != nil {
		return Config{}, tomlErr
	}

	if cfg.Format != "" && strings.ToUpper(cfg.Format) != "GRAMQ" {
		return Config{}, fmt.Errorf("in header: 'format' key must be set to 'GRAMQ' if given")
	}

	cfg = cfg.FillDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FillDefaults returns a new Config identical to cfg but with unset values set
// to their defaults.
func (cfg Config) FillDefaults() Config {
	newCFG := cfg
	defFuzz := fuzz.DefaultParams()

	if newCFG.Format == "" {
		newCFG.Format = "GRAMQ"
	}
	if newCFG.Analysis.Grammar == "" {
		newCFG.Analysis.Grammar = DefaultGrammarFile
	}
	if newCFG.Analysis.Word == "" {
		newCFG.Analysis.Word = DefaultWord
	}
	if newCFG.Fuzz.Count == nil {
		count := defFuzz.Count
		newCFG.Fuzz.Count = &count
	}
	if newCFG.Fuzz.Alphabet == "" {
		newCFG.Fuzz.Alphabet = defFuzz.Alphabet.String()
	}
	if newCFG.Fuzz.PTerm == nil {
		pTerm := defFuzz.PTerm
		newCFG.Fuzz.PTerm = &pTerm
	}
	if newCFG.Fuzz.PStop == nil {
		pStop := defFuzz.PStop
		newCFG.Fuzz.PStop = &pStop
	}
	if newCFG.Output.Tests == "" {
		newCFG.Output.Tests = DefaultTestsFile
	}
	if newCFG.Output.Verify == "" {
		newCFG.Output.Verify = DefaultVerifyFile
	}
	if newCFG.Output.Table == "" {
		newCFG.Output.Table = DefaultTableFile
	}

	return newCFG
}

// Validate returns an error if the Config has invalid field values set. Call
// it on the result of FillDefaults; unset fuzz values are invalid.
func (cfg Config) Validate() error {
	if cfg.Analysis.K != 0 {
		if err := gqerrors.Lookahead(cfg.Analysis.K); err != nil {
			return fmt.Errorf("analysis: %w", err)
		}
	}

	params, err := cfg.FuzzParams()
	if err != nil {
		return fmt.Errorf("fuzz: %w", err)
	}
	if err := params.Validate(); err != nil {
		return fmt.Errorf("fuzz: %w", err)
	}

	return nil
}

// FuzzParams converts the [fuzz] table into generator parameters.
func (cfg Config) FuzzParams() (fuzz.Params, error) {
	if cfg.Fuzz.Count == nil || cfg.Fuzz.PTerm == nil || cfg.Fuzz.PStop == nil {
		return fuzz.Params{}, gqerrors.New("fuzz table is missing values; call FillDefaults first", gqerrors.ErrBadFuzzParams)
	}

	alpha, err := fuzz.ParseAlphabet(cfg.Fuzz.Alphabet)
	if err != nil {
		return fuzz.Params{}, err
	}

	return fuzz.Params{
		Count:    *cfg.Fuzz.Count,
		Alphabet: alpha,
		PTerm:    *cfg.Fuzz.PTerm,
		PStop:    *cfg.Fuzz.PStop,
		Seed:     cfg.Fuzz.Seed,
		MaxLen:   cfg.Fuzz.MaxLen,
	}, nil
}
