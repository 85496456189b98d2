package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dekarrin/gramq/internal/fuzz"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type fuzzFlagSet struct {
	count    *int
	alphabet *string
	pTerm    *float64
	pStop    *float64
	seed     *int64
	maxLen   *int
}

func addFuzzFlags(fs *pflag.FlagSet) fuzzFlagSet {
	def := fuzz.DefaultParams()
	return fuzzFlagSet{
		count:    fs.IntP("count", "n", def.Count, "number of words to generate"),
		alphabet: fs.String("alphabet", def.Alphabet.String(), "terminals injected at random: \"full\" (a-z) or \"grammar\""),
		pTerm:    fs.Float64("p-term", def.PTerm, "chance of injecting a random terminal at each step"),
		pStop:    fs.Float64("p-stop", def.PStop, "chance of stopping at each step"),
		seed:     fs.Int64("seed", 0, "random seed (0 picks one from the clock)"),
		maxLen:   fs.Int("max-len", 0, "longest word to generate (0 for no limit)"),
	}
}

// params gives the fuzz parameters from the config, overridden by any of the
// flags that were given.
func (ff fuzzFlagSet) params(fs *pflag.FlagSet) (fuzz.Params, error) {
	p, err := cfg.FuzzParams()
	if err != nil {
		return fuzz.Params{}, err
	}

	if fs.Changed("count") {
		p.Count = *ff.count
	}
	if fs.Changed("alphabet") {
		p.Alphabet, err = fuzz.ParseAlphabet(*ff.alphabet)
		if err != nil {
			return fuzz.Params{}, err
		}
	}
	if fs.Changed("p-term") {
		p.PTerm = *ff.pTerm
	}
	if fs.Changed("p-stop") {
		p.PStop = *ff.pStop
	}
	if fs.Changed("seed") {
		p.Seed = *ff.seed
	}
	if fs.Changed("max-len") {
		p.MaxLen = *ff.maxLen
	}

	return p, p.Validate()
}

var fuzzFlags = struct {
	params fuzzFlagSet
	tests  *string
	verify *string
	save   *string
}{}

var crossFlags = struct {
	params    fuzzFlagSet
	corpus    *string
	corpusBin *string
}{}

func init() {
	cmd := &cobra.Command{
		Use:   "fuzz",
		Short: "Generate a labeled corpus of words",
		Long: `Generate words that follow the bigram model of the normalized grammar, with
random terminals injected and early stops at the given rates. Each word is
labeled 1 if CYK accepts it and 0 otherwise. The labeled corpus is written to
the tests file and the bare words to the verify file.`,
		Example: `  gramq fuzz -n 500 --seed 7 --alphabet grammar`,
		Args:    cobra.NoArgs,
		RunE:    runFuzz,
	}
	fuzzFlags.params = addFuzzFlags(cmd.Flags())
	fuzzFlags.tests = cmd.Flags().String("tests", "", "labeled corpus output file (default from config, else tests.txt)")
	fuzzFlags.verify = cmd.Flags().String("verify", "", "bare word output file (default from config, else verify_file.txt)")
	fuzzFlags.save = cmd.Flags().String("save", "", "also save the corpus in binary form to this file")
	rootCmd.AddCommand(cmd)

	cmd = &cobra.Command{
		Use:   "crosscheck",
		Short: "Compare CYK labels with the table-driven recognizer",
		Long: `Run the table-driven recognizer with the LL(k) table over every word of a
corpus and compare its answer with the word's CYK label. The corpus is read
from a file if one is given and is generated otherwise. Exits with status 3 if
any word gets different answers.`,
		Example: `  gramq crosscheck -k 2 -n 1000
  gramq crosscheck -k 1 --corpus tests.txt`,
		Args: cobra.NoArgs,
		RunE: runCrossCheck,
	}
	crossFlags.params = addFuzzFlags(cmd.Flags())
	crossFlags.corpus = cmd.Flags().String("corpus", "", "read a labeled corpus from this file instead of generating one")
	crossFlags.corpusBin = cmd.Flags().String("corpus-bin", "", "read a binary corpus saved by fuzz --save instead of generating one")
	rootCmd.AddCommand(cmd)
}

func runFuzz(cmd *cobra.Command, args []string) error {
	p, err := fuzzFlags.params.params(cmd.Flags())
	if err != nil {
		return err
	}

	if *fuzzFlags.tests != "" {
		cfg.Output.Tests = *fuzzFlags.tests
	}
	if *fuzzFlags.verify != "" {
		cfg.Output.Verify = *fuzzFlags.verify
	}

	an, err := loadAnalysis()
	if err != nil {
		return err
	}

	corpus, err := an.Fuzz(p)
	if err != nil {
		return err
	}

	if err := writeFile(cfg.Output.Tests, corpus.WriteLabeled); err != nil {
		return err
	}
	if err := writeFile(cfg.Output.Verify, corpus.WriteVerify); err != nil {
		return err
	}
	if *fuzzFlags.save != "" {
		data, err := corpus.MarshalBinary()
		if err != nil {
			return initError{fmt.Errorf("encode corpus: %w", err)}
		}
		if err := os.WriteFile(*fuzzFlags.save, data, 0644); err != nil {
			return initError{fmt.Errorf("save corpus: %w", err)}
		}
	}

	pos := corpus.Positives()
	posStrs := make([]string, len(pos))
	for i := range pos {
		posStrs[i] = strconv.Itoa(pos[i])
	}

	pterm.Success.Println(fmt.Sprintf("generated %d words (seed %d); %d accepted", corpus.Len(), corpus.Seed, len(pos)))
	fmt.Println(strings.Join(posStrs, " "))
	return nil
}

func runCrossCheck(cmd *cobra.Command, args []string) error {
	an, err := loadAnalysis()
	if err != nil {
		return err
	}

	var corpus fuzz.Corpus
	switch {
	case *crossFlags.corpus != "":
		corpus, err = readCorpusFile(*crossFlags.corpus)
	case *crossFlags.corpusBin != "":
		corpus, err = readBinaryCorpusFile(*crossFlags.corpusBin)
	default:
		var p fuzz.Params
		p, err = crossFlags.params.params(cmd.Flags())
		if err != nil {
			return err
		}
		corpus, err = an.Fuzz(p)
	}
	if err != nil {
		return err
	}

	k, err := lookahead(an)
	if err != nil {
		return err
	}

	mismatches, err := an.CrossCheck(corpus, k)
	if err != nil {
		return err
	}

	if len(mismatches) > 0 {
		for _, m := range mismatches {
			pterm.Error.Println(m.String())
		}
		return mismatchError{count: len(mismatches)}
	}

	pterm.Success.Println(fmt.Sprintf("CYK and the LL(%d) table agree on all %d words", k, corpus.Len()))
	return nil
}

func readCorpusFile(path string) (fuzz.Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return fuzz.Corpus{}, initError{fmt.Errorf("open corpus file: %w", err)}
	}
	defer f.Close()

	c, err := fuzz.ReadLabeled(f)
	if err != nil {
		return fuzz.Corpus{}, fmt.Errorf("%s: %w", path, err)
	}
	log.Debug("read corpus", "file", path, "entries", c.Len())
	return c, nil
}

func readBinaryCorpusFile(path string) (fuzz.Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fuzz.Corpus{}, initError{fmt.Errorf("read corpus file: %w", err)}
	}

	var c fuzz.Corpus
	if err := c.UnmarshalBinary(data); err != nil {
		return fuzz.Corpus{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func writeFile(path string, write func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return initError{fmt.Errorf("create %s: %w", path, err)}
	}
	if err := write(f); err != nil {
		f.Close()
		return initError{fmt.Errorf("write %s: %w", path, err)}
	}
	if err := f.Close(); err != nil {
		return initError{fmt.Errorf("close %s: %w", path, err)}
	}
	log.Info("wrote file", "file", path)
	return nil
}
