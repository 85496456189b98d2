package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/dekarrin/gramq"
	"github.com/dekarrin/gramq/internal/config"
	"github.com/dekarrin/gramq/internal/gqerrors"
	"github.com/dekarrin/gramq/internal/logger"
	"github.com/dekarrin/gramq/internal/version"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var rootFlags = struct {
	grammar   *string
	start     *string
	config    *string
	k         *int
	direct    *bool
	debug     *bool
	noColor   *bool
	word      *string
	tableFile *string
	showTable *bool
}{}

var rootCmd = &cobra.Command{
	Use:   "gramq",
	Short: "Analyze a context-free grammar",
	Long: `gramq normalizes a context-free grammar, fuzzes it with its bigram model,
and builds its LL(k) parse table. CYK over the normalized grammar and a
table-driven recognizer over the grammar as written check each other.

With no command, gramq asks for k, builds the LL(k) table, writes it to the
table file, and checks one sample word.`,
	Version:           version.Current,
	SilenceErrors:     true,
	SilenceUsage:      true,
	Args:              cobra.NoArgs,
	PersistentPreRunE: setup,
	RunE:              runContract,
}

func init() {
	pf := rootCmd.PersistentFlags()
	rootFlags.grammar = pf.StringP("grammar", "g", config.DefaultGrammarFile, "grammar file path")
	rootFlags.start = pf.StringP("start", "s", "", "start symbol (default S if defined, else discovered)")
	rootFlags.config = pf.StringP("config", "c", "", "TOML config file path")
	rootFlags.k = pf.IntP("lookahead", "k", 0, "lookahead width (asked for if not given)")
	rootFlags.direct = pf.BoolP("direct", "d", false, "force reading directly from stdin instead of going through GNU readline where possible")
	rootFlags.debug = pf.Bool("debug", false, "show debug log output")
	rootFlags.noColor = pf.Bool("no-color", false, "do not color output")

	f := rootCmd.Flags()
	rootFlags.word = f.String("word", config.DefaultWord, "sample word to check")
	rootFlags.tableFile = f.StringP("out", "o", config.DefaultTableFile, "file to write the parse table to")
	rootFlags.showTable = f.Bool("show-table", false, "print the parse table")
}

// cfg is the active configuration once setup has run.
var cfg config.Config

func setup(cmd *cobra.Command, args []string) error {
	logger.Init(*rootFlags.debug, *rootFlags.noColor)
	initDisplay(*rootFlags.noColor)

	if *rootFlags.config != "" {
		loaded, err := config.Load(*rootFlags.config)
		if err != nil {
			return err
		}
		cfg = loaded
		log.Debug("loaded config", "file", *rootFlags.config)
	} else {
		cfg = config.Default()
	}

	flags := cmd.Flags()
	if flags.Changed("grammar") || *rootFlags.config == "" {
		cfg.Analysis.Grammar = *rootFlags.grammar
	}
	if flags.Changed("start") {
		cfg.Analysis.Start = *rootFlags.start
	}
	if flags.Changed("lookahead") {
		cfg.Analysis.K = *rootFlags.k
		if err := gqerrors.Lookahead(cfg.Analysis.K); err != nil {
			return err
		}
	}

	return nil
}

// initDisplay sets up pterm for status output.
func initDisplay(noColor bool) {
	infoStyle := pterm.NewStyle(pterm.BgCyan, pterm.FgBlack)
	successStyle := pterm.NewStyle(pterm.BgGreen, pterm.FgBlack)
	errorStyle := pterm.NewStyle(pterm.BgRed, pterm.FgBlack)
	if noColor {
		infoStyle = pterm.NewStyle()
		successStyle = pterm.NewStyle()
		errorStyle = pterm.NewStyle()
	}

	pterm.Info.Prefix = pterm.Prefix{Text: " INFO  ", Style: infoStyle}
	pterm.Success.Prefix = pterm.Prefix{Text: " OK    ", Style: successStyle}
	pterm.Error.Prefix = pterm.Prefix{Text: " ERROR ", Style: errorStyle}
}

// defaultStart is used as the start symbol when none is configured and the
// grammar defines it, before falling back to the discovered one.
const defaultStart = "S"

// loadAnalysis reads the configured grammar.
func loadAnalysis() (*gramq.Analysis, error) {
	an, err := gramq.LoadAnalysis(cfg.Analysis.Grammar, cfg.Analysis.Start)
	if err != nil {
		return nil, err
	}
	if err := preferDefaultStart(an, cfg.Analysis.Start); err != nil {
		return nil, err
	}

	log.Debug("using start symbol", "start", an.Start())

	return an, nil
}

// lookahead returns the configured k, asking for it if none was configured.
func lookahead(an *gramq.Analysis) (int, error) {
	if cfg.Analysis.K != 0 {
		return cfg.Analysis.K, nil
	}

	eng, err := gramq.New(os.Stdin, os.Stdout, an, *rootFlags.direct)
	if err != nil {
		return 0, initError{err}
	}
	defer eng.Close()

	return eng.AskK()
}

func runContract(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("word") {
		cfg.Analysis.Word = *rootFlags.word
	}
	if cmd.Flags().Changed("out") {
		cfg.Output.Table = *rootFlags.tableFile
	}

	an, err := loadAnalysis()
	if err != nil {
		return err
	}

	eng, err := gramq.New(os.Stdin, os.Stdout, an, *rootFlags.direct)
	if err != nil {
		return initError{err}
	}
	defer eng.Close()

	res, err := eng.RunContract(gramq.ContractOptions{
		K:         cfg.Analysis.K,
		Word:      cfg.Analysis.Word,
		TableFile: cfg.Output.Table,
		ShowTable: *rootFlags.showTable,
	})
	if err != nil {
		return err
	}

	pterm.Success.Println(fmt.Sprintf("wrote LL(%d) table to %s", res.K, cfg.Output.Table))
	return nil
}

// initError marks an error as an initialization failure rather than a
// problem with the input.
type initError struct {
	err error
}

func (e initError) Error() string {
	return e.err.Error()
}

func (e initError) Unwrap() error {
	return e.err
}

// mismatchError is returned when a cross-check finds disagreements.
type mismatchError struct {
	count int
}

func (e mismatchError) Error() string {
	return fmt.Sprintf("recognizers disagree on %d word(s)", e.count)
}

func reportError(err error) {
	pterm.Error.Println(gqerrors.HumanMessage(err))
	log.Debug("command failed", "err", err)
}

func exitCodeOf(err error) int {
	var mErr mismatchError
	if errors.As(err, &mErr) {
		return ExitMismatch
	}

	var iErr initError
	if errors.As(err, &iErr) {
		return ExitInitError
	}

	preconditions := []error{
		gqerrors.ErrMalformedGrammar,
		gqerrors.ErrBadFuzzParams,
		gqerrors.ErrBadLookahead,
		gqerrors.ErrUnknownStart,
		gqerrors.ErrMalformedTable,
		gqerrors.ErrMalformedCorpus,
	}
	for _, p := range preconditions {
		if errors.Is(err, p) {
			return ExitPrecondition
		}
	}

	return ExitInitError
}

// preferDefaultStart switches an to defaultStart when no start was asked for
// and the grammar defines it.
func preferDefaultStart(an *gramq.Analysis, asked string) error {
	if asked != "" || !an.Grammar().Defines(defaultStart) {
		return nil
	}
	return an.SetStart(defaultStart)
}
