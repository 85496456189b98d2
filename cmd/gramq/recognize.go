package main

import (
	"fmt"
	"os"

	"github.com/dekarrin/gramq/internal/llk"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var checkFlags = struct {
	trace *bool
	table *string
}{}

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:     "cyk WORD...",
		Short:   "Check words with CYK over the normalized grammar",
		Example: `  gramq cyk ab aabb ba`,
		Args:    cobra.MinimumNArgs(1),
		RunE:    runCYK,
	})

	cmd := &cobra.Command{
		Use:   "check WORD...",
		Short: "Check words with the table-driven recognizer",
		Example: `  gramq check -k 2 ab aabb
  gramq check -k 1 --table ParseTable.txt ab`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCheck,
	}
	checkFlags.trace = cmd.Flags().Bool("trace", false, "print the live threads of every round")
	checkFlags.table = cmd.Flags().String("table", "", "read the parse table from this file instead of building it")
	rootCmd.AddCommand(cmd)
}

func runCYK(cmd *cobra.Command, args []string) error {
	an, err := loadAnalysis()
	if err != nil {
		return err
	}

	rec, err := an.CYK()
	if err != nil {
		return err
	}

	for _, w := range args {
		printVerdict(w, rec.AcceptsString(w))
	}
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	an, err := loadAnalysis()
	if err != nil {
		return err
	}

	k, err := lookahead(an)
	if err != nil {
		return err
	}

	var rec *llk.Recognizer
	if *checkFlags.table != "" {
		t, err := readTableFile(*checkFlags.table, an.Start(), k)
		if err != nil {
			return err
		}
		rec = llk.NewRecognizer(t)
	} else {
		rec, err = an.Recognizer(k)
		if err != nil {
			return err
		}
	}

	var rounds pterm.LeveledList
	if *checkFlags.trace {
		rec.Trace = func(round int, threads []llk.Thread) {
			rounds = append(rounds, pterm.LeveledListItem{Level: 0, Text: fmt.Sprintf("round %d", round)})
			for _, th := range threads {
				rounds = append(rounds, pterm.LeveledListItem{Level: 1, Text: th.String()})
			}
		}
	}

	for _, w := range args {
		rounds = nil
		accepted := rec.RecognizeString(w)

		if *checkFlags.trace && len(rounds) > 0 {
			pterm.Println(w)
			pterm.DefaultTree.WithRoot(pterm.NewTreeFromLeveledList(rounds)).Render()
		}
		printVerdict(w, accepted)
	}
	return nil
}

func readTableFile(path, start string, k int) (llk.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return llk.Table{}, fmt.Errorf("open table file: %w", err)
	}
	defer f.Close()

	t, err := llk.ReadTable(f, start, k)
	if err != nil {
		return llk.Table{}, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

func printVerdict(word string, accepted bool) {
	if accepted {
		pterm.Success.Println(fmt.Sprintf("%q is in the language", word))
	} else {
		pterm.Info.Println(fmt.Sprintf("%q is not in the language", word))
	}
}
