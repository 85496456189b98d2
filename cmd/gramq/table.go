package main

import (
	"fmt"
	"io"

	"github.com/dekarrin/gramq/internal/llk"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var tableFlags = struct {
	out   *string
	read  *string
	sets  *bool
	quiet *bool
}{}

func init() {
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Build and write the LL(k) parse table",
		Long: `Build the LL(k) parse table of the grammar as written and write it to the
table file, one "NT:lookahead>sym1.sym2" line per entry. The table is printed
along with whether the grammar is LL(k). With --read, a previously written
table is read and printed instead.`,
		Example: `  gramq table -k 2
  gramq table -k 1 --read ParseTable.txt`,
		Args: cobra.NoArgs,
		RunE: runTable,
	}
	tableFlags.out = cmd.Flags().StringP("out", "o", "", "file to write the table to (default from config, else ParseTable.txt)")
	tableFlags.read = cmd.Flags().String("read", "", "read the table from this file instead of building it")
	tableFlags.sets = cmd.Flags().Bool("sets", false, "also print FIRST_k and FOLLOW_k")
	tableFlags.quiet = cmd.Flags().BoolP("quiet", "q", false, "do not print the table")
	rootCmd.AddCommand(cmd)
}

func runTable(cmd *cobra.Command, args []string) error {
	if *tableFlags.out != "" {
		cfg.Output.Table = *tableFlags.out
	}

	an, err := loadAnalysis()
	if err != nil {
		return err
	}

	k, err := lookahead(an)
	if err != nil {
		return err
	}

	var t llk.Table
	if *tableFlags.read != "" {
		t, err = readTableFile(*tableFlags.read, an.Start(), k)
		if err != nil {
			return err
		}
	} else {
		t, err = an.Table(k)
		if err != nil {
			return err
		}
		if err := writeFile(cfg.Output.Table, func(w io.Writer) error {
			_, err := t.WriteTo(w)
			return err
		}); err != nil {
			return err
		}
	}

	if *tableFlags.sets {
		sets, err := an.LLK(k)
		if err != nil {
			return err
		}
		fmt.Println(sets.String())
		fmt.Println()
	}

	if !*tableFlags.quiet {
		fmt.Println(t.String())
	}

	if t.IsLLK() {
		pterm.Success.Println(fmt.Sprintf("the grammar is LL(%d)", k))
	} else {
		for _, c := range t.Conflicts() {
			la := c.Lookahead
			if la == "" {
				la = "$"
			}
			pterm.Info.Println(fmt.Sprintf("conflict for %s on %s: %d rules", c.NonTerminal, la, len(c.Bodies)))
		}
		pterm.Info.Println(fmt.Sprintf("the grammar is not LL(%d)", k))
	}

	return nil
}
