package main

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "cnf",
		Short: "Print the grammar in Chomsky Normal Form",
		Args:  cobra.NoArgs,
		RunE:  runCNF,
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "bigrams",
		Short: "Print the bigram model of the normalized grammar",
		Args:  cobra.NoArgs,
		RunE:  runBigrams,
	})
}

func runCNF(cmd *cobra.Command, args []string) error {
	an, err := loadAnalysis()
	if err != nil {
		return err
	}

	cnf := an.CNF()
	if cnf.Size() == 0 {
		pterm.Info.Println(fmt.Sprintf("the language of %s is empty", an.Start()))
		return nil
	}

	fmt.Print(cnf.String())
	return nil
}

func runBigrams(cmd *cobra.Command, args []string) error {
	an, err := loadAnalysis()
	if err != nil {
		return err
	}

	fmt.Println(an.Bigrams().String())
	return nil
}
