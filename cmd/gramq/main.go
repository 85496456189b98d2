/*
Gramq analyzes a context-free grammar.

It reads a grammar file and, depending on the command, normalizes it to
Chomsky Normal Form, computes its bigram model, decides membership of words
with CYK, fuzzes it, builds its LL(k) parse table, or checks words with the
table-driven recognizer. With no command, it asks for k, builds the LL(k)
table, writes it to the table file, and checks a single sample word.

Usage:

	gramq [flags]
	gramq [command] [flags]

The commands are:

	cnf         print the grammar in Chomsky Normal Form
	bigrams     print FIRST, LAST, FOLLOW, PRECEDE, and BIGRAM sets
	cyk         check words with CYK
	fuzz        generate a labeled corpus of words
	table       build and write the LL(k) parse table
	check       check words with the table-driven recognizer
	crosscheck  compare the two recognizers over a corpus

The global flags are:

	-g/--grammar FILE
		Read the grammar from FILE. Defaults to "grammar.txt".

	-s/--start NT
		Use NT as the start symbol. Defaults to S if the grammar defines it,
		and otherwise to the nonterminal that reaches the most others.

	-c/--config FILE
		Read settings from the TOML file FILE. Flags given on the command line
		override it.

	-k N
		Use a lookahead width of N. If not given here or in the config file,
		it is asked for when needed.

	-d/--direct
		Force reading directly from the console as opposed to using GNU
		readline based routines for reading input even if launched in a tty
		with stdin and stdout.

	--debug
		Show debug log output.

	--no-color
		Do not color log or status output.

	-v/--version
		Give the current version of gramq and then exit.

The exit status is 0 on success, 1 if the grammar, k, fuzz parameters, or an
input file were rejected, 2 on any other I/O or initialization failure, and 3
if a cross-check found the recognizers disagreeing.
*/
package main

import (
	"os"
)

const (
	// ExitSuccess indicates a successful program execution.
	ExitSuccess = iota

	// ExitPrecondition indicates that the program refused its input, such as
	// a malformed grammar or a k less than 1.
	ExitPrecondition

	// ExitInitError indicates an unsuccessful program execution due to an
	// I/O problem or an issue initializing the engine.
	ExitInitError

	// ExitMismatch indicates that a cross-check found at least one word on
	// which CYK and the table-driven recognizer disagree.
	ExitMismatch
)

var returnCode = ExitSuccess

func main() {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			// we are panicking, make sure we dont lose the panic just because
			// we checked
			panic(panicErr)
		} else {
			os.Exit(returnCode)
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		reportError(err)
		returnCode = exitCodeOf(err)
	}
}
