// Package gramq analyzes context-free grammars. It normalizes a grammar to
// Chomsky Normal Form and derives from that a bigram model for fuzzing and a
// CYK recognizer, and separately builds LL(k) parse tables from the grammar
// as written and drives a table-based recognizer with them. The two
// recognizers act as oracles for each other.
//
// Analysis is the entry point for programmatic use. Engine wraps an Analysis
// with the console input and output the gramq command uses for its default
// run.
package gramq

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dekarrin/gramq/internal/gqerrors"
	"github.com/dekarrin/gramq/internal/input"
	"github.com/dekarrin/rosed"
)

const consoleOutputWidth = 80

// ContractOptions configures Engine.RunContract.
type ContractOptions struct {
	// K is the lookahead width. If it is 0, the user is asked for it.
	K int

	// Word is checked for membership once the table is built.
	Word string

	// TableFile is where the persisted form of the table is written. If
	// empty, the table is not written anywhere.
	TableFile string

	// ShowTable prints the rendered table before the verdict.
	ShowTable bool
}

// ContractResult is the outcome of Engine.RunContract.
type ContractResult struct {
	K        int
	LLK      bool
	Word     string
	Accepted bool
}

// Engine contains the things needed to run an analysis from an interactive
// shell attached to an input stream and an output stream.
type Engine struct {
	an          *Analysis
	in          input.LineReader
	out         *bufio.Writer
	forceDirect bool
	running     bool
}

// New creates a new engine for an and ready to operate on the given input and
// output streams. It will immediately open a line reader on the input stream
// and a buffered writer on the output stream.
//
// If nil is given for the input stream, stdin is used. If nil is given for the
// output stream, stdout is used. Readline is used for input only if both are
// the console and forceDirectInput is not set.
func New(inputStream io.Reader, outputStream io.Writer, an *Analysis, forceDirectInput bool) (*Engine, error) {
	if inputStream == nil {
		inputStream = os.Stdin
	}
	if outputStream == nil {
		outputStream = os.Stdout
	}

	eng := &Engine{
		an:          an,
		out:         bufio.NewWriter(outputStream),
		forceDirect: forceDirectInput,
	}

	useReadline := !forceDirectInput && inputStream == os.Stdin && outputStream == os.Stdout

	if useReadline {
		var err error
		eng.in, err = input.NewInteractiveReader()
		if err != nil {
			return nil, fmt.Errorf("initializing interactive-mode input reader: %w", err)
		}
	} else {
		eng.in = input.NewDirectReader(inputStream, outputStream)
	}

	return eng, nil
}

// Analysis returns the Analysis the Engine operates on.
func (eng *Engine) Analysis() *Analysis {
	return eng.an
}

// Close closes all resources associated with the Engine, including any
// readline-related resources created for interactive mode.
func (eng *Engine) Close() error {
	if eng.running {
		return fmt.Errorf("cannot close a running engine")
	}

	err := eng.in.Close()
	if err != nil {
		return fmt.Errorf("close line reader: %w", err)
	}

	return nil
}

// AskK prompts for the lookahead width until an integer is entered. An
// integer less than 1 is not asked for again; it is returned with an error
// wrapping gqerrors.ErrBadLookahead.
func (eng *Engine) AskK() (int, error) {
	for {
		if err := eng.out.Flush(); err != nil {
			return 0, fmt.Errorf("could not flush output: %w", err)
		}

		k, err := input.ReadInt(eng.in, "Enter k: ")
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
				return 0, err
			}
			if !errors.Is(err, input.ErrNotANumber) {
				return 0, fmt.Errorf("read k: %w", err)
			}

			msg := "Please enter a number\n"
			if strings.Contains(err.Error(), ".") {
				msg = "Please enter a number without a decimal dot\n"
			}
			if err := eng.write(msg); err != nil {
				return 0, err
			}
			continue
		}

		if err := gqerrors.Lookahead(k); err != nil {
			return k, err
		}
		return k, nil
	}
}

// RunContract builds the LL(k) table of the grammar, writes its persisted
// form, and checks a single word with the table-driven recognizer. If k is
// invalid nothing is built or written and the returned error wraps
// gqerrors.ErrBadLookahead.
func (eng *Engine) RunContract(opts ContractOptions) (ContractResult, error) {
	eng.running = true
	defer func() {
		eng.running = false
	}()

	k := opts.K
	if k == 0 {
		var err error
		k, err = eng.AskK()
		if err != nil {
			return ContractResult{}, err
		}
	}
	if err := gqerrors.Lookahead(k); err != nil {
		return ContractResult{}, err
	}

	t, err := eng.an.Table(k)
	if err != nil {
		return ContractResult{}, err
	}

	if opts.TableFile != "" {
		if err := writeTableFile(opts.TableFile, t.WriteTo); err != nil {
			return ContractResult{}, err
		}
		log.Info("wrote parse table", "file", opts.TableFile, "entries", len(t.Entries()), "cells", t.Cells())
	}

	res := ContractResult{
		K:    k,
		LLK:  t.IsLLK(),
		Word: opts.Word,
	}

	rec, err := eng.an.Recognizer(k)
	if err != nil {
		return ContractResult{}, err
	}
	res.Accepted = rec.RecognizeString(opts.Word)

	var sb strings.Builder
	if opts.ShowTable {
		sb.WriteString(t.String())
		sb.WriteString("\n\n")
	}
	if res.LLK {
		sb.WriteString(fmt.Sprintf("The grammar is LL(%d).\n", k))
	} else {
		var conflicted []string
		for _, c := range t.Conflicts() {
			la := c.Lookahead
			if la == "" {
				la = "$"
			}
			conflicted = append(conflicted, c.NonTerminal+" on "+la)
		}
		msg := fmt.Sprintf("The grammar is not LL(%d); more than one rule applies for %s.", k, strings.Join(conflicted, ", "))
		sb.WriteString(rosed.Edit(msg).Wrap(consoleOutputWidth).String())
		sb.WriteRune('\n')
	}
	sb.WriteString(fmt.Sprintf("%q: %t\n", opts.Word, res.Accepted))

	if err := eng.write(sb.String()); err != nil {
		return ContractResult{}, err
	}

	return res, nil
}

func (eng *Engine) write(s string) error {
	if _, err := eng.out.WriteString(s); err != nil {
		return fmt.Errorf("could not write output: %w", err)
	}
	if err := eng.out.Flush(); err != nil {
		return fmt.Errorf("could not flush output: %w", err)
	}
	return nil
}

func writeTableFile(path string, writeTo func(w io.Writer) (int64, error)) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create table file: %w", err)
	}
	if _, err := writeTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write table file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close table file: %w", err)
	}
	return nil
}
