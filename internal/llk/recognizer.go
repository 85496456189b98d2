package llk

import (
	"strconv"
	"strings"

	"github.com/dekarrin/gramq/internal/grammar"
	"github.com/emirpasic/gods/lists/arraylist"
)

// Thread is one branch of a nondeterministic recognition. Stack is given with
// the symbol that will be popped next first.
type Thread struct {
	Stack     []string
	Pos       int
	Lookahead string
}

func (th Thread) String() string {
	return strconv.Itoa(th.Pos) + " [" + th.Lookahead + "] " + strings.Join(th.Stack, " ")
}

type thread struct {
	// top of stack is the last element
	stack []grammar.Symbol
	pos   int
	la    string
}

func (th thread) export() Thread {
	names := make([]string, len(th.stack))
	for i := range th.stack {
		names[len(th.stack)-1-i] = th.stack[i].Name
	}
	return Thread{Stack: names, Pos: th.pos, Lookahead: th.la}
}

func (th thread) key() string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(th.pos))
	for _, sym := range th.stack {
		sb.WriteRune(0)
		sb.WriteString(sym.Name)
	}
	return sb.String()
}

// Recognizer decides membership with a table-driven stack machine. When a
// table cell offers more than one body, every one of them is explored as its
// own thread, so a table need not be LL(k) for recognition to be exact.
type Recognizer struct {
	table Table

	// Trace, if set, is called at the start of each round with the threads
	// that are about to be stepped, in the order they will be stepped.
	Trace func(round int, threads []Thread)
}

// NewRecognizer returns a Recognizer that uses t, starting from t.Start.
func NewRecognizer(t Table) *Recognizer {
	return &Recognizer{table: t}
}

// RecognizeString tokenizes s into terminals and calls Recognize with them.
func (r *Recognizer) RecognizeString(s string) bool {
	return r.Recognize(grammar.TokenizeWord(s))
}

// Recognize returns whether the start symbol of the table derives word.
//
// Every round steps each live thread once, in worklist order. Stepping pops
// the top of the thread's stack. A terminal must match the next input token
// or the thread dies. A nonterminal is replaced with each body the table
// offers for the thread's lookahead, one new thread per body, in table order.
// Bodies that could not fit in the rest of the input alongside the rest of
// the stack are skipped, since every symbol derives at least one token.
//
// Recognition stops with success as soon as a thread has an empty stack at
// the end of input, and with failure when no threads are left. A thread that
// reaches a state some earlier thread already reached is dropped, which keeps
// chain-rule cycles from looping forever.
func (r *Recognizer) Recognize(word []string) bool {
	if r.table.K < 1 {
		return false
	}

	n := len(word)
	lookahead := func(pos int) string {
		end := pos + r.table.K
		if end > n {
			end = n
		}
		return strings.Join(word[pos:end], "")
	}

	seen := map[string]bool{}
	live := arraylist.New()

	initial := thread{
		stack: []grammar.Symbol{grammar.NT(r.table.Start)},
		pos:   0,
		la:    lookahead(0),
	}
	seen[initial.key()] = true
	live.Add(initial)

	round := 0
	for !live.Empty() {
		round++
		if r.Trace != nil {
			r.Trace(round, exportAll(live))
		}

		next := arraylist.New()
		push := func(th thread) bool {
			if len(th.stack) == 0 && th.pos == n {
				return true
			}
			k := th.key()
			if seen[k] {
				return false
			}
			seen[k] = true
			next.Add(th)
			return false
		}

		it := live.Iterator()
		for it.Next() {
			th := it.Value().(thread)
			if len(th.stack) == 0 {
				// stack ran out before the input did
				continue
			}

			top := th.stack[len(th.stack)-1]
			rest := th.stack[:len(th.stack)-1]

			if top.IsTerminal() {
				if th.pos >= n || word[th.pos] != top.Name {
					continue
				}
				advanced := thread{stack: rest, pos: th.pos + 1, la: lookahead(th.pos + 1)}
				if push(advanced) {
					return true
				}
				continue
			}

			remaining := n - th.pos
			for _, body := range r.table.Get(top.Name, th.la) {
				if len(rest)+len(body) > remaining {
					continue
				}

				stack := make([]grammar.Symbol, len(rest), len(rest)+len(body))
				copy(stack, rest)
				for i := len(body) - 1; i >= 0; i-- {
					stack = append(stack, body[i])
				}

				if push(thread{stack: stack, pos: th.pos, la: th.la}) {
					return true
				}
			}
		}

		live = next
	}

	return false
}

func exportAll(l *arraylist.List) []Thread {
	out := make([]Thread, 0, l.Size())
	it := l.Iterator()
	for it.Next() {
		out = append(out, it.Value().(thread).export())
	}
	return out
}
