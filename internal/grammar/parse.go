package grammar

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dekarrin/gramq/internal/gqerrors"
	"golang.org/x/text/unicode/norm"
)

// Tokenize splits s into symbol tokens. All whitespace is discarded first.
// Then a run from '[' up to and including the next ']' is one token, a letter
// immediately followed by a digit is one two-character token, and any other
// character is a token by itself.
//
// An unterminated '[' produces an error.
func Tokenize(s string) ([]string, error) {
	return tokenize(s, 0)
}

func tokenize(s string, line int) ([]string, error) {
	runes := []rune(stripSpace(s))

	var toks []string
	for i := 0; i < len(runes); i++ {
		switch {
		case runes[i] == '[':
			end := i + 1
			for end < len(runes) && runes[end] != ']' {
				end++
			}
			if end >= len(runes) {
				return nil, gqerrors.Malformed(line, "unterminated %q in %q", "[", s)
			}
			toks = append(toks, string(runes[i:end+1]))
			i = end
		case unicode.IsLetter(runes[i]) && i+1 < len(runes) && unicode.IsDigit(runes[i+1]):
			toks = append(toks, string(runes[i:i+2]))
			i++
		default:
			toks = append(toks, string(runes[i]))
		}
	}

	return toks, nil
}

// TokenizeWord splits an input word into terminal tokens using the same rules
// as Tokenize. Input words are never expected to contain brackets, so any
// bracket is returned as its own token rather than being treated as an error.
func TokenizeWord(s string) []string {
	runes := []rune(stripSpace(s))

	var toks []string
	for i := 0; i < len(runes); i++ {
		if unicode.IsLetter(runes[i]) && i+1 < len(runes) && unicode.IsDigit(runes[i+1]) {
			toks = append(toks, string(runes[i:i+2]))
			i++
		} else {
			toks = append(toks, string(runes[i]))
		}
	}
	return toks
}

// TruncateWord returns the prefix of s made of its first k terminal tokens, as
// TokenizeWord would split them. s must not contain whitespace.
func TruncateWord(s string, k int) string {
	count := 0
	for i := 0; i < len(s); {
		if count >= k {
			return s[:i]
		}

		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		if unicode.IsLetter(r) && i < len(s) {
			next, nextSize := utf8.DecodeRuneInString(s[i:])
			if unicode.IsDigit(next) {
				i += nextSize
			}
		}
		count++
	}
	return s
}

// WordLen returns the number of terminal tokens in s.
func WordLen(s string) int {
	return len(TokenizeWord(s))
}

// ParseProduction tokenizes a single alternative into a typed Production.
func ParseProduction(s string) (Production, error) {
	return parseProduction(s, 0)
}

func parseProduction(s string, line int) (Production, error) {
	toks, err := tokenize(s, line)
	if err != nil {
		return nil, err
	}
	if len(toks) == 0 {
		return nil, gqerrors.Malformed(line, "empty alternative")
	}

	prod := make(Production, len(toks))
	for i := range toks {
		prod[i] = Symbol{Kind: kindOf(toks[i]), Name: toks[i]}
	}
	return prod, nil
}

// ParseRule parses a single line of grammar text of the form
// "NT -> alt1 | alt2 | ...".
func ParseRule(r string) (Rule, error) {
	return parseRule(r, 0)
}

func parseRule(r string, line int) (Rule, error) {
	sides := strings.Split(r, "->")
	if len(sides) != 2 {
		if len(sides) < 2 {
			return Rule{}, gqerrors.Malformed(line, "not a rule; missing %q", "->")
		}
		return Rule{}, gqerrors.Malformed(line, "not a rule; more than one %q", "->")
	}

	headToks, err := tokenize(sides[0], line)
	if err != nil {
		return Rule{}, err
	}
	if len(headToks) == 0 {
		return Rule{}, gqerrors.Malformed(line, "empty nonterminal name not allowed for production rule")
	}
	if len(headToks) != 1 || kindOf(headToks[0]) != NonTerminal {
		return Rule{}, gqerrors.Malformed(line, "invalid nonterminal name %q", stripSpace(sides[0]))
	}

	parsedRule := Rule{NonTerminal: headToks[0]}

	for _, alt := range strings.Split(sides[1], "|") {
		prod, err := parseProduction(alt, line)
		if err != nil {
			return Rule{}, err
		}
		parsedRule.Productions = append(parsedRule.Productions, prod)
	}

	return parsedRule, nil
}

// Parse reads grammar text, one nonterminal definition per line. Blank lines
// and lines beginning with '#' are skipped. Several lines may define the same
// nonterminal; their alternatives accumulate.
//
// The start symbol is set to the nonterminal with the largest reachability
// closure. Use SetStart to pick a different one.
//
// The returned error, if non-nil, will match gqerrors.ErrMalformedGrammar.
func Parse(text string) (Grammar, error) {
	text = norm.NFC.String(text)

	var g Grammar
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		r, err := parseRule(line, i+1)
		if err != nil {
			return Grammar{}, err
		}

		for _, p := range r.Productions {
			g.AddRule(r.NonTerminal, p)
		}
	}

	if len(g.rules) == 0 {
		return Grammar{}, gqerrors.Malformed(0, "no rules defined in grammar")
	}

	g.Start = g.DiscoverStart()

	return g, nil
}

// MustParse is like Parse but panics if it can't. It additionally sets the
// start symbol to start if start is not empty.
func MustParse(text string, start string) Grammar {
	g, err := Parse(text)
	if err != nil {
		panic(err.Error())
	}
	if start != "" {
		if err := g.SetStart(start); err != nil {
			panic(err.Error())
		}
	}
	return g
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
