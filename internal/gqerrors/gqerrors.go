// Package gqerrors holds the error taxonomy used across gramq. It contains
// sentinel errors for each class of precondition violation as well as the
// Error type, which carries a technical message, a message suitable for
// showing to an operator, and one or more cause errors.
//
// Calling errors.Is() on an Error with any of its causes returns true, so
// callers can classify failures without typecasting:
//
//	if errors.Is(err, gqerrors.ErrMalformedGrammar) { ... }
package gqerrors

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedGrammar is the cause of any failure to read grammar text.
	ErrMalformedGrammar = errors.New("malformed grammar")

	// ErrBadFuzzParams is the cause of a rejected fuzzer configuration.
	ErrBadFuzzParams = errors.New("invalid fuzz parameters")

	// ErrBadLookahead is the cause of a rejected lookahead width.
	ErrBadLookahead = errors.New("invalid lookahead width")

	// ErrUnknownStart is returned when a start symbol is requested that the
	// grammar does not define.
	ErrUnknownStart = errors.New("unknown start symbol")

	// ErrMalformedTable is the cause of any failure to read a persisted parse
	// table.
	ErrMalformedTable = errors.New("malformed parse table")

	// ErrMalformedCorpus is the cause of any failure to read a persisted fuzz
	// corpus.
	ErrMalformedCorpus = errors.New("malformed corpus")
)

// Error is a typed error with a technical message, an optional human-readable
// message, and any number of causes. Error should not be created directly;
// call New or Newf.
type Error struct {
	msg   string
	human string
	cause []error
}

// Error returns the technical message, with the first cause appended if there
// is one.
func (e Error) Error() string {
	if e.msg == "" && len(e.cause) > 0 {
		return e.cause[0].Error()
	}

	if len(e.cause) > 0 {
		return e.msg + ": " + e.cause[0].Error()
	}

	return e.msg
}

// Human returns the message that should be shown to an operator. If none was
// set, Error() is returned.
func (e Error) Human() string {
	if e.human == "" {
		return e.Error()
	}
	return e.human
}

// Unwrap returns the causes of Error.
func (e Error) Unwrap() []error {
	if len(e.cause) > 0 {
		return e.cause
	}
	return nil
}

// Is returns whether any of the causes of e is target.
func (e Error) Is(target error) bool {
	for i := range e.cause {
		if e.cause[i] == target {
			return true
		}
	}
	return false
}

// WithHuman returns a copy of e that shows the given message to operators.
func (e Error) WithHuman(format string, a ...interface{}) Error {
	e.human = fmt.Sprintf(format, a...)
	return e
}

// New creates a new Error with the given message, along with any errors it
// should wrap as its causes.
func New(msg string, causes ...error) Error {
	err := Error{msg: msg}
	if len(causes) > 0 {
		err.cause = make([]error, len(causes))
		copy(err.cause, causes)
	}
	return err
}

// Newf is like New but formats the message. The causes come first.
func Newf(causes []error, format string, a ...interface{}) Error {
	return New(fmt.Sprintf(format, a...), causes...)
}

// Malformed creates an Error caused by ErrMalformedGrammar that describes a
// problem on the given 1-based line of grammar text. A line of 0 omits the line
// from the message.
func Malformed(line int, format string, a ...interface{}) Error {
	msg := fmt.Sprintf(format, a...)
	if line > 0 {
		msg = fmt.Sprintf("line %d: %s", line, msg)
	}
	return New(msg, ErrMalformedGrammar)
}

// Lookahead returns the error for an invalid lookahead width k, or nil if k is
// valid.
func Lookahead(k int) error {
	if k < 1 {
		return New(fmt.Sprintf("k must be at least 1 but was %d", k), ErrBadLookahead).
			WithHuman("k must be a whole number greater than 0")
	}
	return nil
}

// HumanMessage gets the message to display to an operator for the given error.
// If some Error is in err's chain, its human message is returned. Otherwise,
// err.Error() is returned.
func HumanMessage(err error) string {
	var gqErr Error
	if errors.As(err, &gqErr) {
		return gqErr.Human()
	}
	return err.Error()
}
