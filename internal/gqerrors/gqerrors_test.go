package gqerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Error_Is(t *testing.T) {
	testCases := []struct {
		name   string
		err    error
		target error
		expect bool
	}{
		{
			name:   "direct cause",
			err:    New("bad", ErrBadFuzzParams),
			target: ErrBadFuzzParams,
			expect: true,
		},
		{
			name:   "second cause",
			err:    New("bad", errors.New("other"), ErrMalformedGrammar),
			target: ErrMalformedGrammar,
			expect: true,
		},
		{
			name:   "wrapped by fmt",
			err:    fmt.Errorf("load: %w", Malformed(3, "no arrow")),
			target: ErrMalformedGrammar,
			expect: true,
		},
		{
			name:   "unrelated",
			err:    New("bad", ErrBadFuzzParams),
			target: ErrBadLookahead,
			expect: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, errors.Is(tc.err, tc.target))
		})
	}
}

func Test_Malformed_Message(t *testing.T) {
	assert := assert.New(t)

	err := Malformed(2, "missing %q", "->")
	assert.Equal(`line 2: missing "->": malformed grammar`, err.Error())

	err = Malformed(0, "empty")
	assert.Equal("empty: malformed grammar", err.Error())
}

func Test_Lookahead(t *testing.T) {
	testCases := []struct {
		name      string
		k         int
		expectErr bool
	}{
		{name: "zero", k: 0, expectErr: true},
		{name: "negative", k: -3, expectErr: true},
		{name: "one", k: 1, expectErr: false},
		{name: "large", k: 12, expectErr: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			err := Lookahead(tc.k)
			if tc.expectErr {
				assert.ErrorIs(err, ErrBadLookahead)
				assert.Equal("k must be a whole number greater than 0", HumanMessage(err))
			} else {
				assert.NoError(err)
			}
		})
	}
}
