package input

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_DirectLineReader_ReadLine(t *testing.T) {
	testCases := []struct {
		name        string
		input       string
		allowBlank  bool
		expect      []string
		expectFinal error
	}{
		{
			name:        "skips blank lines",
			input:       "\n  \n2\n",
			expect:      []string{"2"},
			expectFinal: io.EOF,
		},
		{
			name:        "blank lines allowed",
			input:       "\n3\n",
			allowBlank:  true,
			expect:      []string{"", "3"},
			expectFinal: io.EOF,
		},
		{
			name:        "last line without newline",
			input:       "1\n 4 ",
			expect:      []string{"1", "4"},
			expectFinal: io.EOF,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			r := NewDirectReader(strings.NewReader(tc.input), nil)
			r.AllowBlank(tc.allowBlank)
			defer r.Close()

			for _, expect := range tc.expect {
				actual, err := r.ReadLine()
				if !assert.NoError(err) {
					return
				}
				assert.Equal(expect, actual)
			}

			_, err := r.ReadLine()
			assert.ErrorIs(err, tc.expectFinal)
		})
	}
}

func Test_ReadInt(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		expect    int
		expectErr bool
	}{
		{name: "positive", input: "3\n", expect: 3},
		{name: "negative", input: "-2\n", expect: -2},
		{name: "not a number", input: "two\n", expectErr: true},
		{name: "no input", input: "", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			var out bytes.Buffer
			r := NewDirectReader(strings.NewReader(tc.input), &out)

			actual, err := ReadInt(r, "k: ")
			if tc.expectErr {
				assert.Error(err)
				return
			}
			assert.NoError(err)
			assert.Equal(tc.expect, actual)
			assert.Equal("k: ", out.String())
		})
	}
}
