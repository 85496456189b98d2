package logger

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func Test_InitTo(t *testing.T) {
	testCases := []struct {
		name        string
		debug       bool
		expectDebug bool
	}{
		{name: "quiet", debug: false, expectDebug: false},
		{name: "debug", debug: true, expectDebug: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			var buf bytes.Buffer
			InitTo(&buf, tc.debug, true)

			log.Debug("fixpoint converged", "passes", 3)
			log.Warn("start symbol not defined")

			out := buf.String()
			assert.Contains(out, "start symbol not defined")
			assert.Contains(out, "GRAMQ")
			if tc.expectDebug {
				assert.Contains(out, "fixpoint converged")
			} else {
				assert.NotContains(out, "fixpoint converged")
			}
		})
	}
}
