package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_parseListen(t *testing.T) {
	testCases := []struct {
		name       string
		input      string
		expectAddr string
		expectPort int
		expectErr  bool
	}{
		{name: "empty", input: ""},
		{name: "port only", input: ":6001", expectPort: 6001},
		{name: "address and port", input: "192.168.0.2:6001", expectAddr: "192.168.0.2", expectPort: 6001},
		{name: "no port", input: "localhost", expectErr: true},
		{name: "bad port", input: "localhost:http", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			addr, port, err := parseListen(tc.input)
			if tc.expectErr {
				assert.Error(err)
				return
			}
			assert.NoError(err)
			assert.Equal(tc.expectAddr, addr)
			assert.Equal(tc.expectPort, port)
		})
	}
}

func Test_tokenSecret(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		expectLen int
		expectErr bool
	}{
		{name: "generated", input: "", expectLen: 64},
		{name: "short is repeated", input: "abcde", expectLen: 40},
		{name: "exact minimum", input: "0123456789abcdef0123456789abcdef", expectLen: 32},
		{name: "too long", input: "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdefX", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			secret, err := tokenSecret(tc.input)
			if tc.expectErr {
				assert.Error(err)
				return
			}
			assert.NoError(err)
			assert.Len(secret, tc.expectLen)
		})
	}
}
