package serr

import (
	"errors"
	"testing"

	"github.com/dekarrin/gramq/internal/gqerrors"
	"github.com/stretchr/testify/assert"
)

func Test_Error_Is(t *testing.T) {
	cause := errors.New("disk on fire")

	testCases := []struct {
		name      string
		err       error
		target    error
		expect    bool
		expectMsg string
	}{
		{name: "new with cause", err: New("could not save", cause, ErrDB), target: ErrDB, expect: true, expectMsg: "could not save: disk on fire"},
		{name: "new without match", err: New("could not save", cause), target: ErrNotFound, expect: false, expectMsg: "could not save: disk on fire"},
		{name: "wrap db keeps message", err: WrapDB("update user", cause), target: ErrDB, expect: true, expectMsg: "update user: disk on fire"},
		{name: "wrap db without message", err: WrapDB("", cause), target: cause, expect: true, expectMsg: "disk on fire"},
		{name: "bad argument from lookahead", err: BadArgument(gqerrors.Lookahead(0)), target: gqerrors.ErrBadLookahead, expect: true, expectMsg: gqerrors.Lookahead(0).Error()},
		{name: "bad argument sentinel", err: BadArgument(gqerrors.Lookahead(0)), target: ErrBadArgument, expect: true, expectMsg: gqerrors.Lookahead(0).Error()},
		{name: "forbidden", err: Forbidden("user 'bob' (role normal)", "delete grammar 7"), target: ErrPermissions, expect: true, expectMsg: "user 'bob' (role normal) may not delete grammar 7: " + ErrPermissions.Error()},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, errors.Is(tc.err, tc.target))
			assert.Equal(t, tc.expectMsg, tc.err.Error())
		})
	}
}

func Test_BadArgument_HumanMessage(t *testing.T) {
	err := BadArgument(gqerrors.Lookahead(-2))
	assert.Equal(t, "k must be a whole number greater than 0", gqerrors.HumanMessage(err))
}
