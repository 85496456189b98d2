// Package serr holds the errors returned by the gramq server service layer.
// They are gqerrors.Error values, so errors.Is matches any of their causes
// and gqerrors.HumanMessage gives the text to show a client.
package serr

import (
	"errors"

	"github.com/dekarrin/gramq/internal/gqerrors"
)

var (
	ErrBadCredentials = errors.New("the supplied username/password combination is incorrect")
	ErrPermissions    = errors.New("you don't have permission to do that")
	ErrNotFound       = errors.New("the requested entity could not be found")
	ErrAlreadyExists  = errors.New("resource with same identifying information already exists")
	ErrDB             = errors.New("an error occured with the DB")
	ErrBadArgument    = errors.New("one or more of the arguments is invalid")
	ErrBodyUnmarshal  = errors.New("malformed data in request")
)

// New creates an error with the given message that matches each of causes.
func New(msg string, causes ...error) gqerrors.Error {
	return gqerrors.New(msg, causes...)
}

// WrapDB creates an error caused by both err and ErrDB. msg may be "".
func WrapDB(msg string, err error) gqerrors.Error {
	return gqerrors.New(msg, err, ErrDB)
}

// BadArgument marks an analysis precondition failure such as a malformed
// grammar or an invalid k as the client's fault. The result has the same
// messages as err and matches both err and ErrBadArgument.
func BadArgument(err error) gqerrors.Error {
	return gqerrors.New("", err, ErrBadArgument).WithHuman("%s", gqerrors.HumanMessage(err))
}

// Forbidden creates an error caused by ErrPermissions saying that actor may
// not perform action.
func Forbidden(actor, action string) gqerrors.Error {
	return gqerrors.Newf([]error{ErrPermissions}, "%s may not %s", actor, action)
}
