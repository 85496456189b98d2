// Package middle contains middleware for use with the gramq analysis server.
package middle

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dekarrin/gramq/server/dao"
	"github.com/dekarrin/gramq/server/result"
	"github.com/dekarrin/gramq/server/token"
)

// Middleware is a function that takes a handler and returns a new handler which
// wraps the given one and provides some additional functionality.
type Middleware func(next http.Handler) http.Handler

// AuthKey is a key in the context of a request populated by an AuthHandler.
type AuthKey int64

const (
	AuthLoggedIn AuthKey = iota
	AuthUser
)

// User returns the user an AuthHandler put in ctx. If ctx never passed through
// one, the zero User is returned.
func User(ctx context.Context) dao.User {
	u, _ := ctx.Value(AuthUser).(dao.User)
	return u
}

// LoggedIn returns whether the request behind ctx carried a valid token.
func LoggedIn(ctx context.Context) bool {
	loggedIn, _ := ctx.Value(AuthLoggedIn).(bool)
	return loggedIn
}

// AuthHandler resolves the bearer token of a request to the user that owns
// it before passing the request on. With required set, a request without a
// valid token is answered with an HTTP-401 after unauthedDelay and never
// reaches next. Otherwise it is passed on as defaultUser with AuthLoggedIn
// false.
type AuthHandler struct {
	db            dao.UserRepository
	secret        []byte
	required      bool
	defaultUser   dao.User
	unauthedDelay time.Duration
	next          http.Handler
}

func (ah *AuthHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	user, err := ah.resolve(req)
	loggedIn := err == nil

	if !loggedIn {
		if ah.required {
			ah.reject(w, req, err)
			return
		}
		user = ah.defaultUser
	}

	ctx := context.WithValue(req.Context(), AuthLoggedIn, loggedIn)
	ctx = context.WithValue(ctx, AuthUser, user)
	ah.next.ServeHTTP(w, req.WithContext(ctx))
}

func (ah *AuthHandler) resolve(req *http.Request) (dao.User, error) {
	tok, err := token.Get(req)
	if err != nil {
		return dao.User{}, err
	}
	return token.Validate(req.Context(), tok, ah.secret, ah.db)
}

func (ah *AuthHandler) reject(w http.ResponseWriter, req *http.Request, err error) {
	log.Debug("rejected unauthenticated request", "path", req.URL.Path, "reason", err)
	time.Sleep(ah.unauthedDelay)
	result.Unauthorized("", err.Error()).WriteResponse(w)
}

func authMiddleware(db dao.UserRepository, secret []byte, unauthDelay time.Duration, defaultUser dao.User, required bool) Middleware {
	return func(next http.Handler) http.Handler {
		return &AuthHandler{
			db:            db,
			secret:        secret,
			unauthedDelay: unauthDelay,
			defaultUser:   defaultUser,
			required:      required,
			next:          next,
		}
	}
}

// RequireAuth returns middleware that rejects any request without a valid
// token with an HTTP-401.
func RequireAuth(db dao.UserRepository, secret []byte, unauthDelay time.Duration, defaultUser dao.User) Middleware {
	return authMiddleware(db, secret, unauthDelay, defaultUser, true)
}

// OptionalAuth returns middleware that passes every request on, using
// defaultUser for those without a valid token.
func OptionalAuth(db dao.UserRepository, secret []byte, unauthDelay time.Duration, defaultUser dao.User) Middleware {
	return authMiddleware(db, secret, unauthDelay, defaultUser, false)
}
