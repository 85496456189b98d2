package api

import (
	"errors"
	"net/http"

	"github.com/dekarrin/gramq/server/gramqs"
	"github.com/dekarrin/gramq/server/result"
	"github.com/dekarrin/gramq/server/serr"
	"github.com/dekarrin/gramq/server/token"
)

// HTTPCreateLogin returns a HandlerFunc that checks a username and password
// and responds with a new token for that user.
func (api API) HTTPCreateLogin() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epCreateLogin)
}

func (api API) epCreateLogin(req *http.Request) result.Result {
	var creds LoginRequest
	if err := parseJSON(req, &creds); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}

	switch {
	case creds.Username == "":
		return result.BadRequest("username: property is empty or missing from request", "empty username")
	case creds.Password == "":
		return result.BadRequest("password: property is empty or missing from request", "empty password")
	}

	acc, err := api.Backend.Login(req.Context(), creds.Username, creds.Password)
	if errors.Is(err, serr.ErrBadCredentials) {
		return result.Unauthorized(serr.ErrBadCredentials.Error(), "user '%s': %s", creds.Username, err.Error())
	} else if err != nil {
		return result.InternalServerError(err.Error())
	}

	return api.issueToken(acc, "logged in")
}

// HTTPCreateToken returns a HandlerFunc that gives an already logged-in client
// a fresh token with a new expiry. Requires the auth middleware.
func (api API) HTTPCreateToken() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epCreateToken)
}

func (api API) epCreateToken(req *http.Request) result.Result {
	acc, err := api.Backend.GetAccount(req.Context(), requestUser(req).ID.String())
	if err != nil {
		return result.InternalServerError("could not get account: %s", err.Error())
	}
	return api.issueToken(acc, "refreshed token")
}

func (api API) issueToken(acc gramqs.Account, action string) result.Result {
	tok, err := token.Generate(api.Secret, acc.User)
	if err != nil {
		return result.InternalServerError("could not generate JWT: %s", err.Error())
	}

	resp := LoginResponse{
		Token:    tok,
		UserID:   acc.User.ID.String(),
		Grammars: acc.Grammars,
		Corpora:  acc.Corpora,
	}
	return result.Created(resp, "user '%s' %s", acc.User.Username, action)
}

// HTTPDeleteLogin returns a HandlerFunc that invalidates every token issued
// to the user named by the id URL parameter. Users may only log themselves
// out unless they are an admin. Requires the auth middleware.
func (api API) HTTPDeleteLogin() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epDeleteLogin)
}

func (api API) epDeleteLogin(req *http.Request) result.Result {
	id := requireIDParam(req)
	user := requestUser(req)

	if err := gramqs.Authorize(user, id, "log out user "+id.String()); err != nil {
		return result.Forbidden("%s", err.Error())
	}

	loggedOut, err := api.Backend.Logout(req.Context(), id)
	if errors.Is(err, serr.ErrNotFound) {
		return result.NotFound()
	} else if err != nil {
		return result.InternalServerError("could not log out user: %s", err.Error())
	}

	return result.NoContent("user '%s' logged out %s", user.Username, target(user, loggedOut))
}
