// Package result contains results that are used to write out API responses.
package result

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorResponse is the JSON body of every error result.
type ErrorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// Result is a fully-described HTTP response waiting to be written. InternalMsg
// is for the server log only and is never sent to the client.
type Result struct {
	Status      int
	IsErr       bool
	IsJSON      bool
	InternalMsg string

	resp  interface{}
	redir string
	hdrs  [][2]string

	// cached by PrepareMarshaledResponse.
	respJSONBytes []byte
}

// internalMessage turns the variadic internal-message arguments used by the
// constructors into a single string. The first value, if present, must be a
// format string; the rest are its arguments. def is used when args is empty.
func internalMessage(def string, args []interface{}) string {
	if len(args) < 1 {
		return def
	}
	return fmt.Sprintf(args[0].(string), args[1:]...)
}

// OK returns a Result containing an HTTP-200 with respObj as the body.
func OK(respObj interface{}, internalMsg ...interface{}) Result {
	return response(http.StatusOK, respObj, internalMessage("OK", internalMsg))
}

// Created returns a Result containing an HTTP-201 with respObj as the body.
func Created(respObj interface{}, internalMsg ...interface{}) Result {
	return response(http.StatusCreated, respObj, internalMessage("created", internalMsg))
}

// NoContent returns a Result containing an HTTP-204.
func NoContent(internalMsg ...interface{}) Result {
	return response(http.StatusNoContent, nil, internalMessage("no content", internalMsg))
}

// BadRequest returns a Result containing an HTTP-400 that shows userMsg to the
// client.
func BadRequest(userMsg string, internalMsg ...interface{}) Result {
	return errResult(http.StatusBadRequest, userMsg, internalMessage("bad request", internalMsg))
}

// Unauthorized returns a Result containing an HTTP-401 along with the
// WWW-Authenticate challenge. A generic message is shown if userMsg is empty.
func Unauthorized(userMsg string, internalMsg ...interface{}) Result {
	if userMsg == "" {
		userMsg = "You are not authorized to do that"
	}

	return errResult(http.StatusUnauthorized, userMsg, internalMessage("unauthorized", internalMsg)).
		WithHeader("WWW-Authenticate", `Bearer realm="gramq analysis server", charset="utf-8"`)
}

// Forbidden returns a Result containing an HTTP-403.
func Forbidden(internalMsg ...interface{}) Result {
	return errResult(http.StatusForbidden, "You don't have permission to do that", internalMessage("forbidden", internalMsg))
}

// NotFound returns a Result containing an HTTP-404.
func NotFound(internalMsg ...interface{}) Result {
	return errResult(http.StatusNotFound, "The requested resource was not found", internalMessage("not found", internalMsg))
}

// MethodNotAllowed returns a Result containing an HTTP-405 that names the
// method and path of req.
func MethodNotAllowed(req *http.Request, internalMsg ...interface{}) Result {
	userMsg := fmt.Sprintf("Method %s is not allowed for %s", req.Method, req.URL.Path)
	return errResult(http.StatusMethodNotAllowed, userMsg, internalMessage("method not allowed", internalMsg))
}

// Conflict returns a Result containing an HTTP-409. Used when a grammar with
// the same fingerprint is already stored for the user, or a username is taken.
func Conflict(userMsg string, internalMsg ...interface{}) Result {
	return errResult(http.StatusConflict, userMsg, internalMessage("conflict", internalMsg))
}

// UnprocessableEntity returns a Result containing an HTTP-422. Used for
// grammar text that is well-formed JSON but does not parse as a grammar.
func UnprocessableEntity(userMsg string, internalMsg ...interface{}) Result {
	return errResult(http.StatusUnprocessableEntity, userMsg, internalMessage("unprocessable entity", internalMsg))
}

// InternalServerError returns a Result containing an HTTP-500. Details go to
// the log only.
func InternalServerError(internalMsg ...interface{}) Result {
	return errResult(http.StatusInternalServerError, "An internal server error occurred", internalMessage("internal server error", internalMsg))
}

// Response returns a non-error JSON Result. If status is http.StatusNoContent,
// respObj is never read and may be nil.
func Response(status int, respObj interface{}, internalMsg string, v ...interface{}) Result {
	return response(status, respObj, fmt.Sprintf(internalMsg, v...))
}

// Err returns a JSON error Result with an ErrorResponse body.
func Err(status int, userMsg, internalMsg string, v ...interface{}) Result {
	return errResult(status, userMsg, fmt.Sprintf(internalMsg, v...))
}

// TextErr is like Err but writes userMsg as plain text with no JSON encoding.
func TextErr(status int, userMsg, internalMsg string, v ...interface{}) Result {
	return Result{
		IsErr:       true,
		Status:      status,
		InternalMsg: fmt.Sprintf(internalMsg, v...),
		resp:        userMsg,
	}
}

// Redirection returns a Result that permanently sends the client to uri.
func Redirection(uri string) Result {
	return Result{
		Status:      http.StatusPermanentRedirect,
		InternalMsg: "redirect -> " + uri,
		redir:       uri,
	}
}

func response(status int, respObj interface{}, msg string) Result {
	return Result{
		IsJSON:      true,
		Status:      status,
		InternalMsg: msg,
		resp:        respObj,
	}
}

func errResult(status int, userMsg, msg string) Result {
	return Result{
		IsJSON:      true,
		IsErr:       true,
		Status:      status,
		InternalMsg: msg,
		resp:        ErrorResponse{Error: userMsg, Status: status},
	}
}

// WithHeader returns a copy of r that also sets the given header when
// written. r itself is not modified.
func (r Result) WithHeader(name, val string) Result {
	hdrs := make([][2]string, len(r.hdrs), len(r.hdrs)+1)
	copy(hdrs, r.hdrs)
	r.hdrs = append(hdrs, [2]string{name, val})
	r.respJSONBytes = nil
	return r
}

// PrepareMarshaledResponse marshals the body ahead of writing so that
// encoding failures can be turned into a 500 before any header is sent. It is
// a no-op for non-JSON results, 204s, redirects, and results that are already
// prepared.
func (r *Result) PrepareMarshaledResponse() error {
	if r.respJSONBytes != nil {
		return nil
	}
	if !r.IsJSON || r.Status == http.StatusNoContent || r.redir != "" {
		return nil
	}

	var err error
	r.respJSONBytes, err = json.Marshal(r.resp)
	return err
}

// WriteResponse writes r to w. It panics if r was never populated or its body
// cannot be marshaled.
func (r Result) WriteResponse(w http.ResponseWriter) {
	if r.Status == 0 {
		panic("result not populated")
	}

	if err := r.PrepareMarshaledResponse(); err != nil {
		panic(fmt.Sprintf("could not marshal response: %s", err.Error()))
	}

	hdr := w.Header()
	if r.IsJSON {
		hdr.Set("Content-Type", "application/json")
	} else {
		hdr.Set("Content-Type", "text/plain; charset=utf-8")
	}
	hdr.Set("X-Content-Type-Options", "nosniff")

	if r.redir != "" {
		hdr.Set("Location", r.redir)
	}
	for _, h := range r.hdrs {
		hdr.Set(h[0], h[1])
	}

	w.WriteHeader(r.Status)

	if r.Status == http.StatusNoContent || r.redir != "" {
		return
	}
	if r.IsJSON {
		w.Write(r.respJSONBytes)
	} else {
		fmt.Fprintf(w, "%v", r.resp)
	}
}
