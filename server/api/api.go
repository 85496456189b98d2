// Package api provides HTTP API endpoints for the gramq analysis server.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dekarrin/gramq/internal/fuzz"
	"github.com/dekarrin/gramq/internal/gqerrors"
	"github.com/dekarrin/gramq/internal/grammar"
	"github.com/dekarrin/gramq/server/dao"
	"github.com/dekarrin/gramq/server/gramqs"
	"github.com/dekarrin/gramq/server/middle"
	"github.com/dekarrin/gramq/server/result"
	"github.com/dekarrin/gramq/server/serr"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	// PathPrefix is the prefix of all paths in the API. Routers should mount
	// a sub-router that routes all requests to the API at this path.
	PathPrefix = "/api/v1"
)

// requireIDParam gets the ID of the main entity being referenced in the URI.
// Routes only match IDs that parse, so a bad one here is a routing bug and
// panics.
func requireIDParam(r *http.Request) uuid.UUID {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		panic(fmt.Sprintf("id parameter: %s", err.Error()))
	}
	return id
}

// getQueryK reads the lookahead width from the k query parameter. A missing
// parameter gives def.
func getQueryK(r *http.Request, def int) (int, error) {
	kStr := r.URL.Query().Get("k")
	if kStr == "" {
		return def, nil
	}
	k, err := strconv.Atoi(kStr)
	if err != nil {
		return 0, fmt.Errorf("k: %q is not a whole number", kStr)
	}
	return k, nil
}

// API holds parameters for endpoints needed to run and a service layer that
// will perform most of the actual logic. To use API, create one and then
// assign the result of its HTTP* methods as handlers to a router or some other
// kind of server mux.
//
// This is exclusively an API for serving external requests. For direct
// programmatic access into the backend of a gramq server via Go code, see
// [gramqs.Service].
type API struct {
	// Backend is the service that the API calls to perform the requested
	// actions.
	Backend gramqs.Service

	// UnauthDelay is the amount of time that a request will pause before
	// responding with an HTTP-403, HTTP-401, or HTTP-500 to deprioritize such
	// requests from processing and I/O.
	UnauthDelay time.Duration

	// Secret is the secret used to sign JWT tokens.
	Secret []byte

	// Limits bounds the work a single request can ask for.
	Limits Limits
}

// Limits are the largest values clients may request. A field of 0 takes its
// value from DefaultLimits.
type Limits struct {
	// MaxK is the widest lookahead for tables, table recognition, and
	// cross-checks. FIRST_k grows exponentially with k.
	MaxK int

	// MaxCount is the most words a single corpus may hold.
	MaxCount int

	// MaxWordLen is the longest word, in terminals, that may be recognized
	// or generated. Corpus requests that give no max length use it.
	MaxWordLen int
}

// DefaultLimits returns the Limits used for unset fields.
func DefaultLimits() Limits {
	return Limits{
		MaxK:       4,
		MaxCount:   1000,
		MaxWordLen: 256,
	}
}

// FillDefaults returns a copy of lim with fields of 0 set from DefaultLimits.
func (lim Limits) FillDefaults() Limits {
	def := DefaultLimits()
	if lim.MaxK == 0 {
		lim.MaxK = def.MaxK
	}
	if lim.MaxCount == 0 {
		lim.MaxCount = def.MaxCount
	}
	if lim.MaxWordLen == 0 {
		lim.MaxWordLen = def.MaxWordLen
	}
	return lim
}

// checkK returns an error meant for the client if k is over the limit. k < 1
// is left for the backend to reject.
func (lim Limits) checkK(k int) error {
	lim = lim.FillDefaults()
	if k > lim.MaxK {
		return fmt.Errorf("k: must be no more than %d but was %d", lim.MaxK, k)
	}
	return nil
}

// checkWord returns an error meant for the client if word has too many
// terminals.
func (lim Limits) checkWord(word string) error {
	lim = lim.FillDefaults()
	if n := grammar.WordLen(word); n > lim.MaxWordLen {
		return fmt.Errorf("word: must be no more than %d terminals but was %d", lim.MaxWordLen, n)
	}
	return nil
}

// applyFuzz bounds p in place. A MaxLen of 0 is replaced with MaxWordLen so
// that no generated word is unbounded.
func (lim Limits) applyFuzz(p *fuzz.Params) error {
	lim = lim.FillDefaults()
	if p.Count > lim.MaxCount {
		return fmt.Errorf("count: must be no more than %d but was %d", lim.MaxCount, p.Count)
	}
	if p.MaxLen > lim.MaxWordLen {
		return fmt.Errorf("max_len: must be no more than %d but was %d", lim.MaxWordLen, p.MaxLen)
	}
	if p.MaxLen == 0 {
		p.MaxLen = lim.MaxWordLen
	}
	return nil
}

// v must be a pointer to a type. Will return error such that
// errors.Is(err, serr.ErrBodyUnmarshal) returns true if it is problem decoding
// the JSON itself.
func parseJSON(req *http.Request, v interface{}) error {
	contentType := req.Header.Get("Content-Type")

	mediaType := strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	if strings.ToLower(mediaType) != "application/json" {
		return fmt.Errorf("request content-type is not application/json")
	}

	bodyData, err := io.ReadAll(req.Body)
	if err != nil {
		return fmt.Errorf("could not read request body: %w", err)
	}
	defer func() {
		req.Body.Close()
		req.Body = io.NopCloser(bytes.NewBuffer(bodyData))
	}()

	err = json.Unmarshal(bodyData, v)
	if err != nil {
		return serr.New("malformed JSON in request", err, serr.ErrBodyUnmarshal)
	}

	return nil
}

// requestUser gets the logged-in user placed in the request context by the
// auth middleware.
func requestUser(req *http.Request) dao.User {
	return middle.User(req.Context())
}

// serviceErr gives the response for an error returned by the Backend. Client
// faults show the human message of the analysis error behind them.
func serviceErr(err error, action string) result.Result {
	switch {
	case errors.Is(err, serr.ErrPermissions):
		return result.Forbidden("%s", err.Error())
	case errors.Is(err, serr.ErrNotFound):
		return result.NotFound("%s: %s", action, err.Error())
	case errors.Is(err, serr.ErrAlreadyExists):
		return result.Conflict(gqerrors.HumanMessage(err), "%s: %s", action, err.Error())
	case errors.Is(err, serr.ErrBadArgument):
		return result.BadRequest(gqerrors.HumanMessage(err), "%s: %s", action, err.Error())
	default:
		return result.InternalServerError("%s: %s", action, err.Error())
	}
}

type EndpointFunc func(req *http.Request) result.Result

func httpEndpoint(unauthDelay time.Duration, ep EndpointFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		defer panicTo500(w, req)
		r := ep(req)

		// if this hasn't been properly created, output error directly and do not
		// try to read properties
		if r.Status == 0 {
			logHttpResponse(log.ErrorLevel, req, http.StatusInternalServerError, "endpoint result was never populated")
			http.Error(w, "An internal server error occurred", http.StatusInternalServerError)
			return
		}

		// pre-call PrepareMarshaledResponse bc if it fails in call to
		// WriteResponse, it will panic.
		if err := r.PrepareMarshaledResponse(); err != nil {
			newResp := result.Err(http.StatusInternalServerError, "An internal server error occurred", "could not marshal JSON response: "+err.Error())
			logHttpResponse(log.ErrorLevel, req, newResp.Status, newResp.InternalMsg)
			newResp.WriteResponse(w)
			return
		}

		if r.IsErr {
			logHttpResponse(log.ErrorLevel, req, r.Status, r.InternalMsg)
		} else {
			logHttpResponse(log.InfoLevel, req, r.Status, r.InternalMsg)
		}

		if r.Status == http.StatusUnauthorized || r.Status == http.StatusForbidden || r.Status == http.StatusInternalServerError {
			// if it's one of these statusus, either the user is improperly
			// logging in or tried to access a forbidden resource, both of which
			// should force the wait time before responding.
			time.Sleep(unauthDelay)
		}

		r.WriteResponse(w)
	}
}

func panicTo500(w http.ResponseWriter, req *http.Request) (panicVal interface{}) {
	if panicErr := recover(); panicErr != nil {
		r := result.TextErr(
			http.StatusInternalServerError,
			"An internal server error occurred",
			fmt.Sprintf("panic: %v\nSTACK TRACE: %s", panicErr, string(debug.Stack())),
		)
		logHttpResponse(log.ErrorLevel, req, r.Status, r.InternalMsg)
		r.WriteResponse(w)
		return true
	}
	return false
}

func logHttpResponse(level log.Level, req *http.Request, respStatus int, msg string) {
	// we don't really care about the ephemeral port from the client end
	remoteAddrParts := strings.SplitN(req.RemoteAddr, ":", 2)
	remoteIP := remoteAddrParts[0]

	kv := []interface{}{"remote", remoteIP, "method", req.Method, "path", req.URL.Path}
	if middle.LoggedIn(req.Context()) {
		kv = append(kv, "user", middle.User(req.Context()).Username)
	}
	log.Log(level, fmt.Sprintf("HTTP-%d %s", respStatus, msg), kv...)
}
