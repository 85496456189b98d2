package api

import (
	"errors"
	"net/http"

	"github.com/dekarrin/gramq/server/dao"
	"github.com/dekarrin/gramq/server/gramqs"
	"github.com/dekarrin/gramq/server/result"
	"github.com/dekarrin/gramq/server/serr"
)

// DefaultK is the lookahead used by table endpoints when the request does not
// give one.
const DefaultK = 1

// HTTPCreateGrammar returns a HandlerFunc that parses and stores a new grammar
// owned by the logged-in user.
//
// The handler has requirements for the request context it receives, and if the
// requirements are not met it may return an HTTP-500. The context must contain
// the logged-in user of the client making the request.
func (api API) HTTPCreateGrammar() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epCreateGrammar)
}

func (api API) epCreateGrammar(req *http.Request) result.Result {
	user := requestUser(req)
	if !gramqs.CanStore(user) {
		return result.Forbidden("user '%s' (role %s) store grammar: forbidden", user.Username, user.Role)
	}

	var body GrammarRequest
	if err := parseJSON(req, &body); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}
	if body.Text == "" {
		return result.BadRequest("text: property is empty or missing from request", "empty text")
	}

	g, err := api.Backend.CreateGrammar(req.Context(), user.ID, body.Text, body.Start)
	if err != nil {
		if errors.Is(err, serr.ErrAlreadyExists) {
			return result.Conflict("You already have a grammar with those rules", "user '%s': %s", user.Username, err.Error())
		} else if errors.Is(err, serr.ErrBadArgument) {
			return result.UnprocessableEntity(err.Error(), "user '%s': %s", user.Username, err.Error())
		}
		return result.InternalServerError(err.Error())
	}

	return result.Created(grammarModel(g), "user '%s' created grammar %s", user.Username, g.ID)
}

// HTTPGetAllGrammars returns a HandlerFunc that lists grammars. An admin user
// gets every grammar; all other users get only their own.
//
// The handler has requirements for the request context it receives, and if the
// requirements are not met it may return an HTTP-500. The context must contain
// the logged-in user of the client making the request.
func (api API) HTTPGetAllGrammars() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epGetAllGrammars)
}

func (api API) epGetAllGrammars(req *http.Request) result.Result {
	user := requestUser(req)

	var all []dao.Grammar
	var err error
	if user.Role == dao.Admin {
		all, err = api.Backend.GetAllGrammars(req.Context())
	} else {
		all, err = api.Backend.GetGrammarsByOwner(req.Context(), user.ID)
	}
	if err != nil {
		return result.InternalServerError(err.Error())
	}

	resp := make([]GrammarModel, len(all))
	for i := range all {
		resp[i] = grammarModel(all[i])
	}

	return result.OK(resp, "user '%s' got %d grammar(s)", user.Username, len(resp))
}

// ownedGrammar gets the grammar named by the id URL parameter. If it does not
// exist or the logged-in user may not see it, the returned Result is the
// response to give and ok is false.
func (api API) ownedGrammar(req *http.Request) (g dao.Grammar, r result.Result, ok bool) {
	id := requireIDParam(req)
	user := requestUser(req)

	g, err := api.Backend.GetGrammar(req.Context(), id.String())
	if err != nil {
		return g, serviceErr(err, "get grammar"), false
	}

	if err := gramqs.Authorize(user, g.OwnerID, "use grammar "+id.String()); err != nil {
		return g, result.Forbidden("%s", err.Error()), false
	}

	return g, result.Result{}, true
}

// HTTPGetGrammar returns a HandlerFunc that gets a stored grammar. Only its
// owner or an admin user may get it.
//
// The handler has requirements for the request context it receives, and if the
// requirements are not met it may return an HTTP-500. The context must contain
// the ID of the grammar and the logged-in user of the client making the
// request.
func (api API) HTTPGetGrammar() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epGetGrammar)
}

func (api API) epGetGrammar(req *http.Request) result.Result {
	g, r, ok := api.ownedGrammar(req)
	if !ok {
		return r
	}
	return result.OK(grammarModel(g), "user '%s' got grammar %s", requestUser(req).Username, g.ID)
}

// HTTPDeleteGrammar returns a HandlerFunc that deletes a stored grammar along
// with every corpus generated from it. Only its owner or an admin user may
// delete it.
func (api API) HTTPDeleteGrammar() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epDeleteGrammar)
}

func (api API) epDeleteGrammar(req *http.Request) result.Result {
	g, r, ok := api.ownedGrammar(req)
	if !ok {
		return r
	}

	if _, err := api.Backend.DeleteGrammar(req.Context(), g.ID.String()); err != nil {
		return serviceErr(err, "delete grammar")
	}

	return result.NoContent("user '%s' deleted grammar %s", requestUser(req).Username, g.ID)
}

// HTTPGetCNF returns a HandlerFunc that gives the Chomsky Normal Form of a
// stored grammar.
func (api API) HTTPGetCNF() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epGetCNF)
}

func (api API) epGetCNF(req *http.Request) result.Result {
	g, r, ok := api.ownedGrammar(req)
	if !ok {
		return r
	}

	cnf, err := api.Backend.CNF(g)
	if err != nil {
		return serviceErr(err, "normalize grammar")
	}

	resp := RulesModel{Start: cnf.StartSymbol(), Text: cnf.String()}
	return result.OK(resp, "user '%s' got CNF of grammar %s", requestUser(req).Username, g.ID)
}

// HTTPGetBigrams returns a HandlerFunc that gives the bigram model of a stored
// grammar.
func (api API) HTTPGetBigrams() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epGetBigrams)
}

func (api API) epGetBigrams(req *http.Request) result.Result {
	g, r, ok := api.ownedGrammar(req)
	if !ok {
		return r
	}

	sets, err := api.Backend.Bigrams(g)
	if err != nil {
		return serviceErr(err, "build bigrams")
	}

	resp := BigramModel{
		First:    orderedSets(sets.First),
		Last:     orderedSets(sets.Last),
		Follow:   orderedSets(sets.Follow),
		Precede:  orderedSets(sets.Precede),
		Adjacent: orderedSets(sets.FollowNT),
		Bigram:   orderedSets(sets.Bigram),
	}
	return result.OK(resp, "user '%s' got bigrams of grammar %s", requestUser(req).Username, g.ID)
}

// HTTPGetTable returns a HandlerFunc that gives the LL(k) parse table of a
// stored grammar. k is read from the query string and defaults to DefaultK.
func (api API) HTTPGetTable() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epGetTable)
}

func (api API) epGetTable(req *http.Request) result.Result {
	k, err := getQueryK(req, DefaultK)
	if err == nil {
		err = api.Limits.checkK(k)
	}
	if err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}

	g, r, ok := api.ownedGrammar(req)
	if !ok {
		return r
	}

	t, sets, err := api.Backend.Table(g, k)
	if err != nil {
		return serviceErr(err, "build table")
	}

	return result.OK(tableModel(t, sets), "user '%s' got LL(%d) table of grammar %s", requestUser(req).Username, k, g.ID)
}

// HTTPRecognize returns a HandlerFunc that decides whether a stored grammar
// derives a word.
func (api API) HTTPRecognize() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epRecognize)
}

func (api API) epRecognize(req *http.Request) result.Result {
	var body RecognizeRequest
	if err := parseJSON(req, &body); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}
	method, err := gramqs.ParseMethod(body.Method)
	if err != nil {
		return result.BadRequest("method: "+err.Error(), "method: %s", err.Error())
	}
	if body.K == 0 {
		body.K = DefaultK
	}
	if err := api.Limits.checkK(body.K); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}
	if err := api.Limits.checkWord(body.Word); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}

	g, r, ok := api.ownedGrammar(req)
	if !ok {
		return r
	}

	accepted, err := api.Backend.Recognize(g, body.Word, body.K, method)
	if err != nil {
		return serviceErr(err, "recognize")
	}

	resp := RecognizeResponse{
		Word:     body.Word,
		Method:   string(method),
		Accepted: accepted,
	}
	return result.OK(resp, "user '%s' recognized %q against grammar %s with %s: %t", requestUser(req).Username, body.Word, g.ID, method, accepted)
}
