package api

import (
	"net/http"

	"github.com/dekarrin/gramq/internal/fuzz"
	"github.com/dekarrin/gramq/server/dao"
	"github.com/dekarrin/gramq/server/gramqs"
	"github.com/dekarrin/gramq/server/result"
)

// HTTPCreateCorpus returns a HandlerFunc that fuzzes a stored grammar and
// stores the labeled corpus. Only the owner of the grammar or an admin user
// may create one.
//
// The handler has requirements for the request context it receives, and if the
// requirements are not met it may return an HTTP-500. The context must contain
// the ID of the grammar and the logged-in user of the client making the
// request.
func (api API) HTTPCreateCorpus() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epCreateCorpus)
}

func (api API) epCreateCorpus(req *http.Request) result.Result {
	user := requestUser(req)
	if !gramqs.CanStore(user) {
		return result.Forbidden("user '%s' (role %s) store corpus: forbidden", user.Username, user.Role)
	}

	var body FuzzRequest
	if err := parseJSON(req, &body); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}
	params, err := body.Params()
	if err == nil {
		err = api.Limits.applyFuzz(&params)
	}
	if err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}

	g, r, ok := api.ownedGrammar(req)
	if !ok {
		return r
	}

	stored, c, err := api.Backend.CreateCorpus(req.Context(), g, user.ID, params)
	if err != nil {
		return serviceErr(err, "create corpus")
	}

	return result.Created(corpusModel(stored, &c), "user '%s' created corpus %s of grammar %s", user.Username, stored.ID, g.ID)
}

// HTTPGetGrammarCorpora returns a HandlerFunc that lists the corpora generated
// from a stored grammar. Entries are not included.
func (api API) HTTPGetGrammarCorpora() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epGetGrammarCorpora)
}

func (api API) epGetGrammarCorpora(req *http.Request) result.Result {
	g, r, ok := api.ownedGrammar(req)
	if !ok {
		return r
	}

	all, err := api.Backend.GetCorporaByGrammar(req.Context(), g.ID)
	if err != nil {
		return result.InternalServerError(err.Error())
	}

	resp := make([]CorpusModel, len(all))
	for i := range all {
		resp[i] = corpusModel(all[i], nil)
	}
	return result.OK(resp, "user '%s' got corpora of grammar %s", requestUser(req).Username, g.ID)
}

// ownedCorpus gets and decodes the corpus named by the id URL parameter. If it
// does not exist or the logged-in user may not see it, the returned Result is
// the response to give and ok is false.
func (api API) ownedCorpus(req *http.Request) (stored dao.Corpus, c fuzz.Corpus, r result.Result, ok bool) {
	id := requireIDParam(req)
	user := requestUser(req)

	stored, c, err := api.Backend.GetCorpus(req.Context(), id.String())
	if err != nil {
		return stored, c, serviceErr(err, "get corpus"), false
	}

	if err := gramqs.Authorize(user, stored.OwnerID, "use corpus "+id.String()); err != nil {
		return stored, c, result.Forbidden("%s", err.Error()), false
	}

	return stored, c, result.Result{}, true
}

// HTTPGetCorpus returns a HandlerFunc that gets a stored corpus with all of its
// entries. Only its owner or an admin user may get it.
func (api API) HTTPGetCorpus() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epGetCorpus)
}

func (api API) epGetCorpus(req *http.Request) result.Result {
	stored, c, r, ok := api.ownedCorpus(req)
	if !ok {
		return r
	}
	return result.OK(corpusModel(stored, &c), "user '%s' got corpus %s", requestUser(req).Username, stored.ID)
}

// HTTPDeleteCorpus returns a HandlerFunc that deletes a stored corpus. Only its
// owner or an admin user may delete it.
func (api API) HTTPDeleteCorpus() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epDeleteCorpus)
}

func (api API) epDeleteCorpus(req *http.Request) result.Result {
	stored, _, r, ok := api.ownedCorpus(req)
	if !ok {
		return r
	}

	if _, err := api.Backend.DeleteCorpus(req.Context(), stored.ID.String()); err != nil {
		return serviceErr(err, "delete corpus")
	}

	return result.NoContent("user '%s' deleted corpus %s", requestUser(req).Username, stored.ID)
}

// HTTPCrossCheck returns a HandlerFunc that runs every entry of a stored
// corpus through the LL(k) recognizer of its grammar and reports each entry
// where the result differs from the CYK label. k is read from the query string
// and defaults to DefaultK.
func (api API) HTTPCrossCheck() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epCrossCheck)
}

func (api API) epCrossCheck(req *http.Request) result.Result {
	k, err := getQueryK(req, DefaultK)
	if err == nil {
		err = api.Limits.checkK(k)
	}
	if err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}

	stored, _, r, ok := api.ownedCorpus(req)
	if !ok {
		return r
	}

	mismatches, err := api.Backend.CrossCheck(req.Context(), stored, k)
	if err != nil {
		return serviceErr(err, "cross-check")
	}

	return result.OK(crossCheckResponse(stored, k, mismatches), "user '%s' cross-checked corpus %s at k=%d: %d mismatch(es)", requestUser(req).Username, stored.ID, k, len(mismatches))
}
