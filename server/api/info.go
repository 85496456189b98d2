package api

import (
	"net/http"

	"github.com/dekarrin/gramq/internal/fuzz"
	"github.com/dekarrin/gramq/internal/version"
	"github.com/dekarrin/gramq/server/gramqs"
	"github.com/dekarrin/gramq/server/middle"
	"github.com/dekarrin/gramq/server/result"
)

// HTTPGetInfo returns a HandlerFunc that describes the server: its version and
// the defaults it applies to analysis and fuzz requests that leave them out.
// Works with or without a logged-in client.
func (api API) HTTPGetInfo() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epGetInfo)
}

func (api API) epGetInfo(req *http.Request) result.Result {
	var resp InfoModel
	resp.Version.Server = version.ServerCurrent
	resp.Version.GramQ = version.Current

	resp.Analysis.DefaultK = DefaultK
	resp.Analysis.Methods = []string{string(gramqs.MethodCYK), string(gramqs.MethodTable)}

	lim := api.Limits.FillDefaults()
	resp.Limits.MaxK = lim.MaxK
	resp.Limits.MaxCount = lim.MaxCount
	resp.Limits.MaxWordLen = lim.MaxWordLen

	defs := fuzz.DefaultParams()
	resp.Fuzz.Count = defs.Count
	resp.Fuzz.PTerm = defs.PTerm
	resp.Fuzz.PStop = defs.PStop

	who := "unauthed client"
	if middle.LoggedIn(req.Context()) {
		who = "user '" + requestUser(req).Username + "'"
	}
	return result.OK(resp, "%s got API info", who)
}
