// Package server provides the gramq analysis server. It stores grammars and
// the corpora fuzzed from them for each user and exposes every analysis over a
// REST API.
package server

import (
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/dekarrin/gramq/server/api"
	"github.com/dekarrin/gramq/server/dao"
	"github.com/dekarrin/gramq/server/gramqs"
	"github.com/go-chi/chi/v5"
)

// server:
//  POST   /login                      - accepts user and password and returns a jwt.
//  DELETE /login/{id}                 - ends user authentication session and invalidates the jwt.
//  POST   /tokens                     - refreshes the token without requiring credentials (requires auth)
//  GET    /users                      - get all users (admin)
//  POST   /users                      - create a new user account (admin)
//  GET    /users/{id}                 - get info on a user
//  DELETE /users/{id}                 - delete a user and everything they own
//  GET    /grammars                   - get own grammars (admin gets all)
//  POST   /grammars                   - parse and store a grammar
//  GET    /grammars/{id}              - get a grammar
//  DELETE /grammars/{id}              - delete a grammar and its corpora
//  GET    /grammars/{id}/cnf          - Chomsky Normal Form of the grammar
//  GET    /grammars/{id}/bigrams      - bigram model of the grammar
//  GET    /grammars/{id}/table?k=K    - LL(K) parse table of the grammar
//  POST   /grammars/{id}/recognize    - decide membership of a word
//  GET    /grammars/{id}/corpora      - list corpora fuzzed from the grammar
//  POST   /grammars/{id}/corpora      - fuzz the grammar into a new labeled corpus
//  GET    /corpora/{id}               - get a corpus with its entries
//  DELETE /corpora/{id}               - delete a corpus
//  POST   /corpora/{id}/crosscheck?k= - compare LL(k) results to the CYK labels
//  GET    /info                       - get version info on the server.

// GramqServer is an HTTP REST server that provides grammar analysis and
// associated resources. The zero-value of a GramqServer should not be used
// directly; call New() to get one ready for use.
type GramqServer struct {
	router chi.Router
	api    api.API
	db     dao.Store
}

// New creates a new GramqServer from the given config. Unset values in cfg
// are given their defaults.
func New(cfg Config) (GramqServer, error) {
	cfg = cfg.FillDefaults()
	if err := cfg.Validate(); err != nil {
		return GramqServer{}, fmt.Errorf("config: %w", err)
	}

	db, err := cfg.DB.Connect()
	if err != nil {
		return GramqServer{}, fmt.Errorf("connect DB: %w", err)
	}

	gs := GramqServer{
		db: db,
		api: api.API{
			Backend:     gramqs.NewWithCacheSize(db, cfg.AnalysisCacheSize),
			UnauthDelay: cfg.UnauthDelay(),
			Secret:      cfg.TokenSecret,
			Limits:      cfg.Limits(),
		},
	}
	gs.router = newRouter(gs.api)

	return gs, nil
}

// Service returns the backend that the server's endpoints call into.
func (gs GramqServer) Service() gramqs.Service {
	return gs.api.Backend
}

// ServeHTTP routes req to the matching API endpoint.
func (gs GramqServer) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	gs.router.ServeHTTP(w, req)
}

// ServeForever begins listening on the given address and port for HTTP REST
// client requests. If address is kept as "", it will default to "localhost". If
// port is less than 1, it will default to 8080.
func (gs GramqServer) ServeForever(address string, port int) {
	if address == "" {
		address = "localhost"
	}
	if port < 1 {
		port = 8080
	}

	listenAddress := fmt.Sprintf("%s:%d", address, port)
	log.Info("Listening", "address", listenAddress)
	log.Fatal("server stopped", "err", http.ListenAndServe(listenAddress, gs.router))
}

// Close releases the server's connection to its DB.
func (gs GramqServer) Close() error {
	return gs.db.Close()
}
