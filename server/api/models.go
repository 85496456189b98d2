package api

import (
	"time"

	"github.com/dekarrin/gramq"
	"github.com/dekarrin/gramq/internal/fuzz"
	"github.com/dekarrin/gramq/internal/llk"
	"github.com/dekarrin/gramq/server/dao"
	"github.com/dekarrin/gramq/server/gramqs"
)

// note that these are *not* the DAO models; those are distinct and closer to
// the DB format they are in. Rather these are the models that are received from
// and sent to the client.

type LoginResponse struct {
	Token    string `json:"token"`
	UserID   string `json:"user_id"`
	Grammars int    `json:"grammars"`
	Corpora  int    `json:"corpora"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type InfoModel struct {
	Version struct {
		Server string `json:"server"`
		GramQ  string `json:"gramq"`
	} `json:"version"`
	Analysis struct {
		DefaultK int      `json:"default_k"`
		Methods  []string `json:"methods"`
	} `json:"analysis"`
	Limits struct {
		MaxK       int `json:"max_k"`
		MaxCount   int `json:"max_count"`
		MaxWordLen int `json:"max_word_len"`
	} `json:"limits"`
	Fuzz struct {
		Count int     `json:"count"`
		PTerm float64 `json:"p_term"`
		PStop float64 `json:"p_stop"`
	} `json:"fuzz_defaults"`
}

type UserModel struct {
	URI            string `json:"uri"`
	ID             string `json:"id,omitempty"`
	Username       string `json:"username,omitempty"`
	Password       string `json:"password,omitempty"`
	Email          string `json:"email,omitempty"`
	Role           string `json:"role,omitempty"`
	Created        string `json:"created,omitempty"`
	Modified       string `json:"modified,omitempty"`
	LastLogoutTime string `json:"last_logout,omitempty"`
	LastLoginTime  string `json:"last_login,omitempty"`
	Grammars       int    `json:"grammars,omitempty"`
	Corpora        int    `json:"corpora,omitempty"`
}

func userModel(u dao.User) UserModel {
	m := UserModel{
		URI:            PathPrefix + "/users/" + u.ID.String(),
		ID:             u.ID.String(),
		Username:       u.Username,
		Role:           u.Role.String(),
		Created:        u.Created.Format(time.RFC3339),
		Modified:       u.Modified.Format(time.RFC3339),
		LastLogoutTime: u.LastLogoutTime.Format(time.RFC3339),
		LastLoginTime:  u.LastLoginTime.Format(time.RFC3339),
	}
	if u.Email != nil {
		m.Email = u.Email.Address
	}
	return m
}

func accountModel(acc gramqs.Account) UserModel {
	m := userModel(acc.User)
	m.Grammars = acc.Grammars
	m.Corpora = acc.Corpora
	return m
}

type GrammarRequest struct {
	Text  string `json:"text"`
	Start string `json:"start,omitempty"`
}

type GrammarModel struct {
	URI         string `json:"uri"`
	ID          string `json:"id"`
	Owner       string `json:"owner"`
	Text        string `json:"text"`
	Start       string `json:"start"`
	Fingerprint string `json:"fingerprint"`
	Created     string `json:"created"`
}

func grammarModel(g dao.Grammar) GrammarModel {
	return GrammarModel{
		URI:         PathPrefix + "/grammars/" + g.ID.String(),
		ID:          g.ID.String(),
		Owner:       g.OwnerID.String(),
		Text:        g.Text,
		Start:       g.Start,
		Fingerprint: g.Fingerprint,
		Created:     g.Created.Format(time.RFC3339),
	}
}

// RulesModel is a grammar as text along with its start symbol.
type RulesModel struct {
	Start string `json:"start"`
	Text  string `json:"text"`
}

// BigramModel is the terminal adjacency model of a grammar. Every set is given
// as a sorted list.
type BigramModel struct {
	First    map[string][]string `json:"first"`
	Last     map[string][]string `json:"last"`
	Follow   map[string][]string `json:"follow"`
	Precede  map[string][]string `json:"precede"`
	Adjacent map[string][]string `json:"adjacent"`
	Bigram   map[string][]string `json:"bigram"`
}

type ConflictModel struct {
	NonTerminal string     `json:"nonterminal"`
	Lookahead   string     `json:"lookahead"`
	Bodies      [][]string `json:"bodies"`
}

// TableModel is an LL(k) parse table. Entries are in the persisted form
// NT:lookahead>sym1.sym2.
type TableModel struct {
	K         int                 `json:"k"`
	Start     string              `json:"start"`
	LLK       bool                `json:"ll_k"`
	Entries   []string            `json:"entries"`
	Conflicts []ConflictModel     `json:"conflicts"`
	First     map[string][]string `json:"first"`
	Follow    map[string][]string `json:"follow"`
}

func tableModel(t llk.Table, sets llk.Sets) TableModel {
	m := TableModel{
		K:         t.K,
		Start:     t.Start,
		LLK:       t.IsLLK(),
		Entries:   []string{},
		Conflicts: []ConflictModel{},
		First:     orderedSets(sets.First),
		Follow:    orderedSets(sets.Follow),
	}

	for _, e := range t.Entries() {
		m.Entries = append(m.Entries, e.String())
	}
	for _, c := range t.Conflicts() {
		cm := ConflictModel{NonTerminal: c.NonTerminal, Lookahead: c.Lookahead}
		for _, b := range c.Bodies {
			cm.Bodies = append(cm.Bodies, b.Names())
		}
		m.Conflicts = append(m.Conflicts, cm)
	}
	return m
}

type RecognizeRequest struct {
	Word   string `json:"word"`
	K      int    `json:"k,omitempty"`
	Method string `json:"method,omitempty"`
}

type RecognizeResponse struct {
	Word     string `json:"word"`
	Method   string `json:"method"`
	Accepted bool   `json:"accepted"`
}

// FuzzRequest holds generation parameters. Fields left out take the values of
// fuzz.DefaultParams.
type FuzzRequest struct {
	Count    *int     `json:"count,omitempty"`
	Alphabet string   `json:"alphabet,omitempty"`
	PTerm    *float64 `json:"p_term,omitempty"`
	PStop    *float64 `json:"p_stop,omitempty"`
	MaxLen   int      `json:"max_len,omitempty"`
	Seed     int64    `json:"seed,omitempty"`
}

// Params converts the request into generation parameters.
func (fr FuzzRequest) Params() (fuzz.Params, error) {
	p := fuzz.DefaultParams()

	alpha, err := fuzz.ParseAlphabet(fr.Alphabet)
	if err != nil {
		return p, err
	}
	p.Alphabet = alpha

	if fr.Count != nil {
		p.Count = *fr.Count
	}
	if fr.PTerm != nil {
		p.PTerm = *fr.PTerm
	}
	if fr.PStop != nil {
		p.PStop = *fr.PStop
	}
	p.MaxLen = fr.MaxLen
	p.Seed = fr.Seed

	return p, nil
}

type EntryModel struct {
	Text     string `json:"text"`
	Accepted bool   `json:"accepted"`
	Injected []int  `json:"injected,omitempty"`
}

type CorpusModel struct {
	URI     string       `json:"uri"`
	ID      string       `json:"id"`
	Grammar string       `json:"grammar"`
	Owner   string       `json:"owner"`
	Seed    int64        `json:"seed"`
	Count   int          `json:"count"`
	Created string       `json:"created"`
	Entries []EntryModel `json:"entries,omitempty"`
}

// corpusModel builds the model of a stored corpus. Entries are only included
// if c is non-nil.
func corpusModel(stored dao.Corpus, c *fuzz.Corpus) CorpusModel {
	m := CorpusModel{
		URI:     PathPrefix + "/corpora/" + stored.ID.String(),
		ID:      stored.ID.String(),
		Grammar: stored.GrammarID.String(),
		Owner:   stored.OwnerID.String(),
		Seed:    stored.Seed,
		Count:   stored.Count,
		Created: stored.Created.Format(time.RFC3339),
	}
	if c != nil {
		m.Entries = make([]EntryModel, len(c.Entries))
		for i, e := range c.Entries {
			m.Entries[i] = EntryModel{
				Text:     e.Text,
				Accepted: e.Accepted,
				Injected: e.Injected,
			}
		}
	}
	return m
}

type MismatchModel struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
	CYK   bool   `json:"cyk"`
	Table bool   `json:"table"`
}

type CrossCheckResponse struct {
	Corpus     string          `json:"corpus"`
	K          int             `json:"k"`
	Checked    int             `json:"checked"`
	Mismatches []MismatchModel `json:"mismatches"`
}

func crossCheckResponse(stored dao.Corpus, k int, mismatches []gramq.Mismatch) CrossCheckResponse {
	resp := CrossCheckResponse{
		Corpus:     stored.ID.String(),
		K:          k,
		Checked:    stored.Count,
		Mismatches: make([]MismatchModel, len(mismatches)),
	}
	for i, mm := range mismatches {
		resp.Mismatches[i] = MismatchModel{
			Index: mm.Index,
			Text:  mm.Text,
			CYK:   mm.CYK,
			Table: mm.Table,
		}
	}
	return resp
}

func orderedSets[S interface{ Ordered() []string }](m map[string]S) map[string][]string {
	out := make(map[string][]string, len(m))
	for k, v := range m {
		out[k] = v.Ordered()
	}
	return out
}
