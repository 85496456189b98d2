package gramqs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dekarrin/gramq"
	"github.com/dekarrin/gramq/internal/bigram"
	"github.com/dekarrin/gramq/internal/grammar"
	"github.com/dekarrin/gramq/internal/llk"
	"github.com/dekarrin/gramq/server/dao"
	"github.com/dekarrin/gramq/server/serr"
	"github.com/google/uuid"
)

// Method is a way of deciding whether a grammar derives a word.
type Method string

const (
	// MethodCYK runs CYK over the normalized grammar.
	MethodCYK Method = "cyk"

	// MethodTable runs the table-driven recognizer over the LL(k) table of the
	// grammar as written.
	MethodTable Method = "table"
)

// ParseMethod gets the Method named by s. The empty string gives MethodCYK.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(MethodCYK):
		return MethodCYK, nil
	case string(MethodTable):
		return MethodTable, nil
	default:
		return MethodCYK, fmt.Errorf("must be one of 'cyk' or 'table'")
	}
}

// CreateGrammar parses text and stores it for the given owner. If start is
// empty, the start symbol is chosen as gramq.ParseAnalysis does.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If the text is not a valid
// grammar or start is not defined by it, it will match serr.ErrBadArgument.
// If the owner already has a grammar with the same rules and start symbol, it
// will match serr.ErrAlreadyExists. If the error occured due to an unexpected
// problem with the DB, it will match serr.ErrDB.
func (svc Service) CreateGrammar(ctx context.Context, ownerID uuid.UUID, text, start string) (dao.Grammar, error) {
	if strings.TrimSpace(text) == "" {
		return dao.Grammar{}, serr.New("grammar text cannot be blank", serr.ErrBadArgument)
	}

	an, err := gramq.ParseAnalysis(text, start)
	if err != nil {
		return dao.Grammar{}, serr.BadArgument(err)
	}

	fp, err := an.Fingerprint()
	if err != nil {
		return dao.Grammar{}, serr.New("could not fingerprint grammar", err)
	}

	_, err = svc.DB.Grammars().GetByFingerprint(ctx, ownerID, fp)
	if err == nil {
		return dao.Grammar{}, serr.New("an identical grammar is already stored", serr.ErrAlreadyExists)
	} else if !errors.Is(err, dao.ErrNotFound) {
		return dao.Grammar{}, serr.WrapDB("", err)
	}

	g, err := svc.DB.Grammars().Create(ctx, dao.Grammar{
		OwnerID:     ownerID,
		Text:        text,
		Start:       an.Start(),
		Fingerprint: fp,
	})
	if err != nil {
		if errors.Is(err, dao.ErrConstraintViolation) {
			return dao.Grammar{}, serr.New("an identical grammar is already stored", serr.ErrAlreadyExists)
		}
		return dao.Grammar{}, serr.WrapDB("could not create grammar", err)
	}

	svc.cache.put(g.ID, an)
	log.Debug("stored grammar", "id", g.ID, "owner", ownerID, "start", g.Start, "fingerprint", fp)

	return g, nil
}

// GetAllGrammars returns every stored grammar.
func (svc Service) GetAllGrammars(ctx context.Context) ([]dao.Grammar, error) {
	all, err := svc.DB.Grammars().GetAll(ctx)
	if err != nil {
		return nil, serr.WrapDB("", err)
	}
	return all, nil
}

// GetGrammarsByOwner returns every grammar stored by the given user.
func (svc Service) GetGrammarsByOwner(ctx context.Context, ownerID uuid.UUID) ([]dao.Grammar, error) {
	owned, err := svc.DB.Grammars().GetAllByOwner(ctx, ownerID)
	if err != nil {
		return nil, serr.WrapDB("", err)
	}
	return owned, nil
}

// GetGrammar returns the grammar with the given ID.
//
// The returned error, if non-nil, will match serr.ErrNotFound if there is no
// such grammar, serr.ErrBadArgument if id is not a valid ID, and serr.ErrDB
// for any other problem with the DB.
func (svc Service) GetGrammar(ctx context.Context, id string) (dao.Grammar, error) {
	uuidID, err := uuid.Parse(id)
	if err != nil {
		return dao.Grammar{}, serr.New("ID is not valid", serr.ErrBadArgument)
	}

	g, err := svc.DB.Grammars().GetByID(ctx, uuidID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.Grammar{}, serr.ErrNotFound
		}
		return dao.Grammar{}, serr.WrapDB("could not get grammar", err)
	}

	return g, nil
}

// DeleteGrammar deletes the grammar with the given ID and every corpus
// generated from it. It returns the deleted grammar.
func (svc Service) DeleteGrammar(ctx context.Context, id string) (dao.Grammar, error) {
	uuidID, err := uuid.Parse(id)
	if err != nil {
		return dao.Grammar{}, serr.New("ID is not valid", serr.ErrBadArgument)
	}

	g, corpora, err := svc.deleteGrammar(ctx, uuidID)
	if err == nil {
		log.Debug("deleted grammar", "id", g.ID, "owner", g.OwnerID, "corpora", corpora)
	}
	return g, err
}

// deleteGrammar removes the grammar with the given ID and its corpora, and
// returns the grammar along with how many corpora went with it.
func (svc Service) deleteGrammar(ctx context.Context, id uuid.UUID) (dao.Grammar, int, error) {
	corpora, err := svc.DB.Corpora().DeleteAllByGrammar(ctx, id)
	if err != nil {
		return dao.Grammar{}, 0, serr.WrapDB("could not delete grammar's corpora", err)
	}

	g, err := svc.DB.Grammars().Delete(ctx, id)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.Grammar{}, len(corpora), serr.ErrNotFound
		}
		return dao.Grammar{}, len(corpora), serr.WrapDB("could not delete grammar", err)
	}

	svc.cache.drop(id)

	return g, len(corpora), nil
}

// Analysis returns the analysis of a stored grammar.
func (svc Service) Analysis(g dao.Grammar) (*gramq.Analysis, error) {
	if an, ok := svc.cache.get(g.ID); ok {
		return an, nil
	}

	an, err := gramq.ParseAnalysis(g.Text, g.Start)
	if err != nil {
		return nil, serr.New(fmt.Sprintf("stored grammar %s is invalid", g.ID), err)
	}

	svc.cache.put(g.ID, an)
	return an, nil
}

// CNF returns the Chomsky Normal Form of a stored grammar.
func (svc Service) CNF(g dao.Grammar) (grammar.Grammar, error) {
	an, err := svc.Analysis(g)
	if err != nil {
		return grammar.Grammar{}, err
	}
	return an.CNF(), nil
}

// Bigrams returns the bigram model of a stored grammar.
func (svc Service) Bigrams(g dao.Grammar) (bigram.Sets, error) {
	an, err := svc.Analysis(g)
	if err != nil {
		return bigram.Sets{}, err
	}
	return an.Bigrams(), nil
}

// Table returns the LL(k) parse table of a stored grammar along with the
// FIRST_k and FOLLOW_k sets it was built from. The returned error matches
// serr.ErrBadArgument if k is less than 1.
func (svc Service) Table(g dao.Grammar, k int) (llk.Table, llk.Sets, error) {
	an, err := svc.Analysis(g)
	if err != nil {
		return llk.Table{}, llk.Sets{}, err
	}

	sets, err := an.LLK(k)
	if err != nil {
		return llk.Table{}, llk.Sets{}, serr.BadArgument(err)
	}
	t, err := an.Table(k)
	if err != nil {
		return llk.Table{}, llk.Sets{}, serr.BadArgument(err)
	}
	return t, sets, nil
}

// Recognize returns whether a stored grammar derives word, decided with the
// given method. k is only used by MethodTable. The returned error matches
// serr.ErrBadArgument if k is needed and is less than 1.
func (svc Service) Recognize(g dao.Grammar, word string, k int, method Method) (bool, error) {
	an, err := svc.Analysis(g)
	if err != nil {
		return false, err
	}

	switch method {
	case MethodCYK:
		ok, err := an.Accepts(word)
		if err != nil {
			return false, serr.New("could not run CYK", err)
		}
		return ok, nil
	case MethodTable:
		ok, err := an.Recognize(word, k)
		if err != nil {
			return false, serr.BadArgument(err)
		}
		return ok, nil
	default:
		return false, serr.New(fmt.Sprintf("unknown method %q", method), serr.ErrBadArgument)
	}
}
