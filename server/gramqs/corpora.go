package gramqs

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"github.com/dekarrin/gramq"
	"github.com/dekarrin/gramq/internal/fuzz"
	"github.com/dekarrin/gramq/server/dao"
	"github.com/dekarrin/gramq/server/serr"
	"github.com/google/uuid"
)

// CreateCorpus fuzzes a stored grammar with p and stores the labeled corpus
// for the given owner. The ID of the returned corpus is the one it is stored
// under.
//
// The returned error, if non-nil, will match serr.ErrBadArgument if p is not
// valid and serr.ErrDB if the corpus could not be stored.
func (svc Service) CreateCorpus(ctx context.Context, g dao.Grammar, ownerID uuid.UUID, p fuzz.Params) (dao.Corpus, fuzz.Corpus, error) {
	an, err := svc.Analysis(g)
	if err != nil {
		return dao.Corpus{}, fuzz.Corpus{}, err
	}

	c, err := an.Fuzz(p)
	if err != nil {
		return dao.Corpus{}, fuzz.Corpus{}, serr.BadArgument(err)
	}

	data, err := c.MarshalBinary()
	if err != nil {
		return dao.Corpus{}, fuzz.Corpus{}, serr.New("could not encode corpus", err)
	}

	stored, err := svc.DB.Corpora().Create(ctx, dao.Corpus{
		GrammarID: g.ID,
		OwnerID:   ownerID,
		Seed:      c.Seed,
		Count:     c.Len(),
		Data:      data,
	})
	if err != nil {
		return dao.Corpus{}, fuzz.Corpus{}, serr.WrapDB("could not create corpus", err)
	}

	c.ID = stored.ID
	log.Debug("stored corpus", "id", stored.ID, "grammar", g.ID, "seed", c.Seed, "entries", c.Len())

	return stored, c, nil
}

// GetCorpus returns the stored corpus with the given ID along with its
// decoded entries.
//
// The returned error, if non-nil, will match serr.ErrNotFound if there is no
// such corpus, serr.ErrBadArgument if id is not a valid ID, and serr.ErrDB
// for any other problem with the DB.
func (svc Service) GetCorpus(ctx context.Context, id string) (dao.Corpus, fuzz.Corpus, error) {
	uuidID, err := uuid.Parse(id)
	if err != nil {
		return dao.Corpus{}, fuzz.Corpus{}, serr.New("ID is not valid", serr.ErrBadArgument)
	}

	stored, err := svc.DB.Corpora().GetByID(ctx, uuidID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.Corpus{}, fuzz.Corpus{}, serr.ErrNotFound
		}
		return dao.Corpus{}, fuzz.Corpus{}, serr.WrapDB("could not get corpus", err)
	}

	c, err := decodeCorpus(stored)
	if err != nil {
		return dao.Corpus{}, fuzz.Corpus{}, err
	}

	return stored, c, nil
}

// GetCorporaByGrammar returns every corpus stored for the grammar with the
// given ID. Entries are not decoded.
func (svc Service) GetCorporaByGrammar(ctx context.Context, grammarID uuid.UUID) ([]dao.Corpus, error) {
	all, err := svc.DB.Corpora().GetAllByGrammar(ctx, grammarID)
	if err != nil {
		return nil, serr.WrapDB("", err)
	}
	return all, nil
}

// DeleteCorpus deletes the corpus with the given ID and returns it.
func (svc Service) DeleteCorpus(ctx context.Context, id string) (dao.Corpus, error) {
	uuidID, err := uuid.Parse(id)
	if err != nil {
		return dao.Corpus{}, serr.New("ID is not valid", serr.ErrBadArgument)
	}

	c, err := svc.DB.Corpora().Delete(ctx, uuidID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.Corpus{}, serr.ErrNotFound
		}
		return dao.Corpus{}, serr.WrapDB("could not delete corpus", err)
	}

	return c, nil
}

// CrossCheck runs the table-driven recognizer over a stored corpus using the
// LL(k) table of the grammar it was generated from, and returns every entry
// whose result disagrees with its CYK label. The returned error matches
// serr.ErrBadArgument if k is less than 1.
func (svc Service) CrossCheck(ctx context.Context, stored dao.Corpus, k int) ([]gramq.Mismatch, error) {
	g, err := svc.DB.Grammars().GetByID(ctx, stored.GrammarID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return nil, serr.New("corpus grammar no longer exists", serr.ErrNotFound)
		}
		return nil, serr.WrapDB("could not get corpus grammar", err)
	}

	an, err := svc.Analysis(g)
	if err != nil {
		return nil, err
	}

	c, err := decodeCorpus(stored)
	if err != nil {
		return nil, err
	}

	mismatches, err := an.CrossCheck(c, k)
	if err != nil {
		return nil, serr.BadArgument(err)
	}
	return mismatches, nil
}

func decodeCorpus(stored dao.Corpus) (fuzz.Corpus, error) {
	var c fuzz.Corpus
	if err := c.UnmarshalBinary(stored.Data); err != nil {
		return fuzz.Corpus{}, serr.New("stored corpus is invalid", err)
	}
	c.ID = stored.ID
	return c, nil
}
