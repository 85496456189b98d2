package inmem

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dekarrin/gramq/internal/util"
	"github.com/dekarrin/gramq/server/dao"
	"github.com/google/uuid"
)

func NewCorporaRepository() *InMemoryCorporaRepository {
	return &InMemoryCorporaRepository{
		corpora: make(map[uuid.UUID]dao.Corpus),
	}
}

type InMemoryCorporaRepository struct {
	mtx     sync.RWMutex
	corpora map[uuid.UUID]dao.Corpus
}

func (imcr *InMemoryCorporaRepository) Close() error {
	return nil
}

func (imcr *InMemoryCorporaRepository) Create(ctx context.Context, c dao.Corpus) (dao.Corpus, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.Corpus{}, fmt.Errorf("could not generate ID: %w", err)
	}

	imcr.mtx.Lock()
	defer imcr.mtx.Unlock()

	c.ID = newUUID
	c.Created = time.Now()

	// callers must not be able to change stored data through their slice
	data := make([]byte, len(c.Data))
	copy(data, c.Data)
	c.Data = data

	imcr.corpora[c.ID] = c

	return c, nil
}

func (imcr *InMemoryCorporaRepository) GetByID(ctx context.Context, id uuid.UUID) (dao.Corpus, error) {
	imcr.mtx.RLock()
	defer imcr.mtx.RUnlock()

	c, ok := imcr.corpora[id]
	if !ok {
		return dao.Corpus{}, dao.ErrNotFound
	}
	return c, nil
}

func (imcr *InMemoryCorporaRepository) GetAllByGrammar(ctx context.Context, grammarID uuid.UUID) ([]dao.Corpus, error) {
	imcr.mtx.RLock()
	defer imcr.mtx.RUnlock()

	var all []dao.Corpus
	for _, c := range imcr.corpora {
		if c.GrammarID == grammarID {
			all = append(all, c)
		}
	}

	return util.SortBy(all, func(l, r dao.Corpus) bool {
		if !l.Created.Equal(r.Created) {
			return l.Created.Before(r.Created)
		}
		return l.ID.String() < r.ID.String()
	}), nil
}

func (imcr *InMemoryCorporaRepository) Delete(ctx context.Context, id uuid.UUID) (dao.Corpus, error) {
	imcr.mtx.Lock()
	defer imcr.mtx.Unlock()

	c, ok := imcr.corpora[id]
	if !ok {
		return dao.Corpus{}, dao.ErrNotFound
	}
	delete(imcr.corpora, id)

	return c, nil
}

func (imcr *InMemoryCorporaRepository) DeleteAllByGrammar(ctx context.Context, grammarID uuid.UUID) ([]dao.Corpus, error) {
	all, err := imcr.GetAllByGrammar(ctx, grammarID)
	if err != nil {
		return nil, err
	}

	imcr.mtx.Lock()
	defer imcr.mtx.Unlock()

	for _, c := range all {
		delete(imcr.corpora, c.ID)
	}

	return all, nil
}
