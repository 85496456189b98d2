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

func NewGrammarsRepository() *InMemoryGrammarsRepository {
	return &InMemoryGrammarsRepository{
		grammars:           make(map[uuid.UUID]dao.Grammar),
		byFingerprintIndex: make(map[fingerprintKey]uuid.UUID),
	}
}

type fingerprintKey struct {
	owner       uuid.UUID
	fingerprint string
}

type InMemoryGrammarsRepository struct {
	mtx                sync.RWMutex
	grammars           map[uuid.UUID]dao.Grammar
	byFingerprintIndex map[fingerprintKey]uuid.UUID
}

func (imgr *InMemoryGrammarsRepository) Close() error {
	return nil
}

func (imgr *InMemoryGrammarsRepository) Create(ctx context.Context, g dao.Grammar) (dao.Grammar, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.Grammar{}, fmt.Errorf("could not generate ID: %w", err)
	}

	imgr.mtx.Lock()
	defer imgr.mtx.Unlock()

	key := fingerprintKey{owner: g.OwnerID, fingerprint: g.Fingerprint}
	if _, ok := imgr.byFingerprintIndex[key]; ok {
		return dao.Grammar{}, dao.ErrConstraintViolation
	}

	g.ID = newUUID
	g.Created = time.Now()

	imgr.grammars[g.ID] = g
	imgr.byFingerprintIndex[key] = g.ID

	return g, nil
}

func (imgr *InMemoryGrammarsRepository) GetAll(ctx context.Context) ([]dao.Grammar, error) {
	imgr.mtx.RLock()
	defer imgr.mtx.RUnlock()

	all := make([]dao.Grammar, 0, len(imgr.grammars))
	for _, g := range imgr.grammars {
		all = append(all, g)
	}

	return sortGrammars(all), nil
}

func (imgr *InMemoryGrammarsRepository) GetAllByOwner(ctx context.Context, ownerID uuid.UUID) ([]dao.Grammar, error) {
	imgr.mtx.RLock()
	defer imgr.mtx.RUnlock()

	var owned []dao.Grammar
	for _, g := range imgr.grammars {
		if g.OwnerID == ownerID {
			owned = append(owned, g)
		}
	}

	return sortGrammars(owned), nil
}

func (imgr *InMemoryGrammarsRepository) GetByID(ctx context.Context, id uuid.UUID) (dao.Grammar, error) {
	imgr.mtx.RLock()
	defer imgr.mtx.RUnlock()

	g, ok := imgr.grammars[id]
	if !ok {
		return dao.Grammar{}, dao.ErrNotFound
	}
	return g, nil
}

func (imgr *InMemoryGrammarsRepository) GetByFingerprint(ctx context.Context, ownerID uuid.UUID, fingerprint string) (dao.Grammar, error) {
	imgr.mtx.RLock()
	defer imgr.mtx.RUnlock()

	id, ok := imgr.byFingerprintIndex[fingerprintKey{owner: ownerID, fingerprint: fingerprint}]
	if !ok {
		return dao.Grammar{}, dao.ErrNotFound
	}
	return imgr.grammars[id], nil
}

func (imgr *InMemoryGrammarsRepository) Delete(ctx context.Context, id uuid.UUID) (dao.Grammar, error) {
	imgr.mtx.Lock()
	defer imgr.mtx.Unlock()

	g, ok := imgr.grammars[id]
	if !ok {
		return dao.Grammar{}, dao.ErrNotFound
	}

	delete(imgr.byFingerprintIndex, fingerprintKey{owner: g.OwnerID, fingerprint: g.Fingerprint})
	delete(imgr.grammars, id)

	return g, nil
}

func sortGrammars(gs []dao.Grammar) []dao.Grammar {
	return util.SortBy(gs, func(l, r dao.Grammar) bool {
		if !l.Created.Equal(r.Created) {
			return l.Created.Before(r.Created)
		}
		return l.ID.String() < r.ID.String()
	})
}
