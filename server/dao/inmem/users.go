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

func NewUsersRepository() *InMemoryUsersRepository {
	return &InMemoryUsersRepository{
		users:      make(map[uuid.UUID]dao.User),
		byUsername: make(map[string]uuid.UUID),
	}
}

// InMemoryUsersRepository keeps users in a map indexed by both ID and
// username. Neither changes after Create.
type InMemoryUsersRepository struct {
	mtx        sync.RWMutex
	users      map[uuid.UUID]dao.User
	byUsername map[string]uuid.UUID
}

func (imur *InMemoryUsersRepository) Close() error {
	return nil
}

func (imur *InMemoryUsersRepository) Create(ctx context.Context, user dao.User) (dao.User, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return dao.User{}, fmt.Errorf("could not generate ID: %w", err)
	}

	imur.mtx.Lock()
	defer imur.mtx.Unlock()

	if _, taken := imur.byUsername[user.Username]; taken {
		return dao.User{}, dao.ErrConstraintViolation
	}

	now := time.Now()
	user.ID = id
	user.Created = now
	user.Modified = now
	user.LastLogoutTime = now
	user.LastLoginTime = time.Time{}

	imur.users[id] = user
	imur.byUsername[user.Username] = id
	return user, nil
}

func (imur *InMemoryUsersRepository) GetAll(ctx context.Context) ([]dao.User, error) {
	imur.mtx.RLock()
	defer imur.mtx.RUnlock()

	all := make([]dao.User, 0, len(imur.users))
	for _, u := range imur.users {
		all = append(all, u)
	}
	return util.SortBy(all, func(l, r dao.User) bool {
		return l.ID.String() < r.ID.String()
	}), nil
}

// Update replaces the stored password, role, email, and login and logout
// times of the user with the given ID. The ID, username, and creation time of
// user are ignored.
func (imur *InMemoryUsersRepository) Update(ctx context.Context, id uuid.UUID, user dao.User) (dao.User, error) {
	imur.mtx.Lock()
	defer imur.mtx.Unlock()

	existing, ok := imur.users[id]
	if !ok {
		return dao.User{}, dao.ErrNotFound
	}

	existing.Password = user.Password
	existing.Role = user.Role
	existing.Email = user.Email
	existing.LastLoginTime = user.LastLoginTime
	existing.LastLogoutTime = user.LastLogoutTime
	existing.Modified = time.Now()

	imur.users[id] = existing
	return existing, nil
}

func (imur *InMemoryUsersRepository) GetByID(ctx context.Context, id uuid.UUID) (dao.User, error) {
	imur.mtx.RLock()
	defer imur.mtx.RUnlock()

	user, ok := imur.users[id]
	if !ok {
		return dao.User{}, dao.ErrNotFound
	}
	return user, nil
}

func (imur *InMemoryUsersRepository) GetByUsername(ctx context.Context, username string) (dao.User, error) {
	imur.mtx.RLock()
	defer imur.mtx.RUnlock()

	id, ok := imur.byUsername[username]
	if !ok {
		return dao.User{}, dao.ErrNotFound
	}
	return imur.users[id], nil
}

// Delete removes the user. Grammars and corpora they own are not touched; the
// service deletes those first.
func (imur *InMemoryUsersRepository) Delete(ctx context.Context, id uuid.UUID) (dao.User, error) {
	imur.mtx.Lock()
	defer imur.mtx.Unlock()

	user, ok := imur.users[id]
	if !ok {
		return dao.User{}, dao.ErrNotFound
	}

	delete(imur.byUsername, user.Username)
	delete(imur.users, id)
	return user, nil
}
