// Package inmem provides a dao.Store that keeps everything in memory. Data
// does not survive the process.
package inmem

import (
	"errors"

	"github.com/dekarrin/gramq/server/dao"
)

type store struct {
	users    *InMemoryUsersRepository
	grammars *InMemoryGrammarsRepository
	corpora  *InMemoryCorporaRepository
}

// NewDatastore returns an empty store. Uniqueness of usernames and of grammar
// fingerprints per owner is enforced the same way the sqlite store does.
func NewDatastore() dao.Store {
	return &store{
		users:    NewUsersRepository(),
		grammars: NewGrammarsRepository(),
		corpora:  NewCorporaRepository(),
	}
}

func (s *store) Users() dao.UserRepository       { return s.users }
func (s *store) Grammars() dao.GrammarRepository { return s.grammars }
func (s *store) Corpora() dao.CorpusRepository   { return s.corpora }

func (s *store) Close() error {
	return errors.Join(s.users.Close(), s.grammars.Close(), s.corpora.Close())
}
