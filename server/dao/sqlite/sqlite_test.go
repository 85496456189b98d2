package sqlite

import (
	"context"
	"net/mail"
	"testing"

	"github.com/dekarrin/gramq/server/dao"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) dao.Store {
	st, err := NewDatastore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func Test_Users(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	repo := newTestStore(t).Users()

	email, err := mail.ParseAddress("terezi@example.com")
	require.NoError(t, err)

	created, err := repo.Create(ctx, dao.User{Username: "terezi", Password: "hash", Email: email, Role: dao.Admin})
	require.NoError(t, err)
	assert.Equal("terezi", created.Username)
	assert.Equal(dao.Admin, created.Role)
	assert.Equal("terezi@example.com", created.Email.Address)
	assert.True(created.LastLoginTime.IsZero())

	_, err = repo.Create(ctx, dao.User{Username: "terezi", Password: "hash"})
	assert.ErrorIs(err, dao.ErrConstraintViolation)

	noEmail, err := repo.Create(ctx, dao.User{Username: "vriska", Password: "hash"})
	require.NoError(t, err)
	assert.Nil(noEmail.Email)

	byName, err := repo.GetByUsername(ctx, "vriska")
	require.NoError(t, err)
	assert.Equal(noEmail.ID, byName.ID)

	noEmail.Role = dao.Normal
	noEmail.Username = "terezi"
	updated, err := repo.Update(ctx, noEmail.ID, noEmail)
	require.NoError(t, err)
	assert.Equal(dao.Normal, updated.Role)
	assert.Equal("vriska", updated.Username)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(all, 2)

	_, err = repo.Update(ctx, uuid.New(), noEmail)
	assert.ErrorIs(err, dao.ErrNotFound)

	_, err = repo.Delete(ctx, created.ID)
	require.NoError(t, err)
	_, err = repo.GetByID(ctx, created.ID)
	assert.ErrorIs(err, dao.ErrNotFound)
}

func Test_Grammars(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	repo := newTestStore(t).Grammars()

	owner := uuid.New()

	g, err := repo.Create(ctx, dao.Grammar{OwnerID: owner, Text: "S -> aSb | ab", Start: "S", Fingerprint: "fp1"})
	require.NoError(t, err)
	assert.Equal("S -> aSb | ab", g.Text)
	assert.Equal(owner, g.OwnerID)

	_, err = repo.Create(ctx, dao.Grammar{OwnerID: owner, Text: "S->aSb|ab", Start: "S", Fingerprint: "fp1"})
	assert.ErrorIs(err, dao.ErrConstraintViolation)

	_, err = repo.Create(ctx, dao.Grammar{OwnerID: uuid.New(), Text: "S->aSb|ab", Start: "S", Fingerprint: "fp1"})
	assert.NoError(err)

	byFP, err := repo.GetByFingerprint(ctx, owner, "fp1")
	require.NoError(t, err)
	assert.Equal(g.ID, byFP.ID)

	owned, err := repo.GetAllByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Len(owned, 1)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(all, 2)

	deleted, err := repo.Delete(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(g.ID, deleted.ID)

	_, err = repo.Delete(ctx, g.ID)
	assert.ErrorIs(err, dao.ErrNotFound)
}

func Test_Corpora(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	repo := newTestStore(t).Corpora()

	gID := uuid.New()
	data := []byte{0x00, 0xff, 0x10, 0x7f}

	c, err := repo.Create(ctx, dao.Corpus{GrammarID: gID, OwnerID: uuid.New(), Seed: -77, Count: 4, Data: data})
	require.NoError(t, err)
	assert.Equal(data, c.Data)
	assert.Equal(int64(-77), c.Seed)
	assert.Equal(4, c.Count)

	_, err = repo.Create(ctx, dao.Corpus{GrammarID: gID, OwnerID: uuid.New(), Seed: 1, Count: 0, Data: []byte{}})
	require.NoError(t, err)

	byGrammar, err := repo.GetAllByGrammar(ctx, gID)
	require.NoError(t, err)
	assert.Len(byGrammar, 2)

	deleted, err := repo.DeleteAllByGrammar(ctx, gID)
	require.NoError(t, err)
	assert.Len(deleted, 2)

	_, err = repo.GetByID(ctx, c.ID)
	assert.ErrorIs(err, dao.ErrNotFound)
}
