package inmem

import (
	"context"
	"testing"

	"github.com/dekarrin/gramq/server/dao"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Users_CreateAndUpdate(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	repo := NewUsersRepository()

	created, err := repo.Create(ctx, dao.User{Username: "kanaya", Password: "x", Role: dao.Normal})
	require.NoError(t, err)
	assert.NotEqual(uuid.Nil, created.ID)
	assert.False(created.Created.IsZero())

	_, err = repo.Create(ctx, dao.User{Username: "kanaya"})
	assert.ErrorIs(err, dao.ErrConstraintViolation)

	other, err := repo.Create(ctx, dao.User{Username: "rose"})
	require.NoError(t, err)

	changed := created
	changed.ID = other.ID
	changed.Username = "rose"
	changed.Role = dao.Admin
	updated, err := repo.Update(ctx, created.ID, changed)
	require.NoError(t, err)
	assert.Equal(created.ID, updated.ID)
	assert.Equal("kanaya", updated.Username)
	assert.Equal(dao.Admin, updated.Role)
	assert.Equal(created.Created, updated.Created)

	byName, err := repo.GetByUsername(ctx, "rose")
	require.NoError(t, err)
	assert.Equal(other.ID, byName.ID)
	assert.Equal(dao.Guest, byName.Role)

	_, err = repo.Update(ctx, uuid.New(), changed)
	assert.ErrorIs(err, dao.ErrNotFound)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(all, 2)

	_, err = repo.Delete(ctx, other.ID)
	require.NoError(t, err)
	_, err = repo.GetByID(ctx, other.ID)
	assert.ErrorIs(err, dao.ErrNotFound)
}

func Test_Grammars_FingerprintUniquePerOwner(t *testing.T) {
	testCases := []struct {
		name        string
		secondOwner int
		secondFP    string
		expectErr   error
	}{
		{name: "same owner same fingerprint", secondOwner: 0, secondFP: "fp1", expectErr: dao.ErrConstraintViolation},
		{name: "same owner other fingerprint", secondOwner: 0, secondFP: "fp2"},
		{name: "other owner same fingerprint", secondOwner: 1, secondFP: "fp1"},
	}

	owners := []uuid.UUID{uuid.New(), uuid.New()}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			repo := NewGrammarsRepository()

			_, err := repo.Create(ctx, dao.Grammar{OwnerID: owners[0], Text: "S -> a", Start: "S", Fingerprint: "fp1"})
			require.NoError(t, err)

			_, err = repo.Create(ctx, dao.Grammar{OwnerID: owners[tc.secondOwner], Text: "S->a", Start: "S", Fingerprint: tc.secondFP})
			if tc.expectErr != nil {
				assert.ErrorIs(t, err, tc.expectErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func Test_Grammars_Lookup(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	repo := NewGrammarsRepository()

	owner := uuid.New()
	g1, err := repo.Create(ctx, dao.Grammar{OwnerID: owner, Text: "S -> a", Start: "S", Fingerprint: "fp1"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, dao.Grammar{OwnerID: uuid.New(), Text: "S -> b", Start: "S", Fingerprint: "fp2"})
	require.NoError(t, err)

	owned, err := repo.GetAllByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Equal([]dao.Grammar{g1}, owned)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(all, 2)

	byFP, err := repo.GetByFingerprint(ctx, owner, "fp1")
	require.NoError(t, err)
	assert.Equal(g1.ID, byFP.ID)

	_, err = repo.Delete(ctx, g1.ID)
	require.NoError(t, err)
	_, err = repo.GetByFingerprint(ctx, owner, "fp1")
	assert.ErrorIs(err, dao.ErrNotFound)

	// fingerprint is free again once deleted
	_, err = repo.Create(ctx, dao.Grammar{OwnerID: owner, Text: "S -> a", Start: "S", Fingerprint: "fp1"})
	assert.NoError(err)
}

func Test_Corpora_DeleteAllByGrammar(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	repo := NewCorporaRepository()

	gID := uuid.New()
	otherGID := uuid.New()

	data := []byte{1, 2, 3}
	c1, err := repo.Create(ctx, dao.Corpus{GrammarID: gID, Seed: 4, Count: 2, Data: data})
	require.NoError(t, err)
	_, err = repo.Create(ctx, dao.Corpus{GrammarID: gID, Seed: 5, Count: 2, Data: data})
	require.NoError(t, err)
	kept, err := repo.Create(ctx, dao.Corpus{GrammarID: otherGID, Seed: 6, Count: 2, Data: data})
	require.NoError(t, err)

	data[0] = 9
	got, err := repo.GetByID(ctx, c1.ID)
	require.NoError(t, err)
	assert.Equal([]byte{1, 2, 3}, got.Data)

	deleted, err := repo.DeleteAllByGrammar(ctx, gID)
	require.NoError(t, err)
	assert.Len(deleted, 2)

	remaining, err := repo.GetAllByGrammar(ctx, gID)
	require.NoError(t, err)
	assert.Empty(remaining)

	_, err = repo.GetByID(ctx, kept.ID)
	assert.NoError(err)
}
