package token

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dekarrin/gramq/server/dao"
	"github.com/dekarrin/gramq/server/dao/inmem"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func Test_Get(t *testing.T) {
	testCases := []struct {
		name      string
		header    string
		expect    string
		expectErr bool
	}{
		{name: "bearer", header: "Bearer abc.def.ghi", expect: "abc.def.ghi"},
		{name: "lowercase scheme", header: "bearer abc", expect: "abc"},
		{name: "missing", header: "", expectErr: true},
		{name: "basic scheme", header: "Basic dXNlcjpwYXNz", expectErr: true},
		{name: "no token", header: "Bearer", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/v1/info", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}

			actual, err := Get(req)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expect, actual)
		})
	}
}

func Test_GenerateAndValidate(t *testing.T) {
	ctx := context.Background()
	users := inmem.NewUsersRepository()

	user, err := users.Create(ctx, dao.User{Username: "dave", Password: "aGFzaA=="})
	require.NoError(t, err)

	tok, err := Generate(testSecret, user)
	require.NoError(t, err)

	t.Run("valid", func(t *testing.T) {
		validated, err := Validate(ctx, tok, testSecret, users)
		require.NoError(t, err)
		assert.Equal(t, user.ID, validated.ID)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := Validate(ctx, tok, []byte("ffffffffffffffffffffffffffffffff"), users)
		assert.Error(t, err)
	})

	t.Run("logout invalidates", func(t *testing.T) {
		loggedOut := user
		loggedOut.LastLogoutTime = user.LastLogoutTime.Add(time.Hour)
		_, err := users.Update(ctx, user.ID, loggedOut)
		require.NoError(t, err)

		_, err = Validate(ctx, tok, testSecret, users)
		assert.Error(t, err)
	})

	t.Run("deleted user", func(t *testing.T) {
		other, err := users.Create(ctx, dao.User{Username: "rose", Password: "aGFzaA=="})
		require.NoError(t, err)
		otherTok, err := Generate(testSecret, other)
		require.NoError(t, err)
		_, err = users.Delete(ctx, other.ID)
		require.NoError(t, err)

		_, err = Validate(ctx, otherTok, testSecret, users)
		assert.Error(t, err)
	})
}

func Test_CheckPassword(t *testing.T) {
	hash, err := HashPassword("hunter2", bcrypt.MinCost)
	require.NoError(t, err)

	testCases := []struct {
		name        string
		stored      string
		password    string
		expectErr   bool
		expectErrIs error
	}{
		{name: "match", stored: hash, password: "hunter2"},
		{name: "mismatch", stored: hash, password: "hunter3", expectErr: true, expectErrIs: ErrWrongPassword},
		{name: "empty password", stored: hash, password: "", expectErr: true, expectErrIs: ErrWrongPassword},
		{name: "stored hash not base64", stored: "%%%", password: "hunter2", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckPassword(dao.User{Username: "dave", Password: tc.stored}, tc.password)
			if !tc.expectErr {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			if tc.expectErrIs != nil {
				assert.ErrorIs(t, err, tc.expectErrIs)
			}
		})
	}
}

func Test_Revoke(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	users := inmem.NewUsersRepository()

	user, err := users.Create(ctx, dao.User{Username: "jade", Password: "aGFzaA=="})
	require.NoError(t, err)
	tok, err := Generate(testSecret, user)
	require.NoError(t, err)

	revoked, err := Revoke(ctx, users, user.ID)
	require.NoError(t, err)
	assert.True(revoked.LastLogoutTime.Unix() > user.LastLogoutTime.Unix())

	_, err = Validate(ctx, tok, testSecret, users)
	assert.Error(err)

	fresh, err := Generate(testSecret, revoked)
	require.NoError(t, err)
	_, err = Validate(ctx, fresh, testSecret, users)
	assert.NoError(err)

	_, err = Revoke(ctx, users, uuid.New())
	assert.ErrorIs(err, dao.ErrNotFound)
}
