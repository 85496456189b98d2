package gramqs

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dekarrin/gramq/server/dao"
	"github.com/dekarrin/gramq/server/serr"
	"github.com/dekarrin/gramq/server/token"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt cost used to hash new passwords.
var PasswordCost = 14

// Account is a user along with how much they have stored on the server.
type Account struct {
	User     dao.User
	Grammars int
	Corpora  int
}

// CanAccess returns whether actor may read, analyze, fuzz, or delete a grammar
// or corpus owned by the user with ID owner. Users that can see a resource can
// also manage it; admins can see everything.
func CanAccess(actor dao.User, owner uuid.UUID) bool {
	return actor.ID == owner || actor.Role == dao.Admin
}

// CanStore returns whether actor may store new grammars. Guests can only log
// in and read server info.
func CanStore(actor dao.User) bool {
	return actor.Role != dao.Guest
}

// Authorize returns an error matching serr.ErrPermissions if actor may not
// perform action on something owned by owner.
func Authorize(actor dao.User, owner uuid.UUID, action string) error {
	if CanAccess(actor, owner) {
		return nil
	}
	return serr.Forbidden(describe(actor), action)
}

func describe(u dao.User) string {
	return fmt.Sprintf("user '%s' (role %s)", u.Username, u.Role)
}

// Login checks username and password and records the login. The returned
// Account counts what the user has stored so clients can show it right away.
//
// The returned error will match serr.ErrBadCredentials if there is no such
// user or the password is wrong, and serr.ErrDB for any problem with the DB.
func (svc Service) Login(ctx context.Context, username, password string) (Account, error) {
	user, err := svc.DB.Users().GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return Account{}, serr.ErrBadCredentials
		}
		return Account{}, serr.WrapDB("", err)
	}

	if err := token.CheckPassword(user, password); err != nil {
		if errors.Is(err, token.ErrWrongPassword) {
			return Account{}, serr.ErrBadCredentials
		}
		return Account{}, serr.New("could not check password", err)
	}

	user.LastLoginTime = time.Now()
	user, err = svc.DB.Users().Update(ctx, user.ID, user)
	if err != nil {
		return Account{}, serr.WrapDB("cannot update user login time", err)
	}

	return svc.account(ctx, user)
}

// Logout invalidates every token issued to the user with the given ID and
// returns the user. It matches serr.ErrNotFound if there is no such user.
func (svc Service) Logout(ctx context.Context, who uuid.UUID) (dao.User, error) {
	user, err := token.Revoke(ctx, svc.DB.Users(), who)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.User{}, serr.ErrNotFound
		}
		return dao.User{}, serr.WrapDB("could not revoke tokens", err)
	}
	return user, nil
}

// GetAllAccounts returns every user along with what they have stored.
func (svc Service) GetAllAccounts(ctx context.Context) ([]Account, error) {
	users, err := svc.DB.Users().GetAll(ctx)
	if err != nil {
		return nil, serr.WrapDB("", err)
	}

	all := make([]Account, len(users))
	for i := range users {
		if all[i], err = svc.account(ctx, users[i]); err != nil {
			return nil, err
		}
	}
	return all, nil
}

// GetAccount returns the user with the given ID along with what they have
// stored.
//
// The returned error will match serr.ErrNotFound if there is no such user,
// serr.ErrBadArgument if id is not a valid ID, and serr.ErrDB for any other
// problem with the DB.
func (svc Service) GetAccount(ctx context.Context, id string) (Account, error) {
	uuidID, err := uuid.Parse(id)
	if err != nil {
		return Account{}, serr.New("ID is not valid", serr.ErrBadArgument)
	}

	user, err := svc.DB.Users().GetByID(ctx, uuidID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return Account{}, serr.ErrNotFound
		}
		return Account{}, serr.WrapDB("could not get user", err)
	}

	return svc.account(ctx, user)
}

// CreateUser creates a new user with the given username, password, and
// email. email may be empty.
//
// The returned error will match serr.ErrAlreadyExists if the username is
// taken, serr.ErrBadArgument if an argument is invalid, and serr.ErrDB for any
// other problem with the DB.
func (svc Service) CreateUser(ctx context.Context, username, password, email string, role dao.Role) (dao.User, error) {
	if username == "" {
		return dao.User{}, serr.New("username cannot be blank", serr.ErrBadArgument)
	}
	if password == "" {
		return dao.User{}, serr.New("password cannot be blank", serr.ErrBadArgument)
	}

	var addr *mail.Address
	if email != "" {
		var err error
		if addr, err = mail.ParseAddress(email); err != nil {
			return dao.User{}, serr.New("email is not valid", err, serr.ErrBadArgument)
		}
	}

	hash, err := token.HashPassword(password, PasswordCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return dao.User{}, serr.New("password is too long", err, serr.ErrBadArgument)
		}
		return dao.User{}, serr.New("password could not be hashed", err)
	}

	user, err := svc.DB.Users().Create(ctx, dao.User{
		Username: username,
		Password: hash,
		Email:    addr,
		Role:     role,
	})
	if err != nil {
		if errors.Is(err, dao.ErrConstraintViolation) {
			return dao.User{}, serr.New("a user with that username already exists", serr.ErrAlreadyExists)
		}
		return dao.User{}, serr.WrapDB("could not create user", err)
	}

	return user, nil
}

// DeleteUser deletes the user with the given ID along with every grammar and
// corpus they own. The returned Account is the user as they were just before
// deletion, with counts of what was removed.
//
// The returned error will match serr.ErrNotFound if there is no such user,
// serr.ErrBadArgument if id is not a valid ID, and serr.ErrDB for any other
// problem with the DB.
func (svc Service) DeleteUser(ctx context.Context, id string) (Account, error) {
	uuidID, err := uuid.Parse(id)
	if err != nil {
		return Account{}, serr.New("ID is not valid", serr.ErrBadArgument)
	}

	owned, err := svc.DB.Grammars().GetAllByOwner(ctx, uuidID)
	if err != nil {
		return Account{}, serr.WrapDB("could not get user's grammars", err)
	}

	var removed Account
	for _, g := range owned {
		_, corpora, err := svc.deleteGrammar(ctx, g.ID)
		if err != nil && !errors.Is(err, serr.ErrNotFound) {
			return Account{}, err
		}
		removed.Grammars++
		removed.Corpora += corpora
	}

	removed.User, err = svc.DB.Users().Delete(ctx, uuidID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return removed, serr.ErrNotFound
		}
		return removed, serr.WrapDB("could not delete user", err)
	}

	log.Debug("deleted user", "id", uuidID, "grammars", removed.Grammars, "corpora", removed.Corpora)
	return removed, nil
}

func (svc Service) account(ctx context.Context, u dao.User) (Account, error) {
	owned, err := svc.DB.Grammars().GetAllByOwner(ctx, u.ID)
	if err != nil {
		return Account{}, serr.WrapDB("could not get user's grammars", err)
	}

	acc := Account{User: u, Grammars: len(owned)}
	for _, g := range owned {
		corpora, err := svc.DB.Corpora().GetAllByGrammar(ctx, g.ID)
		if err != nil {
			return Account{}, serr.WrapDB("could not get grammar's corpora", err)
		}
		acc.Corpora += len(corpora)
	}
	return acc, nil
}
