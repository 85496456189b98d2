// Package dao provides data access objects for use in the gramq analysis
// server.
package dao

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrConstraintViolation is returned when a write would break a uniqueness
	// rule of the store, such as a taken username or a grammar fingerprint
	// already stored for the same owner.
	ErrConstraintViolation = errors.New("a uniqueness constraint was violated")

	// ErrNotFound is returned when no entity has the requested key.
	ErrNotFound = errors.New("the requested resource was not found")
)

// Store holds all the repositories.
type Store interface {
	Users() UserRepository
	Grammars() GrammarRepository
	Corpora() CorpusRepository
	Close() error
}

// UserRepository stores the accounts that own grammars and corpora. Usernames
// are unique; Create returns ErrConstraintViolation for a taken one. The ID
// and username of a user never change after Create.
type UserRepository interface {

	// Create creates a new User. All attributes except for auto-generated
	// fields are taken from the provided User.
	Create(ctx context.Context, user User) (User, error)
	GetAll(ctx context.Context) ([]User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)

	// Update stores the password, role, email, and login and logout times of
	// user for the user with the given ID.
	Update(ctx context.Context, id uuid.UUID, user User) (User, error)

	// Delete removes only the user. Callers delete what the user owns first.
	Delete(ctx context.Context, id uuid.UUID) (User, error)
	Close() error
}

// GrammarRepository stores grammar text submitted by users. The pair of
// owner and fingerprint is unique; Create returns ErrConstraintViolation if a
// grammar with the same fingerprint is already stored for the owner.
type GrammarRepository interface {
	Create(ctx context.Context, g Grammar) (Grammar, error)
	GetAll(ctx context.Context) ([]Grammar, error)
	GetAllByOwner(ctx context.Context, ownerID uuid.UUID) ([]Grammar, error)
	GetByID(ctx context.Context, id uuid.UUID) (Grammar, error)
	GetByFingerprint(ctx context.Context, ownerID uuid.UUID, fingerprint string) (Grammar, error)
	Delete(ctx context.Context, id uuid.UUID) (Grammar, error)
	Close() error
}

// CorpusRepository stores fuzz corpora generated from stored grammars.
type CorpusRepository interface {
	Create(ctx context.Context, c Corpus) (Corpus, error)
	GetByID(ctx context.Context, id uuid.UUID) (Corpus, error)
	GetAllByGrammar(ctx context.Context, grammarID uuid.UUID) ([]Corpus, error)
	Delete(ctx context.Context, id uuid.UUID) (Corpus, error)
	DeleteAllByGrammar(ctx context.Context, grammarID uuid.UUID) ([]Corpus, error)
	Close() error
}

type Role int

const (
	Guest Role = iota
	Unverified
	Normal

	Admin Role = 100
)

func (r Role) String() string {
	switch r {
	case Guest:
		return "guest"
	case Unverified:
		return "unverified"
	case Normal:
		return "normal"
	case Admin:
		return "admin"
	default:
		return fmt.Sprintf("Role(%d)", r)
	}
}

func ParseRole(s string) (Role, error) {
	check := strings.ToLower(s)
	switch check {
	case "guest":
		return Guest, nil
	case "unverified":
		return Unverified, nil
	case "normal":
		return Normal, nil
	case "admin":
		return Admin, nil
	default:
		return Guest, fmt.Errorf("must be one of 'guest', 'unverified', 'normal', or 'admin'")
	}
}

type User struct {
	ID             uuid.UUID
	Username       string
	Password       string
	Email          *mail.Address
	Role           Role
	Created        time.Time
	Modified       time.Time
	LastLogoutTime time.Time
	LastLoginTime  time.Time
}

// Grammar is grammar text as it was submitted, along with the start symbol to
// analyze it with. Fingerprint identifies the parsed rules and start symbol,
// so two submissions that differ only in layout share one.
type Grammar struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	Text        string
	Start       string
	Fingerprint string
	Created     time.Time
}

// Corpus is a generated fuzz corpus. Data holds the corpus in its binary
// encoding.
type Corpus struct {
	ID        uuid.UUID
	GrammarID uuid.UUID
	OwnerID   uuid.UUID
	Seed      int64
	Count     int
	Data      []byte
	Created   time.Time
}
