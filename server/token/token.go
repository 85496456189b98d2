// Package token issues and checks the JWT bearer tokens that authenticate
// clients of the gramq analysis server.
//
// A token is signed with a key made from the server secret, the user's stored
// password hash, and the time of their last logout. Changing the password or
// logging out therefore invalidates every token issued before.
package token

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dekarrin/gramq/server/dao"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	// Issuer is the iss claim of every token.
	Issuer = "gramq"

	// Lifetime is how long a token is valid after it is issued.
	Lifetime = time.Hour
)

// ErrWrongPassword is returned by CheckPassword when the password does not
// match the stored hash.
var ErrWrongPassword = errors.New("password does not match")

// HashPassword returns the form of password that is stored in dao.User and
// mixed into the signing key.
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(hash), nil
}

// CheckPassword returns ErrWrongPassword if password is not the one u's
// stored hash was made from.
func CheckPassword(u dao.User, password string) error {
	hash, err := base64.StdEncoding.DecodeString(u.Password)
	if err != nil {
		return fmt.Errorf("stored password of %q is not base64: %w", u.Username, err)
	}

	err = bcrypt.CompareHashAndPassword(hash, []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrWrongPassword
	}
	return err
}

// Revoke invalidates every token issued to the user with the given ID before
// now by moving their logout time, which is part of the signing key. It
// returns the updated user. dao.ErrNotFound is returned as-is.
func Revoke(ctx context.Context, db dao.UserRepository, id uuid.UUID) (dao.User, error) {
	u, err := db.GetByID(ctx, id)
	if err != nil {
		return dao.User{}, err
	}

	// signing keys only hold whole seconds
	u.LastLogoutTime = time.Now().Truncate(time.Second).Add(time.Second)
	return db.Update(ctx, u.ID, u)
}

// Get extracts the bearer token from the Authorization header of req.
func Get(req *http.Request) (string, error) {
	authHeader := strings.TrimSpace(req.Header.Get("Authorization"))

	if authHeader == "" {
		return "", fmt.Errorf("no authorization header present")
	}

	authParts := strings.SplitN(authHeader, " ", 2)
	if len(authParts) != 2 {
		return "", fmt.Errorf("authorization header not in Bearer format")
	}

	scheme := strings.TrimSpace(strings.ToLower(authParts[0]))
	token := strings.TrimSpace(authParts[1])

	if scheme != "bearer" {
		return "", fmt.Errorf("authorization header not in Bearer format")
	}

	return token, nil
}

// Validate checks tok and returns the user it was issued to.
func Validate(ctx context.Context, tok string, secret []byte, db dao.UserRepository) (dao.User, error) {
	var user dao.User

	_, err := jwt.Parse(tok, func(t *jwt.Token) (interface{}, error) {
		// who is the user? we need this for further verification
		subj, err := t.Claims.GetSubject()
		if err != nil {
			return nil, fmt.Errorf("cannot get subject: %w", err)
		}

		id, err := uuid.Parse(subj)
		if err != nil {
			return nil, fmt.Errorf("cannot parse subject UUID: %w", err)
		}

		user, err = db.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, dao.ErrNotFound) {
				return nil, fmt.Errorf("subject does not exist")
			}
			return nil, fmt.Errorf("subject could not be validated")
		}

		return signingKey(secret, user), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}), jwt.WithIssuer(Issuer), jwt.WithLeeway(time.Minute))

	if err != nil {
		return dao.User{}, err
	}

	return user, nil
}

// Generate issues a new token for u.
func Generate(secret []byte, u dao.User) (string, error) {
	claims := &jwt.MapClaims{
		"iss":        Issuer,
		"exp":        time.Now().Add(Lifetime).Unix(),
		"sub":        u.ID.String(),
		"authorized": true,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)

	tokStr, err := tok.SignedString(signingKey(secret, u))
	if err != nil {
		return "", err
	}
	return tokStr, nil
}

func signingKey(secret []byte, u dao.User) []byte {
	var signKey []byte
	signKey = append(signKey, secret...)
	signKey = append(signKey, []byte(u.Password)...)
	signKey = append(signKey, []byte(fmt.Sprintf("%d", u.LastLogoutTime.Unix()))...)
	return signKey
}
