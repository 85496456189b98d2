package sqlite

import (
	"net/mail"
	"time"

	"github.com/dekarrin/gramq/server/dao"
	"github.com/google/uuid"
)

func convertToDB_UUID(u uuid.UUID) string {
	return u.String()
}

func convertFromDB_UUID(s string, target *uuid.UUID) error {
	u, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	*target = u
	return nil
}

func convertToDB_Role(r dao.Role) int64 {
	return int64(r)
}

func convertFromDB_Role(i int64, target *dao.Role) error {
	r := dao.Role(i)
	if _, err := dao.ParseRole(r.String()); err != nil {
		return err
	}
	*target = r
	return nil
}

// convertToDB_Email stores a nil address as the empty string.
func convertToDB_Email(email *mail.Address) string {
	if email == nil {
		return ""
	}
	return email.Address
}

func convertFromDB_Email(s string, target **mail.Address) error {
	if s == "" {
		*target = nil
		return nil
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return err
	}
	*target = addr
	return nil
}

// convertToDB_Time stores t as Unix seconds. The zero Time is stored as 0 so
// that it survives the round trip.
func convertToDB_Time(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func convertFromDB_Time(i int64, target *time.Time) error {
	if i == 0 {
		*target = time.Time{}
		return nil
	}
	*target = time.Unix(i, 0)
	return nil
}
