package domain

import (
	"strings"

	"github.com/google/uuid"
)

// UserID is the canonical user identity. Identifiers arrive from tokens,
// URL parameters and socket payloads in mixed casing; they are normalized
// exactly once, at the boundary, and compared as UserID everywhere after.
type UserID string

// ParseUserID validates and canonicalizes a raw identifier.
func ParseUserID(raw string) (UserID, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return "", ErrInvalidUserID
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", ErrInvalidUserID
	}
	return UserID(id.String()), nil
}

// NewUserID mints an identity for a freshly created user.
func NewUserID() UserID {
	return UserID(uuid.NewString())
}

func (id UserID) String() string { return string(id) }

func (id UserID) IsZero() bool { return id == "" }
