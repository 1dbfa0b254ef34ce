// Package id generates and parses row identifiers.
package id

import (
	"github.com/google/uuid"
)

// ID identifies branches, users, roles, catalog entries and products.
// New values are UUIDv7 and therefore sort by creation time.
type ID = uuid.UUID

// New returns a fresh UUIDv7, or a random UUID if the v7 generator fails.
func New() ID {
	if v, err := uuid.NewV7(); err == nil {
		return v
	}
	return uuid.New()
}

// Parse reads the textual form used in URLs, tokens and session variables.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// Nil is the zero ID. Branch-less admin scopes and unset owners carry it.
func Nil() ID { return uuid.Nil }

// IsNil reports whether v is the zero ID.
func IsNil(v ID) bool { return v == uuid.Nil }
