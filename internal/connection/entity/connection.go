package entity

import (
	"strings"
	"time"
)

// Type is the kind of third-party link a connection stores.
type Type string

const (
	TypeSteam       Type = "STEAM"
	TypePSN         Type = "PSN"
	TypeSteamFamily Type = "STEAM_FAMILY"
)

// ParseType maps a case-insensitive name onto a known Type.
func ParseType(s string) (Type, bool) {
	switch t := Type(strings.ToUpper(strings.TrimSpace(s))); t {
	case TypeSteam, TypePSN, TypeSteamFamily:
		return t, true
	}
	return "", false
}

// Encrypted reports whether values of this type are stored as credential envelopes.
func (t Type) Encrypted() bool {
	return t != TypeSteamFamily
}

// Connection is one row of the connections table, unique per (UserID, Type).
// Value holds a credential envelope, or for STEAM_FAMILY a comma separated
// list of SteamID64s.
type Connection struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Type      Type      `db:"type"`
	Value     string    `db:"value"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// View is what callers see: the decrypted value of a connection.
type View struct {
	Type      Type      `json:"type"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
