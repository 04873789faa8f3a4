// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"github.com/google/uuid"

	dErrors "logdata/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing a LogID where a TenantID is expected.
type (
	TenantID uuid.UUID
	LogID    uuid.UUID
)

func NewTenantID() TenantID { return TenantID(uuid.New()) }
func NewLogID() LogID       { return LogID(uuid.New()) }

// Parse functions - use at trust boundaries (handlers, API inputs).

func ParseTenantID(s string) (TenantID, error) {
	id, err := parseUUID(s, "tenant ID")
	return TenantID(id), err
}

func ParseLogID(s string) (LogID, error) {
	id, err := parseUUID(s, "log ID")
	return LogID(id), err
}

func (id TenantID) String() string { return uuid.UUID(id).String() }
func (id LogID) String() string    { return uuid.UUID(id).String() }

func (id TenantID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id LogID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// Text marshaling keeps the canonical UUID form in JSON bodies.

func (id TenantID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id LogID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }

func (id *TenantID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *LogID) UnmarshalText(b []byte) error    { return (*uuid.UUID)(id).UnmarshalText(b) }

// parseUUID is the shared validation logic.
// Nil UUIDs are allowed here; services reject them with IsNil() so store
// lookups can still report a proper "not found".
func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "invalid "+label+" format")
	}
	return id, nil
}
