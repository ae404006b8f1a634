package identifier

import "github.com/google/uuid"

// Generator produces unique record identifiers.
type Generator interface {
	Next() string
}

// UUIDGenerator issues random (v4) UUIDs.
type UUIDGenerator struct{}

// Next returns a fresh identifier.
func (UUIDGenerator) Next() string {
	return uuid.NewString()
}
