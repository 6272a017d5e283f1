package random

import "github.com/google/uuid"

// Random provides identifier generation that can be mocked for testing
type Random interface {
	// Token returns a new opaque identifier that is unique within the process
	Token() string
}

// UUIDRandom implements Random using random (version 4) UUIDs
type UUIDRandom struct{}

// New creates a new UUIDRandom
func New() *UUIDRandom {
	return &UUIDRandom{}
}

// Token returns a fresh UUID string
func (r *UUIDRandom) Token() string {
	return uuid.NewString()
}
