package identity

import (
	"github.com/google/uuid"

	portsout "exchangeengine/internal/application/ports/out"
)

type UUIDGenerator struct{}

var _ portsout.IDGenerator = UUIDGenerator{}

func NewUUIDGenerator() UUIDGenerator {
	return UUIDGenerator{}
}

// NewID returns a time-ordered UUIDv7 so ids sort roughly by creation.
func (UUIDGenerator) NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
