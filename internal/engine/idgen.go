package engine

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator produces event ids. Injecting the generator keeps event
// construction deterministic under test.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator generates random UUID event ids. This is the production
// default.
type UUIDGenerator struct{}

// NewID implements IDGenerator.
func (UUIDGenerator) NewID() string {
	return uuid.New().String()
}

// SequenceGenerator generates "evt-1", "evt-2", ... ids. For testing.
type SequenceGenerator struct {
	n atomic.Int64
}

// NewID implements IDGenerator.
func (g *SequenceGenerator) NewID() string {
	return fmt.Sprintf("evt-%d", g.n.Add(1))
}
