package fulfillment

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// IDGenerator mints record identifiers.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 identifiers.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// SequenceGenerator returns prefix followed by a zero-padded counter:
// ORD-0001, ORD-0002, ... Scenario runs use it for stable identifiers.
//
// Thread-safety: SequenceGenerator is safe for concurrent use.
type SequenceGenerator struct {
	mu     sync.Mutex
	prefix string
	next   int
}

// NewSequenceGenerator creates a generator whose first id is prefix+"0001".
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	return &SequenceGenerator{prefix: prefix, next: 1}
}

// Generate returns the next identifier.
func (g *SequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := fmt.Sprintf("%s%04d", g.prefix, g.next)
	g.next++
	return id
}

// FixedGenerator returns predetermined identifiers for tests.
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined id.
//
// Panics if all ids have been consumed. This is a fail-fast approach
// to catch test misconfiguration.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
