package testutil

import (
	"sync"
	"time"

	"pedit/internal/model"
)

// StubClock returns a fixed time. Safe for concurrent use.
type StubClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewStubClock creates a StubClock set to the given time.
func NewStubClock(t time.Time) *StubClock {
	return &StubClock{now: t}
}

// FixedClock returns a StubClock set to 2024-01-15 10:30:00 UTC.
func FixedClock() *StubClock {
	return NewStubClock(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC))
}

func (c *StubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *StubClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// StubIDGenerator returns sequential IDs starting at FirstStubID.
type StubIDGenerator struct {
	mu   sync.Mutex
	next model.ID
}

// FirstStubID is the first ID handed out by a StubIDGenerator. It is well
// above the line indexes of any fixture file.
const FirstStubID model.ID = 1000

func NewStubIDGenerator() *StubIDGenerator {
	return &StubIDGenerator{next: FirstStubID}
}

func (g *StubIDGenerator) New() model.ID {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.next
	g.next++
	return id
}
