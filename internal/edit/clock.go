package edit

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"pedit/internal/model"
)

// Clock abstracts time retrieval so business logic is deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// IDGenerator hands out identifiers for records created during a session.
type IDGenerator interface {
	New() model.ID
}

// ClockIDGenerator derives new record IDs from the clock in milliseconds.
// IDs are strictly increasing even when called twice within the same millisecond.
type ClockIDGenerator struct {
	clock Clock
	mu    sync.Mutex
	last  model.ID
}

func NewClockIDGenerator(clock Clock) *ClockIDGenerator {
	return &ClockIDGenerator{clock: clock}
}

func (g *ClockIDGenerator) New() model.ID {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := model.ID(g.clock.Now().UnixMilli())
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}

// NewSessionID returns a random identifier for one editing session.
func NewSessionID() string { return uuid.New().String() }
