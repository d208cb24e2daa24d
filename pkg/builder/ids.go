package builder

import (
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// IDGenerator assigns question ids.
type IDGenerator interface {
	NewID() string
}

// ClockIDs issues millisecond clock values as ids. Two calls inside the same
// millisecond still get distinct, increasing ids.
type ClockIDs struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewClockIDs returns a clock-based generator; now may be nil.
func NewClockIDs(now func() time.Time) *ClockIDs {
	if now == nil {
		now = time.Now
	}
	return &ClockIDs{now: now}
}

func (g *ClockIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	next := g.now().UnixMilli()
	if next <= g.last {
		next = g.last + 1
	}
	g.last = next
	return strconv.FormatInt(next, 10)
}

// UUIDs issues random v4 uuids.
type UUIDs struct{}

func (UUIDs) NewID() string {
	return uuid.NewString()
}
