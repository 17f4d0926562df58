// Package idgen produces the time-based identifiers used for rooms and chats.
package idgen

import (
	"fmt"
	"sync"
	"time"
)

// Strategy selects how identifiers created inside the same millisecond are handled.
type Strategy string

const (
	// Millis returns the current epoch milliseconds as is. Two ids requested
	// within one millisecond collide.
	Millis Strategy = "millis"
	// Monotonic never returns an id lower than or equal to the previous one;
	// on collision the id is bumped to previous+1.
	Monotonic Strategy = "monotonic"
)

// ParseStrategy converts a config value to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case Millis, Monotonic:
		return Strategy(s), nil
	case "":
		return Monotonic, nil
	}
	return "", fmt.Errorf("unknown id strategy %q", s)
}

// Generator hands out identifiers derived from wall-clock milliseconds.
type Generator struct {
	strategy Strategy
	now      func() time.Time

	mu   sync.Mutex
	last int64
}

// New creates a generator. A nil now uses time.Now.
func New(strategy Strategy, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{strategy: strategy, now: now}
}

// Next returns a new identifier.
func (g *Generator) Next() int64 {
	id := g.now().UnixMilli()
	if g.strategy != Monotonic {
		return id
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}

// Observe raises the monotonic floor to id. Stores call it for every id
// loaded from persistence so new ids never repeat persisted ones.
func (g *Generator) Observe(id int64) {
	g.mu.Lock()
	if id > g.last {
		g.last = id
	}
	g.mu.Unlock()
}
