package room

import (
	"sync"
	"time"
)

// turnClock arms one timer per turn. Each arm records the state version
// the turn started at; the fire callback receives it so a fire that
// lost the race against a real pick is recognized as stale and dropped.
type turnClock struct {
	limit time.Duration
	fire  func(armedVersion int)

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

func newTurnClock(limit time.Duration, fire func(int)) *turnClock {
	return &turnClock{limit: limit, fire: fire}
}

func (c *turnClock) arm(version int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.limit, func() { c.fire(version) })
}

func (c *turnClock) stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
