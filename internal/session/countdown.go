package session

import (
	"sync"
	"time"
)

// Countdown is the per-question timer. It ticks once per second and fires
// its expiry callback exactly once when the remaining time reaches zero,
// then stops. It never restarts itself; the controller calls Start again
// when advancing to the next question.
type Countdown struct {
	mu       sync.Mutex
	clock    Clock
	duration int // seconds
	onExpire func()

	remaining int
	running   bool
	stopCh    chan struct{}
}

// NewCountdown creates a stopped countdown. onExpire is invoked from the
// timer goroutine without any lock held.
func NewCountdown(duration time.Duration, onExpire func(), clock Clock) *Countdown {
	secs := int(duration / time.Second)
	if secs < 1 {
		secs = 1
	}
	return &Countdown{
		clock:    clock,
		duration: secs,
		onExpire: onExpire,
	}
}

// Start resets the remaining time to the full duration and begins ticking.
// Starting an already-running countdown restarts it.
func (c *Countdown) Start() {
	c.mu.Lock()
	if c.running {
		close(c.stopCh)
	}
	c.remaining = c.duration
	c.running = true
	stopCh := make(chan struct{})
	c.stopCh = stopCh
	c.mu.Unlock()

	go c.loop(stopCh)
}

// Stop halts the countdown. No expiry fires after Stop returns, even if a
// tick was already queued.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	c.running = false
	close(c.stopCh)
}

// Remaining returns the seconds left on the current question.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

func (c *Countdown) loop(stopCh chan struct{}) {
	ticker := c.clock.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C():
			if c.tick(stopCh) {
				return
			}
		}
	}
}

// tick decrements the remaining time and fires the expiry callback when it
// hits zero. Returns true when the loop should exit.
func (c *Countdown) tick(stopCh chan struct{}) bool {
	c.mu.Lock()
	if !c.running || c.stopCh != stopCh {
		c.mu.Unlock()
		return true
	}

	c.remaining--
	if c.remaining > 0 {
		c.mu.Unlock()
		return false
	}

	c.remaining = 0
	c.running = false
	close(c.stopCh)
	fire := c.onExpire
	c.mu.Unlock()

	if fire != nil {
		fire()
	}
	return true
}
