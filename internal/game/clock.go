package game

import (
	"context"
	"sync"
	"time"
)

// Countdown - таймер раунда. Один активный отсчет на комнату,
// повторный Start заменяет предыдущий.
type Countdown struct {
	mu      sync.Mutex
	cancel  context.CancelFunc
	gen     uint64
	running bool
}

func NewCountdown() *Countdown {
	return &Countdown{}
}

// Start уменьшает remaining на 1 каждый interval.
// onTick получает новое значение, onExpire вызывается ровно один раз при нуле.
func (c *Countdown) Start(parent context.Context, remaining int, interval time.Duration, onTick func(left int), onExpire func()) {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	c.gen++
	gen := c.gen
	c.cancel = cancel
	c.running = true
	c.mu.Unlock()

	go c.loop(ctx, gen, remaining, interval, onTick, onExpire)
}

func (c *Countdown) loop(ctx context.Context, gen uint64, left int, interval time.Duration, onTick func(int), onExpire func()) {
	if left <= 0 {
		if c.finish(gen) {
			onExpire()
		}
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if ctx.Err() != nil {
			return
		}

		left--
		onTick(left)
		if left <= 0 {
			if c.finish(gen) {
				onExpire()
			}
			return
		}
	}
}

// finish снимает отсчет, true только у того, кто снял первым
func (c *Countdown) finish(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen || !c.running {
		return false
	}
	c.running = false
	c.cancel()
	c.cancel = nil
	return true
}

// Stop идемпотентен и не ждет горутину
func (c *Countdown) Stop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return false
	}
	c.running = false
	c.cancel()
	c.cancel = nil
	return true
}

func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}
