package dispatch

import (
	"sync"
	"time"
)

// Emission throttle intervals. Single-run emitters use the tighter interval;
// the aggregator's combined view updates a little less often.
const (
	runProgressInterval      = 120 * time.Millisecond
	combinedProgressInterval = 150 * time.Millisecond
)

// progressEmitter rate-limits progress callbacks. Emit drops calls that land
// within the interval of the previous emission; EmitForce always fires, which
// is how state transitions stay visible regardless of throttling.
type progressEmitter struct {
	interval time.Duration
	emit     func()

	mu       sync.Mutex
	lastEmit time.Time
}

func newProgressEmitter(interval time.Duration, emit func()) *progressEmitter {
	return &progressEmitter{interval: interval, emit: emit}
}

// Emit fires the callback unless one fired within the throttle interval.
func (p *progressEmitter) Emit() {
	if p.emit == nil {
		return
	}

	p.mu.Lock()
	now := time.Now()
	if now.Sub(p.lastEmit) < p.interval {
		p.mu.Unlock()
		return
	}
	p.lastEmit = now
	p.mu.Unlock()

	p.emit()
}

// EmitForce fires the callback unconditionally and resets the throttle clock.
func (p *progressEmitter) EmitForce() {
	if p.emit == nil {
		return
	}

	p.mu.Lock()
	p.lastEmit = time.Now()
	p.mu.Unlock()

	p.emit()
}
