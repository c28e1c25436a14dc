// Package idlewake infers that the process was suspended (device sleep,
// frozen laptop lid) by watching for timer ticks that arrive far later than
// scheduled, and triggers a reconnect of the realtime transport when one
// does.
package idlewake

import (
	"log/slog"
	"sync"
	"time"
)

const (
	tickInterval = 30 * time.Second
	// A tick arriving more than this long after the previous one means the
	// timer itself was delayed, which only happens when the process was
	// suspended.
	wakeThreshold = 60 * time.Second
)

// Monitor owns the idle-wake timer state. At most one timer runs at a time;
// Start cancels any prior run.
type Monitor struct {
	// reconnect is invoked with forced=false when a wake is detected.
	reconnect func(forced bool)

	mu       sync.Mutex
	lastTick time.Time
	done     chan struct{}
}

// New creates a Monitor that calls reconnect on detected wake-ups.
func New(reconnect func(forced bool)) *Monitor {
	return &Monitor{reconnect: reconnect}
}

// Start resets the last-tick timestamp and begins ticking. A prior running
// timer is cancelled first so duplicate reconnects cannot fire.
func (m *Monitor) Start() {
	m.mu.Lock()
	if m.done != nil {
		close(m.done)
	}
	m.done = make(chan struct{})
	done := m.done
	m.lastTick = time.Now()
	m.mu.Unlock()

	go m.run(done)
}

// Stop cancels the timer. Safe to call when not running.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if m.done != nil {
		close(m.done)
		m.done = nil
	}
	m.mu.Unlock()
}

func (m *Monitor) run(done chan struct{}) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.checkTick(time.Now())
		case <-done:
			return
		}
	}
}

// checkTick compares now against the previous tick and fires the reconnect
// when the real elapsed time exceeds the wake threshold. The timestamp is
// updated unconditionally, so one suspension triggers exactly one reconnect.
func (m *Monitor) checkTick(now time.Time) bool {
	m.mu.Lock()
	gap := now.Sub(m.lastTick)
	m.lastTick = now
	m.mu.Unlock()

	if gap <= wakeThreshold {
		return false
	}

	slog.Info("wake from suspend detected", "gap", gap)
	if m.reconnect != nil {
		m.reconnect(false)
	}
	return true
}
