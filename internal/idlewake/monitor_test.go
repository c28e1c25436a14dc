package idlewake

import (
	"testing"
	"time"
)

func TestCheckTick_FiresOnceAfterSuspension(t *testing.T) {
	var reconnects []bool
	m := New(func(forced bool) { reconnects = append(reconnects, forced) })

	base := time.Now()
	m.mu.Lock()
	m.lastTick = base
	m.mu.Unlock()

	// Normal tick at +30s: gap is 30s, below threshold.
	if fired := m.checkTick(base.Add(30 * time.Second)); fired {
		t.Error("normal tick fired a reconnect")
	}

	// The next tick arrives 61s after the previous one: the 30s timer was
	// delayed far beyond its period, i.e. the process was suspended.
	if fired := m.checkTick(base.Add(91 * time.Second)); !fired {
		t.Error("delayed tick did not fire a reconnect")
	}

	// Ticking resumes normally afterwards; no further reconnects.
	if fired := m.checkTick(base.Add(121 * time.Second)); fired {
		t.Error("post-wake tick fired a second reconnect")
	}

	if len(reconnects) != 1 {
		t.Fatalf("reconnect fired %d times, want 1", len(reconnects))
	}
	if reconnects[0] {
		t.Error("idle-wake reconnect must be non-forced")
	}
}

func TestCheckTick_ExactThresholdDoesNotFire(t *testing.T) {
	m := New(func(bool) { t.Error("reconnect fired at exact threshold") })

	base := time.Now()
	m.mu.Lock()
	m.lastTick = base
	m.mu.Unlock()

	m.checkTick(base.Add(wakeThreshold))
}

func TestCheckTick_UpdatesTimestampUnconditionally(t *testing.T) {
	m := New(nil)

	base := time.Now()
	m.mu.Lock()
	m.lastTick = base
	m.mu.Unlock()

	m.checkTick(base.Add(30 * time.Second))

	m.mu.Lock()
	got := m.lastTick
	m.mu.Unlock()
	if !got.Equal(base.Add(30 * time.Second)) {
		t.Errorf("lastTick = %v, want updated to tick time", got)
	}
}

func TestStartStop_Lifecycle(t *testing.T) {
	m := New(nil)

	m.Start()
	// Restart must cancel the prior run rather than stack timers.
	m.Start()
	m.Stop()
	// Stopping again is a no-op.
	m.Stop()
}
