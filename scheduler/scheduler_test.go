package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestScheduler() *Scheduler { return New(zap.NewNop()) }

func TestAddTicker_Fires(t *testing.T) {
	s := newTestScheduler()
	defer s.Stop()

	var count int32
	s.AddTicker("tick", 20*time.Millisecond, func() {
		atomic.AddInt32(&count, 1)
	})

	time.Sleep(120 * time.Millisecond)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&count), int32(3))
}

func TestAddTicker_Replaces(t *testing.T) {
	s := newTestScheduler()
	defer s.Stop()

	var count1, count2 int32
	s.AddTicker("task", 20*time.Millisecond, func() { atomic.AddInt32(&count1, 1) })
	time.Sleep(30 * time.Millisecond)
	s.AddTicker("task", 20*time.Millisecond, func() { atomic.AddInt32(&count2, 1) })
	time.Sleep(80 * time.Millisecond)

	snap1 := atomic.LoadInt32(&count1)
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, snap1, atomic.LoadInt32(&count1), "old ticker must stop after replacement")
	assert.Positive(t, atomic.LoadInt32(&count2))
}

func TestAddDelay_FiresOnce(t *testing.T) {
	s := newTestScheduler()
	defer s.Stop()

	var count int32
	s.AddDelay("once", 30*time.Millisecond, func() {
		atomic.AddInt32(&count, 1)
	})

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&count))
}

func TestRemove_Ticker(t *testing.T) {
	s := newTestScheduler()
	defer s.Stop()

	var count int32
	s.AddTicker("task", 20*time.Millisecond, func() { atomic.AddInt32(&count, 1) })
	time.Sleep(50 * time.Millisecond)
	s.Remove("task")
	snap := atomic.LoadInt32(&count)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, snap, atomic.LoadInt32(&count))
}

func TestStop_CancelsAll(t *testing.T) {
	s := newTestScheduler()

	var count int32
	s.AddTicker("a", 20*time.Millisecond, func() { atomic.AddInt32(&count, 1) })
	s.AddDelay("b", 30*time.Millisecond, func() { atomic.AddInt32(&count, 1) })
	s.Stop()

	snap := atomic.LoadInt32(&count)
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, snap, atomic.LoadInt32(&count))
}

func TestPanicRecovered(t *testing.T) {
	s := newTestScheduler()
	defer s.Stop()

	var after int32
	s.AddTicker("panics", 20*time.Millisecond, func() {
		if atomic.AddInt32(&after, 1) == 1 {
			panic("boom")
		}
	})
	time.Sleep(100 * time.Millisecond)
	// The panic in the first run must not kill the ticker.
	assert.Greater(t, atomic.LoadInt32(&after), int32(1))
}
