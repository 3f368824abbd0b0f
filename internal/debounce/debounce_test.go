package debounce

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTrigger_CollapsesBurst(t *testing.T) {
	d := New(30 * time.Millisecond)

	var calls, last atomic.Int32
	for i := int32(1); i <= 5; i++ {
		v := i
		d.Trigger(func() {
			calls.Add(1)
			last.Store(v)
		})
	}
	assert.True(t, d.Pending())

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int32(5), last.Load())
	assert.False(t, d.Pending())
}

func TestTrigger_RestartsDelay(t *testing.T) {
	d := New(50 * time.Millisecond)

	var fired atomic.Bool
	d.Trigger(func() { fired.Store(true) })
	time.Sleep(30 * time.Millisecond)
	d.Trigger(func() { fired.Store(true) })
	time.Sleep(30 * time.Millisecond)

	assert.False(t, fired.Load(), "second trigger should have pushed the deadline")
	assert.Eventually(t, fired.Load, time.Second, 5*time.Millisecond)
}

func TestCancel(t *testing.T) {
	d := New(20 * time.Millisecond)

	assert.False(t, d.Cancel())

	var fired atomic.Bool
	d.Trigger(func() { fired.Store(true) })
	assert.True(t, d.Cancel())
	assert.False(t, d.Pending())

	time.Sleep(50 * time.Millisecond)
	assert.False(t, fired.Load())
}

func TestDelay(t *testing.T) {
	assert.Equal(t, 150*time.Millisecond, New(150*time.Millisecond).Delay())
}
