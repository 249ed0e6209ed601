package netmon

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMonitor_ReportDebouncesTransition(t *testing.T) {
	m := New("", WithDebounce(20*time.Millisecond))

	var transitions atomic.Int32
	var lastState atomic.Bool
	unsub := m.OnChange(func(online bool) {
		transitions.Add(1)
		lastState.Store(online)
	})
	defer unsub()

	assert.True(t, m.Current())

	m.Report(false)
	// still online inside the debounce window
	assert.True(t, m.Current())

	assert.Eventually(t, func() bool { return !m.Current() }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), transitions.Load())
	assert.False(t, lastState.Load())
}

func TestMonitor_FlappingCollapsesToFinalState(t *testing.T) {
	m := New("", WithDebounce(30*time.Millisecond))

	var transitions atomic.Int32
	unsub := m.OnChange(func(bool) { transitions.Add(1) })
	defer unsub()

	// rapid flapping ends where it started: no transition at all
	m.Report(false)
	m.Report(true)
	m.Report(false)
	m.Report(true)

	time.Sleep(100 * time.Millisecond)
	assert.True(t, m.Current())
	assert.Equal(t, int32(0), transitions.Load())
}

func TestMonitor_Unsubscribe(t *testing.T) {
	m := New("", WithDebounce(10*time.Millisecond))

	var calls atomic.Int32
	unsub := m.OnChange(func(bool) { calls.Add(1) })
	unsub()

	m.Report(false)
	time.Sleep(50 * time.Millisecond)
	assert.False(t, m.Current())
	assert.Equal(t, int32(0), calls.Load())
}

func TestMonitor_DuplicateReportIsNoop(t *testing.T) {
	m := New("", WithDebounce(10*time.Millisecond))

	var calls atomic.Int32
	unsub := m.OnChange(func(bool) { calls.Add(1) })
	defer unsub()

	m.Report(true)
	m.Report(true)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}
