package debounce

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	values []string
	gens   []uint64
	fired  chan struct{}
}

func newRecorder() *recorder {
	return &recorder{fired: make(chan struct{}, 16)}
}

func (r *recorder) action(value string, gen uint64) {
	r.mu.Lock()
	r.values = append(r.values, value)
	r.gens = append(r.gens, gen)
	r.mu.Unlock()
	r.fired <- struct{}{}
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.values))
	copy(out, r.values)
	return out
}

func always(string) bool { return true }

func waitFired(t *testing.T, r *recorder) {
	t.Helper()
	select {
	case <-r.fired:
	case <-time.After(time.Second):
		t.Fatal("action did not fire within deadline")
	}
}

func TestBurstFiresOnceWithLastValue(t *testing.T) {
	g := New(20 * time.Millisecond)
	rec := newRecorder()

	for _, v := range []string{"9", "98", "987", "9876", "98765"} {
		g.Schedule(v, always, rec.action)
	}
	waitFired(t, rec)

	// allow any stray timers to fire before asserting exactly-once
	time.Sleep(60 * time.Millisecond)
	require.Equal(t, []string{"98765"}, rec.snapshot())
}

func TestPredicateNeverHoldsNeverFires(t *testing.T) {
	g := New(10 * time.Millisecond)
	rec := newRecorder()

	tooShort := func(v string) bool { return len(v) >= 10 }
	g.Schedule("98765", tooShort, rec.action)

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, rec.snapshot())
}

func TestPredicateCheckedAgainstSettledValue(t *testing.T) {
	g := New(10 * time.Millisecond)
	rec := newRecorder()
	ready := func(v string) bool { return len(v) >= 10 }

	g.Schedule("98765", ready, rec.action)
	g.Schedule("9876543210", ready, rec.action)
	waitFired(t, rec)

	time.Sleep(30 * time.Millisecond)
	require.Equal(t, []string{"9876543210"}, rec.snapshot())
}

func TestCancelSuppressesPendingAction(t *testing.T) {
	g := New(20 * time.Millisecond)
	rec := newRecorder()

	g.Schedule("9876543210", always, rec.action)
	g.Cancel()

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, rec.snapshot())
}

func TestGenerationInvalidatedBySupersedingSchedule(t *testing.T) {
	g := New(5 * time.Millisecond)
	rec := newRecorder()

	g.Schedule("1111111111", always, rec.action)
	waitFired(t, rec)

	rec.mu.Lock()
	firstGen := rec.gens[0]
	rec.mu.Unlock()
	require.True(t, g.Current(firstGen))

	// a newer schedule supersedes the first generation even before it fires
	g.Schedule("2222222222", always, rec.action)
	assert.False(t, g.Current(firstGen))

	waitFired(t, rec)
	rec.mu.Lock()
	secondGen := rec.gens[1]
	rec.mu.Unlock()
	assert.True(t, g.Current(secondGen))
}

func TestCancelInvalidatesCompletedGeneration(t *testing.T) {
	g := New(5 * time.Millisecond)
	rec := newRecorder()

	g.Schedule("9876543210", always, rec.action)
	waitFired(t, rec)

	rec.mu.Lock()
	gen := rec.gens[0]
	rec.mu.Unlock()
	require.True(t, g.Current(gen))

	g.Cancel()
	assert.False(t, g.Current(gen), "in-flight results must be discardable after Cancel")
}
