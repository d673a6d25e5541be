package status

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
)

// scriptedSource returns its snapshots in order and then repeats the last.
type scriptedSource struct {
	mu    sync.Mutex
	seq   []Snapshot
	calls atomic.Int32
}

func (s *scriptedSource) Read(string) Snapshot {
	s.calls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.seq) == 0 {
		return Snapshot{}
	}
	next := s.seq[0]
	if len(s.seq) > 1 {
		s.seq = s.seq[1:]
	}
	return next
}

type panicSource struct {
	calls atomic.Int32
}

func (p *panicSource) Read(string) Snapshot {
	if p.calls.Add(1) == 1 {
		panic("boom")
	}
	return Snapshot{Status: "Running"}
}

func receive(t *testing.T, ch <-chan Snapshot) Snapshot {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return Snapshot{}
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestMonitor_PublishesOnlyChanges(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	a := Snapshot{Status: "Running", WorldName: "Khazad-dûm", Players: "0/8"}
	b := Snapshot{Status: "Running", WorldName: "Khazad-dûm", Players: "1/8"}
	src := &scriptedSource{seq: []Snapshot{a, a, b, b, a}}

	m := NewMonitor(src, WithInterval(5*time.Millisecond))
	events, unsubscribe := m.Subscribe()
	defer unsubscribe()

	m.Start("srv")
	var got []Snapshot
	for range 3 {
		got = append(got, receive(t, events))
	}
	// Let the source settle on its last value for a few more ticks.
	waitFor(t, func() bool { return src.calls.Load() >= 8 })
	m.Stop()

	if diff := cmp.Diff([]Snapshot{a, b, a}, got); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	select {
	case extra := <-events:
		t.Errorf("unexpected extra event %+v", extra)
	default:
	}
	if diff := cmp.Diff(a, m.Current()); diff != "" {
		t.Errorf("Current() mismatch (-want +got):\n%s", diff)
	}
}

func TestMonitor_FirstPollPublishesZero(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	m := NewMonitor(&scriptedSource{}, WithInterval(time.Hour))
	events, unsubscribe := m.Subscribe()
	defer unsubscribe()

	m.Start("srv")
	defer m.Stop()
	if got := receive(t, events); !got.IsZero() {
		t.Errorf("first event = %+v, want zero snapshot", got)
	}
}

func TestMonitor_StartIsReentrant(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	src := &scriptedSource{seq: []Snapshot{{Status: "Running"}}}
	m := NewMonitor(src, WithInterval(time.Hour))

	m.Start("srv")
	m.Start("srv")
	m.Start("other")
	waitFor(t, func() bool { return src.calls.Load() >= 1 })
	time.Sleep(20 * time.Millisecond)

	if n := src.calls.Load(); n != 1 {
		t.Errorf("source read %d times, want 1", n)
	}
	if got := m.ServerDir(); got != "srv" {
		t.Errorf("ServerDir() = %q, want %q", got, "srv")
	}
	if !m.IsMonitoring() {
		t.Error("IsMonitoring() = false after Start")
	}
	m.Stop()
}

func TestMonitor_StopIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	m := NewMonitor(&scriptedSource{}, WithInterval(5*time.Millisecond))
	m.Stop()

	m.Start("srv")
	m.Stop()
	m.Stop()
	if m.IsMonitoring() {
		t.Error("IsMonitoring() = true after Stop")
	}

	// A stopped monitor can be started again.
	m.Start("srv")
	if !m.IsMonitoring() {
		t.Error("IsMonitoring() = false after restart")
	}
	m.Stop()
}

func TestMonitor_NoEventsAfterStop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var n atomic.Int32
	src := sourceFunc(func(string) Snapshot {
		return Snapshot{Status: "Running", WorldSeed: int(n.Add(1))}
	})
	m := NewMonitor(src, WithInterval(time.Millisecond))
	events, unsubscribe := m.Subscribe()
	defer unsubscribe()

	m.Start("srv")
	receive(t, events)
	m.Stop()

	// Drain whatever was delivered before Stop returned.
	for len(events) > 0 {
		<-events
	}
	time.Sleep(20 * time.Millisecond)
	if len(events) != 0 {
		t.Errorf("received %d events after Stop", len(events))
	}
}

func TestMonitor_RecoversFromPanic(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	src := &panicSource{}
	m := NewMonitor(src, WithInterval(5*time.Millisecond))
	events, unsubscribe := m.Subscribe()
	defer unsubscribe()

	m.Start("srv")
	got := receive(t, events)
	m.Stop()

	if !got.IsRunning() {
		t.Errorf("event after panic = %+v, want running", got)
	}
}

func TestMonitor_SlowSubscriberDropsOldest(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var n atomic.Int32
	src := sourceFunc(func(string) Snapshot {
		return Snapshot{WorldSeed: int(n.Add(1))}
	})
	m := NewMonitor(src, WithInterval(time.Millisecond))
	events, unsubscribe := m.Subscribe()
	defer unsubscribe()

	m.Start("srv")
	waitFor(t, func() bool { return n.Load() > subscriberBuffer*2 })
	m.Stop()

	if len(events) != subscriberBuffer {
		t.Fatalf("buffered %d events, want %d", len(events), subscriberBuffer)
	}
	prev := 0
	for len(events) > 0 {
		s := <-events
		if s.WorldSeed <= prev {
			t.Fatalf("events out of order: %d after %d", s.WorldSeed, prev)
		}
		prev = s.WorldSeed
	}
	if prev != m.Current().WorldSeed {
		t.Errorf("newest buffered seed %d, Current() seed %d", prev, m.Current().WorldSeed)
	}
}

func TestMonitor_Unsubscribe(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	m := NewMonitor(&scriptedSource{}, WithInterval(time.Millisecond))
	events, unsubscribe := m.Subscribe()
	unsubscribe()
	unsubscribe()

	if _, ok := <-events; ok {
		t.Error("channel should be closed after unsubscribe")
	}

	m.Start("srv")
	time.Sleep(10 * time.Millisecond)
	m.Stop()
}

type sourceFunc func(string) Snapshot

func (f sourceFunc) Read(dir string) Snapshot { return f(dir) }
