package clock

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

func recvTimeout(t *testing.T, ch <-chan Timeout) Timeout {
	t.Helper()
	select {
	case to := <-ch:
		return to
	case <-time.After(time.Second):
		t.Fatal("expected a timeout to fire")
		return Timeout{}
	}
}

func expectQuiet(t *testing.T, ch <-chan Timeout) {
	t.Helper()
	select {
	case to := <-ch:
		t.Fatalf("unexpected timeout fired: %+v", to)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestClock_FiresOnceAtDeadline(t *testing.T) {
	fake := clockwork.NewFakeClock()
	out := make(chan Timeout, 4)
	draftID := uuid.New()
	c := New(fake, draftID, out)

	seq := c.ArmFor(30 * time.Second)

	fake.Advance(29 * time.Second)
	expectQuiet(t, out)

	fake.Advance(time.Second)
	to := recvTimeout(t, out)
	if to.DraftID != draftID || to.Seq != seq {
		t.Fatalf("timeout: got %+v, want seq %d for draft %s", to, seq, draftID)
	}

	fake.Advance(time.Minute)
	expectQuiet(t, out)
}

func TestClock_CancelSuppressesFire(t *testing.T) {
	fake := clockwork.NewFakeClock()
	out := make(chan Timeout, 4)
	c := New(fake, uuid.New(), out)

	c.ArmFor(10 * time.Second)
	c.Cancel()

	fake.Advance(time.Minute)
	expectQuiet(t, out)
	if got := c.Remaining(); got != 0 {
		t.Fatalf("remaining after cancel: got %v, want 0", got)
	}
}

func TestClock_RearmInvalidatesOldDeadline(t *testing.T) {
	fake := clockwork.NewFakeClock()
	out := make(chan Timeout, 4)
	c := New(fake, uuid.New(), out)

	c.ArmFor(10 * time.Second)
	fake.Advance(5 * time.Second)
	seq2 := c.ArmFor(20 * time.Second)

	// Past the first deadline, before the second: nothing fires.
	fake.Advance(10 * time.Second)
	expectQuiet(t, out)

	fake.Advance(10 * time.Second)
	to := recvTimeout(t, out)
	if to.Seq != seq2 {
		t.Fatalf("fired seq: got %d, want %d", to.Seq, seq2)
	}
	expectQuiet(t, out)
}

func TestClock_PauseResumeKeepsRemaining(t *testing.T) {
	fake := clockwork.NewFakeClock()
	out := make(chan Timeout, 4)
	c := New(fake, uuid.New(), out)

	c.ArmFor(10 * time.Second)
	fake.Advance(4 * time.Second)
	c.Pause()

	if got := c.Remaining(); got != 6*time.Second {
		t.Fatalf("remaining while paused: got %v, want 6s", got)
	}

	// Time passing while paused changes nothing.
	fake.Advance(time.Hour)
	expectQuiet(t, out)
	if got := c.Remaining(); got != 6*time.Second {
		t.Fatalf("remaining after paused hour: got %v, want 6s", got)
	}

	seq, ok := c.Resume()
	if !ok {
		t.Fatal("resume on a paused clock must re-arm")
	}
	fake.Advance(5 * time.Second)
	expectQuiet(t, out)
	fake.Advance(time.Second)
	to := recvTimeout(t, out)
	if to.Seq != seq {
		t.Fatalf("fired seq: got %d, want %d", to.Seq, seq)
	}
}

func TestClock_ResumeWithoutPauseIsNoop(t *testing.T) {
	fake := clockwork.NewFakeClock()
	out := make(chan Timeout, 4)
	c := New(fake, uuid.New(), out)

	if _, ok := c.Resume(); ok {
		t.Fatal("resume without pause must be a no-op")
	}
	c.ArmFor(time.Second)
	if _, ok := c.Resume(); ok {
		t.Fatal("resume on a running clock must be a no-op")
	}
}

func TestClock_ArmUntilPastDeadlineFiresImmediately(t *testing.T) {
	fake := clockwork.NewFakeClock()
	out := make(chan Timeout, 4)
	c := New(fake, uuid.New(), out)

	seq := c.ArmUntil(fake.Now().Add(-time.Second))
	fake.Advance(0)
	to := recvTimeout(t, out)
	if to.Seq != seq {
		t.Fatalf("fired seq: got %d, want %d", to.Seq, seq)
	}
}
