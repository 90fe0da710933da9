package conversation

import (
	"fmt"
	"testing"
	"time"
)

func TestFollowUpContextWithinWindow(t *testing.T) {
	tr := NewTracker(5 * time.Minute)
	tr.Record("node-a", 1, "SF11 in sydney", "what sf does sydney use")

	e, ok := tr.FollowUpContext("node-a", 1)
	if !ok {
		t.Fatalf("expected live entry")
	}
	if e.LastResponse != "SF11 in sydney" {
		t.Fatalf("unexpected response text: %q", e.LastResponse)
	}
	if len(e.History) != 1 || e.History[0] != "what sf does sydney use" {
		t.Fatalf("unexpected history: %v", e.History)
	}
}

func TestFollowUpContextWindowBoundary(t *testing.T) {
	tr := NewTracker(5 * time.Minute)
	base := time.Now()
	tr.now = func() time.Time { return base }
	tr.Record("node-a", 1, "resp", "msg")

	// Exactly at the boundary: still live.
	tr.now = func() time.Time { return base.Add(5 * time.Minute) }
	if _, ok := tr.FollowUpContext("node-a", 1); !ok {
		t.Fatalf("expected entry live at exactly the window boundary")
	}

	// One instant past: gone, and lazily deleted.
	tr.now = func() time.Time { return base.Add(5*time.Minute + time.Nanosecond) }
	if _, ok := tr.FollowUpContext("node-a", 1); ok {
		t.Fatalf("expected entry expired past the window")
	}
	if tr.Len() != 0 {
		t.Fatalf("expected lazy deletion on expired read, still have %d entries", tr.Len())
	}
}

func TestFollowUpContextChannelMismatch(t *testing.T) {
	tr := NewTracker(5 * time.Minute)
	tr.Record("node-a", 1, "resp", "msg")
	if _, ok := tr.FollowUpContext("node-a", 6); ok {
		t.Fatalf("expected no follow-up on a different channel")
	}
}

func TestRecordOverwritesAndBoundsHistory(t *testing.T) {
	tr := NewTracker(5 * time.Minute)
	for i := 0; i < 8; i++ {
		tr.Record("node-a", 1, fmt.Sprintf("resp %d", i), fmt.Sprintf("msg %d", i))
	}

	e, ok := tr.FollowUpContext("node-a", 1)
	if !ok {
		t.Fatalf("expected live entry")
	}
	if e.LastResponse != "resp 7" {
		t.Fatalf("expected latest response, got %q", e.LastResponse)
	}
	if len(e.History) != 5 {
		t.Fatalf("expected history capped at 5, got %d", len(e.History))
	}
	if e.History[0] != "msg 3" || e.History[4] != "msg 7" {
		t.Fatalf("expected FIFO eviction, got %v", e.History)
	}
}

func TestSendersAreIndependent(t *testing.T) {
	tr := NewTracker(5 * time.Minute)
	tr.Record("node-a", 1, "resp-a", "msg-a")

	if _, ok := tr.FollowUpContext("node-b", 1); ok {
		t.Fatalf("expected no entry for untracked sender")
	}
	e, ok := tr.FollowUpContext("node-a", 1)
	if !ok || e.LastResponse != "resp-a" {
		t.Fatalf("expected node-a entry untouched")
	}
}

func TestBlankSenderIgnored(t *testing.T) {
	tr := NewTracker(5 * time.Minute)
	tr.Record("  ", 1, "resp", "msg")
	if tr.Len() != 0 {
		t.Fatalf("expected blank sender to be ignored")
	}
}
