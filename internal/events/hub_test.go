package events

import (
	"testing"
	"time"
)

func TestHubPublishSubscribe(t *testing.T) {
	t.Parallel()

	h := NewHub(8)
	ch, cancel := h.Subscribe()
	defer cancel()

	h.Publish(TypeDispatch, map[string]any{"namespace": "system", "method": "ping"})

	select {
	case ev := <-ch:
		if ev.Type != TypeDispatch {
			t.Errorf("type = %q", ev.Type)
		}
		if ev.ID != 1 {
			t.Errorf("id = %d", ev.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
}

func TestHubSnapshotSince(t *testing.T) {
	t.Parallel()

	h := NewHub(4)
	for i := 0; i < 6; i++ {
		h.Publish(TypePush, nil)
	}

	// Ring holds the last 4 events (ids 3..6).
	all := h.SnapshotSince(0)
	if len(all) != 4 || all[0].ID != 3 || all[3].ID != 6 {
		t.Fatalf("snapshot = %+v", all)
	}

	since := h.SnapshotSince(5)
	if len(since) != 1 || since[0].ID != 6 {
		t.Fatalf("snapshot since 5 = %+v", since)
	}
}

func TestHubSlowSubscriberDoesNotBlock(t *testing.T) {
	t.Parallel()

	h := NewHub(4)
	_, cancel := h.Subscribe() // never drained
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			h.Publish(TypeDispatch, nil)
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on slow subscriber")
	}
}

func TestHubNilPayloadEncodesEmptyObject(t *testing.T) {
	t.Parallel()

	h := NewHub(2)
	h.Publish(TypePush, nil)
	snap := h.SnapshotSince(0)
	if len(snap) != 1 || string(snap[0].Data) != "{}" {
		t.Fatalf("snapshot = %+v", snap)
	}
}
