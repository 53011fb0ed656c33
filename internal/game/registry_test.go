package game

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
)

type fakeTransport struct {
	mu     sync.Mutex
	msgs   [][]byte
	closed bool
	fail   bool
}

func (t *fakeTransport) Send(msg []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fail {
		return errors.New("transport closed")
	}
	t.msgs = append(t.msgs, append([]byte(nil), msg...))
	return nil
}

func (t *fakeTransport) Open() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.closed
}

func (t *fakeTransport) messages() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([][]byte, len(t.msgs))
	copy(out, t.msgs)
	return out
}

func TestRegistryAttachDetachLifecycle(t *testing.T) {
	r := NewRegistry()
	tr := &fakeTransport{}

	if n := r.Attach("g-1", tr); n != 1 {
		t.Fatalf("attach count = %d, want 1", n)
	}
	if r.liveRooms() != 1 {
		t.Fatalf("live rooms = %d, want 1", r.liveRooms())
	}
	r.Detach("g-1", tr)
	if r.liveRooms() != 0 {
		t.Fatalf("room should be destroyed after last detach, have %d", r.liveRooms())
	}
}

func TestRegistryDetachKeepsRoomWhileCalling(t *testing.T) {
	r := NewRegistry()
	tr := &fakeTransport{}
	r.Attach("g-1", tr)

	rm := r.room("g-1")
	rm.mu.Lock()
	rm.sched = newScheduler()
	rm.mu.Unlock()

	r.Detach("g-1", tr)
	if r.liveRooms() != 1 {
		t.Fatalf("room with a running scheduler must survive detach")
	}

	rm.mu.Lock()
	rm.sched = nil
	rm.mu.Unlock()
	r.reapIfIdle("g-1")
	if r.liveRooms() != 0 {
		t.Fatalf("idle room should be reaped")
	}
}

func TestRegistryBroadcastOrderingAndDeadDrop(t *testing.T) {
	r := NewRegistry()
	good := &fakeTransport{}
	dead := &fakeTransport{fail: true}
	r.Attach("g-1", good)
	r.Attach("g-1", dead)

	r.Broadcast("g-1", PlayerJoinedEvent{Type: EventPlayerJoined, PlayerCount: 1})
	r.Broadcast("g-1", PlayerJoinedEvent{Type: EventPlayerJoined, PlayerCount: 2})

	msgs := good.messages()
	if len(msgs) != 2 {
		t.Fatalf("good transport got %d messages, want 2", len(msgs))
	}
	var first, second PlayerJoinedEvent
	if err := json.Unmarshal(msgs[0], &first); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := json.Unmarshal(msgs[1], &second); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if first.PlayerCount != 1 || second.PlayerCount != 2 {
		t.Fatalf("events out of order: %d then %d", first.PlayerCount, second.PlayerCount)
	}

	rm := r.room("g-1")
	rm.mu.Lock()
	n := len(rm.transports)
	rm.mu.Unlock()
	if n != 1 {
		t.Fatalf("dead transport should have been dropped, %d left", n)
	}
}

// A room handle taken before a concurrent detach reaps the room must
// not be used: lockRoom has to notice the reap and resolve a fresh
// room, so attaches and broadcasts never land on an orphan.
func TestRegistryLockRoomRetriesAfterReap(t *testing.T) {
	r := NewRegistry()
	tr := &fakeTransport{}
	r.Attach("g-1", tr)

	stale := r.room("g-1")
	r.Detach("g-1", tr)

	stale.mu.Lock()
	wasDead := stale.dead
	stale.mu.Unlock()
	if !wasDead {
		t.Fatalf("reaped room should be marked dead")
	}

	rm := r.lockRoom("g-1")
	defer rm.mu.Unlock()
	if rm == stale {
		t.Fatalf("lockRoom returned the reaped room")
	}
	if rm.dead {
		t.Fatalf("lockRoom returned a dead room")
	}
}

// Events broadcast through a pre-reap handle would vanish for every
// transport attached afterwards. Replays the interleave: attach, grab a
// handle, detach (reap), re-attach, broadcast, and check delivery.
func TestRegistryBroadcastReachesRoomRecreatedAfterReap(t *testing.T) {
	r := NewRegistry()
	first := &fakeTransport{}
	r.Attach("g-1", first)

	stale := r.room("g-1")
	r.Detach("g-1", first)

	second := &fakeTransport{}
	r.Attach("g-1", second)
	r.Broadcast("g-1", GameStartedEvent{Type: EventGameStarted})

	if len(second.messages()) != 1 {
		t.Fatalf("re-attached transport got %d messages, want 1", len(second.messages()))
	}
	stale.mu.Lock()
	orphaned := len(stale.transports)
	stale.mu.Unlock()
	if orphaned != 0 {
		t.Fatalf("reaped room still holds %d transports", orphaned)
	}
}

func TestRegistryBroadcastSkipsClosedTransport(t *testing.T) {
	r := NewRegistry()
	tr := &fakeTransport{closed: true}
	r.Attach("g-1", tr)

	r.Broadcast("g-1", GameStartedEvent{Type: EventGameStarted})
	if len(tr.messages()) != 0 {
		t.Fatalf("closed transport must not receive events")
	}
}
