package game

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"
)

// Transport is one connected client endpoint of a room. Send is
// best-effort; an error marks the transport dead and it is dropped from
// the room. Closed transports report Open() == false and are skipped.
type Transport interface {
	Send(msg []byte) error
	Open() bool
}

// Room is the live, in-memory counterpart of one forming or active
// game: its connected transports plus the number-calling handle. The
// room mutex is the per-session serialization point: joins, mark
// submissions, scheduler ticks and broadcasts for one game all run
// under it.
type Room struct {
	gameID string

	mu         sync.Mutex
	transports map[Transport]struct{}
	sched      *scheduler
	// dead is set when the registry reaps the room. A handle obtained
	// before the reap must not be used once it observes dead.
	dead bool
}

// Registry maps game ids to live rooms. Rooms are created lazily on
// first use and destroyed once they have no transports and no running
// scheduler.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room
}

func NewRegistry() *Registry {
	return &Registry{rooms: map[string]*Room{}}
}

// room returns the live room for a game id, creating it if absent.
func (r *Registry) room(gameID string) *Room {
	r.mu.Lock()
	defer r.mu.Unlock()
	rm, ok := r.rooms[gameID]
	if !ok {
		rm = &Room{gameID: gameID, transports: map[Transport]struct{}{}}
		r.rooms[gameID] = rm
	}
	return rm
}

// lockRoom returns the game's room with its mutex held. A room reaped
// between the lookup and the lock is detected via the dead flag and the
// lookup is retried, so the caller never operates on an orphaned room.
func (r *Registry) lockRoom(gameID string) *Room {
	for {
		rm := r.room(gameID)
		rm.mu.Lock()
		if !rm.dead {
			return rm
		}
		rm.mu.Unlock()
	}
}

// Attach adds a transport to the game's room and returns the connected
// count.
func (r *Registry) Attach(gameID string, t Transport) int {
	rm := r.lockRoom(gameID)
	defer rm.mu.Unlock()
	rm.transports[t] = struct{}{}
	return len(rm.transports)
}

// Detach removes a transport. The room is destroyed once no transports
// remain, unless its scheduler is still running: number calling is tied
// to game state, not to whether anyone is watching.
func (r *Registry) Detach(gameID string, t Transport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rm, ok := r.rooms[gameID]
	if !ok {
		return
	}
	rm.mu.Lock()
	delete(rm.transports, t)
	idle := len(rm.transports) == 0 && rm.sched == nil
	if idle {
		rm.dead = true
	}
	rm.mu.Unlock()
	if idle {
		delete(r.rooms, gameID)
	}
}

// Broadcast serializes the event once and delivers it to every open
// transport of the room. Best-effort, at-most-once per transport;
// per-transport ordering follows broadcast order on the room.
func (r *Registry) Broadcast(gameID string, e Event) {
	rm := r.lockRoom(gameID)
	defer rm.mu.Unlock()
	rm.broadcastLocked(e)
}

// broadcastLocked requires the room mutex.
func (rm *Room) broadcastLocked(e Event) {
	msg, err := json.Marshal(e)
	if err != nil {
		log.Error().Err(err).Str("game_id", rm.gameID).Msg("marshal event")
		return
	}
	for t := range rm.transports {
		if !t.Open() {
			continue
		}
		if err := t.Send(msg); err != nil {
			delete(rm.transports, t)
		}
	}
}

// reapIfIdle destroys the room when it has no transports and no
// running scheduler.
func (r *Registry) reapIfIdle(gameID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rm, ok := r.rooms[gameID]
	if !ok {
		return
	}
	rm.mu.Lock()
	idle := len(rm.transports) == 0 && rm.sched == nil
	if idle {
		rm.dead = true
	}
	rm.mu.Unlock()
	if idle {
		delete(r.rooms, gameID)
	}
}

// liveRooms reports the number of rooms currently held. Test hook.
func (r *Registry) liveRooms() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}
