package game

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"bingo-live/internal/bingo"
	"bingo-live/internal/store"
)

// DefaultCallInterval is the fixed cadence of number calls. Not
// configurable per game.
const DefaultCallInterval = 5 * time.Second

// scheduler is the per-room number-calling handle. It moves from idle
// (room.sched == nil) to running to stopped; once stopped it is never
// restarted, the room allocates a fresh one.
type scheduler struct {
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func newScheduler() *scheduler {
	return &scheduler{stop: make(chan struct{}), done: make(chan struct{})}
}

func (s *scheduler) signalStop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// startCallingLocked launches the calling loop for a room. Requires the
// room mutex; no-op if a scheduler is already running.
func (c *Coordinator) startCallingLocked(rm *Room) {
	if rm.sched != nil {
		return
	}
	s := newScheduler()
	rm.sched = s
	go c.runScheduler(rm, s)
	log.Info().Str("game_id", rm.gameID).Dur("interval", c.CallInterval).Msg("number calling started")
}

func (c *Coordinator) runScheduler(rm *Room, s *scheduler) {
	defer close(s.done)
	ticker := time.NewTicker(c.CallInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			c.clearScheduler(rm, s)
			return
		case <-ticker.C:
			if c.tick(rm, s) {
				c.clearScheduler(rm, s)
				c.registry.reapIfIdle(rm.gameID)
				return
			}
		}
	}
}

func (c *Coordinator) clearScheduler(rm *Room, s *scheduler) {
	rm.mu.Lock()
	if rm.sched == s {
		rm.sched = nil
	}
	rm.mu.Unlock()
}

// tick draws one uncalled number, persists the extended sequence and
// broadcasts it. Returns true when the loop should stop. A storage
// failure skips the tick; the next one retries.
func (c *Coordinator) tick(rm *Room, s *scheduler) bool {
	ctx := context.Background()
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.sched != s {
		return true
	}

	g, err := c.store.GetGame(ctx, rm.gameID)
	if err != nil {
		log.Error().Err(err).Str("game_id", rm.gameID).Msg("call tick: load game")
		return errors.Is(err, store.ErrNotFound)
	}
	if g.Status != store.GameActive {
		return true
	}

	remaining := uncalled(g.CalledNumbers)
	if len(remaining) == 0 {
		c.voidLocked(ctx, rm, g)
		return true
	}

	n := remaining[rand.Intn(len(remaining))]
	called := append(g.CalledNumbers, n)
	if err := c.store.UpdateGameCalledNumbers(ctx, rm.gameID, called); err != nil {
		log.Error().Err(err).Str("game_id", rm.gameID).Int("number", n).Msg("call tick: persist")
		return false
	}

	ev := NumberCalledEvent{
		Type:          EventNumberCalled,
		Number:        n,
		Label:         bingo.Letter(n),
		CalledNumbers: called,
	}
	rm.broadcastLocked(ev)
	c.announce(rm.gameID, ev)
	log.Debug().Str("game_id", rm.gameID).Str("call", bingo.Letter(n)).Int("number", n).Int("called", len(called)).Msg("number called")
	return false
}

// voidLocked settles a fully exhausted game as a no-contest: stakes are
// refunded and the game ends with no winner. Requires the room mutex.
func (c *Coordinator) voidLocked(ctx context.Context, rm *Room, g *store.Game) {
	if err := c.store.VoidGame(ctx, g.ID); err != nil {
		if !errors.Is(err, store.ErrAlreadySettled) {
			log.Error().Err(err).Str("game_id", g.ID).Msg("void game")
		}
		return
	}
	parts, err := c.store.GetParticipants(ctx, g.ID)
	if err != nil {
		log.Error().Err(err).Str("game_id", g.ID).Msg("void game: load participants")
	}
	for _, p := range parts {
		if _, err := c.ledger.RefundStake(ctx, p.UserID, g.ID, g.StakeCents); err != nil {
			log.Error().Err(err).Str("game_id", g.ID).Str("user_id", p.UserID).Msg("void game: refund stake")
		}
	}
	rm.broadcastLocked(GameVoidEvent{Type: EventGameVoid, RefundAmount: g.StakeCents})
	c.announce(g.ID, GameVoidEvent{Type: EventGameVoid, RefundAmount: g.StakeCents})
	log.Info().Str("game_id", g.ID).Int("participants", len(parts)).Msg("game voided, numbers exhausted")
}

// uncalled returns 1..75 minus the already-called sequence.
func uncalled(called []int) []int {
	seen := make(map[int]bool, len(called))
	for _, n := range called {
		seen[n] = true
	}
	out := make([]int, 0, bingo.MaxNumber-len(called))
	for n := 1; n <= bingo.MaxNumber; n++ {
		if !seen[n] {
			out = append(out, n)
		}
	}
	return out
}
