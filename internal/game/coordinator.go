package game

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"bingo-live/internal/bingo"
	"bingo-live/internal/ledger"
	"bingo-live/internal/store"
)

// Announcer receives a copy of every room broadcast for delivery
// outside the websocket fan-out. Implementations must not block; they
// are called with the room mutex held.
type Announcer interface {
	Announce(gameID string, e Event)
}

// Coordinator drives the lifecycle of live games: joins with stake
// debits, activation, number calling and exactly-once win settlement.
// All mutations of one game are serialized on its room mutex.
type Coordinator struct {
	store    store.Store
	ledger   *ledger.Ledger
	registry *Registry

	// CallInterval is the tick period of the calling loop. Tests
	// shrink it; production keeps the default.
	CallInterval time.Duration

	// Notifier, when set, hears every room broadcast. Optional.
	Notifier Announcer
}

func NewCoordinator(st store.Store, led *ledger.Ledger) *Coordinator {
	return &Coordinator{
		store:        st,
		ledger:       led,
		registry:     NewRegistry(),
		CallInterval: DefaultCallInterval,
	}
}

// Registry exposes the room registry for transport attach and detach.
func (c *Coordinator) Registry() *Registry {
	return c.registry
}

func (c *Coordinator) announce(gameID string, e Event) {
	if c.Notifier != nil {
		c.Notifier.Announce(gameID, e)
	}
}

// MarkResult is the synchronous outcome of one mark submission.
type MarkResult struct {
	Bingo      bool  `json:"bingo"`
	Won        bool  `json:"won"`
	PrizeCents int64 `json:"prizeCents"`
}

// Join enters a user into a game: validates state and funds, debits the
// stake, creates the participant with a fresh card and grows the prize
// pool. Activates the game and starts number calling once a second
// player is in. On failure nothing is left half-applied.
func (c *Coordinator) Join(ctx context.Context, gameID, userID string) (*store.Participant, error) {
	rm := c.registry.lockRoom(gameID)
	p, err := c.joinLocked(ctx, rm, gameID, userID)
	rm.mu.Unlock()
	if err != nil {
		c.registry.reapIfIdle(gameID)
		return nil, err
	}
	return p, nil
}

func (c *Coordinator) joinLocked(ctx context.Context, rm *Room, gameID, userID string) (*store.Participant, error) {
	g, err := c.store.GetGame(ctx, gameID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if g.Status == store.GameSettled {
		return nil, ErrInvalidState
	}

	parts, err := c.store.GetParticipants(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if len(parts) >= g.Capacity {
		return nil, ErrFull
	}
	for _, p := range parts {
		if p.UserID == userID {
			return nil, ErrAlreadyJoined
		}
	}

	u, err := c.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if u.BalanceCents < g.StakeCents {
		return nil, ErrInsufficientFunds
	}

	if _, err := c.ledger.DebitStake(ctx, userID, gameID, g.StakeCents); err != nil {
		if errors.Is(err, store.ErrInsufficientFunds) {
			return nil, ErrInsufficientFunds
		}
		return nil, err
	}
	p, err := c.store.AddParticipant(ctx, gameID, userID, bingo.NewCard(), g.StakeCents)
	if err != nil {
		// Undo the debit so a failed join leaves the balance intact.
		if _, rerr := c.ledger.RefundStake(ctx, userID, gameID, g.StakeCents); rerr != nil {
			log.Error().Err(rerr).Str("game_id", gameID).Str("user_id", userID).Msg("join rollback refund")
		}
		return nil, err
	}

	count := len(parts) + 1
	rm.broadcastLocked(PlayerJoinedEvent{Type: EventPlayerJoined, PlayerCount: count})
	c.announce(gameID, PlayerJoinedEvent{Type: EventPlayerJoined, PlayerCount: count})
	log.Info().Str("game_id", gameID).Str("user_id", userID).Int("players", count).Msg("player joined")

	if g.Status == store.GameForming && count >= store.MinCapacity {
		if err := c.store.UpdateGameStatus(ctx, gameID, store.GameActive); err != nil {
			log.Error().Err(err).Str("game_id", gameID).Msg("activate game")
			return p, nil
		}
		rm.broadcastLocked(GameStartedEvent{Type: EventGameStarted})
		c.announce(gameID, GameStartedEvent{Type: EventGameStarted})
		c.startCallingLocked(rm)
		log.Info().Str("game_id", gameID).Msg("game started")
	}
	return p, nil
}

// SubmitMark replaces a participant's marked set and evaluates it for a
// win. The first winning submission settles the game and pays the full
// prize pool; later ones see the game already settled and win nothing.
func (c *Coordinator) SubmitMark(ctx context.Context, gameID, participantID string, marked []int) (MarkResult, error) {
	rm := c.registry.lockRoom(gameID)
	res, err := c.submitMarkLocked(ctx, rm, gameID, participantID, marked)
	rm.mu.Unlock()
	c.registry.reapIfIdle(gameID)
	return res, err
}

func (c *Coordinator) submitMarkLocked(ctx context.Context, rm *Room, gameID, participantID string, marked []int) (MarkResult, error) {
	p, err := c.store.GetParticipant(ctx, participantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return MarkResult{}, ErrNotFound
		}
		return MarkResult{}, err
	}
	if p.GameID != gameID {
		return MarkResult{}, ErrNotFound
	}
	g, err := c.store.GetGame(ctx, gameID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return MarkResult{}, ErrNotFound
		}
		return MarkResult{}, err
	}

	if g.Status != store.GameSettled {
		if err := c.store.UpdateParticipantMarks(ctx, participantID, marked); err != nil {
			return MarkResult{}, err
		}
	}

	if !bingo.HasWin(p.Card, marked) {
		return MarkResult{}, nil
	}
	if g.Status != store.GameActive {
		// A winning pattern on a finished game pays nothing.
		return MarkResult{Bingo: true}, nil
	}

	prize, err := c.store.SettleGame(ctx, gameID, participantID, p.UserID)
	if err != nil {
		if errors.Is(err, store.ErrAlreadySettled) {
			return MarkResult{Bingo: true}, nil
		}
		return MarkResult{}, err
	}

	rm.broadcastLocked(GameWonEvent{Type: EventGameWon, WinnerID: participantID, PrizeAmount: prize})
	c.announce(gameID, GameWonEvent{Type: EventGameWon, WinnerID: participantID, PrizeAmount: prize})
	if rm.sched != nil {
		rm.sched.signalStop()
		rm.sched = nil
	}
	log.Info().Str("game_id", gameID).Str("participant_id", participantID).Int64("prize_cc", prize).Msg("game won")
	return MarkResult{Bingo: true, Won: true, PrizeCents: prize}, nil
}

// Resume restarts number calling for games left active by a previous
// run. Rooms carry no durable state of their own, so this is all the
// recovery a restart needs.
func (c *Coordinator) Resume(ctx context.Context) error {
	games, err := c.store.ListGames(ctx)
	if err != nil {
		return err
	}
	for _, g := range games {
		if g.Status != store.GameActive {
			continue
		}
		rm := c.registry.lockRoom(g.ID)
		c.startCallingLocked(rm)
		rm.mu.Unlock()
		log.Info().Str("game_id", g.ID).Msg("resumed active game")
	}
	return nil
}

// Shutdown stops every running calling loop and waits for the
// goroutines to exit.
func (c *Coordinator) Shutdown() {
	c.registry.mu.Lock()
	var scheds []*scheduler
	for _, rm := range c.registry.rooms {
		rm.mu.Lock()
		if rm.sched != nil {
			scheds = append(scheds, rm.sched)
		}
		rm.mu.Unlock()
	}
	c.registry.mu.Unlock()
	for _, s := range scheds {
		s.signalStop()
		<-s.done
	}
}
