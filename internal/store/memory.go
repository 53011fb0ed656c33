package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"bingo-live/internal/bingo"
)

// Memory is an in-process Store used by tests and DSN-less local runs.
// A single mutex serializes all mutations, which subsumes the per-user
// balance discipline the Postgres implementation gets from row locks.
type Memory struct {
	mu           sync.Mutex
	users        map[string]*User
	games        map[string]*Game
	participants map[string]*Participant
	transactions []Transaction
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		users:        map[string]*User{},
		games:        map[string]*Game{},
		participants: map[string]*Participant{},
	}
}

func (m *Memory) Ping(ctx context.Context) error { return nil }

func (m *Memory) CreateUser(ctx context.Context, name string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &User{ID: NewID(), Name: name, CreatedAt: time.Now().UTC()}
	m.users[u.ID] = u
	out := *u
	return &out, nil
}

func (m *Memory) GetUser(ctx context.Context, userID string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	out := *u
	return &out, nil
}

func (m *Memory) Debit(ctx context.Context, userID string, amountCents int64, txType, refType, refID string) (int64, error) {
	if amountCents < 0 {
		return 0, errors.New("amount must be positive")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return 0, ErrNotFound
	}
	if u.BalanceCents < amountCents {
		return 0, ErrInsufficientFunds
	}
	u.BalanceCents -= amountCents
	m.appendTransaction(userID, txType, -amountCents, refType, refID)
	return u.BalanceCents, nil
}

func (m *Memory) Credit(ctx context.Context, userID string, amountCents int64, txType, refType, refID string) (int64, error) {
	if amountCents < 0 {
		return 0, errors.New("amount must be positive")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return 0, ErrNotFound
	}
	u.BalanceCents += amountCents
	m.appendTransaction(userID, txType, amountCents, refType, refID)
	return u.BalanceCents, nil
}

// appendTransaction must be called with the mutex held.
func (m *Memory) appendTransaction(userID, txType string, amountCents int64, refType, refID string) {
	m.transactions = append(m.transactions, Transaction{
		ID:          NewID(),
		UserID:      userID,
		Type:        txType,
		AmountCents: amountCents,
		Status:      TxStatusCompleted,
		RefType:     refType,
		RefID:       refID,
		CreatedAt:   time.Now().UTC(),
	})
}

func (m *Memory) ListTransactions(ctx context.Context, userID string) ([]Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Transaction{}
	for _, t := range m.transactions {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *Memory) CreateGame(ctx context.Context, stakeCents int64, capacity int) (*Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g := &Game{
		ID:            NewID(),
		Status:        GameForming,
		StakeCents:    stakeCents,
		Capacity:      capacity,
		CalledNumbers: []int{},
		CreatedAt:     time.Now().UTC(),
	}
	m.games[g.ID] = g
	return copyGame(g), nil
}

func (m *Memory) GetGame(ctx context.Context, gameID string) (*Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[gameID]
	if !ok {
		return nil, ErrNotFound
	}
	return copyGame(g), nil
}

func (m *Memory) ListGames(ctx context.Context) ([]Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Game{}
	for _, g := range m.games {
		out = append(out, *copyGame(g))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) UpdateGameStatus(ctx context.Context, gameID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[gameID]
	if !ok {
		return ErrNotFound
	}
	g.Status = status
	return nil
}

func (m *Memory) UpdateGameCalledNumbers(ctx context.Context, gameID string, numbers []int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[gameID]
	if !ok {
		return ErrNotFound
	}
	g.CalledNumbers = append([]int(nil), numbers...)
	g.CurrentNumber = nil
	if len(g.CalledNumbers) > 0 {
		last := g.CalledNumbers[len(g.CalledNumbers)-1]
		g.CurrentNumber = &last
	}
	return nil
}

func (m *Memory) SettleGame(ctx context.Context, gameID, participantID, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[gameID]
	if !ok {
		return 0, ErrNotFound
	}
	if g.Status == GameSettled {
		return 0, ErrAlreadySettled
	}
	u, ok := m.users[userID]
	if !ok {
		return 0, ErrNotFound
	}
	now := time.Now().UTC()
	winner := participantID
	g.Status = GameSettled
	g.WinnerParticipantID = &winner
	g.SettledAt = &now
	u.BalanceCents += g.PrizePoolCents
	m.appendTransaction(userID, TxPrizeCredit, g.PrizePoolCents, "game", gameID)
	return g.PrizePoolCents, nil
}

func (m *Memory) VoidGame(ctx context.Context, gameID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[gameID]
	if !ok {
		return ErrNotFound
	}
	if g.Status == GameSettled {
		return ErrAlreadySettled
	}
	now := time.Now().UTC()
	g.Status = GameSettled
	g.SettledAt = &now
	return nil
}

func (m *Memory) AddParticipant(ctx context.Context, gameID, userID string, card bingo.Card, stakeCents int64) (*Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[gameID]
	if !ok {
		return nil, ErrNotFound
	}
	g.PrizePoolCents += stakeCents
	pt := &Participant{
		ID:        NewID(),
		GameID:    gameID,
		UserID:    userID,
		Card:      card,
		Marked:    []int{},
		CreatedAt: time.Now().UTC(),
	}
	m.participants[pt.ID] = pt
	return copyParticipant(pt), nil
}

func (m *Memory) GetParticipant(ctx context.Context, participantID string) (*Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pt, ok := m.participants[participantID]
	if !ok {
		return nil, ErrNotFound
	}
	return copyParticipant(pt), nil
}

func (m *Memory) GetParticipants(ctx context.Context, gameID string) ([]Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Participant{}
	for _, pt := range m.participants {
		if pt.GameID == gameID {
			out = append(out, *copyParticipant(pt))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) UpdateParticipantMarks(ctx context.Context, participantID string, marked []int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pt, ok := m.participants[participantID]
	if !ok {
		return ErrNotFound
	}
	pt.Marked = append([]int(nil), marked...)
	return nil
}

func copyGame(g *Game) *Game {
	out := *g
	out.CalledNumbers = append([]int(nil), g.CalledNumbers...)
	if g.CurrentNumber != nil {
		n := *g.CurrentNumber
		out.CurrentNumber = &n
	}
	if g.WinnerParticipantID != nil {
		w := *g.WinnerParticipantID
		out.WinnerParticipantID = &w
	}
	if g.SettledAt != nil {
		t := *g.SettledAt
		out.SettledAt = &t
	}
	return &out
}

func copyParticipant(pt *Participant) *Participant {
	out := *pt
	out.Marked = append([]int(nil), pt.Marked...)
	return &out
}
