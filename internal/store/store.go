package store

import (
	"context"
	"errors"

	"bingo-live/internal/bingo"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientFunds = errors.New("insufficient_funds")
	ErrAlreadySettled    = errors.New("already_settled")
)

// Store is the durable collaborator consumed by the coordination engine.
// Debit and Credit mutate a user balance and record the matching
// completed transaction as one durable unit; AddParticipant inserts the
// participant row and grows the prize pool as one unit; SettleGame marks
// the game settled, sets the winner and credits the prize in one unit,
// failing with ErrAlreadySettled if a concurrent claim got there first.
type Store interface {
	CreateUser(ctx context.Context, name string) (*User, error)
	GetUser(ctx context.Context, userID string) (*User, error)
	Debit(ctx context.Context, userID string, amountCents int64, txType, refType, refID string) (int64, error)
	Credit(ctx context.Context, userID string, amountCents int64, txType, refType, refID string) (int64, error)
	ListTransactions(ctx context.Context, userID string) ([]Transaction, error)

	CreateGame(ctx context.Context, stakeCents int64, capacity int) (*Game, error)
	GetGame(ctx context.Context, gameID string) (*Game, error)
	ListGames(ctx context.Context) ([]Game, error)
	UpdateGameStatus(ctx context.Context, gameID, status string) error
	UpdateGameCalledNumbers(ctx context.Context, gameID string, numbers []int) error
	SettleGame(ctx context.Context, gameID, participantID, userID string) (int64, error)
	VoidGame(ctx context.Context, gameID string) error

	AddParticipant(ctx context.Context, gameID, userID string, card bingo.Card, stakeCents int64) (*Participant, error)
	GetParticipant(ctx context.Context, participantID string) (*Participant, error)
	GetParticipants(ctx context.Context, gameID string) ([]Participant, error)
	UpdateParticipantMarks(ctx context.Context, participantID string, marked []int) error

	Ping(ctx context.Context) error
}
