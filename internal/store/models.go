package store

import (
	"time"

	"bingo-live/internal/bingo"
)

// Game lifecycle states.
const (
	GameForming = "forming"
	GameActive  = "active"
	GameSettled = "settled"
)

// Participant capacity bounds for a game.
const (
	MinCapacity = 2
	MaxCapacity = 20
)

// Transaction entry types.
const (
	TxStakeDebit    = "stake_debit"
	TxPrizeCredit   = "prize_credit"
	TxStakeRefund   = "stake_refund"
	TxDepositCredit = "deposit_credit"
)

// Transaction statuses. The engine only appends completed entries,
// synchronously with the balance mutation they record.
const (
	TxStatusPending   = "pending"
	TxStatusCompleted = "completed"
	TxStatusFailed    = "failed"
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	BalanceCents int64     `json:"balance_cents"`
	CreatedAt    time.Time `json:"created_at"`
}

type Game struct {
	ID                  string     `json:"id"`
	Status              string     `json:"status"`
	StakeCents          int64      `json:"stake_cents"`
	Capacity            int        `json:"capacity"`
	PrizePoolCents      int64      `json:"prize_pool_cents"`
	CalledNumbers       []int      `json:"called_numbers"`
	CurrentNumber       *int       `json:"current_number"`
	WinnerParticipantID *string    `json:"winner_participant_id"`
	CreatedAt           time.Time  `json:"created_at"`
	SettledAt           *time.Time `json:"settled_at"`
}

type Participant struct {
	ID        string     `json:"id"`
	GameID    string     `json:"game_id"`
	UserID    string     `json:"user_id"`
	Card      bingo.Card `json:"card"`
	Marked    []int      `json:"marked"`
	CreatedAt time.Time  `json:"created_at"`
}

type Transaction struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Type        string    `json:"type"`
	AmountCents int64     `json:"amount_cents"`
	Status      string    `json:"status"`
	RefType     string    `json:"ref_type"`
	RefID       string    `json:"ref_id"`
	CreatedAt   time.Time `json:"created_at"`
}
