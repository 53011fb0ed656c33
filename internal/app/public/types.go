package public

import "time"

type CreateUserRequest struct {
	Name string `json:"name"`
}

type UserResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	BalanceCents int64     `json:"balance_cents"`
	CreatedAt    time.Time `json:"created_at"`
}

type DepositRequest struct {
	AmountCents int64  `json:"amount_cents"`
	Reference   string `json:"reference,omitempty"`
}

type BalanceResponse struct {
	UserID       string `json:"user_id"`
	BalanceCents int64  `json:"balance_cents"`
}

type TransactionsResponse struct {
	Items []TransactionItem `json:"items"`
}

type TransactionItem struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	AmountCents int64     `json:"amount_cents"`
	Status      string    `json:"status"`
	RefType     string    `json:"ref_type"`
	RefID       string    `json:"ref_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type CreateGameRequest struct {
	StakeCents int64 `json:"stake_cents"`
	Capacity   int   `json:"capacity"`
}

type GamesResponse struct {
	Items []GameItem `json:"items"`
}

type GameItem struct {
	ID             string    `json:"id"`
	Status         string    `json:"status"`
	StakeCents     int64     `json:"stake_cents"`
	Capacity       int       `json:"capacity"`
	PlayerCount    int       `json:"player_count"`
	PrizePoolCents int64     `json:"prize_pool_cents"`
	CreatedAt      time.Time `json:"created_at"`
}

type GameDetail struct {
	GameItem
	CalledNumbers       []int             `json:"called_numbers"`
	CurrentNumber       *int              `json:"current_number"`
	WinnerParticipantID *string           `json:"winner_participant_id"`
	SettledAt           *time.Time        `json:"settled_at"`
	Participants        []ParticipantItem `json:"participants"`
}

type ParticipantItem struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	MarkedCount int       `json:"marked_count"`
	JoinedAt    time.Time `json:"joined_at"`
}
