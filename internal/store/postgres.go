package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"bingo-live/internal/bingo"
)

// Postgres implements Store over a Postgres database.
type Postgres struct {
	DB *sql.DB
}

var _ Store = (*Postgres)(nil)

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &Postgres{DB: db}, nil
}

func (p *Postgres) Close() error {
	return p.DB.Close()
}

func (p *Postgres) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return p.DB.PingContext(ctx)
}

func (p *Postgres) CreateUser(ctx context.Context, name string) (*User, error) {
	u := User{ID: NewID(), Name: name}
	row := p.DB.QueryRowContext(ctx,
		`INSERT INTO users (id, name, balance_cents) VALUES ($1,$2,0) RETURNING created_at`, u.ID, u.Name)
	if err := row.Scan(&u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (p *Postgres) GetUser(ctx context.Context, userID string) (*User, error) {
	row := p.DB.QueryRowContext(ctx,
		`SELECT id, name, balance_cents, created_at FROM users WHERE id = $1`, userID)
	var u User
	if err := row.Scan(&u.ID, &u.Name, &u.BalanceCents, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Debit subtracts amountCents from the user's balance and records the
// completed transaction in the same database transaction. The row lock
// serializes concurrent mutations of one user's balance.
func (p *Postgres) Debit(ctx context.Context, userID string, amountCents int64, txType, refType, refID string) (int64, error) {
	if amountCents < 0 {
		return 0, errors.New("amount must be positive")
	}
	tx, err := p.DB.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var bal int64
	row := tx.QueryRowContext(ctx, `SELECT balance_cents FROM users WHERE id = $1 FOR UPDATE`, userID)
	if err := row.Scan(&bal); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	if bal < amountCents {
		return 0, ErrInsufficientFunds
	}
	newBal := bal - amountCents
	if _, err := tx.ExecContext(ctx, `UPDATE users SET balance_cents = $1 WHERE id = $2`, newBal, userID); err != nil {
		return 0, err
	}
	if err := insertTransaction(ctx, tx, userID, txType, -amountCents, refType, refID); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return newBal, nil
}

func (p *Postgres) Credit(ctx context.Context, userID string, amountCents int64, txType, refType, refID string) (int64, error) {
	if amountCents < 0 {
		return 0, errors.New("amount must be positive")
	}
	tx, err := p.DB.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var bal int64
	row := tx.QueryRowContext(ctx, `SELECT balance_cents FROM users WHERE id = $1 FOR UPDATE`, userID)
	if err := row.Scan(&bal); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	newBal := bal + amountCents
	if _, err := tx.ExecContext(ctx, `UPDATE users SET balance_cents = $1 WHERE id = $2`, newBal, userID); err != nil {
		return 0, err
	}
	if err := insertTransaction(ctx, tx, userID, txType, amountCents, refType, refID); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return newBal, nil
}

func insertTransaction(ctx context.Context, tx *sql.Tx, userID, txType string, amountCents int64, refType, refID string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (id, user_id, type, amount_cents, status, ref_type, ref_id) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		NewID(), userID, txType, amountCents, TxStatusCompleted, refType, refID)
	return err
}

func (p *Postgres) ListTransactions(ctx context.Context, userID string) ([]Transaction, error) {
	rows, err := p.DB.QueryContext(ctx,
		`SELECT id, user_id, type, amount_cents, status, ref_type, ref_id, created_at FROM transactions WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Transaction{}
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.AmountCents, &t.Status, &t.RefType, &t.RefID, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (p *Postgres) CreateGame(ctx context.Context, stakeCents int64, capacity int) (*Game, error) {
	g := Game{
		ID:            NewID(),
		Status:        GameForming,
		StakeCents:    stakeCents,
		Capacity:      capacity,
		CalledNumbers: []int{},
	}
	row := p.DB.QueryRowContext(ctx,
		`INSERT INTO games (id, status, stake_cents, capacity) VALUES ($1,$2,$3,$4) RETURNING created_at`,
		g.ID, g.Status, g.StakeCents, g.Capacity)
	if err := row.Scan(&g.CreatedAt); err != nil {
		return nil, err
	}
	return &g, nil
}

func (p *Postgres) GetGame(ctx context.Context, gameID string) (*Game, error) {
	row := p.DB.QueryRowContext(ctx,
		`SELECT id, status, stake_cents, capacity, prize_pool_cents, called_numbers, current_number, winner_participant_id, created_at, settled_at FROM games WHERE id = $1`, gameID)
	return scanGame(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (*Game, error) {
	var g Game
	var called []byte
	if err := row.Scan(&g.ID, &g.Status, &g.StakeCents, &g.Capacity, &g.PrizePoolCents,
		&called, &g.CurrentNumber, &g.WinnerParticipantID, &g.CreatedAt, &g.SettledAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(called, &g.CalledNumbers); err != nil {
		return nil, err
	}
	if g.CalledNumbers == nil {
		g.CalledNumbers = []int{}
	}
	return &g, nil
}

func (p *Postgres) ListGames(ctx context.Context) ([]Game, error) {
	rows, err := p.DB.QueryContext(ctx,
		`SELECT id, status, stake_cents, capacity, prize_pool_cents, called_numbers, current_number, winner_participant_id, created_at, settled_at FROM games ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Game{}
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

func (p *Postgres) UpdateGameStatus(ctx context.Context, gameID, status string) error {
	res, err := p.DB.ExecContext(ctx, `UPDATE games SET status = $1 WHERE id = $2`, status, gameID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (p *Postgres) UpdateGameCalledNumbers(ctx context.Context, gameID string, numbers []int) error {
	b, err := json.Marshal(numbers)
	if err != nil {
		return err
	}
	var current *int
	if len(numbers) > 0 {
		current = &numbers[len(numbers)-1]
	}
	res, err := p.DB.ExecContext(ctx,
		`UPDATE games SET called_numbers = $1, current_number = $2 WHERE id = $3`, b, current, gameID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// AddParticipant inserts the participant row and grows the game's prize
// pool in one database transaction, so a join can never leave a
// participant without their stake counted.
func (p *Postgres) AddParticipant(ctx context.Context, gameID, userID string, card bingo.Card, stakeCents int64) (*Participant, error) {
	cardJSON, err := json.Marshal(card)
	if err != nil {
		return nil, err
	}
	tx, err := p.DB.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	pt := Participant{ID: NewID(), GameID: gameID, UserID: userID, Card: card, Marked: []int{}}
	row := tx.QueryRowContext(ctx,
		`INSERT INTO participants (id, game_id, user_id, card) VALUES ($1,$2,$3,$4) RETURNING created_at`,
		pt.ID, pt.GameID, pt.UserID, cardJSON)
	if err := row.Scan(&pt.CreatedAt); err != nil {
		return nil, err
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE games SET prize_pool_cents = prize_pool_cents + $1 WHERE id = $2`, stakeCents, gameID)
	if err != nil {
		return nil, err
	}
	if err := requireRow(res); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &pt, nil
}

// SettleGame marks the game settled with the given winner and credits
// the prize pool to the winner's balance in one database transaction.
// The game row lock makes the settled check-and-set race free even
// without the engine's per-session serialization.
func (p *Postgres) SettleGame(ctx context.Context, gameID, participantID, userID string) (int64, error) {
	tx, err := p.DB.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var status string
	var prize int64
	row := tx.QueryRowContext(ctx, `SELECT status, prize_pool_cents FROM games WHERE id = $1 FOR UPDATE`, gameID)
	if err := row.Scan(&status, &prize); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	if status == GameSettled {
		return 0, ErrAlreadySettled
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE games SET status = $1, winner_participant_id = $2, settled_at = now() WHERE id = $3`,
		GameSettled, participantID, gameID); err != nil {
		return 0, err
	}

	var bal int64
	row = tx.QueryRowContext(ctx, `SELECT balance_cents FROM users WHERE id = $1 FOR UPDATE`, userID)
	if err := row.Scan(&bal); err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE users SET balance_cents = $1 WHERE id = $2`, bal+prize, userID); err != nil {
		return 0, err
	}
	if err := insertTransaction(ctx, tx, userID, TxPrizeCredit, prize, "game", gameID); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return prize, nil
}

// VoidGame settles a game with no winner. Used for draw exhaustion.
func (p *Postgres) VoidGame(ctx context.Context, gameID string) error {
	tx, err := p.DB.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var status string
	row := tx.QueryRowContext(ctx, `SELECT status FROM games WHERE id = $1 FOR UPDATE`, gameID)
	if err := row.Scan(&status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if status == GameSettled {
		return ErrAlreadySettled
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE games SET status = $1, settled_at = now() WHERE id = $2`, GameSettled, gameID); err != nil {
		return err
	}
	return tx.Commit()
}

func (p *Postgres) GetParticipant(ctx context.Context, participantID string) (*Participant, error) {
	row := p.DB.QueryRowContext(ctx,
		`SELECT id, game_id, user_id, card, marked, created_at FROM participants WHERE id = $1`, participantID)
	return scanParticipant(row)
}

func scanParticipant(row rowScanner) (*Participant, error) {
	var pt Participant
	var cardJSON, markedJSON []byte
	if err := row.Scan(&pt.ID, &pt.GameID, &pt.UserID, &cardJSON, &markedJSON, &pt.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(cardJSON, &pt.Card); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(markedJSON, &pt.Marked); err != nil {
		return nil, err
	}
	if pt.Marked == nil {
		pt.Marked = []int{}
	}
	return &pt, nil
}

func (p *Postgres) GetParticipants(ctx context.Context, gameID string) ([]Participant, error) {
	rows, err := p.DB.QueryContext(ctx,
		`SELECT id, game_id, user_id, card, marked, created_at FROM participants WHERE game_id = $1 ORDER BY created_at ASC`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Participant{}
	for rows.Next() {
		pt, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *pt)
	}
	return out, rows.Err()
}

func (p *Postgres) UpdateParticipantMarks(ctx context.Context, participantID string, marked []int) error {
	b, err := json.Marshal(marked)
	if err != nil {
		return err
	}
	res, err := p.DB.ExecContext(ctx, `UPDATE participants SET marked = $1 WHERE id = $2`, b, participantID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
