package store

import "context"

const schemaDDL = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	balance_cents BIGINT NOT NULL DEFAULT 0,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS games (
	id                    TEXT PRIMARY KEY,
	status                TEXT NOT NULL,
	stake_cents           BIGINT NOT NULL,
	capacity              INT NOT NULL,
	prize_pool_cents      BIGINT NOT NULL DEFAULT 0,
	called_numbers        JSONB NOT NULL DEFAULT '[]',
	current_number        INT,
	winner_participant_id TEXT,
	created_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
	settled_at            TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS participants (
	id         TEXT PRIMARY KEY,
	game_id    TEXT NOT NULL REFERENCES games(id),
	user_id    TEXT NOT NULL REFERENCES users(id),
	card       JSONB NOT NULL,
	marked     JSONB NOT NULL DEFAULT '[]',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (game_id, user_id)
);

CREATE TABLE IF NOT EXISTS transactions (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL REFERENCES users(id),
	type         TEXT NOT NULL,
	amount_cents BIGINT NOT NULL,
	status       TEXT NOT NULL,
	ref_type     TEXT NOT NULL,
	ref_id       TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_participants_game ON participants(game_id);
CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id);
`

// EnsureSchema applies the embedded DDL. Idempotent.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := p.DB.ExecContext(ctx, schemaDDL)
	return err
}
