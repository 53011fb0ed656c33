package ledger

import (
	"context"

	"bingo-live/internal/store"
)

// Ledger names the money movements of a bingo game over the store's
// transactional debit/credit primitives.
type Ledger struct {
	Store store.Store
}

func New(s store.Store) *Ledger {
	return &Ledger{Store: s}
}

func (l *Ledger) DebitStake(ctx context.Context, userID, gameID string, amountCents int64) (int64, error) {
	return l.Store.Debit(ctx, userID, amountCents, store.TxStakeDebit, "game", gameID)
}

// RefundStake compensates a stake debit, either because a later join
// step failed or because the game was voided on draw exhaustion.
func (l *Ledger) RefundStake(ctx context.Context, userID, gameID string, amountCents int64) (int64, error) {
	return l.Store.Credit(ctx, userID, amountCents, store.TxStakeRefund, "game", gameID)
}

func (l *Ledger) CreditDeposit(ctx context.Context, userID, reference string, amountCents int64) (int64, error) {
	return l.Store.Credit(ctx, userID, amountCents, store.TxDepositCredit, "deposit", reference)
}
