package public

import (
	"context"
	"errors"
	"strings"

	"bingo-live/internal/ledger"
	"bingo-live/internal/store"
)

const maxNameLen = 64

// Service backs the public HTTP surface: account management, deposits
// and the game lobby. Joining and marking go through the websocket
// coordinator, not through here.
type Service struct {
	store  store.Store
	ledger *ledger.Ledger
}

func NewService(st store.Store, led *ledger.Ledger) *Service {
	return &Service{store: st, ledger: led}
}

func (s *Service) CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || len(name) > maxNameLen {
		return nil, ErrInvalidRequest
	}
	u, err := s.store.CreateUser(ctx, name)
	if err != nil {
		return nil, err
	}
	return userResponse(u), nil
}

func (s *Service) User(ctx context.Context, userID string) (*UserResponse, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return userResponse(u), nil
}

func (s *Service) Deposit(ctx context.Context, userID string, req DepositRequest) (*BalanceResponse, error) {
	if req.AmountCents <= 0 {
		return nil, ErrInvalidRequest
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, mapStoreErr(err)
	}
	ref := req.Reference
	if ref == "" {
		ref = store.NewID()
	}
	balance, err := s.ledger.CreditDeposit(ctx, userID, ref, req.AmountCents)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return &BalanceResponse{UserID: userID, BalanceCents: balance}, nil
}

func (s *Service) Transactions(ctx context.Context, userID string) (*TransactionsResponse, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, mapStoreErr(err)
	}
	items, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]TransactionItem, 0, len(items))
	for _, it := range items {
		out = append(out, TransactionItem{
			ID:          it.ID,
			Type:        it.Type,
			AmountCents: it.AmountCents,
			Status:      it.Status,
			RefType:     it.RefType,
			RefID:       it.RefID,
			CreatedAt:   it.CreatedAt,
		})
	}
	return &TransactionsResponse{Items: out}, nil
}

func (s *Service) CreateGame(ctx context.Context, req CreateGameRequest) (*GameItem, error) {
	if req.StakeCents <= 0 {
		return nil, ErrInvalidRequest
	}
	if req.Capacity < store.MinCapacity || req.Capacity > store.MaxCapacity {
		return nil, ErrInvalidRequest
	}
	g, err := s.store.CreateGame(ctx, req.StakeCents, req.Capacity)
	if err != nil {
		return nil, err
	}
	item := gameItem(g, 0)
	return &item, nil
}

func (s *Service) Games(ctx context.Context) (*GamesResponse, error) {
	games, err := s.store.ListGames(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]GameItem, 0, len(games))
	for _, g := range games {
		parts, err := s.store.GetParticipants(ctx, g.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, gameItem(&g, len(parts)))
	}
	return &GamesResponse{Items: out}, nil
}

func (s *Service) Game(ctx context.Context, gameID string) (*GameDetail, error) {
	g, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	parts, err := s.store.GetParticipants(ctx, gameID)
	if err != nil {
		return nil, err
	}
	outParts := make([]ParticipantItem, 0, len(parts))
	for _, p := range parts {
		outParts = append(outParts, ParticipantItem{
			ID:          p.ID,
			UserID:      p.UserID,
			MarkedCount: len(p.Marked),
			JoinedAt:    p.CreatedAt,
		})
	}
	called := g.CalledNumbers
	if called == nil {
		called = []int{}
	}
	return &GameDetail{
		GameItem:            gameItem(g, len(parts)),
		CalledNumbers:       called,
		CurrentNumber:       g.CurrentNumber,
		WinnerParticipantID: g.WinnerParticipantID,
		SettledAt:           g.SettledAt,
		Participants:        outParts,
	}, nil
}

func userResponse(u *store.User) *UserResponse {
	return &UserResponse{ID: u.ID, Name: u.Name, BalanceCents: u.BalanceCents, CreatedAt: u.CreatedAt}
}

func gameItem(g *store.Game, players int) GameItem {
	return GameItem{
		ID:             g.ID,
		Status:         g.Status,
		StakeCents:     g.StakeCents,
		Capacity:       g.Capacity,
		PlayerCount:    players,
		PrizePoolCents: g.PrizePoolCents,
		CreatedAt:      g.CreatedAt,
	}
}

func mapStoreErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
