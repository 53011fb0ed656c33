package game

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"bingo-live/internal/ledger"
	"bingo-live/internal/store"
)

func newTestCoordinator(t *testing.T) (*Coordinator, *store.Memory) {
	t.Helper()
	st := store.NewMemory()
	c := NewCoordinator(st, ledger.New(st))
	c.CallInterval = time.Hour
	t.Cleanup(c.Shutdown)
	return c, st
}

func fundedUser(t *testing.T, st *store.Memory, name string, cents int64) *store.User {
	t.Helper()
	ctx := context.Background()
	u, err := st.CreateUser(ctx, name)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if cents > 0 {
		if _, err := st.Credit(ctx, u.ID, cents, store.TxDepositCredit, "deposit", "seed"); err != nil {
			t.Fatalf("seed balance: %v", err)
		}
	}
	return u
}

// winningMarks covers the top row of the participant's card.
func winningMarks(p *store.Participant) []int {
	return append([]int(nil), p.Card[0][:]...)
}

func eventTypes(tr *fakeTransport) []string {
	var types []string
	for _, raw := range tr.messages() {
		var env struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(raw, &env); err == nil {
			types = append(types, env.Type)
		}
	}
	return types
}

func TestJoinUnknownGame(t *testing.T) {
	c, st := newTestCoordinator(t)
	u := fundedUser(t, st, "alice", 1000)
	if _, err := c.Join(context.Background(), "nope", u.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if c.registry.liveRooms() != 0 {
		t.Fatalf("failed join must not leak a room")
	}
}

func TestJoinSettledGame(t *testing.T) {
	c, st := newTestCoordinator(t)
	ctx := context.Background()
	u := fundedUser(t, st, "alice", 1000)
	g, _ := st.CreateGame(ctx, 250, 4)
	if err := st.VoidGame(ctx, g.ID); err != nil {
		t.Fatalf("void: %v", err)
	}
	if _, err := c.Join(ctx, g.ID, u.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestJoinInsufficientFunds(t *testing.T) {
	c, st := newTestCoordinator(t)
	ctx := context.Background()
	u := fundedUser(t, st, "alice", 100)
	g, _ := st.CreateGame(ctx, 250, 4)
	if _, err := c.Join(ctx, g.ID, u.ID); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	got, _ := st.GetUser(ctx, u.ID)
	if got.BalanceCents != 100 {
		t.Fatalf("balance touched on rejected join: %d", got.BalanceCents)
	}
}

func TestJoinTwiceSameUser(t *testing.T) {
	c, st := newTestCoordinator(t)
	ctx := context.Background()
	u := fundedUser(t, st, "alice", 1000)
	g, _ := st.CreateGame(ctx, 250, 4)
	if _, err := c.Join(ctx, g.ID, u.ID); err != nil {
		t.Fatalf("first join: %v", err)
	}
	if _, err := c.Join(ctx, g.ID, u.ID); !errors.Is(err, ErrAlreadyJoined) {
		t.Fatalf("expected ErrAlreadyJoined, got %v", err)
	}
	got, _ := st.GetUser(ctx, u.ID)
	if got.BalanceCents != 750 {
		t.Fatalf("balance = %d, want 750 after a single stake", got.BalanceCents)
	}
}

func TestJoinActivatesAtTwoPlayers(t *testing.T) {
	c, st := newTestCoordinator(t)
	ctx := context.Background()
	u1 := fundedUser(t, st, "alice", 1000)
	u2 := fundedUser(t, st, "bob", 1000)
	g, _ := st.CreateGame(ctx, 250, 4)

	tr := &fakeTransport{}
	c.Registry().Attach(g.ID, tr)

	if _, err := c.Join(ctx, g.ID, u1.ID); err != nil {
		t.Fatalf("join 1: %v", err)
	}
	mid, _ := st.GetGame(ctx, g.ID)
	if mid.Status != store.GameForming {
		t.Fatalf("one player should leave the game forming, got %q", mid.Status)
	}

	if _, err := c.Join(ctx, g.ID, u2.ID); err != nil {
		t.Fatalf("join 2: %v", err)
	}
	after, _ := st.GetGame(ctx, g.ID)
	if after.Status != store.GameActive {
		t.Fatalf("status = %q, want active", after.Status)
	}
	if after.PrizePoolCents != 500 {
		t.Fatalf("prize pool = %d, want 500", after.PrizePoolCents)
	}

	want := []string{EventPlayerJoined, EventPlayerJoined, EventGameStarted}
	got := eventTypes(tr)
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events = %v, want %v", got, want)
		}
	}

	rm := c.registry.room(g.ID)
	rm.mu.Lock()
	running := rm.sched != nil
	rm.mu.Unlock()
	if !running {
		t.Fatalf("activation should start the calling loop")
	}
}

func TestJoinFullGame(t *testing.T) {
	c, st := newTestCoordinator(t)
	ctx := context.Background()
	g, _ := st.CreateGame(ctx, 250, 2)
	for _, name := range []string{"alice", "bob"} {
		u := fundedUser(t, st, name, 1000)
		if _, err := c.Join(ctx, g.ID, u.ID); err != nil {
			t.Fatalf("join %s: %v", name, err)
		}
	}
	late := fundedUser(t, st, "carol", 1000)
	if _, err := c.Join(ctx, g.ID, late.ID); !errors.Is(err, ErrFull) {
		t.Fatalf("expected ErrFull, got %v", err)
	}
	got, _ := st.GetUser(ctx, late.ID)
	if got.BalanceCents != 1000 {
		t.Fatalf("rejected join must not debit, balance = %d", got.BalanceCents)
	}
}

func TestConcurrentJoinsRespectCapacity(t *testing.T) {
	c, st := newTestCoordinator(t)
	ctx := context.Background()
	g, _ := st.CreateGame(ctx, 250, 2)

	users := make([]*store.User, 4)
	for i, name := range []string{"a", "b", "c", "d"} {
		users[i] = fundedUser(t, st, name, 1000)
	}

	var wg sync.WaitGroup
	errs := make([]error, len(users))
	for i, u := range users {
		wg.Add(1)
		go func(i int, userID string) {
			defer wg.Done()
			_, errs[i] = c.Join(ctx, g.ID, userID)
		}(i, u.ID)
	}
	wg.Wait()

	joined := 0
	for i, err := range errs {
		switch {
		case err == nil:
			joined++
		case errors.Is(err, ErrFull):
			got, _ := st.GetUser(ctx, users[i].ID)
			if got.BalanceCents != 1000 {
				t.Fatalf("rejected user %s lost money: %d", users[i].ID, got.BalanceCents)
			}
		default:
			t.Fatalf("unexpected join error: %v", err)
		}
	}
	if joined != 2 {
		t.Fatalf("joined = %d, want exactly 2", joined)
	}
	got, _ := st.GetGame(ctx, g.ID)
	if got.PrizePoolCents != 500 {
		t.Fatalf("prize pool = %d, want 500", got.PrizePoolCents)
	}
}

func TestWinSettlesExactlyOnce(t *testing.T) {
	c, st := newTestCoordinator(t)
	ctx := context.Background()
	u1 := fundedUser(t, st, "alice", 1000)
	u2 := fundedUser(t, st, "bob", 1000)
	g, _ := st.CreateGame(ctx, 250, 4)

	tr := &fakeTransport{}
	c.Registry().Attach(g.ID, tr)

	p1, err := c.Join(ctx, g.ID, u1.ID)
	if err != nil {
		t.Fatalf("join 1: %v", err)
	}
	p2, err := c.Join(ctx, g.ID, u2.ID)
	if err != nil {
		t.Fatalf("join 2: %v", err)
	}

	// A non-winning set persists without settling anything.
	res, err := c.SubmitMark(ctx, g.ID, p1.ID, winningMarks(p1)[:3])
	if err != nil {
		t.Fatalf("mark: %v", err)
	}
	if res.Bingo || res.Won {
		t.Fatalf("partial row must not win: %+v", res)
	}
	stored, _ := st.GetParticipant(ctx, p1.ID)
	if len(stored.Marked) != 3 {
		t.Fatalf("marks not persisted: %v", stored.Marked)
	}

	res, err = c.SubmitMark(ctx, g.ID, p1.ID, winningMarks(p1))
	if err != nil {
		t.Fatalf("winning mark: %v", err)
	}
	if !res.Bingo || !res.Won || res.PrizeCents != 500 {
		t.Fatalf("winner result = %+v, want bingo/won with prize 500", res)
	}

	res, err = c.SubmitMark(ctx, g.ID, p2.ID, winningMarks(p2))
	if err != nil {
		t.Fatalf("late mark: %v", err)
	}
	if !res.Bingo || res.Won || res.PrizeCents != 0 {
		t.Fatalf("late winner must not be paid: %+v", res)
	}

	winner, _ := st.GetUser(ctx, u1.ID)
	if winner.BalanceCents != 1250 {
		t.Fatalf("winner balance = %d, want 1250", winner.BalanceCents)
	}
	loser, _ := st.GetUser(ctx, u2.ID)
	if loser.BalanceCents != 750 {
		t.Fatalf("loser balance = %d, want 750", loser.BalanceCents)
	}
	final, _ := st.GetGame(ctx, g.ID)
	if final.Status != store.GameSettled || final.WinnerParticipantID == nil || *final.WinnerParticipantID != p1.ID {
		t.Fatalf("game not settled to %s: %+v", p1.ID, final)
	}

	wins := 0
	for _, typ := range eventTypes(tr) {
		if typ == EventGameWon {
			wins++
		}
	}
	if wins != 1 {
		t.Fatalf("game_won broadcast %d times, want 1", wins)
	}
}

// Two complete cards claimed at the same instant must still produce a
// single settlement: one paid winner, one game_won broadcast, one prize
// entry in the ledger.
func TestSimultaneousWinClaimsSettleOnce(t *testing.T) {
	c, st := newTestCoordinator(t)
	ctx := context.Background()
	u1 := fundedUser(t, st, "alice", 1000)
	u2 := fundedUser(t, st, "bob", 1000)
	g, _ := st.CreateGame(ctx, 250, 2)

	tr := &fakeTransport{}
	c.Registry().Attach(g.ID, tr)

	p1, err := c.Join(ctx, g.ID, u1.ID)
	if err != nil {
		t.Fatalf("join 1: %v", err)
	}
	p2, err := c.Join(ctx, g.ID, u2.ID)
	if err != nil {
		t.Fatalf("join 2: %v", err)
	}

	parts := []*store.Participant{p1, p2}
	users := []*store.User{u1, u2}
	results := make([]MarkResult, len(parts))
	errs := make([]error, len(parts))
	var wg sync.WaitGroup
	for i, p := range parts {
		wg.Add(1)
		go func(i int, p *store.Participant) {
			defer wg.Done()
			results[i], errs[i] = c.SubmitMark(ctx, g.ID, p.ID, winningMarks(p))
		}(i, p)
	}
	wg.Wait()

	winners := 0
	winnerIdx := -1
	for i := range parts {
		if errs[i] != nil {
			t.Fatalf("claim %d: %v", i, errs[i])
		}
		if !results[i].Bingo {
			t.Fatalf("claim %d should report bingo: %+v", i, results[i])
		}
		if results[i].Won {
			winners++
			winnerIdx = i
			if results[i].PrizeCents != 500 {
				t.Fatalf("prize = %d, want 500", results[i].PrizeCents)
			}
		}
	}
	if winners != 1 {
		t.Fatalf("won = %d claims, want exactly 1", winners)
	}

	final, _ := st.GetGame(ctx, g.ID)
	if final.Status != store.GameSettled || final.WinnerParticipantID == nil || *final.WinnerParticipantID != parts[winnerIdx].ID {
		t.Fatalf("game not settled to %s: %+v", parts[winnerIdx].ID, final)
	}

	for i, u := range users {
		got, _ := st.GetUser(ctx, u.ID)
		want := int64(750)
		if i == winnerIdx {
			want = 1250
		}
		if got.BalanceCents != want {
			t.Fatalf("balance for %s = %d, want %d", u.ID, got.BalanceCents, want)
		}
		txs, _ := st.ListTransactions(ctx, u.ID)
		prizes := 0
		for _, tx := range txs {
			if tx.Type == store.TxPrizeCredit {
				prizes++
			}
		}
		wantPrizes := 0
		if i == winnerIdx {
			wantPrizes = 1
		}
		if prizes != wantPrizes {
			t.Fatalf("prize credits for %s = %d, want %d", u.ID, prizes, wantPrizes)
		}
	}

	wins := 0
	for _, typ := range eventTypes(tr) {
		if typ == EventGameWon {
			wins++
		}
	}
	if wins != 1 {
		t.Fatalf("game_won broadcast %d times, want 1", wins)
	}
}

func TestSubmitMarkWrongGame(t *testing.T) {
	c, st := newTestCoordinator(t)
	ctx := context.Background()
	u := fundedUser(t, st, "alice", 1000)
	g1, _ := st.CreateGame(ctx, 250, 4)
	g2, _ := st.CreateGame(ctx, 250, 4)
	p, err := c.Join(ctx, g1.ID, u.ID)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := c.SubmitMark(ctx, g2.ID, p.ID, []int{1}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign participant, got %v", err)
	}
	if _, err := c.SubmitMark(ctx, g1.ID, "missing", []int{1}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown participant, got %v", err)
	}
}

func TestDrawExhaustionVoidsGame(t *testing.T) {
	c, st := newTestCoordinator(t)
	c.CallInterval = 2 * time.Millisecond
	ctx := context.Background()
	u1 := fundedUser(t, st, "alice", 1000)
	u2 := fundedUser(t, st, "bob", 1000)
	g, _ := st.CreateGame(ctx, 250, 2)

	tr := &fakeTransport{}
	c.Registry().Attach(g.ID, tr)

	if _, err := c.Join(ctx, g.ID, u1.ID); err != nil {
		t.Fatalf("join 1: %v", err)
	}
	all := make([]int, 75)
	for i := range all {
		all[i] = i + 1
	}
	if err := st.UpdateGameCalledNumbers(ctx, g.ID, all); err != nil {
		t.Fatalf("exhaust numbers: %v", err)
	}
	if _, err := c.Join(ctx, g.ID, u2.ID); err != nil {
		t.Fatalf("join 2: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		got, _ := st.GetGame(ctx, g.ID)
		if got.Status == store.GameSettled {
			if got.WinnerParticipantID != nil {
				t.Fatalf("voided game must have no winner: %+v", got)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("game never voided")
		}
		time.Sleep(5 * time.Millisecond)
	}

	for _, id := range []string{u1.ID, u2.ID} {
		got, _ := st.GetUser(ctx, id)
		if got.BalanceCents != 1000 {
			t.Fatalf("stake not refunded for %s: %d", id, got.BalanceCents)
		}
	}

	voids := 0
	for _, typ := range eventTypes(tr) {
		if typ == EventGameVoid {
			voids++
		}
	}
	if voids != 1 {
		t.Fatalf("game_void broadcast %d times, want 1", voids)
	}

	c.Registry().Detach(g.ID, tr)
	deadline = time.Now().Add(time.Second)
	for c.registry.liveRooms() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("room not reaped after void and detach")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestResumeRestartsActiveGames(t *testing.T) {
	c, st := newTestCoordinator(t)
	ctx := context.Background()
	g, _ := st.CreateGame(ctx, 250, 4)
	if err := st.UpdateGameStatus(ctx, g.ID, store.GameActive); err != nil {
		t.Fatalf("activate: %v", err)
	}
	other, _ := st.CreateGame(ctx, 250, 4)

	if err := c.Resume(ctx); err != nil {
		t.Fatalf("resume: %v", err)
	}
	rm := c.registry.room(g.ID)
	rm.mu.Lock()
	running := rm.sched != nil
	rm.mu.Unlock()
	if !running {
		t.Fatalf("active game should resume calling")
	}

	r := c.registry
	r.mu.Lock()
	_, formingRoom := r.rooms[other.ID]
	r.mu.Unlock()
	if formingRoom {
		t.Fatalf("forming game must not get a room on resume")
	}
}

type recordingAnnouncer struct {
	mu     sync.Mutex
	events []Event
}

func (a *recordingAnnouncer) Announce(_ string, e Event) {
	a.mu.Lock()
	a.events = append(a.events, e)
	a.mu.Unlock()
}

func (a *recordingAnnouncer) types() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []string
	for _, e := range a.events {
		switch e.(type) {
		case PlayerJoinedEvent:
			out = append(out, EventPlayerJoined)
		case GameStartedEvent:
			out = append(out, EventGameStarted)
		case NumberCalledEvent:
			out = append(out, EventNumberCalled)
		case GameWonEvent:
			out = append(out, EventGameWon)
		case GameVoidEvent:
			out = append(out, EventGameVoid)
		}
	}
	return out
}

func TestNotifierHearsLifecycleEvents(t *testing.T) {
	c, st := newTestCoordinator(t)
	ctx := context.Background()
	ann := &recordingAnnouncer{}
	c.Notifier = ann

	u1 := fundedUser(t, st, "alice", 1000)
	u2 := fundedUser(t, st, "bob", 1000)
	g, _ := st.CreateGame(ctx, 250, 4)

	p1, err := c.Join(ctx, g.ID, u1.ID)
	if err != nil {
		t.Fatalf("join u1: %v", err)
	}
	if _, err := c.Join(ctx, g.ID, u2.ID); err != nil {
		t.Fatalf("join u2: %v", err)
	}
	if _, err := c.SubmitMark(ctx, g.ID, p1.ID, winningMarks(p1)); err != nil {
		t.Fatalf("submit mark: %v", err)
	}

	want := []string{EventPlayerJoined, EventPlayerJoined, EventGameStarted, EventGameWon}
	got := ann.types()
	if len(got) != len(want) {
		t.Fatalf("announced = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("announced = %v, want %v", got, want)
		}
	}
}

func TestSchedulerCallsWithoutDuplicates(t *testing.T) {
	c, st := newTestCoordinator(t)
	c.CallInterval = 2 * time.Millisecond
	ctx := context.Background()
	u1 := fundedUser(t, st, "alice", 1000)
	u2 := fundedUser(t, st, "bob", 1000)
	g, _ := st.CreateGame(ctx, 250, 2)

	if _, err := c.Join(ctx, g.ID, u1.ID); err != nil {
		t.Fatalf("join 1: %v", err)
	}
	if _, err := c.Join(ctx, g.ID, u2.ID); err != nil {
		t.Fatalf("join 2: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	var called []int
	for {
		got, _ := st.GetGame(ctx, g.ID)
		called = got.CalledNumbers
		if len(called) >= 10 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("only %d numbers called before deadline", len(called))
		}
		time.Sleep(5 * time.Millisecond)
	}

	seen := map[int]bool{}
	for _, n := range called {
		if n < 1 || n > 75 {
			t.Fatalf("called number %d out of range", n)
		}
		if seen[n] {
			t.Fatalf("number %d called twice: %v", n, called)
		}
		seen[n] = true
	}
}
