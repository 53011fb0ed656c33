package push

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"bingo-live/internal/game"
	"bingo-live/internal/push/platforms"
)

type callState struct {
	lastSentAt time.Time
}

type breakerState struct {
	consecutiveFailures int
	openUntil           time.Time
}

// Manager fans room events out to configured webhook targets. It
// implements game.Announcer; Announce never blocks the caller, a full
// dispatch queue drops the notice.
type Manager struct {
	cfg      Config
	router   Router
	adapters map[string]platforms.Adapter

	dispatchCh chan pushJob
	retryQ     *retryQueue
	done       chan struct{}

	mu           sync.Mutex
	started      bool
	callByGame   map[string]callState
	breakerByKey map[string]breakerState
}

var _ game.Announcer = (*Manager)(nil)

func NewManager(cfg Config) *Manager {
	client := platforms.NewHTTPClient(cfg.RequestTimeout)
	adapters := map[string]platforms.Adapter{
		"discord": platforms.NewDiscordAdapter(client),
		"feishu":  platforms.NewFeishuAdapter(client),
	}
	if cfg.DispatchBuffer <= 0 {
		cfg.DispatchBuffer = 1024
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}
	if cfg.CallMinInterval <= 0 {
		cfg.CallMinInterval = 3 * time.Second
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.CircuitOpenDuration <= 0 {
		cfg.CircuitOpenDuration = 30 * time.Second
	}

	m := &Manager{
		cfg:          cfg,
		router:       Router{},
		adapters:     adapters,
		dispatchCh:   make(chan pushJob, cfg.DispatchBuffer),
		done:         make(chan struct{}),
		callByGame:   map[string]callState{},
		breakerByKey: map[string]breakerState{},
	}
	m.retryQ = newRetryQueue(m.dispatchCh, m.done)
	return m
}

func (m *Manager) Start(ctx context.Context) error {
	if !m.cfg.Enabled {
		return nil
	}

	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = true
	m.mu.Unlock()

	for i := 0; i < m.cfg.Workers; i++ {
		go m.worker(ctx)
	}
	if m.cfg.ConfigPath != "" {
		go m.watchConfigLoop(ctx)
	}
	go func() {
		<-ctx.Done()
		close(m.done)
	}()
	return nil
}

// Announce receives one room event. Called with the room mutex held, so
// everything past routing is queued work.
func (m *Manager) Announce(gameID string, e game.Event) {
	if !m.cfg.Enabled {
		return
	}
	n, ok := toNotice(gameID, e)
	if !ok {
		return
	}
	if n.EventType == game.EventNumberCalled && !m.allowCall(n) {
		return
	}

	targets := m.router.MatchTargets(m.currentTargets(), n)
	if len(targets) == 0 {
		return
	}
	formatted, ok := FormatNotice(n)
	if !ok {
		return
	}
	for _, target := range targets {
		job := pushJob{Target: target, Notice: n, Formatted: formatted}
		if !m.enqueue(job) {
			metricPushDroppedTotal.Add(1)
		}
	}

	if n.EventType == game.EventGameWon || n.EventType == game.EventGameVoid {
		m.forgetGame(gameID)
	}
}

func toNotice(gameID string, e game.Event) (Notice, bool) {
	switch ev := e.(type) {
	case game.PlayerJoinedEvent:
		return Notice{GameID: gameID, EventType: ev.Type, PlayerCount: ev.PlayerCount}, true
	case game.GameStartedEvent:
		return Notice{GameID: gameID, EventType: ev.Type}, true
	case game.NumberCalledEvent:
		return Notice{GameID: gameID, EventType: ev.Type, Number: ev.Number, Label: ev.Label, CalledCount: len(ev.CalledNumbers)}, true
	case game.GameWonEvent:
		return Notice{GameID: gameID, EventType: ev.Type, WinnerID: ev.WinnerID, PrizeCents: ev.PrizeAmount}, true
	case game.GameVoidEvent:
		return Notice{GameID: gameID, EventType: ev.Type, RefundCents: ev.RefundAmount}, true
	default:
		return Notice{}, false
	}
}

// allowCall rate-limits number_called notices per game so a webhook
// channel is not flooded at the full calling cadence.
func (m *Manager) allowCall(n Notice) bool {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.callByGame[n.GameID]
	if !prev.lastSentAt.IsZero() && now.Sub(prev.lastSentAt) < m.cfg.CallMinInterval {
		return false
	}
	m.callByGame[n.GameID] = callState{lastSentAt: now}
	return true
}

func (m *Manager) forgetGame(gameID string) {
	m.mu.Lock()
	delete(m.callByGame, gameID)
	m.mu.Unlock()
}

func (m *Manager) enqueue(job pushJob) bool {
	select {
	case <-m.done:
		return false
	case m.dispatchCh <- job:
		metricPushQueuedTotal.Add(1)
		metricPushQueueLen.Set(int64(len(m.dispatchCh)))
		return true
	default:
		return false
	}
}

func (m *Manager) currentTargets() []Target {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Target, len(m.cfg.Targets))
	copy(out, m.cfg.Targets)
	return out
}

func (m *Manager) watchConfigLoop(ctx context.Context) {
	interval := m.cfg.ConfigReload
	if interval <= 0 {
		interval = time.Second
	}
	lastRaw := ""
	if raw, err := os.ReadFile(m.cfg.ConfigPath); err == nil {
		lastRaw = strings.TrimSpace(string(raw))
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.done:
			return
		case <-ticker.C:
			raw, err := os.ReadFile(m.cfg.ConfigPath)
			if err != nil {
				metricPushConfigReloadError.Add(1)
				continue
			}
			nextRaw := strings.TrimSpace(string(raw))
			if nextRaw == lastRaw {
				continue
			}
			targets, err := parseTargetsJSON(nextRaw)
			if err != nil {
				metricPushConfigReloadError.Add(1)
				continue
			}
			m.mu.Lock()
			m.cfg.Targets = targets
			m.mu.Unlock()
			lastRaw = nextRaw
			metricPushConfigReloadTotal.Add(1)
		}
	}
}
