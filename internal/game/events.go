package game

// Wire type tags for outbound room events.
const (
	EventPlayerJoined = "player_joined"
	EventGameStarted  = "game_started"
	EventNumberCalled = "number_called"
	EventGameWon      = "game_won"
	EventGameVoid     = "game_void"
)

// Event is the closed set of broadcastable room events.
type Event interface{ event() }

type PlayerJoinedEvent struct {
	Type        string `json:"type"`
	PlayerCount int    `json:"playerCount"`
}

type GameStartedEvent struct {
	Type string `json:"type"`
}

type NumberCalledEvent struct {
	Type          string `json:"type"`
	Number        int    `json:"number"`
	Label         string `json:"label"`
	CalledNumbers []int  `json:"calledNumbers"`
}

type GameWonEvent struct {
	Type        string `json:"type"`
	WinnerID    string `json:"winnerId"`
	PrizeAmount int64  `json:"prizeAmount"`
}

// GameVoidEvent announces a no-contest: every number was called with no
// winner, and each participant got their stake back.
type GameVoidEvent struct {
	Type         string `json:"type"`
	RefundAmount int64  `json:"refundAmount"`
}

func (PlayerJoinedEvent) event() {}
func (GameStartedEvent) event()  {}
func (NumberCalledEvent) event() {}
func (GameWonEvent) event()      {}
func (GameVoidEvent) event()     {}
