package ws

import "bingo-live/internal/bingo"

// Inbound message types.
const (
	MsgJoinRoom   = "join_room"
	MsgMarkNumber = "mark_number"
)

// Outbound reply types. Room events broadcast by the coordinator pass
// through unchanged; these cover the direct request/reply pairs.
const (
	MsgJoinResult = "join_result"
	MsgMarkResult = "mark_result"
	MsgError      = "error"
)

type JoinRoomMessage struct {
	Type   string `json:"type"`
	GameID string `json:"gameId"`
}

type MarkNumberMessage struct {
	Type          string `json:"type"`
	ParticipantID string `json:"participantId"`
	MarkedNumbers []int  `json:"markedNumbers"`
}

type JoinResult struct {
	Type          string      `json:"type"`
	Ok            bool        `json:"ok"`
	Error         string      `json:"error,omitempty"`
	GameID        string      `json:"gameId,omitempty"`
	ParticipantID string      `json:"participantId,omitempty"`
	Card          *bingo.Card `json:"card,omitempty"`
}

type MarkResultMessage struct {
	Type       string `json:"type"`
	Ok         bool   `json:"ok"`
	Error      string `json:"error,omitempty"`
	Bingo      bool   `json:"bingo"`
	Won        bool   `json:"won"`
	PrizeCents int64  `json:"prizeCents"`
}

type ErrorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}
