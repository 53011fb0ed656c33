package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"bingo-live/internal/game"
	"bingo-live/internal/store"
)

var errSlowClient = errors.New("send buffer full")

// Client is one websocket connection. It doubles as the room transport
// the coordinator broadcasts through; a full send buffer drops the
// client rather than blocking a room.
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	userID string

	mu     sync.Mutex
	closed bool
	rooms  map[string]struct{}
}

func (c *Client) Send(msg []byte) error {
	if !c.Open() {
		return errors.New("client closed")
	}
	select {
	case c.send <- msg:
		return nil
	default:
		return errSlowClient
	}
}

func (c *Client) Open() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

// track records room membership; reports whether the game was new for
// this client.
func (c *Client) track(gameID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.rooms[gameID]; ok {
		return false
	}
	c.rooms[gameID] = struct{}{}
	return true
}

func (c *Client) untrack(gameID string) {
	c.mu.Lock()
	delete(c.rooms, gameID)
	c.mu.Unlock()
}

type Server struct {
	store    store.Store
	coord    *game.Coordinator
	upgrader websocket.Upgrader
}

func NewServer(st store.Store, coord *game.Coordinator) *Server {
	return &Server{
		store:    st,
		coord:    coord,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

// HandleWS authenticates the user_id query parameter, upgrades the
// connection and services it until the peer goes away.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id required", http.StatusBadRequest)
		return
	}
	if _, err := s.store.GetUser(r.Context(), userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "unknown user", http.StatusNotFound)
			return
		}
		http.Error(w, "storage unavailable", http.StatusInternalServerError)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &Client{conn: conn, send: make(chan []byte, 16), userID: userID, rooms: map[string]struct{}{}}
	log.Debug().Str("user_id", userID).Msg("ws connected")

	go s.writeLoop(c)
	s.readLoop(c)
}

func (s *Server) readLoop(c *Client) {
	defer func() {
		s.unregister(c)
		_ = c.conn.Close()
	}()
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		s.dispatch(c, msg)
	}
}

func (s *Server) writeLoop(c *Client) {
	for msg := range c.send {
		_ = c.conn.WriteMessage(websocket.TextMessage, msg)
	}
}

// dispatch handles one inbound frame and queues the reply.
func (s *Server) dispatch(c *Client, msg []byte) {
	var base struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &base); err != nil {
		c.reply(ErrorMessage{Type: MsgError, Error: "bad_request"})
		return
	}
	switch base.Type {
	case MsgJoinRoom:
		var m JoinRoomMessage
		if err := json.Unmarshal(msg, &m); err != nil || m.GameID == "" {
			c.reply(ErrorMessage{Type: MsgError, Error: "bad_request"})
			return
		}
		s.handleJoinRoom(c, m)
	case MsgMarkNumber:
		var m MarkNumberMessage
		if err := json.Unmarshal(msg, &m); err != nil || m.ParticipantID == "" {
			c.reply(ErrorMessage{Type: MsgError, Error: "bad_request"})
			return
		}
		s.handleMarkNumber(c, m)
	default:
		c.reply(ErrorMessage{Type: MsgError, Error: "unknown_type"})
	}
}

// handleJoinRoom attaches the connection to the room before joining so
// the caller sees its own player_joined and game_started events, then
// enters the user as a participant. A rejection on an existing game
// leaves the connection attached as a viewer.
func (s *Server) handleJoinRoom(c *Client, m JoinRoomMessage) {
	ctx := context.Background()
	fresh := c.track(m.GameID)
	if fresh {
		s.coord.Registry().Attach(m.GameID, c)
	}

	// Reconnect: an existing participant re-attaches (done above) and
	// gets its card back instead of paying a second stake.
	if existing := s.findParticipant(ctx, m.GameID, c.userID); existing != nil {
		card := existing.Card
		c.reply(JoinResult{Type: MsgJoinResult, Ok: true, GameID: m.GameID, ParticipantID: existing.ID, Card: &card})
		return
	}

	p, err := s.coord.Join(ctx, m.GameID, c.userID)
	if err != nil {
		if fresh && errors.Is(err, game.ErrNotFound) {
			c.untrack(m.GameID)
			s.coord.Registry().Detach(m.GameID, c)
		}
		c.reply(JoinResult{Type: MsgJoinResult, Error: errCode(err), GameID: m.GameID})
		return
	}
	card := p.Card
	c.reply(JoinResult{Type: MsgJoinResult, Ok: true, GameID: m.GameID, ParticipantID: p.ID, Card: &card})
}

func (s *Server) findParticipant(ctx context.Context, gameID, userID string) *store.Participant {
	parts, err := s.store.GetParticipants(ctx, gameID)
	if err != nil {
		return nil
	}
	for i := range parts {
		if parts[i].UserID == userID {
			return &parts[i]
		}
	}
	return nil
}

func (s *Server) handleMarkNumber(c *Client, m MarkNumberMessage) {
	ctx := context.Background()
	p, err := s.store.GetParticipant(ctx, m.ParticipantID)
	if err != nil {
		c.reply(MarkResultMessage{Type: MsgMarkResult, Error: errCode(mapStoreErr(err))})
		return
	}
	if p.UserID != c.userID {
		c.reply(MarkResultMessage{Type: MsgMarkResult, Error: "forbidden"})
		return
	}

	res, err := s.coord.SubmitMark(ctx, p.GameID, m.ParticipantID, m.MarkedNumbers)
	if err != nil {
		c.reply(MarkResultMessage{Type: MsgMarkResult, Error: errCode(err)})
		return
	}
	c.reply(MarkResultMessage{Type: MsgMarkResult, Ok: true, Bingo: res.Bingo, Won: res.Won, PrizeCents: res.PrizeCents})
}

func (s *Server) unregister(c *Client) {
	c.mu.Lock()
	c.closed = true
	rooms := make([]string, 0, len(c.rooms))
	for id := range c.rooms {
		rooms = append(rooms, id)
	}
	c.rooms = map[string]struct{}{}
	c.mu.Unlock()

	for _, id := range rooms {
		s.coord.Registry().Detach(id, c)
	}
	safeClose(c.send)
	log.Debug().Str("user_id", c.userID).Msg("ws disconnected")
}

func (c *Client) reply(v any) {
	msg, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = c.Send(msg)
}

func safeClose(ch chan []byte) {
	defer func() {
		_ = recover()
	}()
	close(ch)
}

func mapStoreErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return game.ErrNotFound
	}
	return err
}

func errCode(err error) string {
	switch {
	case errors.Is(err, game.ErrNotFound):
		return "not_found"
	case errors.Is(err, game.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, game.ErrFull):
		return "game_full"
	case errors.Is(err, game.ErrAlreadyJoined):
		return "already_joined"
	case errors.Is(err, game.ErrInsufficientFunds):
		return "insufficient_funds"
	}
	return "internal_error"
}
