package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bingo-live/internal/bingo"
	"bingo-live/internal/game"
)

type joinGameRequest struct {
	UserID string `json:"user_id"`
}

type joinGameResponse struct {
	ParticipantID string     `json:"participant_id"`
	GameID        string     `json:"game_id"`
	UserID        string     `json:"user_id"`
	Card          bingo.Card `json:"card"`
}

type submitMarksRequest struct {
	ParticipantID string `json:"participant_id"`
	MarkedNumbers []int  `json:"marked_numbers"`
}

type submitMarksResponse struct {
	Bingo      bool  `json:"bingo"`
	Won        bool  `json:"won"`
	PrizeCents int64 `json:"prize_cents"`
}

func joinGameHandler(coord *game.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body joinGameRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.UserID == "" {
			writeHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		p, err := coord.Join(r.Context(), chi.URLParam(r, "game_id"), body.UserID)
		if err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, joinGameResponse{
			ParticipantID: p.ID,
			GameID:        p.GameID,
			UserID:        p.UserID,
			Card:          p.Card,
		})
	}
}

func submitMarksHandler(coord *game.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body submitMarksRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ParticipantID == "" {
			writeHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		res, err := coord.SubmitMark(r.Context(), chi.URLParam(r, "game_id"), body.ParticipantID, body.MarkedNumbers)
		if err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, submitMarksResponse{Bingo: res.Bingo, Won: res.Won, PrizeCents: res.PrizeCents})
	}
}

// writeGameError maps coordinator sentinels onto HTTP statuses.
func writeGameError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrNotFound):
		writeHTTPError(w, http.StatusNotFound, "not_found")
	case errors.Is(err, game.ErrInvalidState):
		writeHTTPError(w, http.StatusConflict, "invalid_state")
	case errors.Is(err, game.ErrFull):
		writeHTTPError(w, http.StatusConflict, "game_full")
	case errors.Is(err, game.ErrAlreadyJoined):
		writeHTTPError(w, http.StatusConflict, "already_joined")
	case errors.Is(err, game.ErrInsufficientFunds):
		writeHTTPError(w, http.StatusPaymentRequired, "insufficient_funds")
	default:
		writeHTTPError(w, http.StatusInternalServerError, "internal_error")
	}
}
