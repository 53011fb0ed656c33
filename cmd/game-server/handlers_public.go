package main

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bingo-live/internal/app/public"
)

func createUserHandler(svc *public.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body public.CreateUserRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		u, err := svc.CreateUser(r.Context(), body)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, u)
	}
}

func getUserHandler(svc *public.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := svc.User(r.Context(), chi.URLParam(r, "user_id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}

func depositHandler(svc *public.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body public.DepositRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		bal, err := svc.Deposit(r.Context(), chi.URLParam(r, "user_id"), body)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, bal)
	}
}

func transactionsHandler(svc *public.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		txs, err := svc.Transactions(r.Context(), chi.URLParam(r, "user_id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, txs)
	}
}

func listGamesHandler(svc *public.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		games, err := svc.Games(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, games)
	}
}

func createGameHandler(svc *public.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body public.CreateGameRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		g, err := svc.CreateGame(r.Context(), body)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, g)
	}
}

func getGameHandler(svc *public.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g, err := svc.Game(r.Context(), chi.URLParam(r, "game_id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, g)
	}
}
