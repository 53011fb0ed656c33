package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"bingo-live/internal/app/public"
	"bingo-live/internal/game"
	"bingo-live/internal/mcpserver"
	"bingo-live/internal/store"
	"bingo-live/internal/ws"
)

func newRouter(st store.Store, svc *public.Service, coord *game.Coordinator, wsServer *ws.Server, mcpSrv *mcpserver.Server) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(apiLogMiddleware()).Get("/healthz", healthHandler(st))

	r.Route("/api", func(r chi.Router) {
		r.Use(apiLogMiddleware())
		r.Use(bodyCaptureMiddleware())

		r.Post("/users", createUserHandler(svc))
		r.Get("/users/{user_id}", getUserHandler(svc))
		r.Post("/users/{user_id}/deposit", depositHandler(svc))
		r.Get("/users/{user_id}/transactions", transactionsHandler(svc))

		r.Get("/games", listGamesHandler(svc))
		r.Post("/games", createGameHandler(svc))
		r.Get("/games/{game_id}", getGameHandler(svc))
		r.Post("/games/{game_id}/join", joinGameHandler(coord))
		r.Post("/games/{game_id}/marks", submitMarksHandler(coord))
	})

	r.Get("/ws", wsServer.HandleWS)
	r.Handle("/mcp", mcpSrv.Handler())
	return r
}

func healthHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := st.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "db": "down"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "db": "up"})
	}
}

func logRoutes(r chi.Router) {
	type routeDef struct {
		Method string
		Path   string
	}
	routes := make([]routeDef, 0, 16)
	err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, routeDef{Method: method, Path: route})
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("walk routes failed")
		return
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Registered routes (%d):\n", len(routes)))
	for _, rt := range routes {
		b.WriteString(fmt.Sprintf("  %-6s %s\n", rt.Method, rt.Path))
	}
	fmt.Print(b.String())
}
