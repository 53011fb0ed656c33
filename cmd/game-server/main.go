package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"bingo-live/internal/app/public"
	"bingo-live/internal/config"
	"bingo-live/internal/game"
	"bingo-live/internal/ledger"
	"bingo-live/internal/logging"
	"bingo-live/internal/mcpserver"
	"bingo-live/internal/push"
	"bingo-live/internal/store"
	"bingo-live/internal/ws"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	closeLog := logging.Init(cfg.Log)
	defer closeLog()

	st, closeStore, err := openStore(cfg.Server)
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}
	defer closeStore()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	led := ledger.New(st)
	coord := game.NewCoordinator(st, led)

	pushCfg, err := push.FromServer(cfg.Server)
	if err != nil {
		log.Fatal().Err(err).Msg("push config failed")
	}
	if pushCfg.Enabled {
		pm := push.NewManager(pushCfg)
		if err := pm.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("push manager start failed")
		}
		coord.Notifier = pm
		log.Info().Int("targets", len(pushCfg.Targets)).Msg("push enabled")
	}

	if err := coord.Resume(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("resume active games failed")
	}

	svc := public.NewService(st, led)
	wsServer := ws.NewServer(st, coord)
	r := newRouter(st, svc, coord, wsServer, mcpserver.New(svc))
	logRoutes(r)

	server := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", cfg.Server.HTTPAddr).Msg("http listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server stopped")
	}
	coord.Shutdown()
	log.Info().Msg("server stopped")
}

// openStore picks Postgres when a DSN is configured, otherwise the
// in-memory store.
func openStore(cfg config.ServerConfig) (store.Store, func(), error) {
	if cfg.PostgresDSN == "" {
		log.Warn().Msg("POSTGRES_DSN not set, using in-memory store")
		return store.NewMemory(), func() {}, nil
	}
	pg, err := store.NewPostgres(cfg.PostgresDSN)
	if err != nil {
		return nil, nil, err
	}
	if err := pg.Ping(context.Background()); err != nil {
		_ = pg.Close()
		return nil, nil, err
	}
	if cfg.EnsureSchema {
		if err := pg.EnsureSchema(context.Background()); err != nil {
			_ = pg.Close()
			return nil, nil, err
		}
	}
	return pg, func() { _ = pg.Close() }, nil
}
