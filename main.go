package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"skyjo-server/api"
	"skyjo-server/auth"
	"skyjo-server/config"
	"skyjo-server/game"
	"skyjo-server/item"
	"skyjo-server/loghandler"
	"skyjo-server/matchmaking"
	"skyjo-server/storage"
	"skyjo-server/ws"
)

func main() {
	if err := godotenv.Load(); err != nil {
		if err2 := godotenv.Load("server/.env"); err2 != nil {
			fmt.Fprintln(os.Stderr, "No .env file found; using environment variables.")
		}
	}

	cfg := config.Load()
	slog.SetDefault(slog.New(loghandler.NewCompactHandler(os.Stderr, cfg.SlogLevel())))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server stopped", "tag", "main", "error", err)
		os.Exit(1)
	}
}

// stores bundles the game store with the optional history store.
type stores struct {
	games   storage.GameStore
	history storage.HistoryStore
	closers []func()
}

func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openStores connects the configured game backend. Postgres also serves
// history when DATABASE_URL is set, whatever the game backend is.
func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	s := &stores{}
	pg, err := storage.NewPostgresStore(ctx, cfg.DatabaseURL, cfg.TxMaxRetries)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	if pg != nil {
		s.history = pg
		s.closers = append(s.closers, pg.Close)
	}

	switch cfg.StoreBackend {
	case config.BackendMemory, "":
		s.games = storage.NewMemoryStore(cfg.TxMaxRetries)
	case config.BackendRedis:
		rdb, err := storage.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, func() { rdb.Close() })
		ttl := time.Duration(cfg.GameTTLMinutes) * time.Minute
		s.games = storage.NewRedisStore(rdb, cfg.TxMaxRetries, ttl)
	case config.BackendPostgres:
		if pg == nil {
			return nil, errors.New("store_backend postgres needs DATABASE_URL")
		}
		s.games = pg
	default:
		s.Close()
		return nil, fmt.Errorf("unknown store_backend %q", cfg.StoreBackend)
	}
	return s, nil
}

func run(ctx context.Context, cfg *config.Config) error {
	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	if st.history == nil {
		slog.Info("DATABASE_URL not set; game history and leaderboard are disabled", "tag", "main")
	}

	validator, err := auth.NewValidator(ctx, cfg.NeonAuthBaseURL)
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if validator == nil {
		slog.Info("NEON_AUTH_BASE_URL is not set; only guests can play", "tag", "main")
	} else {
		slog.Info("auth configured", "tag", "main", "base_url", cfg.NeonAuthBaseURL)
	}

	slog.Info("configuration", "tag", "main",
		"backend", cfg.StoreBackend, "players", cfg.PlayersPerGame, "target", cfg.TargetScore,
		"spike", cfg.SpikeMode, "density", cfg.ItemDensity, "port", cfg.WSPort)

	registry := item.NewRegistry()
	item.RegisterAll(registry)

	opts := []game.Option{game.WithItems(registry)}
	if st.history != nil {
		opts = append(opts, game.WithResultSink(st.history))
	}
	eng := game.NewEngine(st.games, opts...)

	mm := matchmaking.NewMatchmaker(cfg, eng, st.games)
	go mm.Run(ctx)

	hub := ws.NewHub(cfg, mm, eng, validator)
	go hub.Run(ctx)

	handler := api.NewHandler(cfg, eng, st.history, validator)
	handler.Conns = hub

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	handler.Routes(mux)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WSPort),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Skyjo server listening", "tag", "main", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	slog.Info("shutting down", "tag", "main")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
