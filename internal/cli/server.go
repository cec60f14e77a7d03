package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"trivia-server/internal/app"
	"trivia-server/internal/config"
	"trivia-server/internal/infra/memory"
	"trivia-server/internal/infra/opentdb"
	pgstore "trivia-server/internal/infra/postgres"
	redisstore "trivia-server/internal/infra/redis"
	"trivia-server/internal/transport/tcp"
	"trivia-server/internal/transport/ws"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	addr := cfg.Server.Addr
	if addr == "" {
		finalPort := portFlag
		if finalPort == "" {
			finalPort = "2000"
		}
		addr = ":" + finalPort
	}

	scores, cleanup, err := buildScoreStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	source := opentdb.NewClient(opentdb.Config{
		BaseURL:  cfg.Trivia.BaseURL,
		Timeout:  config.Duration(cfg.Trivia.Timeout, 10*time.Second),
		UseToken: cfg.Trivia.UseToken,
	})

	game := app.NewGame(source, scores, app.Config{
		FetchRetries: cfg.Trivia.Retries,
		FetchBackoff: config.Duration(cfg.Trivia.RetryBackoff, 2*time.Second),
	})

	idleTimeout := config.Duration(cfg.Server.IdleTimeout, 5*time.Minute)
	server := tcp.NewServer(addr, game, idleTimeout)

	go func() {
		if err := server.ListenAndServe(ctx); err != nil {
			log.Printf("tcp server stopped: %v", err)
		}
	}()

	var wsServer *http.Server
	if cfg.Server.WSAddr != "" {
		mux := http.NewServeMux()
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("ok"))
		})
		mux.HandleFunc("/play", ws.NewHandler(game).ServeGame)
		wsServer = &http.Server{Addr: cfg.Server.WSAddr, Handler: mux}
		go func() {
			log.Printf("websocket endpoint on %s", cfg.Server.WSAddr)
			if err := wsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("websocket server stopped: %v", err)
			}
		}()
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	if wsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = wsServer.Shutdown(shutdownCtx)
	}
	// Stop accepting and let in-flight sessions finish naturally.
	server.Shutdown()
	return nil
}

// buildScoreStore picks postgres, then redis, then the in-memory
// fallback, matching what the config provides.
func buildScoreStore(ctx context.Context, cfg config.Config) (app.ScoreStore, func(), error) {
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, err
		}
		return pgstore.NewScoreStore(pool), pool.Close, nil
	}

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return redisstore.NewScoreStore(client), func() { _ = client.Close() }, nil
	}

	log.Printf("no score store configured, scores will not survive restarts")
	return memory.NewScoreStore(), func() {}, nil
}
