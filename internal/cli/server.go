package cli

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"hotel-trivia-service/internal/app"
	"hotel-trivia-service/internal/config"
	"hotel-trivia-service/internal/infra/memory"
	pgstore "hotel-trivia-service/internal/infra/postgres"
	redisstore "hotel-trivia-service/internal/infra/redis"
	transport "hotel-trivia-service/internal/transport/http"
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

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)
	progressTTL := config.TTLDuration(cfg.Progress.TTL, 0)

	var pool *pgxpool.Pool
	var bunDB *bun.DB
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
		bunDB = bun.NewDB(sqldb, pgdialect.New())
	}

	// Without Postgres the service runs on the built-in demo catalog and
	// in-memory stores; useful for kiosk bring-up and local development.
	demo := memory.NewStaticCatalog(sampleQuizzes(), sampleQuestions())

	var catalog app.CatalogRepository
	switch {
	case pool != nil && redisClient != nil:
		catalog = redisstore.NewCatalogCache(redisClient, pgstore.NewCatalogLoader(pool), catalogTTL)
	case pool != nil:
		catalog = memory.NewCatalogCache(pgstore.NewCatalogLoader(pool), catalogTTL)
	case redisClient != nil:
		catalog = redisstore.NewCatalogCache(redisClient, demo, catalogTTL)
	default:
		catalog = memory.NewCatalogCache(demo, catalogTTL)
	}

	var sessions app.SessionStore
	var submissions app.SubmissionStore
	var leaderboard app.LeaderboardStore
	if bunDB != nil {
		store := pgstore.NewSessionStore(bunDB)
		sessions = store
		leaderboard = store
		submissions = pgstore.NewSubmissionStore(bunDB)
	} else {
		store := memory.NewSessionStore()
		sessions = store
		leaderboard = store
		submissions = memory.NewSubmissionStore()
	}

	var progress app.ProgressStore
	if redisClient != nil {
		progress = redisstore.NewProgressStore(redisClient, progressTTL)
	} else {
		progress = memory.NewProgressStore()
	}

	dispatcher := app.NewDispatcher(catalog, progress)
	service := app.NewGameService(catalog, sessions, submissions, dispatcher, leaderboard)
	feed := transport.NewLeaderboardFeed(service)
	service.SetCompletionNotifier(feed)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(service, feed),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting trivia service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
