package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ephemeral-photo-backend/internal/config"
	"ephemeral-photo-backend/internal/memstore"
	"ephemeral-photo-backend/internal/repository"
	"ephemeral-photo-backend/internal/services"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const defaultConfigPath = "config.yaml"

func Run() {
	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", configPath).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	ctx := context.Background()

	// Initialize storage
	st, err := openStores(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("Failed to open storage")
	}
	defer st.close()

	media, err := openMedia(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create media store")
	}

	changes, closeChanges, err := openChangeFeed(ctx, cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create change feed")
	}
	defer closeChanges()

	var completer services.Completer
	if cfg.OpenAI.APIKey != "" {
		client, err := services.NewOpenAIClient(cfg.OpenAI)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create suggestion client")
		}
		completer = client
		log.Info().Str("model", cfg.OpenAI.Model).Msg("Suggestions enabled")
	} else {
		log.Info().Msg("No OpenAI key configured, serving canned suggestions")
	}

	// Initialize services
	app := newApp(st, media, changes, completer, cfg)

	// Feed the hub from the change feed
	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	subscription, err := changes.Subscribe(hubCtx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to subscribe to changes")
	}
	go app.hub.Run(hubCtx, subscription)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      newRouter(app),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Str("driver", cfg.Database.Driver).
			Bool("redis", cfg.Redis.Enabled).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Hijacked WebSocket connections are not tracked by Shutdown
	stopHub()
	app.hub.Close()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// stores bundles the persistence backends of one database driver
type stores struct {
	posts   services.PostStore
	users   services.UserStore
	replies services.ReplyStore
	close   func()
}

func openStores(ctx context.Context, cfg config.DatabaseConfig) (*stores, error) {
	if cfg.Driver == config.DriverMemory {
		log.Warn().Msg("Using in-memory storage, data is lost on restart")
		mem := memstore.New()
		return &stores{
			posts:   mem.Posts(),
			users:   mem.Users(),
			replies: mem.Replies(),
			close:   func() {},
		}, nil
	}

	db, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	log.Info().Msg("Database connection established")

	if cfg.Migrate {
		if err := repository.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		log.Info().Msg("Database schema applied")
	}

	return &stores{
		posts:   repository.NewPostRepository(db),
		users:   repository.NewUserRepository(db),
		replies: repository.NewReplyRepository(db),
		close:   db.Close,
	}, nil
}

func openMedia(ctx context.Context, cfg *config.Config) (services.MediaStore, error) {
	if cfg.AWS.S3Bucket == "" {
		log.Warn().Msg("No S3 bucket configured, posts use the fallback image")
		return services.NoMediaStore{}, nil
	}
	return services.NewS3MediaStore(ctx, cfg.AWS, cfg.Media.PresignExpiry)
}

func openChangeFeed(ctx context.Context, cfg config.RedisConfig) (services.ChangeFeed, func(), error) {
	if !cfg.Enabled {
		return services.NewLocalChangeFeed(), func() {}, nil
	}

	client := services.NewRedisClient(cfg)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("redis connect error: %w", err)
	}
	log.Info().Str("addr", cfg.Addr).Str("channel", cfg.Channel).Msg("Redis change feed connected")

	return services.NewRedisChangeFeed(client, cfg.Channel), func() { client.Close() }, nil
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
