package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/skillgraph/internal/cache"
	"github.com/iliyamo/skillgraph/internal/config"
	"github.com/iliyamo/skillgraph/internal/database"
	"github.com/iliyamo/skillgraph/internal/graph"
	"github.com/iliyamo/skillgraph/internal/handler"
	"github.com/iliyamo/skillgraph/internal/logging"
	"github.com/iliyamo/skillgraph/internal/middleware"
	"github.com/iliyamo/skillgraph/internal/queue"
	"github.com/iliyamo/skillgraph/internal/repository"
	"github.com/iliyamo/skillgraph/internal/router"
	"github.com/iliyamo/skillgraph/internal/service"
	"github.com/iliyamo/skillgraph/internal/utils"
)

func main() {
	// A missing .env is fine; the process environment still applies.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logging.NewJSONLogger(os.Stdout, cfg.LogLevel).With("env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error(context.Background(), "server exited", "error", err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log logging.Logger) error {
	db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return fmt.Errorf("open mysql: %w", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	users, closeUsers, err := openUserStore(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer closeUsers()

	tokens, err := utils.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return fmt.Errorf("token service: %w", err)
	}
	auth, err := service.NewAuthService(cfg, users, tokens, log)
	if err != nil {
		return fmt.Errorf("auth service: %w", err)
	}

	// Redis is optional: without it there is no rate limit and no listing cache.
	rdb := config.NewRedisClient(ctx, config.LoadRedisConfig())
	if rdb == nil {
		log.Warn(ctx, "redis unavailable, rate limiting and caching disabled")
	} else {
		defer rdb.Close()
	}

	skills := service.NewSkillService(repository.NewSkillRepo(db), repository.NewModuleRepo(db), log)
	if lc := cache.New(config.LoadCacheConfig(), rdb); lc != nil {
		skills.WithCache(lc)
	}

	if cfg.QueueEnabled {
		auth.WithEvents(queue.NewPublisher(cfg.RabbitURL, log))
		consumer := queue.NewConsumer(cfg.RabbitURL, cfg.AuditLogDir, log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error(ctx, "user.registered consumer stopped", "error", err.Error())
			}
		}()
	}

	schema, err := graph.NewSchema(auth, skills, log)
	if err != nil {
		return fmt.Errorf("graphql schema: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.RequestID(), middleware.AccessLog(log))
	router.Register(e, router.Handlers{
		Health:  handler.NewHealthHandler(db),
		Auth:    handler.NewAuthHandler(auth),
		GraphQL: handler.NewGraphQLHandler(schema),
	}, middleware.Identify(auth), middleware.RateLimit(config.LoadRateLimitConfig(), rdb, log))

	addr := ":" + cfg.Port
	errc := make(chan error, 1)
	go func() {
		log.Info(ctx, "listening", "addr", addr, "credential_store", cfg.CredentialStore)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// openUserStore returns the configured credential store and its cleanup.
func openUserStore(ctx context.Context, cfg config.Config, db *sql.DB) (service.UserStore, func(), error) {
	if cfg.CredentialStore != config.StoreMongo {
		return repository.NewUserRepo(db), func() {}, nil
	}
	client, err := database.OpenMongo(ctx, cfg.MongoURI)
	if err != nil {
		return nil, nil, fmt.Errorf("open mongo: %w", err)
	}
	disconnect := func() { _ = client.Disconnect(context.Background()) }
	repo := repository.NewMongoUserRepo(client.Database(cfg.MongoDatabase))
	if err := repo.EnsureIndexes(ctx); err != nil {
		disconnect()
		return nil, nil, fmt.Errorf("mongo indexes: %w", err)
	}
	return repo, disconnect, nil
}
