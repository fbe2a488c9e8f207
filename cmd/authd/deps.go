package main

import (
	"context"
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/taskboard/authd/internal/api"
	"github.com/taskboard/authd/internal/api/handler"
	"github.com/taskboard/authd/internal/core/ports"
	"github.com/taskboard/authd/internal/core/service"
	"github.com/taskboard/authd/internal/infrastructure/db/memory"
	mongostore "github.com/taskboard/authd/internal/infrastructure/db/mongo"
	"github.com/taskboard/authd/internal/infrastructure/db/postgres"
	redisstore "github.com/taskboard/authd/internal/infrastructure/db/redis"
	"github.com/taskboard/authd/internal/infrastructure/queue"
	"github.com/taskboard/authd/internal/pkg/config"
)

// app holds the wired HTTP router and everything that must be released on
// shutdown, in reverse order of acquisition.
type app struct {
	router  *echo.Echo
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func buildApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	readiness := map[string]handler.Pinger{}

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeStore)
	readiness["store"] = store

	var limiter service.AttemptLimiter
	if cfg.ThrottleEnabled() {
		client, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		readiness["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
		limiter = redisstore.NewAttemptLimiter(client, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginLockoutWindow)
		log.Info().Int("max_attempts", cfg.Auth.LoginMaxAttempts).Dur("window", cfg.Auth.LoginLockoutWindow).Msg("login throttle enabled")
	}

	// The pool outlives the signal context so in-flight requests can finish
	// hashing while the server drains.
	pool := queue.NewPool(cfg.Auth.HashWorkers, log.With().Str("component", "hash_pool").Logger())
	pool.Start(context.Background())
	a.closers = append(a.closers, pool.Stop)

	svc, err := service.NewAuthService(
		store,
		service.NewBcryptHasher(cfg.Auth.BcryptCost, pool),
		limiter,
		service.Config{
			SigningKey:      []byte(cfg.Auth.JWTSecret),
			Issuer:          cfg.Auth.JWTIssuer,
			TokenTTL:        cfg.Auth.TokenTTL,
			ClockSkew:       cfg.Auth.ClockSkew,
			MinSecretLength: cfg.Auth.MinSecretLength,
		},
		log.With().Str("component", "auth").Logger(),
	)
	if err != nil {
		return nil, err
	}

	a.router = api.NewRouter(api.Deps{
		AuthService:    svc,
		Readiness:      readiness,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:         log.With().Str("component", "http").Logger(),
	})
	return a, nil
}

// openStore connects the credential store selected by STORE_DRIVER.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ports.CredentialStore, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		log.Warn().Msg("using in-memory credential store; accounts are lost on restart")
		return memory.NewCredentialStore(), func() {}, nil

	case config.StoreMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() { _ = client.Disconnect(context.Background()) }
		store := mongostore.NewCredentialStore(db)
		if err := store.EnsureIndexes(ctx); err != nil {
			closeFn()
			return nil, nil, err
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")
		return store, closeFn, nil

	case config.StorePostgres:
		pool, err := postgres.Connect(ctx, postgres.Config{DSN: cfg.Postgres.DSN})
		if err != nil {
			return nil, nil, err
		}
		if cfg.Postgres.AutoMigrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, nil, err
			}
			log.Info().Msg("postgres migrations applied")
		}
		log.Info().Msg("connected to postgres")
		return postgres.NewCredentialStore(pool), pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
