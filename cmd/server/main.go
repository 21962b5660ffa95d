package main

import (
	"fmt"
	"log/slog"

	"github.com/amirasaad/banking/infra"
	"github.com/amirasaad/banking/infra/cache"
	infraeventbus "github.com/amirasaad/banking/infra/eventbus"
	infralock "github.com/amirasaad/banking/infra/lock"
	infrarepo "github.com/amirasaad/banking/infra/repository"
	"github.com/amirasaad/banking/pkg/account"
	"github.com/amirasaad/banking/pkg/audit"
	"github.com/amirasaad/banking/pkg/config"
	"github.com/amirasaad/banking/pkg/engine"
	"github.com/amirasaad/banking/pkg/reconcile"
	"github.com/amirasaad/banking/webapi"
	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	bootLogger := slog.Default()
	cfg, err := config.Load(bootLogger)
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}
	logger := infra.SetupLogger(cfg.Log)

	db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := infrarepo.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("failed to parse redis url: %w", err)
	}
	redisOpts.PoolSize = cfg.Redis.PoolSize
	redisOpts.DialTimeout = cfg.Redis.DialTimeout
	redisOpts.ReadTimeout = cfg.Redis.ReadTimeout
	redisOpts.WriteTimeout = cfg.Redis.WriteTimeout
	redisClient := redis.NewClient(redisOpts)

	uow := infrarepo.NewUoW(db)
	locks := infralock.NewRedisCoordinator(redisClient, cfg.Redis.KeyPrefix+"lock:", logger)
	bus := infraeventbus.NewMemoryBus(logger)
	accountCache := cache.NewRedisAccountCache(
		redisClient, cfg.Redis.KeyPrefix, cfg.Redis.CacheTTL, logger)
	cache.RegisterInvalidation(bus, accountCache, logger)

	recorder := audit.NewRecorder(uow, cfg.Banking, logger)
	engineSvc := engine.NewService(engine.Deps{
		Uow:    uow,
		Locks:  locks,
		Audit:  recorder,
		Bus:    bus,
		Cfg:    cfg.Banking,
		Logger: logger,
	})
	accountSvc := account.NewService(uow, accountCache, recorder, cfg.Banking, logger)
	recoverySvc := reconcile.NewService(uow, recorder, logger)

	app := webapi.NewApp(webapi.Services{
		Accounts: accountSvc,
		Engine:   engineSvc,
		Recovery: recoverySvc,
	}, cfg)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("starting server", "env", cfg.Env, "address", addr)

	return app.Listen(addr)
}
