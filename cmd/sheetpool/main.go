// Command sheetpool serves a fixed pool of spreadsheet engine instances over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/sheetpool/pkg/api"
	"github.com/dmitrymomot/sheetpool/pkg/catalog"
	"github.com/dmitrymomot/sheetpool/pkg/config"
	"github.com/dmitrymomot/sheetpool/pkg/coordinator"
	"github.com/dmitrymomot/sheetpool/pkg/docstore"
	"github.com/dmitrymomot/sheetpool/pkg/engine/xlsx"
	"github.com/dmitrymomot/sheetpool/pkg/httpserver"
	"github.com/dmitrymomot/sheetpool/pkg/logger"
	"github.com/dmitrymomot/sheetpool/pkg/pg"
	"github.com/dmitrymomot/sheetpool/pkg/policy"
	"github.com/dmitrymomot/sheetpool/pkg/ratelimit"
	"github.com/dmitrymomot/sheetpool/pkg/redis"
	"github.com/dmitrymomot/sheetpool/pkg/requestid"
	"github.com/dmitrymomot/sheetpool/pkg/session"
	"github.com/dmitrymomot/sheetpool/pkg/slotpool"
)

// Config is the whole process configuration.
type Config struct {
	AppName  string `env:"APP_NAME" envDefault:"sheetpool"`
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL"`

	HTTP      httpserver.Config
	API       api.Config
	Pool      slotpool.Config
	Session   session.Config
	Catalog   catalog.Config
	Docstore  docstore.Config
	LoginRate ratelimit.Config
	Redis     redis.Config
	Postgres  pg.Config
}

func main() {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		fmt.Fprintln(os.Stderr, "sheetpool:", err)
		os.Exit(2)
	}

	opts := []logger.Option{
		logger.WithEnvironment(cfg.AppEnv, cfg.AppName),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	}
	if cfg.LogLevel != "" {
		opts = append(opts, logger.WithLevelName(cfg.LogLevel))
	}
	log := logger.New(opts...)
	logger.SetAsDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("sheetpool stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config, log *slog.Logger) error {
	var (
		redisClient *goredis.Client
		pgPool      *pgxpool.Pool
		ready       []httpserver.Check
	)

	if cfg.Session.Store == session.StoreRedis {
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer client.Close()
		redisClient = client
		ready = append(ready, httpserver.Check{Name: "redis", Probe: redis.Healthcheck(client)})
	}

	if cfg.Catalog.Store == catalog.StorePostgres {
		pool, err := pg.Connect(ctx, cfg.Postgres)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := pg.Migrate(ctx, pool, catalog.Migrations, cfg.Postgres, log); err != nil {
			return err
		}
		pgPool = pool
		ready = append(ready, httpserver.Check{Name: "postgres", Probe: pg.Healthcheck(pool)})
	}

	var db catalog.DB
	if pgPool != nil {
		db = pgPool
	}
	users, err := catalog.NewFromConfig(cfg.Catalog, db)
	if err != nil {
		return err
	}
	seed, err := catalog.LoadSeed(cfg.Catalog.SeedFile)
	if err != nil {
		return err
	}
	if err := catalog.Seed(ctx, users, seed, cfg.Catalog.BcryptCost, log); err != nil {
		return err
	}

	files, err := docstore.NewFromConfig(ctx, cfg.Docstore)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	pool, err := slotpool.NewFromConfig(ctx, xlsx.NewLauncher(), cfg.Pool,
		append(cfg.Pool.Options(), slotpool.WithLogger(log), slotpool.WithRegisterer(reg))...)
	if err != nil {
		return err
	}
	go func() {
		if err := pool.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("pool reaper stopped", logger.Error(err))
		}
	}()

	var sessionClient goredis.UniversalClient
	if redisClient != nil {
		sessionClient = redisClient
	}
	sessions, err := session.NewFromConfig(cfg.Session, sessionClient, session.WithLogger(log))
	if err != nil {
		_ = pool.Close(context.Background())
		return err
	}
	limiter, err := ratelimit.NewFromConfig(cfg.LoginRate)
	if err != nil {
		_ = pool.Close(context.Background())
		return err
	}

	coord := coordinator.New(pool, sessions, users, docstore.NewLibrary(files),
		coordinator.WithPolicy(policy.New(seed.Admins...)),
		coordinator.WithLimiter(limiter),
		coordinator.WithLogger(log),
		coordinator.WithBcryptCost(cfg.Catalog.BcryptCost),
	)

	handler := api.New(coord, append(cfg.API.Options(),
		api.WithLogger(log),
		api.WithMetrics(reg, reg),
		api.WithReadiness(ready...),
	)...)

	srv := httpserver.NewFromConfig(cfg.HTTP,
		httpserver.WithLogger(log),
		httpserver.WithStopHook(pool.Close),
	)
	return srv.Run(ctx, handler)
}
