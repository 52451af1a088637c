package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/alejandrodnm/parimutuel/config"
	"github.com/alejandrodnm/parimutuel/internal/adapters/derive"
	"github.com/alejandrodnm/parimutuel/internal/adapters/lock"
	"github.com/alejandrodnm/parimutuel/internal/adapters/notify"
	"github.com/alejandrodnm/parimutuel/internal/adapters/storage"
	"github.com/alejandrodnm/parimutuel/internal/adapters/vault"
	"github.com/alejandrodnm/parimutuel/internal/application/escrow"
	"github.com/alejandrodnm/parimutuel/internal/ports"
)

const usage = `usage: escrow [-config path] [-verbose] [-format text|json] <command> [flags]

commands:
  create-market  register a market (authority = -as)
  fund           credit an account on the ledger
  place-bet      stake on one side of a market
  close-betting  close a manual betting window
  announce       announce the winning side
  settle         pay out one position
  claim          settle every pending position of -as
  sweep-fees     route accrued fees to their recipients
  close-market   retire a resolved market and release the residual
  show           print one market, or every market
  balance        print an account balance
  audit          print the audit trail of a market
`

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app, err := wire(ctx, cfg)
	if err != nil {
		slog.Error("startup failed", "err", err)
		os.Exit(1)
	}
	defer app.Close()

	slog.Debug("escrow ready",
		"config", *configPath,
		"dsn", cfg.Storage.DSN,
		"lock", cfg.Escrow.LockBackend,
		"redis", cfg.Redis.Addr != "",
	)

	if err := app.run(ctx, flag.Arg(0), flag.Args()[1:]); err != nil {
		slog.Error("command failed", "command", flag.Arg(0), "err", err)
		os.Exit(1)
	}
}

// app junta el servicio con los adapters que la CLI usa directamente.
type app struct {
	svc     *escrow.Service
	store   *storage.SQLiteStorage
	console *notify.Console
	rdb     *redis.Client
}

func wire(ctx context.Context, cfg *config.Config) (*app, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		return nil, err
	}
	a := &app{store: store, console: notify.NewConsole()}

	sinks := notify.Multi{store, a.console}
	var locker ports.Locker = lock.NewLocal()

	if cfg.Redis.Addr != "" {
		a.rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := a.rdb.Ping(ctx).Err(); err != nil {
			a.Close()
			return nil, fmt.Errorf("redis: ping %s: %w", cfg.Redis.Addr, err)
		}
		sinks = append(sinks, notify.NewRedisStream(a.rdb, cfg.Redis.AuditStream, cfg.Redis.StreamMaxLen))
	}
	if cfg.Escrow.LockBackend == "redis" {
		locker = lock.NewRedis(a.rdb, lock.RedisConfig{TTL: cfg.LockTTL(), Wait: cfg.LockWait()})
	}

	a.svc = escrow.New(
		escrow.Config{BettingHorizon: cfg.BettingHorizon()},
		store,
		vault.NewFactory(store),
		derive.NewKeccak(cfg.ProgramAddress()),
		locker,
		sinks,
	)
	return a, nil
}

func (a *app) Close() {
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	_ = a.store.Close()
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	// stderr: stdout queda para la salida de los comandos.
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
