// Package app wires the expense flow to Telegram and to the configured
// storage and session backends.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/m3rciful/expensebot/core/bootstrap"
	coredatabase "github.com/m3rciful/expensebot/core/database"
	"github.com/m3rciful/expensebot/core/logger"
	tg "github.com/m3rciful/expensebot/core/telegram"
	"github.com/m3rciful/expensebot/core/telegram/router"
	"github.com/m3rciful/expensebot/core/telegram/state"
	"github.com/m3rciful/expensebot/internal/config"
	"github.com/m3rciful/expensebot/internal/expense"
	"github.com/m3rciful/expensebot/internal/flow"
	"github.com/m3rciful/expensebot/internal/storage"
)

// App holds the wired expense bot.
type App struct {
	cfg      *config.Config
	registry *tg.Registry
	flow     *flow.Dispatcher
	out      *chatSender
	closers  []func() error
}

// Deps are the backends an App runs on.
type Deps struct {
	Storage  storage.Store
	Sessions state.Store[expense.Draft]
	// Closers run on shutdown after Storage is closed.
	Closers []func() error
	// Now is used by tests; nil means time.Now.
	Now func() time.Time
}

// New builds an App from already opened backends.
func New(cfg *config.Config, deps Deps) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	if deps.Storage == nil || deps.Sessions == nil {
		return nil, errors.New("app: storage and sessions are required")
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	out := &chatSender{}
	d, err := flow.New(flow.Options{
		Engine:     expense.NewEngine(expense.EngineOptions{AskDate: cfg.Expense.AskDate, Location: loc}),
		Sessions:   deps.Sessions,
		Storage:    deps.Storage,
		Sender:     out,
		SessionTTL: cfg.Session.TTL,
		Now:        deps.Now,
	})
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:      cfg,
		registry: tg.NewRegistry(),
		flow:     d,
		out:      out,
		closers:  append([]func() error{deps.Storage.Close}, deps.Closers...),
	}
	a.registerCommands()
	return a, nil
}

// Bootstrap initializes logging, opens the configured backends and builds
// the App. Postgres migrations run before the first connection.
func Bootstrap(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}

	var dbCfg *coredatabase.Config
	if cfg.Storage.Backend == config.StoragePostgres {
		dbCfg = &cfg.Database
	}
	res, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: dbCfg,
	})
	if err != nil {
		return nil, err
	}

	store, err := openStorage(cfg, res.DB)
	if err != nil {
		closeDB(res.DB)
		return nil, err
	}

	sessions, closers, err := openSessions(ctx, cfg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	a, err := New(cfg, Deps{Storage: store, Sessions: sessions, Closers: closers})
	if err != nil {
		_ = store.Close()
		for _, c := range closers {
			_ = c()
		}
		return nil, err
	}

	logger.L.With("component", "app").Info("backends ready",
		slog.String("event", "app.backends"),
		slog.String("storage", cfg.Storage.Backend),
		slog.String("session", cfg.Session.Backend),
		slog.Bool("ask_date", cfg.Expense.AskDate),
	)
	return a, nil
}

func openStorage(cfg *config.Config, db *sqlx.DB) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case config.StoragePostgres:
		return storage.NewPostgres(db, cfg.Storage.Table)
	case config.StorageSupabase:
		return storage.NewSupabase(cfg.Supabase.URL, cfg.Supabase.Key, cfg.Storage.Table)
	}
	return nil, fmt.Errorf("app: unknown storage backend %q", cfg.Storage.Backend)
}

func openSessions(ctx context.Context, cfg *config.Config) (state.Store[expense.Draft], []func() error, error) {
	if cfg.Session.Backend != config.SessionRedis {
		return state.NewMemoryStore[expense.Draft](), nil, nil
	}

	rc := cfg.Session.Redis
	client := redis.NewClient(&redis.Options{
		Addr:     rc.Addr,
		Password: rc.Password,
		DB:       rc.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("app: redis ping %s: %w", rc.Addr, err)
	}

	sessions, err := state.NewRedisStore[expense.Draft](state.RedisConfig{
		Client:    client,
		KeyPrefix: rc.KeyPrefix,
		TTL:       cfg.Session.TTL,
	})
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return sessions, []func() error{client.Close}, nil
}

func closeDB(db *sqlx.DB) {
	if db != nil {
		_ = db.Close()
	}
}

// TelegramRunOptions implements the runner's TelegramApp.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	core := a.cfg.CoreConfig()

	routes := router.CommandRoutes(a.registry)
	routes = append(routes, router.TextRoutes(a.registry, router.TextOptions{})...)

	return tg.RunOptions{
		Config:      core,
		Registry:    a.registry,
		Middlewares: tg.DefaultMiddlewares(core, a.onLimited),
		Routes:      routes,
		OnStart: func(_ context.Context, rt tg.Runtime) error {
			a.out.bind(rt.Bot)
			return nil
		},
		OnStop: func(_ context.Context, _ tg.Runtime) error {
			a.out.bind(nil)
			return a.Close()
		},
	}, nil
}

// Close releases the storage and session backends.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
