package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	corebootstrap "github.com/Rzhek/TelegramHotelsBot/core/bootstrap"
	corecmd "github.com/Rzhek/TelegramHotelsBot/core/cmd"
	"github.com/Rzhek/TelegramHotelsBot/core/logger"
	tg "github.com/Rzhek/TelegramHotelsBot/core/telegram"
	"github.com/Rzhek/TelegramHotelsBot/core/telegram/state"
	"github.com/Rzhek/TelegramHotelsBot/internal/bot"
	"github.com/Rzhek/TelegramHotelsBot/internal/conversation"
	"github.com/Rzhek/TelegramHotelsBot/internal/directory"
	"github.com/Rzhek/TelegramHotelsBot/internal/history"
	"github.com/Rzhek/TelegramHotelsBot/internal/metrics"
	"github.com/Rzhek/TelegramHotelsBot/migrations"
)

// App is the assembled bot.
type App struct {
	cfg      *Config
	store    *history.Store
	registry *tg.Registry
	bot      *bot.Bot

	closeOnce sync.Once
	closers   []func() error
}

// Bootstrap initialises logging and the database, then assembles the App.
// It satisfies cmd.Options.Bootstrap.
func Bootstrap(ctx context.Context, carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*Config)
	if !ok {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}
	res, err := corebootstrap.Run(ctx, corebootstrap.Options{
		Config:     &cfg.Config,
		Database:   cfg.Database,
		Migrations: migrations.FS,
	})
	if err != nil {
		return nil, err
	}
	store := history.NewStore(res.DB, cfg.Database)

	sessions, closeSessions, err := state.New[conversation.Search](ctx, cfg.State)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("app: session store: %w", err)
	}
	a, err := New(cfg, store, sessions)
	if err != nil {
		_ = closeSessions()
		_ = store.Close()
		return nil, err
	}
	a.closers = append(a.closers, closeSessions)
	logger.Info(ctx, logger.CompApp, "app.assembled",
		slog.String("state", cfg.State.Backend),
		slog.String("listen", cfg.Metrics.Listen),
	)
	return a, nil
}

// New wires the directory client, the conversation engine and the bot
// around an open history store.
func New(cfg *Config, store *history.Store, sessions state.Manager[conversation.Search]) (*App, error) {
	dir, err := directory.New(cfg.Hotels)
	if err != nil {
		return nil, fmt.Errorf("app: hotels client: %w", err)
	}
	engine, err := conversation.NewEngine(dir, store, sessions, cfg.Conversation)
	if err != nil {
		return nil, fmt.Errorf("app: conversation engine: %w", err)
	}
	b := bot.New(engine, store)
	reg := tg.NewRegistry()
	b.Register(reg)
	return &App{
		cfg:      cfg,
		store:    store,
		registry: reg,
		bot:      b,
		closers:  []func() error{store.Close},
	}, nil
}

// TelegramRunOptions implements cmd.TelegramApp.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	return tg.RunOptions{
		Config:      &a.cfg.Config,
		Registry:    a.registry,
		Middlewares: tg.DefaultMiddlewares(&a.cfg.Config, a.bot.RateLimited),
		Routes:      a.bot.Routes(a.registry),
		OnStop: func(context.Context, tg.Runtime) error {
			return a.Close()
		},
	}, nil
}

// Services implements cmd.ServiceProvider. The ops server runs only when
// metrics.listen is set.
func (a *App) Services() []corecmd.Service {
	if a.cfg.Metrics.Listen == "" {
		return nil
	}
	reg := metrics.InitRegistry()
	handler := metrics.NewRouter(reg, a.store.Ping)
	return []corecmd.Service{{
		Name: "metrics",
		Run: func(ctx context.Context) error {
			return metrics.Serve(ctx, a.cfg.Metrics.Listen, handler)
		},
	}}
}

// Close releases the session backend and the database pool.
func (a *App) Close() error {
	var errs []error
	a.closeOnce.Do(func() {
		for i := len(a.closers) - 1; i >= 0; i-- {
			errs = append(errs, a.closers[i]())
		}
	})
	return errors.Join(errs...)
}
