package wordrounds

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bloops-games/wordrounds/internal/cache"
	"github.com/bloops-games/wordrounds/internal/database"
	categoryDb "github.com/bloops-games/wordrounds/internal/database/category/database"
	gameDb "github.com/bloops-games/wordrounds/internal/database/game/database"
	reviewDb "github.com/bloops-games/wordrounds/internal/database/review/database"
	roomDb "github.com/bloops-games/wordrounds/internal/database/room/database"
	userDb "github.com/bloops-games/wordrounds/internal/database/user/database"
	"github.com/bloops-games/wordrounds/internal/gateway"
	"github.com/bloops-games/wordrounds/internal/logging"
	"github.com/bloops-games/wordrounds/internal/review"
	"github.com/bloops-games/wordrounds/internal/round"
	"github.com/bloops-games/wordrounds/internal/server"
	"golang.org/x/sync/errgroup"
)

func NewManager(config *Config, db *database.DB) *Manager {
	return &Manager{config: config, db: db}
}

type Manager struct {
	config *Config
	db     *database.DB
}

// app is the wired set of services behind one HTTP handler.
type app struct {
	handler   http.Handler
	hub       *gateway.Hub
	scheduler *round.Scheduler
	reviews   *review.Service
}

func (m *Manager) build(ctx context.Context) (*app, error) {
	logger := logging.FromContext(ctx).Named("wordrounds.build")

	categoryCache, err := cache.NewLRU(m.config.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("can not create lru cache: %w", err)
	}

	userCache, err := cache.NewLRU(m.config.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("can not create lru cache: %w", err)
	}

	rooms := roomDb.New(m.db)
	categories := categoryDb.New(m.db, categoryCache)
	reviews := reviewDb.New(m.db)
	games := gameDb.New(m.db)

	n, err := categories.Seed()
	if err != nil {
		return nil, fmt.Errorf("seed categories: %w", err)
	}

	if n > 0 {
		logger.Infof("seeded %d default categories", n)
	}

	hub := gateway.NewHub(ctx)
	scheduler := round.NewScheduler(ctx, m.config.Round, round.Stores{
		Rooms:      rooms,
		Categories: categories,
		Games:      games,
		Users:      userDb.New(m.db, userCache),
	}, hub)
	reviewService := review.NewService(rooms, categories, reviews, hub)

	mux := http.NewServeMux()
	mux.Handle("/health", server.HandleHealth(ctx))
	dispatcher := gateway.NewDispatcher(scheduler, reviewService, hub)
	gateway.NewHandler(hub, dispatcher, scheduler, categories, games, m.config.Gateway).Register(ctx, mux)

	return &app{handler: mux, hub: hub, scheduler: scheduler, reviews: reviewService}, nil
}

// Run serves the game until ctx is done.
func (m *Manager) Run(ctx context.Context) error {
	logger := logging.FromContext(ctx).Named("wordrounds.Run")

	g, ctx := errgroup.WithContext(ctx)
	a, err := m.build(ctx)
	if err != nil {
		return err
	}
	defer a.scheduler.Stop()

	srv, err := server.New(m.config.Port)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	logger.Infof("listening on %s", srv.Addr())

	g.Go(func() error {
		return srv.ServeHTTP(ctx, &http.Server{Handler: a.handler})
	})
	g.Go(func() error {
		return a.hub.Run(ctx)
	})
	g.Go(func() error {
		return a.scheduler.Run(ctx)
	})

	return g.Wait()
}
