package factory

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mcoot/rpsgame/internal/api"
	"github.com/mcoot/rpsgame/internal/dependencies/clock"
	"github.com/mcoot/rpsgame/internal/dependencies/random"
	"github.com/mcoot/rpsgame/internal/services/ledger"
	"github.com/mcoot/rpsgame/internal/services/registry"
	"github.com/mcoot/rpsgame/internal/services/router"
	"github.com/mcoot/rpsgame/internal/storage"
	"github.com/mcoot/rpsgame/internal/storage/memory"
	redisstorage "github.com/mcoot/rpsgame/internal/storage/redis"
	"github.com/mcoot/rpsgame/internal/web/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Store storage.ScoreStore

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Registry *registry.Registry
	Ledger   *ledger.Ledger
	Router   *router.Router
	Hub      *ws.Hub

	startedAt time.Time
	logger    *slog.Logger
	startOnce sync.Once
	closeOnce sync.Once
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// LedgerConfig sizes the score persistence pool (optional)
	// If zero value, defaults to ledger.DefaultConfig()
	LedgerConfig ledger.Config
	// WebSocketConfig holds transport settings (optional)
	// If zero value, defaults to ws.DefaultConfig()
	WebSocketConfig ws.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store storage.ScoreStore
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	ledgerCfg := cfg.LedgerConfig
	if ledgerCfg == (ledger.Config{}) {
		ledgerCfg = ledger.DefaultConfig()
	}
	wsCfg := cfg.WebSocketConfig
	if wsCfg == (ws.Config{}) {
		wsCfg = ws.DefaultConfig()
	}

	return newWithDependencies(store, clock.New(), random.New(), ledgerCfg, wsCfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.ScoreStore,
	clk clock.Clock,
	rnd random.Random,
	ledgerCfg ledger.Config,
	wsCfg ws.Config,
	logger *slog.Logger,
) *App {
	reg := registry.New(clk, rnd, logger)
	led := ledger.New(store, ledgerCfg, logger)
	rtr := router.New(reg, led, clk, rnd, logger)
	hub := ws.NewHub(rtr, clk, wsCfg, logger)

	return &App{
		Store:     store,
		Clock:     clk,
		Random:    rnd,
		Registry:  reg,
		Ledger:    led,
		Router:    rtr,
		Hub:       hub,
		startedAt: clk.Now(),
		logger:    logger,
	}
}

// Start launches the background workers. ctx bounds the ledger pool.
func (a *App) Start(ctx context.Context) {
	a.startOnce.Do(func() {
		a.Ledger.Start(ctx)
		go a.Hub.Run()
	})
}

// Handler returns the HTTP surface: score and health routes plus /ws
func (a *App) Handler(allowedOrigin string) http.Handler {
	return api.NewRouter(api.RouterConfig{
		Logger:        a.logger,
		Scores:        a.Ledger,
		Stats:         a,
		WebSocket:     http.HandlerFunc(a.Hub.ServeWS),
		AllowedOrigin: allowedOrigin,
	})
}

// Connections returns the number of live connections
func (a *App) Connections() int {
	return a.Registry.Count()
}

// Uptime returns how long ago the app was built
func (a *App) Uptime() time.Duration {
	return clock.Since(a.Clock, a.startedAt)
}

// Sessions returns the number of live sessions
func (a *App) Sessions() int {
	return a.Router.Sessions().Count()
}

// Close disconnects every client, drains queued score writes and releases
// the store
func (a *App) Close() error {
	var err error
	a.closeOnce.Do(func() {
		a.Hub.Close()
		a.Ledger.Close()
		err = a.Store.Close()
	})
	return err
}
