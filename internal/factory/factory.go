package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/mhutchin/wordrush/internal/dependencies/clock"
	"github.com/mhutchin/wordrush/internal/dependencies/random"
	"github.com/mhutchin/wordrush/internal/registry"
	"github.com/mhutchin/wordrush/internal/services/dictionary"
	"github.com/mhutchin/wordrush/internal/services/player"
	"github.com/mhutchin/wordrush/internal/services/presence"
	"github.com/mhutchin/wordrush/internal/services/room"
	"github.com/mhutchin/wordrush/internal/storage"
	"github.com/mhutchin/wordrush/internal/storage/memory"
	redisstorage "github.com/mhutchin/wordrush/internal/storage/redis"
	"github.com/mhutchin/wordrush/internal/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Core
	Registry    *registry.Registry
	RoomStore   *room.Store
	Coordinator *presence.Coordinator
	Hub         *ws.Hub

	// Services
	PlayerService     *player.Service
	DictionaryService *dictionary.Service
}

// Config holds configuration for the application factory
type Config struct {
	// PlayerConfig holds configuration for the player service (optional)
	// If zero value, defaults to player.DefaultConfig()
	PlayerConfig player.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store storage.Storage
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

	clk := clock.New()
	rnd := random.New()

	playerCfg := cfg.PlayerConfig
	if playerCfg.SessionDuration == 0 {
		playerCfg = player.DefaultConfig()
	}

	return newWithDependencies(store, clk, rnd, playerCfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, playerCfg player.Config, logger *slog.Logger) *App {
	reg := registry.New()
	roomStore := room.NewStore(store, clk, logger)
	hub := ws.NewHub(rnd, logger.With(slog.String("component", "ws")))
	coordinator := presence.NewCoordinator(reg, roomStore, hub, logger)
	hub.SetDispatcher(coordinator)

	playerService := player.New(store, clk, playerCfg)
	dictService := dictionary.New(store)

	return &App{
		Storage:           store,
		Clock:             clk,
		Random:            rnd,
		Registry:          reg,
		RoomStore:         roomStore,
		Coordinator:       coordinator,
		Hub:               hub,
		PlayerService:     playerService,
		DictionaryService: dictService,
	}
}
