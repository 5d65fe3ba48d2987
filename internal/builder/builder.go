package builder

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/muli0525/ChineseChessAssistant/internal/config"
	"github.com/muli0525/ChineseChessAssistant/internal/engine"
	"github.com/muli0525/ChineseChessAssistant/internal/engine/uci"
	"github.com/muli0525/ChineseChessAssistant/internal/server/api"
	"github.com/muli0525/ChineseChessAssistant/internal/service/analysis"
)

// Deps holds the wired application graph.
type Deps struct {
	Service *analysis.Service
	Session *engine.Session
	Handler *api.Handler

	db  *sql.DB
	rdb *redis.Client
}

// New wires the engine session, cache, repository, service and HTTP handler
// from the loaded configuration. Redis and Postgres are optional; without
// them the service runs with a disabled cache and an in-memory repository.
func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	deps := &Deps{}

	session := engine.NewSession(logger, uci.Config{
		StartTimeout:     time.Duration(cfg.EngineStartTimeoutSec) * time.Second,
		HandshakeTimeout: time.Duration(cfg.EngineHandshakeTimeoutSec) * time.Second,
	})
	if err := session.Start(ctx, cfg.EnginePath); err != nil {
		return nil, fmt.Errorf("start engine: %w", err)
	}
	for name, value := range cfg.EngineOptions {
		if err := session.SetOption(name, value); err != nil {
			session.Shutdown()
			return nil, fmt.Errorf("set engine option %s: %w", name, err)
		}
	}
	deps.Session = session

	var cache *analysis.SuggestionCache
	if strings.TrimSpace(cfg.RedisURL) != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			session.Shutdown()
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		rdb := redis.NewClient(opts)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			session.Shutdown()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		deps.rdb = rdb
		cache = analysis.NewSuggestionCache(rdb, time.Duration(cfg.SuggestionCacheTTLSec)*time.Second)
	} else {
		logger.Warn("REDIS_URL not set, suggestion cache disabled")
	}

	repo := analysis.NewMemoryRepository()
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		db.SetMaxOpenConns(16)
		db.SetMaxIdleConns(8)
		db.SetConnMaxLifetime(30 * time.Minute)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = db.PingContext(pingCtx)
		cancel()
		if err != nil {
			_ = db.Close()
			deps.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		deps.db = db
		repo = analysis.NewRepository(db)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory repository")
	}

	svc := analysis.NewService(session, cache, repo, analysis.Config{
		DefaultPreset:      cfg.EnginePreset,
		HistoryLimit:       cfg.HistoryLimit,
		MaxConcurrentGames: cfg.MaxConcurrentGames,
	}, logger)
	deps.Service = svc
	deps.Handler = api.NewHandler(svc, logger)

	return deps, nil
}

// Close tears down the engine subprocess and external connections.
func (d *Deps) Close() {
	if d.Session != nil {
		d.Session.Shutdown()
	}
	if d.rdb != nil {
		_ = d.rdb.Close()
	}
	if d.db != nil {
		_ = d.db.Close()
	}
}
