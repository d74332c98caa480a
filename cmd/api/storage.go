package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/geocoder89/collegeevents/internal/cache"
	"github.com/geocoder89/collegeevents/internal/config"
	"github.com/geocoder89/collegeevents/internal/db"
	httpx "github.com/geocoder89/collegeevents/internal/http"
	"github.com/geocoder89/collegeevents/internal/http/handlers"
	"github.com/geocoder89/collegeevents/internal/observability"
	"github.com/geocoder89/collegeevents/internal/repo/memory"
	"github.com/geocoder89/collegeevents/internal/repo/postgres"
	"github.com/geocoder89/collegeevents/internal/service"
)

type storage struct {
	events        service.EventStore
	registrations service.RegistrationStore
	users         interface {
		httpx.UserStore
		db.AdminStore
	}
	cache       cache.Store
	readyChecks map[string]handlers.Pinger
	closers     []func()
}

func (s *storage) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openStorage(ctx context.Context, cfg config.Config, log *slog.Logger, prom *observability.Prom) (*storage, error) {
	s := &storage{readyChecks: map[string]handlers.Pinger{}}

	switch cfg.StorageDriver {
	case config.StorageMemory:
		mem := memory.NewDB()
		s.events = memory.NewEventsRepo(mem)
		s.registrations = memory.NewRegistrationsRepo(mem)
		s.users = memory.NewUsersRepo(mem)
		log.Warn("using in-memory storage, data is lost on restart")

	case config.StoragePostgres:
		pool, err := db.NewPool(ctx, cfg.DBURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		s.closers = append(s.closers, pool.Close)

		if err := db.Migrate(ctx, pool); err != nil {
			s.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}

		s.events = postgres.NewEventsRepo(pool, prom)
		s.registrations = postgres.NewRegistrationsRepo(pool, prom)
		s.users = postgres.NewUsersRepo(pool, prom)
		s.readyChecks["postgres"] = pool.Ping

	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	if cfg.RedisAddr != "" {
		rc := cache.NewRedis(cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.CacheTTL,
			Prefix:   "collegeevents:",
		})
		if err := rc.Ping(ctx); err != nil {
			// the service still works without a shared cache
			log.Warn("redis unavailable at startup", "addr", cfg.RedisAddr, "err", err)
		}
		s.cache = rc
		s.readyChecks["redis"] = rc.Ping
		s.closers = append(s.closers, func() { _ = rc.Close() })
	} else {
		s.cache = cache.NewMemory(cfg.CacheTTL)
	}

	return s, nil
}
