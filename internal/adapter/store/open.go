// Package store selects the session store configured for a front-end.
package store

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/escalopa/arud-bot/internal/adapter/memory"
	"github.com/escalopa/arud-bot/internal/adapter/redis"
	"github.com/escalopa/arud-bot/internal/adapter/sqlite"
	"github.com/escalopa/arud-bot/internal/config"
	"github.com/escalopa/arud-bot/internal/domain"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open returns the store named by cfg.Session.Driver and the closer releasing it.
func Open(cfg *config.Config, logger *zap.Logger) (domain.Store, io.Closer, error) {
	switch cfg.Session.Driver {
	case config.SessionDriverRedis:
		s, err := redis.NewStore(cfg.Redis.URI)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("session store ready", zap.String("driver", cfg.Session.Driver))
		return s, s, nil
	case config.SessionDriverSQLite:
		path, err := cfg.SQLitePath()
		if err != nil {
			return nil, nil, err
		}
		s, err := sqlite.Open(path)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("session store ready", zap.String("driver", cfg.Session.Driver), zap.String("path", path))
		return s, s, nil
	case config.SessionDriverMemory:
		logger.Info("session store ready", zap.String("driver", cfg.Session.Driver))
		return memory.NewStore(), nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown session driver %q", cfg.Session.Driver)
	}
}
