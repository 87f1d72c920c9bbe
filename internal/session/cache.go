// Package session keeps the most recent poem and its analysis so a later
// run can restore them. Only one session is retained per key.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/escalopa/arud-bot/internal/domain"
)

// DefaultKey is the well-known key of the last session
const DefaultKey = "lastAnalysis"

// Session is the persisted record; Results holds the analysis payload as received.
// ID distinguishes successive analyses stored under the same key.
type Session struct {
	ID      string          `json:"id,omitempty"`
	Poem    string          `json:"poem"`
	Results json.RawMessage `json:"results"`
}

type Cache struct {
	store  domain.Store
	logger *zap.Logger
}

func NewCache(store domain.Store, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{store: store, logger: logger.Named("session")}
}

// Save overwrites the session under key. Failures are logged and returned;
// callers may ignore them.
func (c *Cache) Save(ctx context.Context, key string, s Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		c.logger.Warn("encode session failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("encode session: %w", err)
	}
	if err := c.store.Put(ctx, key, data); err != nil {
		c.logger.Warn("save session failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Restore returns the session under key and its decoded analysis.
// A missing or malformed session reports false; a malformed one is deleted.
func (c *Cache) Restore(ctx context.Context, key string) (Session, *domain.Analysis, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			c.logger.Warn("load session failed", zap.String("key", key), zap.Error(err))
		}
		return Session{}, nil, false
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		c.discard(ctx, key, err)
		return Session{}, nil, false
	}
	analysis, err := domain.DecodeAnalysis(s.Results)
	if err != nil {
		c.discard(ctx, key, err)
		return Session{}, nil, false
	}
	return s, analysis, true
}

func (c *Cache) discard(ctx context.Context, key string, cause error) {
	c.logger.Info("discarding malformed session", zap.String("key", key), zap.Error(cause))
	if err := c.store.Delete(ctx, key); err != nil {
		c.logger.Warn("delete session failed", zap.String("key", key), zap.Error(err))
	}
}
