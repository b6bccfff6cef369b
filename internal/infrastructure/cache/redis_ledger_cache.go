package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appbilling "github.com/leadqual/backend/internal/application/billing"
)

const defaultLedgerCacheTTL = 30 * time.Second

// RedisLedgerCache caches rendered ledger pages in Redis. The ledger is
// append-only and display-only, so a short TTL is the only invalidation
// needed. Cache failures are logged and treated as misses; the ledger
// repository stays the source of truth.
type RedisLedgerCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	logger    *zap.Logger
}

var _ appbilling.LedgerDisplayCache = (*RedisLedgerCache)(nil)

// NewRedisLedgerCache creates a ledger cache with an existing Redis client.
// A non-positive ttl uses the default of 30 seconds.
func NewRedisLedgerCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisLedgerCache {
	if ttl <= 0 {
		ttl = defaultLedgerCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisLedgerCache{
		client:    client,
		keyPrefix: "billing:ledger:",
		ttl:       ttl,
		logger:    logger,
	}
}

func (c *RedisLedgerCache) key(organizationID uuid.UUID, limit int) string {
	return fmt.Sprintf("%s%s:%d", c.keyPrefix, organizationID, limit)
}

// Get returns a cached ledger page, or a miss on any failure
func (c *RedisLedgerCache) Get(ctx context.Context, organizationID uuid.UUID, limit int) (*appbilling.LedgerView, bool) {
	raw, err := c.client.Get(ctx, c.key(organizationID, limit)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("Ledger cache read failed",
				zap.String("organization_id", organizationID.String()),
				zap.Error(err))
		}
		return nil, false
	}

	var view appbilling.LedgerView
	if err := json.Unmarshal(raw, &view); err != nil {
		c.logger.Warn("Ledger cache entry is corrupt, discarding",
			zap.String("organization_id", organizationID.String()),
			zap.Error(err))
		return nil, false
	}
	return &view, true
}

// Set stores a rendered ledger page with the configured TTL
func (c *RedisLedgerCache) Set(ctx context.Context, organizationID uuid.UUID, limit int, view *appbilling.LedgerView) {
	raw, err := json.Marshal(view)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key(organizationID, limit), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("Ledger cache write failed",
			zap.String("organization_id", organizationID.String()),
			zap.Error(err))
	}
}
