// internal/adapters/out/cache/product_cached_repo.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/pkg/errors"
	redis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"

	productdom "anusswar/internal/domain/product"
)

const baseTTL = 10 * time.Minute

// ProductCachedRepo is a read-through Redis cache in front of a product.Repository.
// A Redis failure or an open breaker falls through to the wrapped repository.
type ProductCachedRepo struct {
	next productdom.Repository
	rdb  redis.UniversalClient
	sf   singleflight.Group
	cb   *gobreaker.CircuitBreaker
	log  *logrus.Logger
}

var _ productdom.Repository = (*ProductCachedRepo)(nil)

func NewProductCachedRepo(next productdom.Repository, rdb redis.UniversalClient, log *logrus.Logger) *ProductCachedRepo {
	st := gobreaker.Settings{
		Name:        "redis-products",
		MaxRequests: 1,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warnf("[cache] circuit breaker %s changed from %s to %s", name, from, to)
		},
	}
	return &ProductCachedRepo{
		next: next,
		rdb:  rdb,
		cb:   gobreaker.NewCircuitBreaker(st),
		log:  log,
	}
}

func (c *ProductCachedRepo) Get(ctx context.Context, id string) (*productdom.Product, error) {
	pid := strings.TrimSpace(id)
	key := productKey(pid)

	val, err := c.cb.Execute(func() (interface{}, error) {
		res, err := c.rdb.Get(ctx, key).Result()
		if err == redis.Nil {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return res, nil
	})
	if err != nil {
		c.log.WithError(err).WithField("key", key).Debug("[cache] read skipped")
	}

	if s, ok := val.(string); ok {
		var p productdom.Product
		if err := json.Unmarshal([]byte(s), &p); err == nil {
			return &p, nil
		}
		c.log.WithField("key", key).Warn("[cache] dropping undecodable entry")
	}

	result, err, shared := c.sf.Do(key, func() (interface{}, error) {
		p, err := c.next.Get(ctx, pid)
		if err != nil {
			return nil, err
		}
		c.store(ctx, key, p)
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.log.WithField("id", pid).Debug("[cache] shared load")
	}

	p := *result.(*productdom.Product)
	return &p, nil
}

func (c *ProductCachedRepo) List(ctx context.Context) ([]productdom.Product, error) {
	return c.next.List(ctx)
}

// Upsert writes through and evicts the cached copy.
func (c *ProductCachedRepo) Upsert(ctx context.Context, p productdom.Product) error {
	if err := c.next.Upsert(ctx, p); err != nil {
		return err
	}
	key := productKey(p.ID)
	if _, err := c.cb.Execute(func() (interface{}, error) {
		return nil, c.rdb.Del(ctx, key).Err()
	}); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("[cache] evict failed")
	}
	return nil
}

func (c *ProductCachedRepo) store(ctx context.Context, key string, p *productdom.Product) {
	data, err := json.Marshal(p)
	if err != nil {
		c.log.WithError(errors.WithStack(err)).WithField("key", key).Error("[cache] encode failed")
		return
	}
	ttl := baseTTL + time.Duration(rand.IntN(60))*time.Second
	if _, err := c.cb.Execute(func() (interface{}, error) {
		return nil, c.rdb.Set(ctx, key, string(data), ttl).Err()
	}); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("[cache] write failed")
	}
}

func productKey(id string) string {
	return fmt.Sprintf("product:%s", id)
}
