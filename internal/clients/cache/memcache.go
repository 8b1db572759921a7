package cache

import (
	"strconv"

	"github.com/pkg/errors"

	"go.uber.org/zap"
	"max.ks1230/finance-tracker/internal/logger"

	"github.com/bradfitz/gomemcache/memcache"
)

const keyBase = 10

// chart payloads are invalidated on write anyway; the TTL just bounds
// staleness if an invalidation is lost
const chartTTLSeconds = 300

type MemcacheClient struct {
	client *memcache.Client
}

type config interface {
	Hosts() []string
}

func NewMemcache(config config) (*MemcacheClient, error) {
	logger.Info("memcached hosts", zap.Strings("hosts", config.Hosts()))
	mc := memcache.New(config.Hosts()...)
	return &MemcacheClient{mc}, mc.Ping()
}

func formatKey(userID int64, endpoint, option string) string {
	return strconv.FormatInt(userID, keyBase) + ":" + endpoint + ":" + option
}

// CachePayload stores a rendered chart/category JSON payload.
func (mc *MemcacheClient) CachePayload(userID int64, endpoint, option string, payload []byte) error {
	logger.Info("cache payload",
		zap.Int64("userID", userID), zap.String("endpoint", endpoint), zap.String("option", option))
	return mc.client.Set(&memcache.Item{
		Key:        formatKey(userID, endpoint, option),
		Value:      payload,
		Expiration: chartTTLSeconds,
	})
}

// GetPayload returns a cached payload, memcache.ErrCacheMiss when absent.
func (mc *MemcacheClient) GetPayload(userID int64, endpoint, option string) ([]byte, error) {
	item, err := mc.client.Get(formatKey(userID, endpoint, option))
	if err != nil {
		return nil, err
	}
	return item.Value, nil
}

// Invalidate drops every cached option of the given endpoints for the user.
// Called after any transaction write.
func (mc *MemcacheClient) Invalidate(userID int64, endpoints, options []string) error {
	logger.Info("invalidate cache", zap.Int64("userID", userID))

	for _, endpoint := range endpoints {
		for _, opt := range options {
			err := mc.client.Delete(formatKey(userID, endpoint, opt))
			if err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
				return err
			}
		}
	}
	return nil
}
