package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/wonny/pim/backend/internal/contracts"
	"github.com/wonny/pim/backend/pkg/logger"
	"github.com/wonny/pim/backend/pkg/redis"
)

// familyMaskCache is the subset of the redis cache the loader needs
type familyMaskCache interface {
	Enabled() bool
	MGet(ctx context.Context, keys []string) (map[string][]byte, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

var _ familyMaskCache = (*redis.Cache)(nil)

// CachedFamilyMaskLoader serves family masks from redis and loads misses from
// the wrapped loader. Cache failures fall back to the wrapped loader.
type CachedFamilyMaskLoader struct {
	next   contracts.FamilyMaskLoader
	cache  familyMaskCache
	ttl    time.Duration
	logger *logger.Logger
}

var _ contracts.FamilyMaskLoader = (*CachedFamilyMaskLoader)(nil)

// NewCachedFamilyMaskLoader wraps next with a redis cache
func NewCachedFamilyMaskLoader(next contracts.FamilyMaskLoader, cache familyMaskCache, ttl time.Duration, log *logger.Logger) *CachedFamilyMaskLoader {
	if log == nil {
		log = logger.Nop()
	}
	if ttl <= 0 {
		ttl = redis.TTLMedium
	}
	return &CachedFamilyMaskLoader{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: log.WithComponent("family_mask_cache"),
	}
}

// FromFamilyCodes returns cached masks and loads the rest in one call
func (l *CachedFamilyMaskLoader) FromFamilyCodes(ctx context.Context, familyCodes []string) (map[string]*contracts.FamilyMask, error) {
	if len(familyCodes) == 0 {
		return map[string]*contracts.FamilyMask{}, nil
	}
	if !l.cache.Enabled() {
		return l.next.FromFamilyCodes(ctx, familyCodes)
	}

	keys := make([]string, len(familyCodes))
	for i, code := range familyCodes {
		keys[i] = redis.FamilyMaskKey(code)
	}

	cached, err := l.cache.MGet(ctx, keys)
	if err != nil {
		l.logger.WithError(err).Warn("family mask cache read failed, loading from source")
		cached = map[string][]byte{}
	}

	masks := make(map[string]*contracts.FamilyMask, len(familyCodes))
	var misses []string
	for i, code := range familyCodes {
		data, ok := cached[keys[i]]
		if !ok {
			misses = append(misses, code)
			continue
		}

		var mask contracts.FamilyMask
		if err := json.Unmarshal(data, &mask); err != nil || mask.FamilyCode() != code {
			l.logger.WithField("family", code).Warn("discarding unreadable cached family mask")
			misses = append(misses, code)
			continue
		}
		masks[code] = &mask
	}

	if len(misses) == 0 {
		return masks, nil
	}

	loaded, err := l.next.FromFamilyCodes(ctx, misses)
	if err != nil {
		return nil, err
	}

	for code, mask := range loaded {
		masks[code] = mask
		if err := l.cache.Set(ctx, redis.FamilyMaskKey(code), mask, l.ttl); err != nil {
			l.logger.WithError(err).WithField("family", code).Warn("family mask cache write failed")
		}
	}

	l.logger.WithFields(map[string]interface{}{
		"hits":   len(familyCodes) - len(misses),
		"misses": len(misses),
	}).Debug("family masks loaded")

	return masks, nil
}
