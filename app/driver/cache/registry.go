package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"navius/app/domain"
	"navius/app/port"
	apperrors "navius/app/utils/errors"
)

const (
	ProviderMemory  = "memory"
	ProviderRedis   = "redis"
	ProviderTwoTier = "two-tier"
)

// ProviderRegistry resolves a CacheConfig to the provider that builds it
type ProviderRegistry struct {
	mu        sync.RWMutex
	providers map[string]port.CacheProvider
	order     []string
}

func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{providers: make(map[string]port.CacheProvider)}
}

// Register adds p, replacing any provider with the same name
func (r *ProviderRegistry) Register(p port.CacheProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[p.Name()]; !exists {
		r.order = append(r.order, p.Name())
	}
	r.providers[p.Name()] = p
}

func (r *ProviderRegistry) Get(name string) (port.CacheProvider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	return p, ok
}

// Names lists providers in registration order
func (r *ProviderRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string(nil), r.order...)
}

// Create builds cfg with the provider it names, or with the first
// registered provider that supports it.
func (r *ProviderRegistry) Create(ctx context.Context, cfg domain.CacheConfig) (port.Cache, error) {
	r.mu.RLock()
	p, ok := r.providers[cfg.Provider]
	if !ok || !p.Supports(cfg) {
		p, ok = nil, false
		for _, name := range r.order {
			if candidate := r.providers[name]; candidate.Supports(cfg) {
				p, ok = candidate, true
				break
			}
		}
	}
	r.mu.RUnlock()

	if !ok {
		return nil, apperrors.Newf(apperrors.ErrCodeConfigError, "no provider found for cache %q", cfg.Name).
			WithContext("provider", cfg.Provider)
	}
	return p.Create(ctx, cfg)
}

// MemoryProvider builds MemoryCache instances and stops their sweepers on Close
type MemoryProvider struct {
	logger *slog.Logger
	opts   []MemoryOption

	mu     sync.Mutex
	caches []*MemoryCache
}

func NewMemoryProvider(logger *slog.Logger, opts ...MemoryOption) *MemoryProvider {
	return &MemoryProvider{logger: logger, opts: opts}
}

func (p *MemoryProvider) Name() string { return ProviderMemory }

func (p *MemoryProvider) Supports(cfg domain.CacheConfig) bool {
	return cfg.Provider == ProviderMemory || cfg.Provider == ""
}

func (p *MemoryProvider) Create(_ context.Context, cfg domain.CacheConfig) (port.Cache, error) {
	opts := append([]MemoryOption{WithLogger(p.logger)}, p.opts...)
	c := NewMemoryCache(cfg, opts...)

	p.mu.Lock()
	p.caches = append(p.caches, c)
	p.mu.Unlock()

	return c, nil
}

func (p *MemoryProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, c := range p.caches {
		c.Close()
	}
	p.caches = nil
	return nil
}

// RedisProvider builds RedisCache instances on a shared client
type RedisProvider struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

func NewRedisProvider(client *redis.Client, prefix string, logger *slog.Logger) *RedisProvider {
	return &RedisProvider{client: client, prefix: prefix, logger: logger}
}

func (p *RedisProvider) Name() string { return ProviderRedis }

func (p *RedisProvider) Supports(cfg domain.CacheConfig) bool {
	return cfg.Provider == ProviderRedis && p.client != nil
}

func (p *RedisProvider) Create(_ context.Context, cfg domain.CacheConfig) (port.Cache, error) {
	if p.client == nil {
		return nil, apperrors.New(apperrors.ErrCodeConfigError, "redis client is not configured")
	}
	return NewRedisCache(p.client, cfg.Name, p.prefix, cfg.DefaultTTL, p.logger), nil
}

// Ping checks the shared client
func (p *RedisProvider) Ping(ctx context.Context) error {
	if p.client == nil {
		return apperrors.New(apperrors.ErrCodeConfigError, "redis client is not configured")
	}
	return p.client.Ping(ctx).Err()
}

// TwoTierProvider pairs a memory fast tier with a redis slow tier. The fast
// tier keeps entries at most fastTTL.
type TwoTierProvider struct {
	memory  *MemoryProvider
	redis   *RedisProvider
	fastTTL time.Duration
	logger  *slog.Logger
}

func NewTwoTierProvider(memory *MemoryProvider, redis *RedisProvider, fastTTL time.Duration, logger *slog.Logger) *TwoTierProvider {
	return &TwoTierProvider{memory: memory, redis: redis, fastTTL: fastTTL, logger: logger}
}

func (p *TwoTierProvider) Name() string { return ProviderTwoTier }

func (p *TwoTierProvider) Supports(cfg domain.CacheConfig) bool {
	return cfg.Provider == ProviderTwoTier && p.redis != nil && p.redis.client != nil
}

func (p *TwoTierProvider) Create(ctx context.Context, cfg domain.CacheConfig) (port.Cache, error) {
	fastCfg := cfg
	fastCfg.Provider = ProviderMemory
	if p.fastTTL > 0 && (fastCfg.DefaultTTL <= 0 || fastCfg.DefaultTTL > p.fastTTL) {
		fastCfg.DefaultTTL = p.fastTTL
	}
	fast, err := p.memory.Create(ctx, fastCfg)
	if err != nil {
		return nil, err
	}

	slowCfg := cfg
	slowCfg.Provider = ProviderRedis
	slow, err := p.redis.Create(ctx, slowCfg)
	if err != nil {
		return nil, err
	}

	return NewTwoTierCache(cfg.Name, fast, slow, p.logger), nil
}
