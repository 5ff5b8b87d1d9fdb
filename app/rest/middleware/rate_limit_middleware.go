package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"navius/app/config"
	apperrors "navius/app/utils/errors"
)

const (
	visitorIdleTimeout = 3 * time.Minute
	visitorSweepEvery  = time.Minute
)

// RateLimiter is a token bucket shared by all clients, optionally combined
// with one bucket per client IP.
type RateLimiter struct {
	limit     rate.Limit
	burst     int
	perClient bool
	global    *rate.Limiter
	now       func() time.Time

	mutex    sync.Mutex
	visitors map[string]*Visitor

	stopOnce sync.Once
	stop     chan struct{}
}

type Visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter refills requests_per_window tokens every window. The
// visitor sweeper runs only in per-client mode.
func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	requests := max(cfg.RequestsPerWindow, 1)
	window := time.Duration(max(cfg.WindowSeconds, 1)) * time.Second
	limit := rate.Every(window / time.Duration(requests))

	rl := &RateLimiter{
		limit:     limit,
		burst:     requests,
		perClient: cfg.PerClient,
		global:    rate.NewLimiter(limit, requests),
		now:       time.Now,
		visitors:  make(map[string]*Visitor),
		stop:      make(chan struct{}),
	}
	if rl.perClient {
		go rl.cleanupVisitors()
	}
	return rl
}

func (rl *RateLimiter) RateLimit() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ok, retryAfter := rl.allow(c.RealIP())
			if !ok {
				seconds := int(math.Ceil(retryAfter.Seconds()))
				c.Response().Header().Set("Retry-After", strconv.Itoa(max(seconds, 1)))
				return apperrors.New(apperrors.ErrCodeRateLimitExceeded, "rate limit exceeded").
					WithContext("retry_after", max(seconds, 1))
			}
			return next(c)
		}
	}
}

func (rl *RateLimiter) allow(ip string) (bool, time.Duration) {
	now := rl.now()

	if rl.perClient {
		visitor := rl.visitor(ip, now)
		if !visitor.AllowN(now, 1) {
			return false, delay(visitor, now)
		}
	}
	if !rl.global.AllowN(now, 1) {
		return false, delay(rl.global, now)
	}
	return true, 0
}

func (rl *RateLimiter) visitor(ip string, now time.Time) *rate.Limiter {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		v = &Visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

// delay is the wait until the limiter would admit one more request.
func delay(l *rate.Limiter, now time.Time) time.Duration {
	r := l.ReserveN(now, 1)
	if !r.OK() {
		return time.Minute
	}
	d := r.DelayFrom(now)
	r.CancelAt(now)
	return d
}

// sweep drops visitors idle for longer than the idle timeout
func (rl *RateLimiter) sweep(now time.Time) int {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	removed := 0
	for ip, visitor := range rl.visitors {
		if now.Sub(visitor.lastSeen) > visitorIdleTimeout {
			delete(rl.visitors, ip)
			removed++
		}
	}
	return removed
}

func (rl *RateLimiter) cleanupVisitors() {
	ticker := time.NewTicker(visitorSweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.sweep(rl.now())
		}
	}
}

// Close stops the visitor sweeper
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}
