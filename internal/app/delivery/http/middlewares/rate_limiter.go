package middlewares

import (
	"chartseed-service/internal/pkg/exceptions"
	"chartseed-service/internal/pkg/utils"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimiter throttles per client IP and blocks an IP for a while once it
// blows through its budget. It sits in front of the destructive endpoints,
// where the per-second httprate limit alone is too forgiving.
type RateLimiter struct {
	limiters  map[string]*rate.Limiter
	blocked   map[string]time.Time
	mu        sync.Mutex
	requests  int
	per       time.Duration
	blockTime time.Duration
	log       *zap.Logger
}

func NewRateLimiter(rps int, per, blockTime time.Duration, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{
		limiters:  make(map[string]*rate.Limiter),
		blocked:   make(map[string]time.Time),
		requests:  rps,
		per:       per,
		blockTime: blockTime,
		log:       logger,
	}
}

func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ip, _, err := net.SplitHostPort(req.RemoteAddr)
		if err != nil {
			utils.BuildErrorResponse(rl.log, w, exceptions.ErrServerProcess(err))
			return
		}

		rl.mu.Lock()

		if blockedUntil, found := rl.blocked[ip]; found {
			if time.Now().Before(blockedUntil) {
				rl.mu.Unlock()

				utils.BuildErrorResponse(rl.log, w, exceptions.ErrTooManyRequests(nil))
				return
			}

			delete(rl.blocked, ip)
		}

		limiter, exists := rl.limiters[ip]
		if !exists {
			limiter = rate.NewLimiter(rate.Every(rl.per), rl.requests)
			rl.limiters[ip] = limiter
		}

		rl.mu.Unlock()

		if !limiter.Allow() {
			rl.mu.Lock()
			rl.blocked[ip] = time.Now().Add(rl.blockTime)
			rl.mu.Unlock()

			rl.log.Warn("client temporarily blocked after exceeding the rate limit",
				zap.String("ip", ip),
				zap.Time("blocked_until", time.Now().Add(rl.blockTime)),
			)
			utils.BuildErrorResponse(rl.log, w, exceptions.ErrTooManyRequests(nil))
			return
		}

		next.ServeHTTP(w, req)
	})
}
