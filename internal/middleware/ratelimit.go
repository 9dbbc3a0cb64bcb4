package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps a token bucket per authenticated user. Buckets idle
// for longer than idleTTL are dropped by the cleanup loop.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[uuid.UUID]*userLimiter
	rate     rate.Limit
	burst    int
	idleTTL  time.Duration
}

func NewRateLimiter(rps int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[uuid.UUID]*userLimiter),
		rate:     rate.Limit(rps),
		burst:    rps * 2,
		idleTTL:  10 * time.Minute,
	}
}

func (rl *RateLimiter) allow(userID uuid.UUID) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	ul, exists := rl.limiters[userID]
	if !exists {
		ul = &userLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[userID] = ul
	}
	ul.lastSeen = time.Now()

	return ul.limiter.Allow()
}

// Cleanup periodically drops buckets for users who went quiet
func (rl *RateLimiter) Cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	go func() {
		for range ticker.C {
			cutoff := time.Now().Add(-rl.idleTTL)
			rl.mu.Lock()
			for id, ul := range rl.limiters {
				if ul.lastSeen.Before(cutoff) {
					delete(rl.limiters, id)
				}
			}
			rl.mu.Unlock()
		}
	}()
}

// RateLimitMiddleware limits requests per authenticated user
func RateLimitMiddleware(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("user_id")
		if !exists {
			c.Next()
			return
		}

		uid, ok := userID.(uuid.UUID)
		if !ok {
			c.Next()
			return
		}

		if !rl.allow(uid) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Limite de requisições excedido"})
			c.Abort()
			return
		}

		c.Next()
	}
}
