package middleware

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"agriconnect/backend/internal/config"
)

// CreationLimiter bounds contact-request creation attempts per requester over
// a rolling 24h window. This counts attempts, including ones the service
// rejects; the daily quota inside the service separately counts successes
// against durable records.
type CreationLimiter struct {
	limiters map[string]*attemptLimiter
	mu       sync.Mutex
	cfg      *config.Config
}

type attemptLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewCreationLimiter creates a new CreationLimiter.
func NewCreationLimiter(cfg *config.Config) *CreationLimiter {
	cl := &CreationLimiter{
		limiters: make(map[string]*attemptLimiter),
		cfg:      cfg,
	}
	go cl.cleanup()
	return cl
}

func (cl *CreationLimiter) getLimiter(userID, role string) *rate.Limiter {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	al, exists := cl.limiters[userID]
	if !exists {
		// Bucket holds the full daily budget; refill spreads it over 24h
		perDay := cl.cfg.DailyRequestLimitForRole(role)
		al = &attemptLimiter{
			limiter: rate.NewLimiter(rate.Limit(float64(perDay)/(24*time.Hour).Seconds()), perDay),
		}
		cl.limiters[userID] = al
	}
	al.lastSeen = time.Now()
	return al.limiter
}

func (cl *CreationLimiter) cleanup() {
	for {
		time.Sleep(time.Hour)
		cl.mu.Lock()
		for id, al := range cl.limiters {
			if time.Since(al.lastSeen) > 48*time.Hour {
				delete(cl.limiters, id)
			}
		}
		cl.mu.Unlock()
	}
}

// Limit creates the Gin middleware handler. Assumes AuthMiddleware runs
// first.
func (cl *CreationLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(ContextKeyUserID)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		role := c.GetString(ContextKeyUserRole)

		if !cl.getLimiter(userID, role).Allow() {
			log.Printf("Creation attempt limit exceeded for user %s (role %s)", userID, role)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Daily contact request attempt limit reached"})
			return
		}

		c.Next()
	}
}
