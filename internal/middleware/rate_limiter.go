package middleware

import (
	"sync"
	"time"
)

// RateLimiter implements a simple in-memory rate limiter keyed by player
// and by client IP.
type RateLimiter struct {
	playerLimits map[uint]*playerLimit
	ipLimits     map[string]*ipLimit
	mu           sync.RWMutex

	playerMaxRequests int
	ipMaxRequests     int
	window            time.Duration
}

type playerLimit struct {
	requests  int
	resetTime time.Time
}

type ipLimit struct {
	requests  int
	resetTime time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(playerMaxRequests, ipMaxRequests int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		playerLimits:      make(map[uint]*playerLimit),
		ipLimits:          make(map[string]*ipLimit),
		playerMaxRequests: playerMaxRequests,
		ipMaxRequests:     ipMaxRequests,
		window:            window,
	}

	// Start cleanup goroutine
	go rl.cleanup()

	return rl
}

// CheckPlayerLimit checks if a player has exceeded the rate limit
func (rl *RateLimiter) CheckPlayerLimit(playerID uint) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()

	limit, exists := rl.playerLimits[playerID]
	if !exists || now.After(limit.resetTime) {
		rl.playerLimits[playerID] = &playerLimit{
			requests:  1,
			resetTime: now.Add(rl.window),
		}
		return true
	}

	if limit.requests >= rl.playerMaxRequests {
		return false
	}

	limit.requests++
	return true
}

// CheckIPLimit checks if an IP has exceeded the rate limit
func (rl *RateLimiter) CheckIPLimit(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()

	limit, exists := rl.ipLimits[ip]
	if !exists || now.After(limit.resetTime) {
		rl.ipLimits[ip] = &ipLimit{
			requests:  1,
			resetTime: now.Add(rl.window),
		}
		return true
	}

	if limit.requests >= rl.ipMaxRequests {
		return false
	}

	limit.requests++
	return true
}

// GetPlayerRemaining returns remaining requests for a player
func (rl *RateLimiter) GetPlayerRemaining(playerID uint) int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	limit, exists := rl.playerLimits[playerID]
	if !exists || time.Now().After(limit.resetTime) {
		return rl.playerMaxRequests
	}

	remaining := rl.playerMaxRequests - limit.requests
	if remaining < 0 {
		return 0
	}
	return remaining
}

// cleanup removes expired entries
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()

		for playerID, limit := range rl.playerLimits {
			if now.After(limit.resetTime) {
				delete(rl.playerLimits, playerID)
			}
		}

		for ip, limit := range rl.ipLimits {
			if now.After(limit.resetTime) {
				delete(rl.ipLimits, ip)
			}
		}

		rl.mu.Unlock()
	}
}

// Reset clears all rate limits (useful for testing)
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.playerLimits = make(map[uint]*playerLimit)
	rl.ipLimits = make(map[string]*ipLimit)
}
