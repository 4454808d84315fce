package services

import (
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/rephrase-labs/rephrase_api/dto"
	"github.com/rephrase-labs/rephrase_api/shared"
)

// RateLimitService is a process-wide fixed-window counter. The window table
// is the only shared mutable state in the authorization pipeline; every
// read-modify-write happens under one mutex and the critical section is kept
// to the map operation itself.
//
// Fixed windows admit up to 2x the limit across a window boundary. That is an
// accepted approximation, traded for a single cheap counter per key.
type RateLimitService struct {
	context.DefaultService

	jwtSvc *JWTService

	mu      sync.Mutex
	windows map[string]*rateWindow

	sweepInterval time.Duration
	stopSweep     chan struct{}

	now func() time.Time
}

type rateWindow struct {
	count     int
	expiresAt time.Time
}

// RateLimitConfig names a per-endpoint policy, teacher-style: one entry per
// endpoint type rather than ad-hoc literals at call sites.
type RateLimitConfig struct {
	MaxRequests int
	Window      time.Duration
}

var defaultLimits = map[string]RateLimitConfig{
	"register":   {MaxRequests: 5, Window: 15 * time.Minute},
	"login":      {MaxRequests: 10, Window: 15 * time.Minute},
	"paraphrase": {MaxRequests: 30, Window: time.Minute},
	"document":   {MaxRequests: 10, Window: time.Minute},
	"checkout":   {MaxRequests: 10, Window: 15 * time.Minute},
	"api":        {MaxRequests: 300, Window: time.Minute},
}

const RATE_LIMIT_SVC = "rate_limit_svc"

func (svc RateLimitService) Id() string {
	return RATE_LIMIT_SVC
}

func (svc *RateLimitService) Configure(ctx *context.Context) error {
	svc.windows = make(map[string]*rateWindow)
	svc.sweepInterval = 5 * time.Minute
	svc.stopSweep = make(chan struct{})
	svc.now = time.Now
	return svc.DefaultService.Configure(ctx)
}

func (svc *RateLimitService) Start() error {
	svc.jwtSvc = svc.Service(JWT_SVC).(*JWTService)

	go svc.sweepLoop()
	return nil
}

func (svc *RateLimitService) Shutdown() {
	close(svc.stopSweep)
}

// Hit records one request for key and returns the count inside the current
// window plus the time remaining until the window resets. A window whose
// expiry has passed is replaced, never accumulated.
func (svc *RateLimitService) Hit(key string, limit int, window time.Duration) (int, time.Duration) {
	now := svc.now()

	svc.mu.Lock()
	w, ok := svc.windows[key]
	if !ok || now.After(w.expiresAt) {
		w = &rateWindow{count: 0, expiresAt: now.Add(window)}
		svc.windows[key] = w
	}
	w.count++
	count := w.count
	remaining := w.expiresAt.Sub(now)
	svc.mu.Unlock()

	return count, remaining
}

// Allow applies Hit and folds the limit comparison into a RateLimitInfo.
// The hit itself is counted even when the request is ultimately rejected.
func (svc *RateLimitService) Allow(key string, limit int, window time.Duration) *dto.RateLimitInfo {
	count, remaining := svc.Hit(key, limit, window)

	retryAfter := int(remaining.Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}

	info := &dto.RateLimitInfo{
		Allowed:    count <= limit,
		Count:      count,
		Remaining:  limit - count,
		RetryAfter: retryAfter,
	}
	if info.Remaining < 0 {
		info.Remaining = 0
	}
	resetTime := svc.now().Add(remaining)
	info.ResetTime = &resetTime

	return info
}

// Limit builds a fiber middleware for the named endpoint type. Authenticated
// requests are keyed per user, anonymous ones per client IP.
func (svc *RateLimitService) Limit(endpointType string) fiber.Handler {
	config, ok := defaultLimits[endpointType]
	if !ok {
		config = defaultLimits["api"]
	}

	return func(c *fiber.Ctx) error {
		key := endpointType + ":" + svc.identifierFor(c)

		info := svc.Allow(key, config.MaxRequests, config.Window)

		c.Set("X-RateLimit-Limit", strconv.Itoa(config.MaxRequests))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		if info.ResetTime != nil {
			c.Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
		}

		if !info.Allowed {
			c.Set("Retry-After", strconv.Itoa(info.RetryAfter))
			log.WithFields(log.Fields{
				"key":      key,
				"count":    info.Count,
				"endpoint": endpointType,
			}).Warn("Rate limit exceeded")
			rateLimitRejectionsTotal.WithLabelValues(endpointType).Inc()
			return shared.ErrRateLimited(info.RetryAfter)
		}

		return c.Next()
	}
}

// identifierFor derives the window key: user:<id> for authenticated
// requests, otherwise ip:<client-ip>. The limiter runs before the auth
// middleware, so when the locals are not yet populated the bearer token is
// verified here; a request carrying a valid token is keyed per user even
// though full principal resolution happens a stage later.
func (svc *RateLimitService) identifierFor(c *fiber.Ctx) string {
	if userID, ok := c.Locals(shared.UserID).(string); ok && userID != "" {
		return "user:" + userID
	}

	if svc.jwtSvc != nil {
		if token, err := svc.jwtSvc.ExtractTokenFromHeader(c.Get("Authorization")); err == nil {
			if userID, err := svc.jwtSvc.VerifyAccessToken(token); err == nil {
				return "user:" + userID
			}
		}
	}

	return "ip:" + getClientIP(c)
}

func getClientIP(c *fiber.Ctx) string {
	forwarded := c.Get("X-Forwarded-For")
	if forwarded != "" {
		ips := strings.Split(forwarded, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	if realIP := c.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	ip, _, err := net.SplitHostPort(c.Context().RemoteAddr().String())
	if err != nil {
		return c.IP()
	}
	return ip
}

// sweepLoop bounds table memory by dropping expired windows. Correctness does
// not depend on it: expired windows self-reset on the next Hit.
func (svc *RateLimitService) sweepLoop() {
	ticker := time.NewTicker(svc.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			svc.sweep()
		case <-svc.stopSweep:
			return
		}
	}
}

func (svc *RateLimitService) sweep() {
	now := svc.now()

	svc.mu.Lock()
	for key, w := range svc.windows {
		if now.After(w.expiresAt) {
			delete(svc.windows, key)
		}
	}
	remaining := len(svc.windows)
	svc.mu.Unlock()

	log.WithField("live_windows", remaining).Debug("Rate limit sweep completed")
}
