package services

import (
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

func newTestRateLimiter(now *time.Time) *RateLimitService {
	return &RateLimitService{
		windows: make(map[string]*rateWindow),
		now:     func() time.Time { return *now },
	}
}

func TestRateLimitAllowsUpToLimit(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestRateLimiter(&now)

	for i := 1; i <= 3; i++ {
		info := svc.Allow("login:ip:10.0.0.1", 3, time.Minute)
		if !info.Allowed {
			t.Fatalf("request %d should be allowed", i)
		}
		if info.Count != i {
			t.Fatalf("expected count %d, got %d", i, info.Count)
		}
	}

	info := svc.Allow("login:ip:10.0.0.1", 3, time.Minute)
	if info.Allowed {
		t.Fatal("4th request inside the window should be rejected")
	}
	if info.Remaining != 0 {
		t.Fatalf("expected remaining 0, got %d", info.Remaining)
	}
	if info.RetryAfter < 1 {
		t.Fatalf("retry-after must be at least 1s, got %d", info.RetryAfter)
	}
}

func TestRateLimitWindowReset(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestRateLimiter(&now)

	for i := 0; i < 4; i++ {
		svc.Allow("paraphrase:user:u1", 3, time.Minute)
	}

	now = now.Add(61 * time.Second)

	info := svc.Allow("paraphrase:user:u1", 3, time.Minute)
	if !info.Allowed {
		t.Fatal("request after window expiry should be allowed")
	}
	if info.Count != 1 {
		t.Fatalf("expired window must restart at 1, got %d", info.Count)
	}
}

func TestRateLimitKeysAreIndependent(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestRateLimiter(&now)

	for i := 0; i < 5; i++ {
		svc.Allow("login:ip:10.0.0.1", 3, time.Minute)
	}

	info := svc.Allow("login:ip:10.0.0.2", 3, time.Minute)
	if !info.Allowed {
		t.Fatal("a saturated key must not affect other keys")
	}
	if info.Count != 1 {
		t.Fatalf("expected independent count 1, got %d", info.Count)
	}
}

func TestRateLimitRejectedRequestsStillCount(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestRateLimiter(&now)

	for i := 0; i < 10; i++ {
		svc.Allow("register:ip:10.0.0.1", 3, time.Minute)
	}

	count, _ := svc.Hit("register:ip:10.0.0.1", 3, time.Minute)
	if count != 11 {
		t.Fatalf("rejected hits must keep counting, expected 11, got %d", count)
	}
}

func TestRateLimitKeysAuthenticatedRequestsPerUser(t *testing.T) {
	t.Parallel()

	jwtSvc := &JWTService{AccessTokenDuration: time.Hour, jwtSecretKey: "test-secret"}
	token, err := jwtSvc.ToJWT("user-9")
	if err != nil {
		t.Fatalf("unexpected sign error: %v", err)
	}

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestRateLimiter(&now)
	svc.jwtSvc = jwtSvc

	app := fiber.New()
	c := app.AcquireCtx(&fasthttp.RequestCtx{})
	defer app.ReleaseCtx(c)

	// The limiter runs before the auth middleware, so no locals are set;
	// the bearer token alone must produce the per-user key.
	c.Request().Header.Set("Authorization", "Bearer "+token)

	id := svc.identifierFor(c)
	if id != "user:user-9" {
		t.Fatalf("expected per-user key, got %q", id)
	}

	key := "paraphrase:" + id
	svc.Allow(key, 3, time.Minute)

	svc.mu.Lock()
	_, ok := svc.windows["paraphrase:user:user-9"]
	svc.mu.Unlock()
	if !ok {
		t.Fatal("authenticated request must open a user-keyed window")
	}
}

func TestRateLimitFallsBackToIPWithoutValidToken(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestRateLimiter(&now)
	svc.jwtSvc = &JWTService{AccessTokenDuration: time.Hour, jwtSecretKey: "test-secret"}

	app := fiber.New()

	anon := app.AcquireCtx(&fasthttp.RequestCtx{})
	anon.Request().Header.Set("X-Forwarded-For", "203.0.113.7")
	if id := svc.identifierFor(anon); id != "ip:203.0.113.7" {
		t.Fatalf("anonymous request must key by ip, got %q", id)
	}
	app.ReleaseCtx(anon)

	forged := app.AcquireCtx(&fasthttp.RequestCtx{})
	forged.Request().Header.Set("Authorization", "Bearer not.a.token")
	forged.Request().Header.Set("X-Forwarded-For", "203.0.113.7")
	if id := svc.identifierFor(forged); id != "ip:203.0.113.7" {
		t.Fatalf("an invalid token must not yield a user key, got %q", id)
	}
	app.ReleaseCtx(forged)
}

func TestRateLimitSweepDropsExpiredWindows(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestRateLimiter(&now)

	svc.Hit("a", 3, time.Minute)
	svc.Hit("b", 3, time.Hour)

	now = now.Add(2 * time.Minute)
	svc.sweep()

	svc.mu.Lock()
	defer svc.mu.Unlock()
	if _, ok := svc.windows["a"]; ok {
		t.Fatal("expired window should be swept")
	}
	if _, ok := svc.windows["b"]; !ok {
		t.Fatal("live window must survive the sweep")
	}
}
