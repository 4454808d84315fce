package services

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestJWTRoundTrip(t *testing.T) {
	t.Parallel()

	svc := &JWTService{
		AccessTokenDuration: time.Hour,
		jwtSecretKey:        "test-secret",
	}

	token, err := svc.ToJWT("user-123")
	if err != nil {
		t.Fatalf("unexpected sign error: %v", err)
	}

	userID, err := svc.VerifyAccessToken(token)
	if err != nil {
		t.Fatalf("unexpected verify error: %v", err)
	}
	if userID != "user-123" {
		t.Fatalf("expected user-123, got %q", userID)
	}
}

func TestJWTExpiredToken(t *testing.T) {
	t.Parallel()

	svc := &JWTService{
		AccessTokenDuration: -time.Minute,
		jwtSecretKey:        "test-secret",
	}

	token, err := svc.ToJWT("user-123")
	if err != nil {
		t.Fatalf("unexpected sign error: %v", err)
	}

	if _, err := svc.VerifyAccessToken(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestJWTWrongSecret(t *testing.T) {
	t.Parallel()

	signer := &JWTService{AccessTokenDuration: time.Hour, jwtSecretKey: "secret-a"}
	verifier := &JWTService{AccessTokenDuration: time.Hour, jwtSecretKey: "secret-b"}

	token, err := signer.ToJWT("user-123")
	if err != nil {
		t.Fatalf("unexpected sign error: %v", err)
	}

	if _, err := verifier.VerifyAccessToken(token); !errors.Is(err, ErrTokenSignature) {
		t.Fatalf("expected ErrTokenSignature, got %v", err)
	}
}

func TestJWTTamperedToken(t *testing.T) {
	t.Parallel()

	svc := &JWTService{AccessTokenDuration: time.Hour, jwtSecretKey: "test-secret"}

	token, err := svc.ToJWT("user-123")
	if err != nil {
		t.Fatalf("unexpected sign error: %v", err)
	}
	if _, err := svc.VerifyAccessToken(token); err != nil {
		t.Fatalf("untampered token must verify: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("expected three token segments, got %d", len(parts))
	}

	// Swap between characters differing in a high base64 bit so the decoded
	// bytes always change, even at the final character where low bits are
	// discarded.
	flip := func(s string, i int) string {
		b := []byte(s)
		if b[i] == 'A' {
			b[i] = 'g'
		} else {
			b[i] = 'A'
		}
		return string(b)
	}

	segments := []struct {
		name  string
		index int
	}{
		{"payload", 1},
		{"signature", 2},
	}

	for _, seg := range segments {
		seg := seg
		t.Run(seg.name, func(t *testing.T) {
			t.Parallel()

			for i := 0; i < len(parts[seg.index]); i++ {
				mutated := make([]string, 3)
				copy(mutated, parts)
				mutated[seg.index] = flip(parts[seg.index], i)

				if _, err := svc.VerifyAccessToken(strings.Join(mutated, ".")); err == nil {
					t.Fatalf("mutation at %s byte %d must fail verification", seg.name, i)
				}
			}
		})
	}
}

func TestJWTMalformedToken(t *testing.T) {
	t.Parallel()

	svc := &JWTService{AccessTokenDuration: time.Hour, jwtSecretKey: "test-secret"}

	for _, token := range []string{"", "garbage", "a.b.c"} {
		if _, err := svc.VerifyAccessToken(token); !errors.Is(err, ErrTokenMalformed) {
			t.Fatalf("token %q: expected ErrTokenMalformed, got %v", token, err)
		}
	}
}

func TestJWTStartRequiresSecret(t *testing.T) {
	t.Parallel()

	svc := &JWTService{}
	if err := svc.Start(); err == nil {
		t.Fatal("Start must fail without a signing secret")
	}
}

func TestExtractTokenFromHeader(t *testing.T) {
	t.Parallel()

	svc := &JWTService{}

	token, err := svc.ExtractTokenFromHeader("Bearer abc.def.ghi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "abc.def.ghi" {
		t.Fatalf("expected raw token, got %q", token)
	}

	for _, header := range []string{"", "abc.def.ghi", "Basic abc"} {
		if _, err := svc.ExtractTokenFromHeader(header); err == nil {
			t.Fatalf("header %q should be rejected", header)
		}
	}
}
