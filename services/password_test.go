package services

import (
	"strings"
	"testing"

	"github.com/rephrase-labs/rephrase_api/shared"
)

func TestPasswordHashVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	svc := &PasswordService{}

	hashed, err := svc.Hash("correct horse 42")
	if err != nil {
		t.Fatalf("unexpected hash error: %v", err)
	}

	if !strings.HasPrefix(hashed, "$argon2id$") {
		t.Fatalf("expected PHC argon2id format, got %q", hashed)
	}
	if strings.Contains(hashed, "correct horse") {
		t.Fatal("hash must not contain the plaintext password")
	}

	if !svc.Verify("correct horse 42", hashed) {
		t.Fatal("correct password should verify")
	}
	if svc.Verify("wrong horse 42", hashed) {
		t.Fatal("wrong password must not verify")
	}
}

func TestPasswordHashSaltUnique(t *testing.T) {
	t.Parallel()

	svc := &PasswordService{}

	first, err := svc.Hash("same password 99")
	if err != nil {
		t.Fatalf("unexpected hash error: %v", err)
	}
	second, err := svc.Hash("same password 99")
	if err != nil {
		t.Fatalf("unexpected hash error: %v", err)
	}

	if first == second {
		t.Fatal("two hashes of the same password must differ by salt")
	}
	if !svc.Verify("same password 99", first) || !svc.Verify("same password 99", second) {
		t.Fatal("both hashes should verify against the original password")
	}
}

func TestPasswordStrengthPolicy(t *testing.T) {
	t.Parallel()

	svc := &PasswordService{}

	cases := []struct {
		name     string
		password string
		wantWeak bool
	}{
		{"valid", "a-long-password-1", false},
		{"minimum length", "abcdefghijk1", false},
		{"too short", "short1", true},
		{"too long", strings.Repeat("a1", 70), true},
		{"no digit", "onlylettersherenow", true},
		{"no letter", "123456789012345", true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := svc.ValidateStrength(tc.password)
			if tc.wantWeak {
				appErr, ok := shared.GetAppError(err)
				if !ok || appErr.Code != shared.CodeWeakPassword {
					t.Fatalf("expected weak password error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected password to pass policy, got %v", err)
			}
		})
	}
}

func TestPasswordHashRejectsWeakInput(t *testing.T) {
	t.Parallel()

	svc := &PasswordService{}

	if _, err := svc.Hash("weak"); err == nil {
		t.Fatal("Hash must refuse a password that fails the policy")
	}
}

func TestPasswordDummyVerify(t *testing.T) {
	t.Parallel()

	svc := &PasswordService{}
	if err := svc.Start(); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}

	if svc.dummyHash == "" {
		t.Fatal("dummy hash must be precomputed at start")
	}

	// Must not panic and must never succeed.
	svc.VerifyDummy("any password at all 1")
	if svc.Verify("dummy-password-for-timing", "") {
		t.Fatal("empty hash must not verify")
	}
}

func TestPasswordVerifyMalformedHash(t *testing.T) {
	t.Parallel()

	svc := &PasswordService{}

	for _, encoded := range []string{
		"",
		"not-a-hash",
		"$argon2i$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=1,p=4$!!!$aGFzaA",
	} {
		if svc.Verify("whatever password 1", encoded) {
			t.Fatalf("malformed hash %q must not verify", encoded)
		}
	}
}
