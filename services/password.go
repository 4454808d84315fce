package services

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/argon2"

	"github.com/alphabatem/common/context"
	"github.com/rephrase-labs/rephrase_api/shared"
)

// PasswordService hashes and verifies passwords with argon2id. Hashes are
// stored in PHC string format with a per-call random salt.
type PasswordService struct {
	context.DefaultService

	// dummyHash is verified against when the account does not exist, so
	// unknown-email and wrong-password take indistinguishable time.
	dummyHash string
}

const PASSWORD_SVC = "password_svc"

const (
	minPasswordLength = 12
	maxPasswordLength = 128

	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	argonSaltLen = 16
)

func (svc PasswordService) Id() string {
	return PASSWORD_SVC
}

func (svc *PasswordService) Configure(ctx *context.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *PasswordService) Start() error {
	dummy, err := svc.hash("dummy-password-for-timing")
	if err != nil {
		return err
	}
	svc.dummyHash = dummy
	return nil
}

// ValidateStrength enforces the single fixed policy: 12-128 characters,
// at least one letter and one digit.
func (svc *PasswordService) ValidateStrength(password string) error {
	if len(password) < minPasswordLength {
		return shared.ErrWeakPassword("Password is too short")
	}
	if len(password) > maxPasswordLength {
		return shared.ErrWeakPassword("Password is too long")
	}

	var hasLetter, hasDigit bool
	for _, char := range password {
		switch {
		case unicode.IsLetter(char):
			hasLetter = true
		case unicode.IsDigit(char):
			hasDigit = true
		}
	}

	if !hasLetter {
		return shared.ErrWeakPassword("Password must contain at least one letter")
	}
	if !hasDigit {
		return shared.ErrWeakPassword("Password must contain at least one digit")
	}

	return nil
}

// Hash validates strength and returns a PHC-encoded argon2id hash.
func (svc *PasswordService) Hash(password string) (string, error) {
	if err := svc.ValidateStrength(password); err != nil {
		return "", err
	}
	return svc.hash(password)
}

func (svc *PasswordService) hash(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	key := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key))

	return encoded, nil
}

// Verify recomputes the hash with the stored parameters and compares in
// constant time.
func (svc *PasswordService) Verify(password, encoded string) bool {
	memory, timeCost, threads, salt, key, err := decodeHash(encoded)
	if err != nil {
		return false
	}

	computed := argon2.IDKey([]byte(password), salt, timeCost, memory, threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(computed, key) == 1
}

// VerifyDummy burns a full hash-and-compare against the fixed dummy hash.
// Called on login when no account matches the email.
func (svc *PasswordService) VerifyDummy(password string) {
	svc.Verify(password, svc.dummyHash)
}

func decodeHash(encoded string) (memory, timeCost uint32, threads uint8, salt, key []byte, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return 0, 0, 0, nil, nil, errors.New("malformed password hash")
	}

	var version int
	if _, err = fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return 0, 0, 0, nil, nil, err
	}
	if version != argon2.Version {
		return 0, 0, 0, nil, nil, errors.New("unsupported argon2 version")
	}

	if _, err = fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &timeCost, &threads); err != nil {
		return 0, 0, 0, nil, nil, err
	}

	if salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return 0, 0, 0, nil, nil, err
	}
	if key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return 0, 0, 0, nil, nil, err
	}

	return memory, timeCost, threads, salt, key, nil
}
