package auth

import (
	"crypto/subtle"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/josh-kwaku/pocket-wallet/internal/domain"
)

// VerifyPIN compares a supplied PIN with the stored one. Stored values with a
// bcrypt prefix are checked as hashes, anything else as plain text in
// constant time.
func VerifyPIN(stored, supplied string) bool {
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(supplied)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) == 1
}

func HashPIN(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("HashPIN: %w", err)
	}
	return string(hash), nil
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// Gate verifies PINs and locks out further attempts after too many
// consecutive failures. A maxAttempts of zero disables the lockout.
type Gate struct {
	mu          sync.Mutex
	maxAttempts int
	lockout     time.Duration
	failures    int
	lockedUntil time.Time
	now         func() time.Time
}

func NewGate(maxAttempts int, lockout time.Duration) *Gate {
	return &Gate{
		maxAttempts: maxAttempts,
		lockout:     lockout,
		now:         time.Now,
	}
}

func (g *Gate) Verify(stored, supplied string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if now.Before(g.lockedUntil) {
		return fmt.Errorf("Gate.Verify: %w", domain.ErrPINLocked)
	}

	if VerifyPIN(stored, supplied) {
		g.failures = 0
		return nil
	}

	g.failures++
	if g.maxAttempts > 0 && g.failures >= g.maxAttempts {
		g.failures = 0
		g.lockedUntil = now.Add(g.lockout)
		return fmt.Errorf("Gate.Verify: %w: %w", domain.ErrAuthenticationFailed, domain.ErrPINLocked)
	}
	return fmt.Errorf("Gate.Verify: %w", domain.ErrAuthenticationFailed)
}

// LockedUntil returns the end of the current lockout, or the zero time.
func (g *Gate) LockedUntil() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.now().Before(g.lockedUntil) {
		return g.lockedUntil
	}
	return time.Time{}
}
