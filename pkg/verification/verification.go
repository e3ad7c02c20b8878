package verification

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// CodeLength is the digit count of every verification code.
const CodeLength = 6

// DefaultCodeTTL is how long an issued code stays valid unless the
// deployment configures its own TTL.
const DefaultCodeTTL = 30 * time.Minute

var codeMax = big.NewInt(1000000)

// GenerateCode returns a 6-digit numeric code, uniformly distributed
// over 000000-999999.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeMax)
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// CodeValid reports whether a code issued at sentAt is still usable at
// now. A missing timestamp fails closed; a non-positive ttl falls back
// to DefaultCodeTTL.
func CodeValid(sentAt *time.Time, now time.Time, ttl time.Duration) bool {
	if sentAt == nil {
		return false
	}
	if ttl <= 0 {
		ttl = DefaultCodeTTL
	}
	return now.Sub(*sentAt) < ttl
}
