package household

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	codePrefix = "HH-"
	codeLength = 6
	// Excludes 0/O/1/I, which read ambiguously when a code is shared
	// out loud or scrawled on the fridge.
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	maxCodeAttempts = 5
)

// generateInviteCode returns a fresh random invite code, e.g. "HH-X7KQ2M".
// Uniqueness is the caller's problem; the households table enforces it.
func generateInviteCode() (string, error) {
	buf := make([]byte, codeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			return "", fmt.Errorf("generate invite code: %w", err)
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return codePrefix + string(buf), nil
}

// NormalizeInviteCode uppercases and trims a user-supplied code so that
// lookup is case-insensitive.
func NormalizeInviteCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
