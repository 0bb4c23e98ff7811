// utils/code.go
package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

const kickCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateKickCode returns a verification code the creator puts on their public
// profile, format BASEDARE-XXXXXX (uppercase alphanumeric). Each character is
// drawn with rand.Int so the alphabet is sampled uniformly.
func GenerateKickCode() (string, error) {
	code := make([]byte, 6)
	alphabetLen := big.NewInt(int64(len(kickCodeAlphabet)))
	for i := range code {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		code[i] = kickCodeAlphabet[n.Int64()]
	}
	return "BASEDARE-" + string(code), nil
}

// ShortID builds the public slug for a dare from its title plus a short random
// suffix, e.g. "eat-a-ghost-pepper-1a2b3c".
func ShortID(title string) string {
	base := slug.Make(title)
	if len(base) > 40 {
		base = base[:40]
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}
