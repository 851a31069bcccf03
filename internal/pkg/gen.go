package pkg

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	// GameCodeAlphabet leaves out 0, O, 1 and I.
	GameCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	GameCodeLength   = 6
)

// GenerateGameCode - draws a short shareable code from GameCodeAlphabet.
func GenerateGameCode() (string, error) {
	alphabetSize := big.NewInt(int64(len(GameCodeAlphabet)))

	var code strings.Builder
	code.Grow(GameCodeLength)

	for range GameCodeLength {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("failed to read random index: %w", err)
		}

		code.WriteByte(GameCodeAlphabet[n.Int64()])
	}

	return code.String(), nil
}

// NormalizeGameCode - codes are accepted in any case and stored upper-cased.
func NormalizeGameCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
