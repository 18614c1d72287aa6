package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
)

const (
	codeMin = 100000
	codeMax = 999999
)

// GenerateCode produces a 6-digit numeric code drawn uniformly from
// [100000, 999999] using a cryptographically strong randomness source.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeMax-codeMin+1))
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+codeMin), nil
}

// HashCode hashes a one-time code with SHA-256 for storage. Codes are
// short-lived and single-use, so a fast hash is sufficient here.
func HashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// VerifyCodeHash recomputes the hash of a code and compares it against the
// stored digest in constant time.
func VerifyCodeHash(code, hash string) bool {
	computed := HashCode(code)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1
}
