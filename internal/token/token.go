// Package token generates and hashes password-reset tokens.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

const rawBytes = 32

// Length is the hex-encoded length of a reset token.
const Length = rawBytes * 2

// New returns 256 bits of cryptographically secure randomness,
// hex-encoded (64 characters).
func New() (string, error) {
	var raw [rawBytes]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw[:]), nil
}

// Hash derives the storage key for a token. Only the hash is ever
// persisted or compared.
func Hash(token string) [32]byte {
	return sha256.Sum256([]byte(token))
}
