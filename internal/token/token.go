// Package token generates the opaque one-shot tokens used for email
// confirmation and password resets. Tokens are pure random lookup keys:
// no structure, no signature, 256 bits of entropy, hex-encoded.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const tokenBytes = 32

// Generator produces opaque tokens.
type Generator struct{}

// NewGenerator creates a token Generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate returns a new 64-character hex token.
func (g *Generator) Generate() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
