package token

import (
	"crypto/rand"
	"fmt"
)

// Token grants ingestion rights for exactly one account. It is an opaque
// random alphanumeric string, never derived from account data.
type Token string

const Length = 32

const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// New generates a cryptographically random token of Length characters.
func New() (Token, error) {
	b := make([]byte, Length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	for i := range b {
		b[i] = alphabet[int(b[i])%len(alphabet)]
	}
	return Token(b), nil
}

func (t Token) String() string { return string(t) }
