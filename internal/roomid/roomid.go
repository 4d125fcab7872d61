// Package roomid generates short room codes that players type or paste when
// joining a table.
package roomid

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// Crockford's base32: no I, L, O or U, so codes survive being read aloud.
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Length is the number of characters in a room code. 8 characters of base32
// carry 40 random bits, plenty for a single relay's registry.
const Length = 8

// RandSource is the randomness hook for deterministic tests.
type RandSource interface {
	Intn(n int) int
}

// Generator produces room codes with configurable randomness.
type Generator struct {
	randSource RandSource
}

// NewGenerator creates a generator. A nil RandSource means crypto/rand.
func NewGenerator(randSource RandSource) *Generator {
	return &Generator{randSource: randSource}
}

// Generate creates a new room code using crypto/rand.
func Generate() string {
	return NewGenerator(nil).Generate()
}

// Generate creates a new room code using the generator's RandSource.
func (g *Generator) Generate() string {
	code := make([]byte, Length)
	if g.randSource != nil {
		for i := range code {
			code[i] = alphabet[g.randSource.Intn(len(alphabet))]
		}
		return string(code)
	}

	raw := make([]byte, Length)
	if _, err := rand.Read(raw); err != nil {
		panic("roomid: failed to read random bytes: " + err.Error())
	}
	for i, b := range raw {
		code[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(code)
}

// Normalize lowercases a code and maps the characters Crockford's alphabet
// folds together (I and L read as 1, O reads as 0).
func Normalize(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	var b strings.Builder
	b.Grow(len(id))
	for _, r := range id {
		switch r {
		case 'i', 'l':
			b.WriteRune('1')
		case 'o':
			b.WriteRune('0')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Validate checks that a normalized code has the right shape.
func Validate(id string) error {
	if len(id) != Length {
		return fmt.Errorf("room code must be exactly %d characters, got %d", Length, len(id))
	}
	for i := 0; i < len(id); i++ {
		if !strings.ContainsRune(alphabet, rune(id[i])) {
			return fmt.Errorf("room code contains invalid character %q", id[i])
		}
	}
	return nil
}
