package roomcode

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// Alphabet excludes the easily confused 0, O, 1 and I
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// DefaultLength is the length of a room code
const DefaultLength = 6

// maxAttempts bounds the search for a free code
const maxAttempts = 1000

// RandSource interface for dependency injection of randomness
type RandSource interface {
	IntN(n int) int
}

// cryptoSource draws from crypto/rand
type cryptoSource struct{}

func (cryptoSource) IntN(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("failed to generate random bytes: " + err.Error())
	}
	return int(v.Int64())
}

// Generator creates room codes with configurable randomness
type Generator struct {
	randSource RandSource
	length     int
}

// NewGenerator creates a generator; a nil randSource uses crypto/rand and a
// non-positive length uses DefaultLength
func NewGenerator(randSource RandSource, length int) *Generator {
	if randSource == nil {
		randSource = cryptoSource{}
	}
	if length <= 0 {
		length = DefaultLength
	}
	return &Generator{randSource: randSource, length: length}
}

// Length returns the length of the codes g creates
func (g *Generator) Length() int {
	return g.length
}

// Generate creates one code
func (g *Generator) Generate() string {
	var b strings.Builder
	b.Grow(g.length)
	for i := 0; i < g.length; i++ {
		b.WriteByte(Alphabet[g.randSource.IntN(len(Alphabet))])
	}
	return b.String()
}

// Unique generates codes until taken reports one as free
func (g *Generator) Unique(taken func(code string) bool) (string, error) {
	for i := 0; i < maxAttempts; i++ {
		code := g.Generate()
		if !taken(code) {
			return code, nil
		}
	}
	return "", fmt.Errorf("no free room code after %d attempts", maxAttempts)
}

// Normalize upper-cases and trims a code typed by a user
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate checks that a code has the given length and uses only the alphabet
func Validate(code string, length int) error {
	if len(code) != length {
		return fmt.Errorf("room code must be exactly %d characters, got %d", length, len(code))
	}

	for i, char := range code {
		if !strings.ContainsRune(Alphabet, char) {
			return fmt.Errorf("invalid character %c at position %d", char, i)
		}
	}

	return nil
}
