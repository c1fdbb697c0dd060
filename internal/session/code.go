// Package session provides short human-shareable codes for hosted games.
package session

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
)

// Size is the number of characters in a code.
const Size = 6

// Alphabet holds the symbols a code is drawn from.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

type invalidLengthError int

func (e invalidLengthError) Error() string {
	return fmt.Sprintf("invalid length %d", int(e))
}

// ErrInvalidCodeFormat is returned when a code contains symbols outside of [Alphabet].
var ErrInvalidCodeFormat = errors.New("invalid code format")

// Code identifies a hosted game in the UI.
// It is not used by the transport and is not guaranteed to be unique.
// The zero value means "no code".
type Code [Size]byte

// IsZero reports whether c is the "no code" value.
func (c Code) IsZero() bool {
	return c == Code{}
}

func (c Code) String() string {
	if c.IsZero() {
		return ""
	}
	return string(c[:])
}

func (c Code) MarshalText() ([]byte, error) {
	if c.IsZero() {
		return nil, nil
	}
	return bytes.Clone(c[:]), nil
}

func (c *Code) UnmarshalText(text []byte) error {
	if len(text) != Size {
		return invalidLengthError(len(text))
	}

	text = bytes.ToUpper(text)
	for _, b := range text {
		if strings.IndexByte(Alphabet, b) < 0 {
			return ErrInvalidCodeFormat
		}
	}

	copy(c[:], text)
	return nil
}

// ParseCode parses a code typed in by a player.
// Lowercase letters are accepted.
func ParseCode(text string) (Code, error) {
	var c Code
	err := c.UnmarshalText([]byte(text))
	return c, err
}

// Generator produces codes from a non-cryptographic random source.
// It is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewGenerator creates a generator reading from src.
func NewGenerator(src rand.Source) *Generator {
	return &Generator{rnd: rand.New(src)}
}

// Generate returns a new code, each symbol drawn uniformly from [Alphabet].
func (g *Generator) Generate() Code {
	g.mu.Lock()
	defer g.mu.Unlock()

	var c Code
	for i := range c {
		c[i] = Alphabet[g.rnd.IntN(len(Alphabet))]
	}
	return c
}

var defaultGenerator = NewGenerator(rand.NewPCG(rand.Uint64(), rand.Uint64()))

// NewCode generates a code using the package generator.
func NewCode() Code {
	return defaultGenerator.Generate()
}
