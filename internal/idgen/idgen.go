// Package idgen builds human readable entity identifiers of the form
// PREFIX-YYYYMMDD-RAND6.
package idgen

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/SaloniGupta6/Steel-Guardian/internal/clock"
)

const (
	alphabet   = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	randLength = 6
	// largest multiple of 36 that fits in a byte; bytes at or above it are rejected
	rejectFrom = 252
)

// Generator produces identifiers from an injected clock and randomness source.
type Generator struct {
	clock clock.Clock
	rand  io.Reader
}

// New returns a Generator. A nil clock uses the system clock, a nil reader
// uses crypto/rand.
func New(c clock.Clock, r io.Reader) *Generator {
	if c == nil {
		c = clock.Real{}
	}
	if r == nil {
		r = rand.Reader
	}
	return &Generator{clock: c, rand: r}
}

// Generate returns "{prefix}-{YYYYMMDD}-{RAND6}" with the date taken in UTC.
// Uniqueness is not guaranteed; callers retry on a store collision.
func (g *Generator) Generate(prefix string) (string, error) {
	suffix := make([]byte, 0, randLength)
	buf := make([]byte, randLength*2)
	for len(suffix) < randLength {
		if _, err := io.ReadFull(g.rand, buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if b >= rejectFrom {
				continue
			}
			suffix = append(suffix, alphabet[int(b)%len(alphabet)])
			if len(suffix) == randLength {
				break
			}
		}
	}
	date := g.clock.Now().UTC().Format("20060102")
	return prefix + "-" + date + "-" + string(suffix), nil
}
