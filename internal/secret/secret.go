// Package secret provides the node-wide shared secret handed to every worker
// task as an authentication token.
//
// A Generator draws its value lazily on first use and returns the same value
// for the rest of its lifetime. The process-wide instance returned by Default
// lives until the process exits; tests build isolated instances with New.
package secret

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
)

// ErrEntropyUnavailable is returned when the random source cannot be read.
var ErrEntropyUnavailable = errors.New("entropy unavailable")

// maxDraws bounds how many times a zero draw is retried.
const maxDraws = 4

// Generator yields one non-zero 64-bit random value per instance.
type Generator struct {
	mu     sync.Mutex
	source io.Reader
	value  uint64
}

// New returns a Generator reading from source. A nil source means
// crypto/rand.
func New(source io.Reader) *Generator {
	if source == nil {
		source = rand.Reader
	}
	return &Generator{source: source}
}

var defaultGenerator = New(nil)

// Default returns the process-wide generator.
func Default() *Generator {
	return defaultGenerator
}

// Value returns the shared secret, drawing it on the first call. A failed
// draw is not cached; the next call tries again.
func (g *Generator) Value() (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.value != 0 {
		return g.value, nil
	}

	var buf [8]byte
	for i := 0; i < maxDraws; i++ {
		if _, err := io.ReadFull(g.source, buf[:]); err != nil {
			return 0, fmt.Errorf("%w: %w", ErrEntropyUnavailable, err)
		}
		if v := binary.LittleEndian.Uint64(buf[:]); v != 0 {
			g.value = v
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: random source returned zero %d times", ErrEntropyUnavailable, maxDraws)
}
