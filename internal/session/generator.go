package session

import (
	"sync"

	"github.com/google/uuid"
)

// Generator produces new session tokens.
type Generator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable session tokens, so tokens created
// later also sort later in storage.
type UUIDv7Generator struct{}

func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined tokens in order. Used by tests.
type FixedGenerator struct {
	mu     sync.Mutex
	tokens []string
	idx    int
}

func NewFixedGenerator(tokens ...string) *FixedGenerator {
	return &FixedGenerator{tokens: tokens}
}

// Generate panics once every token has been handed out.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.tokens) {
		panic("FixedGenerator: all tokens exhausted")
	}
	token := g.tokens[g.idx]
	g.idx++
	return token
}
