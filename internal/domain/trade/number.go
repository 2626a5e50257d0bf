package trade

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Document number prefixes
const (
	OrderNumberPrefix = "ORD"
	QuoteNumberPrefix = "QTE"
)

// NumberGenerator produces human-readable document numbers of the form
// PREFIX-<unix millis>-<6 hex>. The millisecond part never repeats within
// one generator; when the clock has not advanced it is bumped past the last
// value issued.
type NumberGenerator struct {
	prefix string
	now    func() time.Time

	mu   sync.Mutex
	last int64
}

// NewNumberGenerator creates a generator for the given prefix
func NewNumberGenerator(prefix string) *NumberGenerator {
	return &NumberGenerator{prefix: strings.ToUpper(prefix), now: time.Now}
}

// WithClock replaces the time source
func (g *NumberGenerator) WithClock(now func() time.Time) *NumberGenerator {
	g.now = now
	return g
}

// Prefix returns the generator prefix
func (g *NumberGenerator) Prefix() string {
	return g.prefix
}

// Next returns a new document number
func (g *NumberGenerator) Next() string {
	g.mu.Lock()
	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	g.mu.Unlock()

	id := uuid.New()
	suffix := strings.ToUpper(fmt.Sprintf("%x", id[:3]))
	return fmt.Sprintf("%s-%d-%s", g.prefix, ms, suffix)
}
