// Package handle implements the per-session stable handle registry:
// opaque IDs that re-resolve to a live element across DOM mutations, per
// spec §4.6.
package handle

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"strings"
	"sync"
	"time"

	"github.com/ametel01/claw-browser-automation/internal/driver"
	"github.com/ametel01/claw-browser-automation/internal/errtax"
	"github.com/ametel01/claw-browser-automation/internal/selector"
)

// NewID mints an opaque 10-character handle identifier. It is built on
// crypto/rand rather than google/uuid's 36-character form because the
// registry key must fit the spec's 10-character shape; the UUID library is
// still used elsewhere (session and store primary keys) for entities that
// do not have that constraint.
func NewID() string {
	var buf [8]byte
	_, _ = rand.Read(buf[:])
	enc := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf[:])
	return strings.ToLower(enc)[:10]
}

// Record is the stored state for one registered handle.
type Record struct {
	HandleID             string
	OriginalSelector      selector.Selector
	LastWinningStrategy   selector.Strategy
	RemapCount            int
}

// Registry is the per-session handle table.
type Registry struct {
	mu      sync.Mutex
	records map[string]*Record
}

func New() *Registry {
	return &Registry{records: make(map[string]*Record)}
}

// ResolveOutcome is returned by Resolve, reporting whether the winning
// strategy changed since the last resolution.
type ResolveOutcome struct {
	Element    driver.Element
	Resolution selector.Resolution
	Remapped   bool
}

// Register resolves sel once against page with Attached wait state, stores
// the winning strategy as the handle's LastWinningStrategy, and returns the
// new handle ID.
func Register(ctx context.Context, reg *Registry, page driver.Page, sel selector.Selector, budget time.Duration) (string, error) {
	res, err := selector.Resolve(ctx, page, sel, selector.Attached, budget)
	if err != nil {
		return "", err
	}

	id := NewID()
	reg.mu.Lock()
	reg.records[id] = &Record{
		HandleID:            id,
		OriginalSelector:    sel,
		LastWinningStrategy: res.Strategy,
	}
	reg.mu.Unlock()

	return id, nil
}

// Resolve re-resolves handleID, trying the last-winning strategy first,
// then the rest of the original chain in its original order (excluding the
// last winner, to avoid probing it twice). If a different strategy wins
// than the one on record, the record is updated and RemapCount increments.
func Resolve(ctx context.Context, reg *Registry, page driver.Page, handleID string, budget time.Duration) (ResolveOutcome, error) {
	reg.mu.Lock()
	rec, ok := reg.records[handleID]
	reg.mu.Unlock()
	if !ok {
		return ResolveOutcome{}, errtax.New(errtax.StaleElement, "unknown handle id").
			WithHint("register the element again before resolving it")
	}

	chain := prioritize(rec.OriginalSelector.Strategies(), rec.LastWinningStrategy)
	res, err := selector.Resolve(ctx, page, selector.FromChain(chain), selector.Attached, budget)
	if err != nil {
		return ResolveOutcome{}, err
	}

	remapped := false
	reg.mu.Lock()
	if !res.Strategy.Equal(rec.LastWinningStrategy) {
		rec.LastWinningStrategy = res.Strategy
		rec.RemapCount++
		remapped = true
	}
	reg.mu.Unlock()

	return ResolveOutcome{Element: res.Locator, Resolution: res, Remapped: remapped}, nil
}

// prioritize builds [lastWinner, ...original minus lastWinner] in original
// relative order.
func prioritize(original []selector.Strategy, lastWinner selector.Strategy) []selector.Strategy {
	out := make([]selector.Strategy, 0, len(original))
	out = append(out, lastWinner)
	for _, s := range original {
		if !s.Equal(lastWinner) {
			out = append(out, s)
		}
	}
	return out
}

// Release removes handleID from the registry. Releasing an unknown ID is a
// no-op.
func Release(reg *Registry, handleID string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.records, handleID)
}

// Clear empties the registry, releasing every handle at once (used when a
// session closes).
func Clear(reg *Registry) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.records = make(map[string]*Record)
}

// Get returns the stored record for handleID without re-resolving it.
func Get(reg *Registry, handleID string) (Record, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	rec, ok := reg.records[handleID]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}
