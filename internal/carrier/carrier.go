// Package carrier normalizes heterogeneous carrier tracking payloads into the
// canonical ShipmentRecord shape. Each carrier contributes a Normalizer that
// maps its own event list and status codes through a lookup table; new
// carriers are added by registering a Normalizer, not by branching logic.
package carrier

import (
	"sync"

	"github.com/fanportal/tracking-system/internal/core/domain"
)

// Normalizer converts one carrier's raw tracking payload into canonical
// status updates, ordered newest-first. Malformed-but-present data degrades
// (unmapped codes become pending and are logged); only absent required fields
// return a *domain.NormalizationError.
type Normalizer interface {
	Carrier() domain.Carrier
	CarrierName() string
	Normalize(raw []byte) ([]domain.StatusUpdate, error)
}

// Registry manages registered carrier normalizers.
type Registry struct {
	mu          sync.RWMutex
	normalizers map[domain.Carrier]Normalizer
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{normalizers: make(map[domain.Carrier]Normalizer)}
}

// Register adds a normalizer to the registry, replacing any previous one for
// the same carrier.
func (r *Registry) Register(n Normalizer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.normalizers[n.Carrier()] = n
}

// Get returns the normalizer for a carrier, or ok=false when none is
// registered.
func (r *Registry) Get(c domain.Carrier) (Normalizer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.normalizers[c]
	return n, ok
}

// Carriers returns the registered carrier tags.
func (r *Registry) Carriers() []domain.Carrier {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Carrier, 0, len(r.normalizers))
	for c := range r.normalizers {
		out = append(out, c)
	}
	return out
}
