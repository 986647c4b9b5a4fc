package relations

import (
	"sort"
	"sync"

	"github.com/samirrijal/geoquery/internal/core/domain"
)

// Registry holds the named spatial relations known to the parser. Build it
// once with New and share it by reference.
type Registry struct {
	mu        sync.RWMutex
	relations map[string]domain.RelationConfig
}

// New returns a registry preloaded with the built-in relations.
func New() *Registry {
	r := NewEmpty()
	for _, cfg := range builtins() {
		r.Register(cfg)
	}
	return r
}

// NewEmpty returns a registry without any relation.
func NewEmpty() *Registry {
	return &Registry{relations: make(map[string]domain.RelationConfig)}
}

// Register inserts cfg, replacing any relation with the same name.
// Category specific fields are not checked.
func (r *Registry) Register(cfg domain.RelationConfig) {
	cfg = clone(cfg)

	r.mu.Lock()
	r.relations[cfg.Name] = cfg
	r.mu.Unlock()
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	_, ok := r.relations[name]
	r.mu.RUnlock()
	return ok
}

// Get returns the relation registered under name, or an
// *domain.UnknownRelationError listing every known name.
func (r *Registry) Get(name string) (domain.RelationConfig, error) {
	r.mu.RLock()
	cfg, ok := r.relations[name]
	r.mu.RUnlock()
	if !ok {
		return domain.RelationConfig{}, &domain.UnknownRelationError{Name: name, Known: r.List("")}
	}
	return clone(cfg), nil
}

// List returns the sorted relation names, restricted to category unless it
// is empty.
func (r *Registry) List(category domain.Category) []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.relations))
	for name, cfg := range r.relations {
		if category == "" || cfg.Category == category {
			names = append(names, name)
		}
	}
	r.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Configs returns the relations of category (all when empty), sorted by name.
func (r *Registry) Configs(category domain.Category) []domain.RelationConfig {
	names := r.List(category)
	out := make([]domain.RelationConfig, 0, len(names))

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, n := range names {
		if cfg, ok := r.relations[n]; ok {
			out = append(out, clone(cfg))
		}
	}
	return out
}

// clone copies the slice and pointer fields so stored entries never share
// memory with callers.
func clone(cfg domain.RelationConfig) domain.RelationConfig {
	if cfg.AppliesTo != nil {
		cfg.AppliesTo = append([]string(nil), cfg.AppliesTo...)
	}
	if cfg.DefaultDistanceM != nil {
		cfg.DefaultDistanceM = domain.Float(*cfg.DefaultDistanceM)
	}
	if cfg.SectorAngleDegrees != nil {
		cfg.SectorAngleDegrees = domain.Float(*cfg.SectorAngleDegrees)
	}
	return cfg
}
