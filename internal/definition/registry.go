package definition

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/udnboss/workflow/model"
)

// snapshot is an immutable collection of definitions indexed by id.
type snapshot struct {
	defs     map[string]*model.Definition
	checksum string
}

// Registry is a read-optimized, thread-safe store of loaded definitions. It
// uses atomic pointer swap for lock-free concurrent reads, which keeps the
// definitions effectively immutable to everyone holding a reference.
type Registry struct {
	snap atomic.Pointer[snapshot]
}

// NewRegistry creates a Registry from the given definitions.
func NewRegistry(defs []model.Definition) *Registry {
	r := &Registry{}
	r.Replace(defs)
	return r
}

// Replace atomically swaps the registry contents with a new snapshot built
// from the given definitions.
func (r *Registry) Replace(defs []model.Definition) {
	s := &snapshot{
		defs: make(map[string]*model.Definition, len(defs)),
	}

	var checksumParts []string
	for i := range defs {
		def := defs[i]
		s.defs[def.ID] = &def
		checksumParts = append(checksumParts, def.Checksum)
	}

	sort.Strings(checksumParts)
	combined := strings.Join(checksumParts, ":")
	s.checksum = fmt.Sprintf("%x", sha256.Sum256([]byte(combined)))

	r.snap.Store(s)
}

// Get returns the definition with the given id.
func (r *Registry) Get(definitionID string) (*model.Definition, bool) {
	d, ok := r.snap.Load().defs[definitionID]
	return d, ok
}

// All returns all definitions, sorted by id.
func (r *Registry) All() []*model.Definition {
	s := r.snap.Load()
	defs := make([]*model.Definition, 0, len(s.defs))
	for _, d := range s.defs {
		defs = append(defs, d)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs
}

// Len returns the number of loaded definitions.
func (r *Registry) Len() int {
	return len(r.snap.Load().defs)
}

// Checksum returns the combined checksum of all loaded definitions.
func (r *Registry) Checksum() string {
	return r.snap.Load().checksum
}
