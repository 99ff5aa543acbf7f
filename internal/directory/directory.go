// Package directory resolves authenticated subjects to workflow actors. Role
// membership lives here, outside the workflow definitions, so that the same
// definition can be deployed against different user populations.
package directory

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/udnboss/workflow/model"
)

type actorsFile struct {
	Actors []actorEntry `yaml:"actors"`
}

type actorEntry struct {
	ID      string   `yaml:"id"`
	Name    string   `yaml:"name"`
	RoleIDs []string `yaml:"role_ids"`
}

// StaticDirectory resolves actors from a static YAML file mapping subject ids
// to names and role memberships.
type StaticDirectory struct {
	path   string
	mu     sync.RWMutex
	actors map[string]model.Actor
}

// NewStaticDirectory creates a directory that loads actors from path.
func NewStaticDirectory(path string) (*StaticDirectory, error) {
	d := &StaticDirectory{path: path}
	if err := d.Sync(); err != nil {
		return nil, err
	}
	return d, nil
}

// Lookup resolves a subject id to an actor. Returns UNAUTHORIZED for subjects
// the directory does not know.
func (d *StaticDirectory) Lookup(subjectID string) (model.Actor, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	actor, ok := d.actors[subjectID]
	if !ok {
		return model.Actor{}, model.NewUnauthorizedError(fmt.Sprintf("unknown subject %q", subjectID))
	}
	return actor, nil
}

// All returns every known actor, sorted by id. For administrative listings.
func (d *StaticDirectory) All() []model.Actor {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]model.Actor, 0, len(d.actors))
	for _, a := range d.actors {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// HealthCheck reports whether the directory holds any actors.
func (d *StaticDirectory) HealthCheck(_ context.Context) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if len(d.actors) == 0 {
		return fmt.Errorf("directory: no actors loaded")
	}
	return nil
}

// Sync reloads the actors file from disk.
func (d *StaticDirectory) Sync() error {
	data, err := os.ReadFile(d.path)
	if err != nil {
		return fmt.Errorf("directory: reading actors file %s: %w", d.path, err)
	}

	var f actorsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("directory: parsing actors file %s: %w", d.path, err)
	}

	actors := make(map[string]model.Actor, len(f.Actors))
	for _, e := range f.Actors {
		if e.ID == "" {
			return fmt.Errorf("directory: actors file %s: entry with empty id", d.path)
		}
		if _, dup := actors[e.ID]; dup {
			return fmt.Errorf("directory: actors file %s: duplicate actor id %q", d.path, e.ID)
		}
		actors[e.ID] = model.Actor{ID: e.ID, Name: e.Name, RoleIDs: e.RoleIDs}
	}

	d.mu.Lock()
	d.actors = actors
	d.mu.Unlock()

	return nil
}
