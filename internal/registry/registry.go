// Package registry owns the live templates and moves them to and from disk.
package registry

import (
	"fmt"

	"blueprints.ai/internal/blueprint"
)

// Registry is the set of live templates, keyed by name, in the order they were
// added.
type Registry struct {
	list   []*blueprint.Template
	byName map[string]*blueprint.Template
}

func New() *Registry {
	return &Registry{byName: map[string]*blueprint.Template{}}
}

func (r *Registry) Find(name string) *blueprint.Template { return r.byName[name] }

func (r *Registry) Len() int { return len(r.list) }

func (r *Registry) List() []*blueprint.Template {
	return append([]*blueprint.Template(nil), r.list...)
}

func (r *Registry) Add(t *blueprint.Template) error {
	if t == nil {
		return fmt.Errorf("add: nil template")
	}
	if _, ok := r.byName[t.Name()]; ok {
		return fmt.Errorf("%w: %q", blueprint.ErrNameTaken, t.Name())
	}
	r.byName[t.Name()] = t
	r.list = append(r.list, t)
	return nil
}

// Remove drops t and reports whether it was registered.
func (r *Registry) Remove(t *blueprint.Template) bool {
	if t == nil || r.byName[t.Name()] != t {
		return false
	}
	delete(r.byName, t.Name())
	for i, have := range r.list {
		if have == t {
			r.list = append(r.list[:i], r.list[i+1:]...)
			break
		}
	}
	return true
}

func (r *Registry) rename(t *blueprint.Template, name string) {
	delete(r.byName, t.Name())
	t.Rename(name)
	r.byName[name] = t
}
