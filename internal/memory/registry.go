package memory

import (
	"fmt"

	"github.com/Gabepowell344/bizhawk/internal/faults"
)

// Registry is an ordered catalogue of domains. It is built once when a
// machine is constructed and is read-only afterwards.
type Registry struct {
	order  []*Domain
	byName map[string]*Domain
}

func NewRegistry(domains ...*Domain) (*Registry, error) {
	r := &Registry{byName: make(map[string]*Domain, len(domains))}
	for _, d := range domains {
		if err := r.Add(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Add appends a domain. Names are unique and sizes positive.
func (r *Registry) Add(d *Domain) error {
	if d == nil {
		return fmt.Errorf("%w: nil memory domain", faults.ErrConfiguration)
	}
	if d.size <= 0 {
		return fmt.Errorf("%w: memory domain %q has size %d", faults.ErrConfiguration, d.name, d.size)
	}
	if _, ok := r.byName[d.name]; ok {
		return fmt.Errorf("%w: duplicate memory domain %q", faults.ErrConfiguration, d.name)
	}
	r.order = append(r.order, d)
	r.byName[d.name] = d
	return nil
}

// Get looks a domain up by name.
func (r *Registry) Get(name string) (*Domain, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// All returns the domains in registration order. The slice must not be
// modified.
func (r *Registry) All() []*Domain { return r.order }

// Main returns the first registered domain, or nil.
func (r *Registry) Main() *Domain {
	if len(r.order) == 0 {
		return nil
	}
	return r.order[0]
}

func (r *Registry) Len() int { return len(r.order) }
