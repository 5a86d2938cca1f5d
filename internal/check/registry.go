package check

import "fmt"

// Registry is the ordered collection of checks that must pass before a
// deployment proceeds. Registration order is preserved in reports for
// readability only; the decision policy weighs all checks equally.
type Registry struct {
	checks   []Check
	disabled map[string]bool
}

// NewRegistry builds a registry from the given checks, in order.
// Names must be unique.
func NewRegistry(checks ...Check) (*Registry, error) {
	seen := make(map[string]bool, len(checks))
	for _, c := range checks {
		if c.Name() == "" {
			return nil, fmt.Errorf("registry: check with empty name")
		}
		if seen[c.Name()] {
			return nil, fmt.Errorf("registry: duplicate check name %q", c.Name())
		}
		seen[c.Name()] = true
	}
	return &Registry{
		checks:   append([]Check(nil), checks...),
		disabled: make(map[string]bool),
	}, nil
}

// Add appends a check to the end of the registry.
func (r *Registry) Add(c Check) error {
	for _, existing := range r.checks {
		if existing.Name() == c.Name() {
			return fmt.Errorf("registry: duplicate check name %q", c.Name())
		}
	}
	r.checks = append(r.checks, c)
	return nil
}

// Disable removes a check from the active set without forgetting its
// registration order. Disabling an unknown name is an error so a typo in
// configuration does not silently widen the gate.
func (r *Registry) Disable(name string) error {
	for _, c := range r.checks {
		if c.Name() == name {
			r.disabled[name] = true
			return nil
		}
	}
	return fmt.Errorf("registry: unknown check %q", name)
}

// Enable re-activates a previously disabled check.
func (r *Registry) Enable(name string) {
	delete(r.disabled, name)
}

// Enabled returns the active checks in registration order.
func (r *Registry) Enabled() []Check {
	out := make([]Check, 0, len(r.checks))
	for _, c := range r.checks {
		if !r.disabled[c.Name()] {
			out = append(out, c)
		}
	}
	return out
}

// Names returns all registered check names in order, enabled or not.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.checks))
	for _, c := range r.checks {
		out = append(out, c.Name())
	}
	return out
}

// Len reports the number of enabled checks.
func (r *Registry) Len() int {
	return len(r.Enabled())
}
