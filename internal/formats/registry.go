package formats

import (
	"errors"
	"strings"
)

var (
	ErrEmptyField = errors.New("both name and instructions are required")
	ErrDuplicate  = errors.New("this format name already exists")
)

// Registry holds the formats available in a session and which of them are
// selected. Selection is keyed by name.
type Registry struct {
	custom   []Spec
	selected map[string]bool
}

// NewRegistry returns a registry with every predefined format selected.
func NewRegistry() *Registry {
	r := &Registry{selected: make(map[string]bool)}
	for _, name := range Predefined {
		r.selected[name] = true
	}
	return r
}

// All returns predefined formats followed by custom formats.
func (r *Registry) All() []Spec {
	all := make([]Spec, 0, len(Predefined)+len(r.custom))
	for _, name := range Predefined {
		all = append(all, Spec{Name: name})
	}
	return append(all, r.custom...)
}

// Custom returns the custom formats in insertion order.
func (r *Registry) Custom() []Spec {
	out := make([]Spec, len(r.custom))
	copy(out, r.custom)
	return out
}

// Exists reports whether a format with this name is registered, ignoring case.
func (r *Registry) Exists(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, s := range r.All() {
		if strings.ToLower(s.Name) == name {
			return true
		}
	}
	return false
}

// Add registers a custom format and selects it.
func (r *Registry) Add(name, instructions string) (Spec, error) {
	spec, err := r.register(name, instructions)
	if err != nil {
		return Spec{}, err
	}
	r.selected[spec.Name] = true
	return spec, nil
}

// AddUnselected registers a custom format without selecting it. Used for
// formats loaded from the library so they don't change the default prompt.
func (r *Registry) AddUnselected(name, instructions string) (Spec, error) {
	spec, err := r.register(name, instructions)
	if err != nil {
		return Spec{}, err
	}
	r.selected[spec.Name] = false
	return spec, nil
}

func (r *Registry) register(name, instructions string) (Spec, error) {
	name = strings.TrimSpace(name)
	instructions = strings.TrimSpace(instructions)
	if name == "" || instructions == "" {
		return Spec{}, ErrEmptyField
	}
	if r.Exists(name) {
		return Spec{}, ErrDuplicate
	}
	spec := Spec{Name: name, Instructions: instructions}
	r.custom = append(r.custom, spec)
	return spec, nil
}

// Remove deletes a custom format and its selection entry. Predefined formats
// cannot be removed.
func (r *Registry) Remove(name string) bool {
	for i, s := range r.custom {
		if s.Name == name {
			r.custom = append(r.custom[:i], r.custom[i+1:]...)
			delete(r.selected, name)
			return true
		}
	}
	return false
}

// Toggle flips the selection of a registered format.
func (r *Registry) Toggle(name string) {
	if _, ok := r.selected[name]; !ok {
		return
	}
	r.selected[name] = !r.selected[name]
}

// SetSelected sets the selection of a registered format.
func (r *Registry) SetSelected(name string, on bool) {
	if _, ok := r.selected[name]; !ok {
		return
	}
	r.selected[name] = on
}

func (r *Registry) Selected(name string) bool {
	return r.selected[name]
}

// Active returns the selected formats: predefined first in canonical order,
// then custom formats in insertion order.
func (r *Registry) Active() []Spec {
	var active []Spec
	for _, s := range r.All() {
		if r.selected[s.Name] {
			active = append(active, s)
		}
	}
	return active
}

// HasSelection reports whether at least one format is selected.
func (r *Registry) HasSelection() bool {
	for _, on := range r.selected {
		if on {
			return true
		}
	}
	return false
}

// SelectOnly selects exactly the named formats, matching case-insensitively.
// Unknown names are returned.
func (r *Registry) SelectOnly(names []string) []string {
	for k := range r.selected {
		r.selected[k] = false
	}
	var unknown []string
	for _, n := range names {
		found := false
		for _, s := range r.All() {
			if strings.EqualFold(s.Name, strings.TrimSpace(n)) {
				r.selected[s.Name] = true
				found = true
				break
			}
		}
		if !found {
			unknown = append(unknown, n)
		}
	}
	return unknown
}
