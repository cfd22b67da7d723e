package species

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Registry maps species keys to validated profiles. It is built once at
// startup and only read afterwards.
type Registry struct {
	profiles map[string]*Profile
}

// NewRegistry validates every parameter set and indexes it by key.
func NewRegistry(params map[string]Params) (*Registry, error) {
	r := &Registry{profiles: make(map[string]*Profile, len(params))}
	for _, key := range sortedKeys(params) {
		p, err := New(key, params[key])
		if err != nil {
			return nil, err
		}
		r.profiles[p.Key()] = p
	}
	return r, nil
}

// Get returns the profile for key or ErrUnknownSpecies.
func (r *Registry) Get(key string) (*Profile, error) {
	p, ok := r.profiles[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownSpecies, key, r.Keys())
	}
	return p, nil
}

// Keys lists the registered species in sorted order.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.profiles))
	for k := range r.profiles {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// file is the on-disk YAML layout:
//
//	species:
//	  great_white:
//	    name: Great White Shark
//	    temperature: {optimal: 18, tolerance: 5, lag_days: 7}
//	    ...
type file struct {
	Species map[string]Params `yaml:"species"`
}

// Parse decodes a YAML species file into a validated registry.
func Parse(data []byte) (*Registry, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("unmarshal species file: %w", err)
	}
	if len(f.Species) == 0 {
		return nil, fmt.Errorf("%w: species file defines no species", ErrInvalidProfile)
	}
	return NewRegistry(f.Species)
}

// LoadFile reads a YAML species file.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Marshal encodes params in the species file layout.
func Marshal(params map[string]Params) ([]byte, error) {
	return yaml.Marshal(file{Species: params})
}

func sortedKeys(m map[string]Params) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
