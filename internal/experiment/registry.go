package experiment

import (
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/glucosim/internal/dynamo"
	"github.com/san-kum/glucosim/internal/integrators"
	"github.com/san-kum/glucosim/internal/physiology"
)

// Registry resolves model and method names to constructors.
type Registry struct {
	models  map[string]func(physiology.Params) physiology.Model
	methods map[string]func() dynamo.Stepper
}

func NewRegistry() *Registry {
	r := &Registry{
		models:  make(map[string]func(physiology.Params) physiology.Model),
		methods: make(map[string]func() dynamo.Stepper),
	}

	r.models["dallaman"] = func(p physiology.Params) physiology.Model { return physiology.NewDallaMan(p) }

	r.methods["RK45"] = func() dynamo.Stepper { return integrators.NewRK45() }
	r.methods["RK23"] = func() dynamo.Stepper { return integrators.NewRK23() }
	r.methods["RK4"] = func() dynamo.Stepper { return integrators.NewRK4() }

	return r
}

func (r *Registry) GetModel(name string, p physiology.Params) (physiology.Model, error) {
	fn, ok := r.models[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown model: %s", name)
	}
	return fn(p), nil
}

// GetMethod accepts method names case-insensitively, with an optional
// "adaptive-" prefix.
func (r *Registry) GetMethod(name string) (dynamo.Stepper, error) {
	key := strings.ToUpper(strings.TrimSpace(name))
	key = strings.TrimPrefix(key, "ADAPTIVE-")
	fn, ok := r.methods[key]
	if !ok {
		return nil, fmt.Errorf("unknown method: %s (want one of %s)", name, strings.Join(r.ListMethods(), ", "))
	}
	return fn(), nil
}

func (r *Registry) ListModels() []string {
	return sortedKeys(r.models)
}

func (r *Registry) ListMethods() []string {
	return sortedKeys(r.methods)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
