// Package data resolves the data injected into templates: per-template
// bindings from the configuration, JSON (or YAML) data files, and the
// expansion of underscore templates into one detail per array element.
package data

import (
	"fmt"
	"path/filepath"

	"github.com/conneroisu/stencil/internal/paths"
	"github.com/conneroisu/stencil/internal/types"
)

// Bindings maps canonical absolute template paths to their data binding
type Bindings map[string]types.Binding

// NewBindings classifies a raw binding table. Keys are template paths
// relative to the working directory; string values name data files and are
// resolved against baseDir when relative.
func NewBindings(raw map[string]interface{}, baseDir string) (Bindings, error) {
	resolve := func(file string) string {
		if filepath.IsAbs(file) || baseDir == "" {
			return paths.Canonical(file)
		}
		return paths.Canonical(filepath.Join(baseDir, file))
	}

	bindings := make(Bindings, len(raw))
	for key, value := range raw {
		binding, err := types.ClassifyBinding(value, resolve)
		if err != nil {
			return nil, fmt.Errorf("data binding for %s: %w", key, err)
		}
		bindings[paths.Canonical(key)] = binding
	}
	return bindings, nil
}

// Resolve returns the binding of templatePath, or an unbound binding.
func (b Bindings) Resolve(templatePath string) types.Binding {
	return ResolveBinding(templatePath, b)
}

// Merge returns a new table with the entries of other layered over b.
func (b Bindings) Merge(other Bindings) Bindings {
	merged := make(Bindings, len(b)+len(other))
	for k, v := range b {
		merged[k] = v
	}
	for k, v := range other {
		merged[k] = v
	}
	return merged
}

// ResolveBinding performs an exact-match lookup of the canonical form of
// templatePath in bindings.
func ResolveBinding(templatePath string, bindings Bindings) types.Binding {
	if binding, ok := bindings[paths.Canonical(templatePath)]; ok {
		return binding
	}
	return types.Binding{Kind: types.BindingUnbound}
}
