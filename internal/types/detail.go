// Package types provides common type definitions used throughout stencil.
// This package contains shared types to avoid circular dependencies between packages.
package types

import "fmt"

// TemplateDetail is one resolved unit of rendering work: a template file,
// the data specific to this render and an optional output path override.
type TemplateDetail struct {
	// Template is the source path of the template file. It is the identity
	// key used to match watch events against details.
	Template string
	// TemplatePath is the logical output-relevant path used when one
	// template produces many outputs. Empty means Template.
	TemplatePath string
	// Data holds values specific to this render instance
	Data map[string]interface{}
}

// OutputSource returns the path the output location is derived from.
func (d TemplateDetail) OutputSource() string {
	if d.TemplatePath != "" {
		return d.TemplatePath
	}
	return d.Template
}

// BindingKind tags the shape of a data binding.
type BindingKind int

const (
	BindingUnbound BindingKind = iota
	BindingInlineObject
	BindingInlineArray
	BindingJSONFile
)

// String returns the string representation of the BindingKind
func (k BindingKind) String() string {
	switch k {
	case BindingUnbound:
		return "unbound"
	case BindingInlineObject:
		return "inline-object"
	case BindingInlineArray:
		return "inline-array"
	case BindingJSONFile:
		return "json-file"
	default:
		return "unknown"
	}
}

// Binding is the data bound to a template in the configuration. It is
// classified once while options are built so that renders never inspect raw
// JSON shapes again.
type Binding struct {
	Kind BindingKind
	// Object is set for BindingInlineObject
	Object map[string]interface{}
	// Array is set for BindingInlineArray
	Array []interface{}
	// File is the configured path for BindingJSONFile
	File string
	// ResolvedFile is the absolute form of File
	ResolvedFile string
}

// Bound reports whether the binding carries any data.
func (b Binding) Bound() bool {
	return b.Kind != BindingUnbound
}

// ClassifyBinding turns a raw configuration value into a Binding. resolve,
// when non-nil, maps a configured JSON file path to its absolute form.
func ClassifyBinding(value interface{}, resolve func(string) string) (Binding, error) {
	switch v := value.(type) {
	case nil:
		return Binding{Kind: BindingUnbound}, nil
	case string:
		resolved := v
		if resolve != nil {
			resolved = resolve(v)
		}
		return Binding{Kind: BindingJSONFile, File: v, ResolvedFile: resolved}, nil
	case map[string]interface{}:
		return Binding{Kind: BindingInlineObject, Object: v}, nil
	case []interface{}:
		return Binding{Kind: BindingInlineArray, Array: v}, nil
	default:
		return Binding{}, fmt.Errorf("unsupported data binding of type %T", value)
	}
}
