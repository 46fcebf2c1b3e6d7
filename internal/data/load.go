package data

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	stencilerrors "github.com/conneroisu/stencil/internal/errors"
	"github.com/conneroisu/stencil/internal/paths"
	"github.com/conneroisu/stencil/internal/types"
)

var keyReplacer = strings.NewReplacer(".", "_", "-", "_")

// DerivedKey returns the key an array is attached under: the base name of
// name with dots and hyphens replaced by underscores, upper-cased.
// "posts.json" becomes "POSTS_JSON".
func DerivedKey(name string) string {
	return cases.Upper(language.Und).String(keyReplacer.Replace(filepath.Base(name)))
}

// LoadInjectedData reads and parses a data file. With raw false a top-level
// array is wrapped under DerivedKey(file); objects are returned as is.
func LoadInjectedData(file string, raw bool) (interface{}, error) {
	return load(file, paths.Canonical(file), raw)
}

func load(configured, resolved string, raw bool) (interface{}, error) {
	content, err := os.ReadFile(resolved)
	if err != nil {
		return nil, stencilerrors.NewDataResolutionError(stencilerrors.ErrCodeNotFound, configured, resolved, err)
	}

	var value interface{}
	switch strings.ToLower(filepath.Ext(resolved)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(content, &value)
	default:
		err = json.Unmarshal(content, &value)
	}
	if err != nil {
		return nil, stencilerrors.NewDataResolutionError(stencilerrors.ErrCodeNotFound, configured, resolved,
			fmt.Errorf("unparsable data file: %w", err))
	}

	switch v := value.(type) {
	case []interface{}:
		if raw {
			return v, nil
		}
		return map[string]interface{}{DerivedKey(resolved): v}, nil
	case map[string]interface{}:
		return v, nil
	default:
		return nil, stencilerrors.NewDataResolutionError(stencilerrors.ErrCodeUnparsable, configured, resolved,
			fmt.Errorf("data file must hold an object or an array, got %T", value))
	}
}

// LoadBinding loads the value behind a binding. Inline values are returned
// directly; JSON file bindings are read from disk on every call so watch
// sessions pick up edits.
func LoadBinding(b types.Binding, raw bool) (interface{}, error) {
	switch b.Kind {
	case types.BindingInlineObject:
		return b.Object, nil
	case types.BindingInlineArray:
		return b.Array, nil
	case types.BindingJSONFile:
		return load(b.File, b.ResolvedFile, raw)
	default:
		return nil, nil
	}
}

// BoundArray returns the array behind b, if any, with the key it is
// attached under when it is merged into a data object.
func BoundArray(b types.Binding, template string) ([]interface{}, string, error) {
	value, err := LoadBinding(b, true)
	if err != nil {
		return nil, "", err
	}
	arr, ok := value.([]interface{})
	if !ok {
		return nil, "", nil
	}
	key := DerivedKey(template)
	if b.Kind == types.BindingJSONFile {
		key = DerivedKey(b.ResolvedFile)
	}
	return arr, key, nil
}

// ContextFor returns the data object an ordinary template is rendered with,
// merged under top-level keys. Arrays are wrapped under their derived key.
func ContextFor(b types.Binding, template string) (map[string]interface{}, error) {
	switch b.Kind {
	case types.BindingUnbound:
		return map[string]interface{}{}, nil
	case types.BindingInlineArray:
		return map[string]interface{}{DerivedKey(template): b.Array}, nil
	}

	value, err := LoadBinding(b, false)
	if err != nil {
		return nil, err
	}
	obj, _ := value.(map[string]interface{})
	out := make(map[string]interface{}, len(obj))
	for k, v := range obj {
		out[k] = v
	}
	return out, nil
}
