package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/stencil/internal/data"
	stencilerrors "github.com/conneroisu/stencil/internal/errors"
	"github.com/conneroisu/stencil/internal/hooks"
)

// ValidatorFunc represents a configuration validation function
type ValidatorFunc func(*Options) error

// Builder assembles Options from ordered layers.
//
// Usage:
//
//	opts, err := config.NewBuilder().
//	    WithFile(path).
//	    FromViper(config.NewEnv()).
//	    WithLayer(flags, "").
//	    WithDataFile(dataFile).
//	    WithGlobalJSON(globalJSON).
//	    Build()
//
// Every With method records its error and the first call to Build reports
// all of them.
type Builder struct {
	opts       Options
	validators []ValidatorFunc
	errs       error
}

// NewBuilder creates a builder seeded with the defaults
func NewBuilder() *Builder {
	return &Builder{opts: defaults()}
}

// WithFile loads a YAML or JSON config file. An empty path is a no-op.
// Relative data binding files resolve against the file's directory.
func (b *Builder) WithFile(path string) *Builder {
	if path == "" {
		return b
	}
	content, err := os.ReadFile(path)
	if err != nil {
		b.fail(stencilerrors.NewConfigError(stencilerrors.ErrCodeNotFound,
			fmt.Sprintf("cannot read config file %s", path), err))
		return b
	}
	b.opts.ConfigFile = path
	return b.WithContent(content, absDir(path))
}

// WithContent applies a config file body. yaml.v3 is used for both YAML and
// JSON so template path keys keep their case.
func (b *Builder) WithContent(content []byte, baseDir string) *Builder {
	var layer Layer
	if err := yaml.Unmarshal(content, &layer); err != nil {
		b.fail(stencilerrors.NewConfigError(stencilerrors.ErrCodeConfigInvalid,
			"cannot decode config file", err))
		return b
	}
	return b.WithLayer(layer, baseDir)
}

// FromViper applies the values v holds for the primitive keys. It is used
// with NewEnv for the environment layer.
func (b *Builder) FromViper(v *viper.Viper) *Builder {
	var layer Layer
	if v.IsSet("out") {
		layer.Out = ptr(v.GetString("out"))
	}
	if v.IsSet("ext") {
		layer.Ext = ptr(v.GetString("ext"))
	}
	if v.IsSet("delimiter") {
		layer.Delimiter = ptr(v.GetString("delimiter"))
	}
	if v.IsSet("open_delimiter") {
		layer.OpenDelimiter = ptr(v.GetString("open_delimiter"))
	}
	if v.IsSet("close_delimiter") {
		layer.CloseDelimiter = ptr(v.GetString("close_delimiter"))
	}
	if v.IsSet("rm_whitespace") {
		layer.RmWhitespace = ptr(v.GetBool("rm_whitespace"))
	}
	if v.IsSet("copy_pattern") {
		layer.CopyPattern = ptr(v.GetString("copy_pattern"))
	}
	if v.IsSet("sitemap") {
		layer.Sitemap = ptr(v.GetBool("sitemap"))
	}
	if v.IsSet("sitemap_prefix") {
		layer.SitemapPrefix = ptr(v.GetString("sitemap_prefix"))
	}
	if v.IsSet("no_write") {
		layer.NoWrite = ptr(v.GetBool("no_write"))
	}
	if v.IsSet("workers") {
		layer.Workers = ptr(v.GetInt("workers"))
	}
	if v.IsSet("debounce") {
		layer.Debounce = ptr(v.GetDuration("debounce"))
	}
	if v.IsSet("html_transform") {
		layer.HTMLTransform = ptr(v.GetString("html_transform"))
	}
	return b.WithLayer(layer, "")
}

// WithLayer applies one layer. Relative data binding files resolve against
// baseDir, or the working directory when baseDir is empty.
func (b *Builder) WithLayer(layer Layer, baseDir string) *Builder {
	o := &b.opts
	set(&o.Out, layer.Out)
	set(&o.Ext, layer.Ext)
	set(&o.Engine.Delimiter, layer.Delimiter)
	set(&o.Engine.OpenDelimiter, layer.OpenDelimiter)
	set(&o.Engine.CloseDelimiter, layer.CloseDelimiter)
	set(&o.Engine.RmWhitespace, layer.RmWhitespace)
	set(&o.CopyPattern, layer.CopyPattern)
	set(&o.Sitemap, layer.Sitemap)
	set(&o.SitemapPrefix, layer.SitemapPrefix)
	set(&o.NoWrite, layer.NoWrite)
	set(&o.Workers, layer.Workers)
	set(&o.Debounce, layer.Debounce)
	set(&o.HTMLTransform, layer.HTMLTransform)

	b.mergeGlobal(layer.GlobalData)
	if len(layer.Data) > 0 {
		if baseDir == "" {
			baseDir = workingDir()
		}
		bindings, err := data.NewBindings(layer.Data, baseDir)
		if err != nil {
			b.fail(stencilerrors.NewConfigError(stencilerrors.ErrCodeConfigInvalid, "invalid data binding", err))
		} else {
			o.Bindings = o.Bindings.Merge(bindings)
		}
	}
	return b
}

// WithDataFile merges the object held by a JSON data file into the global
// data. A missing or unparsable file is a configuration error.
func (b *Builder) WithDataFile(path string) *Builder {
	if path == "" {
		return b
	}
	value, err := data.LoadInjectedData(path, false)
	if err != nil {
		b.fail(stencilerrors.NewConfigError(stencilerrors.ErrCodeNotFound,
			fmt.Sprintf("cannot load --data-file %s", path), err))
		return b
	}
	obj, _ := value.(map[string]interface{})
	b.mergeGlobal(obj)
	return b
}

// WithGlobalJSON merges an inline JSON object into the global data.
func (b *Builder) WithGlobalJSON(raw string) *Builder {
	if strings.TrimSpace(raw) == "" {
		return b
	}
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		b.fail(stencilerrors.MalformedJSONError("global-data", err))
		return b
	}
	b.mergeGlobal(obj)
	return b
}

// WithHooks sets programmatic hooks. The HTMLTransform hook, if any, runs
// after the BeforeSave hook given here.
func (b *Builder) WithHooks(set hooks.Set) *Builder {
	b.opts.Hooks = set
	return b
}

// AddValidator adds a custom validation function
func (b *Builder) AddValidator(validator ValidatorFunc) *Builder {
	b.validators = append(b.validators, validator)
	return b
}

// Build validates the accumulated options and returns them.
func (b *Builder) Build() (Options, error) {
	if b.errs != nil {
		return Options{}, b.errs
	}

	opts := b.opts
	transform, err := hooks.ForTransform(opts.HTMLTransform)
	if err != nil {
		return Options{}, stencilerrors.ConfigurationError("html_transform", err.Error(), opts.HTMLTransform)
	}
	opts.Hooks = opts.Hooks.WithBeforeSave(transform)

	var errs error
	for _, validator := range append([]ValidatorFunc{validateOptions}, b.validators...) {
		errs = multierr.Append(errs, validator(&opts))
	}
	if errs != nil {
		return Options{}, errs
	}
	return opts, nil
}

func (b *Builder) fail(err error) {
	b.errs = multierr.Append(b.errs, err)
}

func (b *Builder) mergeGlobal(values map[string]interface{}) {
	if len(values) == 0 {
		return
	}
	merged := make(map[string]interface{}, len(b.opts.GlobalData)+len(values))
	for k, v := range b.opts.GlobalData {
		merged[k] = v
	}
	for k, v := range values {
		merged[k] = v
	}
	b.opts.GlobalData = merged
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func ptr[T any](v T) *T {
	return &v
}
