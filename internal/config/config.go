// Package config builds the immutable Options record a build or watch
// session runs with.
//
// Options are assembled by a layered Builder in one pass:
// defaults, the config file, the environment (STENCIL_ prefix), CLI flags and
// finally the runtime JSON supplied through --data-file and --global-data.
// Primitive fields set by a later layer override earlier ones; global data and
// per-template data bindings are merged key by key.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/viper"

	"github.com/conneroisu/stencil/internal/data"
	"github.com/conneroisu/stencil/internal/hooks"
	"github.com/conneroisu/stencil/internal/renderer"
)

// Defaults
const (
	DefaultOut         = "dist"
	DefaultExt         = ".tmpl"
	DefaultCopyPattern = "/**/*.{css,js,png,jpg,jpeg,gif,svg,ico,webp,eot,ttf,woff,woff2,txt,json}"
	DefaultDebounce    = 50 * time.Millisecond
	EnvPrefix          = "STENCIL"
	ConfigName         = ".stencil"
)

// Options configures one build or watch session. It is read-only once built.
type Options struct {
	// Out is the output root
	Out string
	// Ext is the template extension, including the dot
	Ext string
	// Engine holds the render engine pass-through settings
	Engine renderer.Options
	// GlobalData is exposed to every render under GLOBAL
	GlobalData map[string]interface{}
	// Bindings is the per-template data table
	Bindings data.Bindings
	// CopyPattern is appended to every root directory to glob assets
	CopyPattern   string
	Sitemap       bool
	SitemapPrefix string
	// NoWrite suppresses every disk write of rendered output
	NoWrite bool
	// Workers bounds the parallel render, copy and watch tasks
	Workers int
	// Debounce coalesces bursts of watch events per path
	Debounce time.Duration
	// HTMLTransform selects a built-in BeforeSave hook
	HTMLTransform string
	Hooks         hooks.Set
	// ConfigFile is the config file the options were loaded from, if any
	ConfigFile string
}

// EngineOptions returns the engine settings with the template extension set.
func (o Options) EngineOptions() renderer.Options {
	opts := o.Engine
	if opts.Ext == "" {
		opts.Ext = o.Ext
	}
	return opts
}

// Layer is one set of configuration values. Nil fields are left to
// earlier layers. It is also the shape of the config file.
type Layer struct {
	Out            *string                `yaml:"out"`
	Ext            *string                `yaml:"ext"`
	Delimiter      *string                `yaml:"delimiter"`
	OpenDelimiter  *string                `yaml:"open_delimiter"`
	CloseDelimiter *string                `yaml:"close_delimiter"`
	RmWhitespace   *bool                  `yaml:"rm_whitespace"`
	CopyPattern    *string                `yaml:"copy_pattern"`
	Sitemap        *bool                  `yaml:"sitemap"`
	SitemapPrefix  *string                `yaml:"sitemap_prefix"`
	NoWrite        *bool                  `yaml:"no_write"`
	Workers        *int                   `yaml:"workers"`
	Debounce       *time.Duration         `yaml:"debounce"`
	HTMLTransform  *string                `yaml:"html_transform"`
	GlobalData     map[string]interface{} `yaml:"global_data"`
	Data           map[string]interface{} `yaml:"data"`
}

// Discover locates the config file. explicit, then STENCIL_CONFIG_FILE, then
// .stencil.{yml,yaml,json,toml} in dir are tried. An empty result with a nil
// error means no config file is in use.
func Discover(explicit, dir string) (string, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	_ = v.BindEnv("config_file")

	switch {
	case explicit != "":
		v.SetConfigFile(explicit)
	case v.GetString("config_file") != "":
		v.SetConfigFile(v.GetString("config_file"))
	default:
		v.SetConfigName(ConfigName)
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return "", nil
		}
		return "", err
	}
	return v.ConfigFileUsed(), nil
}

// NewEnv returns a viper instance reading STENCIL_ prefixed environment
// variables, so STENCIL_SITEMAP_PREFIX sets sitemap_prefix.
func NewEnv() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}
	return v
}

var envKeys = []string{
	"out", "ext", "delimiter", "open_delimiter", "close_delimiter",
	"rm_whitespace", "copy_pattern", "sitemap", "sitemap_prefix",
	"no_write", "workers", "debounce", "html_transform",
}

func defaults() Options {
	return Options{
		Out:         DefaultOut,
		Ext:         DefaultExt,
		GlobalData:  map[string]interface{}{},
		Bindings:    data.Bindings{},
		CopyPattern: DefaultCopyPattern,
		Workers:     runtime.NumCPU(),
		Debounce:    DefaultDebounce,
	}
}

func workingDir() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

func absDir(file string) string {
	abs, err := filepath.Abs(file)
	if err != nil {
		return filepath.Dir(file)
	}
	return filepath.Dir(abs)
}
