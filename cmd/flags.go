package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/conneroisu/stencil/internal/config"
)

// rootFlags holds the values of the root command flags
type rootFlags struct {
	Watch          bool
	Out            string
	Ext            string
	Delimiter      string
	OpenDelimiter  string
	CloseDelimiter string
	RmWhitespace   bool
	DataFile       string
	GlobalData     string
	Sitemap        bool
	SitemapPrefix  string
	CopyPattern    string
	NoWrite        bool
	Workers        int

	ConfigFile  string
	LogLevel    string
	LogFormat   string
	MetricsFile string
}

func addRootFlags(cmd *cobra.Command, flags *rootFlags) {
	f := cmd.Flags()
	f.BoolVarP(&flags.Watch, "watch", "w", false, "Watch the source roots and rebuild on change")
	f.StringVarP(&flags.Out, "out", "o", config.DefaultOut, "Output directory")
	f.StringVar(&flags.Ext, "ext", config.DefaultExt, "Template file extension")
	f.StringVarP(&flags.Delimiter, "delimiter", "m", "", "Character joined to the open and close delimiters")
	f.StringVarP(&flags.OpenDelimiter, "open-delimiter", "p", "", "Opening delimiter")
	f.StringVarP(&flags.CloseDelimiter, "close-delimiter", "c", "", "Closing delimiter")
	f.BoolVar(&flags.RmWhitespace, "rm-whitespace", false, "Trim whitespace around every template line")
	f.StringVarP(&flags.DataFile, "data-file", "f", "", "JSON file merged into the global data")
	f.StringVar(&flags.GlobalData, "global-data", "", "Inline JSON object merged into the global data")
	f.BoolVar(&flags.Sitemap, "sitemap", false, "Write sitemap.txt to the output directory")
	f.StringVar(&flags.SitemapPrefix, "sitemap-prefix", "", "URL prefix of every sitemap entry")
	f.StringVar(&flags.CopyPattern, "copy-pattern", config.DefaultCopyPattern, "Glob appended to each root directory to find assets")
	f.BoolVar(&flags.NoWrite, "no-write", false, "Render without writing anything to disk")
	f.IntVar(&flags.Workers, "workers", 0, "Parallel tasks (default: number of CPUs)")

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.ConfigFile, "config", "", "Config file (default is .stencil.yml, can also use STENCIL_CONFIG_FILE env var)")
	pf.StringVar(&flags.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.StringVar(&flags.LogFormat, "log-format", "text", "Log format (text, json)")
	f.StringVar(&flags.MetricsFile, "metrics-file", "", "Write build metrics in the Prometheus text format to this file")
}

// layer returns the configuration layer of the flags set on the command
// line. Flags left at their default do not override earlier layers.
func (flags *rootFlags) layer(fs *pflag.FlagSet) config.Layer {
	return config.Layer{
		Out:            changed(fs, "out", flags.Out),
		Ext:            changed(fs, "ext", flags.Ext),
		Delimiter:      changed(fs, "delimiter", flags.Delimiter),
		OpenDelimiter:  changed(fs, "open-delimiter", flags.OpenDelimiter),
		CloseDelimiter: changed(fs, "close-delimiter", flags.CloseDelimiter),
		RmWhitespace:   changed(fs, "rm-whitespace", flags.RmWhitespace),
		CopyPattern:    changed(fs, "copy-pattern", flags.CopyPattern),
		Sitemap:        changed(fs, "sitemap", flags.Sitemap),
		SitemapPrefix:  changed(fs, "sitemap-prefix", flags.SitemapPrefix),
		NoWrite:        changed(fs, "no-write", flags.NoWrite),
		Workers:        changed(fs, "workers", flags.Workers),
	}
}

func changed[T any](fs *pflag.FlagSet, name string, value T) *T {
	if !fs.Changed(name) {
		return nil
	}
	return &value
}
