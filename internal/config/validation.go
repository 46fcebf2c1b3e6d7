package config

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	stencilerrors "github.com/conneroisu/stencil/internal/errors"
	"github.com/conneroisu/stencil/internal/validation"
)

// validateOptions checks the options every session relies on
func validateOptions(o *Options) error {
	if err := validation.ValidateOutputRoot(o.Out); err != nil {
		return stencilerrors.ConfigurationError("out", err.Error(), o.Out)
	}
	if err := validation.ValidateFileExtension(o.Ext); err != nil {
		return stencilerrors.ConfigurationError("ext", err.Error(), o.Ext)
	}
	if err := validation.ValidateSitemapPrefix(o.SitemapPrefix); err != nil {
		return stencilerrors.ConfigurationError("sitemap_prefix", err.Error(), o.SitemapPrefix)
	}

	switch {
	case strings.EqualFold(o.Ext, ".html"):
		return stencilerrors.ConfigurationError("ext", "template extension must differ from the output extension", o.Ext)
	case o.Workers < 1:
		return stencilerrors.ConfigurationError("workers", "at least one worker is required", o.Workers)
	case o.Debounce < 0:
		return stencilerrors.ConfigurationError("debounce", "must not be negative", o.Debounce)
	case !doublestar.ValidatePattern(o.CopyPattern):
		return stencilerrors.ConfigurationError("copy_pattern", "invalid glob pattern", o.CopyPattern)
	}

	left, right := o.Engine.Delims()
	if strings.TrimSpace(left) == "" || strings.TrimSpace(right) == "" {
		return stencilerrors.ConfigurationError("delimiter", "delimiters must not be blank", left+" "+right)
	}
	return nil
}
