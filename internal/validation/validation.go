// Package validation checks user supplied paths and URLs before they reach
// the build.
package validation

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"unicode"
)

// ValidateSitemapPrefix validates the URL prefix of sitemap entries. A prefix
// with a scheme must be http or https and name a host; a prefix without one
// is used as a relative path.
func ValidateSitemapPrefix(prefix string) error {
	if prefix == "" {
		return nil
	}
	if strings.IndexFunc(prefix, unicode.IsSpace) >= 0 || strings.IndexFunc(prefix, unicode.IsControl) >= 0 {
		return fmt.Errorf("sitemap prefix contains whitespace or control characters")
	}

	parsed, err := url.Parse(prefix)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme == "" {
		return nil
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %s (only http/https allowed)", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL must have a valid hostname")
	}
	if parsed.RawQuery != "" || parsed.Fragment != "" {
		return fmt.Errorf("sitemap prefix must not carry a query or fragment")
	}
	return nil
}

// ValidateOutputRoot validates the output directory. It must not be the
// filesystem root or the working directory, which a watch session would
// otherwise treat as both source and output.
func ValidateOutputRoot(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if strings.ContainsRune(path, 0) {
		return fmt.Errorf("path contains a null byte")
	}
	clean := filepath.Clean(path)
	if clean == "." || clean == string(filepath.Separator) || clean == filepath.VolumeName(clean)+string(filepath.Separator) {
		return fmt.Errorf("output root %s would overwrite the sources", path)
	}
	return nil
}

// ValidateFileExtension checks that ext looks like a file extension
func ValidateFileExtension(ext string) error {
	if len(ext) < 2 || ext[0] != '.' {
		return fmt.Errorf("extension must start with a dot")
	}
	if strings.ContainsAny(ext[1:], `./\`) || strings.IndexFunc(ext, unicode.IsSpace) >= 0 {
		return fmt.Errorf("extension %q contains separators or whitespace", ext)
	}
	return nil
}
