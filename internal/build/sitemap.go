package build

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"unicode/utf8"

	stencilerrors "github.com/conneroisu/stencil/internal/errors"
	"github.com/conneroisu/stencil/internal/paths"
	"github.com/conneroisu/stencil/internal/types"
)

// SitemapFile is the manifest file name inside the output root
const SitemapFile = "sitemap.txt"

// SitemapLines returns one URL per detail, in detail order: the output path
// relative to the output root, behind prefix when one is set.
func (r *Renderer) SitemapLines(details []types.TemplateDetail, prefix string) []string {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	lines := make([]string, 0, len(details))
	for _, detail := range details {
		rel := paths.RelativeURL(r.OutputPath(detail), r.Options.Out)
		lines = append(lines, EncodeURL(prefix)+EncodePath(rel))
	}
	return lines
}

// EncodePath percent-encodes a path made of file names. Unlike EncodeURL it
// has no query or fragment, so '?', '#' and '%' are always encoded.
func EncodePath(p string) string {
	return encodePath(p, false)
}

// WriteSitemap writes lines to the manifest file of outputRoot and returns
// its path.
func WriteSitemap(outputRoot string, lines []string) (string, error) {
	p := filepath.Join(outputRoot, SitemapFile)
	if err := writeFile(p, strings.NewReader(strings.Join(lines, "\n")), OutputMode); err != nil {
		return "", stencilerrors.NewIOError(stencilerrors.ErrCodeSitemapFailed, p, "cannot write sitemap", err)
	}
	return p, nil
}

// EncodeURL percent-encodes raw for the sitemap. In the path, non-ASCII
// characters are kept as is and other characters outside the RFC 3986 path
// set are encoded; existing escapes are preserved. In the query only the
// values are encoded. The scheme and host of an absolute URL are untouched.
func EncodeURL(raw string) string {
	head, rest := "", raw
	if i := strings.Index(raw, "://"); i > 0 {
		if j := strings.IndexByte(raw[i+3:], '/'); j >= 0 {
			head, rest = raw[:i+3+j], raw[i+3+j:]
		} else {
			head, rest = raw, ""
		}
	}

	rest, fragment, hasFragment := strings.Cut(rest, "#")
	p, query, hasQuery := strings.Cut(rest, "?")

	var b strings.Builder
	b.WriteString(head)
	b.WriteString(encodePath(p, true))
	if hasQuery {
		b.WriteByte('?')
		b.WriteString(encodeQuery(query))
	}
	if hasFragment {
		b.WriteByte('#')
		b.WriteString(encodePath(fragment, true))
	}
	return b.String()
}

// encodePath encodes p outside the path set. Valid escapes survive when
// keepEscapes is set.
func encodePath(p string, keepEscapes bool) string {
	var b strings.Builder
	for i := 0; i < len(p); {
		c := p[i]
		switch {
		case c >= utf8.RuneSelf:
			_, size := utf8.DecodeRuneInString(p[i:])
			b.WriteString(p[i : i+size])
			i += size
			continue
		case keepEscapes && c == '%' && i+2 < len(p) && isHex(p[i+1]) && isHex(p[i+2]):
			b.WriteString(p[i : i+3])
			i += 3
			continue
		case c == '/' || isPathChar(c):
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "%%%02X", c)
		}
		i++
	}
	return b.String()
}

func encodeQuery(q string) string {
	parts := strings.Split(q, "&")
	for i, part := range parts {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		if unescaped, err := url.QueryUnescape(value); err == nil {
			value = unescaped
		}
		parts[i] = key + "=" + url.QueryEscape(value)
	}
	return strings.Join(parts, "&")
}

// isPathChar reports whether c is an RFC 3986 pchar other than '%'
func isPathChar(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-._~!$&'()*+,;=:@", c) >= 0
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
