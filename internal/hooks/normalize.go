package hooks

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// HTMLNormalizer parses rendered output as an HTML document and renders it
// back, which closes unclosed elements, quotes attributes and adds the
// implied html, head and body elements.
type HTMLNormalizer struct{}

// BeforeSave implements BeforeSave
func (HTMLNormalizer) BeforeSave(ctx context.Context, rendered, _, templatePath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	doc, err := html.Parse(strings.NewReader(rendered))
	if err != nil {
		return "", fmt.Errorf("normalize %s: %w", templatePath, err)
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return "", fmt.Errorf("normalize %s: %w", templatePath, err)
	}
	return buf.String(), nil
}
