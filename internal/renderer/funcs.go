package renderer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// FuncMap returns the functions available to every template. Casers are
// built per call since they are not safe for concurrent use.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"markdown": renderMarkdown,
		"json":     toJSON,
		"upper":    func(s string) string { return cases.Upper(language.Und).String(s) },
		"lower":    func(s string) string { return cases.Lower(language.Und).String(s) },
		"title":    func(s string) string { return cases.Title(language.Und).String(s) },
		"safe":     func(s string) template.HTML { return template.HTML(s) }, //nolint:gosec
	}
}

func renderMarkdown(source string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("markdown: %w", err)
	}
	return template.HTML(buf.String()), nil //nolint:gosec
}

func toJSON(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("json: %w", err)
	}
	return string(b), nil
}
