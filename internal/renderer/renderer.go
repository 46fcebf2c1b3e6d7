// Package renderer adapts html/template to the Engine contract the build
// pipeline renders through: a template file, a data object and delimiter
// settings in, rendered text or a syntax/runtime error out.
package renderer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/conneroisu/stencil/internal/paths"
)

// Engine renders one template file with a data object.
type Engine interface {
	Render(ctx context.Context, filename string, data map[string]interface{}, opts Options) (string, error)
}

// EngineFunc adapts a function to the Engine interface
type EngineFunc func(ctx context.Context, filename string, data map[string]interface{}, opts Options) (string, error)

// Render implements Engine
func (f EngineFunc) Render(ctx context.Context, filename string, data map[string]interface{}, opts Options) (string, error) {
	return f(ctx, filename, data, opts)
}

// Default delimiters
const (
	DefaultOpenDelimiter  = "{{"
	DefaultCloseDelimiter = "}}"
)

// Options are the engine pass-through settings.
//
// The left delimiter is OpenDelimiter+Delimiter and the right one is
// Delimiter+CloseDelimiter, so Delimiter "%" with "<" and ">" gives "<%" and
// "%>". With Delimiter empty the open and close strings are used verbatim.
type Options struct {
	Delimiter      string
	OpenDelimiter  string
	CloseDelimiter string
	// RmWhitespace trims every line of the template source and drops blank lines
	RmWhitespace bool
	// Root is the directory partials are collected from. Empty means the
	// root directory of the rendered file.
	Root string
	// Ext is the template extension partials are recognised by
	Ext string
}

// Delims returns the left and right action delimiters.
func (o Options) Delims() (string, string) {
	open, closing := o.OpenDelimiter, o.CloseDelimiter
	if open == "" && closing == "" && o.Delimiter == "" {
		return DefaultOpenDelimiter, DefaultCloseDelimiter
	}
	return open + o.Delimiter, o.Delimiter + closing
}

// TemplateEngine renders files with html/template
type TemplateEngine struct {
	funcs template.FuncMap
}

// NewTemplateEngine creates an engine with the default function map
func NewTemplateEngine() *TemplateEngine {
	return &TemplateEngine{funcs: FuncMap()}
}

// Render parses filename together with every underscore partial below the
// root directory and executes it with data. Partials are addressed by their
// slash path relative to the root: {{template "_header.tmpl" .}}.
func (e *TemplateEngine) Render(ctx context.Context, filename string, data map[string]interface{}, opts Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	root := opts.Root
	if root == "" {
		root = paths.RootDirName(filename)
	}

	source, err := e.readSource(filename, opts)
	if err != nil {
		return "", err
	}

	left, right := opts.Delims()
	name := templateName(root, filename)
	tmpl, err := template.New(name).Delims(left, right).Funcs(e.funcs).Parse(source)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", filename, err)
	}

	if err := e.addPartials(tmpl, root, filename, opts); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("execute %s: %w", filename, err)
	}
	return buf.String(), nil
}

func (e *TemplateEngine) readSource(filename string, opts Options) (string, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return "", fmt.Errorf("read template %s: %w", filename, err)
	}
	source := string(content)
	if opts.RmWhitespace {
		source = trimWhitespace(source)
	}
	return source, nil
}

// addPartials parses the underscore templates below root into tmpl
func (e *TemplateEngine) addPartials(tmpl *template.Template, root, filename string, opts Options) error {
	self := paths.Canonical(filename)
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !paths.IsPartial(p) {
			return nil
		}
		if opts.Ext != "" && !paths.IsTemplate(p, opts.Ext) {
			return nil
		}
		if paths.Canonical(p) == self {
			return nil
		}
		source, err := e.readSource(p, opts)
		if err != nil {
			return err
		}
		if _, err := tmpl.New(templateName(root, p)).Parse(source); err != nil {
			return fmt.Errorf("parse partial %s: %w", p, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("load partials for %s: %w", filename, err)
	}
	return nil
}

// templateName is the slash path of p relative to root
func templateName(root, p string) string {
	rel, err := filepath.Rel(paths.Canonical(root), paths.Canonical(p))
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}

func trimWhitespace(source string) string {
	lines := strings.Split(source, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
