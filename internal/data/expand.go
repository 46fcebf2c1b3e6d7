package data

import (
	"context"
	"fmt"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/multierr"

	stencilerrors "github.com/conneroisu/stencil/internal/errors"
	"github.com/conneroisu/stencil/internal/logging"
	"github.com/conneroisu/stencil/internal/paths"
	"github.com/conneroisu/stencil/internal/types"
)

// Expansion is the result of resolving entry patterns into render work.
type Expansion struct {
	// Templates lists every matched template file in match order, partials
	// included. It is the known entry set of a watch session.
	Templates []string
	// Details is the render work derived from Templates
	Details []types.TemplateDetail
}

// Known reports whether path is one of the matched templates.
func (e *Expansion) Known(path string) bool {
	want := paths.Canonical(path)
	for _, t := range e.Templates {
		if paths.Canonical(t) == want {
			return true
		}
	}
	return false
}

// DetailsFor returns the details whose Template is path.
func (e *Expansion) DetailsFor(path string) []types.TemplateDetail {
	want := paths.Canonical(path)
	var out []types.TemplateDetail
	for _, d := range e.Details {
		if paths.Canonical(d.Template) == want {
			out = append(out, d)
		}
	}
	return out
}

// Expander turns entry globs into template details
type Expander struct {
	Bindings Bindings
	Ext      string
	Logger   logging.Logger
}

// GlobTemplates returns the template files matched by patterns, without
// duplicates, in pattern order.
func GlobTemplates(patterns []string, ext string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, stencilerrors.NewConfigError(stencilerrors.ErrCodeGlobFailed,
				fmt.Sprintf("invalid entry pattern %q", pattern), err)
		}
		for _, match := range matches {
			if !paths.IsTemplate(match, ext) || seen[match] {
				continue
			}
			if info, err := os.Stat(match); err != nil || info.IsDir() {
				continue
			}
			seen[match] = true
			out = append(out, match)
		}
	}
	return out, nil
}

// Expand globs entries and resolves every match into details. Per-template
// data errors are combined into the returned error while the other
// templates still expand; a nil Expansion is only returned for bad patterns.
func (x *Expander) Expand(ctx context.Context, entries []string) (*Expansion, error) {
	templates, err := GlobTemplates(entries, x.Ext)
	if err != nil {
		return nil, err
	}

	expansion := &Expansion{Templates: templates}
	var errs error
	for _, template := range templates {
		details, err := x.ExpandTemplate(ctx, template)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		expansion.Details = append(expansion.Details, details...)
	}
	return expansion, errs
}

// ExpandTemplate resolves one template file into its details. An ordinary
// template yields itself; an underscore template bound to an array yields one
// detail per element with a name field; other underscore templates are
// partials and yield nothing.
func (x *Expander) ExpandTemplate(ctx context.Context, template string) ([]types.TemplateDetail, error) {
	if !paths.IsPartial(template) {
		return []types.TemplateDetail{{Template: template, Data: map[string]interface{}{}}}, nil
	}

	arr, _, err := BoundArray(x.Bindings.Resolve(template), template)
	if err != nil {
		return nil, err
	}

	details := make([]types.TemplateDetail, 0, len(arr))
	for i, element := range arr {
		item, ok := element.(map[string]interface{})
		name, _ := item["name"].(string)
		if !ok || name == "" {
			if x.Logger != nil {
				x.Logger.Warn(ctx, nil, "skipping array element without a name field",
					"template", template, "index", i)
			}
			continue
		}
		details = append(details, types.TemplateDetail{
			Template:     template,
			TemplatePath: paths.FanOutPath(template, name),
			Data:         item,
		})
	}
	return details, nil
}

// SameRoot returns the details sharing the root directory of path.
func (e *Expansion) SameRoot(path string) []types.TemplateDetail {
	var out []types.TemplateDetail
	for _, d := range e.Details {
		if paths.Within(path, paths.RootDirName(d.Template)) {
			out = append(out, d)
		}
	}
	return out
}
