package build

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"

	"github.com/conneroisu/stencil/internal/config"
	"github.com/conneroisu/stencil/internal/data"
	stencilerrors "github.com/conneroisu/stencil/internal/errors"
	"github.com/conneroisu/stencil/internal/logging"
	"github.com/conneroisu/stencil/internal/paths"
	"github.com/conneroisu/stencil/internal/renderer"
	"github.com/conneroisu/stencil/internal/types"
)

// Reserved keys injected into every render. They override user data.
const (
	KeyPublicPath = "PUBLIC_PATH"
	KeyGlobal     = "GLOBAL"
	KeyNowDate    = "NOW_DATE"
)

// Renderer renders one template detail and persists the result. It keeps no
// state between calls, so one Renderer serves concurrent tasks.
type Renderer struct {
	Engine   renderer.Engine
	Options  config.Options
	Notifier logging.Notifier
	Logger   logging.Logger
	Metrics  *Metrics
	// Now returns the NOW_DATE value. Defaults to time.Now.
	Now func() time.Time
}

// NewRenderer creates a renderer. A nil notifier or logger is replaced by a
// silent one.
func NewRenderer(engine renderer.Engine, opts config.Options, notifier logging.Notifier, logger logging.Logger, metrics *Metrics) *Renderer {
	if notifier == nil {
		notifier = logging.NopNotifier{}
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Renderer{
		Engine:   engine,
		Options:  opts,
		Notifier: notifier,
		Logger:   logger.WithComponent("renderer"),
		Metrics:  metrics,
		Now:      time.Now,
	}
}

// OutputPath returns where detail is written
func (r *Renderer) OutputPath(detail types.TemplateDetail) string {
	return paths.MapOutput(detail.OutputSource(), r.Options.Out, r.Options.Ext)
}

// Render renders detail and, unless writes are suppressed, writes it to its
// mapped output path. The final content is returned either way.
//
// An underscore template bound to an array is a data source for its
// fan-out pages and renders nothing: an empty string is returned.
func (r *Renderer) Render(ctx context.Context, detail types.TemplateDetail) (string, error) {
	content, _, err := r.render(ctx, detail)
	return content, err
}

// Apply renders detail like Render and returns the output path written, or
// an empty path when nothing was written: a data template, or writes are
// suppressed.
func (r *Renderer) Apply(ctx context.Context, detail types.TemplateDetail) (string, error) {
	_, rendered, err := r.render(ctx, detail)
	if err != nil || !rendered || r.Options.NoWrite {
		return "", err
	}
	return r.OutputPath(detail), nil
}

func (r *Renderer) render(ctx context.Context, detail types.TemplateDetail) (out string, rendered bool, err error) {
	start := time.Now()
	defer func() { r.Metrics.ObserveTask(TaskRender, time.Since(start), err) }()

	attached, ok, err := r.DataTemplate(detail)
	if err != nil {
		return "", false, err
	}
	if ok {
		r.Logger.Debug(ctx, "data template not rendered", "template", detail.Template, "keys", len(attached.Data))
		return "", false, nil
	}

	binding := r.Options.Bindings.Resolve(detail.Template)
	output := r.OutputPath(detail)
	values, err := r.context(detail, binding, output)
	if err != nil {
		return "", false, err
	}

	opts := r.Options.EngineOptions()
	opts.Root = paths.RootDirName(detail.Template)
	content, err := r.Engine.Render(ctx, detail.Template, values, opts)
	if err != nil {
		return "", false, stencilerrors.NewRenderError(stencilerrors.ErrCodeRenderFailed, detail.Template, err)
	}

	if hook := r.Options.Hooks.BeforeSave; hook != nil {
		content, err = hook.BeforeSave(ctx, content, r.Options.Out, detail.Template)
		if err != nil {
			return "", false, stencilerrors.NewRenderError(stencilerrors.ErrCodeHookFailed, detail.Template, err)
		}
	}

	if r.Options.NoWrite {
		return content, true, nil
	}
	if err := writeFile(output, strings.NewReader(content), OutputMode); err != nil {
		return "", false, err
	}
	r.Notifier.Created(ctx, detail.Template, output)
	return content, true, nil
}

// DataTemplate reports whether detail is an underscore template bound to an
// array. When it is, the returned copy of detail carries the array under its
// derived key.
func (r *Renderer) DataTemplate(detail types.TemplateDetail) (types.TemplateDetail, bool, error) {
	if detail.TemplatePath != "" || !paths.IsPartial(detail.Template) {
		return detail, false, nil
	}
	arr, key, err := data.BoundArray(r.Options.Bindings.Resolve(detail.Template), detail.Template)
	if err != nil || arr == nil {
		return detail, false, err
	}
	detail.Data = withKey(detail.Data, key, arr)
	return detail, true, nil
}

// context merges, in increasing priority, the bound data of an ordinary
// template, the detail's own data and the reserved keys.
func (r *Renderer) context(detail types.TemplateDetail, binding types.Binding, output string) (map[string]interface{}, error) {
	values := make(map[string]interface{}, len(detail.Data)+3)
	if !paths.IsPartial(detail.Template) {
		bound, err := data.ContextFor(binding, detail.Template)
		if err != nil {
			return nil, err
		}
		for k, v := range bound {
			values[k] = v
		}
	}
	for k, v := range detail.Data {
		values[k] = v
	}

	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	global := r.Options.GlobalData
	if global == nil {
		global = map[string]interface{}{}
	}
	values[KeyPublicPath] = paths.PublicPathPrefix(output, r.Options.Out)
	values[KeyGlobal] = global
	values[KeyNowDate] = now()
	return values, nil
}

// OutputMode is the permission of rendered pages and the sitemap
const OutputMode os.FileMode = 0644

// writeFile creates the parent directories of p, atomically replaces p with
// the content of r and sets its permission to mode. The temporary file
// behind the atomic replace is owner-only.
func writeFile(p string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return stencilerrors.FileOperationError(stencilerrors.ErrCodeMkdirFailed, p, "cannot create output directory", err)
	}
	if err := atomic.WriteFile(p, r); err != nil {
		return stencilerrors.FileOperationError(stencilerrors.ErrCodeWriteFailed, p, "cannot write output", err)
	}
	if err := os.Chmod(p, mode); err != nil {
		return stencilerrors.FileOperationError(stencilerrors.ErrCodeWriteFailed, p, "cannot set output permissions", err)
	}
	return nil
}

func withKey(values map[string]interface{}, key string, value interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(values)+1)
	for k, v := range values {
		out[k] = v
	}
	out[key] = value
	return out
}
