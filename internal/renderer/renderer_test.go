package renderer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/stencil/internal/testutils"
)

func TestOptionsDelims(t *testing.T) {
	testCases := []struct {
		name          string
		opts          Options
		expectedLeft  string
		expectedRight string
	}{
		{"defaults", Options{}, "{{", "}}"},
		{"ejs style", Options{Delimiter: "%", OpenDelimiter: "<", CloseDelimiter: ">"}, "<%", "%>"},
		{"open and close only", Options{OpenDelimiter: "[[", CloseDelimiter: "]]"}, "[[", "]]"},
		{"delimiter only", Options{Delimiter: "$$"}, "$$", "$$"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			left, right := tc.opts.Delims()
			assert.Equal(t, tc.expectedLeft, left)
			assert.Equal(t, tc.expectedRight, right)
		})
	}
}

func TestTemplateEngineRender(t *testing.T) {
	dir := t.TempDir()
	testutils.Chdir(t, dir)
	engine := NewTemplateEngine()
	ctx := context.Background()

	t.Run("default delimiters", func(t *testing.T) {
		testutils.WriteFile(t, "site/index.tmpl", "<h1>{{.title}}</h1>")
		out, err := engine.Render(ctx, "site/index.tmpl", map[string]interface{}{"title": "Hi"}, Options{})
		require.NoError(t, err)
		assert.Equal(t, "<h1>Hi</h1>", out)
	})

	t.Run("custom delimiters", func(t *testing.T) {
		testutils.WriteFile(t, "site/ejs.tmpl", "<p><% .title %></p>")
		opts := Options{Delimiter: "%", OpenDelimiter: "<", CloseDelimiter: ">"}
		out, err := engine.Render(ctx, "site/ejs.tmpl", map[string]interface{}{"title": "Hi"}, opts)
		require.NoError(t, err)
		assert.Equal(t, "<p>Hi</p>", out)
	})

	t.Run("escapes data", func(t *testing.T) {
		testutils.WriteFile(t, "site/escape.tmpl", "<p>{{.body}}</p>")
		out, err := engine.Render(ctx, "site/escape.tmpl", map[string]interface{}{"body": "<b>"}, Options{})
		require.NoError(t, err)
		assert.Equal(t, "<p>&lt;b&gt;</p>", out)
	})

	t.Run("rm whitespace", func(t *testing.T) {
		testutils.WriteFile(t, "site/ws.tmpl", "<ul>\n    <li>{{.item}}</li>\n\n   </ul>\n")
		out, err := engine.Render(ctx, "site/ws.tmpl", map[string]interface{}{"item": "one"}, Options{RmWhitespace: true})
		require.NoError(t, err)
		assert.Equal(t, "<ul>\n<li>one</li>\n</ul>", out)
	})

	t.Run("partials by root relative name", func(t *testing.T) {
		testutils.WriteFile(t, "site/_header.tmpl", "<header>{{.title}}</header>")
		testutils.WriteFile(t, "site/partials/_nav.tmpl", "<nav>{{.PUBLIC_PATH}}</nav>")
		testutils.WriteFile(t, "site/about/index.tmpl", `{{template "_header.tmpl" .}}{{template "partials/_nav.tmpl" .}}`)
		data := map[string]interface{}{"title": "About", "PUBLIC_PATH": "../"}
		out, err := engine.Render(ctx, "site/about/index.tmpl", data, Options{Ext: ".tmpl"})
		require.NoError(t, err)
		assert.Equal(t, "<header>About</header><nav>../</nav>", out)
	})

	t.Run("template functions", func(t *testing.T) {
		testutils.WriteFile(t, "site/funcs.tmpl", `{{upper .a}} {{lower .b}} {{title .c}} {{safe .d}}`)
		data := map[string]interface{}{"a": "up", "b": "DOWN", "c": "hello world", "d": "<i>x</i>"}
		out, err := engine.Render(ctx, "site/funcs.tmpl", data, Options{})
		require.NoError(t, err)
		assert.Equal(t, "UP down Hello World <i>x</i>", out)
	})

	t.Run("markdown", func(t *testing.T) {
		testutils.WriteFile(t, "site/md.tmpl", `{{markdown .body}}`)
		out, err := engine.Render(ctx, "site/md.tmpl", map[string]interface{}{"body": "# Title"}, Options{})
		require.NoError(t, err)
		assert.Contains(t, out, "<h1>Title</h1>")
	})
}

func TestTemplateEngineErrors(t *testing.T) {
	dir := t.TempDir()
	testutils.Chdir(t, dir)
	engine := NewTemplateEngine()
	ctx := context.Background()

	t.Run("syntax error names template", func(t *testing.T) {
		testutils.WriteFile(t, "site/bad.tmpl", "{{if .x}}")
		_, err := engine.Render(ctx, "site/bad.tmpl", nil, Options{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "site/bad.tmpl")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := engine.Render(ctx, "site/none.tmpl", nil, Options{})
		assert.Error(t, err)
	})

	t.Run("missing partial", func(t *testing.T) {
		testutils.WriteFile(t, "site/call.tmpl", `{{template "_absent.tmpl" .}}`)
		_, err := engine.Render(ctx, "site/call.tmpl", nil, Options{})
		assert.Error(t, err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		testutils.WriteFile(t, "site/ok.tmpl", "ok")
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := engine.Render(cancelled, "site/ok.tmpl", nil, Options{})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestEngineFunc(t *testing.T) {
	var engine Engine = EngineFunc(func(_ context.Context, filename string, _ map[string]interface{}, _ Options) (string, error) {
		return "rendered " + filename, nil
	})
	out, err := engine.Render(context.Background(), "x.tmpl", nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, "rendered x.tmpl", out)
}

func TestToJSON(t *testing.T) {
	out, err := toJSON(map[string]interface{}{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, out)

	_, err = toJSON(func() {})
	assert.Error(t, err)
}
