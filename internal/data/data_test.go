package data

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stencilerrors "github.com/conneroisu/stencil/internal/errors"
	"github.com/conneroisu/stencil/internal/logging"
	"github.com/conneroisu/stencil/internal/testutils"
	"github.com/conneroisu/stencil/internal/types"
)

func TestDerivedKey(t *testing.T) {
	testCases := []struct {
		name     string
		expected string
	}{
		{"posts.json", "POSTS_JSON"},
		{"data/blog-posts.json", "BLOG_POSTS_JSON"},
		{"site/_post.tmpl", "_POST_TMPL"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, DerivedKey(tc.name))
		})
	}
}

func TestResolveBinding(t *testing.T) {
	dir := t.TempDir()
	testutils.Chdir(t, dir)

	bindings, err := NewBindings(map[string]interface{}{
		"site/index.tmpl":  map[string]interface{}{"title": "Hi"},
		"./site/list.tmpl": []interface{}{"a"},
		"site/about.tmpl":  "about.json",
	}, filepath.Join(dir, "conf"))
	require.NoError(t, err)

	b := ResolveBinding(filepath.Join(dir, "site", "index.tmpl"), bindings)
	assert.Equal(t, types.BindingInlineObject, b.Kind)
	assert.Equal(t, "Hi", b.Object["title"])

	assert.Equal(t, types.BindingInlineArray, bindings.Resolve("site/list.tmpl").Kind)

	about := bindings.Resolve("site/about.tmpl")
	assert.Equal(t, types.BindingJSONFile, about.Kind)
	assert.Equal(t, "about.json", about.File)
	assert.Equal(t, filepath.Join(dir, "conf", "about.json"), about.ResolvedFile)

	assert.False(t, bindings.Resolve("site/missing.tmpl").Bound())
}

func TestNewBindingsRejectsScalars(t *testing.T) {
	_, err := NewBindings(map[string]interface{}{"site/a.tmpl": 42}, "")
	assert.Error(t, err)
}

func TestLoadInjectedData(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteFile(t, filepath.Join(dir, "posts.json"), `[{"name":"a"},{"name":"b"}]`)
	testutils.WriteFile(t, filepath.Join(dir, "about.json"), `{"title":"About"}`)
	testutils.WriteFile(t, filepath.Join(dir, "nav.yaml"), "links:\n  - home\n  - blog\n")
	testutils.WriteFile(t, filepath.Join(dir, "broken.json"), `{"title":`)

	t.Run("array wrapped under derived key", func(t *testing.T) {
		value, err := LoadInjectedData(filepath.Join(dir, "posts.json"), false)
		require.NoError(t, err)
		obj := value.(map[string]interface{})
		assert.Len(t, obj["POSTS_JSON"], 2)
	})

	t.Run("raw array", func(t *testing.T) {
		value, err := LoadInjectedData(filepath.Join(dir, "posts.json"), true)
		require.NoError(t, err)
		assert.Len(t, value, 2)
	})

	t.Run("object as is", func(t *testing.T) {
		value, err := LoadInjectedData(filepath.Join(dir, "about.json"), false)
		require.NoError(t, err)
		assert.Equal(t, map[string]interface{}{"title": "About"}, value)
	})

	t.Run("yaml data file", func(t *testing.T) {
		value, err := LoadInjectedData(filepath.Join(dir, "nav.yaml"), false)
		require.NoError(t, err)
		assert.Equal(t, []interface{}{"home", "blog"}, value.(map[string]interface{})["links"])
	})

	t.Run("missing file surfaces both paths", func(t *testing.T) {
		testutils.Chdir(t, dir)
		_, err := LoadInjectedData("nope.json", false)
		require.Error(t, err)
		assert.True(t, stencilerrors.IsType(err, stencilerrors.ErrorTypeData))
		assert.Contains(t, err.Error(), "nope.json")
		assert.Contains(t, err.Error(), filepath.Join(dir, "nope.json"))
	})

	t.Run("unparsable file", func(t *testing.T) {
		_, err := LoadInjectedData(filepath.Join(dir, "broken.json"), false)
		require.Error(t, err)
		assert.True(t, stencilerrors.IsType(err, stencilerrors.ErrorTypeData))
	})
}

func TestContextFor(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteFile(t, filepath.Join(dir, "about.json"), `{"title":"About","n":3}`)

	ctx, err := ContextFor(types.Binding{Kind: types.BindingJSONFile, File: "about.json",
		ResolvedFile: filepath.Join(dir, "about.json")}, "site/about.tmpl")
	require.NoError(t, err)
	assert.Equal(t, "About", ctx["title"])

	ctx, err = ContextFor(types.Binding{Kind: types.BindingInlineArray, Array: []interface{}{1}}, "site/list.tmpl")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{1}, ctx["LIST_TMPL"])

	ctx, err = ContextFor(types.Binding{}, "site/x.tmpl")
	require.NoError(t, err)
	assert.Empty(t, ctx)
}

func TestExpandUnderscoreFanOut(t *testing.T) {
	dir := t.TempDir()
	testutils.Chdir(t, dir)
	testutils.WriteFile(t, "site/index.ejs", "home")
	testutils.WriteFile(t, "site/_post.ejs", "{{.title}}")
	testutils.WriteFile(t, "site/_header.ejs", "header")
	testutils.WriteFile(t, "site/style.css", "body{}")
	testutils.WriteFile(t, "posts.json", `[{"name":"a","title":"A"},{"title":"no name"},{"name":"b","title":"B"}]`)

	bindings, err := NewBindings(map[string]interface{}{"site/_post.ejs": "posts.json"}, dir)
	require.NoError(t, err)

	x := &Expander{Bindings: bindings, Ext: ".ejs", Logger: logging.NewNopLogger()}
	expansion, err := x.Expand(context.Background(), []string{"site/**/*.ejs"})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		filepath.Join("site", "_header.ejs"),
		filepath.Join("site", "_post.ejs"),
		filepath.Join("site", "index.ejs"),
	}, expansion.Templates)

	require.Len(t, expansion.Details, 3)
	var fanOut []types.TemplateDetail
	for _, d := range expansion.Details {
		if d.TemplatePath != "" {
			fanOut = append(fanOut, d)
		}
	}
	require.Len(t, fanOut, 2)
	assert.Equal(t, filepath.Join("site", "post", "a.ejs"), fanOut[0].TemplatePath)
	assert.Equal(t, "A", fanOut[0].Data["title"])
	assert.Equal(t, filepath.Join("site", "post", "b.ejs"), fanOut[1].TemplatePath)
	assert.Equal(t, filepath.Join("site", "_post.ejs"), fanOut[1].Template)

	assert.True(t, expansion.Known(filepath.Join(dir, "site", "_header.ejs")))
	assert.Len(t, expansion.DetailsFor("site/_post.ejs"), 2)
	assert.Empty(t, expansion.DetailsFor("site/_header.ejs"))
	assert.Len(t, expansion.SameRoot("site/_header.ejs"), 3)
}

func TestExpandReportsDataErrorsPerTemplate(t *testing.T) {
	dir := t.TempDir()
	testutils.Chdir(t, dir)
	testutils.WriteFile(t, "site/index.tmpl", "home")
	testutils.WriteFile(t, "site/_post.tmpl", "post")

	bindings, err := NewBindings(map[string]interface{}{"site/_post.tmpl": "missing.json"}, dir)
	require.NoError(t, err)

	x := &Expander{Bindings: bindings, Ext: ".tmpl"}
	expansion, err := x.Expand(context.Background(), []string{"site/*.tmpl"})
	require.Error(t, err)
	require.NotNil(t, expansion)
	assert.Contains(t, err.Error(), "missing.json")
	require.Len(t, expansion.Details, 1)
	assert.Equal(t, filepath.Join("site", "index.tmpl"), expansion.Details[0].Template)
}

func TestGlobTemplatesBadPattern(t *testing.T) {
	_, err := GlobTemplates([]string{"site/[.tmpl"}, ".tmpl")
	assert.Error(t, err)
	assert.True(t, stencilerrors.IsConfigError(err))
}
