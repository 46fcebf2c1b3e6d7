package paths

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRootDirName(t *testing.T) {
	testCases := []struct {
		path     string
		expected string
	}{
		{"site/index.tmpl", "site"},
		{"./site/about/index.tmpl", "site"},
		{"site/**/*.tmpl", "site"},
		{"site", "site"},
		{filepath.Join("docs", "a", "b.tmpl"), "docs"},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.expected, RootDirName(tc.path))
		})
	}
}

func TestRootDirs(t *testing.T) {
	roots := RootDirs([]string{"site/**/*.tmpl", "docs/*.tmpl", "site/index.tmpl", "./docs/x.tmpl"})
	assert.Equal(t, []string{"site", "docs"}, roots)
}

func TestMapOutput(t *testing.T) {
	testCases := []struct {
		name     string
		path     string
		ext      string
		expected string
	}{
		{"root index", "site/index.tmpl", ".tmpl", filepath.Join("dist", "index.html")},
		{"nested", "site/about/index.ejs", ".ejs", filepath.Join("dist", "about", "index.html")},
		{"case insensitive ext", "site/Page.EJS", ".ejs", filepath.Join("dist", "Page.html")},
		{"asset keeps ext", "site/css/a.css", ".tmpl", filepath.Join("dist", "css", "a.css")},
		{"dot-dot cannot escape", "site/../../etc/passwd", ".tmpl", filepath.Join("dist", "etc", "passwd")},
		{"dot-dot below root", "site/a/../../../b.tmpl", ".tmpl", filepath.Join("dist", "b.html")},
		{"leading dot slash", "./site/a/b.tmpl", ".tmpl", filepath.Join("dist", "a", "b.html")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, MapOutput(tc.path, "dist", tc.ext))
		})
	}
}

func TestPublicPathPrefix(t *testing.T) {
	root := t.TempDir()

	testCases := []struct {
		name     string
		output   string
		expected string
	}{
		{"file in root", filepath.Join(root, "index.html"), ""},
		{"one level", filepath.Join(root, "about", "index.html"), "../"},
		{"two levels", filepath.Join(root, "blog", "2024", "post.html"), "../../"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, PublicPathPrefix(tc.output, root))
		})
	}
}

func TestPublicPathPrefixRelativeRoot(t *testing.T) {
	out := MapOutput("site/about/index.tmpl", "dist", ".tmpl")
	assert.Equal(t, "../", PublicPathPrefix(out, "dist"))
	assert.Equal(t, "", PublicPathPrefix(MapOutput("site/index.tmpl", "dist", ".tmpl"), "dist"))
}

func TestRelativeURL(t *testing.T) {
	assert.Equal(t, "about/index.html", RelativeURL(filepath.Join("dist", "about", "index.html"), "dist"))
}

func TestIsTemplateAndPartial(t *testing.T) {
	assert.True(t, IsTemplate("site/a.tmpl", ".tmpl"))
	assert.True(t, IsTemplate("site/a.TMPL", ".tmpl"))
	assert.False(t, IsTemplate("site/a.css", ".tmpl"))
	assert.False(t, IsTemplate("site/a.tmpl", ""))

	assert.True(t, IsPartial("site/_post.tmpl"))
	assert.False(t, IsPartial("site/_dir/post.tmpl"))
}

func TestFanOutPath(t *testing.T) {
	assert.Equal(t, filepath.Join("site", "post", "a.ejs"), FanOutPath("site/_post.ejs", "a"))
	assert.Equal(t, filepath.Join("site", "blog", "post", "hello.tmpl"), FanOutPath("site/blog/_post.tmpl", "hello"))
	assert.Equal(t, filepath.Join("site", "post", "x.tmpl"), FanOutPath("site/_post.tmpl", "../../x"))

	out := MapOutput(FanOutPath("site/_post.ejs", "b"), "dist", ".ejs")
	assert.Equal(t, filepath.Join("dist", "post", "b.html"), out)
}

func TestWithin(t *testing.T) {
	root := t.TempDir()
	assert.True(t, Within(filepath.Join(root, "a", "b"), root))
	assert.True(t, Within(root, root))
	assert.False(t, Within(filepath.Dir(root), root))
}
