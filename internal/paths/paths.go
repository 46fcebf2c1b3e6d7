// Package paths maps template and asset source paths to their locations in
// the output tree.
//
// Source paths are relative and always start with a root directory segment
// (e.g. "site/about/index.tmpl"). The root segment groups entries for
// watching and asset globbing and is dropped from the output location:
// "site/about/index.tmpl" maps to "<out>/about/index.html".
package paths

import (
	"path"
	"path/filepath"
	"strings"
)

// HTMLExt is the extension rendered templates are written with
const HTMLExt = ".html"

// PartialPrefix marks a template as a partial or a data-driven multi-output template
const PartialPrefix = "_"

// slashClean normalises p to a clean slash-separated relative form.
func slashClean(p string) string {
	s := filepath.ToSlash(filepath.Clean(p))
	s = strings.TrimPrefix(s, "./")
	return s
}

// RootDirName returns the first path segment of p.
func RootDirName(p string) string {
	s := strings.TrimLeft(slashClean(p), "/")
	if i := strings.Index(s, "/"); i >= 0 {
		return s[:i]
	}
	return s
}

// RootDirs returns the distinct root directory names of entries in
// first-seen order.
func RootDirs(entries []string) []string {
	seen := make(map[string]bool, len(entries))
	roots := make([]string, 0, len(entries))
	for _, e := range entries {
		root := RootDirName(e)
		if root == "" || seen[root] {
			continue
		}
		seen[root] = true
		roots = append(roots, root)
	}
	return roots
}

// stripRoot drops the first segment of p. The remainder is cleaned as if it
// were rooted so that ".." can never climb above the output root.
func stripRoot(p string) string {
	s := strings.TrimLeft(slashClean(p), "/")
	rest := s
	if i := strings.Index(s, "/"); i >= 0 {
		rest = s[i+1:]
	}
	return strings.TrimPrefix(path.Clean("/"+rest), "/")
}

// MapOutput returns the output location of a source path: the first segment
// is stripped, the remainder is placed under outputRoot and a template
// extension ext (compared case-insensitively) is rewritten to .html.
//
// p must be relative with at least two segments. Entries are globbed with
// their root as first segment so callers never pass a bare file name.
func MapOutput(p, outputRoot, ext string) string {
	out := filepath.Join(outputRoot, filepath.FromSlash(stripRoot(p)))
	if IsTemplate(out, ext) {
		out = out[:len(out)-len(filepath.Ext(out))] + HTMLExt
	}
	return out
}

// MapAsset returns the output location of a non-template file.
func MapAsset(p, outputRoot string) string {
	return filepath.Join(outputRoot, filepath.FromSlash(stripRoot(p)))
}

// PublicPathPrefix returns the relative ascent from the directory of
// outputPath back to outputRoot, slash separated with a trailing slash.
// It is empty when the file sits directly in outputRoot.
func PublicPathPrefix(outputPath, outputRoot string) string {
	dir := Canonical(filepath.Dir(outputPath))
	root := Canonical(outputRoot)
	rel, err := filepath.Rel(dir, root)
	if err != nil || rel == "." {
		return ""
	}
	return filepath.ToSlash(rel) + "/"
}

// RelativeURL returns outputPath relative to outputRoot with forward slashes.
func RelativeURL(outputPath, outputRoot string) string {
	rel, err := filepath.Rel(Canonical(outputRoot), Canonical(outputPath))
	if err != nil {
		return filepath.ToSlash(outputPath)
	}
	return filepath.ToSlash(rel)
}

// IsTemplate reports whether p carries the template extension ext.
func IsTemplate(p, ext string) bool {
	return ext != "" && strings.EqualFold(filepath.Ext(p), ext)
}

// IsPartial reports whether the base name of p starts with the underscore sentinel.
func IsPartial(p string) bool {
	return strings.HasPrefix(filepath.Base(p), PartialPrefix)
}

// FanOutPath returns the logical template path of one output produced by a
// data-driven template: "site/blog/_post.tmpl" with name "hello" becomes
// "site/blog/post/hello.tmpl". The extension is taken from the template.
func FanOutPath(template, name string) string {
	base := filepath.Base(template)
	ext := filepath.Ext(base)
	dirName := strings.TrimSuffix(strings.TrimPrefix(base, PartialPrefix), ext)
	file := strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(name)), "/") + ext
	return filepath.Join(filepath.Dir(template), dirName, filepath.FromSlash(file))
}

// Canonical returns the absolute, cleaned form of p. When the working
// directory cannot be determined p is returned cleaned.
func Canonical(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	return abs
}

// Within reports whether p lies at or below root.
func Within(p, root string) bool {
	rel, err := filepath.Rel(Canonical(root), Canonical(p))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
