//go:build property

package paths

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// segmentGen produces path segments including awkward ones
func segmentGen() gopter.Gen {
	return gen.OneGenOf(
		gen.Identifier(),
		gen.AlphaString().SuchThat(func(s string) bool { return s != "" }),
		gen.Const(".."),
		gen.Const("."),
	)
}

// TestMapOutputProperties validates the output mapping invariants
func TestMapOutputProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(4242)
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	// Property: result has .html iff the input carried the template extension
	properties.Property("html extension iff template extension", prop.ForAll(
		func(segments []string, name string, ext string) bool {
			src := strings.Join(append(append([]string{"site"}, segments...), name+ext), "/")
			out := MapOutput(src, "dist", ".tmpl")
			isTemplate := strings.EqualFold(ext, ".tmpl")
			return (filepath.Ext(out) == HTMLExt) == isTemplate
		},
		gen.SliceOfN(3, gen.Identifier()),
		gen.Identifier(),
		gen.OneConstOf(".tmpl", ".TMPL", ".Tmpl", ".css", ".js", ".png"),
	))

	// Property: the mapped output always lies under the output root
	properties.Property("output stays under root", prop.ForAll(
		func(segments []string) bool {
			src := strings.Join(append([]string{"site"}, segments...), "/")
			return Within(MapOutput(src, "dist", ".tmpl"), "dist")
		},
		gen.SliceOf(segmentGen()),
	))

	// Property: the public path climbs exactly as many levels as the output is nested
	properties.Property("public path matches nesting depth", prop.ForAll(
		func(segments []string) bool {
			src := strings.Join(append(append([]string{"site"}, segments...), "index.tmpl"), "/")
			out := MapOutput(src, "dist", ".tmpl")
			prefix := PublicPathPrefix(out, "dist")
			return strings.Count(prefix, "../") == len(segments) &&
				prefix == strings.Repeat("../", len(segments))
		},
		gen.SliceOfN(4, gen.Identifier()),
	))

	properties.TestingRun(t)
}
