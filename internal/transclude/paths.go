package transclude

import (
	"fmt"
	"regexp"
)

// relRefPattern matches ./-relative references in the attributes that carry
// file paths: src for media, data-load and data-load-code for directives.
// Absolute paths and already-prefixed paths do not match and stay untouched.
var relRefPattern = regexp.MustCompile(`(src|data-load|data-load-code)="\./([^"]*)"`)

// RewriteRelative rewrites every ./-relative reference in markup so it is
// addressed from the build root instead of its original folder.
//
// It runs at two points with different prefixes: once per slide folder before
// transclusion (prefix = <slides-dir>/<folder>), and once per inlined HTML
// fragment (prefix = the fragment's own directory). The per-folder rewrite
// must happen before resolution or nested fragments compute wrong base paths.
func RewriteRelative(markup, prefix string) string {
	return relRefPattern.ReplaceAllStringFunc(markup, func(match string) string {
		sub := relRefPattern.FindStringSubmatch(match)
		return fmt.Sprintf(`%s="%s/%s"`, sub[1], prefix, sub[2])
	})
}
