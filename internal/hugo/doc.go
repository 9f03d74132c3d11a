// Package hugo turns a selected set of posts into a static site.
//
// A Generator runs the build stages against a Renderer, rendering into a
// sibling staging directory (<output>_stage) and promoting it over the
// output only when every stage succeeds. A failed build leaves the previous
// output exactly as it was.
//
// Two renderers exist: HugoRenderer assembles a Hugo project and runs the
// hugo binary; BuiltinRenderer renders with goldmark and embedded templates
// and needs no external tools.
package hugo
