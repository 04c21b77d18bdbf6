package chasmc

import "io"

// Compile runs the whole translation pipeline over rootPath: a pre-scan
// pass collects every function/global/macro symbol across the import
// graph, then a single emitter pass walks the same graph again and
// writes NASM-style assembly text to w (spec.md §2).
//
// Every fatal condition anywhere in the pipeline surfaces as a panic
// carrying a *FatalError; this is the only place that recovers it, so
// an error raised deep inside a recursive #import unwinds cleanly back
// here with ctx.CurrentPath available to stamp on a path-less error.
func Compile(rootPath string, w io.Writer, cfg *Config) (err error) {
	ctx := newCompileContext(cfg)

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		fe, ok := r.(*FatalError)
		if !ok {
			panic(r)
		}
		err = withPath(fe, ctx.CurrentPath)
	}()

	Scan(ctx, rootPath, cfg.Tabs.Width)

	out := NewOut(w)
	imports := newImportSet()
	compilePath(rootPath, out, ctx, &imports, true)

	if ferr := out.Flush(); ferr != nil {
		return ferr
	}
	return nil
}
