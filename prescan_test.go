package chasmc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestScan_RegistersFunctionsGlobalsAndMacros(t *testing.T) {
	dir := t.TempDir()
	src := "" +
		"#section program\n" +
		"global func main() >> u64:\n" +
		"    ret 0;\n" +
		"#section data\n" +
		"let x: u16 = 7;\n" +
		"#section macros\n" +
		"def shl1:\n" +
		"    @asm { shl rax, 1 }\n" +
		"enddef\n"
	path := writeTempFile(t, dir, "main.chm", src)

	ctx := newCompileContext(DefaultConfig())
	Scan(ctx, path, 4)

	_, ok := ctx.Funcs.Lookup(Token{}, "main")
	assert.True(t, ok)
	g := ctx.Globals.Find("x")
	require.NotNil(t, g)
	assert.Equal(t, TypeU16, g.Type.Kind)
	_, ok = ctx.Macros.Symbols.Lookup(Token{}, "shl1")
	assert.True(t, ok)
}

// TestScan_ImportIdempotence implements spec.md §8's import idempotence
// invariant: a file reachable via two different import routes from the
// root is still scanned exactly once.
func TestScan_ImportIdempotence(t *testing.T) {
	dir := t.TempDir()
	leaf := writeTempFile(t, dir, "leaf.chm", "#section program\nglobal func leaf() >> u64:\n    ret 0;\n")
	_ = leaf
	mid := writeTempFile(t, dir, "mid.chm", "#import leaf.chm\n")
	root := writeTempFile(t, dir, "root.chm", "#import leaf.chm\n#import mid.chm\n")

	ctx := newCompileContext(DefaultConfig())
	Scan(ctx, root, 4)

	count := 0
	for range ctx.Scanned.seen {
		count++
	}
	assert.Equal(t, 3, count, "root, mid, and leaf are each scanned exactly once")
}

func TestScan_ModuleQualifiesDeclarations(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "m.chm", ""+
		"#section program\n"+
		"#module M1\n"+
		"global func f() >> u64:\n"+
		"    ret 1;\n"+
		"#endmodule\n")

	ctx := newCompileContext(DefaultConfig())
	Scan(ctx, path, 4)

	q, ok := ctx.Funcs.Lookup(Token{}, "f")
	require.True(t, ok)
	assert.Equal(t, "M1__f", q)
}
