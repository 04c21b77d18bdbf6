package chasmc

import (
	"bufio"
	"fmt"
	"io"
)

// Out is the single append-only output sink every emitted assembly
// line passes through. It is opened once by Compile and closed at the
// end of translation; output order matches the order top-level tokens
// are consumed, with import expansions inlined at the directive that
// triggered them (spec.md §5).
type Out struct {
	w *bufio.Writer
}

// NewOut wraps w for line-oriented assembly emission.
func NewOut(w io.Writer) *Out {
	return &Out{w: bufio.NewWriter(w)}
}

// Line writes one formatted, indented instruction line (four leading
// spaces, matching the body indentation every reference mnemonic uses).
func (o *Out) Line(format string, args ...any) {
	fmt.Fprintf(o.w, "    "+format+"\n", args...)
}

// Label writes a bare label line with no leading indentation, e.g. a
// function entry point or a data/bss symbol definition.
func (o *Out) Label(format string, args ...any) {
	fmt.Fprintf(o.w, format+"\n", args...)
}

// Raw writes s verbatim followed by a newline, with no added
// indentation — used for inline-asm and macro-expansion splices, which
// already carry whatever indentation their source text had.
func (o *Out) Raw(s string) {
	fmt.Fprintln(o.w, s)
}

// Flush pushes any buffered output to the underlying writer.
func (o *Out) Flush() error {
	return o.w.Flush()
}
