package chasmc

import (
	"fmt"
	"strings"
)

// Macro stores a macro's body as raw text captured verbatim between
// the header colon and `enddef`, including any embedded @asm blocks
// (spec.md §3, §4.7).
type Macro struct {
	Name  string
	Arity int
	Body  string
}

// MacroTable holds every `def` and the raw->qualified symbol table
// used to resolve `$name` invocations against namespace context.
type MacroTable struct {
	Items   []Macro
	Symbols SymbolTable
}

func newMacroTable() MacroTable {
	return MacroTable{Symbols: newSymbolTable()}
}

func (m *MacroTable) Add(qualifiedName string, arity int, body string) {
	m.Items = append(m.Items, Macro{Name: qualifiedName, Arity: arity, Body: body})
}

func (m *MacroTable) Find(qualifiedName string) *Macro {
	for i := range m.Items {
		if m.Items[i].Name == qualifiedName {
			return &m.Items[i]
		}
	}
	return nil
}

// expandMacroBody implements the macro substitution law of spec.md §8:
// every occurrence of %1..%N is replaced left-to-right by the matching
// argument's trimmed text. Arguments are inserted literally — a %j
// substring inside an argument is never itself re-expanded, because
// all placeholders are replaced in a single pass over the *original*
// body text, never over text an earlier replacement inserted.
func expandMacroBody(body string, args []string) string {
	pairs := make([]string, 0, 2*len(args))
	for i, arg := range args {
		pairs = append(pairs, fmt.Sprintf("%%%d", i+1), arg)
	}
	return strings.NewReplacer(pairs...).Replace(body)
}

// emitAsmFromText splices expanded macro text into the output: it
// walks the text for `@asm {` blocks, emitting everything before one
// verbatim line-by-line, then the brace-balanced contents of the block
// verbatim, and repeats until the text is exhausted (spec.md §4.7).
func emitAsmFromText(o *Out, text string) {
	cursor := text
	for {
		idx := strings.Index(cursor, "@asm")
		if idx < 0 {
			emitRawBlock(o, cursor)
			return
		}
		if idx > 0 {
			emitRawBlock(o, cursor[:idx])
		}
		rest := cursor[idx:]
		brace := strings.IndexByte(rest, '{')
		if brace < 0 {
			panic(newFatal(Token{}, "expected '{' after @asm"))
		}
		depth := 1
		scan := brace + 1
		for scan < len(rest) && depth > 0 {
			switch rest[scan] {
			case '{':
				depth++
			case '}':
				depth--
			}
			scan++
		}
		if depth != 0 {
			panic(newFatal(Token{}, "unterminated @asm block"))
		}
		blockEnd := scan - 1
		emitRawBlock(o, rest[brace+1:blockEnd])
		cursor = rest[scan:]
	}
}

// emitRawBlock copies text into the output stream line by line. A
// trailing '\n' does not produce a spurious final blank line, matching
// the reference implementation's strchr-driven cursor walk.
func emitRawBlock(o *Out, text string) {
	cursor := text
	for cursor != "" {
		idx := strings.IndexByte(cursor, '\n')
		if idx < 0 {
			o.Raw(cursor)
			return
		}
		o.Raw(cursor[:idx])
		cursor = cursor[idx+1:]
	}
}
