package chasmc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestExpandMacroBody_SubstitutionLaw implements spec.md §8's macro
// substitution law: every %k is replaced left-to-right by argument k's
// trimmed text, and an argument containing a %j substring is inserted
// literally, never re-expanded.
func TestExpandMacroBody_SubstitutionLaw(t *testing.T) {
	body := "mov rax, %1\nadd rax, %2"
	got := expandMacroBody(body, []string{"5", "%1"})
	assert.Equal(t, "mov rax, 5\nadd rax, %1", got, "the %1 injected by arg 2 is not itself re-expanded")
}

func TestExpandMacroBody_NoArgsLeavesPlaceholdersLiteral(t *testing.T) {
	got := expandMacroBody("shl rax, %1", nil)
	assert.Equal(t, "shl rax, %1", got)
}

func TestEmitRawBlock_NoSpuriousTrailingBlankLine(t *testing.T) {
	var buf bytes.Buffer
	out := NewOut(&buf)
	emitRawBlock(out, "shl rax, 1\n")
	out.Flush()
	assert.Equal(t, "shl rax, 1\n", buf.String())
}

// TestEmitAsmFromText_SplicesInlineBlock implements spec.md §8 scenario
// 6: a macro body containing an @asm block splices its brace-balanced
// contents verbatim into the output.
func TestEmitAsmFromText_SplicesInlineBlock(t *testing.T) {
	var buf bytes.Buffer
	out := NewOut(&buf)
	emitAsmFromText(out, "@asm { shl rax, 1 }")
	out.Flush()
	assert.Contains(t, buf.String(), "shl rax, 1")
}

func TestMacroTable_FindByQualifiedName(t *testing.T) {
	mt := newMacroTable()
	mt.Add("M__shl1", 0, "@asm { shl rax, 1 }")
	m := mt.Find("M__shl1")
	if assert.NotNil(t, m) {
		assert.Equal(t, 0, m.Arity)
	}
	assert.Nil(t, mt.Find("nope"))
}
