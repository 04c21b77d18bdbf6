package chasmc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFrameLayout_OffsetMonotonicity implements spec.md §8's offset
// monotonicity invariant: later-allocated locals have strictly more
// negative rbp_offset, and stack_used stays a multiple of 8.
func TestFrameLayout_OffsetMonotonicity(t *testing.T) {
	f := &FrameLayout{}
	a := f.Add("a", Type{TypeU8})
	b := f.Add("b", Type{TypeU64})
	c := f.Add("c", Type{TypeU32})

	assert.Less(t, b.RBPOffset, a.RBPOffset)
	assert.Less(t, c.RBPOffset, b.RBPOffset)
	assert.Equal(t, 0, f.StackUsed%8)
	assert.Equal(t, -8, a.RBPOffset, "u8 still claims a full 8-byte slot")
	assert.Equal(t, -16, b.RBPOffset)
	assert.Equal(t, -24, c.RBPOffset)
}

// TestFrameLayout_FindReturnsFirstDeclaration matches find_local in
// original_source/src/assembler.c: a same-named redeclaration within one
// function resolves to the earlier slot, not the later one.
func TestFrameLayout_FindReturnsFirstDeclaration(t *testing.T) {
	f := &FrameLayout{}
	first := f.Add("x", Type{TypeU64})
	f.Add("x", Type{TypeU8})

	found := f.Find("x")
	require.NotNil(t, found)
	assert.Equal(t, first.RBPOffset, found.RBPOffset)
}

func TestFrameLayout_FindMissingReturnsNil(t *testing.T) {
	f := &FrameLayout{}
	assert.Nil(t, f.Find("nope"))
}
