package chasmc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinNamespace(t *testing.T) {
	assert.Equal(t, "A__x", JoinNamespace("A", "x"))
}

func TestResolveDefinitionName(t *testing.T) {
	assert.Equal(t, "A__x", ResolveDefinitionName("A", "x"))
	assert.Equal(t, "x", ResolveDefinitionName("", "x"))
}

func TestSymbolTable_LookupUnregisteredIsNotFound(t *testing.T) {
	tab := newSymbolTable()
	_, ok := tab.Lookup(Token{}, "missing")
	assert.False(t, ok)
}

func TestSymbolTable_ReaddingSamePairIsNoop(t *testing.T) {
	tab := newSymbolTable()
	tab.Add("x", "A__x")
	tab.Add("x", "A__x")
	q, ok := tab.Lookup(Token{}, "x")
	require.True(t, ok)
	assert.Equal(t, "A__x", q)
}

func TestSymbolTable_AmbiguousLookupIsFatal(t *testing.T) {
	tab := newSymbolTable()
	tab.Add("f", "M1__f")
	tab.Add("f", "M2__f")
	assert.Panics(t, func() {
		tab.Lookup(Token{}, "f")
	})
}

// TestResolveReferenceName_NamespaceScenario implements spec.md §8 scenario 3:
// a module declares f; #uns M1 then a bare call to f resolves to M1__f, and
// once a second competing declaration M2__f is registered, the bare name is
// ambiguous even with only #uns M1 active.
func TestResolveReferenceName_NamespaceScenario(t *testing.T) {
	funcs := newSymbolTable()
	funcs.Add("f", "M1__f")

	got := ResolveReferenceName(Token{}, "", "f", "", []string{"M1"}, &funcs)
	assert.Equal(t, "M1__f", got, "single candidate resolves without ambiguity even with #uns active")

	funcs.Add("f", "M2__f")
	assert.Panics(t, func() {
		ResolveReferenceName(Token{}, "", "f", "", []string{"M1"}, &funcs)
	}, "two declared candidates for the bare name is ambiguous regardless of #uns")
}

func TestResolveReferenceName_ExplicitQualifierAlwaysWins(t *testing.T) {
	funcs := newSymbolTable()
	got := ResolveReferenceName(Token{}, "active", "x", "Other", nil, &funcs)
	assert.Equal(t, "Other__x", got)
}

func TestResolveReferenceName_FallsBackToCurrentNamespace(t *testing.T) {
	funcs := newSymbolTable()
	got := ResolveReferenceName(Token{}, "M1", "x", "", nil, &funcs)
	assert.Equal(t, "M1__x", got)
}

func TestResolveReferenceName_MultipleUsingNamespacesIsAmbiguous(t *testing.T) {
	funcs := newSymbolTable()
	assert.Panics(t, func() {
		ResolveReferenceName(Token{}, "", "x", "", []string{"A", "B"}, &funcs)
	})
}

func TestResolveReferenceName_BareNameFallback(t *testing.T) {
	funcs := newSymbolTable()
	got := ResolveReferenceName(Token{}, "", "x", "", nil, &funcs)
	assert.Equal(t, "x", got)
}

func TestQualifiedName_String(t *testing.T) {
	assert.Equal(t, "x", QualifiedName{Name: "x"}.String())
	assert.Equal(t, "NS::x", QualifiedName{Name: "x", NS: "NS"}.String())
}
