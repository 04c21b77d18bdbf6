package chasmc

// Local is one addressable stack slot belonging to a function's
// activation frame. Its lifetime is the entire enclosing function
// (spec.md §3).
type Local struct {
	Name      string
	Type      Type
	RBPOffset int
}

// FrameLayout lays out a function's locals bottom-up: each new local
// claims max(size_of(type), 8) bytes, rounded so StackUsed stays a
// multiple of 8, and its RBPOffset is -StackUsed immediately after
// that allocation (spec.md §4.4, invariants in §8).
type FrameLayout struct {
	Locals    []Local
	StackUsed int
}

// Add allocates a new local and returns it. Redeclaring a name already
// present in the frame still claims a fresh slot — the spec has no
// notion of block-scoped locals, only whole-function ones — but Find
// below resolves the name to the first slot, matching find_local.
func (f *FrameLayout) Add(name string, ty Type) *Local {
	size := ty.Size()
	if size == 0 {
		size = 8
	}
	f.StackUsed += size
	if rem := f.StackUsed % 8; rem != 0 {
		f.StackUsed += 8 - rem
	}
	f.Locals = append(f.Locals, Local{Name: name, Type: ty, RBPOffset: -f.StackUsed})
	return &f.Locals[len(f.Locals)-1]
}

// Find returns the first declared local with the given name, or nil.
// Lookup walks front-to-back, matching find_local in
// original_source/src/assembler.c: an earlier `let` wins over a later
// one declaring the same name, rather than the newer slot shadowing it.
func (f *FrameLayout) Find(name string) *Local {
	for i := range f.Locals {
		if f.Locals[i].Name == name {
			return &f.Locals[i]
		}
	}
	return nil
}
