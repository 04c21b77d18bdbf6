package chasmc

// Section selects the destination for emitted artifacts and drives
// statement legality (spec.md §3, §4.6).
type Section int

const (
	SectionNone Section = iota
	SectionProgram
	SectionData
	SectionBSS
	SectionReadonly
	SectionMacros
)

// ImportSet deduplicates absolute file paths already processed, used
// independently by the pre-scan pass and the emitter pass to break
// import cycles (spec.md §3).
type ImportSet struct {
	seen map[string]bool
}

func newImportSet() ImportSet {
	return ImportSet{seen: make(map[string]bool)}
}

// Visit records path as seen and reports whether it was already
// present — callers use this to short-circuit a cycle or duplicate
// import in a single check-and-set step.
func (s *ImportSet) Visit(path string) (alreadySeen bool) {
	if s.seen[path] {
		return true
	}
	s.seen[path] = true
	return false
}

// CompileContext is the aggregate shared across the whole translation:
// the function/global/macro symbol tables, and the pre-scan's import
// set. The pre-scan pass fills the symbol tables once; every recursive
// compile of an imported file then shares the same context, and the
// emitter adds macro bodies and global entries as it reaches their
// definitions.
type CompileContext struct {
	Funcs   SymbolTable
	Globals GlobalTable
	Macros  MacroTable
	Scanned ImportSet
	Config  *Config

	// CurrentPath names the file whose tokens are presently being
	// scanned or emitted, so a panic unwinding from deep inside a
	// recursive #import can be stamped with the right path at the
	// single recover point in Compile.
	CurrentPath string
}

func newCompileContext(cfg *Config) *CompileContext {
	return &CompileContext{
		Funcs:   newSymbolTable(),
		Globals: newGlobalTable(),
		Macros:  newMacroTable(),
		Scanned: newImportSet(),
		Config:  cfg,
	}
}
