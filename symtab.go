package chasmc

// Symbol maps a raw declared name to its namespace-qualified emission
// name (spec.md §3). SymbolTable owns both strings independently of
// any source buffer, since it outlives the file that declared them.
type Symbol struct {
	Name      string
	Qualified string
}

// SymbolTable is keyed by raw name; a raw name with more than one
// recorded qualified form is ambiguous and fails lookup (spec.md §4.3).
type SymbolTable struct {
	byName map[string][]string
}

func newSymbolTable() SymbolTable {
	return SymbolTable{byName: make(map[string][]string)}
}

// Add registers name -> qualified. Re-adding the same pair is a no-op;
// adding a second distinct qualified form for the same name makes
// future bare-name lookups of it ambiguous.
func (t *SymbolTable) Add(name, qualified string) {
	for _, q := range t.byName[name] {
		if q == qualified {
			return
		}
	}
	t.byName[name] = append(t.byName[name], qualified)
}

// Lookup returns the symbol's qualified name. ok is false when name was
// never registered; a registered-but-ambiguous name panics with a
// FatalError rather than returning false, matching the reference
// implementation's lookup_symbol, which treats ambiguity as fatal
// immediately rather than deferring it to the caller.
func (t *SymbolTable) Lookup(tok Token, name string) (string, bool) {
	qs, ok := t.byName[name]
	if !ok {
		return "", false
	}
	if len(qs) > 1 {
		fatalf(tok, "ambiguous name %q; use NS::%s", name, name)
	}
	return qs[0], true
}

// JoinNamespace implements the NS__name mangling rule of spec.md §4.3.
func JoinNamespace(ns, name string) string {
	return ns + "__" + name
}

// ResolveDefinitionName mirrors step 3 of spec.md §4.3 for the
// *declaring* occurrence of a symbol: qualify with the active module,
// or leave bare at file scope.
func ResolveDefinitionName(currentNamespace, name string) string {
	if currentNamespace != "" {
		return JoinNamespace(currentNamespace, name)
	}
	return name
}

// ResolveReferenceName implements the full resolution order of
// spec.md §4.3 for a *referencing* occurrence:
//  1. an explicit NS::name qualifier always wins
//  2. a bare-name hit in table (unambiguous) wins
//  3. the active module namespace
//  4. a single active #uns namespace
//  5. ambiguous between multiple #uns namespaces is fatal
//  6. otherwise the bare name (external/unqualified linkage)
func ResolveReferenceName(tok Token, currentNamespace, name, explicitNS string, using []string, table *SymbolTable) string {
	if explicitNS != "" {
		return JoinNamespace(explicitNS, name)
	}
	if qualified, ok := table.Lookup(tok, name); ok {
		return qualified
	}
	if currentNamespace != "" {
		return JoinNamespace(currentNamespace, name)
	}
	if len(using) == 1 {
		return JoinNamespace(using[0], name)
	}
	if len(using) > 1 {
		fatalf(tok, "ambiguous namespace reference %q; use <ns>::<name>", name)
	}
	return name
}

// QualifiedName is the parsed form of `name` or `NS::name` at a
// reference site, before resolution against a symbol table.
type QualifiedName struct {
	Name string
	NS   string // empty when no explicit "NS::" qualifier was written
}

func (q QualifiedName) String() string {
	if q.NS == "" {
		return q.Name
	}
	return q.NS + "::" + q.Name
}
