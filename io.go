package chasmc

import (
	"os"
	"path/filepath"
)

// readFileAll is the thin file-I/O boundary spec.md §1 calls out as an
// external collaborator: a whole-file read with a fatal-error abort on
// failure. It is intentionally minimal — no streaming, no retries.
func readFileAll(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		panic(withPath(newFatalWrap(Token{}, err, "cannot open input file: %v", err), path))
	}
	return string(data)
}

// resolveImportPath implements spec.md §4.2's import-path resolution:
// an absolute path (leading '/') is used as-is; otherwise it is
// resolved relative to the directory of the importing file.
func resolveImportPath(fromPath, importPath string) string {
	if filepath.IsAbs(importPath) {
		return importPath
	}
	return filepath.Join(filepath.Dir(fromPath), importPath)
}
