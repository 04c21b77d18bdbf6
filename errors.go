package chasmc

import (
	"fmt"

	"github.com/pkg/errors"
)

// FatalError is the single diagnostic type chasmc raises. Every error
// condition described in spec.md §7 (I/O, lexical, syntactic, semantic,
// macro, memory) surfaces through here; there is no local recovery.
type FatalError struct {
	Path    string
	Line    int
	Col     int
	Message string
	Cause   error
}

func (e *FatalError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("chasmc error: %s:%d:%d: %s", e.Path, e.Line, e.Col, e.Message)
	}
	return fmt.Sprintf("chasmc error: %s", e.Message)
}

func (e *FatalError) Unwrap() error { return e.Cause }

// newFatal builds a FatalError anchored on tok's source position; path
// is left empty and filled in later via withPath (Compile's recover
// attaches ctx.CurrentPath when the panic unwinds).
func newFatal(tok Token, format string, args ...any) *FatalError {
	return &FatalError{Line: tok.Line, Col: tok.Col, Message: fmt.Sprintf(format, args...)}
}

func newFatalWrap(tok Token, cause error, format string, args ...any) *FatalError {
	return &FatalError{Line: tok.Line, Col: tok.Col, Message: fmt.Sprintf(format, args...), Cause: errors.WithStack(cause)}
}

// fatalf panics with a FatalError; every fatal condition in the
// translator raises through here or through newFatal directly, and is
// recovered exactly once at the top of Compile.
func fatalf(tok Token, format string, args ...any) {
	panic(newFatal(tok, format, args...))
}

// withPath stamps a path onto a FatalError that was raised before its
// enclosing file was known (e.g. from inside the Lexer, which has no
// notion of paths at all).
func withPath(err *FatalError, path string) *FatalError {
	if err.Path == "" {
		err.Path = path
	}
	return err
}
