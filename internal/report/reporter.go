// Package report implements the explicit error sink threaded through the
// scanner, parser and resolver, and used by the drivers to report the
// evaluator's runtime errors, replacing the source interpreter's
// module-level error booleans (see DESIGN.md).
package report

import (
	"fmt"
	"io"

	"github.com/babyman/lox/internal/token"
)

// Reporter accumulates syntax-time diagnostics (scan, parse, resolve errors)
// and records runtime failures separately, so a driver can ask "did anything
// go wrong" between pipeline stages without inspecting global state.
type Reporter struct {
	out          io.Writer
	hadError     bool
	hadRuntime   bool
	runtimeError error
}

// New creates a Reporter that writes formatted diagnostics to out.
func New(out io.Writer) *Reporter {
	return &Reporter{out: out}
}

// HadError reports whether any scan/parse/resolve error was reported since
// the last Reset.
func (r *Reporter) HadError() bool {
	return r.hadError
}

// HadRuntimeError reports whether a runtime error was reported since the
// last Reset.
func (r *Reporter) HadRuntimeError() bool {
	return r.hadRuntime
}

// RuntimeErr returns the last reported runtime error, if any.
func (r *Reporter) RuntimeErr() error {
	return r.runtimeError
}

// Reset clears both error flags so a fresh top-level statement list (a new
// REPL line, typically) starts unpoisoned by a previous line's failure.
func (r *Reporter) Reset() {
	r.hadError = false
	r.hadRuntime = false
	r.runtimeError = nil
}

// Error reports a scan-time error: no token context, only a line number.
func (r *Reporter) Error(line int, message string) {
	r.report(line, "", message)
}

// ErrorAt reports a parse/resolve-time error anchored to a token: "at end"
// for EOF, "at 'lexeme'" otherwise.
func (r *Reporter) ErrorAt(tok token.Token, message string) {
	if tok.Kind == token.EOF {
		r.report(tok.Line, "at end", message)
	} else {
		r.report(tok.Line, fmt.Sprintf("at '%s'", tok.Lexeme), message)
	}
}

func (r *Reporter) report(line int, where, message string) {
	r.hadError = true
	if where == "" {
		fmt.Fprintf(r.out, "\n[line %d] Error: %s\n", line, message)
	} else {
		fmt.Fprintf(r.out, "\n[line %d] Error %s: %s\n", line, where, message)
	}
}

// RuntimeError is a language-level runtime failure carrying the source line
// at which it occurred, reported as "\nMESSAGE\n [Line N]".
type RuntimeError struct {
	Line    int
	Message string
}

func (e *RuntimeError) Error() string {
	return e.Message
}

// Runtime reports a runtime error. It does not abort the process; the
// caller's top-level invocation simply returns after recording it.
func (r *Reporter) Runtime(err *RuntimeError) {
	r.hadRuntime = true
	r.runtimeError = err
	fmt.Fprintf(r.out, "\n%s\n [Line %d]\n", err.Message, err.Line)
}
