// Package repl implements the interactive read-eval-print loop.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/babyman/lox/internal/ast"
	"github.com/babyman/lox/internal/evaluator"
	"github.com/babyman/lox/internal/history"
	"github.com/babyman/lox/internal/lexer"
	"github.com/babyman/lox/internal/parser"
	"github.com/babyman/lox/internal/report"
	"github.com/babyman/lox/internal/resolver"
)

const prompt = "lox> "

// historyCommand replays the session's recorded history instead of being
// scanned/parsed as lox source. historyLimit is generous enough to cover a
// whole interactive session without an unbounded query.
const (
	historyCommand = ":history"
	historyLimit   = 1000
)

// REPL runs an interactive session: it reuses the scan/parse/resolve
// pipeline per line, keeps one Interpreter (and therefore one global
// environment) across the whole session, and records every interaction to
// the history store when one is configured. Prompts and `print` output go
// to out; scan/parse/resolve/runtime diagnostics go to errOut, matching the
// file driver's stdout/stderr split.
type REPL struct {
	in       *bufio.Scanner
	out      io.Writer
	errOut   io.Writer
	store    *history.Store
	session  string
	seq      int
	debugAST bool
	interp   *evaluator.Interpreter
	locals   map[int]int
}

// New creates a REPL. store may be nil to disable history persistence.
func New(in io.Reader, out, errOut io.Writer, store *history.Store, debugAST bool) *REPL {
	locals := make(map[int]int)
	return &REPL{
		in:       bufio.NewScanner(in),
		out:      out,
		errOut:   errOut,
		store:    store,
		session:  history.NewSessionID(),
		debugAST: debugAST,
		interp:   evaluator.New(locals, func(s string) { fmt.Fprintln(out, s) }),
		locals:   locals,
	}
}

// Run drives the loop until the input stream is exhausted.
func (r *REPL) Run() {
	slog.Info("repl session started", slog.String("session_id", r.session))
	for {
		fmt.Fprint(r.out, prompt)
		if !r.in.Scan() {
			return
		}
		line := r.in.Text()
		if strings.TrimSpace(line) == historyCommand {
			r.showHistory()
			continue
		}
		r.evalLine(line)
	}
}

// showHistory prints this session's recorded lines in evaluation order.
func (r *REPL) showHistory() {
	if r.store == nil {
		fmt.Fprintln(r.out, "no history store configured")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	entries, err := r.store.Recent(ctx, r.session, historyLimit)
	if err != nil {
		fmt.Fprintln(r.errOut, err)
		return
	}
	for _, e := range entries {
		status := "ok"
		if e.IsError {
			status = "error"
		}
		fmt.Fprintf(r.out, "%d: %s -> %s (%s)\n", e.Seq, e.Source, e.Result, status)
	}
}

func (r *REPL) evalLine(line string) {
	r.seq++
	rep := report.New(r.errOut)

	slog.Debug("scan", slog.Int("seq", r.seq))
	tokens := lexer.New(line, rep).ScanTokens()
	slog.Debug("parse", slog.Int("seq", r.seq), slog.Int("tokens", len(tokens)))
	stmts := parser.New(tokens, rep).Parse()
	if rep.HadError() {
		r.recordResult(line, "parse error", true)
		return
	}

	if r.debugAST {
		fmt.Fprintln(r.out, ast.PrintStmts(stmts))
	}

	slog.Debug("resolve", slog.Int("seq", r.seq))
	res := resolver.New(rep)
	newLocals := res.Resolve(stmts)
	if rep.HadError() {
		r.recordResult(line, "resolve error", true)
		return
	}
	for id, hops := range newLocals {
		r.locals[id] = hops
	}

	slog.Debug("evaluate", slog.Int("seq", r.seq))
	if err := r.interp.Interpret(stmts); err != nil {
		r.reportRuntimeError(rep, err)
		r.recordResult(line, err.Error(), true)
		return
	}
	r.recordResult(line, "", false)
}

func (r *REPL) reportRuntimeError(rep *report.Reporter, err error) {
	if rtErr, ok := err.(*evaluator.RuntimeError); ok {
		rep.Runtime(&report.RuntimeError{Line: rtErr.Line, Message: rtErr.Message})
		return
	}
	fmt.Fprintln(r.errOut, err)
}

func (r *REPL) recordResult(source, result string, isError bool) {
	if r.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.store.Record(ctx, history.Entry{
		SessionID:  r.session,
		Seq:        r.seq,
		Source:     source,
		Result:     result,
		IsError:    isError,
		RecordedAt: time.Now(),
	}); err != nil {
		slog.Warn("failed to record history entry", slog.Any("error", err))
	}
}
