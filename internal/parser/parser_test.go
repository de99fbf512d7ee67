package parser

import (
	"bytes"
	"testing"

	"github.com/babyman/lox/internal/ast"
	"github.com/babyman/lox/internal/lexer"
	"github.com/babyman/lox/internal/report"
)

func parseSource(t *testing.T, src string) ([]ast.Stmt, *report.Reporter, string) {
	t.Helper()
	var buf bytes.Buffer
	r := report.New(&buf)
	tokens := lexer.New(src, r).ScanTokens()
	stmts := New(tokens, r).Parse()
	return stmts, r, buf.String()
}

func TestParseExpressionPrecedence(t *testing.T) {
	stmts, r, errs := parseSource(t, "1 + 2 * 3 - 4;")
	if r.HadError() {
		t.Fatalf("unexpected parse error: %s", errs)
	}
	if len(stmts) != 1 {
		t.Fatalf("got %d statements, want 1", len(stmts))
	}
	got := ast.PrintStmts(stmts)
	want := "((1 + (2 * 3)) - 4);"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParseTernary(t *testing.T) {
	stmts, r, errs := parseSource(t, "a ? b : c;")
	if r.HadError() {
		t.Fatalf("unexpected parse error: %s", errs)
	}
	got := ast.PrintStmts(stmts)
	want := "(a ? b : c);"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParseForDesugarsToWhile(t *testing.T) {
	stmts, r, errs := parseSource(t, "for (var i = 0; i < 3; i = i + 1) print i;")
	if r.HadError() {
		t.Fatalf("unexpected parse error: %s", errs)
	}
	if len(stmts) != 1 {
		t.Fatalf("got %d top-level statements, want 1", len(stmts))
	}
	block, ok := stmts[0].(*ast.Block)
	if !ok {
		t.Fatalf("expected for to desugar into a Block, got %T", stmts[0])
	}
	if len(block.Statements) != 2 {
		t.Fatalf("expected initializer + while, got %d statements", len(block.Statements))
	}
	if _, ok := block.Statements[0].(*ast.Var); !ok {
		t.Errorf("expected first statement to be the initializer Var, got %T", block.Statements[0])
	}
	if _, ok := block.Statements[1].(*ast.While); !ok {
		t.Errorf("expected second statement to be a While, got %T", block.Statements[1])
	}
}

func TestParseClassWithSuperclassAndClassMethod(t *testing.T) {
	src := `class Cake < Pastry {
  cook() { print "cooking"; }
  class create() { return Cake(); }
}`
	stmts, r, errs := parseSource(t, src)
	if r.HadError() {
		t.Fatalf("unexpected parse error: %s", errs)
	}
	if len(stmts) != 1 {
		t.Fatalf("got %d statements, want 1", len(stmts))
	}
	class, ok := stmts[0].(*ast.Class)
	if !ok {
		t.Fatalf("expected Class, got %T", stmts[0])
	}
	if class.Superclass == nil || class.Superclass.Name.Lexeme != "Pastry" {
		t.Errorf("expected superclass Pastry, got %v", class.Superclass)
	}
	if len(class.Methods) != 1 || class.Methods[0].Name.Lexeme != "cook" {
		t.Errorf("expected one method named cook, got %v", class.Methods)
	}
	if len(class.ClassMethods) != 1 || class.ClassMethods[0].Name.Lexeme != "create" {
		t.Errorf("expected one class method named create, got %v", class.ClassMethods)
	}
}

func TestParseBreakOutsideLoopIsError(t *testing.T) {
	_, r, _ := parseSource(t, "break;")
	if !r.HadError() {
		t.Fatalf("expected error for break outside a loop")
	}
}

func TestParseContinueInsideLoopIsFine(t *testing.T) {
	_, r, errs := parseSource(t, "while (true) { continue; }")
	if r.HadError() {
		t.Fatalf("unexpected parse error: %s", errs)
	}
}

func TestParseMissingSemicolonRecoversAtNextStatement(t *testing.T) {
	src := `var a = 1
var b = 2;`
	stmts, r, _ := parseSource(t, src)
	if !r.HadError() {
		t.Fatalf("expected a parse error for the missing semicolon")
	}
	// synchronize() should skip to the next "var" and still parse b.
	found := false
	for _, s := range stmts {
		if v, ok := s.(*ast.Var); ok && v.Name.Lexeme == "b" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected recovery to still parse 'var b = 2;', got %v", stmts)
	}
}

func TestParseMissingLeftHandOperandIsReportedNotPanicked(t *testing.T) {
	_, r, errs := parseSource(t, "== 1;")
	if !r.HadError() {
		t.Fatalf("expected a parse error for leading '=='")
	}
	_ = errs
}

func TestParseInvalidAssignmentTarget(t *testing.T) {
	_, r, _ := parseSource(t, "1 = 2;")
	if !r.HadError() {
		t.Fatalf("expected error for invalid assignment target")
	}
}

func TestParseTooManyArguments(t *testing.T) {
	src := "foo("
	for i := 0; i < 256; i++ {
		if i > 0 {
			src += ", "
		}
		src += "1"
	}
	src += ");"

	_, r, _ := parseSource(t, src)
	if !r.HadError() {
		t.Fatalf("expected error for more than 255 arguments")
	}
}

func TestParseSuperCall(t *testing.T) {
	stmts, r, errs := parseSource(t, "super.cook();")
	if r.HadError() {
		t.Fatalf("unexpected parse error: %s", errs)
	}
	got := ast.PrintStmts(stmts)
	want := "super.cook();"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
