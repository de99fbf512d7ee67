// Package resolver performs a static lexical analysis pass between parsing
// and evaluation: it walks the AST once, tracking nested scopes exactly the
// way the evaluator's Environment chain will at runtime, and records for
// every variable reference how many scopes out it must look. The evaluator
// then uses that side table instead of walking the environment chain at
// every lookup.
package resolver

import (
	"github.com/babyman/lox/internal/ast"
	"github.com/babyman/lox/internal/report"
	"github.com/babyman/lox/internal/token"
)

type functionKind int

const (
	kindNone functionKind = iota
	kindFunction
	kindInitializer
	kindMethod
)

type classKind int

const (
	classNone classKind = iota
	classClass
	classSubclass
)

// scope maps a locally-declared name to whether its initializer has
// finished running, catching `var a = a;` self-reference.
type scope map[string]bool

// Resolver walks a parsed program and produces a Locals side table keyed by
// ast.Expr.ID(), mapping each Variable/This/Super/Assign reference to the
// number of environment hops the evaluator must take to find its binding.
// References absent from the table are resolved at the global scope.
type Resolver struct {
	reporter    *report.Reporter
	scopes      []scope
	locals      map[int]int
	currentFn   functionKind
	currentCls  classKind
	loopDepth   int
}

func New(reporter *report.Reporter) *Resolver {
	return &Resolver{reporter: reporter, locals: make(map[int]int)}
}

// Resolve walks stmts and returns the completed Locals side table.
func (r *Resolver) Resolve(stmts []ast.Stmt) map[int]int {
	r.resolveStmts(stmts)
	return r.locals
}

func (r *Resolver) resolveStmts(stmts []ast.Stmt) {
	for _, s := range stmts {
		r.resolveStmt(s)
	}
}

func (r *Resolver) resolveStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.Block:
		r.beginScope()
		r.resolveStmts(n.Statements)
		r.endScope()

	case *ast.Class:
		r.resolveClass(n)

	case *ast.Expression:
		r.resolveExpr(n.Expr)

	case *ast.Function:
		r.declare(n.Name)
		r.define(n.Name)
		r.resolveFunction(n, kindFunction)

	case *ast.Var:
		r.declare(n.Name)
		if n.Initializer != nil {
			r.resolveExpr(n.Initializer)
		}
		r.define(n.Name)

	case *ast.Print:
		r.resolveExpr(n.Expr)

	case *ast.If:
		r.resolveExpr(n.Condition)
		r.resolveStmt(n.Then)
		if n.Else != nil {
			r.resolveStmt(n.Else)
		}

	case *ast.While:
		r.resolveExpr(n.Condition)
		r.loopDepth++
		r.resolveStmt(n.Body)
		r.loopDepth--

	case *ast.Break:
		if r.loopDepth == 0 {
			r.reporter.ErrorAt(n.Keyword, "'break' outside of a loop.")
		}

	case *ast.Continue:
		if r.loopDepth == 0 {
			r.reporter.ErrorAt(n.Keyword, "'continue' outside of a loop.")
		}

	case *ast.Return:
		if r.currentFn == kindNone {
			r.reporter.ErrorAt(n.Keyword, "Can't return from top-level code.")
		}
		if n.Value != nil {
			if r.currentFn == kindInitializer {
				r.reporter.ErrorAt(n.Keyword, "Can't return a value from an initializer.")
			}
			r.resolveExpr(n.Value)
		}
	}
}

func (r *Resolver) resolveClass(n *ast.Class) {
	enclosingClass := r.currentCls
	r.currentCls = classClass

	r.declare(n.Name)
	r.define(n.Name)

	if n.Superclass != nil {
		if n.Superclass.Name.Lexeme == n.Name.Lexeme {
			r.reporter.ErrorAt(n.Superclass.Name, "A class can't inherit from itself.")
		}
		r.currentCls = classSubclass
		r.resolveExpr(n.Superclass)

		r.beginScope()
		r.scopes[len(r.scopes)-1]["super"] = true
	}

	r.beginScope()
	r.scopes[len(r.scopes)-1]["this"] = true

	for _, method := range n.Methods {
		kind := kindMethod
		if method.Name.Lexeme == "init" {
			kind = kindInitializer
		}
		r.resolveFunction(method, kind)
	}

	r.endScope() // "this"

	for _, method := range n.ClassMethods {
		// Class ("static") methods don't see an instance, only the class
		// itself via its metaclass at call time, so no "this" binding.
		r.resolveFunction(method, kindMethod)
	}

	if n.Superclass != nil {
		r.endScope() // "super"
	}

	r.currentCls = enclosingClass
}

func (r *Resolver) resolveFunction(fn *ast.Function, kind functionKind) {
	enclosingFn := r.currentFn
	r.currentFn = kind

	r.beginScope()
	for _, param := range fn.Params {
		r.declare(param)
		r.define(param)
	}
	r.resolveStmts(fn.Body)
	r.endScope()

	r.currentFn = enclosingFn
}

func (r *Resolver) resolveExpr(e ast.Expr) {
	switch n := e.(type) {
	case *ast.Variable:
		if len(r.scopes) > 0 {
			if ready, ok := r.scopes[len(r.scopes)-1][n.Name.Lexeme]; ok && !ready {
				r.reporter.ErrorAt(n.Name, "Can't read local variable in its own initializer.")
			}
		}
		r.resolveLocal(n.ID(), n.Name)

	case *ast.Assign:
		r.resolveExpr(n.Value)
		r.resolveLocal(n.ID(), n.Name)

	case *ast.Binary:
		r.resolveExpr(n.Left)
		r.resolveExpr(n.Right)

	case *ast.Logical:
		r.resolveExpr(n.Left)
		r.resolveExpr(n.Right)

	case *ast.Ternary:
		r.resolveExpr(n.Condition)
		r.resolveExpr(n.Then)
		r.resolveExpr(n.Else)

	case *ast.Call:
		r.resolveExpr(n.Callee)
		for _, a := range n.Args {
			r.resolveExpr(a)
		}

	case *ast.Get:
		r.resolveExpr(n.Object)

	case *ast.Set:
		r.resolveExpr(n.Value)
		r.resolveExpr(n.Object)

	case *ast.Grouping:
		r.resolveExpr(n.Expression)

	case *ast.Literal:
		// nothing to resolve

	case *ast.Unary:
		r.resolveExpr(n.Right)

	case *ast.This:
		if r.currentCls == classNone {
			r.reporter.ErrorAt(n.Keyword, "Can't use 'this' outside of a class.")
			return
		}
		r.resolveLocal(n.ID(), n.Keyword)

	case *ast.Super:
		switch r.currentCls {
		case classNone:
			r.reporter.ErrorAt(n.Keyword, "Can't use 'super' outside of a class.")
		case classClass:
			r.reporter.ErrorAt(n.Keyword, "Can't use 'super' in a class with no superclass.")
		}
		r.resolveLocal(n.ID(), n.Keyword)
	}
}

func (r *Resolver) resolveLocal(exprID int, name token.Token) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if _, ok := r.scopes[i][name.Lexeme]; ok {
			r.locals[exprID] = len(r.scopes) - 1 - i
			return
		}
	}
	// Not found in any scope: resolved at the global environment, which
	// the evaluator falls back to when the id has no entry.
}

func (r *Resolver) beginScope() {
	r.scopes = append(r.scopes, scope{})
}

func (r *Resolver) endScope() {
	r.scopes = r.scopes[:len(r.scopes)-1]
}

func (r *Resolver) declare(name token.Token) {
	if len(r.scopes) == 0 {
		return
	}
	s := r.scopes[len(r.scopes)-1]
	if _, ok := s[name.Lexeme]; ok {
		r.reporter.ErrorAt(name, "Already a variable with this name in this scope.")
	}
	s[name.Lexeme] = false
}

func (r *Resolver) define(name token.Token) {
	if len(r.scopes) == 0 {
		return
	}
	r.scopes[len(r.scopes)-1][name.Lexeme] = true
}
