// Package evaluator walks a resolved AST and produces runtime values.
//
// Dispatch is a single function per node kind with a Go type-switch, the
// same shape the parser and resolver use, rather than a visitor/Accept
// pattern. Runtime errors are returned as ordinary Go errors; return/break/
// continue are threaded back up as object.Object "signal" values instead,
// since each has exactly one statically-known place that is allowed to
// catch it (a function body, or a loop body) and an error return already
// models that cleanly without panic/recover.
package evaluator

import (
	"fmt"

	"github.com/babyman/lox/internal/ast"
	"github.com/babyman/lox/internal/object"
	"github.com/babyman/lox/internal/token"
)

// RuntimeError is a lox-level runtime error: a failed type check, an
// undefined variable, division by zero, and so on. It carries the source
// line so the driver can report it the way the parser reports syntax
// errors.
type RuntimeError struct {
	Line    int
	Message string
}

func (e *RuntimeError) Error() string { return e.Message }

func newRuntimeError(line int, format string, args ...any) *RuntimeError {
	return &RuntimeError{Line: line, Message: fmt.Sprintf(format, args...)}
}

// Interpreter walks statements against a chain of object.Environment
// frames and a resolver-provided locals side table.
type Interpreter struct {
	globals *object.Environment
	env     *object.Environment
	locals  map[int]int
	print   func(string)
}

// New creates an Interpreter. locals is the side table produced by
// resolver.Resolve. print receives the rendered argument of every `print`
// statement; the driver wires this to stdout, and the REPL wires it to the
// current session's writer.
func New(locals map[int]int, print func(string)) *Interpreter {
	globals := object.NewEnvironment()
	registerNatives(globals)
	return &Interpreter{globals: globals, env: globals, locals: locals, print: print}
}

func (i *Interpreter) Globals() *object.Environment { return i.globals }

// Interpret executes a full program. It stops at the first runtime error.
func (i *Interpreter) Interpret(stmts []ast.Stmt) error {
	for _, stmt := range stmts {
		if _, err := i.execute(stmt); err != nil {
			return err
		}
	}
	return nil
}

// execute evaluates one statement. A non-nil Object return is always a
// control signal (*object.ReturnSignal, *object.BreakSignal or
// *object.ContinueSignal) that the caller must propagate or consume.
func (i *Interpreter) execute(s ast.Stmt) (object.Object, error) {
	switch n := s.(type) {
	case *ast.Block:
		return i.ExecuteBlock(n.Statements, object.NewEnclosedEnvironment(i.env))

	case *ast.Class:
		return i.executeClass(n)

	case *ast.Expression:
		_, err := i.evaluate(n.Expr)
		return nil, err

	case *ast.Function:
		fn := &object.Function{Declaration: n, Closure: i.env}
		i.env.Define(n.Name.Lexeme, fn)
		return nil, nil

	case *ast.Var:
		var value object.Object = object.Nil
		if n.Initializer != nil {
			v, err := i.evaluate(n.Initializer)
			if err != nil {
				return nil, err
			}
			value = v
		}
		i.env.Define(n.Name.Lexeme, value)
		return nil, nil

	case *ast.Print:
		v, err := i.evaluate(n.Expr)
		if err != nil {
			return nil, err
		}
		i.print(object.Stringify(v))
		return nil, nil

	case *ast.If:
		cond, err := i.evaluate(n.Condition)
		if err != nil {
			return nil, err
		}
		if object.IsTruthy(cond) {
			return i.execute(n.Then)
		}
		if n.Else != nil {
			return i.execute(n.Else)
		}
		return nil, nil

	case *ast.While:
		for {
			cond, err := i.evaluate(n.Condition)
			if err != nil {
				return nil, err
			}
			if !object.IsTruthy(cond) {
				return nil, nil
			}
			signal, err := i.execute(n.Body)
			if err != nil {
				return nil, err
			}
			switch signal.(type) {
			case *object.BreakSignal:
				return nil, nil
			case *object.ReturnSignal:
				return signal, nil
			case *object.ContinueSignal:
				continue
			}
		}

	case *ast.Break:
		return &object.BreakSignal{}, nil

	case *ast.Continue:
		return &object.ContinueSignal{}, nil

	case *ast.Return:
		var value object.Object = object.Nil
		if n.Value != nil {
			v, err := i.evaluate(n.Value)
			if err != nil {
				return nil, err
			}
			value = v
		}
		return &object.ReturnSignal{Value: value}, nil
	}

	return nil, nil
}

// ExecuteBlock runs stmts in env, restoring the interpreter's previous
// environment on every exit path (normal, signal, or error). It is the one
// place a new scope is actually entered, shared by block statements and
// function/method bodies.
func (i *Interpreter) ExecuteBlock(stmts []ast.Stmt, env *object.Environment) (object.Object, error) {
	previous := i.env
	i.env = env
	defer func() { i.env = previous }()

	for _, stmt := range stmts {
		signal, err := i.execute(stmt)
		if err != nil {
			return nil, err
		}
		if signal != nil {
			return signal, nil
		}
	}
	return nil, nil
}

func (i *Interpreter) executeClass(n *ast.Class) (object.Object, error) {
	var superclass *object.Class
	if n.Superclass != nil {
		v, err := i.evaluate(n.Superclass)
		if err != nil {
			return nil, err
		}
		sc, ok := v.(*object.Class)
		if !ok {
			return nil, newRuntimeError(n.Superclass.Name.Line, "Superclass must be a class.")
		}
		superclass = sc
	}

	i.env.Define(n.Name.Lexeme, object.Nil)

	classEnv := i.env
	if superclass != nil {
		classEnv = object.NewEnclosedEnvironment(i.env)
		classEnv.Define("super", superclass)
	}

	methods := make(map[string]*object.Function, len(n.Methods))
	for _, m := range n.Methods {
		methods[m.Name.Lexeme] = &object.Function{
			Declaration:   m,
			Closure:       classEnv,
			IsInitializer: m.Name.Lexeme == "init",
		}
	}

	classMethods := make(map[string]*object.Function, len(n.ClassMethods))
	for _, m := range n.ClassMethods {
		classMethods[m.Name.Lexeme] = &object.Function{Declaration: m, Closure: classEnv}
	}

	class := &object.Class{
		Name:         n.Name.Lexeme,
		Superclass:   superclass,
		Methods:      methods,
		ClassMethods: classMethods,
	}

	return nil, i.env.Assign(n.Name.Lexeme, class)
}

func (i *Interpreter) evaluate(e ast.Expr) (object.Object, error) {
	switch n := e.(type) {
	case *ast.Literal:
		return literalObject(n.Value), nil

	case *ast.Grouping:
		return i.evaluate(n.Expression)

	case *ast.Variable:
		return i.lookupVariable(n.Name, n.ID())

	case *ast.Assign:
		value, err := i.evaluate(n.Value)
		if err != nil {
			return nil, err
		}
		if hops, ok := i.locals[n.ID()]; ok {
			i.env.AssignAt(hops, n.Name.Lexeme, value)
		} else if err := i.globals.Assign(n.Name.Lexeme, value); err != nil {
			return nil, newRuntimeError(n.Name.Line, "Undefined variable '%s'.", n.Name.Lexeme)
		}
		return value, nil

	case *ast.Unary:
		return i.evalUnary(n)

	case *ast.Binary:
		return i.evalBinary(n)

	case *ast.Logical:
		return i.evalLogical(n)

	case *ast.Ternary:
		cond, err := i.evaluate(n.Condition)
		if err != nil {
			return nil, err
		}
		if object.IsTruthy(cond) {
			return i.evaluate(n.Then)
		}
		return i.evaluate(n.Else)

	case *ast.Call:
		return i.evalCall(n)

	case *ast.Get:
		return i.evalGet(n)

	case *ast.Set:
		return i.evalSet(n)

	case *ast.This:
		v, _ := i.lookupVariable(n.Keyword, n.ID())
		return v, nil

	case *ast.Super:
		return i.evalSuper(n)
	}

	return nil, fmt.Errorf("unhandled expression node %T", e)
}

func literalObject(v any) object.Object {
	switch val := v.(type) {
	case nil:
		return object.Nil
	case bool:
		return object.Bool(val)
	case float64:
		return &object.Number{Value: val}
	case string:
		return &object.String{Value: val}
	default:
		return object.Nil
	}
}

func (i *Interpreter) lookupVariable(name token.Token, exprID int) (object.Object, error) {
	if hops, ok := i.locals[exprID]; ok {
		if v, ok := i.env.GetAt(hops, name.Lexeme); ok {
			return v, nil
		}
	} else if v, ok := i.globals.Get(name.Lexeme); ok {
		return v, nil
	}
	return nil, newRuntimeError(name.Line, "Undefined variable '%s'.", name.Lexeme)
}

func (i *Interpreter) evalUnary(n *ast.Unary) (object.Object, error) {
	right, err := i.evaluate(n.Right)
	if err != nil {
		return nil, err
	}
	switch n.Operator.Kind {
	case token.Minus:
		num, ok := right.(*object.Number)
		if !ok {
			return nil, newRuntimeError(n.Operator.Line, "Operand must be a number.")
		}
		return &object.Number{Value: -num.Value}, nil
	case token.Bang:
		return object.Bool(!object.IsTruthy(right)), nil
	}
	return nil, newRuntimeError(n.Operator.Line, "Unknown unary operator '%s'.", n.Operator.Lexeme)
}

func (i *Interpreter) evalLogical(n *ast.Logical) (object.Object, error) {
	left, err := i.evaluate(n.Left)
	if err != nil {
		return nil, err
	}
	if n.Operator.Kind == token.Or {
		if object.IsTruthy(left) {
			return left, nil
		}
	} else {
		if !object.IsTruthy(left) {
			return left, nil
		}
	}
	return i.evaluate(n.Right)
}

func (i *Interpreter) evalBinary(n *ast.Binary) (object.Object, error) {
	left, err := i.evaluate(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := i.evaluate(n.Right)
	if err != nil {
		return nil, err
	}

	switch n.Operator.Kind {
	case token.Plus:
		if ln, ok := left.(*object.Number); ok {
			if rn, ok := right.(*object.Number); ok {
				return &object.Number{Value: ln.Value + rn.Value}, nil
			}
		}
		_, leftIsString := left.(*object.String)
		_, rightIsString := right.(*object.String)
		if leftIsString || rightIsString {
			return &object.String{Value: object.Stringify(left) + object.Stringify(right)}, nil
		}
		return nil, newRuntimeError(n.Operator.Line, "Operands must be two numbers or two strings.")
	case token.Minus:
		ln, rn, err := i.numberOperands(n.Operator, left, right)
		if err != nil {
			return nil, err
		}
		return &object.Number{Value: ln - rn}, nil
	case token.Star:
		ln, rn, err := i.numberOperands(n.Operator, left, right)
		if err != nil {
			return nil, err
		}
		return &object.Number{Value: ln * rn}, nil
	case token.Slash:
		ln, rn, err := i.numberOperands(n.Operator, left, right)
		if err != nil {
			return nil, err
		}
		if rn == 0 {
			return nil, newRuntimeError(n.Operator.Line, "Division by zero.")
		}
		return &object.Number{Value: ln / rn}, nil
	case token.Greater:
		ln, rn, err := i.numberOperands(n.Operator, left, right)
		if err != nil {
			return nil, err
		}
		return object.Bool(ln > rn), nil
	case token.GreaterEqual:
		ln, rn, err := i.numberOperands(n.Operator, left, right)
		if err != nil {
			return nil, err
		}
		return object.Bool(ln >= rn), nil
	case token.Less:
		ln, rn, err := i.numberOperands(n.Operator, left, right)
		if err != nil {
			return nil, err
		}
		return object.Bool(ln < rn), nil
	case token.LessEqual:
		ln, rn, err := i.numberOperands(n.Operator, left, right)
		if err != nil {
			return nil, err
		}
		return object.Bool(ln <= rn), nil
	case token.EqualEqual:
		return object.Bool(isEqual(left, right)), nil
	case token.BangEqual:
		return object.Bool(!isEqual(left, right)), nil
	case token.Comma:
		return right, nil
	}

	return nil, newRuntimeError(n.Operator.Line, "Unknown binary operator '%s'.", n.Operator.Lexeme)
}

func (i *Interpreter) numberOperands(op token.Token, left, right object.Object) (float64, float64, error) {
	ln, ok := left.(*object.Number)
	if !ok {
		return 0, 0, newRuntimeError(op.Line, "Operands must be numbers.")
	}
	rn, ok := right.(*object.Number)
	if !ok {
		return 0, 0, newRuntimeError(op.Line, "Operands must be numbers.")
	}
	return ln.Value, rn.Value, nil
}

func isEqual(a, b object.Object) bool {
	switch av := a.(type) {
	case *object.NilValue:
		_, ok := b.(*object.NilValue)
		return ok
	case *object.Boolean:
		bv, ok := b.(*object.Boolean)
		return ok && av.Value == bv.Value
	case *object.Number:
		bv, ok := b.(*object.Number)
		return ok && av.Value == bv.Value
	case *object.String:
		bv, ok := b.(*object.String)
		return ok && av.Value == bv.Value
	default:
		return a == b
	}
}

func (i *Interpreter) evalCall(n *ast.Call) (object.Object, error) {
	callee, err := i.evaluate(n.Callee)
	if err != nil {
		return nil, err
	}

	args := make([]object.Object, 0, len(n.Args))
	for _, a := range n.Args {
		v, err := i.evaluate(a)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	fn, ok := callee.(object.Callable)
	if !ok {
		return nil, newRuntimeError(n.Paren.Line, "Can only call functions and classes.")
	}
	if len(args) != fn.Arity() {
		return nil, newRuntimeError(n.Paren.Line, "Expected %d arguments but got %d.", fn.Arity(), len(args))
	}

	result, err := fn.Call(i, args)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (i *Interpreter) evalGet(n *ast.Get) (object.Object, error) {
	obj, err := i.evaluate(n.Object)
	if err != nil {
		return nil, err
	}

	switch target := obj.(type) {
	case *object.Instance:
		if v, ok := target.Get(n.Name.Lexeme); ok {
			return v, nil
		}
		return nil, newRuntimeError(n.Name.Line, "Undefined property '%s'.", n.Name.Lexeme)
	case *object.Class:
		if method, ok := target.FindClassMethod(n.Name.Lexeme); ok {
			return method, nil
		}
		return nil, newRuntimeError(n.Name.Line, "Undefined property '%s'.", n.Name.Lexeme)
	default:
		return nil, newRuntimeError(n.Name.Line, "Only instances and classes have properties.")
	}
}

func (i *Interpreter) evalSet(n *ast.Set) (object.Object, error) {
	obj, err := i.evaluate(n.Object)
	if err != nil {
		return nil, err
	}
	instance, ok := obj.(*object.Instance)
	if !ok {
		return nil, newRuntimeError(n.Name.Line, "Only instances have fields.")
	}

	value, err := i.evaluate(n.Value)
	if err != nil {
		return nil, err
	}
	instance.Set(n.Name.Lexeme, value)
	return value, nil
}

func (i *Interpreter) evalSuper(n *ast.Super) (object.Object, error) {
	hops, ok := i.locals[n.ID()]
	if !ok {
		return nil, newRuntimeError(n.Keyword.Line, "Unresolved 'super' reference.")
	}
	superVal, ok := i.env.GetAt(hops, "super")
	if !ok {
		return nil, newRuntimeError(n.Keyword.Line, "Unresolved 'super' reference.")
	}
	superclass := superVal.(*object.Class)

	thisVal, ok := i.env.GetAt(hops-1, "this")
	if !ok {
		return nil, newRuntimeError(n.Keyword.Line, "Unresolved 'this' reference.")
	}
	instance := thisVal.(*object.Instance)

	method, ok := superclass.FindMethod(n.Method.Lexeme)
	if !ok {
		return nil, newRuntimeError(n.Method.Line, "Undefined property '%s'.", n.Method.Lexeme)
	}
	return method.Bind(instance), nil
}
