// Package object defines the runtime value model the evaluator operates on,
// plus the small set of sentinel values used to carry return/break/continue
// signals up through the statement evaluator.
package object

import (
	"fmt"
	"strconv"

	"github.com/babyman/lox/internal/ast"
)

// ObjectType tags the dynamic type of a runtime value for error messages
// and type checks.
type ObjectType string

const (
	NilType      ObjectType = "nil"
	BooleanType  ObjectType = "boolean"
	NumberType   ObjectType = "number"
	StringType   ObjectType = "string"
	FunctionType ObjectType = "function"
	NativeType   ObjectType = "native function"
	ClassType    ObjectType = "class"
	InstanceType ObjectType = "instance"
)

// Object is any runtime value. Inspect renders the value for error messages
// and debugging; `print` uses Stringify, which differs for native functions.
type Object interface {
	Type() ObjectType
	Inspect() string
}

var (
	Nil   = &NilValue{}
	True  = &Boolean{Value: true}
	False = &Boolean{Value: false}
)

type NilValue struct{}

func (*NilValue) Type() ObjectType { return NilType }
func (*NilValue) Inspect() string  { return "nil" }

type Boolean struct {
	Value bool
}

func (b *Boolean) Type() ObjectType { return BooleanType }
func (b *Boolean) Inspect() string  { return strconv.FormatBool(b.Value) }

// Bool returns the canonical True/False singleton for v.
func Bool(v bool) *Boolean {
	if v {
		return True
	}
	return False
}

type Number struct {
	Value float64
}

func (n *Number) Type() ObjectType { return NumberType }
func (n *Number) Inspect() string  { return strconv.FormatFloat(n.Value, 'f', -1, 64) }

type String struct {
	Value string
}

func (s *String) Type() ObjectType { return StringType }
func (s *String) Inspect() string  { return s.Value }

// Callable is implemented by any value that can appear as the callee of a
// Call expression: user-defined functions, bound methods, native functions
// and classes (whose call constructs an Instance).
type Callable interface {
	Object
	Arity() int
	Call(interp Interpreter, args []Object) (Object, error)
}

// Interpreter is the subset of the evaluator a Callable needs to invoke a
// function body or a native function. Kept as an interface here so object
// has no import-cycle dependency on the evaluator package.
type Interpreter interface {
	ExecuteBlock(stmts []ast.Stmt, env *Environment) (Object, error)
	Globals() *Environment
}

// Function is a user-defined function or method, closing over the
// environment active at its declaration site.
type Function struct {
	Declaration   *ast.Function
	Closure       *Environment
	IsInitializer bool
}

func (f *Function) Type() ObjectType { return FunctionType }
func (f *Function) Inspect() string  { return "<fn " + f.Declaration.Name.Lexeme + ">" }
func (f *Function) Arity() int       { return len(f.Declaration.Params) }

func (f *Function) Call(interp Interpreter, args []Object) (Object, error) {
	env := NewEnclosedEnvironment(f.Closure)
	for i, param := range f.Declaration.Params {
		env.Define(param.Lexeme, args[i])
	}

	result, err := interp.ExecuteBlock(f.Declaration.Body, env)
	if err != nil {
		return nil, err
	}

	if f.IsInitializer {
		this, _ := f.Closure.GetAt(0, "this")
		return this, nil
	}

	if ret, ok := result.(*ReturnSignal); ok {
		return ret.Value, nil
	}
	return Nil, nil
}

// Bind returns a copy of f whose closure additionally binds "this" to
// instance, used when a method is looked up off an Instance.
func (f *Function) Bind(instance *Instance) *Function {
	env := NewEnclosedEnvironment(f.Closure)
	env.Define("this", instance)
	return &Function{Declaration: f.Declaration, Closure: env, IsInitializer: f.IsInitializer}
}

// NativeFunction wraps a Go function as a callable lox value (e.g. clock).
type NativeFunction struct {
	Name string
	Fn   func(args []Object) (Object, error)
	N    int
}

func (n *NativeFunction) Type() ObjectType { return NativeType }
func (n *NativeFunction) Inspect() string  { return "<native fn " + n.Name + ">" }
func (n *NativeFunction) Arity() int       { return n.N }
func (n *NativeFunction) Call(_ Interpreter, args []Object) (Object, error) {
	return n.Fn(args)
}

// Class is a runtime class value. Instances are created by calling the
// class itself; static ("class") methods live directly on Class, resolved
// through a synthetic metaclass the same way the resolver/evaluator treat
// any other method lookup.
type Class struct {
	Name         string
	Superclass   *Class
	Methods      map[string]*Function
	ClassMethods map[string]*Function
}

func (c *Class) Type() ObjectType { return ClassType }
func (c *Class) Inspect() string  { return c.Name }
func (c *Class) Arity() int {
	if init, ok := c.FindMethod("init"); ok {
		return init.Arity()
	}
	return 0
}

func (c *Class) Call(interp Interpreter, args []Object) (Object, error) {
	instance := &Instance{Class: c, Fields: map[string]Object{}}
	if init, ok := c.FindMethod("init"); ok {
		if _, err := init.Bind(instance).Call(interp, args); err != nil {
			return nil, err
		}
	}
	return instance, nil
}

// FindMethod walks the superclass chain looking for an instance method.
func (c *Class) FindMethod(name string) (*Function, bool) {
	if fn, ok := c.Methods[name]; ok {
		return fn, true
	}
	if c.Superclass != nil {
		return c.Superclass.FindMethod(name)
	}
	return nil, false
}

// FindClassMethod walks the superclass chain looking for a static method.
func (c *Class) FindClassMethod(name string) (*Function, bool) {
	if fn, ok := c.ClassMethods[name]; ok {
		return fn, true
	}
	if c.Superclass != nil {
		return c.Superclass.FindClassMethod(name)
	}
	return nil, false
}

// Instance is an instance of a user-defined class: a mutable field bag plus
// a pointer back to its class for method lookup.
type Instance struct {
	Class  *Class
	Fields map[string]Object
}

func (i *Instance) Type() ObjectType { return InstanceType }
func (i *Instance) Inspect() string  { return i.Class.Name + " instance" }

func (i *Instance) Get(name string) (Object, bool) {
	if v, ok := i.Fields[name]; ok {
		return v, true
	}
	if method, ok := i.Class.FindMethod(name); ok {
		return method.Bind(i), true
	}
	return nil, false
}

func (i *Instance) Set(name string, value Object) {
	i.Fields[name] = value
}

// ReturnSignal, BreakSignal and ContinueSignal are the non-local control
// transfer values a statement evaluator threads back up through its
// (Object, error) returns instead of using panic/recover: each has exactly
// one place it's legal to be caught (a function body, and a loop body,
// respectively), so ordinary error propagation already does the job.
type ReturnSignal struct {
	Value Object
}

func (r *ReturnSignal) Type() ObjectType { return "return-signal" }
func (r *ReturnSignal) Inspect() string  { return fmt.Sprintf("return %s", r.Value.Inspect()) }

type BreakSignal struct{}

func (*BreakSignal) Type() ObjectType { return "break-signal" }
func (*BreakSignal) Inspect() string  { return "break" }

type ContinueSignal struct{}

func (*ContinueSignal) Type() ObjectType { return "continue-signal" }
func (*ContinueSignal) Inspect() string  { return "continue" }

// IsTruthy implements lox's truthiness rule: everything is truthy except
// nil and false.
func IsTruthy(obj Object) bool {
	switch v := obj.(type) {
	case *NilValue:
		return false
	case *Boolean:
		return v.Value
	default:
		return true
	}
}

// Stringify renders a value the way `print` and string concatenation do,
// distinct from Inspect which is used for error messages and debugging.
func Stringify(obj Object) string {
	if obj == nil {
		return "nil"
	}
	switch v := obj.(type) {
	case *NilValue:
		return "nil"
	case *Number:
		return strconv.FormatFloat(v.Value, 'f', -1, 64)
	case *NativeFunction:
		return "<native fn>"
	default:
		return obj.Inspect()
	}
}

// TypeName renders a human-readable type name for runtime type errors.
func TypeName(obj Object) string {
	if obj == nil {
		return "nil"
	}
	return string(obj.Type())
}
