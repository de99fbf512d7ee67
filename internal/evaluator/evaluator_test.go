package evaluator

import (
	"bytes"
	"strings"
	"testing"

	"github.com/babyman/lox/internal/lexer"
	"github.com/babyman/lox/internal/parser"
	"github.com/babyman/lox/internal/report"
	"github.com/babyman/lox/internal/resolver"
)

// run lexes, parses, resolves and interprets src, returning everything
// printed by `print` statements (one element per call) and any runtime
// error.
func run(t *testing.T, src string) ([]string, error) {
	t.Helper()
	var buf bytes.Buffer
	r := report.New(&buf)

	tokens := lexer.New(src, r).ScanTokens()
	stmts := parser.New(tokens, r).Parse()
	if r.HadError() {
		t.Fatalf("unexpected parse error: %s", buf.String())
	}

	locals := resolver.New(r).Resolve(stmts)
	if r.HadError() {
		t.Fatalf("unexpected resolve error: %s", buf.String())
	}

	var printed []string
	interp := New(locals, func(s string) { printed = append(printed, s) })
	err := interp.Interpret(stmts)
	return printed, err
}

func TestInterpretArithmeticPrecedence(t *testing.T) {
	out, err := run(t, `print 1 + 2 * 3;`)
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	if len(out) != 1 || out[0] != "7" {
		t.Errorf("got %v, want [7]", out)
	}
}

func TestInterpretStringConcatenation(t *testing.T) {
	out, err := run(t, `print "foo" + "bar";`)
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	if len(out) != 1 || out[0] != "foobar" {
		t.Errorf("got %v, want [foobar]", out)
	}
}

func TestInterpretDivisionByZeroIsRuntimeError(t *testing.T) {
	_, err := run(t, `print 1 / 0;`)
	if err == nil {
		t.Fatalf("expected a runtime error for division by zero")
	}
}

func TestInterpretMixedAdditionStringifiesBothSides(t *testing.T) {
	out, err := run(t, `print 1 + "a";`)
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	if len(out) != 1 || out[0] != "1a" {
		t.Errorf("got %v, want [1a]", out)
	}
}

func TestInterpretAdditionOfTwoBooleansIsRuntimeError(t *testing.T) {
	_, err := run(t, `print true + false;`)
	if err == nil {
		t.Fatalf("expected a runtime error when neither + operand is a number or string")
	}
}

func TestInterpretVariableScopingAndShadowing(t *testing.T) {
	out, err := run(t, `
var a = "global";
{
  var a = "local";
  print a;
}
print a;
`)
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	if len(out) != 2 || out[0] != "local" || out[1] != "global" {
		t.Errorf("got %v, want [local global]", out)
	}
}

func TestInterpretClosureCapturesByReference(t *testing.T) {
	out, err := run(t, `
fun makeCounter() {
  var count = 0;
  fun counter() {
    count = count + 1;
    return count;
  }
  return counter;
}
var counter = makeCounter();
print counter();
print counter();
print counter();
`)
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	want := []string{"1", "2", "3"}
	if strings.Join(out, ",") != strings.Join(want, ",") {
		t.Errorf("got %v, want %v", out, want)
	}
}

func TestInterpretWhileBreakAndContinue(t *testing.T) {
	out, err := run(t, `
var i = 0;
while (i < 5) {
  i = i + 1;
  if (i == 2) continue;
  if (i == 4) break;
  print i;
}
`)
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	want := []string{"1", "3"}
	if strings.Join(out, ",") != strings.Join(want, ",") {
		t.Errorf("got %v, want %v", out, want)
	}
}

func TestInterpretForDesugaring(t *testing.T) {
	out, err := run(t, `
for (var i = 0; i < 3; i = i + 1) {
  print i;
}
`)
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	want := []string{"0", "1", "2"}
	if strings.Join(out, ",") != strings.Join(want, ",") {
		t.Errorf("got %v, want %v", out, want)
	}
}

func TestInterpretRecursiveFunction(t *testing.T) {
	out, err := run(t, `
fun fib(n) {
  if (n < 2) return n;
  return fib(n - 1) + fib(n - 2);
}
print fib(8);
`)
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	if len(out) != 1 || out[0] != "21" {
		t.Errorf("got %v, want [21]", out)
	}
}

func TestInterpretClassInstanceFieldsAndMethods(t *testing.T) {
	out, err := run(t, `
class Greeter {
  init(name) {
    this.name = name;
  }
  greet() {
    print "hello, " + this.name;
  }
}
var g = Greeter("world");
g.greet();
`)
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	if len(out) != 1 || out[0] != "hello, world" {
		t.Errorf("got %v, want [hello, world]", out)
	}
}

func TestInterpretInheritanceAndSuper(t *testing.T) {
	out, err := run(t, `
class Pastry {
  cook() {
    print "cooking pastry";
  }
}
class Cake < Pastry {
  cook() {
    super.cook();
    print "decorating cake";
  }
}
Cake().cook();
`)
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	want := []string{"cooking pastry", "decorating cake"}
	if strings.Join(out, ",") != strings.Join(want, ",") {
		t.Errorf("got %v, want %v", out, want)
	}
}

func TestInterpretClassMethodViaMetaclass(t *testing.T) {
	out, err := run(t, `
class Cake {
  class create() {
    print "creating a cake";
  }
}
Cake.create();
`)
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	if len(out) != 1 || out[0] != "creating a cake" {
		t.Errorf("got %v, want [creating a cake]", out)
	}
}

func TestInterpretTernaryExpression(t *testing.T) {
	out, err := run(t, `print 1 < 2 ? "yes" : "no";`)
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	if len(out) != 1 || out[0] != "yes" {
		t.Errorf("got %v, want [yes]", out)
	}
}

func TestInterpretUndefinedVariableIsRuntimeError(t *testing.T) {
	_, err := run(t, `print missing;`)
	if err == nil {
		t.Fatalf("expected a runtime error for an undefined variable")
	}
}

func TestInterpretClockNativeReturnsNumber(t *testing.T) {
	out, err := run(t, `print clock() > 0;`)
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	if len(out) != 1 || out[0] != "true" {
		t.Errorf("got %v, want [true]", out)
	}
}
