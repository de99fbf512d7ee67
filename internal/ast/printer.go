package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// PrintStmts renders a statement list back into lox-like source text. It is used
// both for the -debug-ast driver flag and by the parser tests, which compare
// the printed form of a parse against an expected string.
func PrintStmts(stmts []Stmt) string {
	var sb strings.Builder
	for i, s := range stmts {
		if i > 0 {
			sb.WriteString("\n")
		}
		printStmt(&sb, s, 0)
	}
	return sb.String()
}

func indent(sb *strings.Builder, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
}

func printStmt(sb *strings.Builder, s Stmt, depth int) {
	switch n := s.(type) {
	case *Block:
		indent(sb, depth)
		sb.WriteString("{\n")
		for _, st := range n.Statements {
			printStmt(sb, st, depth+1)
			sb.WriteString("\n")
		}
		indent(sb, depth)
		sb.WriteString("}")

	case *Class:
		indent(sb, depth)
		sb.WriteString("class ")
		sb.WriteString(n.Name.Lexeme)
		if n.Superclass != nil {
			sb.WriteString(" < ")
			sb.WriteString(n.Superclass.Name.Lexeme)
		}
		sb.WriteString(" {\n")
		for _, m := range n.Methods {
			printFunctionBody(sb, m, depth+1)
			sb.WriteString("\n")
		}
		for _, m := range n.ClassMethods {
			indent(sb, depth+1)
			sb.WriteString("class ")
			printFunctionBody(sb, m, 0)
			sb.WriteString("\n")
		}
		indent(sb, depth)
		sb.WriteString("}")

	case *Expression:
		indent(sb, depth)
		sb.WriteString(printExpr(n.Expr))
		sb.WriteString(";")

	case *Function:
		indent(sb, depth)
		sb.WriteString("fun ")
		printFunctionBody(sb, n, depth)

	case *Var:
		indent(sb, depth)
		sb.WriteString("var ")
		sb.WriteString(n.Name.Lexeme)
		if n.Initializer != nil {
			sb.WriteString(" = ")
			sb.WriteString(printExpr(n.Initializer))
		}
		sb.WriteString(";")

	case *Print:
		indent(sb, depth)
		sb.WriteString("print ")
		sb.WriteString(printExpr(n.Expr))
		sb.WriteString(";")

	case *If:
		indent(sb, depth)
		sb.WriteString("if (")
		sb.WriteString(printExpr(n.Condition))
		sb.WriteString(")\n")
		printStmt(sb, n.Then, depth+1)
		if n.Else != nil {
			sb.WriteString("\n")
			indent(sb, depth)
			sb.WriteString("else\n")
			printStmt(sb, n.Else, depth+1)
		}

	case *While:
		indent(sb, depth)
		sb.WriteString("while (")
		sb.WriteString(printExpr(n.Condition))
		sb.WriteString(")\n")
		printStmt(sb, n.Body, depth+1)

	case *Break:
		indent(sb, depth)
		sb.WriteString("break;")

	case *Continue:
		indent(sb, depth)
		sb.WriteString("continue;")

	case *Return:
		indent(sb, depth)
		sb.WriteString("return")
		if n.Value != nil {
			sb.WriteString(" ")
			sb.WriteString(printExpr(n.Value))
		}
		sb.WriteString(";")

	default:
		indent(sb, depth)
		sb.WriteString(fmt.Sprintf("<unknown stmt %T>", n))
	}
}

func printFunctionBody(sb *strings.Builder, f *Function, depth int) {
	sb.WriteString(f.Name.Lexeme)
	sb.WriteString("(")
	for i, p := range f.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.Lexeme)
	}
	sb.WriteString(") {\n")
	for _, st := range f.Body {
		printStmt(sb, st, depth+1)
		sb.WriteString("\n")
	}
	indent(sb, depth)
	sb.WriteString("}")
}

func printExpr(e Expr) string {
	switch n := e.(type) {
	case *Assign:
		return n.Name.Lexeme + " = " + printExpr(n.Value)
	case *Binary:
		return paren(n.Operator.Lexeme, n.Left, n.Right)
	case *Call:
		var args []string
		for _, a := range n.Args {
			args = append(args, printExpr(a))
		}
		return printExpr(n.Callee) + "(" + strings.Join(args, ", ") + ")"
	case *Get:
		return printExpr(n.Object) + "." + n.Name.Lexeme
	case *Set:
		return printExpr(n.Object) + "." + n.Name.Lexeme + " = " + printExpr(n.Value)
	case *Super:
		return "super." + n.Method.Lexeme
	case *This:
		return "this"
	case *Grouping:
		return "(" + printExpr(n.Expression) + ")"
	case *Literal:
		return literalString(n.Value)
	case *Unary:
		return "(" + n.Operator.Lexeme + printExpr(n.Right) + ")"
	case *Logical:
		return paren(n.Operator.Lexeme, n.Left, n.Right)
	case *Ternary:
		return "(" + printExpr(n.Condition) + " ? " + printExpr(n.Then) + " : " + printExpr(n.Else) + ")"
	case *Variable:
		return n.Name.Lexeme
	default:
		return fmt.Sprintf("<unknown expr %T>", n)
	}
}

func paren(op string, left, right Expr) string {
	return "(" + printExpr(left) + " " + op + " " + printExpr(right) + ")"
}

func literalString(v any) string {
	switch val := v.(type) {
	case nil:
		return "nil"
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case string:
		return strconv.Quote(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
