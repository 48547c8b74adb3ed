package transform

import (
	"github.com/kyunghoon/twasm/pkg/js/ast"
)

// Small constructors for the synthesized wrapper and helper code. All
// synthesized nodes carry the zero location; positions only matter
// for nodes that came from source.

func ident(name string) ast.Expr {
	return ast.Expr{Data: &ast.EIdentifier{Name: name}}
}

func str(value string) ast.Expr {
	return ast.Expr{Data: &ast.EString{Value: value}}
}

func number(value float64) ast.Expr {
	return ast.Expr{Data: &ast.ENumber{Value: value}}
}

func boolean(value bool) ast.Expr {
	return ast.Expr{Data: &ast.EBoolean{Value: value}}
}

func dot(target ast.Expr, name string) ast.Expr {
	return ast.Expr{Data: &ast.EDot{Target: target, Name: name}}
}

func index(target, idx ast.Expr) ast.Expr {
	return ast.Expr{Data: &ast.EIndex{Target: target, Index: idx}}
}

// member builds either a dot or bracket access depending on whether
// the name is a valid identifier.
func member(target ast.Expr, name string) ast.Expr {
	if isIdentifierName(name) {
		return dot(target, name)
	}
	return index(target, str(name))
}

func call(target ast.Expr, args ...ast.Expr) ast.Expr {
	return ast.Expr{Data: &ast.ECall{Target: target, Args: args}}
}

func assign(target, value ast.Expr) ast.Expr {
	return ast.Expr{Data: &ast.EBinary{Op: ast.BinOpAssign, Left: target, Right: value}}
}

func binary(op ast.BinOp, left, right ast.Expr) ast.Expr {
	return ast.Expr{Data: &ast.EBinary{Op: op, Left: left, Right: right}}
}

func comma(exprs ...ast.Expr) ast.Expr {
	expr := exprs[0]
	for _, next := range exprs[1:] {
		expr = ast.Expr{Data: &ast.EBinary{Op: ast.BinOpComma, Left: expr, Right: next}}
	}
	return expr
}

func not(value ast.Expr) ast.Expr {
	return ast.Expr{Data: &ast.EUnary{Op: ast.UnOpNot, Value: value}}
}

func typeofExpr(value ast.Expr) ast.Expr {
	return ast.Expr{Data: &ast.EUnary{Op: ast.UnOpTypeof, Value: value}}
}

func voidZero() ast.Expr {
	return ast.Expr{Data: &ast.EUnary{Op: ast.UnOpVoid, Value: number(0)}}
}

func exprStmt(expr ast.Expr) ast.Stmt {
	return ast.Stmt{Data: &ast.SExpr{Value: expr}}
}

func varStmt(kind ast.VarKind, name string, value *ast.Expr) ast.Stmt {
	return ast.Stmt{Data: &ast.SVar{Kind: kind, Decls: []ast.Decl{{
		Binding: ast.Binding{Data: &ast.BIdentifier{Name: name}},
		Value:   value,
	}}}}
}

func identArg(name string) ast.Arg {
	return ast.Arg{Binding: ast.Binding{Data: &ast.BIdentifier{Name: name}}}
}

func fnExpr(args []string, body []ast.Stmt) ast.Expr {
	fnArgs := make([]ast.Arg, len(args))
	for i, arg := range args {
		fnArgs[i] = identArg(arg)
	}
	return ast.Expr{Data: &ast.EFunction{Fn: ast.Fn{Args: fnArgs, Body: body}}}
}

func ret(value ast.Expr) ast.Stmt {
	return ast.Stmt{Data: &ast.SReturn{Value: &value}}
}

func block(stmts ...ast.Stmt) ast.Stmt {
	return ast.Stmt{Data: &ast.SBlock{Stmts: stmts}}
}

func ifStmt(test ast.Expr, yes ast.Stmt, no *ast.Stmt) ast.Stmt {
	return ast.Stmt{Data: &ast.SIf{Test: test, Yes: yes, No: no}}
}

func isIdentifierName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		alpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_' || r == '$'
		digit := r >= '0' && r <= '9'
		if i == 0 && !alpha {
			return false
		}
		if i > 0 && !alpha && !digit {
			return false
		}
	}
	return true
}

// nameAllocator hands out synthesized identifiers that cannot collide
// with names already used in the module.
type nameAllocator struct {
	used map[string]bool
}

func newNameAllocator(used map[string]bool) *nameAllocator {
	return &nameAllocator{used: used}
}

func (a *nameAllocator) claim(base string) string {
	name := base
	for n := 2; a.used[name]; n++ {
		name = base + itoa(n)
	}
	a.used[name] = true
	return name
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
