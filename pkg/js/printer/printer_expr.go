package printer

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kyunghoon/twasm/pkg/js/ast"
	"github.com/kyunghoon/twasm/pkg/js/lexer"
)

// printExpr prints an expression, wrapping it in parentheses when its
// own precedence is lower than the surrounding level demands.
func (p *printer) printExpr(expr ast.Expr, level ast.L) {
	switch e := expr.Data.(type) {
	case *ast.EIdentifier:
		p.print(e.Name)

	case *ast.EThis:
		p.print("this")

	case *ast.ENull:
		p.print("null")

	case *ast.EBoolean:
		if e.Value {
			p.print("true")
		} else {
			p.print("false")
		}

	case *ast.ENumber:
		p.printNumber(e)

	case *ast.EString:
		p.print(quoteString(e.Value))

	case *ast.ERegExp:
		p.print(e.Raw)

	case *ast.ETemplate:
		if e.Tag != nil {
			p.printExpr(*e.Tag, ast.LPostfix)
		}
		p.print("`")
		for _, part := range e.Parts {
			p.print(part.Cooked)
			if part.Expr != nil {
				p.print("${")
				p.printExpr(*part.Expr, ast.LLowest)
				p.print("}")
			}
		}
		p.print("`")

	case *ast.EArray:
		p.print("[")
		for i, item := range e.Items {
			if i > 0 {
				p.print(", ")
			}
			if item != nil {
				p.printExpr(*item, ast.LComma)
			}
		}
		p.print("]")

	case *ast.EObject:
		p.printObject(e)

	case *ast.EFunction:
		wrap := level >= ast.LPostfix
		if wrap {
			p.print("(")
		}
		p.printFnKeyword(e.Fn)
		if wrap {
			p.print(")")
		}

	case *ast.EArrow:
		wrap := level >= ast.LAssign
		if wrap {
			p.print("(")
		}
		if e.Fn.IsAsync {
			p.print("async ")
		}
		if len(e.Fn.Args) == 1 && !e.Fn.Args[0].IsRest && e.Fn.Args[0].Default == nil {
			if _, isIdent := e.Fn.Args[0].Binding.Data.(*ast.BIdentifier); isIdent {
				p.printBinding(e.Fn.Args[0].Binding)
			} else {
				p.printFnArgs(e.Fn.Args)
			}
		} else {
			p.printFnArgs(e.Fn.Args)
		}
		p.print(" => ")
		if e.Fn.ArrowExprBody != nil {
			body := *e.Fn.ArrowExprBody
			if _, isObj := body.Data.(*ast.EObject); isObj {
				p.print("(")
				p.printExpr(body, ast.LComma)
				p.print(")")
			} else {
				p.printExpr(body, ast.LComma)
			}
		} else {
			p.printBlock(e.Fn.Body)
		}
		if wrap {
			p.print(")")
		}

	case *ast.EClass:
		wrap := level >= ast.LPostfix
		if wrap {
			p.print("(")
		}
		p.printClass(e.Class)
		if wrap {
			p.print(")")
		}

	case *ast.ECall:
		// a call used as a "new" target needs parentheses to keep the
		// arguments from binding to "new"
		wrap := level >= ast.LNew
		if wrap {
			p.print("(")
		}
		p.printExpr(e.Target, ast.LPostfix)
		if e.OptionalChain {
			p.print("?.")
		}
		p.print("(")
		for i, arg := range e.Args {
			if i > 0 {
				p.print(", ")
			}
			p.printExpr(arg, ast.LComma)
		}
		p.print(")")
		if wrap {
			p.print(")")
		}

	case *ast.ENew:
		p.print("new ")
		p.printExpr(e.Target, ast.LCall)
		p.print("(")
		for i, arg := range e.Args {
			if i > 0 {
				p.print(", ")
			}
			p.printExpr(arg, ast.LComma)
		}
		p.print(")")

	case *ast.EDot:
		p.printExpr(e.Target, ast.LPostfix)
		if e.OptionalChain {
			p.print("?.")
		} else {
			p.print(".")
		}
		p.print(e.Name)

	case *ast.EIndex:
		p.printExpr(e.Target, ast.LPostfix)
		if e.OptionalChain {
			p.print("?.")
		}
		p.print("[")
		p.printExpr(e.Index, ast.LLowest)
		p.print("]")

	case *ast.EUnary:
		p.printUnary(e, level)

	case *ast.EBinary:
		p.printBinary(e, level)

	case *ast.ECond:
		wrap := level >= ast.LConditional
		if wrap {
			p.print("(")
		}
		p.printExpr(e.Test, ast.LConditional)
		p.print(" ? ")
		p.printExpr(e.Yes, ast.LComma)
		p.print(" : ")
		p.printExpr(e.No, ast.LComma)
		if wrap {
			p.print(")")
		}

	case *ast.ESpread:
		p.print("...")
		p.printExpr(e.Value, ast.LComma)

	case *ast.EImportCall:
		p.print("import(")
		p.printExpr(e.Arg, ast.LComma)
		p.print(")")

	case *ast.EImportMeta:
		p.print("import.meta")

	default:
		panic(fmt.Sprintf("printer: unhandled expression %T", expr.Data))
	}
}

func (p *printer) printObject(e *ast.EObject) {
	if len(e.Properties) == 0 {
		p.print("{}")
		return
	}
	p.print("{ ")
	for i, prop := range e.Properties {
		if i > 0 {
			p.print(", ")
		}
		p.printProperty(prop)
	}
	p.print(" }")
}

func (p *printer) printProperty(prop ast.Property) {
	if prop.Kind == ast.PropertySpread {
		p.print("...")
		p.printExpr(*prop.Value, ast.LComma)
		return
	}
	if prop.Fn != nil {
		switch prop.Kind {
		case ast.PropertyGet:
			p.print("get ")
		case ast.PropertySet:
			p.print("set ")
		}
		if prop.Fn.IsAsync {
			p.print("async ")
		}
		if prop.Fn.IsGenerator {
			p.print("*")
		}
		if prop.IsComputed {
			p.print("[")
			p.printExpr(prop.Key, ast.LComma)
			p.print("]")
		} else {
			p.printPropertyKey(prop.Key)
		}
		p.printFnArgs(prop.Fn.Args)
		p.print(" ")
		p.printBlock(prop.Fn.Body)
		return
	}
	if prop.IsComputed {
		p.print("[")
		p.printExpr(prop.Key, ast.LComma)
		p.print("]: ")
		p.printExpr(*prop.Value, ast.LComma)
		return
	}
	// collapse back to shorthand when the value is the same identifier
	if str, isStr := prop.Key.Data.(*ast.EString); isStr && lexer.IsIdentifierText(str.Value) {
		if ident, isIdent := prop.Value.Data.(*ast.EIdentifier); isIdent && ident.Name == str.Value {
			p.print(str.Value)
			return
		}
	}
	p.printPropertyKey(prop.Key)
	p.print(": ")
	p.printExpr(*prop.Value, ast.LComma)
}

func (p *printer) printUnary(e *ast.EUnary, level ast.L) {
	if !e.Op.IsPrefix() {
		wrap := level >= ast.LPostfix
		if wrap {
			p.print("(")
		}
		p.printExpr(e.Value, ast.LPostfix)
		p.print(e.Op.Text())
		if wrap {
			p.print(")")
		}
		return
	}
	opLevel := ast.LPrefix
	if e.Op == ast.UnOpYield || e.Op == ast.UnOpYieldStar {
		opLevel = ast.LAssign
	}
	wrap := level >= opLevel
	if wrap {
		p.print("(")
	}
	text := e.Op.Text()
	p.print(text)
	if text[len(text)-1] >= 'a' && text[len(text)-1] <= 'z' {
		p.print(" ")
	} else {
		// avoid "+ +x" becoming "++x"
		switch inner := e.Value.Data.(type) {
		case *ast.EUnary:
			if inner.Op.IsPrefix() && inner.Op.Text()[0] == text[0] {
				p.print(" ")
			}
		case *ast.ENumber:
			_ = inner
		}
	}
	p.printExpr(e.Value, ast.LPrefix-1)
	if wrap {
		p.print(")")
	}
}

func (p *printer) printBinary(e *ast.EBinary, level ast.L) {
	opLevel := e.Op.Level()
	wrap := opLevel <= level
	if wrap {
		p.print("(")
	}
	leftLevel := opLevel - 1
	rightLevel := opLevel
	if e.Op.IsRightAssoc() {
		leftLevel = opLevel
		rightLevel = opLevel - 1
	}
	if e.Op == ast.BinOpComma {
		p.printExpr(e.Left, leftLevel)
		p.print(", ")
		p.printExpr(e.Right, rightLevel)
	} else {
		p.printExpr(e.Left, leftLevel)
		p.print(" " + e.Op.Text() + " ")
		p.printExpr(e.Right, rightLevel)
	}
	if wrap {
		p.print(")")
	}
}

func (p *printer) printNumber(e *ast.ENumber) {
	if e.Raw != "" {
		p.print(e.Raw)
		return
	}
	value := e.Value
	if value == math.Trunc(value) && math.Abs(value) < 1e15 {
		p.print(strconv.FormatInt(int64(value), 10))
		return
	}
	p.print(strconv.FormatFloat(value, 'g', -1, 64))
}

func quoteString(value string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range value {
		switch r {
		case '"':
			sb.WriteString("\\\"")
		case '\\':
			sb.WriteString("\\\\")
		case '\n':
			sb.WriteString("\\n")
		case '\r':
			sb.WriteString("\\r")
		case '\t':
			sb.WriteString("\\t")
		case '\x00':
			sb.WriteString("\\0")
		default:
			if r < 0x20 {
				sb.WriteString(fmt.Sprintf("\\x%02x", r))
			} else {
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
