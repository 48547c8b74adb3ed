package parser

import (
	"github.com/kyunghoon/twasm/pkg/diag"
	"github.com/kyunghoon/twasm/pkg/js/ast"
	"github.com/kyunghoon/twasm/pkg/js/lexer"
)

func (p *parser) parseExpr(level ast.L) ast.Expr {
	return p.parseSuffix(p.parsePrefix(level), level)
}

func (p *parser) parsePrefix(level ast.L) ast.Expr {
	loc := p.loc()

	switch p.lx.Token {
	case lexer.TIdentifier:
		name := p.lx.Identifier
		switch name {
		case "async":
			if expr, isArrow := p.parseAsyncPrefix(loc); isArrow {
				return expr
			}
		case "await":
			trial := p.lx.Clone(nil)
			trial.Next()
			if p.startsExprToken(trial.Token) && !trial.HasNewlineBefore {
				p.lx.Next()
				value := p.parseExpr(ast.LPrefix)
				return ast.Expr{Loc: loc, Data: &ast.EUnary{Op: ast.UnOpAwait, Value: value}}
			}
		case "yield":
			trial := p.lx.Clone(nil)
			trial.Next()
			if trial.Token == lexer.TAsterisk && !trial.HasNewlineBefore {
				p.lx.Next()
				p.lx.Next()
				value := p.parseExpr(ast.LComma)
				return ast.Expr{Loc: loc, Data: &ast.EUnary{Op: ast.UnOpYieldStar, Value: value}}
			}
			if p.startsExprToken(trial.Token) && !trial.HasNewlineBefore {
				p.lx.Next()
				value := p.parseExpr(ast.LComma)
				return ast.Expr{Loc: loc, Data: &ast.EUnary{Op: ast.UnOpYield, Value: value}}
			}
		}
		p.lx.Next()
		// single-identifier arrow function: "x => ..."
		if p.lx.Token == lexer.TArrow {
			arg := ast.Arg{Binding: ast.Binding{Loc: loc, Data: &ast.BIdentifier{Name: name}}}
			return p.parseArrowBody(loc, []ast.Arg{arg}, false)
		}
		return ast.Expr{Loc: loc, Data: &ast.EIdentifier{Name: name}}

	case lexer.TNumericLiteral:
		value, raw := p.lx.Number, p.lx.Raw
		p.lx.Next()
		return ast.Expr{Loc: loc, Data: &ast.ENumber{Value: value, Raw: raw}}

	case lexer.TStringLiteral:
		value := p.lx.String
		p.lx.Next()
		return ast.Expr{Loc: loc, Data: &ast.EString{Value: value}}

	case lexer.TTemplateLiteral:
		return p.parseTemplate(loc, nil)

	case lexer.TSlash, lexer.TSlashEquals:
		p.lx.RescanAsRegExp()
		raw := p.lx.Raw
		p.lx.Next()
		return ast.Expr{Loc: loc, Data: &ast.ERegExp{Raw: raw}}

	case lexer.TTrue:
		p.lx.Next()
		return ast.Expr{Loc: loc, Data: &ast.EBoolean{Value: true}}

	case lexer.TFalse:
		p.lx.Next()
		return ast.Expr{Loc: loc, Data: &ast.EBoolean{Value: false}}

	case lexer.TNull:
		p.lx.Next()
		return ast.Expr{Loc: loc, Data: &ast.ENull{}}

	case lexer.TThis:
		p.lx.Next()
		return ast.Expr{Loc: loc, Data: &ast.EThis{}}

	case lexer.TSuper:
		p.lx.Next()
		return ast.Expr{Loc: loc, Data: &ast.EIdentifier{Name: "super"}}

	case lexer.TImport:
		p.lx.Next()
		if p.lx.Token == lexer.TDot {
			p.lx.Next()
			if !p.lx.IsContextualKeyword("meta") {
				p.lx.Expected("\"meta\"")
			}
			p.lx.Next()
			return ast.Expr{Loc: loc, Data: &ast.EImportMeta{}}
		}
		p.lx.Expect(lexer.TOpenParen, "\"(\"")
		arg := p.parseExpr(ast.LComma)
		p.lx.Expect(lexer.TCloseParen, "\")\"")
		return ast.Expr{Loc: loc, Data: &ast.EImportCall{Arg: arg}}

	case lexer.TOpenParen:
		return p.parseParenExpr(loc, false)

	case lexer.TOpenBracket:
		p.lx.Next()
		items := []*ast.Expr{}
		for p.lx.Token != lexer.TCloseBracket {
			if p.lx.Token == lexer.TComma {
				items = append(items, nil)
				p.lx.Next()
				continue
			}
			if p.lx.Token == lexer.TDotDotDot {
				spreadLoc := p.loc()
				p.lx.Next()
				value := p.parseExpr(ast.LComma)
				expr := ast.Expr{Loc: spreadLoc, Data: &ast.ESpread{Value: value}}
				items = append(items, &expr)
			} else {
				expr := p.parseExpr(ast.LComma)
				items = append(items, &expr)
			}
			if p.lx.Token != lexer.TComma {
				break
			}
			p.lx.Next()
		}
		p.lx.Expect(lexer.TCloseBracket, "\"]\"")
		return ast.Expr{Loc: loc, Data: &ast.EArray{Items: items}}

	case lexer.TOpenBrace:
		return p.parseObjectLiteral(loc)

	case lexer.TFunction:
		p.lx.Next()
		isGenerator := false
		if p.lx.Token == lexer.TAsterisk {
			isGenerator = true
			p.lx.Next()
		}
		name := ""
		if p.lx.Token == lexer.TIdentifier {
			name = p.lx.Identifier
			p.lx.Next()
		}
		fn := p.parseFnRest(name, false, isGenerator)
		return ast.Expr{Loc: loc, Data: &ast.EFunction{Fn: fn}}

	case lexer.TClass:
		class := p.parseClass(false)
		return ast.Expr{Loc: loc, Data: &ast.EClass{Class: class}}

	case lexer.TNew:
		p.lx.Next()
		if p.lx.Token == lexer.TDot {
			// new.target
			p.lx.Next()
			if !p.lx.IsContextualKeyword("target") {
				p.lx.Expected("\"target\"")
			}
			p.lx.Next()
			return ast.Expr{Loc: loc, Data: &ast.EDot{
				Target: ast.Expr{Loc: loc, Data: &ast.EIdentifier{Name: "new"}},
				Name:   "target",
			}}
		}
		target := p.parseExpr(ast.LCall)
		p.maybeSkipTypeArgs()
		args := []ast.Expr{}
		if p.lx.Token == lexer.TOpenParen {
			args = p.parseCallArgs()
		}
		return ast.Expr{Loc: loc, Data: &ast.ENew{Target: target, Args: args}}

	case lexer.TMinus:
		p.lx.Next()
		return ast.Expr{Loc: loc, Data: &ast.EUnary{Op: ast.UnOpNeg, Value: p.parseExpr(ast.LPrefix)}}
	case lexer.TPlus:
		p.lx.Next()
		return ast.Expr{Loc: loc, Data: &ast.EUnary{Op: ast.UnOpPos, Value: p.parseExpr(ast.LPrefix)}}
	case lexer.TExclamation:
		p.lx.Next()
		return ast.Expr{Loc: loc, Data: &ast.EUnary{Op: ast.UnOpNot, Value: p.parseExpr(ast.LPrefix)}}
	case lexer.TTilde:
		p.lx.Next()
		return ast.Expr{Loc: loc, Data: &ast.EUnary{Op: ast.UnOpCpl, Value: p.parseExpr(ast.LPrefix)}}
	case lexer.TTypeof:
		p.lx.Next()
		return ast.Expr{Loc: loc, Data: &ast.EUnary{Op: ast.UnOpTypeof, Value: p.parseExpr(ast.LPrefix)}}
	case lexer.TVoid:
		p.lx.Next()
		return ast.Expr{Loc: loc, Data: &ast.EUnary{Op: ast.UnOpVoid, Value: p.parseExpr(ast.LPrefix)}}
	case lexer.TDelete:
		p.lx.Next()
		return ast.Expr{Loc: loc, Data: &ast.EUnary{Op: ast.UnOpDelete, Value: p.parseExpr(ast.LPrefix)}}
	case lexer.TPlusPlus:
		p.lx.Next()
		return ast.Expr{Loc: loc, Data: &ast.EUnary{Op: ast.UnOpPreInc, Value: p.parseExpr(ast.LPrefix)}}
	case lexer.TMinusMinus:
		p.lx.Next()
		return ast.Expr{Loc: loc, Data: &ast.EUnary{Op: ast.UnOpPreDec, Value: p.parseExpr(ast.LPrefix)}}
	}

	p.unexpected()
	return ast.Expr{}
}

func (p *parser) startsExprToken(t lexer.T) bool {
	switch t {
	case lexer.TIdentifier, lexer.TNumericLiteral, lexer.TStringLiteral,
		lexer.TTemplateLiteral, lexer.TOpenParen, lexer.TOpenBracket,
		lexer.TOpenBrace, lexer.TFunction, lexer.TClass, lexer.TNew,
		lexer.TThis, lexer.TSuper, lexer.TNull, lexer.TTrue, lexer.TFalse,
		lexer.TMinus, lexer.TPlus, lexer.TExclamation, lexer.TTilde,
		lexer.TTypeof, lexer.TVoid, lexer.TDelete, lexer.TPlusPlus,
		lexer.TMinusMinus, lexer.TSlash, lexer.TImport:
		return true
	}
	return false
}

// parseAsyncPrefix handles "async" in expression position: an async
// arrow, an async function expression, or just the identifier.
func (p *parser) parseAsyncPrefix(loc diag.Loc) (ast.Expr, bool) {
	trial := p.lx.Clone(nil)
	trial.Next()
	if trial.HasNewlineBefore {
		return ast.Expr{}, false
	}
	switch trial.Token {
	case lexer.TFunction:
		p.lx.Next()
		p.lx.Next()
		isGenerator := false
		if p.lx.Token == lexer.TAsterisk {
			isGenerator = true
			p.lx.Next()
		}
		name := ""
		if p.lx.Token == lexer.TIdentifier {
			name = p.lx.Identifier
			p.lx.Next()
		}
		fn := p.parseFnRest(name, true, isGenerator)
		return ast.Expr{Loc: loc, Data: &ast.EFunction{Fn: fn}}, true
	case lexer.TIdentifier:
		// "async x => ..."
		trial2 := trial.Clone(nil)
		name := trial.Identifier
		trial2.Next()
		if trial2.Token == lexer.TArrow {
			p.lx.Next()
			argLoc := p.loc()
			p.lx.Next()
			arg := ast.Arg{Binding: ast.Binding{Loc: argLoc, Data: &ast.BIdentifier{Name: name}}}
			return p.parseArrowBody(loc, []ast.Arg{arg}, true), true
		}
	case lexer.TOpenParen:
		p.lx.Next()
		return p.parseParenExpr(loc, true), true
	}
	return ast.Expr{}, false
}

// parseParenExpr parses a parenthesized expression or an arrow
// function parameter list, using the ECMAScript cover grammar: the
// contents are parsed as expressions first and converted to bindings
// if an arrow follows.
func (p *parser) parseParenExpr(loc diag.Loc, isAsync bool) ast.Expr {
	p.lx.Expect(lexer.TOpenParen, "\"(\"")

	items := []ast.Expr{}
	for p.lx.Token != lexer.TCloseParen {
		itemLoc := p.loc()
		if p.lx.Token == lexer.TDotDotDot {
			p.lx.Next()
			value := p.parseExpr(ast.LComma)
			items = append(items, ast.Expr{Loc: itemLoc, Data: &ast.ESpread{Value: value}})
		} else {
			items = append(items, p.parseExpr(ast.LComma))
		}
		// A "?" or ":" after a parameter name can only be TypeScript
		// annotations on an arrow parameter.
		if p.lx.Token == lexer.TQuestion {
			p.lx.Next()
		}
		if p.lx.Token == lexer.TColon {
			p.lx.Next()
			p.skipType()
			if p.lx.Token == lexer.TEquals {
				p.lx.Next()
				def := p.parseExpr(ast.LComma)
				last := items[len(items)-1]
				items[len(items)-1] = ast.Expr{Loc: last.Loc, Data: &ast.EBinary{
					Op: ast.BinOpAssign, Left: last, Right: def,
				}}
			}
		}
		if p.lx.Token != lexer.TComma {
			break
		}
		p.lx.Next()
	}
	p.lx.Expect(lexer.TCloseParen, "\")\"")

	// Arrow return type annotation forces an arrow function.
	if p.lx.Token == lexer.TColon {
		p.lx.Next()
		p.skipType()
		if p.lx.Token != lexer.TArrow {
			p.lx.Expected("\"=>\"")
		}
	}
	if p.lx.Token == lexer.TArrow {
		args := make([]ast.Arg, 0, len(items))
		for _, item := range items {
			args = append(args, p.exprToArg(item))
		}
		return p.parseArrowBody(loc, args, isAsync)
	}

	if len(items) == 0 {
		p.lx.Expected("\"=>\"")
	}
	expr := items[0]
	for _, item := range items[1:] {
		expr = ast.Expr{Loc: loc, Data: &ast.EBinary{Op: ast.BinOpComma, Left: expr, Right: item}}
	}
	return expr
}

func (p *parser) parseArrowBody(loc diag.Loc, args []ast.Arg, isAsync bool) ast.Expr {
	p.lx.Expect(lexer.TArrow, "\"=>\"")
	fn := ast.Fn{Args: args, IsAsync: isAsync, IsArrow: true}
	if p.lx.Token == lexer.TOpenBrace {
		p.lx.Next()
		fn.Body = p.parseStmtsUpTo(lexer.TCloseBrace, false)
		if fn.Body == nil {
			fn.Body = []ast.Stmt{}
		}
		p.lx.Next()
	} else {
		body := p.parseExpr(ast.LComma)
		fn.ArrowExprBody = &body
	}
	return ast.Expr{Loc: loc, Data: &ast.EArrow{Fn: fn}}
}

// exprToArg converts a cover-grammar expression into an arrow
// function parameter.
func (p *parser) exprToArg(expr ast.Expr) ast.Arg {
	switch d := expr.Data.(type) {
	case *ast.ESpread:
		arg := p.exprToArg(d.Value)
		arg.IsRest = true
		return arg
	case *ast.EBinary:
		if d.Op == ast.BinOpAssign {
			arg := p.exprToArg(d.Left)
			def := d.Right
			arg.Default = &def
			return arg
		}
	}
	return ast.Arg{Binding: p.exprToBinding(expr)}
}

// exprToBinding converts a cover-grammar expression into a binding
// pattern. It rejects expressions that are not valid targets.
func (p *parser) exprToBinding(expr ast.Expr) ast.Binding {
	switch d := expr.Data.(type) {
	case *ast.EIdentifier:
		return ast.Binding{Loc: expr.Loc, Data: &ast.BIdentifier{Name: d.Name}}

	case *ast.EArray:
		items := make([]ast.ArrayBinding, 0, len(d.Items))
		for _, item := range d.Items {
			if item == nil {
				items = append(items, ast.ArrayBinding{})
				continue
			}
			ab := ast.ArrayBinding{}
			inner := *item
			if spread, isSpread := inner.Data.(*ast.ESpread); isSpread {
				ab.IsRest = true
				inner = spread.Value
			}
			if assign, isAssign := inner.Data.(*ast.EBinary); isAssign && assign.Op == ast.BinOpAssign {
				def := assign.Right
				ab.Default = &def
				inner = assign.Left
			}
			binding := p.exprToBinding(inner)
			ab.Binding = &binding
			items = append(items, ab)
		}
		return ast.Binding{Loc: expr.Loc, Data: &ast.BArray{Items: items}}

	case *ast.EObject:
		props := make([]ast.PropertyBinding, 0, len(d.Properties))
		for _, prop := range d.Properties {
			pb := ast.PropertyBinding{Key: prop.Key, IsComputed: prop.IsComputed}
			if prop.Kind == ast.PropertySpread {
				pb.IsSpread = true
				pb.Value = p.exprToBinding(*prop.Value)
				props = append(props, pb)
				continue
			}
			value := *prop.Value
			if assign, isAssign := value.Data.(*ast.EBinary); isAssign && assign.Op == ast.BinOpAssign {
				def := assign.Right
				pb.Default = &def
				value = assign.Left
			}
			pb.Value = p.exprToBinding(value)
			props = append(props, pb)
		}
		return ast.Binding{Loc: expr.Loc, Data: &ast.BObject{Properties: props}}
	}
	p.lx.SyntaxError(expr.Loc, "invalid binding pattern")
	return ast.Binding{}
}

func (p *parser) parseObjectLiteral(loc diag.Loc) ast.Expr {
	p.lx.Expect(lexer.TOpenBrace, "\"{\"")
	props := []ast.Property{}
	for p.lx.Token != lexer.TCloseBrace {
		prop := p.parseObjectProperty()
		props = append(props, prop)
		if p.lx.Token != lexer.TComma {
			break
		}
		p.lx.Next()
	}
	p.lx.Expect(lexer.TCloseBrace, "\"}\"")
	return ast.Expr{Loc: loc, Data: &ast.EObject{Properties: props}}
}

func (p *parser) parseObjectProperty() ast.Property {
	prop := ast.Property{}
	keyLoc := p.loc()

	if p.lx.Token == lexer.TDotDotDot {
		p.lx.Next()
		value := p.parseExpr(ast.LComma)
		prop.Kind = ast.PropertySpread
		prop.Value = &value
		return prop
	}

	isAsync := false
	isGenerator := false
	if p.lx.IsContextualKeyword("async") && !p.nextIsPropertyEnd() {
		isAsync = true
		p.lx.Next()
	}
	if (p.lx.IsContextualKeyword("get") || p.lx.IsContextualKeyword("set")) && !p.nextIsPropertyEnd() {
		if p.lx.Identifier == "get" {
			prop.Kind = ast.PropertyGet
		} else {
			prop.Kind = ast.PropertySet
		}
		p.lx.Next()
	}
	if p.lx.Token == lexer.TAsterisk {
		isGenerator = true
		p.lx.Next()
	}

	keyLoc = p.loc()
	switch p.lx.Token {
	case lexer.TOpenBracket:
		p.lx.Next()
		prop.IsComputed = true
		prop.Key = p.parseExpr(ast.LComma)
		p.lx.Expect(lexer.TCloseBracket, "\"]\"")
	case lexer.TStringLiteral:
		prop.Key = ast.Expr{Loc: keyLoc, Data: &ast.EString{Value: p.lx.String}}
		p.lx.Next()
	case lexer.TNumericLiteral:
		prop.Key = ast.Expr{Loc: keyLoc, Data: &ast.ENumber{Value: p.lx.Number, Raw: p.lx.Raw}}
		p.lx.Next()
	default:
		name := p.lx.Identifier
		if name == "" {
			p.lx.Expected("property name")
		}
		prop.Key = ast.Expr{Loc: keyLoc, Data: &ast.EString{Value: name}}
		p.lx.Next()
		if prop.Kind == ast.PropertyNormal && !isAsync && !isGenerator &&
			p.lx.Token != lexer.TColon && p.lx.Token != lexer.TOpenParen && p.lx.Token != lexer.TLessThan {
			// shorthand: "{ x }" or "{ x = default }"
			value := ast.Expr{Loc: keyLoc, Data: &ast.EIdentifier{Name: name}}
			if p.lx.Token == lexer.TEquals {
				p.lx.Next()
				def := p.parseExpr(ast.LComma)
				value = ast.Expr{Loc: keyLoc, Data: &ast.EBinary{Op: ast.BinOpAssign, Left: value, Right: def}}
			}
			prop.Value = &value
			prop.WasShorthand = true
			return prop
		}
	}

	if p.lx.Token == lexer.TOpenParen || p.lx.Token == lexer.TLessThan {
		fn := p.parseFnRest("", isAsync, isGenerator)
		prop.IsMethod = prop.Kind == ast.PropertyNormal
		prop.Fn = &fn
		return prop
	}

	p.lx.Expect(lexer.TColon, "\":\"")
	value := p.parseExpr(ast.LComma)
	prop.Value = &value
	return prop
}

func (p *parser) nextIsPropertyEnd() bool {
	trial := p.lx.Clone(nil)
	trial.Next()
	switch trial.Token {
	case lexer.TColon, lexer.TComma, lexer.TCloseBrace, lexer.TOpenParen, lexer.TEquals:
		return true
	}
	return false
}

func (p *parser) parseTemplate(loc diag.Loc, tag *ast.Expr) ast.Expr {
	parts := make([]ast.TemplatePart, 0, len(p.lx.TemplateParts))
	for _, part := range p.lx.TemplateParts {
		tp := ast.TemplatePart{Cooked: part.Raw}
		if part.HasExpr {
			sub := &parser{log: p.log, source: p.source, allowIn: true}
			sub.lx = lexer.NewAt(p.log, p.source, int(part.ExprStart))
			expr := sub.parseExpr(ast.LLowest)
			tp.Expr = &expr
		}
		parts = append(parts, tp)
	}
	p.lx.Next()
	return ast.Expr{Loc: loc, Data: &ast.ETemplate{Tag: tag, Parts: parts}}
}

func (p *parser) parseCallArgs() []ast.Expr {
	p.lx.Expect(lexer.TOpenParen, "\"(\"")
	args := []ast.Expr{}
	for p.lx.Token != lexer.TCloseParen {
		argLoc := p.loc()
		if p.lx.Token == lexer.TDotDotDot {
			p.lx.Next()
			value := p.parseExpr(ast.LComma)
			args = append(args, ast.Expr{Loc: argLoc, Data: &ast.ESpread{Value: value}})
		} else {
			args = append(args, p.parseExpr(ast.LComma))
		}
		if p.lx.Token != lexer.TComma {
			break
		}
		p.lx.Next()
	}
	p.lx.Expect(lexer.TCloseParen, "\")\"")
	return args
}

var tokenToBinOp = map[lexer.T]ast.BinOp{
	lexer.TComma:                  ast.BinOpComma,
	lexer.TEquals:                 ast.BinOpAssign,
	lexer.TPlusEquals:             ast.BinOpAddAssign,
	lexer.TMinusEquals:            ast.BinOpSubAssign,
	lexer.TAsteriskEquals:         ast.BinOpMulAssign,
	lexer.TAsteriskAsteriskEquals: ast.BinOpPowAssign,
	lexer.TSlashEquals:            ast.BinOpDivAssign,
	lexer.TPercentEquals:          ast.BinOpRemAssign,
	lexer.TLessThanLessThanEquals: ast.BinOpShlAssign,
	lexer.TGreaterThanGreaterThanEquals:            ast.BinOpShrAssign,
	lexer.TGreaterThanGreaterThanGreaterThanEquals: ast.BinOpUShrAssign,
	lexer.TAmpersandEquals:                         ast.BinOpBitAndAssign,
	lexer.TBarEquals:                               ast.BinOpBitOrAssign,
	lexer.TCaretEquals:                             ast.BinOpBitXorAssign,
	lexer.TAmpersandAmpersandEquals:                ast.BinOpLogicalAndAssign,
	lexer.TBarBarEquals:                            ast.BinOpLogicalOrAssign,
	lexer.TQuestionQuestionEquals:                  ast.BinOpNullishAssign,
	lexer.TQuestionQuestion:                        ast.BinOpNullishCoalescing,
	lexer.TBarBar:                                  ast.BinOpLogicalOr,
	lexer.TAmpersandAmpersand:                      ast.BinOpLogicalAnd,
	lexer.TBar:                                     ast.BinOpBitOr,
	lexer.TCaret:                                   ast.BinOpBitXor,
	lexer.TAmpersand:                               ast.BinOpBitAnd,
	lexer.TEqualsEquals:                            ast.BinOpLooseEq,
	lexer.TExclamationEquals:                       ast.BinOpLooseNe,
	lexer.TEqualsEqualsEquals:                      ast.BinOpStrictEq,
	lexer.TExclamationEqualsEquals:                 ast.BinOpStrictNe,
	lexer.TLessThan:                                ast.BinOpLt,
	lexer.TLessThanEquals:                          ast.BinOpLe,
	lexer.TGreaterThan:                             ast.BinOpGt,
	lexer.TGreaterThanEquals:                       ast.BinOpGe,
	lexer.TIn:                                      ast.BinOpIn,
	lexer.TInstanceof:                              ast.BinOpInstanceof,
	lexer.TLessThanLessThan:                        ast.BinOpShl,
	lexer.TGreaterThanGreaterThan:                  ast.BinOpShr,
	lexer.TGreaterThanGreaterThanGreaterThan:       ast.BinOpUShr,
	lexer.TPlus:                                    ast.BinOpAdd,
	lexer.TMinus:                                   ast.BinOpSub,
	lexer.TAsterisk:                                ast.BinOpMul,
	lexer.TSlash:                                   ast.BinOpDiv,
	lexer.TPercent:                                 ast.BinOpRem,
	lexer.TAsteriskAsterisk:                        ast.BinOpPow,
}

func (p *parser) parseSuffix(left ast.Expr, level ast.L) ast.Expr {
	for {
		switch p.lx.Token {
		case lexer.TDot:
			p.lx.Next()
			if p.lx.Identifier == "" {
				p.lx.Expected("property name")
			}
			left = ast.Expr{Loc: left.Loc, Data: &ast.EDot{Target: left, Name: p.lx.Identifier}}
			p.lx.Next()
			continue

		case lexer.TQuestionDot:
			p.lx.Next()
			switch p.lx.Token {
			case lexer.TOpenBracket:
				p.lx.Next()
				index := p.parseExpr(ast.LLowest)
				p.lx.Expect(lexer.TCloseBracket, "\"]\"")
				left = ast.Expr{Loc: left.Loc, Data: &ast.EIndex{Target: left, Index: index, OptionalChain: true}}
			case lexer.TOpenParen:
				args := p.parseCallArgs()
				left = ast.Expr{Loc: left.Loc, Data: &ast.ECall{Target: left, Args: args, OptionalChain: true}}
			default:
				if p.lx.Identifier == "" {
					p.lx.Expected("property name")
				}
				left = ast.Expr{Loc: left.Loc, Data: &ast.EDot{Target: left, Name: p.lx.Identifier, OptionalChain: true}}
				p.lx.Next()
			}
			continue

		case lexer.TOpenBracket:
			p.lx.Next()
			index := p.parseExpr(ast.LLowest)
			p.lx.Expect(lexer.TCloseBracket, "\"]\"")
			left = ast.Expr{Loc: left.Loc, Data: &ast.EIndex{Target: left, Index: index}}
			continue

		case lexer.TOpenParen:
			if level >= ast.LCall {
				return left
			}
			args := p.parseCallArgs()
			left = ast.Expr{Loc: left.Loc, Data: &ast.ECall{Target: left, Args: args}}
			continue

		case lexer.TTemplateLiteral:
			if level >= ast.LCall {
				return left
			}
			tag := left
			left = p.parseTemplate(left.Loc, &tag)
			continue

		case lexer.TPlusPlus:
			if p.lx.HasNewlineBefore || level >= ast.LPostfix {
				return left
			}
			p.lx.Next()
			left = ast.Expr{Loc: left.Loc, Data: &ast.EUnary{Op: ast.UnOpPostInc, Value: left}}
			continue

		case lexer.TMinusMinus:
			if p.lx.HasNewlineBefore || level >= ast.LPostfix {
				return left
			}
			p.lx.Next()
			left = ast.Expr{Loc: left.Loc, Data: &ast.EUnary{Op: ast.UnOpPostDec, Value: left}}
			continue

		case lexer.TExclamation:
			// TypeScript non-null assertion
			if p.lx.HasNewlineBefore || level >= ast.LPostfix {
				return left
			}
			p.lx.Next()
			continue

		case lexer.TQuestion:
			if ast.LConditional <= level {
				return left
			}
			p.lx.Next()
			yes := p.parseExpr(ast.LComma)
			p.lx.Expect(lexer.TColon, "\":\"")
			no := p.parseExpr(ast.LComma)
			left = ast.Expr{Loc: left.Loc, Data: &ast.ECond{Test: left, Yes: yes, No: no}}
			continue

		case lexer.TIdentifier:
			if (p.lx.Identifier == "as" || p.lx.Identifier == "satisfies") &&
				!p.lx.HasNewlineBefore && ast.LCompare > level {
				p.lx.Next()
				p.skipType()
				continue
			}
			return left

		case lexer.TLessThan:
			// could be a comparison or TypeScript type arguments on a call
			if consumed := p.maybeSkipCallTypeArgs(); consumed {
				continue
			}
		}

		op, isBinOp := tokenToBinOp[p.lx.Token]
		if !isBinOp {
			return left
		}
		if op == ast.BinOpIn && !p.allowIn {
			return left
		}
		opLevel := op.Level()
		if opLevel <= level {
			return left
		}
		p.lx.Next()
		rightLevel := opLevel
		if op.IsRightAssoc() {
			rightLevel--
		}
		right := p.parseExpr(rightLevel)
		left = ast.Expr{Loc: left.Loc, Data: &ast.EBinary{Op: op, Left: left, Right: right}}
	}
}
