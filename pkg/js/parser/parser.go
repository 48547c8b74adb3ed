// Package parser implements a recursive-descent parser for the
// ES2020-era grammar plus TypeScript's erasable syntax. Type
// annotations are skipped at parse time; statement-level TypeScript
// constructs (interfaces, type aliases, enums, parameter properties)
// are materialized as AST nodes for the erasure pass to remove or
// lower.
package parser

import (
	"fmt"

	"github.com/kyunghoon/twasm/pkg/diag"
	"github.com/kyunghoon/twasm/pkg/js/ast"
	"github.com/kyunghoon/twasm/pkg/js/lexer"
)

type parser struct {
	log     *diag.Log
	source  diag.Source
	lx      *lexer.Lexer
	allowIn bool
}

// Parse parses one module. It returns ok=false when a syntax error
// was recorded in the log; the returned module is nil in that case.
func Parse(log *diag.Log, source diag.Source) (module *ast.Module, ok bool) {
	p := &parser{
		log:     log,
		source:  source,
		allowIn: true,
	}
	defer func() {
		if r := recover(); r != nil {
			if _, isPanic := r.(lexer.PanicError); isPanic {
				module = nil
				ok = false
				return
			}
			panic(r)
		}
	}()
	p.lx = lexer.New(log, source)
	stmts := p.parseStmtsUpTo(lexer.TEndOfFile, true)
	return &ast.Module{Stmts: stmts}, !log.HasErrors()
}

func (p *parser) loc() diag.Loc {
	return p.lx.Loc()
}

// parseStmtsUpTo parses statements until the end token, turning
// leading string-literal statements into directives.
func (p *parser) parseStmtsUpTo(end lexer.T, topLevel bool) []ast.Stmt {
	stmts := []ast.Stmt{}
	isDirectivePrologue := true
	for p.lx.Token != end {
		stmt := p.parseStmt(topLevel)
		if isDirectivePrologue {
			if expr, isExpr := stmt.Data.(*ast.SExpr); isExpr {
				if str, isStr := expr.Value.Data.(*ast.EString); isStr {
					stmt = ast.Stmt{Loc: stmt.Loc, Data: &ast.SDirective{Value: str.Value}}
					stmts = append(stmts, stmt)
					continue
				}
			}
			isDirectivePrologue = false
		}
		stmts = append(stmts, stmt)
	}
	return stmts
}

func (p *parser) semicolonOrASI() {
	switch p.lx.Token {
	case lexer.TSemicolon:
		p.lx.Next()
	case lexer.TCloseBrace, lexer.TEndOfFile:
	default:
		if !p.lx.HasNewlineBefore {
			p.lx.Expected("\";\"")
		}
	}
}

func (p *parser) parseStmt(topLevel bool) ast.Stmt {
	loc := p.loc()

	switch p.lx.Token {
	case lexer.TSemicolon:
		p.lx.Next()
		return ast.Stmt{Loc: loc, Data: &ast.SEmpty{}}

	case lexer.TDebugger:
		p.lx.Next()
		p.semicolonOrASI()
		return ast.Stmt{Loc: loc, Data: &ast.SDebugger{}}

	case lexer.TOpenBrace:
		p.lx.Next()
		stmts := p.parseStmtsUpTo(lexer.TCloseBrace, false)
		p.lx.Next()
		return ast.Stmt{Loc: loc, Data: &ast.SBlock{Stmts: stmts}}

	case lexer.TVar:
		p.lx.Next()
		decls := p.parseDecls()
		p.semicolonOrASI()
		return ast.Stmt{Loc: loc, Data: &ast.SVar{Kind: ast.VarVar, Decls: decls}}

	case lexer.TConst:
		p.lx.Next()
		if p.lx.Token == lexer.TEnum {
			return p.parseEnum(loc, false, true)
		}
		decls := p.parseDecls()
		p.semicolonOrASI()
		return ast.Stmt{Loc: loc, Data: &ast.SVar{Kind: ast.VarConst, Decls: decls}}

	case lexer.TEnum:
		return p.parseEnum(loc, false, false)

	case lexer.TFunction:
		return p.parseFnStmt(loc, false)

	case lexer.TClass:
		class := p.parseClass(true)
		return ast.Stmt{Loc: loc, Data: &ast.SClass{Class: class}}

	case lexer.TIf:
		p.lx.Next()
		p.lx.Expect(lexer.TOpenParen, "\"(\"")
		test := p.parseExpr(ast.LLowest)
		p.lx.Expect(lexer.TCloseParen, "\")\"")
		yes := p.parseStmt(false)
		var no *ast.Stmt
		if p.lx.Token == lexer.TElse {
			p.lx.Next()
			stmt := p.parseStmt(false)
			no = &stmt
		}
		return ast.Stmt{Loc: loc, Data: &ast.SIf{Test: test, Yes: yes, No: no}}

	case lexer.TFor:
		return p.parseFor(loc)

	case lexer.TWhile:
		p.lx.Next()
		p.lx.Expect(lexer.TOpenParen, "\"(\"")
		test := p.parseExpr(ast.LLowest)
		p.lx.Expect(lexer.TCloseParen, "\")\"")
		body := p.parseStmt(false)
		return ast.Stmt{Loc: loc, Data: &ast.SWhile{Test: test, Body: body}}

	case lexer.TDo:
		p.lx.Next()
		body := p.parseStmt(false)
		p.lx.Expect(lexer.TWhile, "\"while\"")
		p.lx.Expect(lexer.TOpenParen, "\"(\"")
		test := p.parseExpr(ast.LLowest)
		p.lx.Expect(lexer.TCloseParen, "\")\"")
		if p.lx.Token == lexer.TSemicolon {
			p.lx.Next()
		}
		return ast.Stmt{Loc: loc, Data: &ast.SDoWhile{Body: body, Test: test}}

	case lexer.TReturn:
		p.lx.Next()
		var value *ast.Expr
		if p.lx.Token != lexer.TSemicolon && p.lx.Token != lexer.TCloseBrace &&
			p.lx.Token != lexer.TEndOfFile && !p.lx.HasNewlineBefore {
			expr := p.parseExpr(ast.LLowest)
			value = &expr
		}
		p.semicolonOrASI()
		return ast.Stmt{Loc: loc, Data: &ast.SReturn{Value: value}}

	case lexer.TThrow:
		p.lx.Next()
		if p.lx.HasNewlineBefore {
			p.lx.SyntaxError(loc, "unexpected newline after \"throw\"")
		}
		value := p.parseExpr(ast.LLowest)
		p.semicolonOrASI()
		return ast.Stmt{Loc: loc, Data: &ast.SThrow{Value: value}}

	case lexer.TBreak, lexer.TContinue:
		isBreak := p.lx.Token == lexer.TBreak
		p.lx.Next()
		label := ""
		if p.lx.Token == lexer.TIdentifier && !p.lx.HasNewlineBefore {
			label = p.lx.Identifier
			p.lx.Next()
		}
		p.semicolonOrASI()
		if isBreak {
			return ast.Stmt{Loc: loc, Data: &ast.SBreak{Label: label}}
		}
		return ast.Stmt{Loc: loc, Data: &ast.SContinue{Label: label}}

	case lexer.TTry:
		return p.parseTry(loc)

	case lexer.TSwitch:
		return p.parseSwitch(loc)

	case lexer.TImport:
		if !topLevel {
			p.lx.SyntaxError(loc, "import declarations must appear at top level")
		}
		return p.parseImport(loc)

	case lexer.TExport:
		if !topLevel {
			p.lx.SyntaxError(loc, "export declarations must appear at top level")
		}
		return p.parseExport(loc)

	case lexer.TAt:
		p.lx.SyntaxError(loc, "decorators are not supported")

	case lexer.TIdentifier:
		switch p.lx.Identifier {
		case "let":
			if stmt, isDecl := p.parseLetStmt(loc); isDecl {
				return stmt
			}
		case "async":
			if stmt, isFn := p.parseAsyncFnStmt(loc); isFn {
				return stmt
			}
		case "interface":
			if stmt, isTS := p.parseInterface(loc, false); isTS {
				return stmt
			}
		case "type":
			if stmt, isTS := p.parseTypeAlias(loc, false); isTS {
				return stmt
			}
		case "declare":
			if stmt, isTS := p.parseDeclare(loc, false); isTS {
				return stmt
			}
		case "namespace", "module":
			if p.isNamespaceAhead() {
				p.lx.SyntaxError(loc, "TypeScript namespaces are not supported")
			}
		case "abstract":
			if stmt, isTS := p.parseAbstractClass(loc, false); isTS {
				return stmt
			}
		}
	}

	// Expression statement, possibly a label.
	expr := p.parseExpr(ast.LLowest)
	if ident, isIdent := expr.Data.(*ast.EIdentifier); isIdent && p.lx.Token == lexer.TColon {
		p.lx.Next()
		stmt := p.parseStmt(false)
		return ast.Stmt{Loc: loc, Data: &ast.SLabel{Name: ident.Name, Stmt: stmt}}
	}
	p.semicolonOrASI()
	return ast.Stmt{Loc: loc, Data: &ast.SExpr{Value: expr}}
}

func (p *parser) parseLetStmt(loc diag.Loc) (ast.Stmt, bool) {
	trial := p.lx.Clone(nil)
	trial.Next()
	switch trial.Token {
	case lexer.TIdentifier, lexer.TOpenBracket, lexer.TOpenBrace:
	default:
		return ast.Stmt{}, false
	}
	p.lx.Next()
	decls := p.parseDecls()
	p.semicolonOrASI()
	return ast.Stmt{Loc: loc, Data: &ast.SVar{Kind: ast.VarLet, Decls: decls}}, true
}

func (p *parser) parseAsyncFnStmt(loc diag.Loc) (ast.Stmt, bool) {
	trial := p.lx.Clone(nil)
	trial.Next()
	if trial.Token != lexer.TFunction || trial.HasNewlineBefore {
		return ast.Stmt{}, false
	}
	p.lx.Next() // async
	stmt := p.parseFnStmt(loc, true)
	return stmt, true
}

func (p *parser) parseFnStmt(loc diag.Loc, isAsync bool) ast.Stmt {
	p.lx.Expect(lexer.TFunction, "\"function\"")
	isGenerator := false
	if p.lx.Token == lexer.TAsterisk {
		isGenerator = true
		p.lx.Next()
	}
	if p.lx.Token != lexer.TIdentifier {
		p.lx.Expected("function name")
	}
	name := p.lx.Identifier
	p.lx.Next()
	fn := p.parseFnRest(name, isAsync, isGenerator)
	return ast.Stmt{Loc: loc, Data: &ast.SFunction{Fn: fn}}
}

// parseFnRest parses everything after the function name: optional
// type parameters, the argument list, an optional return type, and
// the body.
func (p *parser) parseFnRest(name string, isAsync, isGenerator bool) ast.Fn {
	p.maybeSkipTypeParams()
	args := p.parseFnArgs()
	if p.lx.Token == lexer.TColon {
		p.lx.Next()
		p.skipType()
	}
	if p.lx.Token == lexer.TSemicolon || (p.lx.Token != lexer.TOpenBrace && p.lx.HasNewlineBefore) {
		// declaration without a body (overload signature); the erasure
		// pass drops statements with nil bodies
		p.semicolonOrASI()
		return ast.Fn{Name: name, Args: args, IsAsync: isAsync, IsGenerator: isGenerator, Body: nil}
	}
	p.lx.Expect(lexer.TOpenBrace, "\"{\"")
	body := p.parseStmtsUpTo(lexer.TCloseBrace, false)
	p.lx.Next()
	if body == nil {
		body = []ast.Stmt{}
	}
	return ast.Fn{Name: name, Args: args, Body: body, IsAsync: isAsync, IsGenerator: isGenerator}
}

func (p *parser) parseFnArgs() []ast.Arg {
	p.lx.Expect(lexer.TOpenParen, "\"(\"")
	args := []ast.Arg{}
	for p.lx.Token != lexer.TCloseParen {
		arg := ast.Arg{}
		if p.lx.Token == lexer.TDotDotDot {
			p.lx.Next()
			arg.IsRest = true
		}
		if p.lx.Token == lexer.TIdentifier {
			switch p.lx.Identifier {
			case "public", "private", "protected", "readonly":
				trial := p.lx.Clone(nil)
				modifier := p.lx.Identifier
				trial.Next()
				if trial.Token == lexer.TIdentifier || trial.Identifier == "readonly" {
					arg.TSAccessModifier = modifier
					p.lx.Next()
					if p.lx.IsContextualKeyword("readonly") && modifier != "readonly" {
						p.lx.Next()
					}
				}
			}
		}
		if p.lx.Token == lexer.TThis {
			// "this" parameter is type-only
			p.lx.Next()
			if p.lx.Token == lexer.TColon {
				p.lx.Next()
				p.skipType()
			}
			if p.lx.Token == lexer.TComma {
				p.lx.Next()
			}
			continue
		}
		arg.Binding = p.parseBinding()
		if p.lx.Token == lexer.TQuestion {
			p.lx.Next()
		}
		if p.lx.Token == lexer.TColon {
			p.lx.Next()
			p.skipType()
		}
		if p.lx.Token == lexer.TEquals {
			p.lx.Next()
			def := p.parseExpr(ast.LComma)
			arg.Default = &def
		}
		args = append(args, arg)
		if p.lx.Token != lexer.TComma {
			break
		}
		p.lx.Next()
	}
	p.lx.Expect(lexer.TCloseParen, "\")\"")
	return args
}

func (p *parser) parseDecls() []ast.Decl {
	decls := []ast.Decl{}
	for {
		binding := p.parseBinding()
		if p.lx.Token == lexer.TExclamation && !p.lx.HasNewlineBefore {
			// definite assignment assertion
			p.lx.Next()
		}
		if p.lx.Token == lexer.TColon {
			p.lx.Next()
			p.skipType()
		}
		var value *ast.Expr
		if p.lx.Token == lexer.TEquals {
			p.lx.Next()
			expr := p.parseExpr(ast.LComma)
			value = &expr
		}
		decls = append(decls, ast.Decl{Binding: binding, Value: value})
		if p.lx.Token != lexer.TComma {
			break
		}
		p.lx.Next()
	}
	return decls
}

func (p *parser) parseBinding() ast.Binding {
	loc := p.loc()
	switch p.lx.Token {
	case lexer.TIdentifier:
		name := p.lx.Identifier
		p.lx.Next()
		return ast.Binding{Loc: loc, Data: &ast.BIdentifier{Name: name}}

	case lexer.TOpenBracket:
		p.lx.Next()
		items := []ast.ArrayBinding{}
		for p.lx.Token != lexer.TCloseBracket {
			if p.lx.Token == lexer.TComma {
				items = append(items, ast.ArrayBinding{})
				p.lx.Next()
				continue
			}
			item := ast.ArrayBinding{}
			if p.lx.Token == lexer.TDotDotDot {
				p.lx.Next()
				item.IsRest = true
			}
			binding := p.parseBinding()
			item.Binding = &binding
			if p.lx.Token == lexer.TEquals {
				p.lx.Next()
				def := p.parseExpr(ast.LComma)
				item.Default = &def
			}
			items = append(items, item)
			if p.lx.Token != lexer.TComma {
				break
			}
			p.lx.Next()
		}
		p.lx.Expect(lexer.TCloseBracket, "\"]\"")
		return ast.Binding{Loc: loc, Data: &ast.BArray{Items: items}}

	case lexer.TOpenBrace:
		p.lx.Next()
		props := []ast.PropertyBinding{}
		for p.lx.Token != lexer.TCloseBrace {
			prop := ast.PropertyBinding{}
			if p.lx.Token == lexer.TDotDotDot {
				p.lx.Next()
				prop.IsSpread = true
				prop.Value = p.parseBinding()
				props = append(props, prop)
				if p.lx.Token == lexer.TComma {
					p.lx.Next()
				}
				continue
			}
			keyLoc := p.loc()
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
				if p.lx.Token != lexer.TColon {
					// shorthand binding
					prop.Value = ast.Binding{Loc: keyLoc, Data: &ast.BIdentifier{Name: name}}
					if p.lx.Token == lexer.TEquals {
						p.lx.Next()
						def := p.parseExpr(ast.LComma)
						prop.Default = &def
					}
					props = append(props, prop)
					if p.lx.Token == lexer.TComma {
						p.lx.Next()
					}
					continue
				}
			}
			p.lx.Expect(lexer.TColon, "\":\"")
			prop.Value = p.parseBinding()
			if p.lx.Token == lexer.TEquals {
				p.lx.Next()
				def := p.parseExpr(ast.LComma)
				prop.Default = &def
			}
			props = append(props, prop)
			if p.lx.Token != lexer.TComma {
				break
			}
			p.lx.Next()
		}
		p.lx.Expect(lexer.TCloseBrace, "\"}\"")
		return ast.Binding{Loc: loc, Data: &ast.BObject{Properties: props}}
	}
	p.lx.Expected("binding pattern")
	return ast.Binding{}
}

func (p *parser) parseFor(loc diag.Loc) ast.Stmt {
	p.lx.Next()
	p.lx.Expect(lexer.TOpenParen, "\"(\"")

	var init *ast.Stmt
	if p.lx.Token != lexer.TSemicolon {
		initLoc := p.loc()
		var initStmt ast.Stmt
		switch {
		case p.lx.Token == lexer.TVar:
			p.lx.Next()
			p.allowIn = false
			decls := p.parseDecls()
			p.allowIn = true
			initStmt = ast.Stmt{Loc: initLoc, Data: &ast.SVar{Kind: ast.VarVar, Decls: decls}}
		case p.lx.Token == lexer.TConst:
			p.lx.Next()
			p.allowIn = false
			decls := p.parseDecls()
			p.allowIn = true
			initStmt = ast.Stmt{Loc: initLoc, Data: &ast.SVar{Kind: ast.VarConst, Decls: decls}}
		case p.lx.IsContextualKeyword("let"):
			p.lx.Next()
			p.allowIn = false
			decls := p.parseDecls()
			p.allowIn = true
			initStmt = ast.Stmt{Loc: initLoc, Data: &ast.SVar{Kind: ast.VarLet, Decls: decls}}
		default:
			p.allowIn = false
			expr := p.parseExpr(ast.LLowest)
			p.allowIn = true
			initStmt = ast.Stmt{Loc: initLoc, Data: &ast.SExpr{Value: expr}}
		}
		init = &initStmt

		if p.lx.Token == lexer.TIn {
			p.lx.Next()
			value := p.parseExpr(ast.LLowest)
			p.lx.Expect(lexer.TCloseParen, "\")\"")
			body := p.parseStmt(false)
			return ast.Stmt{Loc: loc, Data: &ast.SForIn{Init: initStmt, Value: value, Body: body}}
		}
		if p.lx.IsContextualKeyword("of") {
			p.lx.Next()
			value := p.parseExpr(ast.LComma)
			p.lx.Expect(lexer.TCloseParen, "\")\"")
			body := p.parseStmt(false)
			return ast.Stmt{Loc: loc, Data: &ast.SForOf{Init: initStmt, Value: value, Body: body}}
		}
	}

	p.lx.Expect(lexer.TSemicolon, "\";\"")
	var test *ast.Expr
	if p.lx.Token != lexer.TSemicolon {
		expr := p.parseExpr(ast.LLowest)
		test = &expr
	}
	p.lx.Expect(lexer.TSemicolon, "\";\"")
	var update *ast.Expr
	if p.lx.Token != lexer.TCloseParen {
		expr := p.parseExpr(ast.LLowest)
		update = &expr
	}
	p.lx.Expect(lexer.TCloseParen, "\")\"")
	body := p.parseStmt(false)
	return ast.Stmt{Loc: loc, Data: &ast.SFor{Init: init, Test: test, Update: update, Body: body}}
}

func (p *parser) parseTry(loc diag.Loc) ast.Stmt {
	p.lx.Next()
	p.lx.Expect(lexer.TOpenBrace, "\"{\"")
	body := p.parseStmtsUpTo(lexer.TCloseBrace, false)
	p.lx.Next()

	var catch *ast.Catch
	var finally []ast.Stmt
	if p.lx.Token == lexer.TCatch {
		p.lx.Next()
		catch = &ast.Catch{}
		if p.lx.Token == lexer.TOpenParen {
			p.lx.Next()
			binding := p.parseBinding()
			if p.lx.Token == lexer.TColon {
				p.lx.Next()
				p.skipType()
			}
			catch.Binding = &binding
			p.lx.Expect(lexer.TCloseParen, "\")\"")
		}
		p.lx.Expect(lexer.TOpenBrace, "\"{\"")
		catch.Body = p.parseStmtsUpTo(lexer.TCloseBrace, false)
		p.lx.Next()
	}
	if p.lx.Token == lexer.TFinally {
		p.lx.Next()
		p.lx.Expect(lexer.TOpenBrace, "\"{\"")
		finally = p.parseStmtsUpTo(lexer.TCloseBrace, false)
		p.lx.Next()
	}
	if catch == nil && finally == nil {
		p.lx.SyntaxError(loc, "missing catch or finally clause")
	}
	return ast.Stmt{Loc: loc, Data: &ast.STry{Body: body, Catch: catch, Finally: finally}}
}

func (p *parser) parseSwitch(loc diag.Loc) ast.Stmt {
	p.lx.Next()
	p.lx.Expect(lexer.TOpenParen, "\"(\"")
	test := p.parseExpr(ast.LLowest)
	p.lx.Expect(lexer.TCloseParen, "\")\"")
	p.lx.Expect(lexer.TOpenBrace, "\"{\"")
	cases := []ast.SwitchCase{}
	for p.lx.Token != lexer.TCloseBrace {
		var value *ast.Expr
		switch p.lx.Token {
		case lexer.TCase:
			p.lx.Next()
			expr := p.parseExpr(ast.LLowest)
			value = &expr
		case lexer.TDefault:
			p.lx.Next()
		default:
			p.lx.Expected("\"case\" or \"default\"")
		}
		p.lx.Expect(lexer.TColon, "\":\"")
		body := []ast.Stmt{}
		for p.lx.Token != lexer.TCase && p.lx.Token != lexer.TDefault && p.lx.Token != lexer.TCloseBrace {
			body = append(body, p.parseStmt(false))
		}
		cases = append(cases, ast.SwitchCase{Value: value, Body: body})
	}
	p.lx.Next()
	return ast.Stmt{Loc: loc, Data: &ast.SSwitch{Test: test, Cases: cases}}
}

func (p *parser) parseClass(requireName bool) ast.Class {
	p.lx.Expect(lexer.TClass, "\"class\"")
	class := ast.Class{}
	if p.lx.Token == lexer.TIdentifier {
		class.Name = p.lx.Identifier
		p.lx.Next()
	} else if requireName {
		p.lx.Expected("class name")
	}
	p.maybeSkipTypeParams()
	if p.lx.Token == lexer.TExtends {
		p.lx.Next()
		extends := p.parseExpr(ast.LNew)
		p.maybeSkipTypeArgs()
		class.Extends = &extends
	}
	if p.lx.IsContextualKeyword("implements") {
		p.lx.Next()
		for {
			p.skipType()
			if p.lx.Token != lexer.TComma {
				break
			}
			p.lx.Next()
		}
	}
	p.lx.Expect(lexer.TOpenBrace, "\"{\"")
	for p.lx.Token != lexer.TCloseBrace {
		if member, keep := p.parseClassMember(); keep {
			class.Members = append(class.Members, member)
		}
	}
	p.lx.Next()
	return class
}

// parseClassMember parses one class member. Type-only members
// (abstract signatures, index signatures, declare fields) return
// keep=false.
func (p *parser) parseClassMember() (ast.ClassMember, bool) {
	member := ast.ClassMember{}
	if p.lx.Token == lexer.TSemicolon {
		p.lx.Next()
		return member, false
	}

	isDeclare := false
	isAbstract := false
	isAsync := false
	isGenerator := false

	// modifier loop; modifiers are contextual and may also be member
	// names ("static" as a field name etc.), so peek before consuming
	for {
		if p.lx.Token == lexer.TIdentifier {
			switch name := p.lx.Identifier; name {
			case "public", "private", "protected", "readonly", "override":
				if p.nextIsMemberContinuation() {
					break
				}
				p.lx.Next()
				continue
			case "static":
				if p.nextIsMemberContinuation() {
					break
				}
				p.lx.Next()
				member.IsStatic = true
				continue
			case "declare":
				if p.nextIsMemberContinuation() {
					break
				}
				p.lx.Next()
				isDeclare = true
				continue
			case "abstract":
				if p.nextIsMemberContinuation() {
					break
				}
				p.lx.Next()
				isAbstract = true
				continue
			case "async":
				if p.nextIsMemberContinuation() {
					break
				}
				p.lx.Next()
				isAsync = true
				continue
			}
		}
		break
	}

	if member.IsStatic && p.lx.Token == lexer.TOpenBrace {
		p.lx.Next()
		body := p.parseStmtsUpTo(lexer.TCloseBrace, false)
		p.lx.Next()
		member.Kind = ast.ClassStaticBlock
		member.Body = body
		return member, true
	}

	if p.lx.Token == lexer.TAsterisk {
		isGenerator = true
		p.lx.Next()
	}

	// accessor kind
	kind := ast.ClassMethod
	if p.lx.Token == lexer.TIdentifier && (p.lx.Identifier == "get" || p.lx.Identifier == "set") && !p.nextIsMemberContinuation() {
		if p.lx.Identifier == "get" {
			kind = ast.ClassGet
		} else {
			kind = ast.ClassSet
		}
		p.lx.Next()
	}

	// index signature: "[name: type]: type" is type-only
	if p.lx.Token == lexer.TOpenBracket {
		trial := p.lx.Clone(nil)
		trial.Next()
		if trial.Token == lexer.TIdentifier {
			trial.Next()
			if trial.Token == lexer.TColon {
				p.skipBalanced(lexer.TOpenBracket, lexer.TCloseBracket)
				if p.lx.Token == lexer.TColon {
					p.lx.Next()
					p.skipType()
				}
				p.semicolonOrASI()
				return member, false
			}
		}
		p.lx.Next()
		member.IsComputed = true
		member.Key = p.parseExpr(ast.LComma)
		p.lx.Expect(lexer.TCloseBracket, "\"]\"")
	} else {
		keyLoc := p.loc()
		switch p.lx.Token {
		case lexer.TStringLiteral:
			member.Key = ast.Expr{Loc: keyLoc, Data: &ast.EString{Value: p.lx.String}}
			p.lx.Next()
		case lexer.TNumericLiteral:
			member.Key = ast.Expr{Loc: keyLoc, Data: &ast.ENumber{Value: p.lx.Number, Raw: p.lx.Raw}}
			p.lx.Next()
		default:
			name := p.lx.Identifier
			if name == "" {
				p.lx.Expected("class member name")
			}
			member.Key = ast.Expr{Loc: keyLoc, Data: &ast.EString{Value: name}}
			p.lx.Next()
		}
	}

	if p.lx.Token == lexer.TQuestion || (p.lx.Token == lexer.TExclamation && !p.lx.HasNewlineBefore) {
		p.lx.Next()
	}

	if p.lx.Token == lexer.TOpenParen || p.lx.Token == lexer.TLessThan {
		member.Kind = kind
		fn := p.parseFnRest("", isAsync, isGenerator)
		if fn.Body == nil {
			// overload or abstract signature
			return member, false
		}
		member.Fn = &fn
		return member, true
	}

	// field
	member.Kind = ast.ClassField
	if p.lx.Token == lexer.TColon {
		p.lx.Next()
		p.skipType()
	}
	if p.lx.Token == lexer.TEquals {
		p.lx.Next()
		value := p.parseExpr(ast.LComma)
		member.Value = &value
	}
	p.semicolonOrASI()
	if isDeclare || isAbstract {
		return member, false
	}
	return member, true
}

// nextIsMemberContinuation reports whether the current identifier is
// itself a member name rather than a modifier, judged by what follows.
func (p *parser) nextIsMemberContinuation() bool {
	trial := p.lx.Clone(nil)
	trial.Next()
	switch trial.Token {
	case lexer.TOpenParen, lexer.TLessThan, lexer.TEquals, lexer.TSemicolon,
		lexer.TColon, lexer.TQuestion, lexer.TCloseBrace:
		return true
	}
	return trial.HasNewlineBefore
}

// ---------------------------------------------------------------------------
// Imports and exports

func (p *parser) parseImport(loc diag.Loc) ast.Stmt {
	p.lx.Next()

	switch p.lx.Token {
	case lexer.TOpenParen:
		// dynamic import as an expression statement
		p.lx.Next()
		arg := p.parseExpr(ast.LComma)
		p.lx.Expect(lexer.TCloseParen, "\")\"")
		expr := ast.Expr{Loc: loc, Data: &ast.EImportCall{Arg: arg}}
		expr = p.parseSuffix(expr, ast.LLowest)
		p.semicolonOrASI()
		return ast.Stmt{Loc: loc, Data: &ast.SExpr{Value: expr}}
	case lexer.TDot:
		p.lx.Next()
		if !p.lx.IsContextualKeyword("meta") {
			p.lx.Expected("\"meta\"")
		}
		p.lx.Next()
		expr := ast.Expr{Loc: loc, Data: &ast.EImportMeta{}}
		expr = p.parseSuffix(expr, ast.LLowest)
		p.semicolonOrASI()
		return ast.Stmt{Loc: loc, Data: &ast.SExpr{Value: expr}}
	}

	stmt := &ast.SImport{}
	if p.lx.Token == lexer.TStringLiteral {
		stmt.Path = p.lx.String
		p.lx.Next()
		p.semicolonOrASI()
		return ast.Stmt{Loc: loc, Data: stmt}
	}

	if p.lx.IsContextualKeyword("type") {
		trial := p.lx.Clone(nil)
		trial.Next()
		if trial.Token == lexer.TIdentifier || trial.Token == lexer.TOpenBrace || trial.Token == lexer.TAsterisk {
			stmt.IsTypeOnly = true
			p.lx.Next()
		}
	}

	hasNames := false
	if p.lx.Token == lexer.TIdentifier {
		stmt.DefaultName = p.lx.Identifier
		p.lx.Next()
		hasNames = true
		if p.lx.Token == lexer.TComma {
			p.lx.Next()
		}
	}
	if p.lx.Token == lexer.TAsterisk {
		p.lx.Next()
		if !p.lx.IsContextualKeyword("as") {
			p.lx.Expected("\"as\"")
		}
		p.lx.Next()
		if p.lx.Token != lexer.TIdentifier {
			p.lx.Expected("namespace name")
		}
		stmt.NamespaceName = p.lx.Identifier
		p.lx.Next()
		hasNames = true
	} else if p.lx.Token == lexer.TOpenBrace {
		stmt.Items = p.parseImportClause()
		hasNames = true
	}
	if !hasNames {
		p.lx.Expected("import clause")
	}

	if !p.lx.IsContextualKeyword("from") {
		p.lx.Expected("\"from\"")
	}
	p.lx.Next()
	if p.lx.Token != lexer.TStringLiteral {
		p.lx.Expected("module specifier")
	}
	stmt.Path = p.lx.String
	p.lx.Next()
	p.semicolonOrASI()
	return ast.Stmt{Loc: loc, Data: stmt}
}

func (p *parser) parseImportClause() []ast.ClauseItem {
	p.lx.Expect(lexer.TOpenBrace, "\"{\"")
	items := []ast.ClauseItem{}
	for p.lx.Token != lexer.TCloseBrace {
		item := ast.ClauseItem{}
		if p.lx.IsContextualKeyword("type") {
			trial := p.lx.Clone(nil)
			trial.Next()
			if trial.Token == lexer.TIdentifier && !trial.IsContextualKeyword("as") {
				item.IsTypeOnly = true
				p.lx.Next()
			} else if trial.IsContextualKeyword("as") {
				// "type as x" could be importing the name "type"; look one
				// further: "type as as" or "type as x"
				trial2 := trial.Clone(nil)
				trial2.Next()
				if trial2.Token == lexer.TIdentifier {
					trial2.Next()
					if trial2.Token == lexer.TIdentifier {
						// "type x as y" form
						item.IsTypeOnly = true
						p.lx.Next()
					}
				}
			}
		}
		if p.lx.Identifier == "" && p.lx.Token != lexer.TIdentifier && p.lx.Token != lexer.TDefault {
			p.lx.Expected("import name")
		}
		alias := p.lx.Identifier
		item.Alias = alias
		item.Name = alias
		p.lx.Next()
		if p.lx.IsContextualKeyword("as") {
			p.lx.Next()
			if p.lx.Identifier == "" {
				p.lx.Expected("import alias")
			}
			item.Name = p.lx.Identifier
			p.lx.Next()
		}
		items = append(items, item)
		if p.lx.Token != lexer.TComma {
			break
		}
		p.lx.Next()
	}
	p.lx.Expect(lexer.TCloseBrace, "\"}\"")
	return items
}

func (p *parser) parseExport(loc diag.Loc) ast.Stmt {
	p.lx.Next()

	switch p.lx.Token {
	case lexer.TDefault:
		p.lx.Next()
		declLoc := p.loc()
		switch {
		case p.lx.Token == lexer.TFunction:
			stmt := p.parseFnStmtAllowAnonymous(declLoc, false)
			return ast.Stmt{Loc: loc, Data: &ast.SExportDefault{Stmt: &stmt}}
		case p.lx.IsContextualKeyword("async"):
			trial := p.lx.Clone(nil)
			trial.Next()
			if trial.Token == lexer.TFunction && !trial.HasNewlineBefore {
				p.lx.Next()
				stmt := p.parseFnStmtAllowAnonymous(declLoc, true)
				return ast.Stmt{Loc: loc, Data: &ast.SExportDefault{Stmt: &stmt}}
			}
		case p.lx.Token == lexer.TClass:
			class := p.parseClass(false)
			stmt := ast.Stmt{Loc: declLoc, Data: &ast.SClass{Class: class}}
			return ast.Stmt{Loc: loc, Data: &ast.SExportDefault{Stmt: &stmt}}
		}
		expr := p.parseExpr(ast.LComma)
		p.semicolonOrASI()
		return ast.Stmt{Loc: loc, Data: &ast.SExportDefault{Value: &expr}}

	case lexer.TAsterisk:
		p.lx.Next()
		stmt := &ast.SExportStar{}
		if p.lx.IsContextualKeyword("as") {
			p.lx.Next()
			if p.lx.Token != lexer.TIdentifier {
				p.lx.Expected("namespace alias")
			}
			stmt.Alias = p.lx.Identifier
			p.lx.Next()
		}
		if !p.lx.IsContextualKeyword("from") {
			p.lx.Expected("\"from\"")
		}
		p.lx.Next()
		if p.lx.Token != lexer.TStringLiteral {
			p.lx.Expected("module specifier")
		}
		stmt.Path = p.lx.String
		p.lx.Next()
		p.semicolonOrASI()
		return ast.Stmt{Loc: loc, Data: stmt}

	case lexer.TOpenBrace:
		stmt := &ast.SExportClause{Items: p.parseImportClause()}
		if p.lx.IsContextualKeyword("from") {
			p.lx.Next()
			if p.lx.Token != lexer.TStringLiteral {
				p.lx.Expected("module specifier")
			}
			stmt.Path = p.lx.String
			stmt.HasPath = true
			p.lx.Next()
		}
		p.semicolonOrASI()
		// in "export { a as b }" the clause reads local name first
		for i := range stmt.Items {
			stmt.Items[i].Alias, stmt.Items[i].Name = stmt.Items[i].Name, stmt.Items[i].Alias
		}
		return ast.Stmt{Loc: loc, Data: stmt}

	case lexer.TVar:
		p.lx.Next()
		decls := p.parseDecls()
		p.semicolonOrASI()
		return ast.Stmt{Loc: loc, Data: &ast.SVar{Kind: ast.VarVar, Decls: decls, IsExport: true}}

	case lexer.TConst:
		p.lx.Next()
		if p.lx.Token == lexer.TEnum {
			return p.parseEnum(loc, true, true)
		}
		decls := p.parseDecls()
		p.semicolonOrASI()
		return ast.Stmt{Loc: loc, Data: &ast.SVar{Kind: ast.VarConst, Decls: decls, IsExport: true}}

	case lexer.TEnum:
		return p.parseEnum(loc, true, false)

	case lexer.TFunction:
		stmt := p.parseFnStmt(loc, false)
		stmt.Data.(*ast.SFunction).IsExport = true
		return stmt

	case lexer.TClass:
		class := p.parseClass(true)
		return ast.Stmt{Loc: loc, Data: &ast.SClass{Class: class, IsExport: true}}

	case lexer.TEquals:
		p.lx.Next()
		expr := p.parseExpr(ast.LLowest)
		p.semicolonOrASI()
		return ast.Stmt{Loc: loc, Data: &ast.SExportEquals{Value: expr}}

	case lexer.TIdentifier:
		switch p.lx.Identifier {
		case "let":
			p.lx.Next()
			decls := p.parseDecls()
			p.semicolonOrASI()
			return ast.Stmt{Loc: loc, Data: &ast.SVar{Kind: ast.VarLet, Decls: decls, IsExport: true}}
		case "async":
			trial := p.lx.Clone(nil)
			trial.Next()
			if trial.Token == lexer.TFunction {
				p.lx.Next()
				stmt := p.parseFnStmt(loc, true)
				stmt.Data.(*ast.SFunction).IsExport = true
				return stmt
			}
		case "interface":
			if stmt, isTS := p.parseInterface(loc, true); isTS {
				return stmt
			}
		case "type":
			if stmt, isTS := p.parseTypeAlias(loc, true); isTS {
				return stmt
			}
			// "export type { ... }" clause
			trial := p.lx.Clone(nil)
			trial.Next()
			if trial.Token == lexer.TOpenBrace {
				p.lx.Next()
				stmt := &ast.SExportClause{Items: p.parseImportClause(), IsTypeOnly: true}
				if p.lx.IsContextualKeyword("from") {
					p.lx.Next()
					if p.lx.Token != lexer.TStringLiteral {
						p.lx.Expected("module specifier")
					}
					stmt.Path = p.lx.String
					stmt.HasPath = true
					p.lx.Next()
				}
				p.semicolonOrASI()
				return ast.Stmt{Loc: loc, Data: stmt}
			}
		case "declare":
			if stmt, isTS := p.parseDeclare(loc, true); isTS {
				return stmt
			}
		case "abstract":
			if stmt, isTS := p.parseAbstractClass(loc, true); isTS {
				return stmt
			}
		case "namespace", "module":
			if p.isNamespaceAhead() {
				p.lx.SyntaxError(loc, "TypeScript namespaces are not supported")
			}
		}
	}
	p.lx.Expected("export declaration")
	return ast.Stmt{}
}

func (p *parser) parseFnStmtAllowAnonymous(loc diag.Loc, isAsync bool) ast.Stmt {
	p.lx.Expect(lexer.TFunction, "\"function\"")
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
	fn := p.parseFnRest(name, isAsync, isGenerator)
	return ast.Stmt{Loc: loc, Data: &ast.SFunction{Fn: fn}}
}

func (p *parser) unexpected() {
	p.lx.SyntaxError(p.loc(), fmt.Sprintf("unexpected %q", p.lx.RawText()))
}
