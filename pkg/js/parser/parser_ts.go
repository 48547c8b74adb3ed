package parser

import (
	"github.com/kyunghoon/twasm/pkg/diag"
	"github.com/kyunghoon/twasm/pkg/js/ast"
	"github.com/kyunghoon/twasm/pkg/js/lexer"
)

// TypeScript's type grammar is skipped, not modeled: the parser only
// needs to know where a type ends. This mirrors how erasable syntax
// is handled by transpilers that never type-check.

func (p *parser) skipType() {
	p.skipTypePrefix()
	for {
		switch p.lx.Token {
		case lexer.TOpenBracket:
			p.skipBalanced(lexer.TOpenBracket, lexer.TCloseBracket)
			continue
		case lexer.TDot:
			p.lx.Next()
			if p.lx.Identifier == "" {
				p.lx.Expected("type name")
			}
			p.lx.Next()
			continue
		case lexer.TLessThan:
			p.skipTypeAngle()
			continue
		case lexer.TBar, lexer.TAmpersand:
			p.lx.Next()
			p.skipTypePrefix()
			continue
		case lexer.TExtends:
			// conditional type
			p.lx.Next()
			p.skipType()
			p.lx.Expect(lexer.TQuestion, "\"?\"")
			p.skipType()
			p.lx.Expect(lexer.TColon, "\":\"")
			p.skipType()
			continue
		case lexer.TIdentifier:
			if p.lx.Identifier == "is" && !p.lx.HasNewlineBefore {
				p.lx.Next()
				p.skipType()
				continue
			}
		}
		return
	}
}

func (p *parser) skipTypePrefix() {
	switch p.lx.Token {
	case lexer.TStringLiteral, lexer.TNumericLiteral, lexer.TTemplateLiteral,
		lexer.TTrue, lexer.TFalse, lexer.TNull, lexer.TVoid, lexer.TThis,
		lexer.TImport:
		p.lx.Next()
		return
	case lexer.TMinus:
		p.lx.Next()
		if p.lx.Token != lexer.TNumericLiteral {
			p.lx.Expected("number")
		}
		p.lx.Next()
		return
	case lexer.TTypeof:
		p.lx.Next()
		p.skipTypePrefix()
		return
	case lexer.TNew:
		p.lx.Next()
		p.skipFunctionType()
		return
	case lexer.TOpenBrace:
		p.skipBalanced(lexer.TOpenBrace, lexer.TCloseBrace)
		return
	case lexer.TOpenBracket:
		p.skipBalanced(lexer.TOpenBracket, lexer.TCloseBracket)
		return
	case lexer.TOpenParen:
		p.skipBalanced(lexer.TOpenParen, lexer.TCloseParen)
		if p.lx.Token == lexer.TArrow {
			p.lx.Next()
			p.skipType()
		}
		return
	case lexer.TLessThan:
		p.skipFunctionType()
		return
	case lexer.TBar, lexer.TAmpersand:
		// leading union/intersection marker
		p.lx.Next()
		p.skipTypePrefix()
		return
	case lexer.TIdentifier:
		switch p.lx.Identifier {
		case "keyof", "readonly", "infer", "unique", "asserts", "abstract":
			p.lx.Next()
			p.skipTypePrefix()
			return
		}
		p.lx.Next()
		return
	default:
		if p.lx.Identifier != "" {
			// other keywords double as type names ("string" etc. are
			// plain identifiers anyway; "undefined" too)
			p.lx.Next()
			return
		}
	}
	p.lx.Expected("type")
}

func (p *parser) skipFunctionType() {
	if p.lx.Token == lexer.TLessThan {
		p.skipTypeAngle()
	}
	p.skipBalanced(lexer.TOpenParen, lexer.TCloseParen)
	p.lx.Expect(lexer.TArrow, "\"=>\"")
	p.skipType()
}

// skipBalanced consumes from an open token through its matching close
// token, counting only that pair. Strings and templates are single
// tokens, so bracket characters inside them cannot unbalance the
// count.
func (p *parser) skipBalanced(open, close lexer.T) {
	if p.lx.Token != open {
		p.lx.Expected("\"" + tokenText(open) + "\"")
	}
	depth := 0
	for {
		switch p.lx.Token {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				p.lx.Next()
				return
			}
		case lexer.TEndOfFile:
			p.lx.Expected("\"" + tokenText(close) + "\"")
		}
		p.lx.Next()
	}
}

func tokenText(t lexer.T) string {
	switch t {
	case lexer.TOpenParen:
		return "("
	case lexer.TCloseParen:
		return ")"
	case lexer.TOpenBrace:
		return "{"
	case lexer.TCloseBrace:
		return "}"
	case lexer.TOpenBracket:
		return "["
	case lexer.TCloseBracket:
		return "]"
	}
	return "?"
}

// skipTypeAngle consumes "<...>" counting angle depth at the token
// level. Shift tokens contribute their full width.
func (p *parser) skipTypeAngle() {
	if p.lx.Token != lexer.TLessThan {
		p.lx.Expected("\"<\"")
	}
	depth := 0
	for {
		switch p.lx.Token {
		case lexer.TLessThan:
			depth++
		case lexer.TLessThanLessThan:
			depth += 2
		case lexer.TGreaterThan:
			depth--
		case lexer.TGreaterThanGreaterThan:
			depth -= 2
		case lexer.TGreaterThanGreaterThanGreaterThan:
			depth -= 3
		case lexer.TOpenParen:
			p.skipBalanced(lexer.TOpenParen, lexer.TCloseParen)
			continue
		case lexer.TOpenBrace:
			p.skipBalanced(lexer.TOpenBrace, lexer.TCloseBrace)
			continue
		case lexer.TOpenBracket:
			p.skipBalanced(lexer.TOpenBracket, lexer.TCloseBracket)
			continue
		case lexer.TEndOfFile:
			p.lx.Expected("\">\"")
		}
		p.lx.Next()
		if depth <= 0 {
			return
		}
	}
}

func (p *parser) maybeSkipTypeParams() {
	if p.lx.Token == lexer.TLessThan {
		p.skipTypeAngle()
	}
}

// maybeSkipTypeArgs skips "<...>" after an expression when it is
// plausibly a type argument list (judged by what follows it) rather
// than a comparison. The trial runs against a scratch log so a failed
// attempt leaves no diagnostics.
func (p *parser) maybeSkipTypeArgs() {
	if p.lx.Token != lexer.TLessThan {
		return
	}
	if p.trySkipTypeAngle(func(t lexer.T, ident string) bool {
		switch t {
		case lexer.TOpenParen, lexer.TOpenBrace, lexer.TSemicolon,
			lexer.TCloseParen, lexer.TComma, lexer.TEndOfFile:
			return true
		}
		return ident == "implements"
	}) {
		p.skipTypeAngle()
	}
}

// maybeSkipCallTypeArgs handles "f<T>(...)" in expression position.
// It reports whether type arguments were consumed.
func (p *parser) maybeSkipCallTypeArgs() bool {
	if p.lx.Token != lexer.TLessThan {
		return false
	}
	if !p.trySkipTypeAngle(func(t lexer.T, ident string) bool {
		return t == lexer.TOpenParen || t == lexer.TTemplateLiteral
	}) {
		return false
	}
	p.skipTypeAngle()
	return true
}

// trySkipTypeAngle speculatively skips an angle-bracketed region and
// reports whether it closed and the next token satisfies accept.
func (p *parser) trySkipTypeAngle(accept func(lexer.T, string) bool) (ok bool) {
	scratch := diag.NewLog()
	trial := &parser{log: scratch, source: p.source, allowIn: p.allowIn}
	trial.lx = p.lx.Clone(scratch)
	defer func() {
		if r := recover(); r != nil {
			if _, isPanic := r.(lexer.PanicError); isPanic {
				ok = false
				return
			}
			panic(r)
		}
	}()
	trial.skipTypeAngle()
	return accept(trial.lx.Token, trial.lx.Identifier)
}

// ---------------------------------------------------------------------------
// TypeScript statements

func (p *parser) parseInterface(loc diag.Loc, isExport bool) (ast.Stmt, bool) {
	trial := p.lx.Clone(nil)
	trial.Next()
	if trial.Token != lexer.TIdentifier || trial.HasNewlineBefore {
		return ast.Stmt{}, false
	}
	p.lx.Next() // interface
	p.lx.Next() // name
	p.maybeSkipTypeParams()
	if p.lx.Token == lexer.TExtends {
		p.lx.Next()
		for {
			p.skipType()
			if p.lx.Token != lexer.TComma {
				break
			}
			p.lx.Next()
		}
	}
	p.skipBalanced(lexer.TOpenBrace, lexer.TCloseBrace)
	return ast.Stmt{Loc: loc, Data: &ast.STypeDecl{IsExport: isExport}}, true
}

func (p *parser) parseTypeAlias(loc diag.Loc, isExport bool) (ast.Stmt, bool) {
	trial := p.lx.Clone(nil)
	trial.Next()
	if trial.Token != lexer.TIdentifier || trial.HasNewlineBefore {
		return ast.Stmt{}, false
	}
	trial.Next()
	if trial.Token != lexer.TEquals && trial.Token != lexer.TLessThan {
		return ast.Stmt{}, false
	}
	p.lx.Next() // type
	p.lx.Next() // name
	p.maybeSkipTypeParams()
	p.lx.Expect(lexer.TEquals, "\"=\"")
	p.skipType()
	p.semicolonOrASI()
	return ast.Stmt{Loc: loc, Data: &ast.STypeDecl{IsExport: isExport}}, true
}

func (p *parser) parseDeclare(loc diag.Loc, isExport bool) (ast.Stmt, bool) {
	trial := p.lx.Clone(nil)
	trial.Next()
	if trial.HasNewlineBefore {
		return ast.Stmt{}, false
	}
	switch trial.Token {
	case lexer.TVar, lexer.TConst, lexer.TFunction, lexer.TClass, lexer.TEnum:
	case lexer.TIdentifier:
		switch trial.Identifier {
		case "let", "abstract", "async", "namespace", "module", "global", "interface", "type":
		default:
			return ast.Stmt{}, false
		}
	default:
		return ast.Stmt{}, false
	}
	p.lx.Next() // declare

	if p.lx.IsContextualKeyword("namespace") || p.lx.IsContextualKeyword("module") || p.lx.IsContextualKeyword("global") {
		// skip through the ambient block
		for p.lx.Token != lexer.TOpenBrace && p.lx.Token != lexer.TEndOfFile {
			p.lx.Next()
		}
		p.skipBalanced(lexer.TOpenBrace, lexer.TCloseBrace)
		return ast.Stmt{Loc: loc, Data: &ast.STypeDecl{IsExport: isExport}}, true
	}

	// parse the declared statement and drop it
	p.parseStmt(false)
	return ast.Stmt{Loc: loc, Data: &ast.STypeDecl{IsExport: isExport}}, true
}

func (p *parser) parseAbstractClass(loc diag.Loc, isExport bool) (ast.Stmt, bool) {
	trial := p.lx.Clone(nil)
	trial.Next()
	if trial.Token != lexer.TClass || trial.HasNewlineBefore {
		return ast.Stmt{}, false
	}
	p.lx.Next() // abstract
	class := p.parseClass(true)
	return ast.Stmt{Loc: loc, Data: &ast.SClass{Class: class, IsExport: isExport}}, true
}

func (p *parser) parseEnum(loc diag.Loc, isExport, isConst bool) ast.Stmt {
	p.lx.Expect(lexer.TEnum, "\"enum\"")
	if p.lx.Token != lexer.TIdentifier {
		p.lx.Expected("enum name")
	}
	stmt := &ast.SEnum{Name: p.lx.Identifier, IsExport: isExport, IsConst: isConst}
	p.lx.Next()
	p.lx.Expect(lexer.TOpenBrace, "\"{\"")
	for p.lx.Token != lexer.TCloseBrace {
		member := ast.EnumMember{}
		switch p.lx.Token {
		case lexer.TStringLiteral:
			member.Name = p.lx.String
		default:
			if p.lx.Identifier == "" {
				p.lx.Expected("enum member name")
			}
			member.Name = p.lx.Identifier
		}
		p.lx.Next()
		if p.lx.Token == lexer.TEquals {
			p.lx.Next()
			value := p.parseExpr(ast.LComma)
			member.Value = &value
		}
		stmt.Members = append(stmt.Members, member)
		if p.lx.Token != lexer.TComma {
			break
		}
		p.lx.Next()
	}
	p.lx.Expect(lexer.TCloseBrace, "\"}\"")
	return ast.Stmt{Loc: loc, Data: stmt}
}

func (p *parser) isNamespaceAhead() bool {
	trial := p.lx.Clone(nil)
	trial.Next()
	if trial.HasNewlineBefore {
		return false
	}
	if trial.Token != lexer.TIdentifier && trial.Token != lexer.TStringLiteral {
		return false
	}
	trial.Next()
	return trial.Token == lexer.TOpenBrace || trial.Token == lexer.TDot
}
