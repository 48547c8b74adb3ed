// Package lexer turns JavaScript/TypeScript source text into a token
// stream. The lexer is pull-based: the parser asks for one token at a
// time and may ask for a "/" to be rescanned as a regular expression
// literal, since only the grammar knows which one is legal at a given
// point.
package lexer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kyunghoon/twasm/pkg/diag"
)

type T uint8

const (
	TEndOfFile T = iota
	TSyntaxError

	TIdentifier
	TNumericLiteral
	TStringLiteral
	TTemplateLiteral // whole template, possibly with substitutions
	TRegExpLiteral

	TOpenParen
	TCloseParen
	TOpenBrace
	TCloseBrace
	TOpenBracket
	TCloseBracket
	TComma
	TSemicolon
	TColon
	TQuestion
	TQuestionDot
	TQuestionQuestion
	TQuestionQuestionEquals
	TDot
	TDotDotDot
	TArrow

	TPlus
	TMinus
	TAsterisk
	TAsteriskAsterisk
	TSlash
	TPercent
	TPlusPlus
	TMinusMinus
	TEquals
	TPlusEquals
	TMinusEquals
	TAsteriskEquals
	TAsteriskAsteriskEquals
	TSlashEquals
	TPercentEquals
	TLessThanLessThanEquals
	TGreaterThanGreaterThanEquals
	TGreaterThanGreaterThanGreaterThanEquals
	TAmpersandEquals
	TBarEquals
	TCaretEquals
	TAmpersandAmpersandEquals
	TBarBarEquals
	TEqualsEquals
	TEqualsEqualsEquals
	TExclamationEquals
	TExclamationEqualsEquals
	TLessThan
	TLessThanEquals
	TLessThanLessThan
	TGreaterThan
	TGreaterThanEquals
	TGreaterThanGreaterThan
	TGreaterThanGreaterThanGreaterThan
	TAmpersand
	TAmpersandAmpersand
	TBar
	TBarBar
	TCaret
	TTilde
	TExclamation
	TAt

	// Keywords
	TBreak
	TCase
	TCatch
	TClass
	TConst
	TContinue
	TDebugger
	TDefault
	TDelete
	TDo
	TElse
	TEnum
	TExport
	TExtends
	TFalse
	TFinally
	TFor
	TFunction
	TIf
	TImport
	TIn
	TInstanceof
	TNew
	TNull
	TReturn
	TSuper
	TSwitch
	TThis
	TThrow
	TTrue
	TTry
	TTypeof
	TVar
	TVoid
	TWhile
	TWith
)

var keywords = map[string]T{
	"break": TBreak, "case": TCase, "catch": TCatch, "class": TClass,
	"const": TConst, "continue": TContinue, "debugger": TDebugger,
	"default": TDefault, "delete": TDelete, "do": TDo, "else": TElse,
	"enum": TEnum, "export": TExport, "extends": TExtends, "false": TFalse,
	"finally": TFinally, "for": TFor, "function": TFunction, "if": TIf,
	"import": TImport, "in": TIn, "instanceof": TInstanceof, "new": TNew,
	"null": TNull, "return": TReturn, "super": TSuper, "switch": TSwitch,
	"this": TThis, "throw": TThrow, "true": TTrue, "try": TTry,
	"typeof": TTypeof, "var": TVar, "void": TVoid, "while": TWhile,
	"with": TWith,
}

// TemplatePart mirrors ast.TemplatePart without importing it: a raw
// chunk of template text followed by the source range of one
// substitution expression, re-lexed by the parser.
type TemplatePart struct {
	Raw       string
	ExprStart int32
	ExprEnd   int32
	HasExpr   bool
}

type Lexer struct {
	source    diag.Source
	log       *diag.Log
	contents  string
	current   int // position after the current token
	start     int // position of the current token
	Token     T
	Identifier string
	String     string // decoded string literal value
	Number     float64
	Raw        string // raw token text for numbers, regexps and templates
	TemplateParts []TemplatePart
	HasNewlineBefore bool
	hasError  bool
}

type PanicError struct{}

func (PanicError) Error() string { return "syntax error" }

func New(log *diag.Log, source diag.Source) *Lexer {
	return NewAt(log, source, 0)
}

// NewAt starts lexing at a byte offset into the source. The parser
// uses it to re-lex template substitution ranges in place, keeping
// source positions accurate.
func NewAt(log *diag.Log, source diag.Source, offset int) *Lexer {
	lx := &Lexer{
		source:   source,
		log:      log,
		contents: source.Contents,
		current:  offset,
		start:    offset,
	}
	lx.Next()
	return lx
}

// Clone copies the lexer state for speculative parsing. When log is
// non-nil the clone reports into it instead of the original log, so a
// failed trial leaves no diagnostics behind.
func (lx *Lexer) Clone(log *diag.Log) *Lexer {
	c := *lx
	if log != nil {
		c.log = log
	}
	return &c
}

func (lx *Lexer) Loc() diag.Loc {
	return diag.Loc{Start: int32(lx.start)}
}

func (lx *Lexer) RawText() string {
	return lx.contents[lx.start:lx.current]
}

// Position returns the byte offset just past the current token. The
// parser uses it to re-lex template substitution ranges.
func (lx *Lexer) Position() int {
	return lx.current
}

func (lx *Lexer) Source() diag.Source {
	return lx.source
}

func (lx *Lexer) SyntaxError(loc diag.Loc, text string) {
	lx.log.AddError(&lx.source, loc, text)
	lx.hasError = true
	panic(PanicError{})
}

func (lx *Lexer) Expected(what string) {
	lx.SyntaxError(lx.Loc(), fmt.Sprintf("expected %s but found %q", what, lx.describe()))
}

func (lx *Lexer) describe() string {
	if lx.Token == TEndOfFile {
		return "end of file"
	}
	return lx.RawText()
}

func (lx *Lexer) peekByte() byte {
	if lx.current < len(lx.contents) {
		return lx.contents[lx.current]
	}
	return 0
}

func (lx *Lexer) peekByteAt(delta int) byte {
	if lx.current+delta < len(lx.contents) {
		return lx.contents[lx.current+delta]
	}
	return 0
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// IsIdentifierText reports whether text is usable as a bare
// identifier (property shorthand, global export names).
func IsIdentifierText(text string) bool {
	if text == "" {
		return false
	}
	for i, r := range text {
		if i == 0 && !isIdentStart(r) {
			return false
		}
		if i > 0 && !isIdentPart(r) {
			return false
		}
	}
	_, isKeyword := keywords[text]
	return !isKeyword
}

func (lx *Lexer) skipWhitespaceAndComments() {
	lx.HasNewlineBefore = false
	for lx.current < len(lx.contents) {
		c := lx.contents[lx.current]
		switch c {
		case ' ', '\t', '\r':
			lx.current++
		case '\n':
			lx.HasNewlineBefore = true
			lx.current++
		case '/':
			if lx.peekByteAt(1) == '/' {
				lx.current += 2
				for lx.current < len(lx.contents) && lx.contents[lx.current] != '\n' {
					lx.current++
				}
			} else if lx.peekByteAt(1) == '*' {
				lx.current += 2
				closed := false
				for lx.current+1 < len(lx.contents) {
					if lx.contents[lx.current] == '*' && lx.contents[lx.current+1] == '/' {
						lx.current += 2
						closed = true
						break
					}
					if lx.contents[lx.current] == '\n' {
						lx.HasNewlineBefore = true
					}
					lx.current++
				}
				if !closed {
					lx.current = len(lx.contents)
					lx.SyntaxError(diag.Loc{Start: int32(lx.current)}, "unterminated comment")
				}
			} else {
				return
			}
		default:
			return
		}
	}
}

// Next advances to the next token.
func (lx *Lexer) Next() {
	lx.skipWhitespaceAndComments()
	lx.start = lx.current
	if lx.current >= len(lx.contents) {
		lx.Token = TEndOfFile
		return
	}

	c := lx.contents[lx.current]
	switch {
	case c >= '0' && c <= '9':
		lx.scanNumber()
		return
	case c == '"' || c == '\'':
		lx.scanString(c)
		return
	case c == '`':
		lx.scanTemplate()
		return
	}

	r, size := utf8.DecodeRuneInString(lx.contents[lx.current:])
	if isIdentStart(r) {
		lx.current += size
		for lx.current < len(lx.contents) {
			r, size := utf8.DecodeRuneInString(lx.contents[lx.current:])
			if !isIdentPart(r) {
				break
			}
			lx.current += size
		}
		name := lx.contents[lx.start:lx.current]
		if tok, ok := keywords[name]; ok {
			lx.Token = tok
			lx.Identifier = name
		} else {
			lx.Token = TIdentifier
			lx.Identifier = name
		}
		return
	}

	lx.current++
	switch c {
	case '(':
		lx.Token = TOpenParen
	case ')':
		lx.Token = TCloseParen
	case '{':
		lx.Token = TOpenBrace
	case '}':
		lx.Token = TCloseBrace
	case '[':
		lx.Token = TOpenBracket
	case ']':
		lx.Token = TCloseBracket
	case ',':
		lx.Token = TComma
	case ';':
		lx.Token = TSemicolon
	case ':':
		lx.Token = TColon
	case '@':
		lx.Token = TAt
	case '~':
		lx.Token = TTilde
	case '?':
		switch lx.peekByte() {
		case '.':
			lx.current++
			lx.Token = TQuestionDot
		case '?':
			lx.current++
			if lx.peekByte() == '=' {
				lx.current++
				lx.Token = TQuestionQuestionEquals
			} else {
				lx.Token = TQuestionQuestion
			}
		default:
			lx.Token = TQuestion
		}
	case '.':
		if lx.peekByte() == '.' && lx.peekByteAt(1) == '.' {
			lx.current += 2
			lx.Token = TDotDotDot
		} else if b := lx.peekByte(); b >= '0' && b <= '9' {
			lx.current = lx.start
			lx.scanNumber()
		} else {
			lx.Token = TDot
		}
	case '+':
		switch lx.peekByte() {
		case '+':
			lx.current++
			lx.Token = TPlusPlus
		case '=':
			lx.current++
			lx.Token = TPlusEquals
		default:
			lx.Token = TPlus
		}
	case '-':
		switch lx.peekByte() {
		case '-':
			lx.current++
			lx.Token = TMinusMinus
		case '=':
			lx.current++
			lx.Token = TMinusEquals
		default:
			lx.Token = TMinus
		}
	case '*':
		switch lx.peekByte() {
		case '*':
			lx.current++
			if lx.peekByte() == '=' {
				lx.current++
				lx.Token = TAsteriskAsteriskEquals
			} else {
				lx.Token = TAsteriskAsterisk
			}
		case '=':
			lx.current++
			lx.Token = TAsteriskEquals
		default:
			lx.Token = TAsterisk
		}
	case '/':
		if lx.peekByte() == '=' {
			lx.current++
			lx.Token = TSlashEquals
		} else {
			lx.Token = TSlash
		}
	case '%':
		if lx.peekByte() == '=' {
			lx.current++
			lx.Token = TPercentEquals
		} else {
			lx.Token = TPercent
		}
	case '=':
		switch lx.peekByte() {
		case '=':
			lx.current++
			if lx.peekByte() == '=' {
				lx.current++
				lx.Token = TEqualsEqualsEquals
			} else {
				lx.Token = TEqualsEquals
			}
		case '>':
			lx.current++
			lx.Token = TArrow
		default:
			lx.Token = TEquals
		}
	case '!':
		if lx.peekByte() == '=' {
			lx.current++
			if lx.peekByte() == '=' {
				lx.current++
				lx.Token = TExclamationEqualsEquals
			} else {
				lx.Token = TExclamationEquals
			}
		} else {
			lx.Token = TExclamation
		}
	case '<':
		switch lx.peekByte() {
		case '=':
			lx.current++
			lx.Token = TLessThanEquals
		case '<':
			lx.current++
			if lx.peekByte() == '=' {
				lx.current++
				lx.Token = TLessThanLessThanEquals
			} else {
				lx.Token = TLessThanLessThan
			}
		default:
			lx.Token = TLessThan
		}
	case '>':
		switch lx.peekByte() {
		case '=':
			lx.current++
			lx.Token = TGreaterThanEquals
		case '>':
			lx.current++
			switch lx.peekByte() {
			case '=':
				lx.current++
				lx.Token = TGreaterThanGreaterThanEquals
			case '>':
				lx.current++
				if lx.peekByte() == '=' {
					lx.current++
					lx.Token = TGreaterThanGreaterThanGreaterThanEquals
				} else {
					lx.Token = TGreaterThanGreaterThanGreaterThan
				}
			default:
				lx.Token = TGreaterThanGreaterThan
			}
		default:
			lx.Token = TGreaterThan
		}
	case '&':
		switch lx.peekByte() {
		case '&':
			lx.current++
			if lx.peekByte() == '=' {
				lx.current++
				lx.Token = TAmpersandAmpersandEquals
			} else {
				lx.Token = TAmpersandAmpersand
			}
		case '=':
			lx.current++
			lx.Token = TAmpersandEquals
		default:
			lx.Token = TAmpersand
		}
	case '|':
		switch lx.peekByte() {
		case '|':
			lx.current++
			if lx.peekByte() == '=' {
				lx.current++
				lx.Token = TBarBarEquals
			} else {
				lx.Token = TBarBar
			}
		case '=':
			lx.current++
			lx.Token = TBarEquals
		default:
			lx.Token = TBar
		}
	case '^':
		if lx.peekByte() == '=' {
			lx.current++
			lx.Token = TCaretEquals
		} else {
			lx.Token = TCaret
		}
	default:
		lx.SyntaxError(lx.Loc(), fmt.Sprintf("unexpected character %q", rune(c)))
	}
}

// RescanAsRegExp re-reads the current "/" or "/=" token as a regular
// expression literal. The parser calls this when the grammar expects
// an expression.
func (lx *Lexer) RescanAsRegExp() {
	if lx.Token != TSlash && lx.Token != TSlashEquals {
		panic("lexer: regexp rescan requires a slash token")
	}
	lx.current = lx.start + 1
	inClass := false
	for {
		if lx.current >= len(lx.contents) {
			lx.SyntaxError(diag.Loc{Start: int32(lx.current)}, "unterminated regular expression")
		}
		c := lx.contents[lx.current]
		switch c {
		case '\n':
			lx.SyntaxError(lx.Loc(), "unterminated regular expression")
		case '\\':
			lx.current++
		case '[':
			inClass = true
		case ']':
			inClass = false
		case '/':
			if !inClass {
				lx.current++
				// flags
				for lx.current < len(lx.contents) {
					r, size := utf8.DecodeRuneInString(lx.contents[lx.current:])
					if !isIdentPart(r) {
						break
					}
					lx.current += size
				}
				lx.Token = TRegExpLiteral
				lx.Raw = lx.contents[lx.start:lx.current]
				return
			}
		}
		lx.current++
	}
}

func (lx *Lexer) scanNumber() {
	isLegacyOctal := false
	if lx.contents[lx.current] == '0' && lx.current+1 < len(lx.contents) {
		switch lx.contents[lx.current+1] {
		case 'x', 'X', 'b', 'B', 'o', 'O':
			lx.current += 2
			for lx.current < len(lx.contents) && isHexOrDigit(lx.contents[lx.current]) {
				lx.current++
			}
			lx.finishNumber()
			return
		default:
			isLegacyOctal = true
		}
	}
	_ = isLegacyOctal
	for lx.current < len(lx.contents) && isDigitOrSep(lx.contents[lx.current]) {
		lx.current++
	}
	if lx.peekByte() == '.' {
		lx.current++
		for lx.current < len(lx.contents) && isDigitOrSep(lx.contents[lx.current]) {
			lx.current++
		}
	}
	if b := lx.peekByte(); b == 'e' || b == 'E' {
		lx.current++
		if b := lx.peekByte(); b == '+' || b == '-' {
			lx.current++
		}
		for lx.current < len(lx.contents) && lx.contents[lx.current] >= '0' && lx.contents[lx.current] <= '9' {
			lx.current++
		}
	}
	lx.finishNumber()
}

func isDigitOrSep(c byte) bool {
	return (c >= '0' && c <= '9') || c == '_'
}

func isHexOrDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') || c == '_'
}

func (lx *Lexer) finishNumber() {
	lx.Raw = lx.contents[lx.start:lx.current]
	text := strings.ReplaceAll(lx.Raw, "_", "")
	var value float64
	var err error
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		var v uint64
		_, err = fmt.Sscanf(text[2:], "%x", &v)
		value = float64(v)
	} else if strings.HasPrefix(text, "0b") || strings.HasPrefix(text, "0B") {
		var v uint64
		_, err = fmt.Sscanf(text[2:], "%b", &v)
		value = float64(v)
	} else if strings.HasPrefix(text, "0o") || strings.HasPrefix(text, "0O") {
		var v uint64
		_, err = fmt.Sscanf(text[2:], "%o", &v)
		value = float64(v)
	} else {
		_, err = fmt.Sscanf(text, "%g", &value)
	}
	if err != nil {
		lx.SyntaxError(lx.Loc(), fmt.Sprintf("invalid number %q", lx.Raw))
	}
	lx.Number = value
	lx.Token = TNumericLiteral
}

func (lx *Lexer) scanString(quote byte) {
	lx.current++
	var sb strings.Builder
	for {
		if lx.current >= len(lx.contents) {
			lx.SyntaxError(lx.Loc(), "unterminated string literal")
		}
		c := lx.contents[lx.current]
		if c == quote {
			lx.current++
			break
		}
		if c == '\n' {
			lx.SyntaxError(lx.Loc(), "unterminated string literal")
		}
		if c == '\\' {
			lx.current++
			if lx.current >= len(lx.contents) {
				lx.SyntaxError(lx.Loc(), "unterminated string literal")
			}
			sb.WriteString(lx.decodeEscape())
			continue
		}
		sb.WriteByte(c)
		lx.current++
	}
	lx.Token = TStringLiteral
	lx.String = sb.String()
}

func (lx *Lexer) decodeEscape() string {
	c := lx.contents[lx.current]
	lx.current++
	switch c {
	case 'n':
		return "\n"
	case 't':
		return "\t"
	case 'r':
		return "\r"
	case 'b':
		return "\b"
	case 'f':
		return "\f"
	case 'v':
		return "\v"
	case '0':
		return "\x00"
	case '\n':
		return "" // line continuation
	case 'x':
		if lx.current+2 <= len(lx.contents) {
			var v int
			if _, err := fmt.Sscanf(lx.contents[lx.current:lx.current+2], "%x", &v); err == nil {
				lx.current += 2
				return string(rune(v))
			}
		}
		lx.SyntaxError(lx.Loc(), "invalid hexadecimal escape")
	case 'u':
		if lx.peekByte() == '{' {
			end := strings.IndexByte(lx.contents[lx.current:], '}')
			if end > 1 {
				var v int
				if _, err := fmt.Sscanf(lx.contents[lx.current+1:lx.current+end], "%x", &v); err == nil {
					lx.current += end + 1
					return string(rune(v))
				}
			}
		} else if lx.current+4 <= len(lx.contents) {
			var v int
			if _, err := fmt.Sscanf(lx.contents[lx.current:lx.current+4], "%x", &v); err == nil {
				lx.current += 4
				return string(rune(v))
			}
		}
		lx.SyntaxError(lx.Loc(), "invalid unicode escape")
	}
	return string(c)
}

// scanTemplate reads a whole template literal including substitution
// expressions, recording each substitution's source range so the
// parser can re-lex it.
func (lx *Lexer) scanTemplate() {
	lx.current++ // skip backtick
	lx.TemplateParts = nil
	chunkStart := lx.current
	for {
		if lx.current >= len(lx.contents) {
			lx.SyntaxError(lx.Loc(), "unterminated template literal")
		}
		c := lx.contents[lx.current]
		if c == '`' {
			lx.TemplateParts = append(lx.TemplateParts, TemplatePart{
				Raw: lx.contents[chunkStart:lx.current],
			})
			lx.current++
			break
		}
		if c == '\\' {
			lx.current += 2
			continue
		}
		if c == '$' && lx.peekByteAt(1) == '{' {
			raw := lx.contents[chunkStart:lx.current]
			lx.current += 2
			exprStart := lx.current
			depth := 1
			for depth > 0 {
				if lx.current >= len(lx.contents) {
					lx.SyntaxError(lx.Loc(), "unterminated template literal")
				}
				switch lx.contents[lx.current] {
				case '{':
					depth++
				case '}':
					depth--
				case '`':
					// nested template; skip it naively by matching backticks
					lx.current++
					for lx.current < len(lx.contents) && lx.contents[lx.current] != '`' {
						if lx.contents[lx.current] == '\\' {
							lx.current++
						}
						lx.current++
					}
				}
				lx.current++
			}
			lx.TemplateParts = append(lx.TemplateParts, TemplatePart{
				Raw:       raw,
				ExprStart: int32(exprStart),
				ExprEnd:   int32(lx.current - 1),
				HasExpr:   true,
			})
			chunkStart = lx.current
			continue
		}
		lx.current++
	}
	lx.Token = TTemplateLiteral
	lx.Raw = lx.contents[lx.start:lx.current]
}

// IsContextualKeyword reports whether the current token is the given
// identifier. Words like "of", "as", "async", "from", "type" and
// "let" are only keywords in certain grammar positions.
func (lx *Lexer) IsContextualKeyword(name string) bool {
	return lx.Token == TIdentifier && lx.Identifier == name
}

func (lx *Lexer) Expect(token T, what string) {
	if lx.Token != token {
		lx.Expected(what)
	}
	lx.Next()
}
