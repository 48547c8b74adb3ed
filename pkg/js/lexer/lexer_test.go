package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyunghoon/twasm/pkg/diag"
	"github.com/kyunghoon/twasm/pkg/js/lexer"
)

func newLexer(t *testing.T, contents string) (*lexer.Lexer, *diag.Log) {
	t.Helper()
	log := diag.NewLog()
	return lexer.New(log, diag.NewSource("test.ts", contents)), log
}

// scanAll drains the token stream, returning every token up to and
// excluding TEndOfFile.
func scanAll(t *testing.T, contents string) []lexer.T {
	t.Helper()
	lx, log := newLexer(t, contents)
	var tokens []lexer.T
	for lx.Token != lexer.TEndOfFile {
		tokens = append(tokens, lx.Token)
		lx.Next()
	}
	require.False(t, log.HasErrors(), "unexpected lex error: %s", log.String())
	return tokens
}

func TestTokenStream(t *testing.T) {
	lx, log := newLexer(t, "const answer = 42;")

	assert.Equal(t, lexer.TConst, lx.Token)
	lx.Next()

	assert.Equal(t, lexer.TIdentifier, lx.Token)
	assert.Equal(t, "answer", lx.Identifier)
	lx.Next()

	assert.Equal(t, lexer.TEquals, lx.Token)
	lx.Next()

	assert.Equal(t, lexer.TNumericLiteral, lx.Token)
	assert.Equal(t, float64(42), lx.Number)
	assert.Equal(t, "42", lx.Raw)
	lx.Next()

	assert.Equal(t, lexer.TSemicolon, lx.Token)
	lx.Next()

	assert.Equal(t, lexer.TEndOfFile, lx.Token)
	assert.False(t, log.HasErrors())
}

func TestPunctuatorTokens(t *testing.T) {
	tests := []struct {
		contents string
		tokens   []lexer.T
	}{
		{"a?.b", []lexer.T{lexer.TIdentifier, lexer.TQuestionDot, lexer.TIdentifier}},
		{"a ?? b", []lexer.T{lexer.TIdentifier, lexer.TQuestionQuestion, lexer.TIdentifier}},
		{"a ??= b", []lexer.T{lexer.TIdentifier, lexer.TQuestionQuestionEquals, lexer.TIdentifier}},
		{"...rest", []lexer.T{lexer.TDotDotDot, lexer.TIdentifier}},
		{"x => x", []lexer.T{lexer.TIdentifier, lexer.TArrow, lexer.TIdentifier}},
		{"a ** b", []lexer.T{lexer.TIdentifier, lexer.TAsteriskAsterisk, lexer.TIdentifier}},
		{"a **= b", []lexer.T{lexer.TIdentifier, lexer.TAsteriskAsteriskEquals, lexer.TIdentifier}},
		{"a >>> b", []lexer.T{lexer.TIdentifier, lexer.TGreaterThanGreaterThanGreaterThan, lexer.TIdentifier}},
		{"a !== b", []lexer.T{lexer.TIdentifier, lexer.TExclamationEqualsEquals, lexer.TIdentifier}},
		{"a === b", []lexer.T{lexer.TIdentifier, lexer.TEqualsEqualsEquals, lexer.TIdentifier}},
		{"a &&= b", []lexer.T{lexer.TIdentifier, lexer.TAmpersandAmpersandEquals, lexer.TIdentifier}},
		{"i++", []lexer.T{lexer.TIdentifier, lexer.TPlusPlus}},
		{"i--", []lexer.T{lexer.TIdentifier, lexer.TMinusMinus}},
		{"@dec", []lexer.T{lexer.TAt, lexer.TIdentifier}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.tokens, scanAll(t, tt.contents), "source: %s", tt.contents)
	}
}

func TestKeywordsAndContextualKeywords(t *testing.T) {
	assert.Equal(t, []lexer.T{
		lexer.TFunction, lexer.TIdentifier, lexer.TOpenParen, lexer.TCloseParen,
		lexer.TOpenBrace, lexer.TReturn, lexer.TThis, lexer.TSemicolon, lexer.TCloseBrace,
	}, scanAll(t, "function f() { return this; }"))

	// "of", "as" and friends are plain identifiers to the lexer
	lx, _ := newLexer(t, "of")
	assert.Equal(t, lexer.TIdentifier, lx.Token)
	assert.True(t, lx.IsContextualKeyword("of"))
	assert.False(t, lx.IsContextualKeyword("as"))
}

func TestStringDecoding(t *testing.T) {
	tests := []struct {
		contents string
		decoded  string
	}{
		{`'plain'`, "plain"},
		{`"a\nb"`, "a\nb"},
		{`"tab\there"`, "tab\there"},
		{`"he said \"hi\""`, `he said "hi"`},
		{`'it\'s'`, "it's"},
		{`"\x41\x42"`, "AB"},
		{`"nul\0byte"`, "nul\x00byte"},
	}
	for _, tt := range tests {
		lx, log := newLexer(t, tt.contents)
		require.False(t, log.HasErrors(), "source: %s", tt.contents)
		require.Equal(t, lexer.TStringLiteral, lx.Token, "source: %s", tt.contents)
		assert.Equal(t, tt.decoded, lx.String, "source: %s", tt.contents)
	}
}

func TestNumberLexing(t *testing.T) {
	tests := []struct {
		contents string
		value    float64
		raw      string
	}{
		{"0", 0, "0"},
		{"42", 42, "42"},
		{"3.25", 3.25, "3.25"},
		{"1e3", 1000, "1e3"},
		{"0xFF", 255, "0xFF"},
		{"0b101", 5, "0b101"},
		{"0o17", 15, "0o17"},
		{"1_000", 1000, "1_000"},
		{".5", 0.5, ".5"},
	}
	for _, tt := range tests {
		lx, log := newLexer(t, tt.contents)
		require.False(t, log.HasErrors(), "source: %s", tt.contents)
		require.Equal(t, lexer.TNumericLiteral, lx.Token, "source: %s", tt.contents)
		assert.Equal(t, tt.value, lx.Number, "source: %s", tt.contents)
		assert.Equal(t, tt.raw, lx.Raw, "source: %s", tt.contents)
	}
}

func TestHasNewlineBefore(t *testing.T) {
	lx, _ := newLexer(t, "a\nb c")
	assert.Equal(t, lexer.TIdentifier, lx.Token)
	assert.False(t, lx.HasNewlineBefore)

	lx.Next()
	assert.Equal(t, "b", lx.Identifier)
	assert.True(t, lx.HasNewlineBefore)

	lx.Next()
	assert.Equal(t, "c", lx.Identifier)
	assert.False(t, lx.HasNewlineBefore)
}

func TestHasNewlineBeforeThroughComments(t *testing.T) {
	// a line comment ends at the newline, so the newline still counts
	lx, _ := newLexer(t, "a // trailing\nb")
	lx.Next()
	assert.Equal(t, "b", lx.Identifier)
	assert.True(t, lx.HasNewlineBefore)

	// a block comment spanning lines counts as a newline
	lx, _ = newLexer(t, "a /* one\ntwo */ b")
	lx.Next()
	assert.Equal(t, "b", lx.Identifier)
	assert.True(t, lx.HasNewlineBefore)

	// a single-line block comment does not
	lx, _ = newLexer(t, "a /* same line */ b")
	lx.Next()
	assert.Equal(t, "b", lx.Identifier)
	assert.False(t, lx.HasNewlineBefore)
}

func TestRescanAsRegExp(t *testing.T) {
	tests := []string{
		"/ab+c/gi",
		"/a\\/b/",
		"/[/]/g",
		"/^\\d{3}$/",
	}
	for _, contents := range tests {
		lx, log := newLexer(t, contents)
		require.Equal(t, lexer.TSlash, lx.Token, "source: %s", contents)
		lx.RescanAsRegExp()
		require.False(t, log.HasErrors(), "source: %s", contents)
		assert.Equal(t, lexer.TRegExpLiteral, lx.Token, "source: %s", contents)
		assert.Equal(t, contents, lx.Raw, "source: %s", contents)
		lx.Next()
		assert.Equal(t, lexer.TEndOfFile, lx.Token, "source: %s", contents)
	}
}

func TestRescanAsRegExpFromSlashEquals(t *testing.T) {
	lx, log := newLexer(t, "/=end/")
	require.Equal(t, lexer.TSlashEquals, lx.Token)
	lx.RescanAsRegExp()
	require.False(t, log.HasErrors())
	assert.Equal(t, lexer.TRegExpLiteral, lx.Token)
	assert.Equal(t, "/=end/", lx.Raw)
}

func TestTemplateParts(t *testing.T) {
	contents := "`a${b}c`"
	lx, log := newLexer(t, contents)
	require.False(t, log.HasErrors())
	require.Equal(t, lexer.TTemplateLiteral, lx.Token)
	assert.Equal(t, contents, lx.Raw)

	parts := lx.TemplateParts
	require.Len(t, parts, 2)
	assert.Equal(t, "a", parts[0].Raw)
	assert.True(t, parts[0].HasExpr)
	assert.Equal(t, "b", contents[parts[0].ExprStart:parts[0].ExprEnd])
	assert.Equal(t, "c", parts[1].Raw)
	assert.False(t, parts[1].HasExpr)
}

func TestTemplateWithoutSubstitution(t *testing.T) {
	lx, log := newLexer(t, "`just text`")
	require.False(t, log.HasErrors())
	require.Equal(t, lexer.TTemplateLiteral, lx.Token)
	require.Len(t, lx.TemplateParts, 1)
	assert.Equal(t, "just text", lx.TemplateParts[0].Raw)
	assert.False(t, lx.TemplateParts[0].HasExpr)
}

func lexError(t *testing.T, contents string) diag.Msg {
	t.Helper()
	log := diag.NewLog()
	func() {
		defer func() {
			r := recover()
			require.NotNil(t, r, "expected a lex error for %q", contents)
			_, ok := r.(lexer.PanicError)
			require.True(t, ok, "unexpected panic: %v", r)
		}()
		lx := lexer.New(log, diag.NewSource("test.ts", contents))
		for lx.Token != lexer.TEndOfFile {
			lx.Next()
		}
	}()
	require.True(t, log.HasErrors())
	return log.Errors()[0]
}

func TestLexErrors(t *testing.T) {
	msg := lexError(t, `"never closed`)
	assert.Equal(t, "unterminated string literal", msg.Text)
	assert.Equal(t, "test.ts", msg.File)
	assert.Equal(t, 1, msg.Line)

	msg = lexError(t, "const s = 'broken\nline';")
	assert.Equal(t, "unterminated string literal", msg.Text)

	msg = lexError(t, "`no close")
	assert.Equal(t, "unterminated template literal", msg.Text)
}
