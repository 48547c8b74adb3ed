package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyunghoon/twasm/pkg/diag"
	"github.com/kyunghoon/twasm/pkg/js/parser"
	"github.com/kyunghoon/twasm/pkg/js/printer"
)

// expectPrinted parses the input and checks the printed output
// exactly. The printer normalizes quoting, indentation and optional
// braces, so the expected text is the normalized form, not the input.
func expectPrinted(t *testing.T, input string, expected string) {
	t.Helper()
	log := diag.NewLog()
	module, ok := parser.Parse(log, diag.NewSource("test.ts", input))
	require.True(t, ok, "parse failed for %q: %s", input, log.String())
	assert.Equal(t, expected, printer.Print(module), "source: %s", input)
}

func expectParseError(t *testing.T, input string, text string) diag.Msg {
	t.Helper()
	log := diag.NewLog()
	module, ok := parser.Parse(log, diag.NewSource("test.ts", input))
	require.False(t, ok, "expected a parse error for %q", input)
	require.Nil(t, module)
	require.True(t, log.HasErrors())
	msg := log.Errors()[0]
	assert.Equal(t, text, msg.Text, "source: %s", input)
	return msg
}

func TestParseStatements(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"const x = 1;", "const x = 1;\n"},
		{"let a = 1, b = 2;", "let a = 1, b = 2;\n"},
		{"var total;", "var total;\n"},
		{"debugger;", "debugger;\n"},
		{"'use strict';\nlet a = 1;", "\"use strict\";\nlet a = 1;\n"},
		{"if (a) b();", "if (a) {\n  b();\n}\n"},
		{
			"if (a) { x(); } else if (b) { y(); } else { z(); }",
			"if (a) {\n  x();\n} else if (b) {\n  y();\n} else {\n  z();\n}\n",
		},
		{"while (x > 0) { x--; }", "while (x > 0) {\n  x--;\n}\n"},
		{"do { f(); } while (more);", "do {\n  f();\n} while (more);\n"},
		{
			"for (let i = 0; i < 3; i++) { f(i); }",
			"for (let i = 0; i < 3; i++) {\n  f(i);\n}\n",
		},
		{"for (const k in obj) { f(k); }", "for (const k in obj) {\n  f(k);\n}\n"},
		{"for (const v of list) { f(v); }", "for (const v of list) {\n  f(v);\n}\n"},
		{
			"try { f(); } catch (err) { g(err); } finally { h(); }",
			"try {\n  f();\n} catch (err) {\n  g(err);\n} finally {\n  h();\n}\n",
		},
		{"try { f(); } catch { g(); }", "try {\n  f();\n} catch {\n  g();\n}\n"},
		{
			"switch (x) { case 1: f(); break; default: g(); }",
			"switch (x) {\n  case 1:\n    f();\n    break;\n  default:\n    g();\n}\n",
		},
		{"throw new Error(\"boom\");", "throw new Error(\"boom\");\n"},
	}
	for _, tt := range tests {
		expectPrinted(t, tt.input, tt.expected)
	}
}

func TestParseFunctions(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{
			"function add(a, b) { return a + b; }",
			"function add(a, b) {\n  return a + b;\n}\n",
		},
		{
			"async function go() { await fetch(url); }",
			"async function go() {\n  await fetch(url);\n}\n",
		},
		{
			"function* gen() { yield 1; }",
			"function* gen() {\n  yield 1;\n}\n",
		},
		{
			"function f(a = 1, ...rest) { return rest; }",
			"function f(a = 1, ...rest) {\n  return rest;\n}\n",
		},
		{"const f = (a, b) => a + b;", "const f = (a, b) => a + b;\n"},
		{"const id = x => x;", "const id = x => x;\n"},
		{"const make = () => ({ a: 1 });", "const make = () => ({ a: 1 });\n"},
		{"const run = async () => await step();", "const run = async () => await step();\n"},
		{
			"const outer = () => { inner(); };",
			"const outer = () => {\n  inner();\n};\n",
		},
		{
			"(function () { setup(); })();",
			"(function () {\n  setup();\n})();\n",
		},
	}
	for _, tt := range tests {
		expectPrinted(t, tt.input, tt.expected)
	}
}

func TestParseClasses(t *testing.T) {
	expectPrinted(t,
		"class Point { constructor(x, y) { this.x = x; } norm() { return this.x; } }",
		"class Point {\n  constructor(x, y) {\n    this.x = x;\n  }\n  norm() {\n    return this.x;\n  }\n}\n")

	expectPrinted(t, "class Dot extends Point {}", "class Dot extends Point {\n}\n")

	expectPrinted(t,
		"class Counter { count = 0; static zero = 0; }",
		"class Counter {\n  count = 0;\n  static zero = 0;\n}\n")

	expectPrinted(t,
		"class Box { get value() { return this.v; } set value(v) { this.v = v; } }",
		"class Box {\n  get value() {\n    return this.v;\n  }\n  set value(v) {\n    this.v = v;\n  }\n}\n")

	expectPrinted(t,
		"class Task { async run() { await this.step(); } }",
		"class Task {\n  async run() {\n    await this.step();\n  }\n}\n")
}

func TestParseImportsAndExports(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"import def from \"m\";", "import def from \"m\";\n"},
		{"import * as ns from \"m\";", "import * as ns from \"m\";\n"},
		{"import { a, b as c } from \"m\";", "import { a, b as c } from \"m\";\n"},
		{"import def, { a } from \"m\";", "import def, { a } from \"m\";\n"},
		{"import \"side-effect\";", "import \"side-effect\";\n"},
		{"export { a, b as c };", "export { a, b as c };\n"},
		{"export { a } from \"m\";", "export { a } from \"m\";\n"},
		{"export * from \"m\";", "export * from \"m\";\n"},
		{"export * as ns from \"m\";", "export * as ns from \"m\";\n"},
		{"export const a = 1;", "export const a = 1;\n"},
		{"export function f() {}", "export function f() {\n}\n"},
		{"export class A {}", "export class A {\n}\n"},
		{"export default 42;", "export default 42;\n"},
		{"export default function () {}", "export default function () {\n}\n"},
		{"export default class Main {}", "export default class Main {\n}\n"},
		{"const mod = import(\"./m\");", "const mod = import(\"./m\");\n"},
		{"const here = import.meta.url;", "const here = import.meta.url;\n"},
	}
	for _, tt := range tests {
		expectPrinted(t, tt.input, tt.expected)
	}
}

func TestParseExpressions(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"const s = 'single';", "const s = \"single\";\n"},
		{"const s = 'he said \"hi\"';", "const s = \"he said \\\"hi\\\"\";\n"},
		{"const t = `a${b}c`;", "const t = `a${b}c`;\n"},
		{"const t = tag`x${y}`;", "const t = tag`x${y}`;\n"},
		{"const re = /ab+c/gi;", "const re = /ab+c/gi;\n"},
		{"const n = 0xFF;", "const n = 0xFF;\n"},
		{"const n = 1_000;", "const n = 1_000;\n"},
		{"const v = a?.b?.[c]?.(d);", "const v = a?.b?.[c]?.(d);\n"},
		{"const m = a ? b : c;", "const m = a ? b : c;\n"},
		{"const m = a ? b : c ? d : e;", "const m = a ? b : c ? d : e;\n"},
		{"f(...args);", "f(...args);\n"},
		{"const arr = [1, ...rest];", "const arr = [1, ...rest];\n"},
		{"const obj = { ...base, extra };", "const obj = { ...base, extra };\n"},
		{"const obj = { a: 1, b, \"c d\": 2 };", "const obj = { a: 1, b, \"c d\": 2 };\n"},
		{"const obj = { [key]: value };", "const obj = { [key]: value };\n"},
		{"const obj = {};", "const obj = {};\n"},
		{"const { a, b: c } = o;", "const { a, b: c } = o;\n"},
		{"const { a = 1 } = o;", "const { a = 1 } = o;\n"},
		{"const [first, ...tail] = list;", "const [first, ...tail] = list;\n"},
		{"const u = void 0;", "const u = void 0;\n"},
		{"delete obj.prop;", "delete obj.prop;\n"},
		{"const k = typeof v === \"string\";", "const k = typeof v === \"string\";\n"},
		{"const has = \"a\" in obj;", "const has = \"a\" in obj;\n"},
		{"const is = err instanceof Error;", "const is = err instanceof Error;\n"},
		{"const d = new Date();", "const d = new Date();\n"},
		{"x += 1;", "x += 1;\n"},
		{"x ??= fallback;", "x ??= fallback;\n"},
		{"x ||= fallback;", "x ||= fallback;\n"},
		{"a = b = c;", "a = b = c;\n"},
		{"a = b, c;", "a = b, c;\n"},
		{"const n = a ?? b;", "const n = a ?? b;\n"},
		{"const z = a && b || c;", "const z = a && b || c;\n"},
	}
	for _, tt := range tests {
		expectPrinted(t, tt.input, tt.expected)
	}
}

func TestParsePrecedenceRoundTrip(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"const p = (a + b) * c;", "const p = (a + b) * c;\n"},
		{"const q = a + b * c;", "const q = a + b * c;\n"},
		{"const r = a - (b - c);", "const r = a - (b - c);\n"},
		{"const s = -(a + b);", "const s = -(a + b);\n"},
		{"const t = 2 ** 3 ** 2;", "const t = 2 ** 3 ** 2;\n"},
		{"const u = (a, b);", "const u = (a, b);\n"},
		{"const w = !(a && b);", "const w = !(a && b);\n"},
		{"const y = (a ? b : c).d;", "const y = (a ? b : c).d;\n"},
	}
	for _, tt := range tests {
		expectPrinted(t, tt.input, tt.expected)
	}
}

func TestParseTypeScriptErasure(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"const x: number = 1;", "const x = 1;\n"},
		{"let v = value as string;", "let v = value;\n"},
		{"const y = obj!.prop;", "const y = obj.prop;\n"},
		{"interface Shape { area(): number; }", ""},
		{"type Alias = string | number;", ""},
		{"declare const ambient: number;", ""},
		{
			"function f(a: string, b?: number): void { return; }",
			"function f(a, b) {\n  return;\n}\n",
		},
		{
			"function id<T>(v: T): T { return v; }",
			"function id(v) {\n  return v;\n}\n",
		},
		{"const out = id<string>(v);", "const out = id(v);\n"},
		{"const f = (a: number): number => a;", "const f = a => a;\n"},
		{
			"class Shape { sum(): number { return this.x; } }",
			"class Shape {\n  sum() {\n    return this.x;\n  }\n}\n",
		},
		{"export type T = number;", ""},
	}
	for _, tt := range tests {
		expectPrinted(t, tt.input, tt.expected)
	}
}

func TestParseAutomaticSemicolonInsertion(t *testing.T) {
	expectPrinted(t, "const a = 1\nconst b = 2", "const a = 1;\nconst b = 2;\n")
	expectPrinted(t, "a()\nb()", "a();\nb();\n")

	// a newline terminates a return statement
	expectPrinted(t,
		"function f() {\n  return\n  1\n}",
		"function f() {\n  return;\n  1;\n}\n")

	// a newline keeps ++ from attaching as a postfix operator
	expectPrinted(t, "a\n++b", "a;\n++b;\n")
}

func TestParseErrors(t *testing.T) {
	msg := expectParseError(t, "const x = ;", `unexpected ";"`)
	assert.Equal(t, "test.ts", msg.File)
	assert.Equal(t, 1, msg.Line)
	assert.Equal(t, 10, msg.Column)
	assert.Equal(t, "const x = ;", msg.LineText)

	msg = expectParseError(t, "const a = 1;\nconst b = ;", `unexpected ";"`)
	assert.Equal(t, 2, msg.Line)
	assert.Equal(t, 10, msg.Column)

	msg = expectParseError(t, "let a = 1 let b = 2", `expected ";" but found "let"`)
	assert.Equal(t, 10, msg.Column)

	expectParseError(t, "if (x { f(); }", `expected ")" but found "{"`)
	expectParseError(t, "try { f(); }", "missing catch or finally clause")
	expectParseError(t, "throw\nnew Error()", `unexpected newline after "throw"`)
	expectParseError(t, "@dec class A {}", "decorators are not supported")
	expectParseError(t, "namespace N { const x = 1; }", "TypeScript namespaces are not supported")
	expectParseError(t, "function f() { import x from \"m\"; }", "import declarations must appear at top level")
	expectParseError(t, "function f() { export const x = 1; }", "export declarations must appear at top level")
	expectParseError(t, "const s = \"never closed", "unterminated string literal")
}
