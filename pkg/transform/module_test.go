package transform_test

import (
	"strings"
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyunghoon/twasm/pkg/diag"
	"github.com/kyunghoon/twasm/pkg/js/parser"
	"github.com/kyunghoon/twasm/pkg/js/printer"
	"github.com/kyunghoon/twasm/pkg/transform"
)

func lower(t *testing.T, filename, source string, opts transform.ModuleOptions) string {
	t.Helper()
	src := diag.NewSource(filename, source)
	log := diag.NewLog()
	module, ok := parser.Parse(log, src)
	require.True(t, ok, "parse failed: %s", log.String())
	module = transform.EraseTypes(module)
	opts.Filename = filename
	module = transform.Module(module, src, opts, log)
	require.False(t, log.HasErrors(), "transform failed: %s", log.String())
	return printer.Print(module)
}

func lowerErr(t *testing.T, source string) *diag.Log {
	t.Helper()
	src := diag.NewSource("err.ts", source)
	log := diag.NewLog()
	module, ok := parser.Parse(log, src)
	require.True(t, ok, "parse failed: %s", log.String())
	module = transform.EraseTypes(module)
	transform.Module(module, src, transform.ModuleOptions{}, log)
	require.True(t, log.HasErrors(), "expected a transform error")
	return log
}

// runCJS evaluates UMD output down the CommonJS branch: an ambient
// exports object plus a require backed by the given module map.
func runCJS(t *testing.T, code string, modules map[string]map[string]any) (*goja.Runtime, *goja.Object) {
	t.Helper()
	vm := goja.New()
	exports := vm.NewObject()
	vm.Set("exports", exports)
	vm.Set("require", func(name string) any {
		mod, ok := modules[name]
		require.True(t, ok, "unexpected require of %q", name)
		return mod
	})
	_, err := vm.RunString(code)
	require.NoError(t, err)
	return vm, exports
}

// absent reports whether a property lookup found nothing. goja returns
// a Go nil for missing properties, not goja.Undefined().
func absent(v goja.Value) bool {
	return v == nil || goja.IsUndefined(v)
}

func callFn(t *testing.T, vm *goja.Runtime, obj *goja.Object, name string, args ...goja.Value) goja.Value {
	t.Helper()
	fn, ok := goja.AssertFunction(obj.Get(name))
	require.True(t, ok, "%s is not a function", name)
	value, err := fn(goja.Undefined(), args...)
	require.NoError(t, err)
	return value
}

func TestEmptyModuleStillWrapped(t *testing.T) {
	code := lower(t, "empty.ts", "var x = 1;", transform.ModuleOptions{})
	assert.True(t, strings.HasPrefix(code, "(function (global, factory)"), code)
	assert.Contains(t, code, "define.amd")
	assert.Contains(t, code, "typeof exports !== \"undefined\"")

	// no exports: the bare-runtime branch runs the factory and
	// publishes nothing
	vm := goja.New()
	_, err := vm.RunString(code)
	require.NoError(t, err)
	assert.True(t, absent(vm.Get("empty")))
}

func TestExportConst(t *testing.T) {
	code := lower(t, "mod.ts", "export const a = 1;", transform.ModuleOptions{})
	assert.Contains(t, code, "exports.__esModule = true")
	assert.Contains(t, code, "exports.a = void 0")

	_, exports := runCJS(t, code, nil)
	assert.Equal(t, int64(1), exports.Get("a").ToInteger())
	assert.True(t, exports.Get("__esModule").ToBoolean())
}

func TestGlobalScriptBranch(t *testing.T) {
	code := lower(t, "widget.ts", "export const a = 1;", transform.ModuleOptions{})
	vm := goja.New()
	_, err := vm.RunString(code)
	require.NoError(t, err)
	widget := vm.Get("widget").ToObject(vm)
	assert.Equal(t, int64(1), widget.Get("a").ToInteger())
}

func TestLiveBindings(t *testing.T) {
	code := lower(t, "counter.ts", `
export let n = 0;
export function bump() { n++; }
export function drop() { --n; }
export function reset(v: number) { n = v; }
`, transform.ModuleOptions{})

	vm := goja.New()
	exports := vm.NewObject()
	vm.Set("exports", exports)
	_, err := vm.RunString(code)
	require.NoError(t, err)

	assert.Equal(t, int64(0), exports.Get("n").ToInteger())
	callFn(t, vm, exports, "bump")
	callFn(t, vm, exports, "bump")
	assert.Equal(t, int64(2), exports.Get("n").ToInteger())
	callFn(t, vm, exports, "drop")
	assert.Equal(t, int64(1), exports.Get("n").ToInteger())
	callFn(t, vm, exports, "reset", vm.ToValue(40))
	assert.Equal(t, int64(40), exports.Get("n").ToInteger())
}

func TestPostfixValueSemantics(t *testing.T) {
	code := lower(t, "post.ts", `
export let n = 5;
export function take() { return n++; }
`, transform.ModuleOptions{})
	vm := goja.New()
	exports := vm.NewObject()
	vm.Set("exports", exports)
	_, err := vm.RunString(code)
	require.NoError(t, err)

	old := callFn(t, vm, exports, "take")
	assert.Equal(t, int64(5), old.ToInteger())
	assert.Equal(t, int64(6), exports.Get("n").ToInteger())
}

func TestExportedFunctionHoisting(t *testing.T) {
	// the call site runs before the declaration in source order, so
	// the declaration and its export assignment must be hoisted
	code := lower(t, "hoist.ts", `
export const early = greet();
export function greet() { return "hi"; }
`, transform.ModuleOptions{})
	_, exports := runCJS(t, code, nil)
	assert.Equal(t, "hi", exports.Get("early").String())
}

func TestDefaultExports(t *testing.T) {
	t.Run("named function", func(t *testing.T) {
		code := lower(t, "d.ts", "export default function seven() { return 7; }", transform.ModuleOptions{})
		vm := goja.New()
		exports := vm.NewObject()
		vm.Set("exports", exports)
		_, err := vm.RunString(code)
		require.NoError(t, err)
		assert.Equal(t, int64(7), callFn(t, vm, exports, "default").ToInteger())
	})

	t.Run("expression identity", func(t *testing.T) {
		code := lower(t, "d.ts", `
const x = { v: 1 };
export default x;
export function same(o: any) { return o === x; }
`, transform.ModuleOptions{})
		vm := goja.New()
		exports := vm.NewObject()
		vm.Set("exports", exports)
		_, err := vm.RunString(code)
		require.NoError(t, err)
		same := callFn(t, vm, exports, "same", exports.Get("default"))
		assert.True(t, same.ToBoolean())
	})

	t.Run("anonymous class", func(t *testing.T) {
		code := lower(t, "d.ts", "export default class { go() { return 3; } }", transform.ModuleOptions{})
		vm := goja.New()
		exports := vm.NewObject()
		vm.Set("exports", exports)
		_, err := vm.RunString(code)
		require.NoError(t, err)
		value, err := vm.RunString("new (exports.default)().go()")
		require.NoError(t, err)
		assert.Equal(t, int64(3), value.ToInteger())
	})

	t.Run("named function tracks reassignment", func(t *testing.T) {
		code := lower(t, "d.ts", `
export default function greet() { return "hi"; }
export function swap() { greet = 42; }
`, transform.ModuleOptions{})
		_, exports := runCJS(t, code, nil)

		fn, ok := goja.AssertFunction(exports.Get("default"))
		require.True(t, ok)
		value, err := fn(goja.Undefined())
		require.NoError(t, err)
		assert.Equal(t, "hi", value.String())

		callFn(t, nil, exports, "swap")
		assert.Equal(t, int64(42), exports.Get("default").ToInteger())
	})

	t.Run("named class tracks reassignment", func(t *testing.T) {
		code := lower(t, "d.ts", `
export default class Box {}
export function swap() { Box = "gone"; }
`, transform.ModuleOptions{})
		_, exports := runCJS(t, code, nil)
		callFn(t, nil, exports, "swap")
		assert.Equal(t, "gone", exports.Get("default").String())
	})
}

func TestNamedImportRewrite(t *testing.T) {
	code := lower(t, "use.ts", `
import { a, b as c } from "./m";
export const sum = a + c;
`, transform.ModuleOptions{})
	_, exports := runCJS(t, code, map[string]map[string]any{
		"./m": {"a": 2, "b": 3, "__esModule": true},
	})
	assert.Equal(t, int64(5), exports.Get("sum").ToInteger())
}

func TestDefaultImportInterop(t *testing.T) {
	code := lower(t, "use.ts", `
import d from "./legacy";
export const v = d;
`, transform.ModuleOptions{})
	assert.Contains(t, code, "_interopRequireDefault")

	// a module without __esModule is wrapped so its whole value
	// becomes the default
	vm, exports := runCJS(t, code, map[string]map[string]any{
		"./legacy": {"x": 9},
	})
	v := exports.Get("v").ToObject(vm)
	assert.Equal(t, int64(9), v.Get("x").ToInteger())
}

func TestNamespaceImportInterop(t *testing.T) {
	code := lower(t, "use.ts", `
import * as ns from "./legacy";
export const d = ns.default;
export const x = ns.x;
`, transform.ModuleOptions{})
	assert.Contains(t, code, "_interopRequireWildcard")

	vm, exports := runCJS(t, code, map[string]map[string]any{
		"./legacy": {"x": 4},
	})
	assert.Equal(t, int64(4), exports.Get("x").ToInteger())
	d := exports.Get("d").ToObject(vm)
	assert.Equal(t, int64(4), d.Get("x").ToInteger())
}

func TestNoInterop(t *testing.T) {
	code := lower(t, "use.ts", `
import d from "./m";
export const v = d;
`, transform.ModuleOptions{NoInterop: true})
	assert.NotContains(t, code, "_interopRequireDefault")
	assert.NotContains(t, code, "__esModule")
}

func TestImportDedup(t *testing.T) {
	code := lower(t, "use.ts", `
import { a } from "./m";
import { b } from "./m";
import { c } from "./other";
export const sum = a + b + c;
`, transform.ModuleOptions{Format: transform.FormatAMD})
	assert.True(t, strings.HasPrefix(code, `define(["exports", "./m", "./other"], `), code)

	// both bindings resolve through the single shared parameter
	first := strings.Index(code, `"./m"`)
	last := strings.LastIndex(code, `"./m"`)
	assert.Equal(t, first, last)
}

func TestShadowedImportNotRewritten(t *testing.T) {
	code := lower(t, "use.ts", `
import { a } from "./m";
export function f(a: number) { return a; }
export const outer = a;
`, transform.ModuleOptions{})
	vm := goja.New()
	exports := vm.NewObject()
	vm.Set("exports", exports)
	vm.Set("require", func(string) any {
		return map[string]any{"a": 1, "__esModule": true}
	})
	_, err := vm.RunString(code)
	require.NoError(t, err)
	assert.Equal(t, int64(5), callFn(t, vm, exports, "f", vm.ToValue(5)).ToInteger())
	assert.Equal(t, int64(1), exports.Get("outer").ToInteger())
}

func TestShorthandPropertyRewrite(t *testing.T) {
	code := lower(t, "use.ts", `
import { a } from "./m";
export const o = { a };
`, transform.ModuleOptions{})
	vm, exports := runCJS(t, code, map[string]map[string]any{
		"./m": {"a": 11, "__esModule": true},
	})
	o := exports.Get("o").ToObject(vm)
	assert.Equal(t, int64(11), o.Get("a").ToInteger())
}

func TestClauseExportGetter(t *testing.T) {
	code := lower(t, "use.ts", `
let a = 1;
export { a as b };
export function set(v: number) { a = v; }
`, transform.ModuleOptions{})
	assert.Contains(t, code, "Object.defineProperty(exports, \"b\"")

	vm := goja.New()
	exports := vm.NewObject()
	vm.Set("exports", exports)
	_, err := vm.RunString(code)
	require.NoError(t, err)
	assert.Equal(t, int64(1), exports.Get("b").ToInteger())
	callFn(t, vm, exports, "set", vm.ToValue(8))
	assert.Equal(t, int64(8), exports.Get("b").ToInteger())
}

func TestReExport(t *testing.T) {
	code := lower(t, "use.ts", `export { a as b } from "./m";`, transform.ModuleOptions{})
	_, exports := runCJS(t, code, map[string]map[string]any{
		"./m": {"a": 6, "__esModule": true},
	})
	assert.Equal(t, int64(6), exports.Get("b").ToInteger())
}

func TestExportAll(t *testing.T) {
	t.Run("guard protects named exports", func(t *testing.T) {
		code := lower(t, "use.ts", `
export * from "./m";
export const a = 1;
`, transform.ModuleOptions{})
		assert.Contains(t, code, "_exportNames")

		_, exports := runCJS(t, code, map[string]map[string]any{
			"./m": {"a": 99, "x": 2, "default": 3, "__esModule": true},
		})
		assert.Equal(t, int64(1), exports.Get("a").ToInteger(), "local export wins")
		assert.Equal(t, int64(2), exports.Get("x").ToInteger(), "foreign keys copied")
		assert.True(t, absent(exports.Get("default")), "default never re-exported")
	})

	t.Run("guard omitted without named exports", func(t *testing.T) {
		code := lower(t, "use.ts", `export * from "./m";`, transform.ModuleOptions{})
		assert.NotContains(t, code, "_exportNames")
	})
}

func TestDestructuringAssignmentFollowUp(t *testing.T) {
	code := lower(t, "use.ts", `
export let a = 0;
export let b = 0;
export function swap() { [a, b] = [b, a + 1]; }
`, transform.ModuleOptions{})
	vm := goja.New()
	exports := vm.NewObject()
	vm.Set("exports", exports)
	_, err := vm.RunString(code)
	require.NoError(t, err)
	callFn(t, vm, exports, "swap")
	assert.Equal(t, int64(0), exports.Get("a").ToInteger())
	assert.Equal(t, int64(1), exports.Get("b").ToInteger())
}

func TestAMDFormat(t *testing.T) {
	code := lower(t, "mod.ts", "export const a = 1;", transform.ModuleOptions{Format: transform.FormatAMD})
	assert.True(t, strings.HasPrefix(code, `define(["exports"], `), code)
	assert.NotContains(t, code, "typeof exports")
}

func TestGlobalNameOverride(t *testing.T) {
	code := lower(t, "some-file.ts", "export const a = 1;", transform.ModuleOptions{GlobalName: "MyLib"})
	vm := goja.New()
	_, err := vm.RunString(code)
	require.NoError(t, err)
	lib := vm.Get("MyLib").ToObject(vm)
	assert.Equal(t, int64(1), lib.Get("a").ToInteger())
}

func TestUnsupportedConstructs(t *testing.T) {
	t.Run("export equals", func(t *testing.T) {
		log := lowerErr(t, "export = 1;")
		assert.Contains(t, log.String(), "export =")
	})
	t.Run("dynamic import", func(t *testing.T) {
		log := lowerErr(t, `const p = import("./m");`)
		assert.Contains(t, log.String(), "dynamic import")
	})
	t.Run("import meta", func(t *testing.T) {
		log := lowerErr(t, "const u = import.meta;")
		assert.Contains(t, log.String(), "import.meta")
	})
	t.Run("duplicate export", func(t *testing.T) {
		log := lowerErr(t, "export const a = 1;\nexport function a() {}")
		assert.Contains(t, log.String(), "duplicate export")
	})
	t.Run("assign to import", func(t *testing.T) {
		log := lowerErr(t, `import { a } from "./m";
a = 2;
export const x = a;`)
		assert.Contains(t, log.String(), "cannot assign to imported binding")
	})
}
