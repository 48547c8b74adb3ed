package transform_test

import (
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyunghoon/twasm/pkg/transform"
)

func TestEraseTypeOnlyStatements(t *testing.T) {
	code := lower(t, "t.ts", `
interface Shape { area(): number; }
type Alias = string | number;
declare const ambient: number;
export const a: Alias = 1;
`, transform.ModuleOptions{})
	assert.NotContains(t, code, "interface")
	assert.NotContains(t, code, "Alias")

	_, exports := runCJS(t, code, nil)
	assert.Equal(t, int64(1), exports.Get("a").ToInteger())
}

func TestEraseUnreferencedImports(t *testing.T) {
	t.Run("type-only clause", func(t *testing.T) {
		code := lower(t, "t.ts", `
import type { T } from "./types";
export const a: T = 1;
`, transform.ModuleOptions{})
		assert.NotContains(t, code, "./types")
	})

	t.Run("binding used only in type positions", func(t *testing.T) {
		code := lower(t, "t.ts", `
import { T } from "./types";
export const a: T = 1;
`, transform.ModuleOptions{})
		assert.NotContains(t, code, "./types")
	})

	t.Run("side-effect import survives", func(t *testing.T) {
		code := lower(t, "t.ts", `import "./setup";`, transform.ModuleOptions{Format: transform.FormatAMD})
		assert.Contains(t, code, `"./setup"`)
	})

	t.Run("value reference keeps import", func(t *testing.T) {
		code := lower(t, "t.ts", `
import { helper } from "./lib";
export const v = helper();
`, transform.ModuleOptions{})
		assert.Contains(t, code, `"./lib"`)
	})
}

func TestEnumLowering(t *testing.T) {
	code := lower(t, "e.ts", `
export enum Color { Red, Green, Blue = 7, Cyan }
export enum Tag { A = "a", B = "b" }
`, transform.ModuleOptions{})

	vm := goja.New()
	exports := vm.NewObject()
	vm.Set("exports", exports)
	_, err := vm.RunString(code)
	require.NoError(t, err)

	color := exports.Get("Color").ToObject(vm)
	assert.Equal(t, int64(0), color.Get("Red").ToInteger())
	assert.Equal(t, int64(1), color.Get("Green").ToInteger())
	assert.Equal(t, int64(7), color.Get("Blue").ToInteger())
	assert.Equal(t, int64(8), color.Get("Cyan").ToInteger())
	assert.Equal(t, "Green", color.Get("1").String(), "numeric members reverse-map")

	tag := exports.Get("Tag").ToObject(vm)
	assert.Equal(t, "a", tag.Get("A").String())
	assert.True(t, absent(tag.Get("a")), "string members do not reverse-map")
}

func TestParameterProperties(t *testing.T) {
	code := lower(t, "c.ts", `
export class Point {
  constructor(private x: number, public y: number, z: number) {}
  sum(): number { return this.x + this.y; }
}
export class Point3 extends Point {
  constructor(readonly z: number) {
    super(1, 2, 0);
  }
}
`, transform.ModuleOptions{})

	vm := goja.New()
	exports := vm.NewObject()
	vm.Set("exports", exports)
	_, err := vm.RunString(code)
	require.NoError(t, err)

	value, err := vm.RunString("new (exports.Point)(3, 4, 99).sum()")
	require.NoError(t, err)
	assert.Equal(t, int64(7), value.ToInteger())

	value, err = vm.RunString("var p = new (exports.Point3)(5); [p.z, p.sum()]")
	require.NoError(t, err)
	arr := value.ToObject(vm)
	assert.Equal(t, int64(5), arr.Get("0").ToInteger())
	assert.Equal(t, int64(3), arr.Get("1").ToInteger())
}

func TestOverloadSignaturesDropped(t *testing.T) {
	code := lower(t, "o.ts", `
export function pick(v: string): string;
export function pick(v: number): number;
export function pick(v: any): any { return v; }
`, transform.ModuleOptions{})

	vm := goja.New()
	exports := vm.NewObject()
	vm.Set("exports", exports)
	_, err := vm.RunString(code)
	require.NoError(t, err)
	assert.Equal(t, int64(9), callFn(t, vm, exports, "pick", vm.ToValue(9)).ToInteger())
}

func TestTypeAnnotationsErased(t *testing.T) {
	code := lower(t, "a.ts", `
function id<T>(v: T): T { return v as T; }
export const n = id<number>(5);
export const s = id("x" as unknown as string)!;
`, transform.ModuleOptions{})
	assert.NotContains(t, code, "<number>")
	assert.NotContains(t, code, " as ")

	_, exports := runCJS(t, code, nil)
	assert.Equal(t, int64(5), exports.Get("n").ToInteger())
	assert.Equal(t, "x", exports.Get("s").String())
}
