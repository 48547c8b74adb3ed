package typescript_test

import (
	"strings"
	"testing"

	"github.com/dop251/goja"
	"github.com/kyunghoon/twasm/pkg/typescript"
)

func TestTranspile(t *testing.T) {
	baseDefault := `function validateDataID(data: Data): any | null {
		return (data.id == null) ? null : data;
	}
	interface Data {
		id: string | null;
		name: string;
		description: string;
	}`

	tsSrcList := []string{
		"export " + strings.TrimSpace(baseDefault),
		"export default " + strings.TrimSpace(baseDefault),
		baseDefault + `
		export default validateDataID
		`,
		baseDefault + `
		export { validateDataID }
		`,
	}

	for _, tsSrc := range tsSrcList {
		vm := goja.New()
		jsSrc, err := typescript.Transpile(tsSrc, "commonjs")
		if err != nil {
			t.Fatal(err)
			return
		}
		vm.Set("exports", map[string]any{})
		if jsSrc == "" {
			t.Fatal("jsSrc is empty")
			return
		}
		_, err = vm.RunString(jsSrc)
		if err != nil {
			t.Fatal(err)
			return
		}

		val := vm.Get("exports")
		exportMap := val.Export().(map[string]any)

		if _, ok := exportMap["validateDataID"]; !ok {
			if _, ok := exportMap["default"]; !ok {
				t.Log(jsSrc)
				t.Fatal("exports.default or exports.validateDataID not found")
			}
		}
		if esMod, ok := exportMap["__esModule"]; !ok {
			t.Fatal("exports.__esModule not found")
		} else {
			if !esMod.(bool) {
				t.Fatal("exports.__esModule != true")
			}
		}
	}
}

func TestTranspileAMD(t *testing.T) {
	jsSrc, err := typescript.Transpile(`export const answer = 42`, "amd")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(strings.TrimSpace(jsSrc), "define(") {
		t.Fatalf("expected amd output, got: %s", jsSrc)
	}
}
