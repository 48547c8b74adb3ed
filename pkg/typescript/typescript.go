// Package typescript wraps the tsc compiler bundled with
// clarkmcc/go-typescript as an alternate transpile engine. It trades
// speed for fidelity: the native pipeline is orders of magnitude
// faster, but tsc is the reference behavior the engine parity tests
// compare against.
package typescript

import (
	"github.com/clarkmcc/go-typescript"
)

// Transpile runs tsc over src targeting es5 with the given module
// format ("amd", "umd", or "commonjs").
func Transpile(src, module string) (string, error) {
	return typescript.TranspileString(src,
		typescript.WithCompileOptions(map[string]any{
			"module": module,
			"target": "es5",
		}),
	)
}
