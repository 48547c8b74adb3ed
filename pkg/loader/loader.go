// Package loader turns transpiled module text into something a live
// runtime can execute: it hands out load keys, re-addresses AMD
// define calls with them, and hosts an embedded goja runtime carrying
// the AMD prelude so injected modules actually run.
package loader

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
)

var keyCounter atomic.Uint64

// NextKey returns a process-wide unique load key. Keys start at zero
// and increase by one per call; wraparound is not a practical concern.
func NextKey() uint64 {
	return keyCounter.Add(1) - 1
}

// ErrNotAMD reports input that does not start with an anonymous
// define call, which is the only shape WrapDefine can re-address.
var ErrNotAMD = errors.New("loader: input is not an anonymous AMD module")

// WrapDefine rewrites an anonymous "define(" call into one addressed
// by the numeric load key, so the prelude can later resolve the
// module by key alone.
func WrapDefine(key uint64, amdText string) (string, error) {
	trimmed := strings.TrimLeft(amdText, " \t\r\n")
	const prefix = "define("
	if !strings.HasPrefix(trimmed, prefix) {
		return "", ErrNotAMD
	}
	rest := strings.TrimLeft(trimmed[len(prefix):], " \t\r\n")
	if len(rest) > 0 && (rest[0] == '"' || rest[0] == '\'') {
		// already named; splicing a key in front would turn the name
		// into the deps array
		return "", ErrNotAMD
	}
	return prefix + strconv.FormatUint(key, 10) + ", " + trimmed[len(prefix):], nil
}

// ErrHostClosed reports use of a Host after Close.
var ErrHostClosed = errors.New("loader: host is closed")

// ScriptError wraps a throw escaping an injected module's evaluation.
type ScriptError struct {
	Key   uint64
	Value string
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("loader: module %d threw: %s", e.Key, e.Value)
}
