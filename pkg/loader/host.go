package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"reflect"
	"sync"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/console"
	"github.com/dop251/goja_nodejs/require"
	"github.com/stoewer/go-strcase"
	"go.uber.org/zap"

	"github.com/kyunghoon/twasm/pkg/transform"
	"github.com/kyunghoon/twasm/pkg/transpiler"
)

// Host is the "live document": an embedded goja runtime with the AMD
// prelude installed. Inject transpiles a module, re-addresses it with
// a fresh load key, and evaluates it; the runtime survives failed
// injections intact. All methods are safe for concurrent use; the
// runtime itself is single-threaded behind the host lock.
type Host struct {
	mu         sync.Mutex
	rt         *goja.Runtime
	registry   *require.Registry
	logger     *zap.Logger
	engine     transpiler.Engine
	noInterop  bool
	httpClient *http.Client
	closed     bool
}

type HostOption func(*Host)

func WithLogger(logger *zap.Logger) HostOption {
	return func(h *Host) { h.logger = logger }
}

func WithEngine(engine transpiler.Engine) HostOption {
	return func(h *Host) { h.engine = engine }
}

func WithNoInterop(noInterop bool) HostOption {
	return func(h *Host) { h.noInterop = noInterop }
}

func WithHTTPClient(client *http.Client) HostOption {
	return func(h *Host) { h.httpClient = client }
}

func NewHost(opts ...HostOption) (*Host, error) {
	h := &Host{
		logger:     zap.NewNop(),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(h)
	}

	rt := goja.New()
	rt.SetFieldNameMapper(&smartMapper{})
	registry := new(require.Registry)
	registry.Enable(rt)
	registry.RegisterNativeModule("twasm:console",
		console.RequireWithPrinter(&zapPrinter{logger: h.logger}))
	console.Enable(rt)
	rt.Set("console", require.Require(rt, "twasm:console").ToObject(rt))

	if _, err := rt.RunProgram(preludeProgram); err != nil {
		return nil, fmt.Errorf("loader: prelude failed: %w", err)
	}

	h.rt = rt
	h.registry = registry
	return h, nil
}

// Inject transpiles the module, registers it under a fresh load key,
// and evaluates it. The returned key addresses the module's exports
// via Namespace.
func (h *Host) Inject(filename, source string) (uint64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return 0, ErrHostClosed
	}

	result, err := transpiler.Transpile(filename, source, transpiler.Options{
		Format:    transform.FormatAMD,
		NoInterop: h.noInterop,
		Engine:    h.engine,
		Logger:    h.logger,
	})
	if err != nil {
		return 0, err
	}

	key := NextKey()
	wrapped, err := WrapDefine(key, result.Code)
	if err != nil {
		return 0, err
	}

	if _, err := h.rt.RunString(wrapped); err != nil {
		return 0, h.scriptError(key, err)
	}
	if _, err := h.rt.RunString(fmt.Sprintf("__twasmLoad(%d)", key)); err != nil {
		return 0, h.scriptError(key, err)
	}

	h.logger.Debug("module injected",
		zap.String("filename", filename),
		zap.Uint64("key", key))
	return key, nil
}

// InjectURL fetches TypeScript source over HTTP and injects it. The
// URL's last path segment names the module.
func (h *Host) InjectURL(ctx context.Context, url string) (uint64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := h.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("loader: fetch %s: unexpected status %s", url, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}
	filename := path.Base(req.URL.Path)
	if filename == "/" || filename == "." {
		filename = "module.ts"
	}
	return h.Inject(filename, string(body))
}

// Namespace returns the exports object of a previously injected
// module.
func (h *Host) Namespace(key uint64) (goja.Value, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHostClosed
	}
	value, err := h.rt.RunString(fmt.Sprintf("__twasmLoad(%d)", key))
	if err != nil {
		return nil, h.scriptError(key, err)
	}
	return value, nil
}

// Runtime exposes the underlying goja runtime for embedders that need
// to set globals or read values directly. Callers must not use it
// concurrently with Inject.
func (h *Host) Runtime() *goja.Runtime {
	return h.rt
}

// Close marks the host unusable. Subsequent calls return
// ErrHostClosed.
func (h *Host) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

func (h *Host) scriptError(key uint64, err error) error {
	if exception, isThrow := err.(*goja.Exception); isThrow {
		return &ScriptError{Key: key, Value: exception.Value().String()}
	}
	return err
}

// zapPrinter routes injected-module console output through the host
// logger.
type zapPrinter struct {
	logger *zap.Logger
}

var _ console.Printer = &zapPrinter{}

func (p *zapPrinter) Log(msg string)   { p.logger.Info(msg) }
func (p *zapPrinter) Warn(msg string)  { p.logger.Warn(msg) }
func (p *zapPrinter) Error(msg string) { p.logger.Error(msg) }

// smartMapper exposes Go values to scripts with lowerCamelCase names,
// honoring json tags when present.
type smartMapper struct{}

var _ goja.FieldNameMapper = &smartMapper{}

func (*smartMapper) FieldName(_ reflect.Type, f reflect.StructField) string {
	if tag := f.Tag.Get("json"); tag != "" {
		return tag
	}
	return strcase.LowerCamelCase(f.Name)
}

func (*smartMapper) MethodName(_ reflect.Type, m reflect.Method) string {
	return strcase.LowerCamelCase(m.Name)
}
