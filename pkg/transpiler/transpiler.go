// Package transpiler is the pipeline facade: filename + TypeScript
// source in, browser-loadable JavaScript out. It owns engine
// selection, the error taxonomy, and the stage plumbing; the stages
// themselves live in pkg/js and pkg/transform.
package transpiler

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kyunghoon/twasm/pkg/diag"
	"github.com/kyunghoon/twasm/pkg/js/ast"
	"github.com/kyunghoon/twasm/pkg/js/parser"
	"github.com/kyunghoon/twasm/pkg/js/printer"
	"github.com/kyunghoon/twasm/pkg/transform"
	"github.com/kyunghoon/twasm/pkg/typescript"
)

type Kind uint8

const (
	// KindSyntax marks source the parser rejected.
	KindSyntax Kind = iota
	// KindUnsupported marks valid source using constructs the
	// lowering cannot express (export =, dynamic import, JSX).
	KindUnsupported
	// KindInternal marks a pipeline defect, never a source defect.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindUnsupported:
		return "unsupported"
	case KindInternal:
		return "internal"
	default:
		return "syntax"
	}
}

// Diagnostic is one positioned message. Line is 1-based, Column is
// 0-based, matching the diag package.
type Diagnostic struct {
	Message  string `json:"message"`
	File     string `json:"file,omitempty"`
	Line     int    `json:"line,omitempty"`
	Column   int    `json:"column"`
	LineText string `json:"line_text,omitempty"`
}

type Error struct {
	Kind        Kind
	Diagnostics []Diagnostic
}

func (e *Error) Error() string {
	if len(e.Diagnostics) == 0 {
		return e.Kind.String() + " error"
	}
	parts := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		if d.File != "" {
			parts[i] = fmt.Sprintf("%s:%d:%d: %s", d.File, d.Line, d.Column, d.Message)
		} else {
			parts[i] = d.Message
		}
	}
	return e.Kind.String() + " error: " + strings.Join(parts, "; ")
}

// Engine selects the transpile implementation.
type Engine uint8

const (
	// EngineNative is the in-repo lex/parse/erase/transform/print
	// pipeline.
	EngineNative Engine = iota
	// EngineTSC runs the bundled tsc compiler inside goja. Slow;
	// used for parity checking and as an escape hatch.
	EngineTSC
)

type Options struct {
	Format     transform.Format
	GlobalName string
	NoInterop  bool
	Engine     Engine
	Logger     *zap.Logger
}

type Result struct {
	Filename string
	Code     string
}

// Transpile converts one TypeScript module into a single wrapped
// JavaScript statement. It either returns a complete Result or an
// *Error; there is no partial output.
func Transpile(filename, source string, opts Options) (Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	start := time.Now()

	if strings.HasSuffix(filename, ".tsx") || strings.HasSuffix(filename, ".jsx") {
		return Result{}, &Error{Kind: KindUnsupported, Diagnostics: []Diagnostic{{
			Message: "JSX is not supported", File: filename,
		}}}
	}

	var code string
	var err error
	if opts.Engine == EngineTSC {
		code, err = tscTranspile(filename, source, opts)
	} else {
		code, err = nativeTranspile(filename, source, opts)
	}
	if err != nil {
		logger.Debug("transpile failed",
			zap.String("filename", filename),
			zap.Error(err))
		return Result{}, err
	}

	logger.Debug("transpiled",
		zap.String("filename", filename),
		zap.Int("source_bytes", len(source)),
		zap.Int("output_bytes", len(code)),
		zap.Duration("elapsed", time.Since(start)))
	return Result{Filename: filename, Code: code}, nil
}

func nativeTranspile(filename, source string, opts Options) (code string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &Error{Kind: KindInternal, Diagnostics: []Diagnostic{{
				Message: fmt.Sprintf("pipeline panic: %v", r), File: filename,
			}}}
		}
	}()

	src := diag.NewSource(filename, source)
	log := diag.NewLog()

	module, ok := parser.Parse(log, src)
	if !ok || log.HasErrors() {
		return "", &Error{Kind: KindSyntax, Diagnostics: diagnosticsFrom(log)}
	}

	if alreadyWrapped(module) {
		return "", &Error{Kind: KindUnsupported, Diagnostics: []Diagnostic{{
			Message: "input is already wrapped module output and cannot be transpiled again",
			File:    filename,
		}}}
	}

	module = transform.EraseTypes(module)

	module = transform.Module(module, src, transform.ModuleOptions{
		Format:     opts.Format,
		GlobalName: opts.GlobalName,
		Filename:   filename,
		NoInterop:  opts.NoInterop,
	}, log)
	if log.HasErrors() {
		return "", &Error{Kind: KindUnsupported, Diagnostics: diagnosticsFrom(log)}
	}

	return printer.Print(module), nil
}

func tscTranspile(filename, source string, opts Options) (string, error) {
	module := "umd"
	if opts.Format == transform.FormatAMD {
		module = "amd"
	}
	code, err := typescript.Transpile(source, module)
	if err != nil {
		return "", &Error{Kind: KindSyntax, Diagnostics: []Diagnostic{{
			Message: err.Error(), File: filename,
		}}}
	}
	if module == "amd" {
		code = anonymizeDefine(code)
	}
	return code, nil
}

// anonymizeDefine strips the module name tsc bakes into its AMD
// output. tsc emits define("default", [...], factory); the loader
// assigns its own key at injection time, so the define must stay
// anonymous.
func anonymizeDefine(code string) string {
	trimmed := strings.TrimLeft(code, " \t\r\n")
	rest, found := strings.CutPrefix(trimmed, "define(")
	if !found {
		return code
	}
	rest = strings.TrimLeft(rest, " \t\r\n")
	if len(rest) == 0 || (rest[0] != '"' && rest[0] != '\'') {
		return code
	}
	end := strings.IndexByte(rest[1:], rest[0])
	if end < 0 {
		return code
	}
	rest = strings.TrimLeft(rest[end+2:], " \t\r\n")
	rest = strings.TrimLeft(strings.TrimPrefix(rest, ","), " \t\r\n")
	return "define(" + rest
}

// alreadyWrapped recognizes the output of a previous transpile fed
// back in: a module that is exactly one statement calling define, or
// one dispatcher IIFE taking a factory function as its last argument.
// Transpilation is single-shot; wrapped output goes to the loader,
// not around the pipeline again.
func alreadyWrapped(module *ast.Module) bool {
	if len(module.Stmts) != 1 {
		return false
	}
	expr, isExpr := module.Stmts[0].Data.(*ast.SExpr)
	if !isExpr {
		return false
	}
	call, isCall := expr.Value.Data.(*ast.ECall)
	if !isCall {
		return false
	}
	switch target := call.Target.Data.(type) {
	case *ast.EIdentifier:
		return target.Name == "define"
	case *ast.EFunction:
		if len(call.Args) < 2 {
			return false
		}
		switch call.Args[len(call.Args)-1].Data.(type) {
		case *ast.EFunction, *ast.EArrow:
			return true
		}
	}
	return false
}

func diagnosticsFrom(log *diag.Log) []Diagnostic {
	msgs := log.Errors()
	out := make([]Diagnostic, len(msgs))
	for i, msg := range msgs {
		out[i] = Diagnostic{
			Message:  msg.Text,
			File:     msg.File,
			Line:     msg.Line,
			Column:   msg.Column,
			LineText: msg.LineText,
		}
	}
	return out
}
