// Package transform holds the two AST-to-AST passes: EraseTypes
// strips and lowers TypeScript-only syntax, and Module rewrites the
// ECMAScript module surface into a single wrapped factory invocation
// loadable by AMD, CommonJS, or a plain script tag.
package transform

import (
	"strings"

	"github.com/kyunghoon/twasm/pkg/diag"
	"github.com/kyunghoon/twasm/pkg/js/ast"
)

type Format uint8

const (
	// FormatUMD emits the three-branch wrapper that dispatches to
	// AMD, CommonJS, or a global-script fallback at runtime.
	FormatUMD Format = iota
	// FormatAMD emits a bare define([deps], factory) call, the shape
	// the script injector re-addresses with a numeric load key.
	FormatAMD
)

type ModuleOptions struct {
	Format Format
	// GlobalName is the property the global-script branch assigns the
	// exports object to. Derived from the filename when empty.
	GlobalName string
	Filename   string
	// NoInterop disables the __esModule marker and the default /
	// wildcard import shims.
	NoInterop bool
}

// importRecord tracks one distinct imported specifier. Multiple
// import statements naming the same source collapse onto one record
// and one factory parameter.
type importRecord struct {
	path          string
	param         string
	needsDefault  bool
	needsWildcard bool
}

// importedBinding maps a module-local name to the member of an import
// record it stands for. external is "*" for namespace imports and
// "default" for default imports.
type importedBinding struct {
	record   *importRecord
	external string
}

type exportRecord struct {
	exportedName string
	// exactly one of these describes the source
	localName string        // alias of a local binding, via getter
	from      *importRecord // re-export, via getter over the record
	fromName  string
}

type moduleTransform struct {
	opts   ModuleOptions
	source diag.Source
	log    *diag.Log

	imports       []*importRecord
	importsByPath map[string]*importRecord
	importedLocals map[string]importedBinding

	exportOrder []string
	exportSet   map[string]bool
	getters     []exportRecord
	preInit     []string
	exportAll   []*importRecord

	// exportedLocals maps a local binding name to the export names
	// that must observe its mutations.
	exportedLocals map[string][]string

	hoisted []ast.Stmt // exported function declarations + assignments
	body    []ast.Stmt

	usedNames map[string]bool
	names     *nameAllocator
}

// Module rewrites a type-erased module AST into a single-statement
// module containing the wrapped factory invocation. The input AST is
// not modified; all scratch state lives for one call only. Constructs
// the lowering cannot express (export =, dynamic import, import.meta)
// are passed through unchanged and reported into the log.
func Module(module *ast.Module, source diag.Source, opts ModuleOptions, log *diag.Log) *ast.Module {
	t := &moduleTransform{
		opts:           opts,
		source:         source,
		log:            log,
		importsByPath:  map[string]*importRecord{},
		importedLocals: map[string]importedBinding{},
		exportSet:      map[string]bool{},
		exportedLocals: map[string][]string{},
		usedNames:      map[string]bool{},
	}
	collectUsedNames(module, t.usedNames)
	t.names = newNameAllocator(t.usedNames)

	for _, stmt := range module.Stmts {
		t.classify(stmt)
	}
	t.rewriteBody()
	return &ast.Module{Stmts: []ast.Stmt{t.assemble()}}
}

func (t *moduleTransform) recordFor(path string) *importRecord {
	if record, seen := t.importsByPath[path]; seen {
		return record
	}
	record := &importRecord{
		path:  path,
		param: t.names.claim("_" + specifierBaseName(path)),
	}
	t.importsByPath[path] = record
	t.imports = append(t.imports, record)
	return record
}

func (t *moduleTransform) addExportName(loc diag.Loc, name string) {
	if t.exportSet[name] {
		t.log.AddError(&t.source, loc, "duplicate export of "+name)
		return
	}
	t.exportSet[name] = true
	t.exportOrder = append(t.exportOrder, name)
}

func (t *moduleTransform) classify(stmt ast.Stmt) {
	switch s := stmt.Data.(type) {
	case *ast.SImport:
		if s.IsTypeOnly {
			return
		}
		record := t.recordFor(s.Path)
		if s.DefaultName != "" {
			record.needsDefault = true
			t.importedLocals[s.DefaultName] = importedBinding{record: record, external: "default"}
		}
		if s.NamespaceName != "" {
			record.needsWildcard = true
			t.importedLocals[s.NamespaceName] = importedBinding{record: record, external: "*"}
		}
		for _, item := range s.Items {
			if item.IsTypeOnly {
				continue
			}
			t.importedLocals[item.Name] = importedBinding{record: record, external: item.Alias}
		}

	case *ast.SExportClause:
		if s.IsTypeOnly {
			return
		}
		if s.HasPath {
			record := t.recordFor(s.Path)
			for _, item := range s.Items {
				if item.IsTypeOnly {
					continue
				}
				if item.Name == "default" {
					record.needsDefault = true
				}
				t.addExportName(stmt.Loc, item.Alias)
				t.getters = append(t.getters, exportRecord{
					exportedName: item.Alias,
					from:         record,
					fromName:     item.Name,
				})
			}
			return
		}
		for _, item := range s.Items {
			if item.IsTypeOnly {
				continue
			}
			t.addExportName(stmt.Loc, item.Alias)
			t.getters = append(t.getters, exportRecord{
				exportedName: item.Alias,
				localName:    item.Name,
			})
		}

	case *ast.SExportStar:
		record := t.recordFor(s.Path)
		if s.Alias != "" {
			// "export * as ns from" is a named re-export of the whole
			// namespace object
			record.needsWildcard = true
			t.addExportName(stmt.Loc, s.Alias)
			t.getters = append(t.getters, exportRecord{
				exportedName: s.Alias,
				from:         record,
				fromName:     "*",
			})
			return
		}
		t.exportAll = append(t.exportAll, record)

	case *ast.SExportDefault:
		t.addExportName(stmt.Loc, "default")
		t.preInit = append(t.preInit, "default")
		if s.Stmt != nil {
			switch decl := s.Stmt.Data.(type) {
			case *ast.SFunction:
				fn := decl.Fn
				if fn.Name == "" {
					fn.Name = t.names.claim("_default")
				} else {
					t.exportedLocals[fn.Name] = append(t.exportedLocals[fn.Name], "default")
				}
				t.hoisted = append(t.hoisted,
					ast.Stmt{Loc: s.Stmt.Loc, Data: &ast.SFunction{Fn: fn}},
					exprStmt(assign(dot(ident("exports"), "default"), ident(fn.Name))),
				)
				return
			case *ast.SClass:
				class := decl.Class
				if class.Name == "" {
					name := t.names.claim("_default")
					classExpr := ast.Expr{Loc: s.Stmt.Loc, Data: &ast.EClass{Class: class}}
					t.body = append(t.body,
						varStmt(ast.VarVar, name, &classExpr),
						exprStmt(assign(dot(ident("exports"), "default"), ident(name))),
					)
					return
				}
				t.exportedLocals[class.Name] = append(t.exportedLocals[class.Name], "default")
				t.body = append(t.body,
					ast.Stmt{Loc: s.Stmt.Loc, Data: &ast.SClass{Class: class}},
					exprStmt(assign(dot(ident("exports"), "default"), ident(class.Name))),
				)
				return
			}
		}
		name := t.names.claim("_default")
		t.body = append(t.body,
			varStmt(ast.VarVar, name, s.Value),
			exprStmt(assign(dot(ident("exports"), "default"), ident(name))),
		)

	case *ast.SFunction:
		if !s.IsExport {
			t.body = append(t.body, stmt)
			return
		}
		name := s.Fn.Name
		t.addExportName(stmt.Loc, name)
		t.exportedLocals[name] = append(t.exportedLocals[name], name)
		t.hoisted = append(t.hoisted,
			ast.Stmt{Loc: stmt.Loc, Data: &ast.SFunction{Fn: s.Fn}},
			exprStmt(assign(member(ident("exports"), name), ident(name))),
		)

	case *ast.SClass:
		if !s.IsExport {
			t.body = append(t.body, stmt)
			return
		}
		name := s.Class.Name
		t.addExportName(stmt.Loc, name)
		t.preInit = append(t.preInit, name)
		t.exportedLocals[name] = append(t.exportedLocals[name], name)
		t.body = append(t.body,
			ast.Stmt{Loc: stmt.Loc, Data: &ast.SClass{Class: s.Class}},
			exprStmt(assign(member(ident("exports"), name), ident(name))),
		)

	case *ast.SVar:
		if !s.IsExport {
			t.body = append(t.body, stmt)
			return
		}
		t.body = append(t.body, ast.Stmt{Loc: stmt.Loc, Data: &ast.SVar{Kind: s.Kind, Decls: s.Decls}})
		for _, decl := range s.Decls {
			hasValue := decl.Value != nil
			ast.ForEachBoundName(decl.Binding, func(name string) {
				t.addExportName(stmt.Loc, name)
				t.preInit = append(t.preInit, name)
				t.exportedLocals[name] = append(t.exportedLocals[name], name)
				if hasValue {
					t.body = append(t.body, exprStmt(assign(member(ident("exports"), name), ident(name))))
				}
			})
		}

	case *ast.SExportEquals:
		t.log.AddError(&t.source, stmt.Loc, "\"export =\" cannot be lowered to a factory module")
		t.body = append(t.body, stmt)

	case *ast.STypeDecl:
		// erased upstream; nothing to emit

	default:
		t.body = append(t.body, stmt)
	}
}

// assemble builds the factory prelude, concatenates it with the body,
// and wraps everything in the loader dispatch.
func (t *moduleTransform) assemble() ast.Stmt {
	hasExports := len(t.exportOrder) > 0 || len(t.exportAll) > 0

	factory := []ast.Stmt{{Data: &ast.SDirective{Value: "use strict"}}}

	needDefaultShim := false
	needWildcardShim := false
	if !t.opts.NoInterop {
		for _, record := range t.imports {
			if record.needsWildcard {
				needWildcardShim = true
			} else if record.needsDefault {
				needDefaultShim = true
			}
		}
	}
	if needDefaultShim {
		factory = append(factory, interopRequireDefaultDecl())
	}
	if needWildcardShim {
		factory = append(factory, interopRequireWildcardDecl())
	}

	if hasExports && !t.opts.NoInterop {
		factory = append(factory, exprStmt(assign(dot(ident("exports"), "__esModule"), boolean(true))))
	}

	if !t.opts.NoInterop {
		for _, record := range t.imports {
			if record.needsWildcard {
				factory = append(factory, exprStmt(assign(ident(record.param),
					call(ident("_interopRequireWildcard"), ident(record.param)))))
			} else if record.needsDefault {
				factory = append(factory, exprStmt(assign(ident(record.param),
					call(ident("_interopRequireDefault"), ident(record.param)))))
			}
		}
	}

	// guard object protecting explicit exports from export-all copies
	exportNamesIdent := ""
	if len(t.exportAll) > 0 && len(t.exportOrder) > 0 {
		exportNamesIdent = t.names.claim("_exportNames")
		props := make([]ast.Property, 0, len(t.exportOrder))
		for _, name := range t.exportOrder {
			value := boolean(true)
			props = append(props, ast.Property{Key: str(name), Value: &value})
		}
		obj := ast.Expr{Data: &ast.EObject{Properties: props}}
		factory = append(factory, varStmt(ast.VarVar, exportNamesIdent, &obj))
	}

	for _, name := range t.preInit {
		factory = append(factory, exprStmt(assign(member(ident("exports"), name), voidZero())))
	}

	for _, getter := range t.getters {
		factory = append(factory, t.getterStmt(getter))
	}

	for _, record := range t.exportAll {
		factory = append(factory, exportAllStmt(record.param, exportNamesIdent))
	}

	factory = append(factory, t.hoisted...)
	factory = append(factory, t.body...)

	params := []ast.Arg{}
	if hasExports {
		params = append(params, identArg("exports"))
	}
	for _, record := range t.imports {
		params = append(params, identArg(record.param))
	}
	factoryFn := ast.Expr{Data: &ast.EFunction{Fn: ast.Fn{Args: params, Body: factory}}}

	if t.opts.Format == FormatAMD {
		return exprStmt(call(ident("define"), t.dependencyArray(hasExports), factoryFn))
	}
	return exprStmt(call(t.umdDispatcher(hasExports), ast.Expr{Data: &ast.EThis{}}, factoryFn))
}

func (t *moduleTransform) dependencyArray(hasExports bool) ast.Expr {
	items := []*ast.Expr{}
	if hasExports {
		e := str("exports")
		items = append(items, &e)
	}
	for _, record := range t.imports {
		e := str(record.path)
		items = append(items, &e)
	}
	return ast.Expr{Data: &ast.EArray{Items: items}}
}

// umdDispatcher synthesizes the three-branch loader probe. All three
// branches share the same parameter order as the factory's argument
// list; only the way each dependency is obtained differs.
func (t *moduleTransform) umdDispatcher(hasExports bool) ast.Expr {
	amdCall := exprStmt(call(ident("define"), t.dependencyArray(hasExports), ident("factory")))

	cjsArgs := []ast.Expr{}
	if hasExports {
		cjsArgs = append(cjsArgs, ident("exports"))
	}
	for _, record := range t.imports {
		cjsArgs = append(cjsArgs, call(ident("require"), str(record.path)))
	}
	cjsCall := exprStmt(call(ident("factory"), cjsArgs...))

	globalStmts := []ast.Stmt{}
	globalArgs := []ast.Expr{}
	if hasExports {
		modInit := ast.Expr{Data: &ast.EObject{Properties: []ast.Property{{
			Key:   str("exports"),
			Value: &ast.Expr{Data: &ast.EObject{}},
		}}}}
		globalStmts = append(globalStmts, varStmt(ast.VarVar, "mod", &modInit))
		globalArgs = append(globalArgs, dot(ident("mod"), "exports"))
	}
	for _, record := range t.imports {
		globalArgs = append(globalArgs, member(ident("global"), globalNameFor(record.path)))
	}
	globalStmts = append(globalStmts, exprStmt(call(ident("factory"), globalArgs...)))
	if hasExports {
		globalName := t.opts.GlobalName
		if globalName == "" {
			globalName = globalNameFor(t.opts.Filename)
		}
		globalStmts = append(globalStmts, exprStmt(assign(
			member(ident("global"), globalName), dot(ident("mod"), "exports"))))
	}

	amdTest := binary(ast.BinOpLogicalAnd,
		binary(ast.BinOpStrictEq, typeofExpr(ident("define")), str("function")),
		dot(ident("define"), "amd"))
	cjsTest := binary(ast.BinOpStrictNe, typeofExpr(ident("exports")), str("undefined"))

	globalBranch := block(globalStmts...)
	cjsBranch := ifStmt(cjsTest, block(cjsCall), &globalBranch)
	body := ifStmt(amdTest, block(amdCall), &cjsBranch)

	return fnExpr([]string{"global", "factory"}, []ast.Stmt{body})
}

func (t *moduleTransform) getterStmt(record exportRecord) ast.Stmt {
	var result ast.Expr
	switch {
	case record.from != nil && record.fromName == "*":
		result = ident(record.from.param)
	case record.from != nil:
		result = member(ident(record.from.param), record.fromName)
	default:
		result = ident(record.localName)
		if binding, isImported := t.importedLocals[record.localName]; isImported {
			result = t.importedRef(binding)
		}
	}
	getFn := ast.Expr{Data: &ast.EFunction{Fn: ast.Fn{Body: []ast.Stmt{ret(result)}}}}
	enumerable := boolean(true)
	descriptor := ast.Expr{Data: &ast.EObject{Properties: []ast.Property{
		{Key: str("enumerable"), Value: &enumerable},
		{Key: str("get"), Value: &getFn},
	}}}
	return exprStmt(call(dot(ident("Object"), "defineProperty"),
		ident("exports"), str(record.exportedName), descriptor))
}

func (t *moduleTransform) importedRef(binding importedBinding) ast.Expr {
	if binding.external == "*" {
		return ident(binding.record.param)
	}
	return member(ident(binding.record.param), binding.external)
}

// exportAllStmt emits the runtime copy loop for "export * from". The
// source module's name set is unknown until it is loaded, so the copy
// must happen at runtime, skipping the module markers and any name
// the guard object claims.
func exportAllStmt(param, guardIdent string) ast.Stmt {
	keyIs := func(name string) ast.Expr {
		return binary(ast.BinOpStrictEq, ident("key"), str(name))
	}
	body := []ast.Stmt{
		ifStmt(binary(ast.BinOpLogicalOr, keyIs("default"), keyIs("__esModule")),
			ast.Stmt{Data: &ast.SReturn{}}, nil),
	}
	if guardIdent != "" {
		hasOwn := call(
			dot(dot(dot(ident("Object"), "prototype"), "hasOwnProperty"), "call"),
			ident(guardIdent), ident("key"))
		body = append(body, ifStmt(hasOwn, ast.Stmt{Data: &ast.SReturn{}}, nil))
	}
	body = append(body,
		ifStmt(binary(ast.BinOpLogicalAnd,
			binary(ast.BinOpIn, ident("key"), ident("exports")),
			binary(ast.BinOpStrictEq,
				index(ident("exports"), ident("key")),
				index(ident(param), ident("key")))),
			ast.Stmt{Data: &ast.SReturn{}}, nil),
		exprStmt(assign(
			index(ident("exports"), ident("key")),
			index(ident(param), ident("key")))),
	)
	callback := fnExpr([]string{"key"}, body)
	keys := call(dot(ident("Object"), "keys"), ident(param))
	return exprStmt(call(dot(keys, "forEach"), callback))
}

func interopRequireDefaultDecl() ast.Stmt {
	obj := ident("obj")
	defaultWrap := ast.Expr{Data: &ast.EObject{Properties: []ast.Property{{
		Key: str("default"), Value: &obj,
	}}}}
	cond := ast.Expr{Data: &ast.ECond{
		Test: binary(ast.BinOpLogicalAnd, ident("obj"), dot(ident("obj"), "__esModule")),
		Yes:  ident("obj"),
		No:   defaultWrap,
	}}
	return ast.Stmt{Data: &ast.SFunction{Fn: ast.Fn{
		Name: "_interopRequireDefault",
		Args: []ast.Arg{identArg("obj")},
		Body: []ast.Stmt{ret(cond)},
	}}}
}

func interopRequireWildcardDecl() ast.Stmt {
	hasOwn := call(
		dot(dot(dot(ident("Object"), "prototype"), "hasOwnProperty"), "call"),
		ident("obj"), ident("key"))
	copyStmt := ifStmt(hasOwn,
		exprStmt(assign(index(ident("newObj"), ident("key")), index(ident("obj"), ident("key")))), nil)
	keyDecl := ast.Stmt{Data: &ast.SVar{Kind: ast.VarVar, Decls: []ast.Decl{{
		Binding: ast.Binding{Data: &ast.BIdentifier{Name: "key"}},
	}}}}
	forIn := ast.Stmt{Data: &ast.SForIn{Init: keyDecl, Value: ident("obj"), Body: block(copyStmt)}}
	emptyObj := ast.Expr{Data: &ast.EObject{}}
	body := []ast.Stmt{
		ifStmt(binary(ast.BinOpLogicalAnd, ident("obj"), dot(ident("obj"), "__esModule")),
			block(ret(ident("obj"))), nil),
		varStmt(ast.VarVar, "newObj", &emptyObj),
		ifStmt(binary(ast.BinOpLooseNe, ident("obj"), ast.Expr{Data: &ast.ENull{}}),
			block(forIn), nil),
		exprStmt(assign(dot(ident("newObj"), "default"), ident("obj"))),
		ret(ident("newObj")),
	}
	return ast.Stmt{Data: &ast.SFunction{Fn: ast.Fn{
		Name: "_interopRequireWildcard",
		Args: []ast.Arg{identArg("obj")},
		Body: body,
	}}}
}

// specifierBaseName derives a parameter-friendly name from a module
// specifier.
func specifierBaseName(path string) string {
	base := path
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	var sb strings.Builder
	for _, r := range base {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_' || r == '$':
			sb.WriteRune(r)
		case r >= '0' && r <= '9':
			if sb.Len() > 0 {
				sb.WriteRune(r)
			}
		}
	}
	if sb.Len() == 0 {
		return "m"
	}
	return sb.String()
}

// globalNameFor derives the global-object property name used by the
// script-tag fallback: extension stripped, sanitized to an
// identifier-like string.
func globalNameFor(path string) string {
	name := specifierBaseName(path)
	return name
}
