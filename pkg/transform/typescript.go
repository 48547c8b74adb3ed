package transform

import (
	"github.com/kyunghoon/twasm/pkg/diag"
	"github.com/kyunghoon/twasm/pkg/js/ast"
)

// EraseTypes removes the TypeScript-only surface the parser still
// carries: type-only statements and import clauses, imports whose
// bindings are never referenced, function overload signatures, enum
// declarations (lowered to the classic var-plus-IIFE shape), and
// constructor parameter properties (lowered to this-assignments).
// The result is plain ECMAScript ready for the module transform.
func EraseTypes(module *ast.Module) *ast.Module {
	referenced := map[string]bool{}
	collectReferencedNames(module, referenced)

	out := make([]ast.Stmt, 0, len(module.Stmts))
	for _, stmt := range module.Stmts {
		switch s := stmt.Data.(type) {
		case *ast.STypeDecl:
			continue

		case *ast.SImport:
			if s.IsTypeOnly {
				continue
			}
			erased := eraseImport(s, referenced)
			if erased == nil {
				continue
			}
			out = append(out, ast.Stmt{Loc: stmt.Loc, Data: erased})

		case *ast.SExportClause:
			if s.IsTypeOnly {
				continue
			}
			items := make([]ast.ClauseItem, 0, len(s.Items))
			for _, item := range s.Items {
				if !item.IsTypeOnly {
					items = append(items, item)
				}
			}
			if len(items) == 0 {
				continue
			}
			out = append(out, ast.Stmt{Loc: stmt.Loc, Data: &ast.SExportClause{
				Items: items, Path: s.Path, HasPath: s.HasPath,
			}})

		case *ast.SFunction:
			if s.Fn.Body == nil {
				continue
			}
			eraseFn(&s.Fn)
			out = append(out, stmt)

		case *ast.SClass:
			eraseClass(&s.Class)
			out = append(out, stmt)

		case *ast.SEnum:
			out = append(out, lowerEnum(stmt.Loc, s)...)

		case *ast.SExportDefault:
			if s.Stmt != nil {
				switch decl := s.Stmt.Data.(type) {
				case *ast.SFunction:
					if decl.Fn.Body == nil {
						continue
					}
					eraseFn(&decl.Fn)
				case *ast.SClass:
					eraseClass(&decl.Class)
				}
			} else if s.Value != nil {
				eraseExpr(s.Value)
			}
			out = append(out, stmt)

		default:
			eraseStmt(&stmt)
			out = append(out, stmt)
		}
	}
	return &ast.Module{Stmts: out}
}

// eraseImport drops the bindings a module never references by value.
// An import whose every binding is erased disappears entirely; a bare
// side-effect import is always kept.
func eraseImport(s *ast.SImport, referenced map[string]bool) *ast.SImport {
	hadBindings := s.DefaultName != "" || s.NamespaceName != "" || len(s.Items) > 0
	erased := &ast.SImport{Path: s.Path}
	if referenced[s.DefaultName] {
		erased.DefaultName = s.DefaultName
	}
	if referenced[s.NamespaceName] {
		erased.NamespaceName = s.NamespaceName
	}
	for _, item := range s.Items {
		if item.IsTypeOnly {
			continue
		}
		if referenced[item.Name] {
			erased.Items = append(erased.Items, item)
		}
	}
	if erased.DefaultName == "" && erased.NamespaceName == "" && len(erased.Items) == 0 {
		if hadBindings {
			return nil
		}
		// "import 'x'" runs x for effect only
	}
	return erased
}

// lowerEnum produces the classic two-statement lowering:
//
//	var Color;
//	(function (Color) {
//	  Color[Color["Red"] = 0] = "Red";
//	})(Color || (Color = {}));
//
// Numeric members get a reverse mapping, string members do not. Const
// enums are lowered the same way; inlining is a size optimization this
// pass does not attempt.
func lowerEnum(loc diag.Loc, s *ast.SEnum) []ast.Stmt {
	body := make([]ast.Stmt, 0, len(s.Members))
	next := float64(0)
	autoNumber := true
	for _, m := range s.Members {
		value := number(next)
		isString := false
		if m.Value != nil {
			value = *m.Value
			switch v := m.Value.Data.(type) {
			case *ast.ENumber:
				next = v.Value
				autoNumber = true
			case *ast.EString:
				isString = true
				autoNumber = false
			default:
				autoNumber = false
			}
		}
		memberAssign := assign(index(ident(s.Name), str(m.Name)), value)
		if isString {
			body = append(body, exprStmt(memberAssign))
		} else {
			body = append(body, exprStmt(assign(
				index(ident(s.Name), memberAssign), str(m.Name))))
		}
		if autoNumber {
			next++
		}
	}

	emptyObj := ast.Expr{Data: &ast.EObject{}}
	seed := binary(ast.BinOpLogicalOr, ident(s.Name),
		assign(ident(s.Name), emptyObj))
	iife := exprStmt(call(fnExpr([]string{s.Name}, body), seed))

	decl := ast.Stmt{Loc: loc, Data: &ast.SVar{
		Kind:     ast.VarVar,
		Decls:    []ast.Decl{{Binding: ast.Binding{Loc: loc, Data: &ast.BIdentifier{Name: s.Name}}}},
		IsExport: s.IsExport,
	}}
	return []ast.Stmt{decl, iife}
}

// eraseClass lowers constructor parameter properties and recurses into
// member bodies.
func eraseClass(class *ast.Class) {
	if class.Extends != nil {
		eraseExpr(class.Extends)
	}
	for i := range class.Members {
		member := &class.Members[i]
		if member.IsComputed {
			eraseExpr(&member.Key)
		}
		if member.Value != nil {
			eraseExpr(member.Value)
		}
		for j := range member.Body {
			eraseStmt(&member.Body[j])
		}
		if member.Fn == nil {
			continue
		}
		eraseFn(member.Fn)
		if !member.IsComputed && !member.IsStatic && member.Kind == ast.ClassMethod {
			if key, isStr := member.Key.Data.(*ast.EString); isStr && key.Value == "constructor" {
				lowerParamProperties(member.Fn, class.Extends != nil)
			}
		}
	}
}

// lowerParamProperties turns "constructor(private x)" into a plain
// parameter plus "this.x = x" in the body, placed after the super()
// call when the class extends something.
func lowerParamProperties(ctor *ast.Fn, hasSuper bool) {
	assigns := []ast.Stmt{}
	for i := range ctor.Args {
		if ctor.Args[i].TSAccessModifier == "" {
			continue
		}
		ctor.Args[i].TSAccessModifier = ""
		if b, isIdent := ctor.Args[i].Binding.Data.(*ast.BIdentifier); isIdent {
			assigns = append(assigns, exprStmt(assign(
				dot(ast.Expr{Data: &ast.EThis{}}, b.Name), ident(b.Name))))
		}
	}
	if len(assigns) == 0 {
		return
	}
	at := 0
	if hasSuper {
		for i, stmt := range ctor.Body {
			if expr, isExpr := stmt.Data.(*ast.SExpr); isExpr {
				if callExpr, isCall := expr.Value.Data.(*ast.ECall); isCall {
					if target, isIdent := callExpr.Target.Data.(*ast.EIdentifier); isIdent && target.Name == "super" {
						at = i + 1
						break
					}
				}
			}
		}
	}
	body := make([]ast.Stmt, 0, len(ctor.Body)+len(assigns))
	body = append(body, ctor.Body[:at]...)
	body = append(body, assigns...)
	body = append(body, ctor.Body[at:]...)
	ctor.Body = body
}

func eraseFn(fn *ast.Fn) {
	for i := range fn.Args {
		if fn.Args[i].Default != nil {
			eraseExpr(fn.Args[i].Default)
		}
	}
	if fn.ArrowExprBody != nil {
		eraseExpr(fn.ArrowExprBody)
	}
	out := fn.Body[:0]
	for i := range fn.Body {
		if nested, isFn := fn.Body[i].Data.(*ast.SFunction); isFn && nested.Fn.Body == nil {
			continue
		}
		eraseStmt(&fn.Body[i])
		out = append(out, fn.Body[i])
	}
	fn.Body = out
}

func eraseStmts(stmts []ast.Stmt) []ast.Stmt {
	out := stmts[:0]
	for i := range stmts {
		switch d := stmts[i].Data.(type) {
		case *ast.STypeDecl:
			continue
		case *ast.SFunction:
			if d.Fn.Body == nil {
				continue
			}
		}
		eraseStmt(&stmts[i])
		out = append(out, stmts[i])
	}
	return out
}

func eraseStmt(s *ast.Stmt) {
	switch d := s.Data.(type) {
	case *ast.SExpr:
		eraseExpr(&d.Value)
	case *ast.SVar:
		for i := range d.Decls {
			if d.Decls[i].Value != nil {
				eraseExpr(d.Decls[i].Value)
			}
		}
	case *ast.SFunction:
		eraseFn(&d.Fn)
	case *ast.SClass:
		eraseClass(&d.Class)
	case *ast.SBlock:
		d.Stmts = eraseStmts(d.Stmts)
	case *ast.SReturn:
		if d.Value != nil {
			eraseExpr(d.Value)
		}
	case *ast.SThrow:
		eraseExpr(&d.Value)
	case *ast.SIf:
		eraseExpr(&d.Test)
		eraseStmt(&d.Yes)
		if d.No != nil {
			eraseStmt(d.No)
		}
	case *ast.SFor:
		if d.Init != nil {
			eraseStmt(d.Init)
		}
		if d.Test != nil {
			eraseExpr(d.Test)
		}
		if d.Update != nil {
			eraseExpr(d.Update)
		}
		eraseStmt(&d.Body)
	case *ast.SForIn:
		eraseStmt(&d.Init)
		eraseExpr(&d.Value)
		eraseStmt(&d.Body)
	case *ast.SForOf:
		eraseStmt(&d.Init)
		eraseExpr(&d.Value)
		eraseStmt(&d.Body)
	case *ast.SWhile:
		eraseExpr(&d.Test)
		eraseStmt(&d.Body)
	case *ast.SDoWhile:
		eraseStmt(&d.Body)
		eraseExpr(&d.Test)
	case *ast.STry:
		d.Body = eraseStmts(d.Body)
		if d.Catch != nil {
			d.Catch.Body = eraseStmts(d.Catch.Body)
		}
		d.Finally = eraseStmts(d.Finally)
	case *ast.SSwitch:
		eraseExpr(&d.Test)
		for i := range d.Cases {
			if d.Cases[i].Value != nil {
				eraseExpr(d.Cases[i].Value)
			}
			d.Cases[i].Body = eraseStmts(d.Cases[i].Body)
		}
	case *ast.SLabel:
		eraseStmt(&d.Stmt)
	}
}

func eraseExpr(e *ast.Expr) {
	switch d := e.Data.(type) {
	case *ast.EFunction:
		eraseFn(&d.Fn)
	case *ast.EArrow:
		eraseFn(&d.Fn)
	case *ast.EClass:
		eraseClass(&d.Class)
	case *ast.ECall:
		eraseExpr(&d.Target)
		for i := range d.Args {
			eraseExpr(&d.Args[i])
		}
	case *ast.ENew:
		eraseExpr(&d.Target)
		for i := range d.Args {
			eraseExpr(&d.Args[i])
		}
	case *ast.EDot:
		eraseExpr(&d.Target)
	case *ast.EIndex:
		eraseExpr(&d.Target)
		eraseExpr(&d.Index)
	case *ast.EUnary:
		eraseExpr(&d.Value)
	case *ast.EBinary:
		eraseExpr(&d.Left)
		eraseExpr(&d.Right)
	case *ast.ECond:
		eraseExpr(&d.Test)
		eraseExpr(&d.Yes)
		eraseExpr(&d.No)
	case *ast.EArray:
		for _, item := range d.Items {
			if item != nil {
				eraseExpr(item)
			}
		}
	case *ast.EObject:
		for i := range d.Properties {
			if d.Properties[i].Fn != nil {
				eraseFn(d.Properties[i].Fn)
			}
			if d.Properties[i].Value != nil {
				eraseExpr(d.Properties[i].Value)
			}
		}
	case *ast.ETemplate:
		if d.Tag != nil {
			eraseExpr(d.Tag)
		}
		for i := range d.Parts {
			if d.Parts[i].Expr != nil {
				eraseExpr(d.Parts[i].Expr)
			}
		}
	case *ast.ESpread:
		eraseExpr(&d.Value)
	}
}

// collectReferencedNames records names used by value anywhere outside
// import declarations. Export clauses count: "export { x }" keeps the
// import of x alive.
func collectReferencedNames(module *ast.Module, referenced map[string]bool) {
	c := nameCollector{used: referenced}
	for i := range module.Stmts {
		switch d := module.Stmts[i].Data.(type) {
		case *ast.SImport:
			continue
		case *ast.SExportClause:
			if d.IsTypeOnly || d.HasPath {
				continue
			}
			for _, item := range d.Items {
				if !item.IsTypeOnly {
					referenced[item.Name] = true
				}
			}
		default:
			c.stmt(&module.Stmts[i])
		}
	}
}
