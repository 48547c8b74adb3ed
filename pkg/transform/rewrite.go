package transform

import (
	"github.com/kyunghoon/twasm/pkg/js/ast"
)

// rewriteBody walks the classified statements and rewrites module-level
// references: reads of imported bindings become member accesses on the
// factory parameter, and writes to exported bindings gain an
// exports-object assignment so importers observe the new value.
// Shadowed names are left alone.
func (t *moduleTransform) rewriteBody() {
	r := &rewriter{t: t}
	t.hoisted = r.rewriteStmts(t.hoisted)
	t.body = r.rewriteStmts(t.body)
}

type rewriter struct {
	t      *moduleTransform
	scopes []map[string]bool
}

func (r *rewriter) push(names map[string]bool) {
	r.scopes = append(r.scopes, names)
}

func (r *rewriter) pop() {
	r.scopes = r.scopes[:len(r.scopes)-1]
}

func (r *rewriter) shadowed(name string) bool {
	for _, scope := range r.scopes {
		if scope[name] {
			return true
		}
	}
	return false
}

// exportTargets returns the export names a write to the given local
// must update, or nil when the write needs no rewrite here.
func (r *rewriter) exportTargets(name string) []string {
	if r.shadowed(name) {
		return nil
	}
	return r.t.exportedLocals[name]
}

func (r *rewriter) rewriteStmts(stmts []ast.Stmt) []ast.Stmt {
	out := make([]ast.Stmt, 0, len(stmts))
	for i := range stmts {
		r.rewriteStmt(&stmts[i])
		out = append(out, stmts[i])
		// a destructuring assignment statement cannot carry the export
		// update inline without changing its value, so follow-up
		// assignments go after it
		if expr, isExpr := stmts[i].Data.(*ast.SExpr); isExpr {
			if bin, isBin := expr.Value.Data.(*ast.EBinary); isBin && bin.Op == ast.BinOpAssign {
				switch bin.Left.Data.(type) {
				case *ast.EArray, *ast.EObject:
					forEachAssignTarget(bin.Left, func(name string) {
						for _, exported := range r.exportTargets(name) {
							out = append(out, exprStmt(assign(
								member(ident("exports"), exported), ident(name))))
						}
					})
				}
			}
		}
	}
	return out
}

func (r *rewriter) rewriteStmt(s *ast.Stmt) {
	switch d := s.Data.(type) {
	case *ast.SExpr:
		r.rewriteExpr(&d.Value)
	case *ast.SVar:
		for i := range d.Decls {
			r.rewriteBinding(&d.Decls[i].Binding)
			if d.Decls[i].Value != nil {
				r.rewriteExpr(d.Decls[i].Value)
			}
		}
	case *ast.SFunction:
		r.rewriteFn(&d.Fn)
	case *ast.SClass:
		r.rewriteClass(&d.Class)
	case *ast.SBlock:
		scope := map[string]bool{}
		lexicalNames(d.Stmts, scope)
		r.push(scope)
		d.Stmts = r.rewriteStmts(d.Stmts)
		r.pop()
	case *ast.SReturn:
		if d.Value != nil {
			r.rewriteExpr(d.Value)
		}
	case *ast.SThrow:
		r.rewriteExpr(&d.Value)
	case *ast.SIf:
		r.rewriteExpr(&d.Test)
		r.rewriteStmt(&d.Yes)
		if d.No != nil {
			r.rewriteStmt(d.No)
		}
	case *ast.SFor:
		scope := map[string]bool{}
		if d.Init != nil {
			if v, isVar := d.Init.Data.(*ast.SVar); isVar {
				for _, decl := range v.Decls {
					ast.ForEachBoundName(decl.Binding, func(name string) { scope[name] = true })
				}
			}
		}
		r.push(scope)
		if d.Init != nil {
			r.rewriteStmt(d.Init)
		}
		if d.Test != nil {
			r.rewriteExpr(d.Test)
		}
		if d.Update != nil {
			r.rewriteExpr(d.Update)
		}
		r.rewriteStmt(&d.Body)
		r.pop()
	case *ast.SForIn:
		r.rewriteForTarget(&d.Init, &d.Value, &d.Body)
	case *ast.SForOf:
		r.rewriteForTarget(&d.Init, &d.Value, &d.Body)
	case *ast.SWhile:
		r.rewriteExpr(&d.Test)
		r.rewriteStmt(&d.Body)
	case *ast.SDoWhile:
		r.rewriteStmt(&d.Body)
		r.rewriteExpr(&d.Test)
	case *ast.STry:
		blockScope := map[string]bool{}
		lexicalNames(d.Body, blockScope)
		r.push(blockScope)
		d.Body = r.rewriteStmts(d.Body)
		r.pop()
		if d.Catch != nil {
			catchScope := map[string]bool{}
			if d.Catch.Binding != nil {
				ast.ForEachBoundName(*d.Catch.Binding, func(name string) { catchScope[name] = true })
			}
			lexicalNames(d.Catch.Body, catchScope)
			r.push(catchScope)
			d.Catch.Body = r.rewriteStmts(d.Catch.Body)
			r.pop()
		}
		if d.Finally != nil {
			finallyScope := map[string]bool{}
			lexicalNames(d.Finally, finallyScope)
			r.push(finallyScope)
			d.Finally = r.rewriteStmts(d.Finally)
			r.pop()
		}
	case *ast.SSwitch:
		r.rewriteExpr(&d.Test)
		scope := map[string]bool{}
		for _, c := range d.Cases {
			lexicalNames(c.Body, scope)
		}
		r.push(scope)
		for i := range d.Cases {
			if d.Cases[i].Value != nil {
				r.rewriteExpr(d.Cases[i].Value)
			}
			d.Cases[i].Body = r.rewriteStmts(d.Cases[i].Body)
		}
		r.pop()
	case *ast.SLabel:
		r.rewriteStmt(&d.Stmt)
	case *ast.SExportEquals:
		r.rewriteExpr(&d.Value)
	}
}

// rewriteForTarget handles for-in and for-of heads, which share the
// same shape: a declaring or assigning init, an iterated value, and a
// body under the init's scope.
func (r *rewriter) rewriteForTarget(init *ast.Stmt, value *ast.Expr, body *ast.Stmt) {
	scope := map[string]bool{}
	if v, isVar := init.Data.(*ast.SVar); isVar {
		for _, decl := range v.Decls {
			ast.ForEachBoundName(decl.Binding, func(name string) { scope[name] = true })
		}
	} else {
		r.rewriteStmt(init)
	}
	r.rewriteExpr(value)
	r.push(scope)
	r.rewriteStmt(body)
	r.pop()
}

func (r *rewriter) rewriteFn(fn *ast.Fn) {
	scope := map[string]bool{}
	if fn.Name != "" {
		scope[fn.Name] = true
	}
	for i := range fn.Args {
		ast.ForEachBoundName(fn.Args[i].Binding, func(name string) { scope[name] = true })
	}
	varScopedNames(fn.Body, scope)
	lexicalNames(fn.Body, scope)
	r.push(scope)
	for i := range fn.Args {
		r.rewriteBinding(&fn.Args[i].Binding)
		if fn.Args[i].Default != nil {
			r.rewriteExpr(fn.Args[i].Default)
		}
	}
	if fn.ArrowExprBody != nil {
		r.rewriteExpr(fn.ArrowExprBody)
	}
	fn.Body = r.rewriteStmts(fn.Body)
	r.pop()
}

func (r *rewriter) rewriteClass(class *ast.Class) {
	if class.Extends != nil {
		r.rewriteExpr(class.Extends)
	}
	scope := map[string]bool{}
	if class.Name != "" {
		scope[class.Name] = true
	}
	r.push(scope)
	for i := range class.Members {
		member := &class.Members[i]
		if member.IsComputed {
			r.rewriteExpr(&member.Key)
		}
		if member.Fn != nil {
			r.rewriteFn(member.Fn)
		}
		if member.Value != nil {
			r.rewriteExpr(member.Value)
		}
		if member.Kind == ast.ClassStaticBlock {
			blockScope := map[string]bool{}
			varScopedNames(member.Body, blockScope)
			lexicalNames(member.Body, blockScope)
			r.push(blockScope)
			member.Body = r.rewriteStmts(member.Body)
			r.pop()
		}
	}
	r.pop()
}

// rewriteBinding visits the expressions embedded in a binding pattern
// (defaults and computed keys); the bound names themselves are scope
// entries, not references.
func (r *rewriter) rewriteBinding(b *ast.Binding) {
	switch d := b.Data.(type) {
	case *ast.BArray:
		for i := range d.Items {
			if d.Items[i].Binding != nil {
				r.rewriteBinding(d.Items[i].Binding)
			}
			if d.Items[i].Default != nil {
				r.rewriteExpr(d.Items[i].Default)
			}
		}
	case *ast.BObject:
		for i := range d.Properties {
			if d.Properties[i].IsComputed {
				r.rewriteExpr(&d.Properties[i].Key)
			}
			r.rewriteBinding(&d.Properties[i].Value)
			if d.Properties[i].Default != nil {
				r.rewriteExpr(d.Properties[i].Default)
			}
		}
	}
}

func (r *rewriter) rewriteExpr(e *ast.Expr) {
	switch d := e.Data.(type) {
	case *ast.EIdentifier:
		if r.shadowed(d.Name) {
			return
		}
		if binding, isImported := r.t.importedLocals[d.Name]; isImported {
			replacement := r.t.importedRef(binding)
			e.Data = replacement.Data
		}

	case *ast.EBinary:
		if d.Op.IsAssign() {
			if target, isIdent := d.Left.Data.(*ast.EIdentifier); isIdent && !r.shadowed(target.Name) {
				if _, isImported := r.t.importedLocals[target.Name]; isImported {
					r.t.log.AddError(&r.t.source, d.Left.Loc,
						"cannot assign to imported binding "+target.Name)
					r.rewriteExpr(&d.Right)
					return
				}
				if exports := r.exportTargets(target.Name); len(exports) > 0 {
					r.rewriteExpr(&d.Right)
					inner := ast.Expr{Loc: e.Loc, Data: d}
					for _, exported := range exports {
						inner = assign(member(ident("exports"), exported), inner)
					}
					e.Data = inner.Data
					return
				}
			}
			r.rewriteExpr(&d.Left)
			r.rewriteExpr(&d.Right)
			return
		}
		r.rewriteExpr(&d.Left)
		r.rewriteExpr(&d.Right)

	case *ast.EUnary:
		if d.Op.IsUpdate() {
			if target, isIdent := d.Value.Data.(*ast.EIdentifier); isIdent && !r.shadowed(target.Name) {
				if _, isImported := r.t.importedLocals[target.Name]; isImported {
					r.t.log.AddError(&r.t.source, d.Value.Loc,
						"cannot update imported binding "+target.Name)
					return
				}
				if exports := r.exportTargets(target.Name); len(exports) > 0 {
					name := target.Name
					if d.Op.IsPrefix() {
						// ++n evaluates to the new value, so the update
						// itself can feed the export assignment
						inner := ast.Expr{Loc: e.Loc, Data: d}
						for _, exported := range exports {
							inner = assign(member(ident("exports"), exported), inner)
						}
						e.Data = inner.Data
						return
					}
					// n++ evaluates to the old value; update the export
					// first, then run the original update as the value
					delta := ast.BinOpAdd
					if d.Op == ast.UnOpPostDec {
						delta = ast.BinOpSub
					}
					parts := make([]ast.Expr, 0, len(exports)+1)
					for _, exported := range exports {
						parts = append(parts, assign(
							member(ident("exports"), exported),
							binary(delta, ident(name), number(1))))
					}
					parts = append(parts, ast.Expr{Loc: e.Loc, Data: d})
					e.Data = comma(parts...).Data
					return
				}
			}
		}
		r.rewriteExpr(&d.Value)

	case *ast.EImportCall:
		r.t.log.AddError(&r.t.source, e.Loc, "dynamic import() is not supported")
		r.rewriteExpr(&d.Arg)

	case *ast.EImportMeta:
		r.t.log.AddError(&r.t.source, e.Loc, "import.meta is not supported")

	case *ast.EFunction:
		r.rewriteFn(&d.Fn)
	case *ast.EArrow:
		r.rewriteFn(&d.Fn)
	case *ast.EClass:
		r.rewriteClass(&d.Class)

	case *ast.ECall:
		r.rewriteExpr(&d.Target)
		for i := range d.Args {
			r.rewriteExpr(&d.Args[i])
		}
	case *ast.ENew:
		r.rewriteExpr(&d.Target)
		for i := range d.Args {
			r.rewriteExpr(&d.Args[i])
		}
	case *ast.EDot:
		r.rewriteExpr(&d.Target)
	case *ast.EIndex:
		r.rewriteExpr(&d.Target)
		r.rewriteExpr(&d.Index)
	case *ast.ECond:
		r.rewriteExpr(&d.Test)
		r.rewriteExpr(&d.Yes)
		r.rewriteExpr(&d.No)
	case *ast.EArray:
		for _, item := range d.Items {
			if item != nil {
				r.rewriteExpr(item)
			}
		}
	case *ast.EObject:
		r.rewriteProperties(d.Properties)
	case *ast.ETemplate:
		if d.Tag != nil {
			r.rewriteExpr(d.Tag)
		}
		for i := range d.Parts {
			if d.Parts[i].Expr != nil {
				r.rewriteExpr(d.Parts[i].Expr)
			}
		}
	case *ast.ESpread:
		r.rewriteExpr(&d.Value)
	}
}

func (r *rewriter) rewriteProperties(props []ast.Property) {
	for i := range props {
		prop := &props[i]
		if prop.IsComputed {
			r.rewriteExpr(&prop.Key)
		}
		if prop.Fn != nil {
			r.rewriteFn(prop.Fn)
			continue
		}
		if prop.Value != nil {
			r.rewriteExpr(prop.Value)
			continue
		}
		// shorthand property: the key doubles as a reference, so a
		// rewritten reference forces the longhand form
		if prop.WasShorthand {
			if key, isIdent := prop.Key.Data.(*ast.EIdentifier); isIdent && !r.shadowed(key.Name) {
				if binding, isImported := r.t.importedLocals[key.Name]; isImported {
					value := r.t.importedRef(binding)
					value.Loc = prop.Key.Loc
					prop.Value = &value
					prop.WasShorthand = false
				}
			}
		}
	}
}

// forEachAssignTarget visits every identifier assigned by a
// destructuring assignment target expression.
func forEachAssignTarget(target ast.Expr, fn func(name string)) {
	switch d := target.Data.(type) {
	case *ast.EIdentifier:
		fn(d.Name)
	case *ast.EArray:
		for _, item := range d.Items {
			if item != nil {
				forEachAssignTarget(*item, fn)
			}
		}
	case *ast.EObject:
		for _, prop := range d.Properties {
			if prop.Value != nil {
				forEachAssignTarget(*prop.Value, fn)
			} else if prop.WasShorthand {
				forEachAssignTarget(prop.Key, fn)
			}
		}
	case *ast.ESpread:
		forEachAssignTarget(d.Value, fn)
	case *ast.EBinary:
		if d.Op == ast.BinOpAssign {
			forEachAssignTarget(d.Left, fn)
		}
	}
}

// varScopedNames collects names hoisted to the enclosing function
// scope: var declarations and function declarations, at any block
// depth that does not cross a nested function boundary.
func varScopedNames(stmts []ast.Stmt, names map[string]bool) {
	for _, stmt := range stmts {
		switch d := stmt.Data.(type) {
		case *ast.SVar:
			if d.Kind == ast.VarVar {
				for _, decl := range d.Decls {
					ast.ForEachBoundName(decl.Binding, func(name string) { names[name] = true })
				}
			}
		case *ast.SFunction:
			if d.Fn.Name != "" {
				names[d.Fn.Name] = true
			}
		case *ast.SBlock:
			varScopedNames(d.Stmts, names)
		case *ast.SIf:
			varScopedNames([]ast.Stmt{d.Yes}, names)
			if d.No != nil {
				varScopedNames([]ast.Stmt{*d.No}, names)
			}
		case *ast.SFor:
			if d.Init != nil {
				varScopedNames([]ast.Stmt{*d.Init}, names)
			}
			varScopedNames([]ast.Stmt{d.Body}, names)
		case *ast.SForIn:
			varScopedNames([]ast.Stmt{d.Init, d.Body}, names)
		case *ast.SForOf:
			varScopedNames([]ast.Stmt{d.Init, d.Body}, names)
		case *ast.SWhile:
			varScopedNames([]ast.Stmt{d.Body}, names)
		case *ast.SDoWhile:
			varScopedNames([]ast.Stmt{d.Body}, names)
		case *ast.STry:
			varScopedNames(d.Body, names)
			if d.Catch != nil {
				varScopedNames(d.Catch.Body, names)
			}
			varScopedNames(d.Finally, names)
		case *ast.SSwitch:
			for _, c := range d.Cases {
				varScopedNames(c.Body, names)
			}
		case *ast.SLabel:
			varScopedNames([]ast.Stmt{d.Stmt}, names)
		}
	}
}

// lexicalNames collects names block-scoped to this statement list:
// let, const, class, and function declarations directly at this level.
func lexicalNames(stmts []ast.Stmt, names map[string]bool) {
	for _, stmt := range stmts {
		switch d := stmt.Data.(type) {
		case *ast.SVar:
			if d.Kind != ast.VarVar {
				for _, decl := range d.Decls {
					ast.ForEachBoundName(decl.Binding, func(name string) { names[name] = true })
				}
			}
		case *ast.SFunction:
			if d.Fn.Name != "" {
				names[d.Fn.Name] = true
			}
		case *ast.SClass:
			if d.Class.Name != "" {
				names[d.Class.Name] = true
			}
		}
	}
}

// ---------------------------------------------------------------------------
// used-name collection

// collectUsedNames records every identifier appearing anywhere in the
// module, reference or binding, so synthesized names cannot collide.
func collectUsedNames(module *ast.Module, used map[string]bool) {
	c := nameCollector{used: used}
	for i := range module.Stmts {
		c.stmt(&module.Stmts[i])
	}
}

type nameCollector struct {
	used map[string]bool
}

func (c nameCollector) binding(b *ast.Binding) {
	ast.ForEachBoundName(*b, func(name string) { c.used[name] = true })
	switch d := b.Data.(type) {
	case *ast.BArray:
		for i := range d.Items {
			if d.Items[i].Default != nil {
				c.expr(d.Items[i].Default)
			}
		}
	case *ast.BObject:
		for i := range d.Properties {
			if d.Properties[i].IsComputed {
				c.expr(&d.Properties[i].Key)
			}
			if d.Properties[i].Default != nil {
				c.expr(d.Properties[i].Default)
			}
		}
	}
}

func (c nameCollector) fn(fn *ast.Fn) {
	if fn.Name != "" {
		c.used[fn.Name] = true
	}
	for i := range fn.Args {
		c.binding(&fn.Args[i].Binding)
		if fn.Args[i].Default != nil {
			c.expr(fn.Args[i].Default)
		}
	}
	if fn.ArrowExprBody != nil {
		c.expr(fn.ArrowExprBody)
	}
	for i := range fn.Body {
		c.stmt(&fn.Body[i])
	}
}

func (c nameCollector) class(class *ast.Class) {
	if class.Name != "" {
		c.used[class.Name] = true
	}
	if class.Extends != nil {
		c.expr(class.Extends)
	}
	for i := range class.Members {
		member := &class.Members[i]
		if member.IsComputed {
			c.expr(&member.Key)
		}
		if member.Fn != nil {
			c.fn(member.Fn)
		}
		if member.Value != nil {
			c.expr(member.Value)
		}
		for j := range member.Body {
			c.stmt(&member.Body[j])
		}
	}
}

func (c nameCollector) stmt(s *ast.Stmt) {
	switch d := s.Data.(type) {
	case *ast.SExpr:
		c.expr(&d.Value)
	case *ast.SVar:
		for i := range d.Decls {
			c.binding(&d.Decls[i].Binding)
			if d.Decls[i].Value != nil {
				c.expr(d.Decls[i].Value)
			}
		}
	case *ast.SFunction:
		c.fn(&d.Fn)
	case *ast.SClass:
		c.class(&d.Class)
	case *ast.SBlock:
		for i := range d.Stmts {
			c.stmt(&d.Stmts[i])
		}
	case *ast.SReturn:
		if d.Value != nil {
			c.expr(d.Value)
		}
	case *ast.SThrow:
		c.expr(&d.Value)
	case *ast.SIf:
		c.expr(&d.Test)
		c.stmt(&d.Yes)
		if d.No != nil {
			c.stmt(d.No)
		}
	case *ast.SFor:
		if d.Init != nil {
			c.stmt(d.Init)
		}
		if d.Test != nil {
			c.expr(d.Test)
		}
		if d.Update != nil {
			c.expr(d.Update)
		}
		c.stmt(&d.Body)
	case *ast.SForIn:
		c.stmt(&d.Init)
		c.expr(&d.Value)
		c.stmt(&d.Body)
	case *ast.SForOf:
		c.stmt(&d.Init)
		c.expr(&d.Value)
		c.stmt(&d.Body)
	case *ast.SWhile:
		c.expr(&d.Test)
		c.stmt(&d.Body)
	case *ast.SDoWhile:
		c.stmt(&d.Body)
		c.expr(&d.Test)
	case *ast.STry:
		for i := range d.Body {
			c.stmt(&d.Body[i])
		}
		if d.Catch != nil {
			if d.Catch.Binding != nil {
				c.binding(d.Catch.Binding)
			}
			for i := range d.Catch.Body {
				c.stmt(&d.Catch.Body[i])
			}
		}
		for i := range d.Finally {
			c.stmt(&d.Finally[i])
		}
	case *ast.SSwitch:
		c.expr(&d.Test)
		for i := range d.Cases {
			if d.Cases[i].Value != nil {
				c.expr(d.Cases[i].Value)
			}
			for j := range d.Cases[i].Body {
				c.stmt(&d.Cases[i].Body[j])
			}
		}
	case *ast.SLabel:
		c.stmt(&d.Stmt)
	case *ast.SImport:
		if d.DefaultName != "" {
			c.used[d.DefaultName] = true
		}
		if d.NamespaceName != "" {
			c.used[d.NamespaceName] = true
		}
		for _, item := range d.Items {
			c.used[item.Name] = true
		}
	case *ast.SExportDefault:
		if d.Stmt != nil {
			c.stmt(d.Stmt)
		}
		if d.Value != nil {
			c.expr(d.Value)
		}
	case *ast.SExportEquals:
		c.expr(&d.Value)
	case *ast.SEnum:
		c.used[d.Name] = true
		for _, m := range d.Members {
			if m.Value != nil {
				c.expr(m.Value)
			}
		}
	}
}

func (c nameCollector) expr(e *ast.Expr) {
	switch d := e.Data.(type) {
	case *ast.EIdentifier:
		c.used[d.Name] = true
	case *ast.EFunction:
		c.fn(&d.Fn)
	case *ast.EArrow:
		c.fn(&d.Fn)
	case *ast.EClass:
		c.class(&d.Class)
	case *ast.ECall:
		c.expr(&d.Target)
		for i := range d.Args {
			c.expr(&d.Args[i])
		}
	case *ast.ENew:
		c.expr(&d.Target)
		for i := range d.Args {
			c.expr(&d.Args[i])
		}
	case *ast.EDot:
		c.expr(&d.Target)
	case *ast.EIndex:
		c.expr(&d.Target)
		c.expr(&d.Index)
	case *ast.EUnary:
		c.expr(&d.Value)
	case *ast.EBinary:
		c.expr(&d.Left)
		c.expr(&d.Right)
	case *ast.ECond:
		c.expr(&d.Test)
		c.expr(&d.Yes)
		c.expr(&d.No)
	case *ast.EArray:
		for _, item := range d.Items {
			if item != nil {
				c.expr(item)
			}
		}
	case *ast.EObject:
		for i := range d.Properties {
			prop := &d.Properties[i]
			if prop.IsComputed || prop.WasShorthand {
				c.expr(&prop.Key)
			}
			if prop.Fn != nil {
				c.fn(prop.Fn)
			}
			if prop.Value != nil {
				c.expr(prop.Value)
			}
		}
	case *ast.ETemplate:
		if d.Tag != nil {
			c.expr(d.Tag)
		}
		for i := range d.Parts {
			if d.Parts[i].Expr != nil {
				c.expr(d.Parts[i].Expr)
			}
		}
	case *ast.ESpread:
		c.expr(&d.Value)
	case *ast.EImportCall:
		c.expr(&d.Arg)
	}
}
