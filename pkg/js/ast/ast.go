// Package ast defines the module AST shared by the parser, the
// transform passes, and the printer. Nodes are tagged structs behind
// small marker interfaces so that passes can switch exhaustively over
// node kinds; a pass that does not recognize a kind must forward it
// unchanged by an explicit default case, never silently.
package ast

import "github.com/kyunghoon/twasm/pkg/diag"

type Expr struct {
	Loc  diag.Loc
	Data E
}

type Stmt struct {
	Loc  diag.Loc
	Data S
}

type Binding struct {
	Loc  diag.Loc
	Data B
}

// E, S and B are implemented by expression, statement and binding
// variants respectively.
type E interface{ isExpr() }
type S interface{ isStmt() }
type B interface{ isBinding() }

// Module is an ordered sequence of top-level items. Item order is
// execution order and must be preserved for non-hoisted items.
type Module struct {
	Stmts []Stmt
}

type VarKind uint8

const (
	VarVar VarKind = iota
	VarLet
	VarConst
)

func (k VarKind) String() string {
	switch k {
	case VarLet:
		return "let"
	case VarConst:
		return "const"
	default:
		return "var"
	}
}

// Decl is one declarator in a var/let/const statement.
type Decl struct {
	Binding Binding
	Value   *Expr
}

type PropertyKind uint8

const (
	PropertyNormal PropertyKind = iota
	PropertyGet
	PropertySet
	PropertySpread
)

type Property struct {
	Kind       PropertyKind
	Key        Expr
	Value      *Expr // nil for shorthand until the printer expands it
	IsComputed bool
	IsMethod   bool
	WasShorthand bool
	Fn         *Fn // method, getter or setter body
}

type Arg struct {
	Binding Binding
	Default *Expr
	IsRest  bool

	// TSAccessModifier marks a TypeScript constructor parameter
	// property ("constructor(private x)"); the erasure pass lowers it
	// to a this-assignment.
	TSAccessModifier string
}

type Fn struct {
	Name        string // empty for anonymous
	Args        []Arg
	Body        []Stmt
	IsAsync     bool
	IsGenerator bool
	IsArrow     bool

	// ArrowExprBody is set when an arrow function has an expression
	// body instead of a block.
	ArrowExprBody *Expr
}

type ClassMemberKind uint8

const (
	ClassMethod ClassMemberKind = iota
	ClassGet
	ClassSet
	ClassField
	ClassStaticBlock
)

type ClassMember struct {
	Kind       ClassMemberKind
	Key        Expr
	IsComputed bool
	IsStatic   bool
	Fn         *Fn   // methods and accessors
	Value      *Expr // fields
	Body       []Stmt // static blocks
}

type Class struct {
	Name    string // empty for anonymous class expressions
	Extends *Expr
	Members []ClassMember
}

// ---------------------------------------------------------------------------
// Expressions

type EIdentifier struct{ Name string }
type EThis struct{}
type ENull struct{}
type EBoolean struct{ Value bool }
type ENumber struct {
	Value float64
	Raw   string // original literal text, kept for round-trip printing
}
type EString struct{ Value string }
type ERegExp struct{ Raw string }

type ETemplate struct {
	Tag   *Expr // tagged template when non-nil
	Parts []TemplatePart
}

type TemplatePart struct {
	Cooked string // raw chunk text, printed verbatim
	Expr   *Expr  // nil for the trailing chunk
}

type EArray struct {
	Items []*Expr // nil entries are elisions
}

type EObject struct {
	Properties []Property
}

type EFunction struct{ Fn Fn }
type EArrow struct{ Fn Fn }
type EClass struct{ Class Class }

type ECall struct {
	Target        Expr
	Args          []Expr
	OptionalChain bool
}

type ENew struct {
	Target Expr
	Args   []Expr
}

type EDot struct {
	Target        Expr
	Name          string
	OptionalChain bool
}

type EIndex struct {
	Target        Expr
	Index         Expr
	OptionalChain bool
}

type EUnary struct {
	Op    UnOp
	Value Expr
}

type EBinary struct {
	Op    BinOp
	Left  Expr
	Right Expr
}

type ECond struct {
	Test Expr
	Yes  Expr
	No   Expr
}

type ESpread struct{ Value Expr }

// EImportCall is a dynamic "import(...)" expression. The module
// transform does not lower it; it survives only to be reported as an
// unsupported construct.
type EImportCall struct{ Arg Expr }

// EImportMeta is "import.meta", likewise not lowerable.
type EImportMeta struct{}

func (*EIdentifier) isExpr() {}
func (*EThis) isExpr()       {}
func (*ENull) isExpr()       {}
func (*EBoolean) isExpr()    {}
func (*ENumber) isExpr()     {}
func (*EString) isExpr()     {}
func (*ERegExp) isExpr()     {}
func (*ETemplate) isExpr()   {}
func (*EArray) isExpr()      {}
func (*EObject) isExpr()     {}
func (*EFunction) isExpr()   {}
func (*EArrow) isExpr()      {}
func (*EClass) isExpr()      {}
func (*ECall) isExpr()       {}
func (*ENew) isExpr()        {}
func (*EDot) isExpr()        {}
func (*EIndex) isExpr()      {}
func (*EUnary) isExpr()      {}
func (*EBinary) isExpr()     {}
func (*ECond) isExpr()       {}
func (*ESpread) isExpr()     {}
func (*EImportCall) isExpr() {}
func (*EImportMeta) isExpr() {}

// ---------------------------------------------------------------------------
// Statements

type SExpr struct{ Value Expr }
type SDirective struct{ Value string }
type SEmpty struct{}
type SDebugger struct{}

type SBlock struct{ Stmts []Stmt }

type SVar struct {
	Kind     VarKind
	Decls    []Decl
	IsExport bool
}

type SFunction struct {
	Fn       Fn
	IsExport bool
}

type SClass struct {
	Class    Class
	IsExport bool
}

type SReturn struct{ Value *Expr }
type SThrow struct{ Value Expr }

type SIf struct {
	Test Expr
	Yes  Stmt
	No   *Stmt
}

type SFor struct {
	Init   *Stmt // SVar or SExpr
	Test   *Expr
	Update *Expr
	Body   Stmt
}

type SForIn struct {
	Init  Stmt // SVar with one declarator, or SExpr over a target
	Value Expr
	Body  Stmt
}

type SForOf struct {
	Init  Stmt
	Value Expr
	Body  Stmt
}

type SWhile struct {
	Test Expr
	Body Stmt
}

type SDoWhile struct {
	Body Stmt
	Test Expr
}

type Catch struct {
	Binding *Binding // nil for "catch {}"
	Body    []Stmt
}

type STry struct {
	Body    []Stmt
	Catch   *Catch
	Finally []Stmt
}

type SwitchCase struct {
	Value *Expr // nil for default
	Body  []Stmt
}

type SSwitch struct {
	Test  Expr
	Cases []SwitchCase
}

type SBreak struct{ Label string }
type SContinue struct{ Label string }

type SLabel struct {
	Name string
	Stmt Stmt
}

// ClauseItem is one name in an import or export clause. Alias is the
// external name, Name the local one ("import { a as b }" has Alias "a"
// and Name "b"; "export { a as b }" has Name "a" and Alias "b").
type ClauseItem struct {
	Alias      string
	Name       string
	IsTypeOnly bool
}

// SImport covers every import declaration form. A bare
// "import 'x'" has no names at all.
type SImport struct {
	Path        string
	DefaultName string       // "import a from ..."
	NamespaceName string     // "import * as ns from ..."
	Items       []ClauseItem // "import { a, b as c } from ..."
	IsTypeOnly  bool
}

// SExportClause is "export { ... }" with or without a source module.
type SExportClause struct {
	Items      []ClauseItem
	Path       string // non-empty for re-exports
	HasPath    bool
	IsTypeOnly bool
}

// SExportDefault wraps either a hoistable declaration (SFunction or
// SClass) or an arbitrary expression.
type SExportDefault struct {
	Stmt  *Stmt
	Value *Expr
}

// SExportStar is "export * from path" (Alias non-empty for
// "export * as ns from path").
type SExportStar struct {
	Path  string
	Alias string
}

// SExportEquals is the TypeScript "export = expr" form. The module
// transform cannot lower it.
type SExportEquals struct{ Value Expr }

// SEnum is a TypeScript enum declaration, lowered by the erasure pass.
type SEnum struct {
	Name     string
	Members  []EnumMember
	IsExport bool
	IsConst  bool
}

type EnumMember struct {
	Name  string
	Value *Expr
}

// STypeDecl is a type-only statement (interface, type alias, or a
// "declare" ambient block) that the erasure pass removes entirely.
type STypeDecl struct {
	IsExport bool
}

func (*SExpr) isStmt()          {}
func (*SDirective) isStmt()     {}
func (*SEmpty) isStmt()         {}
func (*SDebugger) isStmt()      {}
func (*SBlock) isStmt()         {}
func (*SVar) isStmt()           {}
func (*SFunction) isStmt()      {}
func (*SClass) isStmt()         {}
func (*SReturn) isStmt()        {}
func (*SThrow) isStmt()         {}
func (*SIf) isStmt()            {}
func (*SFor) isStmt()           {}
func (*SForIn) isStmt()         {}
func (*SForOf) isStmt()         {}
func (*SWhile) isStmt()         {}
func (*SDoWhile) isStmt()       {}
func (*STry) isStmt()           {}
func (*SSwitch) isStmt()        {}
func (*SBreak) isStmt()         {}
func (*SContinue) isStmt()      {}
func (*SLabel) isStmt()         {}
func (*SImport) isStmt()        {}
func (*SExportClause) isStmt()  {}
func (*SExportDefault) isStmt() {}
func (*SExportStar) isStmt()    {}
func (*SExportEquals) isStmt()  {}
func (*SEnum) isStmt()          {}
func (*STypeDecl) isStmt()      {}

// ---------------------------------------------------------------------------
// Bindings

type BIdentifier struct{ Name string }

type BArray struct {
	Items []ArrayBinding
}

type ArrayBinding struct {
	Binding *Binding // nil entries are elisions
	Default *Expr
	IsRest  bool
}

type BObject struct {
	Properties []PropertyBinding
}

type PropertyBinding struct {
	Key        Expr
	Value      Binding
	Default    *Expr
	IsComputed bool
	IsSpread   bool
}

func (*BIdentifier) isBinding() {}
func (*BArray) isBinding()     {}
func (*BObject) isBinding()    {}

// ForEachBoundName calls fn for every identifier introduced by a
// binding pattern, however deeply nested.
func ForEachBoundName(b Binding, fn func(name string)) {
	switch d := b.Data.(type) {
	case *BIdentifier:
		fn(d.Name)
	case *BArray:
		for _, item := range d.Items {
			if item.Binding != nil {
				ForEachBoundName(*item.Binding, fn)
			}
		}
	case *BObject:
		for _, prop := range d.Properties {
			ForEachBoundName(prop.Value, fn)
		}
	}
}
