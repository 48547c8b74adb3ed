package ast

type UnOp uint8

const (
	UnOpPos UnOp = iota
	UnOpNeg
	UnOpNot
	UnOpCpl
	UnOpTypeof
	UnOpVoid
	UnOpDelete
	UnOpAwait
	UnOpYield
	UnOpYieldStar
	UnOpPreInc
	UnOpPreDec
	UnOpPostInc
	UnOpPostDec
)

func (op UnOp) IsPrefix() bool {
	return op != UnOpPostInc && op != UnOpPostDec
}

func (op UnOp) IsUpdate() bool {
	switch op {
	case UnOpPreInc, UnOpPreDec, UnOpPostInc, UnOpPostDec:
		return true
	}
	return false
}

func (op UnOp) Text() string {
	switch op {
	case UnOpPos:
		return "+"
	case UnOpNeg:
		return "-"
	case UnOpNot:
		return "!"
	case UnOpCpl:
		return "~"
	case UnOpTypeof:
		return "typeof"
	case UnOpVoid:
		return "void"
	case UnOpDelete:
		return "delete"
	case UnOpAwait:
		return "await"
	case UnOpYield:
		return "yield"
	case UnOpYieldStar:
		return "yield*"
	case UnOpPreInc, UnOpPostInc:
		return "++"
	case UnOpPreDec, UnOpPostDec:
		return "--"
	}
	return "?"
}

type BinOp uint8

const (
	BinOpComma BinOp = iota

	BinOpAssign
	BinOpAddAssign
	BinOpSubAssign
	BinOpMulAssign
	BinOpDivAssign
	BinOpRemAssign
	BinOpPowAssign
	BinOpShlAssign
	BinOpShrAssign
	BinOpUShrAssign
	BinOpBitAndAssign
	BinOpBitOrAssign
	BinOpBitXorAssign
	BinOpLogicalAndAssign
	BinOpLogicalOrAssign
	BinOpNullishAssign

	BinOpNullishCoalescing
	BinOpLogicalOr
	BinOpLogicalAnd
	BinOpBitOr
	BinOpBitXor
	BinOpBitAnd
	BinOpLooseEq
	BinOpLooseNe
	BinOpStrictEq
	BinOpStrictNe
	BinOpLt
	BinOpLe
	BinOpGt
	BinOpGe
	BinOpIn
	BinOpInstanceof
	BinOpShl
	BinOpShr
	BinOpUShr
	BinOpAdd
	BinOpSub
	BinOpMul
	BinOpDiv
	BinOpRem
	BinOpPow
)

// L is an operator precedence level, used by both the parser (binding
// power) and the printer (parenthesization).
type L uint8

const (
	LLowest L = iota
	LComma
	LAssign
	LConditional
	LNullishCoalescing
	LLogicalOr
	LLogicalAnd
	LBitOr
	LBitXor
	LBitAnd
	LEquals
	LCompare
	LShift
	LAdd
	LMultiply
	LExponent
	LPrefix
	LPostfix
	LNew
	LCall
	LMember
)

type opInfo struct {
	text       string
	level      L
	rightAssoc bool
}

var binOpTable = map[BinOp]opInfo{
	BinOpComma:             {",", LComma, false},
	BinOpAssign:            {"=", LAssign, true},
	BinOpAddAssign:         {"+=", LAssign, true},
	BinOpSubAssign:         {"-=", LAssign, true},
	BinOpMulAssign:         {"*=", LAssign, true},
	BinOpDivAssign:         {"/=", LAssign, true},
	BinOpRemAssign:         {"%=", LAssign, true},
	BinOpPowAssign:         {"**=", LAssign, true},
	BinOpShlAssign:         {"<<=", LAssign, true},
	BinOpShrAssign:         {">>=", LAssign, true},
	BinOpUShrAssign:        {">>>=", LAssign, true},
	BinOpBitAndAssign:      {"&=", LAssign, true},
	BinOpBitOrAssign:       {"|=", LAssign, true},
	BinOpBitXorAssign:      {"^=", LAssign, true},
	BinOpLogicalAndAssign:  {"&&=", LAssign, true},
	BinOpLogicalOrAssign:   {"||=", LAssign, true},
	BinOpNullishAssign:     {"??=", LAssign, true},
	BinOpNullishCoalescing: {"??", LNullishCoalescing, false},
	BinOpLogicalOr:         {"||", LLogicalOr, false},
	BinOpLogicalAnd:        {"&&", LLogicalAnd, false},
	BinOpBitOr:             {"|", LBitOr, false},
	BinOpBitXor:            {"^", LBitXor, false},
	BinOpBitAnd:            {"&", LBitAnd, false},
	BinOpLooseEq:           {"==", LEquals, false},
	BinOpLooseNe:           {"!=", LEquals, false},
	BinOpStrictEq:          {"===", LEquals, false},
	BinOpStrictNe:          {"!==", LEquals, false},
	BinOpLt:                {"<", LCompare, false},
	BinOpLe:                {"<=", LCompare, false},
	BinOpGt:                {">", LCompare, false},
	BinOpGe:                {">=", LCompare, false},
	BinOpIn:                {"in", LCompare, false},
	BinOpInstanceof:        {"instanceof", LCompare, false},
	BinOpShl:               {"<<", LShift, false},
	BinOpShr:               {">>", LShift, false},
	BinOpUShr:              {">>>", LShift, false},
	BinOpAdd:               {"+", LAdd, false},
	BinOpSub:               {"-", LAdd, false},
	BinOpMul:               {"*", LMultiply, false},
	BinOpDiv:               {"/", LMultiply, false},
	BinOpRem:               {"%", LMultiply, false},
	BinOpPow:               {"**", LExponent, true},
}

func (op BinOp) Text() string       { return binOpTable[op].text }
func (op BinOp) Level() L           { return binOpTable[op].level }
func (op BinOp) IsRightAssoc() bool { return binOpTable[op].rightAssoc }

func (op BinOp) IsAssign() bool {
	return op >= BinOpAssign && op <= BinOpNullishAssign
}

// WithoutAssign maps a compound assignment operator to its underlying
// binary operator ("x += y" reads as "x = x + y").
func (op BinOp) WithoutAssign() BinOp {
	switch op {
	case BinOpAddAssign:
		return BinOpAdd
	case BinOpSubAssign:
		return BinOpSub
	case BinOpMulAssign:
		return BinOpMul
	case BinOpDivAssign:
		return BinOpDiv
	case BinOpRemAssign:
		return BinOpRem
	case BinOpPowAssign:
		return BinOpPow
	case BinOpShlAssign:
		return BinOpShl
	case BinOpShrAssign:
		return BinOpShr
	case BinOpUShrAssign:
		return BinOpUShr
	case BinOpBitAndAssign:
		return BinOpBitAnd
	case BinOpBitOrAssign:
		return BinOpBitOr
	case BinOpBitXorAssign:
		return BinOpBitXor
	case BinOpLogicalAndAssign:
		return BinOpLogicalAnd
	case BinOpLogicalOrAssign:
		return BinOpLogicalOr
	case BinOpNullishAssign:
		return BinOpNullishCoalescing
	}
	return op
}
