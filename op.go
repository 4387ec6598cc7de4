package clari

import (
	"bytes"
	"fmt"
)

// Sort identifies the kind of value an expression evaluates to. It doubles as
// the expression class id used for constant time kind checks.
type Sort int

// Expression sorts.
const (
	SortBool Sort = iota + 1
	SortBV
	SortFP
	SortString
	SortVS
)

var sortNames = [...]string{
	SortBool:   "Bool",
	SortBV:     "BV",
	SortFP:     "FP",
	SortString: "String",
	SortVS:     "VS",
}

// String returns the name of the sort.
func (s Sort) String() string {
	if s > 0 && int(s) < len(sortNames) {
		return sortNames[s]
	}
	return fmt.Sprintf("Sort<%d>", s)
}

// Sized returns true if expressions of the sort carry a bit length.
func (s Sort) Sized() bool {
	return s == SortBV || s == SortFP || s == SortVS
}

// sortSet is a bitmask of sorts.
type sortSet uint8

func sorts(a ...Sort) sortSet {
	var set sortSet
	for _, s := range a {
		set |= 1 << uint(s)
	}
	return set
}

func (set sortSet) has(s Sort) bool { return set&(1<<uint(s)) != 0 }

// Shape identifies the structure of an operator's operands.
type Shape int

// Operator shapes.
const (
	ShapeLiteral Shape = iota + 1
	ShapeSymbol
	ShapeUnary
	ShapeBinary
	ShapeFlat
	ShapeUIntBinary
	ShapeExtract
	ShapeIf
	ShapeFPBinary
	ShapeFPConvert
	ShapeTernary
	ShapeIndexOf
)

// SizeMode selects how the result size of an operator is derived.
type SizeMode int

const (
	// SizeNA means the result is unsized.
	SizeNA SizeMode = iota

	// SizeFirst means the result has the size of the first operand. All
	// operands must already have equal size.
	SizeFirst

	// SizeAdd means the result size is the sum of the operand sizes plus
	// the integer parameter, if any.
	SizeAdd

	// SizeParam means the integer parameter is the result size.
	SizeParam
)

// OpKind identifies an operator. It doubles as the operator class id used to
// key simplification and backend dispatch.
type OpKind int

// Operator kinds.
const (
	LITERAL = OpKind(iota + 1)
	SYMBOL

	unary_op_begin
	NEG
	ABS
	NOT
	INVERT
	REVERSE
	FPTOBV
	INTTOSTR
	unary_op_end

	binary_op_begin
	EQ
	NE
	compare_op_begin
	ULT
	ULE
	UGT
	UGE
	SLT
	SLE
	SGT
	SGE
	compare_op_end
	SUB
	UDIV
	SDIV
	UREM
	SREM
	SHL
	LSHR
	ASHR
	ROTL
	ROTR
	CONCAT
	CONTAINS
	PREFIXOF
	SUFFIXOF
	WIDEN
	UNION
	INTERSECTION
	binary_op_end

	flat_op_begin
	ADD
	MUL
	AND
	OR
	XOR
	flat_op_end

	uint_op_begin
	SEXT
	ZEXT
	STRLEN
	STRTOINT
	FPFROMBV
	uint_op_end

	EXTRACT
	ITE

	fp_op_begin
	FADD
	FSUB
	FMUL
	FDIV
	fp_op_end

	fp_convert_op_begin
	FPTOSBV
	FPTOUBV
	FPTOFP
	SBVTOFP
	UBVTOFP
	fp_convert_op_end

	STRREPLACE
	SUBSTR
	INDEXOF
)

// opInfo is the static description of an operator kind.
type opInfo struct {
	name   string
	shape  Shape
	accept sortSet  // operand sorts
	result Sort     // zero means the sort of the first operand
	size   SizeMode // only consulted for sized results
}

var (
	anySort = sorts(SortBool, SortBV, SortFP, SortString, SortVS)
	bvOrFP  = sorts(SortBV, SortFP)
	bvOnly  = sorts(SortBV)
)

var opInfos = [...]opInfo{
	LITERAL: {name: "Literal", shape: ShapeLiteral},
	SYMBOL:  {name: "Symbol", shape: ShapeSymbol},

	NEG:      {name: "Neg", shape: ShapeUnary, accept: bvOrFP, size: SizeFirst},
	ABS:      {name: "Abs", shape: ShapeUnary, accept: bvOrFP, size: SizeFirst},
	NOT:      {name: "Not", shape: ShapeUnary, accept: sorts(SortBool)},
	INVERT:   {name: "Invert", shape: ShapeUnary, accept: bvOnly, size: SizeFirst},
	REVERSE:  {name: "Reverse", shape: ShapeUnary, accept: bvOnly, size: SizeFirst},
	FPTOBV:   {name: "FPToIEEEBV", shape: ShapeUnary, accept: sorts(SortFP), result: SortBV, size: SizeFirst},
	INTTOSTR: {name: "IntToStr", shape: ShapeUnary, accept: bvOnly, result: SortString},

	EQ:           {name: "Eq", shape: ShapeBinary, accept: anySort, result: SortBool},
	NE:           {name: "Neq", shape: ShapeBinary, accept: anySort, result: SortBool},
	ULT:          {name: "ULT", shape: ShapeBinary, accept: bvOnly, result: SortBool},
	ULE:          {name: "ULE", shape: ShapeBinary, accept: bvOnly, result: SortBool},
	UGT:          {name: "UGT", shape: ShapeBinary, accept: bvOnly, result: SortBool},
	UGE:          {name: "UGE", shape: ShapeBinary, accept: bvOnly, result: SortBool},
	SLT:          {name: "SLT", shape: ShapeBinary, accept: bvOrFP, result: SortBool},
	SLE:          {name: "SLE", shape: ShapeBinary, accept: bvOrFP, result: SortBool},
	SGT:          {name: "SGT", shape: ShapeBinary, accept: bvOrFP, result: SortBool},
	SGE:          {name: "SGE", shape: ShapeBinary, accept: bvOrFP, result: SortBool},
	SUB:          {name: "Sub", shape: ShapeBinary, accept: bvOnly, size: SizeFirst},
	UDIV:         {name: "UDiv", shape: ShapeBinary, accept: bvOnly, size: SizeFirst},
	SDIV:         {name: "SDiv", shape: ShapeBinary, accept: bvOnly, size: SizeFirst},
	UREM:         {name: "URem", shape: ShapeBinary, accept: bvOnly, size: SizeFirst},
	SREM:         {name: "SRem", shape: ShapeBinary, accept: bvOnly, size: SizeFirst},
	SHL:          {name: "Shl", shape: ShapeBinary, accept: bvOnly, size: SizeFirst},
	LSHR:         {name: "LShr", shape: ShapeBinary, accept: bvOnly, size: SizeFirst},
	ASHR:         {name: "AShr", shape: ShapeBinary, accept: bvOnly, size: SizeFirst},
	ROTL:         {name: "RotateLeft", shape: ShapeBinary, accept: bvOnly, size: SizeFirst},
	ROTR:         {name: "RotateRight", shape: ShapeBinary, accept: bvOnly, size: SizeFirst},
	CONCAT:       {name: "Concat", shape: ShapeBinary, accept: sorts(SortBV, SortString), size: SizeAdd},
	CONTAINS:     {name: "Contains", shape: ShapeBinary, accept: sorts(SortString), result: SortBool},
	PREFIXOF:     {name: "PrefixOf", shape: ShapeBinary, accept: sorts(SortString), result: SortBool},
	SUFFIXOF:     {name: "SuffixOf", shape: ShapeBinary, accept: sorts(SortString), result: SortBool},
	WIDEN:        {name: "Widen", shape: ShapeBinary, accept: sorts(SortVS), size: SizeFirst},
	UNION:        {name: "Union", shape: ShapeBinary, accept: sorts(SortVS), size: SizeFirst},
	INTERSECTION: {name: "Intersection", shape: ShapeBinary, accept: sorts(SortVS), size: SizeFirst},

	ADD: {name: "Add", shape: ShapeFlat, accept: bvOnly, size: SizeFirst},
	MUL: {name: "Mul", shape: ShapeFlat, accept: bvOnly, size: SizeFirst},
	AND: {name: "And", shape: ShapeFlat, accept: sorts(SortBool, SortBV), size: SizeFirst},
	OR:  {name: "Or", shape: ShapeFlat, accept: sorts(SortBool, SortBV), size: SizeFirst},
	XOR: {name: "Xor", shape: ShapeFlat, accept: bvOnly, size: SizeFirst},

	SEXT:     {name: "SignExt", shape: ShapeUIntBinary, accept: bvOnly, size: SizeAdd},
	ZEXT:     {name: "ZeroExt", shape: ShapeUIntBinary, accept: bvOnly, size: SizeAdd},
	STRLEN:   {name: "StrLen", shape: ShapeUIntBinary, accept: sorts(SortString), result: SortBV, size: SizeParam},
	STRTOINT: {name: "StrToInt", shape: ShapeUIntBinary, accept: sorts(SortString), result: SortBV, size: SizeParam},
	FPFROMBV: {name: "FPFromIEEEBV", shape: ShapeUIntBinary, accept: bvOnly, result: SortFP, size: SizeParam},

	EXTRACT: {name: "Extract", shape: ShapeExtract, accept: bvOnly},
	ITE:     {name: "If", shape: ShapeIf, accept: anySort},

	FADD: {name: "FPAdd", shape: ShapeFPBinary, accept: sorts(SortFP), size: SizeFirst},
	FSUB: {name: "FPSub", shape: ShapeFPBinary, accept: sorts(SortFP), size: SizeFirst},
	FMUL: {name: "FPMul", shape: ShapeFPBinary, accept: sorts(SortFP), size: SizeFirst},
	FDIV: {name: "FPDiv", shape: ShapeFPBinary, accept: sorts(SortFP), size: SizeFirst},

	FPTOSBV: {name: "FPToSBV", shape: ShapeFPConvert, accept: sorts(SortFP), result: SortBV, size: SizeParam},
	FPTOUBV: {name: "FPToUBV", shape: ShapeFPConvert, accept: sorts(SortFP), result: SortBV, size: SizeParam},
	FPTOFP:  {name: "FPToFP", shape: ShapeFPConvert, accept: sorts(SortFP), result: SortFP, size: SizeParam},
	SBVTOFP: {name: "SBVToFP", shape: ShapeFPConvert, accept: bvOnly, result: SortFP, size: SizeParam},
	UBVTOFP: {name: "UBVToFP", shape: ShapeFPConvert, accept: bvOnly, result: SortFP, size: SizeParam},

	STRREPLACE: {name: "StrReplace", shape: ShapeTernary, accept: sorts(SortString), result: SortString},
	SUBSTR:     {name: "SubString", shape: ShapeTernary, accept: sorts(SortString), result: SortString},
	INDEXOF:    {name: "IndexOf", shape: ShapeIndexOf, accept: sorts(SortString), result: SortBV, size: SizeParam},
}

func (k OpKind) info() opInfo {
	if k > 0 && int(k) < len(opInfos) {
		return opInfos[k]
	}
	return opInfo{}
}

// String returns the name of the operator.
func (k OpKind) String() string {
	if name := k.info().name; name != "" {
		return name
	}
	return fmt.Sprintf("OpKind<%d>", k)
}

// Shape returns the operand shape of the operator or zero if k is unknown.
func (k OpKind) Shape() Shape { return k.info().shape }

// IsCompare returns true if k is one of the eight ordered comparisons.
func (k OpKind) IsCompare() bool {
	return k > compare_op_begin && k < compare_op_end
}

// IsSigned returns true if k is a signed comparison.
func (k OpKind) IsSigned() bool {
	switch k {
	case SLT, SLE, SGT, SGE:
		return true
	}
	return false
}

// OpKinds returns every valid operator kind.
func OpKinds() []OpKind {
	var a []OpKind
	for k := range opInfos {
		if opInfos[k].name != "" {
			a = append(a, OpKind(k))
		}
	}
	return a
}

// Rounding is an IEEE-754 rounding policy.
type Rounding int

// Rounding policies.
const (
	RoundNearestTiesEven Rounding = iota
	RoundNearestTiesAway
	RoundTowardPositive
	RoundTowardNegative
	RoundTowardZero
)

var roundingNames = [...]string{
	RoundNearestTiesEven: "NearestTiesEven",
	RoundNearestTiesAway: "NearestTiesAway",
	RoundTowardPositive:  "TowardPositive",
	RoundTowardNegative:  "TowardNegative",
	RoundTowardZero:      "TowardZero",
}

// String returns the name of the rounding policy.
func (r Rounding) String() string {
	if r >= 0 && int(r) < len(roundingNames) {
		return roundingNames[r]
	}
	return fmt.Sprintf("Rounding<%d>", r)
}

// Op is the payload of an expression describing how it is computed from its
// operands.
type Op interface {
	Kind() OpKind

	// Operands returns the child expressions. The slice must not be modified.
	Operands() []*Expr

	String() string
	op()
}

func (*Literal) op()    {}
func (*Symbol) op()     {}
func (*Unary) op()      {}
func (*Binary) op()     {}
func (*Flat) op()       {}
func (*UIntBinary) op() {}
func (*Extract) op()    {}
func (*If) op()         {}
func (*FPBinary) op()   {}
func (*FPConvert) op()  {}
func (*Ternary) op()    {}
func (*IndexOf) op()    {}

// Symbol is a free variable.
type Symbol struct {
	Name string
}

func (op *Symbol) Kind() OpKind      { return SYMBOL }
func (op *Symbol) Operands() []*Expr { return nil }
func (op *Symbol) String() string    { return op.Name }

// Unary applies an operator to a single operand.
type Unary struct {
	kind OpKind
	X    *Expr
}

func (op *Unary) Kind() OpKind      { return op.kind }
func (op *Unary) Operands() []*Expr { return []*Expr{op.X} }
func (op *Unary) String() string    { return fmt.Sprintf("(%s %s)", op.kind, op.X) }

// Binary applies an operator to two operands of the same sort.
type Binary struct {
	kind OpKind
	LHS  *Expr
	RHS  *Expr
}

func (op *Binary) Kind() OpKind      { return op.kind }
func (op *Binary) Operands() []*Expr { return []*Expr{op.LHS, op.RHS} }
func (op *Binary) String() string    { return fmt.Sprintf("(%s %s %s)", op.kind, op.LHS, op.RHS) }

// Flat applies an associative operator to two or more operands.
type Flat struct {
	kind OpKind
	Args []*Expr
}

func (op *Flat) Kind() OpKind      { return op.kind }
func (op *Flat) Operands() []*Expr { return op.Args }

func (op *Flat) String() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "(%s", op.kind)
	for _, arg := range op.Args {
		fmt.Fprintf(&buf, " %s", arg)
	}
	buf.WriteString(")")
	return buf.String()
}

// UIntBinary applies an operator to one operand and an unsigned integer.
type UIntBinary struct {
	kind OpKind
	X    *Expr
	N    uint
}

func (op *UIntBinary) Kind() OpKind      { return op.kind }
func (op *UIntBinary) Operands() []*Expr { return []*Expr{op.X} }
func (op *UIntBinary) String() string    { return fmt.Sprintf("(%s %s %d)", op.kind, op.X, op.N) }

// Extract selects bits High down to Low, inclusive, of X.
type Extract struct {
	High uint
	Low  uint
	X    *Expr
}

func (op *Extract) Kind() OpKind      { return EXTRACT }
func (op *Extract) Operands() []*Expr { return []*Expr{op.X} }
func (op *Extract) String() string    { return fmt.Sprintf("(Extract %d %d %s)", op.High, op.Low, op.X) }

// If selects Then when Cond holds and Else otherwise.
type If struct {
	Cond *Expr
	Then *Expr
	Else *Expr
}

func (op *If) Kind() OpKind      { return ITE }
func (op *If) Operands() []*Expr { return []*Expr{op.Cond, op.Then, op.Else} }
func (op *If) String() string    { return fmt.Sprintf("(If %s %s %s)", op.Cond, op.Then, op.Else) }

// FPBinary applies a floating point arithmetic operator under a rounding
// policy.
type FPBinary struct {
	kind OpKind
	Mode Rounding
	LHS  *Expr
	RHS  *Expr
}

func (op *FPBinary) Kind() OpKind      { return op.kind }
func (op *FPBinary) Operands() []*Expr { return []*Expr{op.LHS, op.RHS} }

func (op *FPBinary) String() string {
	return fmt.Sprintf("(%s %s %s %s)", op.kind, op.Mode, op.LHS, op.RHS)
}

// FPConvert converts X to a floating point value or a bit-vector of N bits
// under a rounding policy.
type FPConvert struct {
	kind OpKind
	Mode Rounding
	X    *Expr
	N    uint
}

func (op *FPConvert) Kind() OpKind      { return op.kind }
func (op *FPConvert) Operands() []*Expr { return []*Expr{op.X} }

func (op *FPConvert) String() string {
	return fmt.Sprintf("(%s %s %s %d)", op.kind, op.Mode, op.X, op.N)
}

// Ternary applies a string operator to three operands. StrReplace takes
// the string, the search string and the replacement. SubString takes the
// string, a bit-vector offset and a bit-vector length.
type Ternary struct {
	kind OpKind
	A    *Expr
	B    *Expr
	C    *Expr
}

func (op *Ternary) Kind() OpKind      { return op.kind }
func (op *Ternary) Operands() []*Expr { return []*Expr{op.A, op.B, op.C} }

func (op *Ternary) String() string {
	return fmt.Sprintf("(%s %s %s %s)", op.kind, op.A, op.B, op.C)
}

// IndexOf is the position of the first occurrence of Pattern in S at or
// after the bit-vector Start, as a bit-vector of N bits. A missing pattern
// yields all ones.
type IndexOf struct {
	S       *Expr
	Pattern *Expr
	Start   *Expr
	N       uint
}

func (op *IndexOf) Kind() OpKind      { return INDEXOF }
func (op *IndexOf) Operands() []*Expr { return []*Expr{op.S, op.Pattern, op.Start} }

func (op *IndexOf) String() string {
	return fmt.Sprintf("(IndexOf %s %s %s %d)", op.S, op.Pattern, op.Start, op.N)
}
