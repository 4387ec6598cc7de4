package clari

import (
	"math/big"

	"github.com/pkg/errors"
)

// BoolLit returns the boolean literal v.
func (f *Factory) BoolLit(v bool) *Expr {
	return f.mustConstruct(SortBool, 0, &Literal{Tag: LitBool, Value: v})
}

// True returns the boolean literal true.
func (f *Factory) True() *Expr { return f.BoolLit(true) }

// False returns the boolean literal false.
func (f *Factory) False() *Expr { return f.BoolLit(false) }

// StringLit returns the string literal s.
func (f *Factory) StringLit(s string) *Expr {
	return f.mustConstruct(SortString, 0, &Literal{Tag: LitString, Value: s})
}

// Float32Lit returns a 32-bit floating point literal. The bits of v are kept
// exactly, including the sign of zero and NaN payloads.
func (f *Factory) Float32Lit(v float32) *Expr {
	return f.mustConstruct(SortFP, Width32, &Literal{Tag: LitFloat32, Value: v})
}

// Float64Lit returns a 64-bit floating point literal. The bits of v are kept
// exactly, including the sign of zero and NaN payloads.
func (f *Factory) Float64Lit(v float64) *Expr {
	return f.mustConstruct(SortFP, Width64, &Literal{Tag: LitFloat64, Value: v})
}

func (f *Factory) Uint8Lit(v uint8) *Expr {
	return f.mustConstruct(SortBV, Width8, &Literal{Tag: LitUint8, Value: v})
}

func (f *Factory) Uint16Lit(v uint16) *Expr {
	return f.mustConstruct(SortBV, Width16, &Literal{Tag: LitUint16, Value: v})
}

func (f *Factory) Uint32Lit(v uint32) *Expr {
	return f.mustConstruct(SortBV, Width32, &Literal{Tag: LitUint32, Value: v})
}

func (f *Factory) Uint64Lit(v uint64) *Expr {
	return f.mustConstruct(SortBV, Width64, &Literal{Tag: LitUint64, Value: v})
}

// BigIntLit returns a bit-vector literal of the given width holding v. Widths
// of 8, 16, 32 and 64 bits produce the fixed width variants.
func (f *Factory) BigIntLit(v *big.Int, bits uint) (*Expr, error) {
	if v == nil {
		return nil, errors.Wrap(ErrUsage, "bigint literal: nil value")
	} else if err := checkBigInt(v, bits); err != nil {
		return nil, err
	}
	if e, ok := f.fixedWidthLit(v, bits); ok {
		return e, nil
	}
	return f.construct(SortBV, bits, &Literal{Tag: LitBigInt, Value: BigInt{Int: new(big.Int).Set(v), Bits: bits}})
}

// BigIntLitString returns a bit-vector literal of the given width holding the
// decimal integer s.
func (f *Factory) BigIntLitString(s string, bits uint) (*Expr, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, errors.Wrapf(ErrUsage, "bigint literal: invalid decimal %q", s)
	} else if err := checkBigInt(v, bits); err != nil {
		return nil, err
	}
	if e, ok := f.fixedWidthLit(v, bits); ok {
		return e, nil
	}
	return f.construct(SortBV, bits, &Literal{Tag: LitBigInt, Value: BigInt{Str: s, Bits: bits}})
}

// fixedWidthLit returns the fixed width literal holding v if bits is 8, 16,
// 32 or 64. v must already fit in bits.
func (f *Factory) fixedWidthLit(v *big.Int, bits uint) (*Expr, bool) {
	switch bits {
	case Width8:
		return f.Uint8Lit(uint8(v.Uint64())), true
	case Width16:
		return f.Uint16Lit(uint16(v.Uint64())), true
	case Width32:
		return f.Uint32Lit(uint32(v.Uint64())), true
	case Width64:
		return f.Uint64Lit(v.Uint64()), true
	}
	return nil, false
}

func checkBigInt(v *big.Int, bits uint) error {
	switch {
	case bits == 0:
		return errors.Wrap(ErrUsage, "bigint literal: zero bit length")
	case v.Sign() < 0:
		return errors.Wrapf(ErrUsage, "bigint literal: negative value %s", v)
	case uint(v.BitLen()) > bits:
		return errors.Wrapf(ErrUsage, "bigint literal: %s does not fit in %d bits", v, bits)
	}
	return nil
}

// BVLit returns a bit-vector literal of the given width. Standard widths use
// the fixed width variants, anything else is stored as a BigInt.
func (f *Factory) BVLit(v uint64, bits uint) (*Expr, error) {
	switch bits {
	case Width8, Width16, Width32, Width64:
		if bits < Width64 && v>>bits != 0 {
			return nil, errors.Wrapf(ErrUsage, "bv literal: %d does not fit in %d bits", v, bits)
		}
	}
	switch bits {
	case Width8:
		return f.Uint8Lit(uint8(v)), nil
	case Width16:
		return f.Uint16Lit(uint16(v)), nil
	case Width32:
		return f.Uint32Lit(uint32(v)), nil
	case Width64:
		return f.Uint64Lit(v), nil
	default:
		return f.BigIntLit(new(big.Int).SetUint64(v), bits)
	}
}

// VSLit returns a value-set literal.
func (f *Factory) VSLit(v ValueSet) (*Expr, error) {
	if v.Bits == 0 || v.Bits%8 != 0 {
		return nil, errors.Wrapf(ErrUsage, "value set literal: bit length %d is not a positive multiple of 8", v.Bits)
	}
	return f.construct(SortVS, v.Bits, &Literal{Tag: LitVS, Value: v})
}

// Literal returns the literal described by op. It is used by backends that
// recover literals generically.
func (f *Factory) Literal(op *Literal) (*Expr, error) {
	if op == nil {
		return nil, errors.Wrap(ErrUsage, "literal: nil operator")
	} else if err := op.Validate(); err != nil {
		return nil, err
	}

	switch v := op.Value.(type) {
	case bool:
		return f.BoolLit(v), nil
	case string:
		return f.StringLit(v), nil
	case float32:
		return f.Float32Lit(v), nil
	case float64:
		return f.Float64Lit(v), nil
	case ValueSet:
		return f.VSLit(v)
	case uint8:
		return f.Uint8Lit(v), nil
	case uint16:
		return f.Uint16Lit(v), nil
	case uint32:
		return f.Uint32Lit(v), nil
	case uint64:
		return f.Uint64Lit(v), nil
	case BigInt:
		if v.Int != nil {
			return f.BigIntLit(v.Int, v.Bits)
		}
		return f.BigIntLitString(v.Str, v.Bits)
	}
	panic("unreachable")
}

// Symbol returns the free variable name of the given sort. Bool and String
// symbols are unsized and size must be zero.
func (f *Factory) Symbol(name string, sort Sort, size uint) (*Expr, error) {
	if name == "" {
		return nil, errors.Wrap(ErrUsage, "symbol: empty name")
	}

	switch sort {
	case SortBool, SortString:
		if size != 0 {
			return nil, errors.Wrapf(ErrUsage, "symbol %s: %s symbols are unsized, got size %d", name, sort, size)
		}
	case SortBV:
		if size == 0 {
			return nil, errors.Wrapf(ErrUsage, "symbol %s: zero bit length", name)
		}
	case SortFP:
		if size != Width32 && size != Width64 {
			return nil, errors.Wrapf(ErrUsage, "symbol %s: floating point width must be 32 or 64, got %d", name, size)
		}
	case SortVS:
		if size == 0 || size%8 != 0 {
			return nil, errors.Wrapf(ErrUsage, "symbol %s: value set bit length %d is not a positive multiple of 8", name, size)
		}
	default:
		return nil, errors.Wrapf(ErrUsage, "symbol %s: unknown sort %s", name, sort)
	}
	return f.construct(sort, size, &Symbol{Name: name})
}

func (f *Factory) BoolSym(name string) (*Expr, error)   { return f.Symbol(name, SortBool, 0) }
func (f *Factory) StringSym(name string) (*Expr, error) { return f.Symbol(name, SortString, 0) }

func (f *Factory) BVSym(name string, size uint) (*Expr, error) {
	return f.Symbol(name, SortBV, size)
}

func (f *Factory) FPSym(name string, size uint) (*Expr, error) {
	return f.Symbol(name, SortFP, size)
}

// checkOperand returns an error if x is nil or its sort is not accepted by kind.
func checkOperand(kind OpKind, x *Expr) error {
	if x == nil {
		return errors.Wrapf(ErrUsage, "%s: nil operand", kind)
	} else if !kind.info().accept.has(x.sort) {
		return errors.Wrapf(ErrType, "%s: %s operand not accepted", kind, x.sort)
	}
	return nil
}

func checkShape(kind OpKind, shape Shape) error {
	if kind.Shape() != shape {
		return errors.Wrapf(ErrUsage, "%s is not a %s operator", kind, shapeNames[shape])
	}
	return nil
}

var shapeNames = map[Shape]string{
	ShapeUnary:      "unary",
	ShapeBinary:     "binary",
	ShapeFlat:       "flat",
	ShapeUIntBinary: "uint binary",
	ShapeFPBinary:   "floating point binary",
	ShapeFPConvert:  "floating point conversion",
	ShapeTernary:    "ternary",
}

// resultSort returns the sort produced by kind applied to operands of sort s.
func resultSort(kind OpKind, s Sort) Sort {
	if r := kind.info().result; r != 0 {
		return r
	}
	return s
}

// Unary returns kind applied to x.
func (f *Factory) Unary(kind OpKind, x *Expr) (*Expr, error) {
	if err := checkShape(kind, ShapeUnary); err != nil {
		return nil, err
	} else if err := checkOperand(kind, x); err != nil {
		return nil, err
	} else if kind == REVERSE && x.size%8 != 0 {
		return nil, errors.Wrapf(ErrUsage, "%s: bit length %d is not a multiple of 8", kind, x.size)
	}

	sort := resultSort(kind, x.sort)
	var size uint
	if sort.Sized() {
		size = x.size
	}
	return f.construct(sort, size, &Unary{kind: kind, X: x})
}

func (f *Factory) Neg(x *Expr) (*Expr, error)        { return f.Unary(NEG, x) }
func (f *Factory) Abs(x *Expr) (*Expr, error)        { return f.Unary(ABS, x) }
func (f *Factory) Not(x *Expr) (*Expr, error)        { return f.Unary(NOT, x) }
func (f *Factory) Invert(x *Expr) (*Expr, error)     { return f.Unary(INVERT, x) }
func (f *Factory) Reverse(x *Expr) (*Expr, error)    { return f.Unary(REVERSE, x) }
func (f *Factory) FPToIEEEBV(x *Expr) (*Expr, error) { return f.Unary(FPTOBV, x) }

// IntToStr returns the decimal string of the unsigned value of x.
func (f *Factory) IntToStr(x *Expr) (*Expr, error) { return f.Unary(INTTOSTR, x) }

// Binary returns kind applied to lhs and rhs. Both operands must have the same
// sort and, unless the operator sums sizes, the same size.
func (f *Factory) Binary(kind OpKind, lhs, rhs *Expr) (*Expr, error) {
	if err := checkShape(kind, ShapeBinary); err != nil {
		return nil, err
	} else if err := checkOperand(kind, lhs); err != nil {
		return nil, err
	} else if err := checkOperand(kind, rhs); err != nil {
		return nil, err
	} else if lhs.sort != rhs.sort {
		return nil, errors.Wrapf(ErrType, "%s: operand sort mismatch: %s != %s", kind, lhs.sort, rhs.sort)
	}

	info := kind.info()
	if info.size != SizeAdd && lhs.size != rhs.size {
		return nil, errors.Wrapf(ErrUsage, "%s: operand size mismatch: %d != %d", kind, lhs.size, rhs.size)
	}

	sort := resultSort(kind, lhs.sort)
	var size uint
	if sort.Sized() {
		switch info.size {
		case SizeFirst:
			size = lhs.size
		case SizeAdd:
			size = lhs.size + rhs.size
		}
	}
	return f.construct(sort, size, &Binary{kind: kind, LHS: lhs, RHS: rhs})
}

func (f *Factory) Eq(lhs, rhs *Expr) (*Expr, error)  { return f.Binary(EQ, lhs, rhs) }
func (f *Factory) Neq(lhs, rhs *Expr) (*Expr, error) { return f.Binary(NE, lhs, rhs) }
func (f *Factory) ULT(lhs, rhs *Expr) (*Expr, error) { return f.Binary(ULT, lhs, rhs) }
func (f *Factory) ULE(lhs, rhs *Expr) (*Expr, error) { return f.Binary(ULE, lhs, rhs) }
func (f *Factory) UGT(lhs, rhs *Expr) (*Expr, error) { return f.Binary(UGT, lhs, rhs) }
func (f *Factory) UGE(lhs, rhs *Expr) (*Expr, error) { return f.Binary(UGE, lhs, rhs) }
func (f *Factory) SLT(lhs, rhs *Expr) (*Expr, error) { return f.Binary(SLT, lhs, rhs) }
func (f *Factory) SLE(lhs, rhs *Expr) (*Expr, error) { return f.Binary(SLE, lhs, rhs) }
func (f *Factory) SGT(lhs, rhs *Expr) (*Expr, error) { return f.Binary(SGT, lhs, rhs) }
func (f *Factory) SGE(lhs, rhs *Expr) (*Expr, error) { return f.Binary(SGE, lhs, rhs) }

// Compare returns the ordered comparison of lhs and rhs selected by signed,
// less and strict.
func (f *Factory) Compare(lhs, rhs *Expr, signed, less, strict bool) (*Expr, error) {
	var kind OpKind
	switch {
	case !signed && less && strict:
		kind = ULT
	case !signed && less:
		kind = ULE
	case !signed && strict:
		kind = UGT
	case !signed:
		kind = UGE
	case less && strict:
		kind = SLT
	case less:
		kind = SLE
	case strict:
		kind = SGT
	default:
		kind = SGE
	}
	return f.Binary(kind, lhs, rhs)
}

func (f *Factory) Sub(lhs, rhs *Expr) (*Expr, error)  { return f.Binary(SUB, lhs, rhs) }
func (f *Factory) UDiv(lhs, rhs *Expr) (*Expr, error) { return f.Binary(UDIV, lhs, rhs) }
func (f *Factory) SDiv(lhs, rhs *Expr) (*Expr, error) { return f.Binary(SDIV, lhs, rhs) }
func (f *Factory) URem(lhs, rhs *Expr) (*Expr, error) { return f.Binary(UREM, lhs, rhs) }
func (f *Factory) SRem(lhs, rhs *Expr) (*Expr, error) { return f.Binary(SREM, lhs, rhs) }
func (f *Factory) Shl(lhs, rhs *Expr) (*Expr, error)  { return f.Binary(SHL, lhs, rhs) }
func (f *Factory) LShr(lhs, rhs *Expr) (*Expr, error) { return f.Binary(LSHR, lhs, rhs) }
func (f *Factory) AShr(lhs, rhs *Expr) (*Expr, error) { return f.Binary(ASHR, lhs, rhs) }

func (f *Factory) RotateLeft(lhs, rhs *Expr) (*Expr, error)  { return f.Binary(ROTL, lhs, rhs) }
func (f *Factory) RotateRight(lhs, rhs *Expr) (*Expr, error) { return f.Binary(ROTR, lhs, rhs) }

// Concat returns msb followed by lsb. Bit-vector results are as wide as both
// operands together.
func (f *Factory) Concat(msb, lsb *Expr) (*Expr, error) { return f.Binary(CONCAT, msb, lsb) }

// Contains returns true when sub occurs in s.
func (f *Factory) Contains(s, sub *Expr) (*Expr, error) { return f.Binary(CONTAINS, s, sub) }

// PrefixOf returns true when s starts with prefix.
func (f *Factory) PrefixOf(s, prefix *Expr) (*Expr, error) { return f.Binary(PREFIXOF, s, prefix) }

// SuffixOf returns true when s ends with suffix.
func (f *Factory) SuffixOf(s, suffix *Expr) (*Expr, error) { return f.Binary(SUFFIXOF, s, suffix) }

func (f *Factory) Widen(lhs, rhs *Expr) (*Expr, error) { return f.Binary(WIDEN, lhs, rhs) }
func (f *Factory) Union(lhs, rhs *Expr) (*Expr, error) { return f.Binary(UNION, lhs, rhs) }

func (f *Factory) Intersection(lhs, rhs *Expr) (*Expr, error) {
	return f.Binary(INTERSECTION, lhs, rhs)
}

// Flat returns the associative operator kind applied to two or more operands
// of equal sort and size.
func (f *Factory) Flat(kind OpKind, args ...*Expr) (*Expr, error) {
	if err := checkShape(kind, ShapeFlat); err != nil {
		return nil, err
	} else if len(args) < 2 {
		return nil, errors.Wrapf(ErrUsage, "%s: requires at least two operands, got %d", kind, len(args))
	}
	for _, arg := range args {
		if err := checkOperand(kind, arg); err != nil {
			return nil, err
		} else if arg.sort != args[0].sort {
			return nil, errors.Wrapf(ErrType, "%s: operand sort mismatch: %s != %s", kind, arg.sort, args[0].sort)
		} else if arg.size != args[0].size {
			return nil, errors.Wrapf(ErrUsage, "%s: operand size mismatch: %d != %d", kind, arg.size, args[0].size)
		}
	}

	other := make([]*Expr, len(args))
	copy(other, args)
	return f.construct(args[0].sort, args[0].size, &Flat{kind: kind, Args: other})
}

func (f *Factory) Add(args ...*Expr) (*Expr, error) { return f.Flat(ADD, args...) }
func (f *Factory) Mul(args ...*Expr) (*Expr, error) { return f.Flat(MUL, args...) }
func (f *Factory) And(args ...*Expr) (*Expr, error) { return f.Flat(AND, args...) }
func (f *Factory) Or(args ...*Expr) (*Expr, error)  { return f.Flat(OR, args...) }
func (f *Factory) Xor(args ...*Expr) (*Expr, error) { return f.Flat(XOR, args...) }

// UIntBinary returns kind applied to x and the integer n.
func (f *Factory) UIntBinary(kind OpKind, x *Expr, n uint) (*Expr, error) {
	if err := checkShape(kind, ShapeUIntBinary); err != nil {
		return nil, err
	} else if err := checkOperand(kind, x); err != nil {
		return nil, err
	}

	var size uint
	switch kind.info().size {
	case SizeAdd:
		size = x.size + n
	case SizeParam:
		if n == 0 {
			return nil, errors.Wrapf(ErrUsage, "%s: zero result width", kind)
		}
		size = n
	}
	if kind == FPFROMBV {
		if err := checkFPWidth(kind, n); err != nil {
			return nil, err
		} else if x.size != n {
			return nil, errors.Wrapf(ErrUsage, "%s: %d-bit operand for %d-bit result", kind, x.size, n)
		}
	}
	return f.construct(resultSort(kind, x.sort), size, &UIntBinary{kind: kind, X: x, N: n})
}

// SignExt returns x sign extended by n bits.
func (f *Factory) SignExt(x *Expr, n uint) (*Expr, error) { return f.UIntBinary(SEXT, x, n) }

// ZeroExt returns x zero extended by n bits.
func (f *Factory) ZeroExt(x *Expr, n uint) (*Expr, error) { return f.UIntBinary(ZEXT, x, n) }

// StrLen returns the length of s as a bit-vector of the given width.
func (f *Factory) StrLen(s *Expr, width uint) (*Expr, error) { return f.UIntBinary(STRLEN, s, width) }

// StrToInt returns the integer s parses to as a bit-vector of the given width.
func (f *Factory) StrToInt(s *Expr, width uint) (*Expr, error) {
	return f.UIntBinary(STRTOINT, s, width)
}

// FPFromIEEEBV reinterprets the bits of x as a floating point value of the
// same width. x must be 32 or 64 bits wide.
func (f *Factory) FPFromIEEEBV(x *Expr) (*Expr, error) {
	if x == nil {
		return nil, errors.Wrap(ErrUsage, "FPFromIEEEBV: nil operand")
	}
	return f.UIntBinary(FPFROMBV, x, x.size)
}

func checkFPWidth(kind OpKind, width uint) error {
	if width != Width32 && width != Width64 {
		return errors.Wrapf(ErrUsage, "%s: floating point width must be 32 or 64, got %d", kind, width)
	}
	return nil
}

// Extract returns bits high down to low, inclusive, of x.
func (f *Factory) Extract(high, low uint, x *Expr) (*Expr, error) {
	if err := checkOperand(EXTRACT, x); err != nil {
		return nil, err
	} else if high < low {
		return nil, errors.Wrapf(ErrUsage, "Extract: high (%d) < low (%d)", high, low)
	} else if high >= x.size {
		return nil, errors.Wrapf(ErrUsage, "Extract: high (%d) out of range for %d bits", high, x.size)
	}
	return f.construct(SortBV, high-low+1, &Extract{High: high, Low: low, X: x})
}

// If returns then when cond holds and els otherwise.
func (f *Factory) If(cond, then, els *Expr) (*Expr, error) {
	if cond == nil || then == nil || els == nil {
		return nil, errors.Wrap(ErrUsage, "If: nil operand")
	} else if cond.sort != SortBool {
		return nil, errors.Wrapf(ErrType, "If: condition must be Bool, got %s", cond.sort)
	} else if then.sort != els.sort {
		return nil, errors.Wrapf(ErrType, "If: branch sort mismatch: %s != %s", then.sort, els.sort)
	} else if then.size != els.size {
		return nil, errors.Wrapf(ErrUsage, "If: branch size mismatch: %d != %d", then.size, els.size)
	}
	return f.construct(then.sort, then.size, &If{Cond: cond, Then: then, Else: els})
}

// FPBinary returns the floating point operator kind applied to lhs and rhs
// under the rounding policy mode.
func (f *Factory) FPBinary(kind OpKind, mode Rounding, lhs, rhs *Expr) (*Expr, error) {
	if err := checkShape(kind, ShapeFPBinary); err != nil {
		return nil, err
	} else if mode < RoundNearestTiesEven || mode > RoundTowardZero {
		return nil, errors.Wrapf(ErrUsage, "%s: unknown rounding %d", kind, mode)
	} else if err := checkOperand(kind, lhs); err != nil {
		return nil, err
	} else if err := checkOperand(kind, rhs); err != nil {
		return nil, err
	} else if lhs.size != rhs.size {
		return nil, errors.Wrapf(ErrUsage, "%s: operand size mismatch: %d != %d", kind, lhs.size, rhs.size)
	}
	return f.construct(SortFP, lhs.size, &FPBinary{kind: kind, Mode: mode, LHS: lhs, RHS: rhs})
}

func (f *Factory) FPAdd(mode Rounding, lhs, rhs *Expr) (*Expr, error) {
	return f.FPBinary(FADD, mode, lhs, rhs)
}

func (f *Factory) FPSub(mode Rounding, lhs, rhs *Expr) (*Expr, error) {
	return f.FPBinary(FSUB, mode, lhs, rhs)
}

func (f *Factory) FPMul(mode Rounding, lhs, rhs *Expr) (*Expr, error) {
	return f.FPBinary(FMUL, mode, lhs, rhs)
}

func (f *Factory) FPDiv(mode Rounding, lhs, rhs *Expr) (*Expr, error) {
	return f.FPBinary(FDIV, mode, lhs, rhs)
}

// FPConvert returns x converted by kind under the rounding policy mode. The
// result is n bits wide: a bit-vector for FPToSBV and FPToUBV, a floating
// point value of 32 or 64 bits otherwise.
func (f *Factory) FPConvert(kind OpKind, mode Rounding, x *Expr, n uint) (*Expr, error) {
	if err := checkShape(kind, ShapeFPConvert); err != nil {
		return nil, err
	} else if mode < RoundNearestTiesEven || mode > RoundTowardZero {
		return nil, errors.Wrapf(ErrUsage, "%s: unknown rounding %d", kind, mode)
	} else if err := checkOperand(kind, x); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, errors.Wrapf(ErrUsage, "%s: zero result width", kind)
	}

	sort := resultSort(kind, x.sort)
	if sort == SortFP {
		if err := checkFPWidth(kind, n); err != nil {
			return nil, err
		}
	}
	return f.construct(sort, n, &FPConvert{kind: kind, Mode: mode, X: x, N: n})
}

// FPToSBV returns x rounded to a signed integer of n bits.
func (f *Factory) FPToSBV(mode Rounding, x *Expr, n uint) (*Expr, error) {
	return f.FPConvert(FPTOSBV, mode, x, n)
}

// FPToUBV returns x rounded to an unsigned integer of n bits.
func (f *Factory) FPToUBV(mode Rounding, x *Expr, n uint) (*Expr, error) {
	return f.FPConvert(FPTOUBV, mode, x, n)
}

// FPToFP returns x rounded to a floating point value of the given width.
func (f *Factory) FPToFP(mode Rounding, x *Expr, width uint) (*Expr, error) {
	return f.FPConvert(FPTOFP, mode, x, width)
}

// SBVToFP returns the two's complement bit-vector x as a floating point value.
func (f *Factory) SBVToFP(mode Rounding, x *Expr, width uint) (*Expr, error) {
	return f.FPConvert(SBVTOFP, mode, x, width)
}

// UBVToFP returns the unsigned bit-vector x as a floating point value.
func (f *Factory) UBVToFP(mode Rounding, x *Expr, width uint) (*Expr, error) {
	return f.FPConvert(UBVTOFP, mode, x, width)
}

// Ternary returns the string operator kind applied to a, b and c.
func (f *Factory) Ternary(kind OpKind, a, b, c *Expr) (*Expr, error) {
	if err := checkShape(kind, ShapeTernary); err != nil {
		return nil, err
	} else if b == nil || c == nil {
		return nil, errors.Wrapf(ErrUsage, "%s: nil operand", kind)
	} else if err := checkOperand(kind, a); err != nil {
		return nil, err
	}

	want := SortString
	if kind == SUBSTR {
		want = SortBV
	}
	for _, x := range []*Expr{b, c} {
		if x.sort != want {
			return nil, errors.Wrapf(ErrType, "%s: %s operand, want %s", kind, x.sort, want)
		}
	}
	return f.construct(SortString, 0, &Ternary{kind: kind, A: a, B: b, C: c})
}

// StrReplace returns s with the first occurrence of search replaced.
func (f *Factory) StrReplace(s, search, replacement *Expr) (*Expr, error) {
	return f.Ternary(STRREPLACE, s, search, replacement)
}

// SubString returns the n characters of s starting at offset. Both offset
// and n are unsigned bit-vectors.
func (f *Factory) SubString(s, offset, n *Expr) (*Expr, error) {
	return f.Ternary(SUBSTR, s, offset, n)
}

// IndexOf returns the position of pattern in s at or after the bit-vector
// start as a bit-vector of the given width.
func (f *Factory) IndexOf(s, pattern, start *Expr, width uint) (*Expr, error) {
	if err := checkOperand(INDEXOF, s); err != nil {
		return nil, err
	} else if err := checkOperand(INDEXOF, pattern); err != nil {
		return nil, err
	} else if start == nil {
		return nil, errors.Wrap(ErrUsage, "IndexOf: nil operand")
	} else if start.sort != SortBV {
		return nil, errors.Wrapf(ErrType, "IndexOf: %s start, want BV", start.sort)
	} else if width == 0 {
		return nil, errors.Wrap(ErrUsage, "IndexOf: zero result width")
	}
	return f.construct(SortBV, width, &IndexOf{S: s, Pattern: pattern, Start: start, N: width})
}
