package z3

import (
	"github.com/benbjohnson/clari"
	"github.com/pkg/errors"
)

/*
#include <z3.h>
*/
import "C"

// toAST returns the Z3 term for e given its already converted operands.
func (ctx *Context) toAST(e *clari.Expr, args []C.Z3_ast) (C.Z3_ast, error) {
	switch op := e.Op().(type) {
	case *clari.Literal:
		return ctx.toLiteralAST(op)
	case *clari.Symbol:
		return ctx.toSymbolAST(e, op)
	case *clari.Unary:
		return ctx.toUnaryAST(e, op, args[0])
	case *clari.Binary:
		return ctx.toBinaryAST(e, op, args[0], args[1])
	case *clari.Flat:
		return ctx.toFlatAST(e, op, args)
	case *clari.UIntBinary:
		return ctx.toUIntBinaryAST(op, args[0])
	case *clari.Extract:
		return C.Z3_mk_extract(ctx.raw, C.uint(op.High), C.uint(op.Low), args[0]), ctx.err("Z3_mk_extract")
	case *clari.If:
		return C.Z3_mk_ite(ctx.raw, args[0], args[1], args[2]), ctx.err("Z3_mk_ite")
	case *clari.FPBinary:
		return ctx.toFPBinaryAST(op, args[0], args[1])
	case *clari.FPConvert:
		return ctx.toFPConvertAST(op, args[0])
	case *clari.Ternary:
		return ctx.toTernaryAST(op, args[0], args[1], args[2])
	case *clari.IndexOf:
		return ctx.toIndexOfAST(op, args[0], args[1], args[2])
	default:
		return nil, errors.Wrapf(clari.ErrInternal, "z3.Context.toAST: invalid operator type: %T", op)
	}
}

func (ctx *Context) toLiteralAST(lit *clari.Literal) (C.Z3_ast, error) {
	if err := lit.Validate(); err != nil {
		return nil, err
	}

	switch v := lit.Value.(type) {
	case bool:
		if v {
			return ctx.makeTrue()
		}
		return ctx.makeFalse()
	case string:
		return ctx.makeString(v)
	case float32:
		t, err := ctx.makeFPSort(clari.Width32)
		if err != nil {
			return nil, err
		}
		return C.Z3_mk_fpa_numeral_float(ctx.raw, C.float(v), t), ctx.err("Z3_mk_fpa_numeral_float")
	case float64:
		t, err := ctx.makeFPSort(clari.Width64)
		if err != nil {
			return nil, err
		}
		return C.Z3_mk_fpa_numeral_double(ctx.raw, C.double(v), t), ctx.err("Z3_mk_fpa_numeral_double")
	case clari.ValueSet:
		return nil, errors.Wrap(clari.ErrUnsupported, "value set literal")
	case uint8:
		return ctx.makeUint64(clari.Width8, uint64(v))
	case uint16:
		return ctx.makeUint64(clari.Width16, uint64(v))
	case uint32:
		return ctx.makeUint64(clari.Width32, uint64(v))
	case uint64:
		return ctx.makeUint64(clari.Width64, v)
	case clari.BigInt:
		if v.Int != nil {
			return ctx.makeNumeral(v.Bits, v.Int.Text(10))
		}
		return ctx.makeNumeral(v.Bits, v.Str)
	}
	panic("unreachable")
}

func (ctx *Context) toSymbolAST(e *clari.Expr, sym *clari.Symbol) (C.Z3_ast, error) {
	t, err := ctx.makeSort(e.Sort(), e.Size())
	if err != nil {
		return nil, err
	}
	return ctx.makeConst(sym.Name, t)
}

func (ctx *Context) toUnaryAST(e *clari.Expr, op *clari.Unary, x C.Z3_ast) (C.Z3_ast, error) {
	isFP := op.X.Sort() == clari.SortFP

	switch op.Kind() {
	case clari.NEG:
		if isFP {
			return C.Z3_mk_fpa_neg(ctx.raw, x), ctx.err("Z3_mk_fpa_neg")
		}
		return C.Z3_mk_bvneg(ctx.raw, x), ctx.err("Z3_mk_bvneg")
	case clari.ABS:
		if isFP {
			return C.Z3_mk_fpa_abs(ctx.raw, x), ctx.err("Z3_mk_fpa_abs")
		}
		return ctx.makeBVAbs(e.Size(), x)
	case clari.NOT:
		return C.Z3_mk_not(ctx.raw, x), ctx.err("Z3_mk_not")
	case clari.INVERT:
		return C.Z3_mk_bvnot(ctx.raw, x), ctx.err("Z3_mk_bvnot")
	case clari.REVERSE:
		return ctx.makeByteReverse(e.Size(), x)
	case clari.FPTOBV:
		return C.Z3_mk_fpa_to_ieee_bv(ctx.raw, x), ctx.err("Z3_mk_fpa_to_ieee_bv")
	case clari.INTTOSTR:
		n, err := ctx.makeBV2Int(x)
		if err != nil {
			return nil, err
		}
		return C.Z3_mk_int_to_str(ctx.raw, n), ctx.err("Z3_mk_int_to_str")
	default:
		return nil, errors.Wrapf(clari.ErrUnsupported, "unary operator %s", op.Kind())
	}
}

// makeBVAbs returns the two's complement absolute value of x.
func (ctx *Context) makeBVAbs(width uint, x C.Z3_ast) (C.Z3_ast, error) {
	zero, err := ctx.makeUint64(width, 0)
	if err != nil {
		return nil, err
	}
	negative := C.Z3_mk_bvslt(ctx.raw, x, zero)
	if err := ctx.err("Z3_mk_bvslt"); err != nil {
		return nil, err
	}
	neg := C.Z3_mk_bvneg(ctx.raw, x)
	if err := ctx.err("Z3_mk_bvneg"); err != nil {
		return nil, err
	}
	return C.Z3_mk_ite(ctx.raw, negative, neg, x), ctx.err("Z3_mk_ite")
}

// makeByteReverse returns x with its bytes in reverse order.
func (ctx *Context) makeByteReverse(width uint, x C.Z3_ast) (C.Z3_ast, error) {
	if width <= 8 {
		return x, nil
	}

	var result C.Z3_ast
	for low := uint(0); low < width; low += 8 {
		b := C.Z3_mk_extract(ctx.raw, C.uint(low+7), C.uint(low), x)
		if err := ctx.err("Z3_mk_extract"); err != nil {
			return nil, err
		}
		if result == nil {
			result = b
			continue
		}
		result = C.Z3_mk_concat(ctx.raw, result, b)
		if err := ctx.err("Z3_mk_concat"); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (ctx *Context) toBinaryAST(e *clari.Expr, op *clari.Binary, lhs, rhs C.Z3_ast) (C.Z3_ast, error) {
	if op.Kind().IsCompare() {
		return ctx.toCompareAST(op, lhs, rhs)
	}

	args := [2]C.Z3_ast{lhs, rhs}
	switch op.Kind() {
	case clari.EQ:
		return C.Z3_mk_eq(ctx.raw, lhs, rhs), ctx.err("Z3_mk_eq")
	case clari.NE:
		return C.Z3_mk_distinct(ctx.raw, 2, &args[0]), ctx.err("Z3_mk_distinct")
	case clari.SUB:
		return C.Z3_mk_bvsub(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvsub")
	case clari.UDIV:
		return C.Z3_mk_bvudiv(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvudiv")
	case clari.SDIV:
		return C.Z3_mk_bvsdiv(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvsdiv")
	case clari.UREM:
		return C.Z3_mk_bvurem(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvurem")
	case clari.SREM:
		return C.Z3_mk_bvsrem(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvsrem")
	case clari.SHL:
		return C.Z3_mk_bvshl(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvshl")
	case clari.LSHR:
		return C.Z3_mk_bvlshr(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvlshr")
	case clari.ASHR:
		return C.Z3_mk_bvashr(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvashr")
	case clari.ROTL:
		return C.Z3_mk_ext_rotate_left(ctx.raw, lhs, rhs), ctx.err("Z3_mk_ext_rotate_left")
	case clari.ROTR:
		return C.Z3_mk_ext_rotate_right(ctx.raw, lhs, rhs), ctx.err("Z3_mk_ext_rotate_right")
	case clari.CONCAT:
		if e.Sort() == clari.SortString {
			return C.Z3_mk_seq_concat(ctx.raw, 2, &args[0]), ctx.err("Z3_mk_seq_concat")
		}
		return C.Z3_mk_concat(ctx.raw, lhs, rhs), ctx.err("Z3_mk_concat")
	case clari.CONTAINS:
		return C.Z3_mk_seq_contains(ctx.raw, lhs, rhs), ctx.err("Z3_mk_seq_contains")
	case clari.PREFIXOF:
		return C.Z3_mk_seq_prefix(ctx.raw, rhs, lhs), ctx.err("Z3_mk_seq_prefix")
	case clari.SUFFIXOF:
		return C.Z3_mk_seq_suffix(ctx.raw, rhs, lhs), ctx.err("Z3_mk_seq_suffix")
	default:
		return nil, errors.Wrapf(clari.ErrUnsupported, "binary operator %s", op.Kind())
	}
}

// toCompareAST selects among signed/unsigned, less/greater and strict/equal.
func (ctx *Context) toCompareAST(op *clari.Binary, lhs, rhs C.Z3_ast) (C.Z3_ast, error) {
	if op.LHS.Sort() == clari.SortFP {
		switch op.Kind() {
		case clari.SLT:
			return C.Z3_mk_fpa_lt(ctx.raw, lhs, rhs), ctx.err("Z3_mk_fpa_lt")
		case clari.SLE:
			return C.Z3_mk_fpa_leq(ctx.raw, lhs, rhs), ctx.err("Z3_mk_fpa_leq")
		case clari.SGT:
			return C.Z3_mk_fpa_gt(ctx.raw, lhs, rhs), ctx.err("Z3_mk_fpa_gt")
		case clari.SGE:
			return C.Z3_mk_fpa_geq(ctx.raw, lhs, rhs), ctx.err("Z3_mk_fpa_geq")
		default:
			return nil, errors.Wrapf(clari.ErrType, "unsigned comparison %s on floating point", op.Kind())
		}
	}

	switch op.Kind() {
	case clari.ULT:
		return C.Z3_mk_bvult(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvult")
	case clari.ULE:
		return C.Z3_mk_bvule(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvule")
	case clari.UGT:
		return C.Z3_mk_bvugt(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvugt")
	case clari.UGE:
		return C.Z3_mk_bvuge(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvuge")
	case clari.SLT:
		return C.Z3_mk_bvslt(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvslt")
	case clari.SLE:
		return C.Z3_mk_bvsle(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvsle")
	case clari.SGT:
		return C.Z3_mk_bvsgt(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvsgt")
	case clari.SGE:
		return C.Z3_mk_bvsge(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvsge")
	}
	panic("unreachable")
}

func (ctx *Context) toFlatAST(e *clari.Expr, op *clari.Flat, args []C.Z3_ast) (C.Z3_ast, error) {
	n := C.uint(len(args))
	if e.Sort() == clari.SortBool {
		switch op.Kind() {
		case clari.AND:
			return C.Z3_mk_and(ctx.raw, n, &args[0]), ctx.err("Z3_mk_and")
		case clari.OR:
			return C.Z3_mk_or(ctx.raw, n, &args[0]), ctx.err("Z3_mk_or")
		}
		return nil, errors.Wrapf(clari.ErrUnsupported, "boolean %s", op.Kind())
	}

	// Bit-vector operators are binary in Z3 so fold left.
	result := args[0]
	for _, arg := range args[1:] {
		var err error
		switch op.Kind() {
		case clari.ADD:
			result, err = C.Z3_mk_bvadd(ctx.raw, result, arg), ctx.err("Z3_mk_bvadd")
		case clari.MUL:
			result, err = C.Z3_mk_bvmul(ctx.raw, result, arg), ctx.err("Z3_mk_bvmul")
		case clari.AND:
			result, err = C.Z3_mk_bvand(ctx.raw, result, arg), ctx.err("Z3_mk_bvand")
		case clari.OR:
			result, err = C.Z3_mk_bvor(ctx.raw, result, arg), ctx.err("Z3_mk_bvor")
		case clari.XOR:
			result, err = C.Z3_mk_bvxor(ctx.raw, result, arg), ctx.err("Z3_mk_bvxor")
		default:
			return nil, errors.Wrapf(clari.ErrUnsupported, "flat operator %s", op.Kind())
		}
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (ctx *Context) toUIntBinaryAST(op *clari.UIntBinary, x C.Z3_ast) (C.Z3_ast, error) {
	switch op.Kind() {
	case clari.SEXT:
		return C.Z3_mk_sign_ext(ctx.raw, C.uint(op.N), x), ctx.err("Z3_mk_sign_ext")
	case clari.ZEXT:
		return C.Z3_mk_zero_ext(ctx.raw, C.uint(op.N), x), ctx.err("Z3_mk_zero_ext")
	case clari.STRLEN:
		n := C.Z3_mk_seq_length(ctx.raw, x)
		if err := ctx.err("Z3_mk_seq_length"); err != nil {
			return nil, err
		}
		return C.Z3_mk_int2bv(ctx.raw, C.uint(op.N), n), ctx.err("Z3_mk_int2bv")
	case clari.STRTOINT:
		n := C.Z3_mk_str_to_int(ctx.raw, x)
		if err := ctx.err("Z3_mk_str_to_int"); err != nil {
			return nil, err
		}
		return C.Z3_mk_int2bv(ctx.raw, C.uint(op.N), n), ctx.err("Z3_mk_int2bv")
	case clari.FPFROMBV:
		t, err := ctx.makeFPSort(op.N)
		if err != nil {
			return nil, err
		}
		return C.Z3_mk_fpa_to_fp_bv(ctx.raw, x, t), ctx.err("Z3_mk_fpa_to_fp_bv")
	default:
		return nil, errors.Wrapf(clari.ErrUnsupported, "uint binary operator %s", op.Kind())
	}
}

// toFPBinaryAST sets the context rounding mode from the operator and then
// emits the operation under it.
func (ctx *Context) toFPBinaryAST(op *clari.FPBinary, lhs, rhs C.Z3_ast) (C.Z3_ast, error) {
	ctx.SetRoundingMode(op.Mode)
	rm, err := ctx.makeRoundingMode()
	if err != nil {
		return nil, err
	}

	switch op.Kind() {
	case clari.FADD:
		return C.Z3_mk_fpa_add(ctx.raw, rm, lhs, rhs), ctx.err("Z3_mk_fpa_add")
	case clari.FSUB:
		return C.Z3_mk_fpa_sub(ctx.raw, rm, lhs, rhs), ctx.err("Z3_mk_fpa_sub")
	case clari.FMUL:
		return C.Z3_mk_fpa_mul(ctx.raw, rm, lhs, rhs), ctx.err("Z3_mk_fpa_mul")
	case clari.FDIV:
		return C.Z3_mk_fpa_div(ctx.raw, rm, lhs, rhs), ctx.err("Z3_mk_fpa_div")
	default:
		return nil, errors.Wrapf(clari.ErrUnsupported, "floating point operator %s", op.Kind())
	}
}

// toFPConvertAST sets the context rounding mode from the operator and then
// emits the conversion under it.
func (ctx *Context) toFPConvertAST(op *clari.FPConvert, x C.Z3_ast) (C.Z3_ast, error) {
	ctx.SetRoundingMode(op.Mode)
	rm, err := ctx.makeRoundingMode()
	if err != nil {
		return nil, err
	}

	switch op.Kind() {
	case clari.FPTOSBV:
		return C.Z3_mk_fpa_to_sbv(ctx.raw, rm, x, C.uint(op.N)), ctx.err("Z3_mk_fpa_to_sbv")
	case clari.FPTOUBV:
		return C.Z3_mk_fpa_to_ubv(ctx.raw, rm, x, C.uint(op.N)), ctx.err("Z3_mk_fpa_to_ubv")
	}

	t, err := ctx.makeFPSort(op.N)
	if err != nil {
		return nil, err
	}
	switch op.Kind() {
	case clari.FPTOFP:
		return C.Z3_mk_fpa_to_fp_float(ctx.raw, rm, x, t), ctx.err("Z3_mk_fpa_to_fp_float")
	case clari.SBVTOFP:
		return C.Z3_mk_fpa_to_fp_signed(ctx.raw, rm, x, t), ctx.err("Z3_mk_fpa_to_fp_signed")
	case clari.UBVTOFP:
		return C.Z3_mk_fpa_to_fp_unsigned(ctx.raw, rm, x, t), ctx.err("Z3_mk_fpa_to_fp_unsigned")
	default:
		return nil, errors.Wrapf(clari.ErrUnsupported, "floating point conversion %s", op.Kind())
	}
}

func (ctx *Context) toTernaryAST(op *clari.Ternary, a, b, c C.Z3_ast) (C.Z3_ast, error) {
	switch op.Kind() {
	case clari.STRREPLACE:
		return C.Z3_mk_seq_replace(ctx.raw, a, b, c), ctx.err("Z3_mk_seq_replace")
	case clari.SUBSTR:
		offset, err := ctx.makeBV2Int(b)
		if err != nil {
			return nil, err
		}
		n, err := ctx.makeBV2Int(c)
		if err != nil {
			return nil, err
		}
		return C.Z3_mk_seq_extract(ctx.raw, a, offset, n), ctx.err("Z3_mk_seq_extract")
	default:
		return nil, errors.Wrapf(clari.ErrUnsupported, "ternary operator %s", op.Kind())
	}
}

func (ctx *Context) toIndexOfAST(op *clari.IndexOf, s, pattern, start C.Z3_ast) (C.Z3_ast, error) {
	offset, err := ctx.makeBV2Int(start)
	if err != nil {
		return nil, err
	}
	i := C.Z3_mk_seq_index(ctx.raw, s, pattern, offset)
	if err := ctx.err("Z3_mk_seq_index"); err != nil {
		return nil, err
	}
	return C.Z3_mk_int2bv(ctx.raw, C.uint(op.N), i), ctx.err("Z3_mk_int2bv")
}

// makeBV2Int returns the unsigned integer value of the bit-vector x.
func (ctx *Context) makeBV2Int(x C.Z3_ast) (C.Z3_ast, error) {
	return C.Z3_mk_bv2int(ctx.raw, x, C.bool(false)), ctx.err("Z3_mk_bv2int")
}
