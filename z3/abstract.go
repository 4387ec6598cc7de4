package z3

import (
	"math"

	"github.com/benbjohnson/clari"
	"github.com/pkg/errors"
)

/*
#include <z3.h>
*/
import "C"

// Abstract returns the expression represented by the Z3 term a. Symbols get
// back any annotations recorded when they were converted.
func (b *Backend) Abstract(a AST) (*clari.Expr, error) {
	if a.ctx != b.ctx || a.raw == nil {
		return nil, errors.Wrap(clari.ErrUsage, "z3.Backend.Abstract: term does not belong to this backend")
	}
	b.stats.AbstractN++
	return b.abstract(a.raw)
}

func (b *Backend) abstract(ast C.Z3_ast) (*clari.Expr, error) {
	ctx := b.ctx
	id := C.Z3_get_ast_id(ctx.raw, ast)
	if e, ok := b.abs[id]; ok {
		return e, nil
	}

	switch kind := C.Z3_get_ast_kind(ctx.raw, ast); kind {
	case C.Z3_APP_AST, C.Z3_NUMERAL_AST:
	default:
		return nil, errors.Wrapf(clari.ErrUnsupported, "z3 ast kind %d: %s", kind, ctx.astToString(ast))
	}

	app := C.Z3_to_app(ctx.raw, ast)
	decl := C.Z3_get_app_decl(ctx.raw, app)
	if err := ctx.err("Z3_get_app_decl"); err != nil {
		return nil, err
	}

	// Symbols skip the memo so annotations always reflect the latest
	// translocation entry.
	if C.Z3_get_decl_kind(ctx.raw, decl) == C.Z3_OP_UNINTERPRETED && C.Z3_get_app_num_args(ctx.raw, app) == 0 {
		return b.abstractSymbol(ast, decl)
	}

	e, err := b.abstractApp(ast, app, decl)
	if err != nil {
		return nil, err
	}
	b.abs[id] = e
	return e, nil
}

func (b *Backend) abstractSymbol(ast C.Z3_ast, decl C.Z3_func_decl) (*clari.Expr, error) {
	ctx := b.ctx
	name := C.GoString(C.Z3_get_symbol_string(ctx.raw, C.Z3_get_decl_name(ctx.raw, decl)))

	sort, size, err := b.abstractSort(ast)
	if err != nil {
		return nil, err
	}
	e, err := b.factory.Symbol(name, sort, size)
	if err != nil {
		return nil, err
	}
	if anns := b.translocated(name); len(anns) > 0 {
		e = b.factory.Annotate(e, anns...)
	}
	return e, nil
}

// abstractSort returns the expression sort and size of a Z3 term.
func (b *Backend) abstractSort(ast C.Z3_ast) (clari.Sort, uint, error) {
	ctx := b.ctx
	t := C.Z3_get_sort(ctx.raw, ast)
	if err := ctx.err("Z3_get_sort"); err != nil {
		return 0, 0, err
	}

	switch C.Z3_get_sort_kind(ctx.raw, t) {
	case C.Z3_BOOL_SORT:
		return clari.SortBool, 0, nil
	case C.Z3_BV_SORT:
		return clari.SortBV, uint(C.Z3_get_bv_sort_size(ctx.raw, t)), nil
	case C.Z3_FLOATING_POINT_SORT:
		size, err := b.fpWidth(t)
		return clari.SortFP, size, err
	}
	if C.Z3_is_string_sort(ctx.raw, t) {
		return clari.SortString, 0, nil
	}
	return 0, 0, errors.Wrapf(clari.ErrUnsupported, "z3 sort: %s", ctx.astToString(ast))
}

// fpWidth maps IEEE single and double precision sorts to their bit widths.
func (b *Backend) fpWidth(t C.Z3_sort) (uint, error) {
	ebits := uint(C.Z3_fpa_get_ebits(b.ctx.raw, t))
	sbits := uint(C.Z3_fpa_get_sbits(b.ctx.raw, t))
	switch {
	case ebits == 8 && sbits == 24:
		return clari.Width32, nil
	case ebits == 11 && sbits == 53:
		return clari.Width64, nil
	}
	return 0, errors.Wrapf(clari.ErrUnsupported, "floating point sort (%d, %d)", ebits, sbits)
}

func (b *Backend) abstractApp(ast C.Z3_ast, app C.Z3_app, decl C.Z3_func_decl) (*clari.Expr, error) {
	ctx, f := b.ctx, b.factory

	if C.Z3_is_string(ctx.raw, ast) {
		var n C.uint
		s := C.Z3_get_lstring(ctx.raw, ast, &n)
		if err := ctx.err("Z3_get_lstring"); err != nil {
			return nil, err
		}
		return f.StringLit(C.GoStringN(s, C.int(n))), nil
	}

	declKind := C.Z3_get_decl_kind(ctx.raw, decl)
	switch declKind {
	case C.Z3_OP_TRUE:
		return f.True(), nil
	case C.Z3_OP_FALSE:
		return f.False(), nil
	case C.Z3_OP_BNUM:
		return b.abstractBVNumeral(ast)
	case C.Z3_OP_FPA_NUM, C.Z3_OP_FPA_PLUS_INF, C.Z3_OP_FPA_MINUS_INF,
		C.Z3_OP_FPA_NAN, C.Z3_OP_FPA_PLUS_ZERO, C.Z3_OP_FPA_MINUS_ZERO:
		return b.abstractFPNumeral(ast, declKind)
	case C.Z3_OP_INT2BV:
		return b.abstractInt2BV(app, decl)
	case C.Z3_OP_INT_TO_STR:
		x, err := b.abstractBV2Int(C.Z3_get_app_arg(ctx.raw, app, 0))
		if err != nil {
			return nil, err
		}
		return f.IntToStr(x)
	case C.Z3_OP_SEQ_EXTRACT:
		return b.abstractSubString(app)
	}

	n := int(C.Z3_get_app_num_args(ctx.raw, app))
	args := make([]*clari.Expr, 0, n)
	var rm C.Z3_decl_kind
	for i := 0; i < n; i++ {
		arg := C.Z3_get_app_arg(ctx.raw, app, C.uint(i))

		// Rounding modes are operands in Z3 but operator state here.
		if i == 0 && takesRounding(declKind, n) {
			rm = C.Z3_get_decl_kind(ctx.raw, C.Z3_get_app_decl(ctx.raw, C.Z3_to_app(ctx.raw, arg)))
			continue
		}

		e, err := b.abstract(arg)
		if err != nil {
			return nil, err
		}
		args = append(args, e)
	}

	switch declKind {
	case C.Z3_OP_EQ:
		return f.Eq(args[0], args[1])
	case C.Z3_OP_DISTINCT:
		if len(args) != 2 {
			return nil, errors.Wrapf(clari.ErrUnsupported, "distinct with %d arguments", len(args))
		}
		return f.Neq(args[0], args[1])
	case C.Z3_OP_ITE:
		return f.If(args[0], args[1], args[2])
	case C.Z3_OP_AND, C.Z3_OP_BAND:
		return f.And(args...)
	case C.Z3_OP_OR, C.Z3_OP_BOR:
		return f.Or(args...)
	case C.Z3_OP_NOT:
		return f.Not(args[0])

	case C.Z3_OP_BNEG, C.Z3_OP_FPA_NEG:
		return f.Neg(args[0])
	case C.Z3_OP_FPA_ABS:
		return f.Abs(args[0])
	case C.Z3_OP_BNOT:
		return f.Invert(args[0])
	case C.Z3_OP_FPA_TO_IEEE_BV:
		return f.FPToIEEEBV(args[0])

	case C.Z3_OP_BADD:
		return f.Add(args...)
	case C.Z3_OP_BMUL:
		return f.Mul(args...)
	case C.Z3_OP_BXOR:
		return f.Xor(args...)
	case C.Z3_OP_BSUB:
		return f.Sub(args[0], args[1])
	case C.Z3_OP_BUDIV, C.Z3_OP_BUDIV_I:
		return f.UDiv(args[0], args[1])
	case C.Z3_OP_BSDIV, C.Z3_OP_BSDIV_I:
		return f.SDiv(args[0], args[1])
	case C.Z3_OP_BUREM, C.Z3_OP_BUREM_I:
		return f.URem(args[0], args[1])
	case C.Z3_OP_BSREM, C.Z3_OP_BSREM_I:
		return f.SRem(args[0], args[1])
	case C.Z3_OP_BSHL:
		return f.Shl(args[0], args[1])
	case C.Z3_OP_BLSHR:
		return f.LShr(args[0], args[1])
	case C.Z3_OP_BASHR:
		return f.AShr(args[0], args[1])
	case C.Z3_OP_EXT_ROTATE_LEFT:
		return f.RotateLeft(args[0], args[1])
	case C.Z3_OP_EXT_ROTATE_RIGHT:
		return f.RotateRight(args[0], args[1])

	case C.Z3_OP_ULT:
		return f.ULT(args[0], args[1])
	case C.Z3_OP_ULEQ:
		return f.ULE(args[0], args[1])
	case C.Z3_OP_UGT:
		return f.UGT(args[0], args[1])
	case C.Z3_OP_UGEQ:
		return f.UGE(args[0], args[1])
	case C.Z3_OP_SLT, C.Z3_OP_FPA_LT:
		return f.SLT(args[0], args[1])
	case C.Z3_OP_SLEQ, C.Z3_OP_FPA_LE:
		return f.SLE(args[0], args[1])
	case C.Z3_OP_SGT, C.Z3_OP_FPA_GT:
		return f.SGT(args[0], args[1])
	case C.Z3_OP_SGEQ, C.Z3_OP_FPA_GE:
		return f.SGE(args[0], args[1])

	case C.Z3_OP_CONCAT, C.Z3_OP_SEQ_CONCAT:
		return b.abstractConcat(args)
	case C.Z3_OP_SEQ_CONTAINS:
		return f.Contains(args[0], args[1])
	case C.Z3_OP_SEQ_PREFIX:
		return f.PrefixOf(args[1], args[0])
	case C.Z3_OP_SEQ_SUFFIX:
		return f.SuffixOf(args[1], args[0])
	case C.Z3_OP_SEQ_REPLACE:
		return f.StrReplace(args[0], args[1], args[2])

	case C.Z3_OP_SIGN_EXT:
		return f.SignExt(args[0], b.declParam(decl, 0))
	case C.Z3_OP_ZERO_EXT:
		return f.ZeroExt(args[0], b.declParam(decl, 0))
	case C.Z3_OP_EXTRACT:
		return f.Extract(b.declParam(decl, 0), b.declParam(decl, 1), args[0])

	case C.Z3_OP_FPA_ADD, C.Z3_OP_FPA_SUB, C.Z3_OP_FPA_MUL, C.Z3_OP_FPA_DIV:
		mode, err := rounding(rm)
		if err != nil {
			return nil, err
		}
		return f.FPBinary(fpKind(declKind), mode, args[0], args[1])

	case C.Z3_OP_FPA_TO_SBV, C.Z3_OP_FPA_TO_UBV:
		mode, err := rounding(rm)
		if err != nil {
			return nil, err
		}
		kind := clari.FPTOSBV
		if declKind == C.Z3_OP_FPA_TO_UBV {
			kind = clari.FPTOUBV
		}
		return f.FPConvert(kind, mode, args[0], b.declParam(decl, 0))
	case C.Z3_OP_FPA_TO_FP, C.Z3_OP_FPA_TO_FP_UNSIGNED:
		return b.abstractToFP(ast, declKind, rm, args)
	}

	return nil, errors.Wrapf(clari.ErrUnsupported, "z3 operator: %s", ctx.astToString(ast))
}

// abstractConcat folds a Z3 concatenation of any arity into binary concats.
func (b *Backend) abstractConcat(args []*clari.Expr) (*clari.Expr, error) {
	result := args[0]
	for _, arg := range args[1:] {
		var err error
		if result, err = b.factory.Concat(result, arg); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (b *Backend) declParam(decl C.Z3_func_decl, i int) uint {
	return uint(C.Z3_get_decl_int_parameter(b.ctx.raw, decl, C.uint(i)))
}

// abstractBVNumeral returns a fixed width literal for the standard widths and
// an arbitrary precision literal for every other width.
func (b *Backend) abstractBVNumeral(ast C.Z3_ast) (*clari.Expr, error) {
	ctx, f := b.ctx, b.factory
	size, err := ctx.bvSize(ast)
	if err != nil {
		return nil, err
	}

	switch size {
	case clari.Width8, clari.Width16, clari.Width32, clari.Width64:
		var v C.uint64_t
		if !C.Z3_get_numeral_uint64(ctx.raw, ast, &v) {
			return nil, errors.Wrapf(clari.ErrInternal, "z3: numeral does not fit in 64 bits: %s", ctx.astToString(ast))
		}
		return f.BVLit(uint64(v), size)
	}

	s := C.GoString(C.Z3_get_numeral_string(ctx.raw, ast))
	if err := ctx.err("Z3_get_numeral_string"); err != nil {
		return nil, err
	}
	return f.BigIntLitString(s, size)
}

// abstractFPNumeral reads the IEEE bit pattern of a floating point numeral.
// Z3 has a single NaN per sort so every NaN comes back as the quiet NaN.
func (b *Backend) abstractFPNumeral(ast C.Z3_ast, kind C.Z3_decl_kind) (*clari.Expr, error) {
	ctx, f := b.ctx, b.factory
	t := C.Z3_get_sort(ctx.raw, ast)
	if err := ctx.err("Z3_get_sort"); err != nil {
		return nil, err
	}
	width, err := b.fpWidth(t)
	if err != nil {
		return nil, err
	}

	if kind == C.Z3_OP_FPA_NAN {
		if width == clari.Width32 {
			return f.Float32Lit(float32(math.NaN())), nil
		}
		return f.Float64Lit(math.NaN()), nil
	}

	bv := C.Z3_mk_fpa_to_ieee_bv(ctx.raw, ast)
	if err := ctx.err("Z3_mk_fpa_to_ieee_bv"); err != nil {
		return nil, err
	}
	bv = C.Z3_simplify(ctx.raw, bv)
	if err := ctx.err("Z3_simplify"); err != nil {
		return nil, err
	}

	var v C.uint64_t
	if !C.Z3_get_numeral_uint64(ctx.raw, bv, &v) {
		return nil, errors.Wrapf(clari.ErrInternal, "z3: cannot read floating point bits: %s", ctx.astToString(ast))
	}
	if width == clari.Width32 {
		return f.Float32Lit(math.Float32frombits(uint32(v))), nil
	}
	return f.Float64Lit(math.Float64frombits(uint64(v))), nil
}

func (b *Backend) abstractIndexOf(app C.Z3_app, width uint) (*clari.Expr, error) {
	ctx := b.ctx
	s, err := b.abstract(C.Z3_get_app_arg(ctx.raw, app, 0))
	if err != nil {
		return nil, err
	}
	pattern, err := b.abstract(C.Z3_get_app_arg(ctx.raw, app, 1))
	if err != nil {
		return nil, err
	}
	start, err := b.abstractBV2Int(C.Z3_get_app_arg(ctx.raw, app, 2))
	if err != nil {
		return nil, err
	}
	return b.factory.IndexOf(s, pattern, start, width)
}

// abstractInt2BV recovers string length and string to integer conversions,
// which are expressed in Z3 through the integer sort.
func (b *Backend) abstractInt2BV(app C.Z3_app, decl C.Z3_func_decl) (*clari.Expr, error) {
	ctx := b.ctx
	width := b.declParam(decl, 0)

	inner := C.Z3_to_app(ctx.raw, C.Z3_get_app_arg(ctx.raw, app, 0))
	innerDecl := C.Z3_get_app_decl(ctx.raw, inner)
	if err := ctx.err("Z3_get_app_decl"); err != nil {
		return nil, err
	}

	var kind clari.OpKind
	switch C.Z3_get_decl_kind(ctx.raw, innerDecl) {
	case C.Z3_OP_SEQ_INDEX:
		return b.abstractIndexOf(inner, width)
	case C.Z3_OP_SEQ_LENGTH:
		kind = clari.STRLEN
	case C.Z3_OP_STR_TO_INT:
		kind = clari.STRTOINT
	default:
		return nil, errors.Wrapf(clari.ErrUnsupported, "int2bv of %s", ctx.astToString(C.Z3_app_to_ast(ctx.raw, inner)))
	}

	s, err := b.abstract(C.Z3_get_app_arg(ctx.raw, inner, 0))
	if err != nil {
		return nil, err
	}
	return b.factory.UIntBinary(kind, s, width)
}

// takesRounding returns true if the first of the n arguments of an
// application of kind is a rounding mode.
func takesRounding(kind C.Z3_decl_kind, n int) bool {
	switch kind {
	case C.Z3_OP_FPA_ADD, C.Z3_OP_FPA_SUB, C.Z3_OP_FPA_MUL, C.Z3_OP_FPA_DIV,
		C.Z3_OP_FPA_TO_SBV, C.Z3_OP_FPA_TO_UBV, C.Z3_OP_FPA_TO_FP_UNSIGNED:
		return true
	case C.Z3_OP_FPA_TO_FP:
		// The single argument form reinterprets IEEE bits.
		return n == 2
	}
	return false
}

func fpKind(kind C.Z3_decl_kind) clari.OpKind {
	switch kind {
	case C.Z3_OP_FPA_ADD:
		return clari.FADD
	case C.Z3_OP_FPA_SUB:
		return clari.FSUB
	case C.Z3_OP_FPA_MUL:
		return clari.FMUL
	}
	return clari.FDIV
}

func rounding(kind C.Z3_decl_kind) (clari.Rounding, error) {
	switch kind {
	case C.Z3_OP_FPA_RM_NEAREST_TIES_TO_EVEN:
		return clari.RoundNearestTiesEven, nil
	case C.Z3_OP_FPA_RM_NEAREST_TIES_TO_AWAY:
		return clari.RoundNearestTiesAway, nil
	case C.Z3_OP_FPA_RM_TOWARD_POSITIVE:
		return clari.RoundTowardPositive, nil
	case C.Z3_OP_FPA_RM_TOWARD_NEGATIVE:
		return clari.RoundTowardNegative, nil
	case C.Z3_OP_FPA_RM_TOWARD_ZERO:
		return clari.RoundTowardZero, nil
	}
	return 0, errors.Wrapf(clari.ErrUnsupported, "z3 rounding mode %d", kind)
}

// abstractToFP recovers the conversions Z3 expresses with to_fp. The
// operand sort selects between reinterpreting bits, changing precision and
// converting a signed bit-vector.
func (b *Backend) abstractToFP(ast C.Z3_ast, kind C.Z3_decl_kind, rm C.Z3_decl_kind, args []*clari.Expr) (*clari.Expr, error) {
	f := b.factory
	if kind == C.Z3_OP_FPA_TO_FP && len(args) == 1 {
		return f.FPFromIEEEBV(args[0])
	} else if len(args) != 1 {
		return nil, errors.Wrapf(clari.ErrUnsupported, "z3 operator: %s", b.ctx.astToString(ast))
	}

	_, width, err := b.abstractSort(ast)
	if err != nil {
		return nil, err
	}
	mode, err := rounding(rm)
	if err != nil {
		return nil, err
	}

	switch {
	case kind == C.Z3_OP_FPA_TO_FP_UNSIGNED:
		return f.UBVToFP(mode, args[0], width)
	case args[0].Sort() == clari.SortFP:
		return f.FPToFP(mode, args[0], width)
	default:
		return f.SBVToFP(mode, args[0], width)
	}
}

// abstractBV2Int returns the bit-vector wrapped by a Z3 bv2int term. String
// operators take integer offsets in Z3 and bit-vectors here.
func (b *Backend) abstractBV2Int(ast C.Z3_ast) (*clari.Expr, error) {
	ctx := b.ctx
	app := C.Z3_to_app(ctx.raw, ast)
	decl := C.Z3_get_app_decl(ctx.raw, app)
	if err := ctx.err("Z3_get_app_decl"); err != nil {
		return nil, err
	} else if C.Z3_get_decl_kind(ctx.raw, decl) != C.Z3_OP_BV2INT {
		return nil, errors.Wrapf(clari.ErrUnsupported, "z3 integer term: %s", ctx.astToString(ast))
	}
	return b.abstract(C.Z3_get_app_arg(ctx.raw, app, 0))
}

func (b *Backend) abstractSubString(app C.Z3_app) (*clari.Expr, error) {
	ctx := b.ctx
	s, err := b.abstract(C.Z3_get_app_arg(ctx.raw, app, 0))
	if err != nil {
		return nil, err
	}
	offset, err := b.abstractBV2Int(C.Z3_get_app_arg(ctx.raw, app, 1))
	if err != nil {
		return nil, err
	}
	n, err := b.abstractBV2Int(C.Z3_get_app_arg(ctx.raw, app, 2))
	if err != nil {
		return nil, err
	}
	return b.factory.SubString(s, offset, n)
}
