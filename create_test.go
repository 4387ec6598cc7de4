package clari_test

import (
	"math/big"
	"testing"

	"github.com/benbjohnson/clari"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestFactory_Size(t *testing.T) {
	f := clari.MustNewFactory()
	x8, y16, x32 := MustBVSym(f, "x", 8), MustBVSym(f, "y", 16), MustBVSym(f, "x", 32)
	s := MustStringSym(f, "s")
	fx := MustFPSym(f, "fx", 64)

	for _, tt := range []struct {
		name string
		e    *clari.Expr
		sort clari.Sort
		size uint
	}{
		{"Concat", MustExpr(f.Concat(x8, y16)), clari.SortBV, 24},
		{"SignExt", MustExpr(f.SignExt(x8, 8)), clari.SortBV, 16},
		{"ZeroExt", MustExpr(f.ZeroExt(x8, 24)), clari.SortBV, 32},
		{"Extract", MustExpr(f.Extract(15, 8, x32)), clari.SortBV, 8},
		{"Add", MustExpr(f.Add(x32, x32)), clari.SortBV, 32},
		{"Eq", MustExpr(f.Eq(x8, x8)), clari.SortBool, 0},
		{"ULT", MustExpr(f.ULT(x32, MustBVSym(f, "y", 32))), clari.SortBool, 0},
		{"StrLen", MustExpr(f.StrLen(s, 32)), clari.SortBV, 32},
		{"StringConcat", MustExpr(f.Concat(s, MustStringSym(f, "t"))), clari.SortString, 0},
		{"FPToIEEEBV", MustExpr(f.FPToIEEEBV(fx)), clari.SortBV, 64},
		{"FPAdd", MustExpr(f.FPAdd(clari.RoundNearestTiesEven, fx, fx)), clari.SortFP, 64},
		{"If", MustExpr(f.If(MustBoolSym(f, "p"), x8, f.Uint8Lit(0))), clari.SortBV, 8},
		{"BigInt", MustExpr(f.BVLit(3, 12)), clari.SortBV, 12},
		{"FPToSBV", MustExpr(f.FPToSBV(clari.RoundTowardZero, fx, 16)), clari.SortBV, 16},
		{"FPToFP", MustExpr(f.FPToFP(clari.RoundNearestTiesEven, fx, 32)), clari.SortFP, 32},
		{"UBVToFP", MustExpr(f.UBVToFP(clari.RoundNearestTiesEven, x8, 64)), clari.SortFP, 64},
		{"FPFromIEEEBV", MustExpr(f.FPFromIEEEBV(x32)), clari.SortFP, 32},
		{"IntToStr", MustExpr(f.IntToStr(x8)), clari.SortString, 0},
		{"SubString", MustExpr(f.SubString(s, x8, x8)), clari.SortString, 0},
		{"IndexOf", MustExpr(f.IndexOf(s, MustStringSym(f, "t"), x8, 32)), clari.SortBV, 32},
	} {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.sort, tt.e.Sort())
			require.Equal(t, tt.size, tt.e.Size())
		})
	}

	t.Run("StringLiteral", func(t *testing.T) {
		e := f.StringLit("abc")
		require.Equal(t, uint(0), e.Size())

		lit, ok := e.Literal()
		require.True(t, ok)
		n, err := lit.BitLength()
		require.NoError(t, err)
		require.Equal(t, uint(24), n)
	})
}

func TestFactory_Errors(t *testing.T) {
	f := clari.MustNewFactory()
	x8, y16 := MustBVSym(f, "x", 8), MustBVSym(f, "y", 16)
	p := MustBoolSym(f, "p")
	s := MustStringSym(f, "s")

	for _, tt := range []struct {
		name   string
		fn     func() (*clari.Expr, error)
		target error
	}{
		{"ExtractHighLessThanLow", func() (*clari.Expr, error) { return f.Extract(3, 7, x8) }, clari.ErrUsage},
		{"ExtractOutOfRange", func() (*clari.Expr, error) { return f.Extract(8, 0, x8) }, clari.ErrUsage},
		{"SizeMismatch", func() (*clari.Expr, error) { return f.Add(x8, y16) }, clari.ErrUsage},
		{"SortMismatch", func() (*clari.Expr, error) { return f.Eq(x8, p) }, clari.ErrType},
		{"SortNotAccepted", func() (*clari.Expr, error) { return f.Add(p, p) }, clari.ErrType},
		{"NotOnBV", func() (*clari.Expr, error) { return f.Not(x8) }, clari.ErrType},
		{"UnsignedCompareOnFP", func() (*clari.Expr, error) {
			fx := MustFPSym(f, "fx", 32)
			return f.ULT(fx, fx)
		}, clari.ErrType},
		{"IfCondition", func() (*clari.Expr, error) { return f.If(x8, x8, x8) }, clari.ErrType},
		{"IfBranches", func() (*clari.Expr, error) { return f.If(p, x8, p) }, clari.ErrType},
		{"FlatArity", func() (*clari.Expr, error) { return f.Add(x8) }, clari.ErrUsage},
		{"NilOperand", func() (*clari.Expr, error) { return f.Neg(nil) }, clari.ErrUsage},
		{"WrongShape", func() (*clari.Expr, error) { return f.Unary(clari.ADD, x8) }, clari.ErrUsage},
		{"ReverseWidth", func() (*clari.Expr, error) { return f.Reverse(MustBVSym(f, "z", 12)) }, clari.ErrUsage},
		{"StrLenWidth", func() (*clari.Expr, error) { return f.StrLen(s, 0) }, clari.ErrUsage},
		{"Rounding", func() (*clari.Expr, error) {
			fx := MustFPSym(f, "fx", 32)
			return f.FPAdd(clari.Rounding(9), fx, fx)
		}, clari.ErrUsage},
		{"EmptySymbolName", func() (*clari.Expr, error) { return f.BVSym("", 8) }, clari.ErrUsage},
		{"FPSymbolWidth", func() (*clari.Expr, error) { return f.FPSym("h", 16) }, clari.ErrUsage},
		{"SizedBoolSymbol", func() (*clari.Expr, error) { return f.Symbol("b", clari.SortBool, 1) }, clari.ErrUsage},
		{"BigIntOverflow", func() (*clari.Expr, error) { return f.BigIntLit(big.NewInt(256), 8) }, clari.ErrUsage},
		{"BigIntDecimal", func() (*clari.Expr, error) { return f.BigIntLitString("0x10", 8) }, clari.ErrUsage},
		{"BVLitOverflow", func() (*clari.Expr, error) { return f.BVLit(256, 8) }, clari.ErrUsage},
		{"ValueSetWidth", func() (*clari.Expr, error) { return f.VSLit(clari.ValueSet{ID: 1, Bits: 12}) }, clari.ErrUsage},
		{"FPToFPWidth", func() (*clari.Expr, error) {
			return f.FPToFP(clari.RoundTowardZero, MustFPSym(f, "fx", 32), 16)
		}, clari.ErrUsage},
		{"FPToSBVOnBV", func() (*clari.Expr, error) { return f.FPToSBV(clari.RoundTowardZero, x8, 8) }, clari.ErrType},
		{"FPFromIEEEBVWidth", func() (*clari.Expr, error) { return f.FPFromIEEEBV(MustBVSym(f, "z", 12)) }, clari.ErrUsage},
		{"SubStringOffset", func() (*clari.Expr, error) { return f.SubString(s, s, x8) }, clari.ErrType},
		{"StrReplaceOnBV", func() (*clari.Expr, error) { return f.StrReplace(s, x8, s) }, clari.ErrType},
		{"IndexOfWidth", func() (*clari.Expr, error) { return f.IndexOf(s, s, x8, 0) }, clari.ErrUsage},
		{"BadVariant", func() (*clari.Expr, error) {
			return f.Literal(&clari.Literal{Tag: clari.LitBool, Value: "true"})
		}, clari.ErrBadVariant},
	} {
		t.Run(tt.name, func(t *testing.T) {
			e, err := tt.fn()
			require.Nil(t, e)
			require.True(t, errors.Is(err, tt.target), "unexpected error: %v", err)
		})
	}

	t.Run("BadVariantIsInternal", func(t *testing.T) {
		_, err := f.Literal(&clari.Literal{Tag: clari.LitUint8, Value: uint16(1)})
		require.True(t, clari.IsInternal(err))
	})
}

func TestFactory_Compare(t *testing.T) {
	f := clari.MustNewFactory()
	x, y := MustBVSym(f, "x", 8), MustBVSym(f, "y", 8)

	for _, tt := range []struct {
		signed, less, strict bool
		kind                 clari.OpKind
	}{
		{false, true, true, clari.ULT},
		{false, true, false, clari.ULE},
		{false, false, true, clari.UGT},
		{false, false, false, clari.UGE},
		{true, true, true, clari.SLT},
		{true, true, false, clari.SLE},
		{true, false, true, clari.SGT},
		{true, false, false, clari.SGE},
	} {
		t.Run(tt.kind.String(), func(t *testing.T) {
			e, err := f.Compare(x, y, tt.signed, tt.less, tt.strict)
			require.NoError(t, err)
			require.Equal(t, tt.kind, e.Kind())
			require.Equal(t, tt.signed, e.Kind().IsSigned())
		})
	}
}

func TestOpKinds(t *testing.T) {
	kinds := clari.OpKinds()
	require.Len(t, kinds, 60)
	for _, k := range kinds {
		require.NotZero(t, k.Shape(), "kind %s", k)
	}
}
