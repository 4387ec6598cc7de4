package clari_test

import (
	"testing"

	"github.com/benbjohnson/clari"
)

func TestFactory_Simplify(t *testing.T) {
	f := clari.MustNewFactory()
	p, q, r := MustBoolSym(f, "p"), MustBoolSym(f, "q"), MustBoolSym(f, "r")
	x, y := MustBVSym(f, "x", 8), MustBVSym(f, "y", 8)
	x16 := MustBVSym(f, "x", 16)
	x32 := MustBVSym(f, "x", 32)

	for _, tt := range []struct {
		name string
		fn   func() (*clari.Expr, error)
		want *clari.Expr
	}{
		{"NotLiteral", func() (*clari.Expr, error) { return f.Not(f.True()) }, f.False()},
		{"DoubleNot", func() (*clari.Expr, error) { return f.Not(MustExpr(f.Not(p))) }, p},
		{"AndIdentity", func() (*clari.Expr, error) { return f.And(p, f.True()) }, p},
		{"AndAbsorb", func() (*clari.Expr, error) { return f.And(p, f.False()) }, f.False()},
		{"OrAbsorb", func() (*clari.Expr, error) { return f.Or(p, f.True()) }, f.True()},
		{"OrIdentity", func() (*clari.Expr, error) { return f.Or(f.False(), q) }, q},
		{"AndDuplicate", func() (*clari.Expr, error) { return f.And(p, p) }, p},
		{"AndFlatten", func() (*clari.Expr, error) { return f.And(MustExpr(f.And(p, q)), r) }, MustExpr(f.And(p, q, r))},

		{"NegLiteral", func() (*clari.Expr, error) { return f.Neg(f.Uint8Lit(1)) }, f.Uint8Lit(0xff)},
		{"DoubleNeg", func() (*clari.Expr, error) { return f.Neg(MustExpr(f.Neg(x))) }, x},
		{"InvertLiteral", func() (*clari.Expr, error) { return f.Invert(f.Uint16Lit(0x00ff)) }, f.Uint16Lit(0xff00)},
		{"DoubleInvert", func() (*clari.Expr, error) { return f.Invert(MustExpr(f.Invert(x))) }, x},

		{"EqSame", func() (*clari.Expr, error) { return f.Eq(x, x) }, f.True()},
		{"EqLiteral", func() (*clari.Expr, error) { return f.Eq(f.Uint8Lit(1), f.Uint8Lit(2)) }, f.False()},
		{"EqString", func() (*clari.Expr, error) { return f.Eq(f.StringLit("a"), f.StringLit("a")) }, f.True()},
		{"NeqSame", func() (*clari.Expr, error) { return f.Neq(x, x) }, f.False()},
		{"NeqLiteral", func() (*clari.Expr, error) { return f.Neq(f.Uint8Lit(1), f.Uint8Lit(2)) }, f.True()},

		{"SubSame", func() (*clari.Expr, error) { return f.Sub(x, x) }, f.Uint8Lit(0)},
		{"SubLiteral", func() (*clari.Expr, error) { return f.Sub(f.Uint8Lit(1), f.Uint8Lit(2)) }, f.Uint8Lit(0xff)},
		{"SubZero", func() (*clari.Expr, error) { return f.Sub(x, f.Uint8Lit(0)) }, x},

		{"AddLiteral", func() (*clari.Expr, error) { return f.Add(f.Uint8Lit(200), f.Uint8Lit(100)) }, f.Uint8Lit(44)},
		{"AddZero", func() (*clari.Expr, error) { return f.Add(x, f.Uint8Lit(0)) }, x},
		{"AddFold", func() (*clari.Expr, error) { return f.Add(x, f.Uint8Lit(1), f.Uint8Lit(2)) }, MustExpr(f.Add(x, f.Uint8Lit(3)))},
		{"AddFlatten", func() (*clari.Expr, error) { return f.Add(MustExpr(f.Add(x, y)), x) }, MustExpr(f.Add(x, y, x))},
		{"MulZero", func() (*clari.Expr, error) { return f.Mul(x, f.Uint8Lit(0)) }, f.Uint8Lit(0)},
		{"MulOne", func() (*clari.Expr, error) { return f.Mul(f.Uint8Lit(1), y) }, y},
		{"MulLiteral", func() (*clari.Expr, error) { return f.Mul(f.Uint8Lit(16), f.Uint8Lit(17)) }, f.Uint8Lit(16)},
		{"BVAndZero", func() (*clari.Expr, error) { return f.And(x, f.Uint8Lit(0)) }, f.Uint8Lit(0)},
		{"BVAndOnes", func() (*clari.Expr, error) { return f.And(x, f.Uint8Lit(0xff)) }, x},
		{"BVOrOnes", func() (*clari.Expr, error) { return f.Or(x, f.Uint8Lit(0xff)) }, f.Uint8Lit(0xff)},
		{"XorLiteral", func() (*clari.Expr, error) { return f.Xor(f.Uint8Lit(0x0f), f.Uint8Lit(0xff)) }, f.Uint8Lit(0xf0)},

		{"ExtZero", func() (*clari.Expr, error) { return f.SignExt(x, 0) }, x},
		{"SignExtLiteral", func() (*clari.Expr, error) { return f.SignExt(f.Uint8Lit(0x80), 8) }, f.Uint16Lit(0xff80)},
		{"ZeroExtLiteral", func() (*clari.Expr, error) { return f.ZeroExt(f.Uint8Lit(0x80), 8) }, f.Uint16Lit(0x0080)},

		{"ExtractFull", func() (*clari.Expr, error) { return f.Extract(31, 0, x32) }, x32},
		{"ExtractLiteral", func() (*clari.Expr, error) { return f.Extract(15, 8, f.Uint16Lit(0xabcd)) }, f.Uint8Lit(0xab)},
		{"ExtractConcatLow", func() (*clari.Expr, error) { return f.Extract(7, 0, MustExpr(f.Concat(x, y))) }, y},
		{"ExtractConcatHigh", func() (*clari.Expr, error) { return f.Extract(15, 8, MustExpr(f.Concat(x, y))) }, x},
		{"ExtractNested", func() (*clari.Expr, error) {
			return f.Extract(3, 0, MustExpr(f.Extract(23, 8, x32)))
		}, MustExpr(f.Extract(11, 8, x32))},

		{"ConcatLiteral", func() (*clari.Expr, error) { return f.Concat(f.Uint8Lit(0xab), f.Uint8Lit(0xcd)) }, f.Uint16Lit(0xabcd)},
		{"ConcatExtract", func() (*clari.Expr, error) {
			return f.Concat(MustExpr(f.Extract(15, 8, x16)), MustExpr(f.Extract(7, 0, x16)))
		}, x16},
		{"ConcatString", func() (*clari.Expr, error) { return f.Concat(f.StringLit("ab"), f.StringLit("c")) }, f.StringLit("abc")},

		{"IfTrue", func() (*clari.Expr, error) { return f.If(f.True(), x, y) }, x},
		{"IfFalse", func() (*clari.Expr, error) { return f.If(f.False(), x, y) }, y},
		{"IfSameBranches", func() (*clari.Expr, error) { return f.If(p, x, x) }, x},
	} {
		t.Run(tt.name, func(t *testing.T) {
			e, err := tt.fn()
			if err != nil {
				t.Fatal(err)
			} else if e != tt.want {
				t.Fatalf("unexpected expression:\ngot:  %s\nwant: %s", e, tt.want)
			}
		})
	}

	// Operators without a registered rule come back unchanged.
	t.Run("NoRule", func(t *testing.T) {
		e := MustExpr(f.UDiv(f.Uint8Lit(4), f.Uint8Lit(2)))
		if e.Kind() != clari.UDIV {
			t.Fatalf("unexpected kind: %s", e.Kind())
		}
	})

	// Floating point literals are never folded.
	t.Run("FloatLiterals", func(t *testing.T) {
		e := MustExpr(f.FPAdd(clari.RoundNearestTiesEven, f.Float64Lit(1), f.Float64Lit(2)))
		if e.Kind() != clari.FADD {
			t.Fatalf("unexpected kind: %s", e.Kind())
		}
		if e := MustExpr(f.Eq(f.Float64Lit(0), f.Float64Lit(1))); e.Kind() != clari.EQ {
			t.Fatalf("unexpected kind: %s", e.Kind())
		}
	})

	// Rewrites apply once per node and do not search for contradictions.
	t.Run("OneShot", func(t *testing.T) {
		e := MustExpr(f.And(p, MustExpr(f.Not(p))))
		if e.Kind() != clari.AND {
			t.Fatalf("unexpected kind: %s", e.Kind())
		}
	})

	// The simplified node is installed under the hash of the raw node.
	t.Run("RawHash", func(t *testing.T) {
		n := MustExpr(f.Not(p))
		e := MustExpr(f.Not(n))
		if e != p {
			t.Fatalf("unexpected expression: %s", e)
		}
		if other := MustExpr(f.Not(n)); other != p {
			t.Fatalf("unexpected expression: %s", other)
		}
	})
}
