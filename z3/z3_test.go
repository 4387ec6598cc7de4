package z3_test

import (
	"math"
	"math/big"
	"sort"
	"testing"

	"github.com/benbjohnson/clari"
	"github.com/benbjohnson/clari/z3"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
)

func TestBackend_RoundTrip(t *testing.T) {
	t.Run("Literal", func(t *testing.T) {
		f := clari.MustNewFactory()
		b := NewBackend(f)
		defer MustCloseBackend(b)

		bigint, err := f.BigIntLit(big.NewInt(4), 200)
		if err != nil {
			t.Fatal(err)
		}

		for _, tt := range []struct {
			name string
			e    *clari.Expr
		}{
			{"True", f.True()},
			{"False", f.False()},
			{"EmptyString", f.StringLit("")},
			{"String", f.StringLit("hello")},
			{"Float32/PositiveZero", f.Float32Lit(0)},
			{"Float32/NegativeZero", f.Float32Lit(float32(math.Copysign(0, -1)))},
			{"Float32/PositiveInf", f.Float32Lit(float32(math.Inf(1)))},
			{"Float32/NegativeInf", f.Float32Lit(float32(math.Inf(-1)))},
			{"Float32/DenormMin", f.Float32Lit(math.SmallestNonzeroFloat32)},
			{"Float32/Value", f.Float32Lit(1.5)},
			{"Float64/PositiveZero", f.Float64Lit(0)},
			{"Float64/NegativeZero", f.Float64Lit(math.Copysign(0, -1))},
			{"Float64/PositiveInf", f.Float64Lit(math.Inf(1))},
			{"Float64/NegativeInf", f.Float64Lit(math.Inf(-1))},
			{"Float64/DenormMin", f.Float64Lit(math.SmallestNonzeroFloat64)},
			{"Float64/Value", f.Float64Lit(-1234.5)},
			{"Uint8/Zero", f.Uint8Lit(0)},
			{"Uint8/One", f.Uint8Lit(1)},
			{"Uint8/Max", f.Uint8Lit(math.MaxUint8)},
			{"Uint16/Zero", f.Uint16Lit(0)},
			{"Uint16/One", f.Uint16Lit(1)},
			{"Uint16/Max", f.Uint16Lit(math.MaxUint16)},
			{"Uint32/Zero", f.Uint32Lit(0)},
			{"Uint32/One", f.Uint32Lit(1)},
			{"Uint32/Max", f.Uint32Lit(math.MaxUint32)},
			{"Uint64/Zero", f.Uint64Lit(0)},
			{"Uint64/One", f.Uint64Lit(1)},
			{"Uint64/Max", f.Uint64Lit(math.MaxUint64)},
			{"BigInt", bigint},
			{"BigInt/8", MustExpr(f.BigIntLit(big.NewInt(200), 8))},
			{"BigInt/16", MustExpr(f.BigIntLitString("65535", 16))},
			{"BigInt/32", MustExpr(f.BigIntLit(big.NewInt(1<<31), 32))},
			{"BigInt/64", MustExpr(f.BigIntLitString("18446744073709551615", 64))},
		} {
			t.Run(tt.name, func(t *testing.T) {
				if other := MustRoundTrip(t, b, tt.e); other != tt.e {
					t.Fatalf("unexpected expression: %s != %s", other, tt.e)
				}
			})
		}
	})

	t.Run("NaN", func(t *testing.T) {
		f := clari.MustNewFactory()
		b := NewBackend(f)
		defer MustCloseBackend(b)

		for _, tt := range []struct {
			name string
			e    *clari.Expr
			size uint
		}{
			{"Float32/Quiet", f.Float32Lit(math.Float32frombits(0x7fc00000)), 32},
			{"Float32/Signaling", f.Float32Lit(math.Float32frombits(0x7f800001)), 32},
			{"Float64/Quiet", f.Float64Lit(math.Float64frombits(0x7ff8000000000000)), 64},
			{"Float64/Signaling", f.Float64Lit(math.Float64frombits(0x7ff0000000000001)), 64},
		} {
			t.Run(tt.name, func(t *testing.T) {
				other := MustRoundTrip(t, b, tt.e)
				lit, ok := other.Literal()
				if !ok {
					t.Fatalf("expected literal, got %s", other)
				} else if other.Sort() != clari.SortFP || other.Size() != tt.size {
					t.Fatalf("unexpected sort: %s/%d", other.Sort(), other.Size())
				}

				switch v := lit.Value.(type) {
				case float32:
					if !math.IsNaN(float64(v)) {
						t.Fatalf("expected NaN, got %v", v)
					}
				case float64:
					if !math.IsNaN(v) {
						t.Fatalf("expected NaN, got %v", v)
					}
				default:
					t.Fatalf("unexpected value type: %T", v)
				}
			})
		}
	})

	t.Run("Op", func(t *testing.T) {
		f := clari.MustNewFactory()
		b := NewBackend(f)
		defer MustCloseBackend(b)

		x, y := MustBVSym(f, "x", 32), MustBVSym(f, "y", 32)
		p, q := MustBoolSym(f, "p"), MustBoolSym(f, "q")
		s, u := MustStringSym(f, "s"), MustStringSym(f, "u")
		fx, fy := MustFPSym(f, "fx", 64), MustFPSym(f, "fy", 64)

		for _, tt := range []struct {
			name string
			fn   func() (*clari.Expr, error)
		}{
			{"Add", func() (*clari.Expr, error) { return f.Add(x, y) }},
			{"Mul", func() (*clari.Expr, error) { return f.Mul(x, y) }},
			{"Xor", func() (*clari.Expr, error) { return f.Xor(x, y) }},
			{"BVAnd", func() (*clari.Expr, error) { return f.And(x, y) }},
			{"BVOr", func() (*clari.Expr, error) { return f.Or(x, y) }},
			{"Sub", func() (*clari.Expr, error) { return f.Sub(x, y) }},
			{"UDiv", func() (*clari.Expr, error) { return f.UDiv(x, y) }},
			{"SDiv", func() (*clari.Expr, error) { return f.SDiv(x, y) }},
			{"URem", func() (*clari.Expr, error) { return f.URem(x, y) }},
			{"SRem", func() (*clari.Expr, error) { return f.SRem(x, y) }},
			{"Shl", func() (*clari.Expr, error) { return f.Shl(x, y) }},
			{"LShr", func() (*clari.Expr, error) { return f.LShr(x, y) }},
			{"AShr", func() (*clari.Expr, error) { return f.AShr(x, y) }},
			{"RotateLeft", func() (*clari.Expr, error) { return f.RotateLeft(x, y) }},
			{"RotateRight", func() (*clari.Expr, error) { return f.RotateRight(x, y) }},
			{"Eq", func() (*clari.Expr, error) { return f.Eq(x, y) }},
			{"Neq", func() (*clari.Expr, error) { return f.Neq(x, y) }},
			{"ULT", func() (*clari.Expr, error) { return f.ULT(x, y) }},
			{"ULE", func() (*clari.Expr, error) { return f.ULE(x, y) }},
			{"UGT", func() (*clari.Expr, error) { return f.UGT(x, y) }},
			{"UGE", func() (*clari.Expr, error) { return f.UGE(x, y) }},
			{"SLT", func() (*clari.Expr, error) { return f.SLT(x, y) }},
			{"SLE", func() (*clari.Expr, error) { return f.SLE(x, y) }},
			{"SGT", func() (*clari.Expr, error) { return f.SGT(x, y) }},
			{"SGE", func() (*clari.Expr, error) { return f.SGE(x, y) }},
			{"Neg", func() (*clari.Expr, error) { return f.Neg(x) }},
			{"Invert", func() (*clari.Expr, error) { return f.Invert(x) }},
			{"Concat", func() (*clari.Expr, error) { return f.Concat(x, y) }},
			{"Extract", func() (*clari.Expr, error) { return f.Extract(15, 8, x) }},
			{"SignExt", func() (*clari.Expr, error) { return f.SignExt(x, 16) }},
			{"ZeroExt", func() (*clari.Expr, error) { return f.ZeroExt(x, 16) }},
			{"Not", func() (*clari.Expr, error) { return f.Not(p) }},
			{"And", func() (*clari.Expr, error) { return f.And(p, q) }},
			{"Or", func() (*clari.Expr, error) { return f.Or(p, q) }},
			{"If", func() (*clari.Expr, error) { return f.If(p, x, y) }},
			{"StringConcat", func() (*clari.Expr, error) { return f.Concat(s, u) }},
			{"Contains", func() (*clari.Expr, error) { return f.Contains(s, u) }},
			{"PrefixOf", func() (*clari.Expr, error) { return f.PrefixOf(s, u) }},
			{"SuffixOf", func() (*clari.Expr, error) { return f.SuffixOf(s, u) }},
			{"StrLen", func() (*clari.Expr, error) { return f.StrLen(s, 32) }},
			{"StrToInt", func() (*clari.Expr, error) { return f.StrToInt(s, 64) }},
			{"FPNeg", func() (*clari.Expr, error) { return f.Neg(fx) }},
			{"FPAbs", func() (*clari.Expr, error) { return f.Abs(fx) }},
			{"FPLess", func() (*clari.Expr, error) { return f.SLT(fx, fy) }},
			{"FPToIEEEBV", func() (*clari.Expr, error) { return f.FPToIEEEBV(fx) }},
			{"FPAdd", func() (*clari.Expr, error) { return f.FPAdd(clari.RoundNearestTiesEven, fx, fy) }},
			{"FPSub", func() (*clari.Expr, error) { return f.FPSub(clari.RoundTowardZero, fx, fy) }},
			{"FPMul", func() (*clari.Expr, error) { return f.FPMul(clari.RoundTowardPositive, fx, fy) }},
			{"FPDiv", func() (*clari.Expr, error) { return f.FPDiv(clari.RoundTowardNegative, fx, fy) }},
			{"FPToSBV", func() (*clari.Expr, error) { return f.FPToSBV(clari.RoundTowardZero, fx, 32) }},
			{"FPToUBV", func() (*clari.Expr, error) { return f.FPToUBV(clari.RoundNearestTiesAway, fx, 16) }},
			{"FPToFP", func() (*clari.Expr, error) { return f.FPToFP(clari.RoundNearestTiesEven, fx, 32) }},
			{"SBVToFP", func() (*clari.Expr, error) { return f.SBVToFP(clari.RoundTowardPositive, x, 64) }},
			{"UBVToFP", func() (*clari.Expr, error) { return f.UBVToFP(clari.RoundTowardNegative, x, 32) }},
			{"FPFromIEEEBV", func() (*clari.Expr, error) { return f.FPFromIEEEBV(x) }},
			{"IntToStr", func() (*clari.Expr, error) { return f.IntToStr(x) }},
			{"StrReplace", func() (*clari.Expr, error) { return f.StrReplace(s, u, s) }},
			{"SubString", func() (*clari.Expr, error) { return f.SubString(s, x, y) }},
			{"IndexOf", func() (*clari.Expr, error) { return f.IndexOf(s, u, x, 32) }},
		} {
			t.Run(tt.name, func(t *testing.T) {
				e, err := tt.fn()
				if err != nil {
					t.Fatal(err)
				}
				if other := MustRoundTrip(t, b, e); other != e {
					t.Fatalf("unexpected expression:\ngot:  %s\nwant: %s", other, e)
				}
			})
		}
	})

	// Bit-vector Abs has no Z3 primitive and comes back expanded.
	t.Run("BVAbs", func(t *testing.T) {
		f := clari.MustNewFactory()
		b := NewBackend(f)
		defer MustCloseBackend(b)

		e, err := f.Abs(MustBVSym(f, "x", 32))
		if err != nil {
			t.Fatal(err)
		}
		if other := MustRoundTrip(t, b, e); other.Kind() != clari.ITE {
			t.Fatalf("unexpected kind: %s", other.Kind())
		} else if other.Size() != e.Size() {
			t.Fatalf("unexpected size: %d", other.Size())
		}
	})
}

func TestBackend_Translocation(t *testing.T) {
	f := clari.MustNewFactory()
	b := NewBackend(f)
	defer MustCloseBackend(b)

	x := MustBVSym(f, "x", 32)
	annotated := f.Annotate(x, "origin", 42)

	// Annotations are reattached to the abstracted symbol.
	a, err := b.Convert(annotated)
	if err != nil {
		t.Fatal(err)
	}
	other, err := b.Abstract(a)
	if err != nil {
		t.Fatal(err)
	} else if other.Hash() != x.Hash() {
		t.Fatalf("unexpected hash: %x", other.Hash())
	} else if diff := cmp.Diff(other.Annotations(), []clari.Annotation{"origin", 42}); diff != "" {
		t.Fatal(diff)
	}

	// Converting the plain symbol clears the stored entry.
	if _, err := b.Convert(x); err != nil {
		t.Fatal(err)
	}
	if other, err := b.Abstract(a); err != nil {
		t.Fatal(err)
	} else if other.HasAnnotations() {
		t.Fatalf("unexpected annotations: %v", other.Annotations())
	} else if other != x {
		t.Fatal("expected canonical symbol")
	}

	t.Run("ClearTranslocation", func(t *testing.T) {
		if _, err := b.Convert(annotated); err != nil {
			t.Fatal(err)
		}
		b.ClearTranslocation()
		if other, err := b.Abstract(a); err != nil {
			t.Fatal(err)
		} else if other.HasAnnotations() {
			t.Fatalf("unexpected annotations: %v", other.Annotations())
		}
	})
}

func TestBackend_Convert(t *testing.T) {
	t.Run("ErrUnsupported", func(t *testing.T) {
		f := clari.MustNewFactory()
		b := NewBackend(f)
		defer MustCloseBackend(b)

		vs, err := f.VSLit(clari.ValueSet{ID: 1, Bits: 32})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := b.Convert(vs); !errors.Is(err, clari.ErrUnsupported) {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	// A literal whose value disagrees with its tag is a defect in the core.
	t.Run("ErrBadVariant", func(t *testing.T) {
		f := clari.MustNewFactory()
		b := NewBackend(f)
		defer MustCloseBackend(b)

		e := f.Uint8Lit(7)
		lit, _ := e.Literal()
		lit.Value = "oops"

		_, err := b.Convert(e)
		if !errors.Is(err, clari.ErrBadVariant) {
			t.Fatalf("unexpected error: %v", err)
		} else if !clari.IsInternal(err) {
			t.Fatalf("expected internal error: %v", err)
		}
	})

	t.Run("Shared", func(t *testing.T) {
		f := clari.MustNewFactory()
		b := NewBackend(f)
		defer MustCloseBackend(b)

		x := MustBVSym(f, "x", 8)
		sum, err := f.Add(x, f.Uint8Lit(1))
		if err != nil {
			t.Fatal(err)
		}
		e, err := f.Mul(sum, sum, x)
		if err != nil {
			t.Fatal(err)
		}

		a0, err := b.Convert(sum)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := b.Convert(e); err != nil {
			t.Fatal(err)
		}
		a1, err := b.Convert(sum)
		if err != nil {
			t.Fatal(err)
		} else if a0.String() != a1.String() {
			t.Fatalf("unexpected term: %s != %s", a0, a1)
		}

		b.ClearCaches()
		if a2, err := b.Convert(sum); err != nil {
			t.Fatal(err)
		} else if a2.String() != a0.String() {
			t.Fatalf("unexpected term after clear: %s", a2)
		}
	})

	t.Run("ErrUsage", func(t *testing.T) {
		f := clari.MustNewFactory()
		b0, b1 := NewBackend(f), NewBackend(f)
		defer MustCloseBackend(b0)
		defer MustCloseBackend(b1)

		a, err := b0.Convert(f.True())
		if err != nil {
			t.Fatal(err)
		}
		if _, err := b1.Abstract(a); !errors.Is(err, clari.ErrUsage) {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestBackend_Satisfiable(t *testing.T) {
	t.Run("Constant", func(t *testing.T) {
		f := clari.MustNewFactory()
		b := NewBackend(f)
		defer MustCloseBackend(b)

		if ok, err := b.Satisfiable(f.True()); err != nil {
			t.Fatal(err)
		} else if !ok {
			t.Fatal("expected satisfiable")
		}
		if ok, err := b.Satisfiable(f.False()); err != nil {
			t.Fatal(err)
		} else if ok {
			t.Fatal("expected unsatisfiable")
		}
	})

	// And(Or(x, true), Not(Or(x, false))) simplifies while it is built.
	t.Run("Simplified", func(t *testing.T) {
		f := clari.MustNewFactory()
		b := NewBackend(f)
		defer MustCloseBackend(b)

		x := MustBoolSym(f, "x")
		or0, err := f.Or(x, f.True())
		if err != nil {
			t.Fatal(err)
		}
		or1, err := f.Or(x, f.False())
		if err != nil {
			t.Fatal(err)
		}
		not, err := f.Not(or1)
		if err != nil {
			t.Fatal(err)
		}
		e, err := f.And(or0, not)
		if err != nil {
			t.Fatal(err)
		}

		if want, err := f.Not(x); err != nil {
			t.Fatal(err)
		} else if e != want {
			t.Fatalf("unexpected expression: %s", e)
		}

		if ok, err := b.Satisfiable(e); err != nil {
			t.Fatal(err)
		} else if !ok {
			t.Fatal("expected satisfiable")
		}

		contradiction, err := f.And(e, x)
		if err != nil {
			t.Fatal(err)
		}
		if ok, err := b.Satisfiable(contradiction); err != nil {
			t.Fatal(err)
		} else if ok {
			t.Fatal("expected unsatisfiable")
		}
	})

	t.Run("ErrType", func(t *testing.T) {
		f := clari.MustNewFactory()
		b := NewBackend(f)
		defer MustCloseBackend(b)

		if _, err := b.Satisfiable(f.Uint8Lit(1)); !errors.Is(err, clari.ErrType) {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestBackend_Eval(t *testing.T) {
	t.Run("Distinct", func(t *testing.T) {
		f := clari.MustNewFactory()
		b := NewBackend(f)
		defer MustCloseBackend(b)

		x := MustBVSym(f, "x", 8)
		lt, err := f.ULT(x, f.Uint8Lit(3))
		if err != nil {
			t.Fatal(err)
		}

		values, err := b.Eval(x, 5, lt)
		if err != nil {
			t.Fatal(err)
		}

		var got []uint64
		for _, v := range values {
			lit, ok := v.Literal()
			if !ok {
				t.Fatalf("expected literal, got %s", v)
			}
			n, _ := lit.Uint64()
			got = append(got, n)
		}
		sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
		if diff := cmp.Diff(got, []uint64{0, 1, 2}); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("Rounding", func(t *testing.T) {
		f := clari.MustNewFactory()
		b := NewBackend(f)
		defer MustCloseBackend(b)

		// 1 + 2^-24 lies halfway between 1 and the next float32.
		one, half := f.Float32Lit(1), f.Float32Lit(float32(math.Ldexp(1, -24)))
		for _, tt := range []struct {
			mode clari.Rounding
			want float32
		}{
			{clari.RoundNearestTiesEven, 1},
			{clari.RoundTowardZero, 1},
			{clari.RoundTowardNegative, 1},
			{clari.RoundTowardPositive, math.Nextafter32(1, 2)},
			{clari.RoundNearestTiesAway, math.Nextafter32(1, 2)},
		} {
			t.Run(tt.mode.String(), func(t *testing.T) {
				e, err := f.FPAdd(tt.mode, one, half)
				if err != nil {
					t.Fatal(err)
				}
				values, err := b.Eval(e, 1)
				if err != nil {
					t.Fatal(err)
				} else if len(values) != 1 {
					t.Fatalf("unexpected value count: %d", len(values))
				} else if values[0] != f.Float32Lit(tt.want) {
					t.Fatalf("unexpected value: %s", values[0])
				} else if b.Context().RoundingMode() != tt.mode {
					t.Fatalf("unexpected context rounding mode: %s", b.Context().RoundingMode())
				}
			})
		}
	})

	t.Run("ErrUsage", func(t *testing.T) {
		f := clari.MustNewFactory()
		b := NewBackend(f)
		defer MustCloseBackend(b)

		if _, err := b.Eval(f.True(), 0); !errors.Is(err, clari.ErrUsage) {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestBackend_MinMax(t *testing.T) {
	f := clari.MustNewFactory()
	b := NewBackend(f)
	defer MustCloseBackend(b)

	x := MustBVSym(f, "x", 8)
	gt, err := f.UGT(x, f.Uint8Lit(10))
	if err != nil {
		t.Fatal(err)
	}
	lt, err := f.ULT(x, f.Uint8Lit(20))
	if err != nil {
		t.Fatal(err)
	}

	if v, ok, err := b.Min(x, gt, lt); err != nil {
		t.Fatal(err)
	} else if !ok {
		t.Fatal("expected satisfiable")
	} else if v != 11 {
		t.Fatalf("unexpected min: %d", v)
	}

	if v, ok, err := b.Max(x, gt, lt); err != nil {
		t.Fatal(err)
	} else if !ok {
		t.Fatal("expected satisfiable")
	} else if v != 19 {
		t.Fatalf("unexpected max: %d", v)
	}

	t.Run("Unconstrained", func(t *testing.T) {
		if v, _, err := b.Max(x); err != nil {
			t.Fatal(err)
		} else if v != math.MaxUint8 {
			t.Fatalf("unexpected max: %d", v)
		}
		if v, _, err := b.Min(x); err != nil {
			t.Fatal(err)
		} else if v != 0 {
			t.Fatalf("unexpected min: %d", v)
		}
	})

	t.Run("Unsatisfiable", func(t *testing.T) {
		if _, ok, err := b.Min(x, f.False()); err != nil {
			t.Fatal(err)
		} else if ok {
			t.Fatal("expected unsatisfiable")
		}
	})

	t.Run("ErrType", func(t *testing.T) {
		if _, _, err := b.Max(f.True()); !errors.Is(err, clari.ErrType) {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

// NewBackend returns a backend with default settings.
func NewBackend(f *clari.Factory) *z3.Backend {
	return z3.NewBackend(f, z3.Config{})
}

// MustCloseBackend closes b. Panic on error.
func MustCloseBackend(b *z3.Backend) {
	if err := b.Close(); err != nil {
		panic(err)
	}
}

// MustRoundTrip converts e and abstracts the result.
func MustRoundTrip(tb testing.TB, b *z3.Backend, e *clari.Expr) *clari.Expr {
	tb.Helper()
	a, err := b.Convert(e)
	if err != nil {
		tb.Fatal(err)
	}
	other, err := b.Abstract(a)
	if err != nil {
		tb.Fatalf("abstract %s: %v", a, err)
	}
	return other
}

func MustExpr(e *clari.Expr, err error) *clari.Expr {
	if err != nil {
		panic(err)
	}
	return e
}

func MustBVSym(f *clari.Factory, name string, size uint) *clari.Expr {
	e, err := f.BVSym(name, size)
	if err != nil {
		panic(err)
	}
	return e
}

func MustFPSym(f *clari.Factory, name string, size uint) *clari.Expr {
	e, err := f.FPSym(name, size)
	if err != nil {
		panic(err)
	}
	return e
}

func MustBoolSym(f *clari.Factory, name string) *clari.Expr {
	e, err := f.BoolSym(name)
	if err != nil {
		panic(err)
	}
	return e
}

func MustStringSym(f *clari.Factory, name string) *clari.Expr {
	e, err := f.StringSym(name)
	if err != nil {
		panic(err)
	}
	return e
}
