package clari

import (
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/pkg/errors"
)

// LiteralTag declares which Go type a Literal holds.
type LiteralTag int

// Literal variants.
const (
	LitBool LiteralTag = iota + 1
	LitString
	LitFloat32
	LitFloat64
	LitVS
	LitUint8
	LitUint16
	LitUint32
	LitUint64
	LitBigInt
)

var literalTagNames = [...]string{
	LitBool:    "bool",
	LitString:  "string",
	LitFloat32: "float32",
	LitFloat64: "float64",
	LitVS:      "vs",
	LitUint8:   "uint8",
	LitUint16:  "uint16",
	LitUint32:  "uint32",
	LitUint64:  "uint64",
	LitBigInt:  "bigint",
}

// String returns the name of the variant.
func (t LiteralTag) String() string {
	if t > 0 && int(t) < len(literalTagNames) {
		return literalTagNames[t]
	}
	return fmt.Sprintf("LiteralTag<%d>", t)
}

// BigInt is an arbitrary precision unsigned integer with an explicit bit
// length. Exactly one of Str and Int is set, depending on how the value was
// supplied.
type BigInt struct {
	Str  string
	Int  *big.Int
	Bits uint
}

// Value returns the integer as a *big.Int.
func (b BigInt) Value() *big.Int {
	if b.Int != nil {
		return new(big.Int).Set(b.Int)
	}
	v, ok := new(big.Int).SetString(b.Str, 10)
	assert(ok, "invalid BigInt string %q", b.Str)
	return v
}

// String returns the decimal representation of the integer.
func (b BigInt) String() string {
	if b.Int != nil {
		return b.Int.String()
	}
	return b.Value().String()
}

// ValueSet is an opaque abstract-domain value.
type ValueSet struct {
	ID   uint64
	Bits uint
}

// Literal is a constant leaf value. Tag declares the Go type held in Value:
// bool, string, float32, float64, ValueSet, uint8, uint16, uint32, uint64 or
// BigInt.
type Literal struct {
	Tag   LiteralTag
	Value any
}

func (op *Literal) Kind() OpKind      { return LITERAL }
func (op *Literal) Operands() []*Expr { return nil }

// String returns the literal rendered as a Go-like constant.
func (op *Literal) String() string {
	s, err := op.render()
	if err != nil {
		return fmt.Sprintf("<%s>", err)
	}
	return s
}

// Validate returns ErrBadVariant if Value's type disagrees with Tag.
func (op *Literal) Validate() error {
	var ok bool
	switch op.Tag {
	case LitBool:
		_, ok = op.Value.(bool)
	case LitString:
		_, ok = op.Value.(string)
	case LitFloat32:
		_, ok = op.Value.(float32)
	case LitFloat64:
		_, ok = op.Value.(float64)
	case LitVS:
		_, ok = op.Value.(ValueSet)
	case LitUint8:
		_, ok = op.Value.(uint8)
	case LitUint16:
		_, ok = op.Value.(uint16)
	case LitUint32:
		_, ok = op.Value.(uint32)
	case LitUint64:
		_, ok = op.Value.(uint64)
	case LitBigInt:
		_, ok = op.Value.(BigInt)
	}
	if !ok {
		return errors.Wrapf(ErrBadVariant, "literal tag %s holds %T", op.Tag, op.Value)
	}
	return nil
}

// BitLength returns the bit length of the stored value. Booleans have no bit
// length and return ErrUsage.
func (op *Literal) BitLength() (uint, error) {
	if err := op.Validate(); err != nil {
		return 0, err
	}
	switch v := op.Value.(type) {
	case string:
		return 8 * uint(len(v)), nil
	case float32:
		return Width32, nil
	case float64:
		return Width64, nil
	case ValueSet:
		return v.Bits, nil
	case uint8:
		return Width8, nil
	case uint16:
		return Width16, nil
	case uint32:
		return Width32, nil
	case uint64:
		return Width64, nil
	case BigInt:
		return v.Bits, nil
	default:
		return 0, errors.Wrapf(ErrUsage, "%s literal has no bit length", op.Tag)
	}
}

// Uint64 returns the value of a fixed width unsigned literal.
func (op *Literal) Uint64() (uint64, bool) {
	switch v := op.Value.(type) {
	case uint8:
		return uint64(v), true
	case uint16:
		return uint64(v), true
	case uint32:
		return uint64(v), true
	case uint64:
		return v, true
	}
	return 0, false
}

// Bool returns the value of a boolean literal.
func (op *Literal) Bool() (value, ok bool) {
	value, ok = op.Value.(bool)
	return value, ok
}

func (op *Literal) render() (string, error) {
	if err := op.Validate(); err != nil {
		return "", err
	}
	switch v := op.Value.(type) {
	case bool:
		return strconv.FormatBool(v), nil
	case string:
		return strconv.Quote(v), nil
	case float32:
		if v != v {
			return fmt.Sprintf(`"NaN(0x%08x)"`, math.Float32bits(v)), nil
		}
		return formatFloat(float64(v), 32), nil
	case float64:
		return formatFloat(v, 64), nil
	case ValueSet:
		return fmt.Sprintf(`"VS<%d, %d>"`, v.ID, v.Bits), nil
	case uint8, uint16, uint32, uint64:
		n, _ := op.Uint64()
		return strconv.FormatUint(n, 10), nil
	case BigInt:
		return v.String(), nil
	}
	panic("unreachable")
}

// formatFloat renders f so that NaN payloads and infinities stay visible.
func formatFloat(f float64, bitSize int) string {
	switch {
	case math.IsNaN(f):
		return fmt.Sprintf(`"NaN(0x%016x)"`, math.Float64bits(f))
	case math.IsInf(f, 1):
		return `"+Inf"`
	case math.IsInf(f, -1):
		return `"-Inf"`
	}
	return strconv.FormatFloat(f, 'g', -1, bitSize)
}
