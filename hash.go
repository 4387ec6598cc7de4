package clari

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// Hash is the structural hash of an expression. Within a Factory it is the
// identity key of a node.
type Hash uint64

// hasher accumulates hash inputs into an xxhash digest.
type hasher struct {
	d   *xxhash.Digest
	buf [8]byte
}

func (h *hasher) uint64(v uint64) {
	binary.LittleEndian.PutUint64(h.buf[:], v)
	h.d.Write(h.buf[:])
}

func (h *hasher) string(s string) {
	h.uint64(uint64(len(s)))
	h.d.WriteString(s)
}

func (h *hasher) expr(e *Expr) {
	h.uint64(uint64(e.hash))
}

// hashOp returns the structural hash of an expression of the given sort and
// size whose payload is op. The inputs per shape are:
//
//	all        op kind, sort, size
//	Literal    tag, value bits (floats by IEEE bits, BigInt by decimal value)
//	Symbol     name
//	Unary      operand
//	Binary     both operands
//	Flat       arity, every operand
//	UIntBinary operand, integer
//	Extract    high, low, operand
//	If         condition, both branches
//	FPBinary   rounding, both operands
//	FPConvert  rounding, operand, integer
//	Ternary    three operands
//	IndexOf    three operands, integer
func hashOp(sort Sort, size uint, op Op) Hash {
	h := hasher{d: xxhash.New()}
	h.uint64(uint64(op.Kind()))
	h.uint64(uint64(sort))
	h.uint64(uint64(size))

	switch op := op.(type) {
	case *Literal:
		h.uint64(uint64(op.Tag))
		hashLiteralValue(&h, op.Value)
	case *Symbol:
		h.string(op.Name)
	case *Unary:
		h.expr(op.X)
	case *Binary:
		h.expr(op.LHS)
		h.expr(op.RHS)
	case *Flat:
		h.uint64(uint64(len(op.Args)))
		for _, arg := range op.Args {
			h.expr(arg)
		}
	case *UIntBinary:
		h.expr(op.X)
		h.uint64(uint64(op.N))
	case *Extract:
		h.uint64(uint64(op.High))
		h.uint64(uint64(op.Low))
		h.expr(op.X)
	case *If:
		h.expr(op.Cond)
		h.expr(op.Then)
		h.expr(op.Else)
	case *FPBinary:
		h.uint64(uint64(op.Mode))
		h.expr(op.LHS)
		h.expr(op.RHS)
	case *FPConvert:
		h.uint64(uint64(op.Mode))
		h.expr(op.X)
		h.uint64(uint64(op.N))
	case *Ternary:
		h.expr(op.A)
		h.expr(op.B)
		h.expr(op.C)
	case *IndexOf:
		h.expr(op.S)
		h.expr(op.Pattern)
		h.expr(op.Start)
		h.uint64(uint64(op.N))
	default:
		panic("unreachable")
	}
	return Hash(h.d.Sum64())
}

func hashLiteralValue(h *hasher, value any) {
	switch v := value.(type) {
	case bool:
		if v {
			h.uint64(1)
		} else {
			h.uint64(0)
		}
	case string:
		h.string(v)
	case float32:
		h.uint64(uint64(math.Float32bits(v)))
	case float64:
		h.uint64(math.Float64bits(v))
	case ValueSet:
		h.uint64(v.ID)
		h.uint64(uint64(v.Bits))
	case uint8:
		h.uint64(uint64(v))
	case uint16:
		h.uint64(uint64(v))
	case uint32:
		h.uint64(uint64(v))
	case uint64:
		h.uint64(v)
	case BigInt:
		h.string(v.String())
	default:
		panic("unreachable")
	}
}
