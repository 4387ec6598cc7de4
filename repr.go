package clari

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Repr writes a JSON-like rendering of e to w. Leaves render as
// {"name":<op>, "value":<value>}; operators list their operands depth-first
// under "args". When verbose is set, bookkeeping fields are included too.
func (e *Expr) Repr(w io.Writer, verbose bool) error {
	bw := bufio.NewWriter(w)
	writeRepr(bw, e, verbose)
	return bw.Flush()
}

// ReprString returns the Repr of e as a string.
func (e *Expr) ReprString(verbose bool) string {
	var sb strings.Builder
	_ = e.Repr(&sb, verbose)
	return sb.String()
}

func writeRepr(w *bufio.Writer, e *Expr, verbose bool) {
	fmt.Fprintf(w, `{"name":%q`, e.Kind().String())
	if verbose {
		fmt.Fprintf(w, `, "sort":%q, "hash":%d, "symbolic":%t`, e.sort, uint64(e.hash), e.symbolic)
		if e.sort.Sized() {
			fmt.Fprintf(w, `, "size":%d`, e.size)
		}
		if e.annotations != nil {
			fmt.Fprintf(w, `, "annotations":%d`, e.annotations.Len())
		}
	}

	switch op := e.op.(type) {
	case *Literal:
		if v, ok := op.Value.(string); ok {
			fmt.Fprintf(w, `, "value":%s`, jsonString(v))
		} else {
			fmt.Fprintf(w, `, "value":%s`, op)
		}
		if v, ok := op.Value.(BigInt); ok {
			fmt.Fprintf(w, `, "bit_length":%d`, v.Bits)
		}
	case *Symbol:
		fmt.Fprintf(w, `, "value":%s`, jsonString(op.Name))
	case *UIntBinary:
		fmt.Fprintf(w, `, "integer":%d`, op.N)
	case *Extract:
		fmt.Fprintf(w, `, "high":%d, "low":%d`, op.High, op.Low)
	case *FPBinary:
		fmt.Fprintf(w, `, "mode":%q`, op.Mode.String())
	case *FPConvert:
		fmt.Fprintf(w, `, "mode":%q, "integer":%d`, op.Mode.String(), op.N)
	case *IndexOf:
		fmt.Fprintf(w, `, "integer":%d`, op.N)
	}

	if operands := e.Operands(); len(operands) > 0 {
		w.WriteString(`, "args":[`)
		for i, operand := range operands {
			if i > 0 {
				w.WriteString(", ")
			}
			writeRepr(w, operand, verbose)
		}
		w.WriteString("]")
	}
	w.WriteString("}")
}

// jsonString returns s as a JSON string literal.
func jsonString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		panic(err)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
