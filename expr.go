package clari

import (
	"github.com/benbjohnson/immutable"
	"github.com/pkg/errors"
)

// Annotation is opaque caller metadata attached to an expression. The core
// never inspects annotations and they are not part of the structural hash.
type Annotation interface{}

// Expr is an immutable, hash-consed symbolic expression. Expressions are
// only created by a Factory and may be shared freely between goroutines.
type Expr struct {
	hash     Hash
	sort     Sort
	size     uint
	symbolic bool
	op       Op

	annotations *immutable.List
}

// Hash returns the structural hash of the expression.
func (e *Expr) Hash() Hash { return e.hash }

// Sort returns the kind of value the expression evaluates to.
func (e *Expr) Sort() Sort { return e.sort }

// Size returns the bit length of the expression. Unsized sorts return zero.
func (e *Expr) Size() uint { return e.size }

// Symbolic returns true if a Symbol is reachable from the expression.
func (e *Expr) Symbolic() bool { return e.symbolic }

// Op returns the operator computing the expression.
func (e *Expr) Op() Op { return e.op }

// Kind returns the operator kind of the expression.
func (e *Expr) Kind() OpKind { return e.op.Kind() }

// Operands returns the expression's children. The slice must not be modified.
func (e *Expr) Operands() []*Expr { return e.op.Operands() }

// String returns an s-expression representation of the expression.
func (e *Expr) String() string { return e.op.String() }

// Annotations returns a copy of the annotations attached to the expression.
func (e *Expr) Annotations() []Annotation {
	if e.annotations == nil {
		return nil
	}
	a := make([]Annotation, 0, e.annotations.Len())
	itr := e.annotations.Iterator()
	for !itr.Done() {
		_, v := itr.Next()
		a = append(a, v)
	}
	return a
}

// HasAnnotations returns true if at least one annotation is attached.
func (e *Expr) HasAnnotations() bool {
	return e.annotations != nil && e.annotations.Len() > 0
}

// Literal returns the expression's literal payload, if it is a literal.
func (e *Expr) Literal() (*Literal, bool) {
	lit, ok := e.op.(*Literal)
	return lit, ok
}

// IsTrue returns true if e is the boolean literal true.
func (e *Expr) IsTrue() bool {
	if lit, ok := e.op.(*Literal); ok {
		v, ok := lit.Bool()
		return ok && v
	}
	return false
}

// IsFalse returns true if e is the boolean literal false.
func (e *Expr) IsFalse() bool {
	if lit, ok := e.op.(*Literal); ok {
		v, ok := lit.Bool()
		return ok && !v
	}
	return false
}

// Walk calls fn for every expression reachable from root, children before
// parents. Shared subexpressions are visited once. Walking stops at the
// first error returned by fn.
func Walk(root *Expr, fn func(*Expr) error) error {
	type frame struct {
		e        *Expr
		expanded bool
	}

	seen := make(map[*Expr]struct{})
	stack := []frame{{e: root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[f.e]; ok {
			continue
		}

		if f.expanded {
			seen[f.e] = struct{}{}
			if err := fn(f.e); err != nil {
				return err
			}
			continue
		}

		stack = append(stack, frame{e: f.e, expanded: true})
		operands := f.e.Operands()
		for i := len(operands) - 1; i >= 0; i-- {
			if _, ok := seen[operands[i]]; !ok {
				stack = append(stack, frame{e: operands[i]})
			}
		}
	}
	return nil
}

// CheckReplaceable returns nil if b may be substituted for a. The hash alone
// is not trusted: sort, size and operator kind must match too.
func CheckReplaceable(a, b *Expr) error {
	switch {
	case a == nil || b == nil:
		return errors.Wrap(ErrUsage, "replaceable: nil expression")
	case a.hash != b.hash:
		return errors.Wrapf(ErrUsage, "replaceable: hash mismatch: %x != %x", a.hash, b.hash)
	case a.sort != b.sort:
		return errors.Wrapf(ErrType, "replaceable: sort mismatch: %s != %s", a.sort, b.sort)
	case a.size != b.size:
		return errors.Wrapf(ErrUsage, "replaceable: size mismatch: %d != %d", a.size, b.size)
	case a.Kind() != b.Kind():
		return errors.Wrapf(ErrInternal, "replaceable: kind mismatch under equal hash: %s != %s", a.Kind(), b.Kind())
	}
	return nil
}
