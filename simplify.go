package clari

// simplifier rewrites a freshly built expression into an equivalent one.
// Rewrites only build nodes through the Factory.
type simplifier func(f *Factory, e *Expr) (*Expr, error)

func newSimplifierTable() map[OpKind]simplifier {
	return map[OpKind]simplifier{
		NOT:     simplifyNot,
		NEG:     simplifyNeg,
		INVERT:  simplifyInvert,
		EQ:      simplifyEq,
		NE:      simplifyNe,
		SUB:     simplifySub,
		CONCAT:  simplifyConcat,
		ADD:     simplifyFlat,
		MUL:     simplifyFlat,
		AND:     simplifyFlat,
		OR:      simplifyFlat,
		XOR:     simplifyFlat,
		SEXT:    simplifyExt,
		ZEXT:    simplifyExt,
		EXTRACT: simplifyExtract,
		ITE:     simplifyIf,
	}
}

// simplify applies the rewrite registered for e's operator once. It does not
// iterate to a fixed point and does not revisit operands.
func (f *Factory) simplify(e *Expr) (*Expr, error) {
	fn, ok := f.simplifiers[e.Kind()]
	if !ok {
		f.logger.Debug("no simplifier registered", "op", e.Kind())
		return e, nil
	}
	return fn(f, e)
}

// bvValue returns the value of a bit-vector literal no wider than 64 bits.
func bvValue(e *Expr) (uint64, bool) {
	lit, ok := e.Literal()
	if !ok || e.sort != SortBV {
		return 0, false
	}
	if v, ok := lit.Uint64(); ok {
		return v, true
	}
	if v, ok := lit.Value.(BigInt); ok && v.Bits <= Width64 {
		return v.Value().Uint64(), true
	}
	return 0, false
}

func bitmask(width uint) uint64 {
	if width >= Width64 {
		return ^uint64(0)
	}
	return (1 << width) - 1
}

func simplifyNot(f *Factory, e *Expr) (*Expr, error) {
	x := e.op.(*Unary).X
	if v, ok := boolValue(x); ok {
		return f.BoolLit(!v), nil
	}
	if inner, ok := x.op.(*Unary); ok && inner.kind == NOT {
		return inner.X, nil
	}
	return e, nil
}

func simplifyNeg(f *Factory, e *Expr) (*Expr, error) {
	x := e.op.(*Unary).X
	if v, ok := bvValue(x); ok {
		return f.BVLit(-v&bitmask(e.size), e.size)
	}
	if inner, ok := x.op.(*Unary); ok && inner.kind == NEG && x.sort == SortBV {
		return inner.X, nil
	}
	return e, nil
}

func simplifyInvert(f *Factory, e *Expr) (*Expr, error) {
	x := e.op.(*Unary).X
	if v, ok := bvValue(x); ok {
		return f.BVLit(^v&bitmask(e.size), e.size)
	}
	if inner, ok := x.op.(*Unary); ok && inner.kind == INVERT {
		return inner.X, nil
	}
	return e, nil
}

func boolValue(e *Expr) (bool, bool) {
	if lit, ok := e.Literal(); ok {
		return lit.Bool()
	}
	return false, false
}

// literalsEqual compares two non-floating point literals. Floats are skipped
// because IEEE equality and bit equality disagree on zeros and NaN.
func literalsEqual(lhs, rhs *Expr) (equal, ok bool) {
	l, lok := lhs.Literal()
	r, rok := rhs.Literal()
	if !lok || !rok || lhs.sort == SortFP || lhs.sort == SortVS {
		return false, false
	}
	if lv, ok := bvValue(lhs); ok {
		if rv, ok := bvValue(rhs); ok {
			return lv == rv, true
		}
		return false, false
	}
	switch lv := l.Value.(type) {
	case bool:
		rv, ok := r.Value.(bool)
		return lv == rv, ok
	case string:
		rv, ok := r.Value.(string)
		return lv == rv, ok
	}
	return false, false
}

func simplifyEq(f *Factory, e *Expr) (*Expr, error) {
	op := e.op.(*Binary)
	if op.LHS.hash == op.RHS.hash {
		return f.True(), nil
	} else if equal, ok := literalsEqual(op.LHS, op.RHS); ok {
		return f.BoolLit(equal), nil
	}
	return e, nil
}

func simplifyNe(f *Factory, e *Expr) (*Expr, error) {
	op := e.op.(*Binary)
	if op.LHS.hash == op.RHS.hash {
		return f.False(), nil
	} else if equal, ok := literalsEqual(op.LHS, op.RHS); ok {
		return f.BoolLit(!equal), nil
	}
	return e, nil
}

func simplifySub(f *Factory, e *Expr) (*Expr, error) {
	op := e.op.(*Binary)
	if op.LHS.hash == op.RHS.hash {
		return f.BVLit(0, e.size)
	}
	lv, lok := bvValue(op.LHS)
	rv, rok := bvValue(op.RHS)
	switch {
	case lok && rok:
		return f.BVLit((lv-rv)&bitmask(e.size), e.size)
	case rok && rv == 0:
		return op.LHS, nil
	}
	return e, nil
}

func simplifyConcat(f *Factory, e *Expr) (*Expr, error) {
	op := e.op.(*Binary)
	if e.sort == SortString {
		l, lok := op.LHS.Literal()
		r, rok := op.RHS.Literal()
		if lok && rok {
			return f.StringLit(l.Value.(string) + r.Value.(string)), nil
		}
		return e, nil
	}

	// Combine literals if the result still fits in 64 bits.
	if msb, ok := bvValue(op.LHS); ok && e.size <= Width64 {
		if lsb, ok := bvValue(op.RHS); ok {
			return f.BVLit(msb<<op.RHS.size|lsb, e.size)
		}
	}

	// Combine extractions if they are contiguous.
	if msb, ok := op.LHS.op.(*Extract); ok {
		if lsb, ok := op.RHS.op.(*Extract); ok {
			if msb.X == lsb.X && lsb.High+1 == msb.Low {
				return f.Extract(msb.High, lsb.Low, msb.X)
			}
		}
	}
	return e, nil
}

// flatIdentity returns the identity element of kind at the given width.
func flatIdentity(kind OpKind, width uint) uint64 {
	switch kind {
	case MUL:
		return 1
	case AND:
		return bitmask(width)
	}
	return 0
}

func foldFlat(kind OpKind, a, b, mask uint64) uint64 {
	switch kind {
	case ADD:
		return (a + b) & mask
	case MUL:
		return (a * b) & mask
	case AND:
		return a & b
	case OR:
		return a | b
	case XOR:
		return a ^ b
	}
	panic("unreachable")
}

// simplifyFlat flattens nested operands of the same kind, folds literal
// operands into one and drops identity elements.
func simplifyFlat(f *Factory, e *Expr) (*Expr, error) {
	op := e.op.(*Flat)
	if e.sort == SortBool {
		return simplifyFlatBool(f, e, op)
	}

	changed := false
	var args []*Expr
	for _, arg := range op.Args {
		if child, ok := arg.op.(*Flat); ok && child.kind == op.kind && !arg.HasAnnotations() {
			args, changed = append(args, child.Args...), true
		} else {
			args = append(args, arg)
		}
	}

	mask := bitmask(e.size)
	acc, n := flatIdentity(op.kind, e.size), 0
	var rest []*Expr
	for _, arg := range args {
		if v, ok := bvValue(arg); ok {
			acc, n = foldFlat(op.kind, acc, v, mask), n+1
			continue
		}
		rest = append(rest, arg)
	}
	if n > 1 {
		changed = true
	}

	// Absorbing elements.
	if n > 0 && ((op.kind == AND || op.kind == MUL) && acc == 0 || op.kind == OR && acc == mask) {
		return f.BVLit(acc, e.size)
	}
	if n > 0 && acc == flatIdentity(op.kind, e.size) {
		changed = true
	} else if n > 0 {
		lit, err := f.BVLit(acc, e.size)
		if err != nil {
			return nil, err
		}
		rest = append(rest, lit)
	}

	switch {
	case len(rest) == 0:
		return f.BVLit(flatIdentity(op.kind, e.size), e.size)
	case len(rest) == 1:
		return rest[0], nil
	case !changed:
		return e, nil
	}
	return f.Flat(op.kind, rest...)
}

func simplifyFlatBool(f *Factory, e *Expr, op *Flat) (*Expr, error) {
	identity := op.kind == AND

	changed := false
	var args []*Expr
	for _, arg := range op.Args {
		if child, ok := arg.op.(*Flat); ok && child.kind == op.kind && !arg.HasAnnotations() {
			args, changed = append(args, child.Args...), true
		} else {
			args = append(args, arg)
		}
	}

	seen := make(map[Hash]struct{}, len(args))
	var rest []*Expr
	for _, arg := range args {
		if v, ok := boolValue(arg); ok {
			if v != identity {
				return f.BoolLit(v), nil
			}
			changed = true
			continue
		}
		if _, ok := seen[arg.hash]; ok {
			changed = true
			continue
		}
		seen[arg.hash] = struct{}{}
		rest = append(rest, arg)
	}

	switch {
	case len(rest) == 0:
		return f.BoolLit(identity), nil
	case len(rest) == 1:
		return rest[0], nil
	case !changed:
		return e, nil
	}
	return f.Flat(op.kind, rest...)
}

func simplifyExt(f *Factory, e *Expr) (*Expr, error) {
	op := e.op.(*UIntBinary)
	if op.N == 0 {
		return op.X, nil
	}

	v, ok := bvValue(op.X)
	if !ok || e.size > Width64 {
		return e, nil
	}
	if op.kind == SEXT && v>>(op.X.size-1)&1 == 1 {
		v |= bitmask(e.size) &^ bitmask(op.X.size)
	}
	return f.BVLit(v, e.size)
}

func simplifyExtract(f *Factory, e *Expr) (*Expr, error) {
	op := e.op.(*Extract)
	x := op.X
	if op.Low == 0 && op.High == x.size-1 {
		return x, nil
	} else if v, ok := bvValue(x); ok {
		return f.BVLit(v>>op.Low&bitmask(e.size), e.size)
	}

	// Extract directly from one side of a concatenation.
	if concat, ok := x.op.(*Binary); ok && concat.kind == CONCAT {
		lsb := concat.RHS
		if op.Low >= lsb.size {
			return f.Extract(op.High-lsb.size, op.Low-lsb.size, concat.LHS)
		} else if op.High < lsb.size {
			return f.Extract(op.High, op.Low, lsb)
		}
	}

	// Nested extraction.
	if inner, ok := x.op.(*Extract); ok {
		return f.Extract(inner.Low+op.High, inner.Low+op.Low, inner.X)
	}
	return e, nil
}

func simplifyIf(f *Factory, e *Expr) (*Expr, error) {
	op := e.op.(*If)
	if v, ok := boolValue(op.Cond); ok {
		if v {
			return op.Then, nil
		}
		return op.Else, nil
	}
	if op.Then.hash == op.Else.hash {
		return op.Then, nil
	}
	return e, nil
}
