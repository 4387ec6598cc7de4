package z3

import (
	"fmt"
	"strings"
	"time"

	"github.com/benbjohnson/clari"
	"github.com/benbjohnson/clari/internal/logging"
	"github.com/benbjohnson/immutable"
	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
)

/*
#include <z3.h>
*/
import "C"

// Backend converts expressions built by a single Factory to Z3 terms and
// back. Each Backend owns its Z3 context, its memo caches and its
// translocation table so a Backend must not be shared between goroutines.
type Backend struct {
	ctx     *Context
	factory *clari.Factory
	logger  logging.Logger

	conv map[*clari.Expr]C.Z3_ast
	abs  map[C.uint]*clari.Expr

	// Annotations of converted symbols keyed by the hash of the symbol
	// name. Z3 constants have no slot for them.
	transloc *immutable.SortedMap

	stats Stats
}

// NewBackend returns a new instance of Backend that builds expressions with f.
func NewBackend(f *clari.Factory, config Config) *Backend {
	logger := logging.Discard()
	if config.Logger != nil {
		logger = logging.New(config.Logger)
	}

	return &Backend{
		ctx:      NewContext(config),
		factory:  f,
		logger:   logger.With("component", "z3"),
		conv:     make(map[*clari.Expr]C.Z3_ast),
		abs:      make(map[C.uint]*clari.Expr),
		transloc: immutable.NewSortedMap(&uint64Comparer{}),
	}
}

// Close releases the backend's Z3 context. Terms returned by the backend
// must not be used afterward.
func (b *Backend) Close() error {
	b.conv, b.abs = nil, nil
	return b.ctx.Close()
}

// Stats returns statistics for the backend.
func (b *Backend) Stats() Stats {
	return b.stats
}

// Context returns the Z3 context that owns the backend's terms.
func (b *Backend) Context() *Context {
	return b.ctx
}

// ClearCaches drops the conversion and abstraction memo caches.
func (b *Backend) ClearCaches() {
	b.conv = make(map[*clari.Expr]C.Z3_ast)
	b.abs = make(map[C.uint]*clari.Expr)
}

// ClearTranslocation drops every stored symbol annotation set.
func (b *Backend) ClearTranslocation() {
	b.transloc = immutable.NewSortedMap(&uint64Comparer{})
}

// Convert returns the Z3 term for e. Operands are converted before their
// parents and shared subexpressions are converted once.
func (b *Backend) Convert(e *clari.Expr) (AST, error) {
	if e == nil {
		return AST{}, errors.Wrap(clari.ErrUsage, "z3.Backend.Convert: nil expression")
	}
	raw, err := b.convert(e)
	if err != nil {
		return AST{}, err
	}
	return AST{ctx: b.ctx, raw: raw}, nil
}

func (b *Backend) convert(root *clari.Expr) (C.Z3_ast, error) {
	b.stats.ConvertN++

	if err := clari.Walk(root, func(e *clari.Expr) error {
		sym, isSymbol := e.Op().(*clari.Symbol)
		if isSymbol {
			b.translocate(e, sym)
		}
		if _, ok := b.conv[e]; ok {
			return nil
		}

		operands := e.Operands()
		args := make([]C.Z3_ast, len(operands))
		for i, operand := range operands {
			args[i] = b.conv[operand]
		}

		ast, err := b.ctx.toAST(e, args)
		if err != nil {
			if errors.Is(err, clari.ErrUnsupported) {
				b.logger.Warn("unsupported expression", "op", e.Kind(), "sort", e.Sort())
			}
			return errors.Wrapf(err, "convert %s", e.Kind())
		}
		b.conv[e] = ast
		return nil
	}); err != nil {
		return nil, err
	}
	return b.conv[root], nil
}

// translocate records the annotations of a symbol expression, or clears a
// stale entry when the expression has none.
func (b *Backend) translocate(e *clari.Expr, sym *clari.Symbol) {
	key := xxhash.Sum64String(sym.Name)
	if e.HasAnnotations() {
		b.transloc = b.transloc.Set(key, e.Annotations())
		return
	}
	b.transloc = b.transloc.Delete(key)
}

// translocated returns the annotations recorded for the symbol name.
func (b *Backend) translocated(name string) []clari.Annotation {
	v, ok := b.transloc.Get(xxhash.Sum64String(name))
	if !ok {
		return nil
	}
	return v.([]clari.Annotation)
}

// Satisfiable returns true if the conjunction of constraints has a model.
func (b *Backend) Satisfiable(constraints ...*clari.Expr) (bool, error) {
	s, err := b.newSolver(constraints)
	if err != nil {
		return false, err
	}
	defer s.close()

	ok, err := s.check()
	if err != nil {
		return false, err
	}
	b.logger.Debug("checked", "constraints", len(constraints), "sat", ok)
	return ok, nil
}

// Eval returns up to n distinct values of e under constraints. Fewer values
// are returned when the constraints allow fewer solutions.
func (b *Backend) Eval(e *clari.Expr, n int, constraints ...*clari.Expr) ([]*clari.Expr, error) {
	if e == nil {
		return nil, errors.Wrap(clari.ErrUsage, "z3.Backend.Eval: nil expression")
	} else if n <= 0 {
		return nil, errors.Wrapf(clari.ErrUsage, "z3.Backend.Eval: invalid solution count: %d", n)
	}

	target, err := b.convert(e)
	if err != nil {
		return nil, err
	}

	s, err := b.newSolver(constraints)
	if err != nil {
		return nil, err
	}
	defer s.close()

	var values []*clari.Expr
	for len(values) < n {
		if ok, err := s.check(); err != nil {
			return nil, err
		} else if !ok {
			break
		}

		raw, err := s.eval(target)
		if err != nil {
			return nil, err
		}
		value, err := b.abstract(raw)
		if err != nil {
			return nil, err
		}
		values = append(values, value)

		// Block the value so the next check finds a different one.
		eq := C.Z3_mk_eq(b.ctx.raw, target, raw)
		if err := b.ctx.err("Z3_mk_eq"); err != nil {
			return nil, err
		}
		neq := C.Z3_mk_not(b.ctx.raw, eq)
		if err := b.ctx.err("Z3_mk_not"); err != nil {
			return nil, err
		}
		if err := s.assert(neq); err != nil {
			return nil, err
		}
	}
	return values, nil
}

// Min returns the smallest unsigned value of the bit-vector e under
// constraints. Returns false if the constraints are unsatisfiable.
func (b *Backend) Min(e *clari.Expr, constraints ...*clari.Expr) (uint64, bool, error) {
	return b.optimize(e, constraints, false)
}

// Max returns the largest unsigned value of the bit-vector e under
// constraints. Returns false if the constraints are unsatisfiable.
func (b *Backend) Max(e *clari.Expr, constraints ...*clari.Expr) (uint64, bool, error) {
	return b.optimize(e, constraints, true)
}

// optimize binary searches the value range of e, narrowing each step with
// a pushed bound and keeping the model value as the new limit.
func (b *Backend) optimize(e *clari.Expr, constraints []*clari.Expr, maximize bool) (uint64, bool, error) {
	if e == nil {
		return 0, false, errors.Wrap(clari.ErrUsage, "z3.Backend.optimize: nil expression")
	} else if e.Sort() != clari.SortBV {
		return 0, false, errors.Wrapf(clari.ErrType, "z3.Backend.optimize: %s expression", e.Sort())
	} else if e.Size() > clari.Width64 {
		return 0, false, errors.Wrapf(clari.ErrUnsupported, "z3.Backend.optimize: %d-bit expression", e.Size())
	}

	target, err := b.convert(e)
	if err != nil {
		return 0, false, err
	}

	s, err := b.newSolver(constraints)
	if err != nil {
		return 0, false, err
	}
	defer s.close()

	value, ok, err := s.checkValue(target)
	if err != nil || !ok {
		return 0, ok, err
	}

	lo, hi := uint64(0), ^uint64(0)>>(clari.Width64-e.Size())
	if maximize {
		lo = value
	} else {
		hi = value
	}

	for lo < hi {
		var mid uint64
		var bound C.Z3_ast
		if maximize {
			mid = lo + (hi-lo)/2 + 1
			bound, err = b.ctx.makeUint64(e.Size(), mid)
			if err == nil {
				bound, err = C.Z3_mk_bvuge(b.ctx.raw, target, bound), b.ctx.err("Z3_mk_bvuge")
			}
		} else {
			mid = lo + (hi-lo)/2
			bound, err = b.ctx.makeUint64(e.Size(), mid)
			if err == nil {
				bound, err = C.Z3_mk_bvule(b.ctx.raw, target, bound), b.ctx.err("Z3_mk_bvule")
			}
		}
		if err != nil {
			return 0, false, err
		}

		s.push()
		if err := s.assert(bound); err != nil {
			return 0, false, err
		}
		v, ok, err := s.checkValue(target)
		s.pop()
		if err != nil {
			return 0, false, err
		}

		switch {
		case ok && maximize:
			lo = v
		case ok:
			hi = v
		case maximize:
			hi = mid - 1
		default:
			lo = mid + 1
		}
	}

	b.logger.Debug("optimized", "expr", e.Kind(), "maximize", maximize, "value", lo)
	return lo, true, nil
}

// solver wraps a reference counted Z3 solver with the constraints asserted.
type solver struct {
	b   *Backend
	raw C.Z3_solver
}

func (b *Backend) newSolver(constraints []*clari.Expr) (*solver, error) {
	raw := C.Z3_mk_solver(b.ctx.raw)
	if err := b.ctx.err("Z3_mk_solver"); err != nil {
		return nil, err
	}
	C.Z3_solver_inc_ref(b.ctx.raw, raw)
	s := &solver{b: b, raw: raw}

	for _, constraint := range constraints {
		if constraint == nil {
			s.close()
			return nil, errors.Wrap(clari.ErrUsage, "z3.Backend: nil constraint")
		} else if constraint.Sort() != clari.SortBool {
			s.close()
			return nil, errors.Wrapf(clari.ErrType, "z3.Backend: %s constraint", constraint.Sort())
		}

		ast, err := b.convert(constraint)
		if err != nil {
			s.close()
			return nil, err
		}
		if err := s.assert(ast); err != nil {
			s.close()
			return nil, err
		}
	}
	return s, nil
}

func (s *solver) close() {
	C.Z3_solver_dec_ref(s.b.ctx.raw, s.raw)
}

func (s *solver) assert(ast C.Z3_ast) error {
	C.Z3_solver_assert(s.b.ctx.raw, s.raw, ast)
	return s.b.ctx.err("Z3_solver_assert")
}

func (s *solver) push() {
	C.Z3_solver_push(s.b.ctx.raw, s.raw)
}

func (s *solver) pop() {
	C.Z3_solver_pop(s.b.ctx.raw, s.raw, 1)
}

// check returns true if the asserted constraints are satisfiable.
func (s *solver) check() (bool, error) {
	t := time.Now()
	defer func() {
		s.b.stats.SolveN++
		s.b.stats.SolveTime += time.Since(t)
	}()

	ret := C.Z3_solver_check(s.b.ctx.raw, s.raw)
	if err := s.b.ctx.err("Z3_solver_check"); err != nil {
		return false, err
	} else if ret == C.Z3_L_FALSE {
		return false, nil
	} else if ret == C.Z3_L_UNDEF {
		reason := C.GoString(C.Z3_solver_get_reason_unknown(s.b.ctx.raw, s.raw))
		switch {
		case strings.Contains(reason, "timeout"):
			return false, clari.ErrSolverTimeout
		case strings.Contains(reason, "canceled"):
			return false, clari.ErrSolverCanceled
		case strings.Contains(reason, "(resource limits reached)"):
			return false, clari.ErrSolverResourceLimit
		case strings.Contains(reason, "unknown"):
			return false, clari.ErrSolverUnknown
		default:
			return false, fmt.Errorf("z3: %s", reason)
		}
	}
	return true, nil
}

// eval returns the value of ast in the model of the last successful check.
func (s *solver) eval(ast C.Z3_ast) (C.Z3_ast, error) {
	ctx := s.b.ctx
	model := C.Z3_solver_get_model(ctx.raw, s.raw)
	if err := ctx.err("Z3_solver_get_model"); err != nil {
		return nil, err
	}
	C.Z3_model_inc_ref(ctx.raw, model)
	defer C.Z3_model_dec_ref(ctx.raw, model)

	var out C.Z3_ast
	if !C.Z3_model_eval(ctx.raw, model, ast, C.bool(true), &out) {
		if err := ctx.err("Z3_model_eval"); err != nil {
			return nil, err
		}
		return nil, errors.Wrapf(clari.ErrInternal, "z3: cannot evaluate %s in model:\n%s", ctx.astToString(ast), ctx.modelToString(model))
	}
	return out, nil
}

// checkValue checks the solver and returns the unsigned model value of ast.
func (s *solver) checkValue(ast C.Z3_ast) (uint64, bool, error) {
	if ok, err := s.check(); err != nil || !ok {
		return 0, false, err
	}
	raw, err := s.eval(ast)
	if err != nil {
		return 0, false, err
	}

	var v C.uint64_t
	if !C.Z3_get_numeral_uint64(s.b.ctx.raw, raw, &v) {
		return 0, false, errors.Wrapf(clari.ErrInternal, "z3: model value is not a numeral: %s", s.b.ctx.astToString(raw))
	}
	return uint64(v), true, nil
}

// uint64Comparer compares two 64-bit unsigned integers. Implements immutable.Comparer.
type uint64Comparer struct{}

// Compare returns -1 if a is less than b, returns 1 if a is greater than b, and
// returns 0 if a is equal to b. Panic if a or b is not a uint64.
func (c *uint64Comparer) Compare(a, b interface{}) int {
	if i, j := a.(uint64), b.(uint64); i < j {
		return -1
	} else if i > j {
		return 1
	}
	return 0
}
