package clari

import (
	"github.com/benbjohnson/clari/internal/logging"
	"github.com/benbjohnson/clari/internal/weakcache"
	"github.com/benbjohnson/immutable"
)

// Factory is the only way to create expressions. It hash-conses every node it
// builds so structurally equal expressions created by the same Factory are
// pointer-equal. A Factory is safe for concurrent use.
type Factory struct {
	cache       *weakcache.Cache[Hash, Expr]
	simplifiers map[OpKind]simplifier
	logger      logging.Logger
}

// NewFactory returns a new instance of Factory.
func NewFactory(config Config) (*Factory, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	logger := config.logger()
	return &Factory{
		cache:       weakcache.New[Hash, Expr](config.CacheGCThreshold, logger.With("component", "cache")),
		simplifiers: newSimplifierTable(),
		logger:      logger,
	}, nil
}

// MustNewFactory returns a Factory built from DefaultConfig.
func MustNewFactory() *Factory {
	f, err := NewFactory(DefaultConfig())
	if err != nil {
		panic(err)
	}
	return f
}

// Live returns the number of cached expressions that are still reachable.
func (f *Factory) Live() int { return f.cache.Live() }

// Lookup returns the live expression cached under h, if any.
func (f *Factory) Lookup(h Hash) *Expr { return f.cache.Find(h) }

// Annotate returns a copy of e with annotations appended. The copy shares e's
// hash and operator but is not installed in the cache.
func (f *Factory) Annotate(e *Expr, annotations ...Annotation) *Expr {
	if len(annotations) == 0 {
		return e
	}

	l := e.annotations
	if l == nil {
		l = immutable.NewList()
	}
	for _, a := range annotations {
		l = l.Append(a)
	}

	other := *e
	other.annotations = l
	return &other
}

// StripAnnotations returns e without annotations.
func (f *Factory) StripAnnotations(e *Expr) *Expr {
	if e.annotations == nil {
		return e
	}
	if canonical := f.cache.Find(e.hash); canonical != nil && canonical.annotations == nil {
		return canonical
	}
	other := *e
	other.annotations = nil
	return &other
}

// construct returns the canonical expression of the given sort and size
// computed by op. On a cache miss the node is built and simplified outside
// the cache lock; the simplified node is installed under the raw hash.
func (f *Factory) construct(sort Sort, size uint, op Op) (*Expr, error) {
	h := hashOp(sort, size, op)
	return f.cache.FindOrConstruct(h, func() (*Expr, error) {
		e := &Expr{
			hash:     h,
			sort:     sort,
			size:     size,
			symbolic: isSymbolic(op),
			op:       op,
		}
		return f.simplify(e)
	})
}

// mustConstruct is construct for operators that have no failure modes.
func (f *Factory) mustConstruct(sort Sort, size uint, op Op) *Expr {
	e, err := f.construct(sort, size, op)
	assert(err == nil, "construct %s: %v", op.Kind(), err)
	return e
}

func isSymbolic(op Op) bool {
	if _, ok := op.(*Symbol); ok {
		return true
	}
	for _, operand := range op.Operands() {
		if operand.symbolic {
			return true
		}
	}
	return false
}
